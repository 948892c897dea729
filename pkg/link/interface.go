// Package link is the serial channel of the logger. Export lines go out on
// it and keypad characters typed on the remote terminal come back in.
package link

import (
	"context"
	"io"

	"github.com/itohio/godatalog/pkg/keypad"
)

// Link defines the interface for serial links (real or mocked).
type Link interface {
	io.Writer
	Connect() error
	Close() error
	Keys() <-chan keypad.Key
	IsConnected() bool
}

var (
	_ Link = (*Serial)(nil)
	_ Link = (*Mock)(nil)
)

// Forward moves remote key events from keys into q until keys is closed or
// ctx is done. Keys that do not fit into q are dropped.
func Forward(ctx context.Context, keys <-chan keypad.Key, q *keypad.Queue) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			q.Push(k)
		}
	}
}
