package link

import (
	"bufio"
	"bytes"
	"fmt"
	"sync"

	"github.com/itohio/godatalog/pkg/keypad"
)

// Mock is an in-process Link. Written output is split into lines and kept;
// keys are injected with Press.
type Mock struct {
	mu        sync.Mutex
	keys      chan keypad.Key
	connected bool
	drained   bool // keys closed by the previous session
	partial   []byte
	lines     []string
	onLine    func(string)
}

// NewMock creates a disconnected Mock.
func NewMock() *Mock {
	return &Mock{keys: make(chan keypad.Key, DefaultBufferSize)}
}

// OnLine registers a callback receiving every complete output line. It is
// called with the Mock lock released.
func (m *Mock) OnLine(fn func(string)) {
	m.mu.Lock()
	m.onLine = fn
	m.mu.Unlock()
}

// Connect simulates connecting to the link. Reconnecting after Close opens
// a new key channel.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.drained {
		m.keys = make(chan keypad.Key, cap(m.keys))
		m.drained = false
	}
	m.connected = true
	return nil
}

// Close stops the link and closes the key channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}
	m.connected = false
	m.drained = true
	close(m.keys)
	return nil
}

// Keys returns the key channel of the current or most recent session.
func (m *Mock) Keys() <-chan keypad.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys
}

// Press injects a remote key. It returns false if the Mock is closed, k is
// not a keypad character or the channel is full.
func (m *Mock) Press(k keypad.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected || !k.Valid() {
		return false
	}
	select {
	case m.keys <- k:
		return true
	default:
		return false
	}
}

// Write records output. Complete lines are delivered to the OnLine callback.
func (m *Mock) Write(p []byte) (int, error) {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return 0, ErrNotConnected
	}

	m.partial = append(m.partial, p...)
	var complete []string
	consumed := bytes.LastIndexByte(m.partial, '\n') + 1
	sc := bufio.NewScanner(bytes.NewReader(m.partial[:consumed]))
	for sc.Scan() {
		complete = append(complete, sc.Text())
	}
	m.partial = append(m.partial[:0], m.partial[consumed:]...)
	m.lines = append(m.lines, complete...)
	fn := m.onLine
	m.mu.Unlock()

	if fn != nil {
		for _, l := range complete {
			fn(l)
		}
	}
	return len(p), nil
}

// Lines returns the complete lines written so far.
func (m *Mock) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// IsConnected returns whether the link is connected.
func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}
