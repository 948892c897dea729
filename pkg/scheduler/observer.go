package scheduler

import (
	"github.com/itohio/godatalog/pkg/collector"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/sample"
)

// Observer receives loop events. Methods are called from the loop
// goroutine and must not block.
type Observer interface {
	Acquired(t sample.Temperature)
	Recorded(outcome collector.Outcome, st collector.Status)
	KeyPressed(k keypad.Key)
	Exported(n int)
}

// Observers fans events out to each Observer in order.
type Observers []Observer

func (o Observers) Acquired(t sample.Temperature) {
	for _, obs := range o {
		obs.Acquired(t)
	}
}

func (o Observers) Recorded(outcome collector.Outcome, st collector.Status) {
	for _, obs := range o {
		obs.Recorded(outcome, st)
	}
}

func (o Observers) KeyPressed(k keypad.Key) {
	for _, obs := range o {
		obs.KeyPressed(k)
	}
}

func (o Observers) Exported(n int) {
	for _, obs := range o {
		obs.Exported(n)
	}
}

var _ Observer = Observers(nil)
