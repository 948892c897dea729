// Package trend keeps a time window of recent readings for live plotting.
package trend

import (
	"slices"
	"sync"
	"time"

	"github.com/itohio/godatalog/pkg/collector"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/sample"
	"github.com/itohio/godatalog/pkg/scheduler"
)

// DefaultWindow is the history kept when New is given a zero window.
const DefaultWindow = 10 * time.Minute

// Point is one reading.
type Point struct {
	Time  time.Time
	Value sample.Temperature
}

// Trend is a FIFO of readings bounded by age. Rates correspond to point
// pairs: rates[i] is the change from points[i] to points[i+1] in degrees
// per minute, so n points carry n-1 rates.
//
// Trend implements scheduler.Observer; only acquired readings are used.
type Trend struct {
	window time.Duration
	now    func() time.Time

	mu     sync.RWMutex
	points []Point
	rates  []float64

	cbMu      sync.RWMutex
	callbacks []func(points []Point, rates []float64)
}

// New creates a Trend keeping readings younger than window. A nil now uses
// time.Now.
func New(window time.Duration, now func() time.Time) *Trend {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Trend{window: window, now: now}
}

// Window returns the history length.
func (t *Trend) Window() time.Duration { return t.window }

// Add appends a reading taken at ts and drops readings that fell out of
// the window.
func (t *Trend) Add(ts time.Time, v sample.Temperature) {
	t.mu.Lock()

	t.points = append(t.points, Point{Time: ts, Value: v})

	cutoff := ts.Add(-t.window)
	drop := 0
	for drop < len(t.points) && !t.points[drop].Time.After(cutoff) {
		drop++
	}
	if drop > 0 {
		t.points = t.points[drop:]
		t.rates = t.rates[min(drop, len(t.rates)):]
	}

	if n := len(t.points); n >= 2 {
		prev, curr := t.points[n-2], t.points[n-1]
		if dt := curr.Time.Sub(prev.Time).Minutes(); dt > 0 {
			t.rates = append(t.rates, (curr.Value.Celsius()-prev.Value.Celsius())/dt)
		} else {
			t.rates = append(t.rates, 0)
		}
	}

	points, rates := t.snapshot()
	t.mu.Unlock()

	t.notify(points, rates)
}

// Points returns a copy of the readings, oldest first.
func (t *Trend) Points() []Point {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Point(nil), t.points...)
}

// Rates returns a copy of the rates of change in degrees per minute.
func (t *Trend) Rates() []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]float64(nil), t.rates...)
}

// OnUpdate registers a callback invoked with copies of the data after every
// Add. The callback should return quickly.
func (t *Trend) OnUpdate(cb func(points []Point, rates []float64)) {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()
	t.callbacks = append(t.callbacks, cb)
}

func (t *Trend) snapshot() ([]Point, []float64) {
	return append([]Point(nil), t.points...), append([]float64(nil), t.rates...)
}

func (t *Trend) notify(points []Point, rates []float64) {
	t.cbMu.RLock()
	callbacks := slices.Clone(t.callbacks)
	t.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(points, rates)
		}
	}
}

// Acquired adds a reading taken now.
func (t *Trend) Acquired(v sample.Temperature) { t.Add(t.now(), v) }

func (t *Trend) Recorded(collector.Outcome, collector.Status) {}
func (t *Trend) KeyPressed(keypad.Key)                        {}
func (t *Trend) Exported(int)                                 {}

var _ scheduler.Observer = (*Trend)(nil)
