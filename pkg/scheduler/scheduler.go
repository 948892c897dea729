// Package scheduler runs the cooperative control loop. Each iteration
// checks whether a sample is due, refreshes one display digit, handles at
// most one key event and advances a running export by one sample.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/itohio/godatalog/pkg/collector"
	"github.com/itohio/godatalog/pkg/command"
	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/export"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/sample"
)

// Pause is the idle time between iterations in Run.
const Pause = time.Millisecond

// Sampler produces one calibrated reading.
type Sampler interface {
	Acquire() sample.Temperature
}

// Config wires the loop to its components.
type Config struct {
	Sampler   Sampler
	Collector *collector.Collector
	Machine   *command.Machine
	Exporter  *export.Sequencer
	Keys      keypad.Source
	Segments  display.Segments
	Ticks     *TickCounter
	Observer  Observer
	Logger    *slog.Logger
}

// Status is a point-in-time view of the logger published after every
// iteration.
type Status struct {
	collector.Status
	State          string             `json:"state"`
	Temperature    sample.Temperature `json:"temperature"`
	Celsius        float64            `json:"celsius"`
	SampledAt      time.Time          `json:"sampled_at"`
	Samples        uint64             `json:"samples"`
	ExportDone     int                `json:"export_done"`
	ExportTotal    int                `json:"export_total"`
	SegmentsFailed bool               `json:"segments_failed"`
}

// Loop owns every core component. Only Status may be called from other
// goroutines.
type Loop struct {
	cfg    Config
	logger *slog.Logger

	latest      sample.Temperature
	sampledAt   time.Time
	samples     uint64
	segmentsBad bool

	mu     sync.RWMutex
	status Status
}

// New creates a Loop. Observer and Logger may be nil.
func New(cfg Config) *Loop {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = Observers(nil)
	}
	if cfg.Ticks == nil {
		cfg.Ticks = &TickCounter{}
	}
	return &Loop{cfg: cfg, logger: cfg.Logger}
}

// Ticks returns the counter driving the sampling period.
func (l *Loop) Ticks() *TickCounter { return l.cfg.Ticks }

// Boot restores the occupancy, takes a first reading for the live display
// and shows the welcome screen.
func (l *Loop) Boot() {
	if err := l.cfg.Collector.Load(); err != nil {
		l.logger.Warn("failed to restore occupancy", "error", err)
	}
	l.acquire()
	l.cfg.Machine.Welcome()
	l.publish()
}

// Step runs one iteration.
func (l *Loop) Step() {
	filled := false
	if l.cfg.Ticks.Due() {
		filled = l.sample()
	}

	l.refresh()

	// The memory-full notice is this iteration's command transition; a
	// pending key is left for the next one.
	if !filled {
		if k, ok := l.cfg.Keys.Next(); ok {
			l.cfg.Observer.KeyPressed(k)
			l.logger.Debug("key", "key", k.String())
			l.cfg.Machine.Handle(k)
		}
	}

	before := l.cfg.Exporter.Exported()
	l.cfg.Machine.Service()
	if n := l.cfg.Exporter.Exported() - before; n > 0 {
		l.cfg.Observer.Exported(n)
	}

	l.publish()
}

// Run boots the loop and iterates until ctx is done. The tick counter is
// driven from a separate goroutine.
func (l *Loop) Run(ctx context.Context) error {
	go l.cfg.Ticks.Run(ctx)

	l.Boot()
	l.logger.Info("control loop started", "sample_period", SamplePeriod)

	pause := time.NewTicker(Pause)
	defer pause.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("control loop stopped", "occupied", l.cfg.Collector.Occupancy())
			return ctx.Err()
		case <-pause.C:
			l.Step()
		}
	}
}

// Status returns the last published snapshot.
func (l *Loop) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

func (l *Loop) acquire() sample.Temperature {
	t := l.cfg.Sampler.Acquire()
	l.latest = t
	l.sampledAt = time.Now()
	l.samples++
	l.cfg.Segments.Show(sample.DigitsOf(t))
	l.cfg.Observer.Acquired(t)
	return t
}

// sample acquires and records one reading. It reports whether the reading
// filled the memory.
func (l *Loop) sample() bool {
	t := l.acquire()

	outcome, err := l.cfg.Collector.Record(t)
	if err != nil {
		l.logger.Warn("failed to record sample", "outcome", outcome.String(), "error", err)
	}
	if outcome != collector.Skipped {
		l.cfg.Observer.Recorded(outcome, l.cfg.Collector.Status())
	}
	if outcome != collector.Filled {
		return false
	}

	l.cfg.Machine.MemoryFull()
	return true
}

func (l *Loop) refresh() {
	err := l.cfg.Segments.Refresh()
	switch {
	case err != nil && !l.segmentsBad:
		l.logger.Warn("live value display not responding", "error", err)
		l.segmentsBad = true
	case err == nil && l.segmentsBad:
		l.logger.Info("live value display recovered")
		l.segmentsBad = false
	}
}

func (l *Loop) publish() {
	done, total := l.cfg.Exporter.Progress()
	st := Status{
		Status:         l.cfg.Collector.Status(),
		State:          l.cfg.Machine.State().String(),
		Temperature:    l.latest,
		Celsius:        l.latest.Celsius(),
		SampledAt:      l.sampledAt,
		Samples:        l.samples,
		ExportDone:     done,
		ExportTotal:    total,
		SegmentsFailed: l.segmentsBad,
	}

	l.mu.Lock()
	l.status = st
	l.mu.Unlock()
}
