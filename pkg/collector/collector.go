// Package collector implements the periodic logging state machine. It owns
// the occupancy counter and the collecting flag and persists samples into
// consecutive EEPROM slots.
package collector

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/itohio/godatalog/pkg/eeprom"
	"github.com/itohio/godatalog/pkg/sample"
)

// Capacity is the number of sample slots. The top slot holds the counter.
const Capacity = eeprom.Slots - 1

// ErrMemoryFull is returned by Start when every slot is occupied.
var ErrMemoryFull = errors.New("memory full")

// Storage is the slot-addressed persistent memory.
type Storage interface {
	Write(value uint16, offset uint16) error
	Read(offset uint16) (uint16, error)
}

// Outcome describes what a sampling tick did.
type Outcome int

const (
	// Skipped means logging is idle; nothing was written.
	Skipped Outcome = iota
	// Stored means the sample was written and counted.
	Stored
	// Filled means the sample was written, counted and occupied the last
	// free slot; logging stopped.
	Filled
	// Failed means the sample write failed and the sample was not counted.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Stored:
		return "stored"
	case Filled:
		return "filled"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Status is a read-only view of the logging session.
type Status struct {
	Occupied   int  `json:"occupied"`
	Available  int  `json:"available"`
	Collecting bool `json:"collecting"`
}

// Collector is the logging state machine. It is not safe for concurrent use;
// the scheduler loop owns it.
type Collector struct {
	store  Storage
	logger *slog.Logger

	occupancy  int
	collecting bool
}

// New creates an idle, empty Collector. Call Load to restore the persisted
// occupancy.
func New(store Storage, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{store: store, logger: logger}
}

// Load restores the occupancy counter from the reserved slot. A counter
// above Capacity, as read from a blank device, is taken as zero.
func (c *Collector) Load() error {
	v, err := c.store.Read(eeprom.CounterOffset)
	if err != nil {
		c.occupancy = 0
		return fmt.Errorf("failed to load occupancy: %w", err)
	}

	if int(v) > Capacity {
		c.logger.Warn("occupancy counter out of range, assuming empty memory", "counter", v)
		c.occupancy = 0
		return nil
	}

	c.occupancy = int(v)
	c.logger.Info("occupancy restored", "occupied", c.occupancy, "available", c.Available())
	return nil
}

// Occupancy returns the number of stored samples.
func (c *Collector) Occupancy() int { return c.occupancy }

// Available returns the number of free slots.
func (c *Collector) Available() int { return Capacity - c.occupancy }

// Collecting reports whether samples are being stored.
func (c *Collector) Collecting() bool { return c.collecting }

// Status returns the current session state.
func (c *Collector) Status() Status {
	return Status{
		Occupied:   c.occupancy,
		Available:  c.Available(),
		Collecting: c.collecting,
	}
}

// Start enables logging unless memory is full.
func (c *Collector) Start() error {
	if c.occupancy >= Capacity {
		return ErrMemoryFull
	}
	c.collecting = true
	c.logger.Info("logging started", "occupied", c.occupancy)
	return nil
}

// Stop disables logging and returns the number of stored samples.
func (c *Collector) Stop() int {
	c.collecting = false
	c.logger.Info("logging stopped", "occupied", c.occupancy)
	return c.occupancy
}

// Erase zeroes the persisted counter and the occupancy. Sample slots are
// left as they are; everything past the counter is unused. The in-memory
// occupancy is reset even if the counter write fails.
func (c *Collector) Erase() error {
	err := c.store.Write(0, eeprom.CounterOffset)
	c.occupancy = 0
	c.logger.Info("memory erased")
	if err != nil {
		return fmt.Errorf("failed to clear occupancy counter: %w", err)
	}
	return nil
}

// Record handles one sampling tick. While collecting, t is written to the
// next free slot first and the counter is persisted afterwards, so an
// interruption between the two can only under-count.
//
// A failed sample write returns Failed and does not advance the occupancy.
// A failed counter write still returns Stored or Filled together with the
// error; the persisted counter then lags behind.
func (c *Collector) Record(t sample.Temperature) (Outcome, error) {
	if !c.collecting {
		return Skipped, nil
	}

	if err := c.store.Write(uint16(t), eeprom.SlotOffset(c.occupancy)); err != nil {
		return Failed, fmt.Errorf("failed to store sample %d: %w", c.occupancy, err)
	}
	c.occupancy++

	outcome := Stored
	if c.occupancy >= Capacity {
		c.collecting = false
		outcome = Filled
		c.logger.Warn("memory full, logging stopped", "occupied", c.occupancy)
	}

	if err := c.store.Write(uint16(c.occupancy), eeprom.CounterOffset); err != nil {
		return outcome, fmt.Errorf("failed to persist occupancy %d: %w", c.occupancy, err)
	}

	return outcome, nil
}
