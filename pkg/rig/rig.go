// Package rig assembles the logger core from its hardware-facing parts.
package rig

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/itohio/godatalog/pkg/collector"
	"github.com/itohio/godatalog/pkg/command"
	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/eeprom"
	"github.com/itohio/godatalog/pkg/export"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/sample"
	"github.com/itohio/godatalog/pkg/scheduler"
)

// Parts are the hardware-facing pieces of a logger.
type Parts struct {
	Bus         eeprom.Bus
	EEPROMBase  byte // zero means eeprom.BaseAddress
	Sleep       func(time.Duration)
	ADC         sample.ADC
	Calibration sample.Calibration
	Text        display.Text
	Segments    display.Segments
	Out         io.Writer // export destination
	Keys        keypad.Source
	Ticks       *scheduler.TickCounter
	Observer    scheduler.Observer
	Logger      *slog.Logger
}

// Rig is an assembled logger.
type Rig struct {
	Device    *eeprom.Device
	Collector *collector.Collector
	Exporter  *export.Sequencer
	Machine   *command.Machine
	Loop      *scheduler.Loop
}

// New wires parts into a Rig. Bus, ADC, Text, Segments, Out and Keys are
// required.
func New(p Parts) (*Rig, error) {
	switch {
	case p.Bus == nil:
		return nil, fmt.Errorf("rig: no memory bus")
	case p.ADC == nil:
		return nil, fmt.Errorf("rig: no sensor")
	case p.Text == nil:
		return nil, fmt.Errorf("rig: no text display")
	case p.Segments == nil:
		return nil, fmt.Errorf("rig: no segment display")
	case p.Out == nil:
		return nil, fmt.Errorf("rig: no export output")
	case p.Keys == nil:
		return nil, fmt.Errorf("rig: no key source")
	}
	if err := p.Calibration.Validate(); err != nil {
		return nil, fmt.Errorf("rig: %w", err)
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}

	dev := eeprom.New(p.Bus, p.Sleep)
	if p.EEPROMBase != 0 {
		dev.WithBase(p.EEPROMBase)
	}

	coll := collector.New(dev, p.Logger.With("component", "collector"))
	exp := export.New(dev, p.Out, p.Logger.With("component", "export"))
	machine := command.New(coll, exp, p.Text, p.Logger.With("component", "command"))

	loop := scheduler.New(scheduler.Config{
		Sampler:   sample.NewAcquirer(p.ADC, p.Calibration),
		Collector: coll,
		Machine:   machine,
		Exporter:  exp,
		Keys:      p.Keys,
		Segments:  p.Segments,
		Ticks:     p.Ticks,
		Observer:  p.Observer,
		Logger:    p.Logger.With("component", "loop"),
	})

	return &Rig{
		Device:    dev,
		Collector: coll,
		Exporter:  exp,
		Machine:   machine,
		Loop:      loop,
	}, nil
}
