// Package command implements the operator command state machine. Every
// state-changing function is selected with a digit key and gated by the
// confirm/cancel protocol.
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/itohio/godatalog/pkg/collector"
	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/keypad"
)

// MaxQuantityDigits bounds the typed export quantity.
const MaxQuantityDigits = 4

// Function is an operator function selected from the idle state.
type Function int

const (
	NoFunction Function = iota
	Erase
	Status
	Start
	Stop
	Export
)

// FunctionOf maps the selection keys '1'..'5' to functions.
func FunctionOf(k keypad.Key) (Function, bool) {
	switch k {
	case '1':
		return Erase, true
	case '2':
		return Status, true
	case '3':
		return Start, true
	case '4':
		return Stop, true
	case '5':
		return Export, true
	}
	return NoFunction, false
}

func (f Function) String() string {
	switch f {
	case Erase:
		return "erase"
	case Status:
		return "status"
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Export:
		return "export"
	}
	return "none"
}

func (f Function) prompt() string {
	switch f {
	case Erase:
		return "Erase memory?"
	case Status:
		return "Show status?"
	case Start:
		return "Start logging?"
	case Stop:
		return "Stop logging?"
	case Export:
		return "Export data?"
	}
	return ""
}

// Phase is the top-level state of the Machine.
type Phase int

const (
	Idle Phase = iota
	Pending
	AwaitingQuantity
	Exporting
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case AwaitingQuantity:
		return "awaiting_quantity"
	case Exporting:
		return "exporting"
	}
	return "unknown"
}

// State is the Phase plus, while Pending, the function awaiting
// confirmation.
type State struct {
	Phase    Phase
	Function Function
}

func (s State) String() string {
	if s.Phase == Pending {
		return "pending(" + s.Function.String() + ")"
	}
	return s.Phase.String()
}

// Logging is the logging state machine driven by confirmed commands.
type Logging interface {
	Start() error
	Stop() int
	Erase() error
	Status() collector.Status
}

// Exporter streams stored samples, one per Step.
type Exporter interface {
	Begin(n int)
	Step() bool
}

// Machine is the command state machine. It is owned by the scheduler loop
// and is not safe for concurrent use.
type Machine struct {
	logging Logging
	export  Exporter
	text    display.Text
	logger  *slog.Logger

	state    State
	quantity int
	typed    int
}

// New creates an idle Machine.
func New(logging Logging, export Exporter, text display.Text, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		logging: logging,
		export:  export,
		text:    text,
		logger:  logger,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Quantity returns the export quantity typed so far, or the quantity being
// exported.
func (m *Machine) Quantity() int { return m.quantity }

// Welcome shows the boot screen.
func (m *Machine) Welcome() {
	m.show("Welcome!", "Choose function")
}

// Handle applies one key event. Keys that mean nothing in the current state
// are ignored.
func (m *Machine) Handle(k keypad.Key) {
	switch m.state.Phase {
	case Idle:
		f, ok := FunctionOf(k)
		if !ok {
			return
		}
		m.transition(State{Phase: Pending, Function: f})
		m.show(f.prompt(), "*/# - No/Yes")

	case Pending:
		switch k {
		case keypad.Confirm:
			m.confirm(m.state.Function)
		case keypad.Cancel:
			m.cancel()
		}

	case AwaitingQuantity:
		switch {
		case k == keypad.Confirm:
			m.beginExport()
		case k == keypad.Cancel:
			m.cancel()
		case k.IsDigit() && m.typed < MaxQuantityDigits:
			m.quantity = m.quantity*10 + int(k.Digit())
			m.typed++
			m.text.Print(k.String())
		}

	case Exporting:
		// Exports always run to completion.
	}
}

// Service advances a running export by one sample.
func (m *Machine) Service() {
	if m.state.Phase != Exporting {
		return
	}
	if !m.export.Step() {
		return
	}
	m.quantity = 0
	m.transition(State{Phase: Idle})
	m.show("Export complete", "Choose function")
}

// MemoryFull reports that logging stopped itself because the last free slot
// was written. A pending confirmation or quantity entry is discarded; a
// running export continues.
func (m *Machine) MemoryFull() {
	if m.state.Phase == Pending || m.state.Phase == AwaitingQuantity {
		m.quantity, m.typed = 0, 0
		m.transition(State{Phase: Idle})
	}
	m.show("Memory full", "Logging ended")
}

func (m *Machine) confirm(f Function) {
	switch f {
	case Erase:
		if err := m.logging.Erase(); err != nil {
			m.logger.Warn("erase incomplete", "error", err)
		}
		m.transition(State{Phase: Idle})
		m.show("Memory erased!", fmt.Sprintf("Available: %d", collector.Capacity))

	case Status:
		st := m.logging.Status()
		m.transition(State{Phase: Idle})
		m.show(fmt.Sprintf("Stored:    %d", st.Occupied), fmt.Sprintf("Available: %d", st.Available))

	case Start:
		err := m.logging.Start()
		m.transition(State{Phase: Idle})
		switch {
		case errors.Is(err, collector.ErrMemoryFull):
			m.show("Memory full", "Erase memory")
		case err != nil:
			m.logger.Warn("start rejected", "error", err)
		default:
			m.show("Logging started!", "Writing memory")
		}

	case Stop:
		n := m.logging.Stop()
		m.transition(State{Phase: Idle})
		m.show("Logging stopped!", fmt.Sprintf("Samples: %d", n))

	case Export:
		m.quantity, m.typed = 0, 0
		m.transition(State{Phase: AwaitingQuantity})
		m.show("Export data:", "Quantity: ")
	}
}

func (m *Machine) beginExport() {
	n := m.quantity
	stored := m.logging.Status().Occupied
	if n > stored {
		m.logger.Info("export quantity clamped", "requested", n, "stored", stored)
		n = stored
		m.show("Qty > stored", "Exporting: "+strconv.Itoa(n))
	} else {
		m.show("Exporting: "+strconv.Itoa(n), "")
	}

	m.quantity, m.typed = n, 0
	m.export.Begin(n)
	m.transition(State{Phase: Exporting})
}

func (m *Machine) cancel() {
	m.quantity, m.typed = 0, 0
	m.transition(State{Phase: Idle})
	m.show("Cancelled!", "Choose function")
}

func (m *Machine) transition(s State) {
	if s == m.state {
		return
	}
	m.logger.Debug("command state", "from", m.state.String(), "to", s.String())
	m.state = s
}

func (m *Machine) show(top, bottom string) {
	m.logger.Debug("screen", "top", top, "bottom", bottom)
	display.Show(m.text, top, bottom)
}
