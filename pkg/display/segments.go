package display

import (
	"fmt"
	"sync"

	"github.com/itohio/godatalog/pkg/sample"
)

// MuxAddress is the bus address of the port expander driving the readout.
const MuxAddress = 0x20

// Segments is the four-digit live value readout. Show latches new digits;
// Refresh advances the multiplexing by one digit and is called once per
// scheduler iteration.
type Segments interface {
	Show(d sample.Digits)
	Refresh() error
}

// Writer is the write half of a two-wire bus.
type Writer interface {
	WriteBytes(addr byte, value []byte) error
}

// enable holds the active-low digit enable patterns, most significant digit
// first.
var enable = [4]byte{0x07, 0x0B, 0x0D, 0x0E}

// Mux drives four multiplexed 7-segment digits through an 8-bit port
// expander. The high nibble carries the digit enables and the low nibble
// feeds a BCD to 7-segment decoder.
type Mux struct {
	bus    Writer
	addr   byte
	digits sample.Digits
	next   int
}

// NewMux creates a Mux for the expander at addr.
func NewMux(bus Writer, addr byte) *Mux {
	return &Mux{bus: bus, addr: addr}
}

func (m *Mux) Show(d sample.Digits) { m.digits = d }

// Refresh lights the next digit.
func (m *Mux) Refresh() error {
	i := m.next
	m.next = (m.next + 1) % len(enable)

	b := enable[i]<<4 | m.digits[i]&0x0F
	if err := m.bus.WriteBytes(m.addr, []byte{b}); err != nil {
		return fmt.Errorf("failed to refresh digit %d: %w", i, err)
	}
	return nil
}

// Latch is a Segments for software front panels. Refresh is a no-op.
type Latch struct {
	mu       sync.Mutex
	digits   sample.Digits
	onChange func(sample.Digits)
}

// OnChange registers a callback receiving every newly shown value.
func (l *Latch) OnChange(fn func(sample.Digits)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *Latch) Show(d sample.Digits) {
	l.mu.Lock()
	l.digits = d
	fn := l.onChange
	l.mu.Unlock()
	if fn != nil {
		fn(d)
	}
}

func (l *Latch) Refresh() error { return nil }

// Digits returns the latched value.
func (l *Latch) Digits() sample.Digits {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.digits
}

// Format renders d the way the readout shows it, with the decimal point
// after the second digit.
func Format(d sample.Digits) string {
	return fmt.Sprintf("%d%d.%d%d", d[0], d[1], d[2], d[3])
}

var (
	_ Segments = (*Mux)(nil)
	_ Segments = (*Latch)(nil)
)
