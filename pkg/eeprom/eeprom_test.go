package eeprom

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the driver sleeps.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time        { return c.t }
func (c *fakeClock) Sleep(d time.Duration) { c.t = c.t.Add(d) }

func newSimDevice() (*Device, *Sim, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	sim := NewSim(clock.Now)
	return New(sim, clock.Sleep), sim, clock
}

type transaction struct {
	op   string
	addr byte
	data []byte
	num  int
}

// recordingBus records transactions and answers reads with a fixed reply.
type recordingBus struct {
	txs   []transaction
	reply []byte
	err   error
}

func (b *recordingBus) WriteBytes(addr byte, value []byte) error {
	b.txs = append(b.txs, transaction{op: "w", addr: addr, data: append([]byte(nil), value...)})
	return b.err
}

func (b *recordingBus) ReadBytes(addr byte, num int) ([]byte, error) {
	b.txs = append(b.txs, transaction{op: "r", addr: addr, num: num})
	return b.reply, b.err
}

func TestWrite_Transaction(t *testing.T) {
	tests := []struct {
		name     string
		value    uint16
		offset   uint16
		wantAddr byte
		wantData []byte
	}{
		{"first slot", 0x1234, 0x000, 0x50, []byte{0x00, 0x12, 0x34}},
		{"block 1", 0xBEEF, 0x1A2, 0x51, []byte{0xA2, 0xBE, 0xEF}},
		{"counter slot", 1023, CounterOffset, 0x57, []byte{0xFE, 0x03, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &recordingBus{}
			var slept time.Duration
			dev := New(bus, func(d time.Duration) { slept += d })

			require.NoError(t, dev.Write(tt.value, tt.offset))
			require.Len(t, bus.txs, 1)
			assert.Equal(t, "w", bus.txs[0].op)
			assert.Equal(t, tt.wantAddr, bus.txs[0].addr)
			assert.Equal(t, tt.wantData, bus.txs[0].data)
			assert.GreaterOrEqual(t, slept, WriteCycle)
		})
	}
}

func TestRead_DummyWriteThenRead(t *testing.T) {
	bus := &recordingBus{reply: []byte{0x09, 0x29}}
	dev := New(bus, func(time.Duration) {})

	v, err := dev.Read(0x3FE)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0929), v)

	require.Len(t, bus.txs, 2)
	assert.Equal(t, transaction{op: "w", addr: 0x53, data: []byte{0xFE}}, bus.txs[0])
	assert.Equal(t, transaction{op: "r", addr: 0x53, num: 2}, bus.txs[1])
}

func TestRoundTrip(t *testing.T) {
	dev, _, _ := newSimDevice()

	values := map[int]uint16{0: 2345, 1: 0, 255: 0xFFFE, 511: 4887, 1022: 9999, Slots - 1: 17}
	for slot, v := range values {
		require.NoError(t, dev.Write(v, SlotOffset(slot)))
	}
	for slot, want := range values {
		got, err := dev.Read(SlotOffset(slot))
		require.NoError(t, err)
		assert.Equal(t, want, got, "slot %d", slot)
	}
}

func TestRead_BlankDevice(t *testing.T) {
	dev, _, _ := newSimDevice()

	v, err := dev.Read(CounterOffset)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xFFFF), v)
}

func TestWrite_CounterLandsAtTop(t *testing.T) {
	dev, sim, _ := newSimDevice()

	require.NoError(t, dev.Write(0x0102, CounterOffset))
	mem := sim.Bytes()
	assert.Equal(t, byte(0x01), mem[Size-2])
	assert.Equal(t, byte(0x02), mem[Size-1])
	assert.Equal(t, byte(0xFF), mem[0x3FE])
}

func TestWrite_WithoutWriteCycleIsRejected(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	sim := NewSim(clock.Now)
	dev := New(sim, func(time.Duration) {})

	require.NoError(t, dev.Write(1, 0))
	err := dev.Write(2, 2)
	assert.ErrorIs(t, err, ErrNack)

	clock.Sleep(WriteCycle)
	assert.NoError(t, dev.Write(2, 2))
}

func TestInvalidOffset(t *testing.T) {
	dev, _, _ := newSimDevice()

	for _, off := range []uint16{1, 0x7FF, Size, 0xFFFE} {
		assert.ErrorIs(t, dev.Write(0, off), ErrOffset, "offset %#x", off)
		v, err := dev.Read(off)
		assert.ErrorIs(t, err, ErrOffset, "offset %#x", off)
		assert.Equal(t, Unreadable, v)
	}
}

func TestAbsentDevice(t *testing.T) {
	dev, sim, _ := newSimDevice()
	sim.SetAbsent(true)

	assert.ErrorIs(t, dev.Write(5, 0), ErrNack)

	v, err := dev.Read(0)
	assert.ErrorIs(t, err, ErrNack)
	assert.Equal(t, Unreadable, v)
}

func TestRead_ShortRead(t *testing.T) {
	bus := &recordingBus{reply: []byte{0x01}}
	dev := New(bus, func(time.Duration) {})

	v, err := dev.Read(0)
	assert.Error(t, err)
	assert.Equal(t, Unreadable, v)
}

func TestWrite_BusErrorStillWaits(t *testing.T) {
	bus := &recordingBus{err: errors.New("bus fault")}
	var slept time.Duration
	dev := New(bus, func(d time.Duration) { slept += d })

	assert.Error(t, dev.Write(1, 0))
	assert.Equal(t, WriteCycle, slept)
}

func TestWithBase(t *testing.T) {
	bus := &recordingBus{}
	dev := New(bus, func(time.Duration) {}).WithBase(0x5B)

	require.NoError(t, dev.Write(0x0102, 0x304))
	require.Len(t, bus.txs, 1)
	assert.Equal(t, byte(0x5B), bus.txs[0].addr, "block bits are folded into the strapped base")
}
