package collector

import (
	"errors"
	"testing"
	"time"

	"github.com/itohio/godatalog/pkg/eeprom"
	"github.com/itohio/godatalog/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time        { return c.t }
func (c *fakeClock) Sleep(d time.Duration) { c.t = c.t.Add(d) }

func newDevice(t *testing.T) (*eeprom.Device, *eeprom.Sim) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	sim := eeprom.NewSim(clock.Now)
	return eeprom.New(sim, clock.Sleep), sim
}

// newCollectorAt returns a loaded Collector whose persisted counter is n.
func newCollectorAt(t *testing.T, n int) (*Collector, *eeprom.Device) {
	t.Helper()
	dev, _ := newDevice(t)
	require.NoError(t, dev.Write(uint16(n), eeprom.CounterOffset))
	c := New(dev, nil)
	require.NoError(t, c.Load())
	require.Equal(t, n, c.Occupancy())
	return c, dev
}

// faultyStore fails writes to the offsets in failOn.
type faultyStore struct {
	failOn map[uint16]bool
	writes []uint16
}

func (s *faultyStore) Write(value uint16, offset uint16) error {
	s.writes = append(s.writes, offset)
	if s.failOn[offset] {
		return eeprom.ErrNack
	}
	return nil
}

func (s *faultyStore) Read(uint16) (uint16, error) { return 0, nil }

func TestRecord_FirstSample(t *testing.T) {
	c, dev := newCollectorAt(t, 0)
	require.NoError(t, c.Start())

	outcome, err := c.Record(2345)
	require.NoError(t, err)
	assert.Equal(t, Stored, outcome)
	assert.Equal(t, 1, c.Occupancy())

	v, err := dev.Read(eeprom.SlotOffset(0))
	require.NoError(t, err)
	assert.Equal(t, uint16(2345), v)

	counter, err := dev.Read(eeprom.CounterOffset)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), counter)
}

func TestRecord_FillsLastSlot(t *testing.T) {
	c, dev := newCollectorAt(t, Capacity-1)
	require.NoError(t, c.Start())

	outcome, err := c.Record(1999)
	require.NoError(t, err)
	assert.Equal(t, Filled, outcome)
	assert.Equal(t, Capacity, c.Occupancy())
	assert.False(t, c.Collecting())

	v, err := dev.Read(eeprom.SlotOffset(Capacity - 1))
	require.NoError(t, err)
	assert.Equal(t, uint16(1999), v)

	counter, err := dev.Read(eeprom.CounterOffset)
	require.NoError(t, err)
	assert.Equal(t, uint16(Capacity), counter)

	outcome, err = c.Record(2000)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
}

func TestStartTicksStop(t *testing.T) {
	tests := []struct {
		before int
		ticks  int
	}{
		{0, 0},
		{0, 5},
		{10, 30},
		{1000, 23},
		{1000, 30},
		{1020, 5},
		{Capacity, 3},
	}

	for _, tt := range tests {
		c, _ := newCollectorAt(t, tt.before)
		if err := c.Start(); err != nil {
			require.ErrorIs(t, err, ErrMemoryFull)
		}
		for i := 0; i < tt.ticks; i++ {
			_, err := c.Record(sample.Temperature(i))
			require.NoError(t, err)
		}
		stored := c.Stop() - tt.before

		assert.Equal(t, min(tt.ticks, Capacity-tt.before), stored, "before=%d ticks=%d", tt.before, tt.ticks)
	}
}

func TestRecord_IdleWritesNothing(t *testing.T) {
	dev, sim := newDevice(t)
	c := New(dev, nil)
	before := sim.Bytes()

	outcome, err := c.Record(1234)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
	assert.Equal(t, before, sim.Bytes())
	assert.Equal(t, 0, c.Occupancy())
}

func TestStart_MemoryFull(t *testing.T) {
	c, _ := newCollectorAt(t, Capacity)

	assert.ErrorIs(t, c.Start(), ErrMemoryFull)
	assert.False(t, c.Collecting())
}

func TestErase_Idempotent(t *testing.T) {
	for _, n := range []int{0, 1, 512, Capacity} {
		c, dev := newCollectorAt(t, n)

		require.NoError(t, c.Erase())
		assert.Equal(t, 0, c.Occupancy())
		require.NoError(t, c.Erase())
		assert.Equal(t, 0, c.Occupancy())

		counter, err := dev.Read(eeprom.CounterOffset)
		require.NoError(t, err)
		assert.Equal(t, uint16(0), counter)
	}
}

func TestStatus_SumsToCapacity(t *testing.T) {
	for _, n := range []int{0, 1, 511, 1022, Capacity} {
		c, _ := newCollectorAt(t, n)
		st := c.Status()
		assert.Equal(t, n, st.Occupied)
		assert.Equal(t, Capacity-n, st.Available)
		assert.Equal(t, Capacity, st.Occupied+st.Available)
	}
}

func TestLoad(t *testing.T) {
	t.Run("blank device", func(t *testing.T) {
		dev, _ := newDevice(t)
		c := New(dev, nil)
		require.NoError(t, c.Load())
		assert.Equal(t, 0, c.Occupancy())
	})

	t.Run("out of range counter", func(t *testing.T) {
		dev, _ := newDevice(t)
		require.NoError(t, dev.Write(Capacity+1, eeprom.CounterOffset))
		c := New(dev, nil)
		require.NoError(t, c.Load())
		assert.Equal(t, 0, c.Occupancy())
	})

	t.Run("absent device", func(t *testing.T) {
		dev, sim := newDevice(t)
		sim.SetAbsent(true)
		c := New(dev, nil)
		err := c.Load()
		assert.ErrorIs(t, err, eeprom.ErrNack)
		assert.Equal(t, 0, c.Occupancy())
	})
}

func TestRecord_SampleWriteFailure(t *testing.T) {
	store := &faultyStore{failOn: map[uint16]bool{eeprom.SlotOffset(0): true}}
	c := New(store, nil)
	require.NoError(t, c.Start())

	outcome, err := c.Record(100)
	assert.Error(t, err)
	assert.Equal(t, Failed, outcome)
	assert.Equal(t, 0, c.Occupancy())
	assert.Equal(t, []uint16{0}, store.writes, "counter is not touched after a failed sample")
}

func TestRecord_CounterWriteFailure(t *testing.T) {
	store := &faultyStore{failOn: map[uint16]bool{eeprom.CounterOffset: true}}
	c := New(store, nil)
	require.NoError(t, c.Start())

	outcome, err := c.Record(100)
	assert.True(t, errors.Is(err, eeprom.ErrNack))
	assert.Equal(t, Stored, outcome)
	assert.Equal(t, 1, c.Occupancy())
	assert.Equal(t, []uint16{0, eeprom.CounterOffset}, store.writes, "sample is written before the counter")
}

func TestErase_WriteFailureStillResets(t *testing.T) {
	store := &faultyStore{failOn: map[uint16]bool{eeprom.CounterOffset: true}}
	c := New(store, nil)
	require.NoError(t, c.Start())
	_, _ = c.Record(1)

	assert.Error(t, c.Erase())
	assert.Equal(t, 0, c.Occupancy())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "stored", Stored.String())
	assert.Equal(t, "filled", Filled.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
