package eeprom

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSim_PageRollOver(t *testing.T) {
	sim := NewSim(nil)

	require.NoError(t, sim.WriteBytes(0x50, []byte{0x0E, 1, 2, 3}))
	mem := sim.Bytes()
	assert.Equal(t, byte(1), mem[0x0E])
	assert.Equal(t, byte(2), mem[0x0F])
	assert.Equal(t, byte(3), mem[0x00])
	assert.Equal(t, byte(0xFF), mem[0x10])
}

func TestSim_ForeignAddress(t *testing.T) {
	sim := NewSim(nil)

	assert.ErrorIs(t, sim.WriteBytes(0x20, []byte{0}), ErrNack)
	_, err := sim.ReadBytes(0x48, 1)
	assert.ErrorIs(t, err, ErrNack)
}

func TestSim_SequentialReadWraps(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	sim := NewSim(clock.Now)

	require.NoError(t, sim.WriteBytes(0x57, []byte{0xFF, 0xAB}))
	clock.Sleep(WriteCycle)
	require.NoError(t, sim.WriteBytes(0x50, []byte{0x00, 0xCD}))
	clock.Sleep(WriteCycle)

	require.NoError(t, sim.WriteBytes(0x57, []byte{0xFF}))
	data, err := sim.ReadBytes(0x57, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xCD}, data)
}

func TestSim_SaveLoad(t *testing.T) {
	dev, sim, _ := newSimDevice()
	require.NoError(t, dev.Write(4242, SlotOffset(10)))

	var buf bytes.Buffer
	require.NoError(t, sim.Save(&buf))
	assert.Equal(t, Size, buf.Len())

	other := NewSim(nil)
	require.NoError(t, other.Load(&buf))
	v, err := New(other, func(time.Duration) {}).Read(SlotOffset(10))
	require.NoError(t, err)
	assert.Equal(t, uint16(4242), v)
}

func TestSim_LoadShortImage(t *testing.T) {
	sim := NewSim(nil)
	assert.Error(t, sim.Load(bytes.NewReader([]byte{1, 2, 3})))
}

func TestSim_Files(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")

	sim := NewSim(nil)
	require.NoError(t, sim.LoadFile(path), "missing image leaves device erased")
	assert.Equal(t, byte(0xFF), sim.Bytes()[0])

	require.NoError(t, sim.WriteBytes(0x50, []byte{0x00, 0x42}))
	require.NoError(t, sim.SaveFile(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(Size), info.Size())

	other := NewSim(nil)
	require.NoError(t, other.LoadFile(path))
	assert.Equal(t, byte(0x42), other.Bytes()[0])
}
