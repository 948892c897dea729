package sample

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimADC_FollowsSinusoid(t *testing.T) {
	start := time.Unix(1700000000, 0)
	now := start
	adc := NewSimADC(SimParams{BaseCelsius: 25, SwingCelsius: 5, Period: 40 * time.Second}, LM35, func() time.Time { return now })

	at := func(d time.Duration) float64 {
		now = start.Add(d)
		return LM35.Convert(adc.Get()).Celsius()
	}

	assert.InDelta(t, 25, at(0), 0.5)
	assert.InDelta(t, 30, at(10*time.Second), 0.5)
	assert.InDelta(t, 20, at(30*time.Second), 0.5)
}

func TestSimADC_ClampsBelowZero(t *testing.T) {
	adc := NewSimADC(SimParams{BaseCelsius: -10}, LM35, nil)
	assert.Equal(t, uint16(0), adc.Get())
}

func TestIIO_Get(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in_voltage0_raw")
	assert.NoError(t, os.WriteFile(path, []byte("612\n"), 0644))

	adc := NewIIO(path, nil)
	assert.Equal(t, uint16(612), adc.Get())

	assert.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))
	assert.Equal(t, uint16(612), adc.Get(), "invalid value keeps the last reading")

	assert.NoError(t, os.Remove(path))
	assert.Equal(t, uint16(612), adc.Get(), "missing file keeps the last reading")
}
