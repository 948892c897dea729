package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedADC uint16

func (a fixedADC) Get() uint16 { return uint16(a) }

func TestTemperature_String(t *testing.T) {
	tests := []struct {
		in   Temperature
		want string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{2345, "23.45"},
		{2300, "23.00"},
		{9999, "99.99"},
		{50000, "500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestTemperature_Celsius(t *testing.T) {
	assert.InDelta(t, 23.45, Temperature(2345).Celsius(), 1e-9)
}

func TestLM35_Convert(t *testing.T) {
	tests := []struct {
		raw  uint16
		want Temperature
	}{
		{0, 0},
		{1, 48},
		{60, 2932},
		{205, 10019},
		{1023, 50000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LM35.Convert(tt.raw), "raw %d", tt.raw)
	}
}

func TestConvert_MatchesFoldedConstant(t *testing.T) {
	// The folded constant 5 V * 100 °C/V * 100 / 1023 counts.
	folded := 5.0 * 100 * 100 / 1023
	for raw := uint16(0); raw <= 1023; raw++ {
		want := math.Floor(float64(raw) * folded)
		got := float64(LM35.Convert(raw))
		assert.InDelta(t, want, got, 1, "raw %d", raw)
	}
}

func TestConvert_WideConverter(t *testing.T) {
	cal := Calibration{ReferenceMillivolts: 3300, ResolutionBits: 16, MillivoltsPerDegree: 10}
	assert.Equal(t, Temperature(33000), cal.Convert(65535))
	assert.Equal(t, Temperature(16500), cal.Convert(32767)+1)
}

func TestConvert_Saturates(t *testing.T) {
	cal := Calibration{ReferenceMillivolts: 5000, ResolutionBits: 10, MillivoltsPerDegree: 1}
	assert.Equal(t, Temperature(math.MaxUint16), cal.Convert(1023))
}

func TestConvert_ZeroCalibration(t *testing.T) {
	assert.Equal(t, Temperature(0), Calibration{}.Convert(512))
	assert.Equal(t, uint16(0), Calibration{}.Raw(2000))
}

func TestRaw_Inverse(t *testing.T) {
	for _, temp := range []Temperature{0, 1, 48, 2345, 2500, 9999} {
		raw := LM35.Raw(temp)
		got := LM35.Convert(raw)
		assert.GreaterOrEqual(t, got, temp)
		assert.Less(t, int(got-temp), 49, "one count of the converter is ~0.49 °C")
	}
	assert.Equal(t, uint16(1023), LM35.Raw(60000))
}

func TestCalibration_Validate(t *testing.T) {
	assert.NoError(t, LM35.Validate())
	assert.Error(t, Calibration{ResolutionBits: 10, MillivoltsPerDegree: 10}.Validate())
	assert.Error(t, Calibration{ReferenceMillivolts: 5000, MillivoltsPerDegree: 10}.Validate())
	assert.Error(t, Calibration{ReferenceMillivolts: 5000, ResolutionBits: 17, MillivoltsPerDegree: 10}.Validate())
	assert.Error(t, Calibration{ReferenceMillivolts: 5000, ResolutionBits: 10}.Validate())
}

func TestAcquirer(t *testing.T) {
	a := NewAcquirer(fixedADC(60), LM35)
	assert.Equal(t, Temperature(2932), a.Acquire())
}

func TestDigitsOf(t *testing.T) {
	tests := []struct {
		in   Temperature
		want Digits
	}{
		{0, Digits{0, 0, 0, 0}},
		{2345, Digits{2, 3, 4, 5}},
		{907, Digits{0, 9, 0, 7}},
		{9999, Digits{9, 9, 9, 9}},
		{12345, Digits{2, 3, 4, 5}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DigitsOf(tt.in), "temperature %d", tt.in)
	}
}

func TestNarrow(t *testing.T) {
	assert.Equal(t, uint16(4095), Narrow{ADC: fixedADC(0xFFF0), Bits: 12}.Get())
	assert.Equal(t, uint16(310), Narrow{ADC: fixedADC(4964), Bits: 12}.Get())
	assert.Equal(t, uint16(1234), Narrow{ADC: fixedADC(1234), Bits: 16}.Get())
}

func TestPicoLM35_RoomTemperature(t *testing.T) {
	// 250 mV from the sensor reads as 310 on a 12-bit 3.3 V converter,
	// left-aligned to 16 bits by the machine ADC.
	a := NewAcquirer(Narrow{ADC: fixedADC(310 << 4), Bits: PicoLM35.ResolutionBits}, PicoLM35)
	got := a.Acquire()
	assert.Equal(t, Temperature(2498), got)
	assert.Equal(t, "24.98", got.String())
	assert.NoError(t, PicoLM35.Validate())
}
