// Package sample turns raw analog readings of a linear temperature sensor
// into fixed-point temperatures.
package sample

import (
	"errors"
	"math"
	"strconv"
)

// Scale is the fixed-point scale of a Temperature: hundredths of a degree.
const Scale = 100

// Temperature is a non-negative temperature in hundredths of a degree
// Celsius. 2345 is 23.45 °C.
type Temperature uint16

// String formats t as degrees with two fractional digits.
func (t Temperature) String() string {
	whole := int(t) / Scale
	frac := int(t) % Scale
	s := strconv.Itoa(whole) + "."
	if frac < 10 {
		s += "0"
	}
	return s + strconv.Itoa(frac)
}

// Celsius returns t in degrees.
func (t Temperature) Celsius() float64 {
	return float64(t) / Scale
}

// Calibration describes the analog front end. The conversion is
//
//	hundredths = raw * ReferenceMillivolts * Scale / (FullScale * MillivoltsPerDegree)
//
// computed in integers so that results do not depend on float rounding.
type Calibration struct {
	ReferenceMillivolts uint32 // ADC reference voltage
	ResolutionBits      uint8  // ADC resolution
	MillivoltsPerDegree uint32 // sensor sensitivity
}

// LM35 is an LM35 sensor on a 10-bit converter with a 5 V reference.
var LM35 = Calibration{
	ReferenceMillivolts: 5000,
	ResolutionBits:      10,
	MillivoltsPerDegree: 10,
}

// PicoLM35 is an LM35 on an RP2040 ADC input: 12 bits with a 3.3 V reference.
var PicoLM35 = Calibration{
	ReferenceMillivolts: 3300,
	ResolutionBits:      12,
	MillivoltsPerDegree: 10,
}

// FullScale returns the largest raw reading.
func (c Calibration) FullScale() uint32 {
	return 1<<c.ResolutionBits - 1
}

// Validate reports calibrations that cannot convert.
func (c Calibration) Validate() error {
	switch {
	case c.ReferenceMillivolts == 0:
		return errors.New("reference voltage must be > 0")
	case c.ResolutionBits == 0 || c.ResolutionBits > 16:
		return errors.New("resolution must be 1..16 bits")
	case c.MillivoltsPerDegree == 0:
		return errors.New("sensor sensitivity must be > 0")
	}
	return nil
}

// Convert turns a raw reading into a Temperature, truncating toward zero.
func (c Calibration) Convert(raw uint16) Temperature {
	den := uint64(c.FullScale()) * uint64(c.MillivoltsPerDegree)
	if den == 0 {
		return 0
	}
	v := uint64(raw) * uint64(c.ReferenceMillivolts) * Scale / den
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return Temperature(v)
}

// Raw returns the reading that converts to t, limited to the full scale.
func (c Calibration) Raw(t Temperature) uint16 {
	num := uint64(c.ReferenceMillivolts) * Scale
	if num == 0 {
		return 0
	}
	full := uint64(c.FullScale())
	// Round up so that Convert(Raw(t)) does not fall below t by truncation.
	v := (uint64(t)*full*uint64(c.MillivoltsPerDegree) + num - 1) / num
	if v > full {
		v = full
	}
	return uint16(v)
}

// ADC is a single analog input.
type ADC interface {
	Get() uint16
}

// Narrow adapts an ADC that reports left-aligned 16-bit readings to a
// converter of Bits resolution.
type Narrow struct {
	ADC  ADC
	Bits uint8
}

func (n Narrow) Get() uint16 {
	if n.Bits == 0 || n.Bits >= 16 {
		return n.ADC.Get()
	}
	return n.ADC.Get() >> (16 - n.Bits)
}

// Acquirer reads an ADC and converts the reading with a fixed calibration.
type Acquirer struct {
	adc ADC
	cal Calibration
}

// NewAcquirer creates an Acquirer.
func NewAcquirer(adc ADC, cal Calibration) *Acquirer {
	return &Acquirer{adc: adc, cal: cal}
}

// Acquire takes one reading.
func (a *Acquirer) Acquire() Temperature {
	return a.cal.Convert(a.adc.Get())
}

// Digits are the four display digits of a Temperature: tens, units, tenths
// and hundredths of a degree.
type Digits [4]uint8

// DigitsOf splits t into display digits. Values of 100 °C and above show
// only their lowest four decimal digits.
func DigitsOf(t Temperature) Digits {
	v := int(t)
	return Digits{
		uint8(v / 1000 % 10),
		uint8(v / 100 % 10),
		uint8(v / 10 % 10),
		uint8(v % 10),
	}
}
