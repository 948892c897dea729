package sample

import (
	"math"
	"time"
)

// SimParams shapes the simulated temperature.
type SimParams struct {
	BaseCelsius  float64       // mean temperature
	SwingCelsius float64       // amplitude of the slow sinusoid
	NoiseCelsius float64       // amplitude of the ripple
	Period       time.Duration // period of the slow sinusoid
}

// SimADC simulates a temperature sensor behind an ADC for development
// without hardware.
type SimADC struct {
	params SimParams
	cal    Calibration
	start  time.Time
	now    func() time.Time
}

// Ensure SimADC implements ADC.
var _ ADC = (*SimADC)(nil)

// NewSimADC creates a simulated sensor. A nil now uses time.Now.
func NewSimADC(params SimParams, cal Calibration, now func() time.Time) *SimADC {
	if now == nil {
		now = time.Now
	}
	if params.Period <= 0 {
		params.Period = time.Minute
	}
	return &SimADC{
		params: params,
		cal:    cal,
		start:  now(),
		now:    now,
	}
}

// Get returns the raw reading for the current simulated temperature.
func (s *SimADC) Get() uint16 {
	elapsed := s.now().Sub(s.start)

	phase := 2 * math.Pi * elapsed.Seconds() / s.params.Period.Seconds()
	celsius := s.params.BaseCelsius + s.params.SwingCelsius*math.Sin(phase)

	ripple := (math.Sin(float64(elapsed.Milliseconds())*0.001) +
		math.Cos(float64(elapsed.Milliseconds())*0.0013)) * 0.5
	celsius += ripple * s.params.NoiseCelsius

	if celsius < 0 {
		celsius = 0
	}
	hundredths := math.Min(celsius*Scale, math.MaxUint16)

	return s.cal.Raw(Temperature(hundredths))
}
