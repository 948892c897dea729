package sample

// Averaging is an ADC that returns the mean of several consecutive
// readings of another ADC.
type Averaging struct {
	adc ADC
	n   int
}

var _ ADC = (*Averaging)(nil)

// NewAveraging wraps adc. An n of 0 or 1 returns adc unchanged.
func NewAveraging(adc ADC, n int) ADC {
	if n <= 1 {
		return adc
	}
	return &Averaging{adc: adc, n: n}
}

// Get reads the wrapped ADC n times and returns the truncated mean.
func (a *Averaging) Get() uint16 {
	var sum uint32
	for range a.n {
		sum += uint32(a.adc.Get())
	}
	return uint16(sum / uint32(a.n))
}
