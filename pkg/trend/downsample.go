package trend

// Downsample reduces src to at most maxPoints elements by decimation.
// It reuses dst when it has enough capacity and returns the result.
func Downsample[T any](dst, src []T, maxPoints int) []T {
	if len(src) <= maxPoints {
		if cap(dst) >= len(src) {
			dst = dst[:len(src)]
		} else {
			dst = make([]T, len(src))
		}
		copy(dst, src)
		return dst
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]T, 0, maxPoints)
	}

	step := float64(len(src)) / float64(maxPoints)
	for i := range maxPoints {
		dst = append(dst, src[int(float64(i)*step)])
	}
	return dst
}
