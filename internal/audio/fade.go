package audio

// Smoothstep returns the smoothstep interpolation for t in [0,1].
// Formula: 3t^2 - 2t^3.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// FadeOut ramps the last n samples of each channel down to silence along an
// inverted smoothstep curve. Channels must have equal length.
func FadeOut(left, right []float32, n int) {
	total := len(left)
	if n > total {
		n = total
	}
	if n <= 0 {
		return
	}
	start := total - n
	for i := start; i < total; i++ {
		progress := float64(i-start+1) / float64(n)
		gain := float32(1 - Smoothstep(progress))
		left[i] *= gain
		right[i] *= gain
	}
}

// ClipInt16 scales a [-1,1] float sample to int16 range, clipping overshoot.
func ClipInt16(v float32) int16 {
	mixed := float64(v) * 32767
	if mixed > 32767 {
		mixed = 32767
	} else if mixed < -32768 {
		mixed = -32768
	}
	return int16(mixed)
}
