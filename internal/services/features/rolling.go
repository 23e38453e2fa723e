package features

import "math"

// RollingWindow keeps running sum and sum of squares over the last Size values,
// so each Push is O(1) regardless of window size.
type RollingWindow struct {
	size int
	buf  []float64
	head int
	n    int
	sum  float64
	sum2 float64
}

// NewRollingWindow creates a trailing window of the given size (minimum 1).
func NewRollingWindow(size int) *RollingWindow {
	if size < 1 {
		size = 1
	}
	return &RollingWindow{size: size, buf: make([]float64, size)}
}

// Push adds x, evicting the oldest value once the window is full.
func (w *RollingWindow) Push(x float64) {
	if w.n == w.size {
		old := w.buf[w.head]
		w.sum -= old
		w.sum2 -= old * old
	} else {
		w.n++
	}
	w.buf[w.head] = x
	w.head = (w.head + 1) % w.size
	w.sum += x
	w.sum2 += x * x
}

func (w *RollingWindow) Size() int { return w.size }
func (w *RollingWindow) Len() int  { return w.n }
func (w *RollingWindow) Full() bool { return w.n == w.size }

// Mean of the values currently held (0 when empty).
func (w *RollingWindow) Mean() float64 {
	if w.n == 0 {
		return 0
	}
	return w.sum / float64(w.n)
}

// SampleStd is the n-1 standard deviation of the held values.
// ok is false when fewer than two values are held.
func (w *RollingWindow) SampleStd() (float64, bool) {
	if w.n < 2 {
		return 0, false
	}
	n := float64(w.n)
	mean := w.sum / n
	variance := (w.sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance), true
}

// MovingAverage returns the trailing mean at each index; nil until the window fills.
func MovingAverage(xs []float64, window int) []*float64 {
	out := make([]*float64, len(xs))
	if window < 1 {
		return out
	}
	w := NewRollingWindow(window)
	for i, x := range xs {
		w.Push(x)
		if w.Full() {
			m := w.Mean()
			out[i] = &m
		}
	}
	return out
}

// MeanStd returns the mean and sample standard deviation of xs.
// A single value has std 0; an empty slice returns zeros.
func MeanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}
