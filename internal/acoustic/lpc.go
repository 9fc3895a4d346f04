package acoustic

import "math"

// preEmphasize applies a first-order high-pass (y[n] = x[n] - a*x[n-1]) to
// flatten the spectral tilt of voiced speech before LPC fitting.
func preEmphasize(frame []float64, coeff float64) []float64 {
	out := make([]float64, len(frame))
	out[0] = frame[0]
	for i := 1; i < len(frame); i++ {
		out[i] = frame[i] - coeff*frame[i-1]
	}
	return out
}

// hammingWindow applies a Hamming window in place and returns the frame.
func hammingWindow(frame []float64) []float64 {
	n := len(frame)
	if n < 2 {
		return frame
	}
	for i := range frame {
		frame[i] *= 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return frame
}

// autocorrelate computes autocorrelation coefficients r[0..maxLag].
func autocorrelate(frame []float64, maxLag int) []float64 {
	r := make([]float64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		var sum float64
		for i := lag; i < len(frame); i++ {
			sum += frame[i] * frame[i-lag]
		}
		r[lag] = sum
	}
	return r
}

// levinsonDurbin solves the normal equations for LPC coefficients of the
// given order from autocorrelation values. Returns a[1..order] such that the
// prediction polynomial is A(z) = 1 - sum(a[k] z^-k), or nil when the frame
// carries no energy or the recursion goes unstable.
func levinsonDurbin(r []float64, order int) []float64 {
	if r[0] == 0 {
		return nil
	}

	a := make([]float64, order+1)
	e := r[0]

	for i := 1; i <= order; i++ {
		acc := r[i]
		for j := 1; j < i; j++ {
			acc -= a[j] * r[i-j]
		}
		if e == 0 {
			return nil
		}
		k := acc / e

		a[i] = k
		for j := 1; j <= i/2; j++ {
			tmp := a[j]
			a[j] = tmp - k*a[i-j]
			if j != i-j {
				a[i-j] -= k * tmp
			}
		}

		e *= 1 - k*k
		if e <= 0 {
			return nil
		}
	}

	return a[1:]
}

// lpcEnvelope evaluates the LPC spectral envelope 1/|A(e^jw)| at nBins
// frequencies spanning (0, maxFreq].
func lpcEnvelope(lpc []float64, sampleRate int, maxFreq float64, nBins int) []float64 {
	env := make([]float64, nBins)
	for b := 0; b < nBins; b++ {
		freq := maxFreq * float64(b+1) / float64(nBins)
		w := 2 * math.Pi * freq / float64(sampleRate)

		// A(e^jw) = 1 - sum a[k] e^{-jkw}
		re, im := 1.0, 0.0
		for k, a := range lpc {
			angle := -w * float64(k+1)
			re -= a * math.Cos(angle)
			im -= a * math.Sin(angle)
		}
		mag := math.Hypot(re, im)
		if mag < 1e-9 {
			mag = 1e-9
		}
		env[b] = 1 / mag
	}
	return env
}

// peakFrequencies picks local maxima of the envelope in ascending frequency
// order, refined by parabolic interpolation.
func peakFrequencies(env []float64, maxFreq float64) []float64 {
	nBins := len(env)
	binWidth := maxFreq / float64(nBins)

	var peaks []float64
	for b := 1; b < nBins-1; b++ {
		if env[b] <= env[b-1] || env[b] < env[b+1] {
			continue
		}
		// Parabolic vertex offset in bins, clamped to the neighborhood.
		denom := env[b-1] - 2*env[b] + env[b+1]
		offset := 0.0
		if denom != 0 {
			offset = 0.5 * (env[b-1] - env[b+1]) / denom
			if offset > 0.5 {
				offset = 0.5
			} else if offset < -0.5 {
				offset = -0.5
			}
		}
		peaks = append(peaks, (float64(b+1)+offset)*binWidth)
	}
	return peaks
}
