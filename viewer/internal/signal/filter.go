package signal

import (
	"github.com/mjibson/go-dsp/fft"
)

// Filter applies a brick-wall low-pass in the frequency domain. With no cutoff,
// or a cutoff at or above Nyquist, it returns an unmodified copy.
func (d *Detector) Filter(data []float64, sampleRateHz float64) []float64 {
	out := make([]float64, len(data))
	cutoff := d.cfg.FilterCutoffHz
	if len(data) == 0 || cutoff <= 0 || sampleRateHz <= 0 || cutoff >= sampleRateHz/2 {
		copy(out, data)
		return out
	}

	n := len(data)
	spectrum := fft.FFTReal(data)
	binHz := sampleRateHz / float64(n)
	for k := range spectrum {
		// bins above n/2 mirror the negative frequencies
		f := float64(k) * binHz
		if k > n/2 {
			f = float64(n-k) * binHz
		}
		if f > cutoff {
			spectrum[k] = 0
		}
	}

	for i, v := range fft.IFFT(spectrum) {
		out[i] = real(v)
	}
	return out
}
