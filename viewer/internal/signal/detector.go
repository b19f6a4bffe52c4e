package signal

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
)

// DetectorConfig holds the thresholds of the reference detector.
type DetectorConfig struct {
	HeadPeakThreshold    float64 // minimum peak for MethodHead
	MachinePeakThreshold float64 // minimum peak for MethodMachine
	RiseStdDevs          float64 // rise bounds: baseline mean + RiseStdDevs*stddev
	BaselineMS           float64 // leading span used as pre-event baseline
	FilterCutoffHz       float64 // low-pass cutoff, <= 0 disables filtering
}

// DefaultDetectorConfig returns the thresholds used when nothing is configured.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		HeadPeakThreshold:    5.0,
		MachinePeakThreshold: 2.0,
		RiseStdDevs:          3.0,
		BaselineMS:           10.0,
		FilterCutoffHz:       1650.0,
	}
}

// Detector is the reference Processor. Rise start and rise end are where the
// signal crosses RiseStdDevs standard deviations above the pre-event baseline.
type Detector struct {
	cfg DetectorConfig
}

func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

func (d *Detector) ChannelSummary(ch *channel.Channel, method Method) channel.Summary {
	return d.SeriesSummary(method, ch.Meta.SampleRateHz, ch.Samples)
}

func (d *Detector) SeriesSummary(method Method, sampleRateHz float64, data []float64) channel.Summary {
	if len(data) < 3 || sampleRateHz <= 0 {
		return channel.Summary{}
	}

	mean, std := d.baseline(sampleRateHz, data)

	peak := floats.MaxIdx(data)
	if peak == 0 {
		return channel.Summary{}
	}
	if data[peak] < d.threshold(method) || data[peak]-mean <= d.cfg.RiseStdDevs*std {
		return channel.Summary{}
	}

	return d.summarize(sampleRateHz, data, peak, mean, std)
}

func (d *Detector) ForcePeak(method Method, sampleRateHz float64, data []float64, peakIndex int) (channel.Summary, error) {
	// index 0 is the "no event" sentinel and cannot be chosen
	if peakIndex <= 0 || peakIndex >= len(data) {
		return channel.Summary{}, fmt.Errorf("%w: %d not in (0, %d)", ErrIndexOutOfRange, peakIndex, len(data))
	}
	if sampleRateHz <= 0 {
		return channel.Summary{}, fmt.Errorf("invalid sample rate %v", sampleRateHz)
	}

	mean, std := d.baseline(sampleRateHz, data)
	s := d.summarize(sampleRateHz, data, peakIndex, mean, std)
	s.PeakUserSelected = true
	return s, nil
}

func (d *Detector) Resultant(rec *channel.Record, axes [3]int) []float64 {
	a := rec.At(axes[0]).Samples
	b := rec.At(axes[1]).Samples
	c := rec.At(axes[2]).Samples

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if len(c) < n {
		n = len(c)
	}

	out := make([]float64, n)
	v := make([]float64, 3)
	for i := 0; i < n; i++ {
		v[0], v[1], v[2] = a[i], b[i], c[i]
		out[i] = floats.Norm(v, 2)
	}
	return out
}

func (d *Detector) threshold(method Method) float64 {
	if method == MethodMachine {
		return d.cfg.MachinePeakThreshold
	}
	return d.cfg.HeadPeakThreshold
}

func (d *Detector) baseline(sampleRateHz float64, data []float64) (mean, std float64) {
	n := int(sampleRateHz * d.cfg.BaselineMS / 1000)
	if limit := len(data) / 4; n > limit {
		n = limit
	}
	if n < 2 {
		n = 2
	}
	return stat.MeanStdDev(data[:n], nil)
}

func (d *Detector) summarize(sampleRateHz float64, data []float64, peak int, mean, std float64) channel.Summary {
	msPerSample := 1000 / sampleRateHz
	level := mean + d.cfg.RiseStdDevs*std
	last := len(data) - 1

	riseStart := peak
	for riseStart > 0 && data[riseStart] > level {
		riseStart--
	}
	riseEnd := peak
	for riseEnd < last && data[riseEnd] > level {
		riseEnd++
	}

	half := mean + (data[peak]-mean)/2
	left := peak
	for left > 0 && data[left] > half {
		left--
	}
	right := peak
	for right < last && data[right] > half {
		right++
	}

	s := channel.Summary{
		PeakIndex:      peak,
		RiseStartIndex: riseStart,
		RiseEndIndex:   riseEnd,
		PeakVelocity:   data[peak],
		TimeToPeak:     float64(peak-riseStart) * msPerSample,
		DecelTime:      float64(riseEnd-peak) * msPerSample,
		FWHM:           float64(right-left) * msPerSample,
		DeltaT:         float64(riseEnd-riseStart) * msPerSample,
	}
	if s.TimeToPeak > 0 {
		s.RiseToPeakSlope = (data[peak] - data[riseStart]) / (s.TimeToPeak / 1000)
	}
	return s
}
