package window

import (
	"errors"
	"fmt"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
)

// DefaultDivisor gives a window of 1/8 of a second.
const DefaultDivisor = 8

// Window is a half-open absolute sample range [Start, End). Start may be
// negative when the anchor sits closer to the record start than the pre-event
// padding; it is kept unclamped so exported alignment stays stable.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns End - Start.
func (w Window) Len() int {
	return w.End - w.Start
}

// Clamp returns the part of w that lies inside [0, n).
func (w Window) Clamp(n int) (start, end int) {
	start, end = w.Start, w.End
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return start, end
}

// Contains reports whether the absolute index i lies inside w.
func (w Window) Contains(i int) bool {
	return i >= w.Start && i < w.End
}

// Slice returns the samples of data that fall inside w together with the
// window-relative index of the first returned sample.
func (w Window) Slice(data []float64) (out []float64, offset int) {
	start, end := w.Clamp(len(data))
	return data[start:end], start - w.Start
}

func (w Window) String() string {
	return fmt.Sprintf("[%d, %d)", w.Start, w.End)
}

// Padding is the number of samples kept before and after the anchor.
type Padding struct {
	Pre  int `json:"pre"`
	Post int `json:"post"`
}

// Samples returns the window length for a sample rate and divisor.
func Samples(sampleRateHz float64, divisor int) int {
	if divisor <= 0 {
		divisor = DefaultDivisor
	}
	return int(sampleRateHz / float64(divisor))
}

// DisplayPadding keeps a quarter of the window before the peak.
func DisplayPadding(windowSamples int) Padding {
	pre := windowSamples / 4
	return Padding{Pre: pre, Post: 3 * pre}
}

// ExportPadding keeps an eighth of the window before the rise start.
func ExportPadding(windowSamples int) Padding {
	return Padding{Pre: windowSamples / 8, Post: 7 * windowSamples / 8}
}

// Select picks the display window around the peak of primary, falling back to
// the peak of secondary, and finally to the start of the record.
func Select(primary, secondary channel.Summary, pad Padding, windowSamples int) Window {
	return selectAnchored(primary.PeakIndex, secondary.PeakIndex, pad, windowSamples)
}

// SelectRiseStart runs the same policy anchored on the rise start indices.
func SelectRiseStart(primary, secondary channel.Summary, pad Padding, windowSamples int) Window {
	return selectAnchored(primary.RiseStartIndex, secondary.RiseStartIndex, pad, windowSamples)
}

func selectAnchored(primary, secondary int, pad Padding, windowSamples int) Window {
	anchor := primary
	if anchor == 0 {
		if secondary == 0 {
			return Window{Start: 0, End: windowSamples}
		}
		anchor = secondary
	}

	start := anchor - pad.Pre - 1
	return Window{Start: start, End: start + pad.Pre + pad.Post}
}

// Anchor selects which summary index positions an export window.
type Anchor int

const (
	AnchorPeak Anchor = iota
	AnchorRiseStart
)

var ErrInvalidAnchor = errors.New("invalid window anchor")

// ParseAnchor accepts "peak" and "rise_start".
func ParseAnchor(s string) (Anchor, error) {
	switch s {
	case "peak":
		return AnchorPeak, nil
	case "rise_start":
		return AnchorRiseStart, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAnchor, s)
	}
}

func (a Anchor) String() string {
	switch a {
	case AnchorPeak:
		return "peak"
	case AnchorRiseStart:
		return "rise_start"
	default:
		return "unknown"
	}
}
