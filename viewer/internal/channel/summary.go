package channel

import "fmt"

// Summary describes one detected event within a channel. All indices are
// absolute offsets into the full sample sequence. PeakIndex == 0 means no
// event was detected.
type Summary struct {
	PeakIndex        int     `json:"peak_index"`
	RiseStartIndex   int     `json:"rise_start_index"`
	RiseEndIndex     int     `json:"rise_end_index"`
	PeakVelocity     float64 `json:"peak_velocity"`
	TimeToPeak       float64 `json:"time_to_peak"`
	DecelTime        float64 `json:"decel_time"`
	FWHM             float64 `json:"fwhm"`
	DeltaT           float64 `json:"delta_t"`
	RiseToPeakSlope  float64 `json:"rise_to_peak_slope"`
	PeakUserSelected bool    `json:"peak_user_selected"`
}

// Units of the derived summary metrics and the fallback channel units.
const (
	UnitVelocity     = "rad/s"
	UnitAcceleration = "g"
	UnitTime         = "ms"
	UnitSlope        = "rad/s^2"
)

// Detected reports whether the summary holds an event.
func (s Summary) Detected() bool {
	return s.PeakIndex != 0
}

// Validate checks index ordering of a populated summary.
func (s Summary) Validate() error {
	if !s.Detected() {
		return nil
	}
	if s.RiseStartIndex > s.PeakIndex || s.PeakIndex > s.RiseEndIndex {
		return fmt.Errorf("summary indices out of order: rise_start=%d peak=%d rise_end=%d",
			s.RiseStartIndex, s.PeakIndex, s.RiseEndIndex)
	}
	return nil
}
