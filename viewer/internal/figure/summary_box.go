package figure

import (
	"fmt"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
)

// BoxStyle is the fill and edge color of a summary box.
type BoxStyle struct {
	Face string `json:"face"`
	Edge string `json:"edge"`
}

var (
	DetectorBoxStyle = BoxStyle{Face: "white", Edge: "gray"}
	// Overrides are drawn in the resultant trace color.
	UserBoxStyle = BoxStyle{Face: "#fdecea", Edge: "#db3e27"}
)

// SummaryBox is the text box shown in the upper right of a peak-bearing axis.
type SummaryBox struct {
	Lines        []string `json:"lines"`
	UserSelected bool     `json:"user_selected"`
	Style        BoxStyle `json:"style"`
}

func NewSummaryBox(s channel.Summary) SummaryBox {
	style := DetectorBoxStyle
	if s.PeakUserSelected {
		style = UserBoxStyle
	}
	return SummaryBox{
		Lines: []string{
			fmt.Sprintf("Peak: %.2f %s", s.PeakVelocity, channel.UnitVelocity),
			fmt.Sprintf("Acc: %.2f %s  Dec: %.2f %s", s.TimeToPeak, channel.UnitTime, s.DecelTime, channel.UnitTime),
			fmt.Sprintf("Fwhm: %.2f %s  Delta t: %.2f %s", s.FWHM, channel.UnitTime, s.DeltaT, channel.UnitTime),
		},
		UserSelected: s.PeakUserSelected,
		Style:        style,
	}
}
