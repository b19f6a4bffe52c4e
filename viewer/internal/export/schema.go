package export

import (
	"strconv"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
)

// Export file layout.
//
// <label>_raw.csv and <label>_filtered.csv
//
//	time_ms, head_rot_cor, head_rot_sag, head_rot_axl, head_acc_cor,
//	head_acc_sag, head_acc_axl, mach_acc_pri, mach_rot_sec, mach_rot_pri,
//	head_rot_res
//
// One row per absolute sample index of the export window that lies inside the
// record. time_ms is relative to the window start, so rows before a negative
// window start are absent rather than padded.
//
// <label>_summary.csv
//
//	channel, peak_index, rise_start_index, rise_end_index, peak_velocity,
//	time_to_peak, decel_time, fwhm, delta_t, rise_to_peak_slope,
//	peak_user_selected
//
// Rows in order: mach_rot_pri, head_rot_cor, head_rot_res. Indices are
// absolute. The optional <label>_summary.parquet carries the same rows.
const (
	TimeColumn = "time_ms"

	RawSuffix      = "_raw.csv"
	FilteredSuffix = "_filtered.csv"
	SummarySuffix  = "_summary.csv"
	ParquetSuffix  = "_summary.parquet"
)

// SeriesColumns returns the header of the raw and filtered files.
func SeriesColumns() []string {
	cols := make([]string, 0, channel.Count+2)
	cols = append(cols, TimeColumn)
	for _, n := range SeriesNames() {
		cols = append(cols, string(n))
	}
	return cols
}

// SeriesNames lists the exported series in column order.
func SeriesNames() []channel.Name {
	names := make([]channel.Name, 0, channel.Count+1)
	names = append(names, channel.Names[:]...)
	return append(names, channel.HeadRotRes)
}

// SummaryColumns is the header of the summary file.
var SummaryColumns = []string{
	"channel",
	"peak_index",
	"rise_start_index",
	"rise_end_index",
	"peak_velocity",
	"time_to_peak",
	"decel_time",
	"fwhm",
	"delta_t",
	"rise_to_peak_slope",
	"peak_user_selected",
}

// SummaryRow is one exported summary.
type SummaryRow struct {
	Channel          string  `parquet:"channel" json:"channel"`
	PeakIndex        int64   `parquet:"peak_index" json:"peak_index"`
	RiseStartIndex   int64   `parquet:"rise_start_index" json:"rise_start_index"`
	RiseEndIndex     int64   `parquet:"rise_end_index" json:"rise_end_index"`
	PeakVelocity     float64 `parquet:"peak_velocity" json:"peak_velocity"`
	TimeToPeak       float64 `parquet:"time_to_peak" json:"time_to_peak"`
	DecelTime        float64 `parquet:"decel_time" json:"decel_time"`
	FWHM             float64 `parquet:"fwhm" json:"fwhm"`
	DeltaT           float64 `parquet:"delta_t" json:"delta_t"`
	RiseToPeakSlope  float64 `parquet:"rise_to_peak_slope" json:"rise_to_peak_slope"`
	PeakUserSelected bool    `parquet:"peak_user_selected" json:"peak_user_selected"`
}

func newSummaryRow(name channel.Name, s channel.Summary) SummaryRow {
	return SummaryRow{
		Channel:          string(name),
		PeakIndex:        int64(s.PeakIndex),
		RiseStartIndex:   int64(s.RiseStartIndex),
		RiseEndIndex:     int64(s.RiseEndIndex),
		PeakVelocity:     s.PeakVelocity,
		TimeToPeak:       s.TimeToPeak,
		DecelTime:        s.DecelTime,
		FWHM:             s.FWHM,
		DeltaT:           s.DeltaT,
		RiseToPeakSlope:  s.RiseToPeakSlope,
		PeakUserSelected: s.PeakUserSelected,
	}
}

// Summary converts the row back to a channel summary.
func (r SummaryRow) Summary() channel.Summary {
	return channel.Summary{
		PeakIndex:        int(r.PeakIndex),
		RiseStartIndex:   int(r.RiseStartIndex),
		RiseEndIndex:     int(r.RiseEndIndex),
		PeakVelocity:     r.PeakVelocity,
		TimeToPeak:       r.TimeToPeak,
		DecelTime:        r.DecelTime,
		FWHM:             r.FWHM,
		DeltaT:           r.DeltaT,
		RiseToPeakSlope:  r.RiseToPeakSlope,
		PeakUserSelected: r.PeakUserSelected,
	}
}

// Record returns the CSV fields of r in SummaryColumns order.
func (r SummaryRow) Record() []string {
	return []string{
		r.Channel,
		strconv.FormatInt(r.PeakIndex, 10),
		strconv.FormatInt(r.RiseStartIndex, 10),
		strconv.FormatInt(r.RiseEndIndex, 10),
		formatFloat(r.PeakVelocity),
		formatFloat(r.TimeToPeak),
		formatFloat(r.DecelTime),
		formatFloat(r.FWHM),
		formatFloat(r.DeltaT),
		formatFloat(r.RiseToPeakSlope),
		strconv.FormatBool(r.PeakUserSelected),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
