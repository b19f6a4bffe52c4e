package signal

import (
	"errors"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
)

// Method selects method-specific detection thresholds.
type Method string

const (
	MethodHead    Method = "head"
	MethodMachine Method = "machine"
)

var ErrIndexOutOfRange = errors.New("peak index out of range")

// Processor is the signal-processing collaborator. The viewer core treats it as
// a black box: it only decides when to call it and where its output goes.
type Processor interface {
	// ChannelSummary detects the event in a recorded channel.
	ChannelSummary(ch *channel.Channel, method Method) channel.Summary
	// Resultant combines three orthogonal channels of rec into a magnitude series.
	Resultant(rec *channel.Record, axes [3]int) []float64
	// SeriesSummary detects the event in an arbitrary full-length series.
	SeriesSummary(method Method, sampleRateHz float64, data []float64) channel.Summary
	// ForcePeak recomputes the summary with the peak fixed at an absolute index.
	// The result has PeakUserSelected set and is deterministic for equal input.
	ForcePeak(method Method, sampleRateHz float64, data []float64, peakIndex int) (channel.Summary, error)
	// Filter returns a filtered copy of data.
	Filter(data []float64, sampleRateHz float64) []float64
}
