package session

import (
	"time"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/cursor"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
	"github.com/Krimson/dts-viewer/viewer/internal/figure"
	"github.com/Krimson/dts-viewer/viewer/internal/window"
)

// Snapshot is the JSON view of a loaded experiment.
type Snapshot struct {
	ID            string                     `json:"id"`
	Label         string                     `json:"label"`
	SourcePath    string                     `json:"source_path,omitempty"`
	LoadedAt      time.Time                  `json:"loaded_at"`
	SampleRateHz  float64                    `json:"sample_rate_hz"`
	Samples       int                        `json:"samples"`
	WindowSamples int                        `json:"window_samples"`
	Window        window.Window              `json:"window"`
	Summaries     map[string]channel.Summary `json:"summaries"`
}

func newSnapshot(exp *experiment.Experiment) Snapshot {
	summaries := make(map[string]channel.Summary, len(experiment.Slots))
	for _, slot := range experiment.Slots {
		summaries[slot.String()] = exp.Summary(slot)
	}
	return Snapshot{
		ID:            exp.ID(),
		Label:         exp.Label(),
		SourcePath:    exp.SourcePath(),
		LoadedAt:      exp.LoadedAt(),
		SampleRateHz:  exp.SampleRate(),
		Samples:       exp.Record().Len(),
		WindowSamples: exp.WindowSamples(),
		Window:        exp.ActiveWindow(),
		Summaries:     summaries,
	}
}

// ChannelData is one series, optionally limited to the active window. Offset
// is the window-relative index of the first sample when windowed.
type ChannelData struct {
	Name         channel.Name   `json:"name"`
	Index        int            `json:"index"`
	EU           string         `json:"eu"`
	SampleRateHz float64        `json:"sample_rate_hz"`
	Filtered     bool           `json:"filtered"`
	Window       *window.Window `json:"window,omitempty"`
	Offset       int            `json:"offset"`
	Samples      []float64      `json:"samples"`
}

// CursorFrame is pushed to clients after a pointer event.
type CursorFrame struct {
	Axis    string        `json:"axis"`
	State   cursor.State  `json:"state"`
	Overlay figure.Canvas `json:"overlay"`
}
