package experiment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/recording"
	"github.com/Krimson/dts-viewer/viewer/internal/signal"
	"github.com/Krimson/dts-viewer/viewer/internal/window"
)

// Slot identifies one of the three tracked summaries.
type Slot int

const (
	SlotMachinePrimary Slot = iota
	SlotHeadPrimary
	SlotHeadResultant
)

// Slots lists the tracked summaries in export order.
var Slots = []Slot{SlotMachinePrimary, SlotHeadPrimary, SlotHeadResultant}

// Name returns the channel name a slot is exported under.
func (s Slot) Name() channel.Name {
	switch s {
	case SlotMachinePrimary:
		return channel.MachRotPri
	case SlotHeadPrimary:
		return channel.HeadRotCor
	case SlotHeadResultant:
		return channel.HeadRotRes
	default:
		return ""
	}
}

// Method returns the detection method used for a slot.
func (s Slot) Method() signal.Method {
	if s == SlotMachinePrimary {
		return signal.MethodMachine
	}
	return signal.MethodHead
}

func (s Slot) String() string {
	return string(s.Name())
}

// Options control window sizing.
type Options struct {
	WindowDivisor int
}

// Experiment is one loaded recording with its derived summaries and the active
// display window. It is created whole on load and never partially rebuilt.
type Experiment struct {
	id         string
	label      string
	sourcePath string
	loadedAt   time.Time

	record    *channel.Record
	proc      signal.Processor
	resultant []float64
	filtered  map[channel.Name][]float64

	summaries     [3]channel.Summary
	windowSamples int
	active        window.Window
}

// Load parses path with reader and derives summaries and the display window.
func Load(ctx context.Context, reader recording.Reader, proc signal.Processor, path string, opts Options) (*Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := reader.Parse(path)
	if err != nil {
		return nil, err
	}

	e, err := New(rec, proc, opts)
	if err != nil {
		return nil, err
	}
	e.sourcePath = path
	e.label = Label(path)
	return e, nil
}

// New runs the summary and window derivation on an already parsed record.
func New(rec *channel.Record, proc signal.Processor, opts Options) (*Experiment, error) {
	rate := rec.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", rate)
	}

	head, err := rec.Channel(channel.HeadRotCor)
	if err != nil {
		return nil, err
	}
	machine, err := rec.Channel(channel.MachRotPri)
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		id:       uuid.New().String(),
		label:    "untitled",
		loadedAt: time.Now(),
		record:   rec,
		proc:     proc,
		filtered: make(map[channel.Name][]float64, channel.Count+1),
	}

	head.Summary = proc.ChannelSummary(head, signal.MethodHead)
	machine.Summary = proc.ChannelSummary(machine, signal.MethodMachine)
	e.resultant = proc.Resultant(rec, channel.HeadRotationAxes)

	e.summaries[SlotHeadPrimary] = head.Summary
	e.summaries[SlotMachinePrimary] = machine.Summary
	e.summaries[SlotHeadResultant] = proc.SeriesSummary(signal.MethodHead, rate, e.resultant)

	e.windowSamples = window.Samples(rate, opts.WindowDivisor)
	e.active = window.Select(
		e.summaries[SlotMachinePrimary],
		e.summaries[SlotHeadPrimary],
		window.DisplayPadding(e.windowSamples),
		e.windowSamples,
	)

	return e, nil
}

// Label derives the experiment label from a file path: the base name without
// extension and without the "_head" marker.
func Label(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return strings.Replace(base, "_head", "", 1)
}

func (e *Experiment) ID() string          { return e.id }
func (e *Experiment) Label() string       { return e.label }
func (e *Experiment) SourcePath() string  { return e.sourcePath }
func (e *Experiment) LoadedAt() time.Time { return e.loadedAt }

// Record returns the underlying recording.
func (e *Experiment) Record() *channel.Record {
	return e.record
}

// Channel resolves a channel by symbolic name. Unknown names fail with
// channel.ErrUnknownChannel.
func (e *Experiment) Channel(name channel.Name) (*channel.Channel, error) {
	return e.record.Channel(name)
}

// ActiveWindow returns the display window fixed at load.
func (e *Experiment) ActiveWindow() window.Window {
	return e.active
}

// WindowSamples returns the length of display and export windows.
func (e *Experiment) WindowSamples() int {
	return e.windowSamples
}

func (e *Experiment) SampleRate() float64 {
	return e.record.SampleRate()
}

// Summary returns a copy of the summary stored in slot.
func (e *Experiment) Summary(slot Slot) channel.Summary {
	return e.summaries[slot]
}

// ReplaceSummary stores s in slot. For channel-backed slots the channel's own
// summary record is replaced as well.
func (e *Experiment) ReplaceSummary(slot Slot, s channel.Summary) {
	e.summaries[slot] = s
	switch slot {
	case SlotHeadPrimary:
		e.record.At(mustIndex(channel.HeadRotCor)).Summary = s
	case SlotMachinePrimary:
		e.record.At(mustIndex(channel.MachRotPri)).Summary = s
	}
}

// Series returns the full, unwindowed sequence a slot's summary is computed on.
func (e *Experiment) Series(slot Slot) []float64 {
	switch slot {
	case SlotHeadResultant:
		return e.resultant
	default:
		return e.record.At(mustIndex(slot.Name())).Samples
	}
}

// Raw returns the raw samples of a recorded channel or of the resultant.
func (e *Experiment) Raw(name channel.Name) ([]float64, error) {
	if name == channel.HeadRotRes {
		return e.resultant, nil
	}
	ch, err := e.record.Channel(name)
	if err != nil {
		return nil, err
	}
	return ch.Samples, nil
}

// Filtered returns the filtered samples of a recorded channel or of the
// resultant. Results are computed on first use and cached.
func (e *Experiment) Filtered(name channel.Name) ([]float64, error) {
	if f, ok := e.filtered[name]; ok {
		return f, nil
	}
	raw, err := e.Raw(name)
	if err != nil {
		return nil, err
	}
	f := e.proc.Filter(raw, e.SampleRate())
	e.filtered[name] = f
	return f, nil
}

// ForcePeak asks the processor for a summary of slot with its peak fixed at an
// absolute index. The experiment itself is not modified.
func (e *Experiment) ForcePeak(slot Slot, absIndex int) (channel.Summary, error) {
	return e.proc.ForcePeak(slot.Method(), e.SampleRate(), e.Series(slot), absIndex)
}

func mustIndex(name channel.Name) int {
	i, err := channel.IndexOf(name)
	if err != nil {
		panic(err)
	}
	return i
}
