package figure

import (
	"fmt"
	"math"
	"sort"

	"github.com/Krimson/dts-viewer/viewer/internal/axis"
	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/cursor"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
	"github.com/Krimson/dts-viewer/viewer/internal/window"
)

// Options control how a figure is plotted.
type Options struct {
	Annotate   bool
	CursorLock cursor.LockMode
	UseBlit    bool
	Width      float64
	Height     float64
}

func DefaultOptions() Options {
	return Options{
		Annotate:   true,
		CursorLock: cursor.LockX,
		UseBlit:    true,
		Width:      640,
		Height:     400,
	}
}

// MarkerKind names an annotation marker.
type MarkerKind string

const (
	MarkerRiseStart MarkerKind = "rise_start"
	MarkerPeak      MarkerKind = "peak"
	MarkerRiseEnd   MarkerKind = "rise_end"
)

// Marker is an annotation point in window-relative milliseconds.
type Marker struct {
	Kind MarkerKind   `json:"kind"`
	At   cursor.Point `json:"at"`
}

// Axis is the view model of one plotted axis.
type Axis struct {
	ID    axis.ID
	Title string
	Unit  string

	// Trace holds x in window-relative ms and filtered y values. Offset is the
	// window-relative index of the first trace sample.
	Trace  cursor.Series
	Lines  []Line
	Offset int
	Limits cursor.Limits

	// Transform maps Limits onto the plot box in pixels.
	Transform cursor.LinearTransform

	Markers []Marker
	Box     *SummaryBox
	Cursor  *cursor.Cursor
	Canvas  *Canvas
	Dirty   bool
}

// Line is an extra series drawn over the cursor trace. It shares the
// trace's x values.
type Line struct {
	Label   string       `json:"label"`
	Channel channel.Name `json:"channel"`
	Ys      []float64    `json:"y"`
}

// Populated reports whether a trace is plotted on the axis.
func (a *Axis) Populated() bool {
	return a != nil && a.Trace.Len() > 0
}

// RelativeIndex returns the window-relative index of the trace sample
// nearest x.
func (a *Axis) RelativeIndex(x float64) (int, bool) {
	if !a.Populated() {
		return 0, false
	}
	i := a.Cursor.Index(x)
	if i < 0 || i >= a.Trace.Len() {
		return 0, false
	}
	return a.Offset + i, true
}

// ToData converts a point in plot-box pixels to data coordinates.
func (a *Axis) ToData(px cursor.Point) cursor.Point {
	return a.Transform.ToData(px)
}

// Figure holds one Axis per axis.ID and the window they were plotted with.
type Figure struct {
	opts   Options
	axes   map[axis.ID]*Axis
	window window.Window
	rate   float64
}

func New(opts Options) *Figure {
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	if opts.CursorLock == "" {
		opts.CursorLock = cursor.LockX
	}
	return &Figure{opts: opts, axes: make(map[axis.ID]*Axis)}
}

func (f *Figure) Options() Options {
	return f.opts
}

// Plot replaces every axis with the active window of exp. Cursors from a
// previous plot are discarded.
func (f *Figure) Plot(exp *experiment.Experiment) error {
	f.Clear()

	f.window = exp.ActiveWindow()
	f.rate = exp.SampleRate()
	msPerSample := 1000 / f.rate

	for _, id := range axis.All {
		lines := id.Lines()
		data, err := exp.Filtered(lines[0].Channel)
		if err != nil {
			return fmt.Errorf("plot %s: %w", id, err)
		}
		seg, offset := f.window.Slice(data)

		xs := make([]float64, len(seg))
		for i := range seg {
			xs[i] = float64(offset+i) * msPerSample
		}
		ys := make([]float64, len(seg))
		copy(ys, seg)

		var extra []Line
		for _, l := range lines[1:] {
			od, err := exp.Filtered(l.Channel)
			if err != nil {
				return fmt.Errorf("plot %s: %w", id, err)
			}
			oseg, _ := f.window.Slice(od)
			oys := make([]float64, len(oseg))
			copy(oys, oseg)
			extra = append(extra, Line{Label: l.Label, Channel: l.Channel, Ys: oys})
		}

		lock := f.opts.CursorLock
		if id.Overlay() {
			lock = cursor.LockOff
		}

		a := &Axis{
			ID:     id,
			Title:  id.Title(),
			Unit:   unitOf(exp, id),
			Trace:  cursor.Series{Xs: xs, Ys: ys},
			Lines:  extra,
			Offset: offset,
			Canvas: &Canvas{},
			Dirty:  true,
		}

		limits := f.limits(a)
		a.Limits = limits
		a.Transform = cursor.LinearTransform{Limits: limits, Width: f.opts.Width, Height: f.opts.Height}
		a.Cursor = cursor.New(cursor.Config{
			Trace:     a.Trace,
			Limits:    limits,
			Transform: a.Transform,
			Format:    "%.0f ms; %.2f " + a.Unit,
			Lock:      lock,
			UseBlit:   f.opts.UseBlit,
		}, a.Canvas)
		a.Cursor.Clear()

		f.axes[id] = a

		if slot, ok := id.Slot(); ok {
			if s := exp.Summary(slot); s.Detected() {
				f.Annotate(id, s)
			}
		}
	}
	return nil
}

// Annotate refreshes the markers and summary box of one axis from s and
// marks only that axis dirty. It returns false when the axis has no trace.
func (f *Figure) Annotate(id axis.ID, s channel.Summary) bool {
	a := f.axes[id]
	if !a.Populated() {
		return false
	}

	a.Markers = nil
	if f.opts.Annotate {
		a.Markers = f.markers(a, s)
	}
	box := NewSummaryBox(s)
	a.Box = &box
	a.Dirty = true
	a.Cursor.Clear()
	return true
}

// Clear drops all axes and their cursors.
func (f *Figure) Clear() {
	f.axes = make(map[axis.ID]*Axis)
	f.window = window.Window{}
	f.rate = 0
}

// Axis returns the axis view, or false if nothing is plotted on it.
func (f *Figure) Axis(id axis.ID) (*Axis, bool) {
	a, ok := f.axes[id]
	return a, ok && a.Populated()
}

// Window returns the window the figure was plotted with.
func (f *Figure) Window() window.Window {
	return f.window
}

// Dirty lists axes that need a redraw.
func (f *Figure) Dirty() []axis.ID {
	var ids []axis.ID
	for id, a := range f.axes {
		if a.Dirty {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarkClean is called once the client has redrawn every dirty axis.
func (f *Figure) MarkClean() {
	for _, a := range f.axes {
		a.Dirty = false
	}
}

// Move forwards a pointer event to the axis cursor.
func (f *Figure) Move(id axis.ID, ev cursor.PointerEvent) (cursor.State, bool) {
	a, ok := f.Axis(id)
	if !ok {
		return cursor.State{}, false
	}
	a.Cursor.OnMove(ev)
	return a.Cursor.State(), true
}

func (f *Figure) markers(a *Axis, s channel.Summary) []Marker {
	points := []struct {
		kind MarkerKind
		abs  int
	}{
		{MarkerRiseStart, s.RiseStartIndex},
		{MarkerPeak, s.PeakIndex},
		{MarkerRiseEnd, s.RiseEndIndex},
	}

	out := make([]Marker, 0, len(points))
	for _, p := range points {
		i := p.abs - f.window.Start - a.Offset
		if i < 0 || i >= a.Trace.Len() {
			continue
		}
		out = append(out, Marker{Kind: p.kind, At: a.Trace.At(i)})
	}
	return out
}

func (f *Figure) limits(a *Axis) cursor.Limits {
	l := cursor.LimitsOf(a.Trace)
	for _, o := range a.Lines {
		for _, y := range o.Ys {
			l.YMin = math.Min(l.YMin, y)
			l.YMax = math.Max(l.YMax, y)
		}
	}
	l.XMin = 0
	l.XMax = float64(f.window.Len()-1) * 1000 / f.rate

	pad := (l.YMax - l.YMin) * 0.05
	if pad == 0 {
		pad = 1
	}
	l.YMin -= pad
	l.YMax += pad
	return l
}

func unitOf(exp *experiment.Experiment, id axis.ID) string {
	name := id.Channel()
	if name == channel.HeadRotRes {
		name = channel.HeadRotCor
	}
	ch, err := exp.Channel(name)
	if err != nil || ch.Meta.EU == "" {
		return id.FallbackUnit()
	}
	return ch.Meta.EU
}

// AxisView is the serializable state of an axis.
type AxisView struct {
	Axis    string       `json:"axis"`
	Title   string       `json:"title"`
	Unit    string       `json:"unit"`
	Offset  int          `json:"offset"`
	X       []float64    `json:"x"`
	Y       []float64    `json:"y"`
	Lines   []Line       `json:"lines,omitempty"`
	Markers []Marker     `json:"markers"`
	Box     *SummaryBox  `json:"box,omitempty"`
	Cursor  cursor.State `json:"cursor"`
	Overlay Canvas       `json:"overlay"`
	Dirty   bool         `json:"dirty"`
}

func (a *Axis) View() AxisView {
	return AxisView{
		Axis:    a.ID.String(),
		Title:   a.Title,
		Unit:    a.Unit,
		Offset:  a.Offset,
		X:       a.Trace.Xs,
		Y:       a.Trace.Ys,
		Lines:   a.Lines,
		Markers: a.Markers,
		Box:     a.Box,
		Cursor:  a.Cursor.State(),
		Overlay: *a.Canvas,
		Dirty:   a.Dirty,
	}
}
