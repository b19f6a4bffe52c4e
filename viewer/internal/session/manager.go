package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Krimson/dts-viewer/viewer/internal/axis"
	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/cursor"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
	"github.com/Krimson/dts-viewer/viewer/internal/export"
	"github.com/Krimson/dts-viewer/viewer/internal/figure"
	"github.com/Krimson/dts-viewer/viewer/internal/logging"
	"github.com/Krimson/dts-viewer/viewer/internal/override"
	"github.com/Krimson/dts-viewer/viewer/internal/recording"
	"github.com/Krimson/dts-viewer/viewer/internal/signal"
	"github.com/Krimson/dts-viewer/viewer/internal/window"
)

var ErrNoExperiment = errors.New("no experiment loaded")

// Observer is told when the current experiment is replaced.
type Observer interface {
	ExperimentLoaded(ctx context.Context, exp *experiment.Experiment)
	ExperimentCleared(ctx context.Context, experimentID string)
}

// Options configure a Manager.
type Options struct {
	Experiment  experiment.Options
	Figure      figure.Options
	ExportDir   string
	SinkTimeout time.Duration
}

// Manager owns the current experiment and its figure. Every entry point takes
// the same lock, so loads, pointer events, overrides and exports are applied
// one at a time in arrival order.
type Manager struct {
	reader   recording.Reader
	proc     signal.Processor
	exporter *export.Exporter
	opts     Options
	logger   *zap.Logger

	observers []Observer
	listeners []override.Listener

	mu    sync.Mutex
	exp   *experiment.Experiment
	fig   *figure.Figure
	coord *override.Coordinator
}

func NewManager(reader recording.Reader, proc signal.Processor, exporter *export.Exporter, opts Options, logger *zap.Logger) *Manager {
	if opts.ExportDir == "" {
		opts.ExportDir = "./export"
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = 5 * time.Second
	}
	return &Manager{
		reader:   reader,
		proc:     proc,
		exporter: exporter,
		opts:     opts,
		logger:   logging.OrNop(logger).Named("session"),
		fig:      figure.New(opts.Figure),
	}
}

// AddObserver registers o for load and clear notifications.
func (m *Manager) AddObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// AddOverrideListener registers l with every coordinator built from now on.
func (m *Manager) AddOverrideListener(l override.Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
	if m.coord != nil {
		m.coord = override.NewCoordinator(m.exp, m.fig, m.logger, m.listeners...)
	}
}

// Load parses path, replaces the current experiment and replots the figure.
// On failure the previous experiment stays current.
func (m *Manager) Load(ctx context.Context, path string) (Snapshot, error) {
	exp, err := experiment.Load(ctx, m.reader, m.proc, path, m.opts.Experiment)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", path, err)
	}
	return m.install(ctx, exp)
}

// Open installs an already built experiment.
func (m *Manager) Open(ctx context.Context, exp *experiment.Experiment) (Snapshot, error) {
	return m.install(ctx, exp)
}

func (m *Manager) install(ctx context.Context, exp *experiment.Experiment) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fig := figure.New(m.opts.Figure)
	if err := fig.Plot(exp); err != nil {
		return Snapshot{}, err
	}

	prev := m.exp
	m.exp = exp
	m.fig = fig
	m.coord = override.NewCoordinator(exp, fig, m.logger, m.listeners...)

	m.logger.Info("experiment loaded",
		zap.String("experiment", exp.ID()),
		zap.String("label", exp.Label()),
		zap.Stringer("window", exp.ActiveWindow()),
		zap.Int("machine_peak", exp.Summary(experiment.SlotMachinePrimary).PeakIndex),
		zap.Int("head_peak", exp.Summary(experiment.SlotHeadPrimary).PeakIndex),
	)

	octx, cancel := context.WithTimeout(ctx, m.opts.SinkTimeout)
	defer cancel()
	for _, o := range m.observers {
		if prev != nil {
			o.ExperimentCleared(octx, prev.ID())
		}
		o.ExperimentLoaded(octx, exp)
	}

	return newSnapshot(exp), nil
}

// Clear drops the current experiment and every plotted axis.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exp == nil {
		return
	}
	id := m.exp.ID()
	m.exp = nil
	m.coord = nil
	m.fig.Clear()

	m.logger.Info("experiment cleared", zap.String("experiment", id))

	octx, cancel := context.WithTimeout(ctx, m.opts.SinkTimeout)
	defer cancel()
	for _, o := range m.observers {
		o.ExperimentCleared(octx, id)
	}
}

// Snapshot describes the current experiment.
func (m *Manager) Snapshot() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exp == nil {
		return Snapshot{}, ErrNoExperiment
	}
	return newSnapshot(m.exp), nil
}

// Window returns the active display window.
func (m *Manager) Window() (window.Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exp == nil {
		return window.Window{}, ErrNoExperiment
	}
	return m.exp.ActiveWindow(), nil
}

// Channel returns the samples of a channel or of the head resultant.
func (m *Manager) Channel(name channel.Name, filtered, windowed bool) (ChannelData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exp == nil {
		return ChannelData{}, ErrNoExperiment
	}

	var data []float64
	var err error
	if filtered {
		data, err = m.exp.Filtered(name)
	} else {
		data, err = m.exp.Raw(name)
	}
	if err != nil {
		return ChannelData{}, err
	}

	out := ChannelData{
		Name:         name,
		SampleRateHz: m.exp.SampleRate(),
		Filtered:     filtered,
		Samples:      data,
	}
	if ch, err := m.exp.Channel(name); err == nil {
		out.EU = ch.Meta.EU
		out.Index = ch.Index
	} else {
		out.EU = channel.UnitVelocity
		out.Index = -1
	}
	if windowed {
		w := m.exp.ActiveWindow()
		out.Window = &w
		out.Samples, out.Offset = w.Slice(data)
	}
	return out, nil
}

// Axis returns the view of one plotted axis.
func (m *Manager) Axis(id axis.ID) (figure.AxisView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exp == nil {
		return figure.AxisView{}, ErrNoExperiment
	}
	a, ok := m.fig.Axis(id)
	if !ok {
		return figure.AxisView{}, fmt.Errorf("%w: %s", axis.ErrUnknownAxis, id)
	}
	return a.View(), nil
}

// Click forwards a click to the override coordinator. Ignored clicks return
// false without error.
func (m *Manager) Click(id axis.ID, click override.Click) (*override.Refresh, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.coord == nil {
		return nil, false, ErrNoExperiment
	}
	r, ok := m.coord.HandleClick(id, click)
	return r, ok, nil
}

// Move forwards a pointer event to the cursor of one axis.
func (m *Manager) Move(id axis.ID, ev cursor.PointerEvent) (CursorFrame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exp == nil {
		return CursorFrame{}, ErrNoExperiment
	}
	st, ok := m.fig.Move(id, ev)
	if !ok {
		return CursorFrame{}, fmt.Errorf("%w: %s", axis.ErrUnknownAxis, id)
	}
	a, _ := m.fig.Axis(id)
	return CursorFrame{Axis: id.String(), State: st, Overlay: *a.Canvas}, nil
}

// MarkClean acknowledges a client redraw of every dirty axis.
func (m *Manager) MarkClean() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fig.MarkClean()
}

// Export writes the current experiment to dir, or to the configured export
// directory when dir is empty. The anchor is checked first.
func (m *Manager) Export(ctx context.Context, dir, anchor string) (export.Artifacts, error) {
	if _, err := window.ParseAnchor(anchor); err != nil {
		return export.Artifacts{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exp == nil {
		return export.Artifacts{}, ErrNoExperiment
	}
	if dir == "" {
		dir = m.opts.ExportDir
	}
	return m.exporter.Export(ctx, m.exp, dir, anchor)
}
