package override

import (
	"go.uber.org/zap"

	"github.com/Krimson/dts-viewer/viewer/internal/axis"
	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/cursor"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
	"github.com/Krimson/dts-viewer/viewer/internal/figure"
	"github.com/Krimson/dts-viewer/viewer/internal/logging"
)

// AxisID identifies the axis a click landed on.
type AxisID = axis.ID

const (
	HeadCoronal    = axis.HeadCoronal
	HeadSagittal   = axis.HeadSagittal
	HeadAxial      = axis.HeadAxial
	HeadResultant  = axis.HeadResultant
	MachinePrimary = axis.MachinePrimary

	HeadTranslations     = axis.HeadTranslations
	HeadCoronalResultant = axis.HeadCoronalResultant
	MachineHeadResultant = axis.MachineHeadResultant
)

// ParseAxisID resolves a transport identifier. Display titles are rejected.
func ParseAxisID(s string) (AxisID, error) {
	return axis.Parse(s)
}

// Button numbers follow the usual pointer convention.
type Button int

const (
	ButtonPrimary   Button = 1
	ButtonMiddle    Button = 2
	ButtonSecondary Button = 3
)

// Click is a pointer press on an axis. By default X is in window-relative
// milliseconds and Y in the axis unit. With Pixel set, X and Y are pixels in
// the plot box, origin at the bottom-left.
type Click struct {
	Button Button  `json:"button"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pixel  bool    `json:"pixel,omitempty"`
}

// Refresh describes the single axis touched by a committed override.
type Refresh struct {
	Axis          AxisID             `json:"-"`
	AxisName      string             `json:"axis"`
	Slot          experiment.Slot    `json:"-"`
	RelativeIndex int                `json:"relative_index"`
	AbsoluteIndex int                `json:"absolute_index"`
	Summary       channel.Summary    `json:"summary"`
	Markers       []figure.Marker    `json:"markers"`
	Box           *figure.SummaryBox `json:"box"`
}

// Listener is notified after an override has been written back.
type Listener interface {
	OverrideCommitted(exp *experiment.Experiment, r *Refresh)
}

type ListenerFunc func(exp *experiment.Experiment, r *Refresh)

func (f ListenerFunc) OverrideCommitted(exp *experiment.Experiment, r *Refresh) {
	f(exp, r)
}

type state int

const (
	stateIdle state = iota
	stateCommitting
)

// Coordinator turns secondary-button clicks on peak-bearing axes into forced
// peak summaries. It is bound to one experiment and the figure it is plotted
// on, and must be rebuilt when either is replaced.
type Coordinator struct {
	exp       *experiment.Experiment
	fig       *figure.Figure
	listeners []Listener
	logger    *zap.Logger
	state     state
}

func NewCoordinator(exp *experiment.Experiment, fig *figure.Figure, logger *zap.Logger, listeners ...Listener) *Coordinator {
	return &Coordinator{
		exp:       exp,
		fig:       fig,
		listeners: listeners,
		logger:    logging.OrNop(logger).Named("override"),
	}
}

// HandleClick applies a manual peak override. Clicks that cannot be resolved
// to a sample of a peak-bearing axis are ignored and return false; nothing is
// mutated in that case.
func (c *Coordinator) HandleClick(id AxisID, click Click) (*Refresh, bool) {
	if c.state != stateIdle {
		return nil, false
	}
	if click.Button != ButtonSecondary {
		return nil, false
	}

	c.state = stateCommitting
	defer func() { c.state = stateIdle }()

	slot, ok := id.Slot()
	if !ok {
		c.logger.Debug("click on axis without summary", zap.Stringer("axis", id))
		return nil, false
	}

	a, ok := c.fig.Axis(id)
	if !ok {
		c.logger.Debug("click on empty axis", zap.Stringer("axis", id))
		return nil, false
	}
	x := click.X
	if click.Pixel {
		x = a.ToData(cursor.Point{X: click.X, Y: click.Y}).X
	}
	if x < a.Limits.XMin || x > a.Limits.XMax {
		c.logger.Debug("click outside axis limits", zap.Stringer("axis", id), zap.Float64("x", x))
		return nil, false
	}

	rel, ok := a.RelativeIndex(x)
	if !ok {
		return nil, false
	}
	abs := c.exp.ActiveWindow().Start + rel

	if n := len(c.exp.Series(slot)); abs <= 0 || abs >= n {
		c.logger.Debug("click outside record", zap.Stringer("axis", id), zap.Int("index", abs), zap.Int("len", n))
		return nil, false
	}

	s, err := c.exp.ForcePeak(slot, abs)
	if err != nil {
		c.logger.Debug("forced peak rejected", zap.Stringer("axis", id), zap.Int("index", abs), zap.Error(err))
		return nil, false
	}
	if err := s.Validate(); err != nil {
		c.logger.Warn("forced peak produced an invalid summary", zap.Stringer("axis", id), zap.Int("index", abs), zap.Error(err))
		return nil, false
	}

	c.exp.ReplaceSummary(slot, s)
	c.fig.Annotate(id, s)

	a, _ = c.fig.Axis(id)
	r := &Refresh{
		Axis:          id,
		AxisName:      id.String(),
		Slot:          slot,
		RelativeIndex: rel,
		AbsoluteIndex: abs,
		Summary:       s,
		Markers:       a.Markers,
		Box:           a.Box,
	}

	c.logger.Info("peak overridden",
		zap.String("experiment", c.exp.ID()),
		zap.Stringer("axis", id),
		zap.Int("relative_index", rel),
		zap.Int("peak_index", abs),
	)

	for _, l := range c.listeners {
		l.OverrideCommitted(c.exp, r)
	}
	return r, true
}
