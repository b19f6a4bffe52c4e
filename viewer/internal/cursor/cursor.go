package cursor

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidLockMode = errors.New("invalid cursor lock mode")

// LockMode selects which coordinate the crosshair snaps on.
type LockMode string

const (
	LockX   LockMode = "x"
	LockY   LockMode = "y"
	LockOff LockMode = "off"
)

func ParseLockMode(s string) (LockMode, error) {
	switch LockMode(s) {
	case LockX, LockY, LockOff:
		return LockMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLockMode, s)
}

const (
	DefaultFormat  = "%.4g;%.4g"
	DefaultOffsetX = 20
	DefaultOffsetY = 25
)

// Point is a coordinate pair, in data or pixel units depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Trace is read-only access to a plotted line. X must be ascending.
type Trace interface {
	Len() int
	At(i int) Point
}

// Series is a Trace over two parallel slices.
type Series struct {
	Xs []float64
	Ys []float64
}

func (s Series) Len() int {
	if len(s.Ys) < len(s.Xs) {
		return len(s.Ys)
	}
	return len(s.Xs)
}

func (s Series) At(i int) Point {
	return Point{X: s.Xs[i], Y: s.Ys[i]}
}

// Limits are the current data limits of an axis.
type Limits struct {
	XMin, XMax float64
	YMin, YMax float64
}

func (l Limits) Contains(p Point) bool {
	return p.X >= l.XMin && p.X <= l.XMax && p.Y >= l.YMin && p.Y <= l.YMax
}

// Transform maps data coordinates to pixels.
type Transform interface {
	ToPixel(p Point) Point
}

// PointerEvent is a pointer position in data coordinates of the owning axis.
type PointerEvent struct {
	InAxes bool
	X, Y   float64
}

// Renderer draws the cursor overlay. Implementations are owned by the figure.
type Renderer interface {
	SaveBackground()
	RestoreBackground()
	DrawCrosshair(p Point)
	DrawLabel(text string, at Point)
	HideLabel()
	Blit()
	RedrawAll()
}

// Config holds cursor settings. Zero values get defaults in New.
type Config struct {
	Trace     Trace
	Limits    Limits
	Transform Transform
	Format    string
	Offset    Point
	Lock      LockMode
	UseBlit   bool
}

// State is the visible outcome of the last processed event.
type State struct {
	Snapped      *Point `json:"snapped,omitempty"`
	LabelVisible bool   `json:"label_visible"`
	LabelText    string `json:"label_text,omitempty"`
	LabelAt      Point  `json:"label_at"`
}

// Cursor is a crosshair with a coordinate label that snaps to a trace.
// It is not safe for concurrent use.
type Cursor struct {
	cfg       Config
	r         Renderer
	last      *Point
	needClear bool
	state     State
}

func New(cfg Config, r Renderer) *Cursor {
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.Offset == (Point{}) {
		cfg.Offset = Point{X: DefaultOffsetX, Y: DefaultOffsetY}
	}
	if cfg.Lock == "" {
		cfg.Lock = LockX
	}
	return &Cursor{cfg: cfg, r: r}
}

// OnMove processes a pointer move. It never fails; positions that cannot be
// snapped hide the label.
func (c *Cursor) OnMove(ev PointerEvent) {
	if !ev.InAxes {
		c.OnLeave()
		return
	}

	p, ok := c.Snap(ev.X, ev.Y)
	if !ok {
		c.hide()
		return
	}
	if c.last != nil && *c.last == p {
		return
	}
	c.draw(p)
}

// OnLeave hides the label when the pointer leaves the axis.
func (c *Cursor) OnLeave() {
	c.hide()
}

// Clear is called after the owning figure redraws: the label is dropped and
// the fresh background captured.
func (c *Cursor) Clear() {
	c.last = nil
	c.needClear = false
	c.state = State{}
	c.r.HideLabel()
	c.r.SaveBackground()
}

// Snap resolves a pointer position to the point the cursor would show.
func (c *Cursor) Snap(x, y float64) (Point, bool) {
	if !c.cfg.Limits.Contains(Point{X: x, Y: y}) {
		return Point{}, false
	}

	switch c.cfg.Lock {
	case LockOff:
		return Point{X: x, Y: y}, true
	case LockY:
		return c.nearest(y, func(p Point) float64 { return p.Y })
	default:
		return c.nearest(x, func(p Point) float64 { return p.X })
	}
}

// State returns a copy of the visible state.
func (c *Cursor) State() State {
	s := c.state
	if s.Snapped != nil {
		p := *s.Snapped
		s.Snapped = &p
	}
	return s
}

// Index returns the trace index nearest x, or -1.
func (c *Cursor) Index(x float64) int {
	return NearestIndex(c.cfg.Trace, x)
}

func (c *Cursor) nearest(v float64, coord func(Point) float64) (Point, bool) {
	t := c.cfg.Trace
	if t == nil {
		return Point{}, false
	}
	i := nearestBy(t, v, coord)
	if i < 0 || i >= t.Len() {
		return Point{}, false
	}
	return t.At(i), true
}

func (c *Cursor) draw(p Point) {
	text := fmt.Sprintf(c.cfg.Format, p.X, p.Y)
	at := p
	if c.cfg.Transform != nil {
		at = c.cfg.Transform.ToPixel(p)
	}
	at = Point{X: at.X + c.cfg.Offset.X, Y: at.Y + c.cfg.Offset.Y}

	if c.cfg.UseBlit {
		if c.needClear {
			c.r.RestoreBackground()
		}
		c.r.DrawCrosshair(p)
		c.r.DrawLabel(text, at)
		c.r.Blit()
	} else {
		c.r.DrawCrosshair(p)
		c.r.DrawLabel(text, at)
		c.r.RedrawAll()
	}

	c.needClear = true
	snapped := p
	c.last = &snapped
	c.state = State{Snapped: &snapped, LabelVisible: true, LabelText: text, LabelAt: at}
}

func (c *Cursor) hide() {
	c.last = nil
	if !c.needClear && !c.state.LabelVisible {
		return
	}

	c.r.HideLabel()
	if c.cfg.UseBlit {
		c.r.RestoreBackground()
		c.r.Blit()
	} else {
		c.r.RedrawAll()
	}
	c.needClear = false
	c.state = State{}
}

// NearestIndex binary-searches t for the sample whose x is closest to x.
// Ties resolve to the lower index. It returns -1 for an empty trace.
func NearestIndex(t Trace, x float64) int {
	if t == nil {
		return -1
	}
	return nearestBy(t, x, func(p Point) float64 { return p.X })
}

func nearestBy(t Trace, v float64, coord func(Point) float64) int {
	n := t.Len()
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool { return coord(t.At(i)) >= v })
	switch {
	case i == 0:
		return 0
	case i == n:
		return n - 1
	}
	if v-coord(t.At(i-1)) <= coord(t.At(i))-v {
		return i - 1
	}
	return i
}
