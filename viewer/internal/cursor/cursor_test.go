package cursor

import (
	"errors"
	"reflect"
	"testing"
)

// recorder is a Renderer that logs calls and keeps the resulting overlay.
type recorder struct {
	calls     []string
	crosshair *Point
	label     string
	labelAt   Point
	visible   bool
}

func (r *recorder) SaveBackground()    { r.calls = append(r.calls, "save") }
func (r *recorder) RestoreBackground() { r.calls = append(r.calls, "restore") }
func (r *recorder) Blit()              { r.calls = append(r.calls, "blit") }
func (r *recorder) RedrawAll()         { r.calls = append(r.calls, "redraw") }

func (r *recorder) DrawCrosshair(p Point) {
	r.calls = append(r.calls, "crosshair")
	r.crosshair = &p
}

func (r *recorder) DrawLabel(text string, at Point) {
	r.calls = append(r.calls, "label")
	r.label, r.labelAt, r.visible = text, at, true
}

func (r *recorder) HideLabel() {
	r.calls = append(r.calls, "hide")
	r.visible = false
	r.crosshair = nil
}

func testTrace() Series {
	return Series{
		Xs: []float64{0, 1, 2, 3, 4, 5},
		Ys: []float64{0, 10, 20, 10, 0, -10},
	}
}

func newTestCursor(useBlit bool, r Renderer) *Cursor {
	tr := testTrace()
	return New(Config{
		Trace:   tr,
		Limits:  LimitsOf(tr),
		Lock:    LockX,
		UseBlit: useBlit,
	}, r)
}

func TestCursor_SnapsToNearestSample(t *testing.T) {
	c := newTestCursor(true, &recorder{})

	p, ok := c.Snap(2.4, 5)
	if !ok {
		t.Fatal("Expected snap")
	}
	if p != (Point{X: 2, Y: 20}) {
		t.Errorf("Expected (2, 20), got %+v", p)
	}

	p, _ = c.Snap(2.6, 5)
	if p != (Point{X: 3, Y: 10}) {
		t.Errorf("Expected (3, 10), got %+v", p)
	}
}

func TestCursor_LockOffReportsPointer(t *testing.T) {
	tr := testTrace()
	c := New(Config{Trace: tr, Limits: LimitsOf(tr), Lock: LockOff}, &recorder{})

	p, ok := c.Snap(2.4, 7)
	if !ok || p != (Point{X: 2.4, Y: 7}) {
		t.Errorf("Expected raw pointer, got %+v %v", p, ok)
	}
}

func TestCursor_LockYSnapsOnValue(t *testing.T) {
	tr := Series{Xs: []float64{0, 1, 2, 3}, Ys: []float64{0, 10, 20, 30}}
	c := New(Config{Trace: tr, Limits: LimitsOf(tr), Lock: LockY}, &recorder{})

	p, ok := c.Snap(0.2, 17)
	if !ok || p != (Point{X: 2, Y: 20}) {
		t.Errorf("Expected (2, 20), got %+v %v", p, ok)
	}
	p, _ = c.Snap(2.9, 4)
	if p != (Point{X: 0, Y: 0}) {
		t.Errorf("Expected the x position to be ignored, got %+v", p)
	}

	c.OnMove(PointerEvent{InAxes: true, X: 1.5, Y: 26})
	if st := c.State(); st.Snapped == nil || *st.Snapped != (Point{X: 3, Y: 30}) {
		t.Errorf("Expected crosshair at (3, 30), got %+v", st.Snapped)
	}
}

func TestCursor_Index(t *testing.T) {
	c := newTestCursor(true, &recorder{})
	for _, tc := range []struct {
		x    float64
		want int
	}{
		{0, 0},
		{2.4, 2},
		{2.6, 3},
		{5, 5},
	} {
		if got := c.Index(tc.x); got != tc.want {
			t.Errorf("Index(%v) = %d, want %d", tc.x, got, tc.want)
		}
	}
}

func TestLinearTransform_RoundTrip(t *testing.T) {
	tf := LinearTransform{Limits: Limits{XMin: 0, XMax: 125, YMin: -10, YMax: 40}, Width: 500, Height: 200}

	px := tf.ToPixel(Point{X: 25, Y: 15})
	if px != (Point{X: 100, Y: 100}) {
		t.Errorf("Unexpected pixel %+v", px)
	}
	if got := tf.ToData(px); got != (Point{X: 25, Y: 15}) {
		t.Errorf("Expected (25, 15) back, got %+v", got)
	}
	if got := (LinearTransform{Limits: Limits{XMin: 3, YMin: 4}}).ToData(Point{X: 9, Y: 9}); got != (Point{X: 3, Y: 4}) {
		t.Errorf("Expected a zero-size box to map to the lower limits, got %+v", got)
	}
}

func TestCursor_DeduplicatesRender(t *testing.T) {
	r := &recorder{}
	c := newTestCursor(true, r)

	c.OnMove(PointerEvent{InAxes: true, X: 2.4, Y: 0})
	n := len(r.calls)
	if n == 0 {
		t.Fatal("Expected first move to render")
	}

	c.OnMove(PointerEvent{InAxes: true, X: 2.1, Y: 3})
	if len(r.calls) != n {
		t.Errorf("Expected no render for the same snapped point, got %v", r.calls[n:])
	}

	c.OnMove(PointerEvent{InAxes: true, X: 3.2, Y: 3})
	if len(r.calls) == n {
		t.Error("Expected render for a new snapped point")
	}
}

func TestCursor_OutsideLimitsHidesLabel(t *testing.T) {
	r := &recorder{}
	c := newTestCursor(true, r)

	c.OnMove(PointerEvent{InAxes: true, X: 1, Y: 0})
	if !c.State().LabelVisible {
		t.Fatal("Expected visible label")
	}

	c.OnMove(PointerEvent{InAxes: true, X: 9, Y: 0})
	st := c.State()
	if st.LabelVisible || st.Snapped != nil {
		t.Errorf("Expected hidden label and no snap, got %+v", st)
	}
	if r.visible {
		t.Error("Renderer label still visible")
	}
}

func TestCursor_EmptyTraceNoSnap(t *testing.T) {
	c := New(Config{Trace: Series{}, Limits: Limits{XMax: 1, YMax: 1}}, &recorder{})
	c.OnMove(PointerEvent{InAxes: true, X: 0.5, Y: 0.5})
	if c.State().Snapped != nil {
		t.Error("Expected no snap on an empty trace")
	}
}

func TestCursor_LeaveHidesLabel(t *testing.T) {
	r := &recorder{}
	c := newTestCursor(false, r)

	c.OnMove(PointerEvent{InAxes: true, X: 4, Y: 0})
	c.OnMove(PointerEvent{InAxes: false})
	if c.State().LabelVisible {
		t.Error("Expected label hidden after leave")
	}

	// A second leave has nothing to hide.
	n := len(r.calls)
	c.OnLeave()
	if len(r.calls) != n {
		t.Errorf("Unexpected calls on idle leave: %v", r.calls[n:])
	}
}

func TestCursor_BlitAndFullRedrawAgree(t *testing.T) {
	moves := []PointerEvent{
		{InAxes: true, X: 0.2, Y: 1},
		{InAxes: true, X: 2.4, Y: 1},
		{InAxes: true, X: 2.45, Y: 1},
		{InAxes: true, X: 4.9, Y: 1},
	}

	blitR, fullR := &recorder{}, &recorder{}
	blit, full := newTestCursor(true, blitR), newTestCursor(false, fullR)
	for _, m := range moves {
		blit.OnMove(m)
		full.OnMove(m)
	}

	if !reflect.DeepEqual(blit.State(), full.State()) {
		t.Errorf("States differ: blit %+v, full %+v", blit.State(), full.State())
	}
	if blitR.label != fullR.label || blitR.labelAt != fullR.labelAt || *blitR.crosshair != *fullR.crosshair {
		t.Error("Rendered overlays differ")
	}
	for _, c := range fullR.calls {
		if c == "blit" || c == "restore" {
			t.Fatalf("Full redraw strategy used %q", c)
		}
	}
}

func TestCursor_LabelFormatAndOffset(t *testing.T) {
	tr := testTrace()
	r := &recorder{}
	c := New(Config{
		Trace:     tr,
		Limits:    LimitsOf(tr),
		Transform: LinearTransform{Limits: LimitsOf(tr), Width: 500, Height: 300},
		Format:    "%.0f ms; %.2f rad/s",
	}, r)

	c.OnMove(PointerEvent{InAxes: true, X: 2.2, Y: 0})
	st := c.State()
	if st.LabelText != "2 ms; 20.00 rad/s" {
		t.Errorf("Unexpected label %q", st.LabelText)
	}
	// x: 2/5*500 + 20, y: (20+10)/30*300 + 25
	if st.LabelAt != (Point{X: 220, Y: 325}) {
		t.Errorf("Unexpected label position %+v", st.LabelAt)
	}
}

func TestCursor_ClearResetsState(t *testing.T) {
	r := &recorder{}
	c := newTestCursor(true, r)
	c.OnMove(PointerEvent{InAxes: true, X: 1, Y: 0})
	c.Clear()

	if c.State().Snapped != nil {
		t.Error("Expected cleared state")
	}
	// After a clear the same point draws again without restoring a stale background.
	r.calls = nil
	c.OnMove(PointerEvent{InAxes: true, X: 1, Y: 0})
	if len(r.calls) == 0 || r.calls[0] == "restore" {
		t.Errorf("Unexpected call sequence %v", r.calls)
	}
}

func TestNearestIndex(t *testing.T) {
	tr := testTrace()
	cases := map[float64]int{-3: 0, 0: 0, 0.5: 0, 0.51: 1, 4.9: 5, 12: 5}
	for x, want := range cases {
		if got := NearestIndex(tr, x); got != want {
			t.Errorf("NearestIndex(%v) = %d, want %d", x, got, want)
		}
	}
	if NearestIndex(Series{}, 1) != -1 {
		t.Error("Expected -1 for empty trace")
	}
}

func TestParseLockMode(t *testing.T) {
	if m, err := ParseLockMode("y"); err != nil || m != LockY {
		t.Errorf("Expected y, got %v %v", m, err)
	}
	if _, err := ParseLockMode("z"); !errors.Is(err, ErrInvalidLockMode) {
		t.Errorf("Expected ErrInvalidLockMode, got %v", err)
	}
}
