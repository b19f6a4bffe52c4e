package cursor

// LinearTransform maps Limits onto a Width x Height pixel box with the origin
// at the bottom-left corner.
type LinearTransform struct {
	Limits Limits
	Width  float64
	Height float64
}

func (t LinearTransform) ToPixel(p Point) Point {
	return Point{
		X: scale(p.X, t.Limits.XMin, t.Limits.XMax, t.Width),
		Y: scale(p.Y, t.Limits.YMin, t.Limits.YMax, t.Height),
	}
}

// ToData is the inverse of ToPixel.
func (t LinearTransform) ToData(px Point) Point {
	return Point{
		X: unscale(px.X, t.Limits.XMin, t.Limits.XMax, t.Width),
		Y: unscale(px.Y, t.Limits.YMin, t.Limits.YMax, t.Height),
	}
}

func scale(v, lo, hi, size float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo) * size
}

func unscale(px, lo, hi, size float64) float64 {
	if size == 0 {
		return lo
	}
	return lo + px/size*(hi-lo)
}

// LimitsOf returns the bounding box of a trace.
func LimitsOf(t Trace) Limits {
	n := t.Len()
	if n == 0 {
		return Limits{}
	}
	first := t.At(0)
	l := Limits{XMin: first.X, XMax: first.X, YMin: first.Y, YMax: first.Y}
	for i := 1; i < n; i++ {
		p := t.At(i)
		if p.X < l.XMin {
			l.XMin = p.X
		}
		if p.X > l.XMax {
			l.XMax = p.X
		}
		if p.Y < l.YMin {
			l.YMin = p.Y
		}
		if p.Y > l.YMax {
			l.YMax = p.Y
		}
	}
	return l
}
