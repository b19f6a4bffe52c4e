package figure

import "github.com/Krimson/dts-viewer/viewer/internal/cursor"

// Canvas is a headless cursor.Renderer. It keeps the overlay that a client
// should currently display for one axis.
type Canvas struct {
	Crosshair    *cursor.Point `json:"crosshair,omitempty"`
	Label        string        `json:"label,omitempty"`
	LabelAt      cursor.Point  `json:"label_at"`
	LabelVisible bool          `json:"label_visible"`

	Blits      int `json:"blits"`
	Redraws    int `json:"redraws"`
	background bool
}

func (c *Canvas) SaveBackground() {
	c.background = true
}

func (c *Canvas) RestoreBackground() {
	if !c.background {
		return
	}
	c.Crosshair = nil
	c.LabelVisible = false
}

func (c *Canvas) DrawCrosshair(p cursor.Point) {
	c.Crosshair = &p
}

func (c *Canvas) DrawLabel(text string, at cursor.Point) {
	c.Label = text
	c.LabelAt = at
	c.LabelVisible = true
}

func (c *Canvas) HideLabel() {
	c.Crosshair = nil
	c.LabelVisible = false
}

func (c *Canvas) Blit() {
	c.Blits++
}

func (c *Canvas) RedrawAll() {
	c.Redraws++
}
