package fyneui

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"logicaltouch/tapfeedback"
	"logicaltouch/touchstate"
)

// CursorPad keeps the cursor centre this far inside the area.
const CursorPad = 20

const downScale = 1.4

// Clamp keeps p at least pad away from every edge of area.
func Clamp(p fyne.Position, area fyne.Size, pad float32) fyne.Position {
	return fyne.NewPos(clampAxis(p.X, area.Width, pad), clampAxis(p.Y, area.Height, pad))
}

func clampAxis(v, extent, pad float32) float32 {
	if extent <= 2*pad {
		return extent / 2
	}
	return max(pad, min(v, extent-pad))
}

// Cursor draws the touch position and flashes where presses land. Add
// Overlay on top of the screens inside the layer's root.
type Cursor struct {
	Overlay *fyne.Container

	layer  *Layer
	radius float32
	dot    *canvas.Circle
	ring   *canvas.Circle
	flash  *fyne.Animation
}

// NewCursor creates a cursor of the given radius drawn in col.
func NewCursor(layer *Layer, radius float32, col color.Color) *Cursor {
	dot := canvas.NewCircle(col)
	ring := canvas.NewCircle(color.Transparent)
	ring.StrokeWidth = 3
	ring.Hide()

	return &Cursor{
		Overlay: container.NewWithoutLayout(ring, dot),
		layer:   layer,
		radius:  radius,
		dot:     dot,
		ring:    ring,
	}
}

// Update moves the cursor to st, growing it while down.
func (c *Cursor) Update(st touchstate.State) {
	r := c.radius
	if st.IsDown {
		r *= downScale
	}
	at := c.centre(st.Position)
	c.dot.Resize(fyne.NewSize(2*r, 2*r))
	c.dot.Move(at.SubtractXY(r, r))
	c.dot.Refresh()
}

// Position returns the centre of the cursor dot.
func (c *Cursor) Position() fyne.Position {
	s := c.dot.Size()
	return c.dot.Position().AddXY(s.Width/2, s.Height/2)
}

// Tap implements tapfeedback.Sink with an expanding fading ring.
func (c *Cursor) Tap(t tapfeedback.Tap) {
	at := c.centre(t.Position)
	if c.flash != nil {
		c.flash.Stop()
	}

	c.ring.Show()
	c.flash = canvas.NewColorRGBAAnimation(
		color.NRGBA{R: 0xff, G: 0xd0, B: 0x40, A: 0xff},
		color.NRGBA{R: 0xff, G: 0xd0, B: 0x40, A: 0x00},
		300*time.Millisecond,
		func(col color.Color) {
			r := c.radius * 2
			if _, _, _, a := col.RGBA(); a > 0 {
				r += c.radius * 2 * (1 - float32(a)/0xffff)
			}
			c.ring.StrokeColor = col
			c.ring.Resize(fyne.NewSize(2*r, 2*r))
			c.ring.Move(at.SubtractXY(r, r))
			c.ring.Refresh()
		})
	c.flash.Start()
}

func (c *Cursor) centre(pos touchstate.Vec2) fyne.Position {
	return Clamp(c.layer.ToCanvas(pos), c.layer.root.Size(), CursorPad)
}
