package fyneui

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"

	"logicaltouch/tapfeedback"
	"logicaltouch/touchstate"
)

func TestClamp(t *testing.T) {
	area := fyne.NewSize(200, 100)

	assert.Equal(t, fyne.NewPos(50, 50), Clamp(fyne.NewPos(50, 50), area, 20))
	assert.Equal(t, fyne.NewPos(20, 20), Clamp(fyne.NewPos(-5, 0), area, 20))
	assert.Equal(t, fyne.NewPos(180, 80), Clamp(fyne.NewPos(300, 100), area, 20))
	assert.Equal(t, fyne.NewPos(60, 50), Clamp(fyne.NewPos(0, 0), area, 60), "pad larger than half the height")
}

func newCursor(t *testing.T) *Cursor {
	t.Helper()
	test.NewApp()

	root := container.NewStack()
	layer := NewLayer(root, Mapping{Logical: logical, YUp: true})
	c := NewCursor(layer, 10, color.White)
	root.Add(c.Overlay)
	root.Resize(fyne.NewSize(512, 512))
	return c
}

func TestCursorFollowsState(t *testing.T) {
	c := newCursor(t)

	c.Update(touchstate.State{Position: touchstate.Vec2{X: 128, Y: 128}})
	assert.Equal(t, fyne.NewPos(256, 256), c.Position())
	assert.Equal(t, fyne.NewSize(20, 20), c.dot.Size())

	c.Update(touchstate.State{Position: touchstate.Vec2{X: 128, Y: 192}, IsDown: true})
	assert.Equal(t, fyne.NewPos(256, 128), c.Position(), "y grows upwards")
	assert.Equal(t, fyne.NewSize(28, 28), c.dot.Size())
}

func TestCursorStaysInsidePad(t *testing.T) {
	c := newCursor(t)

	c.Update(touchstate.State{Position: touchstate.Vec2{X: 0, Y: 0}})
	assert.Equal(t, fyne.NewPos(CursorPad, 512-CursorPad), c.Position())

	c.Update(touchstate.State{Position: touchstate.Vec2{X: 256, Y: 256}})
	assert.Equal(t, fyne.NewPos(512-CursorPad, CursorPad), c.Position())
}

func TestCursorTapShowsRing(t *testing.T) {
	c := newCursor(t)
	c.Tap(tapfeedback.Tap{Position: touchstate.Vec2{X: 128, Y: 128}})
	assert.True(t, c.ring.Visible())
	c.flash.Stop()
}
