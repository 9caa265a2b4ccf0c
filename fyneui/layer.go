// Package fyneui lays fyne widgets out in logical touch space and hit-tests
// them for the click dispatcher.
package fyneui

import (
	"fyne.io/fyne/v2"

	"logicaltouch/clicker"
	"logicaltouch/touchstate"
)

// Mapping converts between logical space and a fyne canvas area.
// With YUp set, logical y grows towards the top of the screen.
type Mapping struct {
	Logical touchstate.Vec2
	YUp     bool
}

// ToCanvas maps a logical position into an area of the given size.
func (m Mapping) ToCanvas(pos touchstate.Vec2, size fyne.Size) fyne.Position {
	fx := pos.X / m.Logical.X
	fy := pos.Y / m.Logical.Y
	if m.YUp {
		fy = 1 - fy
	}
	return fyne.NewPos(fx*size.Width, fy*size.Height)
}

// Rect is an axis-aligned area in logical space. X,Y is the corner with
// the smallest logical coordinates.
type Rect struct {
	X, Y, W, H float32
}

// RectToCanvas returns the canvas position and size of r.
func (m Mapping) RectToCanvas(r Rect, size fyne.Size) (fyne.Position, fyne.Size) {
	a := m.ToCanvas(touchstate.Vec2{X: r.X, Y: r.Y}, size)
	b := m.ToCanvas(touchstate.Vec2{X: r.X + r.W, Y: r.Y + r.H}, size)

	pos := fyne.NewPos(min(a.X, b.X), min(a.Y, b.Y))
	return pos, fyne.NewSize(abs(b.X-a.X), abs(b.Y-a.Y))
}

// Target is a widget registered for hit-testing.
type Target struct {
	name string
	obj  fyne.CanvasObject
}

// Name implements clicker.Target.
func (t *Target) Name() string { return t.name }

// Click delivers a synthetic tap to the widget.
func (t *Target) Click(at fyne.Position) {
	if tp, ok := t.obj.(fyne.Tappable); ok {
		tp.Tapped(&fyne.PointEvent{Position: at, AbsolutePosition: at})
	}
}

// Layer hit-tests registered targets inside root. Later registrations
// sit on top of earlier ones.
type Layer struct {
	root    fyne.CanvasObject
	mapping Mapping
	targets []*Target
}

// NewLayer creates a layer over root, the object whose area logical space covers.
func NewLayer(root fyne.CanvasObject, mapping Mapping) *Layer {
	return &Layer{root: root, mapping: mapping}
}

// Add registers obj under name and returns its target handle.
func (l *Layer) Add(name string, obj fyne.CanvasObject) *Target {
	t := &Target{name: name, obj: obj}
	l.targets = append(l.targets, t)
	return t
}

// Mapping returns the layer's coordinate mapping.
func (l *Layer) Mapping() Mapping {
	return l.mapping
}

// ToCanvas maps a logical position into root's coordinates.
func (l *Layer) ToCanvas(pos touchstate.Vec2) fyne.Position {
	return l.mapping.ToCanvas(pos, l.root.Size())
}

// HitTest implements clicker.HitTester. Hidden or disabled widgets, and
// widgets not currently under root, are skipped.
func (l *Layer) HitTest(pos touchstate.Vec2) clicker.Target {
	p := l.ToCanvas(pos)

	for i := len(l.targets) - 1; i >= 0; i-- {
		t := l.targets[i]
		if d, ok := t.obj.(fyne.Disableable); ok && d.Disabled() {
			continue
		}
		at, ok := l.locate(t.obj)
		if !ok {
			continue
		}
		size := t.obj.Size()
		if p.X >= at.X && p.X < at.X+size.Width && p.Y >= at.Y && p.Y < at.Y+size.Height {
			return t
		}
	}
	return nil
}

// Click is a clicker.ClickFunc that taps fyne targets.
func (l *Layer) Click(tg clicker.Target) {
	t, ok := tg.(*Target)
	if !ok {
		return
	}
	at, _ := l.locate(t.obj)
	t.Click(at)
}

// locate returns obj's position relative to root, walking containers and
// requiring every step to be visible.
func (l *Layer) locate(obj fyne.CanvasObject) (fyne.Position, bool) {
	if !l.root.Visible() {
		return fyne.Position{}, false
	}
	if obj == l.root {
		return fyne.Position{}, true
	}
	c, ok := l.root.(*fyne.Container)
	if !ok {
		return fyne.Position{}, false
	}
	return find(c.Objects, obj, fyne.Position{})
}

func find(objects []fyne.CanvasObject, target fyne.CanvasObject, origin fyne.Position) (fyne.Position, bool) {
	for _, o := range objects {
		if !o.Visible() {
			continue
		}
		pos := origin.Add(o.Position())
		if o == target {
			return pos, true
		}
		if c, ok := o.(*fyne.Container); ok {
			if p, found := find(c.Objects, target, pos); found {
				return p, true
			}
		}
	}
	return fyne.Position{}, false
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
