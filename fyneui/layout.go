package fyneui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// LogicalLayout positions objects by their logical rectangles, scaled to
// whatever size the container gets. Unplaced objects fill the container.
type LogicalLayout struct {
	mapping Mapping
	rects   map[fyne.CanvasObject]Rect
}

// NewLogicalLayout creates an empty layout.
func NewLogicalLayout(mapping Mapping) *LogicalLayout {
	return &LogicalLayout{mapping: mapping, rects: map[fyne.CanvasObject]Rect{}}
}

// Place assigns obj a logical rectangle.
func (l *LogicalLayout) Place(obj fyne.CanvasObject, r Rect) {
	l.rects[obj] = r
}

// Layout implements fyne.Layout.
func (l *LogicalLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		r, ok := l.rects[o]
		if !ok {
			o.Move(fyne.NewPos(0, 0))
			o.Resize(size)
			continue
		}
		pos, sz := l.mapping.RectToCanvas(r, size)
		o.Move(pos)
		o.Resize(sz)
	}
}

// MinSize implements fyne.Layout.
func (l *LogicalLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(l.mapping.Logical.X, l.mapping.Logical.Y)
}

// Screen is one page of widgets laid out in logical space.
type Screen struct {
	*fyne.Container
	layout *LogicalLayout
	layer  *Layer
}

// NewScreen creates an empty screen whose targets register with layer.
func NewScreen(layer *Layer) *Screen {
	lay := NewLogicalLayout(layer.Mapping())
	return &Screen{
		Container: container.New(lay),
		layout:    lay,
		layer:     layer,
	}
}

// Place adds obj at r without making it clickable.
func (s *Screen) Place(obj fyne.CanvasObject, r Rect) {
	s.layout.Place(obj, r)
	s.Add(obj)
}

// PlaceTarget adds obj at r and registers it for hit-testing.
func (s *Screen) PlaceTarget(name string, obj fyne.CanvasObject, r Rect) *Target {
	s.Place(obj, r)
	return s.layer.Add(name, obj)
}
