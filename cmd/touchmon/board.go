package main

import (
	"fmt"

	"logicaltouch/clicker"
	"logicaltouch/touchstate"
)

// button is a rectangle of logical space with a name.
type button struct {
	name       string
	x, y, w, h float32
	clicks     int
}

// Name implements clicker.Target.
func (b *button) Name() string { return b.name }

func (b *button) contains(p touchstate.Vec2) bool {
	return p.X >= b.x && p.X < b.x+b.w && p.Y >= b.y && p.Y < b.y+b.h
}

// board is a grid of buttons covering logical space, with a one unit gap
// between neighbours.
type board struct {
	size    touchstate.Vec2
	buttons []*button
}

func newBoard(size touchstate.Vec2, cols, rows int) *board {
	b := &board{size: size}
	cw := size.X / float32(cols)
	ch := size.Y / float32(rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b.buttons = append(b.buttons, &button{
				name: fmt.Sprintf("%c%d", 'A'+r, c+1),
				x:    float32(c)*cw + 1,
				y:    float32(r)*ch + 1,
				w:    cw - 2,
				h:    ch - 2,
			})
		}
	}
	return b
}

// HitTest implements clicker.HitTester.
func (b *board) HitTest(p touchstate.Vec2) clicker.Target {
	for _, btn := range b.buttons {
		if btn.contains(p) {
			return btn
		}
	}
	return nil
}

// click counts a click on a board button.
func (b *board) click(t clicker.Target) {
	if btn, ok := t.(*button); ok {
		btn.clicks++
	}
}

// view maps logical space onto a cols x rows character grid, y up.
type view struct {
	size       touchstate.Vec2
	cols, rows int
}

// cell returns the character cell covering p.
func (v view) cell(p touchstate.Vec2) (int, int) {
	x := int(p.X / v.size.X * float32(v.cols))
	y := v.rows - 1 - int(p.Y/v.size.Y*float32(v.rows))
	return clampInt(x, 0, v.cols-1), clampInt(y, 0, v.rows-1)
}

// logical returns the centre of cell (x, y) in logical space.
func (v view) logical(x, y int) touchstate.Vec2 {
	return touchstate.Vec2{
		X: (float32(x) + 0.5) / float32(v.cols) * v.size.X,
		Y: (float32(v.rows-1-y) + 0.5) / float32(v.rows) * v.size.Y,
	}
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
