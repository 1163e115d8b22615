package screen

import "bcistim/engine"

// Rect is a pixel rectangle with the origin at the top-left corner.
type Rect struct {
	X, Y, W, H float32
}

// Layout converts protocol coordinates to window pixels. In norm units
// the window spans -1..1 on both axes with y up and a size of 2 covers
// the whole window; in pix units positions are pixel offsets from the
// center, y up.
type Layout struct {
	Units         string
	Width, Height float32
}

func (l Layout) Center(pos engine.Vec2) (float32, float32) {
	if l.Units == engine.UnitsPix {
		return l.Width/2 + float32(pos.X), l.Height/2 - float32(pos.Y)
	}
	return (float32(pos.X) + 1) / 2 * l.Width, (1 - float32(pos.Y)) / 2 * l.Height
}

func (l Layout) Extent(size engine.Size) (float32, float32) {
	if l.Units == engine.UnitsPix {
		return float32(size.W), float32(size.H)
	}
	return float32(size.W) * l.Width / 2, float32(size.H) * l.Height / 2
}

// Rect is the box of the given size centered on pos.
func (l Layout) Rect(pos engine.Vec2, size engine.Size) Rect {
	cx, cy := l.Center(pos)
	w, h := l.Extent(size)
	return Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}
}

// Cells splits r into the cells of an n×n grid and calls fn for every
// cell whose value is v.
func Cells(r Rect, grid engine.CheckGrid, v int8, fn func(Rect)) {
	n := grid.Size
	cw, ch := r.W/float32(n), r.H/float32(n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			if grid.At(row, col) != v {
				continue
			}
			fn(Rect{X: r.X + float32(col)*cw, Y: r.Y + float32(row)*ch, W: cw, H: ch})
		}
	}
}
