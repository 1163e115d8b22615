package screen

import (
	"testing"

	"bcistim/engine"

	"github.com/stretchr/testify/assert"
)

func TestLayout_norm(t *testing.T) {
	l := Layout{Units: engine.UnitsNorm, Width: 1000, Height: 800}

	x, y := l.Center(engine.Vec2{X: 0, Y: 0})
	assert.Equal(t, float32(500), x)
	assert.Equal(t, float32(400), y)

	x, y = l.Center(engine.Vec2{X: -0.5, Y: 0.5})
	assert.Equal(t, float32(250), x)
	assert.Equal(t, float32(200), y)

	assert.Equal(t, Rect{X: 125, Y: 200, W: 250, H: 200}, l.Rect(engine.Vec2{X: -0.5, Y: 0}, engine.Size{W: 0.5, H: 0.5}))
}

func TestLayout_pix(t *testing.T) {
	l := Layout{Units: engine.UnitsPix, Width: 1750, Height: 950}

	x, y := l.Center(engine.Vec2{X: -320, Y: 100})
	assert.Equal(t, float32(555), x)
	assert.Equal(t, float32(375), y)

	assert.Equal(t, Rect{X: 1115, Y: 395, W: 160, H: 160}, l.Rect(engine.Vec2{X: 320, Y: 0}, engine.Size{W: 160, H: 160}))
}

func TestCells(t *testing.T) {
	grid := engine.CheckGrid{Size: 2, Cells: []int8{1, -1, 0, 1}}
	r := Rect{X: 10, Y: 20, W: 100, H: 50}

	var white, black []Rect
	Cells(r, grid, 1, func(c Rect) { white = append(white, c) })
	Cells(r, grid, -1, func(c Rect) { black = append(black, c) })

	assert.Equal(t, []Rect{
		{X: 10, Y: 20, W: 50, H: 25},
		{X: 60, Y: 45, W: 50, H: 25},
	}, white)
	assert.Equal(t, []Rect{{X: 60, Y: 20, W: 50, H: 25}}, black)
}
