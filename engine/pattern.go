package engine

import (
	"fmt"
	"math"
)

// CycleIndex selects the catalog image for a frame of the image-cycling
// paradigm: floor(frame/frequency) mod catalogSize. The frequency is the
// number of frames each image stays on screen.
func CycleIndex(frame int, frequency float64, catalogSize int) (int, error) {
	if !(frequency > 0) {
		return 0, fmt.Errorf("%w: frequency must be positive, got %v", ErrInvalidConfig, frequency)
	}
	if catalogSize <= 0 {
		return 0, fmt.Errorf("%w: empty stimulus catalog", ErrInvalidConfig)
	}
	if frame < 0 {
		return 0, fmt.Errorf("%w: negative frame %d", ErrInvalidConfig, frame)
	}
	step := int(math.Floor(float64(frame) / frequency))
	return step % catalogSize, nil
}

// MovementPhase is the contrast phase of the checkerboard on a frame. It
// swings between 0 and π following a half-cosine so that a reversal
// completes frequency times per second.
func MovementPhase(frame int, frequency, refreshRate float64) float64 {
	return math.Pi/2 + math.Pi/2*math.Sin(2*math.Pi*float64(frame)*(frequency/(2*refreshRate))-math.Pi/2)
}

// GeometryParams describes the radial checkerboard.
type GeometryParams struct {
	GridSize      int     // cells per side
	RingCycles    float64 // spatial extent is ±2π·RingCycles
	Angular       float64 // angular frequency count
	RingSpacing   float64
	PhaseLength   float64
	InnerRadiusSq float64 // squared radius of the inner cutoff
}

func DefaultGeometry() GeometryParams {
	return GeometryParams{
		GridSize:      64,
		RingCycles:    14,
		Angular:       12,
		RingSpacing:   10,
		PhaseLength:   18,
		InnerRadiusSq: 80,
	}
}

func (p GeometryParams) Validate() error {
	if p.GridSize < 2 {
		return fmt.Errorf("%w: geometry grid_size must be at least 2, got %d", ErrInvalidConfig, p.GridSize)
	}
	for name, v := range map[string]float64{
		"ring_cycles":     p.RingCycles,
		"angular":         p.Angular,
		"ring_spacing":    p.RingSpacing,
		"phase_length":    p.PhaseLength,
		"inner_radius_sq": p.InnerRadiusSq,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: geometry %s must be finite, got %v", ErrInvalidConfig, name, v)
		}
	}
	if !(p.RingCycles > 0) || !(p.RingSpacing > 0) {
		return fmt.Errorf("%w: geometry ring_cycles and ring_spacing must be positive", ErrInvalidConfig)
	}
	if p.InnerRadiusSq < 0 {
		return fmt.Errorf("%w: geometry inner_radius_sq must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CheckGrid is the contrast field of one frame, row-major, each cell in
// {-1, 0, +1}.
type CheckGrid struct {
	Size  int
	Cells []int8
}

func (g CheckGrid) At(row, col int) int8 {
	return g.Cells[row*g.Size+col]
}

// StimulusGeometry holds the static radial and angular terms of the
// checkerboard. It is computed once and only read afterwards.
type StimulusGeometry struct {
	params  GeometryParams
	radial  []float64
	angular []float64
	mask    []bool
}

func NewStimulusGeometry(p GeometryParams) (*StimulusGeometry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := p.GridSize
	lim := 2 * math.Pi * p.RingCycles
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = -lim + 2*lim*float64(i)/float64(n-1)
	}

	g := &StimulusGeometry{
		params:  p,
		radial:  make([]float64, n*n),
		angular: make([]float64, n*n),
		mask:    make([]bool, n*n),
	}
	for row := 0; row < n; row++ {
		y := axis[row]
		for col := 0; col < n; col++ {
			x := axis[col]
			i := row*n + col
			r2 := x*x + y*y
			g.radial[i] = math.Pi * math.Sqrt(r2) / p.RingSpacing
			g.angular[i] = math.Cos(math.Atan2(x, y) * p.Angular)
			g.mask[i] = r2 <= lim*lim && r2 >= p.InnerRadiusSq
		}
	}
	return g, nil
}

func (g *StimulusGeometry) Params() GeometryParams {
	return g.params
}

// InMask reports whether a cell lies inside the annulus.
func (g *StimulusGeometry) InMask(row, col int) bool {
	return g.mask[row*g.params.GridSize+col]
}

// Pattern computes the checkerboard for a frame. The result depends only
// on its arguments and the geometry.
func (g *StimulusGeometry) Pattern(frame int, frequency, refreshRate float64) CheckGrid {
	n := g.params.GridSize
	shift := MovementPhase(frame, frequency, refreshRate) * (g.params.PhaseLength / g.params.RingSpacing)
	cells := make([]int8, n*n)
	for i := range cells {
		if !g.mask[i] {
			continue
		}
		cells[i] = sign(math.Cos(g.radial[i]+shift) * g.angular[i])
	}
	return CheckGrid{Size: n, Cells: cells}
}

func sign(v float64) int8 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
