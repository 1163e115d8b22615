package engine

import (
	"fmt"
	"strconv"
)

// Paradigm draws the stimulation frames of one BCI paradigm.
type Paradigm interface {
	// Name prefixes the output file of a run.
	Name() string
	// FirstFrame is the index of the first stimulation frame.
	FirstFrame() int
	CueLabel(id int) string
	// DrawFrame draws every stimulus for frame without presenting it.
	DrawFrame(d Display, frame int, cfg *ProtocolConfig) error
}

// CAMS cycles through a numbered image catalog at each position.
type CAMS struct {
	CatalogSize int
}

func (CAMS) Name() string { return ParadigmCAMS }
func (CAMS) FirstFrame() int { return 0 }
func (CAMS) CueLabel(id int) string { return strconv.Itoa(id) }

func (p CAMS) DrawFrame(d Display, frame int, cfg *ProtocolConfig) error {
	for i, freq := range cfg.Frequencies {
		idx, err := CycleIndex(frame, freq, p.CatalogSize)
		if err != nil {
			return err
		}
		if err := d.DrawImage(idx, cfg.Positions[i], cfg.StimulusSize); err != nil {
			return fmt.Errorf("stimulus %d: %w", i+1, err)
		}
	}
	return nil
}

// SSMVEP reverses the contrast of a radial checkerboard at each position.
type SSMVEP struct {
	Geometry *StimulusGeometry
}

func (SSMVEP) Name() string { return ParadigmSSMVEP }
func (SSMVEP) FirstFrame() int { return 1 }
func (SSMVEP) CueLabel(id int) string { return strconv.Itoa(id) }

func (p SSMVEP) DrawFrame(d Display, frame int, cfg *ProtocolConfig) error {
	// All patterns are computed before any is drawn so the positions share
	// one frame.
	grids := make([]CheckGrid, len(cfg.Frequencies))
	for i, freq := range cfg.Frequencies {
		grids[i] = p.Geometry.Pattern(frame, freq, cfg.RefreshRate)
	}
	for i, grid := range grids {
		if err := d.DrawPattern(grid, cfg.Positions[i], cfg.StimulusSize); err != nil {
			return fmt.Errorf("stimulus %d: %w", i+1, err)
		}
	}
	return nil
}

// NewParadigm builds the paradigm named by cfg. catalogSize is only used by
// CAMS.
func NewParadigm(cfg *ProtocolConfig, catalogSize int) (Paradigm, error) {
	switch cfg.Paradigm {
	case ParadigmCAMS:
		if catalogSize <= 0 {
			return nil, fmt.Errorf("%w: no stimulus images in %s", ErrResourceAcquisition, cfg.AssetsDir)
		}
		return CAMS{CatalogSize: catalogSize}, nil
	case ParadigmSSMVEP:
		geom, err := NewStimulusGeometry(cfg.Geometry)
		if err != nil {
			return nil, err
		}
		return SSMVEP{Geometry: geom}, nil
	}
	return nil, fmt.Errorf("%w: unknown paradigm %q", ErrInvalidConfig, cfg.Paradigm)
}
