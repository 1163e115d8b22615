package engine

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override values
// from a protocol file. Nested keys are separated by a double underscore,
// e.g. BCISTIM_DISPLAY__WIDTH.
const EnvPrefix = "BCISTIM_"

const (
	ParadigmCAMS   = "cams"
	ParadigmSSMVEP = "ssmvep"

	UnitsNorm = "norm"
	UnitsPix  = "pix"
)

type Vec2 struct {
	X, Y float64
}

type Size struct {
	W, H float64
}

type Color struct {
	R, G, B, A uint8
}

// MaxPeriod bounds every period, in seconds.
const MaxPeriod = 24 * 60 * 60

const MaxRefreshRate = 1000

// ProtocolConfig parameterizes one protocol run. Periods are in seconds.
// It is not modified once Validate succeeds. Units default to norm and
// OutputDir to the working directory when loaded with LoadConfig.
type ProtocolConfig struct {
	Paradigm          string
	Units             string
	NumTrials         int
	StimulusSize      Size
	Frequencies       []float64
	Positions         []Vec2
	CuePeriod         float64
	StimulationPeriod float64
	BreakPeriod       float64
	RefreshRate       float64
	Seed              uint64
	OutputDir         string
	AssetsDir         string
	Geometry          GeometryParams
	Display           DisplaySettings
}

type DisplaySettings struct {
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	BGColor    Color
	TextColor  Color
	FontFile   string
	FontSize   int

	// StartSplash is an image shown until a key press before the first
	// trial. Empty skips it.
	StartSplash string
}

func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		Width:     1750,
		Height:    950,
		VSync:     true,
		BGColor:   Color{R: 128, G: 128, B: 128, A: 255},
		TextColor: Color{R: 0, G: 255, B: 0, A: 255},
		FontSize:  48,
	}
}

// NumStimuli is the number of concurrently presented stimuli.
func (c *ProtocolConfig) NumStimuli() int {
	return len(c.Frequencies)
}

// Frames returns how many display refreshes cover period seconds.
func (c *ProtocolConfig) Frames(period float64) int {
	return int(math.Ceil(period*c.RefreshRate - 1e-9))
}

func seconds(period float64) time.Duration {
	return time.Duration(period * float64(time.Second))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *ProtocolConfig) Validate() error {
	switch c.Paradigm {
	case ParadigmCAMS, ParadigmSSMVEP:
	default:
		return invalid("unknown paradigm %q", c.Paradigm)
	}
	switch c.Units {
	case UnitsNorm, UnitsPix:
	default:
		return invalid("unknown units %q", c.Units)
	}
	if c.NumTrials <= 0 {
		return invalid("num_trials must be positive, got %d", c.NumTrials)
	}
	if len(c.Frequencies) == 0 {
		return invalid("at least one frequency is required")
	}
	if len(c.Positions) != len(c.Frequencies) {
		return invalid("%d positions for %d frequencies", len(c.Positions), len(c.Frequencies))
	}
	for i, f := range c.Frequencies {
		if !(f > 0) || math.IsInf(f, 0) {
			return invalid("frequency %d must be positive, got %v", i+1, f)
		}
	}
	if !(c.StimulusSize.W > 0 && c.StimulusSize.H > 0) || math.IsInf(c.StimulusSize.W, 0) || math.IsInf(c.StimulusSize.H, 0) {
		return invalid("stimulus_size must be positive, got %vx%v", c.StimulusSize.W, c.StimulusSize.H)
	}
	if !(c.StimulationPeriod > 0 && c.StimulationPeriod <= MaxPeriod) {
		return invalid("stimulation_period must be in (0, %v], got %v", float64(MaxPeriod), c.StimulationPeriod)
	}
	if !(c.CuePeriod >= 0 && c.CuePeriod <= MaxPeriod) {
		return invalid("cue_period must be in [0, %v], got %v", float64(MaxPeriod), c.CuePeriod)
	}
	if !(c.BreakPeriod >= 0 && c.BreakPeriod <= MaxPeriod) {
		return invalid("break_period must be in [0, %v], got %v", float64(MaxPeriod), c.BreakPeriod)
	}
	if !(c.RefreshRate > 0 && c.RefreshRate <= MaxRefreshRate) {
		return invalid("refresh_rate must be in (0, %v], got %v", float64(MaxRefreshRate), c.RefreshRate)
	}
	if c.OutputDir == "" {
		return invalid("output_dir is required")
	}
	if c.Paradigm == ParadigmCAMS && c.AssetsDir == "" {
		return invalid("assets_dir is required for the %s paradigm", ParadigmCAMS)
	}
	if c.Paradigm == ParadigmSSMVEP {
		if err := c.Geometry.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type protocolFile struct {
	Paradigm          string      `koanf:"paradigm"`
	Units             string      `koanf:"units"`
	NumTrials         int         `koanf:"num_trials"`
	StimulusSize      []float64   `koanf:"stimulus_size"`
	Frequencies       []float64   `koanf:"frequencies"`
	Positions         [][]float64 `koanf:"positions"`
	CuePeriod         float64     `koanf:"cue_period"`
	StimulationPeriod float64     `koanf:"stimulation_period"`
	BreakPeriod       float64     `koanf:"break_period"`
	RefreshRate       float64     `koanf:"refresh_rate"`
	Seed              uint64      `koanf:"seed"`
	OutputDir         string      `koanf:"output_dir"`
	AssetsDir         string      `koanf:"assets_dir"`
	Geometry          struct {
		GridSize    int     `koanf:"grid_size"`
		RingCycles  float64 `koanf:"ring_cycles"`
		Angular     float64 `koanf:"angular"`
		RingSpacing float64 `koanf:"ring_spacing"`
		PhaseLength float64 `koanf:"phase_length"`
		InnerRadius float64 `koanf:"inner_radius_sq"`
	} `koanf:"geometry"`
	Display struct {
		Width      int    `koanf:"width"`
		Height     int    `koanf:"height"`
		Fullscreen bool   `koanf:"fullscreen"`
		VSync      bool   `koanf:"vsync"`
		BGColor    string `koanf:"bg_color"`
		TextColor  string `koanf:"text_color"`
		FontFile   string `koanf:"font"`
		FontSize   int    `koanf:"font_size"`
		Splash     string `koanf:"start_splash"`
	} `koanf:"display"`
}

// LoadConfig reads a YAML protocol file, applies BCISTIM_ environment
// overrides and validates the result. An empty path loads from the
// environment only.
func LoadConfig(path string) (*ProtocolConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load protocol file '%s': %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	applyDefaults(k)

	var pf protocolFile
	if err := k.Unmarshal("", &pf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg, err := pf.build()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envValue maps BCISTIM_DISPLAY__WIDTH to display.width. List keys take
// comma-separated values, positions as "x,y;x,y".
func envValue(key, value string) (string, any) {
	key = strings.Replace(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".", -1)
	switch key {
	case "frequencies", "stimulus_size":
		return key, splitList(value, ",")
	case "positions":
		points := splitList(value, ";")
		out := make([][]string, len(points))
		for i, p := range points {
			out[i] = splitList(p, ",")
		}
		return key, out
	}
	return key, value
}

func splitList(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyDefaults fills in units, output_dir, display and geometry
// settings. The other protocol fields have no defaults.
func applyDefaults(k *koanf.Koanf) {
	d := DefaultDisplaySettings()
	g := DefaultGeometry()
	defaults := map[string]any{
		"units":                    UnitsNorm,
		"output_dir":               ".",
		"display.width":            d.Width,
		"display.height":           d.Height,
		"display.vsync":            d.VSync,
		"display.bg_color":         formatColor(d.BGColor),
		"display.text_color":       formatColor(d.TextColor),
		"display.font_size":        d.FontSize,
		"geometry.grid_size":       g.GridSize,
		"geometry.ring_cycles":     g.RingCycles,
		"geometry.angular":         g.Angular,
		"geometry.ring_spacing":    g.RingSpacing,
		"geometry.phase_length":    g.PhaseLength,
		"geometry.inner_radius_sq": g.InnerRadiusSq,
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}
}

func (pf *protocolFile) build() (*ProtocolConfig, error) {
	cfg := &ProtocolConfig{
		Paradigm:          strings.ToLower(pf.Paradigm),
		Units:             strings.ToLower(pf.Units),
		NumTrials:         pf.NumTrials,
		Frequencies:       pf.Frequencies,
		CuePeriod:         pf.CuePeriod,
		StimulationPeriod: pf.StimulationPeriod,
		BreakPeriod:       pf.BreakPeriod,
		RefreshRate:       pf.RefreshRate,
		Seed:              pf.Seed,
		OutputDir:         pf.OutputDir,
		AssetsDir:         pf.AssetsDir,
		Geometry: GeometryParams{
			GridSize:      pf.Geometry.GridSize,
			RingCycles:    pf.Geometry.RingCycles,
			Angular:       pf.Geometry.Angular,
			RingSpacing:   pf.Geometry.RingSpacing,
			PhaseLength:   pf.Geometry.PhaseLength,
			InnerRadiusSq: pf.Geometry.InnerRadius,
		},
		Display: DisplaySettings{
			Width:      pf.Display.Width,
			Height:     pf.Display.Height,
			Fullscreen: pf.Display.Fullscreen,
			VSync:      pf.Display.VSync,
			FontFile:   pf.Display.FontFile,
			FontSize:   pf.Display.FontSize,

			StartSplash: pf.Display.Splash,
		},
	}

	if len(pf.StimulusSize) != 2 {
		return nil, invalid("stimulus_size needs 2 values, got %d", len(pf.StimulusSize))
	}
	cfg.StimulusSize = Size{W: pf.StimulusSize[0], H: pf.StimulusSize[1]}

	for i, p := range pf.Positions {
		if len(p) != 2 {
			return nil, invalid("position %d needs 2 coordinates, got %d", i+1, len(p))
		}
		cfg.Positions = append(cfg.Positions, Vec2{X: p[0], Y: p[1]})
	}

	var err error
	if cfg.Display.BGColor, err = ParseColor(pf.Display.BGColor); err != nil {
		return nil, err
	}
	if cfg.Display.TextColor, err = ParseColor(pf.Display.TextColor); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseColor parses "R,G,B" or "R,G,B,A". A missing alpha is opaque.
func ParseColor(s string) (Color, error) {
	var r, g, b, a uint8
	n, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "%d,%d,%d,%d", &r, &g, &b, &a)
	switch {
	case n == 3:
		a = 255
	case n == 4:
	default:
		return Color{}, invalid("bad color %q: %v", s, err)
	}
	return Color{R: r, G: g, B: b, A: a}, nil
}

func formatColor(c Color) string {
	return fmt.Sprintf("%d,%d,%d,%d", c.R, c.G, c.B, c.A)
}

// EnsureOutputDir creates the output directory if needed.
func (c *ProtocolConfig) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("%w: output dir %s: %v", ErrResourceAcquisition, c.OutputDir, err)
	}
	return nil
}
