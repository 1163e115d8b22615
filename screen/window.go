package screen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"bcistim/engine"

	"github.com/Zyko0/go-sdl3/img"
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
)

const CrossSize = 20

type texture struct {
	tex  *sdl.Texture
	w, h float32
}

// Window is the SDL3 implementation of engine.Display. It must be used
// from the thread that created it.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	font     *ttf.Font
	images   []texture
	labels   map[string]texture

	layout   Layout
	settings engine.DisplaySettings
	bg       sdl.Color
	text     sdl.Color
	refresh  float32
	period   time.Duration
	next     time.Time
	logger   *slog.Logger
	closed   bool
}

func sdlColor(c engine.Color) sdl.Color {
	return sdl.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Opener returns an engine.DisplayOpener that opens a Window for cfg and
// loads the catalog images in assets.
func Opener(cfg *engine.ProtocolConfig, assets []string, logger *slog.Logger) engine.DisplayOpener {
	return func(ctx context.Context) (engine.Display, error) {
		w, err := Open(cfg, assets, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Display.StartSplash != "" && !w.Splash(ctx, cfg.Display.StartSplash) {
			w.Close()
			return nil, fmt.Errorf("window closed on start screen")
		}
		return w, nil
	}
}

// Open initializes SDL, creates the window and uploads the images.
func Open(cfg *engine.ProtocolConfig, assets []string, logger *slog.Logger) (*Window, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := cfg.Display

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init: %w", err)
	}
	if err := ttf.Init(); err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("TTF_Init: %w", err)
	}

	windowFlags := sdl.WINDOW_RESIZABLE
	if s.Fullscreen {
		windowFlags |= sdl.WINDOW_FULLSCREEN
	}

	window, renderer, err := sdl.CreateWindowAndRenderer("bcistim", s.Width, s.Height, windowFlags)
	if err != nil {
		ttf.Quit()
		sdl.Quit()
		return nil, fmt.Errorf("CreateWindowAndRenderer: %w", err)
	}

	w := &Window{
		window:   window,
		renderer: renderer,
		labels:   make(map[string]texture),
		layout:   Layout{Units: cfg.Units, Width: float32(s.Width), Height: float32(s.Height)},
		settings: s,
		bg:       sdlColor(s.BGColor),
		text:     sdlColor(s.TextColor),
		refresh:  float32(cfg.RefreshRate),
		period:   time.Duration(float64(time.Second) / cfg.RefreshRate),
		logger:   logger,
	}

	if s.VSync {
		renderer.SetVSync(1)
	} else {
		renderer.SetVSync(0)
	}

	if mode, err := sdl.GetDisplayForWindow(window).CurrentDisplayMode(); err == nil && mode.RefreshRate > 0 {
		w.refresh = mode.RefreshRate
		if diff := float64(mode.RefreshRate) - cfg.RefreshRate; diff > 0.5 || diff < -0.5 {
			logger.Warn("monitor refresh rate differs from protocol",
				"monitor_hz", mode.RefreshRate, "protocol_hz", cfg.RefreshRate)
		}
	}

	fontPath := ResolveFont(s, cfg.AssetsDir)
	if s.FontFile != "" && fontPath != s.FontFile && filepath.Dir(fontPath) != filepath.Clean(s.FontFile) {
		logger.Warn("font not found, searching elsewhere", "font", s.FontFile, "using", fontPath)
	}
	if fontPath != "" {
		w.font, err = ttf.OpenFont(fontPath, float32(s.FontSize))
		if err != nil {
			logger.Warn("failed to load font, cues fall back to a cross", "font", fontPath, "err", err)
			w.font = nil
		}
	}

	for _, path := range assets {
		tex, err := img.LoadTexture(renderer, path)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("load image %s: %w", path, err)
		}
		tw, th, _ := tex.Size()
		w.images = append(w.images, texture{tex: tex, w: tw, h: th})
	}

	logger.Info("display opened",
		"width", s.Width, "height", s.Height, "fullscreen", s.Fullscreen,
		"vsync", s.VSync, "refresh_hz", w.refresh, "images", len(w.images))
	return w, nil
}

// RefreshRate is the monitor rate, or the protocol rate when SDL cannot
// report one.
func (w *Window) RefreshRate() float32 {
	return w.refresh
}

func (w *Window) Clear() {
	w.renderer.SetDrawColor(w.bg.R, w.bg.G, w.bg.B, w.bg.A)
	w.renderer.Clear()
}

// DrawText renders a cue centered on pos. Without a font a cross marks
// the position instead.
func (w *Window) DrawText(text string, pos engine.Vec2) {
	cx, cy := w.layout.Center(pos)
	t, ok := w.label(text)
	if !ok {
		w.drawCross(cx, cy)
		return
	}
	dst := sdl.FRect{X: cx - t.w/2, Y: cy - t.h/2, W: t.w, H: t.h}
	w.renderer.RenderTexture(t.tex, nil, &dst)
}

func (w *Window) label(text string) (texture, bool) {
	if t, ok := w.labels[text]; ok {
		return t, true
	}
	if w.font == nil {
		return texture{}, false
	}
	surf, err := w.font.RenderTextBlended(text, w.text)
	if err != nil || surf == nil {
		w.logger.Warn("failed to render cue", "text", text, "err", err)
		return texture{}, false
	}
	defer surf.Destroy()
	tex, err := w.renderer.CreateTextureFromSurface(surf)
	if err != nil {
		w.logger.Warn("failed to upload cue", "text", text, "err", err)
		return texture{}, false
	}
	t := texture{tex: tex, w: float32(surf.W), h: float32(surf.H)}
	w.labels[text] = t
	return t, true
}

func (w *Window) drawCross(mx, my float32) {
	w.renderer.SetDrawColor(w.text.R, w.text.G, w.text.B, w.text.A)
	w.renderer.RenderLine(mx-CrossSize, my, mx+CrossSize, my)
	w.renderer.RenderLine(mx, my-CrossSize, mx, my+CrossSize)
}

func (w *Window) DrawImage(index int, pos engine.Vec2, size engine.Size) error {
	if index < 0 || index >= len(w.images) {
		return fmt.Errorf("image %d outside catalog of %d", index, len(w.images))
	}
	r := w.layout.Rect(pos, size)
	dst := sdl.FRect{X: r.X, Y: r.Y, W: r.W, H: r.H}
	w.renderer.RenderTexture(w.images[index].tex, nil, &dst)
	return nil
}

// DrawPattern rasterizes the grid over the stimulus box: +1 cells white,
// -1 cells black, 0 cells left at the background.
func (w *Window) DrawPattern(grid engine.CheckGrid, pos engine.Vec2, size engine.Size) error {
	if grid.Size <= 0 || len(grid.Cells) != grid.Size*grid.Size {
		return fmt.Errorf("malformed %d-cell grid of size %d", len(grid.Cells), grid.Size)
	}
	r := w.layout.Rect(pos, size)
	fill := func(c Rect) {
		cell := sdl.FRect{X: c.X, Y: c.Y, W: c.W, H: c.H}
		w.renderer.RenderFillRect(&cell)
	}
	w.renderer.SetDrawColor(255, 255, 255, 255)
	Cells(r, grid, 1, fill)
	w.renderer.SetDrawColor(0, 0, 0, 255)
	Cells(r, grid, -1, fill)
	return nil
}

// Present flips the frame. With vsync the renderer waits for the refresh;
// without it frames are paced to the protocol refresh rate.
func (w *Window) Present() error {
	if w.closed {
		return fmt.Errorf("present on closed window")
	}
	w.renderer.Present()
	if !w.settings.VSync {
		now := time.Now()
		if w.next.IsZero() || now.After(w.next.Add(w.period)) {
			w.next = now
		}
		w.next = w.next.Add(w.period)
		time.Sleep(time.Until(w.next))
	}
	return nil
}

// PollAbort drains pending events. Any key press or a window close
// requests an abort.
func (w *Window) PollAbort() bool {
	abort := false
	for {
		var ev sdl.Event
		if !sdl.PollEvent(&ev) {
			break
		}
		switch ev.Type {
		case sdl.EVENT_QUIT:
			abort = true
		case sdl.EVENT_KEY_DOWN:
			w.logger.Info("abort key", "key", ev.KeyboardEvent().Key.KeyName())
			abort = true
		}
	}
	return abort
}

// Splash shows an image until a key is pressed. It returns false if the
// window was closed or ctx ended.
func (w *Window) Splash(ctx context.Context, filePath string) bool {
	tex, err := img.LoadTexture(w.renderer, filePath)
	if err != nil {
		w.logger.Warn("failed to load splash", "path", filePath, "err", err)
		return true
	}
	defer tex.Destroy()

	tw, th, _ := tex.Size()
	dst := sdl.FRect{
		X: (w.layout.Width - tw) / 2.0,
		Y: (w.layout.Height - th) / 2.0,
		W: tw,
		H: th,
	}

	for ctx.Err() == nil {
		w.Clear()
		w.renderer.RenderTexture(tex, nil, &dst)
		w.renderer.Present()

		var event sdl.Event
		for sdl.PollEvent(&event) {
			if event.Type == sdl.EVENT_QUIT {
				return false
			}
			if event.Type == sdl.EVENT_KEY_DOWN {
				return true
			}
		}
		sdl.Delay(10)
	}
	return false
}

func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	for _, t := range w.labels {
		t.tex.Destroy()
	}
	for _, t := range w.images {
		t.tex.Destroy()
	}
	if w.font != nil {
		w.font.Close()
	}
	w.renderer.Destroy()
	w.window.Destroy()
	ttf.Quit()
	sdl.Quit()
	return nil
}
