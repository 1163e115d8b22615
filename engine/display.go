package engine

import "context"

// Display is the surface a run draws on. Positions and sizes are in the
// units of the ProtocolConfig; converting them to pixels is up to the
// implementation.
type Display interface {
	// Clear fills the back buffer with the background color.
	Clear()
	DrawText(text string, pos Vec2)
	// DrawImage draws catalog image index (0-based).
	DrawImage(index int, pos Vec2, size Size) error
	DrawPattern(grid CheckGrid, pos Vec2, size Size) error
	// Present shows the back buffer and returns at the next refresh.
	Present() error
	// PollAbort reports pending abort input without blocking.
	PollAbort() bool
	Close() error
}

// DisplayOpener acquires the display for a run.
type DisplayOpener func(ctx context.Context) (Display, error)
