package engine

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeClock advances one millisecond per reading and by the requested
// amount per sleep.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept += d
}

type fakeDisplay struct {
	polls     int
	presents  int
	clears    int
	texts     []string
	textPos   []Vec2
	images    []int
	patterns  []CheckGrid
	closed    int
	abortWhen func() bool
	presentFn func(n int) error
}

func (d *fakeDisplay) Clear() { d.clears++ }

func (d *fakeDisplay) DrawText(text string, pos Vec2) {
	d.texts = append(d.texts, text)
	d.textPos = append(d.textPos, pos)
}

func (d *fakeDisplay) DrawImage(index int, pos Vec2, size Size) error {
	d.images = append(d.images, index)
	return nil
}

func (d *fakeDisplay) DrawPattern(grid CheckGrid, pos Vec2, size Size) error {
	d.patterns = append(d.patterns, grid)
	return nil
}

func (d *fakeDisplay) Present() error {
	d.presents++
	if d.presentFn != nil {
		return d.presentFn(d.presents)
	}
	return nil
}

func (d *fakeDisplay) PollAbort() bool {
	d.polls++
	return d.abortWhen != nil && d.abortWhen()
}

func (d *fakeDisplay) Close() error {
	d.closed++
	return nil
}

func (d *fakeDisplay) opener() DisplayOpener {
	return func(context.Context) (Display, error) { return d, nil }
}

// memoryWriter keeps flushed tables in memory.
type memoryWriter struct {
	paths []string
	rows  [][]EventRecord
	err   error
}

func (w *memoryWriter) WriteTable(rows []EventRecord, path string) error {
	w.paths = append(w.paths, path)
	w.rows = append(w.rows, append([]EventRecord(nil), rows...))
	return w.err
}

var errBoom = errors.New("boom")
