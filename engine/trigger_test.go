package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	reply   []byte
	written bytes.Buffer
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	n := copy(b, p.reply)
	p.reply = p.reply[n:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestMarkerLine(t *testing.T) {
	tests := map[string]string{
		EventCueStart:   "1",
		StimEvent(1):    "2",
		StimEvent(12):   "2",
		EventBreakStart: "3",
		EventBreakEnd:   "4",
	}
	for event, want := range tests {
		got, ok := MarkerLine(event)
		assert.True(t, ok, event)
		assert.Equal(t, want, got, event)
	}
	_, ok := MarkerLine("response")
	assert.False(t, ok)
}

func TestDLPIO8G(t *testing.T) {
	port := &fakePort{reply: []byte("Q")}
	d, err := newDLPIO8G(port, quietLogger())
	require.NoError(t, err)
	d.pulse = 0
	assert.Equal(t, "'\\", port.written.String(), "ping then binary mode")

	port.written.Reset()
	d.Mark(StimEvent(3))
	d.Mark(EventBreakEnd)
	d.Mark("unknown")
	assert.Equal(t, "2W4R", port.written.String())

	require.NoError(t, d.Close())
	assert.True(t, port.closed)
	d.Mark(EventCueStart)
	assert.Equal(t, "2W4R", port.written.String())
}

func TestDLPIO8G_noPingReply(t *testing.T) {
	port := &fakePort{reply: []byte("x")}
	_, err := newDLPIO8G(port, quietLogger())
	assert.Error(t, err)
	assert.True(t, port.closed)
}
