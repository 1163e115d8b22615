package engine

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Marker mirrors log events onto acquisition hardware. The event log
// remains the reference; a marker that fails only logs.
type Marker interface {
	Mark(event string)
}

type nopMarker struct{}

func (nopMarker) Mark(string) {}

// MarkerLine maps an event to the DLP-IO8-G line it pulses.
func MarkerLine(event string) (string, bool) {
	switch {
	case event == EventCueStart:
		return "1", true
	case strings.HasPrefix(event, "stim_"):
		return "2", true
	case event == EventBreakStart:
		return "3", true
	case event == EventBreakEnd:
		return "4", true
	}
	return "", false
}

const DLPPulse = 5 * time.Millisecond

// DLPIO8G drives the TTL lines of a DLP-IO8-G board.
type DLPIO8G struct {
	port   io.ReadWriteCloser
	pulse  time.Duration
	logger *slog.Logger
}

func OpenDLPIO8G(device string, baudrate int, logger *slog.Logger) (*DLPIO8G, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, err
	}
	return newDLPIO8G(port, logger)
}

func newDLPIO8G(port io.ReadWriteCloser, logger *slog.Logger) (*DLPIO8G, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &DLPIO8G{port: port, pulse: DLPPulse, logger: logger}

	if !d.Ping() {
		port.Close()
		return nil, errors.New("device did not respond to ping correctly")
	}

	// Binary mode
	if _, err := port.Write([]byte{0x5C}); err != nil {
		port.Close()
		return nil, err
	}
	return d, nil
}

func (d *DLPIO8G) Close() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}

func (d *DLPIO8G) Ping() bool {
	if _, err := d.port.Write([]byte{0x27}); err != nil {
		return false
	}

	buf := make([]byte, 1)
	n, err := d.port.Read(buf)
	return err == nil && n == 1 && buf[0] == 'Q'
}

func (d *DLPIO8G) Set(lines string) {
	if _, err := d.port.Write([]byte(lines)); err != nil {
		d.logger.Warn("dlp set failed", "lines", lines, "err", err)
	}
}

var unsetCodes = map[byte]byte{
	'1': 'Q', '2': 'W', '3': 'E', '4': 'R',
	'5': 'T', '6': 'Y', '7': 'U', '8': 'I',
}

func (d *DLPIO8G) Unset(lines string) {
	cmd := []byte(lines)
	for i := range cmd {
		if c, ok := unsetCodes[cmd[i]]; ok {
			cmd[i] = c
		}
	}
	if _, err := d.port.Write(cmd); err != nil {
		d.logger.Warn("dlp unset failed", "lines", lines, "err", err)
	}
}

// Mark pulses the line of event. Unknown events are ignored.
func (d *DLPIO8G) Mark(event string) {
	line, ok := MarkerLine(event)
	if !ok || d.port == nil {
		return
	}
	d.Set(line)
	time.Sleep(d.pulse)
	d.Unset(line)
}
