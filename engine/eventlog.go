package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Event names written to the log. Stimulation onsets are named
// StimEvent(id).
const (
	EventCueStart   = "cue_start"
	EventBreakStart = "break_start"
	EventBreakEnd   = "break_end"
)

func StimEvent(id int) string {
	return "stim_" + strconv.Itoa(id)
}

// EventRecord is one timestamped event. UTCTime is in seconds since the
// Unix epoch.
type EventRecord struct {
	Name    string
	UTCTime float64
}

// TableWriter persists the rows of an event log at path.
type TableWriter interface {
	WriteTable(rows []EventRecord, path string) error
}

// EventLog is an append-only record of a run. It is flushed once.
type EventLog struct {
	entries []EventRecord
	flushed bool
}

func NewEventLog() *EventLog {
	return &EventLog{entries: make([]EventRecord, 0, 64)}
}

// Record appends an event captured at t.
func (l *EventLog) Record(name string, t time.Time) error {
	if l.flushed {
		return fmt.Errorf("%w: cannot record %s", ErrLogFlushed, name)
	}
	l.entries = append(l.entries, EventRecord{Name: name, UTCTime: epochSeconds(t)})
	return nil
}

func (l *EventLog) Len() int {
	return len(l.entries)
}

func (l *EventLog) Flushed() bool {
	return l.flushed
}

// Entries returns a copy of the records in order of occurrence.
func (l *EventLog) Entries() []EventRecord {
	out := make([]EventRecord, len(l.entries))
	copy(out, l.entries)
	return out
}

// OutputPath is where a run's log is written.
func OutputPath(baseDir, paradigm string, runID int64) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_timestamps_event_id_%d.csv", paradigm, runID))
}

// Flush writes the log to OutputPath(baseDir, paradigm, runID). A log is
// flushed at most once: the second call fails with ErrLogFlushed even if
// the first write failed.
func (l *EventLog) Flush(w TableWriter, baseDir, paradigm string, runID int64) (string, error) {
	if l.flushed {
		return "", ErrLogFlushed
	}
	l.flushed = true

	path := OutputPath(baseDir, paradigm, runID)
	if err := w.WriteTable(l.entries, path); err != nil {
		return path, fmt.Errorf("%w: %s: %v", ErrPersistence, path, err)
	}
	return path, nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

// CSVTableWriter writes event logs as CSV with an event_name,utc_time
// header. It refuses to replace an existing file.
type CSVTableWriter struct{}

func (CSVTableWriter) WriteTable(rows []EventRecord, path string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"event_name", "utc_time"}); err != nil {
		return err
	}
	for _, e := range rows {
		if err := w.Write([]string{e.Name, strconv.FormatFloat(e.UTCTime, 'f', 6, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadEventCSV loads a log written by CSVTableWriter.
func ReadEventCSV(path string) ([]EventRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) != 2 || records[0][0] != "event_name" || records[0][1] != "utc_time" {
		return nil, errors.New("missing event_name,utc_time header")
	}

	rows := make([]EventRecord, 0, len(records)-1)
	for i, rec := range records[1:] {
		ts, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid utc_time: %v", i+2, err)
		}
		rows = append(rows, EventRecord{Name: rec[0], UTCTime: ts})
	}
	return rows, nil
}
