package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type State int

const (
	StateIdle State = iota
	StateCueDisplay
	StateStimulating
	StateResting
	StateCompleted
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCueDisplay:
		return "cue"
	case StateStimulating:
		return "stimulating"
	case StateResting:
		return "resting"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result describes a finished run.
type Result struct {
	RunID       string
	State       State
	AbortReason string
	Sequence    []int
	Trials      int // trials run to the end of their break
	OutputPath  string
	Events      []EventRecord
}

type Option func(*PresentationLoop)

func WithClock(c Clock) Option {
	return func(l *PresentationLoop) { l.clock = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *PresentationLoop) { l.logger = logger }
}

func WithMarker(m Marker) Option {
	return func(l *PresentationLoop) { l.marker = m }
}

func WithTableWriter(w TableWriter) Option {
	return func(l *PresentationLoop) { l.writer = w }
}

// WithRand sets the source used to shuffle the trial sequence.
func WithRand(rng Shuffler) Option {
	return func(l *PresentationLoop) { l.rng = rng }
}

// WithSequence replaces the shuffled trial sequence.
func WithSequence(seq []int) Option {
	return func(l *PresentationLoop) { l.sequence = append([]int(nil), seq...) }
}

// WithRunID fixes the identifier attached to log lines.
func WithRunID(id string) Option {
	return func(l *PresentationLoop) { l.runID = id }
}

// PresentationLoop runs one protocol: for every trial a cue, a
// stimulation period paced by the display refresh and a break. It is
// single use.
type PresentationLoop struct {
	cfg      *ProtocolConfig
	paradigm Paradigm
	open     DisplayOpener

	clock  Clock
	logger *slog.Logger
	marker Marker
	writer TableWriter
	rng    Shuffler
	runID  string

	sequence []int
	state    State
	reason   string
	trials   int
	events   *EventLog
	display  Display
	output   string
}

// NewPresentationLoop validates cfg and prepares the trial sequence. No
// display is acquired until Run.
func NewPresentationLoop(cfg *ProtocolConfig, paradigm Paradigm, open DisplayOpener, opts ...Option) (*PresentationLoop, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if paradigm == nil || open == nil {
		return nil, fmt.Errorf("%w: paradigm and display opener are required", ErrInvalidConfig)
	}

	l := &PresentationLoop{
		cfg:      cfg,
		paradigm: paradigm,
		open:     open,
		clock:    NewMonotonicClock(),
		logger:   slog.Default(),
		marker:   nopMarker{},
		writer:   CSVTableWriter{},
		events:   NewEventLog(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.runID == "" {
		l.runID = uuid.NewString()
	}
	l.logger = l.logger.With("run_id", l.runID, "paradigm", paradigm.Name())

	if l.sequence == nil {
		if l.rng == nil {
			l.rng = NewRand(cfg.Seed)
		}
		seq, err := GenerateSequence(cfg.NumTrials, cfg.NumStimuli(), l.rng)
		if err != nil {
			return nil, err
		}
		l.sequence = seq
	}
	for _, id := range l.sequence {
		if id < 1 || id > cfg.NumStimuli() {
			return nil, fmt.Errorf("%w: stimulus id %d outside 1..%d", ErrInvalidConfig, id, cfg.NumStimuli())
		}
	}
	return l, nil
}

func (l *PresentationLoop) Sequence() []int {
	return append([]int(nil), l.sequence...)
}

func (l *PresentationLoop) State() State {
	return l.state
}

// Run drives the protocol to completion or abort. An abort, by key press
// or by ctx, is not an error: the log is flushed and Result.State is
// StateAborted. Errors wrap ErrResourceAcquisition or ErrPersistence, or
// come from the display mid-run.
func (l *PresentationLoop) Run(ctx context.Context) (Result, error) {
	if l.state != StateIdle {
		return l.result(), errors.New("presentation loop already ran")
	}
	l.logger.Info("run starting",
		"trials", len(l.sequence),
		"cue", l.cfg.CuePeriod,
		"stim", l.cfg.StimulationPeriod,
		"break", l.cfg.BreakPeriod,
		"sequence", l.sequence)

	d, err := l.open(ctx)
	if err != nil {
		l.state = StateFailed
		return l.result(), fmt.Errorf("%w: display: %v", ErrResourceAcquisition, err)
	}
	l.display = d

	runErr := l.runTrials(ctx)
	closeErr := l.display.Close()

	if runErr != nil {
		l.state = StateFailed
		l.logger.Error("run failed", "trial", l.trials+1, "err", runErr)
		err := errors.Join(runErr, closeErr)
		if l.events.Len() > 0 {
			if _, ferr := l.flush(); ferr != nil {
				err = errors.Join(err, ferr)
			}
		}
		return l.result(), err
	}
	if closeErr != nil {
		l.logger.Warn("closing display failed", "err", closeErr)
	}

	if l.state != StateAborted {
		l.state = StateCompleted
	}
	path, err := l.flush()
	if err != nil {
		return l.result(), err
	}
	l.logger.Info("run finished", "state", l.state, "trials", l.trials, "events", l.events.Len(), "output", path)
	return l.result(), nil
}

func (l *PresentationLoop) runTrials(ctx context.Context) error {
	for i, id := range l.sequence {
		l.logger.Info("trial", "index", i+1, "of", len(l.sequence), "stimulus", id)

		l.state = StateCueDisplay
		if err := l.record(EventCueStart); err != nil {
			return err
		}
		if stop, err := l.cue(ctx, id); stop || err != nil {
			return err
		}
		if err := l.record(StimEvent(id)); err != nil {
			return err
		}

		l.state = StateStimulating
		if stop, err := l.stimulate(ctx); stop || err != nil {
			return err
		}

		l.state = StateResting
		if err := l.record(EventBreakStart); err != nil {
			return err
		}
		l.clock.Sleep(seconds(l.cfg.BreakPeriod))
		if err := l.record(EventBreakEnd); err != nil {
			return err
		}
		l.trials++
	}
	return nil
}

// cue shows the label of stimulus id at its position, one frame per
// refresh, for the cue period.
func (l *PresentationLoop) cue(ctx context.Context, id int) (bool, error) {
	label := l.paradigm.CueLabel(id)
	pos := l.cfg.Positions[id-1]
	frames := max(l.cfg.Frames(l.cfg.CuePeriod), 1)
	for f := 0; f < frames; f++ {
		if l.shouldAbort(ctx) {
			return true, nil
		}
		l.display.Clear()
		l.display.DrawText(label, pos)
		if err := l.display.Present(); err != nil {
			return false, fmt.Errorf("cue frame %d: %w", f, err)
		}
	}
	return false, nil
}

// stimulate presents one paradigm frame per refresh for the stimulation
// period, then a blank frame.
func (l *PresentationLoop) stimulate(ctx context.Context) (bool, error) {
	frames := l.cfg.Frames(l.cfg.StimulationPeriod)
	for f := l.paradigm.FirstFrame(); f < frames; f++ {
		if l.shouldAbort(ctx) {
			return true, nil
		}
		l.display.Clear()
		if err := l.paradigm.DrawFrame(l.display, f, l.cfg); err != nil {
			return false, fmt.Errorf("stimulation frame %d: %w", f, err)
		}
		if err := l.display.Present(); err != nil {
			return false, fmt.Errorf("stimulation frame %d: %w", f, err)
		}
	}
	l.display.Clear()
	if err := l.display.Present(); err != nil {
		return false, fmt.Errorf("blank frame: %w", err)
	}
	return false, nil
}

// shouldAbort is the per-frame poll. It never blocks.
func (l *PresentationLoop) shouldAbort(ctx context.Context) bool {
	switch {
	case ctx.Err() != nil:
		l.reason = "cancelled"
	case l.display.PollAbort():
		l.reason = "user"
	default:
		return false
	}
	l.logger.Warn("run aborted", "reason", l.reason, "state", l.state, "trial", l.trials+1)
	l.state = StateAborted
	return true
}

func (l *PresentationLoop) record(event string) error {
	if err := l.events.Record(event, l.clock.Now()); err != nil {
		return err
	}
	l.marker.Mark(event)
	return nil
}

func (l *PresentationLoop) flush() (string, error) {
	runID := l.clock.Now().Unix()
	path, err := l.events.Flush(l.writer, l.cfg.OutputDir, l.paradigm.Name(), runID)
	if err != nil {
		l.logger.Error("event log not saved", "path", path, "events", l.events.Len(), "err", err)
		return "", err
	}
	l.output = path
	return path, nil
}

func (l *PresentationLoop) result() Result {
	return Result{
		RunID:       l.runID,
		State:       l.state,
		AbortReason: l.reason,
		Sequence:    l.Sequence(),
		Trials:      l.trials,
		OutputPath:  l.output,
		Events:      l.events.Entries(),
	}
}
