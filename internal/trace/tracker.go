// Package trace hosts the pipeline reducer for a live run. It supplies what the
// pure core leaves to its host: one writer at a time, run identity, history,
// logging, and change notification.
package trace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/pipetrace/internal/layout"
	"github.com/rendis/pipetrace/internal/logging"
	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/internal/streaming"
	"github.com/rendis/pipetrace/pkg/schema"
)

// DefaultHistoryLimit bounds the number of entries kept for Undo.
const DefaultHistoryLimit = 1024

// Entry records one dispatched action.
type Entry struct {
	Seq       uint64
	At        time.Time
	RunID     string
	Action    pipeline.Action
	Before    pipeline.State
	After     pipeline.State
	Violation error
}

// Tracker serializes dispatches into a pipeline.Reducer and keeps the
// current state. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	reducer *pipeline.Reducer
	state   pipeline.State
	runID   string
	seq     uint64
	history []Entry

	limit  int
	strict bool
	hub    streaming.EventHub
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithReducer sets the reducer; the default uses schema.DefaultSteps().
func WithReducer(r *pipeline.Reducer) Option {
	return func(t *Tracker) { t.reducer = r }
}

// WithHub publishes a TraceEvent for every applied action.
func WithHub(h streaming.EventHub) Option {
	return func(t *Tracker) { t.hub = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithStrict rejects out-of-sequence actions instead of applying them.
func WithStrict(strict bool) Option {
	return func(t *Tracker) { t.strict = strict }
}

// WithHistoryLimit bounds the undo history. Non-positive values select
// DefaultHistoryLimit.
func WithHistoryLimit(n int) Option {
	return func(t *Tracker) { t.limit = n }
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) { t.newID = fn }
}

// WithClock sets the clock used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a Tracker in the idle state.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		state:  pipeline.Initial(),
		logger: logging.Discard(),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.reducer == nil {
		t.reducer = pipeline.NewReducer(nil)
	}
	if t.limit <= 0 {
		t.limit = DefaultHistoryLimit
	}
	return t
}

// Dispatch applies a and returns the new state. Out-of-sequence actions are
// logged and applied; in strict mode they are rejected with the audit error
// and the state is left unchanged.
func (t *Tracker) Dispatch(ctx context.Context, a pipeline.Action) (pipeline.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dispatch(ctx, a)
}

func (t *Tracker) dispatch(ctx context.Context, a pipeline.Action) (pipeline.State, error) {
	before := t.state
	runID := t.runID
	ctx = t.correlate(ctx, runID, a)
	log := logging.LogWith(ctx, t.logger)

	violation := pipeline.Audit(before, a)
	if violation != nil {
		if t.strict {
			log.Warn("action rejected", slog.String("reason", violation.Error()))
			return before, violation
		}
		log.Warn("out-of-sequence action applied", slog.String("reason", violation.Error()))
	}

	after := t.reducer.Reduce(before, a)
	switch a.(type) {
	case pipeline.Reset:
		t.runID = ""
	case pipeline.Start:
		t.runID = ""
		if after.Status == schema.RunRunning {
			t.runID = t.newID()
			ctx = logging.WithRunID(ctx, t.runID)
			log = logging.LogWith(ctx, t.logger)
		}
	}

	t.seq++
	t.record(Entry{
		Seq:       t.seq,
		At:        t.now(),
		RunID:     runID,
		Action:    a,
		Before:    before,
		After:     after,
		Violation: violation,
	})
	t.state = after

	logTransition(log, a, after)
	t.publish(ctx, eventType(a), string(pipeline.TargetStep(a)), after)
	return after, nil
}

// DispatchAll applies actions in order and stops at the first rejection.
func (t *Tracker) DispatchAll(ctx context.Context, actions []pipeline.Action) (pipeline.State, error) {
	state := t.State()
	for _, a := range actions {
		var err error
		if state, err = t.Dispatch(ctx, a); err != nil {
			return state, err
		}
	}
	return state, nil
}

// Replay discards the current state and history and applies actions from
// the idle state. No other dispatch interleaves with the replay.
func (t *Tracker) Replay(ctx context.Context, actions []pipeline.Action) (pipeline.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = pipeline.Initial()
	t.runID = ""
	t.seq = 0
	t.history = nil
	logging.LogWith(ctx, t.logger).Debug("replay started", slog.Int("actions", len(actions)))

	for i, a := range actions {
		if _, err := t.dispatch(ctx, a); err != nil {
			return t.state, fmt.Errorf("replay action %d: %w", i, err)
		}
	}
	return t.state, nil
}

// State returns the current state.
func (t *Tracker) State() pipeline.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// RunID returns the ID of the current run, or "" while idle.
func (t *Tracker) RunID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runID
}

// Layout returns the diagram geometry for the current steps.
func (t *Tracker) Layout() layout.Graph {
	return layout.Compute(len(t.State().Steps))
}

// History returns a copy of the recorded entries, oldest first.
func (t *Tracker) History() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Entry(nil), t.history...)
}

// Undo reverts the most recent recorded action.
func (t *Tracker) Undo(ctx context.Context) (pipeline.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) == 0 {
		return t.state, schema.NewError(schema.ErrCodeHistory, "nothing to undo")
	}
	last := t.history[len(t.history)-1]
	t.history = t.history[:len(t.history)-1]
	t.state = last.Before
	t.runID = last.RunID

	ctx = logging.WithRunID(ctx, t.runID)
	kind := ""
	if last.Action != nil {
		kind = last.Action.Kind()
	}
	logging.LogWith(ctx, t.logger).Info("action reverted",
		slog.String("reverted", kind), slog.Uint64("seq", last.Seq))
	t.publish(ctx, schema.EventStateRewound, string(pipeline.TargetStep(last.Action)), t.state)
	return t.state, nil
}

func (t *Tracker) record(e Entry) {
	t.history = append(t.history, e)
	if over := len(t.history) - t.limit; over > 0 {
		t.history = append([]Entry(nil), t.history[over:]...)
	}
}

func (t *Tracker) correlate(ctx context.Context, runID string, a pipeline.Action) context.Context {
	if runID != "" {
		ctx = logging.WithRunID(ctx, runID)
	}
	if id := pipeline.TargetStep(a); id != "" {
		ctx = logging.WithStepID(ctx, string(id))
	}
	if a != nil {
		ctx = logging.WithAction(ctx, a.Kind())
	}
	return ctx
}

func (t *Tracker) publish(ctx context.Context, typ, stepID string, state pipeline.State) {
	if t.hub == nil || typ == "" {
		return
	}
	event := streaming.TraceEvent{
		RunID:     t.runID,
		Seq:       t.seq,
		StepID:    stepID,
		EventType: typ,
		Snapshot:  state,
	}
	if err := t.hub.Publish(ctx, event); err != nil {
		logging.LogWith(ctx, t.logger).Debug("publish skipped", slog.String("error", err.Error()))
	}
}

func logTransition(log *slog.Logger, a pipeline.Action, after pipeline.State) {
	switch a := a.(type) {
	case pipeline.Start:
		log.Info("run started", slog.Int("steps", len(after.Steps)))
	case pipeline.Complete:
		log.Info("run complete", slog.String("status", string(after.Status)))
	case pipeline.Fail:
		log.Info("run failed", slog.String("error", a.Message))
	case pipeline.Reset:
		log.Info("run reset")
	case pipeline.StepError:
		log.Debug("step failed", slog.String("error", a.Message))
	default:
		log.Debug("action applied", slog.String("status", string(after.Status)))
	}
}

func eventType(a pipeline.Action) string {
	switch a.(type) {
	case pipeline.Reset:
		return schema.EventRunReset
	case pipeline.Start:
		return schema.EventRunStarted
	case pipeline.StepStart:
		return schema.EventStepStarted
	case pipeline.StepComplete:
		return schema.EventStepCompleted
	case pipeline.StepError:
		return schema.EventStepFailed
	case pipeline.StepUpdate:
		return schema.EventStepUpdated
	case pipeline.StepSkip:
		return schema.EventStepSkipped
	case pipeline.Complete:
		return schema.EventRunCompleted
	case pipeline.Fail:
		return schema.EventRunFailed
	default:
		return ""
	}
}
