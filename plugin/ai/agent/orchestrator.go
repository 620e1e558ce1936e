package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/plugin/ai/metrics"
	"github.com/hrygo/lexagent/plugin/ai/session"
	"github.com/hrygo/lexagent/plugin/ai/timeout"
)

// TurnState is a step of the turn state machine.
type TurnState string

const (
	TurnStarted    TurnState = "STARTED"
	TurnIterating  TurnState = "ITERATING"
	TurnCompleted  TurnState = "COMPLETED"
	TurnForcedStop TurnState = "FORCED_STOP"
	TurnPersisted  TurnState = "PERSISTED"
	turnFailed     TurnState = "FAILED"
)

// DefaultUserID is used when a turn names no user.
const DefaultUserID = "default_user"

// ForcedStopNotice is appended to the reply of a turn that hit the event
// ceiling. It is never stored as a session event.
const ForcedStopNotice = "\n\n[System: The agent was forcibly stopped after reaching the maximum number of steps. Please ask a more specific query.]"

// TurnResult is the outcome of one turn.
type TurnResult struct {
	SessionID string
	Reply     string
	// State is the terminal iteration state, COMPLETED or FORCED_STOP.
	State      TurnState
	EventCount int
}

// TurnRunner drives one conversational turn: load or create the session,
// append the user message, consume the event source up to the event
// ceiling, then persist once.
type TurnRunner struct {
	sessions  session.Service
	source    EventSource
	appName   string
	maxEvents int
	slots     *sessionSlots
	metrics   metrics.MetricsService
	now       func() time.Time
}

// RunnerOption configures a TurnRunner.
type RunnerOption func(*TurnRunner)

// WithMaxEvents overrides the per-turn event ceiling.
func WithMaxEvents(n int) RunnerOption {
	return func(r *TurnRunner) {
		if n > 0 {
			r.maxEvents = n
		}
	}
}

// WithAppName sets the application sessions are stored under.
func WithAppName(name string) RunnerOption {
	return func(r *TurnRunner) {
		if name != "" {
			r.appName = name
		}
	}
}

// WithMetrics sets the metrics sink for finished turns.
func WithMetrics(m metrics.MetricsService) RunnerOption {
	return func(r *TurnRunner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewTurnRunner creates a TurnRunner that drives source against sessions.
func NewTurnRunner(sessions session.Service, source EventSource, opts ...RunnerOption) *TurnRunner {
	r := &TurnRunner{
		sessions:  sessions,
		source:    source,
		appName:   profile.DefaultAppName,
		maxEvents: timeout.MaxTurnEvents,
		slots:     newSessionSlots(),
		metrics:   metrics.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AppName returns the application sessions are stored under.
func (r *TurnRunner) AppName() string {
	return r.appName
}

// RunTurn runs one turn for sessionID. An empty or unknown id starts a new
// session, whose id is reported in the result. Turns on the same session
// id run one at a time. If the event source fails, the error is returned
// and nothing from the turn is persisted.
func (r *TurnRunner) RunTurn(ctx context.Context, sessionID, userMessage, userID string) (*TurnResult, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, ErrEmptyMessage
	}
	if userID == "" {
		userID = DefaultUserID
	}
	start := r.now()

	if sessionID != "" {
		release, err := r.slots.acquire(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("wait for session %s: %w", sessionID, err)
		}
		defer release()
	}

	sess, err := r.load(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	invocationID := "e-" + uuid.NewString()
	log := slog.With("session_id", sess.ID, "invocation_id", invocationID, "user_id", userID)
	log.Info("turn state", "state", TurnStarted)

	sess.Append(&session.Event{
		ID:           shortuuid.New(),
		Author:       session.AuthorUser,
		InvocationID: invocationID,
		Content:      []session.Part{session.TextPart(userMessage)},
		Timestamp:    r.now().Unix(),
	})

	state := TurnIterating
	log.Info("turn state", "state", state)

	var reply strings.Builder
	count := 0
	for ev, err := range r.source.Run(ctx, sess.Clone(), invocationID) {
		if err != nil {
			r.metrics.RecordTurn(ctx, string(turnFailed), r.now().Sub(start), count)
			log.Error("turn failed", "events", count, "error", err)
			return nil, fmt.Errorf("turn on session %s: %w", sess.ID, err)
		}
		if ev == nil {
			continue
		}
		r.stamp(ev, invocationID)
		sess.Append(ev)
		count++

		if ev.Final && ev.HasText() {
			reply.WriteString(ev.Text())
			state = TurnCompleted
			break
		}
		if count >= r.maxEvents {
			reply.WriteString(ForcedStopNotice)
			state = TurnForcedStop
			break
		}
	}
	if state == TurnIterating {
		// source ended without a final answer
		state = TurnCompleted
	}
	log.Info("turn state", "state", state, "events", count)

	if err := r.sessions.Update(ctx, sess); err != nil {
		r.metrics.RecordTurn(ctx, string(turnFailed), r.now().Sub(start), count)
		return nil, fmt.Errorf("persist session %s: %w", sess.ID, err)
	}
	log.Info("turn state", "state", TurnPersisted, "duration_ms", r.now().Sub(start).Milliseconds())
	r.metrics.RecordTurn(ctx, string(state), r.now().Sub(start), count)

	return &TurnResult{
		SessionID:  sess.ID,
		Reply:      reply.String(),
		State:      state,
		EventCount: count,
	}, nil
}

// load returns the stored session for id, or a freshly created one.
func (r *TurnRunner) load(ctx context.Context, id, userID string) (*session.Session, error) {
	if id != "" {
		sess, err := r.sessions.Get(ctx, r.appName, userID, id)
		if err != nil {
			slog.Warn("session lookup failed, starting a new session", "session_id", id, "error", err)
		}
		if sess != nil {
			return sess, nil
		}
	}

	newID, err := r.sessions.Create(ctx, r.appName, userID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess, err := r.sessions.Get(ctx, r.appName, userID, newID)
	if err != nil {
		return nil, fmt.Errorf("load new session %s: %w", newID, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("load new session %s: not found after create", newID)
	}
	if id != "" {
		slog.Info("unknown session, started a new one", "requested_id", id, "session_id", newID)
	}
	return sess, nil
}

// stamp fills identity fields a source left empty.
func (r *TurnRunner) stamp(ev *session.Event, invocationID string) {
	if ev.ID == "" {
		ev.ID = shortuuid.New()
	}
	if ev.InvocationID == "" {
		ev.InvocationID = invocationID
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = r.now().Unix()
	}
}
