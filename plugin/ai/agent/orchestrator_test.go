package agent

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/lexagent/plugin/ai/metrics"
	"github.com/hrygo/lexagent/plugin/ai/session"
)

// sourceFunc adapts a function to EventSource.
type sourceFunc func(ctx context.Context, sess *session.Session, invocationID string) iter.Seq2[*session.Event, error]

func (f sourceFunc) Run(ctx context.Context, sess *session.Session, invocationID string) iter.Seq2[*session.Event, error] {
	return f(ctx, sess, invocationID)
}

// scriptedSource yields the given events in order, then err if set.
func scriptedSource(events []*session.Event, err error) (EventSource, *int) {
	produced := new(int)
	return sourceFunc(func(ctx context.Context, sess *session.Session, invocationID string) iter.Seq2[*session.Event, error] {
		return func(yield func(*session.Event, error) bool) {
			for _, ev := range events {
				*produced++
				if !yield(ev, nil) {
					return
				}
			}
			if err != nil {
				yield(nil, err)
			}
		}
	}), produced
}

// answerSource answers every turn with a fresh final event.
func answerSource(text string) EventSource {
	return sourceFunc(func(ctx context.Context, sess *session.Session, invocationID string) iter.Seq2[*session.Event, error] {
		return func(yield func(*session.Event, error) bool) {
			yield(finalEvent(text), nil)
		}
	})
}

func toolEvents(n int) []*session.Event {
	events := make([]*session.Event, n)
	for i := range events {
		events[i] = &session.Event{Author: session.AuthorTool, Content: []session.Part{{
			FunctionResponse: &session.FunctionResponse{ID: "c", Name: "lookup", Response: "nothing"},
		}}}
	}
	return events
}

func finalEvent(text string) *session.Event {
	return &session.Event{Author: session.AuthorAgent, Final: true, Content: []session.Part{session.TextPart(text)}}
}

// recordingMetrics captures turn and tool metrics.
type recordingMetrics struct {
	mu     sync.Mutex
	turns  []string
	events []int
	tools  map[string][]bool
}

func (r *recordingMetrics) RecordTurn(_ context.Context, state string, _ time.Duration, events int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, state)
	r.events = append(r.events, events)
}

func (r *recordingMetrics) RecordToolCall(_ context.Context, tool string, _ time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tools == nil {
		r.tools = make(map[string][]bool)
	}
	r.tools[tool] = append(r.tools[tool], success)
}

func (r *recordingMetrics) GetStats(context.Context, time.Time) *metrics.Stats { return nil }

func newRunner(t *testing.T, source EventSource, opts ...RunnerOption) (*TurnRunner, session.Service, *session.MemoryRecordStore) {
	t.Helper()
	records := session.NewMemoryRecordStore()
	sessions := session.NewStore(records)
	return NewTurnRunner(sessions, source, opts...), sessions, records
}

func TestRunTurn_ForcedStopAtCeiling(t *testing.T) {
	source, produced := scriptedSource(toolEvents(31), nil)
	m := &recordingMetrics{}
	runner, sessions, _ := newRunner(t, source, WithMetrics(m))

	result, err := runner.RunTurn(context.Background(), "", "Loop forever", "")
	require.NoError(t, err)

	assert.Equal(t, TurnForcedStop, result.State)
	assert.Equal(t, 30, result.EventCount)
	assert.Equal(t, 30, *produced)
	assert.True(t, strings.HasSuffix(result.Reply, ForcedStopNotice))
	assert.Equal(t, ForcedStopNotice, result.Reply)

	sess, err := sessions.Get(context.Background(), runner.AppName(), DefaultUserID, result.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Len(t, sess.Events, 31)
	assert.Equal(t, session.AuthorUser, sess.Events[0].Author)
	assert.Equal(t, "Loop forever", sess.Events[0].Text())
	for _, ev := range sess.Events {
		assert.NotContains(t, ev.Text(), "forcibly stopped")
		assert.Equal(t, sess.Events[0].InvocationID, ev.InvocationID)
		assert.NotEmpty(t, ev.ID)
		assert.NotZero(t, ev.Timestamp)
	}

	assert.Equal(t, []string{"FORCED_STOP"}, m.turns)
	assert.Equal(t, []int{30}, m.events)
}

func TestRunTurn_CustomCeiling(t *testing.T) {
	source, produced := scriptedSource(toolEvents(10), nil)
	runner, _, _ := newRunner(t, source, WithMaxEvents(3))

	result, err := runner.RunTurn(context.Background(), "", "hi", "u1")
	require.NoError(t, err)
	assert.Equal(t, TurnForcedStop, result.State)
	assert.Equal(t, 3, result.EventCount)
	assert.Equal(t, 3, *produced)
}

func TestRunTurn_CompletesOnFinalEvent(t *testing.T) {
	events := append(toolEvents(2), finalEvent("Section 303 BNS covers theft."), finalEvent("never read"))
	source, produced := scriptedSource(events, nil)
	runner, sessions, records := newRunner(t, source)

	result, err := runner.RunTurn(context.Background(), "", "What is theft?", "alice")
	require.NoError(t, err)

	assert.Equal(t, TurnCompleted, result.State)
	assert.Equal(t, "Section 303 BNS covers theft.", result.Reply)
	assert.Equal(t, 3, result.EventCount)
	assert.Equal(t, 3, *produced)

	sess, err := sessions.Get(context.Background(), runner.AppName(), "alice", result.SessionID)
	require.NoError(t, err)
	assert.Len(t, sess.Events, 4)
	assert.Equal(t, "alice", sess.UserID)
	// one write on create, one at the end of the turn
	assert.Equal(t, 2, records.Writes)
}

func TestRunTurn_ExhaustedWithoutFinal(t *testing.T) {
	source, _ := scriptedSource(toolEvents(2), nil)
	runner, _, _ := newRunner(t, source)

	result, err := runner.RunTurn(context.Background(), "", "hi", "")
	require.NoError(t, err)
	assert.Equal(t, TurnCompleted, result.State)
	assert.Empty(t, result.Reply)
	assert.Equal(t, 2, result.EventCount)
}

func TestRunTurn_ContinuesExistingSession(t *testing.T) {
	runner, sessions, _ := newRunner(t, answerSource("ok"))
	ctx := context.Background()

	first, err := runner.RunTurn(ctx, "", "first", "")
	require.NoError(t, err)
	second, err := runner.RunTurn(ctx, first.SessionID, "second", "")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	sess, err := sessions.Get(ctx, runner.AppName(), DefaultUserID, first.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.Events, 4)
	assert.Equal(t, "first", sess.Events[0].Text())
	assert.Equal(t, "second", sess.Events[2].Text())
	assert.NotEqual(t, sess.Events[0].InvocationID, sess.Events[2].InvocationID)
	assert.Equal(t, sess.Events[2].InvocationID, sess.Events[3].InvocationID)
}

func TestRunTurn_UnknownSessionStartsNew(t *testing.T) {
	source, _ := scriptedSource([]*session.Event{finalEvent("ok")}, nil)
	runner, _, _ := newRunner(t, source)

	result, err := runner.RunTurn(context.Background(), "does-not-exist", "hi", "")
	require.NoError(t, err)
	assert.NotEqual(t, "does-not-exist", result.SessionID)
	assert.NotEmpty(t, result.SessionID)
}

func TestRunTurn_SourceErrorPersistsNothing(t *testing.T) {
	source, _ := scriptedSource(toolEvents(3), errors.New("LLM call failed (iteration 2): boom"))
	m := &recordingMetrics{}
	runner, sessions, records := newRunner(t, source, WithMetrics(m))
	ctx := context.Background()

	id, err := sessions.Create(ctx, runner.AppName(), DefaultUserID)
	require.NoError(t, err)
	writes := records.Writes

	_, err = runner.RunTurn(ctx, id, "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, writes, records.Writes)

	sess, err := sessions.Get(ctx, runner.AppName(), DefaultUserID, id)
	require.NoError(t, err)
	assert.Empty(t, sess.Events)
	assert.Equal(t, []string{"FAILED"}, m.turns)
}

func TestRunTurn_PersistFailure(t *testing.T) {
	source, _ := scriptedSource([]*session.Event{finalEvent("ok")}, nil)
	runner, sessions, records := newRunner(t, source)
	ctx := context.Background()

	id, err := sessions.Create(ctx, runner.AppName(), DefaultUserID)
	require.NoError(t, err)
	records.FailWrites = true

	_, err = runner.RunTurn(ctx, id, "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist session")
}

func TestRunTurn_EmptyMessage(t *testing.T) {
	source, produced := scriptedSource(nil, nil)
	runner, _, records := newRunner(t, source)

	_, err := runner.RunTurn(context.Background(), "", "   ", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, *produced)
	assert.Zero(t, records.Writes)
}

func TestRunTurn_SourceSeesUserMessage(t *testing.T) {
	var seen *session.Session
	source := sourceFunc(func(ctx context.Context, sess *session.Session, invocationID string) iter.Seq2[*session.Event, error] {
		return func(yield func(*session.Event, error) bool) {
			seen = sess
			yield(finalEvent("ok"), nil)
		}
	})
	runner, _, _ := newRunner(t, source)

	_, err := runner.RunTurn(context.Background(), "", "draft a notice", "")
	require.NoError(t, err)
	require.NotNil(t, seen)
	require.Len(t, seen.Events, 1)
	assert.Equal(t, "draft a notice", seen.Events[0].Text())
}

func TestRunTurn_SerializesSameSession(t *testing.T) {
	var active, peak int32
	source := sourceFunc(func(ctx context.Context, sess *session.Session, invocationID string) iter.Seq2[*session.Event, error] {
		return func(yield func(*session.Event, error) bool) {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			yield(finalEvent("ok"), nil)
		}
	})
	runner, sessions, _ := newRunner(t, source)
	ctx := context.Background()

	id, err := sessions.Create(ctx, runner.AppName(), DefaultUserID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := runner.RunTurn(ctx, id, "hi", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
	assert.Zero(t, runner.slots.len())

	sess, err := sessions.Get(ctx, runner.AppName(), DefaultUserID, id)
	require.NoError(t, err)
	assert.Len(t, sess.Events, 8)
}
