package server

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/plugin/ai/session"
	ratelimit "github.com/hrygo/lexagent/server/middleware"
	"github.com/hrygo/lexagent/store"
	"github.com/hrygo/lexagent/store/db"
)

// replySource answers every turn with one final event.
type replySource string

func (r replySource) Run(_ context.Context, _ *session.Session, _ string) iter.Seq2[*session.Event, error] {
	return func(yield func(*session.Event, error) bool) {
		yield(&session.Event{Author: session.AuthorAgent, Final: true, Content: []session.Part{session.TextPart(string(r))}}, nil)
	}
}

func newTestServer(t *testing.T, reply string, opts ...Option) *Server {
	t.Helper()
	prof := &profile.Profile{Mode: "dev", Data: t.TempDir(), Driver: "file"}
	require.NoError(t, prof.Validate())

	driver, err := db.NewDBDriver(prof)
	require.NoError(t, err)
	st := store.New(driver, prof)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	opts = append([]Option{WithEventSource(replySource(reply))}, opts...)
	s, err := NewServer(context.Background(), prof, st, opts...)
	require.NoError(t, err)
	return s
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_ChatRoundTrip(t *testing.T) {
	s := newTestServer(t, "Done. Document created at: /tmp/out/Draft_legal_notice_20250314_092653.docx")

	rec := serve(s, http.MethodPost, "/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.SessionID)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = serve(s, http.MethodPost, "/chat", `{"message": "Draft a legal notice", "session_id": "`+created.SessionID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var chat struct {
		Response  string  `json:"response"`
		Filename  *string `json:"filename"`
		SessionID string  `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	assert.Equal(t, created.SessionID, chat.SessionID)
	require.NotNil(t, chat.Filename)
	assert.Equal(t, "Draft_legal_notice_20250314_092653.docx", *chat.Filename)

	sess, err := s.Sessions.Get(context.Background(), s.Runner.AppName(), "", created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Len(t, sess.Events, 2)
}

func TestServer_TemplatesInstalled(t *testing.T) {
	s := newTestServer(t, "ok")
	rec := serve(s, http.MethodGet, "/api/v1/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "LEGAL NOTICE To.docx")
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, "ok")
	require.Equal(t, http.StatusOK, serve(s, http.MethodPost, "/chat", `{"message": "hi"}`).Code)

	rec := serve(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `lexagent_http_requests_total{method="POST",route="/chat",status="200"} 1`)
	assert.Contains(t, body, `lexagent_turns_total{state="COMPLETED"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestServer_RateLimit(t *testing.T) {
	s := newTestServer(t, "ok", WithRateLimit(ratelimit.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/", "").Code)
	}
	rec := serve(s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"detail": "rate limit exceeded"}`, rec.Body.String())
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t, "ok")
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServer_RequiresLLMKey(t *testing.T) {
	prof := &profile.Profile{Mode: "dev", Data: t.TempDir(), Driver: "file", RetrievalBackend: BackendNone}
	require.NoError(t, prof.Validate())
	driver, err := db.NewDBDriver(prof)
	require.NoError(t, err)
	st := store.New(driver, prof)
	t.Cleanup(func() { _ = st.Close() })

	_, err = NewServer(context.Background(), prof, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM API key is required")
}

func TestNewVectorStore(t *testing.T) {
	prof := &profile.Profile{RetrievalBackend: BackendNone}
	vs, err := NewVectorStore(prof, nil)
	require.NoError(t, err)
	assert.Nil(t, vs)

	prof = &profile.Profile{RetrievalBackend: BackendChromem}
	_, err = NewVectorStore(prof, nil)
	assert.ErrorContains(t, err, "embedding API key")

	prof = &profile.Profile{RetrievalBackend: BackendPGVector, Driver: "file", EmbeddingAPIKey: "k", EmbeddingModel: "m"}
	_, err = NewVectorStore(prof, nil)
	assert.ErrorContains(t, err, "requires the postgres driver")

	prof = &profile.Profile{RetrievalBackend: "faiss", EmbeddingAPIKey: "k", EmbeddingModel: "m"}
	_, err = NewVectorStore(prof, nil)
	assert.ErrorContains(t, err, "unknown retrieval backend")
}
