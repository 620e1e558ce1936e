package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/lexagent/plugin/ai/cache"
	"github.com/hrygo/lexagent/store"
)

const cachePrefix = "session:"

// RecordStore is the durable record storage the session store writes through to.
type RecordStore interface {
	UpsertSessionRecord(ctx context.Context, upsert *store.SessionRecord) error
	GetSessionRecord(ctx context.Context, id string) (*store.SessionRecord, error)
	DeleteSessionRecord(ctx context.Context, id string) error
	ListSessionRecordIDs(ctx context.Context) ([]string, error)
}

// sessionStore implements Service with write-through durable storage and caching.
type sessionStore struct {
	records RecordStore
	cache   cache.Cache[*Session]
	codec   Codec
	now     func() time.Time
}

// Option configures a session store.
type Option func(*sessionStore)

// WithCodec sets the record codec, e.g. Codec{Strict: true}.
func WithCodec(codec Codec) Option {
	return func(s *sessionStore) { s.codec = codec }
}

// WithCache replaces the default in-memory LRU.
func WithCache(c cache.Cache[*Session]) Option {
	return func(s *sessionStore) { s.cache = c }
}

// NewStore creates a new session store over durable record storage.
func NewStore(records RecordStore, opts ...Option) Service {
	s := &sessionStore{
		records: records,
		cache:   cache.NewLRU[*Session](cache.DefaultConfig()),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a new session and persists it.
func (s *sessionStore) Create(ctx context.Context, appName, userID string) (string, error) {
	now := s.now().Unix()
	session := &Session{
		ID:        uuid.NewString(),
		AppName:   appName,
		UserID:    userID,
		Events:    []*Event{},
		CreatedTs: now,
		UpdatedTs: now,
	}
	if err := s.Update(ctx, session); err != nil {
		return "", err
	}
	slog.Info("session created", "session_id", session.ID, "user_id", userID)
	return session.ID, nil
}

// Get loads a session. appName and userID are not checked against the
// record; ids are globally unique.
func (s *sessionStore) Get(ctx context.Context, appName, userID, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	if cached, ok := s.cache.Get(cachePrefix + sessionID); ok {
		return cached.Clone(), nil
	}

	record, err := s.records.GetSessionRecord(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load session record", "session_id", sessionID, "error", err)
		return nil, nil
	}
	if record == nil {
		return nil, nil
	}

	session, err := s.codec.Decode(record.Data)
	if err != nil {
		slog.Warn("corrupted session record", "session_id", sessionID, "error", err)
		return nil, nil
	}

	s.cache.Set(cachePrefix+sessionID, session)
	return session.Clone(), nil
}

// Update persists the session first and then refreshes the cache, so a
// failed write never leaves the cache ahead of durable storage.
func (s *sessionStore) Update(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("update session: missing session id")
	}
	if session.CreatedTs == 0 {
		session.CreatedTs = s.now().Unix()
	}
	if session.UpdatedTs == 0 {
		session.UpdatedTs = session.CreatedTs
	}

	data, err := s.codec.Encode(session)
	if err != nil {
		return err
	}

	if err := s.records.UpsertSessionRecord(ctx, &store.SessionRecord{
		ID:        session.ID,
		AppName:   session.AppName,
		UserID:    session.UserID,
		Data:      data,
		CreatedTs: session.CreatedTs,
		UpdatedTs: session.UpdatedTs,
	}); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}

	s.cache.Set(cachePrefix+session.ID, session.Clone())
	return nil
}

// Delete removes the durable record and the cached copy.
func (s *sessionStore) Delete(ctx context.Context, appName, userID, sessionID string) error {
	if err := s.records.DeleteSessionRecord(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	s.cache.Invalidate(cachePrefix + sessionID)
	return nil
}

// List returns every durably known session id. It does not filter by
// appName or userID.
func (s *sessionStore) List(ctx context.Context, appName, userID string) ([]string, error) {
	ids, err := s.records.ListSessionRecordIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Ensure sessionStore implements Service
var _ Service = (*sessionStore)(nil)
