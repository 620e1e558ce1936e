package store

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
)

// SessionRecord is the durable form of a conversation session.
// Data holds the versioned JSON record produced by the session codec.
type SessionRecord struct {
	ID        string
	AppName   string
	UserID    string
	Data      []byte
	CreatedTs int64
	UpdatedTs int64
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrInvalidSessionID is returned for ids that can not name a record.
var ErrInvalidSessionID = errors.New("invalid session id")

// ValidateSessionID rejects ids that are empty or could escape a storage
// namespace (path separators, dots).
func ValidateSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return errors.Wrapf(ErrInvalidSessionID, "%q", id)
	}
	return nil
}

func (s *Store) UpsertSessionRecord(ctx context.Context, upsert *SessionRecord) error {
	if err := ValidateSessionID(upsert.ID); err != nil {
		return err
	}
	return s.driver.UpsertSessionRecord(ctx, upsert)
}

func (s *Store) GetSessionRecord(ctx context.Context, id string) (*SessionRecord, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}
	return s.driver.GetSessionRecord(ctx, id)
}

func (s *Store) DeleteSessionRecord(ctx context.Context, id string) error {
	if err := ValidateSessionID(id); err != nil {
		return err
	}
	return s.driver.DeleteSessionRecord(ctx, id)
}

func (s *Store) ListSessionRecordIDs(ctx context.Context) ([]string, error) {
	return s.driver.ListSessionRecordIDs(ctx)
}
