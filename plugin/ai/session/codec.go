package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RecordVersion is the current version of the persisted session record.
const RecordVersion = 1

// record is the persisted shape of a session. It is owned by this package
// and versioned independently of the in-memory Session type.
type record struct {
	Version   int      `json:"version"`
	ID        string   `json:"id"`
	AppName   string   `json:"app_name"`
	UserID    string   `json:"user_id"`
	Events    []*Event `json:"events"`
	CreatedTs int64    `json:"created_ts"`
	UpdatedTs int64    `json:"updated_ts"`
}

// Codec serializes sessions to and from their durable record.
//
// In the default lenient mode unknown fields are ignored, so records written
// by newer builds of the same version still load. Strict mode rejects them.
type Codec struct {
	Strict bool
}

// Encode serializes a session as a versioned JSON record.
func (c Codec) Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode session: nil session")
	}
	events := s.Events
	if events == nil {
		events = []*Event{}
	}
	data, err := json.Marshal(record{
		Version:   RecordVersion,
		ID:        s.ID,
		AppName:   s.AppName,
		UserID:    s.UserID,
		Events:    events,
		CreatedTs: s.CreatedTs,
		UpdatedTs: s.UpdatedTs,
	})
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return data, nil
}

// Decode parses a versioned JSON record. A missing version is read as 1.
func (c Codec) Decode(data []byte) (*Session, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.Strict {
		dec.DisallowUnknownFields()
	}

	var rec record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	if rec.Version > RecordVersion {
		return nil, fmt.Errorf("decode session record: unsupported version %d", rec.Version)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("decode session record: missing id")
	}
	if rec.Events == nil {
		rec.Events = []*Event{}
	}

	return &Session{
		ID:        rec.ID,
		AppName:   rec.AppName,
		UserID:    rec.UserID,
		Events:    rec.Events,
		CreatedTs: rec.CreatedTs,
		UpdatedTs: rec.UpdatedTs,
	}, nil
}
