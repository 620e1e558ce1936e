package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	Driver
	lastSearch *SearchLegalPassages
	upserts    int
}

func (f *fakeDriver) UpsertSessionRecord(ctx context.Context, upsert *SessionRecord) error {
	f.upserts++
	return nil
}

func (f *fakeDriver) SearchLegalPassages(ctx context.Context, opts *SearchLegalPassages) ([]*LegalPassageWithScore, error) {
	f.lastSearch = opts
	return nil, nil
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"3f1c2b9e-8a4d-4b7e-9c1a-2d3e4f5a6b7c", true},
		{"abc_DEF-123", true},
		{"", false},
		{"../etc/passwd", false},
		{"a/b", false},
		{`a\b`, false},
		{"a.json", false},
	}
	for _, tt := range tests {
		err := ValidateSessionID(tt.id)
		if tt.valid {
			assert.NoError(t, err, tt.id)
		} else {
			assert.ErrorIs(t, err, ErrInvalidSessionID, tt.id)
		}
	}
}

func TestStore_RejectsInvalidIDBeforeDriver(t *testing.T) {
	driver := &fakeDriver{}
	s := New(driver, nil)

	err := s.UpsertSessionRecord(context.Background(), &SessionRecord{ID: "../x"})
	assert.ErrorIs(t, err, ErrInvalidSessionID)
	assert.Zero(t, driver.upserts)

	require.NoError(t, s.UpsertSessionRecord(context.Background(), &SessionRecord{ID: "ok"}))
	assert.Equal(t, 1, driver.upserts)
}

func TestStore_SearchDefaultsLimit(t *testing.T) {
	driver := &fakeDriver{}
	s := New(driver, nil)

	_, err := s.SearchLegalPassages(context.Background(), &SearchLegalPassages{Vector: []float32{1}})
	require.NoError(t, err)
	assert.Equal(t, 5, driver.lastSearch.Limit)
}
