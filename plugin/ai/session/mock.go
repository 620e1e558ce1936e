package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/hrygo/lexagent/store"
)

// MemoryRecordStore is an in-memory RecordStore for tests and demos.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records map[string]*store.SessionRecord

	// FailWrites makes every upsert and delete fail.
	FailWrites bool
	// FailReads makes every read fail.
	FailReads bool
	// Writes counts successful upserts.
	Writes int
}

// NewMemoryRecordStore creates an empty in-memory record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]*store.SessionRecord)}
}

var errInjected = errors.New("injected storage failure")

func (m *MemoryRecordStore) UpsertSessionRecord(ctx context.Context, upsert *store.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errInjected
	}
	c := *upsert
	c.Data = append([]byte(nil), upsert.Data...)
	m.records[upsert.ID] = &c
	m.Writes++
	return nil
}

func (m *MemoryRecordStore) GetSessionRecord(ctx context.Context, id string) (*store.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads {
		return nil, errInjected
	}
	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	c := *r
	c.Data = append([]byte(nil), r.Data...)
	return &c, nil
}

func (m *MemoryRecordStore) DeleteSessionRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errInjected
	}
	delete(m.records, id)
	return nil
}

func (m *MemoryRecordStore) ListSessionRecordIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Put stores raw record bytes, bypassing the codec.
func (m *MemoryRecordStore) Put(id string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = &store.SessionRecord{ID: id, Data: data}
}

var _ RecordStore = (*MemoryRecordStore)(nil)
