package inventorystub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is a stored garment. Besides the submitted fields it carries "id"
// and "created_at".
type Record map[string]any

// Store persists garment records.
type Store interface {
	Create(ctx context.Context, fields map[string]string) (Record, error)
	List(ctx context.Context) ([]Record, error)
}

// MemoryStore keeps records in insertion order for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Create(ctx context.Context, fields map[string]string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := make(Record, len(fields)+2)
	for k, v := range fields {
		rec[k] = v
	}
	rec["id"] = uuid.NewString()
	rec["created_at"] = s.now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return cloneRecord(rec), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
