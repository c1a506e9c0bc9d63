package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/okian/stampcard/pkg/metrics"
)

// MemoryStore keeps rows in memory. Rows are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   []json.RawMessage
	closed bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, row json.RawMessage) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validRow(row); err != nil {
		return 0, err
	}
	cp := make(json.RawMessage, len(row))
	copy(cp, row)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.rows = append(s.rows, cp)
	metrics.UpdateLogRowsStored(len(s.rows))
	return int64(len(s.rows)), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]json.RawMessage, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
