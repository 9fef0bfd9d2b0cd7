package usage

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in process memory. Only the current date per
// category is retained, so a date change starts from zero.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memoryCounter
}

type memoryCounter struct {
	date  string
	count int
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryCounter)}
}

func (s *MemoryStore) Get(ctx context.Context, category, date string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[category]
	if !ok || c.date != date {
		return 0, nil
	}
	return c.count, nil
}

func (s *MemoryStore) Increment(ctx context.Context, category, date string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.data[category]
	if c.date != date {
		c = memoryCounter{date: date}
	}
	c.count++
	s.data[category] = c
	return c.count, nil
}

func (s *MemoryStore) Reset(ctx context.Context, category, date string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[category] = memoryCounter{date: date}
	return nil
}

var _ Store = (*MemoryStore)(nil)
