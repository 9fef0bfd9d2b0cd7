package usage

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Store persists per-category daily counters. Increment must be atomic.
type Store interface {
	Get(ctx context.Context, category, date string) (int, error)
	Increment(ctx context.Context, category, date string) (int, error)
	Reset(ctx context.Context, category, date string) error
}

// Service gates external calls against per-category daily limits.
type Service struct {
	store  Store
	limits map[string]int
	loc    *time.Location
	now    func() time.Time
}

// NewService constructs a Service. Dates roll over at midnight in loc (UTC when nil).
func NewService(store Store, limits map[string]int, loc *time.Location) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	if loc == nil {
		loc = time.UTC
	}
	copied := make(map[string]int, len(limits))
	for k, v := range limits {
		copied[k] = v
	}
	return &Service{store: store, limits: copied, loc: loc, now: time.Now}
}

// NewMemoryService is a convenience for tests and dev.
func NewMemoryService(limits map[string]int) *Service {
	return NewService(NewMemoryStore(), limits, time.UTC)
}

// Allow returns ErrLimitReached when today's count has reached the category limit.
func (s *Service) Allow(ctx context.Context, category string) error {
	limit := s.limits[category]
	if limit <= 0 {
		return nil
	}
	count, err := s.store.Get(ctx, category, s.today())
	if err != nil {
		return fmt.Errorf("read usage %s: %w", category, err)
	}
	if count >= limit {
		return ErrLimitReached
	}
	return nil
}

// Record counts one completed call against today's counter.
func (s *Service) Record(ctx context.Context, category string) (Counter, error) {
	date := s.today()
	count, err := s.store.Increment(ctx, category, date)
	if err != nil {
		return Counter{}, fmt.Errorf("record usage %s: %w", category, err)
	}
	return Counter{Category: category, Date: date, Count: count, Limit: s.limits[category]}, nil
}

// Get returns today's counter for category.
func (s *Service) Get(ctx context.Context, category string) (Counter, error) {
	date := s.today()
	count, err := s.store.Get(ctx, category, date)
	if err != nil {
		return Counter{}, err
	}
	return Counter{Category: category, Date: date, Count: count, Limit: s.limits[category]}, nil
}

// Snapshot returns today's counters for every configured category, sorted by name.
func (s *Service) Snapshot(ctx context.Context) ([]Counter, error) {
	categories := make([]string, 0, len(s.limits))
	for category := range s.limits {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	out := make([]Counter, 0, len(categories))
	for _, category := range categories {
		c, err := s.Get(ctx, category)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Reset zeroes today's counter for category.
func (s *Service) Reset(ctx context.Context, category string) (Counter, error) {
	date := s.today()
	if err := s.store.Reset(ctx, category, date); err != nil {
		return Counter{}, err
	}
	return Counter{Category: category, Date: date, Limit: s.limits[category]}, nil
}

// Categories lists the configured categories.
func (s *Service) Categories() []string {
	out := make([]string, 0, len(s.limits))
	for category := range s.limits {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format(dateLayout)
}
