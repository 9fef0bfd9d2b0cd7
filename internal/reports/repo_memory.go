package reports

import (
	"context"
	"sync"

	"openlabel-backend/internal/shared/telemetry"
)

// MemoryRepo keeps encoded records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string][]byte)}
}

// Create stores the report unless its id is taken.
func (r *MemoryRepo) Create(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encodeReport(report)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[report.ID]; ok {
		return ErrConflict
	}
	r.records[report.ID] = raw
	return nil
}

// Get returns the report with the given id.
func (r *MemoryRepo) Get(ctx context.Context, id string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	r.mu.RLock()
	raw, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return Report{}, ErrNotFound
	}
	return decodeReport(raw)
}

// List returns every readable report in no particular order.
func (r *MemoryRepo) List(ctx context.Context) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Report, 0, len(r.records))
	for id, raw := range r.records {
		rep, err := decodeReport(raw)
		if err != nil {
			telemetry.Warn("reports.skip_unreadable", map[string]any{"report_id": id, "error": err})
			continue
		}
		out = append(out, rep)
	}
	return out, nil
}

// Update replaces an existing report.
func (r *MemoryRepo) Update(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encodeReport(report)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[report.ID]; !ok {
		return ErrNotFound
	}
	r.records[report.ID] = raw
	return nil
}

// putRaw stores bytes as-is. Tests use it to plant unreadable records.
func (r *MemoryRepo) putRaw(id string, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[id] = raw
}
