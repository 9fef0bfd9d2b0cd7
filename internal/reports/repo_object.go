package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"openlabel-backend/internal/shared/storage/object"
	"openlabel-backend/internal/shared/telemetry"
)

const (
	reportsPrefix   = "reports/"
	listConcurrency = 8
)

// ObjectRepo stores one JSON document per report in an object store.
// Each write touches a single key, so records are isolated from each other.
type ObjectRepo struct {
	Store object.ObjectStore
}

// NewObjectRepo constructs an ObjectRepo.
func NewObjectRepo(store object.ObjectStore) *ObjectRepo {
	return &ObjectRepo{Store: store}
}

func reportKey(id string) string {
	return reportsPrefix + id + ".json"
}

// Create writes the report unless a record with its id already exists. The
// store's conditional create decides races between writers of the same id.
func (r *ObjectRepo) Create(ctx context.Context, report Report) error {
	if !validID(report.ID) {
		return fmt.Errorf("%w: bad id", ErrValidation)
	}
	raw, err := encodeReport(report)
	if err != nil {
		return err
	}
	if _, err := r.Store.Create(ctx, reportKey(report.ID), "application/json", bytes.NewReader(raw)); err != nil {
		if errors.Is(err, object.ErrExists) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Get loads a single report.
func (r *ObjectRepo) Get(ctx context.Context, id string) (Report, error) {
	if !validID(id) {
		return Report{}, ErrNotFound
	}
	return r.load(ctx, reportKey(id))
}

// List loads every record under the reports prefix. Unreadable records are logged and skipped.
func (r *ObjectRepo) List(ctx context.Context) ([]Report, error) {
	keys, err := r.Store.List(ctx, reportsPrefix)
	if err != nil {
		return nil, err
	}

	loaded := make([]*Report, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, key := range keys {
		if path.Ext(key) != ".json" {
			continue
		}
		i, key := i, key
		g.Go(func() error {
			rep, err := r.load(gctx, key)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				telemetry.Warn("reports.skip_unreadable", map[string]any{"key": key, "error": err})
				return nil
			}
			loaded[i] = &rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Report, 0, len(keys))
	for _, rep := range loaded {
		if rep != nil {
			out = append(out, *rep)
		}
	}
	return out, nil
}

// Update rewrites an existing record.
func (r *ObjectRepo) Update(ctx context.Context, report Report) error {
	if !validID(report.ID) {
		return ErrNotFound
	}
	key := reportKey(report.ID)
	existing, err := r.Store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	existing.Close()
	return r.write(ctx, key, report)
}

func (r *ObjectRepo) write(ctx context.Context, key string, report Report) error {
	raw, err := encodeReport(report)
	if err != nil {
		return err
	}
	_, err = r.Store.SaveWithKey(ctx, key, "application/json", bytes.NewReader(raw))
	return err
}

func (r *ObjectRepo) load(ctx context.Context, key string) (Report, error) {
	rc, err := r.Store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return Report{}, err
	}
	rep, err := decodeReport(raw)
	if err != nil {
		return Report{}, err
	}
	if want := strings.TrimSuffix(path.Base(key), ".json"); rep.ID != want {
		return Report{}, fmt.Errorf("decode report: id %q stored under %q", rep.ID, key)
	}
	return rep, nil
}
