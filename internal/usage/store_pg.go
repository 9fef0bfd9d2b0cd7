package usage

import (
	"context"
	"database/sql"
	"errors"
)

// PGStore keeps counters in the usage_counters table.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Get(ctx context.Context, category, date string) (int, error) {
	var used int
	err := s.DB.QueryRowContext(ctx, `
SELECT used FROM usage_counters WHERE category = $1 AND usage_date = $2`, category, date).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return used, nil
}

func (s *PGStore) Increment(ctx context.Context, category, date string) (count int, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	used, err := s.lockAndEnsure(ctx, tx, category, date)
	if err != nil {
		return 0, err
	}
	used++
	if _, err = tx.ExecContext(ctx, `
UPDATE usage_counters SET used = $1, updated_at = now() WHERE category = $2 AND usage_date = $3`, used, category, date); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return used, nil
}

func (s *PGStore) Reset(ctx context.Context, category, date string) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO usage_counters (category, usage_date, used) VALUES ($1, $2, 0)
ON CONFLICT (category, usage_date) DO UPDATE SET used = 0, updated_at = now()`, category, date)
	return err
}

// lockAndEnsure creates the day's row if missing and locks it for the rest of tx.
func (s *PGStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, category, date string) (int, error) {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO usage_counters (category, usage_date, used) VALUES ($1, $2, 0)
ON CONFLICT (category, usage_date) DO NOTHING`, category, date); err != nil {
		return 0, err
	}
	var used int
	if err := tx.QueryRowContext(ctx, `
SELECT used FROM usage_counters WHERE category = $1 AND usage_date = $2 FOR UPDATE`, category, date).Scan(&used); err != nil {
		return 0, err
	}
	return used, nil
}

var _ Store = (*PGStore)(nil)
