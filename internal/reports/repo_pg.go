package reports

import (
	"context"
	"database/sql"
	"errors"

	"openlabel-backend/internal/shared/telemetry"
)

// PGRepo implements Repo using Postgres. The record is kept in a JSON column so
// the analysis bytes come back exactly as written.
type PGRepo struct {
	DB *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

// Create inserts a new report.
func (r *PGRepo) Create(ctx context.Context, report Report) error {
	const query = `
INSERT INTO reports (id, owner_id, saved_at, body)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`
	raw, err := encodeReport(report)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, report.ID, report.UserID, report.SavedAt, string(raw))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Get returns a report by id.
func (r *PGRepo) Get(ctx context.Context, id string) (Report, error) {
	const query = `SELECT body FROM reports WHERE id = $1`
	var body string
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	return decodeReport([]byte(body))
}

// List returns all readable reports, newest first.
func (r *PGRepo) List(ctx context.Context) ([]Report, error) {
	const query = `SELECT id, body FROM reports ORDER BY saved_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		rep, err := decodeReport([]byte(body))
		if err != nil {
			telemetry.Warn("reports.skip_unreadable", map[string]any{"report_id": id, "error": err})
			continue
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the stored record for an existing report.
func (r *PGRepo) Update(ctx context.Context, report Report) error {
	const query = `
UPDATE reports
SET body = $2, updated_at = now()
WHERE id = $1
RETURNING id`
	raw, err := encodeReport(report)
	if err != nil {
		return err
	}
	var id string
	if err := r.DB.QueryRowContext(ctx, query, report.ID, string(raw)).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
