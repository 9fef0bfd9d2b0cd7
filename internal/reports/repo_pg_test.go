package reports

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPGRepo(db), mock
}

func TestPGRepoCreateConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	rep := sampleReport("report_1_abcdef", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectExec("INSERT INTO reports").
		WithArgs(rep.ID, rep.UserID, rep.SavedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO reports").
		WithArgs(rep.ID, rep.UserID, rep.SavedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Create(context.Background(), rep); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(context.Background(), rep); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT body FROM reports WHERE id").
		WithArgs("report_0_none00").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.Get(context.Background(), "report_0_none00"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListSkipsUnreadableRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	good, err := encodeReport(sampleReport("report_2_bbbbbb", time.Now().UTC()))
	if err != nil {
		t.Fatalf("encodeReport: %v", err)
	}
	mock.ExpectQuery("SELECT id, body FROM reports ORDER BY saved_at DESC, id DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "body"}).
			AddRow("report_2_bbbbbb", string(good)).
			AddRow("report_1_aaaaaa", `{"id":`))

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != "report_2_bbbbbb" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestPGRepoUpdateReturning(t *testing.T) {
	repo, mock := newMockRepo(t)
	rep := sampleReport("report_1_abcdef", time.Now().UTC())

	mock.ExpectQuery("UPDATE reports SET body = .* RETURNING id").
		WithArgs(rep.ID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(rep.ID))
	mock.ExpectQuery("UPDATE reports SET body = .* RETURNING id").
		WithArgs("report_0_none00", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	if err := repo.Update(context.Background(), rep); err != nil {
		t.Fatalf("Update: %v", err)
	}
	missing := rep
	missing.ID = "report_0_none00"
	if err := repo.Update(context.Background(), missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
