package codes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+confirmation_codes\s*\(code,\s*user_id\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+created_at$`).
		WithArgs("abc", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	c := &models.ConfirmationCode{Code: "abc", UserID: "u-1"}
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !c.CreatedAt.Equal(now) {
		t.Fatalf("created_at not scanned: %v", c.CreatedAt)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+confirmation_codes`).WillReturnError(errors.New("db down"))

	if err := repo.Create(context.Background(), &models.ConfirmationCode{Code: "abc", UserID: "u-1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+code,\s*user_id,\s*created_at\s+FROM\s+confirmation_codes\s+WHERE\s+code\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"code", "user_id", "created_at"}).AddRow("abc", "u-1", time.Now()))
	mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	c, err := repo.Get(context.Background(), "abc")
	if err != nil || c.UserID != "u-1" {
		t.Fatalf("Get = %+v, %v", c, err)
	}
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDelete_OnlyOnce(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+confirmation_codes\s+WHERE\s+code\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("abc").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("abc").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "abc"); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := repo.Delete(context.Background(), "abc"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("second Delete: want common.ErrorNotFound, got %v", err)
	}
}
