package attachments

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+attachments\s*\(id,\s*listing_id,\s*content_type,\s*size_bytes\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+created_at$`).
		WithArgs("a-1", "l-1", "image/png", int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	a := &models.Attachment{ID: "a-1", ListingID: "l-1", ContentType: "image/png", SizeBytes: 42}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.True(t, a.CreatedAt.Equal(now))
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+attachments`).WillReturnError(errors.New("boom"))

	err := repo.Create(context.Background(), &models.Attachment{ID: "a-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: boom")
}

func TestGetAccess(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+a\.id,\s*l\.creator_id,\s*u\.status\s+FROM\s+attachments\s+a.*WHERE\s+a\.id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "creator_id", "status"}).AddRow("a-1", "u-1", "CONFIRMED"))
	mock.ExpectQuery(q).WithArgs("a-2").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs("a-3").WillReturnError(errors.New("db down"))

	got, err := repo.GetAccess(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, &models.AttachmentAccess{AttachmentID: "a-1", CreatorID: "u-1", OwnerStatus: models.StatusConfirmed}, got)

	_, err = repo.GetAccess(context.Background(), "a-2")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.GetAccess(context.Background(), "a-3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestListIDsByListing(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id\s+FROM\s+attachments\s+WHERE\s+listing_id\s*=\s*\$1`).
		WithArgs("l-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-1").AddRow("a-2"))

	got, err := repo.ListIDsByListing(context.Background(), "l-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1", "a-2"}, got)
}

func TestListKeysByCreator(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+l\.creator_id\s*\|\|\s*'/'\s*\|\|\s*a\.id.*WHERE\s+l\.creator_id\s*=\s*\$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("u-1/a-1"))
	mock.ExpectQuery(`SELECT\s+l\.creator_id`).
		WithArgs("u-2").
		WillReturnRows(sqlmock.NewRows([]string{"key"}))

	got, err := repo.ListKeysByCreator(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1/a-1"}, got)

	got, err = repo.ListKeysByCreator(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}
