package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/dbx"
	"github.com/wesley950/coisando-coisas/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Attachment) error {
	query :=
		`INSERT INTO attachments (id, listing_id, content_type, size_bytes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, a.ID, a.ListingID, a.ContentType, a.SizeBytes).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetAccess(ctx context.Context, id string) (*models.AttachmentAccess, error) {
	query :=
		`SELECT a.id, l.creator_id, u.status
		 FROM attachments a
		 JOIN listings l ON l.id = a.listing_id
		 JOIN users u ON u.id = l.creator_id
		 WHERE a.id = $1`

	var (
		acc    models.AttachmentAccess
		status string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&acc.AttachmentID, &acc.CreatorID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if acc.OwnerStatus, err = models.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &acc, nil
}

func (r *PostgresRepository) collect(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListIDsByListing(ctx context.Context, listingID string) ([]string, error) {
	return r.collect(ctx,
		`SELECT id FROM attachments WHERE listing_id = $1 ORDER BY created_at, id`, listingID)
}

func (r *PostgresRepository) ListKeysByCreator(ctx context.Context, creatorID string) ([]string, error) {
	return r.collect(ctx,
		`SELECT l.creator_id || '/' || a.id
		 FROM attachments a
		 JOIN listings l ON l.id = a.listing_id
		 WHERE l.creator_id = $1`, creatorID)
}
