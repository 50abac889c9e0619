package codes

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

func (r *PostgresRepository) Create(ctx context.Context, code *models.ConfirmationCode) error {
	query :=
		`INSERT INTO confirmation_codes (code, user_id)
		 VALUES ($1, $2)
		 RETURNING created_at`

	if err := r.db.QueryRowContext(ctx, query, code.Code, code.UserID).Scan(&code.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, code string) (*models.ConfirmationCode, error) {
	query := `SELECT code, user_id, created_at FROM confirmation_codes WHERE code = $1`

	c := &models.ConfirmationCode{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(&c.Code, &c.UserID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM confirmation_codes WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
