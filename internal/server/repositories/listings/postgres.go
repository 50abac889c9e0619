package listings

import (
	"context"
	"fmt"

	"github.com/wesley950/coisando-coisas/internal/dbx"
	"github.com/wesley950/coisando-coisas/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	query :=
		`INSERT INTO listings (title, description, type, campus, creator_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		l.Title, l.Description, string(l.Type), string(l.Campus), l.CreatorID).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, offset, limit int) ([]Summary, error) {
	query :=
		`SELECT l.id, l.title, l.description, l.type, l.campus, l.creator_id, l.created_at,
		        u.nickname, u.avatar_seed
		 FROM listings l
		 JOIN users u ON u.id = l.creator_id
		 WHERE u.status = 'CONFIRMED'
		 ORDER BY l.created_at DESC
		 OFFSET $1 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			s             Summary
			ltype, campus string
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &ltype, &campus, &s.CreatorID, &s.CreatedAt,
			&s.CreatorNickname, &s.CreatorAvatarSeed); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if s.Type, err = models.ParseListingType(ltype); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if s.Campus, err = models.ParseCampus(campus); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
