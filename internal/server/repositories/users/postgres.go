package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/dbx"
	"github.com/wesley950/coisando-coisas/internal/server/models"
)

// Constraint names from the schema migration.
const (
	nicknameConstraint = "users_nickname_key"
	emailConstraint    = "users_email_key"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// mapWriteError turns a unique violation on nickname or email into the
// matching domain error.
func mapWriteError(err error) error {
	if name, ok := dbx.UniqueViolation(err); ok {
		switch name {
		case nicknameConstraint:
			return common.ErrNicknameInUse
		case emailConstraint:
			return common.ErrEmailInUse
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (nickname, email, password_hash, avatar_seed, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Nickname, user.Email, user.PasswordHash, user.AvatarSeed, string(user.Status)).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return user, nil
}

const selectUser = `SELECT id, nickname, email, password_hash, avatar_seed, status, created_at FROM users`

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u      models.User
		status string
	)
	err := row.Scan(&u.ID, &u.Nickname, &u.Email, &u.PasswordHash, &u.AvatarSeed, &status, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if u.Status, err = models.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE nickname = $1 OR email = lower($1)`, login))
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE nickname = $1)`, nickname)
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

// update runs a single-row UPDATE and reports common.ErrorNotFound when no
// row matched.
func (r *PostgresRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err)
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

func (r *PostgresRepository) Confirm(ctx context.Context, id string) error {
	return r.update(ctx, `UPDATE users SET status = $2 WHERE id = $1 AND status = $3`,
		id, string(models.StatusConfirmed), string(models.StatusPending))
}

func (r *PostgresRepository) UpdateNickname(ctx context.Context, id, nickname string) error {
	return r.update(ctx, `UPDATE users SET nickname = $2 WHERE id = $1`, id, nickname)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.update(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (r *PostgresRepository) UpdateAvatarSeed(ctx context.Context, id, seed string) error {
	return r.update(ctx, `UPDATE users SET avatar_seed = $2 WHERE id = $1`, id, seed)
}

// Delete removes the user; confirmation codes, listings and attachment rows
// go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.update(ctx, `DELETE FROM users WHERE id = $1`, id)
}
