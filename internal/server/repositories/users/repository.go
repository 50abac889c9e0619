package users

import (
	"context"

	"github.com/wesley950/coisando-coisas/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByLogin finds a user by nickname or (lower-cased) email.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	NicknameExists(ctx context.Context, nickname string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// Confirm moves a PENDING user to CONFIRMED. Any other current status
	// reports common.ErrorNotFound.
	Confirm(ctx context.Context, id string) error
	UpdateNickname(ctx context.Context, id, nickname string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateAvatarSeed(ctx context.Context, id, seed string) error
	Delete(ctx context.Context, id string) error
}
