// Package codes stores one-time email confirmation codes.
package codes

import (
	"context"

	"github.com/wesley950/coisando-coisas/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, code *models.ConfirmationCode) error
	Get(ctx context.Context, code string) (*models.ConfirmationCode, error)
	// Delete removes the code and returns common.ErrorNotFound when it was
	// already gone, so only one caller can redeem it.
	Delete(ctx context.Context, code string) error
}
