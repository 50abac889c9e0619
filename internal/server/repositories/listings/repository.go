// Package listings stores classified listings.
package listings

import (
	"context"

	"github.com/wesley950/coisando-coisas/internal/server/models"
)

// Summary is a listing as shown in the public feed, with its creator's
// public profile.
type Summary struct {
	models.Listing
	CreatorNickname   string
	CreatorAvatarSeed string
}

type Repository interface {
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	// ListRecent returns listings of confirmed users, newest first.
	ListRecent(ctx context.Context, offset, limit int) ([]Summary, error)
}
