// Package attachments stores metadata of listing images kept in object
// storage.
package attachments

import (
	"context"

	"github.com/wesley950/coisando-coisas/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Attachment) error
	// GetAccess loads the attachment together with its listing creator and
	// the creator's account status.
	GetAccess(ctx context.Context, id string) (*models.AttachmentAccess, error)
	ListIDsByListing(ctx context.Context, listingID string) ([]string, error)
	// ListKeysByCreator returns the storage keys of every attachment on the
	// creator's listings.
	ListKeysByCreator(ctx context.Context, creatorID string) ([]string, error)
}
