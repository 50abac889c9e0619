package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/logging"
	"github.com/wesley950/coisando-coisas/internal/server/config"
	"github.com/wesley950/coisando-coisas/internal/server/models"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/repomanager"
)

// AttachmentService hands out short-lived download URLs for attachments.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	objects     ObjectStore
	log         logging.Logger
	validity    time.Duration
}

func NewAttachmentService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	objects ObjectStore, log logging.Logger) *AttachmentService {
	return &AttachmentService{
		db:          db,
		repomanager: m,
		objects:     objects,
		log:         log.With("service", "attachment"),
		validity:    cfg.PresignValidity,
	}
}

// PresignedURL returns a presigned GET URL for the attachment. Attachments
// of unconfirmed or disabled owners are refused with
// common.ErrOwnerNotConfirmed; malformed and unknown ids are
// common.ErrorNotFound.
func (s *AttachmentService) PresignedURL(ctx context.Context, id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", common.ErrorNotFound
	}

	access, err := s.repomanager.Attachments(s.db).GetAccess(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", publicError(ctx, s.log, "presign attachment", err)
	}
	if access.OwnerStatus != models.StatusConfirmed {
		return "", common.ErrOwnerNotConfirmed
	}

	url, err := s.objects.PresignGet(ctx, models.StorageKey(access.CreatorID, access.AttachmentID), s.validity)
	if err != nil {
		return "", publicError(ctx, s.log, "presign attachment", err)
	}
	return url, nil
}
