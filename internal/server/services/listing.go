package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/filex"
	"github.com/wesley950/coisando-coisas/internal/logging"
	"github.com/wesley950/coisando-coisas/internal/server/avatar"
	"github.com/wesley950/coisando-coisas/internal/server/config"
	"github.com/wesley950/coisando-coisas/internal/server/identity"
	"github.com/wesley950/coisando-coisas/internal/server/models"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/repomanager"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 50
)

// FileUpload is one file of a listing submission. Open is called once.
type FileUpload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// SubmitInput is what the listing form submits.
type SubmitInput struct {
	Title       string
	Description string
	Type        string
	Campus      string
	Files       []FileUpload
}

// AttachmentOutcome reports what happened to one uploaded file.
type AttachmentOutcome struct {
	Filename     string
	AttachmentID string
	Err          error
}

// SubmitResult is the created listing plus a per-file report.
type SubmitResult struct {
	Listing     *models.Listing
	Attachments []AttachmentOutcome
}

// Stored counts the files that were persisted.
func (r *SubmitResult) Stored() int {
	n := 0
	for _, a := range r.Attachments {
		if a.Err == nil {
			n++
		}
	}
	return n
}

// FeedItem is a listing as rendered in the public feed.
type FeedItem struct {
	ID              string
	Title           string
	Description     string
	Type            models.ListingType
	Campus          models.Campus
	CreatedAt       string
	CreatorNickname string
	CreatorAvatar   string
	AttachmentIDs   []string
}

type ListingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	objects     ObjectStore
	log         logging.Logger
	scratchDir  string
	maxBytes    int64

	newID func() string
}

func NewListingService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	objects ObjectStore, log logging.Logger) *ListingService {
	return &ListingService{
		db:          db,
		repomanager: m,
		objects:     objects,
		log:         log.With("service", "listing"),
		scratchDir:  cfg.ScratchDir,
		maxBytes:    cfg.MaxUploadBytes,
		newID:       uuid.NewString,
	}
}

// Submit validates and creates a listing, then stores its files one by
// one. The listing is kept even if some or all files fail; each failure
// is logged and reported in the result.
func (s *ListingService) Submit(ctx context.Context, ident identity.Identity, in SubmitInput) (*SubmitResult, error) {
	me, err := requireAuthenticated(ident)
	if err != nil {
		return nil, err
	}

	ltype, err := models.ParseListingType(in.Type)
	if err != nil {
		return nil, common.ErrInvalidListingType
	}
	campus, err := models.ParseCampus(in.Campus)
	if err != nil {
		return nil, common.ErrInvalidCampus
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.ErrTitleRequired
	}
	if len(in.Files) == 0 {
		return nil, common.ErrNoAttachments
	}

	listing, err := s.repomanager.Listings(s.db).Create(ctx, &models.Listing{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Type:        ltype,
		Campus:      campus,
		CreatorID:   me.UserID,
	})
	if err != nil {
		return nil, publicError(ctx, s.log, "submit listing", err)
	}

	res := &SubmitResult{Listing: listing, Attachments: make([]AttachmentOutcome, 0, len(in.Files))}
	for _, f := range in.Files {
		id, err := s.storeAttachment(ctx, listing, f)
		if err != nil {
			s.log.Warn(ctx, "attachment not stored",
				"listing_id", listing.ID, "filename", f.Filename, "error", err)
		}
		res.Attachments = append(res.Attachments, AttachmentOutcome{Filename: f.Filename, AttachmentID: id, Err: err})
	}

	s.log.Info(ctx, "listing created",
		"listing_id", listing.ID, "creator_id", me.UserID, "attachments", res.Stored(), "files", len(in.Files))
	return res, nil
}

// storeAttachment spools one file to scratch space, uploads it and records
// the attachment row. A row that cannot be written takes its object with it.
func (s *ListingService) storeAttachment(ctx context.Context, listing *models.Listing, f FileUpload) (string, error) {
	if f.Open == nil {
		return "", errors.New("no content")
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	spooled, err := filex.Spool(s.scratchDir, rc, s.maxBytes)
	if err != nil {
		return "", err
	}
	defer spooled.Close()

	id := s.newID()
	key := models.StorageKey(listing.CreatorID, id)
	if err := s.objects.Put(ctx, key, spooled, spooled.Size, spooled.ContentType); err != nil {
		return "", err
	}

	err = s.repomanager.Attachments(s.db).Create(ctx, &models.Attachment{
		ID:          id,
		ListingID:   listing.ID,
		ContentType: spooled.ContentType,
		SizeBytes:   spooled.Size,
	})
	if err != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			s.log.Warn(ctx, "orphaned attachment object", "key", key, "error", derr)
		}
		return "", err
	}
	return id, nil
}

// ClampFeedWindow normalizes feed paging parameters.
func ClampFeedWindow(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit <= 0:
		limit = DefaultFeedLimit
	case limit > MaxFeedLimit:
		limit = MaxFeedLimit
	}
	return offset, limit
}

// Recent returns the public feed, newest first.
func (s *ListingService) Recent(ctx context.Context, offset, limit int) ([]FeedItem, error) {
	offset, limit = ClampFeedWindow(offset, limit)

	summaries, err := s.repomanager.Listings(s.db).ListRecent(ctx, offset, limit)
	if err != nil {
		return nil, publicError(ctx, s.log, "list listings", err)
	}

	atts := s.repomanager.Attachments(s.db)
	items := make([]FeedItem, 0, len(summaries))
	for _, l := range summaries {
		ids, err := atts.ListIDsByListing(ctx, l.ID)
		if err != nil {
			return nil, publicError(ctx, s.log, "list listings", err)
		}
		items = append(items, FeedItem{
			ID:              l.ID,
			Title:           l.Title,
			Description:     l.Description,
			Type:            l.Type,
			Campus:          l.Campus,
			CreatedAt:       l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			CreatorNickname: l.CreatorNickname,
			CreatorAvatar:   avatar.URL(l.CreatorAvatarSeed),
			AttachmentIDs:   ids,
		})
	}
	return items, nil
}
