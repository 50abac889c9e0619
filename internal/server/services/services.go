// Package services contains server-side business logic: the account
// lifecycle, listing submission with its attachment pipeline, and
// presigned access to stored attachments.
package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/dbx"
	"github.com/wesley950/coisando-coisas/internal/logging"
	"github.com/wesley950/coisando-coisas/internal/server/identity"
)

// ObjectStore is the object storage the attachment pipeline writes to.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// SessionRevoker invalidates issued session tokens server-side.
type SessionRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	RevokeUserBefore(ctx context.Context, userID string, cutoff time.Time, maxAge time.Duration) error
}

// txRunner runs fn in one transaction; fn's error rolls it back.
type txRunner func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

// requireAuthenticated gates every write path on a confirmed user.
func requireAuthenticated(ident identity.Identity) (identity.Authenticated, error) {
	switch id := ident.(type) {
	case identity.Authenticated:
		return id, nil
	case identity.Pending:
		return identity.Authenticated{}, common.ErrPendingConfirmation
	default:
		return identity.Authenticated{}, common.ErrNotLoggedIn
	}
}

// publicError returns err's match among allowed, or logs err and
// collapses it to common.ErrorInternal.
func publicError(ctx context.Context, log logging.Logger, op string, err error, allowed ...error) error {
	for _, a := range allowed {
		if errors.Is(err, a) {
			return a
		}
	}
	log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
