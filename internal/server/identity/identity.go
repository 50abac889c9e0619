// Package identity resolves the session cookie of a request into who is
// making it. Resolution never fails: anything that cannot be verified is
// treated as Anonymous, and every write path checks the variant it needs.
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wesley950/coisando-coisas/internal/logging"
	"github.com/wesley950/coisando-coisas/internal/server/auth"
	"github.com/wesley950/coisando-coisas/internal/server/models"
)

// Identity is one of Anonymous, Pending or Authenticated.
type Identity interface {
	isIdentity()
}

// Anonymous is a request without a usable session.
type Anonymous struct{}

// Pending is a logged-in user who has not confirmed their email yet.
type Pending struct {
	UserID string
}

// Authenticated is a confirmed user.
type Authenticated struct {
	UserID     string
	Nickname   string
	AvatarSeed string
}

func (Anonymous) isIdentity()     {}
func (Pending) isIdentity()       {}
func (Authenticated) isIdentity() {}

// UserLookup loads a user by id.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Revoker reports server-side session invalidations.
type Revoker interface {
	IsRevoked(ctx context.Context, tokenID, userID string, issuedAt time.Time) (bool, error)
}

// Resolver turns session tokens into identities.
type Resolver struct {
	users   UserLookup
	secret  []byte
	revoker Revoker
	log     logging.Logger
}

// NewResolver builds a Resolver. revoker may be nil.
func NewResolver(users UserLookup, secret []byte, revoker Revoker, log logging.Logger) *Resolver {
	return &Resolver{users: users, secret: secret, revoker: revoker, log: log}
}

// Resolve returns the identity behind token.
func (r *Resolver) Resolve(ctx context.Context, token string) Identity {
	id, _ := r.ResolveSession(ctx, token)
	return id
}

// ResolveSession is Resolve that also returns the verified claims, or nil
// for Anonymous.
func (r *Resolver) ResolveSession(ctx context.Context, token string) (Identity, *auth.Claims) {
	if token == "" {
		return Anonymous{}, nil
	}

	claims, err := auth.ParseToken(token, r.secret)
	if err != nil {
		r.log.Debug(ctx, "session token rejected", "error", err)
		return Anonymous{}, nil
	}

	if _, err := uuid.Parse(claims.UserID); err != nil {
		return Anonymous{}, nil
	}

	if r.revoker != nil {
		var issuedAt time.Time
		if claims.IssuedAt != nil {
			issuedAt = claims.IssuedAt.Time
		}
		revoked, err := r.revoker.IsRevoked(ctx, claims.ID, claims.UserID, issuedAt)
		if err != nil {
			r.log.Warn(ctx, "revocation check failed", "error", err)
			return Anonymous{}, nil
		}
		if revoked {
			return Anonymous{}, nil
		}
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		r.log.Debug(ctx, "session user lookup failed", "user_id", claims.UserID, "error", err)
		return Anonymous{}, nil
	}

	switch user.Status {
	case models.StatusPending:
		return Pending{UserID: user.ID}, claims
	case models.StatusConfirmed:
		return Authenticated{UserID: user.ID, Nickname: user.Nickname, AvatarSeed: user.AvatarSeed}, claims
	default:
		return Anonymous{}, nil
	}
}
