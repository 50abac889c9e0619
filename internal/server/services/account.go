package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wesley950/coisando-coisas/internal/common"
	"github.com/wesley950/coisando-coisas/internal/cryptox"
	"github.com/wesley950/coisando-coisas/internal/dbx"
	"github.com/wesley950/coisando-coisas/internal/logging"
	"github.com/wesley950/coisando-coisas/internal/server/auth"
	"github.com/wesley950/coisando-coisas/internal/server/avatar"
	"github.com/wesley950/coisando-coisas/internal/server/config"
	"github.com/wesley950/coisando-coisas/internal/server/identity"
	"github.com/wesley950/coisando-coisas/internal/server/models"
	"github.com/wesley950/coisando-coisas/internal/server/notify"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/repomanager"
	"github.com/wesley950/coisando-coisas/internal/server/validation"
)

// confirmationCodeBytes is the entropy of a confirmation code.
const confirmationCodeBytes = 32

// RegisterInput is what the registration form submits.
type RegisterInput struct {
	Nickname string
	Email    string
	Password string
}

// AccountService implements the account lifecycle:
//   - Register: create a PENDING user, its confirmation code and send the link
//   - Confirm: redeem a code once and open a session
//   - Login / Logout
//   - settings: nickname, password, avatar seed, deletion
type AccountService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	notifier        notify.Notifier
	revoker         SessionRevoker
	objects         ObjectStore
	log             logging.Logger
	jwtSecret       []byte
	sessionValidity time.Duration
	baseURL         string

	hashPassword   func(string) (string, error)
	verifyPassword func(password, encoded string) (bool, error)
	newCode        func() (string, error)
	newSeed        func() (string, error)
	now            func() time.Time
	inTx           txRunner
}

// NewAccountService wires an AccountService. revoker and objects may be
// nil; revocation and stored-object cleanup are then skipped.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	notifier notify.Notifier, revoker SessionRevoker, objects ObjectStore, log logging.Logger) *AccountService {
	return &AccountService{
		db:              db,
		repomanager:     m,
		notifier:        notifier,
		revoker:         revoker,
		objects:         objects,
		log:             log.With("service", "account"),
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidity,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		hashPassword:    cryptox.HashPassword,
		verifyPassword:  cryptox.VerifyPassword,
		newCode:         func() (string, error) { return common.MakeRandHexString(confirmationCodeBytes) },
		newSeed:         avatar.NewSeed,
		now:             time.Now,
		inTx: func(ctx context.Context, fn func(context.Context, dbx.DBTX) error) error {
			return dbx.WithTx(ctx, db, nil, fn)
		},
	}
}

// SessionValidity is the lifetime of tokens minted by the service.
func (s *AccountService) SessionValidity() time.Duration { return s.sessionValidity }

func (s *AccountService) confirmationLink(code string) string {
	return s.baseURL + "/confirmar/" + code
}

func (s *AccountService) mintSession(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.sessionValidity)
}

// Register creates a PENDING account and sends its confirmation link. The
// checks run in a fixed order (nickname, email, password) and the first
// failure is reported. Everything, including the notification, happens in
// one transaction: if the link cannot be sent nothing is kept.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	nickname := validation.NormalizeNickname(in.Nickname)
	email := validation.NormalizeEmail(in.Email)

	var created *models.User
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		if err := validation.CheckNickname(nickname); err != nil {
			return err
		}
		taken, err := users.NicknameExists(ctx, nickname)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrNicknameInUse
		}

		if err := validation.CheckEmail(email); err != nil {
			return err
		}
		taken, err = users.EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrEmailInUse
		}

		if err := validation.CheckPassword(in.Password); err != nil {
			return err
		}

		hash, err := s.hashPassword(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		seed, err := s.newSeed()
		if err != nil {
			return fmt.Errorf("avatar seed: %w", err)
		}

		user, err := users.Create(ctx, &models.User{
			Nickname:     nickname,
			Email:        email,
			PasswordHash: hash,
			AvatarSeed:   seed,
			Status:       models.StatusPending,
		})
		if err != nil {
			return err
		}

		code, err := s.newCode()
		if err != nil {
			return fmt.Errorf("confirmation code: %w", err)
		}
		if err := s.repomanager.Codes(tx).Create(ctx, &models.ConfirmationCode{Code: code, UserID: user.ID}); err != nil {
			return err
		}

		if err := s.notifier.SendConfirmation(ctx, email, nickname, s.confirmationLink(code)); err != nil {
			return fmt.Errorf("send confirmation: %w", err)
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, publicError(ctx, s.log, "register", err,
			common.ErrInvalidNickname, common.ErrNicknameInUse,
			common.ErrInvalidEmail, common.ErrEmailInUse,
			common.ErrPasswordTooShort, common.ErrPasswordWeak)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Confirm redeems a confirmation code: the code is deleted, the user
// becomes CONFIRMED and a session token is returned. A code can be
// redeemed once; unknown or used codes yield common.ErrCodeInvalid.
func (s *AccountService) Confirm(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", common.ErrCodeInvalid
	}

	c, err := s.repomanager.Codes(s.db).Get(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrCodeInvalid
		}
		return "", publicError(ctx, s.log, "confirm", err)
	}

	var token string
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		// the delete decides which of two concurrent redemptions wins
		if err := s.repomanager.Codes(tx).Delete(ctx, code); err != nil {
			return err
		}
		if err := s.repomanager.Users(tx).Confirm(ctx, c.UserID); err != nil {
			return err
		}
		var err error
		token, err = s.mintSession(c.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrCodeInvalid
		}
		return "", publicError(ctx, s.log, "confirm", err)
	}

	s.log.Info(ctx, "user confirmed", "user_id", c.UserID)
	return token, nil
}

// Login checks credentials given a nickname or an email address. Every
// failure is reported as common.ErrInvalidCredentials. PENDING users may
// log in; they resolve to identity.Pending.
func (s *AccountService) Login(ctx context.Context, login, password string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", common.ErrInvalidCredentials
	}

	user, err := s.repomanager.Users(s.db).GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", publicError(ctx, s.log, "login", err)
	}

	ok, err := s.verifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", publicError(ctx, s.log, "login", err)
	}
	if !ok || user.Status == models.StatusDisabled {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.mintSession(user.ID)
	if err != nil {
		return "", publicError(ctx, s.log, "login", err)
	}
	return token, nil
}

// Logout revokes the session token when a revocation store is configured.
// It never fails; the caller clears the cookie regardless.
func (s *AccountService) Logout(ctx context.Context, claims *auth.Claims) {
	s.revokeToken(ctx, claims)
}

func (s *AccountService) revokeToken(ctx context.Context, claims *auth.Claims) {
	if s.revoker == nil || claims == nil || claims.ExpiresAt == nil {
		return
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.log.Warn(ctx, "session revocation failed", "user_id", claims.UserID, "error", err)
	}
}

// ChangeNickname sets a new nickname after checking it is free.
func (s *AccountService) ChangeNickname(ctx context.Context, ident identity.Identity, nickname string) error {
	me, err := requireAuthenticated(ident)
	if err != nil {
		return err
	}

	nickname = validation.NormalizeNickname(nickname)
	if err := validation.CheckNickname(nickname); err != nil {
		return err
	}
	if nickname == me.Nickname {
		return nil
	}

	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		taken, err := users.NicknameExists(ctx, nickname)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrNicknameInUse
		}
		return users.UpdateNickname(ctx, me.UserID, nickname)
	})
	if err != nil {
		return publicError(ctx, s.log, "change nickname", err, common.ErrNicknameInUse)
	}
	return nil
}

// ChangePassword applies the password policy, stores the new hash and
// invalidates every session issued before the change. A fresh session
// token for the caller is returned.
func (s *AccountService) ChangePassword(ctx context.Context, ident identity.Identity, password string) (string, error) {
	me, err := requireAuthenticated(ident)
	if err != nil {
		return "", err
	}
	if err := validation.CheckPassword(password); err != nil {
		return "", err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return "", publicError(ctx, s.log, "change password", fmt.Errorf("hash password: %w", err))
	}
	if err := s.repomanager.Users(s.db).UpdatePasswordHash(ctx, me.UserID, hash); err != nil {
		return "", publicError(ctx, s.log, "change password", err)
	}

	if s.revoker != nil {
		if err := s.revoker.RevokeUserBefore(ctx, me.UserID, s.now(), s.sessionValidity); err != nil {
			s.log.Warn(ctx, "session revocation failed", "user_id", me.UserID, "error", err)
		}
	}

	token, err := s.mintSession(me.UserID)
	if err != nil {
		return "", publicError(ctx, s.log, "change password", err)
	}
	return token, nil
}

// ReseedAvatar replaces the avatar seed with a fresh random one.
func (s *AccountService) ReseedAvatar(ctx context.Context, ident identity.Identity) (string, error) {
	me, err := requireAuthenticated(ident)
	if err != nil {
		return "", err
	}

	seed, err := s.newSeed()
	if err != nil {
		return "", publicError(ctx, s.log, "reseed avatar", err)
	}
	if err := s.repomanager.Users(s.db).UpdateAvatarSeed(ctx, me.UserID, seed); err != nil {
		return "", publicError(ctx, s.log, "reseed avatar", err)
	}
	return seed, nil
}

// DeleteAccount ends the current session and deletes the user. Listings,
// attachment rows and pending codes go with it by cascade; stored objects
// are removed afterwards, best effort.
func (s *AccountService) DeleteAccount(ctx context.Context, ident identity.Identity, claims *auth.Claims) error {
	me, err := requireAuthenticated(ident)
	if err != nil {
		return err
	}

	var keys []string
	if s.objects != nil {
		keys, err = s.repomanager.Attachments(s.db).ListKeysByCreator(ctx, me.UserID)
		if err != nil {
			return publicError(ctx, s.log, "delete account", err)
		}
	}

	s.revokeToken(ctx, claims)

	if err := s.repomanager.Users(s.db).Delete(ctx, me.UserID); err != nil {
		return publicError(ctx, s.log, "delete account", err)
	}

	for _, key := range keys {
		if err := s.objects.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "orphaned attachment object", "key", key, "error", err)
		}
	}

	s.log.Info(ctx, "account deleted", "user_id", me.UserID, "objects", len(keys))
	return nil
}
