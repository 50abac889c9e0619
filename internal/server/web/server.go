// Package web is the browser-facing HTTP transport: form posts answered
// with redirects, a session cookie, attachment and avatar endpoints.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wesley950/coisando-coisas/internal/logging"
	"github.com/wesley950/coisando-coisas/internal/server/auth"
	"github.com/wesley950/coisando-coisas/internal/server/identity"
	"github.com/wesley950/coisando-coisas/internal/server/models"
	"github.com/wesley950/coisando-coisas/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

// Accounts is the account lifecycle used by the handlers.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Confirm(ctx context.Context, code string) (string, error)
	Login(ctx context.Context, login, password string) (string, error)
	Logout(ctx context.Context, claims *auth.Claims)
	ChangeNickname(ctx context.Context, ident identity.Identity, nickname string) error
	ChangePassword(ctx context.Context, ident identity.Identity, password string) (string, error)
	ReseedAvatar(ctx context.Context, ident identity.Identity) (string, error)
	DeleteAccount(ctx context.Context, ident identity.Identity, claims *auth.Claims) error
	SessionValidity() time.Duration
}

type Listings interface {
	Submit(ctx context.Context, ident identity.Identity, in services.SubmitInput) (*services.SubmitResult, error)
	Recent(ctx context.Context, offset, limit int) ([]services.FeedItem, error)
}

type Attachments interface {
	PresignedURL(ctx context.Context, id string) (string, error)
}

// SessionResolver turns the session cookie into an identity.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (identity.Identity, *auth.Claims)
}

// Pinger reports database health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	Accounts    Accounts
	Listings    Listings
	Attachments Attachments
	Sessions    SessionResolver
	DB          Pinger
	Log         logging.Logger

	CookieSecure bool
	// MaxRequestBytes caps the body of a listing submission.
	MaxRequestBytes int64
}

type Server struct {
	address string
	deps    Deps
	log     logging.Logger
	engine  *gin.Engine
}

func NewServer(address string, deps Deps) *Server {
	s := &Server{
		address: address,
		deps:    deps,
		log:     deps.Log.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.log))
	r.Use(SecurityHeaders())
	r.Use(s.identityMiddleware())

	r.GET("/healthz", s.health)
	r.GET("/anuncios", s.feed)
	r.GET("/avatar/:seed", s.avatar)
	r.GET("/anexos/:id", s.attachment)

	r.POST("/register", s.register)
	r.GET("/confirmar/:code", s.confirm)
	r.POST("/login", s.login)
	r.GET("/sair", s.logout)

	settings := r.Group("/settings")
	{
		settings.POST("/nickname", s.changeNickname)
		settings.POST("/password", s.changePassword)
		settings.POST("/avatar", s.reseedAvatar)
		settings.POST("/delete", s.deleteAccount)
	}

	r.POST("/novo", BodyLimit(s.deps.MaxRequestBytes), s.submitListing)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info(context.Background(), "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.log.Error(context.Background(), "shutdown failed", "error", err)
		}
	}()

	s.log.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
