// Package server wires the application together: configuration, logging,
// Postgres, object storage, the notifier, optional session revocation and
// the HTTP server. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/wesley950/coisando-coisas/internal/filex"
	"github.com/wesley950/coisando-coisas/internal/logging"
	"github.com/wesley950/coisando-coisas/internal/server/config"
	"github.com/wesley950/coisando-coisas/internal/server/identity"
	"github.com/wesley950/coisando-coisas/internal/server/notify"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/repomanager"
	"github.com/wesley950/coisando-coisas/internal/server/revocation"
	"github.com/wesley950/coisando-coisas/internal/server/services"
	"github.com/wesley950/coisando-coisas/internal/server/storage"
	"github.com/wesley950/coisando-coisas/internal/server/web"
)

// maxFilesPerSubmission bounds a listing post's body together with the
// per-file upload limit.
const maxFilesPerSubmission = 10

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	server  *web.Server
	closers []io.Closer
}

// NewApp connects to every backing service and builds the HTTP server.
// Migrations are applied before anything is served.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel)
	if err != nil {
		return nil, err
	}

	if c.EnsureSecretKey() {
		logger.Warn(ctx, "SECRET_KEY is not set, using a random key; sessions end on restart")
	}

	app := &App{config: c, logger: logger}
	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(c.DBMaxConns)
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	objects, err := storage.New(ctx, storage.Options{
		Region:    c.S3Region,
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
		Endpoint:  c.S3BaseEndpoint,
		Bucket:    c.S3Bucket,
	})
	if err != nil {
		return err
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		return err
	}

	scratch, err := filex.EnsureSubdDir(c.ScratchDir)
	if err != nil {
		return fmt.Errorf("scratch dir: %w", err)
	}
	c.ScratchDir = scratch

	var notifier notify.Notifier
	if c.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
			SSL:      c.SMTPSSL,
		})
	} else {
		app.logger.Warn(ctx, "SMTP not configured, confirmation links are only logged")
		notifier = notify.NewLogNotifier(app.logger)
	}

	// both stay nil interfaces unless Redis is configured
	var (
		revoker services.SessionRevoker
		checker identity.Revoker
	)
	if c.RedisAddr != "" {
		client, err := revocation.Connect(ctx, revocation.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err != nil {
			return err
		}
		app.closers = append(app.closers, client)
		store := revocation.NewStore(client)
		revoker, checker = store, store
	}

	accounts := services.NewAccountService(db, rm, c, notifier, revoker, objects, app.logger)
	listings := services.NewListingService(db, rm, c, objects, app.logger)
	attachments := services.NewAttachmentService(db, rm, c, objects, app.logger)
	resolver := identity.NewResolver(rm.Users(db), []byte(c.SecretKey), checker, app.logger)

	app.server = web.NewServer(c.HTTPAddr, web.Deps{
		Accounts:        accounts,
		Listings:        listings,
		Attachments:     attachments,
		Sessions:        resolver,
		DB:              db,
		Log:             app.logger,
		CookieSecure:    c.CookieSecure,
		MaxRequestBytes: c.MaxUploadBytes * maxFilesPerSubmission,
	})
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	var errs []error
	for _, c := range app.closers {
		errs = append(errs, c.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error(context.Background(), "shutdown error", "error", err)
	}
	if z, ok := app.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}
