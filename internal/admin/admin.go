// Package admin implements the operator command line: schema migrations
// and offline password hashing.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wesley950/coisando-coisas/internal/cryptox"
	"github.com/wesley950/coisando-coisas/internal/server/config"
	"github.com/wesley950/coisando-coisas/internal/server/validation"
)

const usage = `usage: admin <command>

commands:
  migrate        apply pending database migrations
  status         print the state of every migration
  hash-password  read a password and print its argon2id hash
`

// ErrUsage is returned for a missing or unknown command.
var ErrUsage = errors.New("unknown command")

// Migrator runs the embedded schema migrations.
type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	MigrationStatus(ctx context.Context, db *sql.DB) error
}

type App struct {
	cfg      *config.Config
	out      io.Writer
	migrator Migrator
	openDB   func(dsn string) (*sql.DB, error)
}

func NewApp(cfg *config.Config, out io.Writer, m Migrator) *App {
	return &App{
		cfg:      cfg,
		out:      out,
		migrator: m,
		openDB:   func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) },
	}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	switch args[0] {
	case "migrate":
		return a.withDB(ctx, func(db *sql.DB) error {
			if err := a.migrator.RunMigrations(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(a.out, "Migrations applied.")
			return nil
		})
	case "status":
		return a.withDB(ctx, func(db *sql.DB) error {
			return a.migrator.MigrationStatus(ctx, db)
		})
	case "hash-password":
		return a.hashPassword()
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: %s", ErrUsage, args[0])
	}
}

func (a *App) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := a.openDB(a.cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return fn(db)
}

func (a *App) hashPassword() error {
	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	if err := validation.CheckPassword(pw); err != nil {
		return err
	}
	hash, err := cryptox.HashPassword(pw)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, hash)
	return nil
}

// CommandArgs strips the configuration flags, which config.LoadConfig reads
// on its own, and returns what is left: the command and its arguments.
// A flag's value is the next argument unless that starts with "-".
func CommandArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			out = append(out, arg)
			continue
		}
		if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}
	return out
}
