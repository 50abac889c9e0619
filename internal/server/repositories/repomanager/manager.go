package repomanager

import (
	"context"
	"database/sql"

	"github.com/wesley950/coisando-coisas/internal/dbx"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/attachments"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/codes"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/listings"
	"github.com/wesley950/coisando-coisas/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Codes(db dbx.DBTX) codes.Repository
	Listings(db dbx.DBTX) listings.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
