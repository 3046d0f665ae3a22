// Package repomanager vends repository implementations bound to a database
// handle, so services can run several repositories inside one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/ADRPUR/event-driven-marketplace/internal/dbx"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/repositories/products"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/repositories/refreshtokens"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/repositories/users"
)

// RepositoryManager builds repositories on top of an arbitrary DBTX
// (connection or transaction) and owns schema migrations.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Products(db dbx.DBTX) products.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
