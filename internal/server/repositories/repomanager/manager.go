// Package repomanager wires the concrete repositories to one shared
// database handle and runs migrations at startup. Repository accessors take
// a dbx.DBTX so services can hand them either the root handle or an open
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/chatgate/internal/dbx"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/admins"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/exchanges"
	"github.com/dmitrijs2005/chatgate/internal/server/repositories/users"
)

type RepositoryManager interface {
	Conn() *sql.DB
	Users(db dbx.DBTX) users.Repository
	Admins(db dbx.DBTX) admins.Repository
	Exchanges(db dbx.DBTX) exchanges.Repository
	RunMigrations(ctx context.Context) error
	Close() error
}
