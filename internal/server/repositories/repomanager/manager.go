// Package repomanager hands out repositories bound to a *sql.DB or an open
// transaction, so services can run multi-repository work inside dbx.WithTx.
package repomanager

import (
	"github.com/plantfolk/plantkeeper/internal/dbx"
	"github.com/plantfolk/plantkeeper/internal/server/repositories/documents"
	"github.com/plantfolk/plantkeeper/internal/server/repositories/refreshtokens"
	"github.com/plantfolk/plantkeeper/internal/server/repositories/users"
)

// RepositoryManager builds repositories over the given handle.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Documents(db dbx.DBTX) documents.Repository
}
