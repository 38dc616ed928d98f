package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/dbx"
	"github.com/plantfolk/plantkeeper/internal/server/models"
	"github.com/plantfolk/plantkeeper/internal/server/repositories/repomanager"
)

// BatchOp is one element of a batched commit request.
type BatchOp struct {
	Op   string          `json:"op"`
	Kind string          `json:"kind"`
	ID   string          `json:"id"`
	Body json.RawMessage `json:"body,omitempty"`
}

// DocumentService serves document reads and writes, always scoped to the
// authenticated user.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager) *DocumentService {
	return &DocumentService{db: db, repomanager: m}
}

func (s *DocumentService) Get(ctx context.Context, userID, kind, id string) (*models.Document, error) {
	return s.repomanager.Documents(s.db).Get(ctx, userID, kind, id)
}

func (s *DocumentService) Set(ctx context.Context, userID, kind, id string, body json.RawMessage) error {
	return s.repomanager.Documents(s.db).Upsert(ctx, userID, kind, id, body)
}

func (s *DocumentService) Query(ctx context.Context, userID, kind, field, value string) ([]models.Document, error) {
	return s.repomanager.Documents(s.db).QueryByField(ctx, userID, kind, field, value)
}

// BatchCommit applies up to common.MaxBatchOps operations atomically in one
// transaction. Oversized batches are rejected; the client is expected to
// chunk. Atomicity holds within one request only, never across requests.
func (s *DocumentService) BatchCommit(ctx context.Context, userID string, ops []BatchOp) error {
	if len(ops) > common.MaxBatchOps {
		return fmt.Errorf("batch of %d exceeds the %d operation ceiling", len(ops), common.MaxBatchOps)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Documents(tx)
		for _, op := range ops {
			switch op.Op {
			case "set":
				if err := repo.Upsert(ctx, userID, op.Kind, op.ID, op.Body); err != nil {
					return err
				}
			case "delete":
				if err := repo.Delete(ctx, userID, op.Kind, op.ID); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown batch op %q", op.Op)
			}
		}
		return nil
	})
}
