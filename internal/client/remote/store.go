// Package remote talks to the mirror server: the user-scoped document store
// that mirrors the local cache. Every call goes through a timeout-and-retry
// wrapper, and batched writes are chunked below the per-commit ceiling.
package remote

import (
	"context"
	"encoding/json"
)

// Document is one mirrored record, keyed by (kind, id) and owned by a user.
type Document struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	UserID    string          `json:"user_id,omitempty"`
	Body      json.RawMessage `json:"body"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
}

// WriteOp is one element of a batched commit.
type WriteOp struct {
	Op   string          `json:"op"` // "set" or "delete"
	Kind string          `json:"kind"`
	ID   string          `json:"id"`
	Body json.RawMessage `json:"body,omitempty"`
}

const (
	OpSet    = "set"
	OpDelete = "delete"
)

// Store is the remote document store contract the orchestrator mirrors to.
type Store interface {
	// GetDocument returns one document or common.ErrNotFound.
	GetDocument(ctx context.Context, kind, id string) (*Document, error)

	// SetDocument writes one document with merge semantics: fields present
	// in body replace stored fields, absent fields are preserved.
	SetDocument(ctx context.Context, kind, id string, body json.RawMessage) error

	// BatchCommit applies ops in order, chunked so no single commit exceeds
	// the operation ceiling. Chunks commit sequentially; a mid-sequence
	// failure leaves earlier chunks durably applied.
	BatchCommit(ctx context.Context, ops []WriteOp) error

	// QueryByField returns the caller's documents of kind whose body field
	// equals value.
	QueryByField(ctx context.Context, kind, field, value string) ([]Document, error)

	// Ping probes reachability.
	Ping(ctx context.Context) error
}
