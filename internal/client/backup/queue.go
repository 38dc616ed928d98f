package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/plantfolk/plantkeeper/internal/client/models"
	"github.com/plantfolk/plantkeeper/internal/client/remote"
	"github.com/plantfolk/plantkeeper/internal/client/store"
	"github.com/plantfolk/plantkeeper/internal/common"
)

// EnqueuePending records a remote mutation made while disconnected. Ops are
// replayed in append order once connectivity and credentials are confirmed.
func (o *Orchestrator) EnqueuePending(ctx context.Context, op models.PendingOp) error {
	if op.Timestamp == "" {
		op.Timestamp = o.now().UTC().Format(time.RFC3339)
	}
	pending, err := store.ReadAs[models.PendingOp](ctx, o.local, common.KeyPendingOps)
	if err != nil {
		return err
	}
	pending = append(pending, op)
	return store.WriteAs(ctx, o.local, common.KeyPendingOps, pending)
}

// ReplayPending drains the offline operation queue through the remote mirror.
// It requires an authenticated session with a fresh credential. The queue is
// cleared only after the whole batch commits; a mid-sequence failure keeps
// every op queued for the next attempt (replays are idempotent upserts and
// deletes, so re-applying the earlier chunks is harmless).
func (o *Orchestrator) ReplayPending(ctx context.Context) (int, error) {
	if !o.session.IsAuthenticated() {
		return 0, common.ErrNotAuthenticated
	}
	if err := o.session.RefreshCredential(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrNotAuthenticated, err)
	}

	pending, err := store.ReadAs[models.PendingOp](ctx, o.local, common.KeyPendingOps)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ops := make([]remote.WriteOp, 0, len(pending))
	for _, p := range pending {
		switch p.Op {
		case models.OpDelete:
			ops = append(ops, remote.WriteOp{Op: remote.OpDelete, Kind: p.Kind, ID: p.ID})
		case models.OpCreate, models.OpUpdate:
			ops = append(ops, remote.WriteOp{Op: remote.OpSet, Kind: p.Kind, ID: p.ID, Body: p.Payload})
		default:
			o.log.Warn(ctx, "dropping pending op with unknown type", "op", string(p.Op))
		}
	}

	if err := o.remote.BatchCommit(ctx, ops); err != nil {
		return 0, fmt.Errorf("replay pending ops: %w", err)
	}
	if err := store.WriteAs(ctx, o.local, common.KeyPendingOps, []models.PendingOp{}); err != nil {
		return len(ops), err
	}
	o.log.Info(ctx, "pending ops replayed", "count", len(ops))
	return len(ops), nil
}

// WarmCache pulls the signed-in user's remote records into the local cache.
// It is strictly best-effort: an unreachable or slow remote degrades to the
// cached data already on device and never surfaces an error.
func (o *Orchestrator) WarmCache(ctx context.Context) error {
	if !o.session.IsAuthenticated() {
		return nil
	}
	uid := o.session.UserID()

	pull := func(kind, key string) error {
		docs, err := o.remote.QueryByField(ctx, kind, "user_id", uid)
		if err != nil {
			if errors.Is(err, common.ErrRemoteTimeout) || errors.Is(err, common.ErrRemoteUnavailable) {
				o.log.Warn(ctx, "cache warm-up skipped", "kind", kind, "error", err)
				return nil
			}
			return err
		}
		raw := make([]json.RawMessage, 0, len(docs))
		for _, d := range docs {
			raw = append(raw, d.Body)
		}
		return o.local.Write(ctx, key, raw)
	}

	for _, k := range []struct{ kind, key string }{
		{common.KindPlant, common.KeyPlants},
		{common.KindTask, common.KeyTasks},
		{common.KindTaskLog, common.KeyTaskLogs},
		{common.KindJournal, common.KeyJournal},
	} {
		if err := pull(k.kind, k.key); err != nil {
			return err
		}
	}
	return nil
}
