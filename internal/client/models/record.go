// Package models defines the PlantKeeper record types, config blobs, and the
// portable backup manifest. Field tags match the archive manifest format and
// the remote document bodies, so one JSON shape travels everywhere.
package models

import "encoding/json"

// OpType classifies a pending offline mutation.
type OpType string

const (
	OpCreate OpType = "create"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

// Record is any domain entity addressable by an opaque, immutable id.
// The id is the sole join key across local cache, remote store, and backups.
type Record interface {
	RecordID() string
}

// Plant is a tracked plant. PhotoFilenames are the portable photo references;
// ResolvedURIs is a session-local cache of where those photos currently live
// and is never persisted or exported.
type Plant struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Species        string   `json:"species,omitempty"`
	Variety        string   `json:"variety,omitempty"`
	LocationName   string   `json:"locationName,omitempty"`
	AcquiredAt     string   `json:"acquiredAt,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
	PhotoFilenames []string `json:"photoFilenames,omitempty"`

	ResolvedURIs []string `json:"-"`
}

func (p Plant) RecordID() string { return p.ID }

// TaskTemplate describes a recurring care task for one plant.
type TaskTemplate struct {
	ID           string `json:"id"`
	PlantID      string `json:"plantId"`
	Type         string `json:"type"`
	IntervalDays int    `json:"intervalDays,omitempty"`
	NextDueAt    string `json:"nextDueAt,omitempty"`
	Paused       bool   `json:"paused,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

func (t TaskTemplate) RecordID() string { return t.ID }

// TaskLog records one completed care task.
type TaskLog struct {
	ID          string `json:"id"`
	TaskID      string `json:"taskId"`
	PlantID     string `json:"plantId,omitempty"`
	CompletedAt string `json:"completedAt"`
	Note        string `json:"note,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

func (l TaskLog) RecordID() string { return l.ID }

// JournalEntry is a free-form dated note, optionally with photos.
type JournalEntry struct {
	ID             string   `json:"id"`
	PlantID        string   `json:"plantId,omitempty"`
	Date           string   `json:"date"`
	Text           string   `json:"text"`
	UserID         string   `json:"user_id,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
	PhotoFilenames []string `json:"photoFilenames,omitempty"`

	ResolvedURIs []string `json:"-"`
}

func (j JournalEntry) RecordID() string { return j.ID }

// PhotoRef pairs a portable filename with a best-effort resolved URI.
// The URI is a derived, possibly stale cache; only the filename is canonical.
type PhotoRef struct {
	Filename string `json:"filename"`
	URI      string `json:"-"`
}

// PendingOp is one queued remote mutation recorded while disconnected.
type PendingOp struct {
	Op        OpType          `json:"op"`
	Kind      string          `json:"kind"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// DeduplicateByID keeps the first occurrence of each id, preserving order.
// Used when paginated reads may return overlapping pages.
func DeduplicateByID[T Record](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		id := it.RecordID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, it)
	}
	return out
}
