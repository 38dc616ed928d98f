// Package models defines the mirror server's persistent types.
package models

import (
	"encoding/json"
	"time"
)

// User is one account on the mirror server.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshToken is a server-stored, rotating long-lived credential.
type RefreshToken struct {
	Token   string
	UserID  string
	Expires time.Time
}

// Document is one mirrored record, keyed by (user_id, kind, id). Body is the
// record's JSON as the client wrote it.
type Document struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Body      json.RawMessage `json:"body"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
