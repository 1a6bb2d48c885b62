// Package storage provides conversation history storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures and protocols

package storage

import (
	"context"
	"errors"
	"fmt"
)

// DefaultSession is the session label used when the caller does not name one.
const DefaultSession = "Default"

// Turn is one recorded user-message/AI-response exchange.
// Turns are append-only: once written they are never updated in place.
type Turn struct {
	// ID is assigned by the store on insert. Strictly increasing in
	// insertion order and never reused, even after Clear.
	ID int64 `json:"id"`

	// Timestamp is the insertion time in RFC 3339 format, assigned by the
	// store, not the caller.
	Timestamp string `json:"timestamp"`

	// Model identifies the completion model used for this turn.
	Model string `json:"model"`

	// UserMessage is the text the user submitted.
	UserMessage string `json:"user_message"`

	// AIResponse is the completion provider's reply. Nil when generation
	// failed before a response was produced.
	AIResponse *string `json:"ai_response"`

	// Session partitions history into independent logs.
	Session string `json:"session"`
}

// ErrNotFound is returned by point lookups when no turn matches.
var ErrNotFound = errors.New("turn not found")

// StorageError wraps a backing-store failure with the operation that hit it.
// Store operations never swallow I/O failures or return a sentinel empty
// result in their place.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err as a StorageError for operation op.
func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// ConversationStore defines the interface for the durable append-only
// conversation log, queryable by recency and by substring, partitioned by
// session label.
//
// The store is intended to be driven from a single logical caller at a time
// (the UI thread in the original design). Implementations add their own
// mutual exclusion where the backend needs it.
type ConversationStore interface {
	// Append inserts one new turn with a fresh id and the current time.
	// The store accepts model and userMessage as given, without emptiness
	// validation. aiResponse may be nil. The write is durable and visible
	// to subsequent reads immediately.
	Append(ctx context.Context, model, userMessage string, aiResponse *string, session string) error

	// Recent returns at most limit turns belonging to session, newest
	// first. An unknown session yields an empty slice, not an error.
	// limit <= 0 returns an empty slice.
	Recent(ctx context.Context, session string, limit int) ([]Turn, error)

	// Search returns all turns in session whose user message or AI
	// response contains query as a substring, newest first. Matching is
	// case-insensitive for ASCII. An empty query matches every turn in
	// the session, mirroring an unfiltered listing.
	Search(ctx context.Context, query, session string) ([]Turn, error)

	// Clear deletes every turn across all sessions. Idempotent.
	Clear(ctx context.Context) error

	// ClearSession deletes every turn in one session. Idempotent.
	ClearSession(ctx context.Context, session string) error

	// UserMessageByID returns the user message of the turn with the given
	// id. Returns ErrNotFound if no such turn exists, e.g. after a Clear.
	UserMessageByID(ctx context.Context, id int64) (string, error)

	// Sessions lists the distinct session labels that currently have turns.
	Sessions(ctx context.Context) ([]string, error)

	// Close releases the underlying resources.
	Close() error
}
