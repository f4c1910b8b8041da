// Package repositories persists messages and identity records in BadgerDB.
// Message keys embed a zero-padded timestamp so a prefix scan returns
// chronological history without a secondary index.
package repositories

import (
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	// "msg:{scope}:{19-digit unixnano}:{uuid}". The padding makes
	// lexicographic order chronological; the uuid disconnects collisions
	// if two messages land in the same nanosecond.
	messageKeyFormat = "msg:%s:%019d:%s"

	identityKeyPrefix = "user:"
)

// Store is the durable persistence gateway.
type Store struct {
	db  *badger.DB
	log *slog.Logger
}

func NewStore(db *badger.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}
