// Package repository stores the rows served by the local log endpoint.
//
// Rows are kept as the raw JSON bodies that were posted, in arrival order,
// exactly like a spreadsheet appends lines.
package repository

import (
	"context"
	"encoding/json"
)

// Store is an append-only list of rows.
type Store interface {
	// Append stores row and returns its 1-based sequence number.
	Append(ctx context.Context, row json.RawMessage) (int64, error)

	// List returns every row, oldest first.
	List(ctx context.Context) ([]json.RawMessage, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) int

	Close() error
}

// Kind names a Store implementation in configuration.
type Kind string

const (
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
)

// Open returns the store named by kind. path is used by the SQLite store.
func Open(kind Kind, path string) (Store, error) {
	switch kind {
	case KindMemory, "":
		return NewMemoryStore(), nil
	case KindSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, ErrUnknownKind
	}
}

func validRow(row json.RawMessage) error {
	if len(row) == 0 || !json.Valid(row) {
		return ErrInvalidRow
	}
	return nil
}
