// Package store persists the content collections. Each collection is one
// JSON array held under its storage key in a versioned key/value table.
package store

import "context"

// Entry is the value held under one key together with its version.
// A key that was never written reads as the zero Entry.
type Entry struct {
	Value   []byte
	Version int64
}

// KV is the persistence backend. Writes replace the whole value.
type KV interface {
	Get(ctx context.Context, key string) (Entry, error)
	// CompareAndSwap writes value when the stored version still equals
	// version, and reports whether it did. Version 0 means "absent".
	CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (bool, error)
	// PutAll writes every value unconditionally in one transaction.
	PutAll(ctx context.Context, values map[string][]byte) error
}
