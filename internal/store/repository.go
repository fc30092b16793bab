package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// Repository is the typed view of one collection.
type Repository[T content.Record[T]] struct {
	s *Store
	c content.Collection[T]
}

func For[T content.Record[T]](s *Store, c content.Collection[T]) *Repository[T] {
	return &Repository[T]{s: s, c: c}
}

func (r *Repository[T]) Collection() content.Collection[T] { return r.c }

// All returns the persisted records in insertion order. A value that does
// not decode is logged and read as an empty collection.
func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	entry, err := r.s.kv.Get(ctx, r.c.Key())
	if err != nil {
		return nil, err
	}
	return decodeItems[T](r.c.Name(), entry.Value), nil
}

func (r *Repository[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	items, err := r.All(ctx)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.RecordID() == id {
			return item, nil
		}
	}
	return zero, fmt.Errorf("%s %d: %w", r.c.Name(), id, content.ErrNotFound)
}

// Create assigns an id, applies defaults and appends rec.
func (r *Repository[T]) Create(ctx context.Context, rec T) (T, error) {
	created := rec.Prepare(r.s.now()).WithID(r.s.ids.Next())
	err := r.mutate(ctx, "create", func(items []T) ([]T, bool, error) {
		return append(items, created), true, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return created, nil
}

// Update replaces the record with the given id in place, keeping its id
// and any field the record type treats as immutable.
func (r *Repository[T]) Update(ctx context.Context, id int64, rec T) (T, error) {
	var updated T
	err := r.mutate(ctx, "update", func(items []T) ([]T, bool, error) {
		for i, item := range items {
			if item.RecordID() == id {
				updated = rec.Prepare(r.s.now()).Retain(item)
				next := append([]T(nil), items...)
				next[i] = updated
				return next, true, nil
			}
		}
		return nil, false, fmt.Errorf("%s %d: %w", r.c.Name(), id, content.ErrNotFound)
	})
	return updated, err
}

// Delete removes the record with the given id. Deleting an unknown id is
// not an error; the returned bool tells whether a record was removed.
func (r *Repository[T]) Delete(ctx context.Context, id int64) (bool, error) {
	removed := false
	err := r.mutate(ctx, "delete", func(items []T) ([]T, bool, error) {
		next := make([]T, 0, len(items))
		removed = false
		for _, item := range items {
			if !removed && item.RecordID() == id {
				removed = true
				continue
			}
			next = append(next, item)
		}
		return next, removed, nil
	})
	return removed, err
}

// Clear resets the collection to an empty sequence.
func (r *Repository[T]) Clear(ctx context.Context) error {
	return r.mutate(ctx, "clear", func([]T) ([]T, bool, error) {
		return []T{}, true, nil
	})
}

// mutate runs a read-modify-write of the whole collection value guarded by
// the stored version. fn may run more than once and reports whether it
// changed anything; unchanged collections are not written.
func (r *Repository[T]) mutate(ctx context.Context, op string, fn func([]T) ([]T, bool, error)) error {
	key := r.c.Key()
	for attempt := 0; attempt < r.s.retries; attempt++ {
		entry, err := r.s.kv.Get(ctx, key)
		if err != nil {
			return err
		}
		next, changed, err := fn(decodeItems[T](r.c.Name(), entry.Value))
		if err != nil || !changed {
			return err
		}
		if next == nil {
			next = []T{}
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		ok, err := r.s.kv.CompareAndSwap(ctx, key, entry.Version, data)
		if err != nil {
			return err
		}
		if ok {
			metrics.Writes.WithLabelValues(r.c.Name(), op).Inc()
			r.s.committed(r.c.Name(), key, entry.Version+1, data)
			return nil
		}
		metrics.Conflicts.WithLabelValues(r.c.Name()).Inc()
		log.Debugf("%s %s: version %d changed underneath, retrying", op, key, entry.Version)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s %s: %w", op, key, ErrConflict)
}

func decodeItems[T any](name string, raw []byte) []T {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		metrics.ParseErrors.WithLabelValues(name).Inc()
		log.WithField("collection", name).Warnf("stored value is not a valid collection, reading it as empty: %s", err)
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}
