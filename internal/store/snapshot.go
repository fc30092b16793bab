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

// Snapshot reads all six collections.
func (s *Store) Snapshot(ctx context.Context) (content.Snapshot, error) {
	var (
		snap content.Snapshot
		err  error
	)
	if snap.Events, err = For(s, content.Events).All(ctx); err != nil {
		return snap, err
	}
	if snap.PastEvents, err = For(s, content.PastEvents).All(ctx); err != nil {
		return snap, err
	}
	if snap.Projects, err = For(s, content.Projects).All(ctx); err != nil {
		return snap, err
	}
	if snap.Testimonials, err = For(s, content.Testimonials).All(ctx); err != nil {
		return snap, err
	}
	if snap.Resources, err = For(s, content.Resources).All(ctx); err != nil {
		return snap, err
	}
	if snap.Blog, err = For(s, content.Blog).All(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}

// Export is Snapshot stamped with the export time.
func (s *Store) Export(ctx context.Context) (content.Snapshot, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return snap, err
	}
	snap.ExportDate = s.now().UTC().Format(content.TimestampLayout)
	return snap, nil
}

// MarshalExport renders an export document the way it is offered for download.
func MarshalExport(snap content.Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// Import replaces collections with the ones found in an export document.
// The document must carry events and projects; collections it leaves out
// keep their current value. Either every collection in the document is
// written or, on ErrImport or a backend failure, none is.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s", content.ErrImport, err)
	}
	for _, name := range []string{content.NameEvents, content.NameProjects} {
		if isNull(doc[name]) {
			return fmt.Errorf("%w: missing %q", content.ErrImport, name)
		}
	}

	values := make(map[string][]byte)
	for _, name := range content.Names {
		raw := doc[name]
		if isNull(raw) {
			continue
		}
		encoded, err := canonical(name, raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %s", content.ErrImport, name, err)
		}
		key, _ := content.KeyFor(name)
		values[key] = encoded
	}

	if err := s.kv.PutAll(ctx, values); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	s.announce(ctx, "import", values)
	log.Infof("imported %d collections", len(values))
	return nil
}

// ClearAll resets every collection to empty in one transaction.
func (s *Store) ClearAll(ctx context.Context) error {
	values := make(map[string][]byte, len(content.Names))
	for _, name := range content.Names {
		key, _ := content.KeyFor(name)
		values[key] = []byte("[]")
	}
	if err := s.kv.PutAll(ctx, values); err != nil {
		return fmt.Errorf("clear all: %w", err)
	}
	s.announce(ctx, "clear", values)
	return nil
}

// announce publishes bulk writes in collection order.
func (s *Store) announce(ctx context.Context, op string, values map[string][]byte) {
	for _, name := range content.Names {
		key, _ := content.KeyFor(name)
		value, ok := values[key]
		if !ok {
			continue
		}
		version := int64(0)
		if entry, err := s.kv.Get(ctx, key); err == nil {
			version = entry.Version
		}
		metrics.Writes.WithLabelValues(name, op).Inc()
		s.committed(name, key, version, value)
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// canonical checks that raw holds records of the named collection and
// re-encodes them the way the store writes them.
func canonical(name string, raw json.RawMessage) ([]byte, error) {
	switch name {
	case content.NameEvents:
		return reencode[content.Event](raw)
	case content.NamePastEvents:
		return reencode[content.PastEvent](raw)
	case content.NameProjects:
		return reencode[content.Project](raw)
	case content.NameTestimonials:
		return reencode[content.Testimonial](raw)
	case content.NameResources:
		return reencode[content.Resource](raw)
	case content.NameBlog:
		return reencode[content.BlogPost](raw)
	}
	return nil, content.ErrUnknownCollection
}

func reencode[T any](raw json.RawMessage) ([]byte, error) {
	items := []T{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return json.Marshal(items)
}
