package store

import (
	"context"
	"time"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/notify"
	log "github.com/sirupsen/logrus"
)

// OriginSync marks changes found by polling rather than written here.
const OriginSync = "sync"

// Sync polls the backend every interval until ctx is done, announcing
// collections that another process changed.
func (s *Store) Sync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.SyncOnce(ctx); err != nil {
		log.Warnf("content sync: %s", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SyncOnce(ctx); err != nil {
				log.Warnf("content sync: %s", err)
			}
		}
	}
}

// SyncOnce compares every collection version with the last one seen.
// The first look at a key only records its version.
func (s *Store) SyncOnce(ctx context.Context) error {
	for _, name := range content.Names {
		key, _ := content.KeyFor(name)
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			return err
		}

		s.mu.Lock()
		last, known := s.seen[key]
		s.seen[key] = entry.Version
		s.mu.Unlock()

		if known && last != entry.Version {
			log.Infof("content sync: %s moved from version %d to %d", key, last, entry.Version)
			s.bus.Publish(notify.Change{
				Collection: name,
				Key:        key,
				Value:      entry.Value,
				At:         s.now().UTC(),
				Origin:     OriginSync,
			})
		}
	}
	return nil
}
