package store

import (
	"errors"
	"sync"
	"time"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/notify"
)

// ErrConflict is returned when a write kept losing to concurrent writers.
var ErrConflict = errors.New("too many concurrent modifications")

const defaultRetries = 16

// Store is the content store: six typed collections over one KV backend.
// Every successful write is announced on the bus.
type Store struct {
	kv      KV
	bus     *notify.Bus
	ids     *content.IDSource
	now     func() time.Time
	retries int

	mu   sync.Mutex
	seen map[string]int64 // last version written or observed per key
}

type Option func(*Store)

// WithClock replaces time.Now for ids, blog dates and export stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetries bounds the compare-and-swap attempts of a single write.
func WithRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.retries = n
		}
	}
}

func New(kv KV, bus *notify.Bus, opts ...Option) *Store {
	if bus == nil {
		bus = notify.NewBus()
	}
	s := &Store{
		kv:      kv,
		bus:     bus,
		now:     time.Now,
		retries: defaultRetries,
		seen:    make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = content.NewIDSource(s.now)
	return s
}

func (s *Store) Bus() *notify.Bus { return s.bus }

func (s *Store) Now() time.Time { return s.now() }

func (s *Store) committed(name, key string, version int64, value []byte) {
	s.mu.Lock()
	s.seen[key] = version
	s.mu.Unlock()
	s.bus.Publish(notify.Change{Collection: name, Key: key, Value: value, At: s.now().UTC()})
}
