// Package notify carries collection change notifications between the
// content store and the views that display it.
package notify

import (
	"encoding/json"
	"sync"
	"time"
)

// All subscribes to changes of every collection.
const All = "*"

// Change is published after a collection value has been written.
type Change struct {
	Collection string          `json:"collection"`
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	At         time.Time       `json:"at"`
	// Origin is the id of the service instance that made the write.
	// Empty for writes made in this process.
	Origin string `json:"origin,omitempty"`
}

type Handler func(Change)

// Bus is an in-process publish/subscribe channel keyed by storage key.
// Handlers run synchronously on the publishing goroutine, in subscription order.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]*Subscription
	seq  uint64
}

type Subscription struct {
	bus     *Bus
	key     string
	id      uint64
	handler Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]*Subscription)}
}

// Subscribe registers h for changes of key, or of every key when key is All.
func (b *Bus) Subscribe(key string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sub := &Subscription{bus: b, key: key, id: b.seq, handler: h}
	b.subs[key] = append(b.subs[key], sub)
	return sub
}

func (s *Subscription) Unsubscribe() {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.key]
	for i, sub := range list {
		if sub.id == s.id {
			b.subs[s.key] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[s.key]) == 0 {
		delete(b.subs, s.key)
	}
}

func (b *Bus) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	b.mu.RLock()
	handlers := make([]*Subscription, 0, len(b.subs[c.Key])+len(b.subs[All]))
	handlers = append(handlers, b.subs[c.Key]...)
	handlers = append(handlers, b.subs[All]...)
	b.mu.RUnlock()

	for _, sub := range handlers {
		sub.handler(c)
	}
}
