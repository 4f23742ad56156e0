// internal/app/system/watch/hub.go
package watch

import (
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Change operations.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Change is one observed mutation on a watched collection. Doc carries the
// full post-image for inserts and updates and is nil for deletes.
type Change struct {
	Collection string
	Op         string
	DocID      primitive.ObjectID
	Doc        bson.Raw
}

// Filter decides whether a change is visible to one subscriber. A nil Filter
// passes everything.
type Filter func(Change) bool

// Hub fans collection changes out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses that change and the drop is counted,
// which mirrors how a reconnecting live-query client would simply re-read the
// current result set.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	dropped atomic.Uint64
	log     *zap.Logger
}

// NewHub builds an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs: make(map[*Subscription]struct{}),
		log:  logger,
	}
}

// Subscription is one registered listener. Receive from C until it is closed.
type Subscription struct {
	C <-chan Change

	ch     chan Change
	filter Filter
	hub    *Hub
	closed bool
}

// Subscribe registers a listener with the given buffer size.
func (h *Hub) Subscribe(filter Filter, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Change, buffer)
	sub := &Subscription{C: ch, ch: ch, filter: filter, hub: h}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Cancel removes the subscription and closes its channel. It is idempotent
// and safe to call concurrently with Publish; once it returns, no further
// sends can reach the channel.
func (s *Subscription) Cancel() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.hub.subs, s)
	close(s.ch)
}

// Publish delivers a change to every subscriber whose filter passes.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if sub.filter != nil && !sub.filter(c) {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			h.dropped.Add(1)
			if h.log != nil {
				h.log.Warn("subscriber buffer full, change dropped",
					zap.String("collection", c.Collection),
					zap.String("op", c.Op))
			}
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many changes were discarded for slow subscribers.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
