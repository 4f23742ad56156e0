// internal/app/system/notify/notify.go
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity levels for queued notifications.
const (
	Info    = "info"
	Success = "success"
	Error   = "error"
)

// Notification is a transient, time-boxed message queued for one user. The
// queue is in-memory only: restarts drop pending notifications, which is fine
// for messages whose whole purpose is a toast in the UI.
type Notification struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	expiresAt time.Time
}

// Queue holds pending notifications per user id. Expired entries are dropped
// lazily on read; a queue never grows past maxPerUser.
type Queue struct {
	mu      sync.Mutex
	pending map[string][]Notification
	ttl     time.Duration
	now     func() time.Time
}

const maxPerUser = 50

// NewQueue builds a Queue whose notifications live for ttl.
func NewQueue(ttl time.Duration) *Queue {
	return &Queue{
		pending: make(map[string][]Notification),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Push queues a notification for the user.
func (q *Queue) Push(userID, severity, message string) Notification {
	now := q.now()
	n := Notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: now,
		expiresAt: now.Add(q.ttl),
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	list := append(q.pending[userID], n)
	if len(list) > maxPerUser {
		list = list[len(list)-maxPerUser:]
	}
	q.pending[userID] = list
	return n
}

// Drain returns and clears the user's pending notifications, dropping any
// that have expired.
func (q *Queue) Drain(userID string) []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.pending[userID]
	delete(q.pending, userID)

	now := q.now()
	live := list[:0]
	for _, n := range list {
		if n.expiresAt.After(now) {
			live = append(live, n)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return live
}

// Peek returns the user's live notifications without clearing them.
func (q *Queue) Peek(userID string) []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	var live []Notification
	for _, n := range q.pending[userID] {
		if n.expiresAt.After(now) {
			live = append(live, n)
		}
	}
	return live
}
