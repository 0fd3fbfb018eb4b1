package background

import (
	"sync"
	"time"
)

// failedNotification tracks one undelivered email awaiting retry
type failedNotification struct {
	UserID      string
	MovieID     string
	Attempts    int
	LastAttempt time.Time
	LastError   string
}

func (f *failedNotification) key() string {
	return f.UserID + "|" + f.MovieID
}

// retryQueue holds failed notifications between scheduler runs. It lives
// entirely in memory and is owned by a single Notifier; a restart starts
// with an empty queue.
type retryQueue struct {
	mu      sync.Mutex
	entries map[string]*failedNotification
}

func newRetryQueue() *retryQueue {
	return &retryQueue{entries: make(map[string]*failedNotification)}
}

// Put inserts or replaces the entry for the given user and movie
func (q *retryQueue) Put(entry *failedNotification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[entry.key()] = entry
}

// Remove drops the entry for the given user and movie, if present
func (q *retryQueue) Remove(userID, movieID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, userID+"|"+movieID)
}

// Snapshot returns copies of all queued entries. Workers operate on the
// copies and write results back through Put/Remove, so the lock is never
// held across a delivery attempt.
func (q *retryQueue) Snapshot() []*failedNotification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*failedNotification, 0, len(q.entries))
	for _, e := range q.entries {
		c := *e
		out = append(out, &c)
	}
	return out
}

// Len reports the number of queued entries
func (q *retryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// QueueStats summarizes the queue for operational inspection
type QueueStats struct {
	Pending     int       `json:"pending"`
	MaxAttempts int       `json:"max_attempts"`
	Oldest      time.Time `json:"oldest,omitempty"`
}

// Stats reports the current queue depth and the worst entry
func (q *retryQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := QueueStats{Pending: len(q.entries)}
	for _, e := range q.entries {
		if e.Attempts > stats.MaxAttempts {
			stats.MaxAttempts = e.Attempts
		}
		if stats.Oldest.IsZero() || e.LastAttempt.Before(stats.Oldest) {
			stats.Oldest = e.LastAttempt
		}
	}
	return stats
}

// Clear drops every queued entry
func (q *retryQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = make(map[string]*failedNotification)
}
