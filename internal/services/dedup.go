package services

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSeenCap bounds the in-memory dedup ledger
const DefaultSeenCap = 1000

// SeenLedger answers "have we already started processing this message?".
// MarkIfNew must be atomic: when the webhook and the poller race on the same
// id, exactly one caller gets true.
type SeenLedger interface {
	MarkIfNew(ctx context.Context, id string) bool
}

// MemorySeenLedger is a bounded, insertion-ordered set of message ids.
// Oldest entries are evicted first once the cap is reached, independent of
// access recency. Process-local and best-effort: losing it on restart is
// acceptable.
type MemorySeenLedger struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
	cap   int
}

// NewMemorySeenLedger creates a FIFO ledger with the given capacity
func NewMemorySeenLedger(capacity int) *MemorySeenLedger {
	if capacity <= 0 {
		capacity = DefaultSeenCap
	}
	return &MemorySeenLedger{
		seen: make(map[string]struct{}, capacity),
		cap:  capacity,
	}
}

// MarkIfNew records the id and reports whether it was unseen. Check and
// insert happen under one lock so concurrent delivery paths cannot both
// proceed.
func (l *MemorySeenLedger) MarkIfNew(ctx context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return false
	}

	l.seen[id] = struct{}{}
	l.order = append(l.order, id)
	if len(l.order) > l.cap {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.seen, oldest)
	}
	return true
}

// Len returns the current ledger size
func (l *MemorySeenLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// RedisSeenLedger is a distributed ledger for deployments running more than
// one orchestrator process. SET NX gives the same atomic check-and-mark;
// the TTL replaces FIFO eviction as the bound.
type RedisSeenLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSeenLedger creates a ledger on an existing redis client
func NewRedisSeenLedger(client *redis.Client, ttl time.Duration) *RedisSeenLedger {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSeenLedger{client: client, ttl: ttl}
}

// MarkIfNew records the id and reports whether it was unseen. Redis errors
// fail open: a transport hiccup must not freeze message handling, at the
// cost of a rare duplicate.
func (l *RedisSeenLedger) MarkIfNew(ctx context.Context, id string) bool {
	ok, err := l.client.SetNX(ctx, "seen:"+id, 1, l.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}
