package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"taggerd/internal/tagger"
)

// HashSentinel is the logical-name placeholder that asks the queue to name
// the item after the SHA-256 hex digest of its image payload.
const HashSentinel = "<sha256>"

// Entry is one (queue, logical name) slot in the ResultStore. It starts
// pending (reserved) and is resolved exactly once, either with a result or
// with an error. A failed batch item resolves its entry with the error so
// waiting callers are never suspended indefinitely.
type Entry struct {
	name string

	done chan struct{}
	res  tagger.Result
	err  error
}

func newEntry(name string) *Entry {
	return &Entry{name: name, done: make(chan struct{})}
}

// Name returns the resolved logical name the entry is stored under.
func (e *Entry) Name() string { return e.name }

// Ready reports whether the entry has been resolved.
func (e *Entry) Ready() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the entry resolves or the context is done.
func (e *Entry) Wait(ctx context.Context) (tagger.Result, error) {
	select {
	case <-e.done:
		return e.res, e.err
	case <-ctx.Done():
		return tagger.Result{}, ctx.Err()
	}
}

func (e *Entry) complete(res tagger.Result) {
	e.res = res
	close(e.done)
}

func (e *Entry) fail(err error) {
	e.err = err
	close(e.done)
}

// ResultStore maps (queue name, logical name) to interrogation entries. It
// is safe for concurrent use from routed requests and batch runners.
type ResultStore struct {
	mu     sync.Mutex
	queues map[string]map[string]*Entry
}

// NewResultStore returns an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{queues: make(map[string]map[string]*Entry)}
}

// Resolve applies the logical-name rules for a submission and reserves the
// chosen name when the item should be enqueued.
//
// The returned entry is either an existing one (existing == true: dedup
// short-circuit, the caller must not enqueue) or a freshly reserved pending
// entry the caller owns (existing == false).
//
// Rules, in order:
//   - HashSentinel resolves to the SHA-256 hex digest of payload; any
//     existing entry under that digest, pending or completed, satisfies the
//     submission.
//   - A non-empty plain name with a completed entry short-circuits to it.
//   - A non-empty plain name with a pending entry is suffixed #0, #1, ...
//     picking the smallest unused suffix.
//   - The empty name is never deduplicated; later empty-name reservations
//     replace earlier ones in the store (each still resolves its own
//     waiters).
func (s *ResultStore) Resolve(queue, rawName string, payload []byte) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.queues[queue]
	if entries == nil {
		entries = make(map[string]*Entry)
		s.queues[queue] = entries
	}

	name := rawName
	switch {
	case rawName == HashSentinel:
		sum := sha256.Sum256(payload)
		name = hex.EncodeToString(sum[:])
		if e, ok := entries[name]; ok {
			return e, true
		}
	case rawName != "":
		if e, ok := entries[name]; ok {
			if e.Ready() && e.err == nil {
				return e, true
			}
			for i := 0; ; i++ {
				candidate := fmt.Sprintf("%s#%d", rawName, i)
				if _, taken := entries[candidate]; !taken {
					name = candidate
					break
				}
			}
		}
	}

	entry := newEntry(name)
	entries[name] = entry
	return entry, false
}

// Lookup returns the entry stored under (queue, name).
func (s *ResultStore) Lookup(queue, name string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.queues[queue][name]
	return e, ok
}

// Completed returns the finished results of a queue, keyed by logical name.
// Pending and failed entries are skipped.
func (s *ResultStore) Completed(queue string) map[string]tagger.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]tagger.Result)
	for name, e := range s.queues[queue] {
		if e.Ready() && e.err == nil {
			out[name] = e.res
		}
	}
	return out
}

// HasQueue reports whether any entry was ever stored under queue.
func (s *ResultStore) HasQueue(queue string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.queues[queue]
	return ok
}
