package store

import (
	"sync"
	"time"
)

type ExpiryStatus int

const (
	// ExpNotFound means that the key does not exist
	ExpNotFound ExpiryStatus = -2
	// ExpNoTimeout means that the key exists, but it does not have a TTL
	ExpNoTimeout ExpiryStatus = -1
	// ExpActive means that the key has an active lifetime
	ExpActive ExpiryStatus = 1
)

// Entry is a stored value plus its optional absolute expiry instant
type Entry struct {
	Value     []byte
	ExpiresAt time.Time // zero when the entry never expires
}

func (e Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Store is a shared map from keys to entries, safe for concurrent use.
// Every operation runs as one critical section under a single mutex, so
// no caller can observe a half-evicted or half-written entry. Expired
// entries are evicted lazily on the read path; there is no background
// sweep, so an expired-but-unread key holds memory until its next read.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// New creates an empty store. The returned pointer is the shared handle:
// hand the same one to every connection
func New() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Get returns the value and true if the key holds a live entry.
// An entry found past its deadline is removed in the same operation
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}

	if entry.expired(time.Now()) {
		delete(s.entries, key)
		return nil, false
	}

	return entry.Value, true
}

// Set inserts or overwrites the entry. A ttl <= 0 stores it without an
// expiry, dropping any expiry a previous entry under the key carried
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	entry := Entry{Value: value}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
}

// Delete removes the key. Returns true if a live entry existed
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false
	}

	delete(s.entries, key)
	return !entry.expired(time.Now())
}

// Exists reports whether the key holds a live entry, evicting it if the
// deadline has passed
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false
	}

	if entry.expired(time.Now()) {
		delete(s.entries, key)
		return false
	}

	return true
}

// TTL returns the remaining lifetime and its status
func (s *Store) TTL(key string) (time.Duration, ExpiryStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return 0, ExpNotFound
	}

	if entry.ExpiresAt.IsZero() {
		return 0, ExpNoTimeout
	}

	remaining := time.Until(entry.ExpiresAt)
	if remaining <= 0 {
		delete(s.entries, key)
		return 0, ExpNotFound
	}

	return remaining, ExpActive
}

// Len reports the number of entries currently held, including expired
// entries that have not been read since their deadline
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
