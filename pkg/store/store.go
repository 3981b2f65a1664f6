// Package store provides the shared in-memory key-value map backing all
// GET/SET/DEL/CLR operations.
//
// A Store maps string keys to string values and is safe for simultaneous
// access by many connection goroutines. Each operation is individually
// atomic: a concurrent reader never observes a partially-applied write.
// Cross-key atomicity is not provided (there are no multi-key transactions).
//
// The Store is constructed once at startup and shared by reference with
// every connection handler; there is no package-level singleton. Entries
// never expire: they are created and overwritten by Set, removed
// individually by Del, and removed en masse by Clear.
//
// Example usage:
//
//	s := store.New()
//	s.Set("user:123", "john_doe")
//	if value, ok := s.Get("user:123"); ok {
//		fmt.Printf("user: %s\n", value)
//	}
//
// All operations complete in a short critical section and cannot fail;
// absence of a key is reported as a normal boolean, not an error.
package store

import "sync"

// Store is a concurrent string-to-string map.
// It must not be copied after first use; share it by pointer.
//
// Example:
//
//	s := store.New()
//	prev, existed := s.Set("key", "value")
type Store struct {
	data map[string]string // The actual key-value storage
	mu   sync.RWMutex      // Protects the data map
}

// New creates an empty Store ready for concurrent use.
//
// Returns:
//   - A new Store instance ready for use
func New() *Store {
	return &Store{
		data: make(map[string]string),
	}
}

// Get retrieves the value stored under key.
// It has no side effects.
//
// Example:
//
//	if value, ok := s.Get("greeting"); ok {
//		fmt.Printf("greeting: %s\n", value)
//	}
//
// Returns:
//   - The value if the key is present
//   - Boolean indicating if the key exists
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.data[key]
	return value, exists
}

// Set stores value under key, inserting or overwriting.
// When racing writers target the same key the last write wins; the
// Store's internal synchronization decides the order.
//
// Example:
//
//	prev, existed := s.Set("counter", "1")
//	// existed is false on first insert, true on overwrite
//
// Returns:
//   - The previous value, if the key was already present
//   - Boolean indicating if a previous value existed
func (s *Store) Set(key, value string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.data[key]
	s.data[key] = value
	return prev, existed
}

// Del removes key from the Store if present.
// Deleting an absent key is not an error; it simply reports absence,
// so Del is idempotent.
//
// Example:
//
//	if removed, existed := s.Del("temp"); existed {
//		fmt.Printf("removed: %s\n", removed)
//	}
//
// Returns:
//   - The removed value, if the key was present
//   - Boolean indicating if anything was removed
func (s *Store) Del(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, existed := s.data[key]
	if existed {
		delete(s.data, key)
	}
	return removed, existed
}

// Clear removes every entry from the Store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.data)
}

// Len reports the current number of entries.
// Useful for log lines and tests; the count may be stale by the time
// the caller acts on it.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
