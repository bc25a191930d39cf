package state

import "sync"

// Change classifies an entry relative to the store's memory of it.
type Change int

const (
	// Unchanged means the entry id is known and its updated timestamp
	// string matches the recorded one.
	Unchanged Change = iota

	// New means the entry id has never been seen for this provider.
	New

	// Updated means the entry id is known but its updated timestamp string
	// differs from the recorded one.
	Updated
)

// String returns a short label for the change, useful in logs.
func (c Change) String() string {
	switch c {
	case New:
		return "new"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// ProviderState is the mutable memory kept for a single provider: the HTTP
// cache validators from the last full response, and the updated timestamp
// string recorded for every entry id seen so far.
//
// Ownership contract: each ProviderState is mutated only by the one polling
// goroutine that owns its provider, so the fields carry no lock. The store
// guards only the creation path, where goroutines share the provider map.
type ProviderState struct {
	// ETag is the opaque validator from the last response, empty when the
	// server sent none.
	ETag string

	// LastModified is the verbatim Last-Modified header value, empty when
	// the server sent none.
	LastModified string

	// Seen maps entry id to the last recorded updated timestamp string.
	// It grows for the life of the process; there is no eviction.
	Seen map[string]string
}

// Store holds the state of every provider, created lazily on first access.
type Store struct {
	mu     sync.Mutex
	states map[string]*ProviderState
}

// NewStore creates an empty [Store].
func NewStore() *Store {
	return &Store{states: make(map[string]*ProviderState)}
}

// Get returns the state for provider, creating it on first access.
// Get never fails and always returns the same instance for a given name.
func (s *Store) Get(provider string) *ProviderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[provider]
	if !ok {
		st = &ProviderState{Seen: make(map[string]string)}
		s.states[provider] = st
	}
	return st
}

// UpdateValidators overwrites the stored cache validators for provider.
// Empty values are stored as-is: a server that stops sending caching
// headers clears them intentionally.
func (s *Store) UpdateValidators(provider, etag, lastModified string) {
	st := s.Get(provider)
	st.ETag = etag
	st.LastModified = lastModified
}

// Check classifies an entry without mutating anything. It returns [New]
// when the id is unknown, [Updated] when the recorded timestamp string
// differs from updated, and [Unchanged] otherwise.
//
// The comparison is byte-for-byte string equality, not a semantic time
// comparison: a feed that re-serializes the same instant in a different
// textual form reports [Updated]. That is the detection contract, matching
// the upstream feeds' stable serialization.
//
// Callers must Check before [Store.MarkSeen]; MarkSeen overwrites the value
// Check compares against.
func (s *Store) Check(provider, entryID, updated string) Change {
	st := s.Get(provider)
	recorded, ok := st.Seen[entryID]
	if !ok {
		return New
	}
	if recorded != updated {
		return Updated
	}
	return Unchanged
}

// MarkSeen records updated as the timestamp string for entryID,
// unconditionally overwriting any previous value.
func (s *Store) MarkSeen(provider, entryID, updated string) {
	st := s.Get(provider)
	st.Seen[entryID] = updated
}
