package state

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_GetCreatesLazily(t *testing.T) {
	store := NewStore()

	st := store.Get("OpenAI")
	if st == nil {
		t.Fatal("Get() = nil")
	}
	if st.ETag != "" || st.LastModified != "" {
		t.Errorf("new state has validators: etag=%q last_modified=%q", st.ETag, st.LastModified)
	}
	if len(st.Seen) != 0 {
		t.Errorf("new state has %d seen entries, want 0", len(st.Seen))
	}

	// same instance on every access
	if store.Get("OpenAI") != st {
		t.Error("Get() returned a different instance on second access")
	}
}

func TestStore_CheckTransitions(t *testing.T) {
	store := NewStore()

	if got := store.Check("Anthropic", "incident-1", "t1"); got != New {
		t.Errorf("Check() with no history = %v, want New", got)
	}

	store.MarkSeen("Anthropic", "incident-1", "t1")

	if got := store.Check("Anthropic", "incident-1", "t1"); got != Unchanged {
		t.Errorf("Check() with same timestamp = %v, want Unchanged", got)
	}
	if got := store.Check("Anthropic", "incident-1", "t2"); got != Updated {
		t.Errorf("Check() with different timestamp = %v, want Updated", got)
	}

	// Check must not mutate: the recorded value is still t1
	if got := store.Check("Anthropic", "incident-1", "t1"); got != Unchanged {
		t.Errorf("Check() mutated state, second query = %v, want Unchanged", got)
	}
}

// Detection compares timestamp strings byte-for-byte, not as times. The
// same instant in another serialization counts as an update.
func TestStore_CheckComparesStringsNotTimes(t *testing.T) {
	store := NewStore()

	store.MarkSeen("OpenAI", "incident-1", "2025-06-15T10:30:00+00:00")

	if got := store.Check("OpenAI", "incident-1", "2025-06-15T10:30:00Z"); got != Updated {
		t.Errorf("Check() with re-serialized timestamp = %v, want Updated", got)
	}
}

func TestStore_ProvidersAreIndependent(t *testing.T) {
	store := NewStore()

	store.MarkSeen("OpenAI", "incident-1", "t1")

	if got := store.Check("Anthropic", "incident-1", "t1"); got != New {
		t.Errorf("Check() for other provider = %v, want New", got)
	}
}

func TestStore_UpdateValidators(t *testing.T) {
	store := NewStore()

	store.UpdateValidators("OpenAI", `"abc123"`, "Sun, 15 Jun 2025 10:30:00 GMT")

	st := store.Get("OpenAI")
	if st.ETag != `"abc123"` {
		t.Errorf("ETag = %q, want %q", st.ETag, `"abc123"`)
	}
	if st.LastModified != "Sun, 15 Jun 2025 10:30:00 GMT" {
		t.Errorf("LastModified = %q", st.LastModified)
	}

	// clearing with empty values is valid and intentional
	store.UpdateValidators("OpenAI", "", "")
	if st.ETag != "" || st.LastModified != "" {
		t.Errorf("validators not cleared: etag=%q last_modified=%q", st.ETag, st.LastModified)
	}
}

func TestStore_MarkSeenOverwrites(t *testing.T) {
	store := NewStore()

	store.MarkSeen("OpenAI", "incident-1", "t1")
	store.MarkSeen("OpenAI", "incident-1", "t2")

	if got := store.Check("OpenAI", "incident-1", "t2"); got != Unchanged {
		t.Errorf("Check() after overwrite = %v, want Unchanged", got)
	}
}

// TestStore_ConcurrentCreation exercises the lazy-creation path from many
// goroutines, one provider per goroutine as in production (value-level
// mutation stays single-writer). Run with: go test -race ./internal/state/...
func TestStore_ConcurrentCreation(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("provider-%d", i)
			store.Get(name)
			store.MarkSeen(name, "incident-1", "t1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("provider-%d", i)
		if st := store.Get(name); len(st.Seen) != 1 {
			t.Errorf("%s: %d seen entries, want 1", name, len(st.Seen))
		}
	}
}
