package cache

import (
	"testing"
	"time"

	"github.com/cortexguard/secure-rag/services/retrieval"
)

func TestGetSet_NormalizesQueryForFingerprint(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("How do I reset my password?", Entry{Response: "Go to settings."})

	got, ok := c.Get("  how   do i reset  my PASSWORD?  ")
	if !ok {
		t.Fatalf("expected cache hit for normalized-equivalent query")
	}
	if got.Response != "Go to settings." {
		t.Fatalf("Response = %q, want %q", got.Response, "Go to settings.")
	}
}

func TestGet_MissOnUnseenQuery(t *testing.T) {
	c := New(time.Minute, 10)
	if _, ok := c.Get("never asked this"); ok {
		t.Fatalf("expected cache miss")
	}
	if c.Misses() != 1 {
		t.Fatalf("Misses() = %d, want 1", c.Misses())
	}
}

func TestGet_ExpiredEntryIsEvicted(t *testing.T) {
	c := New(time.Millisecond, 10)
	c.Set("q", Entry{Response: "r"})
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("q"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Fatalf("Size() = %d, want 0 after expiry eviction", c.Size())
	}
}

func TestSet_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c := New(time.Minute, 2)
	c.Set("a", Entry{Response: "a"})
	c.Set("b", Entry{Response: "b"})
	c.Get("a") // touch a, making b the LRU entry
	c.Set("c", Entry{Response: "c"})

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected c to be present")
	}
}

func TestHitRate(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("q", Entry{Response: "r", Sources: []retrieval.SourceReference{{Filename: "a.md"}}})
	c.Get("q")
	c.Get("missing")
	if rate := c.HitRate(); rate != 0.5 {
		t.Fatalf("HitRate() = %v, want 0.5", rate)
	}
}
