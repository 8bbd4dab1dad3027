package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"taggerd/internal/tagger"
)

func TestResolveReservesPlainName(t *testing.T) {
	store := NewResultStore()
	entry, existing := store.Resolve("q", "cat", nil)
	if existing {
		t.Fatal("expected a fresh reservation")
	}
	if entry.Name() != "cat" {
		t.Fatalf("unexpected name: %q", entry.Name())
	}
	if entry.Ready() {
		t.Fatal("fresh entry must be pending")
	}
}

func TestResolveSuffixesReservedNames(t *testing.T) {
	store := NewResultStore()
	names := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		entry, existing := store.Resolve("q", "cat", nil)
		if existing {
			t.Fatalf("submission %d: expected reservation, got dedup", i)
		}
		names = append(names, entry.Name())
	}
	want := []string{"cat", "cat#0", "cat#1"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("submission %d: got %q want %q", i, names[i], want[i])
		}
	}
}

func TestResolveSuffixPicksSmallestUnused(t *testing.T) {
	store := NewResultStore()
	store.Resolve("q", "cat", nil)   // cat
	store.Resolve("q", "cat", nil)   // cat#0
	store.Resolve("q", "cat#1", nil) // cat#1 taken directly
	entry, _ := store.Resolve("q", "cat", nil)
	if entry.Name() != "cat#2" {
		t.Fatalf("expected cat#2, got %q", entry.Name())
	}
}

func TestResolveCompletedPlainNameShortCircuits(t *testing.T) {
	store := NewResultStore()
	entry, _ := store.Resolve("q", "cat", nil)
	entry.complete(tagger.Result{Tags: map[string]float64{"cat": 0.9}})

	again, existing := store.Resolve("q", "cat", nil)
	if !existing {
		t.Fatal("expected dedup short-circuit on completed entry")
	}
	res, err := again.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Tags["cat"] != 0.9 {
		t.Fatalf("unexpected result: %#v", res.Tags)
	}
}

func TestResolveHashSentinel(t *testing.T) {
	payload := []byte("image-bytes")
	sum := sha256.Sum256(payload)
	wantName := hex.EncodeToString(sum[:])

	store := NewResultStore()
	entry, existing := store.Resolve("q", HashSentinel, payload)
	if existing {
		t.Fatal("first hash submission must reserve")
	}
	if entry.Name() != wantName {
		t.Fatalf("expected digest name %q, got %q", wantName, entry.Name())
	}

	// A pending hash entry satisfies resubmission; the caller attaches to it.
	again, existing := store.Resolve("q", HashSentinel, payload)
	if !existing {
		t.Fatal("expected resubmission to attach to the pending entry")
	}
	if again != entry {
		t.Fatal("expected the same entry instance")
	}
}

func TestHashEntriesAreQueueScoped(t *testing.T) {
	payload := []byte("image-bytes")
	store := NewResultStore()
	if _, existing := store.Resolve("q1", HashSentinel, payload); existing {
		t.Fatal("unexpected dedup in q1")
	}
	if _, existing := store.Resolve("q2", HashSentinel, payload); existing {
		t.Fatal("hash dedup must not cross queues")
	}
}

func TestEmptyNameNeverDedups(t *testing.T) {
	store := NewResultStore()
	first, existing := store.Resolve("q", "", nil)
	if existing {
		t.Fatal("empty name must always reserve")
	}
	second, existing := store.Resolve("q", "", nil)
	if existing {
		t.Fatal("empty name must always reserve")
	}
	if first == second {
		t.Fatal("expected distinct entries for repeated empty names")
	}
}

func TestFailedEntryResolvesWaiters(t *testing.T) {
	store := NewResultStore()
	entry, _ := store.Resolve("q", "doomed", nil)

	errBoom := errors.New("boom")
	go entry.fail(errBoom)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := entry.Wait(ctx)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected failure to propagate, got %v", err)
	}
}

func TestCompletedSkipsPendingAndFailed(t *testing.T) {
	store := NewResultStore()
	done, _ := store.Resolve("q", "done", nil)
	done.complete(tagger.Result{Ratings: map[string]float64{"general": 1}})
	store.Resolve("q", "pending", nil)
	failed, _ := store.Resolve("q", "failed", nil)
	failed.fail(errors.New("nope"))

	completed := store.Completed("q")
	if len(completed) != 1 {
		t.Fatalf("expected exactly one completed entry, got %d", len(completed))
	}
	if _, ok := completed["done"]; !ok {
		t.Fatal("missing completed entry")
	}
}
