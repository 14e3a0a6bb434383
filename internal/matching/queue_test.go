package matching

import (
	"reflect"
	"testing"
)

func alwaysLive(string) bool        { return true }
func neverBlocked(a, b string) bool { return false }

func TestEnqueue_Duplicate(t *testing.T) {
	q := New()

	if !q.Enqueue("a") {
		t.Fatal("first enqueue should succeed")
	}
	if q.Enqueue("a") {
		t.Error("duplicate enqueue should be a no-op")
	}
	if q.Len() != 1 {
		t.Errorf("queue length = %d, want 1", q.Len())
	}
}

func TestRemove_PreservesOrder(t *testing.T) {
	q := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		q.Enqueue(id)
	}

	if !q.Remove("b") {
		t.Fatal("remove of queued id should succeed")
	}
	if q.Remove("b") {
		t.Error("second remove should report not found")
	}

	want := []string{"a", "c", "d"}
	if got := q.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("queue order = %v, want %v", got, want)
	}
}

func TestMatch_FIFOPairs(t *testing.T) {
	q := New()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		q.Enqueue(id)
	}

	pairs := q.Match(alwaysLive, neverBlocked)

	want := []Pair{{A: "a", B: "b"}, {A: "c", B: "d"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("pairs = %v, want %v", pairs, want)
	}
	if !q.Contains("e") || q.Len() != 1 {
		t.Errorf("odd user out should remain queued, got %v", q.IDs())
	}
}

func TestMatch_DropsVanishedIDs(t *testing.T) {
	q := New()
	for _, id := range []string{"gone1", "a", "gone2", "b"} {
		q.Enqueue(id)
	}

	live := func(id string) bool { return id == "a" || id == "b" }
	pairs := q.Match(live, neverBlocked)

	want := []Pair{{A: "a", B: "b"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("pairs = %v, want %v", pairs, want)
	}
	// Vanished ids must not be re-inserted.
	if q.Len() != 0 {
		t.Errorf("queue should be empty, got %v", q.IDs())
	}
}

func TestMatch_BlockedPairDeferredToTail(t *testing.T) {
	q := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		q.Enqueue(id)
	}

	blocked := func(x, y string) bool { return x == "a" && y == "b" }
	pairs := q.Match(alwaysLive, blocked)

	// The pass stops at the blocked pair; c and d are not examined.
	if len(pairs) != 0 {
		t.Errorf("expected no pairs, got %v", pairs)
	}
	want := []string{"c", "d", "a", "b"}
	if got := q.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("queue after deferral = %v, want %v", got, want)
	}
}

func TestMatch_MutualBlockNoLivelock(t *testing.T) {
	q := New()
	q.Enqueue("a")
	q.Enqueue("b")

	blocked := func(x, y string) bool { return true }

	// Each pass must terminate without pairing them and leave both queued.
	for i := 0; i < 3; i++ {
		pairs := q.Match(alwaysLive, blocked)
		if len(pairs) != 0 {
			t.Fatalf("pass %d: blocked users were paired: %v", i, pairs)
		}
		if q.Len() != 2 {
			t.Fatalf("pass %d: queue length = %d, want 2", i, q.Len())
		}
	}

	// Relative order is preserved across deferrals.
	want := []string{"a", "b"}
	if got := q.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("queue order = %v, want %v", got, want)
	}
}

func TestMatch_ContinuesAfterSuccess(t *testing.T) {
	q := New()
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		q.Enqueue(id)
	}

	pairs := q.Match(alwaysLive, neverBlocked)
	if len(pairs) != 3 {
		t.Errorf("expected 3 pairs from one pass, got %d", len(pairs))
	}
	if q.Len() != 0 {
		t.Errorf("queue should be drained, got %v", q.IDs())
	}
}

func TestMatch_SurvivorStaysWhenPartnerCandidateVanished(t *testing.T) {
	q := New()
	q.Enqueue("a")
	q.Enqueue("gone")

	live := func(id string) bool { return id == "a" }
	pairs := q.Match(live, neverBlocked)

	if len(pairs) != 0 {
		t.Errorf("expected no pairs, got %v", pairs)
	}
	want := []string{"a"}
	if got := q.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("queue = %v, want %v (live user keeps its slot)", got, want)
	}
}
