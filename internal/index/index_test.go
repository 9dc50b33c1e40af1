package index

import "testing"

func TestAddRemoveDropsEmptyBucket(t *testing.T) {
	x := New()
	x.Add("basket", "e1")
	x.Add("basket", "e2")
	x.Add("fb", "e3")

	if got := x.Count("basket"); got != 2 {
		t.Fatalf("count mismatch: got %d want 2", got)
	}

	x.Remove("basket", "e1")
	x.Remove("basket", "e2")

	if x.Len() != 1 {
		t.Fatalf("empty bucket not dropped: %d buckets", x.Len())
	}
	if x.Get("basket") != nil {
		t.Fatalf("expected nil for dropped bucket")
	}
	if !x.Has("fb", "e3") {
		t.Fatalf("unrelated bucket lost")
	}
}

func TestEmptyKeyIgnored(t *testing.T) {
	x := New()
	x.Add("", "e1")
	if x.Len() != 0 {
		t.Fatalf("empty key indexed")
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	x := New()
	x.Remove("nope", "e1")
	x.Add("k", "e1")
	x.Remove("k", "other")
	if !x.Has("k", "e1") {
		t.Fatalf("unrelated remove dropped member")
	}
}
