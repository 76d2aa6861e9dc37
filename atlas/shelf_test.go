package atlas

import "testing"

func TestShelfAllocatorFirstFit(t *testing.T) {
	a := newShelfAllocator(10, 10, 0)
	r1, ok := a.allocate(4, 3)
	if !ok || r1.x != 0 || r1.y != 0 {
		t.Fatalf("first allocation = %+v, ok=%v", r1, ok)
	}
	r2, ok := a.allocate(4, 3)
	if !ok || r2.x != 4 || r2.y != 0 {
		t.Fatalf("second allocation should share the first shelf: %+v, ok=%v", r2, ok)
	}
}

func TestShelfAllocatorOpensNewShelf(t *testing.T) {
	a := newShelfAllocator(4, 10, 0)
	r1, _ := a.allocate(4, 3)
	r2, ok := a.allocate(4, 3)
	if !ok || r2.y != r1.y+3 {
		t.Fatalf("expected a new shelf below the first, got %+v", r2)
	}
}

func TestShelfAllocatorFailsWhenFull(t *testing.T) {
	a := newShelfAllocator(4, 3, 0)
	if _, ok := a.allocate(4, 3); !ok {
		t.Fatal("expected the first rectangle to fit")
	}
	if _, ok := a.allocate(4, 3); ok {
		t.Fatal("expected no room for a second rectangle")
	}
}

func TestShelfAllocatorReleaseReclaimsWholeShelf(t *testing.T) {
	a := newShelfAllocator(4, 3, 0)
	r, ok := a.allocate(4, 3)
	if !ok {
		t.Fatal("expected allocation to succeed")
	}
	a.release(r.shelfIndex)
	r2, ok := a.allocate(4, 3)
	if !ok || r2.shelfIndex != r.shelfIndex {
		t.Fatalf("expected the reclaimed shelf to be reused, got %+v ok=%v", r2, ok)
	}
}
