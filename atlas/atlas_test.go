package atlas

import (
	"errors"
	"testing"

	"github.com/fifth-light/danmaku-renderer/text"
)

func rc1x1() text.RasterizedComment {
	return text.RasterizedComment{Bitmap: []uint8{255}, Width: 1, Height: 1}
}

func TestInternReusesExistingEntry(t *testing.T) {
	a := New(Config{WidthPx: 4, HeightPx: 4, LowWaterMark: 0})
	e1, err := a.Intern("hello", rc1x1(), 0)
	if err != nil {
		t.Fatalf("Intern() = %v", err)
	}
	e2, err := a.Intern("hello", rc1x1(), 5)
	if err != nil {
		t.Fatalf("Intern() = %v", err)
	}
	if e1 != e2 {
		t.Fatal("expected the same Entry for a repeated key")
	}
}

func TestPinPreventsEviction(t *testing.T) {
	a := New(Config{WidthPx: 1, HeightPx: 1, LowWaterMark: 1})
	e, err := a.Intern("x", rc1x1(), 0)
	if err != nil {
		t.Fatalf("Intern() = %v", err)
	}
	a.Pin(e)
	a.Sweep(100)
	if _, ok := a.entries["x"]; !ok {
		t.Fatal("pinned entry must not be evicted")
	}
}

// TestAtlasEvictionScenario mirrors the spec's scenario 4: capacity
// limited to 3 one-texel entries, grace=0. Intern A, B, C, D with A
// unpinned (finished) before D arrives; A is evicted, B/C/D resident;
// re-interning A afterward fails with ErrFull since A's old rect was
// reused by D and B/C/D are all live and pinned.
func TestAtlasEvictionScenario(t *testing.T) {
	a := New(Config{WidthPx: 1, HeightPx: 3, Padding: 0, GraceFrames: 0, LowWaterMark: 1})

	entA, err := a.Intern("A", rc1x1(), 0)
	if err != nil {
		t.Fatalf("intern A: %v", err)
	}
	entB, err := a.Intern("B", rc1x1(), 0)
	if err != nil {
		t.Fatalf("intern B: %v", err)
	}
	entC, err := a.Intern("C", rc1x1(), 0)
	if err != nil {
		t.Fatalf("intern C: %v", err)
	}
	a.Pin(entA)
	a.Pin(entB)
	a.Pin(entC)
	// A's comment finishes; it becomes evictable.
	a.Unpin(entA)

	entD, err := a.Intern("D", rc1x1(), 1)
	if err != nil {
		t.Fatalf("intern D: %v", err)
	}
	a.Pin(entD)

	if _, ok := a.entries["A"]; ok {
		t.Fatal("expected A to have been evicted to make room for D")
	}
	for _, key := range []string{"B", "C", "D"} {
		if _, ok := a.entries[key]; !ok {
			t.Fatalf("expected %s to remain resident", key)
		}
	}

	_, err = a.Intern("A", rc1x1(), 2)
	if !errors.Is(err, ErrFull) {
		t.Fatalf("re-interning A with no evictable entries: got %v, want ErrFull", err)
	}
}

func TestInternWritesGlyphCanvas(t *testing.T) {
	a := New(Config{WidthPx: 4, HeightPx: 4, LowWaterMark: 0})
	e, err := a.Intern("x", text.RasterizedComment{Bitmap: []uint8{10, 20, 30, 40}, Width: 2, Height: 2}, 0)
	if err != nil {
		t.Fatalf("Intern() = %v", err)
	}
	uv := e.UV()
	canvas := a.GlyphCanvas()
	if canvas[uv.V*a.Width()+uv.U] != 10 {
		t.Fatalf("expected glyph canvas to contain uploaded bitmap at its rect origin, got %d", canvas[uv.V*a.Width()+uv.U])
	}
}

func TestUnpinMakesEntryEvictable(t *testing.T) {
	a := New(Config{WidthPx: 1, HeightPx: 1, LowWaterMark: 1})
	e, _ := a.Intern("x", rc1x1(), 0)
	a.Pin(e)
	a.Sweep(0)
	if _, ok := a.entries["x"]; !ok {
		t.Fatal("pinned entry evicted prematurely")
	}
	a.Unpin(e)
	a.Sweep(0)
	if _, ok := a.entries["x"]; ok {
		t.Fatal("unpinned entry should be evictable")
	}
}

func TestGraceWindowDelaysEviction(t *testing.T) {
	a := New(Config{WidthPx: 1, HeightPx: 1, GraceFrames: 10, LowWaterMark: 1})
	e, _ := a.Intern("x", rc1x1(), 0)
	a.Pin(e)
	a.Unpin(e)

	a.Sweep(5)
	if _, ok := a.entries["x"]; !ok {
		t.Fatal("entry evicted before its grace window elapsed")
	}

	a.Sweep(10)
	if _, ok := a.entries["x"]; ok {
		t.Fatal("entry should be evictable once the grace window has elapsed")
	}
}
