package atlas

// shelf is one horizontal band of the atlas texture. Entries are placed
// left to right; nextX tracks the next free horizontal offset.
type shelf struct {
	y         uint32
	height    uint32
	nextX     uint32
	occupants int
}

// shelfAllocator implements first-fit shelf packing over a fixed-size
// texture, grounded on the same shelf/cursor model as a conventional
// texture-atlas rect allocator, extended with shelf reclamation: a
// shelf whose last occupant is evicted resets its cursor so future
// allocations can reuse the freed row instead of only ever growing
// downward.
type shelfAllocator struct {
	width, height uint32
	padding       uint32
	shelves       []shelf
}

func newShelfAllocator(width, height, padding uint32) *shelfAllocator {
	return &shelfAllocator{width: width, height: height, padding: padding}
}

type shelfRect struct {
	x, y, w, h uint32
	shelfIndex int
}

// allocate finds a shelf for (w, h), opening a new one if needed.
// ok is false if no shelf and no new shelf can fit the rectangle.
func (a *shelfAllocator) allocate(w, h uint32) (shelfRect, bool) {
	pw, ph := w+a.padding, h+a.padding
	if pw > a.width || ph > a.height {
		return shelfRect{}, false
	}

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.nextX+pw > a.width {
			continue
		}
		if ph > s.height && s.occupants > 0 {
			continue
		}
		rect := shelfRect{x: s.nextX, y: s.y, w: w, h: h, shelfIndex: i}
		s.nextX += pw
		if ph > s.height {
			s.height = ph
		}
		s.occupants++
		return rect, true
	}

	var newY uint32
	if n := len(a.shelves); n > 0 {
		last := a.shelves[n-1]
		newY = last.y + last.height
	}
	if newY+ph > a.height {
		return shelfRect{}, false
	}
	a.shelves = append(a.shelves, shelf{y: newY, height: ph, nextX: pw, occupants: 1})
	return shelfRect{x: 0, y: newY, w: w, h: h, shelfIndex: len(a.shelves) - 1}, true
}

// release marks one fewer occupant on shelfIndex. A shelf with no
// remaining occupants resets its cursor, reclaiming its horizontal span
// for the next allocation attempt.
func (a *shelfAllocator) release(shelfIndex int) {
	if shelfIndex < 0 || shelfIndex >= len(a.shelves) {
		return
	}
	s := &a.shelves[shelfIndex]
	s.occupants--
	if s.occupants <= 0 {
		s.occupants = 0
		s.nextX = 0
	}
}
