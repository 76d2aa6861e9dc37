package filter

import (
	"hash/fnv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/fifth-light/danmaku-renderer/comment"
)

// DuplicateSuppressor rejects a comment whose normalized text was already
// seen within WindowMs. Normalization case-folds and trims the text so
// that near-identical spam ("LOL", "lol", " lol ") collapses to one hash.
//
// DuplicateSuppressor is stateful and is meant to be driven by the
// single-threaded admission path described for the filter chain; it is
// not safe for concurrent use from multiple streams without external
// synchronization.
type DuplicateSuppressor struct {
	windowMs uint32
	folder   cases.Caser
	seen     map[uint64]uint32
}

// NewDuplicateSuppressor builds a suppressor that rejects repeated text
// within windowMs of its prior occurrence, keyed on SpawnTimeMs.
func NewDuplicateSuppressor(windowMs uint32) *DuplicateSuppressor {
	return &DuplicateSuppressor{
		windowMs: windowMs,
		folder:   cases.Fold(),
		seen:     make(map[uint64]uint32),
	}
}

// Predicate returns the Predicate closure bound to this suppressor's
// state. Comments must be offered in non-decreasing SpawnTimeMs order,
// matching the admission path's own ordering guarantee.
func (d *DuplicateSuppressor) Predicate() Predicate {
	return func(c comment.Comment) bool {
		key := dedupHash(strings.TrimSpace(d.folder.String(c.Text)))
		if last, ok := d.seen[key]; ok && c.SpawnTimeMs-last <= d.windowMs {
			return false
		}
		d.seen[key] = c.SpawnTimeMs
		return true
	}
}

// Sweep discards tracked entries older than horizonMs before nowMs,
// bounding the suppressor's memory to the active dedup window.
func (d *DuplicateSuppressor) Sweep(nowMs, horizonMs uint32) {
	cutoff := nowMs - horizonMs
	for k, t := range d.seen {
		if t < cutoff {
			delete(d.seen, k)
		}
	}
}

// dedupHash computes an FNV-1a hash of the normalized comment text used
// as the key into d.seen. A map[string]uint32 would work just as well,
// but fixing the key width to uint64 keeps the dedup window's memory
// bounded regardless of how long individual comments run.
func dedupHash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}
