// Package track implements the per-motion lane allocator (C4). Each
// motion class owns an independent, growable pool of lanes; admitting a
// comment either reuses a lane whose prior occupant has vacated or opens
// a new one, never producing overlapping bounding boxes on the same
// lane (invariant 1 of the data model).
package track

import (
	"github.com/fifth-light/danmaku-renderer/comment"
)

// Config holds the screen and timing parameters the admission formulas
// need. It is shared by all motion classes.
type Config struct {
	// ScreenWidthPx is the playback surface width, used by the scroll
	// speed formula.
	ScreenWidthPx uint32

	// LineHeightPx is the vertical pitch between adjacent top/bottom
	// lanes.
	LineHeightPx uint32

	// LifetimeMs is the on-screen duration shared by every comment.
	LifetimeMs uint32

	// MaxTracksForMotion bounds the number of lanes opened per motion
	// class. A zero value means unbounded.
	MaxTracksForMotion int
}

// lane is one horizontal row reserved for a motion class.
type lane struct {
	occupied bool

	// tPrev and wPrev are the spawn time and width of the comment
	// currently holding this lane. They are retained (not just a single
	// freeAfterMs) because the scroll admission test depends on the
	// incoming comment's own width too.
	tPrev uint32
	wPrev uint32
}

func (l *lane) expiryMs(lifetimeMs uint32) uint32 {
	return l.tPrev + lifetimeMs
}

// Table is the track allocator for all three motion classes.
type Table struct {
	cfg Config

	lanes [3][]lane
}

// New builds an empty Table. Lanes are opened lazily as comments are
// admitted.
func New(cfg Config) *Table {
	return &Table{cfg: cfg}
}

// Rejected is returned by Admit when no lane is available and the motion
// class's lane pool is already at capacity.
type Rejected struct {
	Motion comment.Motion
}

func (e *Rejected) Error() string {
	return "track: no lane available for " + e.Motion.String()
}

// Admit assigns widthPx (the comment's rasterized advance) to a lane of
// the given motion class at time nowMs, returning the lane index. Callers
// must offer comments in non-decreasing nowMs order per invariant (4).
func (t *Table) Admit(m comment.Motion, widthPx uint32, nowMs uint32) (uint32, error) {
	switch m {
	case comment.MotionScroll:
		return t.admitScroll(widthPx, nowMs)
	case comment.MotionTop:
		return t.admitStatic(m, widthPx, nowMs, true)
	case comment.MotionBottom:
		return t.admitStatic(m, widthPx, nowMs, false)
	default:
		return 0, &Rejected{Motion: m}
	}
}

func (t *Table) admitScroll(widthPx, nowMs uint32) (uint32, error) {
	lanes := t.lanes[comment.MotionScroll]
	for i := range lanes {
		l := &lanes[i]
		if !l.occupied {
			l.occupied = true
			l.tPrev, l.wPrev = nowMs, widthPx
			return uint32(i), nil
		}
		if scrollLaneFree(*l, widthPx, nowMs, t.cfg) {
			l.tPrev, l.wPrev = nowMs, widthPx
			return uint32(i), nil
		}
	}
	if t.cfg.MaxTracksForMotion > 0 && len(lanes) >= t.cfg.MaxTracksForMotion {
		return 0, &Rejected{Motion: comment.MotionScroll}
	}
	lanes = append(lanes, lane{occupied: true, tPrev: nowMs, wPrev: widthPx})
	t.lanes[comment.MotionScroll] = lanes
	return uint32(len(lanes) - 1), nil
}

// scrollLaneFree implements the spec's sound, cheap admission test:
// free_after_ms = t_prev + max(w_prev/v_prev, lifetime_ms*(w_prev+w_new)/(screen_w+w_new)).
func scrollLaneFree(l lane, widthNew, nowMs uint32, cfg Config) bool {
	screenW := float64(cfg.ScreenWidthPx)
	lifetimeMs := float64(cfg.LifetimeMs)
	wPrev := float64(l.wPrev)
	wNew := float64(widthNew)

	vPrev := (screenW + wPrev) / lifetimeMs
	term1 := wPrev / vPrev
	term2 := lifetimeMs * (wPrev + wNew) / (screenW + wNew)

	freeAfter := float64(l.tPrev) + maxFloat(term1, term2)
	return float64(nowMs) >= freeAfter
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// admitStatic implements the top/bottom admission rule: a lane is free
// once its occupant has fully expired. lowestFirst selects the
// lowest-index free lane (top motion); otherwise the highest-index free
// lane is preferred (bottom motion), so earlier comments stay nearer
// their respective screen edge.
func (t *Table) admitStatic(m comment.Motion, widthPx, nowMs uint32, lowestFirst bool) (uint32, error) {
	lanes := t.lanes[m]

	if lowestFirst {
		for i := range lanes {
			if !lanes[i].occupied || nowMs >= lanes[i].expiryMs(t.cfg.LifetimeMs) {
				lanes[i] = lane{occupied: true, tPrev: nowMs, wPrev: widthPx}
				return uint32(i), nil
			}
		}
	} else {
		for i := len(lanes) - 1; i >= 0; i-- {
			if !lanes[i].occupied || nowMs >= lanes[i].expiryMs(t.cfg.LifetimeMs) {
				lanes[i] = lane{occupied: true, tPrev: nowMs, wPrev: widthPx}
				return uint32(i), nil
			}
		}
	}

	if t.cfg.MaxTracksForMotion > 0 && len(lanes) >= t.cfg.MaxTracksForMotion {
		return 0, &Rejected{Motion: m}
	}
	lanes = append(lanes, lane{occupied: true, tPrev: nowMs, wPrev: widthPx})
	t.lanes[m] = lanes
	if lowestFirst {
		return uint32(len(lanes) - 1), nil
	}
	return uint32(len(lanes) - 1), nil
}

// LaneCount reports the number of lanes opened so far for m.
func (t *Table) LaneCount(m comment.Motion) int {
	return len(t.lanes[m])
}
