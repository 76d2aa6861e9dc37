// Package instance implements the GPU instance buffer assembler (C5): a
// growable array of per-comment instance records, ordered by
// spawn_time_ms, that is bound wholesale to a single instanced draw call.
package instance

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/fifth-light/danmaku-renderer/comment"
)

// Config mirrors the renderer's screen geometry, needed to compute each
// record's static offset at push time.
type Config struct {
	ScreenWidthPx  uint32
	ScreenHeightPx uint32
	LineHeightPx   uint32
	LifetimeMs     uint32
}

// Record is the GPU instance attribute layout described in the external
// interfaces contract: location order time, motion, track, line_width,
// offset_xy, atlas_uv, color. Field order here matches that location
// order; Encode below matches the std140-compatible byte layout.
type Record struct {
	TimeMs      uint32
	Motion      uint32
	Track       uint32
	LineWidthPx uint32
	OffsetX     int32
	OffsetY     int32
	AtlasU      uint32
	AtlasV      uint32
	ColorR      float32
	ColorG      float32
	ColorB      float32
}

// recordSize is the encoded byte size of one Record: 4 u32 + 2 i32 + 2
// u32 + 3 f32, all 4 bytes wide.
const recordSize = 4 * 11

// Encode appends the little-endian byte encoding of r to dst.
func (r Record) Encode(dst []byte) []byte {
	var buf [recordSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], r.TimeMs)
	binary.LittleEndian.PutUint32(buf[4:8], r.Motion)
	binary.LittleEndian.PutUint32(buf[8:12], r.Track)
	binary.LittleEndian.PutUint32(buf[12:16], r.LineWidthPx)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(r.OffsetX))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(r.OffsetY))
	binary.LittleEndian.PutUint32(buf[24:28], r.AtlasU)
	binary.LittleEndian.PutUint32(buf[28:32], r.AtlasV)
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(r.ColorR))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(r.ColorG))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(r.ColorB))
	return append(dst, buf[:]...)
}

// entry pairs a Record with the originating id and expiry, so compact
// can drop it and the caller can unpin its atlas entry.
type entry struct {
	id       uint64
	expiry   uint32
	atlasKey comment.AtlasRect
	rec      Record
}

// Buffer is the growable, spawn-time-ordered instance array.
type Buffer struct {
	cfg     Config
	entries []entry
}

// New builds an empty Buffer for the given screen configuration.
func New(cfg Config) *Buffer {
	return &Buffer{cfg: cfg}
}

// Push inserts live's instance record in spawn_time_ms order. Most
// pushes land at or near the end because admission preserves
// non-decreasing spawn_time_ms per stream; a binary search keeps
// cross-stream interleaving correct without a full sort.
func (b *Buffer) Push(live comment.LiveComment) {
	offX, offY := staticOffset(live.Motion, live.TrackIndex, live.LineWidthPx, b.cfg)
	e := entry{
		id:       live.ID,
		expiry:   live.SpawnTimeMs + b.cfg.LifetimeMs,
		atlasKey: live.AtlasUV,
		rec: Record{
			TimeMs:      live.SpawnTimeMs,
			Motion:      uint32(live.Motion),
			Track:       live.TrackIndex,
			LineWidthPx: live.LineWidthPx,
			OffsetX:     offX,
			OffsetY:     offY,
			AtlasU:      live.AtlasUV.U,
			AtlasV:      live.AtlasUV.V,
			ColorR:      live.Color.R,
			ColorG:      live.Color.G,
			ColorB:      live.Color.B,
		},
	}
	idx := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].rec.TimeMs > live.SpawnTimeMs
	})
	b.entries = append(b.entries, entry{})
	copy(b.entries[idx+1:], b.entries[idx:])
	b.entries[idx] = e
}

// staticOffset computes the per-instance offset_xy attribute: the part
// of on-screen placement that does not depend on the current clock.
// Scroll comments carry only the lane's vertical offset, since their
// horizontal position is a function of time computed in the vertex
// shader; top/bottom comments are static, so both axes are fixed here.
func staticOffset(m comment.Motion, track, lineWidthPx uint32, cfg Config) (int32, int32) {
	switch m {
	case comment.MotionTop:
		return int32(cfg.ScreenWidthPx-lineWidthPx) / 2, int32((track + 1) * cfg.LineHeightPx)
	case comment.MotionBottom:
		y := int32(cfg.ScreenHeightPx) - int32((track+1)*cfg.LineHeightPx)
		return int32(cfg.ScreenWidthPx-lineWidthPx) / 2, y
	default: // MotionScroll
		return 0, int32(track * cfg.LineHeightPx)
	}
}

// Compact drops every record whose spawn_time_ms+lifetime_ms has passed
// nowMs, returning the atlas rectangles of the expired records so the
// caller can unpin them. Compact is idempotent: calling it twice with
// the same nowMs after the first call is a no-op.
func (b *Buffer) Compact(nowMs uint32) []comment.AtlasRect {
	var expired []comment.AtlasRect
	live := b.entries[:0]
	for _, e := range b.entries {
		if e.expiry <= nowMs {
			expired = append(expired, e.atlasKey)
			continue
		}
		live = append(live, e)
	}
	b.entries = live
	return expired
}

// Len reports the number of live records currently held.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Count satisfies the renderer's InstanceSource structural interface.
func (b *Buffer) Count() uint32 {
	return uint32(len(b.entries))
}

// Records returns a copy of the currently live records, in
// spawn_time_ms order, for a CPU backend to composite directly.
func (b *Buffer) Records() []Record {
	out := make([]Record, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.rec
	}
	return out
}

// LifetimeMs returns the configured comment lifetime, needed by a CPU
// backend to derive each record's animation progress.
func (b *Buffer) LifetimeMs() uint32 {
	return b.cfg.LifetimeMs
}

// Bytes encodes every record, in spawn_time_ms order, into a single
// little-endian buffer suitable for GPU upload.
func (b *Buffer) Bytes() []byte {
	buf := make([]byte, 0, len(b.entries)*recordSize)
	for _, e := range b.entries {
		buf = e.rec.Encode(buf)
	}
	return buf
}

// BufferHandle satisfies the renderer's InstanceSource structural
// interface; the CPU-only path never calls it, so it hands back the
// encoded bytes as an opaque value for a GPU backend to upload.
func (b *Buffer) BufferHandle() any {
	return b.Bytes()
}
