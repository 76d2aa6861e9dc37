package filter

import (
	"regexp"

	"github.com/fifth-light/danmaku-renderer/comment"
)

// RegexReject rejects any comment whose Text matches pattern. It compiles
// pattern once; a malformed pattern is a caller error and panics, matching
// regexp.MustCompile's own convention.
func RegexReject(pattern string) Predicate {
	re := regexp.MustCompile(pattern)
	return func(c comment.Comment) bool {
		return !re.MatchString(c.Text)
	}
}

// MinFontSize rejects comments whose FontSizePx is below min.
func MinFontSize(min float32) Predicate {
	return func(c comment.Comment) bool {
		return c.FontSizePx >= min
	}
}

// MaxFontSize rejects comments whose FontSizePx is above max.
func MaxFontSize(max float32) Predicate {
	return func(c comment.Comment) bool {
		return c.FontSizePx <= max
	}
}

// MaxLength rejects comments whose Text is longer than n runes.
func MaxLength(n int) Predicate {
	return func(c comment.Comment) bool {
		return len([]rune(c.Text)) <= n
	}
}
