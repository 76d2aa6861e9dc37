// Package filter implements the comment admission chain (C7): an ordered
// sequence of predicates a Comment must pass before it reaches the track
// allocator. A predicate that rejects short-circuits the chain; no later
// predicate is consulted.
package filter

import (
	"github.com/fifth-light/danmaku-renderer/comment"
)

// Predicate reports whether c should be admitted. Returning false rejects
// the comment and halts the chain.
type Predicate func(c comment.Comment) bool

// Chain is an ordered list of predicates, evaluated in the order given to
// New. Order is caller-configured: a cheap predicate placed first can
// short-circuit before an expensive one runs.
type Chain struct {
	predicates []Predicate
}

// New builds a Chain that evaluates preds in order.
func New(preds ...Predicate) *Chain {
	return &Chain{predicates: preds}
}

// Accept runs c through the chain, stopping at the first predicate that
// rejects it. An empty chain accepts everything.
func (c *Chain) Accept(cm comment.Comment) bool {
	for _, p := range c.predicates {
		if !p(cm) {
			return false
		}
	}
	return true
}

// Len reports the number of predicates in the chain.
func (c *Chain) Len() int {
	return len(c.predicates)
}
