package dispatch

import (
	"fmt"
	"strings"
)

// Signature is an ordered sequence of per-argument constraints. Arity is
// fixed at registration time: a call matches only when it supplies exactly
// one argument per constraint.
type Signature []Constraint

// Sig builds a Signature from constraints, in positional order.
func Sig(constraints ...Constraint) Signature {
	return Signature(constraints)
}

// Arity returns the number of positional arguments the signature expects.
func (s Signature) Arity() int { return len(s) }

// Equal reports whether two signatures are identical position by position.
func (s Signature) Equal(o Signature) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].equal(o[i]) {
			return false
		}
	}
	return true
}

// String renders the signature like "(Circle, ~Shape, pred(positive))".
func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (s Signature) validate() error {
	for i, c := range s {
		if err := c.validate(); err != nil {
			return fmt.Errorf("position %d: %w", i, err)
		}
	}
	return nil
}

func (s Signature) clone() Signature {
	out := make(Signature, len(s))
	copy(out, s)
	return out
}

// hasPredicate reports whether any position is predicate-constrained.
// Predicate matches depend on argument values, not just types, which makes
// type-keyed resolution caching unsound for such signatures.
func (s Signature) hasPredicate() bool {
	for _, c := range s {
		if c.kind == KindPredicate {
			return true
		}
	}
	return false
}
