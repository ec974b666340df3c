package dispatch

import "reflect"

// Per-position match quality. An exact type match strictly outranks an
// assignable (subtype) match, which strictly outranks a predicate match.
const (
	rankPredicate = iota
	rankAssignable
	rankExact
)

// specificity is a per-position match quality vector. Vectors for the same
// call always have equal length (one component per argument), and are
// compared lexicographically left to right: earlier positions dominate.
// Summing ranks instead would wrongly equate "exact-then-generic" with
// "generic-then-exact".
type specificity []int

// compare returns 1 if s ranks above o, -1 if below, 0 on a genuine tie.
func (s specificity) compare(o specificity) int {
	for i := range s {
		if s[i] > o[i] {
			return 1
		}
		if s[i] < o[i] {
			return -1
		}
	}
	return 0
}

// match is the pure applicability check: it reports whether every argument
// satisfies its positional constraint and, if so, the specificity of the
// match. Arity mismatches never match.
func match(e *Entry, args []any) (specificity, bool) {
	if len(args) != len(e.sig) {
		return nil, false
	}

	spec := make(specificity, len(args))
	for i, c := range e.sig {
		if !c.satisfiedBy(args[i]) {
			return nil, false
		}
		switch c.kind {
		case KindExact:
			spec[i] = rankExact
		case KindAssignable:
			spec[i] = rankAssignable
		case KindPredicate:
			spec[i] = rankPredicate
		}
	}
	return spec, true
}

// argTypeNames renders the dynamic types of a call's arguments for
// diagnostics.
func argTypeNames(args []any) []string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = typeName(reflect.TypeOf(a))
	}
	return names
}
