package dispatch

import (
	"fmt"
	"reflect"
)

// ConstraintKind discriminates the three ways a positional argument can be
// constrained.
type ConstraintKind int

const (
	// KindExact matches when the argument's dynamic type is identical to
	// the constraint type.
	KindExact ConstraintKind = iota
	// KindAssignable matches when the argument's dynamic type is assignable
	// to the constraint type (typically an interface the type implements).
	KindAssignable
	// KindPredicate matches when the predicate reports true for the
	// argument value.
	KindPredicate
)

func (k ConstraintKind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindAssignable:
		return "assignable"
	case KindPredicate:
		return "predicate"
	default:
		return "unknown"
	}
}

// Predicate decides whether an argument value satisfies a constraint.
// Predicates must be pure: the resolver may evaluate them any number of
// times for the same call.
type Predicate func(arg any) bool

// Constraint restricts one positional argument of a signature.
// The zero value is invalid; use the constructors.
type Constraint struct {
	kind ConstraintKind
	typ  reflect.Type
	pred Predicate
	desc string
}

// Exact returns a constraint matching arguments whose dynamic type is
// exactly T. T should be a concrete type: no value's dynamic type is an
// interface type, so Exact of an interface never matches.
func Exact[T any]() Constraint {
	return ExactType(typeFor[T]())
}

// ExactType is the non-generic form of Exact.
func ExactType(t reflect.Type) Constraint {
	return Constraint{kind: KindExact, typ: t, desc: typeName(t)}
}

// AssignableTo returns a constraint matching arguments whose dynamic type
// is assignable to T. With an interface T this accepts every implementation,
// which is the "accept subtypes" relation.
func AssignableTo[T any]() Constraint {
	return AssignableToType(typeFor[T]())
}

// AssignableToType is the non-generic form of AssignableTo.
func AssignableToType(t reflect.Type) Constraint {
	return Constraint{kind: KindAssignable, typ: t, desc: typeName(t)}
}

// Satisfies returns a constraint matching arguments for which pred reports
// true. The description identifies the constraint in signature rendering
// and in signature equality: two predicate constraints are considered equal
// when their descriptions are equal, since function values cannot be
// compared.
func Satisfies(desc string, pred Predicate) Constraint {
	return Constraint{kind: KindPredicate, pred: pred, desc: desc}
}

// Kind returns the constraint's discriminator.
func (c Constraint) Kind() ConstraintKind { return c.kind }

// Type returns the constrained type for exact and assignable constraints,
// or nil for predicate constraints.
func (c Constraint) Type() reflect.Type { return c.typ }

func (c Constraint) String() string {
	switch c.kind {
	case KindAssignable:
		return "~" + c.desc
	case KindPredicate:
		return "pred(" + c.desc + ")"
	default:
		return c.desc
	}
}

// satisfiedBy reports whether arg meets the constraint. An untyped nil
// argument carries no dynamic type, so only predicate constraints can
// claim it.
func (c Constraint) satisfiedBy(arg any) bool {
	switch c.kind {
	case KindExact:
		return reflect.TypeOf(arg) == c.typ
	case KindAssignable:
		at := reflect.TypeOf(arg)
		return at != nil && at.AssignableTo(c.typ)
	case KindPredicate:
		return c.pred != nil && c.pred(arg)
	default:
		return false
	}
}

// equal reports whether two constraints are identical for the purpose of
// duplicate detection.
func (c Constraint) equal(o Constraint) bool {
	if c.kind != o.kind {
		return false
	}
	if c.kind == KindPredicate {
		return c.desc == o.desc
	}
	return c.typ == o.typ
}

func (c Constraint) validate() error {
	switch c.kind {
	case KindExact, KindAssignable:
		if c.typ == nil {
			return fmt.Errorf("dispatch: %s constraint requires a type", c.kind)
		}
	case KindPredicate:
		if c.pred == nil {
			return fmt.Errorf("dispatch: predicate constraint requires a predicate")
		}
		if c.desc == "" {
			return fmt.Errorf("dispatch: predicate constraint requires a description")
		}
	default:
		return fmt.Errorf("dispatch: unknown constraint kind %d", c.kind)
	}
	return nil
}

func typeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
