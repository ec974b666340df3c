// Package dispatch implements a multiple-dispatch callable registry.
//
// Callers register implementations under a string key together with a
// Signature: one Constraint per positional argument. At call time,
// Dispatch selects the single most specific registered entry whose
// signature matches the runtime types and values of the supplied
// arguments, and invokes it.
//
// # Registering and dispatching
//
//	reg := dispatch.New()
//
//	h, err := reg.Register("area", dispatch.Sig(dispatch.Exact[Circle]()), areaCircle)
//	_, err = reg.Register("area", dispatch.Sig(dispatch.AssignableTo[Shape]()), areaGeneric)
//
//	result, err := reg.Dispatch(ctx, "area", Circle{Radius: 2})
//
// An exact type match outranks an assignable (subtype) match, which
// outranks a predicate match; specificity vectors are compared
// lexicographically left to right, so earlier positions dominate.
// A tie at top specificity is a configuration error and surfaces as
// *AmbiguousError rather than being broken by registration order.
//
// Registries are explicit instances with no package-level global.
// Reads are lock-free against a published copy-on-write snapshot;
// mutations serialize on an internal mutex and publish a complete
// replacement snapshot, so an in-flight dispatch observes either the
// pre- or post-mutation entry set, never a partial one.
package dispatch
