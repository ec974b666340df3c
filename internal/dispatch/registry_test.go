package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// === Helper Functions ===

// constImpl returns an implementation that ignores its arguments and
// returns label.
func constImpl(label string) Func {
	return func(ctx context.Context, args ...any) (any, error) {
		return label, nil
	}
}

// mustRegister registers and fails the test on error.
func mustRegister(t *testing.T, r *Registry, key Key, sig Signature, fn Func, opts ...RegisterOption) Handle {
	t.Helper()
	h, err := r.Register(key, sig, fn, opts...)
	require.NoError(t, err)
	return h
}

// === Unit Tests: Register ===

func TestRegistry_Register_ReturnsHandle(t *testing.T) {
	r := New()

	h, err := r.Register("area", Sig(Exact[testCircle]()), constImpl("circle"))
	require.NoError(t, err)
	require.Equal(t, Key("area"), h.Key())
	require.True(t, r.Contains("area"))
	require.Equal(t, 1, r.Count("area"))
}

func TestRegistry_Register_RejectsEmptyKey(t *testing.T) {
	r := New()

	_, err := r.Register("", Sig(Exact[int]()), constImpl("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "key must not be empty")
}

func TestRegistry_Register_RejectsNilImplementation(t *testing.T) {
	r := New()

	_, err := r.Register("area", Sig(Exact[int]()), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestRegistry_Register_RejectsInvalidSignature(t *testing.T) {
	r := New()

	_, err := r.Register("area", Sig(Satisfies("broken", nil)), constImpl("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid signature")
}

func TestRegistry_Register_DuplicateSignatureFails(t *testing.T) {
	r := New()
	sig := Sig(Exact[testCircle]())

	mustRegister(t, r, "area", sig, constImpl("first"))

	_, err := r.Register("area", sig, constImpl("second"))
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, Key("area"), dup.Key)
	require.True(t, errors.Is(err, ErrDuplicateSignature))
	require.Equal(t, 1, r.Count("area"))
}

func TestRegistry_Register_SameSignatureDifferentKeys(t *testing.T) {
	r := New()
	sig := Sig(Exact[testCircle]())

	mustRegister(t, r, "area", sig, constImpl("area"))
	mustRegister(t, r, "perimeter", sig, constImpl("perimeter"))

	require.Equal(t, 1, r.Count("area"))
	require.Equal(t, 1, r.Count("perimeter"))
}

func TestRegistry_Register_OverrideRetiresEarlierEntry(t *testing.T) {
	r := New()
	sig := Sig(Exact[testCircle]())

	mustRegister(t, r, "area", sig, constImpl("old"))
	mustRegister(t, r, "area", sig, constImpl("new"), Override())

	require.Equal(t, 1, r.Count("area"))

	result, err := r.Dispatch(context.Background(), "area", testCircle{radius: 1})
	require.NoError(t, err)
	require.Equal(t, "new", result, "the retired entry must no longer participate in dispatch")
}

func TestRegistry_Register_SequenceNumbersAreMonotonic(t *testing.T) {
	r := New()

	mustRegister(t, r, "a", Sig(Exact[int]()), constImpl("1"))
	mustRegister(t, r, "b", Sig(Exact[int]()), constImpl("2"))
	mustRegister(t, r, "a", Sig(Exact[string]()), constImpl("3"))

	entries, err := r.Lookup("a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Less(t, entries[0].Seq(), entries[1].Seq())
}

func TestRegistry_Register_MetadataIsAttached(t *testing.T) {
	r := New()

	mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("circle"),
		WithMetadata(map[string]any{"source": "builtin", "version": 2}))

	entries, err := r.Lookup("area")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"source": "builtin", "version": 2}, entries[0].Metadata())
}

// === Unit Tests: Unregister ===

func TestRegistry_Unregister_RemovesEntry(t *testing.T) {
	r := New()
	h := mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("circle"))

	r.Unregister(h)

	require.False(t, r.Contains("area"))
	require.Equal(t, 0, r.Count("area"))
}

func TestRegistry_Unregister_IsIdempotent(t *testing.T) {
	r := New()
	h := mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("circle"))

	r.Unregister(h)
	r.Unregister(h) // no-op, not an error
	r.Unregister(Handle{})

	require.Equal(t, 0, r.Count("area"))
}

func TestRegistry_Unregister_LeavesOtherEntriesIntact(t *testing.T) {
	r := New()
	hCircle := mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("circle"))
	mustRegister(t, r, "area", Sig(AssignableTo[testShape]()), constImpl("generic"))

	r.Unregister(hCircle)

	// The circle call now falls through to the next most specific entry.
	result, err := r.Dispatch(context.Background(), "area", testCircle{radius: 1})
	require.NoError(t, err)
	require.Equal(t, "generic", result)
}

func TestRegistry_Unregister_KeyKeepsRegistrationHistory(t *testing.T) {
	r := New()
	h := mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("circle"))
	r.Unregister(h)

	// History distinguishes an empty lookup from an unknown key.
	entries, err := r.Lookup("area")
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = r.Dispatch(context.Background(), "area", testCircle{})
	require.True(t, errors.Is(err, ErrNoMatch))
}

// === Unit Tests: Lookup & Introspection ===

func TestRegistry_Lookup_UnknownKey(t *testing.T) {
	r := New()

	_, err := r.Lookup("nope")
	var unknown *UnknownKeyError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, Key("nope"), unknown.Key)
	require.True(t, errors.Is(err, ErrUnknownKey))
}

func TestRegistry_Lookup_ReturnsRegistrationOrder(t *testing.T) {
	r := New()
	mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("circle"))
	mustRegister(t, r, "area", Sig(AssignableTo[testShape]()), constImpl("generic"))
	mustRegister(t, r, "area", Sig(Exact[testSquare]()), constImpl("square"))

	entries, err := r.Lookup("area")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.True(t, entries[0].Signature().Equal(Sig(Exact[testCircle]())))
	require.True(t, entries[1].Signature().Equal(Sig(AssignableTo[testShape]())))
	require.True(t, entries[2].Signature().Equal(Sig(Exact[testSquare]())))
}

func TestRegistry_Signatures(t *testing.T) {
	r := New()
	mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("circle"))
	mustRegister(t, r, "area", Sig(AssignableTo[testShape]()), constImpl("generic"))

	sigs, err := r.Signatures("area")
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	require.Equal(t, "(dispatch.testCircle)", sigs[0].String())
	require.Equal(t, "(~dispatch.testShape)", sigs[1].String())

	_, err = r.Signatures("nope")
	require.True(t, errors.Is(err, ErrUnknownKey))
}

func TestRegistry_Keys_SortedWithHistory(t *testing.T) {
	r := New()
	mustRegister(t, r, "perimeter", Sig(Exact[testCircle]()), constImpl("p"))
	h := mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("a"))
	r.Unregister(h)

	require.Equal(t, []string{"area", "perimeter"}, r.Keys())
}

func TestRegistry_Describe(t *testing.T) {
	r := New()
	mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("circle"),
		WithMetadata(map[string]any{"source": "builtin"}))
	mustRegister(t, r, "area", Sig(AssignableTo[testShape]()), constImpl("generic"))

	infos, err := r.Describe("area")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "(dispatch.testCircle)", infos[0].Signature)
	require.Equal(t, map[string]any{"source": "builtin"}, infos[0].Metadata)
	require.Nil(t, infos[1].Metadata)
	require.Less(t, infos[0].Seq, infos[1].Seq)

	_, err = r.Describe("nope")
	require.True(t, errors.Is(err, ErrUnknownKey))
}

func TestRegistry_Size(t *testing.T) {
	r := New()
	require.Equal(t, 0, r.Size())

	mustRegister(t, r, "a", Sig(Exact[int]()), constImpl("1"))
	mustRegister(t, r, "b", Sig(Exact[int]()), constImpl("2"))
	mustRegister(t, r, "b", Sig(Exact[string]()), constImpl("3"))

	require.Equal(t, 3, r.Size())
}

// === Unit Tests: Dispatch ===

func TestRegistry_Dispatch_ShapesScenario(t *testing.T) {
	r := New()
	ctx := context.Background()

	mustRegister(t, r, "area", Sig(Exact[testCircle]()), func(ctx context.Context, args ...any) (any, error) {
		c := args[0].(testCircle)
		return c.area(), nil
	})
	mustRegister(t, r, "area", Sig(AssignableTo[testShape]()), func(ctx context.Context, args ...any) (any, error) {
		s := args[0].(testShape)
		return s.area(), nil
	})

	// Circle hits the exact entry.
	result, err := r.Dispatch(ctx, "area", testCircle{radius: 2})
	require.NoError(t, err)
	require.InDelta(t, 12.56636, result.(float64), 0.001)

	// Square falls through to the generic shape entry.
	result, err = r.Dispatch(ctx, "area", testSquare{side: 3})
	require.NoError(t, err)
	require.InDelta(t, 9.0, result.(float64), 0.001)

	// A bare int matches nothing.
	_, err = r.Dispatch(ctx, "area", 42)
	require.True(t, errors.Is(err, ErrNoMatch))
}

func TestRegistry_Dispatch_UnknownKey(t *testing.T) {
	r := New()

	_, err := r.Dispatch(context.Background(), "missing", 1)
	require.True(t, errors.Is(err, ErrUnknownKey))
}

func TestRegistry_Dispatch_AmbiguousTie(t *testing.T) {
	r := New()
	mustRegister(t, r, "describe", Sig(AssignableTo[testShape]()), constImpl("a"))
	mustRegister(t, r, "describe", Sig(Satisfies("has-area", func(arg any) bool {
		_, ok := arg.(testShape)
		return ok
	})), constImpl("b"))
	mustRegister(t, r, "describe", Sig(Satisfies("is-struct", func(arg any) bool {
		return arg != nil
	})), constImpl("c"))

	// The assignable entry outranks both predicates: no ambiguity.
	result, err := r.Dispatch(context.Background(), "describe", testCircle{})
	require.NoError(t, err)
	require.Equal(t, "a", result)

	// With only the two predicate entries left, they tie at the top.
	r2 := New()
	mustRegister(t, r2, "describe", Sig(Satisfies("has-area", func(arg any) bool { return true })), constImpl("b"))
	mustRegister(t, r2, "describe", Sig(Satisfies("is-struct", func(arg any) bool { return true })), constImpl("c"))

	_, err = r2.Dispatch(context.Background(), "describe", testCircle{})
	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	require.Len(t, ambiguous.Tied, 2)
	require.Contains(t, err.Error(), "pred(has-area)")
	require.Contains(t, err.Error(), "pred(is-struct)")
}

func TestRegistry_Dispatch_ResultAndErrorPassThroughUnchanged(t *testing.T) {
	r := New()
	implErr := errors.New("boom")

	mustRegister(t, r, "fail", Sig(Exact[int]()), func(ctx context.Context, args ...any) (any, error) {
		return nil, implErr
	})
	mustRegister(t, r, "echo", Sig(Exact[string]()), func(ctx context.Context, args ...any) (any, error) {
		return args[0], nil
	})

	_, err := r.Dispatch(context.Background(), "fail", 1)
	require.Same(t, implErr, err, "implementation errors must not be wrapped")

	result, err := r.Dispatch(context.Background(), "echo", "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", result)
}

func TestRegistry_Dispatch_ContextReachesImplementation(t *testing.T) {
	r := New()
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "payload")

	mustRegister(t, r, "ctx", Sig(Exact[int]()), func(ctx context.Context, args ...any) (any, error) {
		return ctx.Value(ctxKey{}), nil
	})

	result, err := r.Dispatch(ctx, "ctx", 1)
	require.NoError(t, err)
	require.Equal(t, "payload", result)
}

func TestRegistry_Dispatch_MultiplePositions(t *testing.T) {
	r := New()
	ctx := context.Background()

	mustRegister(t, r, "collide", Sig(Exact[testCircle](), Exact[testCircle]()), constImpl("circle-circle"))
	mustRegister(t, r, "collide", Sig(Exact[testCircle](), AssignableTo[testShape]()), constImpl("circle-any"))
	mustRegister(t, r, "collide", Sig(AssignableTo[testShape](), AssignableTo[testShape]()), constImpl("any-any"))

	result, err := r.Dispatch(ctx, "collide", testCircle{}, testCircle{})
	require.NoError(t, err)
	require.Equal(t, "circle-circle", result)

	result, err = r.Dispatch(ctx, "collide", testCircle{}, testSquare{})
	require.NoError(t, err)
	require.Equal(t, "circle-any", result)

	result, err = r.Dispatch(ctx, "collide", testSquare{}, testCircle{})
	require.NoError(t, err)
	require.Equal(t, "any-any", result)
}

// === Unit Tests: Resolution Cache ===

func TestRegistry_Dispatch_CachedResolutionStaysCorrect(t *testing.T) {
	r := New(WithResolutionCache(time.Minute))
	ctx := context.Background()

	mustRegister(t, r, "area", Sig(AssignableTo[testShape]()), constImpl("generic"))

	for i := 0; i < 3; i++ {
		result, err := r.Dispatch(ctx, "area", testCircle{radius: 1})
		require.NoError(t, err)
		require.Equal(t, "generic", result)
	}

	// A mutation bumps the snapshot generation, so the cached resolution
	// cannot leak across it.
	mustRegister(t, r, "area", Sig(Exact[testCircle]()), constImpl("circle"))

	result, err := r.Dispatch(ctx, "area", testCircle{radius: 1})
	require.NoError(t, err)
	require.Equal(t, "circle", result)
}

func TestRegistry_Dispatch_PredicateKeysBypassCache(t *testing.T) {
	r := New(WithResolutionCache(time.Minute))
	ctx := context.Background()

	// Predicate matching depends on values, so two ints of the same type
	// may resolve differently; the cache must not conflate them.
	mustRegister(t, r, "sign", Sig(Satisfies("positive", func(arg any) bool {
		n, ok := arg.(int)
		return ok && n > 0
	})), constImpl("positive"))
	mustRegister(t, r, "sign", Sig(Satisfies("negative", func(arg any) bool {
		n, ok := arg.(int)
		return ok && n < 0
	})), constImpl("negative"))

	result, err := r.Dispatch(ctx, "sign", 5)
	require.NoError(t, err)
	require.Equal(t, "positive", result)

	result, err = r.Dispatch(ctx, "sign", -5)
	require.NoError(t, err)
	require.Equal(t, "negative", result)
}

// === Unit Tests: Events ===

func TestRegistry_Events_PublishedOnMutation(t *testing.T) {
	r := New()
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := r.Events().Subscribe(ctx)

	sig := Sig(Exact[testCircle]())
	h := mustRegister(t, r, "area", sig, constImpl("v1"))

	event := <-sub
	require.Equal(t, "registered", string(event.Type))
	require.Equal(t, Key("area"), event.Payload.Key)
	require.Equal(t, "(dispatch.testCircle)", event.Payload.Signature)

	mustRegister(t, r, "area", sig, constImpl("v2"), Override())
	event = <-sub
	require.Equal(t, "retired", string(event.Type))
	event = <-sub
	require.Equal(t, "registered", string(event.Type))

	r.Unregister(h) // already retired: no event
	select {
	case event := <-sub:
		t.Fatalf("unexpected event %s for inert handle", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

// === Concurrency Tests ===

func TestRegistry_ConcurrentRegistrationAndDispatch(t *testing.T) {
	r := New()
	ctx := context.Background()

	mustRegister(t, r, "stable", Sig(Exact[int]()), constImpl("stable"))

	var wg sync.WaitGroup

	// Writers register entries under unrelated keys.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := Key(fmt.Sprintf("key-%d-%d", i, j))
				h, err := r.Register(key, Sig(Exact[int]()), constImpl(string(key)))
				if err != nil {
					t.Error(err)
					return
				}
				if j%2 == 0 {
					r.Unregister(h)
				}
			}
		}(i)
	}

	// Readers dispatch against the stable key throughout.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				result, err := r.Dispatch(ctx, "stable", j)
				if err != nil {
					t.Error(err)
					return
				}
				if result != "stable" {
					t.Errorf("got %v, want stable", result)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func TestRegistry_DispatchSeesConsistentSnapshot(t *testing.T) {
	r := New()
	ctx := context.Background()

	// The key always has exactly one of the two entries; a torn snapshot
	// would surface as NoMatch or Ambiguous.
	sigA := Sig(Exact[int]())
	h := mustRegister(t, r, "flip", sigA, constImpl("a"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		current := h
		for i := 0; i < 200; i++ {
			next, err := r.Register("flip", sigA, constImpl("b"), Override())
			if err != nil {
				t.Error(err)
				return
			}
			current = next
		}
		_ = current
	}()

	for i := 0; i < 500; i++ {
		result, err := r.Dispatch(ctx, "flip", 1)
		require.NoError(t, err)
		require.Contains(t, []any{"a", "b"}, result)
	}
	<-done
}

// === Property-Based Tests ===

func TestRegistry_PropertyBased_RegisterUnregisterConsistency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := New()

		type live struct {
			handle Handle
			key    Key
		}
		var liveEntries []live
		counts := make(map[Key]int)

		numOps := rapid.IntRange(1, 100).Draw(t, "numOps")
		for i := 0; i < numOps; i++ {
			op := rapid.IntRange(0, 2).Draw(t, "op")

			switch op {
			case 0: // Register a fresh predicate signature (always unique)
				key := Key(rapid.SampledFrom([]string{"alpha", "beta", "gamma"}).Draw(t, "key"))
				desc := fmt.Sprintf("p-%d", i)
				h, err := r.Register(key, Sig(Satisfies(desc, func(any) bool { return true })), constImpl(desc))
				if err != nil {
					t.Fatalf("register failed: %v", err)
				}
				liveEntries = append(liveEntries, live{handle: h, key: key})
				counts[key]++

			case 1: // Unregister a random live entry
				if len(liveEntries) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(liveEntries)-1).Draw(t, "idx")
				entry := liveEntries[idx]
				r.Unregister(entry.handle)
				liveEntries = append(liveEntries[:idx], liveEntries[idx+1:]...)
				counts[entry.key]--

			case 2: // Verify counts
				for key, want := range counts {
					if got := r.Count(key); got != want {
						t.Fatalf("key %s: count %d, want %d", key, got, want)
					}
				}
			}
		}

		total := 0
		for _, c := range counts {
			total += c
		}
		if r.Size() != total {
			t.Fatalf("size %d, want %d", r.Size(), total)
		}
	})
}

func TestRegistry_PropertyBased_DuplicateAlwaysRejectedWithoutOverride(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := New()
		key := Key(rapid.StringMatching(`[a-z]{3,10}`).Draw(t, "key"))
		sig := Sig(Exact[int](), Exact[string]())

		_, err := r.Register(key, sig, constImpl("first"))
		if err != nil {
			t.Fatalf("first registration failed: %v", err)
		}

		attempts := rapid.IntRange(1, 5).Draw(t, "attempts")
		for i := 0; i < attempts; i++ {
			_, err := r.Register(key, sig, constImpl("again"))
			if !errors.Is(err, ErrDuplicateSignature) {
				t.Fatalf("expected duplicate error, got %v", err)
			}
		}

		if r.Count(key) != 1 {
			t.Fatalf("count %d after rejected duplicates, want 1", r.Count(key))
		}
	})
}
