package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_EmptyEntrySetIsNoMatch(t *testing.T) {
	_, err := resolve("area", nil, []any{testCircle{}})

	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	require.Equal(t, Key("area"), noMatch.Key)
	require.True(t, errors.Is(err, ErrNoMatch))
}

func TestResolve_NoApplicableEntryIsNoMatch(t *testing.T) {
	entries := []*Entry{
		mkEntry(t, 1, Sig(Exact[testCircle]())),
		mkEntry(t, 2, Sig(AssignableTo[testShape]())),
	}

	_, err := resolve("area", entries, []any{42})

	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	require.Equal(t, []string{"int"}, noMatch.ArgTypes)
}

func TestResolve_SingleApplicableEntryWins(t *testing.T) {
	only := mkEntry(t, 1, Sig(AssignableTo[testShape]()))

	got, err := resolve("area", []*Entry{only}, []any{testSquare{side: 3}})
	require.NoError(t, err)
	require.Same(t, only, got)
}

func TestResolve_MoreSpecificEntryWins(t *testing.T) {
	generic := mkEntry(t, 1, Sig(AssignableTo[testShape]()))
	exact := mkEntry(t, 2, Sig(Exact[testCircle]()))

	got, err := resolve("area", []*Entry{generic, exact}, []any{testCircle{radius: 2}})
	require.NoError(t, err)
	require.Same(t, exact, got, "exact match must outrank assignable match")

	got, err = resolve("area", []*Entry{generic, exact}, []any{testSquare{side: 2}})
	require.NoError(t, err)
	require.Same(t, generic, got, "non-circle falls through to the generic entry")
}

func TestResolve_EarlierPositionDominates(t *testing.T) {
	exactThenGeneric := mkEntry(t, 1, Sig(Exact[testCircle](), AssignableTo[testShape]()))
	genericThenExact := mkEntry(t, 2, Sig(AssignableTo[testShape](), Exact[testSquare]()))

	got, err := resolve("pair", []*Entry{genericThenExact, exactThenGeneric},
		[]any{testCircle{}, testSquare{}})
	require.NoError(t, err)
	require.Same(t, exactThenGeneric, got)
}

func TestResolve_TopTieIsAmbiguous(t *testing.T) {
	a := mkEntry(t, 1, Sig(AssignableTo[testShape]()))
	b := mkEntry(t, 2, Sig(AssignableTo[testShape]()))

	_, err := resolve("area", []*Entry{a, b}, []any{testCircle{}})

	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	require.True(t, errors.Is(err, ErrAmbiguous))
	require.Len(t, ambiguous.Tied, 2)
	// Tied entries are reported in registration order.
	require.Equal(t, uint64(1), ambiguous.Tied[0].Seq)
	require.Equal(t, uint64(2), ambiguous.Tied[1].Seq)
	require.Contains(t, err.Error(), "~dispatch.testShape")
}

func TestResolve_TieBelowTopIsNotAmbiguous(t *testing.T) {
	genericA := mkEntry(t, 1, Sig(AssignableTo[testShape]()))
	genericB := mkEntry(t, 2, Sig(AssignableTo[testShape]()))
	exact := mkEntry(t, 3, Sig(Exact[testCircle]()))

	got, err := resolve("area", []*Entry{genericA, genericB, exact}, []any{testCircle{}})
	require.NoError(t, err, "a tie strictly below the winner is irrelevant")
	require.Same(t, exact, got)
}

func TestResolve_PredicateRanksBelowTypes(t *testing.T) {
	pred := mkEntry(t, 1, Sig(Satisfies("any-shape", func(arg any) bool {
		_, ok := arg.(testShape)
		return ok
	})))
	assignable := mkEntry(t, 2, Sig(AssignableTo[testShape]()))

	got, err := resolve("area", []*Entry{pred, assignable}, []any{testCircle{}})
	require.NoError(t, err)
	require.Same(t, assignable, got)
}
