package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTypeOpsUnionLaws exercises spec §8.6's three union laws directly:
// Union(T, Nil) keeps Nil, Union(T, T) collapses to T structurally, and
// Remove(Union(A,B), B) == A.
func TestTypeOpsUnionLaws(t *testing.T) {
	withNil := TypeOpsUnion(String, Nil)
	u, ok := withNil.(Union)
	if assert.True(t, ok, "Union(String, Nil) should stay a Union, not collapse Nil away") {
		var sawNil bool
		for _, e := range u.Elems {
			if Equal(e, Nil) {
				sawNil = true
			}
		}
		assert.True(t, sawNil, "Union(T, Nil) must contain Nil")
	}

	assert.True(t, Equal(TypeOpsUnion(String, String), String), "Union(T, T) == T structurally")

	ab := TypeOpsUnion(String, Number)
	assert.True(t, Equal(TypeOpsRemove(ab, Number), String), "Remove(Union(A,B), B) == A")
}

// TestTypeOpsNarrowFallsBackToTarget covers the Unknown/Any forced-narrow
// case: narrowing a type with no matching member returns the target
// itself rather than an empty union.
func TestTypeOpsNarrowFallsBackToTarget(t *testing.T) {
	assert.True(t, Equal(TypeOpsNarrow(Unknown, Number), Number))
}

// TestEqualReflexiveAndDistinct is a minimal instance of spec invariant 5
// (subtype reflexivity) restricted to structural Equal: every type equals
// itself, and distinct primitives are not equal.
func TestEqualReflexiveAndDistinct(t *testing.T) {
	assert.True(t, Equal(String, String))
	assert.True(t, Equal(Number, Number))
	assert.False(t, Equal(String, Number))
}
