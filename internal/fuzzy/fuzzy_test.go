package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	t.Run("identity scores 100", func(t *testing.T) {
		assert.Equal(t, 100, Ratio("A1B2C3D4", "A1B2C3D4"))
		assert.Equal(t, 100, Ratio("", ""))
	})

	t.Run("single substitution stays above candidate threshold", func(t *testing.T) {
		score := Ratio("A1B2C3D4", "A1B2C3X4")
		assert.Equal(t, 88, score)
		assert.GreaterOrEqual(t, score, 70)
	})

	t.Run("two substitutions land in the candidate band", func(t *testing.T) {
		score := Ratio("A1B2C3D4", "A7B2C9D4")
		assert.Equal(t, 75, score)
		assert.GreaterOrEqual(t, score, 70)
		assert.Less(t, score, 85)
	})

	t.Run("unrelated strings score low", func(t *testing.T) {
		assert.Less(t, Ratio("A1B2C3D4", "WXYMNPQR"), 70)
	})
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100, PartialRatio("CA5HTAG1", "PA1D T0 CA5HTAG1 T0DAY"))
	assert.Equal(t, 88, PartialRatio("CA5HTAG1", "PA1D T0 CA5HTAG7 T0DAY"))
	assert.Equal(t, 100, PartialRatio("ABC", "ABC"))
}

func TestMatchTag(t *testing.T) {
	t.Run("exact primary", func(t *testing.T) {
		tag, ok := MatchTag("PA1D T0 CA5HTAG1", "CA5HTAG1", nil, 80)
		assert.True(t, ok)
		assert.Equal(t, "CA5HTAG1", tag)
	})

	t.Run("exact fallback", func(t *testing.T) {
		tag, ok := MatchTag("PA1D T0 01DTAG99", "CA5HTAG1", []string{"01DTAG99"}, 80)
		assert.True(t, ok)
		assert.Equal(t, "01DTAG99", tag)
	})

	t.Run("partial match above threshold", func(t *testing.T) {
		tag, ok := MatchTag("PA1D T0 CA5HTAG7", "CA5HTAG1", nil, 80)
		assert.True(t, ok)
		assert.Equal(t, "CA5HTAG1", tag)
	})

	t.Run("no match below threshold", func(t *testing.T) {
		_, ok := MatchTag("N0 TAG HERE", "CA5HTAG1", nil, 80)
		assert.False(t, ok)
	})
}

func TestMatchBuyer(t *testing.T) {
	t.Run("picks the globally best pair", func(t *testing.T) {
		m, ok := MatchBuyer(
			[]string{"A7B2C9D4", "A1B2C3D4"},
			[]string{"A1B2C3D4", "WWXXYYZZ"},
			70,
		)
		assert.True(t, ok)
		assert.Equal(t, "A1B2C3D4", m.Candidate)
		assert.Equal(t, "A1B2C3D4", m.Token)
		assert.Equal(t, 100, m.Score)
	})

	t.Run("ties keep the first-seen pair", func(t *testing.T) {
		m, ok := MatchBuyer(
			[]string{"AAAABBB1", "AAAABBB2"},
			[]string{"AAAABBB9"},
			70,
		)
		assert.True(t, ok)
		assert.Equal(t, "AAAABBB1", m.Candidate)
	})

	t.Run("nothing above threshold", func(t *testing.T) {
		_, ok := MatchBuyer([]string{"WWXXYYQQ"}, []string{"A1B2C3D4"}, 70)
		assert.False(t, ok)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		cands := []string{"A1B2C3X4", "A1B2C3Y4"}
		known := []string{"A1B2C3D4"}
		first, _ := MatchBuyer(cands, known, 70)
		for i := 0; i < 10; i++ {
			again, _ := MatchBuyer(cands, known, 70)
			assert.Equal(t, first, again)
		}
	})
}
