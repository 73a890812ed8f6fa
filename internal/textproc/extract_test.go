package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuyerTokenCandidates(t *testing.T) {
	t.Run("exact token", func(t *testing.T) {
		got := BuyerTokenCandidates(Normalize("note: A1B2C3D4 thanks"))
		assert.Contains(t, got, "A1B2C3D4")
	})

	t.Run("windows over longer runs", func(t *testing.T) {
		got := BuyerTokenCandidates("XXA1B2C3D4YY")
		assert.Contains(t, got, "A1B2C3D4")
		assert.Contains(t, got, "XXA1B2C3")
	})

	t.Run("token split across a line break", func(t *testing.T) {
		got := BuyerTokenCandidates(Normalize("note: A1B2\nC3D4"))
		assert.Contains(t, got, "A1B2C3D4")
	})

	t.Run("deduplicated in first-seen order", func(t *testing.T) {
		got := BuyerTokenCandidates("A1B2C3D4 junk A1B2C3D4")
		count := 0
		for _, c := range got {
			if c == "A1B2C3D4" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("no candidates in short text", func(t *testing.T) {
		assert.Empty(t, BuyerTokenCandidates("HI 42"))
	})
}

func TestExtractPrice(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"currency prefixed", "5ENT $19.99 T0 CA5HTAG1", "19.99"},
		{"bare decimal", "PA1D 9.99 0N M0NDAY", "9.99"},
		{"skips path-like dates", "RECE1PT 12/34 AM0UNT $24.99", "24.99"},
		{"skips timestamps", "AT 12:30 PM $5.00", "5.00"},
		{"prefers first under one hundred", "REF 250.00 PA1D 19.99", "19.99"},
		{"falls back to first survivor", "PA1D 250.00 T0TA1", "250.00"},
		{"digits inside words are not amounts", "CA5HTAG1 N0TE", ""},
		{"nothing", "N0 AM0UNT HERE", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractPrice(tc.in))
		})
	}
}
