// Package fuzzy scores OCR-mangled strings against known buyer tokens and
// payment tags. Scores are 0-100; everything here is deterministic so the
// same screenshot always yields the same verdict.
package fuzzy

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Ratio is a normalized edit-distance similarity: 100 for identical strings,
// 0 for nothing in common. A single substitution in an 8-character token
// scores 88, two substitutions score 75.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// PartialRatio is Ratio of needle against its best-matching window of the
// same length inside hay.
func PartialRatio(needle, hay string) int {
	n, h := []rune(needle), []rune(hay)
	if len(n) == 0 || len(h) <= len(n) {
		return Ratio(needle, hay)
	}
	best := 0
	for i := 0; i+len(n) <= len(h); i++ {
		if score := Ratio(needle, string(h[i:i+len(n)])); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// MatchTag looks for the payment tag in normalized text: exact substring
// against the primary tag first, then each fallback, then a partial-ratio
// pass over all of them accepted at or above threshold. Inputs are expected
// to be normalized already.
func MatchTag(text, primary string, fallbacks []string, threshold int) (string, bool) {
	tags := append([]string{primary}, fallbacks...)
	for _, tag := range tags {
		if tag != "" && strings.Contains(text, tag) {
			return tag, true
		}
	}
	bestTag, bestScore := "", 0
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if score := PartialRatio(tag, text); score > bestScore {
			bestTag, bestScore = tag, score
		}
	}
	if bestScore >= threshold {
		return bestTag, true
	}
	return "", false
}

// BuyerMatch is the winning (candidate, known token) pair.
type BuyerMatch struct {
	Candidate string
	Token     string
	Score     int
}

// MatchBuyer scores every candidate against every known token and returns
// the globally best pair at or above threshold. Ties keep the first-seen
// pair, so candidate and token order matter and must be stable.
func MatchBuyer(candidates, known []string, threshold int) (BuyerMatch, bool) {
	var best BuyerMatch
	found := false
	for _, cand := range candidates {
		for _, token := range known {
			score := Ratio(cand, token)
			if score < threshold {
				continue
			}
			if !found || score > best.Score {
				best = BuyerMatch{Candidate: cand, Token: token, Score: score}
				found = true
			}
		}
	}
	return best, found
}
