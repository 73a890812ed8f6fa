package textproc

import "regexp"

const tokenLength = 8

var (
	wordRe  = regexp.MustCompile(`[A-Z0-9]+`)
	priceRe = regexp.MustCompile(`(?:\$\s*)?\b\d{1,3}(?:\.\d{1,2})?\b`)
	amtRe   = regexp.MustCompile(`\d{1,3}(?:\.\d{1,2})?`)
)

// BuyerTokenCandidates returns every contiguous 8-character alphanumeric
// substring of the normalized text, plus every adjacent two-word
// concatenation whose combined length is exactly 8 (OCR often splits a token
// across a line break, which Normalize turns into a space). The result is
// deduplicated in first-seen order.
func BuyerTokenCandidates(norm string) []string {
	words := wordRe.FindAllString(norm, -1)

	var out []string
	seen := make(map[string]bool)
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	for _, w := range words {
		for i := 0; i+tokenLength <= len(w); i++ {
			add(w[i : i+tokenLength])
		}
	}
	for i := 0; i+1 < len(words); i++ {
		if len(words[i])+len(words[i+1]) == tokenLength {
			add(words[i] + words[i+1])
		}
	}
	return out
}

// ExtractPrice scans normalized text for a currency-prefixed or bare decimal
// amount with at most 3 integer digits and 0-2 fraction digits. Amounts
// touching path-like separators are skipped (receipt ids and dates such as
// 12/34 are not prices); among the survivors the first under 100 wins,
// otherwise the first survivor. Returns "" when nothing plausible is found.
func ExtractPrice(norm string) string {
	locs := priceRe.FindAllStringIndex(norm, -1)
	var survivors []string
	for _, loc := range locs {
		if adjacentSeparator(norm, loc[0], loc[1]) {
			continue
		}
		survivors = append(survivors, amtRe.FindString(norm[loc[0]:loc[1]]))
	}
	for _, amt := range survivors {
		if underHundred(amt) {
			return amt
		}
	}
	if len(survivors) > 0 {
		return survivors[0]
	}
	return ""
}

func adjacentSeparator(s string, start, end int) bool {
	if start > 0 && isSeparator(s[start-1]) {
		return true
	}
	if end < len(s) && isSeparator(s[end]) {
		return true
	}
	return false
}

func isSeparator(b byte) bool {
	return b == '/' || b == '\\' || b == ':' || b == '-'
}

func underHundred(amt string) bool {
	n := 0
	for i := 0; i < len(amt) && amt[i] != '.'; i++ {
		n++
	}
	return n < 3
}
