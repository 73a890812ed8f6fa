package textproc

import "strings"

// confusables maps characters OCR habitually swaps onto one canonical form.
// Letters fold into the digit they are mistaken for, so that both sides of a
// comparison land on the same spelling; digits are fixed points, which keeps
// Normalize idempotent. The '§' entry covers the glyph Tesseract tends to
// emit for a cashtag 'S'.
var confusables = strings.NewReplacer(
	"S", "5",
	"O", "0",
	"I", "1",
	"L", "1",
	"Z", "2",
	"§", "5",
)

// Normalize flattens raw OCR output into a single upper-cased line with the
// confusable substitutions applied. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := strings.ToUpper(raw)
	s = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s)
	s = confusables.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
