package service

import (
	"strings"
	"testing"

	"github.com/fastfire9/empire-backend/internal/textproc"
)

func TestNewBuyerToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := NewBuyerToken()
		if err != nil {
			t.Fatal(err)
		}
		if len(token) != 8 {
			t.Fatalf("token %q has length %d, want 8", token, len(token))
		}
		for _, r := range token {
			if !strings.ContainsRune(tokenAlphabet, r) {
				t.Fatalf("token %q contains %q outside the alphabet", token, r)
			}
		}
		// A token must survive normalization untouched, or a buyer could never
		// match their own payment note.
		if norm := textproc.Normalize(token); norm != token {
			t.Fatalf("Normalize(%q) = %q, token is not a fixed point", token, norm)
		}
		seen[token] = true
	}
	if len(seen) < 2 {
		t.Fatal("50 generated tokens were all identical")
	}
}
