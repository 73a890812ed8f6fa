package service

import "crypto/rand"

// tokenAlphabet deliberately omits the confusable characters the text
// normalizer folds (I, L, O, S, Z, 0, 1, 2, 5): a buyer token must survive
// both manual transcription into a payment note and OCR unchanged.
const tokenAlphabet = "ABCDEFGHJKMNPQRTUVWXY346789"

const tokenLength = 8

// NewBuyerToken returns a fresh 8-character token for a payment note.
func NewBuyerToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, tokenLength)
	for i, b := range buf {
		out[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(out), nil
}
