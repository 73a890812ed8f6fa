package ocr

import "context"

// Engine extracts raw text from an image. Implementations are best-effort:
// callers must tolerate empty or garbled output, and the context deadline is
// the only bound on the call.
type Engine interface {
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
}
