package ocr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

type GeminiEngine struct {
	model string
}

func NewGeminiEngine(model string) *GeminiEngine {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiEngine{model: model}
}

const ocrPrompt = `Transcribe every piece of visible text in this image exactly as it appears,
including amounts, usernames, notes and timestamps. Preserve line breaks.
Output the raw text only, with no commentary.`

// ExtractText sends the screenshot to Gemini and returns the transcription.
func (e *GeminiEngine) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if e == nil {
		return "", errors.New("ocr engine is nil")
	}
	if len(image) == 0 {
		return "", errors.New("image is required")
	}
	mime := strings.TrimSpace(mimeType)
	if mime == "" {
		mime = "image/jpeg"
	}

	start := time.Now()
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		log.Printf("[ocr] stage=client_init err=%v", err)
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(ocrPrompt),
		genai.NewPartFromBytes(image, mime),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}

	res, err := client.Models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		log.Printf("[ocr] stage=generate_fail model=%s err=%v", e.model, err)
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := res.Text()
	log.Printf("[ocr] stage=done model=%s len=%d totalMs=%d", e.model, len(text), time.Since(start).Milliseconds())
	return text, nil
}
