// Package imagecheck provides the duplicate-submission content hash and the
// advisory tamper heuristic for uploaded payment screenshots.
package imagecheck

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"
	"github.com/rwcarlsen/goexif/exif"
)

// Hash returns the hex SHA-256 of the raw image bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Report carries the integrity signals for one screenshot. Suspect is
// advisory: genuine screenshots legitimately lack camera metadata, so it is
// only raised when the image also carries almost no pixel information.
type Report struct {
	HasCaptureMetadata bool
	Entropy            float64
	Suspect            bool
}

// Inspect decodes the image, probes embedded capture metadata and measures
// grayscale pixel entropy. An undecodable payload reports zero entropy.
func Inspect(data []byte, entropyCutoff float64) Report {
	r := Report{
		HasCaptureMetadata: hasCaptureMetadata(data),
	}
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		r.Entropy = pixelEntropy(img)
	}
	r.Suspect = !r.HasCaptureMetadata && r.Entropy < entropyCutoff
	return r
}

func hasCaptureMetadata(data []byte) bool {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil || x == nil {
		return false
	}
	for _, name := range []exif.FieldName{exif.Make, exif.Model, exif.Software} {
		if tag, err := x.Get(name); err == nil && tag != nil {
			return true
		}
	}
	return false
}

// pixelEntropy is the Shannon entropy (bits) of the 8-bit grayscale
// histogram. Images are downscaled first so the cost is bounded regardless
// of upload size.
func pixelEntropy(img image.Image) float64 {
	const maxEdge = 128
	if b := img.Bounds(); b.Dx() > maxEdge || b.Dy() > maxEdge {
		img = resize.Thumbnail(maxEdge, maxEdge, img, resize.Bilinear)
	}

	var hist [256]int
	total := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			gray := (299*r + 587*g + 114*bl) / 1000 >> 8
			hist[gray&0xff]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, count := range hist {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
