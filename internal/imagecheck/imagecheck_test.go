package imagecheck

import (
	"bytes"
	"image"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func flatImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 64, 64))
}

func noisyImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	rng := rand.New(rand.NewSource(1))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

func TestHash(t *testing.T) {
	a := encodePNG(t, flatImage())
	b := encodePNG(t, noisyImage())
	assert.Equal(t, Hash(a), Hash(a))
	assert.NotEqual(t, Hash(a), Hash(b))
	assert.Len(t, Hash(a), 64)
}

func TestInspectFlatImageIsSuspect(t *testing.T) {
	r := Inspect(encodePNG(t, flatImage()), 3.5)
	assert.False(t, r.HasCaptureMetadata)
	assert.Zero(t, r.Entropy)
	assert.True(t, r.Suspect)
}

func TestInspectNoisyImageIsNotSuspect(t *testing.T) {
	r := Inspect(encodePNG(t, noisyImage()), 3.5)
	assert.False(t, r.HasCaptureMetadata)
	assert.Greater(t, r.Entropy, 3.5)
	assert.False(t, r.Suspect)
}

func TestInspectUndecodableBytes(t *testing.T) {
	r := Inspect([]byte("definitely not an image"), 3.5)
	assert.Zero(t, r.Entropy)
	assert.True(t, r.Suspect)
}
