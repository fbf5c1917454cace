package visibility

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	// High-contrast content so the blur measurably changes pixels.
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if (x/4+y/4)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	default:
		require.NoError(t, png.Encode(&buf, img))
	}
	return buf.Bytes()
}

func TestRedact_ProducesDifferentBytesSameFormat(t *testing.T) {
	for _, format := range []string{"png", "jpeg"} {
		t.Run(format, func(t *testing.T) {
			original := encodeTestImage(t, format)
			stored := bytes.Clone(original)

			blurred, err := Redact(stored)
			require.NoError(t, err)

			assert.NotEqual(t, original, blurred, "redaction must change the payload")
			assert.Equal(t, original, stored, "stored bytes must stay untouched")

			_, gotFormat, err := image.Decode(bytes.NewReader(blurred))
			require.NoError(t, err)
			assert.Equal(t, format, gotFormat)
		})
	}
}

func TestRedact_Deterministic(t *testing.T) {
	original := encodeTestImage(t, "png")

	first, err := Redact(original)
	require.NoError(t, err)
	second, err := Redact(original)
	require.NoError(t, err)

	// Same input, same blur: repeated ineligible fetches see the same
	// redacted bytes while eligible fetches see the same originals.
	assert.Equal(t, first, second)
}

func TestRedact_RejectsNonImage(t *testing.T) {
	_, err := Redact([]byte("definitely not an image"))
	assert.Error(t, err)
}
