package visibility

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// blurSigma approximates the Gaussian radius of 20 used for redaction.
const blurSigma = 20

// Redact applies an irreversible blur to an encoded image and returns
// it re-encoded in its original format. The input bytes are never
// modified; stored content stays intact and every ineligible fetch
// blurs a fresh copy. Unknown formats fall back to PNG.
func Redact(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for redaction: %w", err)
	}

	blurred := imaging.Blur(img, blurSigma)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, blurred, nil)
	case "gif":
		err = gif.Encode(&buf, blurred, nil)
	default:
		err = png.Encode(&buf, blurred)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode redacted image: %w", err)
	}

	return buf.Bytes(), nil
}
