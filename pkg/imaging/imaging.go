// Package imaging canonicalizes clipboard image payloads to PNG and
// validates them before they are allowed into the history.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/tiff"
)

// ErrEmptyPayload is returned when the pasteboard hands back zero bytes.
var ErrEmptyPayload = errors.New("imaging: empty image payload")

// ToPNG decodes data in any registered format (PNG, TIFF, JPEG, GIF) and
// re-encodes it as PNG. PNG input is decoded and re-encoded as well, so a
// malformed or zero-dimension payload is rejected rather than stored verbatim.
func ToPNG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%s image has non-positive dimensions %dx%d", format, bounds.Dx(), bounds.Dy())
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Valid reports whether data decodes to an image with positive dimensions.
// Only the header is examined; the pixel data is not decoded.
func Valid(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return cfg.Width > 0 && cfg.Height > 0
}
