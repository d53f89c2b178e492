package tools

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/ingpoc/ui-test-generation-mcp/internal/platform"
	"golang.org/x/image/draw"
)

// scaleImage resizes an encoded screenshot by factor (0 < factor < 1) and
// re-encodes it in the same format.
func scaleImage(data []byte, format platform.ImageFormat, quality int, factor float64) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	b := src.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case platform.ImageJPEG:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
