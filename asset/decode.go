// Package asset prepares uploaded raster images for layout and embedding.
//
// Decode validates an upload, reads its intrinsic pixel size and converts
// formats the PDF writer cannot embed (BMP, TIFF, WebP, 16-bit or interlaced
// PNG) to plain 8-bit PNG. Images are read-only once decoded and can be shared
// between concurrent generations.
package asset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels is the largest image, in pixels, Decode accepts. A highly
// compressed upload can declare a size far beyond its byte length.
const MaxPixels = 64 << 20

// Sentinel errors for asset decoding.
var (
	ErrEmpty       = errors.New("asset: empty image data")
	ErrUnsupported = errors.New("asset: unsupported image format")
	ErrTooLarge    = errors.New("asset: image too large")
)

// Image is a decoded, embeddable raster image.
type Image struct {
	Name   string // content hash, stable for identical bytes
	Data   []byte // encoded bytes in Format
	Format string // "jpg", "png" or "gif"
	Width  int    // pixels
	Height int    // pixels
}

// Aspect returns height divided by width, or 0 when the size is unknown.
func (img *Image) Aspect() float64 {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return 0
	}
	return float64(img.Height) / float64(img.Width)
}

// Decode validates data as an image and returns it in an embeddable format.
// The header is checked against MaxPixels first; then the whole image is
// decoded so corrupt bodies are rejected here rather than when the document
// is written.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("asset: decoding %s header: %w", formatOrUnknown(format), err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > MaxPixels {
		return nil, fmt.Errorf("%w: %s image is %dx%d, limit is %d pixels", ErrTooLarge, format, cfg.Width, cfg.Height, MaxPixels)
	}

	m, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("asset: decoding %s image: %w", formatOrUnknown(format), err)
	}
	b := m.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("asset: %s image has no pixels", format)
	}

	img := &Image{Data: data, Width: b.Dx(), Height: b.Dy()}
	switch {
	case format == "jpeg":
		img.Format = "jpg"
	case format == "gif":
		img.Format = "gif"
	case format == "png" && embeddablePNG(data):
		img.Format = "png"
	default:
		buf, err := encodePNG(m)
		if err != nil {
			return nil, fmt.Errorf("asset: converting %s to png: %w", format, err)
		}
		img.Data, img.Format = buf, "png"
	}
	img.Name = contentName(img.Data)
	return img, nil
}

// embeddablePNG reports whether a PNG stream is 8-bit or less and not
// interlaced, which is what the PDF writer can embed unchanged.
func embeddablePNG(data []byte) bool {
	// signature(8) + chunk length(4) + "IHDR"(4) + width(4) + height(4)
	const bitDepthAt, interlaceAt = 24, 28
	if len(data) <= interlaceAt {
		return false
	}
	return data[bitDepthAt] <= 8 && data[interlaceAt] == 0
}

// encodePNG writes m as an 8-bit non-interlaced PNG.
func encodePNG(m image.Image) ([]byte, error) {
	nrgba := image.NewNRGBA(m.Bounds())
	draw.Draw(nrgba, nrgba.Bounds(), m, m.Bounds().Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentName(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:12])
}

func formatOrUnknown(format string) string {
	if format == "" {
		return "unknown"
	}
	return format
}
