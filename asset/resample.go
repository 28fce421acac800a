package asset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"time"

	xdraw "golang.org/x/image/draw"
)

const mmPerInch = 25.4

// DefaultMaxDPI is the resolution above which placed images are downscaled.
const DefaultMaxDPI = 300

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithCache stores downscaled images in c.
func WithCache(c Cache, ttl time.Duration) LibraryOption {
	return func(l *Library) {
		l.cache = c
		l.ttl = ttl
	}
}

// WithMaxDPI sets the resolution limit for placed images. Zero or negative
// disables downscaling.
func WithMaxDPI(dpi float64) LibraryOption {
	return func(l *Library) { l.maxDPI = dpi }
}

// Library decodes uploads and fits them to their placed size.
type Library struct {
	cache  Cache
	ttl    time.Duration
	maxDPI float64
}

// NewLibrary creates a Library with a 300 DPI limit and no cache.
func NewLibrary(opts ...LibraryOption) *Library {
	l := &Library{cache: NullCache{}, maxDPI: DefaultMaxDPI}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Decode validates data; see the package-level Decode.
func (l *Library) Decode(data []byte) (*Image, error) {
	return Decode(data)
}

// Fit returns img downscaled so that it does not exceed the configured DPI
// when placed widthMM millimetres wide. Images already within the limit are
// returned unchanged. GIFs are never resampled.
func (l *Library) Fit(ctx context.Context, img *Image, widthMM float64) (*Image, error) {
	if img == nil || l.maxDPI <= 0 || widthMM <= 0 || img.Format == "gif" {
		return img, nil
	}
	maxPx := int(math.Ceil(widthMM / mmPerInch * l.maxDPI))
	if img.Width <= maxPx {
		return img, nil
	}

	key := Key("fit", img.Name, fmt.Sprint(maxPx))
	if data, ok, err := l.cache.Get(ctx, key); err == nil && ok {
		if cached, err := Decode(data); err == nil {
			return cached, nil
		}
	}

	out, err := downscale(img, maxPx)
	if err != nil {
		return nil, err
	}
	_ = l.cache.Set(ctx, key, out.Data, l.ttl)
	return out, nil
}

func downscale(img *Image, width int) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("asset: resampling %s: %w", img.Name, err)
	}
	height := int(math.Round(float64(width) * img.Aspect()))
	if height < 1 {
		height = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	format := img.Format
	if format == "jpg" {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90})
	} else {
		var data []byte
		data, err = encodePNG(dst)
		buf.Write(data)
		format = "png"
	}
	if err != nil {
		return nil, fmt.Errorf("asset: encoding resampled %s: %w", img.Name, err)
	}

	data := buf.Bytes()
	return &Image{
		Name:   contentName(data),
		Data:   data,
		Format: format,
		Width:  width,
		Height: height,
	}, nil
}
