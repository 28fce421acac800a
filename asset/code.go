package asset

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	pdf417 "github.com/ruudk/golang-pdf417"
)

// CodeSource synthesizes a scannable code raster for a destination URL.
// px is the requested width in pixels; the returned bytes are an encoded
// image that is laid out like any other upload.
type CodeSource interface {
	Code(ctx context.Context, content string, px int) ([]byte, error)
}

// QRSource renders QR codes.
type QRSource struct {
	Level qr.ErrorCorrectionLevel
}

// NewQRSource creates a QR source with medium error correction.
func NewQRSource() *QRSource {
	return &QRSource{Level: qr.M}
}

func (s *QRSource) Code(_ context.Context, content string, px int) ([]byte, error) {
	code, err := qr.Encode(content, s.Level, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("asset: encoding qr: %w", err)
	}
	side := max(px, code.Bounds().Dx())
	return scaleAndEncode(code, side, side)
}

// PDF417Source renders stacked PDF417 codes, used by deployments whose
// scanners do not read QR.
type PDF417Source struct {
	Columns       int // 1..30
	SecurityLevel int // 0..8
}

// NewPDF417Source creates a PDF417 source with 6 columns and security level 2.
func NewPDF417Source() *PDF417Source {
	return &PDF417Source{Columns: 6, SecurityLevel: 2}
}

func (s *PDF417Source) Code(_ context.Context, content string, px int) ([]byte, error) {
	var code barcode.Barcode = pdf417.Encode(content, s.Columns, s.SecurityLevel)
	b := code.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("asset: encoding pdf417: empty symbol")
	}
	w := max(px, b.Dx())
	h := max(w*b.Dy()/b.Dx(), b.Dy())
	return scaleAndEncode(code, w, h)
}

func scaleAndEncode(code barcode.Barcode, w, h int) ([]byte, error) {
	scaled, err := barcode.Scale(code, w, h)
	if err != nil {
		return nil, fmt.Errorf("asset: scaling %s: %w", code.Metadata().CodeKind, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("asset: encoding %s: %w", code.Metadata().CodeKind, err)
	}
	return buf.Bytes(), nil
}

// CachedSource memoizes another CodeSource.
type CachedSource struct {
	Source CodeSource
	Cache  Cache
	TTL    time.Duration
	Kind   string // distinguishes symbologies sharing one cache
}

func (s *CachedSource) Code(ctx context.Context, content string, px int) ([]byte, error) {
	key := Key("code", s.Kind, content, fmt.Sprint(px))
	if data, ok, err := s.Cache.Get(ctx, key); err == nil && ok {
		return data, nil
	}
	data, err := s.Source.Code(ctx, content, px)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.Set(ctx, key, data, s.TTL)
	return data, nil
}
