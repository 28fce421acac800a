package asset

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"golang.org/x/image/bmp"
)

func testImage(w, h int) image.Image {
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, color.RGBA{uint8(x), uint8(y), 80, 255})
		}
	}
	return m
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	var bmpBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, testImage(30, 10)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		data         []byte
		wantFormat   string
		wantW, wantH int
		sameBytes    bool
	}{
		{"png", pngBytes(t, 40, 20), "png", 40, 20, true},
		{"jpeg", jpegBytes(t, 64, 48), "jpg", 64, 48, true},
		{"bmp converted", bmpBuf.Bytes(), "png", 30, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if img.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", img.Format, tt.wantFormat)
			}
			if img.Width != tt.wantW || img.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", img.Width, img.Height, tt.wantW, tt.wantH)
			}
			if got := bytes.Equal(img.Data, tt.data); got != tt.sameBytes {
				t.Errorf("data passed through = %v, want %v", got, tt.sameBytes)
			}
			if img.Name == "" {
				t.Error("empty name")
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Decode(nil) = %v, want ErrEmpty", err)
	}
	if _, err := Decode([]byte("definitely not an image")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Decode(text) = %v, want ErrUnsupported", err)
	}
	truncated := pngBytes(t, 20, 20)
	truncated = truncated[:len(truncated)/2]
	if _, err := Decode(truncated); err == nil {
		t.Error("Decode accepted a truncated png")
	}
}

func TestDecodeNameIsContentHash(t *testing.T) {
	a, _ := Decode(pngBytes(t, 10, 10))
	b, _ := Decode(pngBytes(t, 10, 10))
	c, _ := Decode(pngBytes(t, 11, 10))
	if a.Name != b.Name {
		t.Error("identical bytes produced different names")
	}
	if a.Name == c.Name {
		t.Error("different bytes produced the same name")
	}
}

func TestAspect(t *testing.T) {
	if got := (&Image{Width: 200, Height: 50}).Aspect(); got != 0.25 {
		t.Errorf("Aspect = %v, want 0.25", got)
	}
	if got := (&Image{}).Aspect(); got != 0 {
		t.Errorf("Aspect of unknown size = %v, want 0", got)
	}
}

func TestLibraryFit(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(8)
	lib := NewLibrary(WithMaxDPI(100), WithCache(cache, 0))

	src, err := Decode(pngBytes(t, 400, 200))
	if err != nil {
		t.Fatal(err)
	}

	// 25.4mm at 100 DPI is 100px.
	got, err := lib.Fit(ctx, src, 25.4)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 100 || got.Height != 50 {
		t.Errorf("fitted size = %dx%d, want 100x50", got.Width, got.Height)
	}
	if cache.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", cache.Len())
	}

	again, err := lib.Fit(ctx, src, 25.4)
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != got.Name {
		t.Error("cached fit returned a different image")
	}

	same, _ := lib.Fit(ctx, src, 200)
	if same != src {
		t.Error("image within the DPI limit should be returned unchanged")
	}
}

func TestQRSource(t *testing.T) {
	data, err := NewQRSource().Code(context.Background(), "https://example.org/pr-gu-08", 120)
	if err != nil {
		t.Fatal(err)
	}
	img, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 120 || img.Height != 120 {
		t.Errorf("qr size = %dx%d, want 120x120", img.Width, img.Height)
	}
}

func TestPDF417Source(t *testing.T) {
	data, err := NewPDF417Source().Code(context.Background(), "https://example.org", 300)
	if err != nil {
		t.Fatal(err)
	}
	img, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width < 300 || img.Height <= 0 {
		t.Errorf("pdf417 size = %dx%d", img.Width, img.Height)
	}
}

type countingSource struct{ calls int }

func (s *countingSource) Code(_ context.Context, content string, px int) ([]byte, error) {
	s.calls++
	return []byte(content), nil
}

func TestCachedSource(t *testing.T) {
	inner := &countingSource{}
	src := &CachedSource{Source: inner, Cache: NewMemoryCache(4), Kind: "qr"}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := src.Code(ctx, "https://example.org", 100); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := src.Code(ctx, "https://example.org", 200); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner source called %d times, want 2", inner.calls)
	}
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("oldest entry was not evicted")
	}
	if v, ok, _ := c.Get(ctx, "c"); !ok || string(v) != "3" {
		t.Errorf("Get(c) = %q, %v", v, ok)
	}
}

func TestMemoryCacheExpiredKeyDoesNotEvictFresh(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCache(2)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "a", []byte("old"), time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatal("expired entry returned")
	}
	_ = c.Set(ctx, "a", []byte("new"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if v, ok, _ := c.Get(ctx, "a"); !ok || string(v) != "new" {
		t.Errorf("Get(a) = %q, %v; fresh entry evicted", v, ok)
	}
	if c.Len() != 2 || c.order.Len() != 2 {
		t.Errorf("Len = %d, order = %d, want 2", c.Len(), c.order.Len())
	}

	_ = c.Set(ctx, "c", []byte("3"), 0)
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("oldest entry was not evicted")
	}
	if c.order.Len() != 2 {
		t.Errorf("order = %d, want 2", c.order.Len())
	}
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	ihdr := make([]byte, 17)
	copy(ihdr, "IHDR")
	binary.BigEndian.PutUint32(ihdr[4:], 40000)
	binary.BigEndian.PutUint32(ihdr[8:], 40000)
	ihdr[12], ihdr[13] = 8, 6
	data := []byte("\x89PNG\r\n\x1a\n")
	data = binary.BigEndian.AppendUint32(data, 13)
	data = append(data, ihdr...)
	data = binary.BigEndian.AppendUint32(data, crc32.ChecksumIEEE(ihdr))

	if _, err := Decode(data); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Decode = %v, want ErrTooLarge", err)
	}
}

func TestKeyDistinguishesParts(t *testing.T) {
	if Key("x", "ab", "c") == Key("x", "a", "bc") {
		t.Error("key collision across part boundaries")
	}
}
