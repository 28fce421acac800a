package pdfout

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/taskenti/topoguia/canvas"
)

var fixedDate = time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		m.Set(x, x%4, color.RGBA{0, 128, 0, 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sampleDocument(t *testing.T, o canvas.Orientation) *canvas.Document {
	t.Helper()
	green := canvas.Color{G: 128}
	doc := canvas.NewDocument(o, canvas.A4, canvas.UniformMargins(10),
		canvas.WithHeader(func(p *canvas.Page, _ int) []canvas.Command {
			return []canvas.Command{canvas.FilledRect{Rect: canvas.Rect{W: p.Size().Width, H: 25}, Color: green}}
		}))
	p, err := doc.AddPage()
	if err != nil {
		t.Fatal(err)
	}
	img := samplePNG(t)
	err = p.Add(
		canvas.TextBox{
			Rect:       canvas.Rect{X: 10, Y: 30, W: 115, H: 10},
			Lines:      []string{"Sendero de la Hoz del Río Dulce", "Desnivel: 350 m · Pequeño"},
			Font:       canvas.Font{Family: "Helvetica", Size: 10},
			LineHeight: 5,
			Align:      canvas.AlignLeft,
		},
		canvas.ImageBox{Rect: canvas.Rect{X: 10, Y: 50, W: 80, H: 40}, Name: "map", Data: img, Format: "png"},
		canvas.ImageBox{Rect: canvas.Rect{X: 100, Y: 50, W: 40, H: 20}, Name: "map", Data: img, Format: "png"},
		canvas.RotatedText{Rect: canvas.Rect{X: 0, Y: 100, W: 15, H: 80}, Text: "PR-GU 08", Font: canvas.Font{Family: "Helvetica", Style: "B", Size: 16}, Color: canvas.White, Angle: 90},
		canvas.Rule{X1: 10, Y1: 200, X2: 200, Y2: 200, Width: 0.3},
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.AddPage(); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestWriteIsDeterministic(t *testing.T) {
	opts := []Option{WithDate(fixedDate), WithTitle("PR-GU 08 Hoz del Río Dulce"), WithCreator("topoguia")}

	a, err := Bytes(sampleDocument(t, canvas.Portrait), opts...)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Bytes(sampleDocument(t, canvas.Portrait), opts...)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(a, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header: %q", a[:min(len(a), 8)])
	}
	if !bytes.Equal(a, b) {
		t.Error("identical documents produced different bytes")
	}
}

func filledPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// equalWidthDocument places three distinct images that share a pixel width,
// the way banner, map and profile do in a portrait guide.
func equalWidthDocument(t *testing.T) *canvas.Document {
	t.Helper()
	doc := canvas.NewDocument(canvas.Portrait, canvas.A4, canvas.UniformMargins(10))
	p, err := doc.AddPage()
	if err != nil {
		t.Fatal(err)
	}
	banner := filledPNG(t, 30, 10, color.RGBA{R: 90, G: 90, B: 90, A: 255})
	route := filledPNG(t, 30, 9, color.RGBA{G: 200, A: 255})
	profile := filledPNG(t, 30, 6, color.RGBA{B: 200, A: 255})
	err = p.Add(
		canvas.ImageBox{Rect: canvas.Rect{X: 10, Y: 10, W: 190, H: 60}, Name: "banner", Data: banner, Format: "png"},
		canvas.ImageBox{Rect: canvas.Rect{X: 10, Y: 80, W: 190, H: 57}, Name: "map", Data: route, Format: "png"},
		canvas.ImageBox{Rect: canvas.Rect{X: 10, Y: 150, W: 190, H: 38}, Name: "profile", Data: profile, Format: "png"},
		canvas.ImageBox{Rect: canvas.Rect{X: 10, Y: 200, W: 95, H: 28}, Name: "map", Data: route, Format: "png"},
	)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestWriteEqualWidthImagesIsDeterministic(t *testing.T) {
	want, err := Bytes(equalWidthDocument(t), WithDate(fixedDate))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		got, err := Bytes(equalWidthDocument(t), WithDate(fixedDate))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("run %d produced different bytes", i+1)
		}
	}
	for _, w := range []string{"/Width 30\n", "/Width 29\n", "/Width 28\n"} {
		if n := bytes.Count(want, []byte(w)); n != 1 {
			t.Errorf("%q appears %d times, want 1", w, n)
		}
	}
}

func TestNarrow(t *testing.T) {
	out, err := narrow(filledPNG(t, 40, 20, color.RGBA{R: 255, A: 255}), 39)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 39 || cfg.Height != 20 {
		t.Errorf("narrowed to %dx%d, want 39x20", cfg.Width, cfg.Height)
	}
}

func TestWriteFinalizesDocument(t *testing.T) {
	doc := sampleDocument(t, canvas.Landscape)
	if _, err := Bytes(doc, WithDate(fixedDate)); err != nil {
		t.Fatal(err)
	}
	if !doc.Finalized() {
		t.Error("document not finalized after Write")
	}
	if err := doc.Page(0).Add(canvas.FilledRect{}); !errors.Is(err, canvas.ErrFinalized) {
		t.Errorf("Add after Write = %v, want ErrFinalized", err)
	}
}

func TestWriteEmptyDocument(t *testing.T) {
	doc := canvas.NewDocument(canvas.Portrait, canvas.A4, canvas.UniformMargins(10))
	if _, err := Bytes(doc); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestWriteRejectsCorruptImage(t *testing.T) {
	doc := canvas.NewDocument(canvas.Portrait, canvas.A4, canvas.UniformMargins(10))
	p, _ := doc.AddPage()
	_ = p.Add(canvas.ImageBox{Rect: canvas.Rect{W: 10, H: 10}, Name: "bad", Data: []byte("nope"), Format: "png"})
	if _, err := Bytes(doc, WithDate(fixedDate)); err == nil {
		t.Error("expected an error for a corrupt image")
	}
}

func TestStationery(t *testing.T) {
	letterhead, err := Bytes(sampleDocument(t, canvas.Portrait), WithDate(fixedDate))
	if err != nil {
		t.Fatal(err)
	}

	out, err := Bytes(sampleDocument(t, canvas.Portrait), WithDate(fixedDate), WithStationery(letterhead))
	if err != nil {
		t.Fatalf("with stationery: %v", err)
	}
	if len(out) <= len(letterhead) {
		t.Errorf("stationery output (%d bytes) is not larger than the plain document (%d bytes)", len(out), len(letterhead))
	}

	if _, err := Bytes(sampleDocument(t, canvas.Portrait), WithStationery([]byte("not a pdf"))); err == nil {
		t.Error("expected an error for invalid stationery")
	}
}

func TestMeasurer(t *testing.T) {
	m := NewMeasurer()
	f := canvas.Font{Family: "Helvetica", Size: 10}

	if w := m.StringWidth(f, "Distancia"); w <= 0 {
		t.Fatalf("width = %v", w)
	}
	if a, b := m.StringWidth(f, "Ñ"), m.StringWidth(f, "N"); a != b {
		t.Errorf("width(Ñ) = %v, width(N) = %v", a, b)
	}
	if a, b := m.StringWidth(f, "e\u0301"), m.StringWidth(f, "\u00e9"); a != b {
		t.Errorf("decomposed accent measured %v, composed %v", a, b)
	}
	bold := f
	bold.Style = "B"
	if m.StringWidth(bold, "distancia") <= m.StringWidth(f, "distancia") {
		t.Error("bold text should be wider")
	}
}

func TestEncode(t *testing.T) {
	enc := newEncoder()
	tests := []struct{ in, want string }{
		{"Ruta", "Ruta"},
		{"Río", "R\xedo"},
		{"11,0 €", "11,0 \x80"},
		{"雪", "?"},
	}
	for _, tt := range tests {
		if got := enc.encode(tt.in); got != tt.want {
			t.Errorf("encode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
