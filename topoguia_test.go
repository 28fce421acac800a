package topoguia_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"encoding/binary"
	"hash/crc32"
	"sync"
	"testing"
	"time"

	"github.com/taskenti/topoguia"
	"github.com/taskenti/topoguia/asset"
)

var fixedDate = time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedDate }

func pngBytes(t *testing.T, w, h int, c color.RGBA) []byte {
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

// guide returns the PR-GU 08 field set with every required entry.
func guide(t *testing.T) *topoguia.FieldSet {
	t.Helper()
	return topoguia.NewFieldSet().
		Set(topoguia.FieldRouteCode, "PR-GU 08").
		Set(topoguia.FieldRouteName, "Hoz del Río Dulce").
		SetNumber(topoguia.FieldDistance, 11, "Km").
		Set(topoguia.FieldTime, "2h 35m").
		Set(topoguia.FieldElevation, "+320 / -320 m").
		Set(topoguia.FieldRouteType, "Circular").
		Set(topoguia.FieldDescription, "Recorrido por la hoz del río entre cortados calizos y sabinares.").
		Set(topoguia.FieldURL, "https://example.org/rutas/pr-gu-08").
		SetImage(topoguia.SlotMap, pngBytes(t, 300, 90, color.RGBA{G: 200, A: 255})).
		SetImage(topoguia.SlotProfile, pngBytes(t, 300, 60, color.RGBA{B: 200, A: 255})).
		SetImage(topoguia.SlotMIDE, pngBytes(t, 100, 40, color.RGBA{R: 200, A: 255}))
}

func generator(t *testing.T, opts ...topoguia.Option) *topoguia.Generator {
	t.Helper()
	g, err := topoguia.New(append([]topoguia.Option{topoguia.WithClock(fixedClock)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestGenerate(t *testing.T) {
	res, err := generator(t).Generate(context.Background(), guide(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(res.Data, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", res.Data[:min(len(res.Data), 8)])
	}
	if want := "Topoguia_PR-GU_08_20240517.pdf"; res.Filename != want {
		t.Errorf("Filename = %q, want %q", res.Filename, want)
	}
	if res.Pages != 1 {
		t.Errorf("Pages = %d, want 1", res.Pages)
	}
	if !res.Document.Finalized() {
		t.Error("document not finalized")
	}
}

func TestGenerateMissingMIDE(t *testing.T) {
	fs := guide(t).SetImage(topoguia.SlotMIDE, nil)
	_, err := generator(t).Generate(context.Background(), fs)

	var verr *topoguia.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Generate error = %v, want *ValidationError", err)
	}
	if want := []string{"Imagen de Tabla MIDE"}; !reflect.DeepEqual(verr.Missing, want) {
		t.Errorf("Missing = %q, want %q", verr.Missing, want)
	}
}

func TestGenerateValidatesBeforeDecoding(t *testing.T) {
	fs := guide(t).
		Set(topoguia.FieldTime, "   ").
		SetImage(topoguia.SlotMap, []byte("not an image"))
	_, err := generator(t).Generate(context.Background(), fs)

	var verr *topoguia.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Generate error = %v, want *ValidationError", err)
	}
	if want := []string{"Tiempo"}; !reflect.DeepEqual(verr.Missing, want) {
		t.Errorf("Missing = %q, want %q", verr.Missing, want)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	// Banner, map and profile share a pixel width and a placed width.
	fs := func() *topoguia.FieldSet {
		return guide(t).SetImage(topoguia.SlotBanner, pngBytes(t, 300, 75, color.RGBA{R: 90, G: 90, B: 90, A: 255}))
	}
	for _, tpl := range []topoguia.Template{topoguia.TemplatePortrait, topoguia.TemplateColumns, topoguia.TemplateLandscape} {
		t.Run(string(tpl), func(t *testing.T) {
			g := generator(t, topoguia.WithTemplate(tpl))
			want, err := g.Generate(context.Background(), fs())
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 10; i++ {
				got, err := g.Generate(context.Background(), fs())
				if err != nil {
					t.Fatal(err)
				}
				if !bytes.Equal(got.Data, want.Data) {
					t.Fatalf("run %d: identical input produced different bytes", i+1)
				}
			}
		})
	}
}

func TestGenerateCorruptRequiredImage(t *testing.T) {
	fs := guide(t).SetImage(topoguia.SlotProfile, []byte("garbage"))
	_, err := generator(t).Generate(context.Background(), fs)

	var derr *topoguia.AssetDecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Generate error = %v, want *AssetDecodeError", err)
	}
	if derr.Slot != topoguia.SlotProfile {
		t.Errorf("Slot = %q, want %q", derr.Slot, topoguia.SlotProfile)
	}
}

func TestGenerateCorruptOptionalImage(t *testing.T) {
	fs := guide(t).
		SetImage(topoguia.SlotBanner, []byte("garbage")).
		AddPhoto([]byte("also garbage"))
	res, err := generator(t, topoguia.WithTemplate(topoguia.TemplateColumns)).Generate(context.Background(), fs)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var blocks []string
	for _, w := range res.Warnings {
		blocks = append(blocks, w.Block)
	}
	for _, want := range []string{"Foto Panorámica", "Fotos adicionales 1"} {
		found := false
		for _, b := range blocks {
			found = found || b == want
		}
		if !found {
			t.Errorf("no warning for %q in %q", want, blocks)
		}
	}
}

func TestTemplates(t *testing.T) {
	tests := []struct {
		template topoguia.Template
		minPages int
		maxPages int
	}{
		{topoguia.TemplatePortrait, 1, 2},
		{topoguia.TemplateColumns, 1, 2},
		{topoguia.TemplateLandscape, 2, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.template), func(t *testing.T) {
			fs := guide(t).
				Set(topoguia.FieldPointsOfInterest, "Mirador de Félix Rodríguez de la Fuente.").
				Set(topoguia.FieldAdvisory, "Llevar agua.").
				Set(topoguia.FieldContact, "info@example.org").
				SetImage(topoguia.SlotBanner, pngBytes(t, 400, 100, color.RGBA{R: 90, G: 90, B: 90, A: 255})).
				SetImage(topoguia.SlotLogo, pngBytes(t, 60, 60, color.RGBA{R: 255, A: 255}))
			res, err := generator(t, topoguia.WithTemplate(tt.template)).Generate(context.Background(), fs)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if res.Pages < tt.minPages || res.Pages > tt.maxPages {
				t.Errorf("Pages = %d, want %d..%d", res.Pages, tt.minPages, tt.maxPages)
			}
		})
	}
}

func TestPortraitBreaksLongDescription(t *testing.T) {
	fs := guide(t).Set(topoguia.FieldDescription, strings.Repeat("sendero entre pinares y barrancos ", 400))
	res, err := generator(t).Generate(context.Background(), fs)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Pages < 2 {
		t.Errorf("Pages = %d, want a page break", res.Pages)
	}
}

func TestLandscapeKeepsTwoPages(t *testing.T) {
	fs := guide(t).
		Set(topoguia.FieldDescription, strings.Repeat("sendero entre pinares y barrancos ", 400)).
		Set(topoguia.FieldAdvisory, strings.Repeat("llevar agua y calzado adecuado ", 200))
	res, err := generator(t, topoguia.WithTemplate(topoguia.TemplateLandscape)).Generate(context.Background(), fs)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2", res.Pages)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected overflow warnings for truncated text")
	}
}

// crowded fills every text field well past what a page holds.
func crowded(t *testing.T) *topoguia.FieldSet {
	t.Helper()
	return guide(t).
		Set(topoguia.FieldDescription, strings.Repeat("Sendero entre pinares y barrancos calizos. ", 80)).
		Set(topoguia.FieldPointsOfInterest, strings.Repeat("Mirador, fuente y puente romano. ", 40)).
		Set(topoguia.FieldAdvisory, strings.Repeat("Llevar agua y calzado adecuado en todo momento. ", 60)).
		Set(topoguia.FieldContact, "info@example.org").
		SetImage(topoguia.SlotBanner, pngBytes(t, 400, 100, color.RGBA{R: 90, G: 90, B: 90, A: 255})).
		SetImage(topoguia.SlotLogo, pngBytes(t, 60, 60, color.RGBA{R: 255, A: 255})).
		AddPhoto(pngBytes(t, 120, 80, color.RGBA{R: 40, G: 120, B: 40, A: 255}))
}

func TestGenerateKeepsContentOnPage(t *testing.T) {
	for _, tpl := range []topoguia.Template{topoguia.TemplatePortrait, topoguia.TemplateColumns, topoguia.TemplateLandscape} {
		t.Run(string(tpl), func(t *testing.T) {
			res, err := generator(t, topoguia.WithTemplate(tpl)).Generate(context.Background(), crowded(t))
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			for _, p := range res.Document.Pages() {
				height := p.Size().Height
				for _, c := range p.Commands() {
					if b := c.Bounds(); b.Y < 0 || b.Bottom() > height+1e-6 {
						t.Errorf("page %d: %T at y=%.1f h=%.1f beyond page height %.0f", p.Number(), c, b.Y, b.H, height)
					}
				}
			}
			if tpl == topoguia.TemplateLandscape && res.Pages != 2 {
				t.Errorf("Pages = %d, want 2", res.Pages)
			}
		})
	}
}

func TestGenerateConcurrent(t *testing.T) {
	g := generator(t,
		topoguia.WithTemplate(topoguia.TemplateColumns),
		topoguia.WithCache(asset.NewMemoryCache(16), time.Hour),
	)
	inputs := []func() *topoguia.FieldSet{
		func() *topoguia.FieldSet { return guide(t) },
		func() *topoguia.FieldSet { return crowded(t) },
		func() *topoguia.FieldSet {
			return guide(t).Set(topoguia.FieldRouteCode, "PR-GU 09").Set(topoguia.FieldURL, "https://example.org/rutas/pr-gu-09")
		},
	}
	want := make([][]byte, len(inputs))
	for i, in := range inputs {
		res, err := g.Generate(context.Background(), in())
		if err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
		want[i] = res.Data
	}

	var wg sync.WaitGroup
	for n := 0; n < 4*len(inputs); n++ {
		i := n % len(inputs)
		fs := inputs[i]()
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := g.Generate(context.Background(), fs)
			if err != nil {
				t.Errorf("Generate %d: %v", i, err)
				return
			}
			if !bytes.Equal(res.Data, want[i]) {
				t.Errorf("concurrent generation of input %d differs from the serial one", i)
			}
		}()
	}
	wg.Wait()
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := generator(t).Generate(ctx, guide(t))

	var gerr *topoguia.GenerateError
	if !errors.As(err, &gerr) || gerr.Stage != topoguia.StagePrepare {
		t.Fatalf("Generate error = %v, want *GenerateError in the prepare stage", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error %v does not wrap context.Canceled", err)
	}
	if gerr.Route != "PR-GU 08" || gerr.Template != topoguia.TemplatePortrait {
		t.Errorf("error context = %q %q", gerr.Route, gerr.Template)
	}
}

// pngHeader returns a PNG signature and header declaring a w x h RGBA image
// with no pixel data.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 17)
	copy(ihdr, "IHDR")
	binary.BigEndian.PutUint32(ihdr[4:], w)
	binary.BigEndian.PutUint32(ihdr[8:], h)
	ihdr[12], ihdr[13] = 8, 6

	out := []byte("\x89PNG\r\n\x1a\n")
	out = binary.BigEndian.AppendUint32(out, 13)
	out = append(out, ihdr...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(ihdr))
}

func TestGenerateRejectsOversizedImage(t *testing.T) {
	fs := guide(t).SetImage(topoguia.SlotMap, pngHeader(40000, 40000))
	_, err := generator(t).Generate(context.Background(), fs)

	var derr *topoguia.AssetDecodeError
	if !errors.As(err, &derr) || derr.Slot != topoguia.SlotMap {
		t.Fatalf("Generate error = %v, want *AssetDecodeError for the map", err)
	}
	if !errors.Is(err, asset.ErrTooLarge) {
		t.Errorf("error %v does not wrap asset.ErrTooLarge", err)
	}
}

func TestNewUnknownTemplate(t *testing.T) {
	_, err := topoguia.New(topoguia.WithTemplate("tríptico"))
	if !errors.Is(err, topoguia.ErrUnknownTemplate) {
		t.Errorf("New error = %v, want ErrUnknownTemplate", err)
	}
}

func TestParseTemplate(t *testing.T) {
	got, err := topoguia.ParseTemplate(" Landscape ")
	if err != nil || got != topoguia.TemplateLandscape {
		t.Errorf("ParseTemplate = %q, %v", got, err)
	}
	if len(topoguia.Templates()) != 3 {
		t.Errorf("Templates() = %d entries, want 3", len(topoguia.Templates()))
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"PR-GU 08", "Topoguia_PR-GU_08_20240517.pdf"},
		{" SL-M 1 ", "Topoguia_SL-M_1_20240517.pdf"},
		{"GR 10/2", "Topoguia_GR_10-2_20240517.pdf"},
	}
	for _, tt := range tests {
		if got := topoguia.Filename(tt.code, fixedDate); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestSetNumber(t *testing.T) {
	fs := topoguia.NewFieldSet().
		SetNumber(topoguia.FieldDistance, 11, "Km").
		SetNumber(topoguia.FieldMaxAltitude, 1254.36, "m")
	if got := fs.Get(topoguia.FieldDistance); got != "11,0 Km" {
		t.Errorf("distance = %q", got)
	}
	if got := fs.Get(topoguia.FieldMaxAltitude); got != "1254,4 m" {
		t.Errorf("max altitude = %q", got)
	}
}

func TestMissingOrder(t *testing.T) {
	got := topoguia.NewFieldSet().Set(topoguia.FieldRouteName, "x").Missing()
	want := []string{
		"Código de Ruta", "Distancia", "Tiempo",
		"Imagen Mapa", "Imagen Perfil Elevación", "Imagen de Tabla MIDE",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Missing = %q, want %q", got, want)
	}
}

func TestDecodeTheme(t *testing.T) {
	th, err := topoguia.DecodeTheme(strings.NewReader(`
institution = "Diputación de Guadalajara"
brand = "#1a5e20"
margin = 12
`))
	if err != nil {
		t.Fatal(err)
	}
	if th.Institution != "Diputación de Guadalajara" || th.Margin != 12 {
		t.Errorf("theme = %+v", th)
	}
	if th.Brand != (topoguia.Color{R: 0x1a, G: 0x5e, B: 0x20}) {
		t.Errorf("brand = %v", th.Brand)
	}
	if th.Footer != topoguia.DefaultTheme().Footer {
		t.Errorf("footer default lost: %q", th.Footer)
	}
}

func TestDecodeThemeErrors(t *testing.T) {
	for _, src := range []string{
		`colour = "#000000"`,
		`brand = "green"`,
		`margin = 80`,
		`font_family = "Comic Sans"`,
	} {
		if _, err := topoguia.DecodeTheme(strings.NewReader(src)); err == nil {
			t.Errorf("DecodeTheme(%q) succeeded", src)
		}
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	img := pngBytes(t, 20, 10, color.RGBA{A: 255})
	write("mapa.png", img)
	write("foto.png", img)
	write("guia.toml", []byte(`
photos = ["foto.png"]

[fields]
route_code = "PR-GU 08"
route_name = "Hoz del Río Dulce"

[images]
map = "mapa.png"
`))

	fs, err := topoguia.LoadManifest(filepath.Join(dir, "guia.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if fs.Get(topoguia.FieldRouteCode) != "PR-GU 08" {
		t.Errorf("route code = %q", fs.Get(topoguia.FieldRouteCode))
	}
	if data, ok := fs.Image(topoguia.SlotMap); !ok || !bytes.Equal(data, img) {
		t.Error("map image not loaded")
	}
	if len(fs.Photos()) != 1 {
		t.Errorf("photos = %d, want 1", len(fs.Photos()))
	}
}

func TestDecodeManifestUnknownField(t *testing.T) {
	_, err := topoguia.DecodeManifest(strings.NewReader("[fields]\nlength = \"3\"\n"))
	if !errors.Is(err, topoguia.ErrUnknownField) {
		t.Errorf("error = %v, want ErrUnknownField", err)
	}
}
