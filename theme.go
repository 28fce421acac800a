package topoguia

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/taskenti/topoguia/canvas"
)

// Color is an RGB color written as "#rrggbb" in theme files.
type Color canvas.Color

// RGB returns the color for drawing.
func (c Color) RGB() canvas.Color { return canvas.Color(c) }

func (c Color) MarshalText() ([]byte, error) {
	return fmt.Appendf(nil, "#%02x%02x%02x", c.R, c.G, c.B), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.TrimSpace(string(text)), "#")
	if len(s) != 6 {
		return fmt.Errorf("%w: color %q is not #rrggbb", ErrInvalidParam, text)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return fmt.Errorf("%w: color %q: %v", ErrInvalidParam, text, err)
	}
	*c = Color{R: r, G: g, B: b}
	return nil
}

// Theme holds the institutional look of every guide produced by a
// Generator. It is fixed at construction time.
type Theme struct {
	Institution string `toml:"institution"`
	Footer      string `toml:"footer"`
	Author      string `toml:"author"`
	Creator     string `toml:"creator"`
	FontFamily  string `toml:"font_family"`
	QRCaption   string `toml:"qr_caption"`

	Brand     Color `toml:"brand"`      // header band and side bars
	BrandText Color `toml:"brand_text"` // text on brand color
	Panel     Color `toml:"panel"`      // fact sheet background
	Text      Color `toml:"text"`
	Muted     Color `toml:"muted"` // footer
	Heading   Color `toml:"heading"`
	Advisory  Color `toml:"advisory"` // recommendations box

	Margin float64 `toml:"margin"` // millimetres, left and right
}

// DefaultTheme returns the green brand theme.
func DefaultTheme() Theme {
	return Theme{
		Footer:     "Generado con herramienta web interna",
		Creator:    "topoguia",
		FontFamily: "Helvetica",
		QRCaption:  "Más información",
		Brand:      Color{G: 128},
		BrandText:  Color{R: 255, G: 255, B: 255},
		Panel:      Color{R: 240, G: 240, B: 240},
		Text:       Color{},
		Muted:      Color{R: 128, G: 128, B: 128},
		Heading:    Color{G: 100},
		Advisory:   Color{R: 255, G: 243, B: 205},
		Margin:     10,
	}
}

// DecodeTheme reads a TOML theme over the defaults. Unknown keys are
// rejected.
func DecodeTheme(r io.Reader) (Theme, error) {
	t := DefaultTheme()
	md, err := toml.NewDecoder(r).Decode(&t)
	if err != nil {
		return Theme{}, fmt.Errorf("topoguia: decoding theme: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Theme{}, fmt.Errorf("%w: unknown theme keys %s", ErrInvalidParam, strings.Join(keys, ", "))
	}
	return t, t.validate()
}

// LoadTheme reads a TOML theme file.
func LoadTheme(path string) (Theme, error) {
	f, err := openFile(path)
	if err != nil {
		return Theme{}, err
	}
	defer f.Close()
	t, err := DecodeTheme(f)
	if err != nil {
		return Theme{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func (t Theme) validate() error {
	if t.Margin < 0 || t.Margin > 40 {
		return fmt.Errorf("%w: margin %.1f out of range 0..40", ErrInvalidParam, t.Margin)
	}
	switch strings.ToLower(t.FontFamily) {
	case "helvetica", "arial", "times", "courier":
	default:
		return fmt.Errorf("%w: font family %q is not a core font", ErrInvalidParam, t.FontFamily)
	}
	return nil
}

func (t Theme) font(style string, size float64) canvas.Font {
	return canvas.Font{Family: t.FontFamily, Style: style, Size: size}
}
