package block

import (
	"strings"

	"github.com/taskenti/topoguia/canvas"
)

// MinLabelFontSize is the smallest size a rotated caption is shrunk to before
// it is truncated.
const MinLabelFontSize = 6

// RotatedLabelBlock is a caption bar with text running bottom to top. Its
// height is always BarHeight, whatever the length of the text.
type RotatedLabelBlock struct {
	Placement
	Text      string
	Font      canvas.Font
	Color     canvas.Color
	Fill      *canvas.Color
	BarHeight float64
	// Thickness is the bar width; zero uses the available width.
	Thickness float64
	// Padding is kept free at both ends of the bar.
	Padding float64
}

func (b RotatedLabelBlock) Kind() Kind { return KindLabel }

func (b RotatedLabelBlock) Present() bool { return strings.TrimSpace(b.Text) != "" }

func (b RotatedLabelBlock) Render(m Measurer, width float64) (Rendered, error) {
	thick := width
	if b.Thickness > 0 && b.Thickness < width {
		thick = b.Thickness
	}
	avail := b.BarHeight - 2*b.Padding

	text, font, shrunk, cut := b.fitText(m, avail)

	var out Rendered
	if b.Fill != nil {
		out.Commands = append(out.Commands, canvas.FilledRect{
			Rect:  canvas.Rect{W: thick, H: b.BarHeight},
			Color: *b.Fill,
		})
	}
	out.Commands = append(out.Commands, canvas.RotatedText{
		Rect:  canvas.Rect{W: thick, H: b.BarHeight},
		Text:  text,
		Font:  font,
		Color: b.Color,
		Angle: 90,
	})
	switch {
	case cut:
		out.Warnings = append(out.Warnings, warn(b.Placement, KindLabel, "caption truncated to %q", text))
	case shrunk:
		out.Warnings = append(out.Warnings, warn(b.Placement, KindLabel, "caption shrunk to %.1fpt", font.Size))
	}
	out.Height = b.BarHeight
	return out, nil
}

// fitText shrinks the font in half-point steps down to MinLabelFontSize and
// then truncates the text.
func (b RotatedLabelBlock) fitText(m Measurer, avail float64) (string, canvas.Font, bool, bool) {
	text := strings.TrimSpace(b.Text)
	font := b.Font
	shrunk := false
	for m.StringWidth(font, text) > avail && font.Size-0.5 >= MinLabelFontSize {
		font.Size -= 0.5
		shrunk = true
	}
	text, cut := Truncate(m, font, text, avail)
	return text, font, shrunk, cut
}
