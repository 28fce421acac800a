package block

import (
	"math"
	"strings"

	"github.com/taskenti/topoguia/canvas"
)

// TextBlock is a paragraph of word-wrapped text. Newlines start new
// paragraphs; blank lines are kept.
type TextBlock struct {
	Placement
	Text       string
	Font       canvas.Font
	Color      canvas.Color
	LineHeight float64 // millimetres per line
	Align      canvas.Align

	// Fill paints a background box behind the text, inset by Padding.
	Fill    *canvas.Color
	Padding float64

	lines []string // pre-wrapped continuation after a split
}

func (b TextBlock) Kind() Kind { return KindText }

func (b TextBlock) Present() bool {
	return len(b.lines) > 0 || strings.TrimSpace(b.Text) != ""
}

func (b TextBlock) wrap(m Measurer, width float64) []string {
	if b.lines != nil {
		return b.lines
	}
	return Wrap(m, b.Font, strings.TrimSpace(b.Text), width-2*b.Padding)
}

func (b TextBlock) height(n int) float64 {
	return math.Ceil(float64(n)*b.LineHeight) + 2*b.Padding
}

func (b TextBlock) Render(m Measurer, width float64) (Rendered, error) {
	lines := b.wrap(m, width)
	h := b.height(len(lines))

	var out Rendered
	if b.Fill != nil {
		out.Commands = append(out.Commands, canvas.FilledRect{
			Rect:  canvas.Rect{W: width, H: h},
			Color: *b.Fill,
		})
	}
	out.Commands = append(out.Commands, canvas.TextBox{
		Rect:       canvas.Rect{X: b.Padding, Y: b.Padding, W: width - 2*b.Padding, H: float64(len(lines)) * b.LineHeight},
		Lines:      lines,
		Font:       b.Font,
		Color:      b.Color,
		LineHeight: b.LineHeight,
		Align:      b.Align,
	})
	for _, l := range lines {
		if m.StringWidth(b.Font, l) > width-2*b.Padding {
			out.Warnings = append(out.Warnings, warn(b.Placement, KindText, "word wider than column: %q", l))
		}
	}
	out.Height = h
	return out, nil
}

// Split breaks the text between lines so the head fits within maxHeight.
func (b TextBlock) Split(m Measurer, width, maxHeight float64) (Block, Block, bool) {
	lines := b.wrap(m, width)
	n := 0
	for n < len(lines) && b.height(n+1) <= maxHeight {
		n++
	}
	if n == 0 || n >= len(lines) {
		return nil, nil, false
	}
	head, tail := b, b
	head.lines = lines[:n:n]
	head.Gap = 0
	tail.lines = lines[n:]
	return head, tail, true
}

// Wrap breaks text into lines no wider than width. Words are never split: a
// word wider than width gets a line of its own.
func Wrap(m Measurer, font canvas.Font, text string, width float64) []string {
	if text == "" {
		return nil
	}
	space := m.StringWidth(font, " ")
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		lineW := m.StringWidth(font, line)
		for _, w := range words[1:] {
			ww := m.StringWidth(font, w)
			if lineW+space+ww <= width {
				line += " " + w
				lineW += space + ww
				continue
			}
			lines = append(lines, line)
			line, lineW = w, ww
		}
		lines = append(lines, line)
	}
	return lines
}

// Truncate shortens s with a trailing ellipsis until it fits width. It
// returns s unchanged when it already fits.
func Truncate(m Measurer, font canvas.Font, s string, width float64) (string, bool) {
	if m.StringWidth(font, s) <= width {
		return s, false
	}
	const ellipsis = "..."
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		cand := strings.TrimRight(string(r), " ") + ellipsis
		if m.StringWidth(font, cand) <= width {
			return cand, true
		}
	}
	return "", true
}
