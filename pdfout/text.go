package pdfout

import (
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/taskenti/topoguia/canvas"
)

// The core PDF fonts use Windows-1252. Text is composed to NFC first so
// accents typed as combining marks map onto the precomposed Latin-1 letters.
type encoder struct {
	b strings.Builder
}

func newEncoder() *encoder { return &encoder{} }

func (e *encoder) encode(s string) string {
	e.b.Reset()
	for _, r := range norm.NFC.String(s) {
		if r < 0x80 {
			e.b.WriteByte(byte(r))
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			e.b.WriteByte(c)
			continue
		}
		e.b.WriteByte('?')
	}
	return e.b.String()
}

// Measurer measures strings with the core font metrics used by Write. It is
// safe for concurrent use.
type Measurer struct {
	mu  sync.Mutex
	pdf *fpdf.Fpdf
	enc *encoder
}

// NewMeasurer creates a Measurer.
func NewMeasurer() *Measurer {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCellMargin(0)
	return &Measurer{pdf: pdf, enc: newEncoder()}
}

// StringWidth returns the width of s in millimetres.
func (m *Measurer) StringWidth(font canvas.Font, s string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(font.Family, font.Style, font.Size)
	return m.pdf.GetStringWidth(m.enc.encode(s))
}
