// Package canvas models the pages of a generated document: fixed page
// geometry, a write cursor and the drawing commands placed on each page.
//
// A Page is written while the layout runs and becomes read-only once its
// Document is finalized. Serializers such as pdfout and preview only read
// finalized documents. All lengths are millimetres; font sizes are points.
package canvas

import (
	"errors"
	"fmt"
)

// ErrFinalized is returned when content is added to a finalized page or
// document.
var ErrFinalized = errors.New("canvas: document is finalized")

// Orientation is the page orientation.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// Code returns the single-letter orientation code used by PDF writers.
func (o Orientation) Code() string {
	if o == Landscape {
		return "L"
	}
	return "P"
}

// Size is a page size in millimetres.
type Size struct {
	Width, Height float64
}

// A4 is the ISO A4 sheet in portrait orientation.
var A4 = Size{Width: 210, Height: 297}

// Oriented returns s with its sides swapped, if needed, to match o.
func (s Size) Oriented(o Orientation) Size {
	long, short := s.Height, s.Width
	if s.Width > s.Height {
		long, short = s.Width, s.Height
	}
	if o == Landscape {
		return Size{Width: long, Height: short}
	}
	return Size{Width: short, Height: long}
}

// Margins defines the page margins.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// UniformMargins creates Margins with the same value on all sides.
func UniformMargins(v float64) Margins {
	return Margins{Top: v, Right: v, Bottom: v, Left: v}
}

// Page is a rectangular canvas with a write cursor and the commands drawn on
// it so far.
type Page struct {
	number      int
	orientation Orientation
	size        Size
	margins     Margins
	x, y        float64
	commands    []Command
	finalized   bool
}

// NewPage creates a standalone page with the cursor at the top-left margin.
// The size is rotated to match the orientation.
func NewPage(o Orientation, size Size, m Margins) *Page {
	return &Page{
		number:      1,
		orientation: o,
		size:        size.Oriented(o),
		margins:     m,
		x:           m.Left,
		y:           m.Top,
	}
}

// Number returns the 1-based page number within its document.
func (p *Page) Number() int { return p.number }

// Orientation returns the page orientation.
func (p *Page) Orientation() Orientation { return p.orientation }

// Size returns the oriented page size.
func (p *Page) Size() Size { return p.size }

// Margins returns the page margins.
func (p *Page) Margins() Margins { return p.margins }

// Cursor returns the current write position.
func (p *Page) Cursor() (x, y float64) { return p.x, p.y }

// SetCursor moves the write position.
func (p *Page) SetCursor(x, y float64) {
	p.x, p.y = x, y
}

// Top returns the y coordinate of the top margin.
func (p *Page) Top() float64 { return p.margins.Top }

// Bottom returns the y coordinate of the bottom margin.
func (p *Page) Bottom() float64 { return p.size.Height - p.margins.Bottom }

// ContentWidth returns the width between the left and right margins.
func (p *Page) ContentWidth() float64 {
	return p.size.Width - p.margins.Left - p.margins.Right
}

// RemainingHeight returns the space between y and the bottom margin.
func (p *Page) RemainingHeight(y float64) float64 {
	if r := p.Bottom() - y; r > 0 {
		return r
	}
	return 0
}

// Add appends drawing commands to the page.
func (p *Page) Add(cmds ...Command) error {
	if p.finalized {
		return fmt.Errorf("canvas: page %d: %w", p.number, ErrFinalized)
	}
	p.commands = append(p.commands, cmds...)
	return nil
}

// Commands returns a copy of the commands drawn on the page, in drawing order.
func (p *Page) Commands() []Command {
	return append([]Command(nil), p.commands...)
}

// Finalized reports whether the page is read-only.
func (p *Page) Finalized() bool { return p.finalized }
