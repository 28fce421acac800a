// Package block implements the content blocks of a topoguide and their sizing
// rules.
//
// A block renders itself into drawing commands relative to the origin (0, 0)
// for a given available width and reports the height it occupies. Blocks hold
// no cursor state; placing them on a page is the job of package flow.
package block

import (
	"fmt"

	"github.com/taskenti/topoguia/canvas"
)

// Kind identifies a block type.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindPanel   Kind = "panel"
	KindQR      Kind = "qr"
	KindLabel   Kind = "rotated-label"
	KindSection Kind = "section"
)

// Measurer reports the rendered width of a string.
type Measurer interface {
	// StringWidth returns the width of s in millimetres when set in font.
	StringWidth(font canvas.Font, s string) float64
}

// Placement holds the attributes that control where the layout engine puts a
// block. It is embedded in every block type.
type Placement struct {
	// ID names the block in warnings and placement logs.
	ID string
	// Gap is the vertical space left after the block.
	Gap float64
	// Width overrides the column width when positive.
	Width float64
	// Anchor places the block at an absolute position on the current page.
	// Anchored blocks do not move the column cursor.
	Anchor *canvas.Point
	// NoBreak forbids page breaks before the block.
	NoBreak bool
}

// Layout returns the placement attributes.
func (p Placement) Layout() Placement { return p }

// Warning is a non-fatal layout condition: the height of a block could not be
// verified, or content was shrunk or truncated to fit.
type Warning struct {
	Block  string
	Page   int
	Reason string
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("%s (page %d): %s", w.Block, w.Page, w.Reason)
	}
	return fmt.Sprintf("%s: %s", w.Block, w.Reason)
}

// Rendered is the output of a block renderer.
type Rendered struct {
	Commands []canvas.Command
	Height   float64
	Warnings []Warning
}

// Block is a unit of content with its own sizing rule.
type Block interface {
	Kind() Kind
	// Present reports whether the block has backing data. Absent blocks are
	// skipped and take no space.
	Present() bool
	Layout() Placement
	// Render lays the block out within width. Commands are relative to the
	// top-left corner of the block.
	Render(m Measurer, width float64) (Rendered, error)
}

// Splitter is implemented by blocks that can be divided across pages.
type Splitter interface {
	// Split returns the part of the block that fits within maxHeight and the
	// remainder. ok is false when not even the first unit fits.
	Split(m Measurer, width, maxHeight float64) (head, tail Block, ok bool)
}

// Fitter is implemented by blocks that can be scaled down to a height.
type Fitter interface {
	// Fit returns a copy of the block no taller than maxHeight.
	Fit(m Measurer, width, maxHeight float64) (Block, bool)
}

func warn(p Placement, kind Kind, format string, args ...any) Warning {
	id := p.ID
	if id == "" {
		id = string(kind)
	}
	return Warning{Block: id, Reason: fmt.Sprintf(format, args...)}
}
