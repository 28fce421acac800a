// Package flow places content blocks on the pages of a canvas.Document.
//
// An Engine flows an ordered list of blocks down a column, advancing a Cursor
// by each block's height plus its gap and moving to the next page when a block
// does not fit above the break threshold. Parallel columns are laid out
// independently from the same start and joined with Furthest, so the section
// that follows never overlaps either column.
package flow

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/taskenti/topoguia/block"
	"github.com/taskenti/topoguia/canvas"
)

// Cursor is the write position within a column.
type Cursor struct {
	Page  *canvas.Page
	X     float64
	Y     float64
	Width float64
}

// Column returns the cursor moved to another column at the same height.
func (c Cursor) Column(x, width float64) Cursor {
	c.X, c.Width = x, width
	return c
}

// Below returns the cursor moved down by gap.
func (c Cursor) Below(gap float64) Cursor {
	c.Y += gap
	return c
}

// After reports whether c is further down the document than o.
func (c Cursor) After(o Cursor) bool {
	if c.Page.Number() != o.Page.Number() {
		return c.Page.Number() > o.Page.Number()
	}
	return c.Y > o.Y
}

// Furthest returns the cursor that is furthest down the document.
func Furthest(first Cursor, rest ...Cursor) Cursor {
	out := first
	for _, c := range rest {
		if c.After(out) {
			out = c
		}
	}
	return out
}

// Placed records where a block was put.
type Placed struct {
	Block string
	Kind  block.Kind
	Page  int
	Rect  canvas.Rect
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for placement and overflow records.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithoutBreaks disables automatic page breaks. Used by templates whose
// blocks are pre-assigned to pages; blocks that do not fit are truncated,
// scaled or left out with a warning instead.
func WithoutBreaks() Option {
	return func(e *Engine) { e.breaks = false }
}

// WithBreakThreshold sets the lowest y content may reach. Zero uses the
// bottom margin of the page.
func WithBreakThreshold(y float64) Option {
	return func(e *Engine) { e.threshold = y }
}

// Engine lays out blocks on a document. It is not safe for concurrent use;
// each generation owns its own Engine.
type Engine struct {
	doc       *canvas.Document
	m         block.Measurer
	logger    *log.Logger
	breaks    bool
	threshold float64
	placed    []Placed
	warnings  []block.Warning
}

// New creates an Engine writing to doc and measuring text with m.
func New(doc *canvas.Document, m block.Measurer, opts ...Option) *Engine {
	e := &Engine{doc: doc, m: m, breaks: true}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return e
}

// Document returns the document being written.
func (e *Engine) Document() *canvas.Document { return e.doc }

// Placements returns the placements made so far, in order.
func (e *Engine) Placements() []Placed {
	return append([]Placed(nil), e.placed...)
}

// Warnings returns the overflow warnings collected so far.
func (e *Engine) Warnings() []block.Warning {
	return append([]block.Warning(nil), e.warnings...)
}

// Start returns a cursor at the top margin of the page with the 0-based
// index, creating pages up to it as needed.
func (e *Engine) Start(pageIndex int, x, width float64) (Cursor, error) {
	p, err := e.doc.EnsurePage(pageIndex)
	if err != nil {
		return Cursor{}, err
	}
	return Cursor{Page: p, X: x, Y: p.Top(), Width: width}, nil
}

// LayoutColumn places blocks in order starting at cur and returns the cursor
// after the last one.
func (e *Engine) LayoutColumn(blocks []block.Block, cur Cursor) (Cursor, error) {
	for _, b := range blocks {
		var err error
		if cur, err = e.Place(b, cur); err != nil {
			return cur, err
		}
	}
	return cur, nil
}

// Lane is one column of a parallel layout.
type Lane struct {
	Start  Cursor
	Blocks []block.Block
}

// Parallel lays out each lane independently and returns the final cursor of
// every lane. Pass them to Furthest to find where the next section starts.
func (e *Engine) Parallel(lanes ...Lane) ([]Cursor, error) {
	ends := make([]Cursor, len(lanes))
	for i, l := range lanes {
		end, err := e.LayoutColumn(l.Blocks, l.Start)
		if err != nil {
			return nil, err
		}
		ends[i] = end
	}
	return ends, nil
}

// Place puts a single block at cur and returns the advanced cursor. Absent
// blocks are skipped without moving the cursor.
func (e *Engine) Place(b block.Block, cur Cursor) (Cursor, error) {
	lay := b.Layout()
	if !b.Present() {
		e.logger.Debug("skipping absent block", "block", name(b), "kind", b.Kind())
		return cur, nil
	}
	width := cur.Width
	if lay.Width > 0 {
		width = lay.Width
	}

	r, err := b.Render(e.m, width)
	if err != nil {
		return cur, fmt.Errorf("flow: rendering %s: %w", name(b), err)
	}

	if lay.Anchor != nil {
		if err := e.commit(b, r, cur.Page, lay.Anchor.X, lay.Anchor.Y, width); err != nil {
			return cur, err
		}
		return cur, nil
	}

	if cur.Y+r.Height > e.bottom(cur.Page) {
		if e.breaks && !lay.NoBreak {
			// Too tall for any page: fill this one before breaking.
			if r.Height > e.bottom(cur.Page)-cur.Page.Top() {
				if next, ok, err := e.split(b, cur, width); ok || err != nil {
					return next, err
				}
			}
			page, y, err := e.doc.AddPageIfNeeded(cur.Page, r.Height, cur.Y, e.threshold)
			if err != nil {
				return cur, err
			}
			if page != cur.Page {
				e.logger.Debug("page break", "block", name(b), "from", cur.Page.Number(), "to", page.Number())
				cur.Page, cur.Y = page, y
			}
		}
		if cur.Y+r.Height > e.bottom(cur.Page) {
			return e.overflow(b, r, cur, width)
		}
	}

	if err := e.commit(b, r, cur.Page, cur.X, cur.Y, width); err != nil {
		return cur, err
	}
	cur.Y += r.Height + lay.Gap
	return cur, nil
}

// overflow handles a block taller than the space left below cur on a page it
// cannot leave. Text is split, with the remainder continued on the next page
// when breaks are allowed and dropped otherwise. Images and codes are scaled
// down. A block that can do neither is left out and reported, so nothing is
// drawn below the page.
func (e *Engine) overflow(b block.Block, r block.Rendered, cur Cursor, width float64) (Cursor, error) {
	lay := b.Layout()
	room := e.bottom(cur.Page) - cur.Y

	if next, ok, err := e.split(b, cur, width); ok || err != nil {
		return next, err
	}

	if f, ok := b.(block.Fitter); ok {
		if fit, ok := f.Fit(e.m, width, room); ok {
			fr, err := fit.Render(e.m, width)
			if err != nil {
				return cur, fmt.Errorf("flow: rendering %s: %w", name(b), err)
			}
			e.report(cur.Page, block.Warning{
				Block:  name(b),
				Reason: fmt.Sprintf("scaled from %.1fmm to %.1fmm to fit the page", r.Height, fr.Height),
			})
			if err := e.commit(fit, fr, cur.Page, cur.X, cur.Y, width); err != nil {
				return cur, err
			}
			cur.Y += fr.Height + lay.Gap
			return cur, nil
		}
	}

	e.report(cur.Page, block.Warning{
		Block:  name(b),
		Reason: fmt.Sprintf("left out: %.1fmm tall with %.1fmm left on the page", r.Height, max(room, 0)),
	})
	return cur, nil
}

// split places the part of a splittable block that fits below cur. The rest
// continues on the next page when breaks are allowed and is dropped
// otherwise. ok is false when the block cannot be split there.
func (e *Engine) split(b block.Block, cur Cursor, width float64) (next Cursor, ok bool, err error) {
	sp, isSplitter := b.(block.Splitter)
	if !isSplitter {
		return cur, false, nil
	}
	lay := b.Layout()
	head, tail, fits := sp.Split(e.m, width, e.bottom(cur.Page)-cur.Y)
	if !fits {
		return cur, false, nil
	}
	if next, err = e.Place(head, cur); err != nil {
		return cur, true, err
	}
	if e.breaks && !lay.NoBreak {
		next, err = e.Place(tail, next)
		return next, true, err
	}
	e.report(cur.Page, block.Warning{Block: name(b), Reason: "text truncated, page is full"})
	return next.Below(lay.Gap), true, nil
}

func (e *Engine) commit(b block.Block, r block.Rendered, p *canvas.Page, x, y, width float64) error {
	if err := p.Add(canvas.TranslateAll(r.Commands, x, y)...); err != nil {
		return fmt.Errorf("flow: placing %s on page %d: %w", name(b), p.Number(), err)
	}
	for _, w := range r.Warnings {
		e.report(p, w)
	}
	e.placed = append(e.placed, Placed{
		Block: name(b),
		Kind:  b.Kind(),
		Page:  p.Number(),
		Rect:  canvas.Rect{X: x, Y: y, W: width, H: r.Height},
	})
	e.logger.Debug("placed block", "block", name(b), "page", p.Number(), "y", y, "height", r.Height)
	return nil
}

func (e *Engine) report(p *canvas.Page, w block.Warning) {
	w.Page = p.Number()
	e.warnings = append(e.warnings, w)
	e.logger.Warn("layout overflow", "block", w.Block, "page", w.Page, "reason", w.Reason)
}

func (e *Engine) bottom(p *canvas.Page) float64 {
	if e.threshold > 0 {
		return e.threshold
	}
	return p.Bottom()
}

func name(b block.Block) string {
	if id := b.Layout().ID; id != "" {
		return id
	}
	return string(b.Kind())
}
