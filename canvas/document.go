package canvas

import "fmt"

// Decoration returns the commands drawn on a page at a fixed point of its
// lifecycle. pageCount is the number of pages in the document at that moment.
type Decoration func(p *Page, pageCount int) []Command

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithHeader sets the decoration drawn when a page is opened, before any
// content is placed on it.
func WithHeader(d Decoration) DocumentOption {
	return func(doc *Document) { doc.header = d }
}

// WithFooter sets the decoration drawn on every page when the document is
// finalized, once the final page count is known.
func WithFooter(d Decoration) DocumentOption {
	return func(doc *Document) { doc.footer = d }
}

// Document is an ordered sequence of pages sharing one geometry.
type Document struct {
	orientation Orientation
	size        Size
	margins     Margins
	header      Decoration
	footer      Decoration
	pages       []*Page
	finalized   bool
}

// NewDocument creates an empty document. Pages are added on demand.
func NewDocument(o Orientation, size Size, m Margins, opts ...DocumentOption) *Document {
	d := &Document{
		orientation: o,
		size:        size.Oriented(o),
		margins:     m,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Orientation returns the page orientation of the document.
func (d *Document) Orientation() Orientation { return d.orientation }

// Size returns the oriented page size.
func (d *Document) Size() Size { return d.size }

// Margins returns the page margins.
func (d *Document) Margins() Margins { return d.margins }

// AddPage appends a new page, runs the header decoration on it and returns it.
func (d *Document) AddPage() (*Page, error) {
	if d.finalized {
		return nil, ErrFinalized
	}
	p := NewPage(d.orientation, d.size, d.margins)
	p.number = len(d.pages) + 1
	d.pages = append(d.pages, p)
	if d.header != nil {
		p.commands = append(p.commands, d.header(p, len(d.pages))...)
	}
	return p, nil
}

// EnsurePage returns the page at the 0-based index, adding pages up to it
// when the document is shorter.
func (d *Document) EnsurePage(index int) (*Page, error) {
	if index < 0 {
		return nil, fmt.Errorf("canvas: negative page index %d", index)
	}
	for len(d.pages) <= index {
		if _, err := d.AddPage(); err != nil {
			return nil, err
		}
	}
	return d.pages[index], nil
}

// Page returns the page at the 0-based index, or nil.
func (d *Document) Page(index int) *Page {
	if index < 0 || index >= len(d.pages) {
		return nil
	}
	return d.pages[index]
}

// Pages returns the pages in order.
func (d *Document) Pages() []*Page {
	return append([]*Page(nil), d.pages...)
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pages) }

// AddPageIfNeeded decides whether content of the given height, starting at
// y on page p, must move to the next page. threshold is the lowest y the
// content may reach; zero means the bottom margin of p.
//
// When a break is needed the page following p is returned, created if it
// does not exist yet, together with its top margin as the reset y. A page
// whose cursor is still at the top margin never breaks, so one call adds at
// most one page.
func (d *Document) AddPageIfNeeded(p *Page, required, y, threshold float64) (*Page, float64, error) {
	if threshold <= 0 {
		threshold = p.Bottom()
	}
	if y+required <= threshold || y <= p.Top() {
		return p, y, nil
	}
	next, err := d.EnsurePage(p.number)
	if err != nil {
		return nil, 0, err
	}
	return next, next.Top(), nil
}

// Finalize runs the footer decoration on every page and makes the document
// read-only. Calling it again has no effect.
func (d *Document) Finalize() {
	if d.finalized {
		return
	}
	for _, p := range d.pages {
		if d.footer != nil {
			p.commands = append(p.commands, d.footer(p, len(d.pages))...)
		}
		p.finalized = true
	}
	d.finalized = true
}

// Finalized reports whether the document is read-only.
func (d *Document) Finalized() bool { return d.finalized }
