// Package pdfout serializes a laid-out canvas.Document to PDF with go-pdf/fpdf.
//
// Output is deterministic: pages, images and fonts are written in a fixed
// order and the document dates come from the caller, so identical documents
// produce identical bytes.
package pdfout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/taskenti/topoguia/canvas"
)

// ErrEmptyDocument is returned when a document without pages is written.
var ErrEmptyDocument = errors.New("pdfout: document has no pages")

type config struct {
	date       time.Time
	title      string
	subject    string
	author     string
	creator    string
	stationery []byte
	compress   bool
}

// Option configures Write.
type Option func(*config)

// WithDate sets the creation and modification dates. Without it the current
// time is used and the output is not reproducible.
func WithDate(t time.Time) Option {
	return func(c *config) { c.date = t }
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(c *config) { c.title = title }
}

// WithSubject sets the document subject.
func WithSubject(subject string) Option {
	return func(c *config) { c.subject = subject }
}

// WithAuthor sets the document author.
func WithAuthor(author string) Option {
	return func(c *config) { c.author = author }
}

// WithCreator sets the creating application.
func WithCreator(creator string) Option {
	return func(c *config) { c.creator = creator }
}

// WithStationery draws the first page of the given PDF behind every page,
// scaled to the page size.
func WithStationery(pdf []byte) Option {
	return func(c *config) { c.stationery = pdf }
}

// WithCompression toggles stream compression. It is on by default.
func WithCompression(on bool) Option {
	return func(c *config) { c.compress = on }
}

// Write finalizes doc and writes it as PDF to w.
func Write(w io.Writer, doc *canvas.Document, opts ...Option) error {
	cfg := config{compress: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if doc.PageCount() == 0 {
		return ErrEmptyDocument
	}
	doc.Finalize()

	pdf := fpdf.New(doc.Orientation().Code(), "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCompression(cfg.compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCellMargin(0)
	if !cfg.date.IsZero() {
		pdf.SetCreationDate(cfg.date)
		pdf.SetModificationDate(cfg.date)
	}
	setInfo(pdf, cfg)

	var bg *stationery
	if len(cfg.stationery) > 0 {
		var err error
		if bg, err = importStationery(pdf, cfg.stationery); err != nil {
			return err
		}
	}

	enc := newEncoder()
	images := newImageSet()
	for _, p := range doc.Pages() {
		size := p.Size().Oriented(canvas.Portrait)
		pdf.AddPageFormat(p.Orientation().Code(), fpdf.SizeType{Wd: size.Width, Ht: size.Height})
		if bg != nil {
			bg.draw(pdf, p.Size())
		}
		for _, c := range p.Commands() {
			if err := draw(pdf, enc, images, c); err != nil {
				return fmt.Errorf("pdfout: page %d: %w", p.Number(), err)
			}
		}
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("pdfout: page %d: %w", p.Number(), err)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdfout: writing: %w", err)
	}
	return nil
}

// Bytes is Write into a new buffer.
func Bytes(doc *canvas.Document, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setInfo(pdf *fpdf.Fpdf, cfg config) {
	if cfg.title != "" {
		pdf.SetTitle(cfg.title, true)
	}
	if cfg.subject != "" {
		pdf.SetSubject(cfg.subject, true)
	}
	if cfg.author != "" {
		pdf.SetAuthor(cfg.author, true)
	}
	if cfg.creator != "" {
		pdf.SetCreator(cfg.creator, true)
	}
}

func draw(pdf *fpdf.Fpdf, enc *encoder, images *imageSet, c canvas.Command) error {
	switch c := c.(type) {
	case canvas.FilledRect:
		pdf.SetFillColor(int(c.Color.R), int(c.Color.G), int(c.Color.B))
		pdf.Rect(c.X, c.Y, c.W, c.H, "F")
	case canvas.Rule:
		pdf.SetDrawColor(int(c.Color.R), int(c.Color.G), int(c.Color.B))
		pdf.SetLineWidth(max(c.Width, 0.1))
		pdf.Line(c.X1, c.Y1, c.X2, c.Y2)
	case canvas.TextBox:
		setFont(pdf, c.Font, c.Color)
		for i, line := range c.Lines {
			pdf.SetXY(c.X, c.Y+float64(i)*c.LineHeight)
			pdf.CellFormat(c.W, c.LineHeight, enc.encode(line), "", 0, string(c.Align), false, 0, "")
		}
	case canvas.RotatedText:
		setFont(pdf, c.Font, c.Color)
		cx, cy := c.X+c.W/2, c.Y+c.H/2
		lh := c.Font.Size * ptToMM * 1.2
		pdf.TransformBegin()
		pdf.TransformRotate(c.Angle, cx, cy)
		pdf.SetXY(cx-c.H/2, cy-lh/2)
		pdf.CellFormat(c.H, lh, enc.encode(c.Text), "", 0, "C", false, 0, "")
		pdf.TransformEnd()
	case canvas.ImageBox:
		if err := images.register(pdf, c); err != nil {
			return err
		}
		pdf.ImageOptions(c.Name, c.X, c.Y, c.W, c.H, false, fpdf.ImageOptions{}, 0, "")
	default:
		return fmt.Errorf("unsupported command %T", c)
	}
	return nil
}

func setFont(pdf *fpdf.Fpdf, f canvas.Font, col canvas.Color) {
	pdf.SetFont(f.Family, f.Style, f.Size)
	pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
}

const ptToMM = 25.4 / 72
