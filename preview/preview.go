// Package preview rasterizes laid-out pages to PNG for quick visual checks.
//
// Rectangles, rules and images are drawn to scale. Text uses a single bitmap
// face unless a TrueType font is supplied, so glyph widths only approximate
// the PDF output.
package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/taskenti/topoguia/canvas"
)

// DefaultDPI is the preview resolution used when none is given.
const DefaultDPI = 96

const mmPerInch = 25.4

// Option configures a preview.
type Option func(*renderer)

// WithFontFile renders text with the TrueType font at path. Sizes follow the
// font size of each text command.
func WithFontFile(path string) Option {
	return func(r *renderer) { r.fontPath = path }
}

type renderer struct {
	dc       *gg.Context
	scale    float64 // pixels per millimetre
	fontPath string
	images   map[string]image.Image
}

// RenderPNG draws the page with the 0-based index and writes it as PNG.
func RenderPNG(w io.Writer, doc *canvas.Document, pageIndex int, dpi float64, opts ...Option) error {
	p := doc.Page(pageIndex)
	if p == nil {
		return fmt.Errorf("preview: page %d out of range (document has %d)", pageIndex+1, doc.PageCount())
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	r := &renderer{scale: dpi / mmPerInch, images: make(map[string]image.Image)}
	for _, opt := range opts {
		opt(r)
	}

	size := p.Size()
	r.dc = gg.NewContext(r.px(size.Width), r.px(size.Height))
	r.dc.SetRGB(1, 1, 1)
	r.dc.Clear()

	for _, c := range p.Commands() {
		if err := r.draw(c); err != nil {
			return fmt.Errorf("preview: page %d: %w", p.Number(), err)
		}
	}
	return r.dc.EncodePNG(w)
}

// PNG is RenderPNG into a new buffer.
func PNG(doc *canvas.Document, pageIndex int, dpi float64, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, doc, pageIndex, dpi, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *renderer) px(mm float64) int {
	return int(math.Round(mm * r.scale))
}

func (r *renderer) setColor(c canvas.Color) {
	r.dc.SetRGB255(int(c.R), int(c.G), int(c.B))
}

func (r *renderer) draw(c canvas.Command) error {
	s := r.scale
	switch c := c.(type) {
	case canvas.FilledRect:
		r.setColor(c.Color)
		r.dc.DrawRectangle(c.X*s, c.Y*s, c.W*s, c.H*s)
		r.dc.Fill()
	case canvas.Rule:
		r.setColor(c.Color)
		r.dc.SetLineWidth(max(c.Width*s, 1))
		r.dc.DrawLine(c.X1*s, c.Y1*s, c.X2*s, c.Y2*s)
		r.dc.Stroke()
	case canvas.TextBox:
		if err := r.setFont(c.Font); err != nil {
			return err
		}
		r.setColor(c.Color)
		ax, x := 0.0, c.X
		switch c.Align {
		case canvas.AlignCenter:
			ax, x = 0.5, c.X+c.W/2
		case canvas.AlignRight:
			ax, x = 1, c.Right()
		}
		for i, line := range c.Lines {
			y := c.Y + (float64(i)+0.5)*c.LineHeight
			r.dc.DrawStringAnchored(line, x*s, y*s, ax, 0.5)
		}
	case canvas.RotatedText:
		if err := r.setFont(c.Font); err != nil {
			return err
		}
		r.setColor(c.Color)
		cx, cy := (c.X+c.W/2)*s, (c.Y+c.H/2)*s
		r.dc.Push()
		// Page angles are counter-clockwise; the raster y axis points down.
		r.dc.RotateAbout(gg.Radians(-c.Angle), cx, cy)
		r.dc.DrawStringAnchored(c.Text, cx, cy, 0.5, 0.5)
		r.dc.Pop()
	case canvas.ImageBox:
		img, err := r.image(c.Name, c.Data)
		if err != nil {
			return err
		}
		w, h := max(r.px(c.W), 1), max(r.px(c.H), 1)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		r.dc.DrawImage(dst, r.px(c.X), r.px(c.Y))
	default:
		return fmt.Errorf("unsupported command %T", c)
	}
	return nil
}

func (r *renderer) setFont(f canvas.Font) error {
	if r.fontPath == "" {
		return nil
	}
	// points to pixels
	return r.dc.LoadFontFace(r.fontPath, f.Size*r.scale*mmPerInch/72)
}

func (r *renderer) image(name string, data []byte) (image.Image, error) {
	if img, ok := r.images[name]; ok {
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", name, err)
	}
	r.images[name] = img
	return img, nil
}
