package pdfout

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/go-pdf/fpdf"
	xdraw "golang.org/x/image/draw"

	"github.com/taskenti/topoguia/canvas"
)

// imageSet registers the images of one document with fpdf. fpdf writes image
// objects ordered by pixel width alone, so images sharing a width would come
// out in map order. Every distinct image is given its own width: on a clash
// the later image, in drawing order, is narrowed by a pixel until it is free.
type imageSet struct {
	names  map[string]bool
	widths map[int]bool
}

func newImageSet() *imageSet {
	return &imageSet{names: make(map[string]bool), widths: make(map[int]bool)}
}

func (s *imageSet) register(pdf *fpdf.Fpdf, c canvas.ImageBox) error {
	if s.names[c.Name] {
		return nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(c.Data))
	if err != nil {
		return fmt.Errorf("image %s: %w", c.Name, err)
	}

	data, format := c.Data, c.Format
	w := cfg.Width
	for s.widths[w] && w > 1 {
		w--
	}
	if s.widths[w] {
		return fmt.Errorf("image %s: no free width below %dpx", c.Name, cfg.Width)
	}
	if w != cfg.Width {
		if data, err = narrow(c.Data, w); err != nil {
			return fmt.Errorf("image %s: %w", c.Name, err)
		}
		format = "png"
	}

	s.names[c.Name] = true
	s.widths[w] = true
	pdf.RegisterImageOptionsReader(c.Name, fpdf.ImageOptions{ImageType: format}, bytes.NewReader(data))
	return nil
}

// narrow rescales an encoded image to width pixels, keeping its aspect ratio,
// and returns it as PNG.
func narrow(data []byte, width int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	height := max(1, (b.Dy()*width+b.Dx()/2)/b.Dx())
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
