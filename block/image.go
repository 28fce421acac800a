package block

import (
	"github.com/taskenti/topoguia/asset"
	"github.com/taskenti/topoguia/canvas"
)

// DefaultAspect is the height/width ratio assumed for images whose intrinsic
// size is unknown.
const DefaultAspect = 0.5

// ImageBlock places a raster image. Its height comes from Height when set,
// otherwise from the intrinsic aspect ratio of the image at the available
// width.
type ImageBlock struct {
	Placement
	Image  *asset.Image
	Height float64
	// MaxWidth caps the drawn width below the column width when positive.
	MaxWidth float64
	// MaxHeight caps the height of aspect-sized images; the width shrinks to
	// keep the aspect ratio.
	MaxHeight float64
	Align     canvas.Align
}

func (b ImageBlock) Kind() Kind { return KindImage }

func (b ImageBlock) Present() bool {
	return b.Image != nil && len(b.Image.Data) > 0
}

func (b ImageBlock) size(width float64) (w, h float64, estimated bool) {
	w = width
	if b.MaxWidth > 0 && b.MaxWidth < w {
		w = b.MaxWidth
	}
	if b.Height > 0 {
		return w, b.Height, false
	}
	aspect := b.Image.Aspect()
	if aspect == 0 {
		aspect, estimated = DefaultAspect, true
	}
	h = w * aspect
	if b.MaxHeight > 0 && h > b.MaxHeight {
		w, h = b.MaxHeight/aspect, b.MaxHeight
	}
	return w, h, estimated
}

func (b ImageBlock) Render(_ Measurer, width float64) (Rendered, error) {
	w, h, estimated := b.size(width)
	var out Rendered
	if estimated {
		out.Warnings = append(out.Warnings, warn(b.Placement, KindImage, "intrinsic size unknown, height estimated at %.1fmm", h))
	}
	out.Commands = []canvas.Command{canvas.ImageBox{
		Rect:   canvas.Rect{X: alignOffset(b.Align, width, w), W: w, H: h},
		Name:   b.Image.Name,
		Data:   b.Image.Data,
		Format: b.Image.Format,
	}}
	out.Height = h
	return out, nil
}

// Fit scales the image down, keeping its aspect ratio, so it is no taller
// than maxHeight.
func (b ImageBlock) Fit(_ Measurer, width, maxHeight float64) (Block, bool) {
	w, h, _ := b.size(width)
	if maxHeight <= 0 {
		return nil, false
	}
	if h <= maxHeight {
		return b, true
	}
	fit := b
	fit.Height = maxHeight
	fit.MaxWidth = w * maxHeight / h
	if fit.Align == "" {
		fit.Align = canvas.AlignCenter
	}
	return fit, true
}

// QRBlock places a scannable code that links to URL. Image is the raster
// produced for URL by a code source.
type QRBlock struct {
	Placement
	URL   string
	Image *asset.Image
	Size  float64 // side in millimetres
	// TopPad is the space above the code.
	TopPad float64
	// Caption is an optional line printed under the code.
	Caption     string
	CaptionFont canvas.Font
	Color       canvas.Color
}

func (b QRBlock) Kind() Kind { return KindQR }

func (b QRBlock) Present() bool {
	return b.URL != "" && b.Image != nil && len(b.Image.Data) > 0
}

func (b QRBlock) Render(m Measurer, width float64) (Rendered, error) {
	side := min(b.Size, width)
	h := side
	if aspect := b.Image.Aspect(); aspect > 0 {
		h = side * aspect
	}

	out := Rendered{Commands: []canvas.Command{canvas.ImageBox{
		Rect:   canvas.Rect{X: (width - side) / 2, Y: b.TopPad, W: side, H: h},
		Name:   b.Image.Name,
		Data:   b.Image.Data,
		Format: b.Image.Format,
	}}}
	out.Height = b.TopPad + h

	if b.Caption != "" {
		lh := b.CaptionFont.Size * ptToMM * 1.2
		text, cut := Truncate(m, b.CaptionFont, b.Caption, width)
		if cut {
			out.Warnings = append(out.Warnings, warn(b.Placement, KindQR, "caption truncated"))
		}
		out.Commands = append(out.Commands, canvas.TextBox{
			Rect:       canvas.Rect{Y: out.Height + 1, W: width, H: lh},
			Lines:      []string{text},
			Font:       b.CaptionFont,
			Color:      b.Color,
			LineHeight: lh,
			Align:      canvas.AlignCenter,
		})
		out.Height += 1 + lh
	}
	return out, nil
}

// MinQRSize is the smallest side, in millimetres, a code is shrunk to before
// it is left out.
const MinQRSize = 15.0

// Fit shrinks the code so the block is no taller than maxHeight. The caption
// and the top padding keep their size.
func (b QRBlock) Fit(_ Measurer, width, maxHeight float64) (Block, bool) {
	aspect := b.Image.Aspect()
	if aspect <= 0 {
		aspect = 1
	}
	side := min(b.Size, width)
	extra := b.TopPad
	if b.Caption != "" {
		extra += 1 + b.CaptionFont.Size*ptToMM*1.2
	}
	if extra+side*aspect <= maxHeight {
		return b, true
	}
	side = (maxHeight - extra) / aspect
	if side < MinQRSize {
		return nil, false
	}
	fit := b
	fit.Size = side
	return fit, true
}

const ptToMM = 25.4 / 72

func alignOffset(a canvas.Align, avail, w float64) float64 {
	switch a {
	case canvas.AlignCenter:
		return (avail - w) / 2
	case canvas.AlignRight:
		return avail - w
	}
	return 0
}
