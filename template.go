package topoguia

import (
	"fmt"
	"strings"

	"github.com/taskenti/topoguia/block"
	"github.com/taskenti/topoguia/canvas"
	"github.com/taskenti/topoguia/flow"
)

// Template names a fixed page layout.
type Template string

const (
	// TemplatePortrait is a single portrait page: banner, description beside
	// the fact sheet, map and elevation profile.
	TemplatePortrait Template = "portrait"
	// TemplateColumns is a two-column portrait layout with every field.
	TemplateColumns Template = "columns"
	// TemplateLandscape is two landscape pages with pre-assigned content.
	TemplateLandscape Template = "landscape"
)

// TemplateInfo describes a template.
type TemplateInfo struct {
	Name        Template `json:"name"`
	Description string   `json:"description"`
	Orientation string   `json:"orientation"`
	Pages       string   `json:"pages"`
}

// templateSpec holds the geometry and assembly function of a template.
type templateSpec struct {
	name        Template
	description string
	orientation canvas.Orientation
	pages       string
	bandHeight  float64
	widths      map[Slot]float64 // placed width per image slot, for downscaling
	photoWidth  float64
	qrSize      float64
	flowOptions []flow.Option
	build       func(*assembly) error
}

func (t *templateSpec) slotWidth(s Slot) float64 {
	return t.widths[s]
}

var templates = []*templateSpec{portraitTemplate, columnsTemplate, landscapeTemplate}

func lookupTemplate(name Template) (*templateSpec, error) {
	for _, t := range templates {
		if t.name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
}

// ParseTemplate returns the template with the given name.
func ParseTemplate(name string) (Template, error) {
	t, err := lookupTemplate(Template(strings.ToLower(strings.TrimSpace(name))))
	if err != nil {
		return "", err
	}
	return t.name, nil
}

// Templates describes the available templates.
func Templates() []TemplateInfo {
	out := make([]TemplateInfo, len(templates))
	for i, t := range templates {
		out[i] = TemplateInfo{
			Name:        t.name,
			Description: t.description,
			Orientation: t.orientation.String(),
			Pages:       t.pages,
		}
	}
	return out
}

// assembly is the state of one template build.
type assembly struct {
	g      *Generator
	c      *content
	doc    *canvas.Document
	engine *flow.Engine
}

func (a *assembly) theme() Theme { return a.g.cfg.theme }

// newDocument creates the document with the header and footer decorations
// of the template.
func (g *Generator) newDocument(c *content) *canvas.Document {
	t := g.cfg.theme
	m := canvas.Margins{
		Top:    g.tpl.bandHeight + 5,
		Right:  t.Margin,
		Bottom: 20,
		Left:   t.Margin,
	}
	return canvas.NewDocument(g.tpl.orientation, canvas.A4, m,
		canvas.WithHeader(g.header(c)),
		canvas.WithFooter(g.footer()),
	)
}

// header draws the brand band with the route code, the route name and the
// optional logo at the top of every page.
func (g *Generator) header(c *content) canvas.Decoration {
	t := g.cfg.theme
	band := g.tpl.bandHeight
	return func(p *canvas.Page, _ int) []canvas.Command {
		w := p.Size().Width
		textW := w - 2*t.Margin
		cmds := []canvas.Command{canvas.FilledRect{
			Rect:  canvas.Rect{W: w, H: band},
			Color: t.Brand.RGB(),
		}}

		if logo := c.image(SlotLogo); logo != nil {
			lh := band - 6
			lw := lh
			if a := logo.Aspect(); a > 0 {
				lw = min(lh/a, 50)
				lh = lw * a
			}
			cmds = append(cmds, canvas.ImageBox{
				Rect:   canvas.Rect{X: w - t.Margin - lw, Y: (band - lh) / 2, W: lw, H: lh},
				Name:   logo.Name,
				Data:   logo.Data,
				Format: logo.Format,
			})
			textW -= lw + 5
		}

		codeH := band * 0.45
		cmds = append(cmds,
			canvas.TextBox{
				Rect:       canvas.Rect{X: t.Margin, Y: band * 0.12, W: textW, H: codeH},
				Lines:      []string{c.code},
				Font:       t.font("B", 24*band/25),
				Color:      t.BrandText.RGB(),
				LineHeight: codeH,
				Align:      canvas.AlignLeft,
			},
			canvas.TextBox{
				Rect:       canvas.Rect{X: t.Margin, Y: band * 0.6, W: textW, H: band * 0.3},
				Lines:      []string{c.name},
				Font:       t.font("", 12),
				Color:      t.BrandText.RGB(),
				LineHeight: band * 0.3,
				Align:      canvas.AlignLeft,
			},
		)
		return cmds
	}
}

// footer draws the footer line and the page number once the page count is
// known.
func (g *Generator) footer() canvas.Decoration {
	t := g.cfg.theme
	return func(p *canvas.Page, pageCount int) []canvas.Command {
		size := p.Size()
		y := size.Height - 15
		w := size.Width - 2*t.Margin
		font := t.font("I", 8)
		cmds := []canvas.Command{
			canvas.Rule{X1: t.Margin, Y1: y - 1, X2: size.Width - t.Margin, Y2: y - 1, Width: 0.2, Color: t.Muted.RGB()},
			canvas.TextBox{
				Rect:       canvas.Rect{X: t.Margin, Y: y, W: w, H: 10},
				Lines:      []string{t.Footer},
				Font:       font,
				Color:      t.Muted.RGB(),
				LineHeight: 10,
				Align:      canvas.AlignCenter,
			},
			canvas.TextBox{
				Rect:       canvas.Rect{X: t.Margin, Y: y, W: w, H: 10},
				Lines:      []string{fmt.Sprintf("%d/%d", p.Number(), pageCount)},
				Font:       font,
				Color:      t.Muted.RGB(),
				LineHeight: 10,
				Align:      canvas.AlignRight,
			},
		}
		if t.Institution != "" {
			cmds = append(cmds, canvas.TextBox{
				Rect:       canvas.Rect{X: t.Margin, Y: y, W: w, H: 10},
				Lines:      []string{t.Institution},
				Font:       font,
				Color:      t.Muted.RGB(),
				LineHeight: 10,
				Align:      canvas.AlignLeft,
			})
		}
		return cmds
	}
}

// Block constructors shared by the templates.

func (a *assembly) paragraph(id string, f Field, size, gap float64) block.TextBlock {
	t := a.theme()
	return block.TextBlock{
		Placement:  block.Placement{ID: id, Gap: gap},
		Text:       a.c.value(f),
		Font:       t.font("", size),
		Color:      t.Text.RGB(),
		LineHeight: size * 0.5,
		Align:      canvas.AlignLeft,
	}
}

func (a *assembly) heading(text string) block.TextBlock {
	t := a.theme()
	return block.TextBlock{
		Placement:  block.Placement{Gap: 1},
		Text:       text,
		Font:       t.font("B", 12),
		Color:      t.Heading.RGB(),
		LineHeight: 8,
		Align:      canvas.AlignLeft,
	}
}

func (a *assembly) section(id, title string, body block.Block, gap float64) block.Section {
	return block.Section{
		Placement: block.Placement{ID: id, Gap: gap},
		Heading:   a.heading(title),
		Body:      body,
	}
}

func (a *assembly) textSection(id, title string, f Field, gap float64) block.Section {
	return a.section(id, title, a.paragraph(id, f, 10, 0), gap)
}

func (a *assembly) image(id string, s Slot, gap float64) block.ImageBlock {
	return block.ImageBlock{
		Placement: block.Placement{ID: id, Gap: gap},
		Image:     a.c.image(s),
		Align:     canvas.AlignCenter,
	}
}

func (a *assembly) panel(rows []block.Row, gap float64) block.PanelBlock {
	t := a.theme()
	style := block.DefaultPanelStyle()
	style.Fill = t.Panel.RGB()
	style.TextColor = t.Text.RGB()
	style.LabelFont.Family = t.FontFamily
	style.ValueFont.Family = t.FontFamily
	return block.PanelBlock{
		Placement: block.Placement{ID: "panel", Gap: gap},
		Rows:      rows,
		Style:     style,
		MinHeight: 25,
	}
}

func (a *assembly) row(f Field) block.Row {
	return block.Row{Label: f.Label() + ":", Value: a.c.value(f)}
}

func (a *assembly) qr(gap float64) block.QRBlock {
	t := a.theme()
	return block.QRBlock{
		Placement:   block.Placement{ID: "qr", Gap: gap},
		URL:         a.c.value(FieldURL),
		Image:       a.c.qr,
		Size:        a.g.tpl.qrSize,
		TopPad:      5,
		Caption:     t.QRCaption,
		CaptionFont: t.font("", 8),
		Color:       t.Text.RGB(),
	}
}

func (a *assembly) advisory(gap float64) block.Section {
	t := a.theme()
	fill := t.Advisory.RGB()
	body := a.paragraph("advisory", FieldAdvisory, 9, 0)
	body.Fill = &fill
	body.Padding = 3
	return a.section("advisory", "RECOMENDACIONES", body, gap)
}

func (a *assembly) contact(gap float64) block.TextBlock {
	b := a.paragraph("contact", FieldContact, 9, gap)
	if b.Text != "" {
		b.Text = FieldContact.Label() + ": " + b.Text
		b.Font.Style = "I"
	}
	return b
}

func (a *assembly) photos(gap float64) []block.Block {
	out := make([]block.Block, len(a.c.photos))
	for i, img := range a.c.photos {
		out[i] = block.ImageBlock{
			Placement: block.Placement{ID: fmt.Sprintf("photo-%d", i+1), Gap: gap},
			Image:     img,
			Align:     canvas.AlignCenter,
		}
	}
	return out
}
