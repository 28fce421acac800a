package block

import (
	"strings"

	"github.com/taskenti/topoguia/canvas"
)

// Row is one label/value pair of a panel.
type Row struct {
	Label string
	Value string
}

// PanelStyle defines the appearance of a panel.
type PanelStyle struct {
	Fill       canvas.Color
	TextColor  canvas.Color
	LabelFont  canvas.Font
	ValueFont  canvas.Font
	RowHeight  float64
	Padding    float64
	LabelWidth float64 // width of the label sub-column
}

// DefaultPanelStyle is the light grey fact sheet.
func DefaultPanelStyle() PanelStyle {
	return PanelStyle{
		Fill:       canvas.Color{R: 240, G: 240, B: 240},
		LabelFont:  canvas.Font{Family: "Helvetica", Style: "B", Size: 9},
		ValueFont:  canvas.Font{Family: "Helvetica", Size: 9},
		RowHeight:  5,
		Padding:    2,
		LabelWidth: 33,
	}
}

// PanelBlock is a filled rectangle listing label/value pairs in two
// sub-columns. Rows without a value are left out.
type PanelBlock struct {
	Placement
	Rows      []Row
	Style     PanelStyle
	MinHeight float64
}

func (b PanelBlock) Kind() Kind { return KindPanel }

func (b PanelBlock) rows() []Row {
	var rows []Row
	for _, r := range b.Rows {
		if strings.TrimSpace(r.Value) != "" {
			rows = append(rows, r)
		}
	}
	return rows
}

func (b PanelBlock) Present() bool { return len(b.rows()) > 0 }

// Height returns the height of the panel for n rows.
func (b PanelBlock) Height(n int) float64 {
	return max(b.MinHeight, float64(n)*b.Style.RowHeight+2*b.Style.Padding)
}

func (b PanelBlock) Render(m Measurer, width float64) (Rendered, error) {
	s := b.Style
	rows := b.rows()
	h := b.Height(len(rows))

	out := Rendered{Height: h}
	out.Commands = append(out.Commands, canvas.FilledRect{
		Rect:  canvas.Rect{W: width, H: h},
		Color: s.Fill,
	})

	valueX := s.Padding + s.LabelWidth
	valueW := width - valueX - s.Padding
	for i, r := range rows {
		y := s.Padding + float64(i)*s.RowHeight
		label, _ := Truncate(m, s.LabelFont, r.Label, s.LabelWidth)
		value, cut := Truncate(m, s.ValueFont, r.Value, valueW)
		if cut {
			out.Warnings = append(out.Warnings, warn(b.Placement, KindPanel, "value of %q truncated", r.Label))
		}
		out.Commands = append(out.Commands,
			canvas.TextBox{
				Rect:       canvas.Rect{X: s.Padding, Y: y, W: s.LabelWidth, H: s.RowHeight},
				Lines:      []string{label},
				Font:       s.LabelFont,
				Color:      s.TextColor,
				LineHeight: s.RowHeight,
				Align:      canvas.AlignLeft,
			},
			canvas.TextBox{
				Rect:       canvas.Rect{X: valueX, Y: y, W: valueW, H: s.RowHeight},
				Lines:      []string{value},
				Font:       s.ValueFont,
				Color:      s.TextColor,
				LineHeight: s.RowHeight,
				Align:      canvas.AlignLeft,
			},
		)
	}
	return out, nil
}
