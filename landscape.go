package topoguia

import (
	"github.com/taskenti/topoguia/block"
	"github.com/taskenti/topoguia/canvas"
	"github.com/taskenti/topoguia/flow"
)

var landscapeTemplate = &templateSpec{
	name:        TemplateLandscape,
	description: "Dos páginas horizontales: portada con barra lateral y ficha, mapa y perfil en la segunda",
	orientation: canvas.Landscape,
	pages:       "2",
	bandHeight:  20,
	widths: map[Slot]float64{
		SlotBanner:  232,
		SlotMap:     170,
		SlotProfile: 170,
		SlotMIDE:    86,
		SlotLogo:    50,
	},
	photoWidth:  86,
	qrSize:      25,
	flowOptions: []flow.Option{flow.WithoutBreaks()},
	build:       buildLandscape,
}

const (
	sideBarWidth   = 40
	mapLabelWidth  = 12
	landscapeGap   = 5
	mapMaxHeight   = 100
	mideMaxHeight  = 60
	mapColumnWidth = 170
)

func buildLandscape(a *assembly) error {
	if err := a.landscapeCover(); err != nil {
		return err
	}
	return a.landscapeMap()
}

// landscapeCover lays out page 1: the side bar with the route caption, the
// banner, then description beside the fact sheet and points of interest.
func (a *assembly) landscapeCover() error {
	t := a.theme()
	m := t.Margin
	x := m + sideBarWidth + landscapeGap
	w := a.doc.Size().Width - m - x

	cur, err := a.engine.Start(0, x, w)
	if err != nil {
		return err
	}
	caption := a.c.code
	if a.c.name != "" {
		caption += " · " + a.c.name
	}
	if _, err := a.engine.Place(a.sideLabel("side-bar", caption, sideBarWidth, 28, cur.Page), cur); err != nil {
		return err
	}

	banner := a.image("banner", SlotBanner, landscapeGap)
	banner.Height = 50
	if cur, err = a.engine.Place(banner, cur); err != nil {
		return err
	}

	half := (w - landscapeGap) / 2
	_, err = a.engine.Parallel(
		flow.Lane{Start: cur.Column(x, half), Blocks: []block.Block{
			a.paragraph("description", FieldDescription, 10, 0),
		}},
		flow.Lane{Start: cur.Column(x+half+landscapeGap, w-half-landscapeGap), Blocks: []block.Block{
			a.panel([]block.Row{
				a.row(FieldDistance),
				a.row(FieldTime),
				a.row(FieldElevation),
				a.row(FieldMaxAltitude),
				a.row(FieldMinAltitude),
				a.row(FieldRouteType),
				a.row(FieldDifficulty),
			}, landscapeGap),
			a.textSection("points_of_interest", "PUNTOS DE INTERÉS", FieldPointsOfInterest, 0),
		}},
	)
	return err
}

// landscapeMap lays out page 2: map and profile on the left, the MIDE table,
// recommendations and code on the right.
func (a *assembly) landscapeMap() error {
	t := a.theme()
	m := t.Margin
	x := m + mapLabelWidth + 4
	rightX := x + mapColumnWidth + landscapeGap
	rightW := a.doc.Size().Width - m - rightX

	left, err := a.engine.Start(1, x, mapColumnWidth)
	if err != nil {
		return err
	}
	label := a.sideLabel("map-label", "MAPA Y PERFIL", mapLabelWidth, 16, left.Page)
	if _, err := a.engine.Place(label, left); err != nil {
		return err
	}

	mapImage := a.image("map", SlotMap, 0)
	mapImage.MaxHeight = mapMaxHeight
	profile := a.image("profile", SlotProfile, 0)
	profile.Height = 35

	mide := a.image("mide", SlotMIDE, landscapeGap)
	mide.MaxHeight = mideMaxHeight

	_, err = a.engine.Parallel(
		flow.Lane{Start: left, Blocks: []block.Block{
			a.section("map", "MAPA DE RUTA", mapImage, landscapeGap),
			a.section("profile", "PERFIL DE ELEVACIÓN", profile, 0),
		}},
		flow.Lane{Start: left.Column(rightX, rightW), Blocks: []block.Block{
			mide,
			a.advisory(landscapeGap),
			a.qr(landscapeGap),
			a.contact(0),
		}},
	)
	return err
}

// sideLabel is a brand-colored bar anchored at the top-left margin of p that
// runs down to the bottom margin.
func (a *assembly) sideLabel(id, text string, thickness, size float64, p *canvas.Page) block.RotatedLabelBlock {
	t := a.theme()
	fill := t.Brand.RGB()
	return block.RotatedLabelBlock{
		Placement: block.Placement{
			ID:     id,
			Width:  thickness,
			Anchor: &canvas.Point{X: t.Margin, Y: p.Top()},
		},
		Text:      text,
		Font:      t.font("B", size),
		Color:     t.BrandText.RGB(),
		Fill:      &fill,
		BarHeight: p.Bottom() - p.Top(),
		Thickness: thickness,
		Padding:   4,
	}
}
