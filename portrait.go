package topoguia

import (
	"github.com/taskenti/topoguia/block"
	"github.com/taskenti/topoguia/canvas"
	"github.com/taskenti/topoguia/flow"
)

var portraitTemplate = &templateSpec{
	name:        TemplatePortrait,
	description: "Una página vertical: foto panorámica, descripción junto a la ficha técnica, mapa y perfil",
	orientation: canvas.Portrait,
	pages:       "1+",
	bandHeight:  25,
	widths: map[Slot]float64{
		SlotBanner:  190,
		SlotMap:     190,
		SlotProfile: 190,
		SlotMIDE:    70,
		SlotLogo:    50,
	},
	photoWidth: 70,
	qrSize:     25,
	build:      buildPortrait,
}

const (
	portraitRightWidth = 70
	portraitColumnGap  = 5
)

func buildPortrait(a *assembly) error {
	m := a.theme().Margin
	full := a.doc.Size().Width - 2*m
	cur, err := a.engine.Start(0, m, full)
	if err != nil {
		return err
	}

	banner := a.image("banner", SlotBanner, 5)
	banner.Height = 40
	if cur, err = a.engine.Place(banner, cur); err != nil {
		return err
	}

	cur, err = a.twoColumns(cur,
		[]block.Block{a.paragraph("description", FieldDescription, 10, 5)},
		[]block.Block{
			a.panel([]block.Row{
				a.row(FieldDistance),
				a.row(FieldTime),
				a.row(FieldElevation),
				a.row(FieldRouteType),
			}, 5),
			a.image("mide", SlotMIDE, 5),
			a.qr(5),
		},
	)
	if err != nil {
		return err
	}
	cur = cur.Below(5).Column(m, full)

	profile := a.image("profile", SlotProfile, 0)
	profile.Height = 35
	_, err = a.engine.LayoutColumn([]block.Block{
		a.section("map", "MAPA DE RUTA", a.image("map", SlotMap, 0), 5),
		a.section("profile", "PERFIL DE ELEVACIÓN", profile, 5),
	}, cur)
	return err
}

// twoColumns lays left and right out side by side from cur and returns the
// end of the longer one. The right column keeps its share of a 190mm body.
func (a *assembly) twoColumns(cur flow.Cursor, left, right []block.Block) (flow.Cursor, error) {
	m := a.theme().Margin
	full := a.doc.Size().Width - 2*m
	rightW := portraitRightWidth * full / 190
	leftW := full - rightW - portraitColumnGap
	ends, err := a.engine.Parallel(
		flow.Lane{Start: cur.Column(m, leftW), Blocks: left},
		flow.Lane{Start: cur.Column(m+leftW+portraitColumnGap, rightW), Blocks: right},
	)
	if err != nil {
		return cur, err
	}
	return flow.Furthest(cur, ends...), nil
}
