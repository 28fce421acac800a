package topoguia

import (
	"github.com/taskenti/topoguia/block"
	"github.com/taskenti/topoguia/canvas"
)

var columnsTemplate = &templateSpec{
	name:        TemplateColumns,
	description: "Página vertical a dos columnas con todos los campos, fotos adicionales y recomendaciones",
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
	build:      buildColumns,
}

func buildColumns(a *assembly) error {
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

	right := []block.Block{
		a.panel([]block.Row{
			a.row(FieldDistance),
			a.row(FieldTime),
			a.row(FieldElevation),
			a.row(FieldElevationGain),
			a.row(FieldElevationLoss),
			a.row(FieldMaxAltitude),
			a.row(FieldMinAltitude),
			a.row(FieldRouteType),
			a.row(FieldDifficulty),
		}, 5),
		a.image("mide", SlotMIDE, 5),
	}
	right = append(right, a.photos(3)...)
	right = append(right, a.qr(5))

	cur, err = a.twoColumns(cur,
		[]block.Block{
			a.paragraph("description", FieldDescription, 10, 5),
			a.textSection("points_of_interest", "PUNTOS DE INTERÉS", FieldPointsOfInterest, 5),
			a.textSection("access", "CÓMO LLEGAR", FieldAccess, 5),
		},
		right,
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
		a.advisory(5),
		a.contact(0),
	}, cur)
	return err
}
