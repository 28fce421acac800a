package pdfout

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"

	"github.com/taskenti/topoguia/canvas"
)

// stationery is a page of an existing PDF imported as a form XObject and
// drawn behind the content of every page, e.g. an institutional letterhead.
type stationery struct {
	imp   *gofpdi.Importer
	tplID int
}

func importStationery(pdf *fpdf.Fpdf, data []byte) (s *stationery, err error) {
	// gofpdi panics on malformed input.
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("pdfout: importing stationery: %v", r)
		}
	}()

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))
	tplID := imp.ImportPageFromStream(pdf, &rs, 1, "/MediaBox")
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("pdfout: importing stationery: %w", err)
	}
	return &stationery{imp: imp, tplID: tplID}, nil
}

func (s *stationery) draw(pdf *fpdf.Fpdf, size canvas.Size) {
	s.imp.UseImportedTemplate(pdf, s.tplID, 0, 0, size.Width, size.Height)
}
