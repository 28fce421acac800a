package topoguia

import (
	"strings"
	"time"
)

var filenameReplacer = strings.NewReplacer(" ", "_", "/", "-", "\\", "-")

// Filename returns the suggested file name for a guide:
// Topoguia_{route code with spaces as underscores}_{YYYYMMDD}.pdf.
func Filename(routeCode string, date time.Time) string {
	code := filenameReplacer.Replace(strings.TrimSpace(routeCode))
	return "Topoguia_" + code + "_" + date.Format("20060102") + ".pdf"
}
