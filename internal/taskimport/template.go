package taskimport

import (
	"bytes"
	"encoding/csv"
)

const TemplateFilename = "is_programi_sablonu.csv"

var (
	templateHeader  = []string{"İş Kalemi Adı", "Başlangıç Tarihi (YYYY-MM-DD)", "Bitiş Tarihi (YYYY-MM-DD)", "Pursantaj (%)"}
	templateExample = []string{"Örnek Duvar İmalatı", "2024-06-01", "2024-06-15", "10"}
)

// Template is the downloadable import sheet. The BOM makes spreadsheet apps read it as UTF-8.
func Template() []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	_ = w.Write(templateHeader)
	_ = w.Write(templateExample)
	w.Flush()

	return buf.Bytes()
}
