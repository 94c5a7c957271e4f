package distribution

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var mailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type reportMailData struct {
	ProjectName   string
	RecipientName string
	ReportDate    string
	Sites         string
	TotalReports  int
	Filename      string
	GeneratedAt   string
}

func renderMail(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
