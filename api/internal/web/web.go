// Package web holds the page templates shared by the HTTP handlers and the PDF export.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"time"

	"linearsolve/api/internal/render"
	"linearsolve/api/internal/workspace"
)

//go:embed templates/*.html
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "templates/*.html"))

type indexData struct {
	View     workspace.View
	Solution template.HTML
	ImageURL template.URL
	Busy     bool
	Year     int
}

// Index writes the main page for v.
func Index(w io.Writer, v workspace.View) error {
	data := indexData{
		View: v,
		Busy: v.Status == workspace.InFlight,
		Year: time.Now().Year(),
	}
	if v.HasSolution() {
		data.Solution = render.Render(v.Solution)
	}
	if v.Image != "" {
		// data: URLs are otherwise rewritten to #ZgotmplZ.
		data.ImageURL = template.URL(v.Image)
	}
	return tmpl.ExecuteTemplate(w, "index", data)
}

// PanelDocument is a standalone page containing only the rendered solution panel.
func PanelDocument(solution string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "panel_document", render.Render(solution)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
