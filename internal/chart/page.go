package chart

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// PageData feeds the dashboard template. FigureJSON is empty when there is nothing to plot.
type PageData struct {
	Symbol      string
	Start       string
	End         string
	DownloadURL string
	FigureJSON  template.JS
	Error       string
	Warnings    []string
}

// WithFigure encodes f into the page data.
func (p *PageData) WithFigure(f Figure) error {
	data, err := f.JSON()
	if err != nil {
		return fmt.Errorf("encode figure: %w", err)
	}
	// json.Marshal escapes <, > and &, so the payload cannot close the script element
	p.FigureJSON = template.JS(data)
	return nil
}

// Render writes the dashboard page.
func Render(w io.Writer, data PageData) error {
	return pageTemplate.ExecuteTemplate(w, "index.html", data)
}
