package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/umputun/jobsearch/app/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// pageData holds data for the index page
type pageData struct {
	Jobs        []store.Job
	CurrentYear int
}

// parseTemplates parses the page template with the rows fragment
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("index.html").ParseFS(templatesFS, "templates/index.html", "templates/rows.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// renderIndex renders jobs table into the page
func (s *Server) renderIndex(jobs []store.Job) ([]byte, error) {
	buf := new(bytes.Buffer)
	data := pageData{Jobs: jobs, CurrentYear: time.Now().Year()}
	if err := s.templates.ExecuteTemplate(buf, "index.html", data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// staticFile returns embedded static file content
func staticFile(name string) ([]byte, error) {
	b, err := staticFS.ReadFile("static/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read static %s: %w", name, err)
	}
	return b, nil
}
