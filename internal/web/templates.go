package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed help.md
var helpMarkdown []byte

// Templates holds all parsed templates
type Templates struct {
	index   *template.Template
	history *template.Template
	help    *template.Template
}

// StaticFS returns the embedded static files filesystem
func StaticFS() fs.FS {
	sub, _ := fs.Sub(staticFS, "static")
	return sub
}

// ParseTemplates parses all templates and returns a Templates struct
func ParseTemplates() (*Templates, error) {
	// Parse base template
	base, err := template.New("base.html").ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, err
	}

	// Parse each page template by cloning base and adding the page
	index, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	history, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/history.html")
	if err != nil {
		return nil, err
	}

	help, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/help.html")
	if err != nil {
		return nil, err
	}

	return &Templates{
		index:   index,
		history: history,
		help:    help,
	}, nil
}
