// Package handler contains the HTTP handlers of the flashcards app: the
// HTML pages (home, login, register, logout), the JSON card API, the
// database liveness check and the optional GitHub sign-in.
//
// Handlers parse requests, call a service and write a response. They map
// domain errors to status codes but hold no business rules themselves.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/BSoup1/flashcards/internal/model"
)

// Renderer holds one parsed template set per page. Each set is base.html
// plus the page file, which defines the "content" block.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// PageData is what every page template receives.
type PageData struct {
	Title     string
	Email     string // signed-in user's email, empty when anonymous
	Flash     *Flash
	Cards     []model.CardView
	FormEmail string // echoed back after a failed form post
	GitHub    bool   // show the GitHub sign-in link
}

// NewRenderer parses the named pages from fsys. Parsing happens once at
// startup so a broken template stops the server instead of a request.
func NewRenderer(fsys fs.FS, logger *slog.Logger, pages ...string) (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages)), logger: logger}
	for _, page := range pages {
		tmpl, err := template.ParseFS(fsys, "base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render writes page with the given status. The template executes into a
// buffer first so a failure can still become a clean 500.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
