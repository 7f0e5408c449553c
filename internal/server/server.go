// Package server serves the relief board on a loopback address.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/image/font"

	"github.com/TobiSchelling/reliefboard/internal/extract"
	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/store"
	"github.com/TobiSchelling/reliefboard/internal/views"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed notices/*.md
var noticeFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Options configure exports and time display.
type Options struct {
	Location   *time.Location
	FilePrefix string
	// Face draws PNG snapshots. Nil falls back to the built-in face.
	Face font.Face
}

// Server is the HTTP front end of one board.
type Server struct {
	store   *store.Store
	runner  *extract.Runner
	opts    Options
	pages   map[string]*template.Template
	notices []template.HTML
	router  chi.Router
	now     func() time.Time
}

// New creates a new Server.
func New(st *store.Store, runner *extract.Runner, opts Options) (*Server, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	loc := opts.Location

	funcMap := template.FuncMap{
		"typeText":     views.TypeText,
		"statusText":   views.StatusText,
		"urgencyText":  views.UrgencyText,
		"urgencyColor": func(u relief.Urgency) string { return views.UrgencyColor(u).Hex() },
		"supportText":  views.SupportText,
		"supportColor": func(s relief.SupportState) string { return views.SupportColor(s).Hex() },
		"mapURL":       views.MapURL,
		"groups":       views.Groups,
		"formatTime": func(e relief.Entry) string {
			return e.Time().In(loc).Format("1/2 15:04")
		},
		"boardURL":     boardURL,
		"contactLines": contactLines,
		"itemLines":    itemLines,
		"supportValue": supportValue,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so its "title" and "content"
	// definitions do not collide.
	pageNames := []string{"index.html", "summary.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	notices, err := loadNotices()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:   st,
		runner:  runner,
		opts:    opts,
		pages:   pages,
		notices: notices,
		router:  chi.NewRouter(),
		now:     time.Now,
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", s.handleIndex)
	r.Get("/summary", s.handleSummary)
	r.Get("/export.csv", s.handleExportCSV)
	r.Get("/export.png", s.handleExportPNG)

	r.Post("/extract", s.handleExtract)
	r.Post("/extract/abandon", s.handleAbandon)

	r.Post("/entries", s.handleAddEntry)
	r.Post("/entries/{id}/status", s.handleEntryStatus)
	r.Post("/entries/{id}/edit", s.handleEditEntry)
	r.Post("/entries/{id}/delete", s.handleDeleteEntry)

	r.Post("/locations", s.handleAddLocation)
	r.Post("/locations/{id}/edit", s.handleEditLocation)
	r.Post("/locations/{id}/delete", s.handleDeleteLocation)

	r.Route("/api", func(r chi.Router) {
		r.Get("/entries", s.handleAPIEntries)
		r.Get("/locations", s.handleAPILocations)
		r.Get("/stats", s.handleAPIStats)
		r.Get("/summary", s.handleAPISummary)
	})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func loadNotices() ([]template.HTML, error) {
	names, err := fs.Glob(noticeFS, "notices/*.md")
	if err != nil {
		return nil, err
	}
	notices := make([]template.HTML, 0, len(names))
	for _, name := range names {
		src, err := noticeFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading notice %s: %w", path.Base(name), err)
		}
		notices = append(notices, renderMarkdown(src))
	}
	return notices, nil
}

func renderMarkdown(src []byte) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(string(src)))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the loopback interface.
func Serve(s *Server, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}
