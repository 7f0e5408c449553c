package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/reliefboard/internal/export"
	"github.com/TobiSchelling/reliefboard/internal/extract"
	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/store"
	"github.com/TobiSchelling/reliefboard/internal/views"
)

type indexPage struct {
	Entries      []relief.Entry
	Locations    []relief.Location
	Stats        views.Stats
	Categories   []string
	TypeFilter   views.TypeFilter
	StatusFilter views.StatusFilter
	Query        string
	CSVURL       template.URL
	PNGURL       template.URL
	EditEntry    string
	EditLocation string
	Busy         bool
	Error        string
	Text         string
	Notices      []template.HTML
}

// filterFromQuery reads the type and status filters. Missing values mean ALL.
func filterFromQuery(q url.Values) (views.Filter, error) {
	tf, err := views.ParseTypeFilter(q.Get("type"))
	if err != nil {
		return views.Filter{}, err
	}
	sf, err := views.ParseStatusFilter(q.Get("status"))
	if err != nil {
		return views.Filter{}, err
	}
	return views.Filter{Type: tf, Status: sf}, nil
}

func (s *Server) indexData(r *http.Request) (indexPage, error) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		return indexPage{}, err
	}
	entries := s.store.Entries()
	q := url.Values{}
	q.Set("type", string(f.Type))
	q.Set("status", string(f.Status))
	return indexPage{
		Entries:      views.FilterEntries(entries, f),
		Locations:    views.SortLocations(s.store.Locations()),
		Stats:        views.ComputeStats(entries),
		Categories:   views.ExistingCategories(entries),
		TypeFilter:   f.Type,
		StatusFilter: f.Status,
		Query:        q.Encode(),
		CSVURL:       template.URL("/export.csv?" + q.Encode()),
		PNGURL:       template.URL("/export.png?" + q.Encode()),
		EditEntry:    r.URL.Query().Get("edit"),
		EditLocation: r.URL.Query().Get("edit_location"),
		Busy:         s.runner != nil && s.runner.Busy(),
		Notices:      s.notices,
	}, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := s.indexData(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.render(w, http.StatusOK, "index.html", data)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "summary.html", map[string]any{
		"Summary": views.Summarize(s.store.Entries()),
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("text")
	if strings.TrimSpace(text) == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if s.runner == nil {
		s.renderExtractError(w, r, http.StatusServiceUnavailable, extract.ErrNoProvider, text)
		return
	}

	entries, err := s.runner.Submit(r.Context(), text)
	switch {
	case err == nil:
		log.Printf("Extracted %d entries", len(entries))
		http.Redirect(w, r, "/", http.StatusFound)
	case errors.Is(err, store.ErrPersist):
		log.Printf("Extracted %d entries but saving failed: %v", len(entries), err)
		s.renderExtractError(w, r, http.StatusInternalServerError, err, "")
	case errors.Is(err, extract.ErrBusy):
		s.renderExtractError(w, r, http.StatusConflict, err, text)
	case errors.Is(err, extract.ErrAbandoned):
		s.renderExtractError(w, r, http.StatusConflict, err, text)
	case errors.Is(err, extract.ErrNoProvider):
		s.renderExtractError(w, r, http.StatusServiceUnavailable, err, text)
	default:
		s.renderExtractError(w, r, http.StatusBadGateway, err, text)
	}
}

// renderExtractError shows the board with the error and the submitted text
// kept in the input box.
func (s *Server) renderExtractError(w http.ResponseWriter, r *http.Request, status int, err error, text string) {
	data, ferr := s.indexData(r)
	if ferr != nil {
		http.Error(w, ferr.Error(), http.StatusBadRequest)
		return
	}
	data.Error = "分析失敗: " + err.Error()
	data.Text = text
	s.render(w, status, "index.html", data)
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if s.runner != nil {
		s.runner.Abandon()
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.AddManualEntry()
	if err != nil {
		s.persistError(w, err)
		return
	}
	http.Redirect(w, r, "/?edit="+url.QueryEscape(e.ID)+"#entry-"+e.ID, http.StatusFound)
}

func (s *Server) handleEntryStatus(w http.ResponseWriter, r *http.Request) {
	status := relief.Status(strings.ToUpper(r.FormValue("status")))
	if !status.IsValid() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	if err := s.store.UpdateEntryStatus(chi.URLParam(r, "id"), status); err != nil {
		s.persistError(w, err)
		return
	}
	redirectBack(w, r)
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	patch, err := entryPatchFromForm(r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.EditEntry(chi.URLParam(r, "id"), patch); err != nil {
		s.persistError(w, err)
		return
	}
	redirectBack(w, r)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEntry(chi.URLParam(r, "id")); err != nil {
		s.persistError(w, err)
		return
	}
	redirectBack(w, r)
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.AddLocation()
	if err != nil {
		s.persistError(w, err)
		return
	}
	http.Redirect(w, r, "/?edit_location="+url.QueryEscape(l.ID)+"#location-"+l.ID, http.StatusFound)
}

func (s *Server) handleEditLocation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.UpdateLocation(chi.URLParam(r, "id"), locationPatchFromForm(r.PostForm)); err != nil {
		s.persistError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLocation(chi.URLParam(r, "id")); err != nil {
		s.persistError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// persistError reports a failed save. The change itself is already visible
// on the board.
func (s *Server) persistError(w http.ResponseWriter, err error) {
	log.Printf("Board change not saved: %v", err)
	http.Error(w, "保存失敗: "+err.Error(), http.StatusInternalServerError)
}

// redirectBack returns to the board with the filters the form was posted
// from.
func redirectBack(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if q := r.FormValue("return"); q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) filteredEntries(w http.ResponseWriter, r *http.Request) ([]relief.Entry, bool) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return views.FilterEntries(s.store.Entries(), f), true
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	entries, ok := s.filteredEntries(w, r)
	if !ok {
		return
	}
	if len(entries) == 0 {
		http.Error(w, export.ErrNothingToExport.Error(), http.StatusNotFound)
		return
	}
	name := export.Filename(s.opts.FilePrefix, export.KindData, "csv", s.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteCSV(w, entries, s.opts.Location); err != nil {
		log.Printf("CSV export failed: %v", err)
	}
}

func (s *Server) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	entries, ok := s.filteredEntries(w, r)
	if !ok {
		return
	}
	now := s.now()
	name := export.Filename(s.opts.FilePrefix, export.KindUpdate, "png", now)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	err := export.WritePNG(w, entries, export.PNGOptions{
		Face:     s.opts.Face,
		Location: s.opts.Location,
		Now:      now,
	})
	if err != nil {
		log.Printf("PNG export failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (s *Server) handleAPIEntries(w http.ResponseWriter, r *http.Request) {
	entries, ok := s.filteredEntries(w, r)
	if !ok {
		return
	}
	if entries == nil {
		entries = []relief.Entry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleAPILocations(w http.ResponseWriter, r *http.Request) {
	locations := views.SortLocations(s.store.Locations())
	if locations == nil {
		locations = []relief.Location{}
	}
	writeJSON(w, locations)
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, views.ComputeStats(s.store.Entries()))
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sum := views.Summarize(s.store.Entries())
	writeJSON(w, map[string]any{
		"needs":       sum.Needs,
		"offers":      sum.Offers,
		"totalNeeds":  sum.TotalNeeds,
		"totalOffers": sum.TotalOffers,
	})
}
