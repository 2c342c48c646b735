package http

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	syncx "github.com/examlab/examlab/internal/sync"
)

// GET /exports?limit=  newest audit events first
func ListExportsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Events == nil {
			writeJSON(w, http.StatusOK, []syncx.Event{})
			return
		}
		events, err := d.Events.Recent(r.Context(), parseIntDefault(r.URL.Query().Get("limit"), 50))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// GET /exports/files/*  returns a stored export
func ExportFileHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Blobs == nil {
			http.Error(w, "blob store not configured", http.StatusServiceUnavailable)
			return
		}
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if key == "" || strings.HasSuffix(key, "/") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		rc, err := d.Blobs.Get(r.Context(), key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		ct := contentTypeXML
		if path.Ext(key) == ".mbz" {
			ct = contentTypeMBZ
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
		_, _ = io.Copy(w, rc)
	}
}
