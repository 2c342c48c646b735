package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/examlab/examlab/internal/auth"
	"github.com/examlab/examlab/internal/moodlexml"
	"github.com/examlab/examlab/internal/quiz"
	syncx "github.com/examlab/examlab/internal/sync"
)

const (
	contentTypeMBZ = "application/vnd.moodle.backup"
	contentTypeXML = "application/xml; charset=utf-8"
)

type exportMBZRequest struct {
	QuizIDs []string    `json:"quiz_ids"`
	Quizzes []quiz.Quiz `json:"quizzes"`
}

// POST /export/mbz[?store=1]
func ExportMBZHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exportMBZRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		quizzes, err := d.resolveQuizzes(r.Context(), req)
		if err != nil {
			fail(w, err)
			return
		}

		a, err := d.Builder.Archive(quizzes)
		d.Metrics.ObserveExport("mbz", err, len(a.Data), a.Questions)
		if err != nil {
			d.Log.Warn("mbz export failed", zap.Int("quizzes", len(quizzes)), zap.Error(err))
			fail(w, err)
			return
		}

		info := syncx.ExportData{
			User:      auth.SubjectFromContext(r.Context()),
			QuizIDs:   req.QuizIDs,
			Questions: a.Questions,
			Bytes:     len(a.Data),
		}
		for _, m := range a.Modules {
			info.ModuleIDs = append(info.ModuleIDs, m.ModuleID)
		}
		d.deliver(w, r, syncx.EventExportMBZ, "exports/mbz/"+a.Name, a.Name, contentTypeMBZ, a.Data, info)
	}
}

func (d Deps) resolveQuizzes(ctx context.Context, req exportMBZRequest) ([]quiz.Quiz, error) {
	if len(req.QuizIDs) == 0 {
		for i, q := range req.Quizzes {
			if err := q.ValidateSettings(); err != nil {
				return nil, fmt.Errorf("quiz %d: %w", i+1, err)
			}
		}
		return req.Quizzes, nil
	}
	out := make([]quiz.Quiz, 0, len(req.QuizIDs))
	for _, id := range req.QuizIDs {
		q, err := d.Quizzes.GetQuiz(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("quiz %q: %w", id, err)
		}
		out = append(out, q)
	}
	return out, nil
}

type exportXMLRequest struct {
	QuizID       string          `json:"quiz_id"`
	CategoryName string          `json:"category_name"`
	Questions    []quiz.Question `json:"questions"`
}

// POST /export/xml[?store=1]
func ExportXMLHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exportXMLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		name := "questions"
		info := syncx.ExportData{User: auth.SubjectFromContext(r.Context())}
		if req.QuizID != "" {
			q, err := d.Quizzes.GetQuiz(r.Context(), req.QuizID)
			if err != nil {
				fail(w, err)
				return
			}
			req.CategoryName, req.Questions = q.CategoryName, q.Questions
			name = q.Name
			info.QuizIDs = []string{q.ID}
		}

		data, err := moodlexml.Export(req.CategoryName, req.Questions)
		d.Metrics.ObserveExport("xml", err, len(data), len(req.Questions))
		if err != nil {
			d.Log.Warn("xml export failed", zap.Error(err))
			fail(w, err)
			return
		}
		info.Questions, info.Bytes = len(req.Questions), len(data)

		filename := fmt.Sprintf("%s-%s.xml", slug(name), d.now().UTC().Format("20060102-1504"))
		d.deliver(w, r, syncx.EventExportXML, "exports/xml/"+filename, filename, contentTypeXML, data, info)
	}
}

// deliver streams the export, or with ?store=1 writes it to the blob store
// and answers with its key. Either way an audit event is appended.
func (d Deps) deliver(w http.ResponseWriter, r *http.Request, event, key, filename, contentType string, data []byte, info syncx.ExportData) {
	ctx := r.Context()
	if truthy(r.URL.Query().Get("store")) {
		if d.Blobs == nil {
			http.Error(w, "blob store not configured", http.StatusServiceUnavailable)
			return
		}
		stored, err := d.Blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
		if err != nil {
			d.Log.Error("store export", zap.String("key", key), zap.Error(err))
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		url, err := d.Blobs.SignedURL(ctx, stored)
		if err != nil {
			d.Log.Warn("sign export url", zap.String("key", stored), zap.Error(err))
		}
		info.Stored = true
		d.audit(ctx, event, stored, info)
		writeJSON(w, http.StatusCreated, map[string]any{
			"key":   stored,
			"url":   url,
			"name":  filename,
			"bytes": len(data),
		})
		return
	}

	d.audit(ctx, event, filename, info)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeContent(w, r, filename, d.now(), bytes.NewReader(data))
}

func (d Deps) audit(ctx context.Context, event, key string, info syncx.ExportData) {
	d.Log.Info("export",
		zap.String("event", event),
		zap.String("key", key),
		zap.Int("questions", info.Questions),
		zap.Int("bytes", info.Bytes),
		zap.Bool("stored", info.Stored),
	)
	if d.Events == nil {
		return
	}
	if err := d.Events.AppendExport(ctx, event, key, info); err != nil {
		d.Log.Warn("append audit event", zap.String("event", event), zap.Error(err))
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func slug(s string) string {
	s = strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(s), "_"), "_.")
	if s == "" {
		return "questions"
	}
	return s
}

func (d Deps) now() time.Time {
	if d.Builder != nil && d.Builder.Clock != nil {
		return d.Builder.Clock()
	}
	return time.Now()
}
