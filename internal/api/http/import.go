package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/examlab/examlab/internal/auth"
	"github.com/examlab/examlab/internal/moodlexml"
	"github.com/examlab/examlab/internal/quiz"
	syncx "github.com/examlab/examlab/internal/sync"
)

const maxImportBytes = 10 << 20

type importResponse struct {
	moodlexml.LoadResult
	QuizID string `json:"quiz_id,omitempty"`
}

// POST /import/xml (multipart: file=questions.xml)[?stage=1]
// With stage=1 the loaded questions are saved as a new quiz named by the
// quiz_name form field, the category, or the file name, in that order.
func ImportXMLHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		res, err := moodlexml.Load(f)
		d.Metrics.ObserveExport("import", err, int(hdr.Size), len(res.Questions))
		if err != nil {
			d.Log.Info("xml import rejected", zap.String("filename", hdr.Filename), zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		out := importResponse{LoadResult: res}
		info := syncx.ExportData{
			User:      auth.SubjectFromContext(r.Context()),
			Questions: len(res.Questions),
			Bytes:     int(hdr.Size),
		}
		if truthy(r.URL.Query().Get("stage")) {
			q := quiz.Quiz{
				Name:         stagedName(r.FormValue("quiz_name"), res.Category, strings.TrimSuffix(hdr.Filename, filepath.Ext(hdr.Filename))),
				CategoryName: res.Category,
				Questions:    res.Questions,
			}
			saved, err := d.Quizzes.PutQuiz(r.Context(), q)
			if err != nil {
				fail(w, err)
				return
			}
			out.QuizID = saved.ID
			info.QuizIDs = []string{saved.ID}
		}
		d.audit(r.Context(), syncx.EventImportXML, hdr.Filename, info)
		writeJSON(w, http.StatusOK, out)
	}
}

func stagedName(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return "Imported quiz"
}
