package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/examlab/examlab/internal/moodle"
	"github.com/examlab/examlab/internal/moodlexml"
	"github.com/examlab/examlab/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrInvalidQuestion),
		errors.Is(err, quiz.ErrInvalidQuiz),
		errors.Is(err, moodle.ErrNoQuizzes),
		errors.Is(err, moodle.ErrDuplicateModule),
		errors.Is(err, moodlexml.ErrNotQuiz):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
