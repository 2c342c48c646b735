package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/examlab/examlab/internal/quiz"
)

// loadQuiz reads one quiz definition. YAML and JSON both parse, since JSON
// is valid YAML. Unknown top-level keys are rejected.
func loadQuiz(path string) (quiz.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return quiz.Quiz{}, err
	}
	var q quiz.Quiz
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&q); err != nil {
		if errors.Is(err, io.EOF) {
			return quiz.Quiz{}, fmt.Errorf("%s: empty file", path)
		}
		return quiz.Quiz{}, fmt.Errorf("%s: %w", path, err)
	}
	return q, nil
}

func loadQuizzes(paths []string, strict bool) ([]quiz.Quiz, error) {
	out := make([]quiz.Quiz, 0, len(paths))
	for _, p := range paths {
		q, err := loadQuiz(p)
		if err != nil {
			return nil, err
		}
		if strict {
			if err := q.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
		}
		out = append(out, q)
	}
	return out, nil
}
