package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/examlab/examlab/internal/cloze"
)

var (
	ErrInvalidQuestion = errors.New("invalid question")
	ErrInvalidQuiz     = errors.New("invalid quiz")
)

var validate = validator.New()

// Require checks the fields every exporter needs regardless of type. Missing
// type-specific fields are not an error here; exporters substitute defaults.
// Correct positions that point past the options are, since no default can
// stand in for them.
func (q Question) Require() error {
	if strings.TrimSpace(q.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: %q: text is required", ErrInvalidQuestion, q.Name)
	}
	if q.Kind() == TypeMultipleChoice {
		for _, c := range q.Correct {
			if c < 1 || c > len(q.Options) {
				return fmt.Errorf("%w: %q: correct option %d out of range 1..%d", ErrInvalidQuestion, q.Name, c, len(q.Options))
			}
		}
	}
	return nil
}

// Validate applies the full authoring rules for the record's declared type.
func (q Question) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuestion, describe(err))
	}
	if err := q.Require(); err != nil {
		return err
	}
	if !q.Type.Known() {
		return fmt.Errorf("%w: %q: unknown type %q", ErrInvalidQuestion, q.Name, q.Type)
	}
	switch q.Kind() {
	case TypeMultipleChoice:
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: %q: at least one option is required", ErrInvalidQuestion, q.Name)
		}
		if len(q.Correct) == 0 {
			return fmt.Errorf("%w: %q: at least one correct option is required", ErrInvalidQuestion, q.Name)
		}
		seen := make(map[int]bool, len(q.Correct))
		for _, c := range q.Correct {
			if seen[c] {
				return fmt.Errorf("%w: %q: correct option %d listed twice", ErrInvalidQuestion, q.Name, c)
			}
			seen[c] = true
		}
		for i, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return fmt.Errorf("%w: %q: option %d is empty", ErrInvalidQuestion, q.Name, i+1)
			}
		}
	case TypeTrueFalse:
		switch strings.ToLower(strings.TrimSpace(q.Answer)) {
		case "true", "false":
		default:
			return fmt.Errorf("%w: %q: answer must be True or False", ErrInvalidQuestion, q.Name)
		}
	case TypeShortAnswer:
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return fmt.Errorf("%w: %q: correct answer is required", ErrInvalidQuestion, q.Name)
		}
	case TypeCloze:
		if len(cloze.Parse(q.Text)) == 0 {
			return fmt.Errorf("%w: %q: text holds no cloze snippet", ErrInvalidQuestion, q.Name)
		}
	}
	return nil
}

// Validate checks quiz settings and every question, naming the first
// offending question by its 1-based position.
func (q Quiz) Validate() error {
	if err := q.ValidateSettings(); err != nil {
		return err
	}
	for i, qq := range q.Questions {
		if err := qq.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// ValidateSettings checks the moduleid and quiz tab options only; questions
// are left to the exporter's own checks.
func (q Quiz) ValidateSettings() error {
	if err := validate.StructPartial(q, "ModuleID", "Settings.TimeOpen", "Settings.TimeClose", "Settings.TimeLimit", "Settings.Attempts"); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuiz, describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
