package quiz

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is the instructor-facing question kind.
type Type string

const (
	TypeMultipleChoice Type = "Multiple Choice"
	TypeTrueFalse      Type = "True/False"
	TypeShortAnswer    Type = "Short Answer"
	TypeEssay          Type = "Essay"
	TypeCloze          Type = "Cloze"
)

// DefaultPoints is the mark used when a record carries none.
const DefaultPoints = 1.0

var typeAliases = map[string]Type{
	"multiplechoice": TypeMultipleChoice,
	"multichoice":    TypeMultipleChoice,
	"mcq":            TypeMultipleChoice,
	"true/false":     TypeTrueFalse,
	"truefalse":      TypeTrueFalse,
	"tf":             TypeTrueFalse,
	"shortanswer":    TypeShortAnswer,
	"essay":          TypeEssay,
	"cloze":          TypeCloze,
	"multianswer":    TypeCloze,
}

// ParseType normalises case and spacing variants ("multiple  choice",
// "TRUE/FALSE", "short_answer", "multichoice", ...) to one of the five kinds.
func ParseType(s string) (Type, bool) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
	t, ok := typeAliases[key]
	return t, ok
}

// Known reports whether t is one of the five supported kinds.
func (t Type) Known() bool {
	_, ok := ParseType(string(t))
	return ok
}

// UnmarshalText keeps unknown strings as-is so exporters can apply their own
// fallback instead of failing the whole document.
func (t *Type) UnmarshalText(b []byte) error {
	if n, ok := ParseType(string(b)); ok {
		*t = n
		return nil
	}
	*t = Type(strings.TrimSpace(string(b)))
	return nil
}

// Points is a non-negative default mark. Decoding accepts numbers and numeric
// strings; anything else falls back to DefaultPoints.
type Points float64

// ParsePoints reads a mark from text, falling back to DefaultPoints.
func ParsePoints(s string) Points {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPoints
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return DefaultPoints
	}
	return Points(f)
}

func (p *Points) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*p = DefaultPoints
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = ParsePoints(s)
		return nil
	}
	*p = ParsePoints(string(b))
	return nil
}

func (p *Points) UnmarshalYAML(n *yaml.Node) error {
	*p = ParsePoints(n.Value)
	return nil
}

// Float returns the mark, substituting DefaultPoints for invalid values.
func (p Points) Float() float64 {
	f := float64(p)
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return DefaultPoints
	}
	return f
}

// Question is one instructor-authored question record. Only the fields that
// belong to Type are meaningful; the others stay empty.
type Question struct {
	Type   Type   `json:"type" yaml:"type"`
	Name   string `json:"name" yaml:"name" validate:"required"`
	Text   string `json:"text" yaml:"text" validate:"required"`
	Points Points `json:"points" yaml:"points" validate:"gte=0"`

	// Multiple Choice
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
	Correct []int    `json:"correct,omitempty" yaml:"correct,omitempty"`

	// True/False: "True" or "False"
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`

	// Short Answer
	CorrectAnswer string `json:"correct_answer,omitempty" yaml:"correct_answer,omitempty"`
}

// questionAlias drops the methods so the decoders below don't recurse.
type questionAlias Question

// UnmarshalJSON defaults Points to DefaultPoints when the key is absent.
func (q *Question) UnmarshalJSON(b []byte) error {
	a := questionAlias{Points: DefaultPoints}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*q = Question(a)
	return nil
}

func (q *Question) UnmarshalYAML(n *yaml.Node) error {
	a := questionAlias{Points: DefaultPoints}
	if err := n.Decode(&a); err != nil {
		return err
	}
	*q = Question(a)
	return nil
}

// Kind returns the normalised type, falling back to Short Answer for
// unmapped strings.
func (q Question) Kind() Type {
	if t, ok := ParseType(string(q.Type)); ok {
		return t
	}
	return TypeShortAnswer
}

// IsCorrect reports whether the 1-based option position is marked correct.
func (q Question) IsCorrect(pos int) bool {
	for _, c := range q.Correct {
		if c == pos {
			return true
		}
	}
	return false
}

// TrueIsCorrect reports whether "True" is the right answer of a True/False record.
func (q Question) TrueIsCorrect() bool {
	return strings.EqualFold(strings.TrimSpace(q.Answer), "true")
}

// Settings are the quiz-level options of the quiz tab. Zero values mean
// "use Moodle's default"; Attempts below zero means unlimited.
type Settings struct {
	TimeOpen        int64 `json:"time_open,omitempty" yaml:"time_open,omitempty" validate:"gte=0"`
	TimeClose       int64 `json:"time_close,omitempty" yaml:"time_close,omitempty" validate:"omitempty,gtefield=TimeOpen"`
	TimeLimit       int64 `json:"time_limit,omitempty" yaml:"time_limit,omitempty" validate:"gte=0"`
	Attempts        int   `json:"attempts,omitempty" yaml:"attempts,omitempty" validate:"gte=-1"`
	ShowDescription bool  `json:"show_description,omitempty" yaml:"show_description,omitempty"`
}

// Quiz groups questions with the metadata of one Moodle quiz activity.
type Quiz struct {
	ID           string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string     `json:"quiz_name" yaml:"quiz_name"`
	IntroHTML    string     `json:"intro_html,omitempty" yaml:"intro_html,omitempty"`
	CategoryName string     `json:"category_name,omitempty" yaml:"category_name,omitempty"`
	ModuleID     int64      `json:"moduleid,omitempty" yaml:"moduleid,omitempty" validate:"gte=0"`
	Settings     Settings   `json:"settings" yaml:"settings,omitempty"`
	Questions    []Question `json:"questions" yaml:"questions" validate:"dive"`

	CreatedAt int64 `json:"created_at,omitempty" yaml:"-"`
}

// TotalPoints sums the default marks of every question.
func (q Quiz) TotalPoints() float64 {
	total := 0.0
	for _, qq := range q.Questions {
		total += qq.Points.Float()
	}
	return total
}
