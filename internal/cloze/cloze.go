// Package cloze builds and reads the embedded answer markup of Cloze
// (multi-answer) questions: {weight:TYPE:=correct~=alsocorrect~wrong}.
package cloze

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const (
	MultiChoice = "MULTICHOICE"
	ShortAnswer = "SHORTANSWER"
)

var ErrNoCorrectAnswer = errors.New("cloze: at least one correct answer is required")

// Snippet is one embedded sub-question.
type Snippet struct {
	Weight  int
	Kind    string
	Correct []string
	Wrong   []string
}

// NormalizeKind uppercases and strips spaces, so "Short Answer" and
// "shortanswer" both become SHORTANSWER.
func NormalizeKind(kind string) string {
	return strings.ToUpper(strings.Join(strings.Fields(kind), ""))
}

// Build renders s as markup. Blank answers are dropped; wrong answers are
// kept for short answer snippets too, since Moodle grades them as 0%.
func Build(s Snippet) (string, error) {
	correct := nonBlank(s.Correct)
	if len(correct) == 0 {
		return "", ErrNoCorrectAnswer
	}
	weight := s.Weight
	if weight <= 0 {
		weight = 1
	}
	kind := NormalizeKind(s.Kind)
	if kind == "" {
		kind = MultiChoice
	}

	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(strconv.Itoa(weight))
	b.WriteByte(':')
	b.WriteString(kind)
	b.WriteByte(':')
	for i, c := range correct {
		if i > 0 {
			b.WriteByte('~')
		}
		b.WriteByte('=')
		b.WriteString(c)
	}
	for _, w := range nonBlank(s.Wrong) {
		b.WriteByte('~')
		b.WriteString(w)
	}
	b.WriteByte('}')
	return b.String(), nil
}

var snippetRE = regexp.MustCompile(`\{(\d*):([A-Za-z_ ]+):([^{}]*)\}`)

// Parse extracts every snippet embedded in text, in order of appearance.
// A blank weight reads as 1.
func Parse(text string) []Snippet {
	var out []Snippet
	for _, m := range snippetRE.FindAllStringSubmatch(text, -1) {
		s := Snippet{Weight: 1, Kind: NormalizeKind(m[2])}
		if m[1] != "" {
			if w, err := strconv.Atoi(m[1]); err == nil && w > 0 {
				s.Weight = w
			}
		}
		for i, tok := range strings.Split(m[3], "~") {
			switch {
			case strings.HasPrefix(tok, "="):
				s.Correct = append(s.Correct, tok[1:])
			case i == 0 && tok == "":
				// answer list starting with "~"
			default:
				s.Wrong = append(s.Wrong, tok)
			}
		}
		out = append(out, s)
	}
	return out
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
