// Package moodlexml reads and writes Moodle's flat "questions only" XML
// format: a <quiz> root holding one <question> per record.
package moodlexml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/examlab/examlab/internal/quiz"
)

var ErrNotQuiz = errors.New("moodlexml: root element must be <quiz>")

const coursePrefix = "$course$/"

// flat-format question types
const (
	typeCategory    = "category"
	typeMultiChoice = "multichoice"
	typeTrueFalse   = "truefalse"
	typeShortAnswer = "shortanswer"
	typeEssay       = "essay"
	typeCloze       = "cloze"
)

type quizDoc struct {
	XMLName   xml.Name   `xml:"quiz"`
	Questions []question `xml:"question"`
}

type question struct {
	Type           string    `xml:"type,attr"`
	Category       *text     `xml:"category,omitempty"`
	Name           *text     `xml:"name,omitempty"`
	QuestionText   *htmlText `xml:"questiontext,omitempty"`
	DefaultGrade   string    `xml:"defaultgrade,omitempty"`
	Answers        []answer  `xml:"answer"`
	ShuffleAnswers string    `xml:"shuffleanswers,omitempty"`
}

type text struct {
	Text string `xml:"text"`
}

type htmlText struct {
	Format string `xml:"format,attr,omitempty"`
	Text   cdata  `xml:"text"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

type answer struct {
	Fraction string `xml:"fraction,attr"`
	Text     string `xml:"text"`
}

func flatType(t quiz.Type) string {
	switch t {
	case quiz.TypeMultipleChoice:
		return typeMultiChoice
	case quiz.TypeTrueFalse:
		return typeTrueFalse
	case quiz.TypeEssay:
		return typeEssay
	case quiz.TypeCloze:
		return typeCloze
	default:
		return typeShortAnswer
	}
}

func percent(correct bool) string {
	if correct {
		return "100"
	}
	return "0"
}

// Export renders questions as a flat Moodle XML document. A blank category
// is left out.
func Export(category string, questions []quiz.Question) ([]byte, error) {
	doc := quizDoc{Questions: make([]question, 0, len(questions)+1)}
	if category = strings.TrimSpace(category); category != "" {
		doc.Questions = append(doc.Questions, question{
			Type:     typeCategory,
			Category: &text{Text: coursePrefix + category},
		})
	}
	for _, q := range questions {
		kind := q.Kind()
		el := question{
			Type:         flatType(kind),
			Name:         &text{Text: q.Name},
			QuestionText: &htmlText{Format: "html", Text: cdata{Value: q.Text}},
			DefaultGrade: strconv.FormatFloat(q.Points.Float(), 'f', -1, 64),
		}
		switch kind {
		case quiz.TypeMultipleChoice:
			for i, opt := range q.Options {
				el.Answers = append(el.Answers, answer{Fraction: percent(q.IsCorrect(i + 1)), Text: opt})
			}
			el.ShuffleAnswers = "1"
		case quiz.TypeTrueFalse:
			right, wrong := "true", "false"
			if !q.TrueIsCorrect() {
				right, wrong = wrong, right
			}
			el.Answers = []answer{{Fraction: "100", Text: right}, {Fraction: "0", Text: wrong}}
		case quiz.TypeEssay, quiz.TypeCloze:
		default:
			el.Answers = []answer{{Fraction: "100", Text: q.CorrectAnswer}}
		}
		doc.Questions = append(doc.Questions, el)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("moodlexml: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Skipped is a question Load could not map to a supported type.
type Skipped struct {
	Position int    `json:"position"`
	Type     string `json:"type"`
	Name     string `json:"name"`
}

// LoadResult is the outcome of reading one flat XML document.
type LoadResult struct {
	Category  string          `json:"category_name"`
	Questions []quiz.Question `json:"questions"`
	Skipped   []Skipped       `json:"skipped,omitempty"`
}

// Load reads a flat Moodle XML document. Questions of unsupported types are
// reported in Skipped rather than failing the load.
func Load(r io.Reader) (LoadResult, error) {
	var doc quizDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) && strings.Contains(string(unexpected), "expected element type <quiz>") {
			return LoadResult{}, ErrNotQuiz
		}
		return LoadResult{}, fmt.Errorf("moodlexml: parse: %w", err)
	}

	res := LoadResult{Questions: []quiz.Question{}}
	for i, el := range doc.Questions {
		if el.Type == typeCategory {
			if el.Category != nil {
				res.Category = strings.TrimSpace(strings.Replace(el.Category.Text, coursePrefix, "", 1))
			}
			continue
		}

		q := quiz.Question{Name: "Untitled", Points: quiz.ParsePoints(el.DefaultGrade)}
		if el.Name != nil {
			q.Name = strings.TrimSpace(el.Name.Text)
		}
		if el.QuestionText != nil {
			q.Text = strings.TrimSpace(el.QuestionText.Text.Value)
		}

		switch el.Type {
		case typeMultiChoice:
			q.Type = quiz.TypeMultipleChoice
			q.Options = []string{}
			for j, a := range el.Answers {
				q.Options = append(q.Options, strings.TrimSpace(a.Text))
				if isCorrect(a.Fraction) {
					q.Correct = append(q.Correct, j+1)
				}
			}
		case typeTrueFalse:
			q.Type = quiz.TypeTrueFalse
			for _, a := range el.Answers {
				if isCorrect(a.Fraction) {
					q.Answer = "False"
					if strings.EqualFold(strings.TrimSpace(a.Text), "true") {
						q.Answer = "True"
					}
					break
				}
			}
		case typeShortAnswer:
			q.Type = quiz.TypeShortAnswer
			if len(el.Answers) > 0 && isCorrect(el.Answers[0].Fraction) {
				q.CorrectAnswer = strings.TrimSpace(el.Answers[0].Text)
			}
		case typeEssay:
			q.Type = quiz.TypeEssay
		case typeCloze, "multianswer":
			q.Type = quiz.TypeCloze
		default:
			res.Skipped = append(res.Skipped, Skipped{Position: i + 1, Type: el.Type, Name: q.Name})
			continue
		}
		res.Questions = append(res.Questions, q)
	}
	return res, nil
}

func isCorrect(fraction string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(fraction), 64)
	return err == nil && f > 0
}
