package moodlexml

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/examlab/examlab/internal/quiz"
)

func oneOfEach() []quiz.Question {
	return []quiz.Question{
		{Type: quiz.TypeMultipleChoice, Name: "Q1", Text: "2+2?", Points: 2, Options: []string{"3", "4", "5"}, Correct: []int{2}},
		{Type: quiz.TypeTrueFalse, Name: "Q2", Text: "The sky is green", Points: 1, Answer: "False"},
		{Type: quiz.TypeShortAnswer, Name: "Q3", Text: "Capital of France?", Points: 1.5, CorrectAnswer: "Paris"},
		{Type: quiz.TypeEssay, Name: "Q4", Text: "<p>Discuss <b>entropy</b>.</p>", Points: 3},
		{Type: quiz.TypeCloze, Name: "Q5", Text: "2+2 = {1:MULTICHOICE:=4~3~5}", Points: 1},
	}
}

func TestRoundTrip(t *testing.T) {
	in := oneOfEach()
	out, err := Export("Week 1", in)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	res, err := Load(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Category != "Week 1" {
		t.Fatalf("category = %q", res.Category)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("unexpected skipped %+v", res.Skipped)
	}
	if !reflect.DeepEqual(res.Questions, in) {
		t.Fatalf("round trip mismatch\n got %+v\nwant %+v", res.Questions, in)
	}
}

func TestExportShape(t *testing.T) {
	out, err := Export("", oneOfEach())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("missing declaration")
	}
	if strings.Contains(s, `type="category"`) {
		t.Fatalf("blank category should be left out")
	}
	for _, want := range []string{
		`<question type="multichoice">`,
		`<question type="truefalse">`,
		`<question type="shortanswer">`,
		`<question type="essay">`,
		`<question type="cloze">`,
		`<questiontext format="html">`,
		`<![CDATA[<p>Discuss <b>entropy</b>.</p>]]>`,
		`<shuffleanswers>1</shuffleanswers>`,
		`<defaultgrade>1.5</defaultgrade>`,
		`<answer fraction="100">`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("export is missing %s:\n%s", want, s)
		}
	}
}

func TestExportFractionsMatchCorrect(t *testing.T) {
	q := quiz.Question{Type: quiz.TypeMultipleChoice, Name: "multi", Text: "pick", Options: []string{"a", "b", "c", "d"}, Correct: []int{1, 3}}
	out, err := Export("", []quiz.Question{q})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := strings.Count(string(out), `fraction="100"`); got != len(q.Correct) {
		t.Fatalf("expected %d correct answers, got %d", len(q.Correct), got)
	}
	if got := strings.Count(string(out), `fraction="0"`); got != 2 {
		t.Fatalf("expected 2 wrong answers, got %d", got)
	}
}

func TestExportEscapesNames(t *testing.T) {
	q := quiz.Question{Type: quiz.TypeShortAnswer, Name: "a < b & c", Text: "x", CorrectAnswer: "<none>"}
	out, err := Export("Cats & Dogs", []quiz.Question{q})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(out), "a &lt; b &amp; c") {
		t.Fatalf("name not escaped:\n%s", out)
	}
	res, err := Load(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Category != "Cats & Dogs" || res.Questions[0].Name != q.Name || res.Questions[0].CorrectAnswer != "<none>" {
		t.Fatalf("unexpected load %+v", res)
	}
}

func TestLoadSkipsUnknownTypes(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<quiz>
  <question type="category"><category><text>$course$/Imported</text></category></question>
  <question type="matching"><name><text>M1</text></name><questiontext><text>match</text></questiontext></question>
  <question type="truefalse">
    <name><text> T1 </text></name>
    <questiontext format="html"><text>Is it?</text></questiontext>
    <defaultgrade>not a number</defaultgrade>
    <answer fraction="0"><text>false</text></answer>
    <answer fraction="100"><text>true</text></answer>
  </question>
</quiz>`
	res, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Category != "Imported" {
		t.Fatalf("category = %q", res.Category)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Type != "matching" || res.Skipped[0].Name != "M1" || res.Skipped[0].Position != 2 {
		t.Fatalf("unexpected skipped %+v", res.Skipped)
	}
	if len(res.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(res.Questions))
	}
	q := res.Questions[0]
	if q.Name != "T1" || q.Answer != "True" || q.Points != quiz.DefaultPoints {
		t.Fatalf("unexpected question %+v", q)
	}
}

func TestLoadRejectsOtherRoots(t *testing.T) {
	_, err := Load(strings.NewReader(`<questions><question type="essay"/></questions>`))
	if !errors.Is(err, ErrNotQuiz) {
		t.Fatalf("expected ErrNotQuiz, got %v", err)
	}
	if _, err := Load(strings.NewReader(`<quiz><question`)); err == nil {
		t.Fatalf("expected a parse error")
	}
}
