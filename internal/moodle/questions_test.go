package moodle

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/examlab/examlab/internal/quiz"
)

var fixedTime = time.Date(2025, 6, 9, 12, 30, 0, 0, time.UTC)

func testBuilder() *Builder {
	b := NewBuilder()
	b.Clock = func() time.Time { return fixedTime }
	return b
}

func parseBank(t *testing.T, data []byte) questionCategories {
	t.Helper()
	var doc questionCategories
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal questions.xml: %v", err)
	}
	if len(doc.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(doc.Categories))
	}
	return doc
}

func bankQuestions(doc questionCategories) []questionNode {
	var out []questionNode
	for _, e := range doc.Categories[1].Entries.Entries {
		for _, v := range e.Versions.Versions {
			out = append(out, v.Question)
		}
	}
	return out
}

func TestBuildQuestionsMultiChoiceExample(t *testing.T) {
	q := quiz.Question{Type: quiz.TypeMultipleChoice, Name: "Q1", Text: "2+2?", Options: []string{"3", "4", "5"}, Correct: []int{2}, Points: 2}
	bank, err := testBuilder().BuildQuestions("Math", []quiz.Question{q})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	doc := parseBank(t, bank.XML)
	qs := bankQuestions(doc)
	if len(qs) != 1 || qs[0].MultiChoice == nil {
		t.Fatalf("expected one multichoice question, got %+v", qs)
	}
	answers := qs[0].MultiChoice.Answers.Answers
	want := map[string]string{"3": "0.0000000", "4": "1.0000000", "5": "0.0000000"}
	if len(answers) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(answers))
	}
	for _, a := range answers {
		if want[a.AnswerText] != a.Fraction {
			t.Fatalf("answer %q has fraction %q, want %q", a.AnswerText, a.Fraction, want[a.AnswerText])
		}
	}
	if qs[0].DefaultMark != "2.0000000" || qs[0].Penalty != "0.3333333" || qs[0].QType != "multichoice" {
		t.Fatalf("unexpected question fields %+v", qs[0])
	}
	if qs[0].MultiChoice.Options.Single != 1 || qs[0].MultiChoice.Options.AnswerNumbering != "abc" {
		t.Fatalf("unexpected multichoice options %+v", qs[0].MultiChoice.Options)
	}
}

func TestBuildQuestionsCategoryTree(t *testing.T) {
	bank, err := testBuilder().BuildQuestions("", []quiz.Question{{Type: quiz.TypeEssay, Name: "E", Text: "Discuss."}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	doc := parseBank(t, bank.XML)
	top, named := doc.Categories[0], doc.Categories[1]
	if top.Name != "top" || top.Parent != 0 || len(top.Entries.Entries) != 0 {
		t.Fatalf("unexpected top category %+v", top)
	}
	if named.Name != DefaultCategory || named.Parent != top.ID {
		t.Fatalf("unexpected named category %+v", named)
	}
	if e := named.Entries.Entries[0]; e.QuestionCategoryID != named.ID || e.IDNumber != null || e.Versions.Versions[0].Status != "ready" {
		t.Fatalf("unexpected entry %+v", e)
	}
	essay := bankQuestions(doc)[0]
	if essay.Essay == nil || essay.Essay.Options.ResponseFormat != "editor" || essay.Essay.Options.ResponseRequired != 1 {
		t.Fatalf("unexpected essay payload %+v", essay.Essay)
	}
	for _, stub := range []string{"<plugin_qbank_comment_question>", "<comments></comments>", "<customfields></customfields>", "<outcome_areas></outcome_areas>", "<question_hints></question_hints>"} {
		if !strings.Contains(string(bank.XML), stub) {
			t.Fatalf("questions.xml is missing %s", stub)
		}
	}
}

func TestBuildQuestionsTrueFalseComplementary(t *testing.T) {
	for _, answer := range []string{"True", "false", "TRUE", ""} {
		q := quiz.Question{Type: quiz.TypeTrueFalse, Name: "TF", Text: "Sky is blue", Answer: answer}
		bank, err := testBuilder().BuildQuestions("c", []quiz.Question{q})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		qn := bankQuestions(parseBank(t, bank.XML))[0]
		if qn.TrueFalse == nil || qn.Penalty != "1.0000000" {
			t.Fatalf("answer %q: unexpected question %+v", answer, qn)
		}
		a := qn.TrueFalse.Answers.Answers
		if len(a) != 2 || a[0].AnswerText != "True" || a[1].AnswerText != "False" {
			t.Fatalf("answer %q: unexpected answers %+v", answer, a)
		}
		if a[0].Fraction == a[1].Fraction {
			t.Fatalf("answer %q: both answers have fraction %s", answer, a[0].Fraction)
		}
		wantTrue := strings.EqualFold(answer, "true")
		if (a[0].Fraction == "1.0000000") != wantTrue {
			t.Fatalf("answer %q: True has fraction %s", answer, a[0].Fraction)
		}
		opts := qn.TrueFalse.Options
		if opts.TrueAnswer != a[0].ID || opts.FalseAnswer != a[1].ID {
			t.Fatalf("answer %q: truefalse block points at %d/%d", answer, opts.TrueAnswer, opts.FalseAnswer)
		}
	}
}

func TestBuildQuestionsDefaults(t *testing.T) {
	qs := []quiz.Question{
		{Type: "Matching", Name: "odd", Text: "unknown type", CorrectAnswer: "x"},
		{Type: quiz.TypeMultipleChoice, Name: "bare", Text: "no options"},
		{Type: quiz.TypeCloze, Name: "cloze", Text: "2+2={1:SHORTANSWER:=4}"},
	}
	bank, err := testBuilder().BuildQuestions("c", qs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got := bankQuestions(parseBank(t, bank.XML))
	if got[0].QType != "shortanswer" || got[0].ShortAnswer == nil || got[0].ShortAnswer.Answers.Answers[0].AnswerText != "x" {
		t.Fatalf("unknown type should encode as short answer: %+v", got[0])
	}
	if got[1].MultiChoice == nil || len(got[1].MultiChoice.Answers.Answers) != 0 {
		t.Fatalf("multichoice without options should have no answers: %+v", got[1].MultiChoice)
	}
	if got[2].QType != "multianswer" || got[2].MultiChoice != nil || got[2].ShortAnswer != nil || got[2].Essay != nil {
		t.Fatalf("cloze should carry no payload: %+v", got[2])
	}
	if got[2].QuestionText != qs[2].Text {
		t.Fatalf("cloze text changed: %q", got[2].QuestionText)
	}
}

func TestBuildQuestionsPositionalIDs(t *testing.T) {
	qs := []quiz.Question{
		{Type: quiz.TypeShortAnswer, Name: "a", Text: "a", CorrectAnswer: "a"},
		{Type: quiz.TypeShortAnswer, Name: "b", Text: "b", CorrectAnswer: "b"},
		{Type: quiz.TypeTrueFalse, Name: "c", Text: "c", Answer: "True"},
	}
	bank, err := testBuilder().BuildQuestions("c", qs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(bank.EntryIDs) != 3 || len(bank.QuestionIDs) != 3 {
		t.Fatalf("expected 3 ids each, got %v %v", bank.EntryIDs, bank.QuestionIDs)
	}
	doc := parseBank(t, bank.XML)
	answerIDs := map[int64]bool{}
	for i, e := range doc.Categories[1].Entries.Entries {
		qn := e.Versions.Versions[0].Question
		if e.ID != bank.EntryIDs[i] || qn.ID != bank.QuestionIDs[i] || qn.Name != qs[i].Name {
			t.Fatalf("entry %d out of order: %d/%d %q", i, e.ID, qn.ID, qn.Name)
		}
		var answers []answerNode
		if qn.ShortAnswer != nil {
			answers = qn.ShortAnswer.Answers.Answers
		}
		if qn.TrueFalse != nil {
			answers = qn.TrueFalse.Answers.Answers
		}
		for _, a := range answers {
			if answerIDs[a.ID] {
				t.Fatalf("answer id %d reused", a.ID)
			}
			answerIDs[a.ID] = true
		}
	}
}

func TestBuildQuestionsRequiresNameAndText(t *testing.T) {
	_, err := testBuilder().BuildQuestions("c", []quiz.Question{
		{Type: quiz.TypeEssay, Name: "ok", Text: "ok"},
		{Type: quiz.TypeEssay, Name: "no text"},
	})
	if !errors.Is(err, quiz.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
	if !strings.Contains(err.Error(), "question 2") {
		t.Fatalf("error should name the position: %v", err)
	}
}

func TestBuildQuestionsRejectsCorrectPastOptions(t *testing.T) {
	_, err := testBuilder().BuildQuestions("c", []quiz.Question{
		{Type: quiz.TypeMultipleChoice, Name: "mc", Text: "pick", Options: []string{"a", "b", "c"}, Correct: []int{7}},
	})
	if !errors.Is(err, quiz.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
	if !strings.Contains(err.Error(), "out of range 1..3") {
		t.Fatalf("error should name the valid range: %v", err)
	}
}

func TestBuildQuestionsRepeatedCorrectIsSingle(t *testing.T) {
	q := quiz.Question{Type: quiz.TypeMultipleChoice, Name: "mc", Text: "pick", Options: []string{"a", "b", "c"}, Correct: []int{2, 2}}
	bank, err := testBuilder().BuildQuestions("c", []quiz.Question{q})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	mc := bankQuestions(parseBank(t, bank.XML))[0].MultiChoice
	right := 0
	for _, a := range mc.Answers.Answers {
		if a.Fraction == "1.0000000" {
			right++
		}
	}
	if right != 1 || mc.Options.Single != 1 {
		t.Fatalf("expected one right answer in single mode, got %d single=%d", right, mc.Options.Single)
	}
}
