package moodle

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/examlab/examlab/internal/quiz"
)

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	files := map[string][]byte{}
	for _, f := range zr.File {
		if f.Method != zip.Deflate {
			t.Fatalf("%s is not deflated", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		if _, dup := files[f.Name]; dup {
			t.Fatalf("duplicate member %s", f.Name)
		}
		files[f.Name] = b
	}
	return files
}

func sampleQuizzes() []quiz.Quiz {
	return []quiz.Quiz{
		{
			Name:         "Math",
			CategoryName: "Week 1",
			ModuleID:     5000,
			Questions: []quiz.Question{
				{Type: quiz.TypeMultipleChoice, Name: "Q1", Text: "2+2?", Options: []string{"3", "4", "5"}, Correct: []int{2}, Points: 2},
			},
		},
		{
			Name:     "Science",
			ModuleID: 5001,
			Questions: []quiz.Question{
				{Type: quiz.TypeTrueFalse, Name: "T1", Text: "Water is wet", Answer: "True", Points: 1},
				{Type: quiz.TypeEssay, Name: "E1", Text: "Explain gravity", Points: 3},
			},
		},
	}
}

func TestArchiveCompleteness(t *testing.T) {
	data, err := testBuilder().BuildArchive(sampleQuizzes())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	files := readZip(t, data)
	want := []string{
		"moodle_backup.xml", "questions.xml",
		"roles.xml", "users.xml", "outcomes.xml", "groups.xml", "scales.xml", "files.xml", "completion.xml", "badges.xml",
		"activities/quiz_5000/module.xml", "activities/quiz_5000/quiz.xml", "activities/quiz_5000/roles.xml", "activities/quiz_5000/grades.xml",
		"activities/quiz_5001/module.xml", "activities/quiz_5001/quiz.xml", "activities/quiz_5001/roles.xml", "activities/quiz_5001/grades.xml",
	}
	var got []string
	for name, body := range files {
		got = append(got, name)
		if !bytes.HasPrefix(body, []byte(xml.Header)) {
			t.Fatalf("%s has no XML declaration", name)
		}
	}
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("members %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("members %v, want %v", got, want)
		}
	}
}

func TestArchiveSlotsReferenceSharedBank(t *testing.T) {
	data, err := testBuilder().BuildArchive(sampleQuizzes())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	files := readZip(t, data)

	doc := parseBank(t, files["questions.xml"])
	if doc.Categories[1].Name != "Week 1" {
		t.Fatalf("category should come from the first quiz, got %q", doc.Categories[1].Name)
	}
	qs := bankQuestions(doc)
	if len(qs) != 3 {
		t.Fatalf("expected 3 bank questions, got %d", len(qs))
	}

	var science activityDoc
	if err := xml.Unmarshal(files["activities/quiz_5001/quiz.xml"], &science); err != nil {
		t.Fatalf("unmarshal quiz.xml: %v", err)
	}
	slots := science.Quiz.Slots.Slots
	if len(slots) != 2 || slots[0].QuestionID != qs[1].ID || slots[1].QuestionID != qs[2].ID {
		t.Fatalf("slots %+v do not point at bank questions %d,%d", slots, qs[1].ID, qs[2].ID)
	}
	if slots[1].MaxMark != "3.00000" || science.Quiz.SumGrades != "4.00000" {
		t.Fatalf("unexpected marks %+v sum=%s", slots, science.Quiz.SumGrades)
	}

	var math activityDoc
	if err := xml.Unmarshal(files["activities/quiz_5000/quiz.xml"], &math); err != nil {
		t.Fatalf("unmarshal quiz.xml: %v", err)
	}
	if len(math.Quiz.Slots.Slots) != 1 || math.Quiz.Slots.Slots[0].MaxMark != "2.00000" || math.Quiz.SumGrades != "2.00000" {
		t.Fatalf("unexpected math quiz %+v", math.Quiz)
	}

	var mod moduleDoc
	if err := xml.Unmarshal(files["activities/quiz_5000/module.xml"], &mod); err != nil {
		t.Fatalf("unmarshal module.xml: %v", err)
	}
	if mod.Instance != math.Quiz.ID || mod.Name != "Math" {
		t.Fatalf("module instance %d does not match quiz id %d", mod.Instance, math.Quiz.ID)
	}
}

func TestArchiveDeterministicUnderFixedClock(t *testing.T) {
	a, err := testBuilder().BuildArchive(sampleQuizzes())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := testBuilder().BuildArchive(sampleQuizzes())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("two builds with the same clock differ")
	}
}

func TestArchiveErrors(t *testing.T) {
	if _, err := testBuilder().BuildArchive(nil); !errors.Is(err, ErrNoQuizzes) {
		t.Fatalf("expected ErrNoQuizzes, got %v", err)
	}
	dup := []quiz.Quiz{{Name: "a", ModuleID: 9}, {Name: "b", ModuleID: 9}}
	if _, err := testBuilder().BuildArchive(dup); !errors.Is(err, ErrDuplicateModule) {
		t.Fatalf("expected ErrDuplicateModule, got %v", err)
	}
	bad := []quiz.Quiz{{Name: "a", Questions: []quiz.Question{{Type: quiz.TypeEssay, Text: "no name"}}}}
	if _, err := testBuilder().BuildArchive(bad); !errors.Is(err, quiz.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}

func TestArchiveNumbersQuizzesWithoutModuleID(t *testing.T) {
	a, err := testBuilder().Archive([]quiz.Quiz{{Name: "one"}, {}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(a.Modules) != 2 || a.Modules[0].ModuleID != 5000 || a.Modules[1].ModuleID != 5001 {
		t.Fatalf("unexpected modules %+v", a.Modules)
	}
	if a.Modules[1].Title != "Quiz 2" {
		t.Fatalf("blank title should default, got %q", a.Modules[1].Title)
	}
	files := readZip(t, a.Data)
	if _, ok := files["activities/quiz_5001/quiz.xml"]; !ok {
		t.Fatalf("missing activity for generated moduleid")
	}
	if a.Questions != 0 || a.Name != "backup-moodle2-activities-2-20250609-1230.mbz" {
		t.Fatalf("unexpected archive metadata %+v", a)
	}
}
