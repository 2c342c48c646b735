package moodle

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/examlab/examlab/internal/quiz"
)

func TestBuildQuizActivitySlots(t *testing.T) {
	out, err := testBuilder().BuildQuizActivity(Activity{
		ModuleID: 5000,
		Name:     "Math",
		Slots:    []SlotRef{{QuestionID: 35640000, MaxMark: 2}, {QuestionID: 35640001, MaxMark: 0.5}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var doc activityDoc
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.ID != 50000 || doc.ModuleID != 5000 || doc.ModuleName != "quiz" || doc.Quiz.ID != 50001 {
		t.Fatalf("unexpected activity header %+v", doc)
	}
	q := doc.Quiz
	if q.QuestionInstances == nil || q.Slots == nil {
		t.Fatalf("expected instances and slots")
	}
	if len(q.QuestionInstances.Instances) != 2 || len(q.Slots.Slots) != 2 {
		t.Fatalf("expected 2 instances and slots, got %d/%d", len(q.QuestionInstances.Instances), len(q.Slots.Slots))
	}
	inst, slot := q.QuestionInstances.Instances[1], q.Slots.Slots[1]
	if inst.ID != 10005000002 || inst.Slot != 2 || inst.QuestionID != 35640001 || inst.MaxMark != "0.50000" {
		t.Fatalf("unexpected instance %+v", inst)
	}
	if slot.ID != 10005000502 || slot.SlotNumber != 2 || slot.QuestionInstanceID != inst.ID || slot.MaxMark != "0.50000" || slot.MinMark != "0.00000" || slot.QuizPage != 1 {
		t.Fatalf("unexpected slot %+v", slot)
	}
	if q.SumGrades != "2.50000" || q.Grade != "2.50000" {
		t.Fatalf("sumgrades=%s grade=%s", q.SumGrades, q.Grade)
	}
	if len(q.Sections.Sections) != 1 || q.Sections.Sections[0].SlotCount != 2 || q.Sections.Sections[0].FirstSlot != 1 {
		t.Fatalf("unexpected sections %+v", q.Sections)
	}
	if q.AttemptsNumber != 1 || q.ReviewAttempt != 65536 || q.PreferredBehaviour != "deferredfeedback" {
		t.Fatalf("unexpected defaults %+v", q)
	}
}

func TestBuildQuizActivityEmpty(t *testing.T) {
	out, err := testBuilder().BuildQuizActivity(Activity{ModuleID: 5000, Name: "Empty"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "question_instances") || strings.Contains(s, "<slots>") {
		t.Fatalf("empty quiz should omit instances and slots:\n%s", s)
	}
	if !strings.Contains(s, "<sumgrades>0.00000</sumgrades>") || !strings.Contains(s, "<grade>0.00000</grade>") {
		t.Fatalf("empty quiz should have zero grades:\n%s", s)
	}
	if !strings.Contains(s, "<sections></sections>") {
		t.Fatalf("sections should stay present:\n%s", s)
	}
}

func TestBuildQuizActivitySettings(t *testing.T) {
	out, err := testBuilder().BuildQuizActivity(Activity{
		ModuleID: 7,
		Settings: quiz.Settings{TimeOpen: 100, TimeClose: 200, TimeLimit: 1800, Attempts: -1},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var doc activityDoc
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	q := doc.Quiz
	if q.TimeOpen != 100 || q.TimeClose != 200 || q.TimeLimit != 1800 || q.AttemptsNumber != 0 || q.Name != "Quiz" {
		t.Fatalf("unexpected settings %+v", q)
	}
}

func TestBuildModule(t *testing.T) {
	out, err := testBuilder().BuildModule(Module{ModuleID: 5000, Name: "Math", SectionNumber: 1, Visible: true, InstanceID: 50001})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var doc moduleDoc
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.ID != 5000 || doc.Version != moduleVersion || doc.ModuleName != "quiz" || doc.SectionID != null || doc.Instance != 50001 {
		t.Fatalf("unexpected module %+v", doc)
	}
	if doc.Visible != 1 || doc.VisibleOld != 1 || doc.VisibleOnCoursePage != 0 || doc.Availability != null {
		t.Fatalf("unexpected visibility %+v", doc)
	}

	out, err = testBuilder().BuildModule(Module{ModuleID: 5001})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(string(out), "<instance>") {
		t.Fatalf("instance should be omitted:\n%s", out)
	}
}

func TestBuildManifest(t *testing.T) {
	if _, err := testBuilder().BuildManifest(nil); !errors.Is(err, ErrNoModules) {
		t.Fatalf("expected ErrNoModules, got %v", err)
	}
	mods := []ModuleRef{{ModuleID: 5000, Title: "A"}, {ModuleID: 5001, Title: "B"}}
	out, err := testBuilder().BuildManifest(mods)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var doc backupDoc
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	info := doc.Information
	if info.Name != "backup-moodle2-activities-2-20250609-1230.mbz" {
		t.Fatalf("unexpected name %q", info.Name)
	}
	if len(info.Details) != 2 || info.Details[0].BackupID == info.Details[1].BackupID || len(info.Details[0].BackupID) != 32 {
		t.Fatalf("unexpected details %+v", info.Details)
	}
	if len(info.Contents) != 2 || info.Contents[1].Directory != "activities/quiz_5001" || info.Contents[1].SectionID != null {
		t.Fatalf("unexpected contents %+v", info.Contents)
	}
	values := map[string]string{}
	for _, s := range info.Settings {
		values[s.Name] = s.Value
		if s.Level == "activity" && s.Activity == "" {
			t.Fatalf("activity setting without key: %+v", s)
		}
	}
	if len(info.Settings) != len(rootSettings)+4 {
		t.Fatalf("expected %d settings, got %d", len(rootSettings)+4, len(info.Settings))
	}
	for name, want := range map[string]string{
		"activities":          "2",
		"questionbank":        "1",
		"users":               "0",
		"files":               "0",
		"filename":            info.Name,
		"quiz_5000_included":  "1",
		"quiz_5001_userinfo":  "0",
	} {
		if values[name] != want {
			t.Fatalf("setting %s = %q, want %q", name, values[name], want)
		}
	}
}
