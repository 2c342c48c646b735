// Package moodle renders quizzes as a Moodle 4.5 activity backup (.mbz):
// questions.xml, one quiz activity per quiz, and the backup manifest.
package moodle

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/examlab/examlab/internal/quiz"
)

var (
	ErrNoQuizzes       = errors.New("moodle: at least one quiz is required to build an archive")
	ErrNoModules       = errors.New("moodle: at least one module is required to build a backup manifest")
	ErrDuplicateModule = errors.New("moodle: two quizzes share a moduleid")
)

const (
	DefaultModuleIDStart = 5000
	DefaultCategory      = "Default category"
	DefaultWWWRoot       = "https://example.invalid"
)

// Builder holds the per-deployment knobs of an export. The zero value is
// usable; every build reads the clock once and allocates its own ids.
type Builder struct {
	// Clock defaults to time.Now.
	Clock func() time.Time
	// WWWRoot is reported as the backup's original site.
	WWWRoot string
	// ModuleIDStart numbers quizzes without a moduleid: start + index.
	ModuleIDStart int64
	// DefaultCategory names the bank category when no quiz carries one.
	DefaultCategory string
}

func NewBuilder() *Builder {
	return &Builder{
		WWWRoot:         DefaultWWWRoot,
		ModuleIDStart:   DefaultModuleIDStart,
		DefaultCategory: DefaultCategory,
	}
}

func (b *Builder) now() time.Time {
	if b.Clock != nil {
		return b.Clock()
	}
	return time.Now()
}

func (b *Builder) wwwRoot() string {
	if b.WWWRoot == "" {
		return DefaultWWWRoot
	}
	return b.WWWRoot
}

func (b *Builder) defaultCategory() string {
	if b.DefaultCategory == "" {
		return DefaultCategory
	}
	return b.DefaultCategory
}

func (b *Builder) moduleIDStart() int64 {
	if b.ModuleIDStart <= 0 {
		return DefaultModuleIDStart
	}
	return b.ModuleIDStart
}

// Archive is a built .mbz with what went into it.
type Archive struct {
	Name      string
	Data      []byte
	Modules   []ModuleRef
	Questions int
}

// BuildArchive is Archive without the metadata.
func (b *Builder) BuildArchive(quizzes []quiz.Quiz) ([]byte, error) {
	a, err := b.Archive(quizzes)
	if err != nil {
		return nil, err
	}
	return a.Data, nil
}

// Archive builds one backup holding every quiz. All questions share one
// category tree; each quiz gets activities/quiz_<moduleid>/. The zip is
// assembled in memory and returned only when complete.
func (b *Builder) Archive(quizzes []quiz.Quiz) (Archive, error) {
	if len(quizzes) == 0 {
		return Archive{}, ErrNoQuizzes
	}
	at := b.now()

	type span struct{ start, end int }
	var (
		all     []quiz.Question
		spans   = make([]span, len(quizzes))
		modules = make([]ModuleRef, len(quizzes))
		seen    = make(map[int64]int, len(quizzes))
	)
	for i, q := range quizzes {
		moduleID := q.ModuleID
		if moduleID <= 0 {
			moduleID = b.moduleIDStart() + int64(i)
		}
		if prev, ok := seen[moduleID]; ok {
			return Archive{}, fmt.Errorf("%w: quizzes %d and %d both use %d", ErrDuplicateModule, prev+1, i+1, moduleID)
		}
		seen[moduleID] = i

		title := strings.TrimSpace(q.Name)
		if title == "" {
			title = fmt.Sprintf("Quiz %d", i+1)
		}
		modules[i] = ModuleRef{ModuleID: moduleID, Title: title}

		spans[i].start = len(all)
		all = append(all, q.Questions...)
		spans[i].end = len(all)
	}

	category := strings.TrimSpace(quizzes[0].CategoryName)
	bank, err := b.buildQuestions(category, all, at)
	if err != nil {
		return Archive{}, err
	}
	if len(bank.QuestionIDs) != len(all) {
		return Archive{}, fmt.Errorf("moodle: %d question ids for %d questions", len(bank.QuestionIDs), len(all))
	}

	manifest, err := b.buildManifest(modules, at)
	if err != nil {
		return Archive{}, err
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	write := func(name string, data []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: at})
		if err != nil {
			return fmt.Errorf("zip %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("zip %s: %w", name, err)
		}
		return nil
	}

	if err := write("moodle_backup.xml", manifest); err != nil {
		return Archive{}, err
	}
	if err := write("questions.xml", bank.XML); err != nil {
		return Archive{}, err
	}

	for i, q := range quizzes {
		m := modules[i]
		ids := DeriveIdentifiers(m.ModuleID)

		slots := make([]SlotRef, 0, spans[i].end-spans[i].start)
		for pos := spans[i].start; pos < spans[i].end; pos++ {
			slots = append(slots, SlotRef{QuestionID: bank.QuestionIDs[pos], MaxMark: all[pos].Points.Float()})
		}

		moduleXML, err := b.buildModule(Module{
			ModuleID:            m.ModuleID,
			Name:                m.Title,
			SectionNumber:       1,
			Visible:             true,
			VisibleOnCoursePage: true,
			InstanceID:          ids.QuizID,
			ShowDescription:     q.Settings.ShowDescription,
		}, at)
		if err != nil {
			return Archive{}, err
		}
		quizXML, err := b.buildQuizActivity(Activity{
			ModuleID:  m.ModuleID,
			Name:      m.Title,
			IntroHTML: q.IntroHTML,
			Settings:  q.Settings,
			Slots:     slots,
		}, at)
		if err != nil {
			return Archive{}, err
		}
		roles, err := activityRolesXML()
		if err != nil {
			return Archive{}, err
		}
		grades, err := activityGradesXML()
		if err != nil {
			return Archive{}, err
		}

		dir := m.Directory() + "/"
		for _, f := range []struct {
			name string
			data []byte
		}{
			{"module.xml", moduleXML},
			{"quiz.xml", quizXML},
			{"roles.xml", roles},
			{"grades.xml", grades},
		} {
			if err := write(dir+f.name, f.data); err != nil {
				return Archive{}, err
			}
		}
	}

	for _, root := range topLevelStubs {
		data, err := stubXML(root)
		if err != nil {
			return Archive{}, err
		}
		if err := write(root+".xml", data); err != nil {
			return Archive{}, err
		}
	}

	if err := zw.Close(); err != nil {
		return Archive{}, err
	}
	return Archive{
		Name:      ArchiveName(len(modules), at),
		Data:      buf.Bytes(),
		Modules:   modules,
		Questions: len(all),
	}, nil
}
