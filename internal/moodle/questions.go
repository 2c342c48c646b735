package moodle

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/examlab/examlab/internal/quiz"
)

// QuestionBank is a rendered questions.xml plus the ids it assigned, in the
// same order as the input questions.
type QuestionBank struct {
	XML         []byte
	EntryIDs    []int64
	QuestionIDs []int64
}

type questionCategories struct {
	XMLName    xml.Name           `xml:"question_categories"`
	Categories []questionCategory `xml:"question_category"`
}

type questionCategory struct {
	ID                int64       `xml:"id,attr"`
	Name              string      `xml:"name"`
	ContextID         int         `xml:"contextid"`
	ContextLevel      int         `xml:"contextlevel"`
	ContextInstanceID int         `xml:"contextinstanceid"`
	Info              string      `xml:"info"`
	InfoFormat        int         `xml:"infoformat"`
	Stamp             string      `xml:"stamp"`
	Parent            int64       `xml:"parent"`
	SortOrder         int         `xml:"sortorder"`
	IDNumber          string      `xml:"idnumber"`
	Entries           bankEntries `xml:"question_bank_entries"`
}

type bankEntries struct {
	Entries []bankEntry `xml:"question_bank_entry"`
}

type bankEntry struct {
	ID                 int64            `xml:"id,attr"`
	QuestionCategoryID int64            `xml:"questioncategoryid"`
	IDNumber           string           `xml:"idnumber"`
	OwnerID            string           `xml:"ownerid"`
	Versions           questionVersions `xml:"question_versions"`
}

type questionVersions struct {
	Versions []questionVersion `xml:"question_version"`
}

type questionVersion struct {
	ID       int64        `xml:"id,attr"`
	Version  int          `xml:"version"`
	Status   string       `xml:"status"`
	Question questionNode `xml:"question"`
}

type questionNode struct {
	ID                    int64  `xml:"id,attr"`
	Parent                int    `xml:"parent"`
	Name                  string `xml:"name"`
	QuestionText          string `xml:"questiontext"`
	QuestionTextFormat    int    `xml:"questiontextformat"`
	GeneralFeedback       string `xml:"generalfeedback"`
	GeneralFeedbackFormat int    `xml:"generalfeedbackformat"`
	DefaultMark           string `xml:"defaultmark"`
	Penalty               string `xml:"penalty"`
	QType                 string `xml:"qtype"`
	Length                int    `xml:"length"`
	Stamp                 string `xml:"stamp"`
	TimeCreated           int64  `xml:"timecreated"`
	TimeModified          int64  `xml:"timemodified"`
	CreatedBy             string `xml:"createdby"`
	ModifiedBy            string `xml:"modifiedby"`

	MultiChoice *multichoicePlugin `xml:"plugin_qtype_multichoice_question,omitempty"`
	TrueFalse   *truefalsePlugin   `xml:"plugin_qtype_truefalse_question,omitempty"`
	ShortAnswer *shortanswerPlugin `xml:"plugin_qtype_shortanswer_question,omitempty"`
	Essay       *essayPlugin       `xml:"plugin_qtype_essay_question,omitempty"`

	Comments     commentPlugin     `xml:"plugin_qbank_comment_question"`
	CustomFields customFieldPlugin `xml:"plugin_qbank_customfields_question"`
	Outcomes     outcomePlugin     `xml:"plugin_outcomesupport_qtype_question"`
	Hints        struct{}          `xml:"question_hints"`
}

type commentPlugin struct {
	Comments struct{} `xml:"comments"`
}

type customFieldPlugin struct {
	CustomFields struct{} `xml:"customfields"`
}

type outcomePlugin struct {
	OutcomeAreas struct{} `xml:"outcome_areas"`
}

// course context, remapped by Moodle on restore
const (
	courseContextID    = 1
	courseContextLevel = 50
)

// BuildQuestions renders questions.xml: an empty "top" category followed by
// the named category holding one bank entry per question, in input order.
func (b *Builder) BuildQuestions(category string, questions []quiz.Question) (QuestionBank, error) {
	return b.buildQuestions(category, questions, b.now())
}

func (b *Builder) buildQuestions(category string, questions []quiz.Question, at time.Time) (QuestionBank, error) {
	for i, q := range questions {
		if err := q.Require(); err != nil {
			return QuestionBank{}, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	if category == "" {
		category = b.defaultCategory()
	}
	now := at.Unix()
	ids := NewAllocator()

	top := questionCategory{
		ID:                ids.Next(NSCategory),
		Name:              "top",
		ContextID:         courseContextID,
		ContextLevel:      courseContextLevel,
		ContextInstanceID: 1,
		Stamp:             fmt.Sprintf("generated+%d+top", now),
		IDNumber:          null,
	}
	named := questionCategory{
		ID:                ids.Next(NSCategory),
		Name:              category,
		ContextID:         courseContextID,
		ContextLevel:      courseContextLevel,
		ContextInstanceID: 1,
		Info:              fmt.Sprintf("The default category for questions shared in context '%s'.", category),
		Stamp:             fmt.Sprintf("generated+%d+default", now),
		Parent:            top.ID,
		SortOrder:         999,
		IDNumber:          null,
	}

	bank := QuestionBank{
		EntryIDs:    make([]int64, 0, len(questions)),
		QuestionIDs: make([]int64, 0, len(questions)),
	}
	for i, q := range questions {
		qn := questionNode{
			ID:                    ids.Next(NSQuestion),
			Name:                  q.Name,
			QuestionText:          q.Text,
			QuestionTextFormat:    1,
			GeneralFeedbackFormat: 1,
			DefaultMark:           decimal7(q.Points.Float()),
			Penalty:               "0.3333333",
			QType:                 QType(q),
			Length:                1,
			TimeCreated:           now,
			TimeModified:          now,
			CreatedBy:             null,
			ModifiedBy:            null,
		}
		if qn.QType == qtypeTrueFalse {
			qn.Penalty = "1.0000000"
		}
		qn.Stamp = fmt.Sprintf("generated+%d+%s+%d", now, qn.QType, i)
		encodePayload(&qn, q, ids)

		entry := bankEntry{
			ID:                 ids.Next(NSEntry),
			QuestionCategoryID: named.ID,
			IDNumber:           null,
			OwnerID:            null,
			Versions: questionVersions{Versions: []questionVersion{{
				ID:       ids.Next(NSVersion),
				Version:  1,
				Status:   "ready",
				Question: qn,
			}}},
		}
		named.Entries.Entries = append(named.Entries.Entries, entry)
		bank.EntryIDs = append(bank.EntryIDs, entry.ID)
		bank.QuestionIDs = append(bank.QuestionIDs, qn.ID)
	}

	out, err := Marshal(questionCategories{Categories: []questionCategory{top, named}})
	if err != nil {
		return QuestionBank{}, fmt.Errorf("marshal questions.xml: %w", err)
	}
	bank.XML = out
	return bank, nil
}
