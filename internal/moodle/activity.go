package moodle

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/examlab/examlab/internal/quiz"
)

// SlotRef places one bank question into a quiz slot.
type SlotRef struct {
	QuestionID int64
	MaxMark    float64
}

// Activity is the input of BuildQuizActivity.
type Activity struct {
	ModuleID  int64
	Name      string
	IntroHTML string
	Settings  quiz.Settings
	Slots     []SlotRef
}

type activityDoc struct {
	XMLName    xml.Name `xml:"activity"`
	ID         int64    `xml:"id,attr"`
	ModuleID   int64    `xml:"moduleid,attr"`
	ModuleName string   `xml:"modulename,attr"`
	ContextID  int      `xml:"contextid,attr"`
	Quiz       quizNode `xml:"quiz"`
}

type quizNode struct {
	ID                    int64  `xml:"id,attr"`
	Name                  string `xml:"name"`
	Intro                 string `xml:"intro"`
	IntroFormat           int    `xml:"introformat"`
	TimeOpen              int64  `xml:"timeopen"`
	TimeClose             int64  `xml:"timeclose"`
	TimeLimit             int64  `xml:"timelimit"`
	OverdueHandling       string `xml:"overduehandling"`
	GracePeriod           int    `xml:"graceperiod"`
	PreferredBehaviour    string `xml:"preferredbehaviour"`
	CanRedoQuestions      int    `xml:"canredoquestions"`
	AttemptsNumber        int    `xml:"attempts_number"`
	AttemptOnLast         int    `xml:"attemptonlast"`
	GradeMethod           int    `xml:"grademethod"`
	DecimalPoints         int    `xml:"decimalpoints"`
	QuestionDecimalPoints int    `xml:"questiondecimalpoints"`

	ReviewAttempt          int `xml:"reviewattempt"`
	ReviewCorrectness      int `xml:"reviewcorrectness"`
	ReviewMarks            int `xml:"reviewmarks"`
	ReviewSpecificFeedback int `xml:"reviewspecificfeedback"`
	ReviewGeneralFeedback  int `xml:"reviewgeneralfeedback"`
	ReviewRightAnswer      int `xml:"reviewrightanswer"`
	ReviewOverallFeedback  int `xml:"reviewoverallfeedback"`

	QuestionsPerPage int    `xml:"questionsperpage"`
	NavMethod        string `xml:"navmethod"`
	ShuffleAnswers   int    `xml:"shuffleanswers"`

	QuestionInstances *questionInstances `xml:"question_instances,omitempty"`
	Slots             *slotList          `xml:"slots,omitempty"`
	Sections          sectionList        `xml:"sections"`

	SumGrades                   string `xml:"sumgrades"`
	Grade                       string `xml:"grade"`
	TimeCreated                 int64  `xml:"timecreated"`
	TimeModified                int64  `xml:"timemodified"`
	Password                    string `xml:"password"`
	Subnet                      string `xml:"subnet"`
	BrowserSecurity             string `xml:"browsersecurity"`
	Delay1                      int    `xml:"delay1"`
	Delay2                      int    `xml:"delay2"`
	ShowUserPicture             int    `xml:"showuserpicture"`
	ShowBlocks                  int    `xml:"showblocks"`
	CompletionAttemptsExhausted int    `xml:"completionattemptsexhausted"`
	CompletionMinAttempts       int    `xml:"completionminattempts"`
	AllowOfflineAttempts        int    `xml:"allowofflineattempts"`

	SEB        struct{} `xml:"subplugin_quizaccess_seb_quiz"`
	GradeItems struct{} `xml:"quiz_grade_items"`
	Feedbacks  struct{} `xml:"feedbacks"`
	Overrides  struct{} `xml:"overrides"`
	Grades     struct{} `xml:"grades"`
	Attempts   struct{} `xml:"attempts"`
}

type questionInstances struct {
	Instances []questionInstance `xml:"question_instance"`
}

type questionInstance struct {
	ID         int64  `xml:"id,attr"`
	Slot       int    `xml:"slot"`
	QuestionID int64  `xml:"questionid"`
	MaxMark    string `xml:"maxmark"`
}

type slotList struct {
	Slots []slotNode `xml:"slot"`
}

type slotNode struct {
	ID                 int64  `xml:"id,attr"`
	SlotNumber         int    `xml:"slotnumber"`
	QuizPage           int    `xml:"quizpage"`
	RequirePrevious    int    `xml:"requireprevious"`
	QuestionID         int64  `xml:"questionid"`
	QuestionInstanceID int64  `xml:"questioninstanceid"`
	MaxMark            string `xml:"maxmark"`
	MinMark            string `xml:"minmark"`
}

type sectionList struct {
	Sections []sectionNode `xml:"section"`
}

type sectionNode struct {
	ID               int64 `xml:"id,attr"`
	FirstSlot        int   `xml:"firstslot"`
	ShuffleQuestions int   `xml:"shufflequestions"`
	SlotCount        int   `xml:"slotcount"`
}

// review option bitmasks: "during" for attempts, "after close" otherwise
const (
	reviewDuring     = 65536
	reviewAfterClose = 4096
)

// attemptsNumber maps the quiz setting to Moodle's column: 0 keeps the
// single-attempt default and a negative value means unlimited.
func attemptsNumber(n int) int {
	switch {
	case n > 0:
		return n
	case n < 0:
		return 0
	default:
		return 1
	}
}

// BuildQuizActivity renders quiz.xml for one quiz. With no slots the
// question_instances and slots elements are left out and sumgrades is zero.
func (b *Builder) BuildQuizActivity(a Activity) ([]byte, error) {
	return b.buildQuizActivity(a, b.now())
}

func (b *Builder) buildQuizActivity(a Activity, at time.Time) ([]byte, error) {
	ids := DeriveIdentifiers(a.ModuleID)
	now := at.Unix()
	name := a.Name
	if name == "" {
		name = "Quiz"
	}

	qn := quizNode{
		ID:                     ids.QuizID,
		Name:                   name,
		Intro:                  a.IntroHTML,
		IntroFormat:            1,
		TimeOpen:               a.Settings.TimeOpen,
		TimeClose:              a.Settings.TimeClose,
		TimeLimit:              a.Settings.TimeLimit,
		OverdueHandling:        "autosubmit",
		PreferredBehaviour:     "deferredfeedback",
		AttemptsNumber:         attemptsNumber(a.Settings.Attempts),
		GradeMethod:            1,
		DecimalPoints:          2,
		QuestionDecimalPoints:  -1,
		ReviewAttempt:          reviewDuring,
		ReviewCorrectness:      reviewAfterClose,
		ReviewMarks:            reviewAfterClose,
		ReviewSpecificFeedback: reviewAfterClose,
		ReviewGeneralFeedback:  reviewAfterClose,
		ReviewRightAnswer:      reviewAfterClose,
		ReviewOverallFeedback:  reviewAfterClose,
		QuestionsPerPage:       5,
		NavMethod:              "free",
		TimeCreated:            now,
		TimeModified:           now,
		BrowserSecurity:        "-",
	}

	total := 0.0
	if len(a.Slots) > 0 {
		qn.QuestionInstances = &questionInstances{}
		qn.Slots = &slotList{}
		for i, s := range a.Slots {
			slot := i + 1
			mark := decimal5(s.MaxMark)
			instanceID := ids.InstanceID(slot)
			qn.QuestionInstances.Instances = append(qn.QuestionInstances.Instances, questionInstance{
				ID:         instanceID,
				Slot:       slot,
				QuestionID: s.QuestionID,
				MaxMark:    mark,
			})
			qn.Slots.Slots = append(qn.Slots.Slots, slotNode{
				ID:                 ids.SlotID(slot),
				SlotNumber:         slot,
				QuizPage:           1,
				QuestionID:         s.QuestionID,
				QuestionInstanceID: instanceID,
				MaxMark:            mark,
				MinMark:            "0.00000",
			})
			total += s.MaxMark
		}
		qn.Sections.Sections = []sectionNode{{
			ID:        ids.ActivityID,
			FirstSlot: 1,
			SlotCount: len(a.Slots),
		}}
	}
	qn.SumGrades = decimal5(total)
	qn.Grade = decimal5(total)

	doc := activityDoc{
		ID:         ids.ActivityID,
		ModuleID:   a.ModuleID,
		ModuleName: "quiz",
		ContextID:  courseContextID,
		Quiz:       qn,
	}
	out, err := Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal quiz.xml: %w", err)
	}
	return out, nil
}
