package moodle

import (
	"github.com/examlab/examlab/internal/quiz"
)

// Moodle's internal qtype names.
const (
	qtypeMultiChoice = "multichoice"
	qtypeTrueFalse   = "truefalse"
	qtypeShortAnswer = "shortanswer"
	qtypeEssay       = "essay"
	qtypeMultiAnswer = "multianswer"
)

// QType maps a record to the qtype stored in questions.xml. Unknown types
// fall back to shortanswer.
func QType(q quiz.Question) string {
	switch q.Kind() {
	case quiz.TypeMultipleChoice:
		return qtypeMultiChoice
	case quiz.TypeTrueFalse:
		return qtypeTrueFalse
	case quiz.TypeEssay:
		return qtypeEssay
	case quiz.TypeCloze:
		return qtypeMultiAnswer
	default:
		return qtypeShortAnswer
	}
}

type answerNode struct {
	ID             int64  `xml:"id,attr"`
	AnswerText     string `xml:"answertext"`
	AnswerFormat   int    `xml:"answerformat"`
	Fraction       string `xml:"fraction"`
	Feedback       string `xml:"feedback"`
	FeedbackFormat int    `xml:"feedbackformat"`
}

type answerList struct {
	Answers []answerNode `xml:"answer"`
}

type multichoicePlugin struct {
	Answers answerList         `xml:"answers"`
	Options multichoiceOptions `xml:"multichoice"`
}

type multichoiceOptions struct {
	ID                             int64  `xml:"id,attr"`
	Layout                         int    `xml:"layout"`
	Single                         int    `xml:"single"`
	ShuffleAnswers                 int    `xml:"shuffleanswers"`
	CorrectFeedback                string `xml:"correctfeedback"`
	CorrectFeedbackFormat          int    `xml:"correctfeedbackformat"`
	PartiallyCorrectFeedback       string `xml:"partiallycorrectfeedback"`
	PartiallyCorrectFeedbackFormat int    `xml:"partiallycorrectfeedbackformat"`
	IncorrectFeedback              string `xml:"incorrectfeedback"`
	IncorrectFeedbackFormat        int    `xml:"incorrectfeedbackformat"`
	AnswerNumbering                string `xml:"answernumbering"`
	ShowNumCorrect                 int    `xml:"shownumcorrect"`
	ShowStandardInstruction        int    `xml:"showstandardinstruction"`
}

type truefalsePlugin struct {
	Answers answerList       `xml:"answers"`
	Options truefalseOptions `xml:"truefalse"`
}

type truefalseOptions struct {
	ID                      int64 `xml:"id,attr"`
	TrueAnswer              int64 `xml:"trueanswer"`
	FalseAnswer             int64 `xml:"falseanswer"`
	ShowStandardInstruction int   `xml:"showstandardinstruction"`
}

type shortanswerPlugin struct {
	Answers answerList         `xml:"answers"`
	Options shortanswerOptions `xml:"shortanswer"`
}

type shortanswerOptions struct {
	ID      int64 `xml:"id,attr"`
	UseCase int   `xml:"usecase"`
}

type essayPlugin struct {
	Options essayOptions `xml:"essay"`
}

type essayOptions struct {
	ID                     int64  `xml:"id,attr"`
	ResponseFormat         string `xml:"responseformat"`
	ResponseRequired       int    `xml:"responserequired"`
	ResponseFieldLines     int    `xml:"responsefieldlines"`
	MinWordLimit           string `xml:"minwordlimit"`
	MaxWordLimit           string `xml:"maxwordlimit"`
	Attachments            int    `xml:"attachments"`
	AttachmentsRequired    int    `xml:"attachmentsrequired"`
	GraderInfo             string `xml:"graderinfo"`
	GraderInfoFormat       int    `xml:"graderinfoformat"`
	ResponseTemplate       string `xml:"responsetemplate"`
	ResponseTemplateFormat int    `xml:"responsetemplateformat"`
	MaxBytes               int    `xml:"maxbytes"`
	FileTypesList          string `xml:"filetypeslist"`
}

// encodePayload attaches the type-specific plugin block to qn. Missing
// optional fields encode as empty values; nothing here fails.
func encodePayload(qn *questionNode, q quiz.Question, ids *Allocator) {
	switch qn.QType {
	case qtypeMultiChoice:
		qn.MultiChoice = encodeMultiChoice(q, ids)
	case qtypeTrueFalse:
		qn.TrueFalse = encodeTrueFalse(q, ids)
	case qtypeShortAnswer:
		qn.ShortAnswer = encodeShortAnswer(q, ids)
	case qtypeEssay:
		qn.Essay = encodeEssay(ids)
	case qtypeMultiAnswer:
		// answers live in the question text markup
	}
}

func encodeMultiChoice(q quiz.Question, ids *Allocator) *multichoicePlugin {
	p := &multichoicePlugin{}
	marked := 0
	for i, opt := range q.Options {
		right := q.IsCorrect(i + 1)
		if right {
			marked++
		}
		p.Answers.Answers = append(p.Answers.Answers, answerNode{
			ID:             ids.Next(NSAnswer),
			AnswerText:     opt,
			AnswerFormat:   1,
			Fraction:       fraction(right),
			FeedbackFormat: 1,
		})
	}
	// repeated positions in Correct count once
	single := 0
	if marked <= 1 {
		single = 1
	}
	p.Options = multichoiceOptions{
		ID:                             ids.Next(NSPlugin),
		Single:                         single,
		ShuffleAnswers:                 1,
		CorrectFeedback:                "Your answer is correct.",
		CorrectFeedbackFormat:          1,
		PartiallyCorrectFeedback:       "Your answer is partially correct.",
		PartiallyCorrectFeedbackFormat: 1,
		IncorrectFeedback:              "Your answer is incorrect.",
		IncorrectFeedbackFormat:        1,
		AnswerNumbering:                "abc",
	}
	return p
}

func encodeTrueFalse(q quiz.Question, ids *Allocator) *truefalsePlugin {
	wantTrue := q.TrueIsCorrect()
	trueID, falseID := ids.Next(NSAnswer), ids.Next(NSAnswer)
	return &truefalsePlugin{
		Answers: answerList{Answers: []answerNode{
			{ID: trueID, AnswerText: "True", Fraction: fraction(wantTrue), FeedbackFormat: 1},
			{ID: falseID, AnswerText: "False", Fraction: fraction(!wantTrue), FeedbackFormat: 1},
		}},
		Options: truefalseOptions{
			ID:          ids.Next(NSPlugin),
			TrueAnswer:  trueID,
			FalseAnswer: falseID,
		},
	}
}

func encodeShortAnswer(q quiz.Question, ids *Allocator) *shortanswerPlugin {
	return &shortanswerPlugin{
		Answers: answerList{Answers: []answerNode{{
			ID:             ids.Next(NSAnswer),
			AnswerText:     q.CorrectAnswer,
			Fraction:       fraction(true),
			FeedbackFormat: 1,
		}}},
		Options: shortanswerOptions{ID: ids.Next(NSPlugin)},
	}
}

func encodeEssay(ids *Allocator) *essayPlugin {
	return &essayPlugin{Options: essayOptions{
		ID:                     ids.Next(NSPlugin),
		ResponseFormat:         "editor",
		ResponseRequired:       1,
		ResponseFieldLines:     15,
		MinWordLimit:           null,
		MaxWordLimit:           null,
		GraderInfoFormat:       1,
		ResponseTemplateFormat: 1,
	}}
}
