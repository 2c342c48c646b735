package moodle

import (
	"encoding/xml"
	"fmt"
	"time"
)

// moduleVersion is the quiz plugin version of the Moodle release we target.
const moduleVersion = 2024100700

// Module is the input of BuildModule. InstanceID 0 leaves <instance> out.
type Module struct {
	ModuleID            int64
	Name                string
	SectionNumber       int
	Visible             bool
	VisibleOnCoursePage bool
	InstanceID          int64
	ShowDescription     bool
}

type moduleDoc struct {
	XMLName                   xml.Name `xml:"module"`
	ID                        int64    `xml:"id,attr"`
	Version                   int      `xml:"version,attr"`
	ModuleName                string   `xml:"modulename"`
	Name                      string   `xml:"name"`
	SectionID                 string   `xml:"sectionid"`
	SectionNumber             int      `xml:"sectionnumber"`
	Instance                  int64    `xml:"instance,omitempty"`
	IDNumber                  string   `xml:"idnumber"`
	Added                     int64    `xml:"added"`
	Score                     int      `xml:"score"`
	Indent                    int      `xml:"indent"`
	Visible                   int      `xml:"visible"`
	VisibleOnCoursePage       int      `xml:"visibleoncoursepage"`
	VisibleOld                int      `xml:"visibleold"`
	GroupMode                 int      `xml:"groupmode"`
	GroupingID                int      `xml:"groupingid"`
	Completion                int      `xml:"completion"`
	CompletionGradeItemNumber string   `xml:"completiongradeitemnumber"`
	CompletionPassGrade       int      `xml:"completionpassgrade"`
	CompletionView            int      `xml:"completionview"`
	CompletionExpected        int      `xml:"completionexpected"`
	Availability              string   `xml:"availability"`
	ShowDescription           int      `xml:"showdescription"`
	DownloadContent           int      `xml:"downloadcontent"`
	Lang                      string   `xml:"lang"`
	Outcomes                  struct{} `xml:"plugin_outcomesupport_mod_module"`
	Tags                      struct{} `xml:"tags"`
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// BuildModule renders module.xml. The section id is left for the importer
// to resolve.
func (b *Builder) BuildModule(m Module) ([]byte, error) {
	return b.buildModule(m, b.now())
}

func (b *Builder) buildModule(m Module, at time.Time) ([]byte, error) {
	name := m.Name
	if name == "" {
		name = "Quiz"
	}
	doc := moduleDoc{
		ID:                        m.ModuleID,
		Version:                   moduleVersion,
		ModuleName:                "quiz",
		Name:                      name,
		SectionID:                 null,
		SectionNumber:             m.SectionNumber,
		Instance:                  m.InstanceID,
		Added:                     at.Unix(),
		Visible:                   boolInt(m.Visible),
		VisibleOnCoursePage:       boolInt(m.VisibleOnCoursePage),
		VisibleOld:                boolInt(m.Visible),
		CompletionGradeItemNumber: null,
		Availability:              null,
		ShowDescription:           boolInt(m.ShowDescription),
		DownloadContent:           1,
	}
	out, err := Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal module.xml: %w", err)
	}
	return out, nil
}
