package moodle

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	moodleVersion = "2024100705"
	moodleRelease = "4.5.5 (Build: 20250609)"
	backupVersion = "2024100700"
	backupRelease = "4.5"
)

// ModuleRef names one activity in the manifest.
type ModuleRef struct {
	ModuleID int64
	Title    string
}

func (m ModuleRef) key() string { return "quiz_" + itoa(m.ModuleID) }

// Directory is the archive folder holding the activity's files.
func (m ModuleRef) Directory() string { return "activities/" + m.key() }

type backupDoc struct {
	XMLName     xml.Name    `xml:"moodle_backup"`
	Information information `xml:"information"`
}

type information struct {
	Name                       string `xml:"name"`
	MoodleVersion              string `xml:"moodle_version"`
	MoodleRelease              string `xml:"moodle_release"`
	BackupVersion              string `xml:"backup_version"`
	BackupRelease              string `xml:"backup_release"`
	BackupDate                 int64  `xml:"backup_date"`
	MnetRemoteUsers            int    `xml:"mnet_remoteusers"`
	IncludeFiles               int    `xml:"include_files"`
	IncludeExternalFileRefs    int    `xml:"include_file_references_to_external_content"`
	OriginalWWWRoot            string `xml:"original_wwwroot"`
	OriginalSiteIdentifierHash string `xml:"original_site_identifier_hash"`
	OriginalCourseID           int    `xml:"original_course_id"`
	OriginalCourseFormat       string `xml:"original_course_format"`
	OriginalCourseFullName     string `xml:"original_course_fullname"`
	OriginalCourseShortName    string `xml:"original_course_shortname"`
	OriginalCourseStartDate    int64  `xml:"original_course_startdate"`
	OriginalCourseEndDate      int64  `xml:"original_course_enddate"`
	OriginalCourseContextID    int    `xml:"original_course_contextid"`
	OriginalSystemContextID    int    `xml:"original_system_contextid"`

	Details  []backupDetail     `xml:"details>detail"`
	Contents []manifestActivity `xml:"contents>activities>activity"`
	Settings []backupSetting    `xml:"settings>setting"`
}

type backupDetail struct {
	BackupID      string `xml:"backup_id,attr"`
	Type          string `xml:"type"`
	Format        string `xml:"format"`
	Interactive   int    `xml:"interactive"`
	Mode          int    `xml:"mode"`
	Execution     int    `xml:"execution"`
	ExecutionTime int    `xml:"executiontime"`
}

type manifestActivity struct {
	ModuleID     int64  `xml:"moduleid"`
	SectionID    string `xml:"sectionid"`
	ModuleName   string `xml:"modulename"`
	Title        string `xml:"title"`
	Directory    string `xml:"directory"`
	InSubsection string `xml:"insubsection"`
}

type backupSetting struct {
	Level    string `xml:"level"`
	Activity string `xml:"activity,omitempty"`
	Name     string `xml:"name"`
	Value    string `xml:"value"`
}

// rootSettings in manifest order; all off except the activity count and the
// question bank.
var rootSettings = []string{
	"filename", "users", "anonymize", "role_assignments", "activities", "blocks",
	"filters", "comments", "badges", "calendarevents", "userscompletion", "logs",
	"grade_histories", "files", "legacyfiles", "questionbank", "groups",
	"competencies", "customfield", "contentbankcontent", "xapistate",
}

// ArchiveName is the file name Moodle itself would give this backup.
func ArchiveName(modules int, at time.Time) string {
	return fmt.Sprintf("backup-moodle2-activities-%d-%s.mbz", modules, at.Format("20060102-1504"))
}

// backupID is stable for a given module and backup time.
func backupID(m ModuleRef, at time.Time) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(m.key()+"@"+strconv.FormatInt(at.Unix(), 10)))
	return strings.ReplaceAll(id.String(), "-", "")
}

// BuildManifest renders moodle_backup.xml listing every module.
func (b *Builder) BuildManifest(modules []ModuleRef) ([]byte, error) {
	return b.buildManifest(modules, b.now())
}

func (b *Builder) buildManifest(modules []ModuleRef, at time.Time) ([]byte, error) {
	if len(modules) == 0 {
		return nil, ErrNoModules
	}
	name := ArchiveName(len(modules), at)
	info := information{
		Name:                       name,
		MoodleVersion:              moodleVersion,
		MoodleRelease:              moodleRelease,
		BackupVersion:              backupVersion,
		BackupRelease:              backupRelease,
		BackupDate:                 at.Unix(),
		OriginalWWWRoot:            b.wwwRoot(),
		OriginalSiteIdentifierHash: "generated",
		OriginalCourseID:           1,
		OriginalCourseFormat:       "topics",
		OriginalCourseFullName:     "Generated by ExamLab",
		OriginalCourseShortName:    "EXAMLAB",
		OriginalCourseContextID:    courseContextID,
		OriginalSystemContextID:    1,
	}

	for _, m := range modules {
		title := m.Title
		if title == "" {
			title = "Quiz"
		}
		info.Details = append(info.Details, backupDetail{
			BackupID:    backupID(m, at),
			Type:        "activity",
			Format:      "moodle2",
			Interactive: 1,
			Mode:        10,
			Execution:   1,
		})
		info.Contents = append(info.Contents, manifestActivity{
			ModuleID:   m.ModuleID,
			SectionID:  null,
			ModuleName: "quiz",
			Title:      title,
			Directory:  m.Directory(),
		})
	}

	for _, s := range rootSettings {
		value := "0"
		switch s {
		case "filename":
			value = name
		case "activities":
			value = strconv.Itoa(len(modules))
		case "questionbank":
			value = "1"
		}
		info.Settings = append(info.Settings, backupSetting{Level: "root", Name: s, Value: value})
	}
	for _, m := range modules {
		key := m.key()
		info.Settings = append(info.Settings,
			backupSetting{Level: "activity", Activity: key, Name: key + "_included", Value: "1"},
			backupSetting{Level: "activity", Activity: key, Name: key + "_userinfo", Value: "0"},
		)
	}

	out, err := Marshal(backupDoc{Information: info})
	if err != nil {
		return nil, fmt.Errorf("marshal moodle_backup.xml: %w", err)
	}
	return out, nil
}
