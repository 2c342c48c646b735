package moodle

import "encoding/xml"

type rolesDoc struct {
	XMLName         xml.Name `xml:"roles"`
	RoleOverrides   struct{} `xml:"role_overrides"`
	RoleAssignments struct{} `xml:"role_assignments"`
}

type gradesDoc struct {
	XMLName      xml.Name `xml:"grades"`
	GradeItems   struct{} `xml:"grade_items"`
	GradeGrades  struct{} `xml:"grade_grades"`
	GradeLetters struct{} `xml:"grade_letters"`
}

// topLevelStubs are the course-level files restore expects even when empty.
var topLevelStubs = []string{"roles", "users", "outcomes", "groups", "scales", "files", "completion", "badges"}

func activityRolesXML() ([]byte, error)  { return Marshal(rolesDoc{}) }
func activityGradesXML() ([]byte, error) { return Marshal(gradesDoc{}) }
