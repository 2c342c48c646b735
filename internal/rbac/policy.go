package rbac

const (
	RoleViewer     = "viewer"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// Permissions used by the export service.
const (
	PermQuizCreate = "quiz:create"
	PermQuizView   = "quiz:view"
	PermQuizDelete = "quiz:delete"
	PermExportMBZ  = "export:mbz"
	PermExportXML  = "export:xml"
	PermImportXML  = "import:xml"
	PermAuditView  = "audit:view"
)

// RolePermissions is the default policy. A trailing "*" matches a prefix.
var RolePermissions = map[string][]string{
	RoleViewer: {
		PermQuizView,
		PermExportXML,
	},
	RoleInstructor: {
		"quiz:*",
		"export:*",
		PermImportXML,
		PermAuditView,
	},
	RoleAdmin: {
		"*",
	},
}
