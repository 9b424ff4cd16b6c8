package rbac

const (
	RoleAdmin   = "admin"
	RoleProctor = "proctor"
)

const (
	PermQuestionsRead   = "questions:read"
	PermQuestionsWrite  = "questions:write"
	PermQuestionsImport = "questions:import"
	PermResultsRead     = "results:read"
	PermResultsWrite    = "results:write"
	PermResultsExport   = "results:export"
	PermSettingsWrite   = "settings:write"
	PermSyncRun         = "sync:run"
	PermBackupExport    = "backup:export"
	PermBackupImport    = "backup:import"
	PermAssetsUpload    = "assets:upload"
	PermEventsRead      = "events:read"
)

// RolePermissions is the default policy. A proctor watches a running exam
// but cannot change the bank or the scores.
var RolePermissions = map[string][]string{
	RoleProctor: {
		PermQuestionsRead,
		PermResultsRead,
		PermResultsExport,
		PermEventsRead,
	},
	RoleAdmin: {
		"*", // everything
	},
}
