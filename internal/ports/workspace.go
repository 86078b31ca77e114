package ports

// Workspace provisions isolated run directories.
type Workspace interface {
	// NewRunDirectory returns a directory that is empty except for case
	// data and fixtures, and exclusive to the requesting run.
	NewRunDirectory(version, caseDir string, fixtures []string) (string, error)
}
