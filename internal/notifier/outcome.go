package notifier

import "fmt"

// Outcome is the result of one download command.
type Outcome struct {
	RepoID string
	// File is set for single-file downloads.
	File string
	Dir  string
	// Failed and Total are set when only some files of a model failed.
	Failed int
	Total  int
	Err    error
}

// Message renders the outcome as a single chat line.
func (o Outcome) Message() string {
	switch {
	case o.Err == nil && o.File == "":
		return fmt.Sprintf("Model %s downloaded to %s", o.RepoID, o.Dir)
	case o.Err == nil:
		return fmt.Sprintf("File %s of %s downloaded to %s", o.File, o.RepoID, o.Dir)
	case o.Failed > 0:
		return fmt.Sprintf("Download of %s finished with %d failed file(s) out of %d", o.RepoID, o.Failed, o.Total)
	case o.File != "":
		return fmt.Sprintf("Download of %s from %s failed: %v", o.File, o.RepoID, o.Err)
	default:
		return fmt.Sprintf("Download of %s failed: %v", o.RepoID, o.Err)
	}
}
