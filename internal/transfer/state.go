package transfer

// Phase is the position of a file transfer in its lifecycle.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseResuming   Phase = "resuming"
	PhaseRestarting Phase = "restarting"
	PhaseStreaming  Phase = "streaming"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
)

// Mode records how a file was brought up to date. It is reported as a metric
// label and kept in the download history.
type Mode string

const (
	ModeSkipped   Mode = "skipped"
	ModeFresh     Mode = "fresh"
	ModeResumed   Mode = "resumed"
	ModeRestarted Mode = "restarted"
)

// State is owned by a single transfer and never shared.
type State struct {
	Path     string
	Size     int64
	Existing int64
	Written  int64
	Phase    Phase
	Mode     Mode
}

// Result describes a finished transfer, successful or not.
type Result struct {
	Path    string
	Size    int64
	Written int64
	Mode    Mode
}
