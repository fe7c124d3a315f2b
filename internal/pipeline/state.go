package pipeline

// State is a pipeline job state.
type State int

const (
	StateIdle State = iota
	StateResolvingMetadata
	StateExtractingTimestamps
	StateAcquiring
	StateSegmenting
	StateUploading
	StateCleaningUp
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingMetadata:
		return "resolving_metadata"
	case StateExtractingTimestamps:
		return "extracting_timestamps"
	case StateAcquiring:
		return "acquiring"
	case StateSegmenting:
		return "segmenting"
	case StateUploading:
		return "uploading"
	case StateCleaningUp:
		return "cleaning_up"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a job.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
