package models

// JobStatus represents the lifecycle state of a watch job
type JobStatus string

const (
	JobStatusUnset   JobStatus = ""        // Zero value = unset/unknown
	JobStatusRunning JobStatus = "running" // Watcher active, regenerating on change
	JobStatusStopped JobStatus = "stopped" // Stopped by request
	JobStatusFailed  JobStatus = "failed"  // Watcher terminated on its own
)

// String implements fmt.Stringer for logging
func (s JobStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsTerminal returns true once the job can no longer regenerate output
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusStopped, JobStatusFailed:
		return true
	}
	return false
}
