package domain

// JobStatus is the unified status of a remote job.
type JobStatus string

const (
	StatusUnknown                JobStatus = ""
	StatusInProgress             JobStatus = "InProgress"
	StatusCompleted              JobStatus = "Completed"
	StatusFailed                 JobStatus = "Failed"
	StatusFailedFullSyncRequired JobStatus = "FailedFullSyncRequired"
)

// Failed reports whether s is one of the failure states.
func (s JobStatus) Failed() bool {
	return s == StatusFailed || s == StatusFailedFullSyncRequired
}
