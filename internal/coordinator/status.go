package coordinator

// Status is a session's lifecycle state. Completed and Failed are terminal;
// no transition leaves them.
type Status string

const (
	StatusPlanning  Status = "planning"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status admits no further transitions
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// validTransition encodes the monotonic session lifecycle
func validTransition(from, to Status) bool {
	switch from {
	case StatusPlanning:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}
