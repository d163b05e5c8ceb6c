package step

// Status is the terminal state of one installation step
type Status string

const (
	// StatusAlreadySatisfied means the presence check found the target
	StatusAlreadySatisfied Status = "already-satisfied"
	// StatusInstalled means the install commands ran and verification passed
	StatusInstalled Status = "installed"
	// StatusFailedFatal stops the chain
	StatusFailedFatal Status = "failed"
	// StatusFailedRecoverable is reported but lets the chain continue
	StatusFailedRecoverable Status = "failed-recoverable"
	// StatusDeclined means the operator refused a change
	StatusDeclined Status = "declined"
)

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// Label is the human phrasing used in reports
func (s Status) Label() string {
	switch s {
	case StatusAlreadySatisfied:
		return "already satisfied"
	case StatusInstalled:
		return "installed"
	case StatusFailedFatal:
		return "failed"
	case StatusFailedRecoverable:
		return "failed (continuing)"
	case StatusDeclined:
		return "declined"
	}
	return string(s)
}

// IsFatal reports whether the chain must stop
func (s Status) IsFatal() bool {
	return s == StatusFailedFatal
}

// IsFailure reports whether the step did not reach its target
func (s Status) IsFailure() bool {
	return s == StatusFailedFatal || s == StatusFailedRecoverable
}

// FailurePolicy decides how a failing step is reported
type FailurePolicy int

const (
	// Fatal failures halt the chain
	Fatal FailurePolicy = iota
	// Recoverable failures are reported and the chain continues
	Recoverable
)

func (p FailurePolicy) failedStatus() Status {
	if p == Recoverable {
		return StatusFailedRecoverable
	}
	return StatusFailedFatal
}
