package models

import "time"

// Outcome of the main execution phase of one test
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// OutcomeFromFailed maps a test framework failure flag to an Outcome
func OutcomeFromFailed(failed bool) Outcome {
	if failed {
		return OutcomeFailed
	}
	return OutcomePassed
}

// TestResult is one row of the run report
type TestResult struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Outcome    Outcome       `json:"outcome"`
	SessionID  string        `json:"sessionId,omitempty"`
	Duration   time.Duration `json:"duration"`
	Screenshot string        `json:"screenshot,omitempty"`
	Notes      []string      `json:"notes,omitempty"`
	FinishedAt time.Time     `json:"finishedAt"`
}
