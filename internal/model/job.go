package model

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus is the lifecycle state of an analysis request.
type JobStatus int

const (
	// JobIdle means nothing has been submitted yet.
	JobIdle JobStatus = iota

	// JobRunning means a request is in flight and narration is active.
	JobRunning

	// JobSucceeded means the service returned a result.
	JobSucceeded

	// JobFailed means the request settled with an error other than cancellation.
	JobFailed

	// JobCancelled means the user cancelled the in-flight request.
	JobCancelled
)

// String returns the lower-case status name.
func (s JobStatus) String() string {
	switch s {
	case JobIdle:
		return "idle"
	case JobRunning:
		return "running"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	case JobCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status is a settled outcome.
func (s JobStatus) IsTerminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

// MarshalText implements encoding.TextMarshaler.
func (s JobStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *JobStatus) UnmarshalText(text []byte) error {
	status, err := ParseJobStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// ParseJobStatus converts a status name back to a JobStatus.
func ParseJobStatus(name string) (JobStatus, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "idle":
		return JobIdle, nil
	case "running":
		return JobRunning, nil
	case "succeeded":
		return JobSucceeded, nil
	case "failed":
		return JobFailed, nil
	case "cancelled", "canceled":
		return JobCancelled, nil
	default:
		return JobIdle, fmt.Errorf("unknown job status %q", name)
	}
}

// Job is a read-only snapshot of the controller's state.
type Job struct {
	// ID identifies the submission. Empty while idle.
	ID string `json:"id,omitempty"`

	// Status is the current lifecycle state.
	Status JobStatus `json:"status"`

	// Message is the human-readable progress line shown while running,
	// or the final outcome line once settled.
	Message string `json:"message"`

	// Result is set only when Status is JobSucceeded.
	Result *AnalysisResult `json:"result,omitempty"`

	// Error is the user-facing error text, if any.
	Error string `json:"error,omitempty"`

	// StartedAt is when the current submission began.
	StartedAt time.Time `json:"started_at,omitzero"`

	// FinishedAt is when the current submission settled.
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Elapsed returns how long the job ran, or has been running as of now.
func (j Job) Elapsed(now time.Time) time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if j.FinishedAt.IsZero() {
		return now.Sub(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
