package job

import "errors"

// User-facing messages stored in the job state.
const (
	MsgInitializing   = "Initializing analysis..."
	MsgComplete       = "Analysis complete."
	MsgCancelled      = "Analysis cancelled."
	MsgCancelledError = "Analysis cancelled by user."
	MsgFailed         = "Analysis failed!"
	MsgAuthRequired   = "Authentication required. Please log in."
	MsgUnexpected     = "An unexpected error occurred during analysis."

	MsgDownloadAuth     = "Authentication required to download report."
	MsgDownloadFailed   = "Failed to download PDF: "
	MsgDownloadFallback = "Failed to download PDF report."
)

var (
	// ErrNoPrimaryInput is returned when neither main text nor main file is set.
	ErrNoPrimaryInput = errors.New("Please provide main text or upload a main file for analysis.") //nolint:staticcheck // Shown to users verbatim

	// ErrJobRunning is returned by Submit while another request is in flight.
	ErrJobRunning = errors.New("an analysis is already running")

	// ErrNoReport is returned by Download when there is no report path.
	ErrNoReport = errors.New("No PDF report available for download.") //nolint:staticcheck // Shown to users verbatim
)

// ValidationError reports input rejected before any request was made.
type ValidationError struct {
	Field string
	Err   error
}

// Error implements error.
func (e *ValidationError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DownloadError is a failed report download. Message is the text shown to
// the user and Err the cause.
type DownloadError struct {
	Message string
	Err     error
}

// Error implements error.
func (e *DownloadError) Error() string {
	return e.Message
}

// Unwrap returns the cause.
func (e *DownloadError) Unwrap() error {
	return e.Err
}
