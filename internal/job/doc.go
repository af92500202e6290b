// Package job runs one analysis request at a time and tracks its lifecycle.
//
// A Controller moves through Idle, Running and one of Succeeded, Failed or
// Cancelled. While a request is in flight a narration goroutine rotates the
// status message on a fixed interval. The goroutine is stopped before the
// terminal state is published, so observers never see a narration message
// after the outcome.
//
// Submit only returns an error for input validation or when a request is
// already running. Every other outcome is reported through the job state.
package job
