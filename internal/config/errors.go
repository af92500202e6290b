package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidServerURL is returned when the server URL is not an absolute
	// http or https URL.
	ErrInvalidServerURL = errors.New("invalid server URL: expected http(s)://host[:port]")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidNarrationInterval is returned when the narration interval is not positive.
	ErrInvalidNarrationInterval = errors.New("invalid narration interval: must be positive")

	// ErrInvalidProxyAddress is returned when the proxy is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrEmptyDataDir is returned when no data directory is configured.
	ErrEmptyDataDir = errors.New("data directory must not be empty")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: expected text or json")

	// ErrInvalidReportFormat is returned for an unknown report format.
	ErrInvalidReportFormat = errors.New("invalid report format: expected text, markdown or json")
)
