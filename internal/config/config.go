package config

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "origincheck"

	// DefaultServerURL is where the analysis service listens in a local setup.
	DefaultServerURL = "http://127.0.0.1:5000"

	// DefaultTimeout bounds a single request. Analysis runs synchronously on
	// the server and searches the web, so it is generous.
	DefaultTimeout = 10 * time.Minute

	// DefaultNarrationInterval is how often the progress message advances.
	DefaultNarrationInterval = 2 * time.Second

	// DefaultDownloadDir is where PDF reports are saved.
	DefaultDownloadDir = "."

	// DefaultUserAgent identifies origincheck in HTTP requests.
	DefaultUserAgent = "origincheck/1.0 (+https://github.com/nao1215/origincheck)"

	// EnvServerURL overrides the server URL from the configuration file.
	EnvServerURL = "ORIGINCHECK_SERVER"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Report formats.
const (
	ReportFormatText     = "text"
	ReportFormatMarkdown = "markdown"
	ReportFormatJSON     = "json"
)

// Config holds all configuration options for origincheck.
// It is populated from defaults, the configuration file, the environment and
// CLI flags, in increasing order of precedence.
type Config struct {
	// ServerURL is the root of the analysis service, e.g. http://127.0.0.1:5000.
	ServerURL string

	// Timeout bounds each HTTP request, including the synchronous analysis.
	Timeout time.Duration

	// NarrationInterval is how often the progress message advances while an
	// analysis is running.
	NarrationInterval time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// DataDir holds the state database (session cookies and the local
	// analysis journal). Defaults to the XDG data directory.
	DataDir string

	// DownloadDir is where downloaded PDF reports are saved.
	DownloadDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFormat is "text" or "json".
	LogFormat string

	// ReportFormat is "text", "markdown" or "json".
	ReportFormat string

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file as well as stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ServerURL:         DefaultServerURL,
		Timeout:           DefaultTimeout,
		NarrationInterval: DefaultNarrationInterval,
		UserAgent:         DefaultUserAgent,
		DataDir:           XDGDataDir(),
		DownloadDir:       DefaultDownloadDir,
		LogFormat:         LogFormatText,
		ReportFormat:      ReportFormatText,
	}
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		c.ServerURL = v
	}
}

// XDGDataDir returns the XDG data directory for origincheck.
// On Linux: ~/.local/share/origincheck
// On macOS: ~/Library/Application Support/origincheck
// On Windows: %LOCALAPPDATA%\origincheck
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for origincheck.
// On Linux: ~/.config/origincheck
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// SessionLockPath is the advisory lock serialising session changes across
// processes.
func (c *Config) SessionLockPath() string {
	return filepath.Join(c.DataDir, "session.lock")
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidServerURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.NarrationInterval <= 0 {
		return ErrInvalidNarrationInterval
	}

	if c.ProxyAddress != "" && !validHostPort(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}

	if c.DataDir == "" {
		return ErrEmptyDataDir
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return ErrInvalidLogFormat
	}

	switch c.ReportFormat {
	case ReportFormatText, ReportFormatMarkdown, ReportFormatJSON:
	default:
		return ErrInvalidReportFormat
	}

	return nil
}

// validHostPort reports whether addr is "host:port" with a port in 1..65535.
func validHostPort(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}
