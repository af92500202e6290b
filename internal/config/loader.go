package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".origincheck"

// XDGConfigFile is the file name looked up inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the configuration file.
// Unset fields leave the corresponding Config value unchanged.
type File struct {
	Server            string        `yaml:"server,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	NarrationInterval time.Duration `yaml:"narration_interval,omitempty"`
	Proxy             string        `yaml:"proxy,omitempty"`
	UserAgent         string        `yaml:"user_agent,omitempty"`
	DataDir           string        `yaml:"data_dir,omitempty"`
	DownloadDir       string        `yaml:"download_dir,omitempty"`
	LogFormat         string        `yaml:"log_format,omitempty"`
	ReportFormat      string        `yaml:"report_format,omitempty"`

	// Verbose is a pointer so an explicit false can be told from unset.
	Verbose *bool `yaml:"verbose,omitempty"`
}

// Apply copies every set field onto cfg.
func (f *File) Apply(cfg *Config) {
	if f.Server != "" {
		cfg.ServerURL = f.Server
	}
	if f.Timeout != 0 {
		cfg.Timeout = f.Timeout
	}
	if f.NarrationInterval != 0 {
		cfg.NarrationInterval = f.NarrationInterval
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	if f.DataDir != "" {
		cfg.DataDir = expandHome(f.DataDir)
	}
	if f.DownloadDir != "" {
		cfg.DownloadDir = expandHome(f.DownloadDir)
	}
	if f.LogFormat != "" {
		cfg.LogFormat = f.LogFormat
	}
	if f.ReportFormat != "" {
		cfg.ReportFormat = f.ReportFormat
	}
	if f.Verbose != nil {
		cfg.Verbose = *f.Verbose
	}
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .origincheck in the current directory
// 3. Look for .origincheck in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
