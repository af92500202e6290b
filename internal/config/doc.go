// Package config provides configuration structures and utilities for origincheck.
// It defines the analysis service endpoint, transport settings, local storage
// locations and report output preferences, and loads them from the YAML
// configuration file.
package config
