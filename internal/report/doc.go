// Package report renders analysis results, report history and the
// dashboard overview.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text with box tables for the terminal
//   - MarkdownWriter: Markdown for sharing and documentation
//   - JSONWriter: structured JSON for scripts
//
// All writers implement the Writer interface and can be combined with
// MultiWriter, for example to print to the terminal and save a file at once.
package report
