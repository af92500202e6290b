package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/origincheck/internal/citation"
	"github.com/nao1215/origincheck/internal/dashboard"
	"github.com/nao1215/origincheck/internal/database"
	"github.com/nao1215/origincheck/internal/model"
)

// Format names an output format.
type Format string

const (
	// FormatText is the terminal format.
	FormatText Format = "text"

	// FormatMarkdown is the Markdown format.
	FormatMarkdown Format = "markdown"

	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format (expected text, markdown or json)")

// ParseFormat converts a format name, accepting "md" for Markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// New returns a Writer for format that writes to output.
func New(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Writer defines the interface for report output.
type Writer interface {
	// WriteResult outputs the outcome of one analysis.
	WriteResult(result *ResultView) (int, error)

	// WriteHistory outputs the account's report history.
	WriteHistory(reports []model.ReportSummary) (int, error)

	// WriteDashboard outputs the dashboard overview.
	WriteDashboard(overview *dashboard.Overview) (int, error)

	// WriteJournal outputs the local analysis journal.
	WriteJournal(records []*database.AnalysisRecord) (int, error)
}

// ResultView is a settled job prepared for display.
type ResultView struct {
	// Source names the analysed input.
	Source string `json:"source"`

	// Job is the settled job snapshot.
	Job model.Job `json:"job"`

	// Citations are the parsed overlap sources. Empty means no overlaps.
	Citations []model.Citation `json:"citations"`

	// SavedReport is the local path of the downloaded PDF, if any.
	SavedReport string `json:"saved_report,omitempty"`
}

// NewResultView parses the job's citations for display.
func NewResultView(source string, job model.Job) *ResultView {
	v := &ResultView{Source: source, Job: job, Citations: []model.Citation{}}
	if job.Result != nil {
		v.Citations = citation.Parse(job.Result.Citations)
	}
	return v
}

// MultiWriter writes to multiple Writers in turn. It stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteResult implements Writer.
func (m *MultiWriter) WriteResult(result *ResultView) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteResult(result) })
}

// WriteHistory implements Writer.
func (m *MultiWriter) WriteHistory(reports []model.ReportSummary) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(reports) })
}

// WriteDashboard implements Writer.
func (m *MultiWriter) WriteDashboard(overview *dashboard.Overview) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteDashboard(overview) })
}

// WriteJournal implements Writer.
func (m *MultiWriter) WriteJournal(records []*database.AnalysisRecord) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteJournal(records) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
