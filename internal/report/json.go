package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/origincheck/internal/dashboard"
	"github.com/nao1215/origincheck/internal/database"
	"github.com/nao1215/origincheck/internal/model"
)

// JSONWriter outputs reports in JSON format for scripts and other tools.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteResult implements Writer.
func (w *JSONWriter) WriteResult(result *ResultView) (int, error) {
	return w.writeJSON(result)
}

// WriteHistory implements Writer. An empty history is written as [].
func (w *JSONWriter) WriteHistory(reports []model.ReportSummary) (int, error) {
	if reports == nil {
		reports = []model.ReportSummary{}
	}
	return w.writeJSON(reports)
}

// dashboardJSON is the JSON shape of a dashboard overview.
type dashboardJSON struct {
	model.DashboardStats
	AverageOriginality *float64              `json:"average_originality"`
	History            []model.ReportSummary `json:"history"`
}

// WriteDashboard implements Writer.
func (w *JSONWriter) WriteDashboard(overview *dashboard.Overview) (int, error) {
	out := dashboardJSON{
		DashboardStats: overview.Stats,
		History:        overview.History,
	}
	if out.History == nil {
		out.History = []model.ReportSummary{}
	}
	if avg, ok := overview.AverageOriginality(); ok {
		out.AverageOriginality = &avg
	}
	return w.writeJSON(out)
}

// WriteJournal implements Writer.
func (w *JSONWriter) WriteJournal(records []*database.AnalysisRecord) (int, error) {
	if records == nil {
		records = []*database.AnalysisRecord{}
	}
	return w.writeJSON(records)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}
