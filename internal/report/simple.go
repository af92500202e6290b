package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/origincheck/internal/dashboard"
	"github.com/nao1215/origincheck/internal/database"
	"github.com/nao1215/origincheck/internal/model"
)

// ruleWidth is the width of section separators.
const ruleWidth = 70

// SimpleWriter outputs human-readable text for terminal display.
type SimpleWriter struct {
	baseWriter

	// now anchors relative dates ("3 days ago").
	now func() time.Time
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithClock fixes the time used for relative dates.
func WithClock(now func() time.Time) SimpleWriterOption {
	return func(w *SimpleWriter) {
		if now != nil {
			w.now = now
		}
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteResult outputs the analysis outcome.
func (w *SimpleWriter) WriteResult(result *ResultView) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "ORIGINALITY REPORT")

	job := result.Job
	fmt.Fprintf(&sb, "Source:          %s\n", orNA(result.Source))
	switch job.Status {
	case model.JobSucceeded:
		fmt.Fprintf(&sb, "Status:          %s\n", statusLabel(job.Status))
	default:
		fmt.Fprintf(&sb, "Status:          %s - %s\n", statusLabel(job.Status), orNA(job.Error))
	}
	if !job.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "Elapsed:         %s\n", job.Elapsed(job.FinishedAt).Round(time.Second))
	}

	if job.Result != nil {
		fmt.Fprintf(&sb, "Originality:     %s\n", model.FormatPercent(job.Result.Originality))
		fmt.Fprintf(&sb, "AI Probability:  %s\n", model.FormatPercent(job.Result.AIProbability))
		if job.Result.HasReport() {
			fmt.Fprintf(&sb, "PDF Report:      %s\n", job.Result.PDFReportPath)
		}
	}
	if result.SavedReport != "" {
		fmt.Fprintf(&sb, "Saved To:        %s\n", result.SavedReport)
	}
	sb.WriteString("\n")

	if job.Status == model.JobSucceeded {
		writeSection(&sb, "OVERLAPPING SOURCES")
		if len(result.Citations) == 0 {
			sb.WriteString("  No overlapping sources found.\n\n")
		} else {
			rows := make([][]string, 0, len(result.Citations))
			for i, c := range result.Citations {
				rows = append(rows, []string{itoa(i + 1), c.FuzzText(), c.CosineText(), c.URL})
			}
			sb.WriteString(renderTable(
				[]string{"#", "Fuzz", "Cosine", "Source"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
			))
			sb.WriteString("\n\n")
		}
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs the report history as a table.
func (w *SimpleWriter) WriteHistory(reports []model.ReportSummary) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "REPORT HISTORY")
	if len(reports) == 0 {
		sb.WriteString("No reports yet. Run 'origincheck analyse' to create one.\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	sb.WriteString(w.historyTable(reports))
	fmt.Fprintf(&sb, "\n\n%s\n\n", humanize.Comma(int64(len(reports)))+" report(s)")
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) historyTable(reports []model.ReportSummary) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			orNA(r.FileName),
			w.relativeDate(r.SubmissionDate.Time),
			percent(r.OriginalityScore),
			percent(r.AIProbability),
			orNA(r.PDFFileName),
		})
	}
	return renderTable(
		[]string{"Document", "Submitted", "Originality", "AI", "PDF"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

// WriteDashboard outputs the account overview.
func (w *SimpleWriter) WriteDashboard(overview *dashboard.Overview) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "DASHBOARD")
	fmt.Fprintf(&sb, "Total Reports:        %s\n", humanize.Comma(int64(overview.Stats.TotalReports)))
	if avg, ok := overview.AverageOriginality(); ok {
		fmt.Fprintf(&sb, "Average Originality:  %s\n", percent(avg))
	}
	sb.WriteString("\n")

	writeSection(&sb, "LAST CHECKED DOCUMENT")
	if last := overview.Stats.LastCheckedDocument; last != nil {
		fmt.Fprintf(&sb, "  Document:        %s\n", orNA(last.FileName))
		fmt.Fprintf(&sb, "  Submitted:       %s\n", w.relativeDate(last.SubmissionDate.Time))
		fmt.Fprintf(&sb, "  Originality:     %s\n", percent(last.OriginalityScore))
		fmt.Fprintf(&sb, "  AI Probability:  %s\n", percent(last.AIProbability))
		fmt.Fprintf(&sb, "  PDF:             %s\n\n", orNA(last.PDFFileName))
	} else {
		sb.WriteString("  No documents checked yet.\n\n")
	}

	if len(overview.History) > 0 {
		writeSection(&sb, "RECENT REPORTS")
		recent := overview.History
		if len(recent) > recentLimit {
			recent = recent[:recentLimit]
		}
		sb.WriteString(w.historyTable(recent))
		sb.WriteString("\n\n")
	}

	return w.output.Write([]byte(sb.String()))
}

// recentLimit bounds the history shown on the dashboard.
const recentLimit = 5

// WriteJournal outputs the local analysis journal.
func (w *SimpleWriter) WriteJournal(records []*database.AnalysisRecord) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "LOCAL ANALYSES")
	if len(records) == 0 {
		sb.WriteString("No analyses have been run from this machine.\n\n")
		return w.output.Write([]byte(sb.String()))
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		status := statusLabel(r.Status)
		if r.Error != "" {
			status += ": " + r.Error
		}
		rows = append(rows, []string{
			r.Source,
			w.relativeDate(r.StartedAt),
			status,
			model.FormatPercent(r.Originality),
			model.FormatPercent(r.AIProbability),
			itoa(r.CitationCount),
			orNA(r.DownloadedPath),
		})
	}
	sb.WriteString(renderTable(
		[]string{"Source", "Started", "Status", "Originality", "AI", "Sources", "Downloaded"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	sb.WriteString("\n\n")
	return w.output.Write([]byte(sb.String()))
}

// relativeDate renders "2026-01-02 15:04 (3 days ago)".
func (w *SimpleWriter) relativeDate(t time.Time) string {
	if t.IsZero() {
		return model.NotAvailable
	}
	return formatDate(t) + " (" + humanize.RelTime(t, w.now(), "ago", "from now") + ")"
}

// writeBanner writes a boxed title.
func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	pad := (ruleWidth - len(title)) / 2
	sb.WriteString(strings.Repeat(" ", max(pad, 0)))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

// writeSection writes a section heading.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}
