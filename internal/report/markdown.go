package report

import (
	"io"
	"math"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/origincheck/internal/dashboard"
	"github.com/nao1215/origincheck/internal/database"
	"github.com/nao1215/origincheck/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteResult outputs the analysis outcome in Markdown format.
func (w *MarkdownWriter) WriteResult(result *ResultView) (int, error) {
	md := markdown.NewMarkdown(w.output)
	job := result.Job

	md.H1("Originality Report")
	md.PlainText("")

	rows := [][]string{
		{"Source", "`" + orNA(result.Source) + "`"},
		{"Status", w.statusText(job)},
		{"Submitted", formatDate(job.StartedAt)},
	}
	if job.Result != nil {
		rows = append(rows,
			[]string{"Originality", model.FormatPercent(job.Result.Originality)},
			[]string{"AI Probability", model.FormatPercent(job.Result.AIProbability)},
		)
		if job.Result.HasReport() {
			rows = append(rows, []string{"PDF Report", "`" + job.Result.PDFReportPath + "`"})
		}
	}
	if result.SavedReport != "" {
		rows = append(rows, []string{"Saved To", "`" + result.SavedReport + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch job.Status {
	case model.JobSucceeded:
		w.writeScoreChart(md, job.Result)
		w.writeCitations(md, result.Citations)
	case model.JobCancelled:
		md.Note(orNA(job.Error))
		md.PlainText("")
	default:
		md.Cautionf("Analysis failed: %s", orNA(job.Error))
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// statusText returns the status with a marker emoji.
func (w *MarkdownWriter) statusText(job model.Job) string {
	switch job.Status {
	case model.JobSucceeded:
		return "✅ " + statusLabel(job.Status)
	case model.JobCancelled:
		return "⚠️ " + statusLabel(job.Status)
	default:
		return "❌ " + statusLabel(job.Status)
	}
}

// writeScoreChart writes a mermaid pie chart of original vs overlapping text.
func (w *MarkdownWriter) writeScoreChart(md *markdown.Markdown, result *model.AnalysisResult) {
	if result == nil || result.Originality == nil {
		return
	}
	original := math.Max(0, math.Min(100, math.Round(*result.Originality)))

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Originality"),
		piechart.WithShowData(true),
	)
	chart.LabelAndIntValue("Original", uint64(original))
	if overlap := 100 - original; overlap > 0 {
		chart.LabelAndIntValue("Overlapping", uint64(overlap))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeCitations writes the overlap sources table.
func (w *MarkdownWriter) writeCitations(md *markdown.Markdown, citations []model.Citation) {
	md.H2("Overlapping Sources")
	md.PlainText("")

	if len(citations) == 0 {
		md.Tip("No overlapping sources found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(citations))
	for i, c := range citations {
		rows = append(rows, []string{itoa(i + 1), c.FuzzText(), c.CosineText(), c.URL})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Fuzz", "Cosine", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteHistory outputs the report history in Markdown format.
func (w *MarkdownWriter) WriteHistory(reports []model.ReportSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Report History")
	md.PlainText("")
	if len(reports) == 0 {
		md.Note("No reports yet.")
		md.PlainText("")
	} else {
		w.writeHistoryTable(md, reports)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHistoryTable(md *markdown.Markdown, reports []model.ReportSummary) {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			orNA(r.FileName),
			formatDate(r.SubmissionDate.Time),
			percent(r.OriginalityScore),
			percent(r.AIProbability),
			orNA(r.PDFFileName),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Document", "Submitted", "Originality", "AI Probability", "PDF"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteDashboard outputs the overview in Markdown format.
func (w *MarkdownWriter) WriteDashboard(overview *dashboard.Overview) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Dashboard")
	md.PlainText("")

	rows := [][]string{{"Total Reports", itoa(overview.Stats.TotalReports)}}
	if avg, ok := overview.AverageOriginality(); ok {
		rows = append(rows, []string{"Average Originality", percent(avg)})
	}
	md.Table(markdown.TableSet{Header: []string{"Metric", "Value"}, Rows: rows})
	md.PlainText("")

	md.H2("Last Checked Document")
	md.PlainText("")
	if last := overview.Stats.LastCheckedDocument; last != nil {
		w.writeHistoryTable(md, []model.ReportSummary{*last})
	} else {
		md.Note("No documents checked yet.")
		md.PlainText("")
	}

	if len(overview.History) > 0 {
		md.H2("Recent Reports")
		md.PlainText("")
		recent := overview.History
		if len(recent) > recentLimit {
			recent = recent[:recentLimit]
		}
		w.writeHistoryTable(md, recent)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteJournal outputs the local journal in Markdown format.
func (w *MarkdownWriter) WriteJournal(records []*database.AnalysisRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Local Analyses")
	md.PlainText("")
	if len(records) == 0 {
		md.Note("No analyses have been run from this machine.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Source,
			formatDate(r.StartedAt),
			statusLabel(r.Status),
			model.FormatPercent(r.Originality),
			model.FormatPercent(r.AIProbability),
			itoa(r.CitationCount),
			orNA(r.ReportDigest),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Started", "Status", "Originality", "AI Probability", "Sources", "SHA3-256"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeFooter writes the generator line.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("*Generated by [origincheck](https://github.com/nao1215/origincheck)*")
}
