package report

import (
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/origincheck/internal/model"
)

// dateLayout is used for every absolute date in reports.
const dateLayout = "2006-01-02 15:04"

// statusLabel title-cases a job status ("succeeded" -> "Succeeded").
func statusLabel(s model.JobStatus) string {
	return cases.Title(language.English).String(s.String())
}

// percent formats a non-optional score.
func percent(v float64) string {
	return model.FormatPercent(&v)
}

// formatDate renders t in local time, or "N/A" for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return model.NotAvailable
	}
	return t.Local().Format(dateLayout)
}

// orNA returns s, or "N/A" when s is empty.
func orNA(s string) string {
	if s == "" {
		return model.NotAvailable
	}
	return s
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
