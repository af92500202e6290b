package model

import "testing"

// TestFormatPercent tests percentage display with one decimal.
func TestFormatPercent(t *testing.T) {
	t.Parallel()

	pct := func(v float64) *float64 { return &v }

	testCases := []struct {
		input    *float64
		expected string
	}{
		{nil, "N/A"},
		{pct(0), "0.0%"},
		{pct(72.5), "72.5%"},
		{pct(100), "100.0%"},
		{pct(33.333), "33.3%"},
	}
	for _, tc := range testCases {
		if got := FormatPercent(tc.input); got != tc.expected {
			t.Errorf("FormatPercent() = %q, expected %q", got, tc.expected)
		}
	}
}

// TestCitationText tests score rendering for matched and raw citations.
func TestCitationText(t *testing.T) {
	t.Parallel()

	matched := Citation{Fuzz: 88, Cosine: 0.91, URL: "https://example.com", Matched: true}
	if matched.FuzzText() != "88" || matched.CosineText() != "0.91" {
		t.Errorf("matched citation rendered as %q / %q", matched.FuzzText(), matched.CosineText())
	}

	raw := Citation{URL: "No overlaps."}
	if raw.FuzzText() != NotAvailable || raw.CosineText() != NotAvailable {
		t.Errorf("raw citation rendered as %q / %q", raw.FuzzText(), raw.CosineText())
	}
}

// TestHasReport tests detection of a downloadable report.
func TestHasReport(t *testing.T) {
	t.Parallel()

	var nilResult *AnalysisResult
	if nilResult.HasReport() {
		t.Error("nil result should have no report")
	}
	if (&AnalysisResult{}).HasReport() {
		t.Error("empty path should have no report")
	}
	if !(&AnalysisResult{PDFReportPath: "/tmp/r.pdf"}).HasReport() {
		t.Error("non-empty path should have a report")
	}
}
