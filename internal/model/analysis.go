package model

import "strconv"

// AnalysisResult is the response body of a successful analysis.
type AnalysisResult struct {
	// Originality is the percentage (0-100) of content judged original.
	// Nil when the service could not compute it.
	Originality *float64 `json:"originality"`

	// AIProbability is the percentage (0-100) likelihood of AI authorship.
	AIProbability *float64 `json:"aiProbability"`

	// Citations holds raw overlap strings in the "[F<int>/C<decimal>] <url>"
	// wire format, or the single sentinel "No overlaps.".
	Citations []string `json:"citations"`

	// PDFReportPath is the server-side path of the generated PDF report.
	PDFReportPath string `json:"pdfReportPath"`
}

// HasReport reports whether a downloadable PDF report was produced.
func (r *AnalysisResult) HasReport() bool {
	return r != nil && r.PDFReportPath != ""
}

// Citation is one parsed overlap source.
type Citation struct {
	// Fuzz is the fuzzy-match score. Meaningful only when Matched is true.
	Fuzz int `json:"fuzz"`

	// Cosine is the cosine-similarity score. Meaningful only when Matched is true.
	Cosine float64 `json:"cosine"`

	// URL is the overlapping source, or the raw string when Matched is false.
	URL string `json:"url"`

	// Matched is false when the raw string did not follow the wire format.
	Matched bool `json:"matched"`
}

// FuzzText returns the fuzz score for display, or "N/A".
func (c Citation) FuzzText() string {
	if !c.Matched {
		return NotAvailable
	}
	return strconv.Itoa(c.Fuzz)
}

// CosineText returns the cosine score for display, or "N/A".
func (c Citation) CosineText() string {
	if !c.Matched {
		return NotAvailable
	}
	return strconv.FormatFloat(c.Cosine, 'f', -1, 64)
}

// NotAvailable is displayed in place of missing scores.
const NotAvailable = "N/A"

// FormatPercent renders an optional percentage with one decimal, or "N/A".
func FormatPercent(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + "%"
}
