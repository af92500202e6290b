package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ReportSummary is one entry of the account's analysis history.
type ReportSummary struct {
	ID               ID        `json:"_id"`
	FileName         string    `json:"file_name"`
	SubmissionDate   Timestamp `json:"submission_date"`
	OriginalityScore float64   `json:"originality_score"`
	AIProbability    float64   `json:"ai_probability"`
	PDFFileName      string    `json:"pdf_file_name,omitempty"`
}

// DashboardStats is the aggregate shown on the dashboard view.
type DashboardStats struct {
	TotalReports        int            `json:"total_reports"`
	LastCheckedDocument *ReportSummary `json:"last_checked_document"`
}

// Timestamp is a time that decodes from either RFC 3339 or the RFC 1123
// form the service emits for datetime fields ("Mon, 02 Jan 2006 15:04:05 GMT").
type Timestamp struct {
	time.Time
}

// timestampLayouts are tried in order when decoding.
var timestampLayouts = []string{
	time.RFC3339Nano,
	http.TimeFormat,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", raw)
}

// MarshalJSON implements json.Marshaler using RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
