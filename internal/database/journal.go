package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/origincheck/internal/model"
)

// AnalysisRecord is one journal entry for a submitted analysis.
type AnalysisRecord struct {
	// ID is the row identifier.
	ID int64 `json:"id"`

	// JobID is the controller's uuid for the submission.
	JobID string `json:"job_id"`

	// Server is the service root the job was sent to.
	Server string `json:"server"`

	// Source is the main file name, or "Text Input" for pasted text.
	Source string `json:"source"`

	// Status is the settled (or running) job status.
	Status model.JobStatus `json:"status"`

	// Originality and AIProbability are nil when unknown.
	Originality   *float64 `json:"originality"`
	AIProbability *float64 `json:"ai_probability"`

	// CitationCount is the number of parsed overlap sources.
	CitationCount int `json:"citation_count"`

	// Error is the user-facing error text of a failed or cancelled job.
	Error string `json:"error,omitempty"`

	// ReportPath is the server-side PDF path returned by the analysis.
	ReportPath string `json:"report_path,omitempty"`

	// DownloadedPath is where the report was saved locally, if downloaded.
	DownloadedPath string `json:"downloaded_path,omitempty"`

	// ReportDigest is the hex SHA3-256 of the downloaded report.
	ReportDigest string `json:"report_digest,omitempty"`

	// ReportPages is the page count of the downloaded report, 0 if unknown.
	ReportPages int `json:"report_pages,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// RecordAnalysis inserts or updates the journal entry for rec.JobID.
// Download fields are left untouched on update.
func (sdb *StateDB) RecordAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	query := `
	INSERT INTO analyses (job_id, server, source, status, originality, ai_probability,
		citation_count, error, report_path, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(job_id) DO UPDATE SET
		status = excluded.status,
		originality = excluded.originality,
		ai_probability = excluded.ai_probability,
		citation_count = excluded.citation_count,
		error = excluded.error,
		report_path = excluded.report_path,
		finished_at = excluded.finished_at
	`

	_, err := sdb.db.ExecContext(ctx, query,
		rec.JobID,
		rec.Server,
		rec.Source,
		rec.Status.String(),
		nullFloat(rec.Originality),
		nullFloat(rec.AIProbability),
		rec.CitationCount,
		rec.Error,
		rec.ReportPath,
		formatTime(rec.StartedAt),
		formatTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis: %w", err)
	}
	return nil
}

// MarkDownloaded records where the report of reportPath was saved.
// reportPath may be the full server path or its base name. Every journal
// entry referring to the same server-side report is updated.
// It returns ErrAnalysisNotFound when no entry refers to it, which happens
// for reports downloaded from the server-side history.
func (sdb *StateDB) MarkDownloaded(ctx context.Context, reportPath, savedPath, digest string, pages int) error {
	query := `
	UPDATE analyses
	SET downloaded_path = ?, report_digest = ?, report_pages = ?
	WHERE report_path = ? OR report_path LIKE ? OR report_path LIKE ?
	`

	result, err := sdb.db.ExecContext(ctx, query, savedPath, digest, pages, reportPath, "%/"+reportPath, `%\`+reportPath)
	if err != nil {
		return fmt.Errorf("failed to mark download: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark download: %w", err)
	}
	if n == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// GetAnalysis returns the journal entry for jobID.
func (sdb *StateDB) GetAnalysis(ctx context.Context, jobID string) (*AnalysisRecord, error) {
	row := sdb.db.QueryRowContext(ctx, selectAnalyses+` WHERE job_id = ?`, jobID)
	rec, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	return rec, err
}

// ListAnalyses returns journal entries, newest first.
// A non-positive limit returns every entry.
func (sdb *StateDB) ListAnalyses(ctx context.Context, limit int) ([]*AnalysisRecord, error) {
	query := selectAnalyses + ` ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	records := make([]*AnalysisRecord, 0)
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// selectAnalyses is the shared column list for scanAnalysis.
const selectAnalyses = `
	SELECT id, job_id, server, source, status, originality, ai_probability,
		citation_count, error, report_path, downloaded_path, report_digest,
		report_pages, started_at, finished_at
	FROM analyses`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAnalysis reads one row selected by selectAnalyses.
func scanAnalysis(row rowScanner) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	var status, started, finished string
	var originality, aiProbability sql.NullFloat64

	err := row.Scan(
		&rec.ID,
		&rec.JobID,
		&rec.Server,
		&rec.Source,
		&status,
		&originality,
		&aiProbability,
		&rec.CitationCount,
		&rec.Error,
		&rec.ReportPath,
		&rec.DownloadedPath,
		&rec.ReportDigest,
		&rec.ReportPages,
		&started,
		&finished,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	if rec.Status, err = model.ParseJobStatus(status); err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}
	if originality.Valid {
		v := originality.Float64
		rec.Originality = &v
	}
	if aiProbability.Valid {
		v := aiProbability.Float64
		rec.AIProbability = &v
	}
	rec.StartedAt = parseTime(started)
	rec.FinishedAt = parseTime(finished)

	return &rec, nil
}

// nullFloat maps a nil pointer to SQL NULL.
func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
