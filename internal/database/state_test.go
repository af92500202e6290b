package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/origincheck/internal/api"
	"github.com/nao1215/origincheck/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *StateDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if err := db.SaveCookie(context.Background(), "http://x", api.StoredCookie{Name: "session", Value: "v"}); err != nil {
			t.Fatalf("SaveCookie() error = %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		cookies, err := db.LoadCookies(context.Background(), "http://x")
		if err != nil {
			t.Fatalf("LoadCookies() error = %v", err)
		}
		if len(cookies) != 1 {
			t.Errorf("got %d cookies after reopen, want 1", len(cookies))
		}
	})
}

func TestCookies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const server = "http://127.0.0.1:5000"

	t.Run("save replaces by name", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		expires := time.Unix(1_900_000_000, 0)

		if err := db.SaveCookie(ctx, server, api.StoredCookie{Name: "session", Value: "old"}); err != nil {
			t.Fatalf("SaveCookie() error = %v", err)
		}
		if err := db.SaveCookie(ctx, server, api.StoredCookie{Name: "session", Value: "new", Path: "/api", Expires: expires}); err != nil {
			t.Fatalf("SaveCookie() error = %v", err)
		}

		got, err := db.LoadCookies(ctx, server)
		if err != nil {
			t.Fatalf("LoadCookies() error = %v", err)
		}
		want := []api.StoredCookie{{Name: "session", Value: "new", Path: "/api", Expires: expires}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("LoadCookies() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("servers are isolated", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := db.SaveCookie(ctx, server, api.StoredCookie{Name: "session", Value: "a"}); err != nil {
			t.Fatalf("SaveCookie() error = %v", err)
		}

		got, err := db.LoadCookies(ctx, "https://other.example")
		if err != nil {
			t.Fatalf("LoadCookies() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d cookies for other server, want 0", len(got))
		}
	})

	t.Run("delete and clear", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		for _, name := range []string{"a", "b", "c"} {
			if err := db.SaveCookie(ctx, server, api.StoredCookie{Name: name, Value: "v"}); err != nil {
				t.Fatalf("SaveCookie() error = %v", err)
			}
		}

		if err := db.DeleteCookie(ctx, server, "b"); err != nil {
			t.Fatalf("DeleteCookie() error = %v", err)
		}
		got, _ := db.LoadCookies(ctx, server)
		if len(got) != 2 || got[0].Name != "a" || got[1].Name != "c" {
			t.Errorf("after delete got %+v", got)
		}

		if err := db.ClearCookies(ctx, server); err != nil {
			t.Fatalf("ClearCookies() error = %v", err)
		}
		got, _ = db.LoadCookies(ctx, server)
		if len(got) != 0 {
			t.Errorf("after clear got %d cookies", len(got))
		}
	})
}

func TestAnalysisJournal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	score := 87.5
	ai := 12.0
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("record then update keeps download fields", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		rec := &AnalysisRecord{
			JobID:     "job-1",
			Server:    "http://127.0.0.1:5000",
			Source:    "essay.pdf",
			Status:    model.JobRunning,
			StartedAt: start,
		}
		if err := db.RecordAnalysis(ctx, rec); err != nil {
			t.Fatalf("RecordAnalysis() error = %v", err)
		}

		rec.Status = model.JobSucceeded
		rec.Originality = &score
		rec.AIProbability = &ai
		rec.CitationCount = 2
		rec.ReportPath = "reports/plagiarism_report_1.pdf"
		rec.FinishedAt = start.Add(time.Minute)
		if err := db.RecordAnalysis(ctx, rec); err != nil {
			t.Fatalf("RecordAnalysis() update error = %v", err)
		}

		if err := db.MarkDownloaded(ctx, "plagiarism_report_1.pdf", "/tmp/plagiarism_report.pdf", "abcd", 3); err != nil {
			t.Fatalf("MarkDownloaded() error = %v", err)
		}

		got, err := db.GetAnalysis(ctx, "job-1")
		if err != nil {
			t.Fatalf("GetAnalysis() error = %v", err)
		}
		if got.Status != model.JobSucceeded {
			t.Errorf("Status = %v, want succeeded", got.Status)
		}
		if got.Originality == nil || *got.Originality != score {
			t.Errorf("Originality = %v, want %v", got.Originality, score)
		}
		if got.DownloadedPath != "/tmp/plagiarism_report.pdf" || got.ReportDigest != "abcd" || got.ReportPages != 3 {
			t.Errorf("download fields = %q %q %d", got.DownloadedPath, got.ReportDigest, got.ReportPages)
		}
		if !got.StartedAt.Equal(start) || !got.FinishedAt.Equal(start.Add(time.Minute)) {
			t.Errorf("times = %v %v", got.StartedAt, got.FinishedAt)
		}
	})

	t.Run("windows report path", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		rec := &AnalysisRecord{
			JobID:      "job-w",
			Server:     "http://127.0.0.1:5000",
			Status:     model.JobSucceeded,
			ReportPath: `C:\reports\plagiarism_report_9.pdf`,
			StartedAt:  start,
		}
		if err := db.RecordAnalysis(ctx, rec); err != nil {
			t.Fatalf("RecordAnalysis() error = %v", err)
		}
		if err := db.MarkDownloaded(ctx, "plagiarism_report_9.pdf", "/tmp/r.pdf", "ff", 1); err != nil {
			t.Fatalf("MarkDownloaded() error = %v", err)
		}
	})

	t.Run("missing entries", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if _, err := db.GetAnalysis(ctx, "nope"); !errors.Is(err, ErrAnalysisNotFound) {
			t.Errorf("GetAnalysis() error = %v, want ErrAnalysisNotFound", err)
		}
		if err := db.MarkDownloaded(ctx, "nope.pdf", "x", "", 0); !errors.Is(err, ErrAnalysisNotFound) {
			t.Errorf("MarkDownloaded() error = %v, want ErrAnalysisNotFound", err)
		}
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		for i, id := range []string{"a", "b", "c"} {
			rec := &AnalysisRecord{
				JobID:     id,
				Server:    "s",
				Source:    "Text Input",
				Status:    model.JobFailed,
				Error:     "boom",
				StartedAt: start.Add(time.Duration(i) * time.Hour),
			}
			if err := db.RecordAnalysis(ctx, rec); err != nil {
				t.Fatalf("RecordAnalysis() error = %v", err)
			}
		}

		all, err := db.ListAnalyses(ctx, 0)
		if err != nil {
			t.Fatalf("ListAnalyses() error = %v", err)
		}
		var ids []string
		for _, r := range all {
			ids = append(ids, r.JobID)
		}
		if diff := cmp.Diff([]string{"c", "b", "a"}, ids); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
		if all[0].Originality != nil {
			t.Error("Originality should be nil when not recorded")
		}

		limited, err := db.ListAnalyses(ctx, 2)
		if err != nil {
			t.Fatalf("ListAnalyses() error = %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("got %d entries, want 2", len(limited))
		}
	})
}
