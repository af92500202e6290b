package job

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/crypto/sha3"

	svcapi "github.com/nao1215/origincheck/internal/api"
	"github.com/nao1215/origincheck/internal/database"
	"github.com/nao1215/origincheck/internal/model"
)

// ReportFileName is the local name every downloaded report is saved under.
const ReportFileName = "plagiarism_report.pdf"

// pdfConfigOnce keeps pdfcpu from creating its config directory.
var pdfConfigOnce sync.Once

// ReportBaseName returns the last element of a server-side report path.
// Both forward and back slashes are treated as separators.
func ReportBaseName(reportPath string) string {
	i := strings.LastIndexAny(reportPath, `/\`)
	return reportPath[i+1:]
}

// Download fetches the report at reportPath into destDir and returns the
// saved file path. Failures are also recorded in the job error.
// A path without a file name, such as "reports/" or "uploads/..", counts as
// no report.
func (c *Controller) Download(ctx context.Context, reportPath, destDir string) (string, error) {
	name := ReportBaseName(strings.TrimSpace(reportPath))
	if name == "" || name == "." || name == ".." {
		c.logger.Warn("no report path available to download", slog.String("report", reportPath))
		c.setError(ErrNoReport.Error())
		return "", ErrNoReport
	}

	body, err := c.submitter.DownloadReport(ctx, name)
	if err != nil {
		derr := &DownloadError{Message: downloadMessage(err), Err: err}
		c.logger.Error("failed to download report",
			slog.String("report", name),
			slog.String("error", err.Error()))
		c.setError(derr.Message)
		return "", derr
	}
	defer body.Close()

	saved, digest, size, err := saveReport(body, destDir)
	if err != nil {
		derr := &DownloadError{Message: MsgDownloadFallback, Err: err}
		c.logger.Error("failed to save report", slog.String("error", err.Error()))
		c.setError(derr.Message)
		return "", derr
	}

	pages := countPages(saved)
	c.logger.Info("report downloaded",
		slog.String("path", saved),
		slog.String("size", humanize.IBytes(uint64(size))), //nolint:gosec // Size is non-negative
		slog.Int("pages", pages))

	if c.journal != nil {
		err := c.journal.MarkDownloaded(context.WithoutCancel(ctx), name, saved, digest, pages)
		if err != nil && !errors.Is(err, database.ErrAnalysisNotFound) {
			c.logger.Warn("failed to record download", slog.String("error", err.Error()))
		}
	}
	return saved, nil
}

// downloadMessage maps a download error to the text shown to users.
func downloadMessage(err error) string {
	if errors.Is(err, svcapi.ErrUnauthorized) {
		return MsgDownloadAuth
	}
	var apiErr *svcapi.Error
	if errors.As(err, &apiErr) {
		return MsgDownloadFailed + apiErr.StatusText()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgDownloadFallback
}

// saveReport streams r into destDir/ReportFileName through a temporary file,
// so a failed transfer never leaves a truncated report behind.
// It returns the final path, the hex SHA3-256 digest and the byte count.
func saveReport(r io.Reader, destDir string) (string, string, int64, error) {
	if destDir == "" {
		destDir = "."
	}
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return "", "", 0, fmt.Errorf("failed to create download directory: %w", err)
	}

	tmp, err := os.CreateTemp(destDir, ".plagiarism_report-*.pdf")
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) //nolint:errcheck // Gone after a successful rename
	}()

	hash := sha3.New256()
	size, err := io.Copy(io.MultiWriter(tmp, hash), r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to write report: %w", err)
	}

	dest := filepath.Join(destDir, ReportFileName)
	if err := os.Rename(tmpName, dest); err != nil {
		return "", "", 0, fmt.Errorf("failed to move report into place: %w", err)
	}
	return dest, hex.EncodeToString(hash.Sum(nil)), size, nil
}

// countPages returns the page count of the PDF at path, or 0 when it cannot
// be read as a PDF.
func countPages(path string) (pages int) {
	pdfConfigOnce.Do(api.DisableConfigDir)
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()

	f, err := os.Open(path) //nolint:gosec // Path was just written by saveReport
	if err != nil {
		return 0
	}
	defer f.Close()

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	n, err := api.PageCount(f, conf)
	if err != nil {
		return 0
	}
	return n
}

// setError records msg as the job error without changing its status.
func (c *Controller) setError(msg string) {
	c.mu.Lock()
	id := c.job.ID
	c.mu.Unlock()

	c.update(id, func(j *model.Job) {
		j.Error = msg
	})
}
