package job

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// MaxUploadSize is the size above which an upload is flagged.
const MaxUploadSize = 50 * 1024 * 1024

// supportedExtensions are the document types the service extracts text from.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// FileHint is an advisory note about an upload. Hints never block a submission.
type FileHint struct {
	Path   string
	Reason string
}

// CheckFile returns hints for the upload at path. A missing file yields no
// hint; Analyse reports it.
func CheckFile(path string) []FileHint {
	if path == "" {
		return nil
	}

	var hints []FileHint
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		hints = append(hints, FileHint{
			Path:   path,
			Reason: "unsupported file type " + quoteExt(ext) + " (expected .pdf, .docx or .txt)",
		})
	}

	if info, err := os.Stat(path); err == nil && info.Size() > MaxUploadSize {
		hints = append(hints, FileHint{
			Path: path,
			Reason: "file is " + humanize.IBytes(uint64(info.Size())) + //nolint:gosec // Size is non-negative
				", larger than " + humanize.IBytes(MaxUploadSize),
		})
	}
	return hints
}

func quoteExt(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return ext
}

// hintFiles logs a warning for every hint on the input's files.
func (c *Controller) hintFiles(in Input) {
	for _, path := range []string{in.MainFile, in.ComparisonFile} {
		for _, h := range CheckFile(path) {
			c.logger.Warn("upload may be rejected",
				slog.String("file", h.Path),
				slog.String("reason", h.Reason))
		}
	}
}
