package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/origincheck/internal/model"
)

// Multipart field names expected by POST /analyse.
const (
	FieldMainText       = "main_text"
	FieldMainFile       = "main_file"
	FieldComparisonText = "comparison_text"
	FieldComparisonFile = "comparison_file"
)

// ErrNoMainInput is returned when neither main text nor main file is given.
var ErrNoMainInput = errors.New("no main text or file provided for analysis")

// documentTypes maps upload extensions to the content types the service
// recognises. Anything else is sent as application/octet-stream.
var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".txt":  "text/plain",
}

// AnalysisInput is the form submitted to POST /analyse.
// File fields are local paths; they are streamed, not buffered.
type AnalysisInput struct {
	MainText       string
	MainFile       string
	ComparisonText string
	ComparisonFile string
}

// HasMain reports whether the required primary input is present.
func (in AnalysisInput) HasMain() bool {
	return in.MainText != "" || in.MainFile != ""
}

// Analyse submits the input and waits for the synchronous result.
// Cancelling ctx aborts the upload or the wait, and the returned error
// satisfies IsCanceled.
func (c *Client) Analyse(ctx context.Context, in AnalysisInput) (*model.AnalysisResult, error) {
	if !in.HasMain() {
		return nil, ErrNoMainInput
	}

	// Open files up front so a bad path fails before any bytes are sent.
	files := make(map[string]*os.File, 2)
	defer func() {
		for _, f := range files {
			_ = f.Close() //nolint:errcheck // Read-only handles
		}
	}()
	for field, path := range map[string]string{FieldMainFile: in.MainFile, FieldComparisonFile: in.ComparisonFile} {
		if path == "" {
			continue
		}
		f, err := os.Open(path) //nolint:gosec // User-selected upload path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", field, err)
		}
		files[field] = f
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeAnalysisForm(mw, in, files))
	}()
	// Unblocks the writer goroutine if the request ends before the body is consumed.
	defer pr.Close()

	req, err := c.newRequest(ctx, http.MethodPost, pr, "analyse")
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result model.AnalysisResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// writeAnalysisForm writes the present fields in a fixed order and closes mw.
func writeAnalysisForm(mw *multipart.Writer, in AnalysisInput, files map[string]*os.File) error {
	if in.MainText != "" {
		if err := mw.WriteField(FieldMainText, in.MainText); err != nil {
			return err
		}
	}
	if f, ok := files[FieldMainFile]; ok {
		if err := writeFilePart(mw, FieldMainFile, f); err != nil {
			return err
		}
	}
	if in.ComparisonText != "" {
		if err := mw.WriteField(FieldComparisonText, in.ComparisonText); err != nil {
			return err
		}
	}
	if f, ok := files[FieldComparisonFile]; ok {
		if err := writeFilePart(mw, FieldComparisonFile, f); err != nil {
			return err
		}
	}
	return mw.Close()
}

// writeFilePart streams one file with a content type derived from its extension.
func writeFilePart(mw *multipart.Writer, field string, f *os.File) error {
	name := filepath.Base(f.Name())

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": name,
	}))
	h.Set("Content-Type", DocumentContentType(name))

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

// DocumentContentType returns the upload content type for a file name.
func DocumentContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := documentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
