package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/nao1215/origincheck/internal/model"
)

// DownloadReport streams the PDF report stored under filename.
// Only the bare file name is sent; callers strip any directory part.
// The caller must close the returned body.
func (c *Client) DownloadReport(ctx context.Context, filename string) (io.ReadCloser, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	if filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) {
		return nil, ErrInvalidFilename
	}

	req, err := c.newRequest(ctx, http.MethodGet, nil, "download-report", filename)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// DashboardStats returns the account's report count and latest report.
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "api", "dashboard_stats")
	if err != nil {
		return nil, err
	}

	var stats model.DashboardStats
	if err := c.doJSON(req, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// History returns all reports of the account, newest first as sent by the server.
func (c *Client) History(ctx context.Context) ([]model.ReportSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "api", "history")
	if err != nil {
		return nil, err
	}

	var reports []model.ReportSummary
	if err := c.doJSON(req, &reports); err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []model.ReportSummary{}
	}
	return reports, nil
}
