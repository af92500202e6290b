package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/origincheck/internal/config"
	"github.com/nao1215/origincheck/internal/report"
	"github.com/spf13/cobra"
)

// addReportFlags registers the output format flags shared by report commands.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Also write the report to the specified file path (creates directories if needed)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
}

// reportFormat resolves the output format from flags, then the configuration.
func reportFormat(cmd *cobra.Command, cfg *config.Config) (report.Format, error) {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return "", err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return "", err
	}

	switch {
	case asJSON:
		return report.FormatJSON, nil
	case asMarkdown:
		return report.FormatMarkdown, nil
	default:
		return report.ParseFormat(cfg.ReportFormat)
	}
}

// openReport returns a writer for stdout and, with --output, the report file.
// The returned close func must be called when writing is done.
func openReport(cmd *cobra.Command, cfg *config.Config) (report.Writer, func() error, error) {
	format, err := reportFormat(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}
	if outputPath == "" {
		outputPath = cfg.ReportFile
	}

	stdout, err := report.New(format, cmd.OutOrStdout())
	if err != nil {
		return nil, nil, err
	}
	if outputPath == "" {
		return stdout, func() error { return nil }, nil
	}

	f, err := createReportFile(outputPath)
	if err != nil {
		return nil, nil, err
	}
	file, err := report.New(format, f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return report.NewMultiWriter(stdout, file), f.Close, nil
}

// createReportFile creates or truncates path with owner-only permissions.
// Reports name the analysed documents and should not be world-readable.
func createReportFile(path string) (io.WriteCloser, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-selected output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
