package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <report>",
		Short: "Download a PDF report",
		Long: `Download saves a PDF report generated by the analysis service.

The argument is either the report path printed by 'origincheck analyse' or the
PDF file name listed by 'origincheck history'. Only the file name is sent to
the service. The report is saved as plagiarism_report.pdf in the download
directory.

Examples:
  origincheck download /srv/reports/plagiarism_report_1a2b.pdf
  origincheck download plagiarism_report_1a2b.pdf --dir ~/Downloads`,
		Args: cobra.ExactArgs(1),
		RunE: runDownloadCmd,
	}

	cmd.Flags().String("dir", "", "Directory for the downloaded report (default: download_dir from config)")

	return cmd
}

// runDownloadCmd executes the download command.
func runDownloadCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	destDir, err := downloadDir(cmd, a)
	if err != nil {
		return err
	}

	if _, err := a.requireSignIn(cmd.Context(), pathAnalyse); err != nil {
		return err
	}

	saved, err := a.newController().Download(cmd.Context(), args[0], destDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved report to %s\n", saved)
	return nil
}

// downloadDir returns --dir, or the configured download directory.
func downloadDir(cmd *cobra.Command, a *app) (string, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = a.cfg.DownloadDir
	}
	return dir, nil
}
