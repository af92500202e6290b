package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/origincheck/internal/api"
	"github.com/nao1215/origincheck/internal/job"
	"github.com/nao1215/origincheck/internal/model"
	"github.com/nao1215/origincheck/internal/report"
	"github.com/spf13/cobra"
)

// NewAnalyseCmd creates the analyse command.
func NewAnalyseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyse",
		Aliases: []string{"analyze"},
		Short:   "Analyse a document for originality and AI authorship",
		Long: `Analyse submits text or a document to the analysis service and waits for
the result. Progress messages are printed to stderr while the service works;
press Ctrl-C to cancel.

The main input is required: give --text, --file, or both. A comparison text
or file is optional and is checked for overlap with the main input.

Supported files are .pdf, .docx and .txt up to 50 MiB. Other files are
submitted anyway, with a warning.

Examples:
  # Analyse a PDF and download the report
  origincheck analyse --file essay.pdf --download

  # Analyse pasted text against a reference document
  origincheck analyse --text "$(cat draft.txt)" --compare-file source.docx

  # Write a Markdown report to a file as well
  origincheck analyse --file essay.docx --markdown -o reports/essay.md`,
		Args: cobra.NoArgs,
		RunE: runAnalyseCmd,
	}

	cmd.Flags().StringP("text", "t", "", "Main text to analyse")
	cmd.Flags().StringP("file", "f", "", "Main document to analyse (.pdf, .docx, .txt)")
	cmd.Flags().String("compare-text", "", "Optional comparison text")
	cmd.Flags().String("compare-file", "", "Optional comparison document")
	cmd.Flags().BoolP("download", "d", false, "Download the PDF report when the analysis succeeds")
	cmd.Flags().String("dir", "", "Directory for the downloaded report (default: download_dir from config)")
	addReportFlags(cmd)

	return cmd
}

// analyseFlags reads the input flags.
func analyseFlags(cmd *cobra.Command) (job.Input, error) {
	var in job.Input
	var err error
	if in.MainText, err = cmd.Flags().GetString("text"); err != nil {
		return in, err
	}
	if in.MainFile, err = cmd.Flags().GetString("file"); err != nil {
		return in, err
	}
	if in.ComparisonText, err = cmd.Flags().GetString("compare-text"); err != nil {
		return in, err
	}
	if in.ComparisonFile, err = cmd.Flags().GetString("compare-file"); err != nil {
		return in, err
	}
	return in, nil
}

// runAnalyseCmd executes the analyse command.
func runAnalyseCmd(cmd *cobra.Command, _ []string) error {
	in, err := analyseFlags(cmd)
	if err != nil {
		return err
	}
	download, err := cmd.Flags().GetBool("download")
	if err != nil {
		return err
	}
	if !in.HasMain() {
		return &job.ValidationError{Field: api.FieldMainText, Err: job.ErrNoPrimaryInput}
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	destDir, err := downloadDir(cmd, a)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if _, err := a.requireSignIn(ctx, pathAnalyse); err != nil {
		return err
	}

	ctrl := a.newController()
	settled, err := submit(ctx, ctrl, in)
	if err != nil {
		return err
	}

	view := report.NewResultView(in.Source(), settled)
	var downloadErr error
	if download && settled.Status == model.JobSucceeded {
		view.SavedReport, downloadErr = ctrl.Download(ctx, settled.Result.PDFReportPath, destDir)
	}

	w, closeReport, err := openReport(cmd, a.cfg)
	if err != nil {
		return err
	}
	_, writeErr := w.WriteResult(view)
	if err := errors.Join(writeErr, closeReport()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if settled.Status == model.JobFailed || settled.Status == model.JobCancelled {
		return errors.New(settled.Error)
	}
	return downloadErr
}

// newController returns a job controller that narrates on stderr and records
// every submission in the local journal.
func (a *app) newController() *job.Controller {
	return job.NewController(a.client,
		job.WithLogger(a.logger),
		job.WithNarrationInterval(a.cfg.NarrationInterval),
		job.WithObserver(newNarrator(a.errOut).observe),
		job.WithJournal(a.db, a.cfg.ServerURL),
	)
}

// submit runs the analysis and returns the settled job. SIGINT and SIGTERM
// cancel ctx, which cancels the in-flight job.
func submit(ctx context.Context, ctrl *job.Controller, in job.Input) (model.Job, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ctrl.Cancel()
		case <-done:
		}
	}()

	if err := ctrl.Submit(ctx, in); err != nil {
		return model.Job{}, err
	}
	return ctrl.Snapshot(), nil
}
