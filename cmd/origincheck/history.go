package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/origincheck/internal/dashboard"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous analyses",
		Long: `History lists the reports stored for your account on the analysis service,
newest first.

With --local, the analyses recorded on this machine are listed instead,
including cancelled and failed ones and the location of downloaded reports.
The local journal does not need a connection to the service.

Examples:
  origincheck history
  origincheck history --json
  origincheck history --local --limit 20`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("local", "l", false, "List the local analysis journal instead")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of local entries to list (0 lists all)")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	local, err := cmd.Flags().GetBool("local")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	w, closeReport, err := openReport(cmd, a.cfg)
	if err != nil {
		return err
	}

	var writeErr error
	if local {
		records, err := a.db.ListAnalyses(cmd.Context(), limit)
		if err != nil {
			_ = closeReport()
			return fmt.Errorf("failed to read local journal: %w", err)
		}
		_, writeErr = w.WriteJournal(records)
	} else {
		if _, err := a.requireSignIn(cmd.Context(), pathHistory); err != nil {
			_ = closeReport()
			return err
		}
		reports, err := dashboard.NewLoader(a.client, a.logger).History(cmd.Context())
		if err != nil {
			_ = closeReport()
			return fmt.Errorf("failed to load history: %w", err)
		}
		_, writeErr = w.WriteHistory(reports)
	}

	if err := errors.Join(writeErr, closeReport()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// NewDashboardCmd creates the dashboard command.
func NewDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show report statistics and recent analyses",
		Long: `Dashboard shows the number of reports on your account, the last checked
document and the most recent analyses. Statistics and history are fetched
concurrently.`,
		Args: cobra.NoArgs,
		RunE: runDashboardCmd,
	}

	addReportFlags(cmd)

	return cmd
}

// runDashboardCmd executes the dashboard command.
func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.requireSignIn(cmd.Context(), pathDashboard); err != nil {
		return err
	}

	overview, err := dashboard.NewLoader(a.client, a.logger).Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}

	w, closeReport, err := openReport(cmd, a.cfg)
	if err != nil {
		return err
	}
	_, writeErr := w.WriteDashboard(overview)
	if err := errors.Join(writeErr, closeReport()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
