package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/origincheck/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for origincheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "origincheck",
		Short: "Check documents for originality and AI authorship",
		Long: `origincheck is a command-line client for a document originality service.

It signs in to the service, submits text or documents (.pdf, .docx, .txt) for
analysis, reports the originality score, AI probability and overlapping
sources, and downloads the generated PDF report.

The session is kept in the local state database, so you only need to sign in
once per machine.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .origincheck in current or home directory)")
	cmd.PersistentFlags().StringP("server", "s", "",
		"Analysis service URL (default: "+config.DefaultServerURL+")")
	cmd.PersistentFlags().String("proxy", "",
		"Route requests through a SOCKS5 proxy at host:port")
	cmd.PersistentFlags().Duration("timeout", 0,
		"Request timeout, including the analysis itself (default 10m)")
	cmd.PersistentFlags().String("data-dir", "",
		"Directory for the session and journal database (default: XDG data directory)")
	cmd.PersistentFlags().String("log-format", "",
		"Log format: text or json")

	// Add subcommands
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewLogoutCmd())
	cmd.AddCommand(NewWhoamiCmd())
	cmd.AddCommand(NewCaptchaCmd())
	cmd.AddCommand(NewAnalyseCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewDashboardCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
