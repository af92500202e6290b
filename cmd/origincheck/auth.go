package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/origincheck/internal/guard"
	"github.com/nao1215/origincheck/internal/model"
	"github.com/spf13/cobra"
)

// defaultCaptchaFile is where the captcha command saves the challenge image.
const defaultCaptchaFile = "captcha.png"

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the analysis service",
		Long: `Login signs in with your e-mail address and password.

If the service asks for a captcha, fetch the challenge image first with
'origincheck captcha' and pass the text you read with --captcha.

Examples:
  origincheck captcha -o captcha.png
  origincheck login --email ada@example.com --password secret --captcha X7K2P`,
		Args: cobra.NoArgs,
		RunE: runLoginCmd,
	}

	cmd.Flags().StringP("email", "e", "", "Account e-mail address")
	cmd.Flags().StringP("password", "p", "", "Account password")
	cmd.Flags().String("captcha", "", "Answer to the captcha challenge")

	return cmd
}

// runLoginCmd executes the login command.
func runLoginCmd(cmd *cobra.Command, _ []string) error {
	email, err := cmd.Flags().GetString("email")
	if err != nil {
		return err
	}
	password, err := cmd.Flags().GetString("password")
	if err != nil {
		return err
	}
	captcha, err := cmd.Flags().GetString("captcha")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.authenticate(cmd, func() error {
		res := a.session.Login(cmd.Context(), email, password, captcha)
		if !res.Success {
			return errors.New(res.Error)
		}
		return nil
	})
}

// NewRegisterCmd creates the register command.
func NewRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Register creates a new account on the analysis service and signs it in.

Examples:
  origincheck captcha
  origincheck register --name Ada --email ada@example.com --password secret --captcha X7K2P`,
		Args: cobra.NoArgs,
		RunE: runRegisterCmd,
	}

	cmd.Flags().StringP("name", "n", "", "Display name")
	cmd.Flags().StringP("email", "e", "", "Account e-mail address")
	cmd.Flags().StringP("password", "p", "", "Account password")
	cmd.Flags().String("captcha", "", "Answer to the captcha challenge")

	return cmd
}

// runRegisterCmd executes the register command.
func runRegisterCmd(cmd *cobra.Command, _ []string) error {
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	email, err := cmd.Flags().GetString("email")
	if err != nil {
		return err
	}
	password, err := cmd.Flags().GetString("password")
	if err != nil {
		return err
	}
	captcha, err := cmd.Flags().GetString("captcha")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.authenticate(cmd, func() error {
		res := a.session.Register(cmd.Context(), email, password, name, captcha)
		if !res.Success {
			return errors.New(res.Error)
		}
		return nil
	})
}

// authenticate runs signIn on the sign-in view under the session lock.
// A user who is already signed in is told so and nothing is sent.
func (a *app) authenticate(cmd *cobra.Command, signIn func() error) error {
	return a.withSessionLock(cmd.Context(), func() error {
		snap, decision := a.enter(cmd.Context(), pathAuth)
		if decision.Kind == guard.RedirectDefault {
			fmt.Fprintf(a.out, "Already signed in as %s\n", describeUser(snap.User))
			return nil
		}

		if err := signIn(); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Signed in as %s\n", describeUser(a.session.Snapshot().User))
		return nil
	})
}

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Long: `Logout ends the session on the service and removes the stored session
cookies. The local session is cleared even if the service cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: runLogoutCmd,
	}
}

// runLogoutCmd executes the logout command.
func runLogoutCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.withSessionLock(cmd.Context(), func() error {
		a.session.Logout(cmd.Context())
		if err := a.jar.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear stored session: %w", err)
		}
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	})
}

// NewWhoamiCmd creates the whoami command.
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE:  runWhoamiCmd,
	}
}

// runWhoamiCmd executes the whoami command.
func runWhoamiCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireSignIn(cmd.Context(), pathProfile)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Name:   %s\n", user.DisplayName())
	fmt.Fprintf(a.out, "E-mail: %s\n", user.Email)
	fmt.Fprintf(a.out, "Server: %s\n", a.client.BaseURL())

	// The profile still prints when the statistics are unavailable.
	stats, err := a.client.DashboardStats(cmd.Context())
	if err != nil {
		a.logger.Warn("failed to load dashboard stats", slog.String("error", err.Error()))
		fmt.Fprintln(a.out, "Reports: unavailable")
		return nil
	}
	fmt.Fprintf(a.out, "Reports: %d\n", stats.TotalReports)
	fmt.Fprintf(a.out, "Last:   %s\n", describeReport(stats.LastCheckedDocument))
	return nil
}

// describeReport formats the last checked document for whoami.
func describeReport(r *model.ReportSummary) string {
	if r == nil || r.FileName == "" {
		return "none"
	}
	if r.SubmissionDate.IsZero() {
		return r.FileName
	}
	return fmt.Sprintf("%s (%s)", r.FileName, r.SubmissionDate.UTC().Format("2006-01-02 15:04 MST"))
}

// NewCaptchaCmd creates the captcha command.
func NewCaptchaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captcha",
		Short: "Fetch a captcha challenge image",
		Long: `Captcha downloads a new challenge image for login and register.

The challenge is bound to the stored session, so run login or register from
the same machine afterwards and pass the text shown in the image with --captcha.`,
		Args: cobra.NoArgs,
		RunE: runCaptchaCmd,
	}

	cmd.Flags().StringP("output", "o", defaultCaptchaFile, "Output file path for the image")

	return cmd
}

// runCaptchaCmd executes the captcha command.
func runCaptchaCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.withSessionLock(cmd.Context(), func() error {
		snap, decision := a.enter(cmd.Context(), pathAuth)
		if decision.Kind == guard.RedirectDefault {
			fmt.Fprintf(a.out, "Already signed in as %s\n", describeUser(snap.User))
			return nil
		}

		captcha, err := a.client.Captcha(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch captcha: %w", err)
		}

		dir := filepath.Dir(outputPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
		if err := os.WriteFile(outputPath, captcha.Image, 0600); err != nil {
			return fmt.Errorf("failed to write captcha image: %w", err)
		}

		fmt.Fprintf(a.out, "Saved captcha to %s\n", outputPath)
		fmt.Fprintln(a.out, "Pass the text shown in the image with --captcha.")
		return nil
	})
}

// describeUser renders "Name <email>", or just the e-mail address.
func describeUser(u *model.User) string {
	if u == nil {
		return "unknown user"
	}
	if u.Name == "" || u.Name == u.Email {
		return u.Email
	}
	return fmt.Sprintf("%s <%s>", u.Name, u.Email)
}
