package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/nao1215/origincheck/internal/api"
	"github.com/nao1215/origincheck/internal/config"
	"github.com/nao1215/origincheck/internal/database"
	"github.com/nao1215/origincheck/internal/guard"
	applog "github.com/nao1215/origincheck/internal/log"
	"github.com/nao1215/origincheck/internal/model"
	"github.com/nao1215/origincheck/internal/session"
	"github.com/spf13/cobra"
)

// lockRetryDelay is how often a busy session lock is retried.
const lockRetryDelay = 100 * time.Millisecond

// Virtual paths of the views, evaluated by the route guard.
const (
	pathAuth      = guard.SignInPath
	pathAnalyse   = guard.DefaultPath
	pathProfile   = "/profile"
	pathHistory   = "/history"
	pathDashboard = "/dashboard"
)

// errSignInRequired is shown when a guarded command runs while signed out.
var errSignInRequired = errors.New("sign in required: run 'origincheck login'")

// app wires the configuration, state database, API client and session store
// for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *database.StateDB
	jar     *api.PersistentJar
	client  *api.Client
	session *session.Store

	out    io.Writer
	errOut io.Writer
}

// newApp builds the app from flags, the configuration file and the environment.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.New(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogFormat)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())

	jar, err := api.NewPersistentJar(cmd.Context(), cfg.ServerURL, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	client, err := api.NewClient(cfg.ServerURL,
		api.WithCookieJar(jar),
		api.WithTimeout(cfg.Timeout),
		api.WithUserAgent(cfg.UserAgent),
		api.WithProxy(cfg.ProxyAddress),
		api.WithLogger(logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		jar:     jar,
		client:  client,
		session: session.NewStore(client, session.WithLogger(logger)),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}, nil
}

// Close releases the state database.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

// buildConfig layers defaults, the configuration file, the environment and
// flags, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was specified, silently use defaults when no file is found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("server") {
		if cfg.ServerURL, err = flags.GetString("server"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("data-dir") {
		if cfg.DataDir, err = flags.GetString("data-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("log-format") {
		if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("verbose") {
		cfg.Verbose = getVerboseFlag(cmd)
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// enter checks the session and evaluates the route guard for path.
// It returns the settled session when the view may render.
func (a *app) enter(ctx context.Context, path string) (model.Session, guard.Decision) {
	a.session.Check(ctx)
	snap := a.session.Snapshot()
	return snap, guard.Decide(guard.FromSession(snap), path)
}

// requireSignIn runs the guard for a view that needs a signed-in user.
func (a *app) requireSignIn(ctx context.Context, path string) (*model.User, error) {
	snap, decision := a.enter(ctx, path)
	switch decision.Kind {
	case guard.Render:
		return snap.User, nil
	case guard.RedirectSignIn:
		return nil, errSignInRequired
	default:
		return nil, decision.Err()
	}
}

// withSessionLock runs fn while holding the cross-process session lock, so
// two terminals cannot interleave cookie writes.
func (a *app) withSessionLock(ctx context.Context, fn func() error) error {
	lock := flock.New(a.cfg.SessionLockPath())
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to acquire session lock %s", a.cfg.SessionLockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.logger.Warn("failed to release session lock", "error", err)
		}
	}()
	return fn()
}
