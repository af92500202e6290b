package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/origincheck/internal/api"
	"github.com/nao1215/origincheck/internal/citation"
	"github.com/nao1215/origincheck/internal/database"
	"github.com/nao1215/origincheck/internal/model"
)

// DefaultNarrationInterval is how often the status message advances.
const DefaultNarrationInterval = 2 * time.Second

// Submitter is the analysis surface of the service. *api.Client implements it.
type Submitter interface {
	Analyse(ctx context.Context, in api.AnalysisInput) (*model.AnalysisResult, error)
	DownloadReport(ctx context.Context, filename string) (io.ReadCloser, error)
}

// Journal records submissions and downloads. *database.StateDB implements it.
type Journal interface {
	RecordAnalysis(ctx context.Context, rec *database.AnalysisRecord) error
	MarkDownloaded(ctx context.Context, reportPath, savedPath, digest string, pages int) error
}

// Input is one analysis submission. File fields are local paths.
type Input struct {
	MainText       string
	MainFile       string
	ComparisonText string
	ComparisonFile string
}

// HasMain reports whether the required primary input is present.
func (in Input) HasMain() bool {
	return in.MainText != "" || in.MainFile != ""
}

// Source names the primary input for display and the journal.
func (in Input) Source() string {
	if in.MainFile != "" {
		return ReportBaseName(in.MainFile)
	}
	return "Text Input"
}

func (in Input) request() api.AnalysisInput {
	return api.AnalysisInput{
		MainText:       in.MainText,
		MainFile:       in.MainFile,
		ComparisonText: in.ComparisonText,
		ComparisonFile: in.ComparisonFile,
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNarrationInterval sets how often the narration advances.
func WithNarrationInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithPhrases replaces the narration phrases.
func WithPhrases(phrases ...string) Option {
	return func(c *Controller) {
		c.phrases = append([]string(nil), phrases...)
	}
}

// WithObserver registers fn to receive a snapshot after every state change.
// Observers run outside the controller lock.
func WithObserver(fn func(model.Job)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithJournal records every submission and download for server in j.
func WithJournal(j Journal, server string) Option {
	return func(c *Controller) {
		c.journal = j
		c.server = server
	}
}

// Controller owns the single job record.
type Controller struct {
	submitter Submitter
	logger    *slog.Logger
	interval  time.Duration
	phrases   []string
	observers []func(model.Job)
	journal   Journal
	server    string
	now       func() time.Time

	mu     sync.Mutex
	job    model.Job
	cancel context.CancelFunc // non-nil iff job.Status == JobRunning
	source string
}

// NewController returns an idle Controller.
func NewController(submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		submitter: submitter,
		logger:    slog.New(slog.DiscardHandler),
		interval:  DefaultNarrationInterval,
		phrases:   DefaultPhrases(),
		now:       time.Now,
		job:       model.Job{Status: model.JobIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current job.
func (c *Controller) Snapshot() model.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job
}

// Running reports whether a request is in flight.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Submit runs one analysis and blocks until it settles.
// It returns a *ValidationError when there is no primary input and
// ErrJobRunning when another request is in flight. Every other outcome,
// including cancellation, returns nil and is reported in the job state.
func (c *Controller) Submit(ctx context.Context, in Input) error {
	if !in.HasMain() {
		return &ValidationError{Field: api.FieldMainText, Err: ErrNoPrimaryInput}
	}
	c.hintFiles(in)

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrJobRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.source = in.Source()
	c.job = model.Job{
		ID:        uuid.NewString(),
		Status:    model.JobRunning,
		Message:   MsgInitializing,
		StartedAt: c.now(),
	}
	started := c.job
	c.mu.Unlock()

	c.notify(started)
	c.record(ctx, started)
	c.logger.Info("analysis started",
		slog.String("job_id", started.ID),
		slog.String("source", c.source))

	result, err := c.run(runCtx, started.ID, in)
	cancel()

	settled := c.settle(started.ID, result, err)
	c.record(context.WithoutCancel(ctx), settled)
	return nil
}

// run calls the submitter with narration active. Narration is stopped
// before run returns, including when the submitter panics.
func (c *Controller) run(ctx context.Context, id string, in Input) (result *model.AnalysisResult, err error) {
	stop := c.narrate(id)
	defer stop()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("analysis panicked", slog.Any("panic", r))
			result, err = nil, errors.New(MsgUnexpected)
		}
	}()

	result, err = c.submitter.Analyse(ctx, in.request())
	if err == nil && result == nil {
		err = errors.New(MsgUnexpected)
	}
	return result, err
}

// settle publishes the terminal state for job id.
func (c *Controller) settle(id string, result *model.AnalysisResult, err error) model.Job {
	c.mu.Lock()
	c.cancel = nil
	if c.job.ID != id {
		snap := c.job
		c.mu.Unlock()
		return snap
	}

	c.job.FinishedAt = c.now()
	switch {
	case err == nil:
		c.job.Status = model.JobSucceeded
		c.job.Message = MsgComplete
		c.job.Result = result
		c.job.Error = ""
	case api.IsCanceled(err):
		c.job.Status = model.JobCancelled
		c.job.Message = MsgCancelled
		c.job.Error = MsgCancelledError
	default:
		c.job.Status = model.JobFailed
		c.job.Message = MsgFailed
		c.job.Error = failureMessage(err)
	}
	snap := c.job
	c.mu.Unlock()

	elapsed := snap.Elapsed(snap.FinishedAt)
	switch snap.Status {
	case model.JobSucceeded:
		c.logger.Info("analysis complete",
			slog.String("job_id", id),
			slog.Duration("elapsed", elapsed),
			slog.Int("citations", len(result.Citations)))
	case model.JobCancelled:
		c.logger.Info("analysis cancelled", slog.String("job_id", id))
	default:
		c.logger.Error("analysis failed",
			slog.String("job_id", id),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
	}

	c.notify(snap)
	return snap
}

// failureMessage maps a non-cancellation error to the text shown to users.
func failureMessage(err error) string {
	if errors.Is(err, api.ErrUnauthorized) {
		return MsgAuthRequired
	}
	if msg, ok := api.ServerMessage(err); ok {
		return msg
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnexpected
}

// Cancel aborts the in-flight request. It does nothing when idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	id := c.job.ID
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	c.logger.Debug("cancelling analysis", slog.String("job_id", id))
	cancel()
}

// update applies fn to the job when it is still job id, then notifies.
func (c *Controller) update(id string, fn func(*model.Job)) {
	c.mu.Lock()
	if c.job.ID != id {
		c.mu.Unlock()
		return
	}
	fn(&c.job)
	snap := c.job
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) notify(snap model.Job) {
	for _, fn := range c.observers {
		fn(snap)
	}
}

// record writes the job to the journal, if one is configured.
func (c *Controller) record(ctx context.Context, j model.Job) {
	if c.journal == nil {
		return
	}

	c.mu.Lock()
	source := c.source
	c.mu.Unlock()

	rec := &database.AnalysisRecord{
		JobID:      j.ID,
		Server:     c.server,
		Source:     source,
		Status:     j.Status,
		Error:      j.Error,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
	if j.Result != nil {
		rec.Originality = j.Result.Originality
		rec.AIProbability = j.Result.AIProbability
		rec.CitationCount = len(citation.Parse(j.Result.Citations))
		rec.ReportPath = j.Result.PDFReportPath
	}
	if err := c.journal.RecordAnalysis(ctx, rec); err != nil {
		c.logger.Warn("failed to record analysis", slog.String("job_id", j.ID), slog.String("error", err.Error()))
	}
}
