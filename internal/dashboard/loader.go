package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/origincheck/internal/model"
)

// Source is the reporting surface of the service. *api.Client implements it.
type Source interface {
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
	History(ctx context.Context) ([]model.ReportSummary, error)
}

// Overview is everything the dashboard view shows.
type Overview struct {
	Stats   model.DashboardStats
	History []model.ReportSummary
}

// AverageOriginality returns the mean originality over History, and false
// when there is no history.
func (o *Overview) AverageOriginality() (float64, bool) {
	if len(o.History) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range o.History {
		sum += r.OriginalityScore
	}
	return sum / float64(len(o.History)), true
}

// Loader fetches dashboard data.
type Loader struct {
	source Source
	logger *slog.Logger
}

// NewLoader returns a Loader. A nil logger discards output.
func NewLoader(source Source, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{source: source, logger: logger}
}

// Load fetches stats and history concurrently. If either request fails
// the other is cancelled and the first error is returned.
func (l *Loader) Load(ctx context.Context) (*Overview, error) {
	g, gctx := errgroup.WithContext(ctx)

	var stats *model.DashboardStats
	var history []model.ReportSummary

	g.Go(func() error {
		s, err := l.source.DashboardStats(gctx)
		if err != nil {
			return fmt.Errorf("failed to load dashboard stats: %w", err)
		}
		stats = s
		return nil
	})
	g.Go(func() error {
		h, err := l.source.History(gctx)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		history = h
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	o := &Overview{History: SortNewestFirst(history)}
	if stats != nil {
		o.Stats = *stats
	}
	l.logger.Debug("dashboard loaded",
		slog.Int("total_reports", o.Stats.TotalReports),
		slog.Int("history", len(o.History)))
	return o, nil
}

// History fetches only the report history, newest first.
func (l *Loader) History(ctx context.Context) ([]model.ReportSummary, error) {
	h, err := l.source.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return SortNewestFirst(h), nil
}

// SortNewestFirst orders reports by submission date, newest first.
// Entries with equal dates keep their relative order.
func SortNewestFirst(reports []model.ReportSummary) []model.ReportSummary {
	sorted := make([]model.ReportSummary, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmissionDate.After(sorted[j].SubmissionDate.Time)
	})
	return sorted
}
