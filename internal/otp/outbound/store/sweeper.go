package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/billease/internal/pkg/clock"
)

// SweepJob periodically reaps records older than Retention.
type SweepJob struct {
	Sweeper   Sweeper
	Clock     clock.Clocker
	Interval  time.Duration
	Retention time.Duration
}

// RunOnce performs a single sweep.
func (j SweepJob) RunOnce(ctx context.Context) (int64, error) {
	n, err := j.Sweeper.Sweep(ctx, j.Clock.Now().Add(-j.Retention))
	if err != nil {
		slog.ErrorContext(ctx, "failed to sweep otp records", "error", err)
		return 0, err
	}
	if n > 0 {
		attrs := []any{"count", n}
		if stats, ok := j.Sweeper.(SweepStats); ok {
			attrs = append(attrs, "total_reaped", stats.Reaped())
		}
		slog.InfoContext(ctx, "swept otp records", attrs...)
	}
	return n, nil
}

// Run sweeps every Interval until ctx is done. Sweep errors are logged and
// the loop keeps going.
func (j SweepJob) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = j.RunOnce(ctx)
		}
	}
}
