// Package sweeper periodically removes expired refresh tokens.
package sweeper

import (
	"context"
	"time"

	"github.com/Miraines/MoonyAndStarry/notes-service/internal/infra/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

var (
	sweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refresh_tokens_swept_total",
		Help: "Expired refresh tokens removed by the periodic sweep.",
	})
	sweepErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refresh_token_sweep_errors_total",
		Help: "Sweep runs that failed.",
	})
)

// Collectors returns the sweeper metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{sweptTotal, sweepErrors}
}

type Runner struct {
	target   Sweeper
	clock    clock.Clock
	interval time.Duration
	log      *zap.Logger
}

func New(target Sweeper, clk clock.Clock, interval time.Duration, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{target: target, clock: clk, interval: interval, log: log}
}

// Run sweeps once per interval until ctx is done. A failed sweep waits for the next tick.
func (r *Runner) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("refresh token sweeper started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("refresh token sweeper stopped")
			return nil
		case <-ticker.Chan():
			_, _ = r.RunOnce(ctx)
		}
	}
}

func (r *Runner) RunOnce(ctx context.Context) (int64, error) {
	now := r.clock.Now()
	n, err := r.target.SweepExpired(ctx, now)
	if err != nil {
		sweepErrors.Inc()
		r.log.Error("refresh token sweep failed", zap.Error(err))
		return 0, err
	}
	sweptTotal.Add(float64(n))
	r.log.Info("expired refresh tokens swept", zap.Int64("count", n), zap.Time("now", now))
	return n, nil
}
