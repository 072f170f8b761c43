// Package syncer keeps the local run cache and booking table in step with
// speedrun.com in the background.
package syncer

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler is the part of the booking service the agent drives.
type Reconciler interface {
	Refresh(ctx context.Context) (int, error)
	Cleanup(ctx context.Context) ([]string, error)
}

// AgentConfig holds configuration for the sync agent.
type AgentConfig struct {
	Interval   time.Duration // Time between successful passes
	MaxBackoff time.Duration // Cap on the retry delay after failed passes (default: 8 * Interval)
}

// Agent runs Refresh then Cleanup on a fixed interval, backing off on failure.
type Agent struct {
	svc    Reconciler
	config AgentConfig
	logger *slog.Logger
	done   chan struct{}
}

// New creates a sync agent. A non-positive interval defaults to five minutes.
// MaxBackoff is never below Interval.
func New(svc Reconciler, config AgentConfig, logger *slog.Logger) *Agent {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 8 * config.Interval
	}
	if config.MaxBackoff < config.Interval {
		config.MaxBackoff = config.Interval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		svc:    svc,
		config: config,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Run performs a pass immediately, then one per interval, until ctx is cancelled.
// A failed pass doubles the delay before the next one, up to MaxBackoff; a
// successful pass resets it.
func (a *Agent) Run(ctx context.Context) error {
	defer close(a.done)
	a.logger.Info("sync agent starting", "interval", a.config.Interval)

	delay := time.Duration(0)
	failDelay := a.config.Interval

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("sync agent stopped")
			return ctx.Err()

		case <-time.After(delay):
			if err := a.pass(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				a.logger.Warn("sync pass failed", "error", err, "retry_in", failDelay)
				delay = failDelay
				failDelay *= 2
				if failDelay > a.config.MaxBackoff {
					failDelay = a.config.MaxBackoff
				}
				continue
			}

			delay = a.config.Interval
			failDelay = a.config.Interval
		}
	}
}

// Done returns a channel that is closed when the agent has fully stopped.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

func (a *Agent) pass(ctx context.Context) error {
	n, err := a.svc.Refresh(ctx)
	if err != nil {
		return err
	}

	deleted, err := a.svc.Cleanup(ctx)
	if err != nil {
		return err
	}

	a.logger.Debug("sync pass complete", "cached", n, "removed", len(deleted))
	return nil
}
