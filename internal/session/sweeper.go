package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// SweepFunc resolves idle sessions and returns how many it closed.
type SweepFunc func(ctx context.Context) (int, error)

// Sweeper runs a SweepFunc on a cron schedule.
type Sweeper struct {
	cron   *cron.Cron
	spec   string
	sweep  SweepFunc
	logger *slog.Logger
}

// NewSweeper validates spec (standard cron or "@every 1m" descriptors).
func NewSweeper(spec string, sweep SweepFunc, logger *slog.Logger) (*Sweeper, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}
	return &Sweeper{
		cron:   cron.New(),
		spec:   spec,
		sweep:  sweep,
		logger: logger,
	}, nil
}

// Start schedules the sweep. ctx is handed to every run.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		n, err := s.sweep(ctx)
		if err != nil {
			s.logger.Error("session sweep failed", "error", err)
			return
		}
		if n > 0 {
			s.logger.Info("idle sessions forfeited", "count", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("session sweeper started", "schedule", s.spec)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("session sweeper stopped")
}
