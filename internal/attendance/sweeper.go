package attendance

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically deletes stale attendance codes.
type Sweeper struct {
	service  *Service
	logger   *slog.Logger
	Interval time.Duration
}

func NewSweeper(service *Service, logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		logger:   logger,
		Interval: interval,
	}
}

func (s *Sweeper) RunOnce(ctx context.Context) error {
	start := time.Now()

	deleted, err := s.service.Sweep(ctx, s.service.Now())
	if err != nil {
		s.logger.Error("attendance code sweep failed", slog.String("error", err.Error()))
		return err
	}

	s.logger.Debug("attendance code sweep finished",
		slog.Int64("deleted_count", deleted),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// Start blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.logger.Info("attendance code sweeper started", slog.Duration("interval", s.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("attendance code sweeper stopped")
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}
