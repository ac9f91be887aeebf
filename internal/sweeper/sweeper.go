// Package sweeper removes expired links from the store on a fixed interval.
// The cache is deliberately left alone: its entries expire on their own TTLs.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/mbochenko/shortly/internal/models"
)

// LinkRepository defines the single store operation the sweeper needs.
type LinkRepository interface {
	// SweepExpired deletes every link whose expiry is strictly before now
	// and returns the deleted links.
	SweepExpired(ctx context.Context, now time.Time) ([]models.Link, error)
}

// Sweeper runs the expiry sweep. It is constructed explicitly and started
// with Run; there is no package-level scheduler state.
type Sweeper struct {
	repo     LinkRepository
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

const defaultInterval = time.Minute

func New(repo LinkRepository, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Sweeper{
		repo:     repo,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps on every tick until ctx is cancelled. A failed cycle is logged
// and does not stop the next one.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	links, err := s.repo.SweepExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to sweep expired links", slog.Any("err", err))
		return
	}

	if len(links) == 0 {
		return
	}

	codes := make([]string, 0, len(links))
	for _, link := range links {
		codes = append(codes, link.ShortCode)
	}

	s.logger.Info("deleted expired links",
		slog.Int("count", len(links)),
		slog.Any("short_codes", codes),
	)
}
