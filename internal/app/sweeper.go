package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically expires overdue reservations. Purely an optimization:
// availability filters on expires_at at read time, so correctness does not
// depend on the cadence (or on the sweeper running at all).
type Sweeper struct {
	svc      *AdminService
	interval time.Duration
	log      zerolog.Logger
}

func NewSweeper(svc *AdminService, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		log:      log,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.svc.SweepExpired(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("sweep expired reservations")
				continue
			}
			if n > 0 {
				s.log.Info().Int("expired", n).Msg("swept overdue reservations")
			}
		}
	}
}
