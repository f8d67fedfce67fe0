// Package scheduler runs the background tasks of the rotation
// controller: periodic map catalogue refreshes and a periodic
// re-fetch of server display names.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/frontline-project/frontline/internal/config"
	"github.com/frontline-project/frontline/internal/maps"
	"github.com/frontline-project/frontline/internal/registry"
)

const nameRefreshInterval = 6 * time.Hour

// Scheduler manages periodic background tasks.
type Scheduler struct {
	cfg       *config.Config
	catalogue *maps.Catalogue
	registry  *registry.Registry
}

// NewScheduler creates a task scheduler.
func NewScheduler(cfg *config.Config, catalogue *maps.Catalogue, reg *registry.Registry) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		catalogue: catalogue,
		registry:  reg,
	}
}

// Start runs all scheduled tasks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().Msg("scheduler started")

	go s.runCatalogueRefreshLoop(ctx)
	go s.runNameRefreshLoop(ctx)

	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// runCatalogueRefreshLoop keeps the map catalogue warm. The catalogue
// applies its own TTL, so a tick that finds fresh data is a no-op.
func (s *Scheduler) runCatalogueRefreshLoop(ctx context.Context) {
	interval := time.Duration(s.cfg.GetApplicationData().Catalogue.RefreshIntervalSec) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.catalogue.Refresh(ctx, false); err != nil {
				log.Warn().Err(err).Msg("scheduled catalogue refresh failed")
			}
		}
	}
}

// runNameRefreshLoop periodically re-fetches server display names, so
// renamed servers show up without a restart.
func (s *Scheduler) runNameRefreshLoop(ctx context.Context) {
	ticker := time.NewTicker(nameRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.registry.FetchServerNames()
		}
	}
}
