package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pricing_api/internal/models"
)

// FilterOptionsRefresher reloads the cached filter options.
type FilterOptionsRefresher interface {
	RefreshFilterOptions(ctx context.Context) (*models.FilterOptions, error)
}

// RefreshClaimer elects one replica per interval to do the refresh.
type RefreshClaimer interface {
	ClaimRefresh(ctx context.Context, interval time.Duration) (bool, error)
}

// FilterOptionsWorker periodically refreshes the filter options cache.
type FilterOptionsWorker struct {
	refresher FilterOptionsRefresher
	claimer   RefreshClaimer
	interval  time.Duration
}

// NewFilterOptionsWorker constructs a FilterOptionsWorker. claimer may be nil,
// in which case every tick refreshes.
func NewFilterOptionsWorker(refresher FilterOptionsRefresher, claimer RefreshClaimer, interval time.Duration) *FilterOptionsWorker {
	return &FilterOptionsWorker{
		refresher: refresher,
		claimer:   claimer,
		interval:  interval,
	}
}

// Start begins the refresh loop and returns when ctx is cancelled.
func (w *FilterOptionsWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Filter options worker disabled")
		return
	}
	log.Info().Dur("interval", w.interval).Msg("Starting filter options worker")

	// Warm the cache immediately
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Filter options worker stopped")
			return
		}
	}
}

func (w *FilterOptionsWorker) run(ctx context.Context) {
	if w.claimer != nil {
		ok, err := w.claimer.ClaimRefresh(ctx, w.interval)
		if err != nil {
			log.Warn().Err(err).Msg("Filter options refresh claim failed, refreshing anyway")
		} else if !ok {
			log.Debug().Msg("Filter options refresh owned by another replica")
			return
		}
	}

	start := time.Now()
	opts, err := w.refresher.RefreshFilterOptions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to refresh filter options")
		return
	}

	log.Info().
		Int("categories", len(opts.Categories)).
		Int("brands", len(opts.Brands)).
		Int("stores", len(opts.Stores)).
		Dur("duration", time.Since(start)).
		Msg("Filter options refreshed")
}
