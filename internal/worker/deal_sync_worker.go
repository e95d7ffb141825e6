package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trovehq/trove_api/internal/service"
)

// DealSyncWorker periodically refreshes best-deal prices for approved products.
type DealSyncWorker struct {
	dealService *service.DealService
	interval    time.Duration
}

// NewDealSyncWorker constructs a DealSyncWorker.
func NewDealSyncWorker(dealService *service.DealService, interval time.Duration) *DealSyncWorker {
	return &DealSyncWorker{
		dealService: dealService,
		interval:    interval,
	}
}

// Start begins the periodic refresh loop and listens for context cancellation.
func (w *DealSyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting deal sync worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Deal sync worker stopped")
			return
		}
	}
}

func (w *DealSyncWorker) run(ctx context.Context) {
	log.Info().Msg("Refreshing best deals...")

	start := time.Now()
	if err := w.dealService.RefreshBestDeals(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to refresh best deals")
		return
	}

	log.Info().Dur("duration", time.Since(start)).Msg("Best deal refresh run finished")
}
