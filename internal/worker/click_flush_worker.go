package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trovehq/trove_api/internal/service"
)

// ClickFlushWorker periodically flushes buffered affiliate clicks to the
// database so outbound redirects never wait on a write.
type ClickFlushWorker struct {
	affiliateService *service.AffiliateService
	interval         time.Duration
}

// NewClickFlushWorker constructs a ClickFlushWorker.
func NewClickFlushWorker(affiliateService *service.AffiliateService, interval time.Duration) *ClickFlushWorker {
	return &ClickFlushWorker{
		affiliateService: affiliateService,
		interval:         interval,
	}
}

// Start begins the periodic flush loop and listens for context cancellation.
// A final flush runs on shutdown so buffered clicks are not lost.
func (w *ClickFlushWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting click flush worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			w.run()
			log.Info().Msg("Click flush worker stopped")
			return
		}
	}
}

func (w *ClickFlushWorker) run() {
	pending := w.affiliateService.Pending()
	if pending == 0 {
		return
	}

	if err := w.affiliateService.Flush(); err != nil {
		log.Error().Err(err).Int("pending", pending).Msg("Failed to flush affiliate clicks")
		return
	}

	log.Debug().Int("flushed", pending).Msg("Affiliate clicks flushed")
}
