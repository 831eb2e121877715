package worker

// retry_cron.go
// Background goroutine that periodically re-attempts identification for
// multas stuck in estado='pendiente_identificacion' with a next_retry_at in
// the past. Uses the Circuit Breaker to avoid hammering a downed microservicio.

import (
	"context"
	"time"

	"github.com/Disi3664/sistema-multas/internal/infra"
	"github.com/Disi3664/sistema-multas/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	MultaRepo repository.MultaRepository
	Worker    *IdentificacionWorker
	CB        *infra.CircuitBreaker
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries multas awaiting a retry, and re-runs identification through the CB.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed microservicio
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	multas, err := cfg.MultaRepo.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}

	if len(multas) == 0 {
		return
	}

	log.Info().Int("count", len(multas)).Msg("retry_cron: processing pending multas")

	for i := range multas {
		// Check CB state before each call — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}
		cfg.Worker.ProcessMulta(ctx, multas[i].ID)
	}
}
