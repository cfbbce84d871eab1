package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// BatchResolver finds or creates the backend batch for a source.
// Resolution happens once per run, before the upload loop, so every
// item in a run shares one batch ID.
type BatchResolver struct {
	ingester driven.Ingester
}

// NewBatchResolver creates a batch resolver.
func NewBatchResolver(ingester driven.Ingester) *BatchResolver {
	return &BatchResolver{ingester: ingester}
}

// Resolve returns the existing batch recorded for the source, or
// creates one. The backend has no server-side filter, so matching is
// a linear scan over the batch list; with several matches the first
// wins and the duplicates are logged.
func (r *BatchResolver) Resolve(ctx context.Context, source, name string) (*domain.Batch, error) {
	batches, err := r.ingester.ListBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	var found *domain.Batch
	matches := 0
	for i := range batches {
		if batches[i].Source != source {
			continue
		}
		matches++
		if found == nil {
			found = &batches[i]
		}
	}

	if found != nil {
		if matches > 1 {
			logger.Warn("Source %s has %d batches, using batch %d", source, matches, found.ID)
		}
		logger.Debug("Reusing batch %d for source %s", found.ID, source)
		return found, nil
	}

	if name == "" {
		name = source
	}
	batch, err := r.ingester.CreateBatch(ctx, source, name)
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	logger.Info("Created batch %d for source %s", batch.ID, source)

	return batch, nil
}
