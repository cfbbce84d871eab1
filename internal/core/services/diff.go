package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

// StatusDiffer classifies a source's current item set against the
// backend's stored hash state in a single round-trip.
type StatusDiffer struct {
	ingester driven.Ingester
}

// NewStatusDiffer creates a status differ.
func NewStatusDiffer(ingester driven.Ingester) *StatusDiffer {
	return &StatusDiffer{ingester: ingester}
}

// Diff submits the full uri-to-hash map for a source and returns the
// backend's per-URI classification. The response must classify every
// submitted URI with a recognised status; anything else is a
// StateError, because an incomplete diff would silently drop items
// from the upload set.
func (d *StatusDiffer) Diff(ctx context.Context, source string, hashes map[string]string) (map[string]domain.DiffStatus, error) {
	logger.Debug("Diffing %d items for source %s", len(hashes), source)

	if len(hashes) == 0 {
		return map[string]domain.DiffStatus{}, nil
	}

	statuses, err := d.ingester.DiffStatus(ctx, source, hashes)
	if err != nil {
		return nil, fmt.Errorf("diff status: %w", err)
	}

	missing := 0
	for uri := range hashes {
		status, ok := statuses[uri]
		if !ok {
			missing++
			continue
		}
		if !status.IsValid() {
			return nil, domain.StateError{
				Source: source,
				Reason: fmt.Sprintf("unrecognised status %q for %s", status, uri),
			}
		}
	}
	if missing > 0 {
		return nil, domain.StateError{
			Source: source,
			Reason: fmt.Sprintf("diff response missing %d of %d URIs", missing, len(hashes)),
		}
	}

	return statuses, nil
}

// Processable filters items down to those the diff marked new or
// mismatched, preserving input order.
func Processable(items []domain.Item, statuses map[string]domain.DiffStatus) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if statuses[item.URI].Processable() {
			out = append(out, item)
		}
	}
	return out
}
