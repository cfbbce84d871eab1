package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// TestBatchResolver_ReusesExisting tests that a matching batch is reused
func TestBatchResolver_ReusesExisting(t *testing.T) {
	ingester := &mockIngester{
		batches: []domain.Batch{
			{ID: 3, Source: "other", Name: "other"},
			{ID: 7, Source: "demo", Name: "demo"},
		},
	}
	resolver := NewBatchResolver(ingester)

	batch, err := resolver.Resolve(context.Background(), "demo", "demo")

	require.NoError(t, err)
	assert.Equal(t, int64(7), batch.ID)
	assert.Empty(t, ingester.created)
}

// TestBatchResolver_CreatesWhenAbsent tests batch creation for a new source
func TestBatchResolver_CreatesWhenAbsent(t *testing.T) {
	ingester := &mockIngester{
		batches: []domain.Batch{{ID: 3, Source: "other", Name: "other"}},
	}
	resolver := NewBatchResolver(ingester)

	batch, err := resolver.Resolve(context.Background(), "fresh", "fresh batch")

	require.NoError(t, err)
	require.Len(t, ingester.created, 1)
	assert.Equal(t, "fresh", batch.Source)
	assert.Equal(t, "fresh batch", batch.Name)
}

// TestBatchResolver_FirstMatchWins tests duplicate handling
func TestBatchResolver_FirstMatchWins(t *testing.T) {
	ingester := &mockIngester{
		batches: []domain.Batch{
			{ID: 1, Source: "demo"},
			{ID: 2, Source: "demo"},
		},
	}
	resolver := NewBatchResolver(ingester)

	batch, err := resolver.Resolve(context.Background(), "demo", "")

	require.NoError(t, err)
	assert.Equal(t, int64(1), batch.ID)
	assert.Empty(t, ingester.created)
}

// TestBatchResolver_DefaultName tests that the source doubles as the label
func TestBatchResolver_DefaultName(t *testing.T) {
	ingester := &mockIngester{}
	resolver := NewBatchResolver(ingester)

	batch, err := resolver.Resolve(context.Background(), "demo", "")

	require.NoError(t, err)
	assert.Equal(t, "demo", batch.Name)
}

// TestBatchResolver_ListError tests failure propagation from the list call
func TestBatchResolver_ListError(t *testing.T) {
	cause := errors.New("backend down")
	ingester := &mockIngester{listErr: cause}
	resolver := NewBatchResolver(ingester)

	_, err := resolver.Resolve(context.Background(), "demo", "")

	assert.ErrorIs(t, err, cause)
}

// TestBatchResolver_CreateError tests failure propagation from the create call
func TestBatchResolver_CreateError(t *testing.T) {
	cause := errors.New("quota exceeded")
	ingester := &mockIngester{createErr: cause}
	resolver := NewBatchResolver(ingester)

	_, err := resolver.Resolve(context.Background(), "demo", "")

	assert.ErrorIs(t, err, cause)
}

// TestBatchResolver_StableAcrossRuns tests that repeated resolution never duplicates
func TestBatchResolver_StableAcrossRuns(t *testing.T) {
	ingester := &mockIngester{}
	resolver := NewBatchResolver(ingester)

	first, err := resolver.Resolve(context.Background(), "demo", "")
	require.NoError(t, err)

	second, err := resolver.Resolve(context.Background(), "demo", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, ingester.created, 1)
}
