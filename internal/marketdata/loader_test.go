package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/algosim/internal/contracts"
	"github.com/wonny/algosim/pkg/logger"
)

func TestLoader_FetchesAndSavesOnMiss(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{series: contracts.PriceSeries{bar(1, 101), bar(0, 100)}}
	store := newMemStore()
	loader := NewLoader(provider, store, logger.Nop())

	series, err := loader.Load(ctx, testKey())
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.NoError(t, series.CheckOrdered())
	assert.Equal(t, 1, store.saves)

	// second load is served from the store
	_, err = loader.Load(ctx, testKey())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
}

func TestLoader_EmptyResult(t *testing.T) {
	store := newMemStore()
	loader := NewLoader(&stubProvider{}, store, logger.Nop())

	series, err := loader.Load(context.Background(), testKey())
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)
	assert.Nil(t, series)
	assert.Equal(t, 0, store.saves, "empty results are not cached")
}

func TestLoader_ProviderError(t *testing.T) {
	boom := errors.New("upstream down")
	loader := NewLoader(&stubProvider{err: boom}, nil, logger.Nop())

	_, err := loader.Load(context.Background(), testKey())
	assert.ErrorIs(t, err, boom)
}

func TestLoader_StoreErrorFallsBackToProvider(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("disk full")
	provider := &stubProvider{series: testSeries()}

	series, err := NewLoader(provider, store, logger.Nop()).Load(context.Background(), testKey())
	require.NoError(t, err)
	assert.Len(t, series, 4)
	assert.Equal(t, 1, provider.calls)
}

func TestLoader_InvalidKey(t *testing.T) {
	loader := NewLoader(&stubProvider{}, nil, logger.Nop())

	key := testKey()
	key.End = key.Start
	_, err := loader.Load(context.Background(), key)
	assert.ErrorIs(t, err, contracts.ErrInvalidParameter)
}

func TestLoader_Refresh(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	provider := &stubProvider{series: testSeries()}
	loader := NewLoader(provider, store, logger.Nop())

	_, err := loader.Load(ctx, testKey())
	require.NoError(t, err)
	_, err = loader.Refresh(ctx, testKey())
	require.NoError(t, err)

	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, 2, store.saves)
}
