package storage_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/predictsim/internal/adapters/storage"
	"github.com/alejandrodnm/predictsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *storage.RoundStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewRoundStore(db)
}

func seedRounds(t *testing.T, store *storage.RoundStore, n int) {
	t.Helper()
	rounds := make([]domain.Round, n)
	for i := range rounds {
		rounds[i] = domain.Round{
			RoundID:       int64(1000 + i), // ids no contiguos con los offsets
			StartingPrice: 100 + float64(i),
			EndingPrice:   101 + float64(i),
		}
	}
	require.NoError(t, store.InsertRounds(context.Background(), rounds))
}

func TestRoundStore_CountEmpty(t *testing.T) {
	store := openTestDB(t)
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRoundStore_FetchByOffsetNotByID(t *testing.T) {
	store := openTestDB(t)
	seedRounds(t, store, 10)

	// offset 0 es la primera ronda aunque su id sea 1000
	got, err := store.Fetch(context.Background(), 0, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1000), got[0].RoundID)
	assert.Equal(t, int64(1002), got[2].RoundID)

	got, err = store.Fetch(context.Background(), 7, 100)
	require.NoError(t, err)
	require.Len(t, got, 3) // solo quedan 3
	assert.Equal(t, int64(1007), got[0].RoundID)
}

func TestRoundStore_FetchPastEnd(t *testing.T) {
	store := openTestDB(t)
	seedRounds(t, store, 5)

	got, err := store.Fetch(context.Background(), 50, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRoundStore_ReimportIsIdempotent(t *testing.T) {
	store := openTestDB(t)
	seedRounds(t, store, 5)
	seedRounds(t, store, 5) // mismo rango otra vez

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
