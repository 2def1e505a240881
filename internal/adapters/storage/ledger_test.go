package storage_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/predictsim/internal/adapters/storage"
	"github.com/alejandrodnm/predictsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLedger(t *testing.T) *storage.LedgerStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewLedgerStore(db)
}

func makeBet(roundID int64, outcome domain.Outcome, profit float64) domain.BetRecord {
	return domain.BetRecord{
		Epoch:         roundID,
		Direction:     domain.DirectionBull,
		Stake:         0.01,
		Outcome:       outcome,
		Profit:        profit,
		RoundID:       roundID,
		StartingPrice: 100,
	}
}

func TestLedgerStore_AppendAndSummary(t *testing.T) {
	ledger := openLedger(t)
	ctx := context.Background()

	err := ledger.AppendBatch(ctx, []domain.BetRecord{
		makeBet(1, domain.OutcomeWin, 0.0095),
		makeBet(2, domain.OutcomeLose, -0.01),
		makeBet(3, domain.OutcomeWin, 0.0095),
	})
	require.NoError(t, err)

	sum, err := ledger.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.TotalBets)
	assert.Equal(t, int64(2), sum.Wins)
	assert.Equal(t, int64(1), sum.Losses)
	assert.InDelta(t, 0.009, sum.TotalProfit, 1e-9)
}

func TestLedgerStore_EmptyBatchIsNoop(t *testing.T) {
	ledger := openLedger(t)
	assert.NoError(t, ledger.AppendBatch(context.Background(), nil))
}

func TestLedgerStore_SummaryEmpty(t *testing.T) {
	ledger := openLedger(t)
	sum, err := ledger.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{}, sum)
}

// Un batch re-procesado tras un crash trae rondas ya registradas: el índice
// único por round_id las descarta y el summary no cuenta duplicados.
func TestLedgerStore_CrashReplayDoesNotDuplicate(t *testing.T) {
	ledger := openLedger(t)
	ctx := context.Background()

	first := []domain.BetRecord{
		makeBet(10, domain.OutcomeWin, 0.0095),
		makeBet(11, domain.OutcomeLose, -0.01),
	}
	require.NoError(t, ledger.AppendBatch(ctx, first))

	// Replay: solapa la ronda 11 y añade la 12
	replay := []domain.BetRecord{
		makeBet(11, domain.OutcomeLose, -0.01),
		makeBet(12, domain.OutcomeWin, 0.0095),
	}
	require.NoError(t, ledger.AppendBatch(ctx, replay))

	sum, err := ledger.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.TotalBets)
}

func TestLedgerStore_AllBetsRoundTrip(t *testing.T) {
	ledger := openLedger(t)
	ctx := context.Background()

	want := []domain.BetRecord{
		makeBet(2, domain.OutcomeLose, -0.01),
		makeBet(1, domain.OutcomeWin, 0.0095),
	}
	require.NoError(t, ledger.AppendBatch(ctx, want))

	got, err := ledger.AllBets(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordenados por round_id ascendente
	assert.Equal(t, int64(1), got[0].RoundID)
	assert.Equal(t, domain.OutcomeWin, got[0].Outcome)
	assert.Equal(t, domain.DirectionBull, got[0].Direction)
	assert.Equal(t, int64(2), got[1].RoundID)
	assert.InDelta(t, -0.01, got[1].Profit, 1e-12)
}
