package backtest_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/alejandrodnm/predictsim/internal/adapters/storage"
	"github.com/alejandrodnm/predictsim/internal/application/backtest"
	"github.com/alejandrodnm/predictsim/internal/application/engine"
	"github.com/alejandrodnm/predictsim/internal/domain"
	"github.com/alejandrodnm/predictsim/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedPredictor siempre devuelve la misma probabilidad: las decisiones
// dependen solo del contenido de la ventana.
type fixedPredictor struct{ p float64 }

func (f *fixedPredictor) Train([][]float64, []int) error    { return nil }
func (f *fixedPredictor) Predict([]float64) (float64, error) { return f.p, nil }

// bullEngine decide bull en cuanto el pipeline tiene datos suficientes.
func bullEngine() *engine.Engine {
	return engine.New(engine.Config{
		Thresholds: domain.DefaultThresholds(),
		Sizer: domain.BetSizer{
			MinStake: 0.001,
			MaxStake: 0.05,
			MinScore: -5,
			MaxScore: 5,
		},
		BullThreshold: -1000, // cualquier confianza da señal
		BearThreshold: -2000,
	}, &fixedPredictor{p: 0.5})
}

type testEnv struct {
	rounds      *storage.RoundStore
	checkpoints *storage.CheckpointStore
	ledger      *storage.LedgerStore
}

func newTestEnv(t *testing.T, totalRounds int) testEnv {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := testEnv{
		rounds:      storage.NewRoundStore(db),
		checkpoints: storage.NewCheckpointStore(db),
		ledger:      storage.NewLedgerStore(db),
	}

	rounds := make([]domain.Round, totalRounds)
	for i := range rounds {
		start := 100 + 3*math.Sin(float64(i)/3) + float64(i)*0.01
		rounds[i] = domain.Round{
			RoundID:       int64(i + 1),
			StartingPrice: start,
			EndingPrice:   start * 1.002,
		}
	}
	require.NoError(t, env.rounds.InsertRounds(context.Background(), rounds))
	return env
}

var testWorkerCfg = backtest.WorkerConfig{
	BatchSize:      64,
	FlushThreshold: 10,
	WindowCapacity: 50,
}

func TestWorker_FullPartition(t *testing.T) {
	env := newTestEnv(t, 300)
	ctx := context.Background()

	w := backtest.NewWorker(
		0,
		backtest.Partition{WorkerID: 0, Start: 0, End: 300},
		testWorkerCfg,
		env.rounds, env.checkpoints, env.ledger,
		bullEngine(),
		backtest.NewMemoryGuard(0),
	)

	res := w.Run(ctx)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(300), res.Processed)

	// La ventana se llena en la ronda 50: apuesta desde ahí hasta el final
	assert.Equal(t, 251, res.Bets)

	sum, err := env.ledger.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(251), sum.TotalBets)

	// Checkpoint borrado = partición completada
	entry, err := env.checkpoints.Get(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

// flakyLedger falla en la n-ésima llamada a AppendBatch.
type flakyLedger struct {
	inner  ports.BetLedger
	failOn int
	calls  int
}

func (f *flakyLedger) AppendBatch(ctx context.Context, recs []domain.BetRecord) error {
	f.calls++
	if f.calls == f.failOn {
		return errors.New("ledger unavailable")
	}
	return f.inner.AppendBatch(ctx, recs)
}

func (f *flakyLedger) Summary(ctx context.Context) (domain.Summary, error) {
	return f.inner.Summary(ctx)
}

// recordingRounds registra los offsets pedidos al source.
type recordingRounds struct {
	inner   ports.RoundSource
	offsets []int64
}

func (r *recordingRounds) Count(ctx context.Context) (int64, error) {
	return r.inner.Count(ctx)
}

func (r *recordingRounds) Fetch(ctx context.Context, offset, limit int64) ([]domain.Round, error) {
	r.offsets = append(r.offsets, offset)
	return r.inner.Fetch(ctx, offset, limit)
}

func TestWorker_CrashAndResume(t *testing.T) {
	env := newTestEnv(t, 300)
	ctx := context.Background()
	part := backtest.Partition{WorkerID: 0, Start: 0, End: 300}

	// Primera ejecución: el ledger muere en el segundo flush
	flaky := &flakyLedger{inner: env.ledger, failOn: 2}
	w := backtest.NewWorker(0, part, testWorkerCfg, env.rounds, env.checkpoints, flaky, bullEngine(), backtest.NewMemoryGuard(0))

	res := w.Run(ctx)
	require.Error(t, res.Err)

	// El checkpoint quedó en el último batch confirmado
	entry, err := env.checkpoints.Get(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(64), entry.LastProcessedOffset)
	assert.Equal(t, int64(64), entry.ProcessedCount)

	// Segunda ejecución: retoma exactamente desde el checkpoint
	rec := &recordingRounds{inner: env.rounds}
	w2 := backtest.NewWorker(0, part, testWorkerCfg, rec, env.checkpoints, env.ledger, bullEngine(), backtest.NewMemoryGuard(0))

	res2 := w2.Run(ctx)
	require.NoError(t, res2.Err)
	require.GreaterOrEqual(t, len(rec.offsets), 2)
	assert.Equal(t, int64(14), rec.offsets[0], "calienta la ventana con las 50 rondas previas")
	assert.Equal(t, int64(64), rec.offsets[1], "reprocesa solo desde lastProcessedOffset")
	assert.Equal(t, int64(300), res2.Processed)

	// Sin duplicados ni huecos en el ledger tras el replay
	bets, err := env.ledger.AllBets(ctx)
	require.NoError(t, err)
	assert.Len(t, bets, 251)
	seen := make(map[int64]bool)
	for _, b := range bets {
		require.False(t, seen[b.RoundID], "ronda %d duplicada", b.RoundID)
		seen[b.RoundID] = true
	}

	// Partición cerrada: checkpoint fuera
	entry, err = env.checkpoints.Get(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestWorker_ResumeHonorsAssignedStartWithoutCheckpoint(t *testing.T) {
	env := newTestEnv(t, 200)
	ctx := context.Background()

	rec := &recordingRounds{inner: env.rounds}
	w := backtest.NewWorker(1, backtest.Partition{WorkerID: 1, Start: 120, End: 200}, testWorkerCfg, rec, env.checkpoints, env.ledger, bullEngine(), backtest.NewMemoryGuard(0))

	res := w.Run(ctx)
	require.NoError(t, res.Err)
	require.GreaterOrEqual(t, len(rec.offsets), 2)
	assert.Equal(t, int64(70), rec.offsets[0], "warmup de ventana antes del inicio asignado")
	assert.Equal(t, int64(120), rec.offsets[1])
	assert.Equal(t, int64(80), res.Processed)

	// Con la ventana caliente, cada ronda de la partición produce decisión
	assert.Equal(t, 80, res.Bets)
}
