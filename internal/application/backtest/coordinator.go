package backtest

// coordinator.go — reparto del espacio de rondas y agregación de resultados.
//
// Arranque fresco: divide [0, total) en P particiones contiguas. Arranque
// tras interrupción: retoma exactamente las particiones con checkpoint
// pendiente, ignorando el reparto original. Un worker caído no aborta a sus
// hermanos — las particiones son independientes.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/predictsim/internal/application/engine"
	"github.com/alejandrodnm/predictsim/internal/domain"
	"github.com/alejandrodnm/predictsim/internal/ports"
)

// Config controla el coordinator.
type Config struct {
	Workers int // 0 = max(1, NumCPU-1)
	Worker  WorkerConfig
	// MemoryCeilingFraction es el techo de memoria del sistema (0-1) que
	// pausa los fetches. Fuera de (0,1) desactiva el control.
	MemoryCeilingFraction float64
}

// EngineFactory construye un engine nuevo por worker: el predictor tiene
// estado de entrenamiento y no se comparte entre particiones.
type EngineFactory func() *engine.Engine

// Coordinator lanza los workers y produce el summary final.
type Coordinator struct {
	cfg         Config
	rounds      ports.RoundSource
	checkpoints ports.CheckpointStore
	ledger      ports.BetLedger
	newEngine   EngineFactory
}

// New crea un Coordinator con los handles explícitos a los tres stores.
func New(
	cfg Config,
	rounds ports.RoundSource,
	checkpoints ports.CheckpointStore,
	ledger ports.BetLedger,
	newEngine EngineFactory,
) *Coordinator {
	return &Coordinator{
		cfg:         cfg,
		rounds:      rounds,
		checkpoints: checkpoints,
		ledger:      ledger,
		newEngine:   newEngine,
	}
}

// Run ejecuta el backtest completo: particionar (o retomar), lanzar workers,
// esperar todas las señales de completado y agregar el ledger. Devuelve el
// summary aunque alguna partición haya fallado, junto con el error agregado.
func (c *Coordinator) Run(ctx context.Context) (domain.Summary, error) {
	start := time.Now()
	runID := uuid.New().String()

	total, err := c.rounds.Count(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("coordinator: count rounds: %w", err)
	}

	partitions, resumed, err := c.plan(ctx, total)
	if err != nil {
		return domain.Summary{}, err
	}
	if len(partitions) == 0 {
		slog.Warn("no rounds to replay", "run_id", runID)
		return c.ledger.Summary(ctx)
	}

	slog.Info("backtest starting",
		"run_id", runID,
		"total_rounds", total,
		"partitions", len(partitions),
		"resumed", resumed,
	)

	guard := NewMemoryGuard(c.cfg.MemoryCeilingFraction)
	resultCh := make(chan WorkerResult, len(partitions))

	var wg sync.WaitGroup
	for _, part := range partitions {
		w := NewWorker(
			part.WorkerID,
			part,
			c.cfg.Worker,
			c.rounds,
			c.checkpoints,
			c.ledger,
			c.newEngine(),
			guard,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			resultCh <- w.Run(ctx)
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var failed int
	var processed int64
	for res := range resultCh {
		if res.Err != nil {
			// La partición queda retomable vía su checkpoint; los hermanos siguen
			failed++
			slog.Error("partition failed",
				"run_id", runID,
				"worker", res.WorkerID,
				"err", res.Err,
			)
			continue
		}
		processed += res.Processed
	}

	summary, err := c.ledger.Summary(ctx)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("coordinator: summary: %w", err)
	}

	slog.Info("backtest complete",
		"run_id", runID,
		"processed", processed,
		"failed_partitions", failed,
		"total_bets", summary.TotalBets,
		"total_profit", summary.TotalProfit,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if failed > 0 {
		return summary, fmt.Errorf("coordinator: %d of %d partitions failed, rerun to resume", failed, len(partitions))
	}
	return summary, nil
}

// plan decide las particiones: las pendientes de una ejecución anterior si
// existen, o un reparto fresco en caso contrario.
func (c *Coordinator) plan(ctx context.Context, total int64) ([]Partition, bool, error) {
	pending, err := c.checkpoints.List(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("coordinator: list checkpoints: %w", err)
	}
	if len(pending) > 0 {
		return partitionsFromCheckpoints(pending), true, nil
	}

	parts := c.cfg.Workers
	if parts <= 0 {
		parts = runtime.NumCPU() - 1
		if parts < 1 {
			parts = 1
		}
	}
	return SplitRange(total, parts), false, nil
}
