package backtest

// worker.go — loop de replay por partición.
//
// Máquina de estados: Resuming → Fetching → Predicting → Recording →
// Checkpointing → (loop) → Draining → Done | Failed. El checkpoint avanza
// después del flush del ledger pero fuera de su transacción: la garantía es
// al-menos-una-vez, y el índice único del ledger absorbe los duplicados de
// un replay tras crash.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/predictsim/internal/application/engine"
	"github.com/alejandrodnm/predictsim/internal/domain"
	"github.com/alejandrodnm/predictsim/internal/ports"
)

// WorkerConfig controla el loop de un worker.
type WorkerConfig struct {
	BatchSize      int64 // rondas por fetch
	FlushThreshold int   // registros acumulados que disparan un flush
	WindowCapacity int
}

// Worker procesa una partición del espacio de rondas. Posee en exclusiva su
// PriceWindow, su engine y su fila de checkpoint; comparte solo el
// RoundSource (lectura) y el ledger (filas independientes).
type Worker struct {
	id          int
	part        Partition
	cfg         WorkerConfig
	rounds      ports.RoundSource
	checkpoints ports.CheckpointStore
	ledger      ports.BetLedger
	engine      *engine.Engine
	guard       *MemoryGuard
	window      *domain.PriceWindow
}

// WorkerResult es la señal de completado de un worker hacia el coordinator.
// Comunicación de una sola vía: no hay comandos de vuelta.
type WorkerResult struct {
	WorkerID  int
	Processed int64
	Bets      int
	Err       error
}

// NewWorker crea un worker con todas las dependencias inyectadas; nada de
// estado global compartido.
func NewWorker(
	id int,
	part Partition,
	cfg WorkerConfig,
	rounds ports.RoundSource,
	checkpoints ports.CheckpointStore,
	ledger ports.BetLedger,
	eng *engine.Engine,
	guard *MemoryGuard,
) *Worker {
	return &Worker{
		id:          id,
		part:        part,
		cfg:         cfg,
		rounds:      rounds,
		checkpoints: checkpoints,
		ledger:      ledger,
		engine:      eng,
		guard:       guard,
		window:      domain.NewPriceWindow(cfg.WindowCapacity),
	}
}

// Run ejecuta la partición completa y devuelve el resultado. Un error de
// storage es fatal solo para esta partición; el siguiente arranque del
// coordinator la retomará desde el último checkpoint confirmado.
func (w *Worker) Run(ctx context.Context) WorkerResult {
	res := WorkerResult{WorkerID: w.id}

	// Resuming: el checkpoint propio manda sobre el offset asignado
	offset := w.part.Start
	var processed int64
	if entry, err := w.checkpoints.Get(ctx, w.id); err != nil {
		res.Err = fmt.Errorf("worker %d: resume: %w", w.id, err)
		return res
	} else if entry != nil {
		offset = entry.LastProcessedOffset
		processed = entry.ProcessedCount
		slog.Info("worker resuming from checkpoint",
			"worker", w.id,
			"offset", offset,
			"end", w.part.End,
			"processed", processed,
		)
	}

	// La ventana se calienta con las rondas que preceden al offset: el corte
	// de partición no cambia ninguna decisión respecto a una pasada secuencial
	if err := w.warmWindow(ctx, offset); err != nil {
		res.Err = fmt.Errorf("worker %d: %w", w.id, err)
		return res
	}

	var pending []domain.BetRecord

	for offset < w.part.End {
		// Backpressure antes de admitir más datos
		if err := w.guard.Wait(ctx); err != nil {
			res.Err = fmt.Errorf("worker %d: backpressure wait: %w", w.id, err)
			return res
		}

		// Fetching
		limit := w.cfg.BatchSize
		if remaining := w.part.End - offset; remaining < limit {
			limit = remaining
		}
		batch, err := w.rounds.Fetch(ctx, offset, limit)
		if err != nil {
			res.Err = fmt.Errorf("worker %d: fetch offset %d: %w", w.id, offset, err)
			return res
		}
		if len(batch) == 0 {
			break // fuente agotada antes del End teórico → drenar
		}

		// Predicting: orden estricto dentro de la partición, la ventana es
		// sensible al orden
		for _, round := range batch {
			w.window.Push(round.StartingPrice)
			if !w.window.Full() {
				continue
			}
			decision := w.engine.Decide(w.window)
			if decision.Direction == domain.DirectionNone || decision.Stake <= 0 {
				continue
			}
			pending = append(pending, domain.Settle(round, decision))
			res.Bets++
		}

		offset += int64(len(batch))
		processed += int64(len(batch))

		// Recording: flush por umbral, desacopla coste de persistencia del
		// coste por ronda
		if len(pending) >= w.cfg.FlushThreshold {
			if err := w.ledger.AppendBatch(ctx, pending); err != nil {
				res.Err = fmt.Errorf("worker %d: flush ledger: %w", w.id, err)
				return res
			}
			pending = pending[:0]
		}

		// Checkpointing: tras procesar el batch completo
		if err := w.checkpoints.Put(ctx, domain.CheckpointEntry{
			WorkerID:            w.id,
			LastProcessedOffset: offset,
			EndOffset:           w.part.End,
			ProcessedCount:      processed,
		}); err != nil {
			res.Err = fmt.Errorf("worker %d: checkpoint: %w", w.id, err)
			return res
		}
	}

	// Draining: restos al ledger y borrar el checkpoint como marca de éxito
	if err := w.ledger.AppendBatch(ctx, pending); err != nil {
		res.Err = fmt.Errorf("worker %d: final flush: %w", w.id, err)
		return res
	}
	if err := w.checkpoints.Delete(ctx, w.id); err != nil {
		res.Err = fmt.Errorf("worker %d: clear checkpoint: %w", w.id, err)
		return res
	}

	res.Processed = processed
	slog.Info("worker finished partition",
		"worker", w.id,
		"processed", processed,
		"bets", res.Bets,
	)
	return res
}

// warmWindow rellena la ventana con las rondas previas al primer offset a
// procesar. Solo lectura: no genera decisiones ni cuenta como procesado.
func (w *Worker) warmWindow(ctx context.Context, offset int64) error {
	start := offset - int64(w.cfg.WindowCapacity)
	if start < 0 {
		start = 0
	}
	for start < offset {
		limit := w.cfg.BatchSize
		if remaining := offset - start; remaining < limit {
			limit = remaining
		}
		batch, err := w.rounds.Fetch(ctx, start, limit)
		if err != nil {
			return fmt.Errorf("warm window at offset %d: %w", start, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, round := range batch {
			w.window.Push(round.StartingPrice)
		}
		start += int64(len(batch))
	}
	return nil
}
