package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/predictsim/internal/domain"
)

// LedgerStore implementa ports.BetLedger sobre la tabla `bets`.
//
// Garantía al-menos-una-vez del worker: el flush del batch y el avance del
// checkpoint no son una unidad atómica, así que tras un crash pueden llegar
// registros repetidos para las mismas rondas. El INSERT OR IGNORE contra el
// índice único de round_id los descarta, dejando el Summary limpio sin
// deduplicación en la query.
type LedgerStore struct {
	db *sql.DB
}

// NewLedgerStore crea el store sobre una base de datos ya abierta.
func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// AppendBatch persiste los registros en una transacción, todo-o-nada.
func (s *LedgerStore) AppendBatch(ctx context.Context, records []domain.BetRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.LedgerStore.AppendBatch: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO bets
			(epoch, direction, stake, outcome, profit, round_id, starting_price, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.LedgerStore.AppendBatch: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Epoch,
			r.Direction.String(),
			r.Stake,
			r.Outcome.String(),
			r.Profit,
			r.RoundID,
			r.StartingPrice,
			now,
		); err != nil {
			return fmt.Errorf("storage.LedgerStore.AppendBatch: insert round %d: %w", r.RoundID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.LedgerStore.AppendBatch: commit: %w", err)
	}
	return nil
}

// Summary agrega el ledger completo.
func (s *LedgerStore) Summary(ctx context.Context) (domain.Summary, error) {
	var sum domain.Summary
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN outcome = 'win'  THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = 'lose' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(profit), 0)
		FROM bets
	`).Scan(&sum.TotalBets, &sum.Wins, &sum.Losses, &sum.TotalProfit)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("storage.LedgerStore.Summary: %w", err)
	}
	return sum, nil
}

// AllBets devuelve todos los registros del ledger por round_id ascendente.
// Lo usa el export a parquet, no el core.
func (s *LedgerStore) AllBets(ctx context.Context) ([]domain.BetRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT epoch, direction, stake, outcome, profit, round_id, starting_price
		FROM bets ORDER BY round_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.LedgerStore.AllBets: query: %w", err)
	}
	defer rows.Close()

	var out []domain.BetRecord
	for rows.Next() {
		var r domain.BetRecord
		var dir, outcome string
		if err := rows.Scan(&r.Epoch, &dir, &r.Stake, &outcome, &r.Profit, &r.RoundID, &r.StartingPrice); err != nil {
			return nil, fmt.Errorf("storage.LedgerStore.AllBets: scan: %w", err)
		}
		r.Direction = domain.ParseDirection(dir)
		if outcome == "win" {
			r.Outcome = domain.OutcomeWin
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
