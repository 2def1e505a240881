package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alejandrodnm/predictsim/internal/domain"
)

// RoundStore implementa ports.RoundSource y ports.RoundWriter sobre la
// tabla `rounds`. Las lecturas son concurrentes y sin locking: la tabla no
// se muta durante un backtest.
type RoundStore struct {
	db *sql.DB
}

// NewRoundStore crea el store sobre una base de datos ya abierta.
func NewRoundStore(db *sql.DB) *RoundStore {
	return &RoundStore{db: db}
}

// Count devuelve el total de rondas almacenadas.
func (s *RoundStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rounds`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.RoundStore.Count: %w", err)
	}
	return n, nil
}

// Fetch devuelve hasta `limit` rondas desde la posición `offset` del orden
// por round_id ascendente.
func (s *RoundStore) Fetch(ctx context.Context, offset, limit int64) ([]domain.Round, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT round_id, starting_price, ending_price
		FROM rounds
		ORDER BY round_id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("storage.RoundStore.Fetch: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Round
	for rows.Next() {
		var r domain.Round
		if err := rows.Scan(&r.RoundID, &r.StartingPrice, &r.EndingPrice); err != nil {
			return nil, fmt.Errorf("storage.RoundStore.Fetch: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertRounds carga rondas en batch, todo-o-nada. Las rondas ya presentes
// se reemplazan: el histórico on-chain es inmutable, así que un re-import
// solo puede reescribir valores idénticos.
func (s *RoundStore) InsertRounds(ctx context.Context, rounds []domain.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.RoundStore.InsertRounds: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO rounds (round_id, starting_price, ending_price)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.RoundStore.InsertRounds: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rounds {
		if _, err := stmt.ExecContext(ctx, r.RoundID, r.StartingPrice, r.EndingPrice); err != nil {
			return fmt.Errorf("storage.RoundStore.InsertRounds: insert round %d: %w", r.RoundID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.RoundStore.InsertRounds: commit: %w", err)
	}
	return nil
}
