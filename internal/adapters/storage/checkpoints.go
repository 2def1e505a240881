package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/predictsim/internal/domain"
)

// CheckpointStore implementa ports.CheckpointStore sobre la tabla
// `checkpoints`. Cada fila pertenece en exclusiva a un worker, así que no
// hay coordinación entre escritores: el upsert por primary key basta.
type CheckpointStore struct {
	db *sql.DB
}

// NewCheckpointStore crea el store sobre una base de datos ya abierta.
func NewCheckpointStore(db *sql.DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

// Get devuelve el checkpoint del worker, o nil si no existe.
func (s *CheckpointStore) Get(ctx context.Context, workerID int) (*domain.CheckpointEntry, error) {
	var e domain.CheckpointEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT worker_id, last_offset, end_offset, processed
		FROM checkpoints WHERE worker_id = ?
	`, workerID).Scan(&e.WorkerID, &e.LastProcessedOffset, &e.EndOffset, &e.ProcessedCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.CheckpointStore.Get: worker %d: %w", workerID, err)
	}
	return &e, nil
}

// Put crea o actualiza el cursor del worker tras un batch procesado.
func (s *CheckpointStore) Put(ctx context.Context, entry domain.CheckpointEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (worker_id, last_offset, end_offset, processed, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(worker_id) DO UPDATE SET
			last_offset = excluded.last_offset,
			end_offset  = excluded.end_offset,
			processed   = excluded.processed,
			updated_at  = excluded.updated_at
	`, entry.WorkerID, entry.LastProcessedOffset, entry.EndOffset, entry.ProcessedCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage.CheckpointStore.Put: worker %d: %w", entry.WorkerID, err)
	}
	return nil
}

// Delete borra el checkpoint del worker — marca de partición completada.
func (s *CheckpointStore) Delete(ctx context.Context, workerID int) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE worker_id = ?`, workerID,
	); err != nil {
		return fmt.Errorf("storage.CheckpointStore.Delete: worker %d: %w", workerID, err)
	}
	return nil
}

// List devuelve todos los checkpoints pendientes ordenados por worker id.
// Lista no vacía al arrancar = ejecución anterior interrumpida.
func (s *CheckpointStore) List(ctx context.Context) ([]domain.CheckpointEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT worker_id, last_offset, end_offset, processed
		FROM checkpoints ORDER BY worker_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.CheckpointStore.List: query: %w", err)
	}
	defer rows.Close()

	var out []domain.CheckpointEntry
	for rows.Next() {
		var e domain.CheckpointEntry
		if err := rows.Scan(&e.WorkerID, &e.LastProcessedOffset, &e.EndOffset, &e.ProcessedCount); err != nil {
			return nil, fmt.Errorf("storage.CheckpointStore.List: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
