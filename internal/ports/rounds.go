package ports

import (
	"context"

	"github.com/alejandrodnm/predictsim/internal/domain"
)

// RoundSource es el acceso de solo lectura, ordenado y direccionable por
// offset al histórico de rondas. Compartido entre todos los workers sin
// locking: nadie lo muta durante un backtest.
type RoundSource interface {
	// Count devuelve el total de rondas disponibles.
	Count(ctx context.Context) (int64, error)

	// Fetch devuelve hasta `limit` rondas empezando en la posición `offset`
	// del orden por RoundID ascendente. El offset es posición, no RoundID.
	Fetch(ctx context.Context, offset, limit int64) ([]domain.Round, error)
}

// RoundWriter carga rondas históricas en el almacén. Lo usan el importer
// on-chain y los fixtures de test, nunca el core del backtest.
type RoundWriter interface {
	InsertRounds(ctx context.Context, rounds []domain.Round) error
}
