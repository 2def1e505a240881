package ports

import (
	"context"

	"github.com/alejandrodnm/predictsim/internal/domain"
)

// BetLedger es el registro append-only de apuestas resueltas. Acepta
// escritores concurrentes: cada fila es independiente y cada batch va en
// su propia transacción.
type BetLedger interface {
	// AppendBatch persiste los registros de golpe, todo-o-nada.
	AppendBatch(ctx context.Context, records []domain.BetRecord) error

	// Summary agrega el ledger completo: apuestas, wins, losses, profit.
	Summary(ctx context.Context) (domain.Summary, error)
}
