package ports

import (
	"context"

	"github.com/alejandrodnm/predictsim/internal/domain"
)

// Notifier presenta el resultado de un backtest al usuario.
type Notifier interface {
	// NotifySummary muestra el agregado final del ledger.
	// En la implementación de consola, imprime una tabla formateada.
	NotifySummary(ctx context.Context, summary domain.Summary) error
}
