package ports

import (
	"context"

	"github.com/alejandrodnm/predictsim/internal/domain"
)

// CheckpointStore persiste el cursor de progreso de cada worker, clave por
// worker id. Cada fila pertenece en exclusiva a un worker; el coordinator
// solo las lista al arrancar para decidir si retoma una ejecución anterior.
type CheckpointStore interface {
	// Get devuelve el checkpoint del worker, o nil si no existe.
	Get(ctx context.Context, workerID int) (*domain.CheckpointEntry, error)

	// Put crea o actualiza el checkpoint del worker.
	Put(ctx context.Context, entry domain.CheckpointEntry) error

	// Delete borra el checkpoint — marca de partición completada.
	Delete(ctx context.Context, workerID int) error

	// List devuelve todos los checkpoints pendientes, ordenados por worker id.
	List(ctx context.Context) ([]domain.CheckpointEntry, error)
}
