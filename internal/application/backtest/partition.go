package backtest

import "github.com/alejandrodnm/predictsim/internal/domain"

// Partition es un sub-rango contiguo y disjunto de offsets de ronda
// asignado a un worker. [Start, End) en posiciones del orden por round id.
type Partition struct {
	WorkerID int
	Start    int64
	End      int64
}

// SplitRange reparte [0, total) en `parts` particiones contiguas y sin
// solapamiento; la última absorbe el resto de la división entera. Con
// total == 0 no hay particiones.
func SplitRange(total int64, parts int) []Partition {
	if total <= 0 || parts <= 0 {
		return nil
	}
	if int64(parts) > total {
		parts = int(total)
	}

	size := total / int64(parts)
	out := make([]Partition, parts)
	for i := 0; i < parts; i++ {
		out[i] = Partition{
			WorkerID: i,
			Start:    int64(i) * size,
			End:      int64(i+1) * size,
		}
	}
	out[parts-1].End = total
	return out
}

// partitionsFromCheckpoints reconstruye las particiones pendientes de una
// ejecución interrumpida: cada checkpoint retoma desde su último offset
// confirmado, ignorando el reparto original.
func partitionsFromCheckpoints(entries []domain.CheckpointEntry) []Partition {
	out := make([]Partition, 0, len(entries))
	for _, e := range entries {
		out = append(out, Partition{
			WorkerID: e.WorkerID,
			Start:    e.LastProcessedOffset,
			End:      e.EndOffset,
		})
	}
	return out
}
