package export

// parquet.go — volcado del ledger a parquet para análisis offline
// (notebooks, duckdb). No forma parte del core del replay.

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/alejandrodnm/predictsim/internal/domain"
)

// BetRow es el DTO plano de una apuesta para el archivo parquet.
type BetRow struct {
	Epoch         int64   `parquet:"epoch"`
	Direction     string  `parquet:"direction"`
	Stake         float64 `parquet:"stake"`
	Outcome       string  `parquet:"outcome"`
	Profit        float64 `parquet:"profit"`
	RoundID       int64   `parquet:"round_id"`
	StartingPrice float64 `parquet:"starting_price"`
}

// WriteParquet escribe todos los registros en la ruta dada.
func WriteParquet(path string, records []domain.BetRecord) error {
	rows := make([]BetRow, len(records))
	for i, r := range records {
		rows[i] = BetRow{
			Epoch:         r.Epoch,
			Direction:     r.Direction.String(),
			Stake:         r.Stake,
			Outcome:       r.Outcome.String(),
			Profit:        r.Profit,
			RoundID:       r.RoundID,
			StartingPrice: r.StartingPrice,
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("export.WriteParquet: %q: %w", path, err)
	}
	return nil
}
