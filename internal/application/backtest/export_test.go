package backtest

import "github.com/alejandrodnm/predictsim/internal/domain"

// PartitionsForTest expone el mapeo checkpoint → partición a los tests.
func PartitionsForTest(entries []domain.CheckpointEntry) []Partition {
	return partitionsFromCheckpoints(entries)
}
