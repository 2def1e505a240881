package domain_test

import (
	"math"
	"testing"

	"github.com/alejandrodnm/predictsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisyPrices(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 3*math.Sin(float64(i)/3) + float64(i)*0.05
	}
	return out
}

func TestFeatures_NilWhenTooShort(t *testing.T) {
	assert.Nil(t, domain.Features(noisyPrices(39)))
	assert.NotNil(t, domain.Features(noisyPrices(40)))
}

func TestFeatures_FixedDimension(t *testing.T) {
	for _, n := range []int{40, 60, 100} {
		feats := domain.Features(noisyPrices(n))
		require.Len(t, feats, domain.FeatureDim, "con %d precios", n)
		for i, f := range feats {
			assert.False(t, math.IsNaN(f) || math.IsInf(f, 0), "feature %d no finita", i)
		}
	}
}

func TestFeatures_FlatWindowHasNoSignal(t *testing.T) {
	// Varianza cero: no hay nada que aprender → sin features
	assert.Nil(t, domain.Features(flatPrices(100, 100)))
}

func TestLabels(t *testing.T) {
	labels := domain.Labels([]float64{100, 101, 101, 99, 105})
	assert.Equal(t, []int{1, 0, 0, 1}, labels)

	assert.Nil(t, domain.Labels([]float64{100}))
}

func TestTrainingSet_AlignedRowsAndLabels(t *testing.T) {
	prices := noisyPrices(60)
	rows, labels := domain.TrainingSet(prices)

	require.NotEmpty(t, rows)
	require.Len(t, labels, len(rows))
	for _, row := range rows {
		assert.Len(t, row, domain.FeatureDim)
	}

	// Cada label refleja el movimiento siguiente a su fila
	all := domain.Labels(prices)
	assert.Equal(t, all[len(prices)-2], labels[len(labels)-1])
}

func TestTrainingSet_TooShort(t *testing.T) {
	rows, labels := domain.TrainingSet(noisyPrices(40))
	assert.Nil(t, rows)
	assert.Nil(t, labels)
}
