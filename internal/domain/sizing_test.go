package domain_test

import (
	"math"
	"testing"

	"github.com/alejandrodnm/predictsim/internal/domain"
	"github.com/stretchr/testify/assert"
)

var testSizer = domain.BetSizer{
	MinStake: 0.001,
	MaxStake: 0.05,
	MinScore: -5,
	MaxScore: 5,
}

func TestBetSizer_AlwaysWithinBounds(t *testing.T) {
	inputs := []float64{
		-1000, -5, -0.5, 0, 0.5, 5, 1000,
		math.Inf(1), math.Inf(-1), math.MaxFloat64, -math.MaxFloat64,
	}
	for _, score := range inputs {
		stake := testSizer.Stake(score)
		assert.GreaterOrEqual(t, stake, testSizer.MinStake, "score %v", score)
		assert.LessOrEqual(t, stake, testSizer.MaxStake, "score %v", score)
	}
}

func TestBetSizer_MonotoneWithinRange(t *testing.T) {
	prev := testSizer.Stake(testSizer.MinScore)
	for score := testSizer.MinScore; score <= testSizer.MaxScore; score += 0.1 {
		stake := testSizer.Stake(score)
		assert.GreaterOrEqual(t, stake, prev, "score %v", score)
		prev = stake
	}
}

func TestBetSizer_NaNFallsBackToMinStake(t *testing.T) {
	assert.Equal(t, testSizer.MinStake, testSizer.Stake(math.NaN()))
}

func TestBetSizer_ClampBeforeSigmoid(t *testing.T) {
	// Un score desorbitado debe dar lo mismo que el límite del clamp:
	// nunca llega crudo a la exponencial
	assert.Equal(t, testSizer.Stake(testSizer.MaxScore), testSizer.Stake(1e308))
	assert.Equal(t, testSizer.Stake(testSizer.MinScore), testSizer.Stake(-1e308))
}

func TestBetSizer_MidpointScore(t *testing.T) {
	// sigmoid(0) = 0.5 → stake a mitad de camino entre min y max
	got := testSizer.Stake(0)
	want := testSizer.MinStake + 0.5*(testSizer.MaxStake-testSizer.MinStake)
	assert.InDelta(t, want, got, 1e-12)
}
