package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryGuard_DisabledCeiling(t *testing.T) {
	for _, ceiling := range []float64{0, -1, 1, 1.5} {
		g := NewMemoryGuard(ceiling)
		g.usedFraction = func() (float64, error) {
			t.Fatal("probe must not run with disabled ceiling")
			return 0, nil
		}
		assert.NoError(t, g.Wait(context.Background()))
	}
}

func TestMemoryGuard_PassesWhenUnderCeiling(t *testing.T) {
	g := NewMemoryGuard(0.85)
	g.usedFraction = func() (float64, error) { return 0.40, nil }
	assert.NoError(t, g.Wait(context.Background()))
}

func TestMemoryGuard_PausesUntilUnderCeiling(t *testing.T) {
	g := NewMemoryGuard(0.85)

	// Dos sondas por encima del techo, luego libre
	calls := 0
	g.usedFraction = func() (float64, error) {
		calls++
		if calls <= 2 {
			return 0.95, nil
		}
		return 0.50, nil
	}

	assert.NoError(t, g.Wait(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestMemoryGuard_ContextCancelWhileOverCeiling(t *testing.T) {
	g := NewMemoryGuard(0.85)
	g.usedFraction = func() (float64, error) { return 0.99, nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, g.Wait(ctx), context.Canceled)
}

func TestMemoryGuard_ProbeFailureDoesNotBlock(t *testing.T) {
	g := NewMemoryGuard(0.85)
	g.usedFraction = func() (float64, error) { return 0, errors.New("no procfs") }

	// Un fallo de métrica no debe parar el replay
	assert.NoError(t, g.Wait(context.Background()))
}
