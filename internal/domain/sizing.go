package domain

import "math"

// BetSizer mapea la magnitud de confianza a un stake dentro de los límites
// configurados: stake = min + sigmoid(clamp(score)) × (max − min).
//
// El clamp ocurre SIEMPRE antes de la exponencial — un score sin acotar
// nunca llega a math.Exp. Cualquier entrada o resultado no finito cae a
// MinStake en vez de propagarse.
type BetSizer struct {
	MinStake float64
	MaxStake float64
	MinScore float64
	MaxScore float64
}

// Stake calcula el tamaño de apuesta para el score dado.
// Monótono no decreciente en el rango [MinScore, MaxScore], siempre dentro
// de [MinStake, MaxStake].
func (b BetSizer) Stake(score float64) float64 {
	if math.IsNaN(score) {
		return b.MinStake
	}

	clamped := score
	if clamped < b.MinScore {
		clamped = b.MinScore
	}
	if clamped > b.MaxScore {
		clamped = b.MaxScore
	}

	stake := b.MinStake + sigmoid(clamped)*(b.MaxStake-b.MinStake)
	if math.IsNaN(stake) || math.IsInf(stake, 0) {
		return b.MinStake
	}
	return stake
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
