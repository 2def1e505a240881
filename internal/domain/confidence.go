package domain

// confidence.go — score técnico heurístico.
//
// Cada indicador aporta un peso con signo en {-2, -1, 0, +1, +2} según
// comparaciones de umbral; el score total es la suma sin normalizar.
// La normalización ocurre en el sizing, no aquí.

// Thresholds son los umbrales del scorer. Superficie de configuración:
// nada de esto está cableado en la lógica.
type Thresholds struct {
	RSIOversold     float64 // típicamente 30
	RSIOverbought   float64 // típicamente 70
	StochOversold   float64 // típicamente 20
	StochOverbought float64 // típicamente 80
}

// DefaultThresholds devuelve los umbrales clásicos.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIOversold:     30,
		RSIOverbought:   70,
		StochOversold:   20,
		StochOverbought: 80,
	}
}

// IndicatorSnapshot agrupa el último valor de cada indicador más el precio
// actual, entrada del scorer.
type IndicatorSnapshot struct {
	Price      float64
	RSI        float64
	SMA        float64
	EMA        float64
	MACD       MACDResult
	Bollinger  BollingerBands
	Stochastic StochasticResult
}

// TechnicalScore suma las contribuciones independientes de cada indicador.
// Positivo = sesgo alcista, negativo = bajista. Rango efectivo [-10, +10].
func TechnicalScore(s IndicatorSnapshot, t Thresholds) int {
	score := 0
	score += rsiContribution(s.RSI, t)
	score += stochasticContribution(s.Stochastic.K, t)
	score += macdContribution(s.MACD)
	score += bollingerContribution(s.Price, s.Bollinger)
	score += movingAverageContribution(s.Price, s.SMA)
	score += movingAverageContribution(s.Price, s.EMA)
	return score
}

// rsiContribution: sobreventa = señal alcista (contrarian), sobrecompra = bajista.
// Zona intermedia cerca del umbral aporta ±1.
func rsiContribution(rsi float64, t Thresholds) int {
	switch {
	case rsi <= t.RSIOversold:
		return +2
	case rsi <= t.RSIOversold+10:
		return +1
	case rsi >= t.RSIOverbought:
		return -2
	case rsi >= t.RSIOverbought-10:
		return -1
	}
	return 0
}

func stochasticContribution(k float64, t Thresholds) int {
	switch {
	case k <= t.StochOversold:
		return +2
	case k >= t.StochOverbought:
		return -2
	}
	return 0
}

// macdContribution: cruce de líneas (histograma) ±1, reforzado a ±2 si la
// línea MACD además está del mismo lado de cero.
func macdContribution(m MACDResult) int {
	switch {
	case m.Histogram > 0 && m.MACD > 0:
		return +2
	case m.Histogram > 0:
		return +1
	case m.Histogram < 0 && m.MACD < 0:
		return -2
	case m.Histogram < 0:
		return -1
	}
	return 0
}

// bollingerContribution: penetración de banda. Precio bajo la banda inferior
// = sobreventa (alcista), sobre la superior = sobrecompra (bajista).
func bollingerContribution(price float64, b BollingerBands) int {
	switch {
	case price <= b.Lower:
		return +2
	case price >= b.Upper:
		return -2
	}
	return 0
}

func movingAverageContribution(price, ma float64) int {
	switch {
	case price > ma:
		return +1
	case price < ma:
		return -1
	}
	return 0
}
