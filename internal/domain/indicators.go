package domain

// indicators.go — indicadores técnicos como funciones puras sobre una
// secuencia cronológica de precios.
//
// Todas devuelven ErrInsufficientData exactamente cuando la entrada es más
// corta que su mínimo declarado, nunca con más datos de los necesarios.
// Ninguna hace panic: los casos degenerados (rango plano, pérdida media
// cero) tienen valores definidos.

import (
	"errors"
	"math"
)

// ErrInsufficientData señala que la secuencia de precios es demasiado corta
// para el periodo pedido. No es fatal: el caller degrada a una decisión nula.
var ErrInsufficientData = errors.New("insufficient price data")

// RSI calcula el Relative Strength Index con suavizado de Wilder.
// Necesita al menos period+1 precios (period deltas para la semilla).
// Si la pérdida media es 0 devuelve 100.
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 || len(prices) < period+1 {
		return 0, ErrInsufficientData
	}

	// Semilla: media de ganancias/pérdidas de los primeros `period` deltas
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Suavizado recursivo de Wilder para el resto
	for i := period + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// SMA calcula la media móvil simple trailing sobre los últimos `period` precios.
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 || len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), nil
}

// EMA calcula la media móvil exponencial: semilla = SMA de los primeros
// `period` precios, luego ema = precio*k + ema*(1-k) con k = 2/(period+1).
func EMA(prices []float64, period int) (float64, error) {
	series := emaSeries(prices, period)
	if series == nil {
		return 0, ErrInsufficientData
	}
	return series[len(series)-1], nil
}

// emaSeries devuelve la serie EMA completa: un valor por posición desde
// period-1 hasta el final. nil si no hay datos suficientes.
func emaSeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}
	out := make([]float64, 0, len(prices)-period+1)

	seed := 0.0
	for _, p := range prices[:period] {
		seed += p
	}
	ema := seed / float64(period)
	out = append(out, ema)

	k := 2.0 / (float64(period) + 1)
	for _, p := range prices[period:] {
		ema = p*k + ema*(1-k)
		out = append(out, ema)
	}
	return out
}

// MACDResult agrupa las tres salidas del MACD.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD calcula la línea MACD (EMA rápida − EMA lenta, punto a punto sobre la
// cola solapada), la señal (EMA de la línea MACD) y el histograma.
// Necesita al menos slow+signalPeriod precios.
func MACD(prices []float64, fast, slow, signalPeriod int) (MACDResult, error) {
	if fast <= 0 || slow <= fast || signalPeriod <= 0 || len(prices) < slow+signalPeriod {
		return MACDResult{}, ErrInsufficientData
	}

	fastSeries := emaSeries(prices, fast)
	slowSeries := emaSeries(prices, slow)

	// Alinear colas: la serie lenta es más corta, recortar la rápida
	offset := len(fastSeries) - len(slowSeries)
	macdLine := make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdLine[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalSeries := emaSeries(macdLine, signalPeriod)
	if signalSeries == nil {
		return MACDResult{}, ErrInsufficientData
	}

	macd := macdLine[len(macdLine)-1]
	signal := signalSeries[len(signalSeries)-1]
	return MACDResult{MACD: macd, Signal: signal, Histogram: macd - signal}, nil
}

// BollingerBands son las bandas de Bollinger: media ± k·desviación estándar
// poblacional de la ventana.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger calcula las bandas sobre los últimos `period` precios.
func Bollinger(prices []float64, period int, k float64) (BollingerBands, error) {
	middle, err := SMA(prices, period)
	if err != nil {
		return BollingerBands{}, err
	}

	window := prices[len(prices)-period:]
	variance := 0.0
	for _, p := range window {
		d := p - middle
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(period))

	return BollingerBands{
		Upper:  middle + k*stddev,
		Middle: middle,
		Lower:  middle - k*stddev,
	}, nil
}

// StochasticResult es el oscilador estocástico: %K y su media móvil %D.
type StochasticResult struct {
	K float64
	D float64
}

// Stochastic calcula %K = (close − low) / (high − low) × 100 sobre los últimos
// `period` precios y %D como SMA de los últimos dPeriod valores de %K.
// Un rango plano (high == low) produce un %K neutro de 50 en vez de dividir
// por cero.
func Stochastic(prices []float64, period, dPeriod int) (StochasticResult, error) {
	if period <= 0 || dPeriod <= 0 || len(prices) < period {
		return StochasticResult{}, ErrInsufficientData
	}

	// Serie %K para cada fin de ventana disponible
	kValues := make([]float64, 0, len(prices)-period+1)
	for end := period; end <= len(prices); end++ {
		kValues = append(kValues, stochasticK(prices[end-period:end]))
	}

	n := dPeriod
	if n > len(kValues) {
		n = len(kValues)
	}
	sum := 0.0
	for _, k := range kValues[len(kValues)-n:] {
		sum += k
	}

	return StochasticResult{
		K: kValues[len(kValues)-1],
		D: sum / float64(n),
	}, nil
}

func stochasticK(window []float64) float64 {
	low, high := window[0], window[0]
	for _, p := range window[1:] {
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}
	if high == low {
		return 50 // rango plano: sin señal direccional
	}
	close := window[len(window)-1]
	return (close - low) / (high - low) * 100
}
