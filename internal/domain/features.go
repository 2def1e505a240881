package domain

// features.go — ingeniería de features para el predictor ensemble.
//
// Las features se derivan de una sub-ventana trailing de tamaño fijo
// (featureLookback) para que cada vector tenga la misma dimensión
// independientemente del tamaño de la ventana completa.

import "math"

// featureLookback es la sub-ventana mínima para derivar un vector de
// features; cubre el periodo más largo que consumen (MACD 26+9).
const featureLookback = 40

// FeatureDim es la dimensión fija de los vectores que produce Features.
const FeatureDim = 8

// Features deriva un vector de features del tramo final de la ventana.
// Devuelve nil si no hay datos suficientes — el caller lo trata como
// InsufficientData, no como error fatal.
func Features(window []float64) []float64 {
	if len(window) < featureLookback {
		return nil
	}
	w := window[len(window)-featureLookback:]
	last := w[len(w)-1]
	if last == 0 {
		return nil
	}

	rets := returns(w)
	vol := stddev(rets)
	if vol == 0 {
		// Ventana plana: varianza cero, no hay nada que aprender
		return nil
	}

	rsi, err := RSI(w, 14)
	if err != nil {
		return nil
	}
	sma, err := SMA(w, 20)
	if err != nil || sma == 0 {
		return nil
	}
	macd, err := MACD(w, 12, 26, 9)
	if err != nil {
		return nil
	}
	bb, err := Bollinger(w, 20, 2)
	if err != nil {
		return nil
	}
	stoch, err := Stochastic(w, 14, 3)
	if err != nil {
		return nil
	}

	// Posición dentro de las bandas: 0 = banda inferior, 1 = superior.
	bandPos := 0.5
	if width := bb.Upper - bb.Lower; width > 0 {
		bandPos = (last - bb.Lower) / width
	}

	return []float64{
		rets[len(rets)-1],          // último retorno
		mean(rets[len(rets)-5:]),   // momentum corto
		vol,                        // volatilidad
		rsi/100 - 0.5,              // RSI centrado
		last/sma - 1,               // distancia a la SMA20
		macd.Histogram / last,      // histograma MACD normalizado
		stoch.K/100 - 0.5,          // %K centrado
		bandPos - 0.5,              // posición en las bandas centrada
	}
}

// Labels genera la serie binaria de dirección: labels[i] = 1 si
// window[i+1] > window[i]. Un elemento menos que la entrada.
func Labels(window []float64) []int {
	if len(window) < 2 {
		return nil
	}
	labels := make([]int, len(window)-1)
	for i := 0; i < len(window)-1; i++ {
		if window[i+1] > window[i] {
			labels[i] = 1
		}
	}
	return labels
}

// TrainingSet construye las filas de entrenamiento alineadas: para cada
// posición con lookback completo y sucesor conocido, el vector de features
// en esa posición y la etiqueta del movimiento siguiente.
func TrainingSet(window []float64) ([][]float64, []int) {
	if len(window) < featureLookback+1 {
		return nil, nil
	}
	labels := Labels(window)

	var rows [][]float64
	var ys []int
	for i := featureLookback - 1; i < len(window)-1; i++ {
		row := Features(window[: i+1 : i+1])
		if row == nil {
			continue
		}
		rows = append(rows, row)
		ys = append(ys, labels[i])
	}
	return rows, ys
}

func returns(prices []float64) []float64 {
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			out[i-1] = prices[i]/prices[i-1] - 1
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	v := 0.0
	for _, x := range xs {
		d := x - m
		v += d * d
	}
	return math.Sqrt(v / float64(len(xs)))
}
