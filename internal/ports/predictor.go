package ports

// Predictor es el modelo ensemble que produce una probabilidad direccional
// a partir de features ingenierizadas. El core no conoce sus internals:
// solo exige que Predict, tras Train, devuelva p en [0,1] donde el signo
// de (p − 0.5) indica el sesgo direccional.
//
// Las llamadas son síncronas y potencialmente lentas; el worker las hace
// fuera de los caminos de eviction de ventana y de checkpointing.
type Predictor interface {
	Train(features [][]float64, labels []int) error
	Predict(features []float64) (float64, error)
}
