package predictor

// logistic.go — ensemble de regresiones logísticas.
//
// El core solo exige el contrato Train/Predict con probabilidad en [0,1];
// este adapter lo cumple con un ensemble pequeño: varios learners idénticos
// entrenados por descenso de gradiente desde inicializaciones con semillas
// distintas, promediados al predecir. Determinista para un mismo dataset.

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var errNotTrained = errors.New("predictor: model not trained")

// Ensemble implementa ports.Predictor. No es seguro para uso concurrente:
// cada worker del backtest construye el suyo.
type Ensemble struct {
	models []*logistic
	epochs int
	lr     float64
}

// NewEnsemble crea un ensemble de `size` learners (mínimo 1).
func NewEnsemble(size int) *Ensemble {
	if size < 1 {
		size = 1
	}
	e := &Ensemble{epochs: 60, lr: 0.3}
	for i := 0; i < size; i++ {
		e.models = append(e.models, &logistic{seed: int64(i + 1)})
	}
	return e
}

// Train ajusta cada learner contra el dataset completo. Reemplaza cualquier
// entrenamiento anterior.
func (e *Ensemble) Train(features [][]float64, labels []int) error {
	if len(features) == 0 || len(features) != len(labels) {
		return fmt.Errorf("predictor.Train: %d feature rows vs %d labels", len(features), len(labels))
	}
	dim := len(features[0])
	for i, row := range features {
		if len(row) != dim {
			return fmt.Errorf("predictor.Train: row %d has dim %d, want %d", i, len(row), dim)
		}
	}

	for _, m := range e.models {
		m.fit(features, labels, e.epochs, e.lr)
	}
	return nil
}

// Predict devuelve la probabilidad media del ensemble de que el siguiente
// movimiento sea alcista. El signo de (p − 0.5) es el sesgo direccional.
func (e *Ensemble) Predict(features []float64) (float64, error) {
	if len(e.models) == 0 || e.models[0].weights == nil {
		return 0, errNotTrained
	}
	if len(features) != len(e.models[0].weights) {
		return 0, fmt.Errorf("predictor.Predict: feature dim %d, want %d",
			len(features), len(e.models[0].weights))
	}

	sum := 0.0
	for _, m := range e.models {
		sum += m.predict(features)
	}
	p := sum / float64(len(e.models))
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, errors.New("predictor.Predict: non-finite probability")
	}
	return p, nil
}

// logistic es un learner individual: regresión logística con SGD.
type logistic struct {
	seed    int64
	weights []float64
	bias    float64
}

func (m *logistic) fit(features [][]float64, labels []int, epochs int, lr float64) {
	dim := len(features[0])
	rng := rand.New(rand.NewSource(m.seed))

	m.weights = make([]float64, dim)
	for i := range m.weights {
		m.weights[i] = rng.NormFloat64() * 0.01
	}
	m.bias = 0

	order := rng.Perm(len(features))
	for epoch := 0; epoch < epochs; epoch++ {
		for _, idx := range order {
			x := features[idx]
			err := m.predict(x) - float64(labels[idx])
			for j, xj := range x {
				m.weights[j] -= lr * err * xj
			}
			m.bias -= lr * err
		}
	}
}

func (m *logistic) predict(x []float64) float64 {
	z := m.bias
	for j, w := range m.weights {
		z += w * x[j]
	}
	return 1 / (1 + math.Exp(-z))
}
