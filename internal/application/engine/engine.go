package engine

// engine.go — orquestación sin estado de una decisión por ronda.
//
// Pipeline: ventana llena → features + labels → probabilidad del ensemble →
// score técnico → score combinado → stake → dirección. Cualquier fallo en
// los pasos intermedios degrada a una decisión nula con stake mínimo; el
// engine nunca es fatal para el worker.

import (
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/predictsim/internal/domain"
	"github.com/alejandrodnm/predictsim/internal/ports"
)

// Config son los parámetros de decisión. Todos llegan de fuera; nada
// está cableado.
type Config struct {
	Thresholds    domain.Thresholds
	Sizer         domain.BetSizer
	BullThreshold float64 // confidence > bull → apostar alcista
	BearThreshold float64 // confidence < bear → apostar bajista
}

// Engine produce una Decision por ronda. Sin estado propio entre llamadas:
// toda la memoria vive en la PriceWindow del worker y en el predictor.
type Engine struct {
	cfg       Config
	predictor ports.Predictor
}

// New crea un Engine con el predictor inyectado.
func New(cfg Config, predictor ports.Predictor) *Engine {
	return &Engine{cfg: cfg, predictor: predictor}
}

// Decide evalúa la ventana actual y devuelve la decisión para la ronda.
//
// Ventana incompleta → {none, 0}. Cualquier otro fallo (features
// insuficientes, predictor caído, score no finito) → {none, MinStake},
// registrado en debug pero nunca propagado.
func (e *Engine) Decide(window *domain.PriceWindow) domain.Decision {
	if !window.Full() {
		return domain.Decision{Direction: domain.DirectionNone, Stake: 0}
	}

	decision, err := e.decide(window.Values())
	if err != nil {
		slog.Debug("prediction degraded to no-op", "err", err)
		return domain.Decision{Direction: domain.DirectionNone, Stake: e.cfg.Sizer.MinStake}
	}
	return decision
}

func (e *Engine) decide(prices []float64) (d domain.Decision, err error) {
	// El predictor es una caja negra: un panic suyo degrada igual que un error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine.decide: predictor panic: %v", r)
		}
	}()

	rows, labels := domain.TrainingSet(prices)
	if len(rows) == 0 {
		return d, fmt.Errorf("engine.decide: %w", domain.ErrInsufficientData)
	}
	if err := e.predictor.Train(rows, labels); err != nil {
		return d, fmt.Errorf("engine.decide: train: %w", err)
	}

	latest := domain.Features(prices)
	if latest == nil {
		return d, fmt.Errorf("engine.decide: %w", domain.ErrInsufficientData)
	}
	p, err := e.predictor.Predict(latest)
	if err != nil {
		return d, fmt.Errorf("engine.decide: predict: %w", err)
	}

	snapshot, err := latestIndicators(prices)
	if err != nil {
		return d, fmt.Errorf("engine.decide: indicators: %w", err)
	}
	technical := domain.TechnicalScore(snapshot, e.cfg.Thresholds)

	combined := (p-0.5)*5 + float64(technical)*0.5
	confidence := combined / 2

	d = domain.Decision{
		Stake:      e.cfg.Sizer.Stake(abs(confidence)),
		Confidence: confidence,
	}
	switch {
	case confidence > e.cfg.BullThreshold:
		d.Direction = domain.DirectionBull
	case confidence < e.cfg.BearThreshold:
		d.Direction = domain.DirectionBear
	default:
		d.Direction = domain.DirectionNone
	}
	return d, nil
}

// latestIndicators calcula el último valor de cada indicador sobre la
// ventana completa.
func latestIndicators(prices []float64) (domain.IndicatorSnapshot, error) {
	var s domain.IndicatorSnapshot
	var err error

	s.Price = prices[len(prices)-1]
	if s.RSI, err = domain.RSI(prices, 14); err != nil {
		return s, err
	}
	if s.SMA, err = domain.SMA(prices, 20); err != nil {
		return s, err
	}
	if s.EMA, err = domain.EMA(prices, 20); err != nil {
		return s, err
	}
	if s.MACD, err = domain.MACD(prices, 12, 26, 9); err != nil {
		return s, err
	}
	if s.Bollinger, err = domain.Bollinger(prices, 20, 2); err != nil {
		return s, err
	}
	if s.Stochastic, err = domain.Stochastic(prices, 14, 3); err != nil {
		return s, err
	}
	return s, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
