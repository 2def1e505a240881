package backtest

// memory.go — control de admisión por memoria, deliberadamente tosco.
//
// Antes de cada fetch el worker comprueba la fracción de memoria del sistema
// en uso contra un techo configurado; si se supera, pausa un intervalo fijo
// y reintenta en vez de traer más datos. Es el único mecanismo de
// backpressure del engine.

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/mem"
)

const memoryPauseDelay = 250 * time.Millisecond

// MemoryGuard consulta el uso de memoria del sistema vía gopsutil.
// usedFraction es inyectable en tests.
type MemoryGuard struct {
	ceiling      float64 // fracción de la memoria total, p.ej. 0.85
	usedFraction func() (float64, error)
}

// NewMemoryGuard crea un guard con el techo dado. Un techo <= 0 o >= 1
// desactiva la comprobación.
func NewMemoryGuard(ceiling float64) *MemoryGuard {
	return &MemoryGuard{ceiling: ceiling, usedFraction: systemUsedFraction}
}

// Wait bloquea hasta que el uso de memoria baje del techo o el contexto se
// cancele. Un fallo al leer las métricas no bloquea el replay: se loguea y
// se deja pasar.
func (g *MemoryGuard) Wait(ctx context.Context) error {
	if g.ceiling <= 0 || g.ceiling >= 1 {
		return nil
	}

	for {
		used, err := g.usedFraction()
		if err != nil {
			slog.Warn("memory probe failed, skipping backpressure check", "err", err)
			return nil
		}
		if used < g.ceiling {
			return nil
		}

		slog.Debug("memory ceiling hit, pausing fetch",
			"used_fraction", used,
			"ceiling", g.ceiling,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(memoryPauseDelay):
		}
	}
}

func systemUsedFraction() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent / 100, nil
}
