package domain

// Round es una ronda histórica de predicción: precio al bloquear (lock)
// y precio al cerrar. Inmutable una vez escrita — es la fuente de verdad
// del replay. El orden canónico es por RoundID ascendente; los offsets
// son posiciones en ese orden, no valores de RoundID.
type Round struct {
	RoundID       int64
	StartingPrice float64
	EndingPrice   float64
}

// Direction es la dirección de una decisión de apuesta.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionBull
	DirectionBear
)

func (d Direction) String() string {
	switch d {
	case DirectionBull:
		return "bull"
	case DirectionBear:
		return "bear"
	default:
		return "none"
	}
}

// ParseDirection convierte la forma persistida ("bull"/"bear") de vuelta al enum.
func ParseDirection(s string) Direction {
	switch s {
	case "bull":
		return DirectionBull
	case "bear":
		return DirectionBear
	default:
		return DirectionNone
	}
}

// Outcome es el resultado realizado de una apuesta.
type Outcome int

const (
	OutcomeLose Outcome = iota
	OutcomeWin
)

func (o Outcome) String() string {
	if o == OutcomeWin {
		return "win"
	}
	return "lose"
}

// Decision es la salida del PredictionEngine para una ronda.
// Se produce fresca por ronda; solo persiste como parte de un BetRecord.
type Decision struct {
	Direction  Direction
	Stake      float64
	Confidence float64
}

// BetRecord es una apuesta simulada ya resuelta. Inmutable tras su creación:
// en un backtest el outcome se conoce al crearla, a diferencia del trading
// en vivo. Se crea una por ronda con decisión distinta de none y stake > 0.
type BetRecord struct {
	Epoch         int64
	Direction     Direction
	Stake         float64
	Outcome       Outcome
	Profit        float64
	RoundID       int64
	StartingPrice float64
}

// winPayoutFactor refleja el 5% de fee de plataforma sobre las ganancias.
const winPayoutFactor = 0.95

// Settle resuelve una decisión contra el movimiento realizado de la ronda.
//
// Regla única de empate: una ronda plana (EndingPrice == StartingPrice) se
// cuenta como pérdida para ambas direcciones. Las fuentes históricas eran
// inconsistentes aquí; esta es la política elegida y vive solo en esta función.
func Settle(r Round, d Decision) BetRecord {
	var won bool
	switch d.Direction {
	case DirectionBull:
		won = r.EndingPrice > r.StartingPrice
	case DirectionBear:
		won = r.EndingPrice < r.StartingPrice
	}

	rec := BetRecord{
		Epoch:         r.RoundID,
		Direction:     d.Direction,
		Stake:         d.Stake,
		RoundID:       r.RoundID,
		StartingPrice: r.StartingPrice,
	}
	if won {
		rec.Outcome = OutcomeWin
		rec.Profit = d.Stake * winPayoutFactor
	} else {
		rec.Outcome = OutcomeLose
		rec.Profit = -d.Stake
	}
	return rec
}

// CheckpointEntry es el cursor durable de un worker sobre su partición.
// Se crea al asignar la partición, se actualiza tras cada batch procesado
// y se borra al completar la partición. Su presencia al arrancar el
// coordinator señala una ejecución recuperada de un crash.
type CheckpointEntry struct {
	WorkerID            int
	LastProcessedOffset int64
	EndOffset           int64
	ProcessedCount      int64
}

// Summary es el agregado derivado del ledger — nunca se almacena.
type Summary struct {
	TotalBets   int64
	Wins        int64
	Losses      int64
	TotalProfit float64
}

// WinRate devuelve la fracción de apuestas ganadas, 0 si no hubo apuestas.
func (s Summary) WinRate() float64 {
	if s.TotalBets == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.TotalBets)
}
