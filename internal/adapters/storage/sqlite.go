package storage

// sqlite.go — base de datos compartida del backtest.
//
// Un solo archivo SQLite (pure Go, sin CGo) con tres tablas:
//   - `rounds`: histórico inmutable de rondas, fuente de verdad del replay.
//   - `checkpoints`: cursor durable por worker; su presencia al arrancar
//     señala una ejecución interrumpida que hay que retomar.
//   - `bets`: ledger append-only de apuestas resueltas. El índice único por
//     round_id hace idempotente el replay tras un crash: un batch re-procesado
//     se ignora en vez de duplicar filas.

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
    round_id       INTEGER PRIMARY KEY,
    starting_price REAL NOT NULL,
    ending_price   REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS checkpoints (
    worker_id   INTEGER PRIMARY KEY,
    last_offset INTEGER NOT NULL,
    end_offset  INTEGER NOT NULL,
    processed   INTEGER NOT NULL DEFAULT 0,
    updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS bets (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    epoch          INTEGER NOT NULL,
    direction      TEXT    NOT NULL,
    stake          REAL    NOT NULL,
    outcome        TEXT    NOT NULL,
    profit         REAL    NOT NULL,
    round_id       INTEGER NOT NULL,
    starting_price REAL    NOT NULL,
    recorded_at    DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_bets_round   ON bets(round_id);
CREATE INDEX        IF NOT EXISTS idx_bets_outcome ON bets(outcome);
`

// Open abre (o crea) la base de datos en la ruta dada y aplica el schema.
// Usa ":memory:" en tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.Open: open %q: %w", path, err)
	}
	// SQLite es single-writer: una sola conexión serializa los batches de
	// los workers sin SQLITE_BUSY. La independencia entre filas hace que
	// el orden de serialización no importe.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.Open: apply schema: %w", err)
	}
	return db, nil
}
