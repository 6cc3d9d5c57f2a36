package storage

// sqlite.go — journal de ejecución en SQLite.
//
// Estrategia:
//   - `fills`: una fila por fill confirmado. Es el registro autoritativo de
//     lo que el bot compró, con el intent id para correlacionar con los logs.
//   - `cycles`: resumen ligero por instancia de mercado terminada. Siempre
//     una fila, solo si hubo trades.
//   - Prune automático al arrancar: todo lo anterior a 30 días se borra.
//     Los mercados duran 15 minutos; el histórico viejo no aporta señal.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/hedgebot/internal/domain"
	"github.com/alejandrodnm/hedgebot/internal/ports"
)

const schema = `
-- Un fill confirmado por el venue
CREATE TABLE IF NOT EXISTS fills (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    intent_id TEXT     NOT NULL,
    symbol    TEXT     NOT NULL,
    slug      TEXT     NOT NULL,
    outcome   TEXT     NOT NULL,
    price     REAL     NOT NULL,
    size      REAL     NOT NULL,
    pure_arb  INTEGER  NOT NULL DEFAULT 0,
    filled_at DATETIME NOT NULL
);

-- Resumen por instancia de mercado terminada
CREATE TABLE IF NOT EXISTS cycles (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol        TEXT     NOT NULL,
    slug          TEXT     NOT NULL,
    qty_yes       REAL     NOT NULL DEFAULT 0,
    cost_yes      REAL     NOT NULL DEFAULT 0,
    qty_no        REAL     NOT NULL DEFAULT 0,
    cost_no       REAL     NOT NULL DEFAULT 0,
    locked_profit REAL     NOT NULL DEFAULT 0,
    trades        INTEGER  NOT NULL DEFAULT 0,
    ended_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_at     ON fills(filled_at DESC);
CREATE INDEX IF NOT EXISTS idx_fills_slug   ON fills(slug);
CREATE INDEX IF NOT EXISTS idx_cycles_at    ON cycles(ended_at DESC);
CREATE INDEX IF NOT EXISTS idx_cycles_sym   ON cycles(symbol);
`

const retention = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.FillStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveFill registra un fill confirmado.
func (s *SQLiteStorage) SaveFill(ctx context.Context, fill ports.FillRecord) error {
	pureArb := 0
	if fill.PureArb {
		pureArb = 1
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO fills (intent_id, symbol, slug, outcome, price, size, pure_arb, filled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fill.IntentID, fill.Symbol, fill.Slug, string(fill.Outcome),
		fill.Price, fill.Size, pureArb, fill.FilledAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("storage.SaveFill: insert: %w", err)
	}
	return nil
}

// SaveCycle registra el resumen de una instancia terminada.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, cycle ports.CycleRecord) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (symbol, slug, qty_yes, cost_yes, qty_no, cost_no, locked_profit, trades, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cycle.Symbol, cycle.Slug,
		cycle.QtyYES, cycle.CostYES, cycle.QtyNO, cycle.CostNO,
		cycle.LockedProfit, cycle.Trades, cycle.EndedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert: %w", err)
	}
	return nil
}

// RecentFills devuelve los fills desde la fecha dada, más recientes primero.
func (s *SQLiteStorage) RecentFills(ctx context.Context, since time.Time) ([]ports.FillRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intent_id, symbol, slug, outcome, price, size, pure_arb, filled_at
		FROM fills
		WHERE filled_at >= ?
		ORDER BY filled_at DESC
	`, since.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("storage.RecentFills: query: %w", err)
	}
	defer rows.Close()

	var fills []ports.FillRecord
	for rows.Next() {
		var fill ports.FillRecord
		var outcome, filledAt string
		var pureArb int
		if err := rows.Scan(
			&fill.IntentID, &fill.Symbol, &fill.Slug, &outcome,
			&fill.Price, &fill.Size, &pureArb, &filledAt,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentFills: scan row: %w", err)
		}
		fill.Outcome = domain.Outcome(outcome)
		fill.PureArb = pureArb == 1
		fill.FilledAt, _ = time.Parse(time.RFC3339, filledAt)
		fills = append(fills, fill)
	}
	return fills, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
	s.db.ExecContext(ctx, `DELETE FROM fills WHERE filled_at < ?`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE ended_at < ?`, cutoff)
}
