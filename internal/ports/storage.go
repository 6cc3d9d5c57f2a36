package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/hedgebot/internal/domain"
)

// FillRecord es un fill confirmado, listo para el journal.
type FillRecord struct {
	IntentID string
	Symbol   string
	Slug     string
	Outcome  domain.Outcome
	Price    float64
	Size     float64
	PureArb  bool
	FilledAt time.Time
}

// CycleRecord resume una instancia de mercado completada.
type CycleRecord struct {
	Symbol       string
	Slug         string
	QtyYES       float64
	CostYES      float64
	QtyNO        float64
	CostNO       float64
	LockedProfit float64
	Trades       int
	EndedAt      time.Time
}

// FillStorage persiste el journal de fills y los resúmenes por ciclo.
type FillStorage interface {
	// SaveFill registra un fill confirmado.
	SaveFill(ctx context.Context, fill FillRecord) error

	// SaveCycle registra el resumen de una instancia terminada.
	SaveCycle(ctx context.Context, cycle CycleRecord) error

	// RecentFills devuelve los fills desde la fecha dada, más recientes primero.
	RecentFills(ctx context.Context, since time.Time) ([]FillRecord, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
