package ports

import (
	"context"
	"time"
)

// RunnerSnapshot es el estado observable de un runner para el presentador.
type RunnerSnapshot struct {
	Symbol       string
	Status       string // mensaje rodante corto
	LastError    string
	Slug         string
	Question     string
	EndDate      time.Time
	AskYES       float64
	AskNO        float64
	QtyYES       float64
	QtyNO        float64
	AvgYES       float64
	AvgNO        float64
	Imbalance    float64
	Exposure     float64
	LockedProfit float64
	Trades       int // fills de la instancia activa
	TradesTotal  int // fills acumulados de la sesión
}

// PairCost devuelve la suma de asks, 0 si falta alguna cotización.
func (s RunnerSnapshot) PairCost() float64 {
	if s.AskYES <= 0 || s.AskNO <= 0 {
		return 0
	}
	return s.AskYES + s.AskNO
}

// Notifier presenta el estado agregado de los runners al usuario.
type Notifier interface {
	// Notify repinta el estado de todos los símbolos seguidos.
	Notify(ctx context.Context, snapshots []RunnerSnapshot) error
}
