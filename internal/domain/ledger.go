package domain

import "math"

// Ledger lleva la posición de la instancia de mercado activa: cantidad y
// cost basis acumulado por outcome. Dentro de una instancia solo crece —
// las ventas y el settlement quedan fuera del core. Se resetea al rotar y
// se ceba desde el snapshot autoritativo del venue antes de procesar ticks.
type Ledger struct {
	qtyYES  float64
	costYES float64
	qtyNO   float64
	costNO  float64
}

// Reset vacía la posición. Se llama al inicio de cada instancia.
func (l *Ledger) Reset() {
	l.qtyYES = 0
	l.costYES = 0
	l.qtyNO = 0
	l.costNO = 0
}

// Prime carga la posición desde el snapshot del venue. Se llama una vez
// por instancia, antes de cualquier RecordFill.
func (l *Ledger) Prime(yesQty, yesCost, noQty, noCost float64) {
	l.qtyYES = math.Max(yesQty, 0)
	l.costYES = math.Max(yesCost, 0)
	l.qtyNO = math.Max(noQty, 0)
	l.costNO = math.Max(noCost, 0)
}

// RecordFill suma un fill confirmado: size shares a price por share.
// Fills con size o price no positivos se ignoran — la posición nunca decrece.
func (l *Ledger) RecordFill(o Outcome, size, price float64) {
	if size <= 0 || price <= 0 {
		return
	}
	cost := size * price
	if o == OutcomeYES {
		l.qtyYES += size
		l.costYES += cost
	} else {
		l.qtyNO += size
		l.costNO += cost
	}
}

// Quantity devuelve las shares en cartera del outcome.
func (l *Ledger) Quantity(o Outcome) float64 {
	if o == OutcomeYES {
		return l.qtyYES
	}
	return l.qtyNO
}

// CostBasis devuelve el coste acumulado en USDC del outcome.
func (l *Ledger) CostBasis(o Outcome) float64 {
	if o == OutcomeYES {
		return l.costYES
	}
	return l.costNO
}

// CostBasisTotal devuelve la exposición total: coste YES + coste NO.
func (l *Ledger) CostBasisTotal() float64 {
	return l.costYES + l.costNO
}

// AvgCost devuelve el coste medio por share del outcome, o 0 si no hay posición.
func (l *Ledger) AvgCost(o Outcome) float64 {
	qty := l.Quantity(o)
	if qty <= 0 {
		return 0
	}
	return l.CostBasis(o) / qty
}

// Imbalance devuelve qty_yes - qty_no. Positivo = sobrecargado en YES.
func (l *Ledger) Imbalance() float64 {
	return l.qtyYES - l.qtyNO
}

// LockedProfit devuelve la ganancia garantizada por los pares YES+NO ya
// emparejados: cada par redime exactamente 1 USDC, así que es
// min(qty_yes, qty_no) menos lo pagado por esa cantidad emparejada.
func (l *Ledger) LockedProfit() float64 {
	common := math.Min(l.qtyYES, l.qtyNO)
	if common == 0 {
		return 0
	}
	return common - (l.AvgCost(OutcomeYES)*common + l.AvgCost(OutcomeNO)*common)
}
