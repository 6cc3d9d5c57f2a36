package domain

// Outcome es uno de los dos lados de un mercado binario.
type Outcome string

const (
	OutcomeYES Outcome = "YES"
	OutcomeNO  Outcome = "NO"
)

// Opposite devuelve el outcome contrario.
func (o Outcome) Opposite() Outcome {
	if o == OutcomeYES {
		return OutcomeNO
	}
	return OutcomeYES
}

// TickSide es el lado del libro al que pertenece un tick del feed.
type TickSide string

const (
	SideAsk TickSide = "SELL" // lado vendedor: el precio que paga un comprador
	SideBid TickSide = "BUY"
)

// QuoteTick es un cambio de precio recibido del feed, ya normalizado.
type QuoteTick struct {
	TokenID string
	Side    TickSide
	Price   float64
}

// QuoteBook guarda el último best ask conocido por outcome.
// Un precio de 0 significa "sin cotización todavía" y excluye al outcome
// de cualquier decisión.
type QuoteBook struct {
	askYES float64
	askNO  float64
}

// ApplyTick actualiza el book con un tick del feed. Solo los ticks del lado
// ask mueven el book; el resto se ignora. Devuelve true si hubo cambio.
func (qb *QuoteBook) ApplyTick(m Market, t QuoteTick) bool {
	if t.Side != SideAsk || t.Price < 0 {
		return false
	}
	switch t.TokenID {
	case m.TokenYES:
		qb.askYES = t.Price
	case m.TokenNO:
		qb.askNO = t.Price
	default:
		return false
	}
	return true
}

// BestAsk devuelve el último ask aplicado para el outcome, o 0 si nunca se vio.
func (qb *QuoteBook) BestAsk(o Outcome) float64 {
	if o == OutcomeYES {
		return qb.askYES
	}
	return qb.askNO
}

// Ready devuelve true cuando ambos outcomes tienen cotización válida.
func (qb *QuoteBook) Ready() bool {
	return qb.askYES > 0 && qb.askNO > 0
}

// PairCost devuelve la suma de los dos asks. Solo tiene sentido si Ready().
func (qb *QuoteBook) PairCost() float64 {
	return qb.askYES + qb.askNO
}

// Reset descarta las cotizaciones acumuladas. Se llama al rotar de instancia.
func (qb *QuoteBook) Reset() {
	qb.askYES = 0
	qb.askNO = 0
}
