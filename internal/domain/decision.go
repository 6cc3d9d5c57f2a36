package domain

import "time"

// PureArbEpsilon es el margen mínimo bajo paridad para considerar que la
// suma de asks es arbitraje puro: pair cost < 0.99.
const PureArbEpsilon = 0.01

// Limits son los límites de la estrategia, fijos durante todo el run y
// compartidos en solo-lectura por todos los runners.
type Limits struct {
	TargetSpread       float64       // descuento requerido bajo paridad para leguear
	ClipSizeUSDC       float64       // notional por orden
	MaxExposureUSDC    float64       // tope de cost basis total por instancia
	MaxImbalanceShares float64       // tope de |qty_yes - qty_no|
	MinRepriceInterval time.Duration // debounce entre órdenes aceptadas
	MinOrderShares     float64       // tamaño mínimo negociable del venue
	EntryPriceMax      float64       // entrada sin posición si ask < X (0 = desactivada)
}

// OrderIntent es una compra propuesta por el motor de decisión. No es un
// compromiso: el guard puede rechazarla sin tocar el ledger.
type OrderIntent struct {
	Outcome  Outcome
	TokenID  string
	Price    float64
	SizeUSDC float64

	// PureArb marca los intents del camino de arbitraje puro, que compran
	// ambas patas a la vez y por construcción no pasan el check de imbalance.
	PureArb bool
}

// Decide mapea el estado actual (book + ledger + límites) a cero o más
// intents de compra. Pura: no muta nada y no mira el reloj.
//
// Orden de evaluación, excluyente salvo el arbitraje puro que emite ambas patas:
//
//  1. Arbitraje puro: ask_yes + ask_no < 1 - PureArbEpsilon → comprar ambas.
//  2. Legging-in YES: ask_yes + effective_no < 1 - target_spread.
//  3. Legging-in NO: ask_no + effective_yes < 1 - target_spread.
//  4. Entrada sin posición (opcional): sin shares en ninguna pata, comprar
//     el lado cuyo ask esté por debajo de EntryPriceMax.
//
// Un ask de 0 significa "sin cotización" y anula la decisión entera del tick.
func Decide(market Market, quotes *QuoteBook, ledger *Ledger, limits Limits) []OrderIntent {
	if !quotes.Ready() {
		return nil
	}

	askYES := quotes.BestAsk(OutcomeYES)
	askNO := quotes.BestAsk(OutcomeNO)

	buy := func(o Outcome, price float64, pureArb bool) OrderIntent {
		return OrderIntent{
			Outcome:  o,
			TokenID:  market.Token(o),
			Price:    price,
			SizeUSDC: limits.ClipSizeUSDC,
			PureArb:  pureArb,
		}
	}

	if askYES+askNO < 1-PureArbEpsilon {
		return []OrderIntent{
			buy(OutcomeYES, askYES, true),
			buy(OutcomeNO, askNO, true),
		}
	}

	// Precio efectivo de la pata contraria: el coste medio si ya se tiene
	// posición, el ask actual si no.
	effNO := askNO
	if ledger.Quantity(OutcomeNO) > 0 {
		effNO = ledger.AvgCost(OutcomeNO)
	}
	effYES := askYES
	if ledger.Quantity(OutcomeYES) > 0 {
		effYES = ledger.AvgCost(OutcomeYES)
	}

	target := 1 - limits.TargetSpread

	if askYES+effNO < target {
		return []OrderIntent{buy(OutcomeYES, askYES, false)}
	}
	if askNO+effYES < target {
		return []OrderIntent{buy(OutcomeNO, askNO, false)}
	}

	if limits.EntryPriceMax > 0 &&
		ledger.Quantity(OutcomeYES) == 0 && ledger.Quantity(OutcomeNO) == 0 {
		if askYES < limits.EntryPriceMax {
			return []OrderIntent{buy(OutcomeYES, askYES, false)}
		}
		if askNO < limits.EntryPriceMax {
			return []OrderIntent{buy(OutcomeNO, askNO, false)}
		}
	}

	return nil
}
