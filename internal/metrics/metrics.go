// Package metrics expone los contadores Prometheus del bot.
//
// Métricas principales:
//   - hedgebot_ticks_total{symbol}                 – ticks de precio consumidos
//   - hedgebot_intents_total{symbol,result}        – intents emitidos (admitted | reason de rechazo)
//   - hedgebot_orders_total{symbol,outcome,result} – órdenes enviadas (placed | failed)
//   - hedgebot_locked_profit_usdc{symbol}          – profit bloqueado de la instancia activa
//   - hedgebot_exposure_usdc{symbol}               – cost basis total de la instancia activa
//   - hedgebot_market_rotations_total{symbol}      – instancias de mercado completadas
//
// Se registran en init() y se sirven en /metrics si metrics.addr está configurado.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ticks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedgebot_ticks_total",
			Help: "Price ticks consumed from the market feed",
		},
		[]string{"symbol"},
	)

	intents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedgebot_intents_total",
			Help: "Order intents by admission result",
		},
		[]string{"symbol", "result"},
	)

	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedgebot_orders_total",
			Help: "Orders dispatched to the CLOB",
		},
		[]string{"symbol", "outcome", "result"},
	)

	lockedProfit = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hedgebot_locked_profit_usdc",
			Help: "Locked profit of the active market instance",
		},
		[]string{"symbol"},
	)

	exposure = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hedgebot_exposure_usdc",
			Help: "Total cost basis of the active market instance",
		},
		[]string{"symbol"},
	)

	rotations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hedgebot_market_rotations_total",
			Help: "Completed market instances",
		},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(ticks, intents, orders, lockedProfit, exposure, rotations)
}

// IncTick cuenta un tick consumido.
func IncTick(symbol string) { ticks.WithLabelValues(symbol).Inc() }

// IncIntent cuenta un intent con su resultado de admisión.
func IncIntent(symbol, result string) { intents.WithLabelValues(symbol, result).Inc() }

// IncOrder cuenta una orden enviada con su resultado.
func IncOrder(symbol, outcome, result string) {
	orders.WithLabelValues(symbol, outcome, result).Inc()
}

// SetPosition actualiza los gauges de la instancia activa.
func SetPosition(symbol string, locked, exposed float64) {
	lockedProfit.WithLabelValues(symbol).Set(locked)
	exposure.WithLabelValues(symbol).Set(exposed)
}

// IncRotation cuenta una instancia completada.
func IncRotation(symbol string) { rotations.WithLabelValues(symbol).Inc() }

// Handler devuelve el handler HTTP de /metrics.
func Handler() http.Handler { return promhttp.Handler() }
