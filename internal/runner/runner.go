package runner

// runner.go — One MarketRunner per symbol.
//
// Lifecycle of a market instance:
//
//	discover -> prime ledger -> subscribe -> tick loop -> instance ends -> repeat
//
// El runner nunca termina por sí solo: cualquier fallo de red o de discovery
// se reporta en el status y se reintenta tras una pausa. Solo el contexto
// cancela el loop.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/hedgebot/internal/domain"
	"github.com/alejandrodnm/hedgebot/internal/metrics"
	"github.com/alejandrodnm/hedgebot/internal/ports"
)

// Deps agrupa los puertos que necesita un runner.
type Deps struct {
	Markets   ports.MarketProvider
	Positions ports.PositionProvider
	Feed      ports.QuoteFeed
	Executor  ports.OrderExecutor
	Storage   ports.FillStorage // puede ser nil
}

// Timing agrupa los intervalos del loop.
type Timing struct {
	DiscoveryRetry time.Duration
	ReadTimeout    time.Duration
	OrderTTL       time.Duration
}

// MarketRunner sigue las instancias updown de un símbolo y opera sobre ellas.
type MarketRunner struct {
	symbol string
	deps   Deps
	limits domain.Limits
	timing Timing
	guard  *Guard

	mu          sync.Mutex
	market      domain.Market
	haveMkt     bool
	ledger      domain.Ledger
	book        domain.QuoteBook
	trades      int // fills de la instancia activa
	tradesTotal int // fills de toda la sesión, nunca se resetea

	// stMu separado: el guard reporta status mientras el caller sostiene mu
	stMu      sync.Mutex
	status    string
	lastError string

	now func() time.Time
}

// NewMarketRunner crea el runner de un símbolo. No arranca nada.
func NewMarketRunner(symbol string, deps Deps, limits domain.Limits, timing Timing) *MarketRunner {
	r := &MarketRunner{
		symbol: symbol,
		deps:   deps,
		limits: limits,
		timing: timing,
		status: "Starting",
		now:    time.Now,
	}
	r.guard = NewGuard(symbol, deps.Executor, limits, timing.OrderTTL, r.applyFill, r.setStatus)
	return r
}

// Run ejecuta el loop de instancias hasta que el contexto se cancele.
func (r *MarketRunner) Run(ctx context.Context) {
	slog.Info("runner started", "symbol", r.symbol)
	for ctx.Err() == nil {
		r.runCycle(ctx)
	}
	slog.Info("runner stopped", "symbol", r.symbol)
}

// runCycle lleva una instancia de mercado de discovery a expiración.
func (r *MarketRunner) runCycle(ctx context.Context) {
	market, err := r.deps.Markets.Discover(ctx, r.symbol, r.now())
	if err != nil {
		if errors.Is(err, ports.ErrNoMarket) {
			r.setStatus("Waiting for market window")
		} else {
			r.setError(fmt.Sprintf("discovery: %v", err))
		}
		r.sleep(ctx, r.timing.DiscoveryRetry)
		return
	}

	r.beginInstance(market)
	slog.Info("market instance",
		"symbol", r.symbol,
		"slug", market.Slug,
		"ends_in", market.TimeLeft(r.now()).Round(time.Second),
	)

	r.primeLedger(ctx, market)

	stream, err := r.deps.Feed.Subscribe(ctx, []string{market.TokenYES, market.TokenNO})
	if err != nil {
		r.setError(fmt.Sprintf("subscribe: %v", err))
		r.sleep(ctx, r.timing.DiscoveryRetry)
		return
	}

	r.tickLoop(ctx, market, stream)
	stream.Close()

	if ctx.Err() != nil {
		return
	}

	// Solo una instancia realmente expirada cuenta como rotación; un stream
	// roto a mitad de mercado vuelve a discovery con el error en el status y
	// el ledger se re-ceba desde el venue.
	if !market.Ended(r.now()) {
		r.sleep(ctx, r.timing.DiscoveryRetry)
		return
	}

	r.finishInstance(ctx, market)
	r.sleep(ctx, r.timing.DiscoveryRetry)
}

// beginInstance resetea el estado por-instancia bajo el lock.
func (r *MarketRunner) beginInstance(market domain.Market) {
	r.mu.Lock()
	r.market = market
	r.haveMkt = true
	r.ledger.Reset()
	r.book.Reset()
	r.trades = 0
	r.mu.Unlock()

	r.stMu.Lock()
	r.status = "Tracking " + market.Slug
	r.lastError = ""
	r.stMu.Unlock()
}

// primeLedger ceba el ledger con la posición que el venue ya reporta. Un
// fallo aquí no aborta la instancia: se opera con ledger vacío y el guard
// de exposición protege del doble conteo en la dirección peligrosa.
func (r *MarketRunner) primeLedger(ctx context.Context, market domain.Market) {
	positions, err := r.deps.Positions.SnapshotPositions(ctx, []string{market.TokenYES, market.TokenNO})
	if err != nil {
		r.setError(fmt.Sprintf("positions: %v", err))
		slog.Warn("position snapshot failed, starting empty", "symbol", r.symbol, "err", err)
		return
	}

	yes := positions[market.TokenYES]
	no := positions[market.TokenNO]

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.market.Slug != market.Slug {
		return
	}
	r.ledger.Prime(yes.Quantity, yes.Quantity*yes.AvgPrice, no.Quantity, no.Quantity*no.AvgPrice)
	if yes.Quantity > 0 || no.Quantity > 0 {
		slog.Info("ledger primed from venue",
			"symbol", r.symbol,
			"qty_yes", yes.Quantity,
			"qty_no", no.Quantity,
		)
	}
}

// tickLoop consume el stream hasta que la instancia expira o el stream muere.
func (r *MarketRunner) tickLoop(ctx context.Context, market domain.Market, stream ports.QuoteStream) {
	for {
		if ctx.Err() != nil {
			return
		}
		if market.Ended(r.now()) {
			return
		}

		tick, ok, err := stream.Next(ctx, r.timing.ReadTimeout)
		if err != nil {
			if ctx.Err() == nil {
				r.setError(fmt.Sprintf("stream: %v", err))
			}
			return
		}
		if !ok {
			// Lectura silenciosa; re-chequear expiración y seguir
			continue
		}

		r.onTick(ctx, market, tick)
	}
}

// onTick aplica un tick y somete el batch de intents resultante al guard.
// Todo bajo el lock para que la decisión vea un estado consistente.
func (r *MarketRunner) onTick(ctx context.Context, market domain.Market, tick domain.QuoteTick) {
	metrics.IncTick(r.symbol)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.book.ApplyTick(market, tick) {
		return
	}

	intents := domain.Decide(market, &r.book, &r.ledger, r.limits)
	r.guard.Submit(ctx, market, intents, &r.ledger)
	metrics.SetPosition(r.symbol, r.ledger.LockedProfit(), r.ledger.CostBasisTotal())
}

// applyFill es el callback de fills confirmados. Se ejecuta en la goroutine
// de dispatch; un fill de una instancia ya rotada se descarta.
func (r *MarketRunner) applyFill(fill Fill) {
	r.mu.Lock()
	if !r.haveMkt || r.market.Slug != fill.Market.Slug {
		r.mu.Unlock()
		slog.Warn("dropping fill from rotated instance",
			"symbol", r.symbol,
			"slug", fill.Market.Slug,
			"order_id", fill.OrderID,
		)
		return
	}

	r.ledger.RecordFill(fill.Intent.Outcome, fill.Size, fill.Intent.Price)
	r.trades++
	r.tradesTotal++
	locked, exposed := r.ledger.LockedProfit(), r.ledger.CostBasisTotal()
	r.mu.Unlock()

	r.setStatus(fmt.Sprintf("BUY %s %.2f @ %.3f", fill.Intent.Outcome, fill.Size, fill.Intent.Price))
	metrics.SetPosition(r.symbol, locked, exposed)

	if r.deps.Storage != nil {
		record := ports.FillRecord{
			IntentID: fill.IntentID,
			Symbol:   r.symbol,
			Slug:     fill.Market.Slug,
			Outcome:  fill.Intent.Outcome,
			Price:    fill.Intent.Price,
			Size:     fill.Size,
			PureArb:  fill.Intent.PureArb,
			FilledAt: r.now(),
		}
		if err := r.deps.Storage.SaveFill(context.Background(), record); err != nil {
			slog.Warn("fill journal write failed", "symbol", r.symbol, "err", err)
		}
	}
}

// finishInstance cierra la instancia: resumen al journal y rotación.
func (r *MarketRunner) finishInstance(ctx context.Context, market domain.Market) {
	r.mu.Lock()
	cycle := ports.CycleRecord{
		Symbol:       r.symbol,
		Slug:         market.Slug,
		QtyYES:       r.ledger.Quantity(domain.OutcomeYES),
		CostYES:      r.ledger.CostBasis(domain.OutcomeYES),
		QtyNO:        r.ledger.Quantity(domain.OutcomeNO),
		CostNO:       r.ledger.CostBasis(domain.OutcomeNO),
		LockedProfit: r.ledger.LockedProfit(),
		Trades:       r.trades,
		EndedAt:      r.now(),
	}
	r.mu.Unlock()

	r.setStatus("Market ended, rotating")

	metrics.IncRotation(r.symbol)
	slog.Info("market instance ended",
		"symbol", r.symbol,
		"slug", market.Slug,
		"trades", cycle.Trades,
		"locked_profit", cycle.LockedProfit,
	)

	if r.deps.Storage != nil && cycle.Trades > 0 {
		if err := r.deps.Storage.SaveCycle(ctx, cycle); err != nil {
			slog.Warn("cycle journal write failed", "symbol", r.symbol, "err", err)
		}
	}
}

// Snapshot devuelve una copia del estado observable del runner.
func (r *MarketRunner) Snapshot() ports.RunnerSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stMu.Lock()
	status, lastError := r.status, r.lastError
	r.stMu.Unlock()

	snap := ports.RunnerSnapshot{
		Symbol:       r.symbol,
		Status:       status,
		LastError:    lastError,
		QtyYES:       r.ledger.Quantity(domain.OutcomeYES),
		QtyNO:        r.ledger.Quantity(domain.OutcomeNO),
		AvgYES:       r.ledger.AvgCost(domain.OutcomeYES),
		AvgNO:        r.ledger.AvgCost(domain.OutcomeNO),
		Imbalance:    r.ledger.Imbalance(),
		Exposure:     r.ledger.CostBasisTotal(),
		LockedProfit: r.ledger.LockedProfit(),
		Trades:       r.trades,
		TradesTotal:  r.tradesTotal,
	}
	if r.haveMkt {
		snap.Slug = r.market.Slug
		snap.Question = r.market.Question
		snap.EndDate = r.market.EndDate
		snap.AskYES = r.book.BestAsk(domain.OutcomeYES)
		snap.AskNO = r.book.BestAsk(domain.OutcomeNO)
	}
	return snap
}

func (r *MarketRunner) setStatus(status string) {
	r.stMu.Lock()
	r.status = status
	r.stMu.Unlock()
}

func (r *MarketRunner) setError(msg string) {
	r.stMu.Lock()
	r.status = msg
	r.lastError = msg
	r.stMu.Unlock()
}

// sleep espera d o hasta la cancelación del contexto.
func (r *MarketRunner) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
