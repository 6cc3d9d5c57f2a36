package runner

// guard.go — Execution guard between the decision engine and the CLOB.
//
// Every intent batch produced by a quote update passes through here before
// any order leaves the process. Checks run against pre-fill ledger state, in
// order: debounce, exposure cap, imbalance cap, minimum size. Admitted
// intents are dispatched fire-and-forget; the ledger mutation happens in the
// completion path, only after the venue confirms the order and only if the
// market instance that produced the intent is still the current one.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/hedgebot/internal/domain"
	"github.com/alejandrodnm/hedgebot/internal/metrics"
	"github.com/alejandrodnm/hedgebot/internal/ports"
)

// Rejection reasons. User-visible through the status line, never fatal.
var (
	ErrDebounced   = errors.New("debounced")
	ErrMaxExposure = errors.New("max exposure reached")
	ErrImbalance   = errors.New("imbalance cap")
	ErrMinSize     = errors.New("below minimum size")
)

// Fill is a confirmed order, ready to be applied to the ledger.
type Fill struct {
	IntentID string
	Market   domain.Market
	Intent   domain.OrderIntent
	Size     float64 // shares
	OrderID  string
}

// FillHandler applies a confirmed fill. The runner implementation drops
// fills whose market instance has been superseded.
type FillHandler func(fill Fill)

// StatusHandler publishes a short user-visible status message.
type StatusHandler func(status string)

// Guard rate-limits and caps intents before dispatch.
type Guard struct {
	symbol   string
	executor ports.OrderExecutor
	limits   domain.Limits
	orderTTL time.Duration
	onFill   FillHandler
	onStatus StatusHandler

	now          func() time.Time // inyectable en tests
	lastAccepted time.Time
}

// NewGuard creates a guard bound to one runner.
func NewGuard(symbol string, executor ports.OrderExecutor, limits domain.Limits, orderTTL time.Duration, onFill FillHandler, onStatus StatusHandler) *Guard {
	return &Guard{
		symbol:   symbol,
		executor: executor,
		limits:   limits,
		orderTTL: orderTTL,
		onFill:   onFill,
		onStatus: onStatus,
		now:      time.Now,
	}
}

// Submit admits a decision batch against pre-fill ledger state and
// dispatches the accepted intents. The caller must hold the runner lock, so
// ledger reads here are consistent with the tick that produced the batch.
//
// The debounce window applies to the batch as a whole: the two legs of a
// pure-arbitrage pair are one submission, not two, otherwise the second leg
// would always bounce and the pair would never complete.
func (g *Guard) Submit(ctx context.Context, market domain.Market, intents []domain.OrderIntent, ledger *domain.Ledger) {
	if len(intents) == 0 {
		return
	}

	if g.now().Sub(g.lastAccepted) < g.limits.MinRepriceInterval {
		for range intents {
			metrics.IncIntent(g.symbol, ErrDebounced.Error())
		}
		return
	}

	accepted := false
	for _, intent := range intents {
		size, err := g.admit(intent, ledger)
		if err != nil {
			metrics.IncIntent(g.symbol, err.Error())
			g.onStatus(rejectionStatus(intent, ledger, err))
			continue
		}

		accepted = true
		metrics.IncIntent(g.symbol, "admitted")
		go g.dispatch(ctx, market, intent, size)
	}

	if accepted {
		g.lastAccepted = g.now()
	}
}

// admit runs the per-intent checks and returns the order size in shares.
func (g *Guard) admit(intent domain.OrderIntent, ledger *domain.Ledger) (float64, error) {
	if ledger.CostBasisTotal() >= g.limits.MaxExposureUSDC {
		return 0, ErrMaxExposure
	}

	// Pure-arb pairs buy both legs together, so they cannot worsen the
	// imbalance and skip this check by construction.
	if !intent.PureArb {
		imbalance := ledger.Imbalance()
		if intent.Outcome == domain.OutcomeYES && imbalance > g.limits.MaxImbalanceShares {
			return 0, ErrImbalance
		}
		if intent.Outcome == domain.OutcomeNO && imbalance < -g.limits.MaxImbalanceShares {
			return 0, ErrImbalance
		}
	}

	size := math.Round(intent.SizeUSDC/intent.Price*100) / 100
	if size < g.limits.MinOrderShares {
		return 0, ErrMinSize
	}
	return size, nil
}

// dispatch submits one admitted intent. Runs in its own goroutine: order
// submission blocks on the network and must not stall the tick loop. The
// fill callback re-checks instance identity before mutating anything.
func (g *Guard) dispatch(ctx context.Context, market domain.Market, intent domain.OrderIntent, size float64) {
	intentID := uuid.NewString()

	placed, err := g.executor.PlaceOrder(ctx, ports.PlaceOrderRequest{
		TokenID: intent.TokenID,
		Price:   intent.Price,
		Size:    size,
		TTL:     int64(g.orderTTL.Seconds()),
	})
	if err != nil {
		metrics.IncOrder(g.symbol, string(intent.Outcome), "failed")
		g.onStatus(fmt.Sprintf("Order fail %s: %v", intent.Outcome, err))
		slog.Warn("order dispatch failed",
			"symbol", g.symbol,
			"outcome", intent.Outcome,
			"intent_id", intentID,
			"err", err,
		)
		return
	}

	metrics.IncOrder(g.symbol, string(intent.Outcome), "placed")
	slog.Info("order placed",
		"symbol", g.symbol,
		"outcome", intent.Outcome,
		"price", intent.Price,
		"size", size,
		"order_id", placed.OrderID,
		"intent_id", intentID,
	)

	g.onFill(Fill{
		IntentID: intentID,
		Market:   market,
		Intent:   intent,
		Size:     size,
		OrderID:  placed.OrderID,
	})
}

// rejectionStatus builds the short user-visible message for a rejection.
func rejectionStatus(intent domain.OrderIntent, ledger *domain.Ledger, err error) string {
	switch {
	case errors.Is(err, ErrMaxExposure):
		return fmt.Sprintf("Max exposure reached ($%.0f)", ledger.CostBasisTotal())
	case errors.Is(err, ErrImbalance):
		return fmt.Sprintf("SKIP %s: too heavy (%+.1f)", intent.Outcome, ledger.Imbalance())
	case errors.Is(err, ErrMinSize):
		return fmt.Sprintf("SKIP %s: size below venue minimum", intent.Outcome)
	default:
		return fmt.Sprintf("SKIP %s: %v", intent.Outcome, err)
	}
}
