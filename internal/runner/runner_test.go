package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/hedgebot/internal/domain"
	"github.com/alejandrodnm/hedgebot/internal/ports"
)

// --- fakes ---------------------------------------------------------------

type fakeMarkets struct {
	mu      sync.Mutex
	markets []domain.Market // se consumen en orden; agotados => ErrNoMarket
	calls   int
}

func (f *fakeMarkets) Discover(_ context.Context, _ string, _ time.Time) (domain.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.markets) == 0 {
		return domain.Market{}, ports.ErrNoMarket
	}
	m := f.markets[0]
	f.markets = f.markets[1:]
	return m, nil
}

type fakePositions struct {
	positions map[string]ports.PositionSnapshot
	err       error
}

func (f *fakePositions) SnapshotPositions(_ context.Context, _ []string) (map[string]ports.PositionSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.positions, nil
}

type fakeStream struct {
	mu    sync.Mutex
	ticks []domain.QuoteTick
	err   error
}

func (s *fakeStream) Next(ctx context.Context, _ time.Duration) (domain.QuoteTick, bool, error) {
	s.mu.Lock()
	if len(s.ticks) > 0 {
		t := s.ticks[0]
		s.ticks = s.ticks[1:]
		s.mu.Unlock()
		return t, true, nil
	}
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return domain.QuoteTick{}, false, err
	}
	select {
	case <-ctx.Done():
		return domain.QuoteTick{}, false, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return domain.QuoteTick{}, false, nil // lectura silenciosa
	}
}

func (s *fakeStream) Close() error { return nil }

type fakeFeed struct {
	stream *fakeStream
	err    error
}

func (f *fakeFeed) Subscribe(_ context.Context, _ []string) (ports.QuoteStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

type fakeStorage struct {
	mu     sync.Mutex
	fills  []ports.FillRecord
	cycles []ports.CycleRecord
	saved  chan struct{}
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(chan struct{}, 16)}
}

func (f *fakeStorage) SaveFill(_ context.Context, fill ports.FillRecord) error {
	f.mu.Lock()
	f.fills = append(f.fills, fill)
	f.mu.Unlock()
	f.saved <- struct{}{}
	return nil
}

func (f *fakeStorage) SaveCycle(_ context.Context, cycle ports.CycleRecord) error {
	f.mu.Lock()
	f.cycles = append(f.cycles, cycle)
	f.mu.Unlock()
	f.saved <- struct{}{}
	return nil
}

func (f *fakeStorage) RecentFills(_ context.Context, _ time.Time) ([]ports.FillRecord, error) {
	return nil, nil
}

func (f *fakeStorage) Close() error { return nil }

// --- helpers -------------------------------------------------------------

func testMarketEnding(in time.Duration) domain.Market {
	return domain.Market{
		ID:       "mkt-1",
		Slug:     "eth-updown-15m-1700000100",
		Question: "ETH up or down?",
		TokenYES: "tok-yes-1",
		TokenNO:  "tok-no-1",
		EndDate:  time.Now().Add(in),
	}
}

func testTiming() Timing {
	return Timing{
		DiscoveryRetry: 10 * time.Millisecond,
		ReadTimeout:    50 * time.Millisecond,
		OrderTTL:       2 * time.Minute,
	}
}

func newTestRunner(deps Deps) *MarketRunner {
	return NewMarketRunner("eth", deps, guardLimits(), testTiming())
}

// --- tests ---------------------------------------------------------------

func TestRunner_AppliesConfirmedFill(t *testing.T) {
	storage := newFakeStorage()
	market := testMarketEnding(10 * time.Minute)
	r := newTestRunner(Deps{Storage: storage})
	r.beginInstance(market)

	r.applyFill(Fill{
		IntentID: "intent-1",
		Market:   market,
		Intent:   domain.OrderIntent{Outcome: domain.OutcomeYES, TokenID: market.TokenYES, Price: 0.48},
		Size:     20.83,
		OrderID:  "ord-1",
	})

	snap := r.Snapshot()
	assert.InDelta(t, 20.83, snap.QtyYES, 1e-9)
	assert.InDelta(t, 0.48, snap.AvgYES, 1e-9)
	assert.Equal(t, 1, snap.Trades)

	require.Len(t, storage.fills, 1)
	assert.Equal(t, market.Slug, storage.fills[0].Slug)
	assert.Equal(t, domain.OutcomeYES, storage.fills[0].Outcome)
}

func TestRunner_DropsFillFromRotatedInstance(t *testing.T) {
	storage := newFakeStorage()
	stale := testMarketEnding(-time.Minute)
	current := testMarketEnding(10 * time.Minute)
	current.Slug = "eth-updown-15m-1700001000"

	r := newTestRunner(Deps{Storage: storage})
	r.beginInstance(current)

	r.applyFill(Fill{
		IntentID: "intent-stale",
		Market:   stale,
		Intent:   domain.OrderIntent{Outcome: domain.OutcomeYES, Price: 0.48},
		Size:     20,
		OrderID:  "ord-stale",
	})

	snap := r.Snapshot()
	assert.Zero(t, snap.QtyYES, "el fill de la instancia rotada no toca el ledger")
	assert.Zero(t, snap.Trades)
	assert.Empty(t, storage.fills)
}

func TestRunner_PrimesLedgerFromVenue(t *testing.T) {
	market := testMarketEnding(10 * time.Minute)
	positions := &fakePositions{positions: map[string]ports.PositionSnapshot{
		market.TokenYES: {Quantity: 50, AvgPrice: 0.48},
		market.TokenNO:  {Quantity: 30, AvgPrice: 0.47},
	}}

	r := newTestRunner(Deps{Positions: positions})
	r.beginInstance(market)
	r.primeLedger(context.Background(), market)

	snap := r.Snapshot()
	assert.InDelta(t, 50, snap.QtyYES, 1e-9)
	assert.InDelta(t, 0.48, snap.AvgYES, 1e-9)
	assert.InDelta(t, 30, snap.QtyNO, 1e-9)
	assert.InDelta(t, 20, snap.Imbalance, 1e-9)
}

func TestRunner_SnapshotFailureStartsEmpty(t *testing.T) {
	market := testMarketEnding(10 * time.Minute)
	positions := &fakePositions{err: errors.New("data api down")}

	r := newTestRunner(Deps{Positions: positions})
	r.beginInstance(market)
	r.primeLedger(context.Background(), market)

	snap := r.Snapshot()
	assert.Zero(t, snap.QtyYES)
	assert.Zero(t, snap.QtyNO)
	assert.Contains(t, snap.LastError, "positions")
}

func TestRunner_CycleEndToEnd(t *testing.T) {
	// Un par de asks a 0.48 dispara las dos patas; la instancia expira poco
	// después y el resumen de ciclo queda en el journal.
	market := testMarketEnding(400 * time.Millisecond)
	storage := newFakeStorage()
	executor := newFakeExecutor(nil)
	stream := &fakeStream{ticks: []domain.QuoteTick{
		{TokenID: market.TokenYES, Side: domain.SideAsk, Price: 0.48},
		{TokenID: market.TokenNO, Side: domain.SideAsk, Price: 0.48},
	}}

	r := newTestRunner(Deps{
		Markets:   &fakeMarkets{markets: []domain.Market{market}},
		Positions: &fakePositions{},
		Feed:      &fakeFeed{stream: stream},
		Executor:  executor,
		Storage:   storage,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	executor.waitCalls(t, 2)

	require.Eventually(t, func() bool {
		storage.mu.Lock()
		defer storage.mu.Unlock()
		return len(storage.cycles) == 1
	}, 3*time.Second, 20*time.Millisecond, "el ciclo nunca llegó al journal")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("el runner no terminó tras cancelar el contexto")
	}

	storage.mu.Lock()
	defer storage.mu.Unlock()
	cycle := storage.cycles[0]
	assert.Equal(t, market.Slug, cycle.Slug)
	assert.Equal(t, 2, cycle.Trades)
	assert.InDelta(t, 20.83, cycle.QtyYES, 1e-9)
	assert.InDelta(t, 20.83, cycle.QtyNO, 1e-9)
	assert.Len(t, storage.fills, 2)

	// Tras la expiración el runner vuelve a discovery
	markets := r.deps.Markets.(*fakeMarkets)
	markets.mu.Lock()
	assert.GreaterOrEqual(t, markets.calls, 2)
	markets.mu.Unlock()
}

func TestRunner_StreamErrorKeepsCycleOpen(t *testing.T) {
	// Un stream roto a mitad de mercado no es una rotación: ni resumen de
	// ciclo ni status de fin, solo vuelta a discovery con el error visible.
	market := testMarketEnding(10 * time.Minute)
	storage := newFakeStorage()
	stream := &fakeStream{
		ticks: []domain.QuoteTick{{TokenID: market.TokenYES, Side: domain.SideAsk, Price: 0.48}},
		err:   errors.New("ws closed"),
	}
	markets := &fakeMarkets{markets: []domain.Market{market}}

	r := newTestRunner(Deps{
		Markets:   markets,
		Positions: &fakePositions{},
		Feed:      &fakeFeed{stream: stream},
		Executor:  newFakeExecutor(nil),
		Storage:   storage,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	storage.mu.Lock()
	assert.Empty(t, storage.cycles, "la instancia sigue viva, no hay resumen")
	storage.mu.Unlock()

	snap := r.Snapshot()
	assert.Contains(t, snap.LastError, "stream")

	markets.mu.Lock()
	assert.GreaterOrEqual(t, markets.calls, 2, "tras el error vuelve a discovery")
	markets.mu.Unlock()
}

func TestRunner_PausesAfterInstanceEnds(t *testing.T) {
	market := testMarketEnding(-time.Second) // ya expirado
	r := newTestRunner(Deps{
		Markets:   &fakeMarkets{markets: []domain.Market{market}},
		Positions: &fakePositions{},
		Feed:      &fakeFeed{stream: &fakeStream{}},
	})

	start := time.Now()
	r.runCycle(context.Background())

	assert.GreaterOrEqual(t, time.Since(start), r.timing.DiscoveryRetry,
		"la rotación pausa antes de volver a discovery")
	assert.Contains(t, r.Snapshot().Status, "rotating")
}

func TestRunner_SubscribeFailureRetries(t *testing.T) {
	markets := &fakeMarkets{markets: []domain.Market{
		testMarketEnding(10 * time.Minute),
	}}
	r := newTestRunner(Deps{
		Markets:   markets,
		Positions: &fakePositions{},
		Feed:      &fakeFeed{err: errors.New("ws refused")},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	snap := r.Snapshot()
	assert.Contains(t, snap.LastError, "subscribe")
	markets.mu.Lock()
	assert.GreaterOrEqual(t, markets.calls, 2, "tras fallar la suscripción vuelve a discovery")
	markets.mu.Unlock()
}

func TestSupervisor_RendersSnapshots(t *testing.T) {
	notifier := &fakeNotifier{rendered: make(chan []ports.RunnerSnapshot, 16)}
	runners := []*MarketRunner{
		newTestRunner(Deps{Markets: &fakeMarkets{}}),
		NewMarketRunner("btc", Deps{Markets: &fakeMarkets{}}, guardLimits(), testTiming()),
	}
	sup := NewBotSupervisor(runners, notifier, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	select {
	case snaps := <-notifier.rendered:
		require.Len(t, snaps, 2)
		assert.Equal(t, "eth", snaps[0].Symbol)
		assert.Equal(t, "btc", snaps[1].Symbol)
	case <-time.After(2 * time.Second):
		t.Fatal("el dashboard nunca se repintó")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("el supervisor no terminó tras cancelar el contexto")
	}
}

type fakeNotifier struct {
	rendered chan []ports.RunnerSnapshot
}

func (f *fakeNotifier) Notify(_ context.Context, snapshots []ports.RunnerSnapshot) error {
	select {
	case f.rendered <- snapshots:
	default:
	}
	return nil
}
