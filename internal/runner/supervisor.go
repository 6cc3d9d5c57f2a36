package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/hedgebot/internal/ports"
)

// BotSupervisor arranca un MarketRunner por símbolo y repinta el dashboard
// a intervalo fijo. Run bloquea hasta que el contexto se cancele y todos
// los runners hayan terminado.
type BotSupervisor struct {
	runners        []*MarketRunner
	notifier       ports.Notifier
	renderInterval time.Duration
}

// NewBotSupervisor crea el supervisor. notifier puede ser nil.
func NewBotSupervisor(runners []*MarketRunner, notifier ports.Notifier, renderInterval time.Duration) *BotSupervisor {
	return &BotSupervisor{
		runners:        runners,
		notifier:       notifier,
		renderInterval: renderInterval,
	}
}

// Run lanza los runners y el loop de presentación.
func (s *BotSupervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, r := range s.runners {
		wg.Add(1)
		go func(r *MarketRunner) {
			defer wg.Done()
			r.Run(ctx)
		}(r)
	}

	if s.notifier != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.renderLoop(ctx)
		}()
	}

	wg.Wait()
}

func (s *BotSupervisor) renderLoop(ctx context.Context) {
	ticker := time.NewTicker(s.renderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshots := make([]ports.RunnerSnapshot, 0, len(s.runners))
			for _, r := range s.runners {
				snapshots = append(snapshots, r.Snapshot())
			}
			if err := s.notifier.Notify(ctx, snapshots); err != nil {
				slog.Warn("dashboard render failed", "err", err)
			}
		}
	}
}
