package polymarket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/hedgebot/internal/domain"
	"github.com/alejandrodnm/hedgebot/internal/ports"
)

const gammaEventsPath = "/events"

// Discover implementa ports.MarketProvider probando los slugs deterministas
// de la ventana actual y la siguiente: <symbol>-updown-15m-<epoch>.
// La ventana actual tiene prioridad; la siguiente evita quedarse sin mercado
// justo en el borde de una ventana.
func (c *Client) Discover(ctx context.Context, symbol string, now time.Time) (domain.Market, error) {
	for _, offset := range []int{0, 1} {
		epoch := domain.WindowEpoch(now, offset)
		slug := fmt.Sprintf("%s-updown-15m-%d", symbol, epoch)

		market, err := c.fetchEvent(ctx, slug, now)
		if err != nil {
			if errors.Is(err, errCandidateRejected) {
				continue
			}
			// Errores de red/servidor tampoco abortan: el runner
			// reintenta el ciclo entero tras el backoff.
			slog.Debug("discovery candidate failed", "slug", slug, "err", err)
			continue
		}
		return market, nil
	}
	return domain.Market{}, ports.ErrNoMarket
}

// fetchEvent consulta Gamma por slug y valida el primer evento devuelto.
func (c *Client) fetchEvent(ctx context.Context, slug string, now time.Time) (domain.Market, error) {
	url := fmt.Sprintf("%s%s?slug=%s", c.gammaBase, gammaEventsPath, slug)

	var resp gammaEventsResponse
	if err := c.get(ctx, c.gammaLimiter, url, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return domain.Market{}, errCandidateRejected
		}
		return domain.Market{}, fmt.Errorf("gamma.fetchEvent %q: %w", slug, err)
	}

	if len(resp) == 0 {
		return domain.Market{}, errCandidateRejected
	}

	return mapEvent(resp[0], slug, now)
}
