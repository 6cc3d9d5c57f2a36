package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/hedgebot/internal/domain"
)

// QuoteFeed abre la suscripción de precios de un par de tokens.
type QuoteFeed interface {
	// Subscribe abre el stream para los dos token ids de la instancia.
	Subscribe(ctx context.Context, tokenIDs []string) (QuoteStream, error)
}

// QuoteStream es una suscripción abierta. El stream es at-least-once y sin
// orden garantizado; los frames de heartbeat se filtran internamente.
type QuoteStream interface {
	// Next bloquea hasta el siguiente tick o hasta timeout. Un timeout
	// devuelve ok=false con err=nil: el caller re-chequea condiciones de
	// fin de mercado y vuelve a llamar. Un err no nil significa stream
	// cerrado o roto — el caller debe abandonar la suscripción.
	Next(ctx context.Context, timeout time.Duration) (tick domain.QuoteTick, ok bool, err error)

	// Close cierra la suscripción.
	Close() error
}
