package ports

import (
	"context"
	"errors"
	"time"

	"github.com/alejandrodnm/hedgebot/internal/domain"
)

// ErrNoMarket indica que ningún candidato de discovery calificó.
// No es un error fatal: el runner espera y reintenta.
var ErrNoMarket = errors.New("no live market found")

// MarketProvider descubre la instancia de mercado updown activa de un símbolo.
type MarketProvider interface {
	// Discover prueba las ventanas actual y siguiente (en ese orden) y
	// devuelve el primer mercado vivo que califica. Devuelve ErrNoMarket
	// si ningún candidato sirve; respuestas malformadas descartan al
	// candidato, nunca abortan la búsqueda.
	Discover(ctx context.Context, symbol string, now time.Time) (domain.Market, error)
}
