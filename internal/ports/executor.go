package ports

import (
	"context"

	"github.com/alejandrodnm/hedgebot/internal/domain"
)

// PlaceOrderRequest es una orden BUY limit lista para firmar y enviar.
type PlaceOrderRequest struct {
	TokenID string
	Price   float64
	Size    float64 // en shares
	TTL     int64   // segundos de vida de la orden GTD
}

// PlacedOrder es el resultado confirmado de una orden aceptada por el venue.
type PlacedOrder struct {
	OrderID string
	Status  string
	Outcome domain.Outcome
}

// OrderExecutor firma y envía órdenes reales al CLOB.
type OrderExecutor interface {
	// PlaceOrder firma y envía una orden BUY GTD. Solo devuelve nil cuando
	// el venue confirma la aceptación de forma explícita; cualquier otra
	// respuesta es un error.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlacedOrder, error)
}
