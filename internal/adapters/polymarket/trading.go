package polymarket

// trading.go — Real order submission via Polymarket CLOB API.
//
// Implements ports.OrderExecutor using AuthClient for L1/L2 auth. Orders
// are short-lived GTD BUY limits at the current ask: on these 15-minute
// markets a resting order quickly goes stale, so each one carries its own
// expiration instead of sitting on the book until cancelled.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alejandrodnm/hedgebot/internal/ports"
)

// TradingClient implements ports.OrderExecutor.
type TradingClient struct {
	auth *AuthClient
}

// NewTradingClient creates a TradingClient over an authenticated client.
func NewTradingClient(auth *AuthClient) *TradingClient {
	return &TradingClient{auth: auth}
}

// PlaceOrder signs and submits a BUY GTD limit order to the CLOB.
// Success requires the explicit success flag plus an order id in the
// response; a 2xx with anything else is still a dispatch failure.
func (tc *TradingClient) PlaceOrder(ctx context.Context, req ports.PlaceOrderRequest) (ports.PlacedOrder, error) {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return ports.PlacedOrder{}, fmt.Errorf("place order: creds: %w", err)
	}

	expiration := time.Now().UTC().Unix() + req.TTL
	signed, err := tc.auth.buildSignedOrder(req.TokenID, req.Price, req.Size, expiration)
	if err != nil {
		return ports.PlacedOrder{}, fmt.Errorf("place order: sign: %w", err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       req.TokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.creds.APIKey,
		OrderType: "GTD",
	}

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return ports.PlacedOrder{}, fmt.Errorf("place order: post: %w", err)
	}

	if !resp.Success || resp.OrderID == "" {
		msg := resp.ErrorMsg
		if msg == "" {
			msg = "no order id in response"
		}
		return ports.PlacedOrder{}, fmt.Errorf("place order: clob rejected: %s", msg)
	}

	return ports.PlacedOrder{
		OrderID: resp.OrderID,
		Status:  resp.Status,
	}, nil
}
