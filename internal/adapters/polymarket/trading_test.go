package polymarket_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/hedgebot/internal/adapters/polymarket"
	"github.com/alejandrodnm/hedgebot/internal/ports"
)

// Clave de test conocida; nunca se usa fuera de los tests.
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// clobServer simula derive-api-key y POST /order.
func clobServer(t *testing.T, orderResponse string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/derive-api-key":
			assert.NotEmpty(t, r.Header.Get("POLY_ADDRESS"))
			assert.NotEmpty(t, r.Header.Get("POLY_SIGNATURE"))
			fmt.Fprint(w, `{"apiKey": "key-1", "secret": "c2VjcmV0LXNlY3JldA==", "passphrase": "pass"}`)
		case "/order":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NotEmpty(t, r.Header.Get("POLY_SIGNATURE"))
			assert.Equal(t, "key-1", r.Header.Get("POLY_API_KEY"))

			var body struct {
				Order     map[string]any `json:"order"`
				OrderType string         `json:"orderType"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "GTD", body.OrderType)
			assert.Equal(t, "BUY", body.Order["side"])
			assert.NotEmpty(t, body.Order["signature"])
			assert.NotEqual(t, "0", body.Order["expiration"], "las órdenes GTD llevan expiración")

			fmt.Fprint(w, orderResponse)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTradingClient(t *testing.T, srv *httptest.Server) *polymarket.TradingClient {
	t.Helper()
	auth, err := polymarket.NewAuthClient(polymarket.NewClient(srv.URL, "", ""), testPrivateKey, "")
	require.NoError(t, err)
	return polymarket.NewTradingClient(auth)
}

func TestPlaceOrder_Success(t *testing.T) {
	srv := clobServer(t, `{"success": true, "orderID": "ord-123", "status": "live"}`)
	defer srv.Close()

	tc := newTradingClient(t, srv)
	placed, err := tc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		TokenID: "123456789012345678901234567890",
		Price:   0.48,
		Size:    20.83,
		TTL:     120,
	})

	require.NoError(t, err)
	assert.Equal(t, "ord-123", placed.OrderID)
	assert.Equal(t, "live", placed.Status)
}

func TestPlaceOrder_ExplicitFailure(t *testing.T) {
	srv := clobServer(t, `{"success": false, "errorMsg": "not enough balance"}`)
	defer srv.Close()

	tc := newTradingClient(t, srv)
	_, err := tc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		TokenID: "123456789012345678901234567890", Price: 0.48, Size: 20, TTL: 120,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough balance")
}

func TestPlaceOrder_MissingOrderIDIsFailure(t *testing.T) {
	// success sin orderID no cuenta como confirmación
	srv := clobServer(t, `{"success": true, "orderID": ""}`)
	defer srv.Close()

	tc := newTradingClient(t, srv)
	_, err := tc.PlaceOrder(context.Background(), ports.PlaceOrderRequest{
		TokenID: "123456789012345678901234567890", Price: 0.48, Size: 20, TTL: 120,
	})

	assert.Error(t, err)
}
