package polymarket

import "encoding/json"

// DTOs raw de las APIs de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaEventsResponse es la respuesta de GET /events?slug=....
type gammaEventsResponse []gammaEvent

// gammaEvent es un evento updown con sus sub-mercados.
type gammaEvent struct {
	ID      string        `json:"id"`
	Slug    string        `json:"slug"`
	Title   string        `json:"title"`
	EndDate string        `json:"endDate"`
	Closed  bool          `json:"closed"`
	Markets []gammaMarket `json:"markets"`
}

// gammaMarket es un sub-mercado dentro de un evento. Gamma devuelve
// clobTokenIds a veces como array JSON y a veces como string que contiene
// un array JSON; se normaliza en mapping.go.
type gammaMarket struct {
	ID           string          `json:"id"`
	Slug         string          `json:"slug"`
	Question     string          `json:"question"`
	EndDate      string          `json:"endDate"`
	ClobTokenIDs json.RawMessage `json:"clobTokenIds"`
}

// --- Data API ---

// dataPosition es una posición reportada por GET /positions del data-api.
// Los campos numéricos llegan como números JSON normales.
type dataPosition struct {
	Asset    string  `json:"asset"`
	Size     float64 `json:"size"`
	AvgPrice float64 `json:"avgPrice"`
}

// --- CLOB websocket ---

// wsSubscribe es el frame inicial de suscripción al canal de mercado.
type wsSubscribe struct {
	Type      string   `json:"type"`
	AssetsIDs []string `json:"assets_ids"`
}

// wsMessage es un frame entrante del canal de mercado. Los frames sin
// price_changes (heartbeats, book snapshots de otros tipos) se ignoran.
type wsMessage struct {
	EventType    string          `json:"event_type"`
	PriceChanges []wsPriceChange `json:"price_changes"`
}

// wsPriceChange es un cambio de mejor precio de un asset.
type wsPriceChange struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	Side    string `json:"side"` // "BUY" | "SELL"
}

// --- CLOB order API ---

// clobOrderRequest es el body de POST /order.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderID"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
}
