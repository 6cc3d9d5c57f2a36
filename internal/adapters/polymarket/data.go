package polymarket

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alejandrodnm/hedgebot/internal/ports"
)

const dataPositionsPath = "/positions"

// DataClient implementa ports.PositionProvider contra el data-api.
// El snapshot es la fuente autoritativa de la posición ya acumulada: ceba
// el ledger al arrancar cada instancia para que un restart no la pierda.
type DataClient struct {
	*Client
	user string // dirección del proxy que custodia las posiciones
}

// NewDataClient crea un DataClient para la dirección dada.
func NewDataClient(client *Client, user string) *DataClient {
	return &DataClient{Client: client, user: user}
}

// SnapshotPositions devuelve las posiciones actuales para los tokens pedidos.
func (dc *DataClient) SnapshotPositions(ctx context.Context, tokenIDs []string) (map[string]ports.PositionSnapshot, error) {
	q := url.Values{}
	q.Set("user", dc.user)
	q.Set("sizeThreshold", "0")
	reqURL := fmt.Sprintf("%s%s?%s", dc.dataBase, dataPositionsPath, q.Encode())

	var resp []dataPosition
	if err := dc.get(ctx, dc.dataLimiter, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("data.SnapshotPositions: %w", err)
	}

	wanted := make(map[string]bool, len(tokenIDs))
	for _, id := range tokenIDs {
		wanted[id] = true
	}

	result := make(map[string]ports.PositionSnapshot)
	for _, pos := range resp {
		if !wanted[pos.Asset] || pos.Size <= 0 {
			continue
		}
		result[pos.Asset] = ports.PositionSnapshot{
			Quantity: pos.Size,
			AvgPrice: pos.AvgPrice,
		}
	}
	return result, nil
}
