package ports

import "context"

// PositionSnapshot es la posición autoritativa del venue para un token.
type PositionSnapshot struct {
	Quantity float64
	AvgPrice float64
}

// PositionProvider consulta las posiciones actuales reportadas por el venue.
// Se usa una vez por instancia de mercado para cebar el ledger, de modo que
// un restart no pierda la posición ya acumulada.
type PositionProvider interface {
	// SnapshotPositions devuelve tokenID → posición para los tokens pedidos.
	// Los tokens sin posición simplemente no aparecen en el mapa.
	SnapshotPositions(ctx context.Context, tokenIDs []string) (map[string]PositionSnapshot, error)
}
