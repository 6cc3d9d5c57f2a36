package polymarket

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/alejandrodnm/hedgebot/internal/domain"
)

// errCandidateRejected agrupa todos los motivos por los que un candidato de
// discovery no sirve. Nunca aborta la búsqueda: se prueba el siguiente.
var errCandidateRejected = errors.New("discovery candidate rejected")

// mapEvent valida un evento de Gamma y lo convierte a domain.Market.
// Cualquier campo ausente o malformado devuelve errCandidateRejected.
func mapEvent(ev gammaEvent, fallbackSlug string, now time.Time) (domain.Market, error) {
	if ev.Closed || len(ev.Markets) == 0 {
		return domain.Market{}, errCandidateRejected
	}

	gm := ev.Markets[0]

	endStr := gm.EndDate
	if endStr == "" {
		endStr = ev.EndDate
	}
	endDate, ok := parseEndDate(endStr)
	if !ok || !endDate.After(now) {
		return domain.Market{}, errCandidateRejected
	}

	tokens, err := parseTokenIDs(gm.ClobTokenIDs)
	if err != nil || len(tokens) < 2 {
		return domain.Market{}, errCandidateRejected
	}

	slug := gm.Slug
	if slug == "" {
		slug = ev.Slug
	}
	if slug == "" {
		slug = fallbackSlug
	}

	question := gm.Question
	if question == "" {
		question = ev.Title
	}

	id := gm.ID
	if id == "" {
		id = ev.ID
	}

	return domain.Market{
		ID:       id,
		Slug:     slug,
		Question: question,
		EndDate:  endDate,
		TokenYES: tokens[0],
		TokenNO:  tokens[1],
	}, nil
}

// parseTokenIDs normaliza clobTokenIds: Gamma lo devuelve a veces como
// array JSON y a veces como string que contiene un array JSON.
func parseTokenIDs(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, errCandidateRejected
	}

	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err == nil {
		return tokens, nil
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(nested), &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// parseEndDate intenta los formatos de fecha que usa Polymarket.
func parseEndDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// mapPriceChange convierte un wsPriceChange a domain.QuoteTick.
// Devuelve ok=false si el precio no parsea.
func mapPriceChange(pc wsPriceChange) (domain.QuoteTick, bool) {
	price, err := strconv.ParseFloat(pc.Price, 64)
	if err != nil || price < 0 {
		return domain.QuoteTick{}, false
	}
	return domain.QuoteTick{
		TokenID: pc.AssetID,
		Side:    domain.TickSide(pc.Side),
		Price:   price,
	}, true
}
