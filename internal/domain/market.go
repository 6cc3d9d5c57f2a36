package domain

import "time"

// Market representa una instancia de mercado updown de 15 minutos.
// Inmutable una vez descubierta; se descarta cuando pasa EndDate.
type Market struct {
	ID       string
	Slug     string
	Question string
	EndDate  time.Time // UTC
	TokenYES string
	TokenNO  string
}

// Token devuelve el token id del outcome dado.
func (m Market) Token(o Outcome) string {
	if o == OutcomeYES {
		return m.TokenYES
	}
	return m.TokenNO
}

// Ended devuelve true si la instancia ya expiró respecto a now.
func (m Market) Ended(now time.Time) bool {
	return !now.Before(m.EndDate)
}

// TimeLeft devuelve el tiempo restante hasta la resolución. 0 si ya expiró.
func (m Market) TimeLeft(now time.Time) time.Duration {
	d := m.EndDate.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
