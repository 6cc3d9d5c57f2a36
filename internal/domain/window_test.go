package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowStart_FloorsToWindow(t *testing.T) {
	// 2026-01-05 12:07:30 UTC → la ventana empieza a las 12:00:00
	now := time.Date(2026, 1, 5, 12, 7, 30, 0, time.UTC)
	start := WindowStart(now)

	assert.Equal(t, time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC).Unix(), start)
}

func TestWindowStart_ContainsNow(t *testing.T) {
	for _, now := range []time.Time{
		time.Unix(0, 0),
		time.Unix(899, 0),
		time.Unix(900, 0),
		time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
	} {
		start := WindowStart(now)
		assert.LessOrEqual(t, start, now.Unix())
		assert.Greater(t, start+WindowSeconds, now.Unix())
	}
}

func TestWindowStart_IdempotentOnOwnOutput(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 13, 45, 0, time.UTC)
	start := WindowStart(now)

	assert.Equal(t, start, WindowStart(time.Unix(start, 0)))
}

func TestWindowEpoch_Offsets(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 7, 30, 0, time.UTC)

	assert.Equal(t, WindowStart(now), WindowEpoch(now, 0))
	assert.Equal(t, WindowStart(now)+WindowSeconds, WindowEpoch(now, 1))
}
