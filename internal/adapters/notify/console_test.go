package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/hedgebot/internal/ports"
)

func sampleSnapshot() ports.RunnerSnapshot {
	return ports.RunnerSnapshot{
		Symbol:       "eth",
		Status:       "Tracking eth-updown-15m-1700000100",
		Slug:         "eth-updown-15m-1700000100",
		Question:     "Ethereum Up or Down - September 1, 3:45PM ET",
		EndDate:      time.Now().Add(9 * time.Minute),
		AskYES:       0.48,
		AskNO:        0.49,
		QtyYES:       41.6,
		QtyNO:        40.0,
		AvgYES:       0.47,
		AvgNO:        0.48,
		Imbalance:    1.6,
		Exposure:     38.75,
		LockedProfit: 2.0,
		Trades:       4,
	}
}

func TestConsole_TableRendersEachSymbol(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	btc := sampleSnapshot()
	btc.Symbol = "btc"
	btc.LastError = "stream: ws closed"

	require.NoError(t, c.Notify(context.Background(), []ports.RunnerSnapshot{sampleSnapshot(), btc}))

	out := buf.String()
	assert.Contains(t, out, "ETH")
	assert.Contains(t, out, "BTC")
	assert.Contains(t, out, "Ethereum Up or Down")
	assert.Contains(t, out, "0.970 *", "la suma bajo paridad se marca")
	assert.Contains(t, out, "!! BTC: stream: ws closed")
}

func TestConsole_CompactLinePerSymbol(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.Notify(context.Background(), []ports.RunnerSnapshot{sampleSnapshot()}))

	out := buf.String()
	assert.Contains(t, out, "ETH")
	assert.Contains(t, out, "pair 0.970")
	assert.Contains(t, out, "imb +1.6")
	assert.Contains(t, out, "lock $2.00")
}

func TestConsole_CompactWithoutMarketShowsStatus(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	snap := ports.RunnerSnapshot{Symbol: "eth", Status: "Waiting for market window"}
	require.NoError(t, c.Notify(context.Background(), []ports.RunnerSnapshot{snap}))

	assert.Contains(t, buf.String(), "Waiting for market window")
}

func TestConsole_EmptySnapshotsNoOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	require.NoError(t, c.Notify(context.Background(), nil))
	assert.Empty(t, buf.String())
}
