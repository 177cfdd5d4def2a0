package backfill

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigflow/internal/market"
	"sigflow/internal/store"
)

func bar(o, h, l, c float64, ts int64) market.Bar {
	return market.Bar{Open: o, High: h, Low: l, Close: c, TS: time.Unix(ts, 0).UTC()}
}

func TestGateAcceptsCleanBar(t *testing.T) {
	g := NewGate(50, 500)
	reason, ok := g.Check(bar(100, 105, 99, 104, 1000))
	require.True(t, ok, "reason=%s", reason)

	prev, has := g.PrevGoodClose()
	require.True(t, has)
	assert.Equal(t, 104.0, prev)
}

func TestGatePriceFloorBeforeIntegrity(t *testing.T) {
	g := NewGate(50, 500)
	_, ok := g.Check(bar(100, 105, 99, 104, 1000))
	require.True(t, ok)

	// A decimal-shift bar also violates OHLC bounds; the floor check must
	// win so the rejection names the corruption.
	reason, ok := g.Check(bar(104, 106, 102, 3, 1060))
	assert.False(t, ok)
	assert.Equal(t, RejectPriceFloor, reason)

	prev, _ := g.PrevGoodClose()
	assert.Equal(t, 104.0, prev, "rejected bar must not advance the carried close")
}

func TestGateIntegrityReject(t *testing.T) {
	g := NewGate(50, 500)
	cases := []struct {
		name string
		bar  market.Bar
	}{
		{"high below close", bar(100, 101, 99, 103, 1000)},
		{"low above open", bar(100, 105, 101, 104, 1000)},
		{"high below low", bar(100, 98, 99, 100, 1000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reason, ok := g.Check(tc.bar)
			assert.False(t, ok)
			assert.Equal(t, RejectIntegrity, reason)
		})
	}
}

func TestGateDiscontinuity(t *testing.T) {
	g := NewGate(50, 500)
	_, ok := g.Check(bar(100, 105, 99, 104, 1000))
	require.True(t, ok)

	reason, ok := g.Check(bar(700, 710, 690, 705, 1060))
	assert.False(t, ok)
	assert.Equal(t, RejectDiscontinuity, reason)

	// The very first bar of a stream has no reference close and is exempt.
	fresh := NewGate(50, 500)
	_, ok = fresh.Check(bar(700, 710, 690, 705, 1000))
	assert.True(t, ok)
}

func TestGateCarriedCloseSurvivesRejections(t *testing.T) {
	g := NewGate(50, 500)
	_, ok := g.Check(bar(100, 105, 99, 104, 1000))
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		_, ok := g.Check(bar(104, 106, 102, 3, int64(1060+i*60)))
		require.False(t, ok)
	}
	// The next clean bar is judged against 104, not against any rejected close.
	_, ok = g.Check(bar(104, 108, 103, 107, 1300))
	assert.True(t, ok)
}

func TestGateNonFiniteNumbers(t *testing.T) {
	g := NewGate(50, 500)
	reason, ok := g.Check(bar(100, math.NaN(), 99, 104, 1000))
	assert.False(t, ok)
	assert.Equal(t, RejectIntegrity, reason)

	reason, ok = g.Check(bar(100, math.Inf(1), 99, 104, 1060))
	assert.False(t, ok)
	assert.Equal(t, RejectIntegrity, reason)
}

func TestLoaderRun(t *testing.T) {
	bars := store.NewMemoryBarStore()
	loader := NewLoader(bars, 50, 500)

	report, err := loader.Run(context.Background(), "btcusdt", []market.Bar{
		bar(100, 105, 99, 104, 1000),
		bar(104, 106, 102, 3, 1060),   // decimal shift
		bar(104, 101, 103, 104, 1120), // high below low
		bar(104, 108, 103, 107, 1180), // clean
		bar(700, 710, 690, 705, 1240), // jump from 107
	})
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", report.Symbol)
	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 3, report.Rejected)
	assert.Equal(t, 1, report.Reasons[RejectPriceFloor])
	assert.Equal(t, 1, report.Reasons[RejectIntegrity])
	assert.Equal(t, 1, report.Reasons[RejectDiscontinuity])
	assert.Equal(t, 107.0, report.PrevGoodClose)

	count, err := bars.CountBars(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLoaderRunIsIdempotent(t *testing.T) {
	seq := []market.Bar{
		bar(100, 105, 99, 104, 1000),
		bar(104, 106, 102, 3, 1060),
		bar(104, 101, 103, 104, 1120),
		bar(104, 108, 103, 107, 1180),
		bar(700, 710, 690, 705, 1240),
	}
	loader := NewLoader(store.NewMemoryBarStore(), 50, 500)

	first, err := loader.Run(context.Background(), "BTCUSDT", seq)
	require.NoError(t, err)
	second, err := loader.Run(context.Background(), "BTCUSDT", seq)
	require.NoError(t, err)

	// Same sequence, same thresholds, same verdicts: each run starts from a
	// fresh gate, so classification cannot depend on earlier runs.
	assert.Equal(t, first, second)
	assert.Equal(t, 2, second.Accepted)
	assert.Equal(t, 107.0, second.PrevGoodClose)
}

func TestLoaderRequiresSymbol(t *testing.T) {
	loader := NewLoader(store.NewMemoryBarStore(), 50, 500)
	_, err := loader.Run(context.Background(), "  ", nil)
	require.Error(t, err)
}
