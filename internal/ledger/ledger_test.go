package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmsim/internal/models"
)

func newTestLedger(balance float64) *Ledger {
	return New(Config{
		InitialBalance:    balance,
		Leverage:          10,
		OrderNotional:     1000,
		CollapseThreshold: 250,
	})
}

func TestMargin(t *testing.T) {
	t.Parallel()

	l := newTestLedger(1000)
	assert.InDelta(t, 20.0, l.Margin(2, 100), 1e-12)
	assert.InDelta(t, 0.0, l.Margin(0, 100), 1e-12)
}

func TestOrderSize(t *testing.T) {
	t.Parallel()

	l := newTestLedger(1000)
	// Buying power 10000 exceeds the 1000 notional cap.
	assert.InDelta(t, 10.0, l.OrderSize(100), 1e-12)

	// Low balance: buying power caps the order.
	low := newTestLedger(50)
	assert.InDelta(t, 5.0, low.OrderSize(100), 1e-12)

	assert.Equal(t, 0.0, l.OrderSize(0))
}

func TestEnterDebitsMarginAndAveragesPrice(t *testing.T) {
	t.Parallel()

	l := newTestLedger(1000)
	ts := time.Now()

	tr := l.Enter(models.SideLong, 100, 2, ts)
	require.NotNil(t, tr)
	assert.InDelta(t, 20.0, tr.Margin, 1e-12)
	assert.InDelta(t, 980.0, l.Cash(), 1e-12)
	assert.InDelta(t, 100.0, l.Long().AvgPrice, 1e-12)

	// Second fill at a higher price: size-weighted average.
	tr = l.Enter(models.SideLong, 110, 2, ts)
	require.NotNil(t, tr)
	assert.InDelta(t, 4.0, l.Long().Size, 1e-12)
	assert.InDelta(t, 105.0, l.Long().AvgPrice, 1e-12)

	// Short side is independent.
	tr = l.Enter(models.SideShort, 120, 1, ts)
	require.NotNil(t, tr)
	assert.InDelta(t, 1.0, l.Short().Size, 1e-12)
	assert.InDelta(t, 120.0, l.Short().AvgPrice, 1e-12)
}

func TestEnterRejectsInsufficientMargin(t *testing.T) {
	t.Parallel()

	l := newTestLedger(10)
	before := l.Snapshot()

	// Margin 2*100/10 = 20 > 10 cash.
	tr := l.Enter(models.SideLong, 100, 2, time.Now())
	assert.Nil(t, tr)
	assert.Equal(t, before, l.Snapshot())
	assert.Empty(t, l.Trades())
}

func TestEnterRejectsNonPositiveInputs(t *testing.T) {
	t.Parallel()

	l := newTestLedger(1000)
	assert.Nil(t, l.Enter(models.SideLong, 100, 0, time.Now()))
	assert.Nil(t, l.Enter(models.SideLong, 0, 1, time.Now()))
	assert.Nil(t, l.Enter(models.SideShort, -5, 1, time.Now()))
}

func TestTradesNewestFirstAndBounded(t *testing.T) {
	t.Parallel()

	l := New(Config{InitialBalance: 1e9})
	ts := time.Now()
	for i := 0; i < MaxTrades+20; i++ {
		require.NotNil(t, l.Enter(models.SideLong, 100, 0.001, ts))
	}

	trades := l.Trades()
	require.Len(t, trades, MaxTrades)
	// Newest first: highest sequence id leads.
	assert.Equal(t, int64(MaxTrades+20), trades[0].ID)
	assert.Equal(t, int64(21), trades[MaxTrades-1].ID)
}

func TestShouldCollapse(t *testing.T) {
	t.Parallel()

	l := newTestLedger(1000)
	ts := time.Now()
	l.Enter(models.SideLong, 100, 1, ts)
	l.Enter(models.SideShort, 100, 1, ts)

	// Cash 980 is above the 250 threshold.
	assert.False(t, l.ShouldCollapse())

	low := newTestLedger(240)
	low.Enter(models.SideLong, 100, 1, ts)
	assert.False(t, low.ShouldCollapse()) // only one side held

	low.Enter(models.SideShort, 100, 1, ts)
	assert.True(t, low.ShouldCollapse())
}

func TestCollapseNetsMatchedInventory(t *testing.T) {
	t.Parallel()

	l := newTestLedger(1000)
	ts := time.Now()
	require.NotNil(t, l.Enter(models.SideLong, 100, 2, ts))  // margin 20
	require.NotNil(t, l.Enter(models.SideShort, 105, 1, ts)) // margin 10.5
	cashBefore := l.Cash()

	c := l.Collapse(ts)
	require.NotNil(t, c)
	assert.InDelta(t, 1.0, c.Size, 1e-12)
	assert.InDelta(t, 5.0, c.RealizedPnL, 1e-12) // (105-100)*1

	// Freed margin: 1*100/10 + 1*105/10 = 20.5, plus realized 5.
	assert.InDelta(t, cashBefore+20.5+5, l.Cash(), 1e-12)
	assert.InDelta(t, 5.0, l.RealizedPnL(), 1e-12)

	// Long keeps 1 @ 100; short emptied and avg reset.
	assert.InDelta(t, 1.0, l.Long().Size, 1e-12)
	assert.InDelta(t, 100.0, l.Long().AvgPrice, 1e-12)
	assert.Equal(t, 0.0, l.Short().Size)
	assert.Equal(t, 0.0, l.Short().AvgPrice)

	require.Len(t, l.Collapses(), 1)
}

func TestCollapseNoopWithoutMatchedInventory(t *testing.T) {
	t.Parallel()

	l := newTestLedger(1000)
	assert.Nil(t, l.Collapse(time.Now()))

	l.Enter(models.SideLong, 100, 1, time.Now())
	before := l.Snapshot()
	assert.Nil(t, l.Collapse(time.Now()))
	assert.Equal(t, before, l.Snapshot())
}

func TestUnrealized(t *testing.T) {
	t.Parallel()

	l := newTestLedger(1000)
	ts := time.Now()
	l.Enter(models.SideLong, 100, 2, ts)
	l.Enter(models.SideShort, 110, 1, ts)

	// long 2*(105-100) + short 1*(110-105) = 10 + 5
	assert.InDelta(t, 15.0, l.Unrealized(105), 1e-12)
}

func TestEquityConservationAfterReset(t *testing.T) {
	t.Parallel()

	l := newTestLedger(500)
	l.Enter(models.SideLong, 100, 2, time.Now())
	l.Reset(1000)

	for _, price := range []float64{1, 50, 100, 99999} {
		assert.InDelta(t, 1000.0, l.Equity(price), 1e-12)
	}
	assert.Empty(t, l.Trades())
	assert.Empty(t, l.Collapses())
	assert.Equal(t, 0.0, l.RealizedPnL())
}

func TestEquityAtEntryPriceIsConserved(t *testing.T) {
	t.Parallel()

	// Entering at price p and marking at p moves no equity: the debited
	// margin reappears as reserved margin and unrealized is zero.
	l := newTestLedger(1000)
	l.Enter(models.SideLong, 100, 3, time.Now())
	assert.InDelta(t, 1000.0, l.Equity(100), 1e-9)
}
