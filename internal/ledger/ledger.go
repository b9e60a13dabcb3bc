// Package ledger owns the account state of the simulated market maker: cash
// balance, the long and short inventory sides, trade and collapse history,
// and realized profit. Business-rule failures (insufficient margin, nothing
// to collapse) return nil results and leave state untouched; they are not
// errors.
package ledger

import (
	"time"

	"mmsim/internal/models"
)

// Defaults for the construction parameters. Kept as parameters rather than
// literals so backtests can vary them without code changes.
const (
	DefaultLeverage          = 10.0
	DefaultOrderNotional     = 1000.0
	DefaultCollapseThreshold = 2500.0
	MaxTrades                = 100
)

// Config parameterizes a Ledger.
type Config struct {
	InitialBalance    float64
	Leverage          float64
	OrderNotional     float64 // fixed notional cap per order, in quote currency
	CollapseThreshold float64 // cash level below which matched inventory is netted
}

// Ledger tracks cash, positions, and history for one engine instance.
// Not safe for concurrent use; the engine mutates it only inside a tick.
type Ledger struct {
	cfg Config

	cash        float64
	long        models.Position
	short       models.Position
	realizedPnL float64

	trades    []models.Trade // newest first, bounded
	collapses []models.Collapse
	nextTrade int64
	nextColl  int64
}

// New creates a ledger with the given configuration, applying defaults to
// zero-valued parameters.
func New(cfg Config) *Ledger {
	if cfg.Leverage <= 0 {
		cfg.Leverage = DefaultLeverage
	}
	if cfg.OrderNotional <= 0 {
		cfg.OrderNotional = DefaultOrderNotional
	}
	if cfg.CollapseThreshold <= 0 {
		cfg.CollapseThreshold = DefaultCollapseThreshold
	}
	return &Ledger{
		cfg:  cfg,
		cash: cfg.InitialBalance,
	}
}

// Margin returns the capital reserved against a position of the given size
// and price.
func (l *Ledger) Margin(size, price float64) float64 {
	return size * price / l.cfg.Leverage
}

// OrderSize returns the maximum order size at the given price, capped by the
// fixed notional and by current buying power.
func (l *Ledger) OrderSize(price float64) float64 {
	if price <= 0 {
		return 0
	}
	notional := l.cfg.OrderNotional
	if power := l.cash * l.cfg.Leverage; power < notional {
		notional = power
	}
	if notional < 0 {
		return 0
	}
	return notional / price
}

// Enter executes an entry on one side of the book. The entry is rejected
// atomically (nil, no state change) when the required margin exceeds the cash
// balance; there is no partial fill.
func (l *Ledger) Enter(side models.Side, price, size float64, ts time.Time) *models.Trade {
	if size <= 0 || price <= 0 {
		return nil
	}
	margin := l.Margin(size, price)
	if margin > l.cash {
		return nil
	}

	l.cash -= margin

	pos := &l.long
	if side == models.SideShort {
		pos = &l.short
	}
	// Size-weighted average entry price across fills.
	total := pos.AvgPrice*pos.Size + price*size
	pos.Size += size
	pos.AvgPrice = total / pos.Size

	l.nextTrade++
	trade := models.Trade{
		ID:        l.nextTrade,
		Timestamp: ts,
		Side:      side,
		Price:     price,
		Size:      size,
		Margin:    margin,
	}
	l.trades = append([]models.Trade{trade}, l.trades...)
	if len(l.trades) > MaxTrades {
		l.trades = l.trades[:MaxTrades]
	}
	return &trade
}

// ShouldCollapse reports whether matched inventory should be netted: the cash
// balance has fallen below the collapse threshold while both sides hold size.
func (l *Ledger) ShouldCollapse() bool {
	return l.cash < l.cfg.CollapseThreshold && l.long.Size > 0 && l.short.Size > 0
}

// Collapse nets min(long, short) of offsetting inventory at the two sides'
// average costs, realizing (shortAvg-longAvg)*size and returning the margin
// held against both collapsed legs to cash. Returns nil when there is nothing
// to net.
func (l *Ledger) Collapse(ts time.Time) *models.Collapse {
	size := l.long.Size
	if l.short.Size < size {
		size = l.short.Size
	}
	if size <= 0 {
		return nil
	}

	realized := (l.short.AvgPrice - l.long.AvgPrice) * size
	freed := l.Margin(size, l.long.AvgPrice) + l.Margin(size, l.short.AvgPrice)

	l.cash += freed + realized
	l.realizedPnL += realized

	l.long.Size -= size
	l.short.Size -= size
	if l.long.Size == 0 {
		l.long.AvgPrice = 0
	}
	if l.short.Size == 0 {
		l.short.AvgPrice = 0
	}

	l.nextColl++
	collapse := models.Collapse{
		ID:          l.nextColl,
		Timestamp:   ts,
		Size:        size,
		RealizedPnL: realized,
	}
	l.collapses = append([]models.Collapse{collapse}, l.collapses...)
	return &collapse
}

// Unrealized returns the mark-to-market profit of both sides at the given
// price.
func (l *Ledger) Unrealized(price float64) float64 {
	return l.long.Size*(price-l.long.AvgPrice) + l.short.Size*(l.short.AvgPrice-price)
}

// Equity returns cash plus reserved margin plus unrealized profit.
func (l *Ledger) Equity(price float64) float64 {
	return l.cash +
		l.Margin(l.long.Size, l.long.AvgPrice) +
		l.Margin(l.short.Size, l.short.AvgPrice) +
		l.Unrealized(price)
}

// Reset restores the cash balance and clears positions and history.
func (l *Ledger) Reset(balance float64) {
	l.cash = balance
	l.long = models.Position{}
	l.short = models.Position{}
	l.realizedPnL = 0
	l.trades = nil
	l.collapses = nil
	l.nextTrade = 0
	l.nextColl = 0
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 { return l.cash }

// Long returns the long side of the book.
func (l *Ledger) Long() models.Position { return l.long }

// Short returns the short side of the book.
func (l *Ledger) Short() models.Position { return l.short }

// RealizedPnL returns cumulative realized profit from collapses.
func (l *Ledger) RealizedPnL() float64 { return l.realizedPnL }

// Trades returns the trade history, newest first. The slice is a copy.
func (l *Ledger) Trades() []models.Trade {
	out := make([]models.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Collapses returns the collapse history, newest first. The slice is a copy.
func (l *Ledger) Collapses() []models.Collapse {
	out := make([]models.Collapse, len(l.collapses))
	copy(out, l.collapses)
	return out
}

// Snapshot returns a read-only view of the ledger state.
func (l *Ledger) Snapshot() models.LedgerSnapshot {
	return models.LedgerSnapshot{
		CashBalance:   l.cash,
		Leverage:      l.cfg.Leverage,
		Long:          l.long,
		Short:         l.short,
		RealizedPnL:   l.realizedPnL,
		TradeCount:    len(l.trades),
		CollapseCount: len(l.collapses),
	}
}
