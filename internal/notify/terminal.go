// Package notify renders engine events for a terminal watching the run.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"mmsim/internal/models"
	"mmsim/internal/stream"
	"mmsim/pkg/utils"
)

// TerminalReporter is a hub consumer that prints trades, collapses,
// and periodic tick lines to a writer.
type TerminalReporter struct {
	mu        sync.Mutex
	w         io.Writer
	precision int
	every     int // print one tick line per this many ticks; 0 disables
}

// NewTerminalReporter creates a reporter writing to w. tickEvery
// controls how often plain tick lines appear; trades and collapses are
// always printed.
func NewTerminalReporter(w io.Writer, precision, tickEvery int) *TerminalReporter {
	return &TerminalReporter{w: w, precision: precision, every: tickEvery}
}

// OnEvent implements stream.Consumer.
func (r *TerminalReporter) OnEvent(ev stream.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case stream.EventTick:
		if r.every <= 0 || ev.Point == nil || ev.Point.Tick%int64(r.every) != 0 {
			return
		}
		p := ev.Point
		fmt.Fprintf(r.w, "%s  tick %-6d mid %s  bid %s  ask %s  equity %.2f\n",
			ev.Timestamp.Format(time.TimeOnly),
			p.Tick,
			utils.FormatPrice(p.Mid, r.precision),
			utils.FormatPrice(p.Bid, r.precision),
			utils.FormatPrice(p.Ask, r.precision),
			p.Equity)
	case stream.EventTrade:
		if ev.Trade == nil {
			return
		}
		t := ev.Trade
		fmt.Fprintf(r.w, "%s  FILL %-5s %s @ %s  margin %.2f\n",
			ev.Timestamp.Format(time.TimeOnly),
			sideLabel(t.Side),
			utils.FormatQty(t.Size),
			utils.FormatPrice(t.Price, r.precision),
			t.Margin)
	case stream.EventCollapse:
		if ev.Collapse == nil {
			return
		}
		c := ev.Collapse
		fmt.Fprintf(r.w, "%s  COLLAPSE %s  realized %s\n",
			ev.Timestamp.Format(time.TimeOnly),
			utils.FormatQty(c.Size),
			utils.FormatPnL(c.RealizedPnL))
	}
}

func sideLabel(s models.Side) string {
	if s == models.SideLong {
		return "LONG"
	}
	return "SHORT"
}
