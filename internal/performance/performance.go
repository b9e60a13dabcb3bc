// Package performance summarizes a session's tick history into account
// and trading statistics.
package performance

import (
	"fmt"
	"io"
	"time"

	"mmsim/internal/models"
)

// Summary is the computed result of a session.
type Summary struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Ticks int       `json:"ticks"`

	StartEquity float64 `json:"start_equity"`
	EndEquity   float64 `json:"end_equity"`
	NetPnL      float64 `json:"net_pnl"`
	ReturnPct   float64 `json:"return_pct"`

	PeakEquity     float64 `json:"peak_equity"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`

	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	AvgSpread     float64 `json:"avg_spread"`

	Trades    int     `json:"trades"`
	Collapses int     `json:"collapses"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	WinRate   float64 `json:"win_rate"`
}

// Compute builds a summary from the per-tick history and the collapse
// record. Wins and losses count collapses by the sign of their realized
// profit; a collapse at exactly zero counts as neither.
func Compute(history []models.DataPoint, trades []models.Trade, collapses []models.Collapse) Summary {
	var s Summary
	s.Trades = len(trades)
	s.Collapses = len(collapses)

	for _, c := range collapses {
		switch {
		case c.RealizedPnL > 0:
			s.Wins++
		case c.RealizedPnL < 0:
			s.Losses++
		}
	}
	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRate = 100 * float64(s.Wins) / float64(decided)
	}

	if len(history) == 0 {
		return s
	}

	first, last := history[0], history[len(history)-1]
	s.Start = first.Timestamp
	s.End = last.Timestamp
	s.Ticks = len(history)
	s.StartEquity = first.Equity
	s.EndEquity = last.Equity
	s.NetPnL = last.Equity - first.Equity
	if first.Equity != 0 {
		s.ReturnPct = 100 * s.NetPnL / first.Equity
	}
	s.RealizedPnL = last.RealizedPnL
	s.UnrealizedPnL = last.UnrealizedPnL

	peak := first.Equity
	var spreadSum, maxDD float64
	for _, p := range history {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := 100 * (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
		spreadSum += p.Spread
	}
	s.PeakEquity = peak
	s.MaxDrawdownPct = maxDD
	s.AvgSpread = spreadSum / float64(len(history))
	return s
}

// Print writes a plain-text report of the summary.
func Print(w io.Writer, symbol string, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Session Result")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Asset:         %s\n", symbol)
	if !s.Start.IsZero() {
		fmt.Fprintf(w, "Start:         %s\n", s.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", s.End.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Ticks:         %d\n", s.Ticks)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:  %.2f\n", s.StartEquity)
	fmt.Fprintf(w, "End Equity:    %.2f\n", s.EndEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", s.NetPnL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", s.ReturnPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", s.MaxDrawdownPct)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trading")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.Trades)
	fmt.Fprintf(w, "Collapses:     %d\n", s.Collapses)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate)
	fmt.Fprintf(w, "Realized P/L:  %.2f\n", s.RealizedPnL)
	fmt.Fprintf(w, "Avg Spread:    %.4f\n", s.AvgSpread)
	fmt.Fprintln(w)
}
