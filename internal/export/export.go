// Package export serializes session data to CSV and JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"time"

	"mmsim/internal/errors"
	"mmsim/internal/models"
)

// Session bundles everything a saved or exported run carries.
type Session struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Asset     models.AssetConfig    `json:"asset"`
	Mode      models.Mode           `json:"mode"`
	Regime    models.Regime         `json:"regime"`
	Seed      uint32                `json:"seed"`
	Ledger    models.LedgerSnapshot `json:"ledger"`
	Trades    []models.Trade        `json:"trades"`
	Collapses []models.Collapse     `json:"collapses"`
	History   []models.DataPoint    `json:"history"`
}

// historyHeader matches the DataPoint field order.
var historyHeader = []string{
	"timestamp", "tick", "mid", "bid", "ask", "spread", "atr",
	"cash_balance", "equity", "unrealized_pnl", "realized_pnl",
	"long_size", "short_size",
}

// WriteHistoryCSV writes the per-tick history as CSV, header first.
func WriteHistoryCSV(w io.Writer, points []models.DataPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, p := range points {
		row := []string{
			p.Timestamp.Format(time.RFC3339),
			strconv.FormatInt(p.Tick, 10),
			f(p.Mid),
			f(p.Bid),
			f(p.Ask),
			f(p.Spread),
			f(p.ATR),
			f(p.CashBalance),
			f(p.Equity),
			f(p.UnrealizedPnL),
			f(p.RealizedPnL),
			f(p.LongSize),
			f(p.ShortSize),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

var tradeHeader = []string{"id", "timestamp", "side", "price", "size", "margin"}

// WriteTradesCSV writes the trade history as CSV, header first.
func WriteTradesCSV(w io.Writer, trades []models.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, t := range trades {
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Timestamp.Format(time.RFC3339),
			string(t.Side),
			f(t.Price),
			f(t.Size),
			f(t.Margin),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// WriteJSON writes the full session as indented JSON.
func WriteJSON(w io.Writer, s Session) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(s), "encode session")
}

// ReadJSON parses a session previously written by WriteJSON.
func ReadJSON(r io.Reader) (Session, error) {
	var s Session
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Session{}, errors.Wrap(err, "decode session")
	}
	return s, nil
}

// HistoryCSVFile writes the history CSV to path, creating or truncating it.
func HistoryCSVFile(path string, points []models.DataPoint) error {
	return toFile(path, func(w io.Writer) error {
		return WriteHistoryCSV(w, points)
	})
}

// TradesCSVFile writes the trades CSV to path, creating or truncating it.
func TradesCSVFile(path string, trades []models.Trade) error {
	return toFile(path, func(w io.Writer) error {
		return WriteTradesCSV(w, trades)
	})
}

// JSONFile writes the session JSON to path, creating or truncating it.
func JSONFile(path string, s Session) error {
	return toFile(path, func(w io.Writer) error {
		return WriteJSON(w, s)
	})
}

func toFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 8, 64)
}
