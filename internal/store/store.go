// Package store persists completed sessions.
package store

import (
	"context"
	"time"

	"mmsim/internal/export"
)

// SessionSummary is the listing row for a saved session.
type SessionSummary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Symbol        string    `json:"symbol"`
	Mode          string    `json:"mode"`
	Seed          uint32    `json:"seed"`
	FinalEquity   float64   `json:"final_equity"`
	TradeCount    int       `json:"trade_count"`
	CollapseCount int       `json:"collapse_count"`
}

// SessionStore saves and retrieves completed sessions.
type SessionStore interface {
	Save(ctx context.Context, s export.Session) (string, error)
	Get(ctx context.Context, id string) (export.Session, error)
	List(ctx context.Context, limit int) ([]SessionSummary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
