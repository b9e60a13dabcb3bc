package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mmsim/internal/errors"
	"mmsim/internal/export"
	"mmsim/pkg/id"
)

// SQLiteStore implements SessionStore using SQLite. The full session is
// stored as a JSON payload next to the columns the listing queries need.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the session database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.NewStoreError("open", "", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.NewStoreError("init schema", "", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		mode TEXT NOT NULL,
		seed INTEGER NOT NULL,
		final_equity REAL NOT NULL,
		trade_count INTEGER NOT NULL,
		collapse_count INTEGER NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_symbol ON sessions(symbol);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save persists a session and returns its id. A session without an id
// gets a fresh one; saving an existing id overwrites it.
func (s *SQLiteStore) Save(ctx context.Context, sess export.Session) (string, error) {
	if sess.ID == "" {
		sess.ID = id.New()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return "", errors.NewStoreError("marshal", sess.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
			(id, created_at, symbol, mode, seed, final_equity, trade_count, collapse_count, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.CreatedAt, sess.Asset.Symbol, string(sess.Mode), sess.Seed,
		finalEquity(sess), len(sess.Trades), len(sess.Collapses), string(payload))
	if err != nil {
		return "", errors.NewStoreError("save", sess.ID, err)
	}
	return sess.ID, nil
}

// Get loads a session by id.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (export.Session, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE id = ?`, sessionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return export.Session{}, errors.NewStoreError("get", sessionID, errors.ErrSessionNotFound)
	}
	if err != nil {
		return export.Session{}, errors.NewStoreError("get", sessionID, err)
	}

	var sess export.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return export.Session{}, errors.NewStoreError("unmarshal", sessionID, err)
	}
	return sess, nil
}

// List returns saved sessions, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]SessionSummary, error) {
	query := `
		SELECT id, created_at, symbol, mode, seed, final_equity, trade_count, collapse_count
		FROM sessions ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStoreError("list", "", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &sum.Symbol, &sum.Mode,
			&sum.Seed, &sum.FinalEquity, &sum.TradeCount, &sum.CollapseCount); err != nil {
			return nil, errors.NewStoreError("scan", "", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("list", "", err)
	}
	return out, nil
}

// Delete removes a session by id.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return errors.NewStoreError("delete", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewStoreError("delete", sessionID, errors.ErrSessionNotFound)
	}
	return nil
}

func finalEquity(sess export.Session) float64 {
	if n := len(sess.History); n > 0 {
		return sess.History[n-1].Equity
	}
	return sess.Ledger.CashBalance
}
