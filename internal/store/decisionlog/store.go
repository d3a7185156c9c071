// Package decisionlog keeps a trace of every entry decision for later review.
package decisionlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one evaluated entry, admitted or not.
type Record struct {
	ID        int64   `json:"id"`
	Timestamp int64   `json:"ts"`
	Asset     string  `json:"asset"`
	Direction string  `json:"direction"`
	Pattern   string  `json:"pattern"`
	Regime    string  `json:"regime"`
	Score     float64 `json:"score"`
	Prob      float64 `json:"prob"`
	Admitted  bool    `json:"admitted"`
	Reason    string  `json:"reason,omitempty"`
	Context   any     `json:"context,omitempty"`
}

// Store writes decision traces to its own SQLite file, separate from the
// trade database so heavy trace queries never contend with order writes.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("decision log: path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert appends a decision trace.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if s == nil || s.db == nil {
		return nil
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}
	var ctxJSON string
	if rec.Context != nil {
		if raw, err := json.Marshal(rec.Context); err == nil {
			ctxJSON = string(raw)
		}
	}
	admitted := 0
	if rec.Admitted {
		admitted = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (ts, asset, direction, pattern, regime, score, prob, admitted, reason, context_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Asset, rec.Direction, rec.Pattern, rec.Regime,
		rec.Score, rec.Prob, admitted, rec.Reason, ctxJSON,
	)
	return err
}

// Recent returns the latest traces, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, asset, direction, pattern, regime, score, prob, admitted, reason, context_json
		FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var admitted int
		var ctxJSON string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Asset, &rec.Direction,
			&rec.Pattern, &rec.Regime, &rec.Score, &rec.Prob, &admitted,
			&rec.Reason, &ctxJSON); err != nil {
			return nil, err
		}
		rec.Admitted = admitted != 0
		if ctxJSON != "" {
			var doc any
			if err := json.Unmarshal([]byte(ctxJSON), &doc); err == nil {
				rec.Context = doc
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
