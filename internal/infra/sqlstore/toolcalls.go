package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// appendAttempts bounds retries when concurrent appends to one session pick
// the same sequence number.
const appendAttempts = 3

// ToolCallStore implements domain.ToolCallHistory on the tool_calls table, so a
// session window survives across separate `swarm loop record` processes.
type ToolCallStore struct {
	s *Store
}

var _ domain.ToolCallHistory = (*ToolCallStore)(nil)

// Append inserts rec, trims the session to capacity and returns the window,
// all in one transaction.
func (tc *ToolCallStore) Append(ctx context.Context, sessionKey string, rec domain.ToolCallRecord, capacity int) ([]domain.ToolCallRecord, error) {
	var (
		window []domain.ToolCallRecord
		err    error
	)
	for range appendAttempts {
		err = tc.s.withTx(ctx, func(tx *sql.Tx) error {
			var last int64
			if err := tx.QueryRowContext(ctx, tc.s.q(`SELECT COALESCE(MAX(seq), 0) FROM tool_calls WHERE session_key = ?`),
				sessionKey).Scan(&last); err != nil {
				return fmt.Errorf("read tool call seq: %w", err)
			}
			seq := last + 1
			if _, err := tx.ExecContext(ctx, tc.s.q(`INSERT INTO tool_calls (session_key, seq, tool_name, args_hash, called_at)
VALUES (?, ?, ?, ?, ?)`), sessionKey, seq, rec.ToolName, rec.ArgsHash, millis(rec.Timestamp)); err != nil {
				return err
			}
			if capacity > 0 {
				if _, err := tx.ExecContext(ctx, tc.s.q(`DELETE FROM tool_calls WHERE session_key = ? AND seq <= ?`),
					sessionKey, seq-int64(capacity)); err != nil {
					return fmt.Errorf("trim tool calls: %w", err)
				}
			}
			window, err = tc.window(ctx, tx, sessionKey)
			return err
		})
		if err == nil || !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("append tool call: %w", err)
	}
	return window, nil
}

func (tc *ToolCallStore) window(ctx context.Context, tx *sql.Tx, sessionKey string) ([]domain.ToolCallRecord, error) {
	rows, err := tx.QueryContext(ctx, tc.s.q(`SELECT tool_name, args_hash, called_at FROM tool_calls
WHERE session_key = ? ORDER BY seq`), sessionKey)
	if err != nil {
		return nil, fmt.Errorf("read tool calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ToolCallRecord
	for rows.Next() {
		var (
			rec domain.ToolCallRecord
			at  int64
		)
		if err := rows.Scan(&rec.ToolName, &rec.ArgsHash, &at); err != nil {
			return nil, err
		}
		rec.Timestamp = fromMillis(at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Clear discards the session window.
func (tc *ToolCallStore) Clear(ctx context.Context, sessionKey string) error {
	if _, err := tc.s.db.ExecContext(ctx, tc.s.q(`DELETE FROM tool_calls WHERE session_key = ?`), sessionKey); err != nil {
		return fmt.Errorf("clear tool calls: %w", err)
	}
	return nil
}

// EventStore implements domain.EventDeduper on the seen_events table. Keys
// older than the TTL are swept on every call.
type EventStore struct {
	s   *Store
	now func() time.Time
	ttl time.Duration
}

var _ domain.EventDeduper = (*EventStore)(nil)

// Seen records key and reports whether it was already recorded within the TTL.
func (es *EventStore) Seen(ctx context.Context, key string) (bool, error) {
	now := es.now()
	var dup bool
	err := es.s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, es.s.q(`DELETE FROM seen_events WHERE seen_at <= ?`),
			millis(now.Add(-es.ttl))); err != nil {
			return fmt.Errorf("sweep seen events: %w", err)
		}
		res, err := tx.ExecContext(ctx, es.s.q(`INSERT INTO seen_events (event_key, seen_at) VALUES (?, ?)
ON CONFLICT (event_key) DO NOTHING`), key, millis(now))
		if err != nil {
			return fmt.Errorf("record event: %w", err)
		}
		n, err := affected(res)
		dup = n == 0
		return err
	})
	if err != nil {
		return false, err
	}
	return dup, nil
}
