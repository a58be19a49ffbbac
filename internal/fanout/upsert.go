package fanout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zhivkoto/uho-indexer/internal/tables"
)

// execer is satisfied by both *sql.Conn (for the error path, which runs
// outside any transaction) and *sql.Tx (for the normal per-subscriber
// write path, which spec.md §5 requires run inside one short-lived
// transaction).
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// upsertRow inserts one record with the idempotent upsert shape spec.md
// §4.6 requires: (tx_signature, ix_index, inner_ix_index) as the
// conflict key, DO NOTHING on conflict. It reports whether a row was
// actually inserted (false under at-most-once replay).
func upsertRow(ctx context.Context, exec execer, table string, cols []string, vals []interface{}) (bool, error) {
	placeholders := make([]string, len(vals))
	for i := range vals {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (%s, indexed_at) VALUES (%s, now()) ON CONFLICT (tx_signature, ix_index, inner_ix_index) DO NOTHING`,
		tables.Quote(table), strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	res, err := exec.ExecContext(ctx, query, vals...)
	if err != nil {
		return false, fmt.Errorf("upsert into %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// sqlValue converts a normalized decoded value into something database/sql
// can bind: structured (map/list) values are JSON-encoded text, everything
// else passes through as-is.
func sqlValue(v interface{}) interface{} {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return v
	}
}

// upsertTxLog writes one transaction's raw log-message array, keyed by
// tx_signature, per spec.md §4.6's shared _tx_logs table.
func upsertTxLog(ctx context.Context, exec execer, log TxLog) error {
	payload, err := json.Marshal(log.LogMessages)
	if err != nil {
		return fmt.Errorf("marshal log messages: %w", err)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (tx_signature, slot, log_messages, indexed_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (tx_signature) DO NOTHING`,
		tables.Quote(tables.TxLogsTable),
	)
	_, err = exec.ExecContext(ctx, query, log.TxSignature, log.Slot, string(payload))
	return err
}

// updateCursorState refreshes the subscriber's per-program cursor row
// per spec.md §4.6/§3: last_slot = max(written slots), last_signature =
// the signature at that slot (the poller's resume point on restart),
// events_indexed += count, last_poll_at = now(), status = "running".
func updateCursorState(ctx context.Context, exec execer, programID string, maxSlot uint64, lastSignature string, writtenCount int) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (program_id, last_slot, last_signature, events_indexed, last_poll_at, status)
		 VALUES ($1, $2, $3, $4, now(), 'running')
		 ON CONFLICT (program_id) DO UPDATE SET
		   last_slot = GREATEST(%s.last_slot, EXCLUDED.last_slot),
		   last_signature = CASE WHEN EXCLUDED.last_slot >= %s.last_slot THEN EXCLUDED.last_signature ELSE %s.last_signature END,
		   events_indexed = %s.events_indexed + $4,
		   last_poll_at = now(),
		   status = 'running'`,
		tables.Quote(tables.StateTable), tables.Quote(tables.StateTable), tables.Quote(tables.StateTable),
		tables.Quote(tables.StateTable), tables.Quote(tables.StateTable),
	)
	_, err := exec.ExecContext(ctx, query, programID, maxSlot, lastSignature, writtenCount)
	return err
}

// markCursorError records a subscriber write failure on its cursor row,
// at the writer's discretion per spec.md §7's error taxonomy (item 4).
// It always runs outside the failed transaction, directly on the
// borrowed connection.
func markCursorError(ctx context.Context, exec execer, programID string, writeErr error) {
	query := fmt.Sprintf(
		`INSERT INTO %s (program_id, last_slot, events_indexed, last_poll_at, status, error)
		 VALUES ($1, 0, 0, now(), 'error', $2)
		 ON CONFLICT (program_id) DO UPDATE SET status = 'error', error = $2, last_poll_at = now()`,
		tables.Quote(tables.StateTable),
	)
	_, _ = exec.ExecContext(ctx, query, programID, writeErr.Error())
}
