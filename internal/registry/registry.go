// Package registry holds the Program/Subscriber/Cursor domain types and
// the Postgres-backed repository for the active-program-subscriptions
// relation (spec.md §6 "Control plane (consumed)").
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhivkoto/uho-indexer/internal/tables"
)

// Subscriber is a tenant binding (user_id, program_id) to a schema, its
// enabled event/instruction names, and the token-transfer opt-in flag
// (spec.md §3, §9's resolved open question).
type Subscriber struct {
	UserID              string          `json:"user_id"`
	Schema              string          `json:"schema"`
	ProgramName         string          `json:"program_name"`
	IDL                 json.RawMessage `json:"idl"`
	EnabledEvents       []string        `json:"enabled_events"`
	EnabledInstructions []string        `json:"enabled_instructions"`
	IndexTokenTransfers bool            `json:"index_token_transfers"`
}

// HasEvent reports whether name is in the subscriber's enabled-events list.
func (s Subscriber) HasEvent(name string) bool {
	for _, e := range s.EnabledEvents {
		if e == name {
			return true
		}
	}
	return false
}

// HasInstruction reports whether name is in the subscriber's
// enabled-instructions list.
func (s Subscriber) HasInstruction(name string) bool {
	for _, i := range s.EnabledInstructions {
		if i == name {
			return true
		}
	}
	return false
}

// ActiveProgram is one row of the active_program_subscriptions relation.
type ActiveProgram struct {
	ProgramID   string
	Chain       string
	Subscribers []Subscriber
}

// CursorState is a per-subscriber, per-program cursor row living in the
// subscriber's own schema's _uho_state table (spec.md §3).
type CursorState struct {
	LastSlot      uint64
	LastSignature string
	EventsIndexed int64
	LastPollAt    time.Time
	Status        string
	Error         *string
}

// Repository reads the active-program-subscriptions relation and seeds
// per-program cursors from subscriber schemas.
type Repository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRepository(db *sql.DB, logger zerolog.Logger) *Repository {
	return &Repository{db: db, logger: logger.With().Str("component", "registry").Logger()}
}

// ActivePrograms loads the full working set, refreshed on startup and on
// every control-channel change notification, per spec.md §4.7.
func (r *Repository) ActivePrograms(ctx context.Context) ([]ActiveProgram, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT program_id, chain, subscribers FROM active_program_subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("registry: query active_program_subscriptions: %w", err)
	}
	defer rows.Close()

	var out []ActiveProgram
	for rows.Next() {
		var (
			programID, chainName string
			subscribersJSON      []byte
		)
		if err := rows.Scan(&programID, &chainName, &subscribersJSON); err != nil {
			return nil, fmt.Errorf("registry: scan active_program_subscriptions row: %w", err)
		}
		var subs []Subscriber
		if len(subscribersJSON) > 0 {
			if err := json.Unmarshal(subscribersJSON, &subs); err != nil {
				return nil, fmt.Errorf("registry: unmarshal subscribers for %s: %w", programID, err)
			}
		}
		out = append(out, ActiveProgram{ProgramID: programID, Chain: chainName, Subscribers: subs})
	}
	return out, rows.Err()
}

// SeedCursor picks the most-advanced subscriber cursor (max last_slot,
// with last_signature taken at that slot) to seed a freshly constructed
// poller, per spec.md §4.7.
func (r *Repository) SeedCursor(ctx context.Context, programID string, subs []Subscriber) CursorState {
	var best CursorState
	for _, s := range subs {
		cs, err := r.readCursor(ctx, s.Schema, programID)
		if err != nil {
			r.logger.Warn().Err(err).Str("schema", s.Schema).Msg("failed reading cursor state, skipping for seed")
			continue
		}
		if cs.LastSlot > best.LastSlot {
			best = cs
		}
	}
	return best
}

func (r *Repository) readCursor(ctx context.Context, schema, programID string) (CursorState, error) {
	query := fmt.Sprintf(
		`SELECT last_slot, last_signature, events_indexed, last_poll_at, status, error FROM %s WHERE program_id = $1`,
		tables.Qualified(schema, tables.StateTable),
	)
	var (
		cs    CursorState
		errCl sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, programID).Scan(
		&cs.LastSlot, &cs.LastSignature, &cs.EventsIndexed, &cs.LastPollAt, &cs.Status, &errCl,
	)
	if err == sql.ErrNoRows {
		return CursorState{}, nil
	}
	if err != nil {
		return CursorState{}, err
	}
	if errCl.Valid {
		cs.Error = &errCl.String
	}
	return cs, nil
}
