package database

import (
	"context"

	"github.com/rs/zerolog"
)

// Broadcaster emits best-effort PG NOTIFY payloads on a fixed channel
// (spec.md §6's "Notification channel (produced)"). Failure to notify
// never rolls back a prior write; the caller only logs it.
type Broadcaster struct {
	db      *DB
	channel string
	logger  zerolog.Logger
}

func NewBroadcaster(db *DB, channel string, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{db: db, channel: channel, logger: logger.With().Str("component", "broadcaster").Logger()}
}

// Notify emits payload on the broadcaster's channel via pg_notify, which
// (unlike the bare NOTIFY statement) accepts parameterized arguments.
func (b *Broadcaster) Notify(ctx context.Context, payload string) {
	if _, err := b.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, b.channel, payload); err != nil {
		b.logger.Warn().Err(err).Msg("broadcast notify failed, writes remain committed")
	}
}

// NotifyOrSplit emits a single payload if it fits within Postgres's
// per-notification size bound; otherwise it falls back to one payload
// per element, per spec.md §4.6's "~7500 bytes" guard.
func (b *Broadcaster) NotifyOrSplit(ctx context.Context, full string, perItem []string) {
	const maxNotifyBytes = 7500
	if len(full) <= maxNotifyBytes {
		b.Notify(ctx, full)
		return
	}
	b.logger.Warn().Int("bytes", len(full)).Msg("broadcast payload exceeds size bound, falling back to per-event payloads")
	for _, item := range perItem {
		if len(item) > maxNotifyBytes {
			b.logger.Warn().Int("bytes", len(item)).Msg("single-event broadcast payload still exceeds size bound, dropping")
			continue
		}
		b.Notify(ctx, item)
	}
}
