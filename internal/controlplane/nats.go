// Package controlplane listens for subscription-change notifications on
// NATS: a new program subscribed to, a subscriber removed, or an IDL
// updated, per spec.md §6 "Control plane (consumed)". Unlike the
// teacher's JetStream work queue, these are fire-and-forget control
// events, not indexed payloads — durability/redelivery semantics don't
// apply, so the subscription is a plain NATS subject, not a stream.
package controlplane

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/zhivkoto/uho-indexer/internal/config"
)

// Action names carried on a Change event.
const (
	ActionProgramAdded      = "program_added"
	ActionProgramRemoved    = "program_removed"
	ActionSubscriberAdded   = "subscriber_added"
	ActionSubscriberRemoved = "subscriber_removed"
	ActionIDLUpdated        = "idl_updated"
)

// Change is one subscription-change control event.
type Change struct {
	Action    string `json:"action"`
	ProgramID string `json:"program_id"`
}

// ChangeHandler reacts to one control-plane change. The orchestrator
// re-resolves its active-program set from the registry in response,
// rather than trying to apply the change incrementally.
type ChangeHandler func(ctx context.Context, change Change)

// Channel is a NATS connection subscribed to the control-plane subject.
type Channel struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
	sub     *nats.Subscription
}

// NewChannel connects to NATS and prepares the control-plane subject,
// following the teacher's connection-option idiom (named connection,
// unlimited reconnects, bounded initial timeout).
func NewChannel(cfg *config.ControlPlaneConfig, logger zerolog.Logger) (*Channel, error) {
	if len(cfg.URLs) == 0 {
		return nil, fmt.Errorf("controlplane: at least one NATS URL is required")
	}

	opts := []nats.Option{
		nats.Name("uho-indexer"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(cfg.URLs[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("controlplane: connect to NATS: %w", err)
	}

	ch := &Channel{
		conn:    conn,
		subject: cfg.Subject,
		logger:  logger.With().Str("component", "controlplane").Logger(),
	}

	ch.logger.Info().Str("url", cfg.URLs[0]).Str("subject", cfg.Subject).Msg("control plane channel connected")
	return ch, nil
}

// Listen subscribes handler to every change published on the subject
// until ctx is cancelled. Malformed payloads are logged and skipped;
// they never stop the subscription.
func (c *Channel) Listen(ctx context.Context, handler ChangeHandler) error {
	sub, err := c.conn.Subscribe(c.subject, func(m *nats.Msg) {
		var change Change
		if err := json.Unmarshal(m.Data, &change); err != nil {
			c.logger.Warn().Err(err).Msg("control plane: malformed change payload, skipping")
			return
		}
		handler(ctx, change)
	})
	if err != nil {
		return fmt.Errorf("controlplane: subscribe to %s: %w", c.subject, err)
	}
	c.sub = sub

	c.logger.Info().Str("subject", c.subject).Msg("listening for subscription changes")

	<-ctx.Done()
	return c.Close()
}

// Close unsubscribes and closes the NATS connection.
func (c *Channel) Close() error {
	if c.sub != nil {
		if err := c.sub.Unsubscribe(); err != nil {
			c.logger.Warn().Err(err).Msg("control plane: unsubscribe failed")
		}
	}
	c.conn.Close()
	return nil
}
