// Package poller issues the two RPC operation families spec.md §4.2
// describes — "signatures for address, until cursor" and "parsed
// transaction by signature" — for one program, maintaining its
// last_signature cursor.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhivkoto/uho-indexer/internal/chain"
)

const (
	defaultBatchSize    = 100
	interTxThrottle     = 100 * time.Millisecond
)

// Poller is a per-program stateful transaction fetcher.
type Poller struct {
	client        *chain.Client
	programID     string
	batchSize     int
	lastSignature string
	pollCount     int
	logger        zerolog.Logger
}

// New constructs a Poller seeded with an existing cursor (possibly
// empty, for a program with no prior subscriber state).
func New(client *chain.Client, programID, seedSignature string, logger zerolog.Logger) *Poller {
	return &Poller{
		client:        client,
		programID:     programID,
		batchSize:     defaultBatchSize,
		lastSignature: seedSignature,
		logger:        logger.With().Str("component", "poller").Str("program_id", programID).Logger(),
	}
}

// SetCursor overrides the cursor. The orchestrator seeds the cursor
// through New and does not call SetCursor.
func (p *Poller) SetCursor(signature string) {
	p.lastSignature = signature
}

// GetState returns (last_signature, poll_count) per spec.md §4.2's contract.
func (p *Poller) GetState() (string, int) {
	return p.lastSignature, p.pollCount
}

// Poll fetches one page of transactions newer than the cursor, in
// reverse-chronological (RPC) order. The cursor advances to the newest
// returned signature only after signatures_for_address returns a
// non-empty page, never while that call is being retried or when it
// fails. A transaction whose own fetch fails is logged and skipped; it
// does not hold the cursor back.
func (p *Poller) Poll(ctx context.Context) ([]*chain.RawTransaction, error) {
	var sigs []chain.SignatureInfo
	err := withRetry(ctx, func() error {
		var err error
		sigs, err = p.client.GetSignaturesForAddress(ctx, p.programID, p.batchSize, p.lastSignature)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("poller: signatures_for_address: %w", err)
	}
	if len(sigs) == 0 {
		return nil, nil
	}

	txs := make([]*chain.RawTransaction, 0, len(sigs))
	for i, sig := range sigs {
		if sig.Err {
			continue // malformed/failed transaction: skip, cursor still advances
		}

		var tx *chain.RawTransaction
		fetchErr := withRetry(ctx, func() error {
			var err error
			tx, err = p.client.GetParsedTransaction(ctx, sig.Signature)
			return err
		})
		if fetchErr != nil {
			p.logger.Warn().Err(fetchErr).Str("signature", sig.Signature).Msg("transaction fetch failed, skipping")
			continue
		}
		if tx != nil {
			txs = append(txs, tx)
		}

		if i < len(sigs)-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interTxThrottle):
			}
		}
	}

	p.lastSignature = sigs[0].Signature // newest returned signature
	p.pollCount++
	return txs, nil
}
