package fanout

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zhivkoto/uho-indexer/internal/database"
	"github.com/zhivkoto/uho-indexer/internal/idlmodel"
	"github.com/zhivkoto/uho-indexer/internal/registry"
	"github.com/zhivkoto/uho-indexer/internal/tables"
)

// Writer is the per-program fan-out writer: it filters a decoded batch
// per subscriber, writes it into that subscriber's schema, and emits one
// best-effort broadcast for the whole batch (spec.md §4.6).
type Writer struct {
	db          *database.DB
	broadcaster *database.Broadcaster
	logger      zerolog.Logger
}

func New(db *database.DB, broadcaster *database.Broadcaster, logger zerolog.Logger) *Writer {
	return &Writer{db: db, broadcaster: broadcaster, logger: logger.With().Str("component", "fanout").Logger()}
}

// Write replicates batch into every subscriber's schema in isolation,
// then emits the batch's broadcast, returning per-subscriber counts.
func (w *Writer) Write(ctx context.Context, program *idlmodel.Program, batch Batch, subscribers []registry.Subscriber) map[string]int {
	counts := make(map[string]int, len(subscribers))
	var touched []string

	for _, sub := range subscribers {
		n, err := w.writeSubscriber(ctx, program, batch, sub)
		if err != nil {
			w.logger.Error().Err(err).Str("user_id", sub.UserID).Str("schema", sub.Schema).
				Msg("subscriber write failed, isolated from other subscribers")
			continue
		}
		counts[sub.UserID] = n
		if n > 0 {
			touched = append(touched, sub.UserID)
		}
	}

	w.broadcast(ctx, program.Address, batch.Events, touched)
	return counts
}

// writeSubscriber replicates batch into one subscriber's schema inside a
// single short-lived transaction (spec.md §5): every row upsert, the
// touched tx_logs, and the cursor-state update either all land or all
// roll back together. A failure marks the cursor row as errored on the
// borrowed connection, outside the aborted transaction.
func (w *Writer) writeSubscriber(ctx context.Context, program *idlmodel.Program, batch Batch, sub registry.Subscriber) (int, error) {
	conn, err := w.db.WithSchema(ctx, sub.Schema)
	if err != nil {
		return 0, fmt.Errorf("acquire schema connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	written, maxSlot, lastSignature, touchedSignatures, err := w.writeRows(ctx, tx, program, batch, sub)
	if err != nil {
		tx.Rollback()
		markCursorError(ctx, conn.Conn, program.Address, err)
		return written, err
	}

	for _, tl := range batch.TxLogs {
		if !touchedSignatures[tl.TxSignature] {
			continue
		}
		if err := upsertTxLog(ctx, tx, tl); err != nil {
			tx.Rollback()
			markCursorError(ctx, conn.Conn, program.Address, err)
			return written, fmt.Errorf("upsert tx log: %w", err)
		}
	}

	if err := updateCursorState(ctx, tx, program.Address, maxSlot, lastSignature, written); err != nil {
		tx.Rollback()
		markCursorError(ctx, conn.Conn, program.Address, err)
		return written, fmt.Errorf("update cursor state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		markCursorError(ctx, conn.Conn, program.Address, err)
		return written, fmt.Errorf("commit transaction: %w", err)
	}

	return written, nil
}

// writeRows upserts every record in batch the subscriber is enabled for,
// tracking the highest slot written and the signature at that slot (the
// poller's resume point) along with which transactions produced a row.
func (w *Writer) writeRows(ctx context.Context, tx execer, program *idlmodel.Program, batch Batch, sub registry.Subscriber) (int, uint64, string, map[string]bool, error) {
	written := 0
	var maxSlot uint64
	var lastSignature string
	touchedSignatures := map[string]bool{}

	advance := func(slot uint64, signature string) {
		if slot >= maxSlot {
			maxSlot = slot
			lastSignature = signature
		}
	}

	for _, e := range batch.Events {
		if !sub.HasEvent(e.EventName) {
			continue
		}
		table := tables.TableName(program.Name, e.EventName)
		cols := []string{"slot", "block_time", "tx_signature", "ix_index", "inner_ix_index"}
		vals := []interface{}{e.Slot, e.BlockTime, e.TxSignature, e.IxIndex, nil}
		for col, v := range e.Data {
			cols = append(cols, tables.Quote(col))
			vals = append(vals, sqlValue(v))
		}
		ok, err := upsertRow(ctx, tx, table, cols, vals)
		if err != nil {
			return written, maxSlot, lastSignature, touchedSignatures, err
		}
		if ok {
			written++
			touchedSignatures[e.TxSignature] = true
			advance(e.Slot, e.TxSignature)
		}
	}

	for _, ins := range batch.Instructions {
		if !sub.HasInstruction(ins.InstructionName) {
			continue
		}
		table := tables.TableName(program.Name, ins.InstructionName)
		cols := []string{"slot", "block_time", "tx_signature", "ix_index", "inner_ix_index"}
		vals := []interface{}{ins.Slot, ins.BlockTime, ins.TxSignature, ins.IxIndex, ins.InnerIxIndex}
		for name, pubkey := range ins.Accounts {
			cols = append(cols, tables.Quote(name))
			vals = append(vals, pubkey)
		}
		for col, v := range ins.Args {
			cols = append(cols, tables.Quote(col))
			vals = append(vals, sqlValue(v))
		}
		ok, err := upsertRow(ctx, tx, table, cols, vals)
		if err != nil {
			return written, maxSlot, lastSignature, touchedSignatures, err
		}
		if ok {
			written++
			touchedSignatures[ins.TxSignature] = true
			advance(ins.Slot, ins.TxSignature)
		}
	}

	if sub.IndexTokenTransfers {
		for _, tt := range batch.TokenTransfers {
			cols := []string{
				"program_id", "instruction_type", "source", "destination", "authority",
				"mint", "amount", "decimals", "slot", "block_time", "tx_signature", "ix_index", "inner_ix_index",
			}
			vals := []interface{}{
				program.Address, tt.InstructionType, tt.Source, tt.Destination, tt.Authority,
				tt.Mint, tt.Amount, tt.Decimals, tt.Slot, tt.BlockTime, tt.TxSignature, tt.IxIndex, tt.InnerIxIndex,
			}
			ok, err := upsertRow(ctx, tx, tables.TokenTransfersTable, cols, vals)
			if err != nil {
				return written, maxSlot, lastSignature, touchedSignatures, err
			}
			if ok {
				written++
				advance(tt.Slot, tt.TxSignature)
			}
		}
	}

	return written, maxSlot, lastSignature, touchedSignatures, nil
}
