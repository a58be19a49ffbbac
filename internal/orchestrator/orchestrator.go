package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhivkoto/uho-indexer/internal/chain"
	"github.com/zhivkoto/uho-indexer/internal/controlplane"
	"github.com/zhivkoto/uho-indexer/internal/decode/event"
	"github.com/zhivkoto/uho-indexer/internal/decode/instruction"
	"github.com/zhivkoto/uho-indexer/internal/decode/token"
	"github.com/zhivkoto/uho-indexer/internal/fanout"
	"github.com/zhivkoto/uho-indexer/internal/idlmodel"
	"github.com/zhivkoto/uho-indexer/internal/metrics"
	"github.com/zhivkoto/uho-indexer/internal/poller"
	"github.com/zhivkoto/uho-indexer/internal/registry"
)

const (
	backoffInitial = 5 * time.Second
	backoffMax     = 5 * time.Minute
)

// Orchestrator owns the working set of programWorkers and drives every
// poll cycle, per spec.md §4.7. It is cooperative and single-threaded
// at this level: one program is polled at a time, never concurrently.
type Orchestrator struct {
	client            *chain.Client
	registry          *registry.Repository
	writer            *fanout.Writer
	logger            zerolog.Logger
	cycleInterval     time.Duration
	interProgramDelay time.Duration

	mu      sync.Mutex
	workers map[string]*programWorker

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New constructs an Orchestrator. client issues RPC calls, registryRepo
// resolves the active-program-subscriptions relation, writer performs
// the per-subscriber fan-out. cycleInterval is the rest after a full
// round-robin pass over every active program; interProgramDelay is the
// rest between programs within one pass.
func New(client *chain.Client, registryRepo *registry.Repository, writer *fanout.Writer, cycleInterval, interProgramDelay time.Duration, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		client:            client,
		registry:          registryRepo,
		writer:            writer,
		cycleInterval:     cycleInterval,
		interProgramDelay: interProgramDelay,
		workers:           make(map[string]*programWorker),
		stopCh:            make(chan struct{}),
		logger:            logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Start refreshes the active-program set, then round-robins pollAll
// passes separated by cycleInterval until ctx is cancelled or Stop is
// called. When controlCh is non-nil, every control-plane change triggers
// an immediate refresh rather than waiting for the next pass.
func (o *Orchestrator) Start(ctx context.Context, controlCh *controlplane.Channel) error {
	if err := o.refresh(ctx); err != nil {
		o.logger.Error().Err(err).Msg("initial active-program refresh failed")
	}

	if controlCh != nil {
		go func() {
			_ = controlCh.Listen(ctx, func(ctx context.Context, change controlplane.Change) {
				o.logger.Info().Str("action", change.Action).Str("program_id", change.ProgramID).
					Msg("control plane change received, refreshing active programs")
				if err := o.refresh(ctx); err != nil {
					o.logger.Error().Err(err).Msg("refresh after control plane change failed")
				}
			})
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.stopCh:
			return nil
		default:
		}

		if err := o.refresh(ctx); err != nil {
			o.logger.Warn().Err(err).Msg("active-program refresh failed, continuing with last known set")
		}
		o.pollAll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.stopCh:
			return nil
		case <-time.After(o.cycleInterval):
		}
	}
}

// Stop ends a running Start loop gracefully.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.stopCh) })
}

// refresh reconciles the worker set against the registry's current
// active-program-subscriptions relation: new programs get a worker
// seeded from the best subscriber cursor, removed programs transition
// to unregistered and are dropped.
func (o *Orchestrator) refresh(ctx context.Context) error {
	actives, err := o.registry.ActivePrograms(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: load active programs: %w", err)
	}

	seen := make(map[string]bool, len(actives))
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, ap := range actives {
		seen[ap.ProgramID] = true
		if len(ap.Subscribers) == 0 {
			continue
		}

		w, ok := o.workers[ap.ProgramID]
		if !ok {
			worker, err := o.buildWorker(ctx, ap)
			if err != nil {
				o.logger.Error().Err(err).Str("program_id", ap.ProgramID).Msg("failed to build program worker, skipping")
				continue
			}
			o.workers[ap.ProgramID] = worker
			metrics.SetProgramState(ap.ProgramID, string(stateRegistered), knownStates)
			continue
		}

		w.subscribers = ap.Subscribers
		if anySubscriberWantsTokenTransfers(ap.Subscribers) && w.tokenDec == nil {
			w.tokenDec = token.New()
		}
	}

	for programID, w := range o.workers {
		if !seen[programID] {
			w.state = stateUnregistered
			metrics.SetProgramState(programID, string(stateUnregistered), knownStates)
			delete(o.workers, programID)
		}
	}

	metrics.OrchestratorActivePrograms.Set(float64(len(o.workers)))
	return nil
}

// buildWorker constructs a fresh programWorker for a newly active
// program: parses the IDL (taken from the first subscriber, since every
// subscriber of one program shares its on-chain IDL), seeds the poller
// from the most-advanced subscriber cursor, and wires the token decoder
// only if some subscriber opted in.
func (o *Orchestrator) buildWorker(ctx context.Context, ap registry.ActiveProgram) (*programWorker, error) {
	program, err := idlmodel.Parse(ap.Subscribers[0].IDL)
	if err != nil {
		return nil, fmt.Errorf("parse idl for %s: %w", ap.ProgramID, err)
	}
	program.Address = ap.ProgramID

	for _, w := range program.Warnings {
		o.logger.Warn().Str("program_id", ap.ProgramID).Str("warning", w).Msg("idl parse warning")
	}

	cursor := o.registry.SeedCursor(ctx, ap.ProgramID, ap.Subscribers)

	p := poller.New(o.client, ap.ProgramID, cursor.LastSignature, o.logger)

	var tokenDec *token.Decoder
	if anySubscriberWantsTokenTransfers(ap.Subscribers) {
		tokenDec = token.New()
	}

	return &programWorker{
		programID:   ap.ProgramID,
		program:     program,
		poller:      p,
		eventDec:    event.New(program),
		insDec:      instruction.New(program),
		tokenDec:    tokenDec,
		subscribers: ap.Subscribers,
		state:       stateRegistered,
	}, nil
}

// pollAll runs one round-robin pass over every registered worker,
// sequentially, resting interProgramDelay between programs. It never
// dispatches two programs' polls concurrently.
func (o *Orchestrator) pollAll(ctx context.Context) {
	o.mu.Lock()
	workers := make([]*programWorker, 0, len(o.workers))
	for _, w := range o.workers {
		workers = append(workers, w)
	}
	o.mu.Unlock()

	for i, w := range workers {
		if w.state == stateBackoff && time.Now().Before(w.nextAttempt) {
			continue
		}
		o.pollProgram(ctx, w)

		if i == len(workers)-1 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case <-time.After(o.interProgramDelay):
		}
	}
}

// pollProgram fetches and decodes one program's next page of
// transactions, then writes the result to every subscriber.
func (o *Orchestrator) pollProgram(ctx context.Context, w *programWorker) {
	txs, err := w.poller.Poll(ctx)
	if err != nil {
		w.consecutiveErrors++
		w.state = stateBackoff
		w.nextAttempt = time.Now().Add(backoffDelay(w.consecutiveErrors))
		metrics.SetProgramState(w.programID, string(stateBackoff), knownStates)
		metrics.RecordPoll(w.programID, "error", 0, 0)
		o.logger.Warn().Err(err).Str("program_id", w.programID).Msg("poll failed, backing off")
		return
	}

	w.consecutiveErrors = 0
	w.state = statePolling
	metrics.SetProgramState(w.programID, string(statePolling), knownStates)

	if len(txs) == 0 {
		metrics.RecordPoll(w.programID, "ok", 0, 0)
		return
	}

	batch := fanout.Batch{}
	var maxSlot uint64

	for _, tx := range txs {
		if tx.Slot > maxSlot {
			maxSlot = tx.Slot
		}
		batch.TxLogs = append(batch.TxLogs, fanout.TxLog{
			TxSignature: tx.Signature, Slot: tx.Slot, LogMessages: tx.LogMessages,
		})

		events, warnings := w.eventDec.Decode(tx)
		for _, wmsg := range warnings {
			metrics.RecordDecodeWarning(w.programID, "event")
			o.logger.Warn().Str("program_id", w.programID).Str("tx_signature", tx.Signature).Msg(wmsg)
		}
		for _, e := range events {
			metrics.DecoderEventsDecoded.WithLabelValues(w.programID, e.EventName).Inc()
			batch.Events = append(batch.Events, fanout.DecodedEventLike{
				EventName: e.EventName, Slot: e.Slot, BlockTime: e.BlockTime,
				TxSignature: e.TxSignature, IxIndex: e.IxIndex, Data: e.Data,
			})
		}

		if w.program.HasInstructions() {
			instructions, warnings := w.insDec.Decode(tx)
			for _, wmsg := range warnings {
				metrics.RecordDecodeWarning(w.programID, "instruction")
				o.logger.Warn().Str("program_id", w.programID).Str("tx_signature", tx.Signature).Msg(wmsg)
			}
			for _, ins := range instructions {
				metrics.DecoderInstructionsDecoded.WithLabelValues(w.programID, ins.InstructionName).Inc()
				batch.Instructions = append(batch.Instructions, fanout.DecodedInstructionLike{
					InstructionName: ins.InstructionName, Slot: ins.Slot, BlockTime: ins.BlockTime,
					TxSignature: ins.TxSignature, IxIndex: ins.IxIndex, InnerIxIndex: ins.InnerIxIndex,
					Accounts: ins.Accounts, Args: ins.Args,
				})
			}
		}

		if w.tokenDec != nil {
			for _, tt := range w.tokenDec.Decode(tx) {
				metrics.DecoderTokenTransfersDecoded.WithLabelValues(w.programID, tt.InstructionType).Inc()
				batch.TokenTransfers = append(batch.TokenTransfers, fanout.DecodedTokenTransferLike{
					InstructionType: tt.InstructionType, Source: tt.Source, Destination: tt.Destination,
					Authority: tt.Authority, Mint: tt.Mint, Amount: tt.Amount, Decimals: tt.Decimals,
					Slot: tt.Slot, BlockTime: tt.BlockTime, TxSignature: tt.TxSignature,
					IxIndex: tt.IxIndex, InnerIxIndex: tt.InnerIxIndex,
				})
			}
		}
	}

	counts := o.writer.Write(ctx, w.program, batch, w.subscribers)
	total := 0
	for _, n := range counts {
		total += n
	}
	metrics.RecordFanoutWrite(w.programID, "total", total)

	metrics.RecordPoll(w.programID, "ok", maxSlot, len(txs))
}

func backoffDelay(consecutiveErrors int) time.Duration {
	delay := backoffInitial
	for i := 1; i < consecutiveErrors && delay < backoffMax; i++ {
		delay *= 2
	}
	if delay > backoffMax {
		delay = backoffMax
	}
	return delay
}
