package orchestrator

import (
	"time"

	"github.com/zhivkoto/uho-indexer/internal/decode/event"
	"github.com/zhivkoto/uho-indexer/internal/decode/instruction"
	"github.com/zhivkoto/uho-indexer/internal/decode/token"
	"github.com/zhivkoto/uho-indexer/internal/idlmodel"
	"github.com/zhivkoto/uho-indexer/internal/poller"
	"github.com/zhivkoto/uho-indexer/internal/registry"
)

// programWorker holds everything the orchestrator needs to poll and
// decode one program: its parsed IDL, a seeded poller, the three
// decoders (token decoder only when some subscriber opted in), and its
// place in the state machine.
type programWorker struct {
	programID   string
	program     *idlmodel.Program
	poller      *poller.Poller
	eventDec    *event.Decoder
	insDec      *instruction.Decoder
	tokenDec    *token.Decoder // nil unless a subscriber set IndexTokenTransfers
	subscribers []registry.Subscriber

	state             programState
	consecutiveErrors int
	nextAttempt       time.Time
}

func anySubscriberWantsTokenTransfers(subs []registry.Subscriber) bool {
	for _, s := range subs {
		if s.IndexTokenTransfers {
			return true
		}
	}
	return false
}
