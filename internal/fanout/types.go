// Package fanout replicates one program's decoded batch into every
// subscriber's schema, in isolation per subscriber, then emits a single
// broadcast payload, per spec.md §4.6.
package fanout

// TxLog is one transaction's raw log-message array, written into the
// shared _tx_logs table for transactions that actually produced a
// written event or instruction row.
type TxLog struct {
	TxSignature string
	Slot        uint64
	LogMessages []string
}

// Batch is everything decoded from one program's poll cycle, handed to
// the writer as a unit (spec.md §4.6's write() contract).
type Batch struct {
	Events         []DecodedEventLike
	Instructions   []DecodedInstructionLike
	TokenTransfers []DecodedTokenTransferLike
	TxLogs         []TxLog
}

// DecodedEventLike is the subset of event.DecodedEvent the writer needs;
// defined locally to avoid importing the decoder packages' concrete
// types into the writer's public surface.
type DecodedEventLike struct {
	EventName   string
	Slot        uint64
	BlockTime   *int64
	TxSignature string
	IxIndex     int
	Data        map[string]interface{}
}

type DecodedInstructionLike struct {
	InstructionName string
	Slot            uint64
	BlockTime       *int64
	TxSignature     string
	IxIndex         int
	InnerIxIndex    *int
	Accounts        map[string]string
	Args            map[string]interface{}
}

type DecodedTokenTransferLike struct {
	InstructionType string
	Source          string
	Destination     string
	Authority       string
	Mint            *string
	Amount          string
	Decimals        *int
	Slot            uint64
	BlockTime       *int64
	TxSignature     string
	IxIndex         int
	InnerIxIndex    *int
}
