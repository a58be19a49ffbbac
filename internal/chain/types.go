// Package chain wraps the gagliardetto/solana-go RPC client and adapts its
// jsonParsed transaction responses into the plain domain shapes the
// decoders walk, matching the RPC contract in spec.md §6.
package chain

// SignatureInfo is one entry from signatures_for_address, newest-first.
type SignatureInfo struct {
	Signature string
	Slot      uint64
	BlockTime *int64
	Err       bool // true when the RPC reported a non-null err field
}

// ParsedInfo carries a parsed-mode instruction's RPC-supplied type name
// and info map, e.g. {"type": "transfer", "info": {...}}.
type ParsedInfo struct {
	Type string
	Info map[string]interface{}
}

// RawInstruction is one top-level or inner instruction, in whichever mode
// the RPC returned it (spec.md §4.4's "two modes").
type RawInstruction struct {
	ProgramID  string
	Accounts   []string // pubkeys, in order, when the RPC didn't parse the instruction
	DataBase58 string    // raw mode only
	Parsed     *ParsedInfo // parsed mode only; nil in raw mode
}

// InnerGroup is the inner-instruction list CPI'd out of one top-level
// instruction; ScannedInstruction.InnerIxIndex (set by Scan, not stored
// here) is the inner_ix_index per spec.md §3's pinned
// invariant: position within the parent's own group, not transaction-wide.
type InnerGroup struct {
	ParentIndex  int
	Instructions []RawInstruction
}

// RawTransaction is the decoders' immutable input: the RPC's
// get_parsed_transaction result, reduced to what the decoders need.
type RawTransaction struct {
	Signature           string
	Slot                uint64
	BlockTime           *int64
	LogMessages         []string
	TopLevelInstructions []RawInstruction
	InnerInstructions    []InnerGroup
}
