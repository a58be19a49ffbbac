package chain

// ScannedInstruction is one top-level or inner (CPI) instruction paired
// with its transaction position, in the shape spec.md §4.4 calls "a
// shared scanner [that] yields every instruction with its
// (ix_index, inner_ix_index|null) position".
type ScannedInstruction struct {
	Instruction  RawInstruction
	IxIndex      int  // top-level instruction position
	InnerIxIndex *int // position within the parent's own inner-instruction group; nil for top-level
}

// Scan walks a transaction's top-level instructions followed by every
// inner-instruction group, in RPC order. inner_ix_index is scoped to the
// parent's own group (resets per parent), per spec.md §3's pinned
// invariant for deeply nested CPI instructions.
func Scan(tx *RawTransaction) []ScannedInstruction {
	out := make([]ScannedInstruction, 0, len(tx.TopLevelInstructions))
	for i, ins := range tx.TopLevelInstructions {
		out = append(out, ScannedInstruction{Instruction: ins, IxIndex: i})
	}
	for _, group := range tx.InnerInstructions {
		for j, ins := range group.Instructions {
			pos := j
			out = append(out, ScannedInstruction{
				Instruction:  ins,
				IxIndex:      group.ParentIndex,
				InnerIxIndex: &pos,
			})
		}
	}
	return out
}
