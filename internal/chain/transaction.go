package chain

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go/rpc"
)

// rawParsedInstruction mirrors the shape the RPC gives a jsonParsed
// instruction's "parsed" member: {"type": "...", "info": {...}}.
type rawParsedInstruction struct {
	Type string                 `json:"type"`
	Info map[string]interface{} `json:"info"`
}

func convertTransaction(signature string, out *rpc.GetTransactionResult) (*RawTransaction, error) {
	tx := &RawTransaction{Signature: signature, Slot: out.Slot}
	if out.BlockTime != nil {
		t := int64(*out.BlockTime)
		tx.BlockTime = &t
	}
	if out.Meta != nil {
		tx.LogMessages = out.Meta.LogMessages
	}

	parsed, err := out.Transaction.GetParsedTransaction()
	if err != nil || parsed == nil {
		// Nothing further to walk; callers still get slot/block_time/logs.
		return tx, nil
	}

	for _, pi := range parsed.Message.Instructions {
		tx.TopLevelInstructions = append(tx.TopLevelInstructions, convertInstruction(pi))
	}

	if out.Meta != nil {
		for _, inner := range out.Meta.InnerInstructions {
			group := InnerGroup{ParentIndex: int(inner.Index)}
			for _, pi := range inner.Instructions {
				group.Instructions = append(group.Instructions, convertInstruction(pi))
			}
			tx.InnerInstructions = append(tx.InnerInstructions, group)
		}
	}

	return tx, nil
}

func convertInstruction(pi *rpc.ParsedInstruction) RawInstruction {
	ri := RawInstruction{ProgramID: pi.ProgramId.String()}

	if len(pi.Parsed) > 0 {
		var body rawParsedInstruction
		if err := json.Unmarshal(pi.Parsed, &body); err == nil {
			ri.Parsed = &ParsedInfo{Type: body.Type, Info: body.Info}
			return ri
		}
	}

	ri.DataBase58 = pi.Data.String()
	ri.Accounts = make([]string, 0, len(pi.Accounts))
	for _, a := range pi.Accounts {
		ri.Accounts = append(ri.Accounts, a.String())
	}
	return ri
}
