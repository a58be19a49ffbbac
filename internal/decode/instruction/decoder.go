// Package instruction decodes top-level and inner (CPI) instructions of
// one program, in both raw and RPC-parsed mode, per spec.md §4.4.
package instruction

import (
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/zhivkoto/uho-indexer/internal/chain"
	"github.com/zhivkoto/uho-indexer/internal/decode"
	"github.com/zhivkoto/uho-indexer/internal/idlmodel"
)

const unknownAccount = "unknown"

// DecodedInstruction matches spec.md §3's shape for instruction rows.
type DecodedInstruction struct {
	InstructionName string
	ProgramID       string
	Slot            uint64
	BlockTime       *int64
	TxSignature     string
	IxIndex         int
	InnerIxIndex    *int
	Accounts        map[string]string
	Args            map[string]interface{}
}

// Decoder decodes every instruction in a transaction belonging to one
// target program.
type Decoder struct {
	program *idlmodel.Program
}

func New(program *idlmodel.Program) *Decoder {
	return &Decoder{program: program}
}

// Decode scans tx via the shared chain.Scan, filters to the target
// program, and decodes each match in whichever mode the RPC returned it.
func (d *Decoder) Decode(tx *chain.RawTransaction) ([]DecodedInstruction, []string) {
	var (
		out      []DecodedInstruction
		warnings []string
	)

	for _, scanned := range chain.Scan(tx) {
		ins := scanned.Instruction
		if ins.ProgramID != d.program.Address {
			continue
		}

		var di *DecodedInstruction
		var err error
		if ins.Parsed != nil {
			di = d.decodeParsed(ins)
		} else {
			di, err = d.decodeRaw(ins)
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("instruction at ix_index=%d: %v", scanned.IxIndex, err))
			continue
		}
		if di == nil {
			continue
		}

		di.ProgramID = d.program.Address
		di.Slot = tx.Slot
		di.BlockTime = tx.BlockTime
		di.TxSignature = tx.Signature
		di.IxIndex = scanned.IxIndex
		di.InnerIxIndex = scanned.InnerIxIndex
		out = append(out, *di)
	}

	return out, warnings
}

func (d *Decoder) decodeRaw(ins chain.RawInstruction) (*DecodedInstruction, error) {
	if ins.DataBase58 == "" {
		return nil, nil
	}
	data, err := base58.Decode(ins.DataBase58)
	if err != nil {
		return nil, fmt.Errorf("base58 decode: %w", err)
	}
	if len(data) < 8 {
		return nil, nil // unknown leading bytes: no record, not an error
	}
	instr := d.program.InstructionByDiscriminator(data[:8])
	if instr == nil {
		return nil, nil // no matching discriminator: silently ignored
	}

	r := decode.NewReader(data[8:])
	fields, err := idlmodel.DecodeFields(r, instr.Args, d.program.Types)
	if err != nil {
		return nil, fmt.Errorf("instruction %s: %w", instr.Name, err)
	}

	accounts := make(map[string]string, len(instr.Accounts))
	for i, acc := range instr.Accounts {
		if i < len(ins.Accounts) {
			accounts[acc.ColumnName] = ins.Accounts[i]
		} else {
			accounts[acc.ColumnName] = unknownAccount
		}
	}

	return &DecodedInstruction{
		InstructionName: instr.Name,
		Accounts:        accounts,
		Args:            decode.NormalizeFields(fields),
	}, nil
}

func (d *Decoder) decodeParsed(ins chain.RawInstruction) *DecodedInstruction {
	instr := d.program.InstructionByParsedName(ins.Parsed.Type)
	if instr == nil {
		return nil // unmatched parsed type name: silently ignored
	}
	info := ins.Parsed.Info

	accounts := make(map[string]string, len(instr.Accounts))
	for _, acc := range instr.Accounts {
		if v, ok := infoString(info, acc.Name); ok {
			accounts[acc.ColumnName] = v
		} else {
			accounts[acc.ColumnName] = unknownAccount
		}
	}

	args := make(map[string]interface{}, len(instr.Args))
	for _, f := range instr.Args {
		args[f.ColumnName] = infoField(info, f.Name)
	}

	return &DecodedInstruction{
		InstructionName: instr.Name,
		Accounts:        accounts,
		Args:            args,
	}
}

func infoString(info map[string]interface{}, key string) (string, bool) {
	v, ok := info[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// infoField reads a named argument out of a parsed instruction's info
// map, falling back to the tokenAmount.{amount, decimals} shape per
// spec.md §4.4's fallback rule when the plain key is absent.
func infoField(info map[string]interface{}, key string) interface{} {
	if v, ok := info[key]; ok {
		return v
	}
	if ta, ok := info["tokenAmount"].(map[string]interface{}); ok {
		switch key {
		case "amount":
			return ta["amount"]
		case "decimals":
			return ta["decimals"]
		}
	}
	return nil
}
