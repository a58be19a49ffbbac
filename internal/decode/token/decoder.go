// Package token decodes standard SPL Token / Token-2022 transfer, mint,
// and burn instructions, per spec.md §4.5's fixed dispatch table.
package token

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/zhivkoto/uho-indexer/internal/chain"
	"github.com/zhivkoto/uho-indexer/internal/idlmodel"
)

const unknown = "unknown"

// DecodedTokenTransfer matches spec.md §3's shape for token-transfer rows.
type DecodedTokenTransfer struct {
	ProgramID       string
	InstructionType string // transfer | transferChecked | mintTo | burn
	Source          string
	Destination     string
	Authority       string
	Mint            *string
	Amount          string // decimal string
	Decimals        *int
	Slot            uint64
	BlockTime       *int64
	TxSignature     string
	IxIndex         int
	InnerIxIndex    *int
}

type rawLayout struct {
	instructionType string
	minData         int
	minAccounts     int
	hasDecimals     bool
	// accounts returns (source, destination, authority, mint) by position
	// in the instruction's account list, per spec.md §4.5's table; any
	// slot that layout doesn't use stays empty.
	accounts func(acc []string) (source, destination, authority string, mint *string)
}

var rawDispatch = map[byte]rawLayout{
	3: {
		instructionType: "transfer", minData: 9, minAccounts: 3,
		accounts: func(a []string) (string, string, string, *string) {
			return at(a, 0), at(a, 1), at(a, 2), nil
		},
	},
	12: {
		instructionType: "transferChecked", minData: 10, minAccounts: 4, hasDecimals: true,
		accounts: func(a []string) (string, string, string, *string) {
			mint := at(a, 1)
			return at(a, 0), at(a, 2), at(a, 3), &mint
		},
	},
	7: {
		instructionType: "mintTo", minData: 9, minAccounts: 3,
		accounts: func(a []string) (string, string, string, *string) {
			mint := at(a, 0)
			return "", at(a, 1), at(a, 2), &mint
		},
	},
	8: {
		instructionType: "burn", minData: 9, minAccounts: 3,
		accounts: func(a []string) (string, string, string, *string) {
			mint := at(a, 1)
			return at(a, 0), "", at(a, 2), &mint
		},
	},
	14: {
		instructionType: "mintTo", minData: 10, minAccounts: 3, hasDecimals: true,
		accounts: func(a []string) (string, string, string, *string) {
			mint := at(a, 0)
			return "", at(a, 1), at(a, 2), &mint
		},
	},
	15: {
		instructionType: "burn", minData: 10, minAccounts: 3, hasDecimals: true,
		accounts: func(a []string) (string, string, string, *string) {
			mint := at(a, 1)
			return at(a, 0), "", at(a, 2), &mint
		},
	},
}

func at(a []string, i int) string {
	if i < 0 || i >= len(a) {
		return unknown
	}
	return a[i]
}

// Decoder decodes every token-program instruction in a transaction,
// regardless of which user program the transaction otherwise belongs to.
type Decoder struct{}

func New() *Decoder { return &Decoder{} }

// Decode scans tx's top-level and inner instructions for ones whose
// program id is the Token or Token-2022 program, per spec.md §4.5.
func (d *Decoder) Decode(tx *chain.RawTransaction) []DecodedTokenTransfer {
	var out []DecodedTokenTransfer
	for _, scanned := range chain.Scan(tx) {
		ins := scanned.Instruction
		if !idlmodel.IsTokenProgram(ins.ProgramID) {
			continue
		}
		var dt *DecodedTokenTransfer
		if ins.Parsed != nil {
			dt = decodeParsed(ins)
		} else {
			dt = decodeRaw(ins)
		}
		if dt == nil {
			continue
		}
		dt.ProgramID = ins.ProgramID
		dt.Slot = tx.Slot
		dt.BlockTime = tx.BlockTime
		dt.TxSignature = tx.Signature
		dt.IxIndex = scanned.IxIndex
		dt.InnerIxIndex = scanned.InnerIxIndex
		out = append(out, *dt)
	}
	return out
}

func decodeRaw(ins chain.RawInstruction) *DecodedTokenTransfer {
	if ins.DataBase58 == "" {
		return nil
	}
	data, err := base58.Decode(ins.DataBase58)
	if err != nil || len(data) == 0 {
		return nil
	}
	layout, ok := rawDispatch[data[0]]
	if !ok {
		return nil // not a recognized opcode: silently skipped, per spec.md §4.5
	}
	if len(data) < layout.minData || len(ins.Accounts) < layout.minAccounts {
		return nil
	}

	amount := binary.LittleEndian.Uint64(data[1:9])
	var decimals *int
	if layout.hasDecimals {
		d := int(data[9])
		decimals = &d
	}
	source, destination, authority, mint := layout.accounts(ins.Accounts)

	return &DecodedTokenTransfer{
		InstructionType: layout.instructionType,
		Source:          source,
		Destination:     destination,
		Authority:       authority,
		Mint:            mint,
		Amount:          fmt.Sprintf("%d", amount),
		Decimals:        decimals,
	}
}

func decodeParsed(ins chain.RawInstruction) *DecodedTokenTransfer {
	info := ins.Parsed.Info
	switch ins.Parsed.Type {
	case "transfer":
		amount, _ := extractAmount(info)
		return &DecodedTokenTransfer{
			InstructionType: "transfer",
			Source:          str(info, "source"),
			Destination:     str(info, "destination"),
			Authority:       str(info, "authority"),
			Amount:          amount,
		}
	case "transferChecked":
		amount, decimals := extractAmount(info)
		mint := str(info, "mint")
		return &DecodedTokenTransfer{
			InstructionType: "transferChecked",
			Source:          str(info, "source"),
			Destination:     str(info, "destination"),
			Authority:       str(info, "authority"),
			Mint:            &mint,
			Amount:          amount,
			Decimals:        decimals,
		}
	case "mintTo":
		amount, _ := extractAmount(info)
		mint := str(info, "mint")
		return &DecodedTokenTransfer{
			InstructionType: "mintTo",
			Destination:     str(info, "account"),
			Authority:       str(info, "mintAuthority"),
			Mint:            &mint,
			Amount:          amount,
		}
	case "mintToChecked":
		amount, decimals := extractAmount(info)
		mint := str(info, "mint")
		return &DecodedTokenTransfer{
			InstructionType: "mintTo",
			Destination:     str(info, "account"),
			Authority:       str(info, "mintAuthority"),
			Mint:            &mint,
			Amount:          amount,
			Decimals:        decimals,
		}
	case "burn":
		amount, _ := extractAmount(info)
		mint := str(info, "mint")
		return &DecodedTokenTransfer{
			InstructionType: "burn",
			Source:          str(info, "account"),
			Authority:       str(info, "authority"),
			Mint:            &mint,
			Amount:          amount,
		}
	case "burnChecked":
		amount, decimals := extractAmount(info)
		mint := str(info, "mint")
		return &DecodedTokenTransfer{
			InstructionType: "burn",
			Source:          str(info, "account"),
			Authority:       str(info, "authority"),
			Mint:            &mint,
			Amount:          amount,
			Decimals:        decimals,
		}
	default:
		return nil
	}
}

func str(info map[string]interface{}, key string) string {
	if v, ok := info[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return unknown
}

// extractAmount reads an "amount" field directly, falling back to the
// tokenAmount.{amount, decimals} shape per spec.md §4.4's fallback rule.
func extractAmount(info map[string]interface{}) (string, *int) {
	if v, ok := info["amount"]; ok {
		return fmt.Sprint(v), nil
	}
	if ta, ok := info["tokenAmount"].(map[string]interface{}); ok {
		amount := fmt.Sprint(ta["amount"])
		var decimals *int
		if d, ok := ta["decimals"].(float64); ok {
			dd := int(d)
			decimals = &dd
		}
		return amount, decimals
	}
	return "0", nil
}
