package token

import (
	"testing"

	"github.com/mr-tron/base58"

	"github.com/zhivkoto/uho-indexer/internal/chain"
)

const tokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

func TestDecodeRawTransfer(t *testing.T) {
	data := []byte{3, 0x40, 0x42, 0x0f, 0, 0, 0, 0, 0}
	tx := &chain.RawTransaction{
		Signature: "sig1",
		Slot:      7,
		TopLevelInstructions: []chain.RawInstruction{
			{
				ProgramID:  tokenProgramID,
				DataBase58: base58.Encode(data),
				Accounts:   []string{"A", "B", "C"},
			},
		},
	}

	out := New().Decode(tx)
	if len(out) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(out))
	}
	got := out[0]
	if got.InstructionType != "transfer" {
		t.Errorf("InstructionType = %q, want transfer", got.InstructionType)
	}
	if got.Source != "A" || got.Destination != "B" || got.Authority != "C" {
		t.Errorf("accounts = (%q,%q,%q), want (A,B,C)", got.Source, got.Destination, got.Authority)
	}
	if got.Amount != "1000000" {
		t.Errorf("Amount = %q, want 1000000", got.Amount)
	}
	if got.Mint != nil {
		t.Errorf("Mint = %v, want nil", got.Mint)
	}
	if got.Decimals != nil {
		t.Errorf("Decimals = %v, want nil", got.Decimals)
	}
}

func TestDecodeRawTransferCheckedWithDecimals(t *testing.T) {
	data := []byte{12, 0x40, 0x42, 0x0f, 0, 0, 0, 0, 0, 6}
	tx := &chain.RawTransaction{
		Signature: "sig2",
		TopLevelInstructions: []chain.RawInstruction{
			{
				ProgramID:  tokenProgramID,
				DataBase58: base58.Encode(data),
				Accounts:   []string{"src", "mint", "dst", "auth"},
			},
		},
	}
	out := New().Decode(tx)
	if len(out) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(out))
	}
	got := out[0]
	if got.InstructionType != "transferChecked" {
		t.Errorf("InstructionType = %q, want transferChecked", got.InstructionType)
	}
	if got.Mint == nil || *got.Mint != "mint" {
		t.Errorf("Mint = %v, want mint", got.Mint)
	}
	if got.Decimals == nil || *got.Decimals != 6 {
		t.Errorf("Decimals = %v, want 6", got.Decimals)
	}
}

func TestDecodeIgnoresNonTokenProgram(t *testing.T) {
	tx := &chain.RawTransaction{
		TopLevelInstructions: []chain.RawInstruction{
			{ProgramID: "SomeOtherProgram", DataBase58: base58.Encode([]byte{3, 1, 0, 0, 0, 0, 0, 0, 0}), Accounts: []string{"a", "b", "c"}},
		},
	}
	out := New().Decode(tx)
	if len(out) != 0 {
		t.Fatalf("expected 0 transfers, got %d", len(out))
	}
}
