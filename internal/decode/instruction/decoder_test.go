package instruction

import (
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"

	"github.com/zhivkoto/uho-indexer/internal/chain"
	"github.com/zhivkoto/uho-indexer/internal/idlmodel"
)

const depositIDL = `{
  "metadata": {"name": "vault_program", "address": "VaultProgram111111111111111111111111111111"},
  "instructions": [
    {
      "name": "deposit",
      "args": [{"name": "amount", "type": "u64"}],
      "accounts": [{"name": "depositor"}, {"name": "vault"}]
    }
  ]
}`

func TestDecodeRawInstructionMissingAccountIsUnknown(t *testing.T) {
	program, err := idlmodel.Parse([]byte(depositIDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	instr := program.Instructions[0]

	data := append([]byte{}, instr.Discriminator[:]...)
	amt := make([]byte, 8)
	binary.LittleEndian.PutUint64(amt, 5_000)
	data = append(data, amt...)

	tx := &chain.RawTransaction{
		Signature: "sig1",
		TopLevelInstructions: []chain.RawInstruction{
			{
				ProgramID:  program.Address,
				DataBase58: base58.Encode(data),
				Accounts:   []string{"Depositor1"}, // vault account missing
			},
		},
	}

	d := New(program)
	out, warnings := d.Decode(tx)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(out))
	}
	got := out[0]
	if got.Accounts["depositor"] != "Depositor1" {
		t.Errorf("depositor = %q, want Depositor1", got.Accounts["depositor"])
	}
	if got.Accounts["vault"] != unknownAccount {
		t.Errorf("vault = %q, want unknown", got.Accounts["vault"])
	}
	if got.Args["amount"] != "5000" {
		t.Errorf("amount = %v, want \"5000\"", got.Args["amount"])
	}
}

func TestDecodeParsedInstructionByFoldedName(t *testing.T) {
	program, err := idlmodel.Parse([]byte(depositIDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tx := &chain.RawTransaction{
		Signature: "sig2",
		TopLevelInstructions: []chain.RawInstruction{
			{
				ProgramID: program.Address,
				Parsed: &chain.ParsedInfo{
					Type: "Deposit", // case-insensitive match against "deposit"
					Info: map[string]interface{}{
						"depositor": "Depositor2",
						"vault":     "Vault2",
						"amount":    "9000",
					},
				},
			},
		},
	}
	d := New(program)
	out, _ := d.Decode(tx)
	if len(out) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(out))
	}
	if out[0].Accounts["vault"] != "Vault2" {
		t.Errorf("vault = %q, want Vault2", out[0].Accounts["vault"])
	}
	if out[0].Args["amount"] != "9000" {
		t.Errorf("amount = %v, want 9000", out[0].Args["amount"])
	}
}
