package idlmodel

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/zhivkoto/uho-indexer/internal/decode"
)

const swapIDL = `{
  "version": "0.1.0",
  "name": "my_dex_program",
  "metadata": {"name": "my_dex_program", "address": "DexProgram11111111111111111111111111111111"},
  "instructions": [],
  "events": [
    {
      "name": "SwapEvent",
      "fields": [
        {"name": "amm", "type": "pubkey"},
        {"name": "inputAmount", "type": "u64"},
        {"name": "outputAmount", "type": "u64"},
        {"name": "fee", "type": "u64"},
        {"name": "timestamp", "type": "i64"}
      ]
    }
  ],
  "types": []
}`

func TestParseSwapEventDiscriminatorAndColumns(t *testing.T) {
	p, err := Parse([]byte(swapIDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(p.Events))
	}
	ev := p.Events[0]

	want := sha256.Sum256([]byte("event:SwapEvent"))
	for i := 0; i < 8; i++ {
		if ev.Discriminator[i] != want[i] {
			t.Fatalf("discriminator mismatch at byte %d: got %x want %x", i, ev.Discriminator, want[:8])
		}
	}

	byName := map[string]Field{}
	for _, f := range ev.Fields {
		byName[f.Name] = f
	}
	if byName["inputAmount"].ColumnName != "input_amount" {
		t.Errorf("column name = %q, want input_amount", byName["inputAmount"].ColumnName)
	}
	if byName["inputAmount"].StorageType != StorageInt64 {
		t.Errorf("inputAmount storage = %v, want int64", byName["inputAmount"].StorageType)
	}
	if byName["amm"].StorageType != StoragePubkey {
		t.Errorf("amm storage = %v, want pubkey", byName["amm"].StorageType)
	}
}

func TestTypeMapOptionAndVec(t *testing.T) {
	p := &Program{Types: map[string]*TypeDef{}}
	fields, err := parseFields([]rawField{
		{Name: "maybeAmount", Type: rawMsg(`{"option":"u64"}`)},
		{Name: "raw", Type: rawMsg(`{"vec":"u8"}`)},
		{Name: "owner", Type: rawMsg(`"pubkey"`)},
	}, p)
	if err != nil {
		t.Fatalf("parseFields: %v", err)
	}
	if fields[0].StorageType != StorageInt64 || !fields[0].Nullable {
		t.Errorf("option<u64> = (%v, nullable=%v), want (int64, true)", fields[0].StorageType, fields[0].Nullable)
	}
	if fields[1].StorageType != StorageStructured || fields[1].Nullable {
		t.Errorf("vec<u8> = (%v, nullable=%v), want (structured, false)", fields[1].StorageType, fields[1].Nullable)
	}
	if fields[2].StorageType != StoragePubkey || fields[2].Nullable {
		t.Errorf("pubkey = (%v, nullable=%v), want (pubkey, false)", fields[2].StorageType, fields[2].Nullable)
	}
}

func TestDanglingTypeReferenceIsPatched(t *testing.T) {
	idl := `{
	  "metadata": {"name": "prog"},
	  "events": [{"name": "Foo", "fields": [{"name": "bar", "type": {"defined": {"name": "Missing"}}}]}],
	  "types": []
	}`
	p, err := Parse([]byte(idl))
	if err != nil {
		t.Fatalf("Parse should not reject a dangling type reference: %v", err)
	}
	if _, ok := p.Types["Missing"]; !ok {
		t.Fatalf("expected a fabricated stub for Missing")
	}
	if len(p.Warnings) == 0 {
		t.Errorf("expected a warning about the dangling reference")
	}
}

func TestDecodeSwapEventBytes(t *testing.T) {
	p, err := Parse([]byte(swapIDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ev := p.Events[0]

	buf := make([]byte, 0, 64)
	var pubkey [32]byte
	for i := range pubkey {
		pubkey[i] = byte(i + 1)
	}
	buf = append(buf, pubkey[:]...)
	amt := make([]byte, 8)
	binary.LittleEndian.PutUint64(amt, 1_000_000)
	buf = append(buf, amt...)
	binary.LittleEndian.PutUint64(amt, 500_000)
	buf = append(buf, amt...)
	binary.LittleEndian.PutUint64(amt, 1_000)
	buf = append(buf, amt...)
	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, uint64(1_720_000_000))
	buf = append(buf, ts...)

	r := decode.NewReader(buf)
	fields, err := DecodeFields(r, ev.Fields, p.Types)
	if err != nil {
		t.Fatalf("DecodeFields: %v", err)
	}
	if fields["input_amount"].Normalize() != "1000000" {
		t.Errorf("input_amount = %v, want \"1000000\"", fields["input_amount"].Normalize())
	}
	// §4.1's type table serializes every 64-bit integer as a decimal
	// string unconditionally; the prose in spec.md §8 scenario 3 shows
	// timestamp unquoted only for readability.
	if fields["timestamp"].Normalize() != "1720000000" {
		t.Errorf("timestamp = %v, want \"1720000000\"", fields["timestamp"].Normalize())
	}
}

func rawMsg(s string) []byte { return []byte(s) }
