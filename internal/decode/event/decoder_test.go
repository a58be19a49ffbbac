package event

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/zhivkoto/uho-indexer/internal/chain"
	"github.com/zhivkoto/uho-indexer/internal/idlmodel"
)

const swapIDL = `{
  "metadata": {"name": "my_dex", "address": "DexProgram11111111111111111111111111111111"},
  "events": [
    {"name": "SwapEvent", "fields": [
      {"name": "amm", "type": "pubkey"},
      {"name": "inputAmount", "type": "u64"},
      {"name": "outputAmount", "type": "u64"},
      {"name": "fee", "type": "u64"},
      {"name": "timestamp", "type": "i64"}
    ]}
  ]
}`

func buildSwapEventLog(t *testing.T, disc [8]byte) string {
	t.Helper()
	buf := append([]byte{}, disc[:]...)
	var pubkey [32]byte
	for i := range pubkey {
		pubkey[i] = byte(i + 1)
	}
	buf = append(buf, pubkey[:]...)
	le := make([]byte, 8)
	for _, v := range []uint64{1_000_000, 500_000, 1_000} {
		binary.LittleEndian.PutUint64(le, v)
		buf = append(buf, le...)
	}
	binary.LittleEndian.PutUint64(le, 1_720_000_000)
	buf = append(buf, le...)
	return dataPrefix + base64.StdEncoding.EncodeToString(buf)
}

func TestDecodeSwapEventFromLogs(t *testing.T) {
	program, err := idlmodel.Parse([]byte(swapIDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	logLine := buildSwapEventLog(t, program.Events[0].Discriminator)
	tx := &chain.RawTransaction{
		Signature: "sig1",
		Slot:      42,
		LogMessages: []string{
			"Program DexProgram11111111111111111111111111111111 invoke [1]",
			logLine,
			"Program DexProgram11111111111111111111111111111111 success",
		},
	}

	d := New(program)
	events, warnings := d.Decode(tx)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.EventName != "SwapEvent" {
		t.Errorf("EventName = %q, want SwapEvent", got.EventName)
	}
	if got.Data["input_amount"] != "1000000" {
		t.Errorf("input_amount = %v, want \"1000000\"", got.Data["input_amount"])
	}
	if got.InnerIxIndex != nil {
		t.Errorf("InnerIxIndex = %v, want nil", got.InnerIxIndex)
	}
}

func TestDecodeIgnoresOtherProgramsData(t *testing.T) {
	program, err := idlmodel.Parse([]byte(swapIDL))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	logLine := buildSwapEventLog(t, program.Events[0].Discriminator)
	tx := &chain.RawTransaction{
		Signature: "sig2",
		LogMessages: []string{
			"Program SomeOtherProgram1111111111111111111111111 invoke [1]",
			logLine,
			"Program SomeOtherProgram1111111111111111111111111 success",
		},
	}
	d := New(program)
	events, _ := d.Decode(tx)
	if len(events) != 0 {
		t.Fatalf("expected 0 events for a different program's data line, got %d", len(events))
	}
}
