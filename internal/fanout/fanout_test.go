package fanout

import (
	"encoding/json"
	"testing"

	"github.com/zhivkoto/uho-indexer/internal/registry"
)

func TestSqlValueEncodesStructuredColumns(t *testing.T) {
	got := sqlValue(map[string]interface{}{"a": 1.0})
	s, ok := got.(string)
	if !ok {
		t.Fatalf("expected string, got %T", got)
	}
	var back map[string]interface{}
	if err := json.Unmarshal([]byte(s), &back); err != nil {
		t.Fatalf("not valid json: %v", err)
	}
	if back["a"] != 1.0 {
		t.Fatalf("round trip mismatch: %v", back)
	}
}

func TestSqlValuePassesScalarsThrough(t *testing.T) {
	if sqlValue("plain") != "plain" {
		t.Fatal("expected scalar string to pass through unchanged")
	}
	if sqlValue(42) != 42 {
		t.Fatal("expected int to pass through unchanged")
	}
}

// Scenario 6 of spec.md §8: a subscriber's enabled-event filter must
// exclude events the subscriber never opted into, while leaving other
// subscribers unaffected (isolation).
func TestSubscriberFilterIsolatesEnabledEvents(t *testing.T) {
	a := registry.Subscriber{UserID: "a", EnabledEvents: []string{"SwapEvent"}}
	b := registry.Subscriber{UserID: "b", EnabledEvents: []string{"DepositEvent"}}

	if !a.HasEvent("SwapEvent") {
		t.Fatal("subscriber a should have SwapEvent enabled")
	}
	if a.HasEvent("DepositEvent") {
		t.Fatal("subscriber a should not have DepositEvent enabled")
	}
	if !b.HasEvent("DepositEvent") || b.HasEvent("SwapEvent") {
		t.Fatal("subscriber b's filter must be independent of subscriber a's")
	}
}

func TestBroadcastPayloadShape(t *testing.T) {
	events := []DecodedEventLike{
		{EventName: "SwapEvent", Slot: 100, TxSignature: "sig1", Data: map[string]interface{}{"amount": "5"}},
	}
	payload := broadcastPayload{ProgramID: "prog1", Subscribers: []string{"user1"}}
	for _, e := range events {
		payload.Events = append(payload.Events, broadcastEvent{
			EventName: e.EventName, Slot: e.Slot, TxSignature: e.TxSignature, Data: e.Data,
		})
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back map[string]interface{}
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back["program_id"] != "prog1" {
		t.Fatalf("unexpected program_id: %v", back["program_id"])
	}
	evs, ok := back["events"].([]interface{})
	if !ok || len(evs) != 1 {
		t.Fatalf("expected one event in payload, got %v", back["events"])
	}
}
