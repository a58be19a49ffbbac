package fanout

import (
	"context"
	"encoding/json"
)

// broadcastEvent is one decoded event's shape in the broadcast payload,
// per spec.md §4.6: {event_name, slot, tx_signature, data}.
type broadcastEvent struct {
	EventName   string                 `json:"event_name"`
	Slot        uint64                 `json:"slot"`
	TxSignature string                 `json:"tx_signature"`
	Data        map[string]interface{} `json:"data"`
}

// broadcastPayload is the full NOTIFY body: {program_id, events, subscribers}.
type broadcastPayload struct {
	ProgramID   string           `json:"program_id"`
	Events      []broadcastEvent `json:"events"`
	Subscribers []string         `json:"subscribers"`
}

// broadcast emits one best-effort NOTIFY for the whole batch's events,
// falling back to per-event payloads if the combined body is too large.
// A batch with no events, or with no touched subscribers, emits nothing.
func (w *Writer) broadcast(ctx context.Context, programID string, events []DecodedEventLike, subscribers []string) {
	if len(events) == 0 || len(subscribers) == 0 {
		return
	}

	bEvents := make([]broadcastEvent, len(events))
	perItem := make([]string, 0, len(events))
	for i, e := range events {
		bEvents[i] = broadcastEvent{EventName: e.EventName, Slot: e.Slot, TxSignature: e.TxSignature, Data: e.Data}
		single := broadcastPayload{ProgramID: programID, Events: []broadcastEvent{bEvents[i]}, Subscribers: subscribers}
		if b, err := json.Marshal(single); err == nil {
			perItem = append(perItem, string(b))
		}
	}

	full, err := json.Marshal(broadcastPayload{ProgramID: programID, Events: bEvents, Subscribers: subscribers})
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to marshal broadcast payload")
		return
	}

	w.broadcaster.NotifyOrSplit(ctx, string(full), perItem)
}
