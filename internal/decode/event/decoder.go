// Package event decodes Anchor events out of a transaction's log
// messages, per spec.md §4.3.
package event

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/zhivkoto/uho-indexer/internal/chain"
	"github.com/zhivkoto/uho-indexer/internal/decode"
	"github.com/zhivkoto/uho-indexer/internal/idlmodel"
)

// DecodedEvent is one decoded Anchor event, matching spec.md §3's shape.
type DecodedEvent struct {
	EventName    string
	ProgramID    string
	Slot         uint64
	BlockTime    *int64
	TxSignature  string
	IxIndex      int
	InnerIxIndex *int // always nil: events are log-scoped, not instruction-scoped
	Data         map[string]interface{}
}

var (
	invokeRe  = regexp.MustCompile(`^Program (\w+) invoke \[\d+\]$`)
	successRe = regexp.MustCompile(`^Program (\w+) (success|failed)`)
)

const dataPrefix = "Program data: "

// Decoder scans log messages for lines attributed to one program.
type Decoder struct {
	program *idlmodel.Program
}

func New(program *idlmodel.Program) *Decoder {
	return &Decoder{program: program}
}

// Decode walks tx's log messages top-to-bottom, tracking the current
// program-invocation stack so a "Program data:" line is attributed to
// the program that emitted it, not merely the first program in the
// transaction. Warnings are returned for single malformed events; the
// scan never aborts because of one bad line.
func (d *Decoder) Decode(tx *chain.RawTransaction) ([]DecodedEvent, []string) {
	var (
		events   []DecodedEvent
		warnings []string
		stack    []string
		ixIndex  int
	)

	for _, line := range tx.LogMessages {
		if m := invokeRe.FindStringSubmatch(line); m != nil {
			stack = append(stack, m[1])
			continue
		}
		if successRe.MatchString(line) {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		if len(stack) == 0 || stack[len(stack)-1] != d.program.Address {
			continue
		}

		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, dataPrefix))
		if err != nil {
			warnings = append(warnings, "malformed base64 in Program data line: "+err.Error())
			continue
		}
		if len(raw) < 8 {
			continue
		}

		ev := d.program.EventByDiscriminator(raw[:8])
		if ev == nil {
			continue // unmatched discriminator: silently ignored, per spec.md §4.3
		}

		r := decode.NewReader(raw[8:])
		fields, err := idlmodel.DecodeFields(r, ev.Fields, d.program.Types)
		if err != nil {
			warnings = append(warnings, "event "+ev.Name+": "+err.Error())
			continue
		}

		events = append(events, DecodedEvent{
			EventName:   ev.Name,
			ProgramID:   d.program.Address,
			Slot:        tx.Slot,
			BlockTime:   tx.BlockTime,
			TxSignature: tx.Signature,
			IxIndex:     ixIndex,
			Data:        decode.NormalizeFields(fields),
		})
		ixIndex++
	}

	return events, warnings
}
