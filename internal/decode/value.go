// Package decode holds the normalized value model and the Borsh-style byte
// reader shared by the event, instruction, and token-transfer decoders.
package decode

import (
	"encoding/hex"
	"math/big"
)

// Kind identifies which normalized representation a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindInt32
	KindInt64    // carried in Big, serialized as a decimal string
	KindDecimal  // 128-bit, carried in Big, serialized as a decimal string
	KindFloat64
	KindBool
	KindText
	KindPubkey // base58 text
	KindBytes  // hex-encoded on output, with a "\x" prefix
	KindList
	KindMap
)

// Value is a sum type over the decoded-field representations named in
// spec.md §3/§9: int32, int64-as-string, decimal128-as-string, float64,
// bool, text, bytes (hex), pubkey (base58), list, map, null.
type Value struct {
	Kind  Kind
	Bool  bool
	Int32 int32
	Big   *big.Int // backs KindInt64 and KindDecimal
	Float float64
	Text  string // backs KindText and KindPubkey
	Bytes []byte
	List  []Value
	Map   map[string]Value
}

func Null() Value                 { return Value{Kind: KindNull} }
func Int32Value(v int32) Value    { return Value{Kind: KindInt32, Int32: v} }
func BoolValue(v bool) Value      { return Value{Kind: KindBool, Bool: v} }
func FloatValue(v float64) Value  { return Value{Kind: KindFloat64, Float: v} }
func TextValue(v string) Value    { return Value{Kind: KindText, Text: v} }
func PubkeyValue(v string) Value  { return Value{Kind: KindPubkey, Text: v} }
func BytesValue(v []byte) Value   { return Value{Kind: KindBytes, Bytes: v} }
func ListValue(v []Value) Value   { return Value{Kind: KindList, List: v} }
func MapValue(v map[string]Value) Value { return Value{Kind: KindMap, Map: v} }

// Int64Value wraps a signed 64-bit integer for decimal-string serialization.
func Int64Value(v int64) Value {
	return Value{Kind: KindInt64, Big: big.NewInt(v)}
}

// Uint64Value wraps an unsigned 64-bit integer for decimal-string serialization.
func Uint64Value(v uint64) Value {
	return Value{Kind: KindInt64, Big: new(big.Int).SetUint64(v)}
}

// DecimalValue wraps a 128-bit integer (signed or unsigned, already
// reconstructed into a big.Int) for decimal-string serialization.
func DecimalValue(v *big.Int) Value {
	return Value{Kind: KindDecimal, Big: v}
}

// Normalize converts a Value into the plain Go representation used for
// JSON marshaling of decoded rows and broadcast payloads: 64/128-bit
// integers as decimal strings, byte arrays as "\x"-prefixed hex, pubkeys
// as base58 text, lists and maps recursively normalized.
func (v Value) Normalize() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindInt32:
		return v.Int32
	case KindInt64, KindDecimal:
		if v.Big == nil {
			return "0"
		}
		return v.Big.String()
	case KindFloat64:
		return v.Float
	case KindBool:
		return v.Bool
	case KindText, KindPubkey:
		return v.Text
	case KindBytes:
		return "\\x" + hex.EncodeToString(v.Bytes)
	case KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = e.Normalize()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.Normalize()
		}
		return out
	default:
		return nil
	}
}

// NormalizeFields normalizes a name->Value map in one call, the shape
// decoded events/instructions carry their field data in.
func NormalizeFields(fields map[string]Value) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v.Normalize()
	}
	return out
}
