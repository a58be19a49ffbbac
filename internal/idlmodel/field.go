package idlmodel

import (
	"fmt"

	"github.com/zhivkoto/uho-indexer/internal/decode"
)

// DecodeFields walks an ordered field list against a Reader in IDL field
// order, producing a map from each field's ColumnName to its Value, per
// spec.md §4.3/§4.4's "deserialize the remaining bytes by walking the
// field list in order" rule. The returned map itself carries no order.
func DecodeFields(r *decode.Reader, fields []Field, types map[string]*TypeDef) (map[string]decode.Value, error) {
	out := make(map[string]decode.Value, len(fields))
	for _, f := range fields {
		v, err := DecodeValue(r, f.Type, types)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out[f.ColumnName] = v
	}
	return out, nil
}

// DecodeValue reads one Borsh-encoded value of the given shape off r.
func DecodeValue(r *decode.Reader, ft FieldType, types map[string]*TypeDef) (decode.Value, error) {
	switch {
	case ft.Option != nil:
		present, err := r.ReadBool()
		if err != nil {
			return decode.Value{}, err
		}
		if !present {
			return decode.Null(), nil
		}
		return DecodeValue(r, *ft.Option, types)

	case ft.Vec != nil:
		n, err := r.ReadVecLen()
		if err != nil {
			return decode.Value{}, err
		}
		list := make([]decode.Value, 0, n)
		for i := 0; i < n; i++ {
			v, err := DecodeValue(r, *ft.Vec, types)
			if err != nil {
				return decode.Value{}, fmt.Errorf("vec[%d]: %w", i, err)
			}
			list = append(list, v)
		}
		return decode.ListValue(list), nil

	case ft.Array != nil:
		list := make([]decode.Value, 0, ft.ArrayLen)
		for i := 0; i < ft.ArrayLen; i++ {
			v, err := DecodeValue(r, *ft.Array, types)
			if err != nil {
				return decode.Value{}, fmt.Errorf("array[%d]: %w", i, err)
			}
			list = append(list, v)
		}
		return decode.ListValue(list), nil

	case ft.Defined != "":
		return decodeDefined(r, ft.Defined, types)

	default:
		return decodePrimitive(r, ft.Primitive)
	}
}

func decodeDefined(r *decode.Reader, name string, types map[string]*TypeDef) (decode.Value, error) {
	td, ok := types[name]
	if !ok || td == nil {
		return decode.MapValue(nil), nil
	}
	if td.Fabricated {
		return decode.MapValue(map[string]decode.Value{}), nil
	}
	if td.IsEnum {
		tag, err := r.ReadU8()
		if err != nil {
			return decode.Value{}, fmt.Errorf("enum %s tag: %w", name, err)
		}
		if int(tag) >= len(td.Variants) {
			return decode.Value{}, fmt.Errorf("enum %s: tag %d out of range (%d variants)", name, tag, len(td.Variants))
		}
		variant := td.Variants[tag]
		fields, err := DecodeFields(r, variant.Fields, types)
		if err != nil {
			return decode.Value{}, fmt.Errorf("enum %s variant %s: %w", name, variant.Name, err)
		}
		m := make(map[string]decode.Value, len(fields)+1)
		for k, v := range fields {
			m[k] = v
		}
		m["__variant"] = decode.TextValue(variant.Name)
		return decode.MapValue(m), nil
	}
	fields, err := DecodeFields(r, td.Fields, types)
	if err != nil {
		return decode.Value{}, fmt.Errorf("struct %s: %w", name, err)
	}
	return decode.MapValue(fields), nil
}

func decodePrimitive(r *decode.Reader, primitive string) (decode.Value, error) {
	switch primitive {
	case "u8":
		v, err := r.ReadU8()
		return decode.Int32Value(int32(v)), err
	case "i8":
		v, err := r.ReadI8()
		return decode.Int32Value(int32(v)), err
	case "u16":
		v, err := r.ReadU16()
		return decode.Int32Value(int32(v)), err
	case "i16":
		v, err := r.ReadI16()
		return decode.Int32Value(int32(v)), err
	case "u32":
		v, err := r.ReadU32()
		return decode.Int32Value(int32(v)), err
	case "i32":
		v, err := r.ReadI32()
		return decode.Int32Value(v), err
	case "u64":
		v, err := r.ReadU64()
		return decode.Uint64Value(v), err
	case "i64":
		v, err := r.ReadI64()
		return decode.Int64Value(v), err
	case "u128":
		v, err := r.ReadU128()
		return decode.DecimalValue(v), err
	case "i128":
		v, err := r.ReadI128()
		return decode.DecimalValue(v), err
	case "f32":
		v, err := r.ReadF32()
		return decode.FloatValue(float64(v)), err
	case "f64":
		v, err := r.ReadF64()
		return decode.FloatValue(v), err
	case "bool":
		v, err := r.ReadBool()
		return decode.BoolValue(v), err
	case "string":
		v, err := r.ReadString()
		return decode.TextValue(v), err
	case "pubkey", "publicKey":
		v, err := r.ReadPubkey()
		if err != nil {
			return decode.Value{}, err
		}
		return decode.PubkeyValue(v.String()), nil
	case "bytes":
		n, err := r.ReadVecLen()
		if err != nil {
			return decode.Value{}, err
		}
		b, err := r.ReadBytes(n)
		if err != nil {
			return decode.Value{}, err
		}
		return decode.BytesValue(append([]byte(nil), b...)), nil
	default:
		return decode.Value{}, fmt.Errorf("unsupported primitive type %q", primitive)
	}
}
