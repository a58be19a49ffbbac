package idlmodel

import (
	"encoding/json"
	"fmt"

	"github.com/zhivkoto/uho-indexer/internal/tables"
)

type rawIDL struct {
	Version      string          `json:"version"`
	Name         string          `json:"name"`
	Metadata     rawMetadata     `json:"metadata"`
	Instructions []rawInstr      `json:"instructions"`
	Events       []rawEvent      `json:"events"`
	Types        []rawTypeDef    `json:"types"`
}

type rawMetadata struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Origin  string `json:"origin"`
}

type rawField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type rawEvent struct {
	Name          string     `json:"name"`
	Discriminator []byte     `json:"discriminator,omitempty"`
	Fields        []rawField `json:"fields"`
}

type rawAccountItem struct {
	Name string `json:"name"`
}

type rawInstr struct {
	Name          string           `json:"name"`
	Discriminator []byte           `json:"discriminator,omitempty"`
	Args          []rawField       `json:"args"`
	Accounts      []rawAccountItem `json:"accounts"`
}

type rawTypeDef struct {
	Name string         `json:"name"`
	Type rawTypeDefBody `json:"type"`
}

type rawTypeDefBody struct {
	Kind     string       `json:"kind"` // "struct" | "enum"
	Fields   []rawField   `json:"fields,omitempty"`
	Variants []rawVariant `json:"variants,omitempty"`
}

type rawVariant struct {
	Name   string     `json:"name"`
	Fields []rawField `json:"fields,omitempty"`
}

// Parse normalizes raw Anchor- or Shank-style IDL JSON into a *Program.
// It never rejects an IDL for a dangling type reference (spec.md §4.1,
// §9): missing `defined` types are fabricated as empty structs and noted
// in Program.Warnings.
func Parse(raw []byte) (*Program, error) {
	var doc rawIDL
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("idlmodel: parse IDL json: %w", err)
	}

	p := &Program{
		Name:    deriveProgramName(doc),
		Address: doc.Metadata.Address,
		Origin:  "anchor",
		Types:   map[string]*TypeDef{},
	}
	if doc.Metadata.Origin == "shank" {
		p.Origin = "shank"
	}

	// Stub every declared type first so forward/mutual references between
	// types resolve regardless of declaration order.
	for _, rt := range doc.Types {
		p.Types[rt.Name] = &TypeDef{Name: rt.Name, IsEnum: rt.Type.Kind == "enum"}
	}
	for _, rt := range doc.Types {
		td := p.Types[rt.Name]
		if rt.Type.Kind == "enum" {
			for _, rv := range rt.Type.Variants {
				fields, err := parseFields(rv.Fields, p)
				if err != nil {
					return nil, fmt.Errorf("idlmodel: type %s variant %s: %w", rt.Name, rv.Name, err)
				}
				td.Variants = append(td.Variants, Variant{Name: rv.Name, Fields: fields})
			}
			continue
		}
		fields, err := parseFields(rt.Type.Fields, p)
		if err != nil {
			return nil, fmt.Errorf("idlmodel: type %s: %w", rt.Name, err)
		}
		td.Fields = fields
	}

	for _, re := range doc.Events {
		fields, err := parseFields(re.Fields, p)
		if err != nil {
			return nil, fmt.Errorf("idlmodel: event %s: %w", re.Name, err)
		}
		ev := EventDef{Name: re.Name, Fields: fields}
		if len(re.Discriminator) >= 8 {
			copy(ev.Discriminator[:], re.Discriminator[:8])
		} else {
			ev.Discriminator = eventDiscriminator(re.Name)
		}
		p.Events = append(p.Events, ev)
	}

	for _, ri := range doc.Instructions {
		args, err := parseFields(ri.Args, p)
		if err != nil {
			return nil, fmt.Errorf("idlmodel: instruction %s: %w", ri.Name, err)
		}
		instr := InstructionDef{Name: ri.Name, Args: args}
		if len(ri.Discriminator) >= 8 {
			copy(instr.Discriminator[:], ri.Discriminator[:8])
		} else {
			instr.Discriminator = instructionDiscriminator(ri.Name)
		}
		for _, ra := range ri.Accounts {
			instr.Accounts = append(instr.Accounts, AccountDef{
				Name:       ra.Name,
				ColumnName: tables.SnakeCase(ra.Name),
			})
		}
		p.Instructions = append(p.Instructions, instr)
	}

	return p, nil
}

func deriveProgramName(doc rawIDL) string {
	if doc.Metadata.Name != "" {
		return doc.Metadata.Name
	}
	return doc.Name
}

func parseFields(raw []rawField, p *Program) ([]Field, error) {
	fields := make([]Field, 0, len(raw))
	for _, rf := range raw {
		ft, err := parseFieldType(rf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", rf.Name, err)
		}
		st, nullable := resolveStorage(ft, p)
		fields = append(fields, Field{
			Name:        rf.Name,
			ColumnName:  tables.SnakeCase(rf.Name),
			Type:        ft,
			StorageType: st,
			Nullable:    nullable,
		})
	}
	return fields, nil
}

// parseFieldType decodes one IDL type reference, which is either a bare
// string ("u64"), or an object with exactly one of option/vec/array/defined.
func parseFieldType(raw json.RawMessage) (FieldType, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return FieldType{Primitive: asString}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return FieldType{}, fmt.Errorf("unrecognized type shape: %s", string(raw))
	}

	if inner, ok := obj["option"]; ok {
		elem, err := parseFieldType(inner)
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Option: &elem}, nil
	}
	if inner, ok := obj["vec"]; ok {
		elem, err := parseFieldType(inner)
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Vec: &elem}, nil
	}
	if inner, ok := obj["array"]; ok {
		var pair []json.RawMessage
		if err := json.Unmarshal(inner, &pair); err != nil || len(pair) != 2 {
			return FieldType{}, fmt.Errorf("malformed array type: %s", string(inner))
		}
		elem, err := parseFieldType(pair[0])
		if err != nil {
			return FieldType{}, err
		}
		var n int
		_ = json.Unmarshal(pair[1], &n)
		return FieldType{Array: &elem, ArrayLen: n}, nil
	}
	if inner, ok := obj["defined"]; ok {
		// Modern anchor: {"defined": {"name": "X"}}. Legacy anchor:
		// {"defined": "X"}. Accept both.
		var named struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(inner, &named); err == nil && named.Name != "" {
			return FieldType{Defined: named.Name}, nil
		}
		var name string
		if err := json.Unmarshal(inner, &name); err == nil {
			return FieldType{Defined: name}, nil
		}
		return FieldType{}, fmt.Errorf("malformed defined type: %s", string(inner))
	}

	return FieldType{}, fmt.Errorf("unsupported type object: %s", string(raw))
}

// resolveStorage maps a FieldType to the column storage type per spec.md
// §4.1's table. A dangling `defined` reference is patched with an empty
// fabricated struct so the whole IDL never gets rejected (spec.md §4.1, §9).
func resolveStorage(ft FieldType, p *Program) (StorageType, bool) {
	if ft.Option != nil {
		st, _ := resolveStorage(*ft.Option, p)
		return st, true
	}
	if ft.Vec != nil || ft.Array != nil {
		elem := ft.Vec
		if elem == nil {
			elem = ft.Array
		}
		resolveStorage(*elem, p) // patches a dangling element type too
		return StorageStructured, false
	}
	if ft.Defined != "" {
		if _, ok := p.Types[ft.Defined]; !ok {
			p.Types[ft.Defined] = &TypeDef{Name: ft.Defined, Fabricated: true}
			p.Warnings = append(p.Warnings, fmt.Sprintf("dangling type reference %q patched with an empty struct", ft.Defined))
		}
		return StorageStructured, false
	}
	switch ft.Primitive {
	case "u8", "u16", "u32", "i8", "i16", "i32":
		return StorageInt32, false
	case "u64", "i64":
		return StorageInt64, false
	case "u128", "i128":
		return StorageDecimal128, false
	case "f32", "f64":
		return StorageFloat64, false
	case "bool":
		return StorageBool, false
	case "string":
		return StorageText, false
	case "pubkey", "publicKey":
		return StoragePubkey, false
	case "bytes":
		return StorageBytes, false
	default:
		// Unknown/unsupported primitive names (e.g. a future IDL
		// addition) fall back to structured JSON rather than failing
		// the whole program, consistent with the dangling-type leniency.
		return StorageStructured, false
	}
}
