// Package idlmodel normalizes Anchor- and Shank-style IDL JSON into a
// typed internal program model: event and instruction definitions with
// discriminators, ordered field lists, and the IDL-type-to-storage-type
// mapping spec'd for column-oriented writers.
package idlmodel

// StorageType is the column-oriented type a decoded field is stored as.
type StorageType int

const (
	StorageInt32 StorageType = iota
	StorageInt64
	StorageDecimal128
	StorageFloat64
	StorageBool
	StorageText
	StoragePubkey
	StorageBytes
	StorageStructured // nested vec/array/defined type, JSON-encoded
)

func (s StorageType) String() string {
	switch s {
	case StorageInt32:
		return "int32"
	case StorageInt64:
		return "int64"
	case StorageDecimal128:
		return "decimal128"
	case StorageFloat64:
		return "float64"
	case StorageBool:
		return "bool"
	case StorageText:
		return "text"
	case StoragePubkey:
		return "pubkey"
	case StorageBytes:
		return "bytes"
	case StorageStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// FieldType describes the shape of one IDL type reference: either a
// primitive, or exactly one of option/vec/array/defined wrapping it.
type FieldType struct {
	Primitive string // "u8","u16","u32","i8","i16","i32","u64","i64","u128","i128","f32","f64","bool","string","pubkey","bytes"
	Option    *FieldType
	Vec       *FieldType
	Array     *FieldType
	ArrayLen  int
	Defined   string // name into Program.Types
}

// Field is one ordered member of an event, instruction-argument, or
// struct/variant field list.
type Field struct {
	Name        string // original IDL name, used for parsed-mode info-map lookups
	ColumnName  string // snake_cased, used for storage
	Type        FieldType
	StorageType StorageType
	Nullable    bool
}

// Variant is one arm of an IDL enum type.
type Variant struct {
	Name   string
	Fields []Field
}

// TypeDef is a named struct or enum declared in the IDL's types[] array.
type TypeDef struct {
	Name     string
	IsEnum   bool
	Fields   []Field   // struct kind
	Variants []Variant // enum kind
	// Fabricated marks a type created to patch a dangling reference
	// rather than one actually declared by the IDL (spec.md §4.1, §9).
	Fabricated bool
}

// EventDef is one Anchor event: a log-scoped, discriminator-matched record.
type EventDef struct {
	Name          string
	Discriminator [8]byte
	Fields        []Field
}

// AccountDef is one named account slot an instruction expects, in order.
type AccountDef struct {
	Name       string
	ColumnName string
}

// InstructionDef is one program instruction: discriminator, argument
// record layout, and named account slots.
type InstructionDef struct {
	Name          string
	Discriminator [8]byte
	Args          []Field
	Accounts      []AccountDef
}

// Program is the normalized model of one parsed IDL.
type Program struct {
	Name         string // canonical program_name, used for table prefixes
	Address      string // base58 program id, may be empty until bound to a subscription
	Origin       string // "anchor" | "shank"
	Events       []EventDef
	Instructions []InstructionDef
	Types        map[string]*TypeDef
	// Warnings accumulates non-fatal parse notices (e.g. dangling type
	// references patched with an empty struct) for the caller to log.
	Warnings []string
}

// EventByDiscriminator returns the event definition matching the given
// 8-byte prefix, or nil.
func (p *Program) EventByDiscriminator(d []byte) *EventDef {
	if len(d) < 8 {
		return nil
	}
	for i := range p.Events {
		if bytesEqual8(p.Events[i].Discriminator, d) {
			return &p.Events[i]
		}
	}
	return nil
}

// InstructionByDiscriminator returns the instruction definition matching
// the given 8-byte prefix, or nil.
func (p *Program) InstructionByDiscriminator(d []byte) *InstructionDef {
	if len(d) < 8 {
		return nil
	}
	for i := range p.Instructions {
		if bytesEqual8(p.Instructions[i].Discriminator, d) {
			return &p.Instructions[i]
		}
	}
	return nil
}

// InstructionByParsedName returns the instruction whose name matches the
// given parsed-RPC type name, case-insensitively and ignoring underscores,
// per spec.md §4.4's parsed-mode matching rule.
func (p *Program) InstructionByParsedName(typeName string) *InstructionDef {
	target := foldName(typeName)
	for i := range p.Instructions {
		if foldName(p.Instructions[i].Name) == target {
			return &p.Instructions[i]
		}
	}
	return nil
}

func bytesEqual8(a [8]byte, b []byte) bool {
	for i := 0; i < 8; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HasInstructions reports whether the program declares any instructions,
// used by the orchestrator to decide whether to run the instruction
// decoder on a program's transactions (spec.md §4.7).
func (p *Program) HasInstructions() bool { return len(p.Instructions) > 0 }
