package ast

import "strings"

// Kind is the resolved type kind a typed AST node carries, per spec.md §6:
// {I32, I64, U32, U64, F64, BOOL, STRING, VOID, ARRAY(elem), STRUCT(fields),
// ENUM(variants), INSTANCE(base), FUNCTION(params, ret), ANY, UNKNOWN, ERROR}.
type Kind int

const (
	UNKNOWN Kind = iota
	ERROR
	VOID
	I32
	I64
	U32
	U64
	F64
	BOOL
	STRING
	ARRAY
	STRUCT
	ENUM
	INSTANCE
	FUNCTION
	ANY
)

var kindNames = [...]string{
	UNKNOWN: "unknown", ERROR: "error", VOID: "void",
	I32: "i32", I64: "i64", U32: "u32", U64: "u64", F64: "f64",
	BOOL: "bool", STRING: "string", ARRAY: "array", STRUCT: "struct",
	ENUM: "enum", INSTANCE: "instance", FUNCTION: "function", ANY: "any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "kind(?)"
}

// IsNumeric reports whether k is one of the five numeric kinds.
func (k Kind) IsNumeric() bool {
	switch k {
	case I32, I64, U32, U64, F64:
		return true
	}
	return false
}

// IsHeap reports whether values of this kind are heap/boxed at runtime
// (strings, arrays, structs, enums), as opposed to unboxed scalars.
func (k Kind) IsHeap() bool {
	switch k {
	case STRING, ARRAY, STRUCT, ENUM, INSTANCE, ANY:
		return true
	}
	return false
}

// StructField is one declared field of a STRUCT type, in declaration order
// (spec.md §9: "struct layout via arrays" requires this order be preserved
// strictly, since field access compiles to a constant-index ARRAY_GET).
type StructField struct {
	Name string
	Type *Type
}

// EnumVariant is one declared variant of an ENUM type, along with the
// types of its payload fields (empty for unit variants).
type EnumVariant struct {
	Name    string
	Index   int
	Payload []*Type
}

// Type is a resolved type, as produced by the (external, stand-in) type
// checker and consumed throughout lang/codegen.
type Type struct {
	Kind Kind

	Elem *Type // ARRAY

	Name    string        // STRUCT, ENUM, INSTANCE: declared name
	Fields  []StructField // STRUCT
	Variant []EnumVariant // ENUM

	Base *Type // INSTANCE: the underlying struct/enum type

	Params []*Type // FUNCTION
	Ret    *Type   // FUNCTION
}

func Simple(k Kind) *Type { return &Type{Kind: k} }

func ArrayOf(elem *Type) *Type { return &Type{Kind: ARRAY, Elem: elem} }

func StructOf(name string, fields []StructField) *Type {
	return &Type{Kind: STRUCT, Name: name, Fields: fields}
}

func EnumOf(name string, variants []EnumVariant) *Type {
	return &Type{Kind: ENUM, Name: name, Variant: variants}
}

func FuncOf(params []*Type, ret *Type) *Type {
	return &Type{Kind: FUNCTION, Params: params, Ret: ret}
}

// FieldIndex returns the declared index of name within a STRUCT type, or -1.
func (t *Type) FieldIndex(name string) int {
	if t == nil || t.Kind != STRUCT {
		return -1
	}
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// VariantByName returns the enum variant descriptor for name, or nil.
func (t *Type) VariantByName(name string) *EnumVariant {
	if t == nil || t.Kind != ENUM {
		return nil
	}
	for i := range t.Variant {
		if t.Variant[i].Name == name {
			return &t.Variant[i]
		}
	}
	return nil
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case ARRAY:
		return "[" + t.Elem.String() + "]"
	case STRUCT, ENUM, INSTANCE:
		return t.Name
	case FUNCTION:
		var ps []string
		for _, p := range t.Params {
			ps = append(ps, p.String())
		}
		ret := "void"
		if t.Ret != nil {
			ret = t.Ret.String()
		}
		return "fn(" + strings.Join(ps, ", ") + ") -> " + ret
	default:
		return t.Kind.String()
	}
}

// Equal performs a shallow structural equality check sufficient for
// promotion-rule and cast-matrix lookups (spec.md §4.8).
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case ARRAY:
		return t.Elem.Equal(o.Elem)
	case STRUCT, ENUM, INSTANCE:
		return t.Name == o.Name
	default:
		return true
	}
}
