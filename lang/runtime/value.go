package runtime

import (
	"math"
	"strconv"

	"github.com/mna/orus/lang/ast"
)

// Value is a tagged runtime value: the constant pool's element type
// (spec.md §3 "a growable vector of tagged values") and the shape every
// register in the VM's frame bank holds. Kind reuses ast.Kind so the
// codegen, constant pool, and disassembler share one vocabulary for "what
// kind of thing is this" from typed AST all the way to finalised chunk.
//
// Numeric kinds are stored in Bits (I32/U32 in the low 32 bits, I64/U64 in
// all 64) to keep the struct flat instead of reaching for an interface,
// matching the "boxed operand" fallback spec.md §9 describes as the
// exception rather than the rule: Obj is used only for the heap-backed
// kinds (STRING, ARRAY, STRUCT, ENUM, FUNCTION). Closures and iterators
// have no Kind of their own (ast.Kind only tags what the type checker
// reasons about); both travel as Kind FUNCTION / ANY respectively, and
// dispatchCall in lang/runtime tells them apart by Obj's concrete type.
type Value struct {
	Kind ast.Kind
	Bits uint64
	Obj  any
}

func NewNil() Value   { return Value{Kind: ast.VOID} }
func NewBool(b bool) Value {
	v := Value{Kind: ast.BOOL}
	if b {
		v.Bits = 1
	}
	return v
}
func NewI32(n int32) Value { return Value{Kind: ast.I32, Bits: uint64(uint32(n))} }
func NewI64(n int64) Value { return Value{Kind: ast.I64, Bits: uint64(n)} }
func NewU32(n uint32) Value { return Value{Kind: ast.U32, Bits: uint64(n)} }
func NewU64(n uint64) Value { return Value{Kind: ast.U64, Bits: n} }
func NewF64(f float64) Value { return Value{Kind: ast.F64, Bits: math.Float64bits(f)} }
func NewString(s string) Value { return Value{Kind: ast.STRING, Obj: s} }

func (v Value) Bool() bool     { return v.Bits != 0 }
func (v Value) I32() int32     { return int32(uint32(v.Bits)) }
func (v Value) I64() int64     { return int64(v.Bits) }
func (v Value) U32() uint32    { return uint32(v.Bits) }
func (v Value) U64() uint64    { return v.Bits }
func (v Value) F64() float64   { return math.Float64frombits(v.Bits) }
func (v Value) Str() string    { s, _ := v.Obj.(string); return s }

// Array, Enum, Function, and Closure are the heap-backed Obj payloads for
// their respective Kinds. Struct values also use Array, because spec.md §9 represents structs as boxed arrays: field
// access compiles to ARRAY_GET at the struct's declared field index.
type Array struct {
	Elems []Value
}

// Enum is the runtime payload of an ENUM_NEW_R result: a tag identifying
// which declared variant this value holds, plus its payload values in
// declared order.
type Enum struct {
	TypeName string
	Variant  int
	Payload  []Value
}

// Function is the constant-pool entry a LOAD_CONST for a function value
// resolves to: an index into the owning module's FunctionTable, not the
// function body itself (spec.md §4.10 step 10: "a LOAD_CONST ... that
// loads the function's integer index").
type Function struct {
	Name  string
	Index int
}

// Closure pairs a Function index with its captured upvalue cells.
type Closure struct {
	FuncIndex int
	Upvalues  []*Value
}

// Iterator is the runtime state behind GET_ITER_R/ITER_NEXT_R.
type Iterator struct {
	Values []Value
	Pos    int
}

func (it *Iterator) Next() (Value, bool) {
	if it.Pos >= len(it.Values) {
		return Value{}, false
	}
	v := it.Values[it.Pos]
	it.Pos++
	return v, true
}

// Equal implements the constant pool's dedup contract (spec.md §4.2):
// numeric bit-pattern equality (so +0.0 and -0.0 are distinct constants,
// matching the source's bit-pattern rule), and value equality for
// strings (Go strings compare by content, which is the intern-friendly
// equivalent of the source's pointer-identity rule once interned).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ast.STRING:
		return v.Str() == o.Str()
	default:
		return v.Bits == o.Bits
	}
}

func (v Value) String() string {
	switch v.Kind {
	case ast.VOID:
		return "nil"
	case ast.BOOL:
		if v.Bool() {
			return "true"
		}
		return "false"
	case ast.I32:
		return strconv.FormatInt(int64(v.I32()), 10)
	case ast.I64:
		return strconv.FormatInt(v.I64(), 10)
	case ast.U32:
		return strconv.FormatUint(uint64(v.U32()), 10)
	case ast.U64:
		return strconv.FormatUint(v.U64(), 10)
	case ast.F64:
		return strconv.FormatFloat(v.F64(), 'g', -1, 64)
	case ast.STRING:
		return v.Str()
	default:
		return v.Kind.String()
	}
}
