package ast

import "github.com/mna/orus/lang/token"

// LiteralExpr is an int/float/bool/string constant.
type LiteralExpr struct {
	BaseExpr
	Kind  Kind // I32, I64, U32, U64, F64, BOOL, STRING
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// IdentExpr references a name. lang/typecheck fills in its ResolvedType;
// lang/codegen resolves the name itself against its own scope stack when
// it lowers the reference (spec.md §4.5 Identifier, §4.4 C4).
type IdentExpr struct {
	BaseExpr
	Name string
}

// ArrayLitExpr is `[e1, e2, ...]`.
type ArrayLitExpr struct {
	BaseExpr
	Elems []Expr
}

// ArrayFillExpr is `[v; n]`: value v repeated n times.
type ArrayFillExpr struct {
	BaseExpr
	Value Expr
	Count int // resolved constant count
}

// StructLitExpr is `Point{x: 1, y: 2}`. FieldOrder is precomputed by
// lang/typecheck so the lowerer can emit fields in declared order
// regardless of literal order (spec.md §4.5 Array/struct literal, §9
// "struct layout via arrays").
type StructLitExpr struct {
	BaseExpr
	StructName string
	Names      []string // literal order, parallel to Values
	Values     []Expr
	FieldOrder []int // Values[FieldOrder[i]] is the value for declared field i
}

// EnumLitExpr is `Option.Some(42)`: an enum constructor call.
type EnumLitExpr struct {
	BaseExpr
	EnumName    string
	VariantName string
	VariantIdx  int // precomputed by lang/typecheck
	Args        []Expr
}

// IndexExpr is `a[i]`.
type IndexExpr struct {
	BaseExpr
	Container Expr
	Index     Expr
}

// SliceExpr is `a[lo:hi]`, either bound may be nil (defaulted by the
// lowerer per spec.md §4.5 Array slice).
type SliceExpr struct {
	BaseExpr
	Container Expr
	Lo, Hi    Expr
}

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	BaseExpr
	Op          token.Token
	Left, Right Expr
}

// UnaryExpr is `not x` or `-x`.
type UnaryExpr struct {
	BaseExpr
	Op      token.Token
	Operand Expr
}

// CastExpr is `x as T`.
type CastExpr struct {
	BaseExpr
	Operand Expr
	Target  *Type
}

// MemberExpr is `x.name`: struct field access, module namespace member, or
// enum variant access, disambiguated by lang/typecheck via MemberKind.
type MemberExpr struct {
	BaseExpr
	Object Expr
	Name   string

	// MemberKind disambiguates what .Name means; filled by lang/typecheck.
	MemberKind MemberKind
	// FieldIndex is valid when MemberKind == FieldMember.
	FieldIndex int
	// ModuleName is valid when MemberKind == ModuleMember.
	ModuleName string
}

type MemberKind int

const (
	FieldMember MemberKind = iota
	ModuleMember
	EnumVariantMember
)

// CallExpr is a function/method/builtin call. MethodOf is non-empty when
// Fn is a method call mangled as "Struct.method" (spec.md §4.5 Call).
type CallExpr struct {
	BaseExpr
	Fn       Expr
	Args     []Expr
	MethodOf string // non-empty: struct type name for a method call
	IsMethod bool   // true: synthesize a leading `self` argument
	Builtin  string // non-empty: one of the dedicated builtin emitters
}

// MatchArm is one arm of a MatchExpr.
type MatchArm struct {
	// Literal is non-nil for a literal pattern (duplicate detection target,
	// spec.md §4.9 Match expression / §8 testable property 6).
	Literal *LiteralExpr
	// EnumVariant/EnumName are set for an enum-tag pattern.
	EnumName, EnumVariant string
	VariantIdx            int
	// Binds are the destructured payload names bound inside the arm body.
	Binds []string
	BindTypes []*Type
	// Wildcard is true for a catch-all `_` arm.
	Wildcard bool

	Body Expr
}

// MatchExpr is `match x: arm1 -> e1; arm2 -> e2; ...`.
type MatchExpr struct {
	BaseExpr
	Subject Expr
	Arms    []MatchArm
}
