package ast

// ExprStmt is an expression evaluated for its side effect.
type ExprStmt struct {
	BaseStmt
	X Expr
}

// VarDeclStmt is `let`/`mut` name = init (spec.md §4.6 Variable declaration).
type VarDeclStmt struct {
	BaseStmt
	Name    string
	Mutable bool
	Public  bool
	Type    *Type // declared or inferred
	Init    Expr
}

// AssignKind distinguishes the three assignment target shapes spec.md
// §4.6 names.
type AssignKind int

const (
	AssignSimple AssignKind = iota
	AssignIndex
	AssignMember
)

// AssignStmt is `target = value`.
type AssignStmt struct {
	BaseStmt
	Kind AssignKind

	// AssignSimple
	Name string

	// AssignIndex
	Container Expr
	Index     Expr

	// AssignMember
	Object     Expr
	FieldName  string
	FieldIndex int

	Value Expr

	// IncFastPath is set by lang/typecheck when this is exactly `x = x + 1`
	// with x: i32, enabling codegen's OP_INC_I32 fast path (spec.md §4.6).
	IncFastPath bool
}

// PrintStmt is `print(a, b, ...)`.
type PrintStmt struct {
	BaseStmt
	Args []Expr
}

// IfStmt is `if cond: then else: else`.
type IfStmt struct {
	BaseStmt
	Cond Expr
	Then *Block
	Else *Block // nil if no else branch
}

// WhileStmt is `while cond: body`.
type WhileStmt struct {
	BaseStmt
	Cond Expr
	Body *Block
}

// StepSign classifies a for-range step expression so the lowerer can pick
// the fused fast path or the sign-aware comparison (spec.md §4.9).
type StepSign int

const (
	StepUnknown StepSign = iota
	StepPositive
	StepNegative
)

// ForRangeStmt is `for x in start..end` / `start..=end`, with optional step.
type ForRangeStmt struct {
	BaseStmt
	Var        string
	Start, End Expr
	Inclusive  bool
	Step       Expr // nil means implicit +1
	StepSign   StepSign
	Body       *Block
}

// ForIterStmt is `for x in iterable`.
type ForIterStmt struct {
	BaseStmt
	Var  string
	Iter Expr
	Body *Block
}

// TryStmt is `try: body catch e: handler`.
type TryStmt struct {
	BaseStmt
	Body       *Block
	CatchVar   string // empty if no catch variable bound
	CatchBlock *Block // nil if no catch clause
}

// ThrowStmt is `throw expr`.
type ThrowStmt struct {
	BaseStmt
	Value Expr
}

// ReturnStmt is `return` / `return expr`.
type ReturnStmt struct {
	BaseStmt
	Value Expr // nil for bare return
}

// BreakStmt / ContinueStmt are loop control statements (spec.md §4.7).
type BreakStmt struct{ BaseStmt }
type ContinueStmt struct{ BaseStmt }

// ImportSymbol is one entry of a `use mod.{a, b as c}` clause.
type ImportSymbol struct {
	Name  string
	Alias string // == Name if no `as` clause
}

// ImportStmt is `use module` or `use module.{sym, sym as alias}`.
type ImportStmt struct {
	BaseStmt
	Module  string
	All     bool // `use module` with no braces: binds module as a namespace resolved on `module.symbol` access; no export is imported individually
	Symbols []ImportSymbol
}

// Param is one function parameter.
type Param struct {
	Name string
	Type *Type
}

// FuncDeclStmt is `fn name(params) -> ret: body`, also used for impl-block
// methods (spec.md §4.6 Function, §4.10 Function compiler).
type FuncDeclStmt struct {
	BaseStmt
	Name       string
	Public     bool
	Params     []Param
	Ret        *Type
	Body       *Block
	Receiver   string // non-empty: struct this is a method of
	IsInstance bool   // true: method takes an implicit `self` first param
}

// StructDeclStmt declares a struct type (spec.md §4.6 Struct/enum
// declaration).
type StructDeclStmt struct {
	BaseStmt
	Name   string
	Public bool
	Fields []StructField
}

// EnumDeclStmt declares an enum type.
type EnumDeclStmt struct {
	BaseStmt
	Name     string
	Public   bool
	Variants []EnumVariant
}

// ImplStmt is `impl Struct: methods...` (spec.md §4.6 Impl block).
type ImplStmt struct {
	BaseStmt
	StructName string
	Methods    []*FuncDeclStmt
}

// ensure every *Stmt type satisfies Stmt via BaseStmt embedding, and that
// Span() is reachable.
var (
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*VarDeclStmt)(nil)
	_ Stmt = (*AssignStmt)(nil)
	_ Stmt = (*PrintStmt)(nil)
	_ Stmt = (*IfStmt)(nil)
	_ Stmt = (*WhileStmt)(nil)
	_ Stmt = (*ForRangeStmt)(nil)
	_ Stmt = (*ForIterStmt)(nil)
	_ Stmt = (*TryStmt)(nil)
	_ Stmt = (*ThrowStmt)(nil)
	_ Stmt = (*ReturnStmt)(nil)
	_ Stmt = (*BreakStmt)(nil)
	_ Stmt = (*ContinueStmt)(nil)
	_ Stmt = (*ImportStmt)(nil)
	_ Stmt = (*FuncDeclStmt)(nil)
	_ Stmt = (*StructDeclStmt)(nil)
	_ Stmt = (*EnumDeclStmt)(nil)
	_ Stmt = (*ImplStmt)(nil)

	_ Expr = (*LiteralExpr)(nil)
	_ Expr = (*IdentExpr)(nil)
	_ Expr = (*ArrayLitExpr)(nil)
	_ Expr = (*ArrayFillExpr)(nil)
	_ Expr = (*StructLitExpr)(nil)
	_ Expr = (*EnumLitExpr)(nil)
	_ Expr = (*IndexExpr)(nil)
	_ Expr = (*SliceExpr)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*UnaryExpr)(nil)
	_ Expr = (*CastExpr)(nil)
	_ Expr = (*MemberExpr)(nil)
	_ Expr = (*CallExpr)(nil)
	_ Expr = (*MatchExpr)(nil)
)
