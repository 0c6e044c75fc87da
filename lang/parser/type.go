package parser

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

var primitiveKinds = map[string]ast.Kind{
	"i32": ast.I32, "i64": ast.I64, "u32": ast.U32, "u64": ast.U64,
	"f64": ast.F64, "bool": ast.BOOL, "string": ast.STRING, "void": ast.VOID,
	"any": ast.ANY,
}

// parseType parses a type annotation: a primitive name, an array type
// `[T]`, or a bare struct/enum name (resolved to a named type placeholder;
// lang/typecheck fills in Fields/Variant for declared names).
func (p *parser) parseType() *ast.Type {
	if p.accept(token.LBRACKET) {
		elem := p.parseType()
		p.expect(token.RBRACKET)
		return ast.ArrayOf(elem)
	}
	name := p.expectIdent()
	if k, ok := primitiveKinds[name]; ok {
		return ast.Simple(k)
	}
	return &ast.Type{Kind: ast.INSTANCE, Name: name}
}
