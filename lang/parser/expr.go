package parser

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

// binopPriority is a precedence-climbing table, adapted from the teacher's
// lang/parser/expr.go binopPriority for Orus's (much smaller) operator set.
var binopPriority = map[token.Token]int{
	token.OR:  1,
	token.AND: 2,
	token.EQ: 3, token.NEQ: 3, token.LT: 3, token.LE: 3, token.GT: 3, token.GE: 3,
	token.PLUS: 4, token.MINUS: 4,
	token.STAR: 5, token.SLASH: 5, token.PERCENT: 5,
}

const unopPriority = 6

func (p *parser) parseExpr() ast.Expr { return p.parseSubExpr(0) }

func (p *parser) parseSubExpr(priority int) ast.Expr {
	var left ast.Expr
	start := p.pos()

	switch p.tok {
	case token.NOT, token.MINUS:
		op := p.tok
		p.advance()
		operand := p.parseSubExpr(unopPriority)
		left = &ast.UnaryExpr{BaseExpr: spanExpr(start, p.prevEnd()), Op: op, Operand: operand}
	default:
		left = p.parsePostfixExpr()
	}

	for {
		prio, ok := binopPriority[p.tok]
		if !ok || prio <= priority {
			break
		}
		op := p.tok
		p.advance()
		right := p.parseSubExpr(prio)
		left = &ast.BinaryExpr{BaseExpr: spanExpr(start, p.prevEnd()), Op: op, Left: left, Right: right}
	}
	return left
}

// parsePostfixExpr parses a primary expression followed by any chain of
// `.name`, `[index]`, `[lo:hi]`, `(args)`, or `as Type` suffixes.
func (p *parser) parsePostfixExpr() ast.Expr {
	start := p.pos()
	e := p.parsePrimaryExpr()

	for {
		switch p.tok {
		case token.DOT:
			p.advance()
			name := p.expectIdent()
			e = &ast.MemberExpr{BaseExpr: spanExpr(start, p.prevEnd()), Object: e, Name: name}
		case token.LBRACKET:
			p.advance()
			if p.tok == token.COLON {
				p.advance()
				hi := p.parseExprOrNil(token.RBRACKET)
				p.expect(token.RBRACKET)
				e = &ast.SliceExpr{BaseExpr: spanExpr(start, p.prevEnd()), Container: e, Hi: hi}
				continue
			}
			idx := p.parseExpr()
			if p.accept(token.COLON) {
				hi := p.parseExprOrNil(token.RBRACKET)
				p.expect(token.RBRACKET)
				e = &ast.SliceExpr{BaseExpr: spanExpr(start, p.prevEnd()), Container: e, Lo: idx, Hi: hi}
				continue
			}
			p.expect(token.RBRACKET)
			e = &ast.IndexExpr{BaseExpr: spanExpr(start, p.prevEnd()), Container: e, Index: idx}
		case token.LPAREN:
			args := p.parseArgs()
			e = &ast.CallExpr{BaseExpr: spanExpr(start, p.prevEnd()), Fn: e, Args: args}
		case token.AS:
			p.advance()
			target := p.parseType()
			e = &ast.CastExpr{BaseExpr: spanExpr(start, p.prevEnd()), Operand: e, Target: target}
		default:
			return e
		}
	}
}

func (p *parser) parseExprOrNil(stop token.Token) ast.Expr {
	if p.tok == stop {
		return nil
	}
	return p.parseExpr()
}

func (p *parser) parseArgs() []ast.Expr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	for p.tok != token.RPAREN {
		args = append(args, p.parseExpr())
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return args
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	start := p.pos()
	switch p.tok {
	case token.INT:
		v := p.val.Int
		p.advance()
		return &ast.LiteralExpr{BaseExpr: spanExpr(start, p.prevEnd()), Kind: ast.I32, Int: v}
	case token.FLOAT:
		v := p.val.Float
		p.advance()
		return &ast.LiteralExpr{BaseExpr: spanExpr(start, p.prevEnd()), Kind: ast.F64, Float: v}
	case token.STRING:
		v := p.val.Lit
		p.advance()
		return &ast.LiteralExpr{BaseExpr: spanExpr(start, p.prevEnd()), Kind: ast.STRING, Str: v}
	case token.TRUE, token.FALSE:
		v := p.tok == token.TRUE
		p.advance()
		return &ast.LiteralExpr{BaseExpr: spanExpr(start, p.prevEnd()), Kind: ast.BOOL, Bool: v}
	case token.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return e
	case token.LBRACKET:
		return p.parseArrayExpr(start)
	case token.MATCH:
		return p.parseMatchExpr(start)
	case token.IDENT:
		name := p.val.Lit
		p.advance()
		if p.tok == token.LBRACE && p.allowStructLit {
			return p.parseStructLitExpr(start, name)
		}
		return &ast.IdentExpr{BaseExpr: spanExpr(start, p.prevEnd()), Name: name}
	}
	p.error("expected expression, found " + p.tok.String())
	panic(errPanicMode)
}

func (p *parser) parseArrayExpr(start token.Pos) ast.Expr {
	p.expect(token.LBRACKET)
	if p.tok == token.RBRACKET {
		p.advance()
		return &ast.ArrayLitExpr{BaseExpr: spanExpr(start, p.prevEnd())}
	}
	first := p.parseExpr()
	if p.accept(token.SEMI) {
		count := p.expectInt()
		p.expect(token.RBRACKET)
		return &ast.ArrayFillExpr{BaseExpr: spanExpr(start, p.prevEnd()), Value: first, Count: count}
	}
	elems := []ast.Expr{first}
	for p.accept(token.COMMA) {
		if p.tok == token.RBRACKET {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	p.expect(token.RBRACKET)
	return &ast.ArrayLitExpr{BaseExpr: spanExpr(start, p.prevEnd()), Elems: elems}
}

func (p *parser) expectInt() int {
	if p.tok != token.INT {
		p.errorExpected(token.INT)
		panic(errPanicMode)
	}
	v := int(p.val.Int)
	p.advance()
	return v
}

func (p *parser) parseStructLitExpr(start token.Pos, name string) ast.Expr {
	p.expect(token.LBRACE)
	var names []string
	var values []ast.Expr
	for p.tok != token.RBRACE {
		fname := p.expectIdent()
		p.expect(token.COLON)
		names = append(names, fname)
		values = append(values, p.parseExpr())
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.StructLitExpr{
		BaseExpr:   spanExpr(start, p.prevEnd()),
		StructName: name,
		Names:      names,
		Values:     values,
	}
}

func (p *parser) parseMatchExpr(start token.Pos) ast.Expr {
	p.expect(token.MATCH)
	subj := p.parseExprNoStructLit()
	p.expect(token.LBRACE)
	var arms []ast.MatchArm
	for p.tok != token.RBRACE {
		arms = append(arms, p.parseMatchArm())
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.MatchExpr{BaseExpr: spanExpr(start, p.prevEnd()), Subject: subj, Arms: arms}
}

func (p *parser) parseMatchArm() ast.MatchArm {
	var arm ast.MatchArm
	switch {
	case p.tok == token.IDENT && p.val.Lit == "_":
		p.advance()
		arm.Wildcard = true
	case p.tok == token.INT || p.tok == token.FLOAT || p.tok == token.STRING ||
		p.tok == token.TRUE || p.tok == token.FALSE:
		lit := p.parsePrimaryExpr().(*ast.LiteralExpr)
		arm.Literal = lit
	default:
		arm.EnumName = p.expectIdent()
		p.expect(token.DOT)
		arm.EnumVariant = p.expectIdent()
		if p.accept(token.LPAREN) {
			for p.tok != token.RPAREN {
				arm.Binds = append(arm.Binds, p.expectIdent())
				if !p.accept(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN)
		}
	}
	p.expect(token.FATARROW)
	arm.Body = p.parseExpr()
	return arm
}

// parseExprNoStructLit parses an expression with struct-literal syntax
// disabled, used for conditions immediately followed by a `{` block.
func (p *parser) parseExprNoStructLit() ast.Expr {
	saved := p.allowStructLit
	p.allowStructLit = false
	e := p.parseExpr()
	p.allowStructLit = saved
	return e
}

func spanExpr(start, end token.Pos) ast.BaseExpr {
	return ast.BaseExpr{BaseNode: ast.BaseNode{Start: start, End: end}}
}

func spanStmt(start, end token.Pos) ast.BaseStmt {
	return ast.BaseStmt{BaseNode: ast.BaseNode{Start: start, End: end}}
}
