package parser

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

func (p *parser) parseStmt() ast.Stmt {
	start := p.pos()
	switch p.tok {
	case token.LET, token.MUT:
		return p.parseVarDecl(start, false)
	case token.PUB:
		return p.parsePubDecl(start)
	case token.FN:
		return p.parseFuncDecl(start, false, false)
	case token.STRUCT:
		return p.parseStructDecl(start, false)
	case token.ENUM:
		return p.parseEnumDecl(start, false)
	case token.IMPL:
		return p.parseImplDecl(start)
	case token.USE:
		return p.parseImportStmt(start)
	case token.IF:
		return p.parseIfStmt(start)
	case token.WHILE:
		return p.parseWhileStmt(start)
	case token.FOR:
		return p.parseForStmt(start)
	case token.TRY:
		return p.parseTryStmt(start)
	case token.THROW:
		p.advance()
		v := p.parseExpr()
		p.accept(token.SEMI)
		return &ast.ThrowStmt{BaseStmt: spanStmt(start, p.prevEnd()), Value: v}
	case token.PRINT:
		return p.parsePrintStmt(start)
	case token.RETURN:
		p.advance()
		var v ast.Expr
		if p.tok != token.SEMI && p.tok != token.RBRACE {
			v = p.parseExpr()
		}
		p.accept(token.SEMI)
		return &ast.ReturnStmt{BaseStmt: spanStmt(start, p.prevEnd()), Value: v}
	case token.BREAK:
		p.advance()
		p.accept(token.SEMI)
		return &ast.BreakStmt{BaseStmt: spanStmt(start, p.prevEnd())}
	case token.CONTINUE:
		p.advance()
		p.accept(token.SEMI)
		return &ast.ContinueStmt{BaseStmt: spanStmt(start, p.prevEnd())}
	case token.SEMI:
		p.advance()
		return nil
	default:
		return p.parseSimpleStmt(start)
	}
}

func (p *parser) parsePubDecl(start token.Pos) ast.Stmt {
	p.advance() // 'pub'
	switch p.tok {
	case token.FN:
		return p.parseFuncDecl(start, true, false)
	case token.STRUCT:
		return p.parseStructDecl(start, true)
	case token.ENUM:
		return p.parseEnumDecl(start, true)
	case token.LET, token.MUT:
		return p.parseVarDecl(start, true)
	}
	p.error("expected fn, struct, enum, let or mut after pub")
	panic(errPanicMode)
}

func (p *parser) parseVarDecl(start token.Pos, public bool) ast.Stmt {
	mutable := p.tok == token.MUT
	p.advance() // 'let' or 'mut'
	name := p.expectIdent()
	var typ *ast.Type
	if p.accept(token.COLON) {
		typ = p.parseType()
	}
	p.expect(token.ASSIGN)
	init := p.parseExpr()
	p.accept(token.SEMI)
	return &ast.VarDeclStmt{
		BaseStmt: spanStmt(start, p.prevEnd()),
		Name:     name,
		Mutable:  mutable,
		Public:   public,
		Type:     typ,
		Init:     init,
	}
}

func (p *parser) parseParams() []ast.Param {
	p.expect(token.LPAREN)
	var params []ast.Param
	for p.tok != token.RPAREN {
		name := p.expectIdent()
		p.expect(token.COLON)
		typ := p.parseType()
		params = append(params, ast.Param{Name: name, Type: typ})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return params
}

func (p *parser) parseFuncDecl(start token.Pos, public, isMethod bool) *ast.FuncDeclStmt {
	p.expect(token.FN)
	name := p.expectIdent()
	params := p.parseParams()

	isInstance := false
	if isMethod && len(params) > 0 && params[0].Name == "self" {
		isInstance = true
		params = params[1:]
	}

	var ret *ast.Type
	if p.accept(token.ARROW) {
		ret = p.parseType()
	}
	body := p.parseBraceBlock()
	return &ast.FuncDeclStmt{
		BaseStmt:   spanStmt(start, p.prevEnd()),
		Name:       name,
		Public:     public,
		Params:     params,
		Ret:        ret,
		Body:       body,
		IsInstance: isInstance,
	}
}

func (p *parser) parseStructDecl(start token.Pos, public bool) ast.Stmt {
	p.expect(token.STRUCT)
	name := p.expectIdent()
	p.expect(token.LBRACE)
	var fields []ast.StructField
	for p.tok != token.RBRACE {
		fname := p.expectIdent()
		p.expect(token.COLON)
		ftyp := p.parseType()
		fields = append(fields, ast.StructField{Name: fname, Type: ftyp})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.StructDeclStmt{BaseStmt: spanStmt(start, p.prevEnd()), Name: name, Public: public, Fields: fields}
}

func (p *parser) parseEnumDecl(start token.Pos, public bool) ast.Stmt {
	p.expect(token.ENUM)
	name := p.expectIdent()
	p.expect(token.LBRACE)
	var variants []ast.EnumVariant
	for p.tok != token.RBRACE {
		vname := p.expectIdent()
		var payload []*ast.Type
		if p.accept(token.LPAREN) {
			for p.tok != token.RPAREN {
				payload = append(payload, p.parseType())
				if !p.accept(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN)
		}
		variants = append(variants, ast.EnumVariant{Name: vname, Index: len(variants), Payload: payload})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	return &ast.EnumDeclStmt{BaseStmt: spanStmt(start, p.prevEnd()), Name: name, Public: public, Variants: variants}
}

func (p *parser) parseImplDecl(start token.Pos) ast.Stmt {
	p.expect(token.IMPL)
	name := p.expectIdent()
	p.expect(token.LBRACE)
	var methods []*ast.FuncDeclStmt
	for p.tok != token.RBRACE {
		mstart := p.pos()
		public := p.accept(token.PUB)
		m := p.parseFuncDecl(mstart, public, true)
		m.Receiver = name
		methods = append(methods, m)
	}
	p.expect(token.RBRACE)
	return &ast.ImplStmt{BaseStmt: spanStmt(start, p.prevEnd()), StructName: name, Methods: methods}
}

func (p *parser) parseImportStmt(start token.Pos) ast.Stmt {
	p.expect(token.USE)
	module := p.expectIdent()
	for p.accept(token.DOT) {
		if p.tok == token.LBRACE {
			break
		}
		module += "." + p.expectIdent()
	}
	stmt := &ast.ImportStmt{Module: module}
	if p.accept(token.LBRACE) {
		for p.tok != token.RBRACE {
			sym := p.expectIdent()
			alias := sym
			if p.accept(token.AS) {
				alias = p.expectIdent()
			}
			stmt.Symbols = append(stmt.Symbols, ast.ImportSymbol{Name: sym, Alias: alias})
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RBRACE)
	} else {
		stmt.All = true
	}
	p.accept(token.SEMI)
	stmt.BaseStmt = spanStmt(start, p.prevEnd())
	return stmt
}

func (p *parser) parseIfStmt(start token.Pos) ast.Stmt {
	p.expect(token.IF)
	cond := p.parseExprNoStructLit()
	then := p.parseBraceBlock()
	var els *ast.Block
	if p.accept(token.ELSE) {
		if p.tok == token.IF {
			elseStart := p.pos()
			els = &ast.Block{Stmts: []ast.Stmt{p.parseIfStmt(elseStart)}}
		} else {
			els = p.parseBraceBlock()
		}
	}
	return &ast.IfStmt{BaseStmt: spanStmt(start, p.prevEnd()), Cond: cond, Then: then, Else: els}
}

func (p *parser) parseWhileStmt(start token.Pos) ast.Stmt {
	p.expect(token.WHILE)
	cond := p.parseExprNoStructLit()
	body := p.parseBraceBlock()
	return &ast.WhileStmt{BaseStmt: spanStmt(start, p.prevEnd()), Cond: cond, Body: body}
}

func (p *parser) parseForStmt(start token.Pos) ast.Stmt {
	p.expect(token.FOR)
	name := p.expectIdent()
	p.expect(token.IN)

	saved := p.allowStructLit
	p.allowStructLit = false
	first := p.parseExpr()

	if p.tok == token.DOTDOT || p.tok == token.DOTDOTEQ {
		inclusive := p.tok == token.DOTDOTEQ
		p.advance()
		end := p.parseExpr()
		var step ast.Expr
		if p.accept(token.COLON) {
			step = p.parseExpr()
		}
		p.allowStructLit = saved
		body := p.parseBraceBlock()
		return &ast.ForRangeStmt{
			BaseStmt:  spanStmt(start, p.prevEnd()),
			Var:       name,
			Start:     first,
			End:       end,
			Inclusive: inclusive,
			Step:      step,
		}
	}

	p.allowStructLit = saved
	body := p.parseBraceBlock()
	return &ast.ForIterStmt{BaseStmt: spanStmt(start, p.prevEnd()), Var: name, Iter: first, Body: body}
}

func (p *parser) parseTryStmt(start token.Pos) ast.Stmt {
	p.expect(token.TRY)
	body := p.parseBraceBlock()
	var catchVar string
	var catchBlock *ast.Block
	if p.accept(token.CATCH) {
		catchVar = p.expectIdent()
		catchBlock = p.parseBraceBlock()
	}
	return &ast.TryStmt{BaseStmt: spanStmt(start, p.prevEnd()), Body: body, CatchVar: catchVar, CatchBlock: catchBlock}
}

func (p *parser) parsePrintStmt(start token.Pos) ast.Stmt {
	p.expect(token.PRINT)
	args := p.parseArgs()
	p.accept(token.SEMI)
	return &ast.PrintStmt{BaseStmt: spanStmt(start, p.prevEnd()), Args: args}
}

// parseSimpleStmt handles bare expressions and the three assignment target
// shapes, disambiguated after parsing the left-hand expression.
func (p *parser) parseSimpleStmt(start token.Pos) ast.Stmt {
	lhs := p.parseExpr()
	if p.tok != token.ASSIGN {
		p.accept(token.SEMI)
		return &ast.ExprStmt{BaseStmt: spanStmt(start, p.prevEnd()), X: lhs}
	}
	p.advance() // '='
	value := p.parseExpr()
	p.accept(token.SEMI)

	switch t := lhs.(type) {
	case *ast.IdentExpr:
		return &ast.AssignStmt{BaseStmt: spanStmt(start, p.prevEnd()), Kind: ast.AssignSimple, Name: t.Name, Value: value}
	case *ast.IndexExpr:
		return &ast.AssignStmt{BaseStmt: spanStmt(start, p.prevEnd()), Kind: ast.AssignIndex, Container: t.Container, Index: t.Index, Value: value}
	case *ast.MemberExpr:
		return &ast.AssignStmt{BaseStmt: spanStmt(start, p.prevEnd()), Kind: ast.AssignMember, Object: t.Object, FieldName: t.Name, Value: value}
	default:
		p.error("invalid assignment target")
		panic(errPanicMode)
	}
}
