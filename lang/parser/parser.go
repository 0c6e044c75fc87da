// Package parser is a stand-in recursive-descent parser for Orus surface
// syntax. spec.md scopes the lexer/parser out as external collaborators
// referenced only through the typed-AST contract lang/codegen consumes;
// this package exists to produce real *ast.File fixtures for tests and the
// CLI, not as a complete implementation of Orus's grammar. Structure
// (advance/expect/panic-recover error model, precedence-climbing binary
// expressions) is grounded on the teacher's lang/parser package.
package parser

import (
	"context"
	"fmt"
	gotoken "go/token"
	"os"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/scanner"
	"github.com/mna/orus/lang/token"
)

// ParseFile parses a single source file into an *ast.File. The error, if
// non-nil, is a scanner.ErrorList.
func ParseFile(filename string, src []byte) (*ast.File, error) {
	var p parser
	p.init(filename, src)
	block := p.parseBlockNoBraces(token.EOF)
	return &ast.File{Name: filename, Block: block}, p.errs.Err()
}

// ParseFiles parses each of files in turn, stopping early if ctx is
// canceled between files, and returns one *ast.File per input file plus
// the combined parse errors across all of them (grounded on the
// teacher's own ParseFiles).
func ParseFiles(ctx context.Context, files ...string) ([]*ast.File, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var el scanner.ErrorList
	out := make([]*ast.File, 0, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			el.Add(gotoken.Position{Filename: name}, err.Error())
			break
		}
		src, err := os.ReadFile(name)
		if err != nil {
			el.Add(gotoken.Position{Filename: name}, err.Error())
			continue
		}
		f, err := ParseFile(name, src)
		out = append(out, f)
		if err != nil {
			if fel, ok := err.(scanner.ErrorList); ok {
				el = append(el, fel...)
			} else {
				el.Add(gotoken.Position{Filename: name}, err.Error())
			}
		}
	}
	el.Sort()
	return out, el.Err()
}

func goPosition(f *token.File, offset int) gotoken.Position {
	lp := f.Position(offset)
	return gotoken.Position{Filename: lp.Filename, Line: lp.Line, Column: lp.Col}
}

var errPanicMode = fmt.Errorf("parser: panic mode")

type parser struct {
	file *token.File
	scan scanner.Scanner
	errs scanner.ErrorList

	tok token.Token
	val scanner.TokenAndValue

	prevEndPos token.Pos

	// allowStructLit is false while parsing an if/while/for/match condition,
	// so `Name {` there opens a block rather than a struct literal.
	allowStructLit bool
}

func (p *parser) init(filename string, src []byte) {
	p.file = token.NewFile(filename, len(src))
	p.errs = nil
	p.allowStructLit = true
	p.scan.Init(p.file, src, func(offset int, msg string) {
		p.errs.Add(goPosition(p.file, offset), msg)
	})
	p.advance()
}

func (p *parser) advance() {
	if p.file != nil {
		p.prevEndPos = p.pos()
	}
	p.val = p.scan.Scan()
	p.tok = p.val.Tok
}

func (p *parser) pos() token.Pos {
	lp := p.file.Position(p.val.Pos)
	return token.MakePos(lp.Line, lp.Col)
}

// prevEnd returns the position just after the most recently consumed
// token, used as a node's End span.
func (p *parser) prevEnd() token.Pos { return p.prevEndPos }

func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos()
	if p.tok != tok {
		p.errorExpected(tok)
		panic(errPanicMode)
	}
	p.advance()
	return pos
}

func (p *parser) accept(tok token.Token) bool {
	if p.tok == tok {
		p.advance()
		return true
	}
	return false
}

func (p *parser) error(msg string) {
	p.errs.Add(goPosition(p.file, p.val.Pos), msg)
}

func (p *parser) errorExpected(want token.Token) {
	p.error(fmt.Sprintf("expected %s, found %s", want, p.tok))
}

func (p *parser) expectIdent() string {
	if p.tok != token.IDENT {
		p.errorExpected(token.IDENT)
		panic(errPanicMode)
	}
	lit := p.val.Lit
	p.advance()
	return lit
}

// parseBlockNoBraces parses statements until the given terminator token
// (used both for the top-level file and for brace-delimited nested blocks,
// where the terminator is RBRACE).
func (p *parser) parseBlockNoBraces(term token.Token) *ast.Block {
	blk := &ast.Block{}
	for p.tok != term {
		s := p.parseStmtRecover()
		if s != nil {
			blk.Stmts = append(blk.Stmts, s)
		}
	}
	return blk
}

func (p *parser) parseBraceBlock() *ast.Block {
	start := p.expect(token.LBRACE)
	blk := p.parseBlockNoBraces(token.RBRACE)
	end := p.expect(token.RBRACE)
	blk.Start, blk.End = start, end
	return blk
}

// parseStmtRecover parses one statement, recovering to the next statement
// boundary on a parse error so a single mistake doesn't abort the whole
// file (mirrors the teacher's panic/recover-at-statement-level model).
func (p *parser) parseStmtRecover() (s ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			p.syncToStmtBoundary()
			s = nil
		}
	}()
	return p.parseStmt()
}

func (p *parser) syncToStmtBoundary() {
	for p.tok != token.EOF && p.tok != token.SEMI && p.tok != token.RBRACE {
		p.advance()
	}
	if p.tok == token.SEMI {
		p.advance()
	}
}
