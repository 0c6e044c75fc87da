// Package scanner is a stand-in for the real Orus lexer. spec.md marks the
// lexer/parser as external collaborators referenced only through their
// contracts; this package exists so lang/codegen has real typed-AST
// fixtures to compile in tests and via the CLI, not as a complete
// implementation of Orus's surface grammar.
package scanner

import (
	"context"
	"go/scanner"
	gotoken "go/token"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/mna/orus/lang/token"
)

// Error and ErrorList are aliased from go/scanner, exactly as the teacher's
// lang/scanner package does (see DESIGN.md).
type (
	Error     = scanner.Error
	ErrorList = scanner.ErrorList
)

// PrintError prints err (a single Error or an ErrorList) to w, one per
// line, exactly as the teacher's own scanner.PrintError alias does.
var PrintError = scanner.PrintError

// TokenAndValue pairs a token kind with its decoded literal value, when it
// has one (identifiers, strings, numbers).
type TokenAndValue struct {
	Tok   token.Token
	Lit   string
	Pos   int // byte offset
	Int   int64
	Float float64
}

// Scanner tokenizes a single source file.
type Scanner struct {
	file *token.File
	src  []byte
	err  func(offset int, msg string)

	off  int  // offset of ch
	roff int  // offset after ch
	ch   rune
}

// Init prepares s to scan src, recording line starts into file as it goes.
func (s *Scanner) Init(file *token.File, src []byte, errHandler func(offset int, msg string)) {
	s.file = file
	s.src = src
	s.err = errHandler
	s.off = 0
	s.roff = 0
	s.ch = ' '
	s.next()
}

func (s *Scanner) next() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.ch = -1
		return
	}
	s.off = s.roff
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
	}
	s.roff += w
	if r == '\n' {
		s.file.AddLine(s.roff)
	}
	s.ch = r
}

func (s *Scanner) error(off int, msg string) {
	if s.err != nil {
		s.err(off, msg)
	}
}

// Scan returns the next token and its value. It returns token.EOF at the
// end of input.
func (s *Scanner) Scan() TokenAndValue {
	s.skipSpaceAndComments()

	start := s.off
	ch := s.ch
	switch {
	case ch == -1:
		return TokenAndValue{Tok: token.EOF, Pos: start}
	case isLetter(ch):
		return s.scanIdent(start)
	case isDigit(ch):
		return s.scanNumber(start)
	case ch == '"':
		return s.scanString(start)
	}

	s.next()
	switch ch {
	case '(':
		return tv(token.LPAREN, start)
	case ')':
		return tv(token.RPAREN, start)
	case '{':
		return tv(token.LBRACE, start)
	case '}':
		return tv(token.RBRACE, start)
	case '[':
		return tv(token.LBRACKET, start)
	case ']':
		return tv(token.RBRACKET, start)
	case ',':
		return tv(token.COMMA, start)
	case ':':
		return tv(token.COLON, start)
	case ';':
		return tv(token.SEMI, start)
	case '.':
		if s.ch == '.' {
			s.next()
			if s.ch == '=' {
				s.next()
				return tv(token.DOTDOTEQ, start)
			}
			return tv(token.DOTDOT, start)
		}
		return tv(token.DOT, start)
	case '+':
		return tv(token.PLUS, start)
	case '-':
		if s.ch == '>' {
			s.next()
			return tv(token.ARROW, start)
		}
		return tv(token.MINUS, start)
	case '*':
		return tv(token.STAR, start)
	case '/':
		return tv(token.SLASH, start)
	case '%':
		return tv(token.PERCENT, start)
	case '=':
		if s.ch == '=' {
			s.next()
			return tv(token.EQ, start)
		}
		if s.ch == '>' {
			s.next()
			return tv(token.FATARROW, start)
		}
		return tv(token.ASSIGN, start)
	case '!':
		if s.ch == '=' {
			s.next()
			return tv(token.NEQ, start)
		}
		s.error(start, "expected '=' after '!'")
		return tv(token.ILLEGAL, start)
	case '<':
		if s.ch == '=' {
			s.next()
			return tv(token.LE, start)
		}
		return tv(token.LT, start)
	case '>':
		if s.ch == '=' {
			s.next()
			return tv(token.GE, start)
		}
		return tv(token.GT, start)
	}

	s.error(start, "unexpected character "+strconv.QuoteRune(ch))
	return tv(token.ILLEGAL, start)
}

func tv(tok token.Token, pos int) TokenAndValue { return TokenAndValue{Tok: tok, Pos: pos} }

func (s *Scanner) skipSpaceAndComments() {
	for {
		for s.ch == ' ' || s.ch == '\t' || s.ch == '\r' || s.ch == '\n' {
			s.next()
		}
		if s.ch == '/' && s.roff < len(s.src) && s.src[s.roff] == '/' {
			for s.ch != '\n' && s.ch != -1 {
				s.next()
			}
			continue
		}
		break
	}
}

func (s *Scanner) scanIdent(start int) TokenAndValue {
	for isLetter(s.ch) || isDigit(s.ch) {
		s.next()
	}
	lit := string(s.src[start:s.off])
	tok := token.Lookup(lit)
	return TokenAndValue{Tok: tok, Lit: lit, Pos: start}
}

func (s *Scanner) scanNumber(start int) TokenAndValue {
	isFloat := false
	for isDigit(s.ch) {
		s.next()
	}
	if s.ch == '.' && s.roff < len(s.src) && isDigit(rune(s.src[s.roff])) {
		isFloat = true
		s.next()
		for isDigit(s.ch) {
			s.next()
		}
	}
	lit := string(s.src[start:s.off])
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			s.error(start, "invalid float literal: "+lit)
		}
		return TokenAndValue{Tok: token.FLOAT, Lit: lit, Pos: start, Float: f}
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		s.error(start, "invalid int literal: "+lit)
	}
	return TokenAndValue{Tok: token.INT, Lit: lit, Pos: start, Int: i}
}

func (s *Scanner) scanString(start int) TokenAndValue {
	s.next() // consume opening quote
	var buf []byte
	for s.ch != '"' {
		if s.ch == -1 || s.ch == '\n' {
			s.error(start, "unterminated string literal")
			break
		}
		if s.ch == '\\' {
			s.next()
			buf = append(buf, decodeEscape(s.ch))
			s.next()
			continue
		}
		buf = utf8.AppendRune(buf, s.ch)
		s.next()
	}
	if s.ch == '"' {
		s.next()
	}
	return TokenAndValue{Tok: token.STRING, Lit: string(buf), Pos: start}
}

func decodeEscape(ch rune) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '"':
		return '"'
	case '\\':
		return '\\'
	default:
		return byte(ch)
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }

// ScanAll tokenizes the full source in one pass, collecting lexical errors
// into an ErrorList the way the teacher's ScanFiles helper does.
func ScanAll(filename string, src []byte) (*token.File, []TokenAndValue, ErrorList) {
	file := token.NewFile(filename, len(src))
	var el ErrorList
	var s Scanner
	s.Init(file, src, func(offset int, msg string) {
		p := file.Position(offset)
		el.Add(gotoken.Position{Filename: p.Filename, Line: p.Line, Column: p.Col}, msg)
	})

	var toks []TokenAndValue
	for {
		t := s.Scan()
		toks = append(toks, t)
		if t.Tok == token.EOF {
			break
		}
	}
	return file, toks, el
}

// ScanFiles tokenizes each of files in turn and returns the tokens grouped
// by file at the same index, plus any lexical errors across all of them,
// the multi-file counterpart to ScanAll the CLI's tokenize command uses
// (grounded on the teacher's own ScanFiles). ctx carries no scan-specific
// cancellation of its own (tokenizing one file is never long enough to be
// worth interrupting mid-file) but is accepted for symmetry with
// parser.ParseFiles, which does check it between files.
func ScanFiles(ctx context.Context, files ...string) (*token.FileSet, [][]TokenAndValue, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	var el ErrorList
	fs := token.NewFileSet()
	tokensByFile := make([][]TokenAndValue, len(files))
	for i, name := range files {
		src, err := os.ReadFile(name)
		if err != nil {
			el.Add(gotoken.Position{Filename: name}, err.Error())
			continue
		}
		file := fs.AddFile(name, len(src))
		var s Scanner
		s.Init(file, src, func(offset int, msg string) {
			p := file.Position(offset)
			el.Add(gotoken.Position{Filename: p.Filename, Line: p.Line, Column: p.Col}, msg)
		})
		for {
			t := s.Scan()
			tokensByFile[i] = append(tokensByFile[i], t)
			if t.Tok == token.EOF {
				break
			}
		}
	}
	el.Sort()
	return fs, tokensByFile, el.Err()
}
