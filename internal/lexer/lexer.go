package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xirelogy/go-pseudo/internal/token"
	"github.com/xirelogy/go-pseudo/internal/value"
)

// Error is a lexical error at a source position.
type Error struct {
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Pos.Line, e.Pos.Column)
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithCase selects how keywords are recognised.
func WithCase(c token.CaseMode) Option {
	return func(l *Lexer) {
		l.keywordCase = c
	}
}

// Lexer converts source text into a stream of tokens.
type Lexer struct {
	input       string
	pos         int  // current position in bytes
	readPos     int  // next read position
	ch          byte // current char
	line        int
	column      int
	keywordCase token.CaseMode
}

// New creates a lexer for the provided source text.
func New(input string, opts ...Option) *Lexer {
	l := &Lexer{
		input:  strings.ReplaceAll(input, "\r", ""),
		line:   1,
		column: 0,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.readChar()
	return l
}

// Tokenize lexes the whole input. The result always ends with an EOF token.
func Tokenize(input string, opts ...Option) ([]token.Token, error) {
	l := New(input, opts...)
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() (token.Token, error) {
	for {
		l.skipWhitespace()

		if l.ch == 0 && l.pos >= len(l.input) {
			return l.makeToken(token.EOF, ""), nil
		}

		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}

		switch {
		case isLetter(l.ch):
			return l.readWord(), nil
		case isDigit(l.ch):
			return l.readNumber()
		case l.ch == '"':
			return l.readString()
		case l.ch == '\'':
			return l.readCharLiteral()
		}

		if t, ok := twoCharSymbols[string(l.ch)+string(l.peekChar())]; ok {
			tok := l.makeToken(t, string(l.ch)+string(l.peekChar()))
			l.readChar()
			l.readChar()
			return tok, nil
		}
		if t, ok := oneCharSymbols[l.ch]; ok {
			lit := string(l.ch)
			if l.ch == '\n' {
				lit = ""
			}
			tok := l.makeToken(t, lit)
			l.readChar()
			return tok, nil
		}
		return token.Token{}, l.errorf("invalid character %q", l.ch)
	}
}

var twoCharSymbols = map[string]token.Type{
	"<-": token.Assign,
	"<=": token.LessEqual,
	"<>": token.NotEqual,
	">=": token.GreaterEqual,
}

var oneCharSymbols = map[byte]token.Type{
	'(':  token.LParen,
	')':  token.RParen,
	'+':  token.Plus,
	'-':  token.Minus,
	'*':  token.Star,
	'/':  token.Slash,
	'&':  token.Ampersand,
	'<':  token.Less,
	'=':  token.Equal,
	'>':  token.Greater,
	'[':  token.LBracket,
	']':  token.RBracket,
	'^':  token.Caret,
	':':  token.Colon,
	',':  token.Comma,
	'.':  token.Period,
	'\n': token.Newline,
}

func (l *Lexer) makeToken(t token.Type, lit string) token.Token {
	return token.Token{
		Type:    t,
		Literal: lit,
		Pos: token.Position{
			Offset: l.pos,
			Line:   l.line,
			Column: l.column,
		},
	}
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Pos:     token.Position{Offset: l.pos, Line: l.line, Column: l.column},
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.pos < len(l.input) {
		l.readChar()
	}
}

func (l *Lexer) readWord() token.Token {
	tok := l.makeToken(token.Ident, "")
	var sb strings.Builder
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		sb.WriteByte(l.ch)
		l.readChar()
	}
	tok.Literal = sb.String()
	tok.Type = token.LookupIdent(tok.Literal, l.keywordCase)
	if tok.Type == token.Boolean {
		tok.Value = value.Boolean(strings.EqualFold(tok.Literal, "TRUE"))
	}
	return tok
}

func (l *Lexer) readNumber() (token.Token, error) {
	tok := l.makeToken(token.Integer, "")
	var sb strings.Builder
	seenDot := false
	for isDigit(l.ch) || (l.ch == '.' && !seenDot) {
		if l.ch == '.' {
			seenDot = true
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	lit := sb.String()
	if !seenDot && l.ch == '/' && l.isDateTail() {
		for i := 0; i < 2; i++ {
			sb.WriteByte(l.ch) // '/'
			l.readChar()
			for isDigit(l.ch) {
				sb.WriteByte(l.ch)
				l.readChar()
			}
		}
		tok.Type = token.Date
		tok.Literal = sb.String()
		tok.Value = value.String(tok.Literal)
		return tok, nil
	}
	tok.Literal = lit
	if seenDot {
		f, _ := strconv.ParseFloat(strings.TrimSuffix(lit, "."), 64)
		tok.Type = token.Real
		tok.Value = value.Real(f)
		return tok, nil
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return token.Token{}, &Error{Message: fmt.Sprintf("integer literal %s is out of range", lit), Pos: tok.Pos}
	}
	tok.Value = value.Integer(n)
	return tok, nil
}

// isDateTail reports whether the input at the cursor reads "/d+/d+".
func (l *Lexer) isDateTail() bool {
	i := l.pos
	for part := 0; part < 2; part++ {
		if i >= len(l.input) || l.input[i] != '/' {
			return false
		}
		i++
		if i >= len(l.input) || !isDigit(l.input[i]) {
			return false
		}
		for i < len(l.input) && isDigit(l.input[i]) {
			i++
		}
	}
	return true
}

func (l *Lexer) readString() (token.Token, error) {
	tok := l.makeToken(token.String, "")
	var sb strings.Builder
	for {
		l.readChar()
		if l.ch == 0 && l.pos >= len(l.input) {
			return token.Token{}, &Error{Message: "unterminated string", Pos: tok.Pos}
		}
		if l.ch == '"' {
			l.readChar()
			break
		}
		if l.ch == '\\' {
			l.readChar()
			c, ok := escape(l.ch)
			if !ok {
				return token.Token{}, l.errorf("invalid escape sequence '\\%c'", l.ch)
			}
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte(l.ch)
	}
	tok.Literal = sb.String()
	tok.Value = value.String(tok.Literal)
	return tok, nil
}

func (l *Lexer) readCharLiteral() (token.Token, error) {
	tok := l.makeToken(token.Char, "")
	l.readChar() // opening apostrophe
	if l.pos >= len(l.input) {
		return token.Token{}, &Error{Message: "unterminated character literal", Pos: tok.Pos}
	}
	c := l.ch
	switch c {
	case '\'':
		return token.Token{}, &Error{Message: "empty character literal", Pos: tok.Pos}
	case '\\':
		l.readChar()
		esc, ok := escape(l.ch)
		if !ok {
			return token.Token{}, l.errorf("invalid escape sequence '\\%c'", l.ch)
		}
		c = esc
	}
	l.readChar()
	if l.ch != '\'' {
		return token.Token{}, &Error{Message: "character literal must contain exactly one character", Pos: tok.Pos}
	}
	l.readChar()
	tok.Literal = string(c)
	tok.Value = value.Char(c)
	return tok, nil
}

func escape(ch byte) (byte, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case '\'', '"', '\\':
		return ch, true
	default:
		return 0, false
	}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPos >= len(l.input) {
		l.pos = len(l.input)
		l.ch = 0
		l.column++
		return
	}

	l.ch = l.input[l.readPos]
	l.pos = l.readPos
	l.readPos++
	l.column++
}
