package lexer

import (
	"fmt"
	"iter"
	"unicode"
	"unicode/utf8"

	"github.com/xirelogy/go-lox/internal/token"
)

const eof rune = -1

// Scanner converts source text into a forward-only stream of tokens.
// Each character is consumed once; use Tokens or a new Scanner to scan
// the same source again.
type Scanner struct {
	input string
	pos   int // offset of the next unread byte
	line  int
	done  bool
}

// New creates a scanner for the provided source text.
func New(input string) *Scanner {
	return &Scanner{
		input: input,
		line:  1,
	}
}

// Tokens returns a token sequence over src. Every iteration starts a
// fresh scan.
func Tokens(src string) iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		New(src).All()(yield)
	}
}

// All drains the remaining tokens of s.
func (s *Scanner) All() iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		for {
			tok, ok := s.Next()
			if !ok || !yield(tok) {
				return
			}
		}
	}
}

// Source returns the text being scanned.
func (s *Scanner) Source() string {
	return s.input
}

// Lexeme returns the source text covered by tok.
func (s *Scanner) Lexeme(tok token.Token) string {
	return tok.Lexeme(s.input)
}

// Next returns the next token. After the EOF token has been returned,
// Next reports false forever.
func (s *Scanner) Next() (token.Token, bool) {
	if s.done {
		return token.Token{}, false
	}
	for {
		start := s.pos
		ch := s.readChar()
		if ch == eof {
			s.done = true
			return token.Token{Type: token.EOF, Line: s.line, Start: len(s.input)}, true
		}

		if isDigit(ch) {
			return s.readNumber(start), true
		}

		switch ch {
		case '(':
			return s.makeToken(token.LParen, start), true
		case ')':
			return s.makeToken(token.RParen, start), true
		case '{':
			return s.makeToken(token.LBrace, start), true
		case '}':
			return s.makeToken(token.RBrace, start), true
		case ';':
			return s.makeToken(token.Semicolon, start), true
		case ',':
			return s.makeToken(token.Comma, start), true
		case '.':
			return s.makeToken(token.Dot, start), true
		case '-':
			return s.makeToken(token.Minus, start), true
		case '+':
			return s.makeToken(token.Plus, start), true
		case '*':
			return s.makeToken(token.Star, start), true
		case '/':
			if s.peekChar() == '/' {
				s.skipLineComment()
				continue
			}
			return s.makeToken(token.Slash, start), true
		case '"':
			return s.readString(start), true
		case '!':
			return s.pair(start, token.BangEqual, token.Bang), true
		case '=':
			return s.pair(start, token.EqualEqual, token.Equal), true
		case '<':
			return s.pair(start, token.LessEqual, token.Less), true
		case '>':
			return s.pair(start, token.GreaterEqual, token.Greater), true
		case ' ', '\t', '\r':
			continue
		case '\n':
			s.line++
			continue
		}

		if isIdentLead(ch) {
			return s.readIdentifier(start), true
		}

		tok := s.makeToken(token.Illegal, start)
		tok.Message = fmt.Sprintf("unexpected character %q", ch)
		return tok, true
	}
}

func (s *Scanner) makeToken(t token.Type, start int) token.Token {
	return token.Token{
		Type:   t,
		Line:   s.line,
		Start:  start,
		Length: s.pos - start,
	}
}

// pair emits the two-character variant when the next character is '='.
func (s *Scanner) pair(start int, withEqual, single token.Type) token.Token {
	if s.peekChar() == '=' {
		s.readChar()
		return s.makeToken(withEqual, start)
	}
	return s.makeToken(single, start)
}

func (s *Scanner) skipLineComment() {
	for {
		ch := s.peekChar()
		if ch == eof || ch == '\n' {
			return
		}
		s.readChar()
	}
}

func (s *Scanner) readNumber(start int) token.Token {
	for isDigit(s.peekChar()) {
		s.readChar()
	}
	if s.peekChar() == '.' && isDigit(s.peekNext()) {
		s.readChar() // consume '.'
		for isDigit(s.peekChar()) {
			s.readChar()
		}
	}
	return s.makeToken(token.Number, start)
}

// readString scans up to the closing quote. The token excludes the quotes
// and carries the line the string ends on.
func (s *Scanner) readString(start int) token.Token {
	for {
		ch := s.readChar()
		switch ch {
		case eof:
			tok := s.makeToken(token.Illegal, start)
			tok.Message = "unterminated string"
			return tok
		case '\n':
			s.line++
		case '"':
			return token.Token{
				Type:   token.String,
				Line:   s.line,
				Start:  start + 1,
				Length: s.pos - start - 2,
			}
		}
	}
}

func (s *Scanner) readIdentifier(start int) token.Token {
	for isIdentPart(s.peekChar()) {
		s.readChar()
	}
	tok := s.makeToken(token.Identifier, start)
	tok.Type = token.LookupIdent(s.input[start:s.pos])
	return tok
}

func (s *Scanner) readChar() rune {
	if s.pos >= len(s.input) {
		return eof
	}
	ch, size := utf8.DecodeRuneInString(s.input[s.pos:])
	s.pos += size
	return ch
}

func (s *Scanner) peekChar() rune {
	if s.pos >= len(s.input) {
		return eof
	}
	ch, _ := utf8.DecodeRuneInString(s.input[s.pos:])
	return ch
}

func (s *Scanner) peekNext() rune {
	if s.pos >= len(s.input) {
		return eof
	}
	_, size := utf8.DecodeRuneInString(s.input[s.pos:])
	if s.pos+size >= len(s.input) {
		return eof
	}
	ch, _ := utf8.DecodeRuneInString(s.input[s.pos+size:])
	return ch
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentLead(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

// isIdentPart excludes '_': an underscore after the first character starts
// a new identifier.
func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch)
}
