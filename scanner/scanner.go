// Package scanner turns lox source text into a stream of tokens.
package scanner

import (
	"iter"
	"strconv"
	"unicode/utf8"

	"github.com/podhmo/lox/token"
)

// ErrorHandler is called for every scan error. Scanning continues afterwards.
type ErrorHandler func(line int, msg string)

// Scanner produces tokens on demand. A Scanner is single use: once it has
// returned EOF it keeps returning EOF, and a fresh Scanner is needed to scan
// the same text again.
type Scanner struct {
	src     string
	start   int
	current int
	line    int
	err     ErrorHandler
}

// New creates a Scanner over src. errh may be nil.
func New(src string, errh ErrorHandler) *Scanner {
	return &Scanner{src: src, line: 1, err: errh}
}

// Next scans and returns the next token. Whitespace and comments are
// skipped, bad input is reported to the error handler and skipped too.
func (s *Scanner) Next() token.Token {
	for {
		s.skipWhitespace()
		s.start = s.current
		if s.isAtEnd() {
			return token.Token{Kind: token.EOF, Line: s.line}
		}
		if tok, ok := s.scanToken(); ok {
			return tok
		}
	}
}

// All returns an iterator over the remaining tokens, ending with EOF.
func (s *Scanner) All() iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		for {
			tok := s.Next()
			if !yield(tok) || tok.Kind == token.EOF {
				return
			}
		}
	}
}

// ScanTokens scans the whole of src. The returned error, if any, is an ErrorList.
func ScanTokens(src string) ([]token.Token, error) {
	var errs ErrorList
	s := New(src, func(line int, msg string) {
		errs.Add(PhaseScan, line, "", msg)
	})
	var toks []token.Token
	for tok := range s.All() {
		toks = append(toks, tok)
	}
	return toks, errs.Err()
}

func (s *Scanner) scanToken() (token.Token, bool) {
	c := s.advance()
	switch c {
	case '(':
		return s.make(token.LEFT_PAREN, nil), true
	case ')':
		return s.make(token.RIGHT_PAREN, nil), true
	case '{':
		return s.make(token.LEFT_BRACE, nil), true
	case '}':
		return s.make(token.RIGHT_BRACE, nil), true
	case ',':
		return s.make(token.COMMA, nil), true
	case '.':
		return s.make(token.DOT, nil), true
	case '-':
		return s.make(token.MINUS, nil), true
	case '+':
		return s.make(token.PLUS, nil), true
	case ';':
		return s.make(token.SEMICOLON, nil), true
	case '*':
		return s.make(token.STAR, nil), true
	case '/':
		return s.make(token.SLASH, nil), true
	case '!':
		return s.make(s.either('=', token.BANG_EQUAL, token.BANG), nil), true
	case '=':
		return s.make(s.either('=', token.EQUAL_EQUAL, token.EQUAL), nil), true
	case '<':
		return s.make(s.either('=', token.LESS_EQUAL, token.LESS), nil), true
	case '>':
		return s.make(s.either('=', token.GREATER_EQUAL, token.GREATER), nil), true
	case '"':
		return s.string()
	}
	switch {
	case isDigit(c):
		return s.number(), true
	case isAlpha(c):
		return s.identifier(), true
	}

	// Skip the whole rune so multi-byte input is reported once.
	if c >= utf8.RuneSelf {
		s.current = s.start
		_, size := utf8.DecodeRuneInString(s.src[s.current:])
		s.current += size
	}
	s.error("Unexpected character.")
	return token.Token{}, false
}

func (s *Scanner) skipWhitespace() {
	for !s.isAtEnd() {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for !s.isAtEnd() && s.peek() != '\n' {
				s.current++
			}
		default:
			return
		}
	}
}

func (s *Scanner) string() (token.Token, bool) {
	for !s.isAtEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}
	if s.isAtEnd() {
		s.error("Unterminated string.")
		return token.Token{}, false
	}
	s.current++ // closing quote
	return s.make(token.STRING, s.src[s.start+1:s.current-1]), true
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.current++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++
		for isDigit(s.peek()) {
			s.current++
		}
	}
	v, err := strconv.ParseFloat(s.src[s.start:s.current], 64)
	if err != nil {
		// digits with at most one interior dot always parse
		panic(err)
	}
	return s.make(token.NUMBER, v)
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	return s.make(token.Lookup(s.src[s.start:s.current]), nil)
}

func (s *Scanner) make(kind token.Kind, literal any) token.Token {
	return token.Token{
		Kind:    kind,
		Lexeme:  s.src[s.start:s.current],
		Literal: literal,
		Line:    s.line,
	}
}

func (s *Scanner) error(msg string) {
	if s.err != nil {
		s.err(s.line, msg)
	}
}

func (s *Scanner) either(next byte, two, one token.Kind) token.Kind {
	if !s.isAtEnd() && s.src[s.current] == next {
		s.current++
		return two
	}
	return one
}

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func (s *Scanner) isAtEnd() bool { return s.current >= len(s.src) }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isAlpha(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}
