// Package token defines the lexical tokens of the lox language.
package token

import "fmt"

// Kind is the set of lexical token kinds.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	// Single-character tokens.
	LEFT_PAREN  // (
	RIGHT_PAREN // )
	LEFT_BRACE  // {
	RIGHT_BRACE // }
	COMMA       // ,
	DOT         // .
	MINUS       // -
	PLUS        // +
	SEMICOLON   // ;
	SLASH       // /
	STAR        // *

	// One or two character tokens.
	BANG          // !
	BANG_EQUAL    // !=
	EQUAL         // =
	EQUAL_EQUAL   // ==
	GREATER       // >
	GREATER_EQUAL // >=
	LESS          // <
	LESS_EQUAL    // <=

	// Literals.
	IDENTIFIER
	STRING
	NUMBER

	keywordBeg
	AND
	CLASS
	ELSE
	FALSE
	FUN
	FOR
	IF
	NIL
	OR
	PRINT
	RETURN
	SUPER
	THIS
	TRUE
	VAR
	WHILE
	keywordEnd
)

var kinds = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	LEFT_PAREN:  "(",
	RIGHT_PAREN: ")",
	LEFT_BRACE:  "{",
	RIGHT_BRACE: "}",
	COMMA:       ",",
	DOT:         ".",
	MINUS:       "-",
	PLUS:        "+",
	SEMICOLON:   ";",
	SLASH:       "/",
	STAR:        "*",

	BANG:          "!",
	BANG_EQUAL:    "!=",
	EQUAL:         "=",
	EQUAL_EQUAL:   "==",
	GREATER:       ">",
	GREATER_EQUAL: ">=",
	LESS:          "<",
	LESS_EQUAL:    "<=",

	IDENTIFIER: "IDENTIFIER",
	STRING:     "STRING",
	NUMBER:     "NUMBER",

	AND:    "and",
	CLASS:  "class",
	ELSE:   "else",
	FALSE:  "false",
	FUN:    "fun",
	FOR:    "for",
	IF:     "if",
	NIL:    "nil",
	OR:     "or",
	PRINT:  "print",
	RETURN: "return",
	SUPER:  "super",
	THIS:   "this",
	TRUE:   "true",
	VAR:    "var",
	WHILE:  "while",
}

// String returns the operator or keyword spelling for fixed tokens,
// and the upper-case kind name for the others.
func (k Kind) String() string {
	if 0 <= k && int(k) < len(kinds) && kinds[k] != "" {
		return kinds[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) isKeyword() bool { return keywordBeg < k && k < keywordEnd }

var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, keywordEnd-keywordBeg-1)
	for i, spelling := range kinds {
		if k := Kind(i); k.isKeyword() {
			keywords[spelling] = k
		}
	}
}

// Lookup maps an identifier lexeme to its keyword kind, or IDENTIFIER.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENTIFIER
}

// Token is a single lexeme scanned from source text. Tokens are values and
// are never mutated after the scanner produces them.
type Token struct {
	Kind    Kind
	Lexeme  string
	Literal any // float64 for NUMBER, string for STRING, nil otherwise
	Line    int
}

func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s %q %v (line %d)", t.Kind, t.Lexeme, t.Literal, t.Line)
	}
	return fmt.Sprintf("%s %q (line %d)", t.Kind, t.Lexeme, t.Line)
}
