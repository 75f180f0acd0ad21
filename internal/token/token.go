package token

import "fmt"

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // add, foobar, x, y, ...
	NUMBER = "NUMBER" // 1_000.5e-3
	STRING = "STRING" // "foobar"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	CARET    = "^"

	PLUS_ASSIGN     = "+="
	MINUS_ASSIGN    = "-="
	ASTERISK_ASSIGN = "*="
	SLASH_ASSIGN    = "/="
	PERCENT_ASSIGN  = "%="
	CARET_ASSIGN    = "^="

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	EQ     = "=="
	NOT_EQ = "!="

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	IF       = "IF"
	THEN     = "THEN"
	ELSE     = "ELSE"
	ELIF     = "ELIF"
	FOR      = "FOR"
	IN       = "IN"
	WHILE    = "WHILE"
	FUNCTION = "FUNCTION"
	AND      = "AND"
	OR       = "OR"
	NOT      = "NOT"
	RETURN   = "RETURN"
	END      = "END"
	NIL      = "NIL"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	IMPORT   = "IMPORT"
	FROM     = "FROM"
)

// Position is a 1-based line and column in the source text. The zero value
// means "no position" and is used when the parser runs off the end.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func (p Position) IsValid() bool {
	return p.Line > 0
}

type Token struct {
	Type     TokenType
	Literal  string
	Position Position
}

// Text is the token as it should be quoted in diagnostics.
func (t Token) Text() string {
	switch t.Type {
	case EOF:
		return "end of file"
	case STRING:
		return fmt.Sprintf("%q", t.Literal)
	}
	return t.Literal
}

var keywords = map[string]TokenType{
	// constants
	"nil":   NIL,
	"true":  TRUE,
	"false": FALSE,

	// flow control
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"elif":   ELIF,
	"for":    FOR,
	"in":     IN,
	"while":  WHILE,
	"return": RETURN,
	"end":    END,

	// declarations
	"function": FUNCTION,

	// logic
	"and": AND,
	"or":  OR,
	"not": NOT,

	// modules
	"import": IMPORT,
	"from":   FROM,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// CompoundOperator maps a compound assignment token to the binary operator it
// desugars to.
var CompoundOperator = map[TokenType]string{
	PLUS_ASSIGN:     "+",
	MINUS_ASSIGN:    "-",
	ASTERISK_ASSIGN: "*",
	SLASH_ASSIGN:    "/",
	PERCENT_ASSIGN:  "%",
	CARET_ASSIGN:    "^",
}
