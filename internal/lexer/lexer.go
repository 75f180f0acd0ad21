package lexer

import (
	"itmoscript/internal/diag"
	"itmoscript/internal/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
	line         int  // 1-based line of ch
	column       int  // 1-based column of ch
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// Tokenize drains the lexer, returning every token up to and including EOF.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) pos() token.Position {
	return token.Position{Line: l.line, Column: l.column}
}

func (l *Lexer) errorf(format string, args ...any) error {
	return diag.Lexer(l.pos(), format, args...)
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	start := l.pos()
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: start}
	}
	return newToken(t, l.ch, start)
}

// skipWhitespace skips blanks and // comments, in any interleaving.
func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case !l.atEOF() && unicode.IsSpace(l.ch):
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			l.skipToLineEnd()
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}
}

// current returns the raw bytes of l.ch, which differ from its UTF-8
// encoding when the input is not valid UTF-8.
func (l *Lexer) current() string {
	return l.input[l.position:l.readPosition]
}

// readChar advances by one UTF-8 rune, updating byte positions and the
// line/column of the new current rune.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// readIdentifier returns the substring (bytes) covering the identifier runes
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readDigits consumes a run of digits and single underscores.
func (l *Lexer) readDigits() error {
	prevUnderscore := false
	for isDigit(l.ch) || l.ch == '_' {
		if l.ch == '_' {
			if prevUnderscore {
				return l.errorf("multiple consecutive underscores are not allowed")
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		l.readChar()
	}
	return nil
}

// readNumber scans digits, an optional fraction and an optional exponent.
// Underscores separate digits and are dropped from the literal.
func (l *Lexer) readNumber() (string, error) {
	start := l.position
	startPos := l.pos()
	hasDot, hasExp := false, false

	if err := l.readDigits(); err != nil {
		return "", err
	}
	if l.ch == '.' {
		hasDot = true
		l.readChar()
		if err := l.readDigits(); err != nil {
			return "", err
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		hasExp = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return "", l.errorf("invalid exponent in numeric literal")
		}
		if err := l.readDigits(); err != nil {
			return "", err
		}
	}

	raw := l.input[start:l.position]
	if strings.HasSuffix(raw, "_") {
		return "", l.errorf("invalid decimal literal")
	}
	cleaned := strings.ReplaceAll(raw, "_", "")

	// "000" is tolerated, "0123" is not.
	if !hasDot && !hasExp && len(cleaned) > 1 && cleaned[0] == '0' && strings.Trim(cleaned, "0") != "" {
		return "", diag.Lexer(startPos, "leading zeros in decimal integer literals are not permitted")
	}
	return cleaned, nil
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func newToken(tokenType token.TokenType, ch rune, position token.Position) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
