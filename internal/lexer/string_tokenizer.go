package lexer

import (
	"strings"
)

// readString reads a double-quoted literal starting at the opening quote and
// leaves the lexer just past the closing quote. Escapes: \" \\ \n; any other
// escaped rune stands for itself.
func (l *Lexer) readString() (string, error) {
	var result strings.Builder

	l.readChar() // consume the opening "

	for {
		if l.atEOF() {
			return "", l.errorf("unterminated string literal")
		}

		if l.ch == '"' {
			l.readChar() // consume the closing "
			return result.String(), nil
		}

		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() {
				return "", l.errorf("unterminated string literal")
			}
			switch l.ch {
			case 'n':
				result.WriteByte('\n')
			default:
				result.WriteString(l.current())
			}
		} else {
			result.WriteString(l.current())
		}

		l.readChar()
	}
}
