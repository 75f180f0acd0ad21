package lexer

import (
	"itmoscript/internal/token"
)

// NextToken returns the next token in the input. Once the input is exhausted
// it keeps returning EOF tokens.
func (l *Lexer) NextToken() (token.Token, error) {
	var tok token.Token

	l.skipWhitespace()

	start := l.pos()

	if l.atEOF() {
		return token.Token{Type: token.EOF, Literal: "", Position: start}, nil
	}

	switch l.ch {
	case '=':
		tok = l.handleCompoundToken(token.ASSIGN, '=', token.EQ)
	case '+':
		tok = l.handleCompoundToken(token.PLUS, '=', token.PLUS_ASSIGN)
	case '-':
		tok = l.handleCompoundToken(token.MINUS, '=', token.MINUS_ASSIGN)
	case '*':
		tok = l.handleCompoundToken(token.ASTERISK, '=', token.ASTERISK_ASSIGN)
	case '/':
		tok = l.handleCompoundToken(token.SLASH, '=', token.SLASH_ASSIGN)
	case '%':
		tok = l.handleCompoundToken(token.PERCENT, '=', token.PERCENT_ASSIGN)
	case '^':
		tok = l.handleCompoundToken(token.CARET, '=', token.CARET_ASSIGN)
	case '<':
		tok = l.handleCompoundToken(token.LT, '=', token.LT_EQ)
	case '>':
		tok = l.handleCompoundToken(token.GT, '=', token.GT_EQ)
	case '!':
		if l.peekChar() != '=' {
			return tok, l.errorf("unrecognized character: %c", l.ch)
		}
		l.readChar()
		tok = token.Token{Type: token.NOT_EQ, Literal: "!=", Position: start}
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, start)
	case ':':
		tok = newToken(token.COLON, l.ch, start)
	case ',':
		tok = newToken(token.COMMA, l.ch, start)
	case '.':
		tok = newToken(token.PERIOD, l.ch, start)
	case '(':
		tok = newToken(token.LPAREN, l.ch, start)
	case ')':
		tok = newToken(token.RPAREN, l.ch, start)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, start)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, start)
	case '{':
		tok = newToken(token.LBRACE, l.ch, start)
	case '}':
		tok = newToken(token.RBRACE, l.ch, start)
	case '"':
		literal, err := l.readString()
		if err != nil {
			return tok, err
		}
		return token.Token{Type: token.STRING, Literal: literal, Position: start}, nil
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Position = start
			return tok, nil
		} else if isDigit(l.ch) {
			literal, err := l.readNumber()
			if err != nil {
				return tok, err
			}
			return token.Token{Type: token.NUMBER, Literal: literal, Position: start}, nil
		}
		return tok, l.errorf("unrecognized character: %c", l.ch)
	}

	l.readChar()
	return tok, nil
}
