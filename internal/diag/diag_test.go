package diag

import (
	"bytes"
	"errors"
	"fmt"
	"itmoscript/internal/token"
	"testing"
)

func TestWrapKeepsInnermostPosition(t *testing.T) {
	inner := Interpreter(token.Position{Line: 3, Column: 4}, "boom")
	wrapped := Wrap(fmt.Errorf("outer: %w", inner), token.Position{Line: 1, Column: 1})

	var de *Error
	if !errors.As(wrapped, &de) || de.Pos.Line != 3 {
		t.Fatalf("innermost position lost: %v", wrapped)
	}

	plain := Wrap(errors.New("len() takes one argument"), token.Position{Line: 2, Column: 5})
	if !errors.As(plain, &de) || de.Kind != InterpreterError || de.Pos.Column != 5 {
		t.Fatalf("plain error not positioned: %#v", plain)
	}
	if Wrap(nil, token.Position{}) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestReport(t *testing.T) {
	src := "x = 1\ny = x / 0\n"
	tests := []struct {
		err      error
		report   string
		short    string
		shortAll string
	}{
		{
			Interpreter(token.Position{Line: 2, Column: 7}, "division by zero"),
			"y = x / 0\n      ^\nInterpreterError in line 2: division by zero\n",
			"InterpreterError: division by zero",
			"y = x / 0\n      ^\nInterpreterError: division by zero\n",
		},
		{
			Parser(token.Position{Line: 3, Column: 1}, "Unexpected token"),
			"ParserError in line 3: Unexpected token\n",
			"ParserError: Unexpected token",
			"ParserError: Unexpected token\n",
		},
		{
			errors.New("stack overflow"),
			"Error: stack overflow\n",
			"Error: stack overflow",
			"Error: stack overflow\n",
		},
	}

	for i, tt := range tests {
		var out bytes.Buffer
		Report(&out, src, tt.err)
		if out.String() != tt.report {
			t.Errorf("tests[%d] - wrong report. expected=%q, got=%q", i, tt.report, out.String())
		}
		if got := Short(tt.err); got != tt.short {
			t.Errorf("tests[%d] - wrong short form. expected=%q, got=%q", i, tt.short, got)
		}
		out.Reset()
		ReportShort(&out, src, tt.err)
		if out.String() != tt.shortAll {
			t.Errorf("tests[%d] - wrong short report. expected=%q, got=%q", i, tt.shortAll, out.String())
		}
	}
}

func TestErrorString(t *testing.T) {
	err := Lexer(token.Position{Line: 1, Column: 5}, "unterminated string literal")
	if err.Error() != "LexerError in line 1: unterminated string literal" {
		t.Fatalf("wrong message: %q", err.Error())
	}
}
