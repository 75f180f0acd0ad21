package parser

import (
	"errors"
	"itmoscript/internal/ast"
	"itmoscript/internal/diag"
	"strings"
	"testing"
)

func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := Parse(input)
	if err != nil {
		t.Fatalf("parse %q: unexpected error: %v", input, err)
	}
	return program
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"a * b % c", "((a * b) % c)"},
		{"a - b - c", "((a - b) - c)"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"-2 ^ 2", "(-(2 ^ 2))"},
		{"2 * 3 ^ 2", "(2 * (3 ^ 2))"},
		{"a < b or c", "(a < (b or c))"},
		{"a == b < c", "(a == (b < c))"},
		{"a and b or c", "((a and b) or c)"},
		{"a or b and c", "(a or (b and c))"},
		{"not a == b", "((not a) == b)"},
		{"not not a", "(not (not a))"},
		{"-a * b", "((-a) * b)"},
		{"+a", "(+a)"},
		{"(a + b) * c", "((a + b) * c)"},
		{"f(1, 2)[0]", "f(1, 2)[0]"},
		{"-f(x)", "(-f(x))"},
		{"-x[0]", "(-x[0])"},
		{"a + b(1)", "(a + b(1))"},
		{"2 ^ x(1)", "(2 ^ x(1))"},
		{"(xs)[0]", "xs[0]"},
		{"(f)(x)", "f\nx"},
		{"x[1:2]", "x[1:2]"},
		{"x[:3]", "x[:3]"},
		{"x[1:]", "x[1:]"},
		{"x[::2]", "x[::2]"},
		{"x[::-1]", "x[::(-1)]"},
		{"x[a:b:c]", "x[a:b:c]"},
		{"[1, [2, 3], \"s\"]", "[1, [2, 3], \"s\"]"},
		{"f()", "f()"},
		{"a; b;; c", "a\nb\nc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parseOK(t, tt.input)
			if actual := program.String(); actual != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, actual)
			}
		})
	}
}

func TestAssignStatements(t *testing.T) {
	program := parseOK(t, "x = 1 + 2")
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
	stmt, ok := program.Statements[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("statement is not *ast.AssignStatement. got=%T", program.Statements[0])
	}
	if stmt.Name.Value != "x" {
		t.Errorf("name wrong. got=%q", stmt.Name.Value)
	}
	if stmt.Value.String() != "(1 + 2)" {
		t.Errorf("value wrong. got=%q", stmt.Value.String())
	}
}

func TestCompoundAssignDesugars(t *testing.T) {
	tests := []struct {
		input    string
		operator string
	}{
		{"x += 2", "+"},
		{"x -= 2", "-"},
		{"x *= 2", "*"},
		{"x /= 2", "/"},
		{"x %= 2", "%"},
		{"x ^= 2", "^"},
	}

	for _, tt := range tests {
		program := parseOK(t, tt.input)
		stmt, ok := program.Statements[0].(*ast.AssignStatement)
		if !ok {
			t.Fatalf("%q: statement is not *ast.AssignStatement. got=%T", tt.input, program.Statements[0])
		}
		infix, ok := stmt.Value.(*ast.InfixExpression)
		if !ok {
			t.Fatalf("%q: value is not *ast.InfixExpression. got=%T", tt.input, stmt.Value)
		}
		if infix.Operator != tt.operator {
			t.Errorf("%q: operator wrong. expected=%q, got=%q", tt.input, tt.operator, infix.Operator)
		}
		if left, ok := infix.Left.(*ast.Identifier); !ok || left.Value != "x" {
			t.Errorf("%q: left side is not x. got=%s", tt.input, infix.Left)
		}
		if infix.Pos() != stmt.Pos() {
			t.Errorf("%q: desugared operator should sit at the identifier, got %s", tt.input, infix.Pos())
		}
	}
}

func TestIfStatement(t *testing.T) {
	input := `
if x > 1 then
    y = 1
elif x > 0 then
    y = 2
elif x == 0 then
else
    y = 3
    y = 4
end if
`
	program := parseOK(t, input)
	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("statement is not *ast.IfStatement. got=%T", program.Statements[0])
	}
	if stmt.Condition.String() != "(x > 1)" {
		t.Errorf("condition wrong. got=%s", stmt.Condition)
	}
	if len(stmt.Consequence) != 1 {
		t.Errorf("consequence should have 1 statement. got=%d", len(stmt.Consequence))
	}
	if len(stmt.Elifs) != 2 {
		t.Fatalf("expected 2 elif clauses. got=%d", len(stmt.Elifs))
	}
	if len(stmt.Elifs[1].Body) != 0 {
		t.Errorf("second elif should be empty. got=%d", len(stmt.Elifs[1].Body))
	}
	if len(stmt.Alternative) != 2 {
		t.Errorf("alternative should have 2 statements. got=%d", len(stmt.Alternative))
	}
}

func TestLoops(t *testing.T) {
	program := parseOK(t, "for i in range(3)\n  s += i\nend for\nwhile s > 0\n  s -= 1\nend while")
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements. got=%d", len(program.Statements))
	}
	forStmt, ok := program.Statements[0].(*ast.ForStatement)
	if !ok {
		t.Fatalf("statement is not *ast.ForStatement. got=%T", program.Statements[0])
	}
	if forStmt.Variable.Value != "i" || forStmt.Iterable.String() != "range(3)" || len(forStmt.Body) != 1 {
		t.Errorf("for statement wrong: %s", forStmt)
	}
	whileStmt, ok := program.Statements[1].(*ast.WhileStatement)
	if !ok {
		t.Fatalf("statement is not *ast.WhileStatement. got=%T", program.Statements[1])
	}
	if whileStmt.Condition.String() != "(s > 0)" || len(whileStmt.Body) != 1 {
		t.Errorf("while statement wrong: %s", whileStmt)
	}
}

func TestFunctionLiteral(t *testing.T) {
	input := `
f = function(a, b)
    if a then
        return
    end if
    return a + b
end function
g = function() end function
`
	program := parseOK(t, input)
	fn, ok := program.Statements[0].(*ast.AssignStatement).Value.(*ast.FunctionLiteral)
	if !ok {
		t.Fatalf("value is not *ast.FunctionLiteral")
	}
	if len(fn.Parameters) != 2 || fn.Parameters[0].Value != "a" || fn.Parameters[1].Value != "b" {
		t.Errorf("parameters wrong: %v", fn.Parameters)
	}
	if len(fn.Body) != 2 {
		t.Fatalf("body should have 2 statements. got=%d", len(fn.Body))
	}
	bare := fn.Body[0].(*ast.IfStatement).Consequence[0].(*ast.ReturnStatement)
	if bare.ReturnValue != nil {
		t.Errorf("bare return should have no value. got=%s", bare.ReturnValue)
	}
	ret := fn.Body[1].(*ast.ReturnStatement)
	if ret.ReturnValue.String() != "(a + b)" {
		t.Errorf("return value wrong. got=%s", ret.ReturnValue)
	}

	empty := program.Statements[1].(*ast.AssignStatement).Value.(*ast.FunctionLiteral)
	if len(empty.Parameters) != 0 || len(empty.Body) != 0 {
		t.Errorf("empty function should have no parameters and no body")
	}
}

func TestImportStatements(t *testing.T) {
	program := parseOK(t, "import a, b\nfrom m import x, y\nfrom m import *")

	imp := program.Statements[0].(*ast.ImportStatement)
	if len(imp.Modules) != 2 || imp.Modules[1].Value != "b" {
		t.Errorf("import modules wrong: %s", imp)
	}

	from := program.Statements[1].(*ast.FromImportStatement)
	if from.Module.Value != "m" || from.All || len(from.Names) != 2 {
		t.Errorf("from import wrong: %s", from)
	}

	star := program.Statements[2].(*ast.FromImportStatement)
	if !star.All || len(star.Names) != 0 {
		t.Errorf("from import * wrong: %s", star)
	}
}

func TestNodePositions(t *testing.T) {
	program := parseOK(t, "a = 1\nb = a * 2\n  f(b)[0]")

	if pos := program.Statements[1].Pos(); pos.Line != 2 || pos.Column != 1 {
		t.Errorf("assignment position wrong. got=%s", pos)
	}
	infix := program.Statements[1].(*ast.AssignStatement).Value
	if pos := infix.Pos(); pos.Line != 2 || pos.Column != 7 {
		t.Errorf("operator position wrong. got=%s", pos)
	}
	index := program.Statements[2].(*ast.ExpressionStatement).Expression.(*ast.IndexExpression)
	if pos := index.Pos(); pos.Line != 3 || pos.Column != 7 {
		t.Errorf("index position wrong. got=%s", pos)
	}
	if pos := index.Left.Pos(); pos.Line != 3 || pos.Column != 4 {
		t.Errorf("call position wrong. got=%s", pos)
	}
	if pos := program.Statements[2].Pos(); pos != index.Pos() {
		t.Errorf("expression statement should take its expression's position. got=%s", pos)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
		line    int
		column  int
	}{
		{"2 ^ -1", "Unexpected token", 1, 5},
		{"end", "Unexpected token", 1, 1},
		{"x = ", "Unexpected token", 1, 5},
		{"[1, 2,]", "Unexpected token", 1, 7},
		{"if x y = 1 end if", "expected 'then' after condition", 1, 6},
		{"if x then\n y = 1", "expected 'end'", 0, 0},
		{"if x then y = 1 end for", "expected 'if'", 1, 21},
		{"if x then elif y z end if", "expected 'then' after elif condition", 1, 18},
		{"for 1 in x end for", "expected identifier in for loop", 1, 5},
		{"for i x end for", "expected 'in' after identifier in for loop", 1, 7},
		{"for i in x", "expected 'end' to close for loop", 0, 0},
		{"for i in x end while", "expected 'for' after end", 1, 16},
		{"while x", "expected 'end' to close while loop", 0, 0},
		{"while x y = 1 end if", "expected 'while' after end", 1, 19},
		{"f = function x", "expected '(' after 'function'", 1, 14},
		{"f = function(1)", "expected parameter name", 1, 14},
		{"f = function(a b) end function", "expected ')' after parameters", 1, 16},
		{"f = function() end if", "expected 'function' after 'end'", 1, 20},
		{"f = function()", "expected 'end' to close function", 0, 0},
		{"(1 + 2", "expected ')' after expression", 0, 0},
		{"[1, 2", "expected ']' after list literal", 0, 0},
		{"f(1", "expected ')' after arguments", 0, 0},
		{"x[1", "expected ']' after index", 0, 0},
		{"x[1:2", "expected ']' after slice", 0, 0},
		{"import", "expected module name after 'import'", 0, 0},
		{"import a,", "Expected module name", 0, 0},
		{"from", "expected module name after 'from'", 0, 0},
		{"from m x", "Expected 'import' after module name", 1, 8},
		{"from m import", "expected name after 'import'", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("expected error %q, got none", tt.message)
			}
			var derr *diag.Error
			if !errors.As(err, &derr) {
				t.Fatalf("error is not *diag.Error. got=%T", err)
			}
			if derr.Kind != diag.ParserError {
				t.Errorf("kind wrong. got=%s", derr.Kind)
			}
			if derr.Msg != tt.message {
				t.Errorf("message wrong. expected=%q, got=%q", tt.message, derr.Msg)
			}
			if tt.line != 0 && (derr.Pos.Line != tt.line || derr.Pos.Column != tt.column) {
				t.Errorf("position wrong. expected=%d:%d, got=%s", tt.line, tt.column, derr.Pos)
			}
		})
	}
}

func TestLexerErrorsSurfaceThroughParse(t *testing.T) {
	_, err := Parse("x = 007")
	if err == nil || !strings.Contains(err.Error(), "LexerError") {
		t.Fatalf("expected a lexer error, got %v", err)
	}
}

func TestDebugRenderers(t *testing.T) {
	program := parseOK(t, "f = function(a)\n  return a ^ 2\nend function\nprint(f(3)[0:1])")

	text := RenderASTAsText(program, 0)
	if !strings.Contains(text, "return (a ^ 2)") || !strings.Contains(text, "print(f(3)[0:1])") {
		t.Errorf("unexpected text rendering:\n%s", text)
	}

	js, err := RenderASTAsJSON(program)
	if err != nil {
		t.Fatalf("json rendering failed: %v", err)
	}
	for _, want := range []string{`"type": "FunctionLiteral"`, `"type": "SliceExpression"`, `"position": "2:12"`} {
		if !strings.Contains(js, want) {
			t.Errorf("json output missing %s", want)
		}
	}
}
