package interpreter

import (
	"bytes"
	"itmoscript/internal/util"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func interpret(t *testing.T, src string) (string, bool) {
	t.Helper()
	var out bytes.Buffer
	ok := InterpretWith(util.DefaultConfiguration(), strings.NewReader(src), &out, strings.NewReader(""))
	return out.String(), ok
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "x = 10 + 5\nprint(x)\n", "15"},
		{"fibonacci", `
fib = function(n)
    if n == 0 then
        return 0
    end if
    a = 0
    b = 1
    for i in range(n - 1)
        c = a + b
        a = b
        b = c
    end for
    return b
end function
print(fib(10))
`, "55"},
		{"fizzbuzz", `
fizzBuzz = function(n)
    for i in range(1, n)
        s = "Fizz" * (i % 3 == 0) + "Buzz" * (i % 5 == 0)
        if s == "" then
            print(i)
        else
            print(s)
        end if
        print(" ")
    end for
end function
fizzBuzz(16)
`, "1 2 Fizz 4 Buzz Fizz 7 8 Fizz Buzz 11 Fizz 13 14 FizzBuzz "},
		{"max of list", `
max = function(arr)
    if len(arr) == 0 then return nil end if
    m = arr[0]
    for i in arr
        if i > m then m = i end if
    end for
    return m
end function
print(max([10, -1, 0, 2, 2025, 239]))
`, "2025"},
		{"slices", `print("abcdef"[-1:-6:-10], " ", "abcdef"[1:4], " ", [1, 2, 3][::-1])`, "f bcd [3, 2, 1]"},
		{"string ops", `println("Hello" + ", " + "World!")
println("file.txt" - ".txt")
println("ab" * 3)`, "Hello, World!\nfile\nababab\n"},
		{"repeating decimal", "println(1 / 3)\nprintln(22 / 7)", "0.(3)\n3.(142857)\n"},
		{"closure", `
adder = function(n)
    return function(x) return x + n end function
end function
add2 = adder(2)
print(add2(40))
`, "42"},
		{"aliasing", "a = [1, 2]\nb = a\npush(b, 3)\nprint(len(a))", "3"},
		{"top level return", "print(1)\nreturn 0\nprint(2)", "1"},
		{"semicolons", "a = 1; b = 2;; print(a + b)", "3"},
		{"comments", "// leading\nx = 1 // trailing\nprint(x)", "1"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := interpret(t, tt.input)
			if !ok {
				t.Fatalf("tests[%d] - program failed: %q", i, out)
			}
			if out != tt.expected {
				t.Errorf("tests[%d] - wrong output. expected=%q, got=%q", i, tt.expected, out)
			}
		})
	}
}

func TestErrorReports(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"arity mismatch",
			"f = function(a, b) return a + b end function\nprint(\"before\")\nf(1)\n",
			"beforef(1)\n ^\nInterpreterError in line 3: Argument count mismatch\n",
		},
		{
			"undefined name",
			"x = 1\ny = x + z\n",
			"y = x + z\n        ^\nInterpreterError in line 2: name 'z' is not defined\n",
		},
		{
			"parser error",
			"x = (1 + 2\nprint(x)\n",
			"print(x)\n^\nParserError in line 2: expected ')' after expression\n",
		},
		{
			"lexer error",
			"x = \"open",
			"x = \"open\n         ^\nLexerError in line 1: unterminated string literal\n",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := interpret(t, tt.input)
			if ok {
				t.Fatalf("tests[%d] - program should have failed, output %q", i, out)
			}
			if out != tt.expected {
				t.Errorf("tests[%d] - wrong report.\nexpected=%q\ngot=     %q", i, tt.expected, out)
			}
		})
	}
}

func TestSessionKeepsScope(t *testing.T) {
	var out bytes.Buffer
	s := New(util.DefaultConfiguration(), &out, strings.NewReader(""))

	if _, err := s.Execute("x = 40"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Execute("y = undefined"); err == nil {
		t.Fatalf("expected an error")
	}
	got, err := s.Execute("x + 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Inspect() != "42" {
		t.Fatalf("session lost its scope, got %v", got)
	}
}

func TestInterpretWithRootPath(t *testing.T) {
	dir := t.TempDir()
	mod := "greet = function(name) return \"hi \" + name end function\n"
	if err := os.WriteFile(filepath.Join(dir, "greeting.is"), []byte(mod), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := util.DefaultConfiguration()
	cfg.RootPath = dir
	var out bytes.Buffer
	ok := InterpretWith(cfg, strings.NewReader("from greeting import greet\nprint(greet(\"bob\"))"), &out, nil)
	if !ok || out.String() != "hi bob" {
		t.Fatalf("wrong result ok=%v out=%q", ok, out.String())
	}
}

func TestReadUsesSeparateInput(t *testing.T) {
	var out bytes.Buffer
	ok := InterpretWith(util.DefaultConfiguration(), strings.NewReader("n = read()\nprint(n * 2)"), &out, strings.NewReader("21\n"))
	if !ok || out.String() != "42" {
		t.Fatalf("wrong result ok=%v out=%q", ok, out.String())
	}
}
