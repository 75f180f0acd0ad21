package repl

import (
	"bytes"
	"io"
	"itmoscript/internal/util"
	"strings"
	"testing"

	"github.com/peterh/liner"
)

type scriptedLines struct {
	lines   []string
	prompts []string
	history []string
}

func (s *scriptedLines) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", liner.ErrPromptAborted
	}
	return line, nil
}

func (s *scriptedLines) AppendHistory(item string) {
	s.history = append(s.history, item)
}

func runLoop(t *testing.T, lines ...string) (string, *scriptedLines) {
	t.Helper()
	var out bytes.Buffer
	sl := &scriptedLines{lines: lines}
	if err := Loop(util.DefaultConfiguration(), sl, &out, strings.NewReader(""), false); err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	return out.String(), sl
}

func TestLoopEchoesValues(t *testing.T) {
	out, _ := runLoop(t, "x = 2", "x * 21", `"hi"`, "nil", "println(x)", "exit", "never read")
	expected := Banner + "\n42\n\"hi\"\n2\n"
	if out != expected {
		t.Fatalf("wrong output.\nexpected=%q\ngot=     %q", expected, out)
	}
}

func TestLoopContinuesOpenBlocks(t *testing.T) {
	out, sl := runLoop(t,
		"f = function(n)",
		"  if n > 1 then",
		"    return n",
		"  end if",
		"  return 0",
		"end function",
		"f(5)",
	)
	expected := Banner + "\n5\n\n"
	if out != expected {
		t.Fatalf("wrong output.\nexpected=%q\ngot=     %q", expected, out)
	}
	wantPrompts := []string{Prompt, ContinuePrompt, ContinuePrompt, ContinuePrompt, ContinuePrompt, ContinuePrompt, Prompt, Prompt}
	if strings.Join(sl.prompts, "|") != strings.Join(wantPrompts, "|") {
		t.Errorf("wrong prompts. got=%q", sl.prompts)
	}
}

func TestLoopReportsErrorsAndKeepsGoing(t *testing.T) {
	out, _ := runLoop(t, "y = 1 / 0", "z", "1 +", "y = 3", "y")
	expected := Banner + "\n" +
		"y = 1 / 0\n      ^\nInterpreterError: division by zero\n" +
		"z\n^\nInterpreterError: name 'z' is not defined\n" +
		"1 +\n   ^\nParserError: Unexpected token\n" +
		"3\n\n"
	if out != expected {
		t.Fatalf("wrong output.\nexpected=%q\ngot=     %q", expected, out)
	}
}

func TestLoopAbortDiscardsPendingBlock(t *testing.T) {
	out, sl := runLoop(t, "while true", "^C", "1 + 1", "exit")
	expected := Banner + "\n2\n"
	if out != expected {
		t.Fatalf("wrong output.\nexpected=%q\ngot=     %q", expected, out)
	}
	if len(sl.history) != 2 {
		t.Errorf("wrong history. got=%q", sl.history)
	}
}

func TestOpenBlocks(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"x = 1", 0},
		{"if x then", 1},
		{"if x then\nend if", 0},
		{"f = function()\nwhile true\n", 2},
		{`s = "if for while"`, 0},
		{`s = "unterminated`, 0},
	}

	for i, tt := range tests {
		if got := openBlocks(tt.input); got != tt.expected {
			t.Errorf("tests[%d] - %q wrong. expected=%d, got=%d", i, tt.input, tt.expected, got)
		}
	}
}
