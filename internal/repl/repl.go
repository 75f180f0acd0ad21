// Package repl is the interactive shell.
package repl

import (
	"errors"
	"fmt"
	"io"
	"itmoscript/internal/ast"
	"itmoscript/internal/diag"
	"itmoscript/internal/interpreter"
	"itmoscript/internal/lexer"
	"itmoscript/internal/object"
	"itmoscript/internal/token"
	"itmoscript/internal/util"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

const (
	Banner         = "itmoscript REPL. Enter commands, Ctrl-C to exit."
	Prompt         = ">>> "
	ContinuePrompt = "... "
)

const (
	errorColor = "\033[31m"
	resetColor = "\033[0m"
)

// LineReader is the part of liner.State the loop needs.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Start runs an interactive session on the terminal.
func Start(cfg util.Configuration) error {
	cli := liner.NewLiner()
	defer cli.Close()
	cli.SetCtrlCAborts(true)

	if cfg.HistoryFile != "" {
		if f, err := os.Open(cfg.HistoryFile); err == nil {
			cli.ReadHistory(f)
			f.Close()
		}
		defer saveHistory(cli, cfg.HistoryFile)
	}

	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return Loop(cfg, cli, os.Stdout, os.Stdin, color)
}

func saveHistory(cli *liner.State, path string) {
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("could not write REPL history", "path", path, "error", err)
		return
	}
	defer f.Close()
	if _, err := cli.WriteHistory(f); err != nil {
		slog.Warn("could not write REPL history", "path", path, "error", err)
	}
}

// Loop reads entries from lines until EOF or "exit" and runs each one in a
// single persistent session. Entries that leave a block open are continued
// on further lines.
func Loop(cfg util.Configuration, lines LineReader, out io.Writer, stdin io.Reader, color bool) error {
	session := interpreter.New(cfg, out, stdin)
	fmt.Fprintln(out, Banner)
	slog.Debug("repl session started")
	defer slog.Debug("repl session stopped")

	var buf []string
	for {
		prompt := Prompt
		if len(buf) > 0 {
			prompt = ContinuePrompt
		}

		line, err := lines.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			buf = buf[:0]
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}

		if len(buf) == 0 && strings.TrimSpace(line) == "exit" {
			return nil
		}
		if strings.TrimSpace(line) != "" {
			lines.AppendHistory(line)
		}

		buf = append(buf, line)
		src := strings.Join(buf, "\n")
		if openBlocks(src) > 0 {
			continue
		}
		buf = buf[:0]

		result, err := session.Execute(src)
		if err != nil {
			reportError(out, src, err, color)
			continue
		}
		if echo := echoValue(result); echo != "" {
			fmt.Fprintln(out, echo)
		}
	}
}

func reportError(out io.Writer, src string, err error, color bool) {
	if !color {
		diag.ReportShort(out, src, err)
		return
	}
	var b strings.Builder
	diag.ReportShort(&b, src, err)
	report := strings.TrimSuffix(b.String(), "\n")
	head, last := "", report
	if i := strings.LastIndexByte(report, '\n'); i >= 0 {
		head, last = report[:i+1], report[i+1:]
	}
	fmt.Fprintf(out, "%s%s%s%s\n", head, errorColor, last, resetColor)
}

// echoValue renders a result the way it would be written in source, or ""
// when nothing should be shown.
func echoValue(obj object.Object) string {
	switch v := obj.(type) {
	case nil, *object.Nil:
		return ""
	case *object.String:
		return ast.Quote(v.Value)
	}
	return obj.Inspect()
}

// openBlocks reports how many blocks in src still lack their "end". Source
// that does not lex yet is treated as complete so the error surfaces.
func openBlocks(src string) int {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return 0
	}
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Type == token.STRING {
			continue
		}
		words = append(words, tok.Literal)
	}
	return util.OpenBlocks(words)
}
