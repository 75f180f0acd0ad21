// Package diag holds the positioned errors raised while lexing, parsing and
// evaluating a program, and the report format printed for them.
package diag

import (
	"errors"
	"fmt"
	"io"
	"itmoscript/internal/token"
	"itmoscript/internal/util"
)

type Kind string

const (
	LexerError       Kind = "LexerError"
	ParserError      Kind = "ParserError"
	InterpreterError Kind = "InterpreterError"
)

// Error is a failure tied to a source position.
type Error struct {
	Kind Kind
	Pos  token.Position
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s in line %d: %s", e.Kind, e.Pos.Line, e.Msg)
}

func Errorf(kind Kind, pos token.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func Lexer(pos token.Position, format string, args ...any) *Error {
	return Errorf(LexerError, pos, format, args...)
}

func Parser(pos token.Position, format string, args ...any) *Error {
	return Errorf(ParserError, pos, format, args...)
}

func Interpreter(pos token.Position, format string, args ...any) *Error {
	return Errorf(InterpreterError, pos, format, args...)
}

// Wrap attaches a position to err. Errors that already carry one are
// returned unchanged so the innermost position wins.
func Wrap(err error, pos token.Position) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: InterpreterError, Pos: pos, Msg: err.Error()}
}

// Report writes the failing source line, a caret under the failing column and
// the error line itself. Errors without a position print as "Error: msg".
func Report(w io.Writer, src string, err error) {
	var de *Error
	if !errors.As(err, &de) {
		fmt.Fprintf(w, "Error: %s\n", err)
		return
	}
	io.WriteString(w, util.GetContextLines(src, de.Pos.Line, de.Pos.Column))
	fmt.Fprintf(w, "%s\n", de.Error())
}

// ReportShort is Report with the REPL's "Kind: msg" closing line.
func ReportShort(w io.Writer, src string, err error) {
	var de *Error
	if errors.As(err, &de) {
		io.WriteString(w, util.GetContextLines(src, de.Pos.Line, de.Pos.Column))
	}
	fmt.Fprintf(w, "%s\n", Short(err))
}

// Short is the one-line form used by the REPL: "Kind: msg".
func Short(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return fmt.Sprintf("%s: %s", de.Kind, de.Msg)
	}
	return fmt.Sprintf("Error: %s", err)
}
