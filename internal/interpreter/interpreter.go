// Package interpreter runs whole programs and interactive sessions.
package interpreter

import (
	"fmt"
	"io"
	"itmoscript/internal/diag"
	"itmoscript/internal/evaluator"
	"itmoscript/internal/object"
	"itmoscript/internal/parser"
	"itmoscript/internal/util"
	"log/slog"
	"os"
	"runtime/pprof"
)

// ProfileEnv names a file to write a CPU profile of each run to.
const ProfileEnv = "ITMOSCRIPT_CPU_PROFILE"

// Interpret reads a whole program from in, runs it and writes its output to
// out. Errors are reported on out as well. It reports whether the program
// ran to completion.
func Interpret(in io.Reader, out io.Writer) bool {
	return InterpretWith(util.DefaultConfiguration(), in, out, os.Stdin)
}

// InterpretWith is Interpret with an explicit configuration and a separate
// reader for read().
func InterpretWith(cfg util.Configuration, in io.Reader, out io.Writer, stdin io.Reader) bool {
	data, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(out, "Error: %s\n", err)
		return false
	}
	src := string(data)

	s := New(cfg, out, stdin)
	if _, err := s.Execute(src); err != nil {
		diag.Report(out, src, err)
		return false
	}
	return true
}

// Session keeps one global scope across many executions.
type Session struct {
	eval *evaluator.Evaluator
	cfg  util.Configuration
}

func New(cfg util.Configuration, out io.Writer, stdin io.Reader) *Session {
	return &Session{
		eval: evaluator.New(cfg, out, stdin),
		cfg:  cfg,
	}
}

// Execute parses and runs src in the session scope. The value of a trailing
// bare expression is returned, or nil.
func (s *Session) Execute(src string) (result object.Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("evaluation panicked", "panic", r)
			s.eval.Unwind()
			result, err = nil, fmt.Errorf("%v", r)
		}
	}()

	program, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}

	if s.cfg.DebugTxtAST {
		fmt.Fprintln(os.Stderr, parser.RenderASTAsText(program, 0))
	}

	stop := startProfile()
	defer stop()

	slog.Debug("executing program", "statements", len(program.Statements))
	return s.eval.Run(program)
}

// startProfile starts CPU profiling when ProfileEnv is set and returns the
// function that stops it.
func startProfile() func() {
	profPath := os.Getenv(ProfileEnv)
	if profPath == "" {
		return func() {}
	}
	profFile, err := os.Create(profPath)
	if err != nil {
		slog.Warn("could not create CPU profile", "path", profPath, "error", err)
		return func() {}
	}
	if err := pprof.StartCPUProfile(profFile); err != nil {
		slog.Warn("could not start CPU profile", "error", err)
		_ = profFile.Close()
		return func() {}
	}
	return func() {
		pprof.StopCPUProfile()
		_ = profFile.Close()
	}
}
