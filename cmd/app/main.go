package main

import (
	"fmt"
	"itmoscript/internal/interpreter"
	"itmoscript/internal/log"
	"itmoscript/internal/parser"
	"itmoscript/internal/repl"
	"itmoscript/internal/util"
	"log/slog"
	"os"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
)

var (
	// Version, BuildDate and Commit are set with -ldflags -X at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
)

const usage = `itmoscript

Usage:
  itmoscript [options] [FILE]
  itmoscript [options] -c CODE
  itmoscript -h | --help
  itmoscript --version

Arguments:
  FILE  Program to run. Without it an interactive session starts when stdin
        is a terminal; otherwise stdin is run as one program.

Options:
  -c CODE               Run CODE as the program.
  --root=PATH           Directory modules are imported from [default: .].
  --config=PATH         TOML configuration file. Defaults to itmoscript.toml
                        in $ITMOSCRIPT_HOME when present.
  --log-level=LEVEL     debug, info, warn, error or none.
  --log-file=PATH       Write logs to PATH instead of stderr.
  --debug-ast           Write the parsed program to <FILE>.ast.json.
  --debug-ast-text      Print the parsed program to stderr.
  -h --help             Display this help.
  --version             Print the version.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	opts, err := docopt.ParseArgs(usage, argv, versionString())
	if err != nil {
		// Error in the usage doc. This should never happen.
		panic(err.Error())
	}

	cfg, err := configure(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	closer, err := log.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closer.Close()

	if code, _ := opts.String("-c"); code != "" {
		return exitCode(interpreter.InterpretWith(cfg, strings.NewReader(code), os.Stdout, os.Stdin))
	}

	if path, _ := opts.String("FILE"); path != "" {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open file: %s\n", path)
			return 1
		}
		if cfg.DebugJsonAST {
			dumpAST(path, string(src))
		}
		slog.Info("running program", "path", path)
		return exitCode(interpreter.InterpretWith(cfg, strings.NewReader(string(src)), os.Stdout, os.Stdin))
	}

	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		if err := repl.Start(cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	return exitCode(interpreter.InterpretWith(cfg, os.Stdin, os.Stdout, nil))
}

// configure layers defaults, the configuration file and command-line flags.
func configure(opts docopt.Opts) (util.Configuration, error) {
	cfg := util.DefaultConfiguration()
	cfg.Version = Version
	cfg.BuildDate = BuildDate
	cfg.Commit = Commit

	explicit, _ := opts.String("--config")
	if path, ok := util.ConfigPath(explicit, cfg.Home); ok {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}

	// --root carries a default, so only a non-default value overrides the file.
	if root, _ := opts.String("--root"); root != "" && root != util.DefaultRootPath {
		cfg.RootPath = root
	}
	if level, _ := opts.String("--log-level"); level != "" {
		cfg.LogLevel = level
	}
	if file, _ := opts.String("--log-file"); file != "" {
		cfg.LogFile = file
	}
	if on, _ := opts.Bool("--debug-ast"); on {
		cfg.DebugJsonAST = true
	}
	if on, _ := opts.Bool("--debug-ast-text"); on {
		cfg.DebugTxtAST = true
	}
	return cfg, nil
}

func dumpAST(path, src string) {
	program, err := parser.Parse(src)
	if err != nil {
		// reported when the program runs
		return
	}
	out, err := parser.RenderASTAsJSON(program)
	if err == nil {
		err = os.WriteFile(path+".ast.json", []byte(out), 0o644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write AST to JSON: %v\n", err)
	}
}

func exitCode(ok bool) int {
	if ok {
		return 0
	}
	return 1
}

func versionString() string {
	return fmt.Sprintf("itmoscript version 'v%s' %s %s", Version, BuildDate, Commit)
}
