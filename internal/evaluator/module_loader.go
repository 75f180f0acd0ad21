package evaluator

import (
	"errors"
	"io/fs"
	"itmoscript/internal/ast"
	"itmoscript/internal/diag"
	"itmoscript/internal/object"
	"itmoscript/internal/parser"
	"log/slog"
	"os"
	"path/filepath"
)

// ModuleExtension is appended to a module name to find its source file.
const ModuleExtension = ".is"

// loadModule reads and parses the module called name. Failures are reported
// at pos, the place in the importing program that named the module.
func (e *Evaluator) loadModule(name string, pos ast.Node) (*ast.Program, error) {
	root := e.Config.RootPath
	if root == "" {
		root = "."
	}
	modulePath := filepath.Join(root, name+ModuleExtension)

	src, err := os.ReadFile(modulePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("module read failed", "module", name, "path", modulePath, "error", err)
		}
		return nil, diag.Interpreter(pos.Pos(), "Cannot open module file: %s", name)
	}
	slog.Debug("loading module", "module", name, "path", modulePath)

	program, err := parser.Parse(string(src))
	if err != nil {
		return nil, moduleError(name, pos, err)
	}

	if e.Config.DebugJsonAST {
		if err := writeASTJSON(program, modulePath+".ast.json"); err != nil {
			return nil, diag.Interpreter(pos.Pos(), "Failed to write AST to JSON: %v", err)
		}
	}
	return program, nil
}

func writeASTJSON(program *ast.Program, path string) error {
	out, err := parser.RenderASTAsJSON(program)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0o644)
}

// moduleError moves an error raised inside a module onto the importing
// statement, keeping the module-relative line in the message.
func moduleError(name string, pos ast.Node, err error) error {
	return diag.Interpreter(pos.Pos(), "in module '%s': %s", name, err.Error())
}

// runModule executes the assignment statements of program in env. Other
// top-level statements are skipped.
func (e *Evaluator) runModule(name string, program *ast.Program, env *object.Environment, pos ast.Node) error {
	e.PushEnv(env)
	defer e.PopEnv()

	for _, stmt := range program.Statements {
		assign, ok := stmt.(*ast.AssignStatement)
		if !ok {
			continue
		}
		if _, err := e.exec(assign); err != nil {
			return moduleError(name, pos, err)
		}
	}
	return nil
}

// execImportStatement runs each module in a scope nested in the current one
// and copies the names the module defined into the current scope.
func (e *Evaluator) execImportStatement(node *ast.ImportStatement) error {
	current := e.CurrentEnv()
	for _, mod := range node.Modules {
		program, err := e.loadModule(mod.Value, mod)
		if err != nil {
			return err
		}

		moduleEnv := object.NewEnclosedEnvironment(current)
		if err := e.runModule(mod.Value, program, moduleEnv, mod); err != nil {
			return err
		}

		names := moduleEnv.Names()
		for _, name := range names {
			val, _ := moduleEnv.GetLocal(name)
			current.Set(name, val)
		}
		slog.Debug("module imported", "module", mod.Value, "names", len(names))
	}
	return nil
}

// execFromImportStatement runs the module against the builtins only. With
// `*` every assignment runs and every name is copied; otherwise only the
// first assignment to each requested name runs.
func (e *Evaluator) execFromImportStatement(node *ast.FromImportStatement) error {
	name := node.Module.Value
	program, err := e.loadModule(name, node)
	if err != nil {
		return err
	}

	current := e.CurrentEnv()
	moduleEnv := object.NewEnclosedEnvironment(e.Builtins)

	if node.All {
		if err := e.runModule(name, program, moduleEnv, node); err != nil {
			return err
		}
		for _, n := range moduleEnv.Names() {
			val, _ := moduleEnv.GetLocal(n)
			current.Set(n, val)
		}
		return nil
	}

	for _, want := range node.Names {
		assign := firstAssignment(program, want.Value)
		if assign == nil {
			continue
		}
		e.PushEnv(moduleEnv)
		_, err := e.exec(assign)
		e.PopEnv()
		if err != nil {
			return moduleError(name, node, err)
		}
	}

	for _, want := range node.Names {
		val, ok := moduleEnv.GetLocal(want.Value)
		if !ok {
			return diag.Interpreter(node.Pos(), "Name '%s' not found in module", want.Value)
		}
		current.Set(want.Value, val)
	}
	slog.Debug("module imported", "module", name, "names", len(node.Names))
	return nil
}

func firstAssignment(program *ast.Program, name string) *ast.AssignStatement {
	for _, stmt := range program.Statements {
		if assign, ok := stmt.(*ast.AssignStatement); ok && assign.Name.Value == name {
			return assign
		}
	}
	return nil
}

