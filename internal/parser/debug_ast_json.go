package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"itmoscript/internal/ast"
	"reflect"
)

// WalkAST recursively traverses an AST and serializes it into a map structure
// suitable for JSON encoding. Every node carries its source position.
func WalkAST(node ast.Node) interface{} {
	if isNilNode(node) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Program:
		return map[string]interface{}{
			"type":       "Program",
			"statements": walkStatements(n.Statements),
		}

	case *ast.ExpressionStatement:
		return withPos(n, map[string]interface{}{
			"type":       "ExpressionStatement",
			"expression": WalkAST(n.Expression),
		})

	case *ast.AssignStatement:
		return withPos(n, map[string]interface{}{
			"type":  "AssignStatement",
			"name":  n.Name.Value,
			"value": WalkAST(n.Value),
		})

	case *ast.IfStatement:
		elifs := make([]interface{}, len(n.Elifs))
		for i, e := range n.Elifs {
			elifs[i] = map[string]interface{}{
				"condition": WalkAST(e.Condition),
				"body":      walkStatements(e.Body),
			}
		}
		var alternative interface{}
		if n.Alternative != nil {
			alternative = walkStatements(n.Alternative)
		}
		return withPos(n, map[string]interface{}{
			"type":        "IfStatement",
			"condition":   WalkAST(n.Condition),
			"consequence": walkStatements(n.Consequence),
			"elifs":       elifs,
			"alternative": alternative,
		})

	case *ast.ForStatement:
		return withPos(n, map[string]interface{}{
			"type":     "ForStatement",
			"variable": n.Variable.Value,
			"iterable": WalkAST(n.Iterable),
			"body":     walkStatements(n.Body),
		})

	case *ast.WhileStatement:
		return withPos(n, map[string]interface{}{
			"type":      "WhileStatement",
			"condition": WalkAST(n.Condition),
			"body":      walkStatements(n.Body),
		})

	case *ast.ReturnStatement:
		return withPos(n, map[string]interface{}{
			"type":        "ReturnStatement",
			"returnValue": WalkAST(n.ReturnValue),
		})

	case *ast.ImportStatement:
		return withPos(n, map[string]interface{}{
			"type":    "ImportStatement",
			"modules": identifierNames(n.Modules),
		})

	case *ast.FromImportStatement:
		return withPos(n, map[string]interface{}{
			"type":   "FromImportStatement",
			"module": n.Module.Value,
			"names":  identifierNames(n.Names),
			"all":    n.All,
		})

	case *ast.Identifier:
		return withPos(n, map[string]interface{}{
			"type":  "Identifier",
			"value": n.Value,
		})

	case *ast.NumberLiteral:
		return withPos(n, map[string]interface{}{
			"type":  "NumberLiteral",
			"value": n.Value,
		})

	case *ast.StringLiteral:
		return withPos(n, map[string]interface{}{
			"type":  "StringLiteral",
			"value": n.Value,
		})

	case *ast.BooleanLiteral:
		return withPos(n, map[string]interface{}{
			"type":  "BooleanLiteral",
			"value": n.Value,
		})

	case *ast.NilLiteral:
		return withPos(n, map[string]interface{}{
			"type": "NilLiteral",
		})

	case *ast.InfixExpression:
		return withPos(n, map[string]interface{}{
			"type":     "InfixExpression",
			"left":     WalkAST(n.Left),
			"operator": n.Operator,
			"right":    WalkAST(n.Right),
		})

	case *ast.PrefixExpression:
		return withPos(n, map[string]interface{}{
			"type":     "PrefixExpression",
			"operator": n.Operator,
			"right":    WalkAST(n.Right),
		})

	case *ast.CallExpression:
		return withPos(n, map[string]interface{}{
			"type":      "CallExpression",
			"function":  WalkAST(n.Function),
			"arguments": walkExpressions(n.Arguments),
		})

	case *ast.IndexExpression:
		return withPos(n, map[string]interface{}{
			"type":  "IndexExpression",
			"left":  WalkAST(n.Left),
			"index": WalkAST(n.Index),
		})

	case *ast.SliceExpression:
		return withPos(n, map[string]interface{}{
			"type":  "SliceExpression",
			"left":  WalkAST(n.Left),
			"start": WalkAST(n.Start),
			"end":   WalkAST(n.End),
			"step":  WalkAST(n.Step),
		})

	case *ast.ListLiteral:
		return withPos(n, map[string]interface{}{
			"type":     "ListLiteral",
			"elements": walkExpressions(n.Elements),
		})

	case *ast.FunctionLiteral:
		return withPos(n, map[string]interface{}{
			"type":       "FunctionLiteral",
			"parameters": identifierNames(n.Parameters),
			"body":       walkStatements(n.Body),
		})

	default:
		return map[string]interface{}{
			"type": "Unknown",
			"node": fmt.Sprintf("%T", n),
		}
	}
}

func isNilNode(node ast.Node) bool {
	return node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil())
}

func withPos(node ast.Node, m map[string]interface{}) map[string]interface{} {
	m["position"] = node.Pos().String()
	return m
}

func walkStatements(stmts []ast.Statement) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = WalkAST(s)
	}
	return result
}

func walkExpressions(exprs []ast.Expression) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = WalkAST(e)
	}
	return result
}

func identifierNames(idents []*ast.Identifier) []string {
	names := make([]string, len(idents))
	for i, id := range idents {
		names[i] = id.Value
	}
	return names
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}
