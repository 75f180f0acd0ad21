package parser

import (
	"fmt"
	"itmoscript/internal/ast"
	"strings"
)

// RenderASTAsText produces an indented, fully parenthesized rendering of the
// AST. It is meant for debugging precedence and block structure.
func RenderASTAsText(node ast.Node, indent int) string {
	if isNilNode(node) {
		return "nil"
	}

	sp := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *ast.Program:
		var sb strings.Builder
		for i, s := range n.Statements {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(RenderASTAsText(s, 0))
		}
		return sb.String()

	case *ast.ExpressionStatement:
		return sp + RenderASTAsText(n.Expression, indent)

	case *ast.AssignStatement:
		return fmt.Sprintf("%s%s = %s", sp, n.Name.Value, RenderASTAsText(n.Value, indent))

	case *ast.ReturnStatement:
		if n.ReturnValue == nil {
			return sp + "return"
		}
		return fmt.Sprintf("%sreturn %s", sp, RenderASTAsText(n.ReturnValue, indent))

	case *ast.IfStatement:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%sif %s then\n", sp, RenderASTAsText(n.Condition, 0)))
		renderBlock(&sb, n.Consequence, indent+1)
		for _, e := range n.Elifs {
			sb.WriteString(fmt.Sprintf("%selif %s then\n", sp, RenderASTAsText(e.Condition, 0)))
			renderBlock(&sb, e.Body, indent+1)
		}
		if n.Alternative != nil {
			sb.WriteString(sp + "else\n")
			renderBlock(&sb, n.Alternative, indent+1)
		}
		sb.WriteString(sp + "end if")
		return sb.String()

	case *ast.ForStatement:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%sfor %s in %s\n", sp, n.Variable.Value, RenderASTAsText(n.Iterable, 0)))
		renderBlock(&sb, n.Body, indent+1)
		sb.WriteString(sp + "end for")
		return sb.String()

	case *ast.WhileStatement:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%swhile %s\n", sp, RenderASTAsText(n.Condition, 0)))
		renderBlock(&sb, n.Body, indent+1)
		sb.WriteString(sp + "end while")
		return sb.String()

	case *ast.ImportStatement, *ast.FromImportStatement:
		return sp + n.String()

	case *ast.FunctionLiteral:
		var sb strings.Builder
		sb.WriteString("function(" + strings.Join(identifierNames(n.Parameters), ", ") + ")\n")
		renderBlock(&sb, n.Body, indent+1)
		sb.WriteString(sp + "end function")
		return sb.String()

	case *ast.InfixExpression:
		return fmt.Sprintf("(%s %s %s)", RenderASTAsText(n.Left, indent), n.Operator, RenderASTAsText(n.Right, indent))

	case *ast.PrefixExpression:
		op := n.Operator
		if op == "not" {
			op += " "
		}
		return fmt.Sprintf("(%s%s)", op, RenderASTAsText(n.Right, indent))

	case *ast.CallExpression:
		return fmt.Sprintf("%s(%s)", RenderASTAsText(n.Function, indent), renderList(n.Arguments, indent))

	case *ast.IndexExpression:
		return fmt.Sprintf("%s[%s]", RenderASTAsText(n.Left, indent), RenderASTAsText(n.Index, indent))

	case *ast.SliceExpression:
		start := ""
		if n.Start != nil {
			start = RenderASTAsText(n.Start, indent)
		}
		end := ""
		if n.End != nil {
			end = RenderASTAsText(n.End, indent)
		}
		step := ""
		if n.Step != nil {
			step = ":" + RenderASTAsText(n.Step, indent)
		}
		return fmt.Sprintf("%s[%s:%s%s]", RenderASTAsText(n.Left, indent), start, end, step)

	case *ast.ListLiteral:
		return "[" + renderList(n.Elements, indent) + "]"

	case *ast.Identifier:
		return n.Value
	case *ast.NumberLiteral:
		return n.Value
	case *ast.StringLiteral:
		return ast.Quote(n.Value)
	case *ast.BooleanLiteral:
		return fmt.Sprintf("%v", n.Value)
	case *ast.NilLiteral:
		return "nil"

	default:
		return fmt.Sprintf("<unknown:%T>", n)
	}
}

func renderBlock(sb *strings.Builder, stmts []ast.Statement, indent int) {
	for _, s := range stmts {
		sb.WriteString(RenderASTAsText(s, indent))
		sb.WriteString("\n")
	}
}

func renderList(exprs []ast.Expression, indent int) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = RenderASTAsText(e, indent)
	}
	return strings.Join(parts, ", ")
}
