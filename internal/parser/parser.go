package parser

import (
	"itmoscript/internal/ast"
	"itmoscript/internal/diag"
	"itmoscript/internal/lexer"
	"itmoscript/internal/token"
)

// Equality binds loosest and comparisons sit below the logical operators, so
// `a < b or c` parses as `a < (b or c)`.
const (
	_           int = iota
	LOWEST          // statement level
	EQUALS          // == !=
	COMPARISON      // < > <= >=
	LOGICAL_OR      // or
	LOGICAL_AND     // and
	SUM             // + -
	PRODUCT         // * / %
	PREFIX          // -X +X not X
	POWER           // X ^ Y, right associative
	CALL            // myFunction(X), list[index]
)

var precedences = map[token.TokenType]int{
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       COMPARISON,
	token.LT_EQ:    COMPARISON,
	token.GT:       COMPARISON,
	token.GT_EQ:    COMPARISON,
	token.OR:       LOGICAL_OR,
	token.AND:      LOGICAL_AND,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.CARET:    POWER,
	token.LPAREN:   CALL,
	token.LBRACKET: CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser walks a fully buffered token slice. It stops at the first error.
type Parser struct {
	tokens []token.Token
	pos    int
	err    *diag.Error

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// Parse lexes and parses src in one go.
func Parse(src string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return New(tokens).ParseProgram()
}

// New creates a parser over tokens, which must end with an EOF token.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF})
	}
	p := &Parser{tokens: tokens}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NIL, p.parseNil)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.PLUS, p.parsePrefixExpression)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.EQ, token.NOT_EQ,
		token.LT, token.LT_EQ, token.GT, token.GT_EQ,
		token.OR, token.AND,
		token.PLUS, token.MINUS,
		token.ASTERISK, token.SLASH, token.PERCENT,
		token.CARET,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) curToken() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekToken() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken().Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken().Type == t
}

func (p *Parser) curTokenIsAny(types ...token.TokenType) bool {
	for _, t := range types {
		if p.curTokenIs(t) {
			return true
		}
	}
	return false
}

func (p *Parser) failed() bool {
	return p.err != nil
}

// addError records the first error only; everything after it is noise.
func (p *Parser) addError(pos token.Position, message string) {
	if p.err == nil {
		p.err = diag.Parser(pos, "%s", message)
	}
}

func (p *Parser) noPrefixParseFnError() {
	p.addError(p.curToken().Position, "Unexpected token")
}

// expectPeek advances when the next token has type t, otherwise it records
// message at the next token.
func (p *Parser) expectPeek(t token.TokenType, message string) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(p.peekToken().Position, message)
	return false
}

func (p *Parser) expectCur(t token.TokenType, message string) bool {
	if p.curTokenIs(t) {
		return true
	}
	p.addError(p.curToken().Position, message)
	return false
}

func (p *Parser) skipSemicolons() {
	for p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for !p.failed() {
		p.skipSemicolons()
		if p.curTokenIs(token.EOF) {
			break
		}
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	if p.failed() {
		return nil, p.err
	}
	return program, nil
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken().Type {
	case token.IMPORT:
		return p.parseImportStatement()
	case token.FROM:
		return p.parseFromImportStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IDENT:
		if p.peekTokenIs(token.ASSIGN) {
			return p.parseAssignStatement()
		}
		if _, ok := token.CompoundOperator[p.peekToken().Type]; ok {
			return p.parseCompoundAssignStatement()
		}
	}
	return p.parseExpressionStatement()
}

// parseBlock parses statements after the current token until one of the
// terminators, or EOF, becomes the current token.
func (p *Parser) parseBlock(terminators ...token.TokenType) []ast.Statement {
	stmts := []ast.Statement{}
	p.nextToken()

	for !p.failed() {
		p.skipSemicolons()
		if p.curTokenIs(token.EOF) || p.curTokenIsAny(terminators...) {
			break
		}
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		p.nextToken()
	}

	return stmts
}

func (p *Parser) parseAssignStatement() ast.Statement {
	stmt := &ast.AssignStatement{Token: p.curToken()}
	stmt.Name = &ast.Identifier{Token: p.curToken(), Value: p.curToken().Literal}

	p.nextToken() // =
	p.nextToken()

	stmt.Value = p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}
	return stmt
}

// parseCompoundAssignStatement desugars `x op= rhs` into `x = x op rhs`.
func (p *Parser) parseCompoundAssignStatement() ast.Statement {
	ident := p.curToken()
	name := &ast.Identifier{Token: ident, Value: ident.Literal}

	p.nextToken()
	opToken := p.curToken()
	operator := token.CompoundOperator[opToken.Type]
	p.nextToken()

	rhs := p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}

	return &ast.AssignStatement{
		Token: ident,
		Name:  name,
		Value: &ast.InfixExpression{
			Token:    token.Token{Type: opToken.Type, Literal: operator, Position: ident.Position},
			Left:     &ast.Identifier{Token: ident, Value: ident.Literal},
			Operator: operator,
			Right:    rhs,
		},
	}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken()}

	stmt.Expression = p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken()}

	switch p.peekToken().Type {
	case token.END, token.ELSE, token.EOF, token.SEMICOLON:
		return stmt
	}

	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken()}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if p.failed() || !p.expectPeek(token.THEN, "expected 'then' after condition") {
		return nil
	}
	stmt.Consequence = p.parseBlock(token.ELIF, token.ELSE, token.END)

	for !p.failed() && p.curTokenIs(token.ELIF) {
		p.nextToken()
		clause := ast.ElifClause{Condition: p.parseExpression(LOWEST)}
		if p.failed() || !p.expectPeek(token.THEN, "expected 'then' after elif condition") {
			return nil
		}
		clause.Body = p.parseBlock(token.ELIF, token.ELSE, token.END)
		stmt.Elifs = append(stmt.Elifs, clause)
	}

	if !p.failed() && p.curTokenIs(token.ELSE) {
		stmt.Alternative = p.parseBlock(token.END)
	}

	if p.failed() ||
		!p.expectCur(token.END, "expected 'end'") ||
		!p.expectPeek(token.IF, "expected 'if'") {
		return nil
	}
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken()}

	if !p.expectPeek(token.IDENT, "expected identifier in for loop") {
		return nil
	}
	stmt.Variable = &ast.Identifier{Token: p.curToken(), Value: p.curToken().Literal}

	if !p.expectPeek(token.IN, "expected 'in' after identifier in for loop") {
		return nil
	}
	p.nextToken()
	stmt.Iterable = p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}

	stmt.Body = p.parseBlock(token.END)
	if p.failed() ||
		!p.expectCur(token.END, "expected 'end' to close for loop") ||
		!p.expectPeek(token.FOR, "expected 'for' after end") {
		return nil
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken()}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}

	stmt.Body = p.parseBlock(token.END)
	if p.failed() ||
		!p.expectCur(token.END, "expected 'end' to close while loop") ||
		!p.expectPeek(token.WHILE, "expected 'while' after end") {
		return nil
	}
	return stmt
}

func (p *Parser) parseImportStatement() ast.Statement {
	stmt := &ast.ImportStatement{Token: p.curToken()}

	if !p.expectPeek(token.IDENT, "expected module name after 'import'") {
		return nil
	}
	for {
		stmt.Modules = append(stmt.Modules, &ast.Identifier{Token: p.curToken(), Value: p.curToken().Literal})
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if !p.expectPeek(token.IDENT, "Expected module name") {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseFromImportStatement() ast.Statement {
	stmt := &ast.FromImportStatement{Token: p.curToken()}

	if !p.expectPeek(token.IDENT, "expected module name after 'from'") {
		return nil
	}
	stmt.Module = &ast.Identifier{Token: p.curToken(), Value: p.curToken().Literal}

	if !p.expectPeek(token.IMPORT, "Expected 'import' after module name") {
		return nil
	}

	if p.peekTokenIs(token.ASTERISK) {
		p.nextToken()
		stmt.All = true
		return stmt
	}

	if !p.expectPeek(token.IDENT, "expected name after 'import'") {
		return nil
	}
	for {
		stmt.Names = append(stmt.Names, &ast.Identifier{Token: p.curToken(), Value: p.curToken().Literal})
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if !p.expectPeek(token.IDENT, "expected name after 'import'") {
			return nil
		}
	}
	return stmt
}

// parseExpression is a Pratt loop. Calls and indexing only chain directly
// onto a primary expression, and a parenthesized expression is never called:
// `(f)(x)` is two expressions.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken().Type]
	if prefix == nil {
		p.noPrefixParseFnError()
		return nil
	}
	start := p.curToken().Type
	leftExp := prefix()

	postfix := start != token.MINUS && start != token.PLUS && start != token.NOT
	callable := postfix && start != token.LPAREN

	for !p.failed() && precedence < p.peekPrecedence() {
		switch p.peekToken().Type {
		case token.LPAREN:
			if !callable {
				return leftExp
			}
		case token.LBRACKET:
			if !postfix {
				return leftExp
			}
		default:
			postfix, callable = false, false
		}

		infix := p.infixParseFns[p.peekToken().Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	if p.failed() {
		return nil
	}
	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken().Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken().Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken(), Value: p.curToken().Literal}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	return &ast.NumberLiteral{Token: p.curToken(), Value: p.curToken().Literal}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken(), Value: p.curToken().Literal}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken(), Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNil() ast.Expression {
	return &ast.NilLiteral{Token: p.curToken()}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken(),
		Operator: p.curToken().Literal,
	}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)

	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken(),
		Operator: p.curToken().Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()

	if expression.Operator == "^" {
		// the exponent is a primary: 2 ^ -1 needs parentheses
		switch p.curToken().Type {
		case token.MINUS, token.PLUS, token.NOT:
			p.noPrefixParseFnError()
			return nil
		}
		precedence--
	}
	expression.Right = p.parseExpression(precedence)

	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)

	if p.failed() || !p.expectPeek(token.RPAREN, "expected ')' after expression") {
		return nil
	}

	return exp
}

func (p *Parser) parseListLiteral() ast.Expression {
	list := &ast.ListLiteral{Token: p.curToken()}

	list.Elements = p.parseExpressionList(token.RBRACKET, "expected ']' after list literal")

	return list
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken(), Function: function}
	exp.Arguments = p.parseExpressionList(token.RPAREN, "expected ')' after arguments")
	return exp
}

func (p *Parser) parseExpressionList(end token.TokenType, message string) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for !p.failed() && p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	if p.failed() || !p.expectPeek(end, message) {
		return nil
	}

	return list
}

// parseIndexExpression handles both target[index] and
// target[start:end:step] with every slice part optional.
func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	tok := p.curToken()

	var start ast.Expression
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
	} else {
		p.nextToken()
		start = p.parseExpression(LOWEST)
		if p.failed() {
			return nil
		}
		if !p.peekTokenIs(token.COLON) {
			if !p.expectPeek(token.RBRACKET, "expected ']' after index") {
				return nil
			}
			return &ast.IndexExpression{Token: tok, Left: left, Index: start}
		}
		p.nextToken()
	}

	slice := &ast.SliceExpression{Token: tok, Left: left, Start: start}

	if !p.peekTokenIs(token.RBRACKET) && !p.peekTokenIs(token.COLON) {
		p.nextToken()
		slice.End = p.parseExpression(LOWEST)
		if p.failed() {
			return nil
		}
	}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if !p.peekTokenIs(token.RBRACKET) {
			p.nextToken()
			slice.Step = p.parseExpression(LOWEST)
			if p.failed() {
				return nil
			}
		}
	}

	if !p.expectPeek(token.RBRACKET, "expected ']' after slice") {
		return nil
	}
	return slice
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	lit := &ast.FunctionLiteral{Token: p.curToken()}

	if !p.expectPeek(token.LPAREN, "expected '(' after 'function'") {
		return nil
	}

	lit.Parameters = p.parseFunctionParameters()
	if p.failed() {
		return nil
	}

	lit.Body = p.parseBlock(token.END)
	if p.failed() ||
		!p.expectCur(token.END, "expected 'end' to close function") ||
		!p.expectPeek(token.FUNCTION, "expected 'function' after 'end'") {
		return nil
	}

	return lit
}

func (p *Parser) parseFunctionParameters() []*ast.Identifier {
	identifiers := []*ast.Identifier{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return identifiers
	}

	for {
		if !p.expectPeek(token.IDENT, "expected parameter name") {
			return nil
		}
		identifiers = append(identifiers, &ast.Identifier{Token: p.curToken(), Value: p.curToken().Literal})
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RPAREN, "expected ')' after parameters") {
		return nil
	}

	return identifiers
}
