package parser

import (
	"fmt"

	"pyrite/internal/ast"
	"pyrite/internal/lexer"
)

// ---------------------------------------------------------------------------
// Precedence levels for Pratt expression parsing
// ---------------------------------------------------------------------------

const (
	precNone       = iota
	precOr         // or
	precAnd        // and
	precNot        // not
	precComparison // == != < > <= >= is
	precAdditive   // + -
	precMultiply   // * // %
	precUnary      // -
	precCall       // ()
)

// builtin1 and builtin2 name the calls that get their own tree nodes when
// called with one and two arguments respectively.
var (
	builtin1 = map[string]bool{"print": true, "abs": true}
	builtin2 = map[string]bool{"max": true, "min": true, "pow": true}
)

// ---------------------------------------------------------------------------
// ParseError
// ---------------------------------------------------------------------------

// ParseError represents a single error found during parsing.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column, e.Message)
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the state for a single parse pass over a token stream.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errors []ParseError
}

// Parse is the main entry point. It takes a token slice (as produced by
// lexer.Lex) and returns an AST program plus any parse errors collected.
func Parse(tokens []lexer.Token) (*ast.Program[ast.Unit], []ParseError) {
	p := &Parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	return prog, p.errors
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

// peek returns the current token without consuming it.
func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return lexer.Token{Type: lexer.EOF}
}

// peekAt returns the token at a given offset from the current position.
func (p *Parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= 0 && idx < len(p.tokens) {
		return p.tokens[idx]
	}
	return lexer.Token{Type: lexer.EOF}
}

// advance consumes and returns the current token.
func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

// previous returns the most recently consumed token.
func (p *Parser) previous() lexer.Token {
	if p.pos > 0 {
		return p.tokens[p.pos-1]
	}
	return lexer.Token{Type: lexer.EOF}
}

// check returns true if the current token has the given type.
func (p *Parser) check(typ string) bool {
	return p.peek().Type == typ
}

// match consumes the current token if it matches any of the given types.
func (p *Parser) match(types ...string) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes the current token if it matches typ; otherwise it records
// an error and returns the current token WITHOUT advancing.
func (p *Parser) expect(typ string, msg string) lexer.Token {
	if p.check(typ) {
		return p.advance()
	}
	tok := p.peek()
	p.addError(tok, fmt.Sprintf("%s (got %s %q)", msg, tok.Type, tok.Value))
	return tok
}

// addError appends a ParseError at the given token's location.
func (p *Parser) addError(tok lexer.Token, msg string) {
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Line:    tok.Line,
		Column:  tok.Column,
	})
}

// synchronize skips the rest of the current logical line so parsing can
// resume at the next statement.
func (p *Parser) synchronize() {
	for !p.check(lexer.EOF) && !p.check(lexer.DEDENT) {
		if p.advance().Type == lexer.NEWLINE {
			return
		}
	}
}

// endStatement expects the NEWLINE that terminates a simple statement and
// recovers to the next line if it is missing.
func (p *Parser) endStatement(what string) {
	if p.match(lexer.NEWLINE) {
		return
	}
	p.expect(lexer.NEWLINE, "expected end of line after "+what)
	p.synchronize()
}

// position converts a token into an ast.Position.
func (p *Parser) position(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column}
}

// atVarInit reports whether the upcoming tokens start "name :".
func (p *Parser) atVarInit() bool {
	return p.check(lexer.IDENT) && p.peekAt(1).Type == lexer.COLON
}

// =========================================================================
// Top-level parsing
// =========================================================================

func (p *Parser) parseProgram() *ast.Program[ast.Unit] {
	prog := &ast.Program[ast.Unit]{Pos: p.position(p.peek())}
	inDecls := true

	for !p.check(lexer.EOF) {
		start := p.pos
		switch {
		case p.check(lexer.NEWLINE):
			p.advance()
		case p.check(lexer.INDENT), p.check(lexer.DEDENT):
			p.addError(p.peek(), "unexpected indent")
			p.advance()
		case p.check(lexer.DEF):
			if !inDecls {
				p.addError(p.peek(), "function definitions must come before statements")
			}
			if fn := p.parseFunDef(); fn != nil {
				prog.Funs = append(prog.Funs, fn)
			}
		case p.atVarInit():
			if !inDecls {
				p.addError(p.peek(), "variable declarations must come before statements")
			}
			if v := p.parseVarInit(); v != nil {
				prog.Inits = append(prog.Inits, v)
			}
		default:
			inDecls = false
			if stmt := p.parseStatement(); stmt != nil {
				prog.Stmts = append(prog.Stmts, stmt)
			}
		}
		// Safety: if no tokens were consumed, skip one to avoid an infinite loop.
		if p.pos == start {
			p.advance()
		}
	}

	return prog
}

// parseVarInit parses: <name> : <type> = <literal> NEWLINE
func (p *Parser) parseVarInit() *ast.VarInit[ast.Unit] {
	name := p.advance() // consume IDENT
	p.expect(lexer.COLON, "expected ':' after variable name")
	typ := p.parseType()
	p.expect(lexer.ASSIGN, "expected '=' in variable declaration")
	lit, ok := p.parseLiteral()
	if !ok {
		p.synchronize()
		return nil
	}
	p.endStatement("variable declaration")
	return &ast.VarInit[ast.Unit]{
		Name:  name.Value,
		Type:  typ,
		Value: lit,
		Pos:   p.position(name),
	}
}

// parseLiteral parses an initializer literal: an optionally negated
// integer, True or False.
func (p *Parser) parseLiteral() (ast.Literal, bool) {
	tok := p.peek()
	switch tok.Type {
	case lexer.INT:
		p.advance()
		return ast.Literal{Kind: ast.LitNum, Num: tok.Value, Pos: p.position(tok)}, true
	case lexer.MINUS:
		p.advance()
		num := p.expect(lexer.INT, "expected integer after '-'")
		if num.Type != lexer.INT {
			return ast.Literal{}, false
		}
		return ast.Literal{Kind: ast.LitNum, Num: "-" + num.Value, Pos: p.position(tok)}, true
	case lexer.TRUE, lexer.FALSE:
		p.advance()
		return ast.Literal{Kind: ast.LitBool, Bool: tok.Type == lexer.TRUE, Pos: p.position(tok)}, true
	}
	p.addError(tok, fmt.Sprintf("expected literal initializer, got %s", tok.Type))
	return ast.Literal{}, false
}

// parseType parses a type name. int, bool and None name the builtin types;
// any other identifier names a class.
func (p *Parser) parseType() ast.Type {
	tok := p.peek()
	if tok.Type == lexer.IDENT || tok.Type == lexer.NONE {
		p.advance()
		return ast.TypeFromName(tok.Value)
	}
	p.addError(tok, fmt.Sprintf("expected type name, got %s", tok.Type))
	return ast.TypeNone
}

// parseFunDef parses a function definition. Without "-> type" the
// function returns None.
func (p *Parser) parseFunDef() *ast.FunDef[ast.Unit] {
	tok := p.advance() // consume DEF
	name := p.expect(lexer.IDENT, "expected function name")
	p.expect(lexer.LPAREN, "expected '(' after function name")
	params := p.parseParamList()
	p.expect(lexer.RPAREN, "expected ')' after parameters")

	ret := ast.TypeNone
	if p.match(lexer.ARROW) {
		ret = p.parseType()
	}

	fn := &ast.FunDef[ast.Unit]{
		Name:   name.Value,
		Params: params,
		Ret:    ret,
		Pos:    p.position(tok),
	}
	if !p.openBlock() {
		return fn
	}

	for p.atVarInit() {
		if v := p.parseVarInit(); v != nil {
			fn.Inits = append(fn.Inits, v)
		}
	}
	fn.Body = p.blockBody()
	return fn
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param

	if p.check(lexer.RPAREN) {
		return params
	}

	params = append(params, p.parseParam())
	for p.match(lexer.COMMA) {
		params = append(params, p.parseParam())
	}
	return params
}

func (p *Parser) parseParam() ast.Param {
	name := p.expect(lexer.IDENT, "expected parameter name")
	p.expect(lexer.COLON, "expected ':' after parameter name")
	typ := p.parseType()
	return ast.Param{Name: name.Value, Type: typ, Pos: p.position(name)}
}

// =========================================================================
// Block and statement parsing
// =========================================================================

// openBlock consumes ": NEWLINE INDENT". It reports false, after recording
// an error, when no indented block follows.
func (p *Parser) openBlock() bool {
	p.expect(lexer.COLON, "expected ':' before block")
	p.expect(lexer.NEWLINE, "expected end of line before block")
	if !p.check(lexer.INDENT) {
		p.addError(p.peek(), "expected an indented block")
		return false
	}
	p.advance()
	return true
}

// blockBody parses statements up to the DEDENT that closes the block.
func (p *Parser) blockBody() []ast.Stmt[ast.Unit] {
	var stmts []ast.Stmt[ast.Unit]
	for !p.check(lexer.DEDENT) && !p.check(lexer.EOF) {
		start := p.pos
		if p.atVarInit() {
			p.addError(p.peek(), "variable declarations must come before statements")
			p.parseVarInit()
			continue
		}
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.pos == start {
			p.advance()
		}
	}
	p.expect(lexer.DEDENT, "expected end of block")
	if len(stmts) == 0 {
		p.addError(p.previous(), "block has no statements")
	}
	return stmts
}

// parseBlock parses ": NEWLINE INDENT stmt { stmt } DEDENT".
func (p *Parser) parseBlock() []ast.Stmt[ast.Unit] {
	if !p.openBlock() {
		p.synchronize()
		return nil
	}
	return p.blockBody()
}

func (p *Parser) parseStatement() ast.Stmt[ast.Unit] {
	tok := p.peek()
	switch tok.Type {
	case lexer.PASS:
		p.advance()
		p.endStatement("pass")
		return &ast.PassStmt[ast.Unit]{Pos: p.position(tok)}
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.DEF:
		p.addError(tok, "nested function definitions are not supported")
		p.parseFunDef()
		return nil
	case lexer.INDENT:
		p.addError(tok, "unexpected indent")
		p.advance()
		return nil
	case lexer.NEWLINE:
		p.advance()
		return nil
	}
	if tok.Type == lexer.IDENT && p.peekAt(1).Type == lexer.ASSIGN {
		return p.parseAssignStmt()
	}
	expr := p.parseExpression()
	p.endStatement("expression")
	return &ast.ExprStmt[ast.Unit]{Expression: expr, Pos: expr.GetPos()}
}

// ---- Assign ----

func (p *Parser) parseAssignStmt() *ast.AssignStmt[ast.Unit] {
	name := p.advance() // consume IDENT
	p.advance()         // consume =
	value := p.parseExpression()
	p.endStatement("assignment")
	return &ast.AssignStmt[ast.Unit]{Name: name.Value, Value: value, Pos: p.position(name)}
}

// ---- Return ----

func (p *Parser) parseReturnStmt() *ast.ReturnStmt[ast.Unit] {
	tok := p.advance() // consume RETURN
	if p.check(lexer.NEWLINE) {
		p.addError(p.peek(), "return requires a value")
		p.advance()
		return nil
	}
	value := p.parseExpression()
	p.endStatement("return statement")
	return &ast.ReturnStmt[ast.Unit]{Value: value, Pos: p.position(tok)}
}

// ---- If ----

// parseIfStmt handles both "if" and "elif"; an elif chain becomes an if
// nested in the else branch. A missing else branch is a single pass.
func (p *Parser) parseIfStmt() *ast.IfStmt[ast.Unit] {
	tok := p.advance() // consume IF or ELIF
	cond := p.parseExpression()
	then := p.parseBlock()

	var els []ast.Stmt[ast.Unit]
	switch {
	case p.check(lexer.ELIF):
		els = []ast.Stmt[ast.Unit]{p.parseIfStmt()}
	case p.match(lexer.ELSE):
		els = p.parseBlock()
	default:
		els = []ast.Stmt[ast.Unit]{&ast.PassStmt[ast.Unit]{Pos: p.position(tok)}}
	}

	return &ast.IfStmt[ast.Unit]{
		Condition: cond,
		Then:      then,
		Else:      els,
		Pos:       p.position(tok),
	}
}

// ---- While ----

func (p *Parser) parseWhileStmt() *ast.WhileStmt[ast.Unit] {
	tok := p.advance() // consume WHILE
	cond := p.parseExpression()
	body := p.parseBlock()
	return &ast.WhileStmt[ast.Unit]{Condition: cond, Body: body, Pos: p.position(tok)}
}

// =========================================================================
// Pratt expression parser
// =========================================================================

// parseExpression is the public entry point for expression parsing.
func (p *Parser) parseExpression() ast.Expr[ast.Unit] {
	return p.parsePrecedence(precOr)
}

// parsePrecedence parses an expression with at least the given minimum
// precedence. This is the core of the Pratt algorithm.
func (p *Parser) parsePrecedence(minPrec int) ast.Expr[ast.Unit] {
	left := p.parsePrefix()

	for {
		prec := infixPrecedence(p.peek().Type)
		if prec == precNone || prec < minPrec {
			break
		}
		left = p.parseInfix(left, prec)
	}

	return left
}

// ---- Prefix (atoms & unary operators) ----

func (p *Parser) parsePrefix() ast.Expr[ast.Unit] {
	tok := p.peek()

	switch tok.Type {
	case lexer.IDENT:
		p.advance()
		return &ast.IdentExpr[ast.Unit]{Name: tok.Value, Pos: p.position(tok)}

	case lexer.INT:
		p.advance()
		lit := ast.Literal{Kind: ast.LitNum, Num: tok.Value, Pos: p.position(tok)}
		return &ast.LitExpr[ast.Unit]{Value: lit, Pos: p.position(tok)}

	case lexer.TRUE, lexer.FALSE:
		p.advance()
		lit := ast.Literal{Kind: ast.LitBool, Bool: tok.Type == lexer.TRUE, Pos: p.position(tok)}
		return &ast.LitExpr[ast.Unit]{Value: lit, Pos: p.position(tok)}

	case lexer.LPAREN:
		p.advance() // consume (
		expr := p.parseExpression()
		p.expect(lexer.RPAREN, "expected ')' after expression")
		return expr

	case lexer.MINUS:
		p.advance()
		operand := p.parsePrecedence(precUnary)
		return &ast.UnaryExpr[ast.Unit]{Op: ast.Neg, Operand: operand, Pos: p.position(tok)}

	case lexer.NOT:
		p.advance()
		operand := p.parsePrecedence(precNot)
		return &ast.UnaryExpr[ast.Unit]{Op: ast.Not, Operand: operand, Pos: p.position(tok)}

	case lexer.NONE:
		p.addError(tok, "None cannot be used as a value")
		p.advance()
		return &ast.IdentExpr[ast.Unit]{Name: "<error>", Pos: p.position(tok)}

	default:
		p.addError(tok, fmt.Sprintf("unexpected token %s in expression", tok.Type))
		if tok.Type != lexer.NEWLINE && tok.Type != lexer.DEDENT {
			p.advance() // consume the bad token so we make progress
		}
		return &ast.IdentExpr[ast.Unit]{Name: "<error>", Pos: p.position(tok)}
	}
}

// ---- Infix precedence table ----

func infixPrecedence(typ string) int {
	switch typ {
	case lexer.OR:
		return precOr
	case lexer.AND:
		return precAnd
	case lexer.EQ, lexer.NEQ, lexer.LT, lexer.GT, lexer.LTE, lexer.GTE, lexer.IS:
		return precComparison
	case lexer.PLUS, lexer.MINUS:
		return precAdditive
	case lexer.STAR, lexer.DSLASH, lexer.PERCENT:
		return precMultiply
	case lexer.LPAREN:
		return precCall
	default:
		return precNone
	}
}

var binaryOps = map[string]ast.BinOp{
	lexer.PLUS:    ast.Plus,
	lexer.MINUS:   ast.Minus,
	lexer.STAR:    ast.Mul,
	lexer.DSLASH:  ast.IDiv,
	lexer.PERCENT: ast.Mod,
	lexer.EQ:      ast.Eq,
	lexer.NEQ:     ast.Neq,
	lexer.LTE:     ast.Lte,
	lexer.GTE:     ast.Gte,
	lexer.LT:      ast.Lt,
	lexer.GT:      ast.Gt,
	lexer.AND:     ast.And,
	lexer.OR:      ast.Or,
	lexer.IS:      ast.Is,
}

// ---- Infix / postfix dispatch ----

func (p *Parser) parseInfix(left ast.Expr[ast.Unit], prec int) ast.Expr[ast.Unit] {
	tok := p.peek()

	if tok.Type == lexer.LPAREN {
		return p.parseCallExpr(left)
	}

	// Binary operator (left-associative: recurse with prec+1).
	p.advance()
	right := p.parsePrecedence(prec + 1)
	return &ast.BinaryExpr[ast.Unit]{
		Op:    binaryOps[tok.Type],
		Left:  left,
		Right: right,
		Pos:   p.position(tok),
	}
}

// parseCallExpr: <name> ( [args] )
func (p *Parser) parseCallExpr(callee ast.Expr[ast.Unit]) ast.Expr[ast.Unit] {
	tok := p.advance() // consume (
	var args []ast.Expr[ast.Unit]

	if !p.check(lexer.RPAREN) {
		args = append(args, p.parseExpression())
		for p.match(lexer.COMMA) {
			args = append(args, p.parseExpression())
		}
	}

	p.expect(lexer.RPAREN, "expected ')' after arguments")

	id, ok := callee.(*ast.IdentExpr[ast.Unit])
	if !ok {
		p.addError(tok, "only named functions can be called")
		return callee
	}
	pos := id.Pos
	switch {
	case len(args) == 1 && builtin1[id.Name]:
		return &ast.Builtin1Expr[ast.Unit]{Name: id.Name, Arg: args[0], Pos: pos}
	case len(args) == 2 && builtin2[id.Name]:
		return &ast.Builtin2Expr[ast.Unit]{Name: id.Name, Left: args[0], Right: args[1], Pos: pos}
	default:
		return &ast.CallExpr[ast.Unit]{Name: id.Name, Args: args, Pos: pos}
	}
}
