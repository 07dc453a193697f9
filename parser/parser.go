package parser

import (
	"fmt"

	"github.com/cpp20120/BVM/ast"
	"github.com/cpp20120/BVM/lexer"
)

// Parser consumes a pre-tokenized list with a single cursor. It never
// rewinds and looks at most one token ahead outside of expressions,
// where precedence climbing recurses on the same cursor.
type Parser struct {
	toks []lexer.Token
	pos  int
	cur  lexer.Token
	peek lexer.Token
}

// New builds a parser over a token stream already produced to
// completion by the lexer.
func New(toks []lexer.Token) *Parser {
	p := &Parser{toks: toks}
	p.cur = p.at(0)
	p.peek = p.at(1)
	return p
}

func (p *Parser) at(i int) lexer.Token {
	if i >= len(p.toks) {
		if len(p.toks) == 0 {
			return lexer.Token{Type: lexer.EOF}
		}
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) next() {
	p.pos++
	p.cur = p.at(p.pos)
	p.peek = p.at(p.pos + 1)
}

func sp(tok lexer.Token) ast.Span { return ast.Span{Line: tok.Line, Col: tok.Col} }

func (p *Parser) skipNewlines() {
	for p.cur.Type == lexer.NEWLINE || p.cur.Type == lexer.COMMENT {
		p.next()
	}
}

// ParseProgram parses a full token stream into a Program node.
func ParseProgram(toks []lexer.Token) (*ast.Program, error) {
	p := New(toks)
	return p.parseProgram()
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	first := p.cur
	stmts := []ast.Stmt{}
	p.skipNewlines()
	for p.cur.Type != lexer.EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.skipNewlines()
	}
	return &ast.Program{S: sp(first), Stmts: stmts}, nil
}

func (p *Parser) parseBlockUntil(terminators ...lexer.TokenType) ([]ast.Stmt, error) {
	block := []ast.Stmt{}
	p.skipNewlines()
	for p.cur.Type != lexer.EOF && !p.isOneOf(p.cur.Type, terminators...) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block = append(block, stmt)
		p.skipNewlines()
	}
	return block, nil
}

func (p *Parser) isOneOf(t lexer.TokenType, list ...lexer.TokenType) bool {
	for _, x := range list {
		if t == x {
			return true
		}
	}
	return false
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur.Type {
	case lexer.PRINT:
		return p.parsePrint()
	case lexer.LET:
		return p.parseLet()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.REPEAT:
		return p.parseRepeat()
	case lexer.FOR:
		return p.parseFor()
	case lexer.INPUT:
		return p.parseInput()
	case lexer.CONTINUE:
		tok := p.cur
		p.next()
		return &ast.ContinueStmt{S: sp(tok)}, nil
	case lexer.EXIT:
		tok := p.cur
		p.next()
		return &ast.ExitStmt{S: sp(tok)}, nil
	default:
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected a statement but found %s '%s'", p.cur.Type, p.cur.Text))
	}
}

func (p *Parser) parsePrint() (ast.Stmt, error) {
	tok := p.cur
	p.next()
	exprs := []ast.Expr{}
	if !p.atStmtEnd() {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		for p.cur.Type == lexer.COMMA {
			p.next()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
	}
	return &ast.PrintStmt{S: sp(tok), Exprs: exprs}, nil
}

func (p *Parser) atStmtEnd() bool {
	return p.cur.Type == lexer.NEWLINE || p.cur.Type == lexer.EOF || p.cur.Type == lexer.COMMENT
}

// LET id '=' expr  |  LET id '[' expr ']' '=' expr
func (p *Parser) parseLet() (ast.Stmt, error) {
	letTok := p.cur
	p.next()
	if p.cur.Type != lexer.IDENT {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected identifier after LET but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	nameTok := p.cur
	name := nameTok.Text
	p.next()

	if p.cur.Type == lexer.LBRACKET {
		p.next()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != lexer.RBRACKET {
			return nil, p.errAt(p.cur, fmt.Sprintf("Expected ']' but found %s '%s'", p.cur.Type, p.cur.Text))
		}
		p.next()
		if p.cur.Type != lexer.ASSIGN {
			return nil, p.errAt(p.cur, fmt.Sprintf("Expected '=' but found %s '%s'", p.cur.Type, p.cur.Text))
		}
		p.next()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignIndexStmt{S: sp(letTok), Name: name, Index: idx, Value: val}, nil
	}

	if p.cur.Type != lexer.ASSIGN {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected '=' but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{S: sp(letTok), Name: name, Value: val}, nil
}

// IF expr THEN NL? stmt* (ELSE NL? stmt*)? END IF
func (p *Parser) parseIf() (ast.Stmt, error) {
	ifTok := p.cur
	p.next()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.THEN {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected THEN but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()

	thenBlock, err := p.parseBlockUntil(lexer.ELSE, lexer.END)
	if err != nil {
		return nil, err
	}

	elseBlock := []ast.Stmt{}
	if p.cur.Type == lexer.ELSE {
		p.next()
		elseBlock, err = p.parseBlockUntil(lexer.END)
		if err != nil {
			return nil, err
		}
	}

	if p.cur.Type != lexer.END {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected END IF but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	if p.cur.Type != lexer.IF {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected IF after END but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()

	return &ast.IfStmt{S: sp(ifTok), Cond: cond, Then: thenBlock, Else: elseBlock}, nil
}

// WHILE expr NL? stmt* WEND
func (p *Parser) parseWhile() (ast.Stmt, error) {
	wTok := p.cur
	p.next()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(lexer.WEND)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.WEND {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected WEND but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	return &ast.WhileStmt{S: sp(wTok), Cond: cond, Body: body}, nil
}

// REPEAT NL? stmt* UNTIL expr
func (p *Parser) parseRepeat() (ast.Stmt, error) {
	rTok := p.cur
	p.next()
	body, err := p.parseBlockUntil(lexer.UNTIL)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.UNTIL {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected UNTIL but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.RepeatStmt{S: sp(rTok), Body: body, Cond: cond}, nil
}

// FOR id '=' expr TO expr (STEP expr)? NL? stmt* NEXT id?
func (p *Parser) parseFor() (ast.Stmt, error) {
	forTok := p.cur
	p.next()
	if p.cur.Type != lexer.IDENT {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected loop variable but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	varName := p.cur.Text
	p.next()
	if p.cur.Type != lexer.ASSIGN {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected '=' but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	from, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.TO {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected TO but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	to, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var step ast.Expr
	if p.cur.Type == lexer.STEP {
		p.next()
		step, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlockUntil(lexer.NEXT)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.NEXT {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected NEXT but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	if p.cur.Type == lexer.IDENT {
		p.next() // optional repeated loop-variable name
	}

	return &ast.ForStmt{S: sp(forTok), Var: varName, From: from, To: to, Step: step, Body: body}, nil
}

// INPUT id (',' id)*
func (p *Parser) parseInput() (ast.Stmt, error) {
	tok := p.cur
	p.next()
	if p.cur.Type != lexer.IDENT {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected identifier after INPUT but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	ids := []string{p.cur.Text}
	p.next()
	for p.cur.Type == lexer.COMMA {
		p.next()
		if p.cur.Type != lexer.IDENT {
			return nil, p.errAt(p.cur, fmt.Sprintf("Expected identifier but found %s '%s'", p.cur.Type, p.cur.Text))
		}
		ids = append(ids, p.cur.Text)
		p.next()
	}
	return &ast.InputStmt{S: sp(tok), Ids: ids}, nil
}

// --- expressions: precedence climbing ---

type opInfo struct {
	prec int
	op   string
}

var binaryOps = map[lexer.TokenType]opInfo{
	lexer.OR:    {1, "OR"},
	lexer.AND:   {2, "AND"},
	lexer.EQ:    {3, "=="},
	lexer.NEQ:   {3, "!="},
	lexer.LT:    {3, "<"},
	lexer.LTE:   {3, "<="},
	lexer.GT:    {3, ">"},
	lexer.GTE:   {3, ">="},
	lexer.PLUS:  {4, "+"},
	lexer.MINUS: {4, "-"},
	lexer.STAR:  {5, "*"},
	lexer.SLASH: {5, "/"},
	lexer.PCT:   {5, "%"},
	lexer.CARET: {6, "^"},
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseBinary(1)
}

// parseBinary implements precedence climbing: parse a left operand,
// then repeatedly consume an operator whose precedence is at least
// minPrec, recursing on precedence+1 for the right operand so that
// equal-precedence operators associate left.
func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		info, ok := binaryOps[p.cur.Type]
		if !ok || info.prec < minPrec {
			return left, nil
		}
		opTok := p.cur
		p.next()
		right, err := p.parseBinary(info.prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{S: sp(opTok), Op: info.op, Left: left, Right: right}
	}
}

// unary = ('-' | NOT) unary | postfix — unary binds tighter than any
// binary operator and is right-recursive.
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Type == lexer.MINUS {
		tok := p.cur
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{S: sp(tok), Op: "-", Operand: operand}, nil
	}
	if p.cur.Type == lexer.NOT {
		tok := p.cur
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{S: sp(tok), Op: "NOT", Operand: operand}, nil
	}
	return p.parsePostfix()
}

// postfix = primary ( '[' expr ']' )*
func (p *Parser) parsePostfix() (ast.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.LBRACKET {
		brTok := p.cur
		p.next()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != lexer.RBRACKET {
			return nil, p.errAt(p.cur, fmt.Sprintf("Expected ']' but found %s '%s'", p.cur.Type, p.cur.Text))
		}
		p.next()
		left = &ast.Index{S: sp(brTok), Target: left, Index: idx}
	}
	return left, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur.Type {
	case lexer.NUMBER:
		tok := p.cur
		p.next()
		return &ast.NumberLiteral{S: sp(tok), Lexeme: tok.Text}, nil

	case lexer.STRING:
		tok := p.cur
		p.next()
		return &ast.StringLiteral{S: sp(tok), Value: tok.Text}, nil

	case lexer.IDENT:
		tok := p.cur
		p.next()
		return &ast.Var{S: sp(tok), Name: tok.Text}, nil

	case lexer.LEN, lexer.VAL, lexer.ISNAN:
		return p.parseBuiltinCall()

	case lexer.ARRAY:
		return p.parseNewArray()

	case lexer.LPAREN:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != lexer.RPAREN {
			return nil, p.errAt(p.cur, fmt.Sprintf("Expected ')' but found %s '%s'", p.cur.Type, p.cur.Text))
		}
		p.next()
		return e, nil

	default:
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected an expression but found %s '%s'", p.cur.Type, p.cur.Text))
	}
}

// LEN|VAL|ISNAN '(' args ')'
func (p *Parser) parseBuiltinCall() (ast.Expr, error) {
	tok := p.cur
	name := string(tok.Type)
	p.next()
	if p.cur.Type != lexer.LPAREN {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected '(' after %s but found %s '%s'", name, p.cur.Type, p.cur.Text))
	}
	p.next()
	args := []ast.Expr{}
	if p.cur.Type != lexer.RPAREN {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.cur.Type == lexer.COMMA {
				p.next()
				continue
			}
			break
		}
	}
	if p.cur.Type != lexer.RPAREN {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected ')' but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	return &ast.FuncCall{S: sp(tok), Builtin: lowerBuiltin(name), Args: args}, nil
}

func lowerBuiltin(name string) string {
	switch name {
	case "LEN":
		return "len"
	case "VAL":
		return "val"
	case "ISNAN":
		return "isnan"
	}
	return name
}

// ARRAY '(' size ')'
func (p *Parser) parseNewArray() (ast.Expr, error) {
	tok := p.cur
	p.next()
	if p.cur.Type != lexer.LPAREN {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected '(' after ARRAY but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	size, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != lexer.RPAREN {
		return nil, p.errAt(p.cur, fmt.Sprintf("Expected ')' but found %s '%s'", p.cur.Type, p.cur.Text))
	}
	p.next()
	return &ast.NewArray{S: sp(tok), Size: size}, nil
}

func (p *Parser) errAt(tok lexer.Token, msg string) error {
	return &Fault{Line: tok.Line, Msg: msg}
}
