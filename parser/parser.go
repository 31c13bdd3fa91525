// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package parser

import (
	"fmt"
	"io"
	"sort"

	"github.com/lightplayer/lpscript/token"
)

// Error represents a parser error.
type Error struct {
	Pos SourceFilePos
	Msg string
}

func (e Error) Error() string {
	if e.Pos.Filename != "" || e.Pos.IsValid() {
		return fmt.Sprintf("Parse Error: %s\n\tat %s", e.Msg, e.Pos)
	}
	return fmt.Sprintf("Parse Error: %s", e.Msg)
}

// ErrorList is a collection of parser errors.
type ErrorList []*Error

// Add adds a new parser error to the collection.
func (p *ErrorList) Add(pos SourceFilePos, msg string) {
	*p = append(*p, &Error{pos, msg})
}

// Len returns the number of elements in the collection.
func (p ErrorList) Len() int {
	return len(p)
}

func (p ErrorList) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}

func (p ErrorList) Less(i, j int) bool {
	e := &p[i].Pos
	f := &p[j].Pos
	if e.Filename != f.Filename {
		return e.Filename < f.Filename
	}
	if e.Line != f.Line {
		return e.Line < f.Line
	}
	if e.Column != f.Column {
		return e.Column < f.Column
	}
	return p[i].Msg < p[j].Msg
}

// Sort sorts the collection.
func (p ErrorList) Sort() {
	sort.Sort(p)
}

func (p ErrorList) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0], len(p)-1)
}

// Err returns an error equivalent to this error list.
// If the list is empty, Err returns nil.
func (p ErrorList) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// maxNestDepth limits expression and statement nesting to keep the
// recursive descent from blowing the goroutine stack on adversarial input.
const maxNestDepth = 128

// Parser parses the LightPlayer Script source files.
type Parser struct {
	file      *SourceFile
	errors    ErrorList
	scanner   *Scanner
	pool      Pool
	token     token.Token
	pos       Pos
	lit       string
	nestDepth int
	trace     bool
	indent    int
	traceOut  io.Writer
}

// NewParser creates a Parser.
func NewParser(file *SourceFile, src []byte, trace io.Writer) *Parser {
	p := &Parser{
		file:     file,
		trace:    trace != nil,
		traceOut: trace,
	}
	p.scanner = NewScanner(file, src,
		func(pos SourceFilePos, msg string) {
			p.errors.Add(pos, msg)
		})
	p.next()
	return p
}

// ParseFile parses the source and returns an AST file unit.
func (p *Parser) ParseFile() (file *File, err error) {
	defer func() {
		if e := recover(); e != nil {
			if _, ok := e.(bailout); !ok {
				panic(e)
			}
		}
		p.errors.Sort()
		err = p.errors.Err()
	}()

	if p.trace {
		defer untracep(tracep(p, "File"))
	}

	if p.errors.Len() > 0 {
		return nil, p.errors.Err()
	}

	var stmts []StmtID
	for p.token != token.EOF {
		if p.token == token.Semicolon {
			p.next()
			continue
		}
		if p.token.IsTypeKeyword() {
			if id, isStmt := p.parseTopLevelDecl(); isStmt {
				stmts = append(stmts, id)
			}
			continue
		}
		stmts = append(stmts, p.parseStmt())
	}
	if p.errors.Len() > 0 {
		return nil, p.errors.Err()
	}
	return &File{Input: p.file, Pool: p.pool, Stmts: stmts}, nil
}

// bailout aborts parsing when too many errors accumulated or nesting got too
// deep.
type bailout struct{}

func (p *Parser) next() {
	if p.trace && p.pos.IsValid() {
		s := p.token.String()
		switch {
		case p.token.IsLiteral():
			p.printTrace(s, p.lit)
		case p.token.IsOperator(), p.token.IsKeyword():
			p.printTrace(`"` + s + `"`)
		default:
			p.printTrace(s)
		}
	}
	p.token, p.lit, p.pos = p.scanner.Scan()
}

func (p *Parser) error(pos Pos, msg string) {
	filePos := p.file.Position(pos)
	n := len(p.errors)
	if n > 0 && p.errors[n-1].Pos.Line == filePos.Line {
		// discard errors reported on the same line
		return
	}
	if n > 10 {
		panic(bailout{})
	}
	p.errors.Add(filePos, msg)
}

func (p *Parser) errorExpected(pos Pos, msg string) {
	msg = "expected " + msg
	if pos == p.pos {
		// error happened at the current position: provide more specific
		switch {
		case p.token.IsLiteral():
			msg += ", found " + p.lit
		default:
			msg += ", found '" + p.token.String() + "'"
		}
	}
	p.error(pos, msg)
}

func (p *Parser) expect(tok token.Token) Pos {
	pos := p.pos
	if p.token != tok {
		p.errorExpected(pos, "'"+tok.String()+"'")
	}
	p.next()
	return pos
}

func (p *Parser) expectSemi() {
	switch p.token {
	case token.Semicolon:
		p.next()
	case token.RBrace, token.EOF:
		// permissive before a closing brace, like the reference grammar
	default:
		p.errorExpected(p.pos, "';'")
		p.advance(stmtStart)
	}
}

// stmtStart tokens that may begin a statement, used for error recovery.
var stmtStart = map[token.Token]bool{
	token.If:     true,
	token.While:  true,
	token.For:    true,
	token.Return: true,
	token.TFloat: true,
	token.TInt:   true,
	token.TBool:  true,
	token.TVec2:  true,
	token.TVec3:  true,
	token.TVec4:  true,
	token.TVoid:  true,
	token.LBrace: true,
}

// advance consumes tokens until the current token is in the set or EOF.
func (p *Parser) advance(to map[token.Token]bool) {
	for ; p.token != token.EOF; p.next() {
		if to[p.token] {
			return
		}
	}
}

// parseTopLevelDecl parses either a function declaration or a top-level
// variable declaration. Both start with a type keyword and a name; a '('
// after the name makes it a function. Returns the statement id and true for
// a variable declaration; functions go straight into the pool.
func (p *Parser) parseTopLevelDecl() (StmtID, bool) {
	if p.trace {
		defer untracep(tracep(p, "TopLevelDecl"))
	}
	pos := p.pos
	typeTok := p.token
	p.next()
	name := p.lit
	p.expect(token.Ident)

	if p.token != token.LParen {
		return p.parseDeclRest(pos, typeTok, name), true
	}
	p.expect(token.LParen)
	var params []Param
	for p.token != token.RParen && p.token != token.EOF {
		if len(params) > 0 {
			p.expect(token.Comma)
		}
		prmPos := p.pos
		prmType := p.token
		if !prmType.IsTypeKeyword() || prmType == token.TVoid {
			p.errorExpected(p.pos, "parameter type")
		}
		p.next()
		prmName := p.lit
		p.expect(token.Ident)
		params = append(params, Param{Name: prmName, Type: prmType, Pos: prmPos})
	}
	p.expect(token.RParen)
	body := p.parseBlockStmt()
	p.pool.Funcs = append(p.pool.Funcs, FuncDecl{
		Name:       name,
		ReturnType: typeTok,
		Params:     params,
		Body:       body,
		Pos:        pos,
	})
	return NoStmt, false
}

// parseDeclRest finishes a variable declaration whose type keyword and name
// are already consumed.
func (p *Parser) parseDeclRest(pos Pos, typeTok token.Token, name string) StmtID {
	if typeTok == token.TVoid {
		p.error(pos, "cannot declare a variable of type void")
	}
	init := NoExpr
	if p.token == token.Assign {
		p.next()
		init = p.parseExpr()
	}
	p.expectSemi()
	return p.pool.AddStmt(Stmt{
		Kind: DeclStmt,
		Tok:  typeTok,
		Pos:  pos,
		Lit:  name,
		Expr: init,
		Init: NoStmt, Post: NoStmt, Body: NoStmt, Else: NoStmt,
	})
}

func (p *Parser) parseStmt() StmtID {
	if p.trace {
		defer untracep(tracep(p, "Statement"))
	}
	p.nestDepth++
	if p.nestDepth > maxNestDepth {
		p.error(p.pos, "statement nesting too deep")
		panic(bailout{})
	}
	defer func() { p.nestDepth-- }()
	switch p.token {
	case token.TFloat, token.TInt, token.TBool,
		token.TVec2, token.TVec3, token.TVec4, token.TVoid:
		return p.parseDeclStmt()
	case token.If:
		return p.parseIfStmt()
	case token.While:
		return p.parseWhileStmt()
	case token.For:
		return p.parseForStmt()
	case token.Return:
		return p.parseReturnStmt()
	case token.LBrace:
		return p.parseBlockStmt()
	case token.Semicolon:
		pos := p.pos
		p.next()
		return p.pool.AddStmt(emptyBlock(pos))
	default:
		return p.parseExprStmt()
	}
}

func emptyBlock(pos Pos) Stmt {
	return Stmt{
		Kind: BlockStmt,
		Pos:  pos,
		Expr: NoExpr,
		Init: NoStmt, Post: NoStmt, Body: NoStmt, Else: NoStmt,
	}
}

func (p *Parser) parseDeclStmt() StmtID {
	if p.trace {
		defer untracep(tracep(p, "DeclStmt"))
	}
	pos := p.pos
	typeTok := p.token
	p.next()
	name := p.lit
	p.expect(token.Ident)
	return p.parseDeclRest(pos, typeTok, name)
}

func (p *Parser) parseIfStmt() StmtID {
	if p.trace {
		defer untracep(tracep(p, "IfStmt"))
	}
	pos := p.expect(token.If)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseStmt()
	elseStmt := NoStmt
	if p.token == token.Else {
		p.next()
		elseStmt = p.parseStmt()
	}
	return p.pool.AddStmt(Stmt{
		Kind: IfStmt,
		Pos:  pos,
		Expr: cond,
		Init: NoStmt, Post: NoStmt,
		Body: body,
		Else: elseStmt,
	})
}

func (p *Parser) parseWhileStmt() StmtID {
	if p.trace {
		defer untracep(tracep(p, "WhileStmt"))
	}
	pos := p.expect(token.While)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseStmt()
	return p.pool.AddStmt(Stmt{
		Kind: WhileStmt,
		Pos:  pos,
		Expr: cond,
		Init: NoStmt, Post: NoStmt,
		Body: body,
		Else: NoStmt,
	})
}

func (p *Parser) parseForStmt() StmtID {
	if p.trace {
		defer untracep(tracep(p, "ForStmt"))
	}
	pos := p.expect(token.For)
	p.expect(token.LParen)

	init := NoStmt
	if p.token != token.Semicolon {
		if p.token.IsTypeKeyword() {
			init = p.parseDeclStmt()
		} else {
			expr := p.parseExpr()
			p.expectSemi()
			init = p.pool.AddStmt(Stmt{
				Kind: ExprStmt, Pos: pos, Expr: expr,
				Init: NoStmt, Post: NoStmt, Body: NoStmt, Else: NoStmt,
			})
		}
	} else {
		p.next()
	}

	cond := NoExpr
	if p.token != token.Semicolon {
		cond = p.parseExpr()
	}
	p.expect(token.Semicolon)

	post := NoStmt
	if p.token != token.RParen {
		postPos := p.pos
		expr := p.parseExpr()
		post = p.pool.AddStmt(Stmt{
			Kind: ExprStmt, Pos: postPos, Expr: expr,
			Init: NoStmt, Post: NoStmt, Body: NoStmt, Else: NoStmt,
		})
	}
	p.expect(token.RParen)
	body := p.parseStmt()
	return p.pool.AddStmt(Stmt{
		Kind: ForStmt,
		Pos:  pos,
		Expr: cond,
		Init: init,
		Post: post,
		Body: body,
		Else: NoStmt,
	})
}

func (p *Parser) parseReturnStmt() StmtID {
	if p.trace {
		defer untracep(tracep(p, "ReturnStmt"))
	}
	pos := p.expect(token.Return)
	result := NoExpr
	if p.token != token.Semicolon && p.token != token.RBrace &&
		p.token != token.EOF {
		result = p.parseExpr()
	}
	p.expectSemi()
	return p.pool.AddStmt(Stmt{
		Kind: ReturnStmt,
		Pos:  pos,
		Expr: result,
		Init: NoStmt, Post: NoStmt, Body: NoStmt, Else: NoStmt,
	})
}

func (p *Parser) parseBlockStmt() StmtID {
	if p.trace {
		defer untracep(tracep(p, "BlockStmt"))
	}
	pos := p.expect(token.LBrace)
	var list []StmtID
	for p.token != token.RBrace && p.token != token.EOF {
		if p.token == token.Semicolon {
			p.next()
			continue
		}
		list = append(list, p.parseStmt())
	}
	p.expect(token.RBrace)
	rng := p.pool.AddStmtList(list)
	return p.pool.AddStmt(Stmt{
		Kind: BlockStmt,
		Pos:  pos,
		Expr: NoExpr,
		Init: NoStmt, Post: NoStmt, Body: NoStmt, Else: NoStmt,
		List: rng,
	})
}

func (p *Parser) parseExprStmt() StmtID {
	if p.trace {
		defer untracep(tracep(p, "ExprStmt"))
	}
	pos := p.pos
	expr := p.parseExpr()
	p.expectSemi()
	return p.pool.AddStmt(Stmt{
		Kind: ExprStmt,
		Pos:  pos,
		Expr: expr,
		Init: NoStmt, Post: NoStmt, Body: NoStmt, Else: NoStmt,
	})
}

func (p *Parser) parseExpr() ExprID {
	if p.trace {
		defer untracep(tracep(p, "Expression"))
	}
	p.nestDepth++
	if p.nestDepth > maxNestDepth {
		p.error(p.pos, "expression nesting too deep")
		panic(bailout{})
	}
	defer func() { p.nestDepth-- }()

	x := p.parseTernaryExpr()
	if !p.token.IsAssignOp() {
		return x
	}

	// assignment, right associative
	opPos := p.pos
	op := p.token
	p.next()
	y := p.parseExpr()

	target := p.pool.Expr(x)
	if target.Kind != Ident && target.Kind != MemberExpr {
		p.error(opPos, "cannot assign to this expression")
	}
	if binOp := op.CompoundOp(); binOp != token.Illegal {
		// a op= b desugars to a = a op b; the target node is shared
		y = p.pool.AddExpr(Expr{
			Kind: BinaryExpr,
			Tok:  binOp,
			Pos:  opPos,
			X:    x,
			Y:    y,
			Z:    NoExpr,
		})
	}
	return p.pool.AddExpr(Expr{
		Kind: AssignExpr,
		Tok:  token.Assign,
		Pos:  opPos,
		X:    x,
		Y:    y,
		Z:    NoExpr,
	})
}

func (p *Parser) parseTernaryExpr() ExprID {
	cond := p.parseBinaryExpr(token.LowestPrec + 1)
	if p.token != token.Question {
		return cond
	}
	pos := p.pos
	p.next()
	thenExpr := p.parseExpr()
	p.expect(token.Colon)
	elseExpr := p.parseTernaryExpr()
	return p.pool.AddExpr(Expr{
		Kind: TernaryExpr,
		Pos:  pos,
		X:    cond,
		Y:    thenExpr,
		Z:    elseExpr,
	})
}

func (p *Parser) parseBinaryExpr(prec1 int) ExprID {
	if p.trace {
		defer untracep(tracep(p, "BinaryExpression"))
	}
	x := p.parseUnaryExpr()
	for {
		op := p.token
		prec := op.Precedence()
		if prec < prec1 {
			return x
		}
		pos := p.pos
		p.next()
		y := p.parseBinaryExpr(prec + 1)
		x = p.pool.AddExpr(Expr{
			Kind: BinaryExpr,
			Tok:  op,
			Pos:  pos,
			X:    x,
			Y:    y,
			Z:    NoExpr,
		})
	}
}

func (p *Parser) parseUnaryExpr() ExprID {
	if p.trace {
		defer untracep(tracep(p, "UnaryExpression"))
	}
	switch p.token {
	case token.Sub, token.Not, token.Tilde, token.Add:
		pos := p.pos
		op := p.token
		p.next()
		p.nestDepth++
		if p.nestDepth > maxNestDepth {
			p.error(p.pos, "expression nesting too deep")
			panic(bailout{})
		}
		x := p.parseUnaryExpr()
		p.nestDepth--
		if op == token.Add {
			return x // unary plus is a no-op
		}
		return p.pool.AddExpr(Expr{
			Kind: UnaryExpr,
			Tok:  op,
			Pos:  pos,
			X:    x,
			Y:    NoExpr, Z: NoExpr,
		})
	case token.Inc, token.Dec:
		pos := p.pos
		op := p.token
		p.next()
		x := p.parseUnaryExpr()
		if p.pool.Expr(x).Kind != Ident {
			p.error(pos, "'"+op.String()+"' target must be a variable")
		}
		return p.pool.AddExpr(Expr{
			Kind: PreIncDecExpr,
			Tok:  op,
			Pos:  pos,
			X:    x,
			Y:    NoExpr, Z: NoExpr,
		})
	}
	return p.parsePostfixExpr()
}

func (p *Parser) parsePostfixExpr() ExprID {
	x := p.parsePrimaryExpr()
	for {
		switch p.token {
		case token.Period:
			p.next()
			pos := p.pos
			member := p.lit
			p.expect(token.Ident)
			x = p.pool.AddExpr(Expr{
				Kind: MemberExpr,
				Pos:  pos,
				Lit:  member,
				X:    x,
				Y:    NoExpr, Z: NoExpr,
			})
		case token.Inc, token.Dec:
			pos := p.pos
			op := p.token
			p.next()
			if p.pool.Expr(x).Kind != Ident {
				p.error(pos, "'"+op.String()+"' target must be a variable")
			}
			x = p.pool.AddExpr(Expr{
				Kind: PostIncDecExpr,
				Tok:  op,
				Pos:  pos,
				X:    x,
				Y:    NoExpr, Z: NoExpr,
			})
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimaryExpr() ExprID {
	if p.trace {
		defer untracep(tracep(p, "PrimaryExpression"))
	}
	switch p.token {
	case token.Int:
		e := Expr{Kind: IntLit, Pos: p.pos, Lit: p.lit,
			X: NoExpr, Y: NoExpr, Z: NoExpr}
		p.next()
		return p.pool.AddExpr(e)
	case token.Float:
		e := Expr{Kind: FloatLit, Pos: p.pos, Lit: p.lit,
			X: NoExpr, Y: NoExpr, Z: NoExpr}
		p.next()
		return p.pool.AddExpr(e)
	case token.Ident:
		pos := p.pos
		name := p.lit
		p.next()
		if name == "true" || name == "false" {
			return p.pool.AddExpr(Expr{Kind: BoolLit, Pos: pos, Lit: name,
				X: NoExpr, Y: NoExpr, Z: NoExpr})
		}
		if p.token == token.LParen {
			args := p.parseCallArgs()
			return p.pool.AddExpr(Expr{
				Kind: CallExpr,
				Pos:  pos,
				Lit:  name,
				X:    NoExpr, Y: NoExpr, Z: NoExpr,
				Args: args,
			})
		}
		return p.pool.AddExpr(Expr{Kind: Ident, Pos: pos, Lit: name,
			X: NoExpr, Y: NoExpr, Z: NoExpr})
	case token.TVec2, token.TVec3, token.TVec4, token.TFloat,
		token.TInt, token.TBool:
		pos := p.pos
		typeTok := p.token
		p.next()
		if p.token != token.LParen {
			p.errorExpected(p.pos, "'('")
			return p.badExpr(pos)
		}
		args := p.parseCallArgs()
		return p.pool.AddExpr(Expr{
			Kind: ConstructExpr,
			Tok:  typeTok,
			Pos:  pos,
			X:    NoExpr, Y: NoExpr, Z: NoExpr,
			Args: args,
		})
	case token.LParen:
		p.next()
		x := p.parseExpr()
		p.expect(token.RParen)
		return x
	}
	pos := p.pos
	p.errorExpected(pos, "expression")
	p.next() // make progress
	return p.badExpr(pos)
}

func (p *Parser) badExpr(pos Pos) ExprID {
	return p.pool.AddExpr(Expr{Kind: BadExpr, Pos: pos,
		X: NoExpr, Y: NoExpr, Z: NoExpr})
}

func (p *Parser) parseCallArgs() ExprRange {
	p.expect(token.LParen)
	var args []ExprID
	for p.token != token.RParen && p.token != token.EOF {
		if len(args) > 0 {
			p.expect(token.Comma)
		}
		args = append(args, p.parseExpr())
	}
	p.expect(token.RParen)
	return p.pool.AddExprList(args)
}

func (p *Parser) printTrace(a ...interface{}) {
	const (
		dots = ". . . . . . . . . . . . . . . . . . . . "
		n    = len(dots)
	)
	filePos := p.file.Position(p.pos)
	_, _ = fmt.Fprintf(p.traceOut, "%5d: %5d:%3d: ",
		p.pos, filePos.Line, filePos.Column)
	i := 2 * p.indent
	for i > n {
		_, _ = fmt.Fprint(p.traceOut, dots)
		i -= n
	}
	_, _ = fmt.Fprint(p.traceOut, dots[0:i])
	_, _ = fmt.Fprintln(p.traceOut, a...)
}

func tracep(p *Parser, msg string) *Parser {
	p.printTrace(msg, "(")
	p.indent++
	return p
}

func untracep(p *Parser) {
	p.indent--
	p.printTrace(")")
}
