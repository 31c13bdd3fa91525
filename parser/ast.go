// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package parser

import (
	"strings"

	"github.com/lightplayer/lpscript/token"
)

// ExprID identifies an expression node in a Pool. NoExpr marks an absent
// expression.
type ExprID int32

// StmtID identifies a statement node in a Pool. NoStmt marks an absent
// statement.
type StmtID int32

// Invalid node ids.
const (
	NoExpr ExprID = -1
	NoStmt StmtID = -1
)

// ExprKind discriminates expression nodes.
type ExprKind uint8

// List of expression kinds.
const (
	BadExpr ExprKind = iota
	IntLit
	FloatLit
	BoolLit
	Ident
	UnaryExpr
	BinaryExpr
	AssignExpr
	PreIncDecExpr
	PostIncDecExpr
	CallExpr
	ConstructExpr
	MemberExpr
	TernaryExpr
)

// StmtKind discriminates statement nodes.
type StmtKind uint8

// List of statement kinds.
const (
	BadStmt StmtKind = iota
	DeclStmt
	ExprStmt
	BlockStmt
	IfStmt
	WhileStmt
	ForStmt
	ReturnStmt
)

// ExprRange is a span into Pool.ExprLists.
type ExprRange struct {
	Off int32
	Len int32
}

// StmtRange is a span into Pool.StmtLists.
type StmtRange struct {
	Off int32
	Len int32
}

// Expr is an expression node. Fields are shared across kinds:
//
//	IntLit, FloatLit, BoolLit  Lit holds the literal text
//	Ident                      Lit holds the name
//	UnaryExpr                  Tok is the operator, X the operand
//	BinaryExpr                 Tok is the operator, X and Y the operands
//	AssignExpr                 X is the target, Y the value
//	PreIncDecExpr              Tok is ++ or --, X the target
//	PostIncDecExpr             Tok is ++ or --, X the target
//	CallExpr                   Lit is the callee name, Args the arguments
//	ConstructExpr              Tok is the type keyword, Args the arguments
//	MemberExpr                 X is the target, Lit the member name
//	TernaryExpr                X is the condition, Y and Z the branches
type Expr struct {
	Kind ExprKind
	Tok  token.Token
	Pos  Pos
	Lit  string
	X    ExprID
	Y    ExprID
	Z    ExprID
	Args ExprRange
}

// Stmt is a statement node. Fields are shared across kinds:
//
//	DeclStmt    Tok is the type keyword, Lit the name, Expr the initializer
//	ExprStmt    Expr is the expression
//	BlockStmt   List holds the statements
//	IfStmt      Expr is the condition, Body the then block, Else the else
//	WhileStmt   Expr is the condition, Body the block
//	ForStmt     Init, Expr, Post, Body
//	ReturnStmt  Expr is the result, or NoExpr
type Stmt struct {
	Kind StmtKind
	Tok  token.Token
	Pos  Pos
	Lit  string
	Expr ExprID
	Init StmtID
	Post StmtID
	Body StmtID
	Else StmtID
	List StmtRange
}

// Param is a function parameter declaration.
type Param struct {
	Name string
	Type token.Token
	Pos  Pos
}

// FuncDecl is a user function declaration.
type FuncDecl struct {
	Name       string
	ReturnType token.Token
	Params     []Param
	Body       StmtID
	Pos        Pos
}

// Pool is the arena holding every AST node of a parsed file. Nodes reference
// each other by id, never by pointer, so a whole tree is released by dropping
// the Pool.
type Pool struct {
	Exprs     []Expr
	Stmts     []Stmt
	ExprLists []ExprID
	StmtLists []StmtID
	Funcs     []FuncDecl
}

// AddExpr appends an expression node and returns its id.
func (p *Pool) AddExpr(e Expr) ExprID {
	p.Exprs = append(p.Exprs, e)
	return ExprID(len(p.Exprs) - 1)
}

// AddStmt appends a statement node and returns its id.
func (p *Pool) AddStmt(s Stmt) StmtID {
	p.Stmts = append(p.Stmts, s)
	return StmtID(len(p.Stmts) - 1)
}

// AddExprList appends an id list and returns its range.
func (p *Pool) AddExprList(ids []ExprID) ExprRange {
	off := int32(len(p.ExprLists))
	p.ExprLists = append(p.ExprLists, ids...)
	return ExprRange{Off: off, Len: int32(len(ids))}
}

// AddStmtList appends an id list and returns its range.
func (p *Pool) AddStmtList(ids []StmtID) StmtRange {
	off := int32(len(p.StmtLists))
	p.StmtLists = append(p.StmtLists, ids...)
	return StmtRange{Off: off, Len: int32(len(ids))}
}

// Expr returns the expression node for id.
func (p *Pool) Expr(id ExprID) *Expr {
	return &p.Exprs[id]
}

// Stmt returns the statement node for id.
func (p *Pool) Stmt(id StmtID) *Stmt {
	return &p.Stmts[id]
}

// ExprList resolves a range into node ids.
func (p *Pool) ExprList(r ExprRange) []ExprID {
	return p.ExprLists[r.Off : r.Off+r.Len]
}

// StmtList resolves a range into node ids.
func (p *Pool) StmtList(r StmtRange) []StmtID {
	return p.StmtLists[r.Off : r.Off+r.Len]
}

// File is the result of parsing a script: the node pool, the top-level
// statements forming the implicit main body, and any function declarations.
type File struct {
	Input *SourceFile
	Pool  Pool
	Stmts []StmtID
}

func (f *File) String() string {
	var sb strings.Builder
	for i := range f.Pool.Funcs {
		if i > 0 {
			sb.WriteString(" ")
		}
		f.writeFunc(&sb, &f.Pool.Funcs[i])
	}
	for i, id := range f.Stmts {
		if i > 0 || len(f.Pool.Funcs) > 0 {
			sb.WriteString(" ")
		}
		f.writeStmt(&sb, id)
	}
	return sb.String()
}

func (f *File) writeFunc(sb *strings.Builder, fn *FuncDecl) {
	sb.WriteString(fn.ReturnType.String())
	sb.WriteString(" ")
	sb.WriteString(fn.Name)
	sb.WriteString("(")
	for i, prm := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(prm.Type.String())
		sb.WriteString(" ")
		sb.WriteString(prm.Name)
	}
	sb.WriteString(") ")
	f.writeStmt(sb, fn.Body)
}

func (f *File) writeStmt(sb *strings.Builder, id StmtID) {
	if id == NoStmt {
		return
	}
	s := f.Pool.Stmt(id)
	switch s.Kind {
	case DeclStmt:
		sb.WriteString(s.Tok.String())
		sb.WriteString(" ")
		sb.WriteString(s.Lit)
		if s.Expr != NoExpr {
			sb.WriteString(" = ")
			f.writeExpr(sb, s.Expr)
		}
		sb.WriteString(";")
	case ExprStmt:
		f.writeExpr(sb, s.Expr)
		sb.WriteString(";")
	case BlockStmt:
		sb.WriteString("{")
		for i, sid := range f.Pool.StmtList(s.List) {
			if i > 0 {
				sb.WriteString(" ")
			}
			f.writeStmt(sb, sid)
		}
		sb.WriteString("}")
	case IfStmt:
		sb.WriteString("if (")
		f.writeExpr(sb, s.Expr)
		sb.WriteString(") ")
		f.writeStmt(sb, s.Body)
		if s.Else != NoStmt {
			sb.WriteString(" else ")
			f.writeStmt(sb, s.Else)
		}
	case WhileStmt:
		sb.WriteString("while (")
		f.writeExpr(sb, s.Expr)
		sb.WriteString(") ")
		f.writeStmt(sb, s.Body)
	case ForStmt:
		sb.WriteString("for (")
		if s.Init != NoStmt {
			f.writeStmt(sb, s.Init)
		} else {
			sb.WriteString(";")
		}
		sb.WriteString(" ")
		if s.Expr != NoExpr {
			f.writeExpr(sb, s.Expr)
		}
		sb.WriteString("; ")
		if s.Post != NoStmt {
			ps := f.Pool.Stmt(s.Post)
			if ps.Kind == ExprStmt {
				f.writeExpr(sb, ps.Expr)
			} else {
				f.writeStmt(sb, s.Post)
			}
		}
		sb.WriteString(") ")
		f.writeStmt(sb, s.Body)
	case ReturnStmt:
		sb.WriteString("return")
		if s.Expr != NoExpr {
			sb.WriteString(" ")
			f.writeExpr(sb, s.Expr)
		}
		sb.WriteString(";")
	default:
		sb.WriteString("<bad stmt>")
	}
}

func (f *File) writeExpr(sb *strings.Builder, id ExprID) {
	if id == NoExpr {
		return
	}
	e := f.Pool.Expr(id)
	switch e.Kind {
	case IntLit, FloatLit, BoolLit, Ident:
		sb.WriteString(e.Lit)
	case UnaryExpr:
		sb.WriteString("(")
		sb.WriteString(e.Tok.String())
		f.writeExpr(sb, e.X)
		sb.WriteString(")")
	case BinaryExpr:
		sb.WriteString("(")
		f.writeExpr(sb, e.X)
		sb.WriteString(" ")
		sb.WriteString(e.Tok.String())
		sb.WriteString(" ")
		f.writeExpr(sb, e.Y)
		sb.WriteString(")")
	case AssignExpr:
		f.writeExpr(sb, e.X)
		sb.WriteString(" = ")
		f.writeExpr(sb, e.Y)
	case PreIncDecExpr:
		sb.WriteString(e.Tok.String())
		f.writeExpr(sb, e.X)
	case PostIncDecExpr:
		f.writeExpr(sb, e.X)
		sb.WriteString(e.Tok.String())
	case CallExpr, ConstructExpr:
		if e.Kind == CallExpr {
			sb.WriteString(e.Lit)
		} else {
			sb.WriteString(e.Tok.String())
		}
		sb.WriteString("(")
		for i, aid := range f.Pool.ExprList(e.Args) {
			if i > 0 {
				sb.WriteString(", ")
			}
			f.writeExpr(sb, aid)
		}
		sb.WriteString(")")
	case MemberExpr:
		f.writeExpr(sb, e.X)
		sb.WriteString(".")
		sb.WriteString(e.Lit)
	case TernaryExpr:
		sb.WriteString("(")
		f.writeExpr(sb, e.X)
		sb.WriteString(" ? ")
		f.writeExpr(sb, e.Y)
		sb.WriteString(" : ")
		f.writeExpr(sb, e.Z)
		sb.WriteString(")")
	default:
		sb.WriteString("<bad expr>")
	}
}
