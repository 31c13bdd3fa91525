// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import (
	"fmt"

	"github.com/lightplayer/lpscript/parser"
	"github.com/lightplayer/lpscript/token"
)

// FuncSig is a user function signature. Index 0 is reserved for the
// implicit main body built from the top-level statements.
type FuncSig struct {
	Name       string
	Index      int
	ReturnType Type
	ParamTypes []Type
	ParamNames []string
	ParamSyms  []*Symbol // filled when the body is checked
	Decl       int       // index into Pool.Funcs, -1 for main
}

type callKind uint8

const (
	callNative callKind = iota
	callUser
)

type callInfo struct {
	Kind          callKind
	Native        NativeID
	Componentwise bool
	Fn            int // user function index when Kind == callUser
}

// Info is the checker's output consumed by the code generator. Expression
// types are indexed by ExprID; the maps carry resolution results the arena
// nodes have no room for.
type Info struct {
	ExprTypes []Type
	Idents    map[parser.ExprID]*Symbol
	Inputs    map[parser.ExprID]BuiltinInput
	Decls     map[parser.StmtID]*Symbol
	Calls     map[parser.ExprID]callInfo
	Swizzles  map[parser.ExprID][]int
	Funcs     []*FuncSig
	MainType  Type // inferred return type of the top-level body
}

// TypeOf returns the checked type of an expression.
func (info *Info) TypeOf(id parser.ExprID) Type {
	return info.ExprTypes[id]
}

// Checker type checks a parsed file bottom-up and resolves names, calls and
// swizzles. It stops at the first error.
type Checker struct {
	file  *parser.File
	info  *Info
	table *SymbolTable
	fns   map[string]*FuncSig
	cur   *FuncSig // function being checked; nil for the main body

	// mainTypeSet records that a return in the main body already fixed
	// MainType, distinguishing an inferred void from no return seen yet.
	mainTypeSet bool
}

// Check type checks the file and returns resolution info for codegen.
func Check(file *parser.File) (*Info, error) {
	c := &Checker{
		file: file,
		info: &Info{
			ExprTypes: make([]Type, len(file.Pool.Exprs)),
			Idents:    make(map[parser.ExprID]*Symbol),
			Inputs:    make(map[parser.ExprID]BuiltinInput),
			Decls:     make(map[parser.StmtID]*Symbol),
			Calls:     make(map[parser.ExprID]callInfo),
			Swizzles:  make(map[parser.ExprID][]int),
		},
		table: NewSymbolTable(),
		fns:   make(map[string]*FuncSig),
	}
	if err := c.collectFuncs(); err != nil {
		return nil, err
	}
	for i := range file.Pool.Funcs {
		if err := c.checkFuncBody(i); err != nil {
			return nil, err
		}
	}
	c.cur = nil
	c.info.MainType = Void
	c.table = NewSymbolTable()
	for _, id := range file.Stmts {
		if err := c.checkStmt(id); err != nil {
			return nil, err
		}
	}
	return c.info, nil
}

func (c *Checker) errorf(pos parser.Pos, format string, args ...interface{}) error {
	return &TypeError{
		Pos: c.file.Input.Position(pos),
		Msg: fmt.Sprintf(format, args...),
	}
}

// collectFuncs registers every function signature before any body is
// checked, so functions may call each other regardless of order.
func (c *Checker) collectFuncs() error {
	for i := range c.file.Pool.Funcs {
		fn := &c.file.Pool.Funcs[i]
		if _, exists := c.fns[fn.Name]; exists {
			return c.errorf(fn.Pos, "function '%s' redeclared", fn.Name)
		}
		if _, ok := scalarNatives[fn.Name]; ok {
			return c.errorf(fn.Pos,
				"function '%s' shadows a built-in function", fn.Name)
		}
		switch fn.Name {
		case "length", "normalize", "dot", "distance", "cross":
			return c.errorf(fn.Pos,
				"function '%s' shadows a built-in function", fn.Name)
		}
		ret, ok := TypeFromToken(fn.ReturnType)
		if !ok {
			return c.errorf(fn.Pos, "invalid return type for '%s'", fn.Name)
		}
		sig := &FuncSig{
			Name:       fn.Name,
			Index:      i + 1, // 0 is main
			ReturnType: ret,
			Decl:       i,
		}
		seen := make(map[string]bool)
		for _, prm := range fn.Params {
			pt, ok := TypeFromToken(prm.Type)
			if !ok || pt == Void {
				return c.errorf(prm.Pos, "invalid parameter type")
			}
			if seen[prm.Name] {
				return c.errorf(prm.Pos,
					"duplicate parameter '%s'", prm.Name)
			}
			seen[prm.Name] = true
			sig.ParamTypes = append(sig.ParamTypes, pt)
			sig.ParamNames = append(sig.ParamNames, prm.Name)
		}
		c.fns[fn.Name] = sig
		c.info.Funcs = append(c.info.Funcs, sig)
	}
	return nil
}

func (c *Checker) checkFuncBody(declIdx int) error {
	fn := &c.file.Pool.Funcs[declIdx]
	sig := c.fns[fn.Name]
	c.cur = sig
	c.table = NewSymbolTable()
	sig.ParamSyms = sig.ParamSyms[:0]
	for i, name := range sig.ParamNames {
		sym, ok := c.table.Define(name, sig.ParamTypes[i])
		if !ok {
			return c.errorf(fn.Pos, "duplicate parameter '%s'", name)
		}
		sig.ParamSyms = append(sig.ParamSyms, sym)
	}
	return c.checkStmt(fn.Body)
}

func (c *Checker) checkStmt(id parser.StmtID) error {
	if id == parser.NoStmt {
		return nil
	}
	s := c.file.Pool.Stmt(id)
	switch s.Kind {
	case parser.DeclStmt:
		return c.checkDecl(id, s)
	case parser.ExprStmt:
		_, err := c.checkExpr(s.Expr)
		return err
	case parser.BlockStmt:
		c.table = c.table.Fork()
		defer func() { c.table = c.table.Parent() }()
		for _, sid := range c.file.Pool.StmtList(s.List) {
			if err := c.checkStmt(sid); err != nil {
				return err
			}
		}
		return nil
	case parser.IfStmt:
		if err := c.checkCond(s.Expr); err != nil {
			return err
		}
		if err := c.checkStmt(s.Body); err != nil {
			return err
		}
		return c.checkStmt(s.Else)
	case parser.WhileStmt:
		if err := c.checkCond(s.Expr); err != nil {
			return err
		}
		return c.checkStmt(s.Body)
	case parser.ForStmt:
		// the init declaration scopes over cond, post and body
		c.table = c.table.Fork()
		defer func() { c.table = c.table.Parent() }()
		if err := c.checkStmt(s.Init); err != nil {
			return err
		}
		if s.Expr != parser.NoExpr {
			if err := c.checkCond(s.Expr); err != nil {
				return err
			}
		}
		if err := c.checkStmt(s.Post); err != nil {
			return err
		}
		return c.checkStmt(s.Body)
	case parser.ReturnStmt:
		return c.checkReturn(s)
	}
	return c.errorf(s.Pos, "invalid statement")
}

func (c *Checker) checkDecl(id parser.StmtID, s *parser.Stmt) error {
	typ, ok := TypeFromToken(s.Tok)
	if !ok || typ == Void {
		return c.errorf(s.Pos, "cannot declare variable of type %s", s.Tok)
	}
	if s.Expr != parser.NoExpr {
		vt, err := c.checkExpr(s.Expr)
		if err != nil {
			return err
		}
		if !assignable(typ, vt) {
			return c.errorf(s.Pos,
				"cannot initialize %s '%s' with %s", typ, s.Lit, vt)
		}
	}
	sym, ok := c.table.Define(s.Lit, typ)
	if !ok {
		return c.errorf(s.Pos,
			"variable '%s' redeclared in this block", s.Lit)
	}
	c.info.Decls[id] = sym
	return nil
}

func (c *Checker) checkCond(id parser.ExprID) error {
	t, err := c.checkExpr(id)
	if err != nil {
		return err
	}
	if t != Bool {
		return c.errorf(c.file.Pool.Expr(id).Pos,
			"condition must be bool, got %s", t)
	}
	return nil
}

func (c *Checker) checkReturn(s *parser.Stmt) error {
	var t Type = Void
	if s.Expr != parser.NoExpr {
		var err error
		t, err = c.checkExpr(s.Expr)
		if err != nil {
			return err
		}
	}
	if c.cur != nil {
		want := c.cur.ReturnType
		if want == Void {
			if t != Void {
				return c.errorf(s.Pos,
					"void function '%s' returns a value", c.cur.Name)
			}
			return nil
		}
		if !assignable(want, t) {
			return c.errorf(s.Pos,
				"function '%s' must return %s, got %s",
				c.cur.Name, want, t)
		}
		return nil
	}
	// main body: the first return fixes the script's result type, even a
	// bare return fixing it to void
	if !c.mainTypeSet {
		c.mainTypeSet = true
		c.info.MainType = t
		return nil
	}
	if !assignable(c.info.MainType, t) {
		return c.errorf(s.Pos,
			"inconsistent return types: %s then %s", c.info.MainType, t)
	}
	return nil
}

// assignable reports whether a value of type from may be stored into a
// location of type to. The only implicit conversion is int to float.
func assignable(to, from Type) bool {
	if to == from {
		return true
	}
	return to == Fixed && from == Int32
}

func (c *Checker) checkExpr(id parser.ExprID) (Type, error) {
	t, err := c.inferType(id)
	if err != nil {
		return Void, err
	}
	c.info.ExprTypes[id] = t
	return t, nil
}

func (c *Checker) inferType(id parser.ExprID) (Type, error) {
	e := c.file.Pool.Expr(id)
	switch e.Kind {
	case parser.IntLit:
		return Int32, nil
	case parser.FloatLit:
		return Fixed, nil
	case parser.BoolLit:
		return Bool, nil
	case parser.Ident:
		return c.checkIdent(id, e)
	case parser.UnaryExpr:
		return c.checkUnary(e)
	case parser.BinaryExpr:
		return c.checkBinary(e)
	case parser.AssignExpr:
		return c.checkAssign(e)
	case parser.PreIncDecExpr, parser.PostIncDecExpr:
		return c.checkIncDec(e)
	case parser.CallExpr:
		return c.checkCall(id, e)
	case parser.ConstructExpr:
		return c.checkConstruct(e)
	case parser.MemberExpr:
		return c.checkMember(id, e)
	case parser.TernaryExpr:
		return c.checkTernary(e)
	}
	return Void, c.errorf(e.Pos, "invalid expression")
}

func (c *Checker) checkIdent(id parser.ExprID, e *parser.Expr) (Type, error) {
	if sym, ok := c.table.Resolve(e.Lit); ok {
		c.info.Idents[id] = sym
		return sym.Type, nil
	}
	if b, ok := LookupBuiltinInput(e.Lit); ok {
		c.info.Inputs[id] = b
		return b.Type, nil
	}
	return Void, c.errorf(e.Pos, "undefined variable '%s'", e.Lit)
}

func (c *Checker) checkUnary(e *parser.Expr) (Type, error) {
	t, err := c.checkExpr(e.X)
	if err != nil {
		return Void, err
	}
	switch e.Tok {
	case token.Sub:
		if t.IsNumeric() || t.IsVector() {
			return t, nil
		}
	case token.Not:
		if t == Bool {
			return Bool, nil
		}
	case token.Tilde:
		if t == Int32 {
			return Int32, nil
		}
	}
	return Void, c.errorf(e.Pos, "invalid operand type %s for '%s'", t, e.Tok)
}

func (c *Checker) checkBinary(e *parser.Expr) (Type, error) {
	lt, err := c.checkExpr(e.X)
	if err != nil {
		return Void, err
	}
	rt, err := c.checkExpr(e.Y)
	if err != nil {
		return Void, err
	}
	switch e.Tok {
	case token.Add, token.Sub:
		if lt.IsNumeric() && rt.IsNumeric() {
			return promote(lt, rt), nil
		}
		if lt.IsVector() && lt == rt {
			return lt, nil
		}
	case token.Mul:
		if lt.IsNumeric() && rt.IsNumeric() {
			return promote(lt, rt), nil
		}
		if lt.IsVector() && lt == rt {
			return lt, nil
		}
		if lt.IsVector() && rt.IsNumeric() {
			return lt, nil
		}
		if lt.IsNumeric() && rt.IsVector() {
			return rt, nil
		}
	case token.Quo:
		if lt.IsNumeric() && rt.IsNumeric() {
			return promote(lt, rt), nil
		}
		if lt.IsVector() && lt == rt {
			return lt, nil
		}
		if lt.IsVector() && rt.IsNumeric() {
			return lt, nil
		}
	case token.Rem:
		if lt.IsNumeric() && rt.IsNumeric() {
			return promote(lt, rt), nil
		}
	case token.And, token.Or, token.Xor, token.Shl, token.Shr:
		if lt == Int32 && rt == Int32 {
			return Int32, nil
		}
	case token.LAnd, token.LOr:
		if lt == Bool && rt == Bool {
			return Bool, nil
		}
	case token.Less, token.LessEq, token.Greater, token.GreaterEq:
		if lt.IsNumeric() && rt.IsNumeric() {
			return Bool, nil
		}
	case token.Equal, token.NotEqual:
		if lt == rt && lt != Void {
			return Bool, nil
		}
		if lt.IsNumeric() && rt.IsNumeric() {
			return Bool, nil
		}
	}
	return Void, c.errorf(e.Pos,
		"invalid operand types %s and %s for '%s'", lt, rt, e.Tok)
}

// promote returns the common numeric type of two operands: float wins over
// int.
func promote(a, b Type) Type {
	if a == Fixed || b == Fixed {
		return Fixed
	}
	return Int32
}

func (c *Checker) checkAssign(e *parser.Expr) (Type, error) {
	vt, err := c.checkExpr(e.Y)
	if err != nil {
		return Void, err
	}
	target := c.file.Pool.Expr(e.X)
	switch target.Kind {
	case parser.Ident:
		tt, err := c.checkExpr(e.X)
		if err != nil {
			return Void, err
		}
		if _, isVar := c.info.Idents[e.X]; !isVar {
			return Void, c.errorf(e.Pos,
				"cannot assign to read-only input '%s'", target.Lit)
		}
		if !assignable(tt, vt) {
			return Void, c.errorf(e.Pos,
				"cannot assign %s to %s '%s'", vt, tt, target.Lit)
		}
		return tt, nil
	case parser.MemberExpr:
		tt, err := c.checkExpr(e.X)
		if err != nil {
			return Void, err
		}
		base := c.file.Pool.Expr(target.X)
		if base.Kind != parser.Ident {
			return Void, c.errorf(e.Pos,
				"swizzle assignment target must be a variable")
		}
		if _, isVar := c.info.Idents[target.X]; !isVar {
			return Void, c.errorf(e.Pos,
				"cannot assign to read-only input '%s'", base.Lit)
		}
		indices := c.info.Swizzles[e.X]
		seen := 0
		for _, idx := range indices {
			bit := 1 << uint(idx)
			if seen&bit != 0 {
				return Void, c.errorf(e.Pos,
					"duplicate component in swizzle assignment '%s'",
					target.Lit)
			}
			seen |= bit
		}
		if !assignable(tt, vt) {
			return Void, c.errorf(e.Pos,
				"cannot assign %s to %s", vt, tt)
		}
		return tt, nil
	}
	return Void, c.errorf(e.Pos, "cannot assign to this expression")
}

func (c *Checker) checkIncDec(e *parser.Expr) (Type, error) {
	t, err := c.checkExpr(e.X)
	if err != nil {
		return Void, err
	}
	if _, isVar := c.info.Idents[e.X]; !isVar {
		return Void, c.errorf(e.Pos,
			"'%s' target must be an assignable variable", e.Tok)
	}
	if t != Int32 && t != Fixed {
		return Void, c.errorf(e.Pos,
			"invalid operand type %s for '%s'", t, e.Tok)
	}
	return t, nil
}

func (c *Checker) checkCall(id parser.ExprID, e *parser.Expr) (Type, error) {
	args := c.file.Pool.ExprList(e.Args)
	argTypes := make([]Type, len(args))
	for i, aid := range args {
		t, err := c.checkExpr(aid)
		if err != nil {
			return Void, err
		}
		argTypes[i] = t
	}
	if sig, ok := c.fns[e.Lit]; ok {
		if len(argTypes) != len(sig.ParamTypes) {
			return Void, c.errorf(e.Pos,
				"function '%s' expects %d arguments, got %d",
				e.Lit, len(sig.ParamTypes), len(argTypes))
		}
		for i, pt := range sig.ParamTypes {
			if !assignable(pt, argTypes[i]) {
				return Void, c.errorf(e.Pos,
					"argument %d of '%s' must be %s, got %s",
					i+1, e.Lit, pt, argTypes[i])
			}
		}
		c.info.Calls[id] = callInfo{Kind: callUser, Fn: sig.Index}
		return sig.ReturnType, nil
	}
	nid, result, componentwise, ok := resolveNative(e.Lit, argTypes)
	if !ok {
		if _, known := scalarNatives[e.Lit]; known {
			return Void, c.errorf(e.Pos,
				"invalid arguments for built-in '%s'", e.Lit)
		}
		switch e.Lit {
		case "length", "normalize", "dot", "distance", "cross":
			return Void, c.errorf(e.Pos,
				"invalid arguments for built-in '%s'", e.Lit)
		}
		return Void, c.errorf(e.Pos, "unknown function '%s'", e.Lit)
	}
	c.info.Calls[id] = callInfo{
		Kind:          callNative,
		Native:        nid,
		Componentwise: componentwise,
	}
	return result, nil
}

func (c *Checker) checkConstruct(e *parser.Expr) (Type, error) {
	typ, _ := TypeFromToken(e.Tok)
	args := c.file.Pool.ExprList(e.Args)
	argTypes := make([]Type, len(args))
	for i, aid := range args {
		t, err := c.checkExpr(aid)
		if err != nil {
			return Void, err
		}
		argTypes[i] = t
	}
	switch typ {
	case Fixed:
		if len(args) == 1 && argTypes[0].IsNumeric() {
			return Fixed, nil
		}
	case Int32:
		if len(args) == 1 && argTypes[0].IsNumeric() {
			return Int32, nil
		}
	case Bool:
		return Void, c.errorf(e.Pos, "cannot construct bool")
	case Vec2, Vec3, Vec4:
		want := typ.ComponentCount()
		if len(args) == 1 && argTypes[0].IsNumeric() {
			return typ, nil // scalar splat
		}
		total := 0
		for i, t := range argTypes {
			switch {
			case t.IsNumeric():
				total++
			case t.IsVector():
				total += t.ComponentCount()
			default:
				return Void, c.errorf(e.Pos,
					"invalid %s constructor argument %d of type %s",
					typ, i+1, t)
			}
		}
		if total != want {
			return Void, c.errorf(e.Pos,
				"%s constructor needs %d components, got %d",
				typ, want, total)
		}
		return typ, nil
	}
	return Void, c.errorf(e.Pos, "invalid constructor %s", e.Tok)
}

// swizzleSets are the three equivalent component naming alphabets.
var swizzleSets = [3]string{"xyzw", "rgba", "stpq"}

// swizzleIndices maps a member string like "xy" to component indices.
// Components must all come from one alphabet and stay within width.
func swizzleIndices(member string, width int) ([]int, bool) {
	if len(member) == 0 || len(member) > 4 {
		return nil, false
	}
	for _, set := range swizzleSets {
		indices := make([]int, 0, len(member))
		ok := true
		for _, ch := range member {
			idx := -1
			for i, sc := range set {
				if ch == sc {
					idx = i
					break
				}
			}
			if idx < 0 || idx >= width {
				ok = false
				break
			}
			indices = append(indices, idx)
		}
		if ok {
			return indices, true
		}
	}
	return nil, false
}

func (c *Checker) checkMember(id parser.ExprID, e *parser.Expr) (Type, error) {
	t, err := c.checkExpr(e.X)
	if err != nil {
		return Void, err
	}
	if !t.IsVector() {
		return Void, c.errorf(e.Pos,
			"type %s has no member '%s'", t, e.Lit)
	}
	indices, ok := swizzleIndices(e.Lit, t.ComponentCount())
	if !ok {
		return Void, c.errorf(e.Pos,
			"invalid swizzle '%s' on %s", e.Lit, t)
	}
	c.info.Swizzles[id] = indices
	if len(indices) == 1 {
		return Fixed, nil
	}
	return VecType(len(indices)), nil
}

func (c *Checker) checkTernary(e *parser.Expr) (Type, error) {
	if err := c.checkCond(e.X); err != nil {
		return Void, err
	}
	tt, err := c.checkExpr(e.Y)
	if err != nil {
		return Void, err
	}
	et, err := c.checkExpr(e.Z)
	if err != nil {
		return Void, err
	}
	if tt == et {
		return tt, nil
	}
	if tt.IsNumeric() && et.IsNumeric() {
		return Fixed, nil
	}
	return Void, c.errorf(e.Pos,
		"mismatched branch types %s and %s", tt, et)
}
