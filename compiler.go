// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lightplayer/lpscript/fixed"
	"github.com/lightplayer/lpscript/parser"
	"github.com/lightplayer/lpscript/token"
)

// LocalAllocator hands out local cell slots for one function. Leaving a
// scope releases its slots for reuse; the high-water mark becomes the
// function's LocalCells.
type LocalAllocator struct {
	next   int
	max    int
	scopes []int
}

// PushScope opens a block scope.
func (a *LocalAllocator) PushScope() {
	a.scopes = append(a.scopes, a.next)
}

// PopScope closes the innermost scope and releases its slots.
func (a *LocalAllocator) PopScope() {
	n := len(a.scopes) - 1
	a.next = a.scopes[n]
	a.scopes = a.scopes[:n]
}

// Alloc reserves width consecutive cells and returns the first slot.
func (a *LocalAllocator) Alloc(width int) int {
	slot := a.next
	a.next += width
	if a.next > a.max {
		a.max = a.next
	}
	return slot
}

// MaxCells returns the high-water mark of allocated cells.
func (a *LocalAllocator) MaxCells() int {
	return a.max
}

// Compiler generates bytecode from a checked file.
type Compiler struct {
	file   *parser.File
	info   *Info
	opts   CompilerOptions
	fn     *Function
	alloc  *LocalAllocator
	curPos parser.Pos
}

// Generate lowers a checked file into a Program. The input must have been
// checked with Check; unchecked trees make it fail with a CodegenError.
func Generate(file *parser.File, info *Info, opts CompilerOptions) (*Program, error) {
	c := &Compiler{file: file, info: info, opts: opts}
	program := &Program{
		Version: ProgramVersion,
		Name:    opts.ModuleName,
	}
	main, err := c.compileMain()
	if err != nil {
		return nil, err
	}
	program.Functions = append(program.Functions, main)
	for i := range file.Pool.Funcs {
		fn, err := c.compileFunc(i)
		if err != nil {
			return nil, err
		}
		program.Functions = append(program.Functions, fn)
	}
	if opts.KeepSource {
		program.Source = opts.Source
	}
	return program, nil
}

func (c *Compiler) errorf(format string, args ...interface{}) error {
	return &CodegenError{
		Pos: c.file.Input.Position(c.curPos),
		Msg: fmt.Sprintf(format, args...),
	}
}

func (c *Compiler) beginFunc(name string, ret Type, paramCells int) {
	c.fn = &Function{
		Name:       name,
		ReturnType: ret,
		ParamCells: paramCells,
	}
	if c.opts.SourceMap {
		c.fn.SourceMap = make(map[int]int)
	}
	c.alloc = &LocalAllocator{}
}

func (c *Compiler) endFunc() *Function {
	// fall-off return: produce the zero value of the return type
	w := c.fn.ReturnType.SizeInCells()
	for i := 0; i < w; i++ {
		c.emit(OpPushConst, 0)
	}
	c.emit(OpReturn, int32(w))
	c.fn.LocalCells = c.alloc.MaxCells()
	fn := c.fn
	c.fn = nil
	return fn
}

func (c *Compiler) compileMain() (*Function, error) {
	c.beginFunc("main", c.info.MainType, 0)
	c.alloc.PushScope()
	for _, id := range c.file.Stmts {
		if err := c.compileStmt(id); err != nil {
			return nil, err
		}
	}
	c.alloc.PopScope()
	return c.endFunc(), nil
}

func (c *Compiler) compileFunc(declIdx int) (*Function, error) {
	decl := &c.file.Pool.Funcs[declIdx]
	sig := c.info.Funcs[declIdx]
	paramCells := 0
	for _, pt := range sig.ParamTypes {
		paramCells += pt.SizeInCells()
	}
	c.beginFunc(sig.Name, sig.ReturnType, paramCells)
	c.alloc.PushScope()
	// parameters occupy the first local cells in declaration order; the
	// caller leaves the argument cells right where the frame begins
	symtab := c.paramSymbols(declIdx)
	for _, sym := range symtab {
		sym.Slot = c.alloc.Alloc(sym.Type.SizeInCells())
	}
	if err := c.compileStmt(decl.Body); err != nil {
		return nil, err
	}
	c.alloc.PopScope()
	return c.endFunc(), nil
}

// paramSymbols returns the checker's parameter symbols for a function in
// declaration order. The checker defined them in a fresh table per function
// body; the symbols it stored in Info.Idents are the same objects, so slot
// assignment here is visible to every reference.
func (c *Compiler) paramSymbols(declIdx int) []*Symbol {
	sig := c.info.Funcs[declIdx]
	return sig.ParamSyms
}

// emit appends an instruction and returns its index.
func (c *Compiler) emit(op Opcode, arg int32) int {
	ip := len(c.fn.Code)
	c.fn.Code = append(c.fn.Code, Instr{Op: op, Arg: arg})
	if c.fn.SourceMap != nil && c.curPos.IsValid() {
		c.fn.SourceMap[ip] = int(c.curPos)
	}
	return ip
}

// emitJumpPlaceholder emits a forward jump with a zero offset to be patched
// later.
func (c *Compiler) emitJumpPlaceholder(op Opcode) int {
	return c.emit(op, 0)
}

// patchJump points the placeholder at the next emitted instruction. The
// encoded offset is relative: new pc = jump ip + 1 + offset.
func (c *Compiler) patchJump(ip int) {
	c.fn.Code[ip].Arg = int32(len(c.fn.Code) - ip - 1)
}

// emitJumpBack emits a backward jump to target.
func (c *Compiler) emitJumpBack(target int) {
	c.emit(OpJump, int32(target-len(c.fn.Code)-1))
}

func (c *Compiler) compileStmt(id parser.StmtID) error {
	if id == parser.NoStmt {
		return nil
	}
	s := c.file.Pool.Stmt(id)
	c.curPos = s.Pos
	switch s.Kind {
	case parser.DeclStmt:
		return c.compileDecl(id, s)
	case parser.ExprStmt:
		// an assignment used as a statement does not need its value
		if e := c.file.Pool.Expr(s.Expr); e.Kind == parser.AssignExpr {
			return c.compileAssign(s.Expr, e, false)
		}
		t := c.info.TypeOf(s.Expr)
		if err := c.compileExpr(s.Expr); err != nil {
			return err
		}
		if w := t.SizeInCells(); w > 0 {
			c.emit(OpDrop, int32(w))
		}
		return nil
	case parser.BlockStmt:
		c.alloc.PushScope()
		defer c.alloc.PopScope()
		for _, sid := range c.file.Pool.StmtList(s.List) {
			if err := c.compileStmt(sid); err != nil {
				return err
			}
		}
		return nil
	case parser.IfStmt:
		return c.compileIf(s)
	case parser.WhileStmt:
		return c.compileWhile(s)
	case parser.ForStmt:
		return c.compileFor(s)
	case parser.ReturnStmt:
		return c.compileReturn(s)
	}
	return c.errorf("cannot compile statement kind %d", s.Kind)
}

func (c *Compiler) compileDecl(id parser.StmtID, s *parser.Stmt) error {
	sym := c.info.Decls[id]
	if sym == nil {
		return c.errorf("unresolved declaration '%s'", s.Lit)
	}
	w := sym.Type.SizeInCells()
	if s.Expr != parser.NoExpr {
		if err := c.compileExprAs(s.Expr, sym.Type); err != nil {
			return err
		}
	} else {
		for i := 0; i < w; i++ {
			c.emit(OpPushConst, 0)
		}
	}
	sym.Slot = c.alloc.Alloc(w)
	c.emit(OpStoreLocal, PackLocal(sym.Slot, w))
	return nil
}

func (c *Compiler) compileIf(s *parser.Stmt) error {
	if err := c.compileExpr(s.Expr); err != nil {
		return err
	}
	elseJump := c.emitJumpPlaceholder(OpJumpIfZero)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	if s.Else == parser.NoStmt {
		c.patchJump(elseJump)
		return nil
	}
	endJump := c.emitJumpPlaceholder(OpJump)
	c.patchJump(elseJump)
	if err := c.compileStmt(s.Else); err != nil {
		return err
	}
	c.patchJump(endJump)
	return nil
}

func (c *Compiler) compileWhile(s *parser.Stmt) error {
	loopStart := len(c.fn.Code)
	if err := c.compileExpr(s.Expr); err != nil {
		return err
	}
	exitJump := c.emitJumpPlaceholder(OpJumpIfZero)
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	c.emitJumpBack(loopStart)
	c.patchJump(exitJump)
	return nil
}

func (c *Compiler) compileFor(s *parser.Stmt) error {
	c.alloc.PushScope()
	defer c.alloc.PopScope()
	if err := c.compileStmt(s.Init); err != nil {
		return err
	}
	loopStart := len(c.fn.Code)
	exitJump := -1
	if s.Expr != parser.NoExpr {
		if err := c.compileExpr(s.Expr); err != nil {
			return err
		}
		exitJump = c.emitJumpPlaceholder(OpJumpIfZero)
	}
	if err := c.compileStmt(s.Body); err != nil {
		return err
	}
	if err := c.compileStmt(s.Post); err != nil {
		return err
	}
	c.emitJumpBack(loopStart)
	if exitJump >= 0 {
		c.patchJump(exitJump)
	}
	return nil
}

func (c *Compiler) compileReturn(s *parser.Stmt) error {
	ret := c.fn.ReturnType
	if s.Expr != parser.NoExpr {
		if err := c.compileExprAs(s.Expr, ret); err != nil {
			return err
		}
	}
	c.emit(OpReturn, int32(ret.SizeInCells()))
	return nil
}

// compileExprAs compiles an expression and converts the result to want.
// The checker guarantees the only conversion ever needed is int to float.
func (c *Compiler) compileExprAs(id parser.ExprID, want Type) error {
	if err := c.compileExpr(id); err != nil {
		return err
	}
	return c.convert(c.info.TypeOf(id), want)
}

func (c *Compiler) convert(have, want Type) error {
	if have == want {
		return nil
	}
	if have == Int32 && want == Fixed {
		c.emit(OpIntToFixed, 0)
		return nil
	}
	return c.errorf("cannot convert %s to %s", have, want)
}

func (c *Compiler) compileExpr(id parser.ExprID) error {
	e := c.file.Pool.Expr(id)
	c.curPos = e.Pos
	switch e.Kind {
	case parser.IntLit:
		v, err := parseIntLit(e.Lit)
		if err != nil {
			return c.errorf("invalid integer literal %q", e.Lit)
		}
		c.emit(OpPushConst, v)
		return nil
	case parser.FloatLit:
		v, err := parseFloatLit(e.Lit)
		if err != nil {
			return c.errorf("invalid float literal %q", e.Lit)
		}
		c.emit(OpPushConst, int32(v))
		return nil
	case parser.BoolLit:
		if e.Lit == "true" {
			c.emit(OpPushConst, 1)
		} else {
			c.emit(OpPushConst, 0)
		}
		return nil
	case parser.Ident:
		return c.compileIdent(id, e)
	case parser.UnaryExpr:
		return c.compileUnary(id, e)
	case parser.BinaryExpr:
		return c.compileBinary(id, e)
	case parser.AssignExpr:
		return c.compileAssign(id, e, true)
	case parser.PreIncDecExpr, parser.PostIncDecExpr:
		return c.compileIncDec(id, e)
	case parser.CallExpr:
		return c.compileCall(id, e)
	case parser.ConstructExpr:
		return c.compileConstruct(id, e)
	case parser.MemberExpr:
		return c.compileMember(id, e)
	case parser.TernaryExpr:
		return c.compileTernary(id, e)
	}
	return c.errorf("cannot compile expression kind %d", e.Kind)
}

func parseIntLit(lit string) (int32, error) {
	v, err := strconv.ParseInt(lit, 0, 64)
	if err != nil {
		return 0, err
	}
	if v > 0xFFFFFFFF || v < -0x80000000 {
		return 0, strconv.ErrRange
	}
	return int32(uint32(v)), nil
}

func parseFloatLit(lit string) (fixed.Fixed, error) {
	lit = strings.TrimSuffix(lit, "f")
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, err
	}
	return fixed.FromFloat(v), nil
}

func (c *Compiler) compileIdent(id parser.ExprID, e *parser.Expr) error {
	if sym, ok := c.info.Idents[id]; ok {
		if sym.Slot < 0 {
			return c.errorf("variable '%s' used before allocation", sym.Name)
		}
		c.emit(OpLoadLocal, PackLocal(sym.Slot, sym.Type.SizeInCells()))
		return nil
	}
	if b, ok := c.info.Inputs[id]; ok {
		for _, src := range b.Sources {
			c.emit(OpLoadInput, int32(src))
		}
		return nil
	}
	return c.errorf("unresolved identifier '%s'", e.Lit)
}

func (c *Compiler) compileUnary(id parser.ExprID, e *parser.Expr) error {
	if err := c.compileExpr(e.X); err != nil {
		return err
	}
	t := c.info.TypeOf(id)
	switch e.Tok {
	case token.Sub:
		switch {
		case t == Int32:
			c.emit(OpNegI, 0)
		case t == Fixed:
			c.emit(OpNegF, 0)
		case t.IsVector():
			c.emit(OpNegV, int32(t.SizeInCells()))
		default:
			return c.errorf("cannot negate %s", t)
		}
	case token.Not:
		c.emit(OpNotB, 0)
	case token.Tilde:
		c.emit(OpNotI, 0)
	default:
		return c.errorf("cannot compile unary '%s'", e.Tok)
	}
	return nil
}

func (c *Compiler) compileBinary(id parser.ExprID, e *parser.Expr) error {
	lt := c.info.TypeOf(e.X)
	rt := c.info.TypeOf(e.Y)
	t := c.info.TypeOf(id)

	switch e.Tok {
	case token.LAnd:
		// short circuit: false && _ is false without evaluating _
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		falseJump := c.emitJumpPlaceholder(OpJumpIfZero)
		if err := c.compileExpr(e.Y); err != nil {
			return err
		}
		endJump := c.emitJumpPlaceholder(OpJump)
		c.patchJump(falseJump)
		c.emit(OpPushConst, 0)
		c.patchJump(endJump)
		return nil
	case token.LOr:
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		elseJump := c.emitJumpPlaceholder(OpJumpIfZero)
		c.emit(OpPushConst, 1)
		endJump := c.emitJumpPlaceholder(OpJump)
		c.patchJump(elseJump)
		if err := c.compileExpr(e.Y); err != nil {
			return err
		}
		c.patchJump(endJump)
		return nil
	}

	// vec * scalar and vec / scalar keep the scalar on top
	if t.IsVector() && e.Tok == token.Mul && lt.IsVector() && rt.IsNumeric() {
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		if err := c.compileExprAs(e.Y, Fixed); err != nil {
			return err
		}
		c.emit(OpMulVS, int32(t.SizeInCells()))
		return nil
	}
	if t.IsVector() && e.Tok == token.Mul && lt.IsNumeric() && rt.IsVector() {
		// scalar * vec: splat the scalar so evaluation stays left to right
		if err := c.compileExprAs(e.X, Fixed); err != nil {
			return err
		}
		c.emit(OpSplat, int32(t.SizeInCells()))
		if err := c.compileExpr(e.Y); err != nil {
			return err
		}
		c.emit(OpMulV, int32(t.SizeInCells()))
		return nil
	}
	if t.IsVector() && e.Tok == token.Quo && lt.IsVector() && rt.IsNumeric() {
		if err := c.compileExpr(e.X); err != nil {
			return err
		}
		if err := c.compileExprAs(e.Y, Fixed); err != nil {
			return err
		}
		c.emit(OpDivVS, int32(t.SizeInCells()))
		return nil
	}

	// operand type: the common promoted type for numeric ops and
	// comparisons, the vector type for componentwise ops
	var ot Type
	switch {
	case lt.IsVector():
		ot = lt
	case rt.IsVector():
		ot = rt
	case lt.IsNumeric() && rt.IsNumeric():
		ot = promote(lt, rt)
	default:
		ot = lt // bool
	}
	if err := c.compileExprAs(e.X, ot); err != nil {
		return err
	}
	if err := c.compileExprAs(e.Y, ot); err != nil {
		return err
	}
	return c.emitBinaryOp(e.Tok, ot)
}

func (c *Compiler) emitBinaryOp(op token.Token, ot Type) error {
	w := int32(ot.SizeInCells())
	if ot.IsVector() {
		switch op {
		case token.Add:
			c.emit(OpAddV, w)
		case token.Sub:
			c.emit(OpSubV, w)
		case token.Mul:
			c.emit(OpMulV, w)
		case token.Quo:
			c.emit(OpDivV, w)
		case token.Equal:
			c.emit(OpEqV, w)
		case token.NotEqual:
			c.emit(OpNeV, w)
		default:
			return c.errorf("cannot compile '%s' on %s", op, ot)
		}
		return nil
	}
	type opPair struct{ i, f Opcode }
	pairs := map[token.Token]opPair{
		token.Add:       {OpAddI, OpAddF},
		token.Sub:       {OpSubI, OpSubF},
		token.Mul:       {OpMulI, OpMulF},
		token.Quo:       {OpDivI, OpDivF},
		token.Rem:       {OpModI, OpModF},
		token.Equal:     {OpEqI, OpEqF},
		token.NotEqual:  {OpNeI, OpNeF},
		token.Less:      {OpLtI, OpLtF},
		token.LessEq:    {OpLeI, OpLeF},
		token.Greater:   {OpGtI, OpGtF},
		token.GreaterEq: {OpGeI, OpGeF},
	}
	if p, ok := pairs[op]; ok {
		if ot == Fixed {
			c.emit(p.f, 0)
		} else {
			c.emit(p.i, 0)
		}
		return nil
	}
	switch op {
	case token.And:
		c.emit(OpAndI, 0)
	case token.Or:
		c.emit(OpOrI, 0)
	case token.Xor:
		c.emit(OpXorI, 0)
	case token.Shl:
		c.emit(OpShlI, 0)
	case token.Shr:
		c.emit(OpShrI, 0)
	default:
		return c.errorf("cannot compile '%s' on %s", op, ot)
	}
	return nil
}

// compileAssign compiles an assignment. When keepValue is set the assigned
// value is left on the stack, making the assignment usable as an
// expression.
func (c *Compiler) compileAssign(id parser.ExprID, e *parser.Expr, keepValue bool) error {
	t := c.info.TypeOf(id)
	w := t.SizeInCells()
	if err := c.compileExprAs(e.Y, t); err != nil {
		return err
	}
	if keepValue {
		c.emit(OpDup, int32(w))
	}
	return c.compileStore(e.X)
}

// compileStore pops a value of the target's type and writes it into the
// target, which is an identifier or a swizzled vector variable.
func (c *Compiler) compileStore(target parser.ExprID) error {
	e := c.file.Pool.Expr(target)
	switch e.Kind {
	case parser.Ident:
		sym := c.info.Idents[target]
		if sym == nil {
			return c.errorf("cannot store to '%s'", e.Lit)
		}
		c.emit(OpStoreLocal, PackLocal(sym.Slot, sym.Type.SizeInCells()))
		return nil
	case parser.MemberExpr:
		sym := c.info.Idents[e.X]
		if sym == nil {
			return c.errorf("cannot store to '%s'", e.Lit)
		}
		indices := c.info.Swizzles[target]
		// components are on the stack first to last, so the last one
		// is popped first
		for i := len(indices) - 1; i >= 0; i-- {
			c.emit(OpStoreLocal, PackLocal(sym.Slot+indices[i], 1))
		}
		return nil
	}
	return c.errorf("invalid assignment target")
}

func (c *Compiler) compileIncDec(id parser.ExprID, e *parser.Expr) error {
	t := c.info.TypeOf(id)
	sym := c.info.Idents[e.X]
	if sym == nil {
		return c.errorf("invalid '%s' target", e.Tok)
	}
	local := PackLocal(sym.Slot, 1)
	one := int32(1)
	if t == Fixed {
		one = int32(fixed.One)
	}
	addOp, subOp := OpAddI, OpSubI
	if t == Fixed {
		addOp, subOp = OpAddF, OpSubF
	}
	op := addOp
	if e.Tok == token.Dec {
		op = subOp
	}
	c.emit(OpLoadLocal, local)
	if c.file.Pool.Expr(id).Kind == parser.PostIncDecExpr {
		// the original value stays as the expression result
		c.emit(OpDup, 1)
		c.emit(OpPushConst, one)
		c.emit(op, 0)
		c.emit(OpStoreLocal, local)
		return nil
	}
	c.emit(OpPushConst, one)
	c.emit(op, 0)
	c.emit(OpDup, 1)
	c.emit(OpStoreLocal, local)
	return nil
}

func (c *Compiler) compileCall(id parser.ExprID, e *parser.Expr) error {
	call, ok := c.info.Calls[id]
	if !ok {
		return c.errorf("unresolved call '%s'", e.Lit)
	}
	args := c.file.Pool.ExprList(e.Args)
	if call.Kind == callUser {
		sig := c.info.Funcs[call.Fn-1]
		for i, aid := range args {
			if err := c.compileExprAs(aid, sig.ParamTypes[i]); err != nil {
				return err
			}
		}
		c.emit(OpCall, int32(call.Fn))
		return nil
	}
	if call.Componentwise {
		return c.compileComponentwise(id, e, call)
	}
	for _, aid := range args {
		if c.info.TypeOf(aid).IsVector() {
			if err := c.compileExpr(aid); err != nil {
				return err
			}
		} else {
			if err := c.compileExprAs(aid, Fixed); err != nil {
				return err
			}
		}
	}
	c.emit(OpCallNative, int32(call.Native))
	return nil
}

// compileComponentwise expands a scalar native over vector arguments:
// every argument is evaluated once into temporary locals, then the scalar
// native runs per lane. Scalar arguments broadcast across lanes.
func (c *Compiler) compileComponentwise(id parser.ExprID, e *parser.Expr, call callInfo) error {
	t := c.info.TypeOf(id)
	lanes := t.ComponentCount()
	args := c.file.Pool.ExprList(e.Args)

	c.alloc.PushScope()
	defer c.alloc.PopScope()

	type argSlot struct {
		slot  int
		width int
	}
	slots := make([]argSlot, len(args))
	for i, aid := range args {
		at := c.info.TypeOf(aid)
		if at.IsVector() {
			if err := c.compileExpr(aid); err != nil {
				return err
			}
			w := at.SizeInCells()
			slot := c.alloc.Alloc(w)
			c.emit(OpStoreLocal, PackLocal(slot, w))
			slots[i] = argSlot{slot: slot, width: w}
		} else {
			if err := c.compileExprAs(aid, Fixed); err != nil {
				return err
			}
			slot := c.alloc.Alloc(1)
			c.emit(OpStoreLocal, PackLocal(slot, 1))
			slots[i] = argSlot{slot: slot, width: 1}
		}
	}
	for lane := 0; lane < lanes; lane++ {
		for _, as := range slots {
			slot := as.slot
			if as.width > 1 {
				slot += lane
			}
			c.emit(OpLoadLocal, PackLocal(slot, 1))
		}
		c.emit(OpCallNative, int32(call.Native))
	}
	return nil
}

func (c *Compiler) compileConstruct(id parser.ExprID, e *parser.Expr) error {
	t := c.info.TypeOf(id)
	args := c.file.Pool.ExprList(e.Args)
	switch t {
	case Fixed:
		return c.compileExprAs(args[0], Fixed)
	case Int32:
		at := c.info.TypeOf(args[0])
		if err := c.compileExpr(args[0]); err != nil {
			return err
		}
		if at == Fixed {
			c.emit(OpFixedToInt, 0)
		}
		return nil
	case Vec2, Vec3, Vec4:
		if len(args) == 1 && c.info.TypeOf(args[0]).IsNumeric() {
			if err := c.compileExprAs(args[0], Fixed); err != nil {
				return err
			}
			c.emit(OpSplat, int32(t.SizeInCells()))
			return nil
		}
		for _, aid := range args {
			at := c.info.TypeOf(aid)
			if at.IsVector() {
				if err := c.compileExpr(aid); err != nil {
					return err
				}
			} else {
				if err := c.compileExprAs(aid, Fixed); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return c.errorf("cannot construct %s", t)
}

func (c *Compiler) compileMember(id parser.ExprID, e *parser.Expr) error {
	if err := c.compileExpr(e.X); err != nil {
		return err
	}
	srcWidth := c.info.TypeOf(e.X).SizeInCells()
	indices := c.info.Swizzles[id]
	c.emit(OpSwizzle, PackSwizzle(srcWidth, indices))
	return nil
}

func (c *Compiler) compileTernary(id parser.ExprID, e *parser.Expr) error {
	t := c.info.TypeOf(id)
	if err := c.compileExpr(e.X); err != nil {
		return err
	}
	elseJump := c.emitJumpPlaceholder(OpJumpIfZero)
	if err := c.compileExprAs(e.Y, t); err != nil {
		return err
	}
	endJump := c.emitJumpPlaceholder(OpJump)
	c.patchJump(elseJump)
	if err := c.compileExprAs(e.Z, t); err != nil {
		return err
	}
	c.patchJump(endJump)
	return nil
}
