// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import (
	"fmt"
	"math"
	"strings"

	"github.com/lightplayer/lpscript/fixed"
)

// VmLimits bounds a single Run. Every limit is checked on the hot path;
// exceeding one aborts execution with the matching error.
type VmLimits struct {
	MaxCallStackDepth int `toml:"max_call_stack_depth"`
	MaxStackSize      int `toml:"max_stack_size"`
	MaxInstructions   int `toml:"max_instructions"`
}

// DefaultVmLimits are the limits used when none are set.
var DefaultVmLimits = VmLimits{
	MaxCallStackDepth: 64,
	MaxStackSize:      256,
	MaxInstructions:   10000,
}

// Inputs are the host-provided values behind the built-in variables. The
// derived inputs (timeNorm, centerDist, centerAngle) are computed from
// these on demand.
type Inputs struct {
	XNorm fixed.Fixed // x position normalized to 0..1
	YNorm fixed.Fixed // y position normalized to 0..1
	XPix  int32       // x position in pixels
	YPix  int32       // y position in pixels
	Time  fixed.Fixed // seconds since start
}

func (in *Inputs) load(src InputSource) (int32, error) {
	switch src {
	case InputXNorm:
		return int32(in.XNorm), nil
	case InputYNorm:
		return int32(in.YNorm), nil
	case InputXPix:
		return in.XPix, nil
	case InputYPix:
		return in.YPix, nil
	case InputTime:
		return int32(in.Time), nil
	case InputTimeNorm:
		return int32(fixed.Fract(in.Time)), nil
	case InputCenterDist:
		// Manhattan distance from the center, 0 at the center and 1
		// at the corners
		cx := in.XNorm - fixed.Half
		cy := in.YNorm - fixed.Half
		return int32(fixed.Abs(cx) + fixed.Abs(cy)), nil
	case InputCenterAngle:
		cx := in.XNorm - fixed.Half
		cy := in.YNorm - fixed.Half
		return int32(fixed.Atan2(cy, cx)), nil
	case InputXCoord:
		return int32(fixed.FromInt(in.XPix)), nil
	case InputYCoord:
		return int32(fixed.FromInt(in.YPix)), nil
	}
	return 0, ErrInvalidInstruction.withMsg("unknown input source %d", src)
}

// Value is a typed script result.
type Value struct {
	Type  Type
	cells [4]int32
}

// NewValue builds a Value from raw cells; used by tests and the CLI.
func NewValue(t Type, cells ...int32) Value {
	v := Value{Type: t}
	copy(v.cells[:], cells)
	return v
}

// Fixed returns the scalar as fixed point.
func (v Value) Fixed() fixed.Fixed {
	return fixed.Fixed(v.cells[0])
}

// Float returns the scalar as a float64.
func (v Value) Float() float64 {
	return fixed.Fixed(v.cells[0]).Float()
}

// Int returns the scalar as an int32.
func (v Value) Int() int32 {
	return v.cells[0]
}

// Bool returns the scalar as a bool.
func (v Value) Bool() bool {
	return v.cells[0] != 0
}

// Component returns vector component i as fixed point.
func (v Value) Component(i int) fixed.Fixed {
	return fixed.Fixed(v.cells[i])
}

func (v Value) String() string {
	switch v.Type {
	case Void:
		return "void"
	case Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case Int32:
		return fmt.Sprintf("%d", v.Int())
	case Fixed:
		return formatFixed(v.Fixed())
	case Vec2, Vec3, Vec4:
		parts := make([]string, v.Type.ComponentCount())
		for i := range parts {
			parts[i] = formatFixed(v.Component(i))
		}
		return v.Type.String() + "(" + strings.Join(parts, ", ") + ")"
	}
	return "value(?)"
}

func formatFixed(f fixed.Fixed) string {
	s := fmt.Sprintf("%.5f", f.Float())
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

type frame struct {
	fn   *Function
	ip   int
	base int // index of the frame's first local cell
}

// VM executes a compiled program. A VM may be reused for many runs; it is
// not safe for concurrent use.
type VM struct {
	program *Program
	limits  VmLimits
	stack   []int32
	sp      int
	frames  []frame
	inputs  Inputs
	steps   int
}

// NewVM creates a VM for the program with DefaultVmLimits.
func NewVM(program *Program) *VM {
	return &VM{
		program: program,
		limits:  DefaultVmLimits,
	}
}

// SetLimits replaces the execution limits for subsequent runs.
func (vm *VM) SetLimits(limits VmLimits) {
	vm.limits = limits
}

// Run executes the program's main function against the inputs and returns
// its result.
func (vm *VM) Run(inputs *Inputs) (Value, error) {
	if inputs != nil {
		vm.inputs = *inputs
	} else {
		vm.inputs = Inputs{}
	}
	if cap(vm.stack) < vm.limits.MaxStackSize {
		vm.stack = make([]int32, vm.limits.MaxStackSize)
	}
	vm.stack = vm.stack[:vm.limits.MaxStackSize]
	vm.sp = 0
	vm.frames = vm.frames[:0]
	vm.steps = 0

	main := vm.program.Main()
	if main.LocalCells > vm.limits.MaxStackSize {
		return Value{}, ErrStackOverflow.withMsg(
			"main needs %d local cells", main.LocalCells)
	}
	for i := 0; i < main.LocalCells; i++ {
		vm.stack[i] = 0
	}
	vm.sp = main.LocalCells
	vm.frames = append(vm.frames, frame{fn: main, base: 0})
	return vm.run()
}

func (vm *VM) run() (Value, error) {
	for {
		fr := &vm.frames[len(vm.frames)-1]
		if fr.ip < 0 || fr.ip >= len(fr.fn.Code) {
			return Value{}, ErrPCOutOfBounds.withMsg(
				"pc %d in %q (%d instructions)",
				fr.ip, fr.fn.Name, len(fr.fn.Code))
		}
		vm.steps++
		if vm.steps > vm.limits.MaxInstructions {
			return Value{}, ErrInstructionLimit.withMsg(
				"limit %d", vm.limits.MaxInstructions)
		}
		ins := fr.fn.Code[fr.ip]
		fr.ip++

		var err error
		switch ins.Op {
		case OpPushConst:
			err = vm.push(ins.Arg)
		case OpDup:
			err = vm.execDup(int(ins.Arg))
		case OpDrop:
			err = vm.drop(int(ins.Arg))
		case OpSplat:
			err = vm.execSplat(int(ins.Arg))
		case OpLoadLocal:
			err = vm.execLoadLocal(fr, ins.Arg)
		case OpStoreLocal:
			err = vm.execStoreLocal(fr, ins.Arg)
		case OpLoadInput:
			var v int32
			v, err = vm.inputs.load(InputSource(ins.Arg))
			if err == nil {
				err = vm.push(v)
			}
		case OpJump:
			fr.ip += int(ins.Arg)
		case OpJumpIfZero:
			var cond int32
			cond, err = vm.pop()
			if err == nil && cond == 0 {
				fr.ip += int(ins.Arg)
			}
		case OpCall:
			err = vm.execCall(int(ins.Arg))
		case OpCallNative:
			err = vm.execCallNative(NativeID(ins.Arg))
		case OpReturn:
			done, result, rerr := vm.execReturn(int(ins.Arg))
			if rerr != nil {
				return Value{}, rerr
			}
			if done {
				return result, nil
			}
		default:
			err = vm.execOp(ins)
		}
		if err != nil {
			return Value{}, err
		}
	}
}

func (vm *VM) push(v int32) error {
	if vm.sp >= vm.limits.MaxStackSize {
		return ErrStackOverflow.withMsg("limit %d cells",
			vm.limits.MaxStackSize)
	}
	vm.stack[vm.sp] = v
	vm.sp++
	return nil
}

// floor returns the lowest stack index pops may reach: the current frame's
// operand area starts above its locals.
func (vm *VM) floor() int {
	fr := &vm.frames[len(vm.frames)-1]
	return fr.base + fr.fn.LocalCells
}

func (vm *VM) pop() (int32, error) {
	if vm.sp <= vm.floor() {
		return 0, ErrStackUnderflow
	}
	vm.sp--
	return vm.stack[vm.sp], nil
}

func (vm *VM) drop(w int) error {
	if w < 0 || vm.sp-w < vm.floor() {
		return ErrStackUnderflow
	}
	vm.sp -= w
	return nil
}

// top returns the w cells on top of the stack without popping.
func (vm *VM) top(w int) ([]int32, error) {
	if vm.sp-w < vm.floor() {
		return nil, ErrStackUnderflow
	}
	return vm.stack[vm.sp-w : vm.sp], nil
}

func (vm *VM) execDup(w int) error {
	src, err := vm.top(w)
	if err != nil {
		return err
	}
	if vm.sp+w > vm.limits.MaxStackSize {
		return ErrStackOverflow.withMsg("limit %d cells",
			vm.limits.MaxStackSize)
	}
	copy(vm.stack[vm.sp:], src)
	vm.sp += w
	return nil
}

func (vm *VM) execSplat(w int) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	for i := 0; i < w; i++ {
		if err := vm.push(v); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) execLoadLocal(fr *frame, arg int32) error {
	slot, w := UnpackLocal(arg)
	if slot < 0 || w <= 0 || slot+w > fr.fn.LocalCells {
		return ErrInvalidLocal.withMsg("slot %d width %d in %q",
			slot, w, fr.fn.Name)
	}
	for i := 0; i < w; i++ {
		if err := vm.push(vm.stack[fr.base+slot+i]); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) execStoreLocal(fr *frame, arg int32) error {
	slot, w := UnpackLocal(arg)
	if slot < 0 || w <= 0 || slot+w > fr.fn.LocalCells {
		return ErrInvalidLocal.withMsg("slot %d width %d in %q",
			slot, w, fr.fn.Name)
	}
	for i := w - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.stack[fr.base+slot+i] = v
	}
	return nil
}

func (vm *VM) execCall(fnIdx int) error {
	if fnIdx < 0 || fnIdx >= len(vm.program.Functions) {
		return ErrInvalidInstruction.withMsg("no function %d", fnIdx)
	}
	if len(vm.frames) >= vm.limits.MaxCallStackDepth {
		return ErrCallStackOverflow.withMsg("limit %d",
			vm.limits.MaxCallStackDepth)
	}
	callee := vm.program.Functions[fnIdx]
	base := vm.sp - callee.ParamCells
	if base < vm.floor() {
		return ErrStackUnderflow
	}
	if base+callee.LocalCells > vm.limits.MaxStackSize {
		return ErrStackOverflow.withMsg("limit %d cells",
			vm.limits.MaxStackSize)
	}
	// the pushed arguments become the first local cells in place
	for i := callee.ParamCells; i < callee.LocalCells; i++ {
		vm.stack[base+i] = 0
	}
	vm.sp = base + callee.LocalCells
	vm.frames = append(vm.frames, frame{fn: callee, base: base})
	return nil
}

func (vm *VM) execReturn(w int) (bool, Value, error) {
	result, err := vm.top(w)
	if err != nil {
		return false, Value{}, err
	}
	fr := &vm.frames[len(vm.frames)-1]
	copy(vm.stack[fr.base:], result)
	vm.sp = fr.base + w
	retType := fr.fn.ReturnType
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) > 0 {
		return false, Value{}, nil
	}
	v := Value{Type: retType}
	copy(v.cells[:], vm.stack[:w])
	return true, v, nil
}

// execOp handles the pure data operations.
func (vm *VM) execOp(ins Instr) error {
	switch ins.Op {
	case OpIntToFixed:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(int32(fixed.FromInt(v)))
	case OpFixedToInt:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(fixed.Fixed(v).ToInt())
	case OpNegI, OpNegF:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(-v)
	case OpNotI:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.push(^v)
	case OpNotB:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if v == 0 {
			return vm.push(1)
		}
		return vm.push(0)
	case OpAddI, OpSubI, OpMulI, OpDivI, OpModI,
		OpAndI, OpOrI, OpXorI, OpShlI, OpShrI,
		OpAddF, OpSubF, OpMulF, OpDivF, OpModF:
		return vm.execBinaryScalar(ins.Op)
	case OpEqI, OpNeI, OpLtI, OpLeI, OpGtI, OpGeI,
		OpEqF, OpNeF, OpLtF, OpLeF, OpGtF, OpGeF:
		return vm.execCompare(ins.Op)
	case OpEqV, OpNeV:
		return vm.execCompareVec(ins.Op, int(ins.Arg))
	case OpNegV:
		w := int(ins.Arg)
		v, err := vm.top(w)
		if err != nil {
			return err
		}
		for i := range v {
			v[i] = -v[i]
		}
		return nil
	case OpAddV, OpSubV, OpMulV, OpDivV:
		return vm.execBinaryVec(ins.Op, int(ins.Arg))
	case OpMulVS, OpDivVS:
		return vm.execVecScalar(ins.Op, int(ins.Arg))
	case OpSwizzle:
		return vm.execSwizzle(ins.Arg)
	}
	return ErrInvalidInstruction.withMsg("opcode %d", ins.Op)
}

func (vm *VM) pop2() (int32, int32, error) {
	b, err := vm.pop()
	if err != nil {
		return 0, 0, err
	}
	a, err := vm.pop()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (vm *VM) execBinaryScalar(op Opcode) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	var r int32
	switch op {
	case OpAddI, OpAddF:
		r = a + b
	case OpSubI, OpSubF:
		r = a - b
	case OpMulI:
		r = a * b
	case OpDivI:
		if b == 0 {
			return ErrDivisionByZero
		}
		if a == math.MinInt32 && b == -1 {
			r = math.MinInt32 // wraps like the other int ops
		} else {
			r = a / b
		}
	case OpModI:
		if b == 0 {
			return ErrDivisionByZero
		}
		if a == math.MinInt32 && b == -1 {
			r = 0
		} else {
			r = a % b
		}
	case OpAndI:
		r = a & b
	case OpOrI:
		r = a | b
	case OpXorI:
		r = a ^ b
	case OpShlI:
		r = a << (uint32(b) & 31)
	case OpShrI:
		r = a >> (uint32(b) & 31)
	case OpMulF:
		r = int32(fixed.Mul(fixed.Fixed(a), fixed.Fixed(b)))
	case OpDivF:
		if b == 0 {
			return ErrDivisionByZero
		}
		r = int32(fixed.Div(fixed.Fixed(a), fixed.Fixed(b)))
	case OpModF:
		if b == 0 {
			return ErrDivisionByZero
		}
		r = int32(fixed.Mod(fixed.Fixed(a), fixed.Fixed(b)))
	}
	return vm.push(r)
}

func (vm *VM) execCompare(op Opcode) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	// fixed point and int32 order identically
	var r bool
	switch op {
	case OpEqI, OpEqF:
		r = a == b
	case OpNeI, OpNeF:
		r = a != b
	case OpLtI, OpLtF:
		r = a < b
	case OpLeI, OpLeF:
		r = a <= b
	case OpGtI, OpGtF:
		r = a > b
	case OpGeI, OpGeF:
		r = a >= b
	}
	if r {
		return vm.push(1)
	}
	return vm.push(0)
}

func (vm *VM) execCompareVec(op Opcode, w int) error {
	v, err := vm.top(2 * w)
	if err != nil {
		return err
	}
	eq := true
	for i := 0; i < w; i++ {
		if v[i] != v[w+i] {
			eq = false
			break
		}
	}
	vm.sp -= 2 * w
	if eq == (op == OpEqV) {
		return vm.push(1)
	}
	return vm.push(0)
}

func (vm *VM) execBinaryVec(op Opcode, w int) error {
	v, err := vm.top(2 * w)
	if err != nil {
		return err
	}
	a := v[:w]
	b := v[w:]
	for i := 0; i < w; i++ {
		switch op {
		case OpAddV:
			a[i] += b[i]
		case OpSubV:
			a[i] -= b[i]
		case OpMulV:
			a[i] = int32(fixed.Mul(fixed.Fixed(a[i]), fixed.Fixed(b[i])))
		case OpDivV:
			if b[i] == 0 {
				return ErrDivisionByZero
			}
			a[i] = int32(fixed.Div(fixed.Fixed(a[i]), fixed.Fixed(b[i])))
		}
	}
	vm.sp -= w
	return nil
}

func (vm *VM) execVecScalar(op Opcode, w int) error {
	s, err := vm.pop()
	if err != nil {
		return err
	}
	v, err := vm.top(w)
	if err != nil {
		return err
	}
	if op == OpDivVS && s == 0 {
		return ErrDivisionByZero
	}
	for i := range v {
		if op == OpMulVS {
			v[i] = int32(fixed.Mul(fixed.Fixed(v[i]), fixed.Fixed(s)))
		} else {
			v[i] = int32(fixed.Div(fixed.Fixed(v[i]), fixed.Fixed(s)))
		}
	}
	return nil
}

func (vm *VM) execSwizzle(arg int32) error {
	srcWidth, indices := UnpackSwizzle(arg)
	src, err := vm.top(srcWidth)
	if err != nil {
		return err
	}
	var out [4]int32
	for i, idx := range indices {
		if idx >= srcWidth {
			return ErrInvalidInstruction.withMsg(
				"swizzle component %d of width %d", idx, srcWidth)
		}
		out[i] = src[idx]
	}
	vm.sp -= srcWidth
	for i := range indices {
		if err := vm.push(out[i]); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) execCallNative(id NativeID) error {
	if int(id) < 0 || int(id) >= len(nativeArgCells) {
		return ErrInvalidInstruction.withMsg("no native %d", id)
	}
	argc := nativeArgCells[id]
	args, err := vm.top(argc)
	if err != nil {
		return err
	}
	var out [4]int32
	outc := nativeResultCells[id]
	if err := evalNative(id, args, out[:outc]); err != nil {
		return err
	}
	vm.sp -= argc
	for i := 0; i < outc; i++ {
		if err := vm.push(out[i]); err != nil {
			return err
		}
	}
	return nil
}

// evalNative computes a native call from raw argument cells into out.
func evalNative(id NativeID, args []int32, out []int32) error {
	f := func(i int) fixed.Fixed { return fixed.Fixed(args[i]) }
	setF := func(v fixed.Fixed) { out[0] = int32(v) }
	switch id {
	case NativeMin:
		setF(fixed.Min2(f(0), f(1)))
	case NativeMax:
		setF(fixed.Max2(f(0), f(1)))
	case NativePow:
		setF(fixed.Pow(f(0), f(1)))
	case NativeAbs:
		setF(fixed.Abs(f(0)))
	case NativeFloor:
		setF(fixed.Floor(f(0)))
	case NativeCeil:
		setF(fixed.Ceil(f(0)))
	case NativeSqrt:
		setF(fixed.Sqrt(f(0)))
	case NativeSign:
		setF(fixed.Sign(f(0)))
	case NativeSaturate:
		setF(fixed.Saturate(f(0)))
	case NativeStep:
		setF(fixed.Step(f(0), f(1)))
	case NativeClamp:
		setF(fixed.Clamp(f(0), f(1), f(2)))
	case NativeLerp:
		setF(fixed.Lerp(f(0), f(1), f(2)))
	case NativeSmoothstep:
		setF(fixed.Smoothstep(f(0), f(1), f(2)))
	case NativeSin:
		setF(fixed.Sin(f(0)))
	case NativeCos:
		setF(fixed.Cos(f(0)))
	case NativeTan:
		setF(fixed.Tan(f(0)))
	case NativeAtan:
		setF(fixed.Atan(f(0)))
	case NativeAtan2:
		setF(fixed.Atan2(f(0), f(1)))
	case NativeFract:
		setF(fixed.Fract(f(0)))
	case NativeMod:
		if args[1] == 0 {
			return ErrDivisionByZero
		}
		setF(fixed.Mod(f(0), f(1)))
	case NativeLength2, NativeLength3, NativeLength4:
		w := 2 + int(id-NativeLength2)
		setF(vecLength(args[:w]))
	case NativeNormalize2, NativeNormalize3, NativeNormalize4:
		w := 2 + int(id-NativeNormalize2)
		length := vecLength(args[:w])
		for i := 0; i < w; i++ {
			if length == 0 {
				out[i] = 0
			} else {
				out[i] = int32(fixed.Div(fixed.Fixed(args[i]), length))
			}
		}
	case NativeDot2, NativeDot3, NativeDot4:
		w := 2 + int(id-NativeDot2)
		setF(vecDot(args[:w], args[w:2*w]))
	case NativeDistance2, NativeDistance3, NativeDistance4:
		w := 2 + int(id-NativeDistance2)
		var diff [4]int32
		for i := 0; i < w; i++ {
			diff[i] = args[i] - args[w+i]
		}
		setF(vecLength(diff[:w]))
	case NativeCross:
		a0, a1, a2 := fixed.Fixed(args[0]), fixed.Fixed(args[1]), fixed.Fixed(args[2])
		b0, b1, b2 := fixed.Fixed(args[3]), fixed.Fixed(args[4]), fixed.Fixed(args[5])
		out[0] = int32(fixed.Mul(a1, b2) - fixed.Mul(a2, b1))
		out[1] = int32(fixed.Mul(a2, b0) - fixed.Mul(a0, b2))
		out[2] = int32(fixed.Mul(a0, b1) - fixed.Mul(a1, b0))
	default:
		return ErrInvalidInstruction.withMsg("no native %d", id)
	}
	return nil
}

// vecDot accumulates in 64 bits and clamps, so large vectors saturate
// instead of wrapping.
func vecDot(a, b []int32) fixed.Fixed {
	var sum int64
	for i := range a {
		sum += int64(a[i]) * int64(b[i]) >> fixed.Shift
	}
	return clamp64(sum)
}

func vecLength(v []int32) fixed.Fixed {
	var sum int64
	for i := range v {
		sum += int64(v[i]) * int64(v[i]) >> fixed.Shift
	}
	return fixed.Sqrt(clamp64(sum))
}

func clamp64(v int64) fixed.Fixed {
	if v > int64(fixed.Max) {
		return fixed.Max
	}
	if v < int64(fixed.Min) {
		return fixed.Min
	}
	return fixed.Fixed(v)
}
