// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import "fmt"

// Opcode represents a single instruction operation.
type Opcode byte

// Instr is one VM instruction. Every instruction carries at most one
// operand; its meaning depends on the opcode:
//
//	OpPushConst            raw 32-bit cell value
//	OpDup, OpDrop, OpSplat value width in cells
//	OpLoadLocal, OpStoreLocal  packed slot and width, see PackLocal
//	OpLoadInput            input source id
//	OpJump, OpJumpIfZero   relative offset, new pc = pc + 1 + offset
//	OpCall                 function index
//	OpCallNative           native function id
//	OpReturn               return value width in cells
//	OpSwizzle              packed source width and components, see PackSwizzle
//	vector ops             vector width in cells
type Instr struct {
	Op  Opcode `cbor:"1,keyasint"`
	Arg int32  `cbor:"2,keyasint"`
}

// List of opcodes
const (
	OpPushConst Opcode = iota
	OpDup
	OpDrop
	OpSplat
	OpLoadLocal
	OpStoreLocal
	OpLoadInput
	OpJump
	OpJumpIfZero
	OpCall
	OpCallNative
	OpReturn
	OpIntToFixed
	OpFixedToInt
	OpNegI
	OpAddI
	OpSubI
	OpMulI
	OpDivI
	OpModI
	OpAndI
	OpOrI
	OpXorI
	OpNotI
	OpShlI
	OpShrI
	OpNegF
	OpAddF
	OpSubF
	OpMulF
	OpDivF
	OpModF
	OpNotB
	OpEqI
	OpNeI
	OpLtI
	OpLeI
	OpGtI
	OpGeI
	OpEqF
	OpNeF
	OpLtF
	OpLeF
	OpGtF
	OpGeF
	OpEqV
	OpNeV
	OpNegV
	OpAddV
	OpSubV
	OpMulV
	OpDivV
	OpMulVS
	OpDivVS
	OpSwizzle
)

// OpcodeNames contains the string representation of each opcode.
var OpcodeNames = [...]string{
	OpPushConst:  "PUSHCONST",
	OpDup:        "DUP",
	OpDrop:       "DROP",
	OpSplat:      "SPLAT",
	OpLoadLocal:  "LOADLOCAL",
	OpStoreLocal: "STORELOCAL",
	OpLoadInput:  "LOADINPUT",
	OpJump:       "JUMP",
	OpJumpIfZero: "JUMPIFZERO",
	OpCall:       "CALL",
	OpCallNative: "CALLNATIVE",
	OpReturn:     "RETURN",
	OpIntToFixed: "INT2FIX",
	OpFixedToInt: "FIX2INT",
	OpNegI:       "NEGI",
	OpAddI:       "ADDI",
	OpSubI:       "SUBI",
	OpMulI:       "MULI",
	OpDivI:       "DIVI",
	OpModI:       "MODI",
	OpAndI:       "ANDI",
	OpOrI:        "ORI",
	OpXorI:       "XORI",
	OpNotI:       "NOTI",
	OpShlI:       "SHLI",
	OpShrI:       "SHRI",
	OpNegF:       "NEGF",
	OpAddF:       "ADDF",
	OpSubF:       "SUBF",
	OpMulF:       "MULF",
	OpDivF:       "DIVF",
	OpModF:       "MODF",
	OpNotB:       "NOTB",
	OpEqI:        "EQI",
	OpNeI:        "NEI",
	OpLtI:        "LTI",
	OpLeI:        "LEI",
	OpGtI:        "GTI",
	OpGeI:        "GEI",
	OpEqF:        "EQF",
	OpNeF:        "NEF",
	OpLtF:        "LTF",
	OpLeF:        "LEF",
	OpGtF:        "GTF",
	OpGeF:        "GEF",
	OpEqV:        "EQV",
	OpNeV:        "NEV",
	OpNegV:       "NEGV",
	OpAddV:       "ADDV",
	OpSubV:       "SUBV",
	OpMulV:       "MULV",
	OpDivV:       "DIVV",
	OpMulVS:      "MULVS",
	OpDivVS:      "DIVVS",
	OpSwizzle:    "SWIZZLE",
}

func (op Opcode) String() string {
	if int(op) < len(OpcodeNames) {
		return OpcodeNames[op]
	}
	return fmt.Sprintf("opcode(%d)", op)
}

// IsJump returns true for opcodes whose operand is a relative instruction
// offset.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfZero
}

// PackLocal packs a local slot index and a value width into one operand.
// The slot occupies the low 16 bits, the width the next 8.
func PackLocal(slot, width int) int32 {
	return int32(slot) | int32(width)<<16
}

// UnpackLocal is the inverse of PackLocal.
func UnpackLocal(arg int32) (slot, width int) {
	return int(arg & 0xFFFF), int(arg >> 16 & 0xFF)
}

// PackSwizzle packs the source vector width and up to four component
// indices into one operand. Bits 0..2 hold the source width, bits 3..5 the
// component count, then 3 bits per component index.
func PackSwizzle(srcWidth int, indices []int) int32 {
	arg := int32(srcWidth) | int32(len(indices))<<3
	for i, idx := range indices {
		arg |= int32(idx) << uint(6+3*i)
	}
	return arg
}

// UnpackSwizzle is the inverse of PackSwizzle. The returned slice is a
// fresh allocation.
func UnpackSwizzle(arg int32) (srcWidth int, indices []int) {
	srcWidth = int(arg & 0x7)
	count := int(arg >> 3 & 0x7)
	indices = make([]int, count)
	for i := range indices {
		indices[i] = int(arg >> uint(6+3*i) & 0x7)
	}
	return srcWidth, indices
}

// InputSource identifies a built-in VM input loaded by OpLoadInput.
type InputSource int32

// List of input sources
const (
	InputXNorm InputSource = iota
	InputYNorm
	InputXPix
	InputYPix
	InputTime
	InputTimeNorm
	InputCenterDist
	InputCenterAngle
	// pixel position converted to fixed point, the cells of coord
	InputXCoord
	InputYCoord
)

var inputSourceNames = [...]string{
	InputXNorm:       "XNORM",
	InputYNorm:       "YNORM",
	InputXPix:        "XPIX",
	InputYPix:        "YPIX",
	InputTime:        "TIME",
	InputTimeNorm:    "TIMENORM",
	InputCenterDist:  "CENTERDIST",
	InputCenterAngle: "CENTERANGLE",
	InputXCoord:      "XCOORD",
	InputYCoord:      "YCOORD",
}

func (s InputSource) String() string {
	if int(s) >= 0 && int(s) < len(inputSourceNames) {
		return inputSourceNames[s]
	}
	return fmt.Sprintf("input(%d)", int32(s))
}
