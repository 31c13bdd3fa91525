// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ProgramVersion is the binary format version accepted by UnmarshalBinary.
const ProgramVersion = 1

// Function is a compiled function body. Index 0 of Program.Functions is the
// implicit main built from the script's top-level statements.
//
// Arguments are passed on the value stack: at entry the caller has pushed
// ParamCells cells which become the first local cells of the frame. The
// frame's local area spans LocalCells cells including the parameters.
type Function struct {
	Name       string      `cbor:"1,keyasint"`
	ReturnType Type        `cbor:"2,keyasint"`
	ParamCells int         `cbor:"3,keyasint"`
	LocalCells int         `cbor:"4,keyasint"`
	Code       []Instr     `cbor:"5,keyasint"`
	SourceMap  map[int]int `cbor:"6,keyasint,omitempty"`
}

// Program is a compiled script ready to run or to ship to a device.
type Program struct {
	Version   int         `cbor:"1,keyasint"`
	Name      string      `cbor:"2,keyasint,omitempty"`
	Functions []*Function `cbor:"3,keyasint"`
	Source    string      `cbor:"4,keyasint,omitempty"`
}

// Main returns the entry function.
func (p *Program) Main() *Function {
	return p.Functions[0]
}

// programWire is Program stripped of its methods so the cbor codec encodes
// and decodes the struct directly instead of calling back into
// MarshalBinary/UnmarshalBinary forever.
type programWire Program

// MarshalBinary encodes the program in its CBOR wire format.
func (p *Program) MarshalBinary() ([]byte, error) {
	return cbor.Marshal((*programWire)(p))
}

// UnmarshalBinary decodes a CBOR-encoded program and validates its shape.
func (p *Program) UnmarshalBinary(data []byte) error {
	var decoded Program
	if err := cbor.Unmarshal(data, (*programWire)(&decoded)); err != nil {
		return err
	}
	if decoded.Version != ProgramVersion {
		return fmt.Errorf("unsupported program version %d", decoded.Version)
	}
	if len(decoded.Functions) == 0 {
		return errors.New("program has no functions")
	}
	for _, fn := range decoded.Functions {
		if fn == nil {
			return errors.New("program has a nil function")
		}
		if fn.ParamCells < 0 || fn.LocalCells < fn.ParamCells {
			return fmt.Errorf("function %q has invalid local layout",
				fn.Name)
		}
	}
	*p = decoded
	return nil
}

// Fprint writes a human readable representation of the program.
func (p *Program) Fprint(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Program: %s (version %d)\n", p.Name, p.Version)
	for i, fn := range p.Functions {
		_, _ = fmt.Fprintf(w,
			"\nFunction %d: %s %s (params %d cells, locals %d cells)\n",
			i, fn.ReturnType, fn.Name, fn.ParamCells, fn.LocalCells)
		fn.Fprint(w)
	}
}

// Fprint writes the function's instructions one per line.
func (fn *Function) Fprint(w io.Writer) {
	for ip, ins := range fn.Code {
		_, _ = fmt.Fprintf(w, "%4d %s\n", ip, formatInstr(ip, ins))
	}
}

func formatInstr(ip int, ins Instr) string {
	switch ins.Op {
	case OpJump, OpJumpIfZero:
		return fmt.Sprintf("%-12s %d (to %d)",
			ins.Op, ins.Arg, ip+1+int(ins.Arg))
	case OpLoadLocal, OpStoreLocal:
		slot, width := UnpackLocal(ins.Arg)
		return fmt.Sprintf("%-12s slot=%d width=%d", ins.Op, slot, width)
	case OpLoadInput:
		return fmt.Sprintf("%-12s %s", ins.Op, InputSource(ins.Arg))
	case OpCallNative:
		return fmt.Sprintf("%-12s %s", ins.Op, NativeID(ins.Arg))
	case OpCall:
		return fmt.Sprintf("%-12s fn=%d", ins.Op, ins.Arg)
	case OpSwizzle:
		srcWidth, indices := UnpackSwizzle(ins.Arg)
		return fmt.Sprintf("%-12s src=%d %v", ins.Op, srcWidth, indices)
	case OpPushConst:
		return fmt.Sprintf("%-12s %d (%#08x)",
			ins.Op, ins.Arg, uint32(ins.Arg))
	case OpDup, OpDrop, OpSplat, OpReturn,
		OpEqV, OpNeV, OpNegV, OpAddV, OpSubV, OpMulV, OpDivV,
		OpMulVS, OpDivVS:
		return fmt.Sprintf("%-12s %d", ins.Op, ins.Arg)
	}
	return ins.Op.String()
}
