// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import (
	"fmt"

	"github.com/lightplayer/lpscript/parser"
)

// TypeError is a compile-time type checking error.
type TypeError struct {
	Pos parser.SourceFilePos
	Msg string
}

func (e *TypeError) Error() string {
	if e.Pos.IsValid() || e.Pos.Filename != "" {
		return fmt.Sprintf("Type Error: %s\n\tat %s", e.Msg, e.Pos)
	}
	return fmt.Sprintf("Type Error: %s", e.Msg)
}

// CodegenError is an internal code generation failure. Seeing one means the
// checker accepted a tree the generator cannot lower.
type CodegenError struct {
	Pos parser.SourceFilePos
	Msg string
}

func (e *CodegenError) Error() string {
	if e.Pos.IsValid() || e.Pos.Filename != "" {
		return fmt.Sprintf("Codegen Error: %s\n\tat %s", e.Msg, e.Pos)
	}
	return fmt.Sprintf("Codegen Error: %s", e.Msg)
}

// VmError is a runtime execution error.
type VmError struct {
	Name string
	Msg  string
}

func (e *VmError) Error() string {
	if e.Msg == "" {
		return e.Name
	}
	return e.Name + ": " + e.Msg
}

// withMsg derives a new error with the same name and extra detail, so
// errors.Is style comparisons against the sentinel still work via Name.
func (e *VmError) withMsg(format string, args ...interface{}) *VmError {
	return &VmError{Name: e.Name, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether target is a VmError with the same name.
func (e *VmError) Is(target error) bool {
	t, ok := target.(*VmError)
	return ok && t.Name == e.Name
}

// Runtime error sentinels. Compare with errors.Is.
var (
	// ErrStackOverflow is returned when a push would exceed the stack
	// size limit.
	ErrStackOverflow = &VmError{Name: "StackOverflowError"}

	// ErrStackUnderflow is returned when a pop finds fewer cells than the
	// instruction needs.
	ErrStackUnderflow = &VmError{Name: "StackUnderflowError"}

	// ErrCallStackOverflow is returned when a call would exceed the call
	// depth limit.
	ErrCallStackOverflow = &VmError{Name: "CallStackOverflowError"}

	// ErrInstructionLimit is returned when the executed instruction count
	// exceeds the per-run limit.
	ErrInstructionLimit = &VmError{Name: "InstructionLimitError"}

	// ErrInvalidLocal is returned for a local slot index outside the
	// frame's local area.
	ErrInvalidLocal = &VmError{Name: "InvalidLocalError"}

	// ErrPCOutOfBounds is returned when the program counter leaves the
	// code, usually from a bad jump offset.
	ErrPCOutOfBounds = &VmError{Name: "PCOutOfBoundsError"}

	// ErrDivisionByZero is returned for integer or fixed-point division
	// or modulo by zero.
	ErrDivisionByZero = &VmError{Name: "DivisionByZeroError"}

	// ErrInvalidInstruction is returned for an opcode or operand the VM
	// does not recognize.
	ErrInvalidInstruction = &VmError{Name: "InvalidInstructionError"}
)
