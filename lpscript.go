// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package lpscript compiles and runs LightPlayer scripts: a small typed
// shading language with 16.16 fixed-point arithmetic, compiled to compact
// bytecode for a resource-bounded stack VM.
package lpscript

import (
	"io"

	"github.com/lightplayer/lpscript/parser"
)

// CompilerOptions represents customizable options for Compile.
type CompilerOptions struct {
	// ModuleName is recorded in the compiled Program.
	ModuleName string
	// Optimize enables the bytecode peephole optimizer.
	Optimize bool
	// SourceMap keeps an instruction-to-source-position map in each
	// function, for error reporting and the disassembler.
	SourceMap bool
	// KeepSource embeds the source text in the Program.
	KeepSource bool
	// Source is the text embedded when KeepSource is set; Compile fills
	// it in.
	Source string
	// Trace makes the parser print a parse trace to the writer.
	Trace io.Writer
}

// DefaultCompilerOptions holds default CompilerOptions, should be used for
// most compilations.
var DefaultCompilerOptions = CompilerOptions{
	ModuleName: "main",
	Optimize:   true,
	SourceMap:  true,
}

// Compile compiles a script into a Program ready for the VM.
func Compile(src []byte, opts CompilerOptions) (*Program, error) {
	srcFile := parser.NewSourceFile(opts.ModuleName, len(src))
	p := parser.NewParser(srcFile, src, opts.Trace)
	file, err := p.ParseFile()
	if err != nil {
		return nil, err
	}
	info, err := Check(file)
	if err != nil {
		return nil, err
	}
	if opts.KeepSource {
		opts.Source = string(src)
	}
	program, err := Generate(file, info, opts)
	if err != nil {
		return nil, err
	}
	if opts.Optimize {
		program = Optimize(program)
	}
	return program, nil
}

// Eval compiles and runs a script in one step with default options and
// limits. Intended for tests and quick experiments.
func Eval(src string, inputs *Inputs) (Value, error) {
	program, err := Compile([]byte(src), DefaultCompilerOptions)
	if err != nil {
		return Value{}, err
	}
	return NewVM(program).Run(inputs)
}
