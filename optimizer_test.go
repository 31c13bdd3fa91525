// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func optimizeCode(code []Instr) []Instr {
	p := &Program{
		Version:   ProgramVersion,
		Functions: []*Function{{Name: "main", Code: code}},
	}
	return Optimize(p).Main().Code
}

func TestOptimizeDeadPush(t *testing.T) {
	got := optimizeCode([]Instr{
		instr(OpPushConst, 42),
		instr(OpDrop, 1),
		instr(OpReturn, 0),
	})
	require.Equal(t, []Instr{instr(OpReturn, 0)}, got)

	got = optimizeCode([]Instr{
		instr(OpLoadInput, int32(InputTime)),
		instr(OpDrop, 1),
		instr(OpReturn, 0),
	})
	require.Equal(t, []Instr{instr(OpReturn, 0)}, got)
}

func TestOptimizeDeadLoad(t *testing.T) {
	got := optimizeCode([]Instr{
		instr(OpLoadLocal, PackLocal(0, 2)),
		instr(OpDrop, 2),
		instr(OpReturn, 0),
	})
	require.Equal(t, []Instr{instr(OpReturn, 0)}, got)

	// widths must agree for the pair to be dead
	keep := []Instr{
		instr(OpLoadLocal, PackLocal(0, 2)),
		instr(OpDrop, 1),
		instr(OpReturn, 0),
	}
	require.Equal(t, keep, optimizeCode(keep))
}

func TestOptimizeDupStoreDrop(t *testing.T) {
	got := optimizeCode([]Instr{
		instr(OpPushConst, 7),
		instr(OpDup, 1),
		instr(OpStoreLocal, PackLocal(0, 1)),
		instr(OpDrop, 1),
		instr(OpReturn, 0),
	})
	require.Equal(t, []Instr{
		instr(OpPushConst, 7),
		instr(OpStoreLocal, PackLocal(0, 1)),
		instr(OpReturn, 0),
	}, got)
}

func TestOptimizeNopJump(t *testing.T) {
	got := optimizeCode([]Instr{
		instr(OpPushConst, 1),
		instr(OpJumpIfZero, 2),
		instr(OpJump, 0),
		instr(OpPushConst, 5),
		instr(OpReturn, 1),
	})
	// the no-op jump disappears and the remaining offset is renumbered
	require.Equal(t, []Instr{
		instr(OpPushConst, 1),
		instr(OpJumpIfZero, 1),
		instr(OpPushConst, 5),
		instr(OpReturn, 1),
	}, got)
}

func TestOptimizeKeepsJumpTargets(t *testing.T) {
	// the push is a jump target, so the push/drop pair must survive
	code := []Instr{
		instr(OpPushConst, 7),
		instr(OpDrop, 1),
		instr(OpJump, -3),
		instr(OpReturn, 0),
	}
	require.Equal(t, code, optimizeCode(code))
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	code := []Instr{
		instr(OpPushConst, 42),
		instr(OpDrop, 1),
		instr(OpReturn, 0),
	}
	orig := make([]Instr, len(code))
	copy(orig, code)
	p := &Program{
		Version:   ProgramVersion,
		Functions: []*Function{{Name: "main", Code: code}},
	}
	_ = Optimize(p)
	require.Equal(t, orig, p.Main().Code)
}

func TestOptimizeSourceMap(t *testing.T) {
	p := &Program{
		Version: ProgramVersion,
		Functions: []*Function{{
			Name: "main",
			Code: []Instr{
				instr(OpPushConst, 42),
				instr(OpDrop, 1),
				instr(OpPushConst, 5),
				instr(OpReturn, 1),
			},
			SourceMap: map[int]int{0: 10, 1: 10, 2: 20, 3: 20},
		}},
	}
	out := Optimize(p).Main()
	require.Equal(t, []Instr{
		instr(OpPushConst, 5),
		instr(OpReturn, 1),
	}, out.Code)
	require.Equal(t, map[int]int{0: 20, 1: 20}, out.SourceMap)
}

func TestOptimizeCompiledScripts(t *testing.T) {
	// statements whose values die feed the peephole patterns
	src := `
		float x = 0.0;
		1.0;
		x;
		++x;
		return x;`
	opts := DefaultCompilerOptions
	opts.Optimize = false
	plain, err := Compile([]byte(src), opts)
	require.NoError(t, err)
	optimized := Optimize(plain)
	require.Less(t, len(optimized.Main().Code), len(plain.Main().Code))

	v1, err := NewVM(plain).Run(nil)
	require.NoError(t, err)
	v2, err := NewVM(optimized).Run(nil)
	require.NoError(t, err)
	require.Equal(t, v1, v2)
}

func TestOptimizeIdempotent(t *testing.T) {
	program, err := Compile([]byte(`
		float i = 0.0;
		while (i < 5.0) { i += 1.0; }
		return i;`), DefaultCompilerOptions)
	require.NoError(t, err)
	again := Optimize(program)
	require.Equal(t, program.Main().Code, again.Main().Code)
}
