// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

// Optimize returns an optimized copy of the program. The input is not
// modified. Optimization is a pure bytecode-to-bytecode transform; running
// the optimized program always produces the same result as the input.
func Optimize(p *Program) *Program {
	out := &Program{
		Version: p.Version,
		Name:    p.Name,
		Source:  p.Source,
	}
	for _, fn := range p.Functions {
		out.Functions = append(out.Functions, optimizeFunc(fn))
	}
	return out
}

// optimizeFunc runs peephole passes until no pattern matches.
func optimizeFunc(fn *Function) *Function {
	code := make([]Instr, len(fn.Code))
	copy(code, fn.Code)
	srcMap := fn.SourceMap
	for {
		newCode, newMap, changed := peepholePass(code, srcMap)
		code, srcMap = newCode, newMap
		if !changed {
			break
		}
	}
	return &Function{
		Name:       fn.Name,
		ReturnType: fn.ReturnType,
		ParamCells: fn.ParamCells,
		LocalCells: fn.LocalCells,
		Code:       code,
		SourceMap:  srcMap,
	}
}

// jumpTargets returns a set of instruction indexes some jump lands on.
func jumpTargets(code []Instr) map[int]bool {
	targets := make(map[int]bool)
	for ip, ins := range code {
		if ins.Op.IsJump() {
			targets[ip+1+int(ins.Arg)] = true
		}
	}
	return targets
}

// peepholePass marks redundant instruction runs for deletion and rebuilds
// the code with jump offsets renumbered. A run is only removed when no jump
// lands inside it, so control flow never changes.
func peepholePass(code []Instr, srcMap map[int]int) ([]Instr, map[int]int, bool) {
	targets := jumpTargets(code)
	removed := make([]bool, len(code))

	// clean marks the instructions from i to j inclusive for removal if
	// that is safe
	clean := func(i, j int) bool {
		for k := i; k <= j; k++ {
			if targets[k] || removed[k] {
				return false
			}
		}
		for k := i; k <= j; k++ {
			removed[k] = true
		}
		return true
	}

	changed := false
	for ip := 0; ip < len(code); ip++ {
		if removed[ip] {
			continue
		}
		ins := code[ip]
		switch ins.Op {
		case OpDup:
			// DUP w; STORELOCAL; DROP w  =>  STORELOCAL
			if ip+2 < len(code) &&
				code[ip+1].Op == OpStoreLocal &&
				code[ip+2].Op == OpDrop &&
				code[ip+2].Arg == ins.Arg &&
				!targets[ip+1] && !targets[ip+2] &&
				!removed[ip+1] && !removed[ip+2] {
				removed[ip] = true
				removed[ip+2] = true
				changed = true
				ip += 2
			}
		case OpPushConst, OpLoadInput:
			// a pushed value immediately dropped does nothing
			if ip+1 < len(code) &&
				code[ip+1].Op == OpDrop && code[ip+1].Arg == 1 {
				if clean(ip, ip+1) {
					changed = true
					ip++
				}
			}
		case OpLoadLocal:
			_, width := UnpackLocal(ins.Arg)
			if ip+1 < len(code) &&
				code[ip+1].Op == OpDrop &&
				int(code[ip+1].Arg) == width {
				if clean(ip, ip+1) {
					changed = true
					ip++
				}
			}
		case OpJump:
			// a jump to the next instruction is a no-op
			if ins.Arg == 0 && !targets[ip] {
				removed[ip] = true
				changed = true
			}
		}
	}
	if !changed {
		return code, srcMap, false
	}

	// renumber: newIndex[i] is i minus the removed instructions before it
	newIndex := make([]int, len(code)+1)
	n := 0
	for i := range code {
		newIndex[i] = n
		if !removed[i] {
			n++
		}
	}
	newIndex[len(code)] = n

	out := make([]Instr, 0, n)
	var outMap map[int]int
	if srcMap != nil {
		outMap = make(map[int]int, len(srcMap))
	}
	for i, ins := range code {
		if removed[i] {
			continue
		}
		if ins.Op.IsJump() {
			target := i + 1 + int(ins.Arg)
			ins.Arg = int32(newIndex[target] - newIndex[i] - 1)
		}
		if outMap != nil {
			if pos, ok := srcMap[i]; ok {
				outMap[len(out)] = pos
			}
		}
		out = append(out, ins)
	}
	return out, outMap, true
}
