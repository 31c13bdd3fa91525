// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import "fmt"

// NativeID identifies a built-in function callable via OpCallNative.
type NativeID int32

// List of native functions
const (
	NativeMin NativeID = iota
	NativeMax
	NativePow
	NativeAbs
	NativeFloor
	NativeCeil
	NativeSqrt
	NativeSign
	NativeSaturate
	NativeStep
	NativeClamp
	NativeLerp
	NativeSmoothstep
	NativeSin
	NativeCos
	NativeTan
	NativeAtan
	NativeAtan2
	NativeFract
	NativeMod
	NativeLength2
	NativeLength3
	NativeLength4
	NativeNormalize2
	NativeNormalize3
	NativeNormalize4
	NativeDot2
	NativeDot3
	NativeDot4
	NativeDistance2
	NativeDistance3
	NativeDistance4
	NativeCross
)

// NativeNames contains the string representation of each native id.
var NativeNames = [...]string{
	NativeMin:        "min",
	NativeMax:        "max",
	NativePow:        "pow",
	NativeAbs:        "abs",
	NativeFloor:      "floor",
	NativeCeil:       "ceil",
	NativeSqrt:       "sqrt",
	NativeSign:       "sign",
	NativeSaturate:   "saturate",
	NativeStep:       "step",
	NativeClamp:      "clamp",
	NativeLerp:       "lerp",
	NativeSmoothstep: "smoothstep",
	NativeSin:        "sin",
	NativeCos:        "cos",
	NativeTan:        "tan",
	NativeAtan:       "atan",
	NativeAtan2:      "atan2",
	NativeFract:      "fract",
	NativeMod:        "mod",
	NativeLength2:    "length2",
	NativeLength3:    "length3",
	NativeLength4:    "length4",
	NativeNormalize2: "normalize2",
	NativeNormalize3: "normalize3",
	NativeNormalize4: "normalize4",
	NativeDot2:       "dot2",
	NativeDot3:       "dot3",
	NativeDot4:       "dot4",
	NativeDistance2:  "distance2",
	NativeDistance3:  "distance3",
	NativeDistance4:  "distance4",
	NativeCross:      "cross",
}

func (id NativeID) String() string {
	if int(id) >= 0 && int(id) < len(NativeNames) {
		return NativeNames[id]
	}
	return fmt.Sprintf("native(%d)", int32(id))
}

// nativeArgCells maps a native id to the number of argument cells it pops.
var nativeArgCells = [...]int{
	NativeMin:        2,
	NativeMax:        2,
	NativePow:        2,
	NativeAbs:        1,
	NativeFloor:      1,
	NativeCeil:       1,
	NativeSqrt:       1,
	NativeSign:       1,
	NativeSaturate:   1,
	NativeStep:       2,
	NativeClamp:      3,
	NativeLerp:       3,
	NativeSmoothstep: 3,
	NativeSin:        1,
	NativeCos:        1,
	NativeTan:        1,
	NativeAtan:       1,
	NativeAtan2:      2,
	NativeFract:      1,
	NativeMod:        2,
	NativeLength2:    2,
	NativeLength3:    3,
	NativeLength4:    4,
	NativeNormalize2: 2,
	NativeNormalize3: 3,
	NativeNormalize4: 4,
	NativeDot2:       4,
	NativeDot3:       6,
	NativeDot4:       8,
	NativeDistance2:  4,
	NativeDistance3:  6,
	NativeDistance4:  8,
	NativeCross:      6,
}

// nativeResultCells maps a native id to the number of result cells it
// pushes.
var nativeResultCells = [...]int{
	NativeMin:        1,
	NativeMax:        1,
	NativePow:        1,
	NativeAbs:        1,
	NativeFloor:      1,
	NativeCeil:       1,
	NativeSqrt:       1,
	NativeSign:       1,
	NativeSaturate:   1,
	NativeStep:       1,
	NativeClamp:      1,
	NativeLerp:       1,
	NativeSmoothstep: 1,
	NativeSin:        1,
	NativeCos:        1,
	NativeTan:        1,
	NativeAtan:       1,
	NativeAtan2:      1,
	NativeFract:      1,
	NativeMod:        1,
	NativeLength2:    1,
	NativeLength3:    1,
	NativeLength4:    1,
	NativeNormalize2: 2,
	NativeNormalize3: 3,
	NativeNormalize4: 4,
	NativeDot2:       1,
	NativeDot3:       1,
	NativeDot4:       1,
	NativeDistance2:  1,
	NativeDistance3:  1,
	NativeDistance4:  1,
	NativeCross:      3,
}

// scalarNatives maps a callable name to its scalar native id and the number
// of float parameters. These take and return Fixed.
var scalarNatives = map[string]struct {
	id    NativeID
	arity int
}{
	"min":        {NativeMin, 2},
	"max":        {NativeMax, 2},
	"pow":        {NativePow, 2},
	"abs":        {NativeAbs, 1},
	"floor":      {NativeFloor, 1},
	"ceil":       {NativeCeil, 1},
	"sqrt":       {NativeSqrt, 1},
	"sign":       {NativeSign, 1},
	"saturate":   {NativeSaturate, 1},
	"step":       {NativeStep, 2},
	"clamp":      {NativeClamp, 3},
	"lerp":       {NativeLerp, 3},
	"mix":        {NativeLerp, 3},
	"smoothstep": {NativeSmoothstep, 3},
	"sin":        {NativeSin, 1},
	"cos":        {NativeCos, 1},
	"tan":        {NativeTan, 1},
	"atan":       {NativeAtan, 1},
	"atan2":      {NativeAtan2, 2},
	"fract":      {NativeFract, 1},
	"mod":        {NativeMod, 2},
}

// componentwiseNatives is the subset of scalar natives that also accept
// vector arguments and apply per component.
var componentwiseNatives = map[string]bool{
	"min":        true,
	"max":        true,
	"abs":        true,
	"floor":      true,
	"ceil":       true,
	"fract":      true,
	"saturate":   true,
	"clamp":      true,
	"lerp":       true,
	"mix":        true,
	"smoothstep": true,
	"mod":        true,
}

// vecWidthNative returns the width-specialized native id from a base id,
// e.g. length with width 3 yields NativeLength3.
func vecWidthNative(base NativeID, width int) NativeID {
	return base + NativeID(width-2)
}

// resolveNative resolves a call by name and argument types. The returned
// componentwise flag tells the code generator to expand the call per lane.
func resolveNative(name string, args []Type) (id NativeID, result Type, componentwise, ok bool) {
	switch name {
	case "length", "normalize", "dot", "distance", "cross":
		return resolveVecNative(name, args)
	}
	sn, found := scalarNatives[name]
	if !found || len(args) != sn.arity {
		return 0, Void, false, false
	}
	allFixed := true
	for _, t := range args {
		if t != Fixed && t != Int32 {
			allFixed = false
			break
		}
	}
	if allFixed {
		return sn.id, Fixed, false, true
	}
	if !componentwiseNatives[name] {
		return 0, Void, false, false
	}
	// vector form: every argument is the same vector type, or a scalar
	// that will be splatted
	var vec Type
	for _, t := range args {
		if t.IsVector() {
			if vec != Void && t != vec {
				return 0, Void, false, false
			}
			vec = t
		} else if t != Fixed && t != Int32 {
			return 0, Void, false, false
		}
	}
	if vec == Void {
		return 0, Void, false, false
	}
	return sn.id, vec, true, true
}

func resolveVecNative(name string, args []Type) (NativeID, Type, bool, bool) {
	switch name {
	case "length", "normalize":
		if len(args) != 1 || !args[0].IsVector() {
			return 0, Void, false, false
		}
		w := args[0].SizeInCells()
		if name == "length" {
			return vecWidthNative(NativeLength2, w), Fixed, false, true
		}
		return vecWidthNative(NativeNormalize2, w), args[0], false, true
	case "dot", "distance":
		if len(args) != 2 || !args[0].IsVector() || args[1] != args[0] {
			return 0, Void, false, false
		}
		w := args[0].SizeInCells()
		if name == "dot" {
			return vecWidthNative(NativeDot2, w), Fixed, false, true
		}
		return vecWidthNative(NativeDistance2, w), Fixed, false, true
	case "cross":
		if len(args) != 2 || args[0] != Vec3 || args[1] != Vec3 {
			return 0, Void, false, false
		}
		return NativeCross, Vec3, false, true
	}
	return 0, Void, false, false
}
