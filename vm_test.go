// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lpscript/fixed"
)

func expectRun(t *testing.T, script string, inputs *Inputs) Value {
	t.Helper()
	v, err := Eval(script, inputs)
	require.NoError(t, err, "script: %s", script)
	return v
}

func expectFloat(t *testing.T, script string, want float64) {
	t.Helper()
	v := expectRun(t, script, nil)
	require.Equal(t, Fixed, v.Type, "script: %s", script)
	require.InDelta(t, want, v.Float(), 0.001, "script: %s", script)
}

func expectInt(t *testing.T, script string, want int32) {
	t.Helper()
	v := expectRun(t, script, nil)
	require.Equal(t, Int32, v.Type, "script: %s", script)
	require.Equal(t, want, v.Int(), "script: %s", script)
}

func expectBool(t *testing.T, script string, want bool) {
	t.Helper()
	v := expectRun(t, script, nil)
	require.Equal(t, Bool, v.Type, "script: %s", script)
	require.Equal(t, want, v.Bool(), "script: %s", script)
}

func expectVec(t *testing.T, script string, want ...float64) {
	t.Helper()
	v := expectRun(t, script, nil)
	require.Equal(t, VecType(len(want)), v.Type, "script: %s", script)
	for i, c := range want {
		require.InDelta(t, c, v.Component(i).Float(), 0.001,
			"component %d of %s", i, script)
	}
}

func expectRunError(t *testing.T, script string, inputs *Inputs, target error) {
	t.Helper()
	program, err := Compile([]byte(script), DefaultCompilerOptions)
	require.NoError(t, err, "script: %s", script)
	_, err = NewVM(program).Run(inputs)
	require.Error(t, err, "script: %s", script)
	require.True(t, errors.Is(err, target),
		"script: %s\nwant %v, got %v", script, target, err)
}

func TestVMLiterals(t *testing.T) {
	expectFloat(t, `return 1.5;`, 1.5)
	expectFloat(t, `return .5;`, 0.5)
	expectFloat(t, `return 2.5f;`, 2.5)
	expectFloat(t, `return 1e2;`, 100)
	expectInt(t, `return 42;`, 42)
	expectInt(t, `return 0xFF;`, 255)
	expectBool(t, `return true;`, true)
	expectBool(t, `return false;`, false)
}

func TestVMArithmetic(t *testing.T) {
	expectFloat(t, `return 1.5 + 2.25;`, 3.75)
	expectFloat(t, `return 10.0 - 2.5;`, 7.5)
	expectFloat(t, `return 3.0 * 2.5;`, 7.5)
	expectFloat(t, `return 7.0 / 2.0;`, 3.5)
	expectFloat(t, `return -3.25;`, -3.25)
	expectFloat(t, `return 7.5 % 2.0;`, 1.5)
	expectInt(t, `return 7 / 2;`, 3)
	expectInt(t, `return -7 / 2;`, -3)
	expectInt(t, `return 7 % 3;`, 1)
	expectInt(t, `return 2 + 3 * 4;`, 14)
	expectInt(t, `return (2 + 3) * 4;`, 20)
	expectInt(t, `return -5;`, -5)
}

func TestVMIntBitwise(t *testing.T) {
	expectInt(t, `return 0xF0 & 0x3C;`, 0x30)
	expectInt(t, `return 0xF0 | 0x0F;`, 0xFF)
	expectInt(t, `return 0xFF ^ 0x0F;`, 0xF0)
	expectInt(t, `return ~0;`, -1)
	expectInt(t, `return 1 << 4;`, 16)
	expectInt(t, `return 256 >> 4;`, 16)
}

func TestVMIntFloatPromotion(t *testing.T) {
	expectFloat(t, `return 1 + 0.5;`, 1.5)
	expectFloat(t, `return 0.5 + 1;`, 1.5)
	expectFloat(t, `float x = 2; return x;`, 2)
	expectFloat(t, `return 3 / 2.0;`, 1.5)
	expectInt(t, `return int(2.75);`, 2)
	expectFloat(t, `return float(3);`, 3)
}

func TestVMComparisons(t *testing.T) {
	expectBool(t, `return 1.0 < 2.0;`, true)
	expectBool(t, `return 2.0 <= 2.0;`, true)
	expectBool(t, `return 3.0 > 4.0;`, false)
	expectBool(t, `return -1.0 >= 1.0;`, false)
	expectBool(t, `return 1.5 == 1.5;`, true)
	expectBool(t, `return 1.5 != 1.5;`, false)
	expectBool(t, `return 1 < 2;`, true)
	expectBool(t, `return vec2(1.0, 2.0) == vec2(1.0, 2.0);`, true)
	expectBool(t, `return vec2(1.0, 2.0) != vec2(1.0, 3.0);`, true)
}

func TestVMLogical(t *testing.T) {
	expectBool(t, `return true && false;`, false)
	expectBool(t, `return true && true;`, true)
	expectBool(t, `return false || true;`, true)
	expectBool(t, `return false || false;`, false)
	expectBool(t, `return !true;`, false)

	// short circuit: the right side must not run
	expectBool(t, `
		bool b = false && (1.0 / 0.0) > 0.0;
		return b;`, false)
	expectBool(t, `
		bool b = true || (1.0 / 0.0) > 0.0;
		return b;`, true)
}

func TestVMVariables(t *testing.T) {
	expectFloat(t, `float x = 1.5; return x;`, 1.5)
	expectFloat(t, `float x = 1.0; x = x + 2.0; return x;`, 3)
	expectFloat(t, `float x; return x;`, 0)
	expectInt(t, `int a = 2; int b = 3; return a * b;`, 6)
	expectFloat(t, `
		float x = 1.0;
		{
			float x = 100.0;
			x = x + 1.0;
		}
		return x;`, 1)
}

func TestVMCompoundAssign(t *testing.T) {
	expectFloat(t, `float x = 1.0; x += 2.5; return x;`, 3.5)
	expectFloat(t, `float x = 5.0; x -= 1.5; return x;`, 3.5)
	expectFloat(t, `float x = 2.0; x *= 3.0; return x;`, 6)
	expectFloat(t, `float x = 7.0; x /= 2.0; return x;`, 3.5)
	expectInt(t, `int x = 7; x %= 4; return x;`, 3)
	expectInt(t, `int x = 0xF0; x &= 0x3C; return x;`, 0x30)
	expectInt(t, `int x = 1; x <<= 3; return x;`, 8)
}

func TestVMIncDec(t *testing.T) {
	expectFloat(t, `float x = 1.0; x++; return x;`, 2)
	expectFloat(t, `float x = 1.0; x--; return x;`, 0)
	expectInt(t, `int x = 5; int y = x++; return y;`, 5)
	expectInt(t, `int x = 5; int y = ++x; return y;`, 6)
	expectInt(t, `int x = 5; int y = x--; return x + y;`, 9)
}

func TestVMIfElse(t *testing.T) {
	expectFloat(t, `
		float r = 0.0;
		if (1.0 < 2.0) { r = 10.0; } else { r = 20.0; }
		return r;`, 10)
	expectFloat(t, `
		float r = 0.0;
		if (1.0 > 2.0) { r = 10.0; } else { r = 20.0; }
		return r;`, 20)
	expectFloat(t, `
		float r = 1.0;
		if (false) { r = 2.0; }
		return r;`, 1)
	expectFloat(t, `
		float x = 3.0;
		if (x < 1.0) { return 1.0; }
		else if (x < 2.0) { return 2.0; }
		else { return 3.0; }`, 3)
}

func TestVMWhile(t *testing.T) {
	expectFloat(t, `
		float i = 0.0;
		while (i < 5.0) { i = i + 1.0; }
		return i;`, 5)
	expectFloat(t, `
		float sum = 0.0;
		float i = 1.0;
		while (i <= 4.0) {
			sum += i;
			i += 1.0;
		}
		return sum;`, 10)
	expectFloat(t, `
		float i = 10.0;
		while (i < 5.0) { i = 0.0; }
		return i;`, 10)
}

func TestVMFor(t *testing.T) {
	expectInt(t, `
		int sum = 0;
		for (int i = 0; i < 5; i++) { sum += i; }
		return sum;`, 10)
	expectInt(t, `
		int n = 0;
		for (int i = 0; i < 3; i++) {
			for (int j = 0; j < 3; j++) { n++; }
		}
		return n;`, 9)
	// for-init variable scopes over the loop only
	expectInt(t, `
		int i = 100;
		for (int i = 0; i < 3; i++) {}
		return i;`, 100)
}

func TestVMTernary(t *testing.T) {
	expectFloat(t, `return true ? 1.5 : 2.5;`, 1.5)
	expectFloat(t, `return false ? 1.5 : 2.5;`, 2.5)
	expectFloat(t, `float x = 3.0; return x > 2.0 ? x : -x;`, 3)
	expectFloat(t, `return true ? 1 : 0.5;`, 1) // mixed branches promote
}

func TestVMVectors(t *testing.T) {
	expectVec(t, `return vec2(1.0, 2.0);`, 1, 2)
	expectVec(t, `return vec3(1.0, 2.0, 3.0);`, 1, 2, 3)
	expectVec(t, `return vec4(1.0, 2.0, 3.0, 4.0);`, 1, 2, 3, 4)
	expectVec(t, `return vec3(0.5);`, 0.5, 0.5, 0.5)
	expectVec(t, `return vec3(vec2(1.0, 2.0), 3.0);`, 1, 2, 3)
	expectVec(t, `return vec4(vec2(1.0, 2.0), vec2(3.0, 4.0));`, 1, 2, 3, 4)

	expectVec(t, `return vec2(1.0, 2.0) + vec2(10.0, 20.0);`, 11, 22)
	expectVec(t, `return vec2(10.0, 20.0) - vec2(1.0, 2.0);`, 9, 18)
	expectVec(t, `return vec2(2.0, 3.0) * vec2(4.0, 5.0);`, 8, 15)
	expectVec(t, `return vec2(8.0, 9.0) / vec2(2.0, 3.0);`, 4, 3)
	expectVec(t, `return -vec2(1.0, -2.0);`, -1, 2)

	expectVec(t, `return vec2(1.0, 2.0) * 3.0;`, 3, 6)
	expectVec(t, `return 3.0 * vec2(1.0, 2.0);`, 3, 6)
	expectVec(t, `return vec2(3.0, 6.0) / 3.0;`, 1, 2)
	expectVec(t, `return vec2(1.0, 2.0) * 2;`, 2, 4)
}

func TestVMSwizzle(t *testing.T) {
	expectFloat(t, `return vec3(1.0, 2.0, 3.0).y;`, 2)
	expectFloat(t, `return vec2(4.0, 5.0).x;`, 4)
	expectVec(t, `return vec3(1.0, 2.0, 3.0).zx;`, 3, 1)
	expectVec(t, `return vec2(1.0, 2.0).yxyx;`, 2, 1, 2, 1)
	expectFloat(t, `return vec4(1.0, 2.0, 3.0, 4.0).w;`, 4)
	expectFloat(t, `return vec3(1.0, 2.0, 3.0).b;`, 3)
	expectFloat(t, `return vec3(1.0, 2.0, 3.0).p;`, 3)
	expectVec(t, `vec3 v = vec3(1.0, 2.0, 3.0); return v.rgb;`, 1, 2, 3)
}

func TestVMSwizzleAssign(t *testing.T) {
	expectVec(t, `
		vec3 v = vec3(0.0, 0.0, 0.0);
		v.x = 5.0;
		return v;`, 5, 0, 0)
	expectVec(t, `
		vec3 v = vec3(1.0, 2.0, 3.0);
		v.xz = vec2(10.0, 30.0);
		return v;`, 10, 2, 30)
	expectVec(t, `
		vec2 v = vec2(1.0, 2.0);
		v.yx = vec2(10.0, 20.0);
		return v;`, 20, 10)
}

func TestVMNatives(t *testing.T) {
	expectFloat(t, `return min(1.5, 2.5);`, 1.5)
	expectFloat(t, `return max(1.5, 2.5);`, 2.5)
	expectFloat(t, `return abs(-3.5);`, 3.5)
	expectFloat(t, `return floor(2.75);`, 2)
	expectFloat(t, `return floor(-2.25);`, -3)
	expectFloat(t, `return ceil(2.25);`, 3)
	expectFloat(t, `return fract(2.75);`, 0.75)
	expectFloat(t, `return sqrt(4.0);`, 2)
	expectFloat(t, `return sqrt(2.0);`, 1.41421)
	expectFloat(t, `return pow(2.0, 3.0);`, 8)
	expectFloat(t, `return pow(4.0, 0.5);`, 2)
	expectFloat(t, `return sign(-4.2);`, -1)
	expectFloat(t, `return saturate(1.5);`, 1)
	expectFloat(t, `return saturate(-0.5);`, 0)
	expectFloat(t, `return step(1.0, 0.5);`, 0)
	expectFloat(t, `return step(1.0, 1.5);`, 1)
	expectFloat(t, `return clamp(5.0, 0.0, 2.0);`, 2)
	expectFloat(t, `return lerp(0.0, 10.0, 0.25);`, 2.5)
	expectFloat(t, `return mix(0.0, 10.0, 0.25);`, 2.5)
	expectFloat(t, `return smoothstep(0.0, 1.0, 0.5);`, 0.5)
	expectFloat(t, `return mod(7.5, 2.0);`, 1.5)
	expectFloat(t, `return mod(-0.25, 1.0);`, 0.75)
}

func TestVMTrigNatives(t *testing.T) {
	expectFloat(t, `return sin(0.0);`, 0)
	expectFloat(t, `return sin(1.5708);`, 1)
	expectFloat(t, `return cos(0.0);`, 1)
	expectFloat(t, `return cos(3.14159);`, -1)
	expectFloat(t, `return tan(0.7854);`, 1)
	expectFloat(t, `return atan(1.0);`, 0.7854)
	expectFloat(t, `return atan2(1.0, 1.0);`, 0.7854)
	expectFloat(t, `return atan2(1.0, -1.0);`, 2.3562)
	expectFloat(t, `return atan2(-1.0, 1.0);`, -0.7854)
}

func TestVMVectorNatives(t *testing.T) {
	expectFloat(t, `return length(vec2(3.0, 4.0));`, 5)
	expectFloat(t, `return length(vec3(2.0, 3.0, 6.0));`, 7)
	expectFloat(t, `return dot(vec2(1.0, 2.0), vec2(3.0, 4.0));`, 11)
	expectFloat(t, `return dot(vec3(1.0, 0.0, 0.0), vec3(0.0, 1.0, 0.0));`, 0)
	expectFloat(t, `return distance(vec2(1.0, 1.0), vec2(4.0, 5.0));`, 5)
	expectVec(t, `return normalize(vec2(3.0, 4.0));`, 0.6, 0.8)
	expectVec(t, `return normalize(vec2(0.0, 0.0));`, 0, 0)
	expectVec(t, `return cross(vec3(1.0, 0.0, 0.0), vec3(0.0, 1.0, 0.0));`,
		0, 0, 1)
}

func TestVMComponentwiseNatives(t *testing.T) {
	expectVec(t, `return abs(vec2(-1.5, 2.5));`, 1.5, 2.5)
	expectVec(t, `return floor(vec2(1.75, -0.25));`, 1, -1)
	expectVec(t, `return min(vec2(1.0, 5.0), vec2(3.0, 2.0));`, 1, 2)
	expectVec(t, `return max(vec3(1.0, 5.0, 2.0), vec3(3.0, 2.0, 2.0));`,
		3, 5, 2)
	expectVec(t, `return clamp(vec2(-1.0, 2.0), 0.0, 1.0);`, 0, 1)
	expectVec(t, `return lerp(vec2(0.0, 10.0), vec2(10.0, 20.0), 0.5);`,
		5, 15)
	expectVec(t, `return saturate(vec3(-0.5, 0.25, 1.5));`, 0, 0.25, 1)
	// arguments evaluate once even when expanded per lane
	expectVec(t, `
		float n = 0.0;
		vec2 r = abs(vec2(n++, -2.0));
		return vec2(r.y, n);`, 2, 1)
}

func TestVMFunctions(t *testing.T) {
	expectFloat(t, `
		float double(float x) { return x * 2.0; }
		return double(3.25);`, 6.5)
	expectFloat(t, `
		float add(float a, float b) { return a + b; }
		return add(1.5, add(2.0, 3.0));`, 6.5)
	expectInt(t, `
		int square(int x) { return x * x; }
		int sum = 0;
		for (int i = 1; i <= 3; i++) { sum += square(i); }
		return sum;`, 14)
	expectVec(t, `
		vec2 flip(vec2 v) { return vec2(v.y, v.x); }
		return flip(vec2(1.0, 2.0));`, 2, 1)
	// forward reference: declaration order does not matter
	expectFloat(t, `
		float a(float v) { return b(v) + 1.0; }
		float b(float v) { return v * 2.0; }
		return a(3.0);`, 7)
	// recursion
	expectInt(t, `
		int fact(int n) {
			if (n <= 1) { return 1; }
			return n * fact(n - 1);
		}
		return fact(5);`, 120)
	// int argument promotes to float parameter
	expectFloat(t, `
		float half(float v) { return v / 2.0; }
		return half(5);`, 2.5)
	// fall-off returns the zero value
	expectFloat(t, `
		float f(float v) { if (v > 0.0) { return v; } }
		return f(-1.0);`, 0)
}

func TestVMVoidFunction(t *testing.T) {
	expectFloat(t, `
		void noop() {}
		noop();
		return 1.0;`, 1)
}

func TestVMInputs(t *testing.T) {
	in := &Inputs{
		XNorm: fixed.FromFloat(0.25),
		YNorm: fixed.FromFloat(0.75),
		XPix:  12,
		YPix:  34,
		Time:  fixed.FromFloat(3.5),
	}

	v, err := Eval(`return uv;`, in)
	require.NoError(t, err)
	require.Equal(t, Vec2, v.Type)
	require.InDelta(t, 0.25, v.Component(0).Float(), 0.001)
	require.InDelta(t, 0.75, v.Component(1).Float(), 0.001)

	// coord carries the pixel position as fixed point
	v, err = Eval(`return coord;`, in)
	require.NoError(t, err)
	require.Equal(t, Vec2, v.Type)
	require.InDelta(t, 12.0, v.Component(0).Float(), 0.001)
	require.InDelta(t, 34.0, v.Component(1).Float(), 0.001)

	v, err = Eval(`return coord.y;`, in)
	require.NoError(t, err)
	require.InDelta(t, 34.0, v.Float(), 0.001)

	v, err = Eval(`return x + y;`, in)
	require.NoError(t, err)
	require.InDelta(t, 1.0, v.Float(), 0.001)

	v, err = Eval(`return xPix + yPix;`, in)
	require.NoError(t, err)
	require.Equal(t, int32(46), v.Int())

	v, err = Eval(`return time;`, in)
	require.NoError(t, err)
	require.InDelta(t, 3.5, v.Float(), 0.001)

	v, err = Eval(`return t;`, in)
	require.NoError(t, err)
	require.InDelta(t, 3.5, v.Float(), 0.001)

	v, err = Eval(`return timeNorm;`, in)
	require.NoError(t, err)
	require.InDelta(t, 0.5, v.Float(), 0.001)

	// Manhattan distance from center: |0.25-0.5| + |0.75-0.5|
	v, err = Eval(`return centerDist;`, in)
	require.NoError(t, err)
	require.InDelta(t, 0.5, v.Float(), 0.001)

	// centerAngle of (cx, cy) = (-0.25, 0.25) is 3*pi/4
	v, err = Eval(`return centerAngle;`, in)
	require.NoError(t, err)
	require.InDelta(t, 2.356, v.Float(), 0.01)

	// dist and angle are aliases
	v, err = Eval(`return dist;`, in)
	require.NoError(t, err)
	require.InDelta(t, 0.5, v.Float(), 0.001)
}

func TestVMInputShadowing(t *testing.T) {
	in := &Inputs{Time: fixed.FromFloat(9.0)}
	v, err := Eval(`float time = 1.5; return time;`, in)
	require.NoError(t, err)
	require.InDelta(t, 1.5, v.Float(), 0.001)
}

func TestVMDivisionByZero(t *testing.T) {
	expectRunError(t, `return 1.0 / 0.0;`, nil, ErrDivisionByZero)
	expectRunError(t, `int z = 0; return 7 / z;`, nil, ErrDivisionByZero)
	expectRunError(t, `int z = 0; return 7 % z;`, nil, ErrDivisionByZero)
	expectRunError(t, `return mod(1.0, 0.0);`, nil, ErrDivisionByZero)
	expectRunError(t, `float z = 0.0; return vec2(1.0, 2.0) / z;`,
		nil, ErrDivisionByZero)
	expectRunError(t, `return vec2(1.0, 2.0) / vec2(1.0, 0.0);`,
		nil, ErrDivisionByZero)
}

func TestVMInstructionLimit(t *testing.T) {
	expectRunError(t, `while (true) {}`, nil, ErrInstructionLimit)
	expectRunError(t, `
		float v = 0.0;
		while (v < 100000.0) { v += 0.001; }
		return v;`, nil, ErrInstructionLimit)
}

func TestVMCallStackLimit(t *testing.T) {
	expectRunError(t, `
		int f(int n) { return f(n + 1); }
		return f(0);`, nil, ErrCallStackOverflow)
}

func TestVMCustomLimits(t *testing.T) {
	program, err := Compile([]byte(`
		float v = 0.0;
		while (v < 100.0) { v += 1.0; }
		return v;`), DefaultCompilerOptions)
	require.NoError(t, err)

	vm := NewVM(program)
	vm.SetLimits(VmLimits{
		MaxCallStackDepth: 4,
		MaxStackSize:      32,
		MaxInstructions:   50,
	})
	_, err = vm.Run(nil)
	require.True(t, errors.Is(err, ErrInstructionLimit))

	// the default budget is enough
	vm.SetLimits(DefaultVmLimits)
	v, err := vm.Run(nil)
	require.NoError(t, err)
	require.InDelta(t, 100.0, v.Float(), 0.001)
}

func TestVMStackLimit(t *testing.T) {
	program, err := Compile(
		[]byte(`return vec4(1.0, 2.0, 3.0, 4.0);`), DefaultCompilerOptions)
	require.NoError(t, err)
	vm := NewVM(program)
	vm.SetLimits(VmLimits{
		MaxCallStackDepth: 4,
		MaxStackSize:      2,
		MaxInstructions:   1000,
	})
	_, err = vm.Run(nil)
	require.True(t, errors.Is(err, ErrStackOverflow))
}

func TestVMReuse(t *testing.T) {
	program, err := Compile([]byte(`return time * 2.0;`),
		DefaultCompilerOptions)
	require.NoError(t, err)
	vm := NewVM(program)
	for i := 1; i <= 3; i++ {
		in := &Inputs{Time: fixed.FromInt(int32(i))}
		v, err := vm.Run(in)
		require.NoError(t, err)
		require.InDelta(t, float64(2*i), v.Float(), 0.001)
	}
}

func TestVMEmptyScript(t *testing.T) {
	v, err := Eval(``, nil)
	require.NoError(t, err)
	require.Equal(t, Void, v.Type)
}

func TestVMUnoptimizedMatchesOptimized(t *testing.T) {
	scripts := []string{
		`float i = 0.0; while (i < 5.0) { i = i + 1.0; } return i;`,
		`vec3 v = vec3(1.0, 2.0, 3.0); v.y += 1.0; return v.y;`,
		`int s = 0; for (int i = 0; i < 10; i++) { s += i; } return s;`,
		`return length(vec2(3.0, 4.0)) + sin(0.0);`,
	}
	for _, script := range scripts {
		opts := DefaultCompilerOptions
		opts.Optimize = false
		plain, err := Compile([]byte(script), opts)
		require.NoError(t, err, script)

		opts.Optimize = true
		optimized, err := Compile([]byte(script), opts)
		require.NoError(t, err, script)

		v1, err := NewVM(plain).Run(nil)
		require.NoError(t, err, script)
		v2, err := NewVM(optimized).Run(nil)
		require.NoError(t, err, script)
		require.Equal(t, v1, v2, script)
		require.LessOrEqual(t,
			len(optimized.Main().Code), len(plain.Main().Code), script)
	}
}
