// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package fixed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func requireNear(t *testing.T, want float64, got Fixed, tol float64) {
	t.Helper()
	require.InDelta(t, want, got.Float(), tol)
}

func TestConversions(t *testing.T) {
	require.Equal(t, One, FromInt(1))
	require.Equal(t, Fixed(-1<<Shift), FromInt(-1))
	require.Equal(t, int32(3), FromFloat(3.75).ToInt())
	require.Equal(t, int32(-3), FromFloat(-3.75).ToInt())
	require.Equal(t, int32(0), FromFloat(0.99).ToInt())
	requireNear(t, 1.5, FromFloat(1.5), 0.0001)
	requireNear(t, -0.25, FromFloat(-0.25), 0.0001)
	require.Equal(t, Half, FromFloat(0.5))
}

func TestMulDiv(t *testing.T) {
	requireNear(t, 7.5, Mul(FromFloat(3), FromFloat(2.5)), 0.0001)
	requireNear(t, -7.5, Mul(FromFloat(-3), FromFloat(2.5)), 0.0001)
	requireNear(t, 0.25, Mul(Half, Half), 0.0001)
	requireNear(t, 3.5, Div(FromFloat(7), FromFloat(2)), 0.0001)
	requireNear(t, -3.5, Div(FromFloat(7), FromFloat(-2)), 0.0001)
	requireNear(t, 100, Div(One, FromFloat(0.01)), 0.01)
}

func TestMod(t *testing.T) {
	requireNear(t, 1.5, Mod(FromFloat(7.5), FromFloat(2)), 0.0001)
	// GLSL mod follows the sign of the divisor
	requireNear(t, 0.75, Mod(FromFloat(-0.25), One), 0.0001)
	requireNear(t, -0.25, Mod(FromFloat(0.75), -One), 0.0001)
}

func TestRounding(t *testing.T) {
	requireNear(t, 2, Floor(FromFloat(2.75)), 0)
	requireNear(t, -3, Floor(FromFloat(-2.25)), 0)
	requireNear(t, 3, Ceil(FromFloat(2.25)), 0)
	requireNear(t, -2, Ceil(FromFloat(-2.75)), 0)
	requireNear(t, 2, Ceil(FromFloat(2.0)), 0)
	requireNear(t, 0.75, Fract(FromFloat(2.75)), 0.0001)
	requireNear(t, 0.75, Fract(FromFloat(-0.25)), 0.0001)
}

func TestClamping(t *testing.T) {
	require.Equal(t, One, Saturate(FromFloat(1.5)))
	require.Equal(t, Fixed(0), Saturate(FromFloat(-0.5)))
	require.Equal(t, Half, Saturate(Half))
	require.Equal(t, FromInt(2), Clamp(FromInt(5), 0, FromInt(2)))
	require.Equal(t, FromInt(-1), Clamp(FromInt(-5), FromInt(-1), FromInt(2)))
	require.Equal(t, One, Min2(One, FromInt(2)))
	require.Equal(t, FromInt(2), Max2(One, FromInt(2)))
	require.Equal(t, One, Sign(FromFloat(4.2)))
	require.Equal(t, -One, Sign(FromFloat(-4.2)))
	require.Equal(t, Fixed(0), Sign(0))
}

func TestInterpolation(t *testing.T) {
	requireNear(t, 2.5, Lerp(0, FromInt(10), FromFloat(0.25)), 0.001)
	requireNear(t, 10, Lerp(0, FromInt(10), One), 0.001)
	requireNear(t, 0, Step(One, Half), 0)
	requireNear(t, 1, Step(One, FromInt(2)), 0)
	requireNear(t, 0.5, Smoothstep(0, One, Half), 0.001)
	requireNear(t, 0, Smoothstep(0, One, FromFloat(-1)), 0)
	requireNear(t, 1, Smoothstep(0, One, FromInt(2)), 0)
	// degenerate edges collapse to a step
	requireNear(t, 1, Smoothstep(One, One, FromInt(2)), 0)
	requireNear(t, 0, Smoothstep(One, One, Half), 0)
}

func TestSqrt(t *testing.T) {
	requireNear(t, 2, Sqrt(FromInt(4)), 0.001)
	requireNear(t, 1.41421, Sqrt(FromInt(2)), 0.001)
	requireNear(t, 0.5, Sqrt(FromFloat(0.25)), 0.001)
	requireNear(t, 100, Sqrt(FromInt(10000)), 0.01)
	require.Equal(t, Fixed(0), Sqrt(FromInt(-4)))
	require.Equal(t, Fixed(0), Sqrt(0))
}

func TestLog2Exp2(t *testing.T) {
	requireNear(t, 3, Log2(FromInt(8)), 0.001)
	requireNear(t, -1, Log2(Half), 0.001)
	requireNear(t, 0, Log2(One), 0.001)
	requireNear(t, 0.585, Log2(FromFloat(1.5)), 0.001)
	require.Equal(t, Min, Log2(0))

	requireNear(t, 8, Exp2(FromInt(3)), 0.01)
	requireNear(t, 0.5, Exp2(FromInt(-1)), 0.001)
	requireNear(t, 1, Exp2(0), 0.001)
	requireNear(t, 1.4142, Exp2(Half), 0.002)
	require.Equal(t, Fixed(0), Exp2(FromInt(-20)))
	require.Equal(t, Max, Exp2(FromInt(20)))
}

func TestPow(t *testing.T) {
	requireNear(t, 8, Pow(FromInt(2), FromInt(3)), 0.001)
	requireNear(t, 0.125, Pow(FromInt(2), FromInt(-3)), 0.001)
	requireNear(t, 2, Pow(FromInt(4), Half), 0.01)
	requireNear(t, 1, Pow(FromFloat(3.7), 0), 0)
	requireNear(t, 0, Pow(0, FromInt(2)), 0)
	// negative base with an integral exponent stays exact
	requireNear(t, -8, Pow(FromInt(-2), FromInt(3)), 0.001)
	requireNear(t, 4, Pow(FromInt(-2), FromInt(2)), 0.001)
	// negative base with a fractional exponent has no real result
	require.Equal(t, Fixed(0), Pow(FromInt(-2), Half))
}
