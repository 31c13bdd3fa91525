// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package fixed implements 16.16 signed fixed-point arithmetic. It is the
// scalar number type of the script VM: deterministic across platforms and
// cheap on targets without an FPU.
//
// Arithmetic wraps on overflow like two's-complement integers. Division by
// zero must be guarded by the caller; the VM turns it into a runtime error.
package fixed

// Fixed is a 16.16 signed fixed-point number.
type Fixed int32

// Format constants.
const (
	Shift = 16
	One   = Fixed(1 << Shift)
	Half  = Fixed(1 << (Shift - 1))
	// Pi and Tau in 16.16.
	Pi     = Fixed(205887)
	Tau    = Fixed(411774)
	HalfPi = Fixed(102943)

	// Max and Min representable values.
	Max = Fixed(0x7FFFFFFF)
	Min = Fixed(-0x80000000)
)

// FromInt converts an integer to fixed point.
func FromInt(v int32) Fixed {
	return Fixed(v << Shift)
}

// ToInt truncates toward zero.
func (x Fixed) ToInt() int32 {
	if x < 0 {
		return -int32(-x >> Shift)
	}
	return int32(x >> Shift)
}

// FromFloat converts a float to the nearest fixed-point value. Compile-time
// only; the VM never touches floats.
func FromFloat(v float64) Fixed {
	if v >= 0 {
		return Fixed(v*65536.0 + 0.5)
	}
	return Fixed(v*65536.0 - 0.5)
}

// Float returns the float64 value, for display and tests.
func (x Fixed) Float() float64 {
	return float64(x) / 65536.0
}

// Mul multiplies two fixed-point values with an intermediate 64-bit product.
func Mul(a, b Fixed) Fixed {
	return Fixed((int64(a) * int64(b)) >> Shift)
}

// Div divides a by b. b must not be zero.
func Div(a, b Fixed) Fixed {
	return Fixed((int64(a) << Shift) / int64(b))
}

// Mod returns a - b*floor(a/b), the GLSL-style modulo. b must not be zero.
func Mod(a, b Fixed) Fixed {
	return a - Mul(b, Floor(Div(a, b)))
}

// Abs returns the absolute value.
func Abs(x Fixed) Fixed {
	if x < 0 {
		return -x
	}
	return x
}

// Sign returns -1, 0 or 1 in fixed point.
func Sign(x Fixed) Fixed {
	switch {
	case x > 0:
		return One
	case x < 0:
		return -One
	}
	return 0
}

// Floor rounds toward negative infinity.
func Floor(x Fixed) Fixed {
	return x &^ (One - 1)
}

// Ceil rounds toward positive infinity.
func Ceil(x Fixed) Fixed {
	return (x + One - 1) &^ (One - 1)
}

// Fract returns x - Floor(x), always in [0, 1).
func Fract(x Fixed) Fixed {
	return x & (One - 1)
}

// Min2 returns the smaller of a and b.
func Min2(a, b Fixed) Fixed {
	if a < b {
		return a
	}
	return b
}

// Max2 returns the larger of a and b.
func Max2(a, b Fixed) Fixed {
	if a > b {
		return a
	}
	return b
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi Fixed) Fixed {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Saturate clamps x to [0, 1].
func Saturate(x Fixed) Fixed {
	return Clamp(x, 0, One)
}

// Lerp interpolates linearly from a to b by t.
func Lerp(a, b, t Fixed) Fixed {
	return a + Mul(b-a, t)
}

// Step returns 0 if x < edge, else 1.
func Step(edge, x Fixed) Fixed {
	if x < edge {
		return 0
	}
	return One
}

// Smoothstep returns the Hermite interpolation between the two edges.
func Smoothstep(edge0, edge1, x Fixed) Fixed {
	if edge0 == edge1 {
		return Step(edge1, x)
	}
	t := Saturate(Div(x-edge0, edge1-edge0))
	// t*t*(3 - 2*t)
	return Mul(Mul(t, t), 3*One-2*t)
}

// Sqrt returns the square root of x, or 0 for negative inputs.
func Sqrt(x Fixed) Fixed {
	if x <= 0 {
		return 0
	}
	// Integer square root of x<<16 so the result stays in 16.16.
	v := uint64(x) << Shift
	var res uint64
	bit := uint64(1) << 62
	for bit > v {
		bit >>= 2
	}
	for bit != 0 {
		if v >= res+bit {
			v -= res + bit
			res = (res >> 1) + bit
		} else {
			res >>= 1
		}
		bit >>= 2
	}
	return Fixed(res)
}

// Log2 returns the base-2 logarithm of x. x must be positive.
func Log2(x Fixed) Fixed {
	if x <= 0 {
		return Min
	}
	// Integer part is the highest set bit relative to 1.0.
	n := Fixed(0)
	for x >= 2*One {
		x >>= 1
		n += One
	}
	for x < One {
		x <<= 1
		n -= One
	}
	// Fractional part, one bit per iteration: x is in [1, 2).
	for i := 0; i < Shift; i++ {
		x = Mul(x, x)
		if x >= 2*One {
			x >>= 1
			n |= One >> uint(i+1)
		}
	}
	return n
}

// Exp2 returns 2 raised to the power of x.
func Exp2(x Fixed) Fixed {
	if x >= 15*One {
		return Max
	}
	if x <= -16*One {
		return 0
	}
	ip := Floor(x) >> Shift
	frac := Fract(x)
	// 2^frac for frac in [0, 1) via a cubic fit, max error well under one
	// display step at 16.16.
	//   2^f ~= 1 + 0.69583*f + 0.22606*f^2 + 0.07811*f^3
	const (
		c1 = Fixed(45606)
		c2 = Fixed(14815)
		c3 = Fixed(5119)
	)
	f2 := Mul(frac, frac)
	r := One + Mul(c1, frac) + Mul(c2, f2) + Mul(c3, Mul(f2, frac))
	if ip >= 0 {
		return r << uint(ip)
	}
	return r >> uint(-ip)
}

// Pow returns base raised to exp. Negative bases are only valid with
// integral exponents; otherwise the result falls back to 0.
func Pow(base, exp Fixed) Fixed {
	if exp == 0 {
		return One
	}
	if base == 0 {
		return 0
	}
	if Fract(exp) == 0 {
		return powInt(base, exp.ToInt())
	}
	if base < 0 {
		return 0
	}
	return Exp2(Mul(exp, Log2(base)))
}

func powInt(base Fixed, n int32) Fixed {
	neg := n < 0
	if neg {
		n = -n
	}
	result := One
	for n > 0 {
		if n&1 == 1 {
			result = Mul(result, base)
		}
		base = Mul(base, base)
		n >>= 1
	}
	if neg {
		if result == 0 {
			return Max
		}
		return Div(One, result)
	}
	return result
}
