// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package fixed

import (
	"math"
	"sync"
)

// sineTableBits sizes the lookup table; 10 bits gives 1024 samples over a
// full turn which keeps interpolation error below one 16.16 step.
const sineTableBits = 10

const sineTableSize = 1 << sineTableBits

var (
	sineOnce  sync.Once
	sineTable [sineTableSize + 1]Fixed // +1 so interpolation never wraps
)

func initSineTable() {
	for i := 0; i <= sineTableSize; i++ {
		v := math.Sin(2 * math.Pi * float64(i) / sineTableSize)
		sineTable[i] = FromFloat(v)
	}
}

// SinTurns returns sin of x where x is in turns: 1.0 is a full circle.
func SinTurns(x Fixed) Fixed {
	sineOnce.Do(initSineTable)
	t := Fract(x) // wrap to [0, 1)
	// Index plus interpolation fraction.
	idx := t >> (Shift - sineTableBits)
	frac := (t << sineTableBits) & (One - 1)
	a := sineTable[idx]
	b := sineTable[idx+1]
	return a + Mul(b-a, frac)
}

// Sin returns the sine of x radians.
func Sin(x Fixed) Fixed {
	return SinTurns(Div(x, Tau))
}

// Cos returns the cosine of x radians.
func Cos(x Fixed) Fixed {
	return SinTurns(Div(x, Tau) + One/4)
}

// Tan returns the tangent of x radians. Near the poles where cos approaches
// zero the result saturates instead of overflowing.
func Tan(x Fixed) Fixed {
	t := Div(x, Tau)
	s := SinTurns(t)
	c := SinTurns(t + One/4)
	if Abs(c) <= 2 {
		if (s >= 0) == (c >= 0) {
			return Max
		}
		return Min
	}
	return Div(s, c)
}

// atan approximation coefficient: 0.273 in 16.16.
const atanC = Fixed(17891)

// Atan2 returns the angle of the vector (x, y) in radians, in (-Pi, Pi].
// It uses the octant polynomial approximation
//
//	atan(z) ~= z*(Pi/4 + 0.273*(1 - |z|))
//
// which stays within about 0.0038 rad of the true value.
func Atan2(y, x Fixed) Fixed {
	if x == 0 && y == 0 {
		return 0
	}
	ax := Abs(x)
	ay := Abs(y)
	var angle Fixed
	if ax >= ay {
		z := Div(y, ax) // |z| <= 1
		if x >= 0 {
			angle = atanPoly(z)
		} else if y >= 0 {
			angle = Pi - atanPoly(z)
		} else {
			angle = -Pi - atanPoly(z)
		}
	} else {
		z := Div(x, ay)
		if y >= 0 {
			angle = HalfPi - atanPoly(z)
		} else {
			angle = -HalfPi + atanPoly(z)
		}
	}
	return angle
}

// Atan returns the arc tangent of x in radians.
func Atan(x Fixed) Fixed {
	return Atan2(x, One)
}

// atanPoly evaluates the odd polynomial approximation for |z| <= 1.
func atanPoly(z Fixed) Fixed {
	return Mul(z, Pi/4+Mul(atanC, One-Abs(z)))
}
