// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package fixed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSinTurns(t *testing.T) {
	requireNear(t, 0, SinTurns(0), 0.001)
	requireNear(t, 1, SinTurns(One/4), 0.001)
	requireNear(t, 0, SinTurns(Half), 0.001)
	requireNear(t, -1, SinTurns(3*One/4), 0.001)
	// wraps whole turns
	requireNear(t, 1, SinTurns(FromInt(5)+One/4), 0.001)
	requireNear(t, -1, SinTurns(-One/4), 0.001)
}

func TestSinCos(t *testing.T) {
	for deg := -360; deg <= 360; deg += 15 {
		rad := float64(deg) * math.Pi / 180
		x := FromFloat(rad)
		require.InDelta(t, math.Sin(rad), Sin(x).Float(), 0.002,
			"sin(%d deg)", deg)
		require.InDelta(t, math.Cos(rad), Cos(x).Float(), 0.002,
			"cos(%d deg)", deg)
	}
}

func TestTan(t *testing.T) {
	requireNear(t, 0, Tan(0), 0.001)
	requireNear(t, 1, Tan(FromFloat(math.Pi/4)), 0.01)
	requireNear(t, -1, Tan(FromFloat(-math.Pi/4)), 0.01)
	requireNear(t, 0.5774, Tan(FromFloat(math.Pi/6)), 0.01)
	// near the pole the result saturates rather than overflowing
	require.True(t, Abs(Tan(FromFloat(math.Pi/2))) > FromInt(1000))
}

func TestAtan2(t *testing.T) {
	cases := []struct{ y, x float64 }{
		{0, 1}, {1, 1}, {1, 0}, {1, -1},
		{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
		{0.5, 2}, {-0.25, 0.75}, {3, -0.5}, {-2, -3},
	}
	for _, tc := range cases {
		want := math.Atan2(tc.y, tc.x)
		got := Atan2(FromFloat(tc.y), FromFloat(tc.x))
		require.InDelta(t, want, got.Float(), 0.005,
			"atan2(%v, %v)", tc.y, tc.x)
	}
	require.Equal(t, Fixed(0), Atan2(0, 0))
}

func TestAtan(t *testing.T) {
	requireNear(t, 0, Atan(0), 0.001)
	requireNear(t, math.Pi/4, Atan(One), 0.005)
	requireNear(t, -math.Pi/4, Atan(-One), 0.005)
	requireNear(t, math.Atan(0.5), Atan(Half), 0.005)
}
