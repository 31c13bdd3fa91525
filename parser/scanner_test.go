// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightplayer/lpscript/token"
)

type scanResult struct {
	tok token.Token
	lit string
}

func scanAll(t *testing.T, src string) []scanResult {
	t.Helper()
	file := NewSourceFile("test", len(src))
	s := NewScanner(file, []byte(src), func(pos SourceFilePos, msg string) {
		t.Fatalf("scan error at %s: %s", pos, msg)
	})
	var out []scanResult
	for {
		tok, lit, _ := s.Scan()
		if tok == token.EOF {
			break
		}
		out = append(out, scanResult{tok, lit})
	}
	return out
}

func expectTokens(t *testing.T, src string, want ...scanResult) {
	t.Helper()
	require.Equal(t, want, scanAll(t, src), "src: %q", src)
}

func TestScanIdentsAndKeywords(t *testing.T) {
	expectTokens(t, "foo _bar x2",
		scanResult{token.Ident, "foo"},
		scanResult{token.Ident, "_bar"},
		scanResult{token.Ident, "x2"},
	)
	expectTokens(t, "if else while for return",
		scanResult{token.If, "if"},
		scanResult{token.Else, "else"},
		scanResult{token.While, "while"},
		scanResult{token.For, "for"},
		scanResult{token.Return, "return"},
	)
	expectTokens(t, "float int bool vec2 vec3 vec4 void",
		scanResult{token.TFloat, "float"},
		scanResult{token.TInt, "int"},
		scanResult{token.TBool, "bool"},
		scanResult{token.TVec2, "vec2"},
		scanResult{token.TVec3, "vec3"},
		scanResult{token.TVec4, "vec4"},
		scanResult{token.TVoid, "void"},
	)
	// true/false are plain identifiers to the scanner
	expectTokens(t, "true false",
		scanResult{token.Ident, "true"},
		scanResult{token.Ident, "false"},
	)
}

func TestScanNumbers(t *testing.T) {
	expectTokens(t, "0 42 0xFF 0x1f",
		scanResult{token.Int, "0"},
		scanResult{token.Int, "42"},
		scanResult{token.Int, "0xFF"},
		scanResult{token.Int, "0x1f"},
	)
	expectTokens(t, "1.5 .5 0.25 2.5f 3f 1e2 1.5e-3 0.5",
		scanResult{token.Float, "1.5"},
		scanResult{token.Float, ".5"},
		scanResult{token.Float, "0.25"},
		scanResult{token.Float, "2.5f"},
		scanResult{token.Float, "3f"},
		scanResult{token.Float, "1e2"},
		scanResult{token.Float, "1.5e-3"},
		scanResult{token.Float, "0.5"},
	)
}

func TestScanOperators(t *testing.T) {
	expectTokens(t, "+ - * / % & | ^ ~ << >>",
		scanResult{token.Add, ""},
		scanResult{token.Sub, ""},
		scanResult{token.Mul, ""},
		scanResult{token.Quo, ""},
		scanResult{token.Rem, ""},
		scanResult{token.And, ""},
		scanResult{token.Or, ""},
		scanResult{token.Xor, ""},
		scanResult{token.Tilde, ""},
		scanResult{token.Shl, ""},
		scanResult{token.Shr, ""},
	)
	expectTokens(t, "== != < <= > >= && || !",
		scanResult{token.Equal, ""},
		scanResult{token.NotEqual, ""},
		scanResult{token.Less, ""},
		scanResult{token.LessEq, ""},
		scanResult{token.Greater, ""},
		scanResult{token.GreaterEq, ""},
		scanResult{token.LAnd, ""},
		scanResult{token.LOr, ""},
		scanResult{token.Not, ""},
	)
	expectTokens(t, "= += -= *= /= %= &= |= ^= <<= >>=",
		scanResult{token.Assign, ""},
		scanResult{token.AddAssign, ""},
		scanResult{token.SubAssign, ""},
		scanResult{token.MulAssign, ""},
		scanResult{token.QuoAssign, ""},
		scanResult{token.RemAssign, ""},
		scanResult{token.AndAssign, ""},
		scanResult{token.OrAssign, ""},
		scanResult{token.XorAssign, ""},
		scanResult{token.ShlAssign, ""},
		scanResult{token.ShrAssign, ""},
	)
	expectTokens(t, "++ -- ? : ; , ( ) { }",
		scanResult{token.Inc, ""},
		scanResult{token.Dec, ""},
		scanResult{token.Question, ""},
		scanResult{token.Colon, ""},
		scanResult{token.Semicolon, ""},
		scanResult{token.Comma, ""},
		scanResult{token.LParen, ""},
		scanResult{token.RParen, ""},
		scanResult{token.LBrace, ""},
		scanResult{token.RBrace, ""},
	)
}

func TestScanMemberVsFloat(t *testing.T) {
	expectTokens(t, "v.x",
		scanResult{token.Ident, "v"},
		scanResult{token.Period, ""},
		scanResult{token.Ident, "x"},
	)
	expectTokens(t, "v .5",
		scanResult{token.Ident, "v"},
		scanResult{token.Float, ".5"},
	)
}

func TestScanComments(t *testing.T) {
	expectTokens(t, "a // comment\nb",
		scanResult{token.Ident, "a"},
		scanResult{token.Ident, "b"},
	)
	expectTokens(t, "a /* multi\nline */ b",
		scanResult{token.Ident, "a"},
		scanResult{token.Ident, "b"},
	)
}

func TestScanPositions(t *testing.T) {
	src := "ab\ncd"
	file := NewSourceFile("test", len(src))
	s := NewScanner(file, []byte(src), nil)

	_, _, pos := s.Scan()
	p := file.Position(pos)
	require.Equal(t, 1, p.Line)
	require.Equal(t, 1, p.Column)

	_, _, pos = s.Scan()
	p = file.Position(pos)
	require.Equal(t, 2, p.Line)
	require.Equal(t, 1, p.Column)
}

func TestScanErrors(t *testing.T) {
	count := func(src string) int {
		file := NewSourceFile("test", len(src))
		s := NewScanner(file, []byte(src), nil)
		for {
			tok, _, _ := s.Scan()
			if tok == token.EOF {
				break
			}
		}
		return s.ErrorCount()
	}
	require.Equal(t, 0, count("float x = 1.0;"))
	require.NotZero(t, count("0x"))
	require.NotZero(t, count("1e"))
	require.NotZero(t, count("/* open"))
	require.NotZero(t, count("$"))
}
