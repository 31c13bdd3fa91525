// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, src string) (*File, error) {
	t.Helper()
	file := NewSourceFile("test", len(src))
	return NewParser(file, []byte(src), nil).ParseFile()
}

// expectParse checks the parenthesized printout of the AST, which makes the
// grouping chosen by the precedence climber visible.
func expectParse(t *testing.T, src, want string) {
	t.Helper()
	f, err := parseSource(t, src)
	require.NoError(t, err, "src: %s", src)
	require.Equal(t, want, f.String(), "src: %s", src)
}

func expectParseError(t *testing.T, src string) {
	t.Helper()
	_, err := parseSource(t, src)
	require.Error(t, err, "src: %s", src)
}

func TestParseDecl(t *testing.T) {
	expectParse(t, `float x = 1.0;`, `float x = 1.0;`)
	expectParse(t, `float x;`, `float x;`)
	expectParse(t, `int n = 0xFF;`, `int n = 0xFF;`)
	expectParse(t, `bool b = true;`, `bool b = true;`)
	expectParse(t, `vec2 v = vec2(1.0, 2.0);`, `vec2 v = vec2(1.0, 2.0);`)
}

func TestParsePrecedence(t *testing.T) {
	expectParse(t, `a + b * c;`, `(a + (b * c));`)
	expectParse(t, `1 + 2 - 3;`, `((1 + 2) - 3);`)
	expectParse(t, `(a + b) * c;`, `((a + b) * c);`)
	expectParse(t, `-a * b;`, `((-a) * b);`)
	expectParse(t, `a < b == c < d;`, `((a < b) == (c < d));`)
	expectParse(t, `a && b || c;`, `((a && b) || c);`)
	expectParse(t, `a || b && c;`, `(a || (b && c));`)
	expectParse(t, `a | b ^ c & d;`, `(a | (b ^ (c & d)));`)
	expectParse(t, `a << 1 + 2;`, `(a << (1 + 2));`)
	expectParse(t, `!a && b;`, `((!a) && b);`)
	expectParse(t, `~a & b;`, `((~a) & b);`)
	expectParse(t, `+a - b;`, `(a - b);`)
}

func TestParseAssign(t *testing.T) {
	expectParse(t, `x = 1;`, `x = 1;`)
	expectParse(t, `x = y = 1;`, `x = y = 1;`)
	expectParse(t, `x += 2;`, `x = (x + 2);`)
	expectParse(t, `x *= y + 1;`, `x = (x * (y + 1));`)
	expectParse(t, `x <<= 3;`, `x = (x << 3);`)
	expectParse(t, `v.x = 1.0;`, `v.x = 1.0;`)
	expectParse(t, `v.xy = vec2(1.0, 2.0);`, `v.xy = vec2(1.0, 2.0);`)
	expectParse(t, `v.x += 1.0;`, `v.x = (v.x + 1.0);`)
}

func TestParseIncDec(t *testing.T) {
	expectParse(t, `x++;`, `x++;`)
	expectParse(t, `x--;`, `x--;`)
	expectParse(t, `++x;`, `++x;`)
	expectParse(t, `y = x++ + 1;`, `y = (x++ + 1);`)
}

func TestParseTernary(t *testing.T) {
	expectParse(t, `x = a ? b : c;`, `x = (a ? b : c);`)
	expectParse(t, `x = a ? b : c ? d : e;`, `x = (a ? b : (c ? d : e));`)
	expectParse(t, `x = a > b ? a : b;`, `x = ((a > b) ? a : b);`)
}

func TestParseMember(t *testing.T) {
	expectParse(t, `x = v.x;`, `x = v.x;`)
	expectParse(t, `w = v.xy.x;`, `w = v.xy.x;`)
	expectParse(t, `x = v.x + u.y;`, `x = (v.x + u.y);`)
	expectParse(t, `w = vec2(1.0, 2.0).yx;`, `w = vec2(1.0, 2.0).yx;`)
}

func TestParseCall(t *testing.T) {
	expectParse(t, `x = min(a, b);`, `x = min(a, b);`)
	expectParse(t, `x = sin(t * 2.0);`, `x = sin((t * 2.0));`)
	expectParse(t, `x = f();`, `x = f();`)
	expectParse(t, `x = float(3);`, `x = float(3);`)
	expectParse(t, `x = int(2.5);`, `x = int(2.5);`)
}

func TestParseControlFlow(t *testing.T) {
	expectParse(t, `if (x > 1.0) { y = 2.0; }`,
		`if ((x > 1.0)) {y = 2.0;}`)
	expectParse(t, `if (b) { x = 1.0; } else { x = 2.0; }`,
		`if (b) {x = 1.0;} else {x = 2.0;}`)
	expectParse(t, `if (a) { } else if (b) { }`,
		`if (a) {} else if (b) {}`)
	expectParse(t, `while (i < 5.0) { i = i + 1.0; }`,
		`while ((i < 5.0)) {i = (i + 1.0);}`)
	expectParse(t, `for (int i = 0; i < 5; i++) { s += i; }`,
		`for (int i = 0; (i < 5); i++) {s = (s + i);}`)
	expectParse(t, `for (; ; ) { }`, `for (; ; ) {}`)
	expectParse(t, `return;`, `return;`)
	expectParse(t, `return x + 1.0;`, `return (x + 1.0);`)
}

func TestParseFuncDecl(t *testing.T) {
	expectParse(t, `float double(float x) { return x * 2.0; }`,
		`float double(float x) {return (x * 2.0);}`)
	expectParse(t, `vec2 f(vec2 v, float s) { return v * s; } return f(uv, 2.0);`,
		`vec2 f(vec2 v, float s) {return (v * s);} return f(uv, 2.0);`)
	expectParse(t, `void noop() { }`, `void noop() {}`)
}

func TestParseSemicolons(t *testing.T) {
	// permissive before a closing brace and at EOF
	expectParse(t, `return 1.0`, `return 1.0;`)
	expectParse(t, `if (b) { x = 1.0 }`, `if (b) {x = 1.0;}`)
	// stray semicolons are skipped
	expectParse(t, `;; float x = 1.0;;`, `float x = 1.0;`)
}

func TestParseErrors(t *testing.T) {
	expectParseError(t, `float ;`)
	expectParseError(t, `float x = ;`)
	expectParseError(t, `x = (1.0;`)
	expectParseError(t, `if x > 1.0 { }`)
	expectParseError(t, `while (true { }`)
	expectParseError(t, `return }`)
	expectParseError(t, `1.0 = x;`)
	expectParseError(t, `x + 1 = 2;`)
	expectParseError(t, `f(a,;`)
	expectParseError(t, `void x = 1.0;`)
	expectParseError(t, `float f(void v) { }`)
	expectParseError(t, `x = 3 ? 1 :;`)
	expectParseError(t, `(x++)++;`)
}

func TestParseErrorPosition(t *testing.T) {
	_, err := parseSource(t, "float x = 1.0;\nfloat y = ;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Parse Error:")
	require.Contains(t, err.Error(), "test:2:")
}

func TestParseDepthLimit(t *testing.T) {
	src := "x = " + strings.Repeat("(", 200) + "1" +
		strings.Repeat(")", 200) + ";"
	_, err := parseSource(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nesting too deep")
}

func TestParseStmtDepthLimit(t *testing.T) {
	// deeply nested blocks must fail with an error, not overflow the stack
	_, err := parseSource(t, strings.Repeat("{", 100000))
	require.Error(t, err)
	require.Contains(t, err.Error(), "nesting too deep")

	src := strings.Repeat("{", 200) + "x = 1;" + strings.Repeat("}", 200)
	_, err = parseSource(t, src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nesting too deep")

	// chained if bodies recurse through the statement parser too
	_, err = parseSource(t, strings.Repeat("if (b) ", 200)+"x = 1;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "nesting too deep")
}

func TestParseTrace(t *testing.T) {
	src := "float x = 1.0;"
	file := NewSourceFile("test", len(src))
	var buf bytes.Buffer
	_, err := NewParser(file, []byte(src), &buf).ParseFile()
	require.NoError(t, err)
	require.Contains(t, buf.String(), "File")
	require.Contains(t, buf.String(), "Expression")
}
