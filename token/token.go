// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package token

import "strconv"

// Token represents a token kind.
type Token int

// List of tokens
const (
	Illegal Token = iota
	EOF

	literalBeg
	Ident // x
	Int   // 42
	Float // 1.5
	literalEnd

	operatorBeg
	Add     // +
	Sub     // -
	Mul     // *
	Quo     // /
	Rem     // %
	Xor     // ^
	And     // &
	Or      // |
	Tilde   // ~
	Shl     // <<
	Shr     // >>
	LAnd    // &&
	LOr     // ||
	Not     // !
	Inc     // ++
	Dec     // --
	Less    // <
	Greater // >

	LessEq    // <=
	GreaterEq // >=
	Equal     // ==
	NotEqual  // !=

	Assign    // =
	AddAssign // +=
	SubAssign // -=
	MulAssign // *=
	QuoAssign // /=
	RemAssign // %=
	AndAssign // &=
	OrAssign  // |=
	XorAssign // ^=
	ShlAssign // <<=
	ShrAssign // >>=

	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	Comma     // ,
	Semicolon // ;
	Question  // ?
	Colon     // :
	Period    // .
	operatorEnd

	keywordBeg
	If
	Else
	While
	For
	Return
	TFloat // float
	TInt   // int
	TBool  // bool
	TVec2  // vec2
	TVec3  // vec3
	TVec4  // vec4
	TVoid  // void
	keywordEnd
)

var tokens = [...]string{
	Illegal:   "ILLEGAL",
	EOF:       "EOF",
	Ident:     "IDENT",
	Int:       "INT",
	Float:     "FLOAT",
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	Quo:       "/",
	Rem:       "%",
	Xor:       "^",
	And:       "&",
	Or:        "|",
	Tilde:     "~",
	Shl:       "<<",
	Shr:       ">>",
	LAnd:      "&&",
	LOr:       "||",
	Not:       "!",
	Inc:       "++",
	Dec:       "--",
	Less:      "<",
	Greater:   ">",
	LessEq:    "<=",
	GreaterEq: ">=",
	Equal:     "==",
	NotEqual:  "!=",
	Assign:    "=",
	AddAssign: "+=",
	SubAssign: "-=",
	MulAssign: "*=",
	QuoAssign: "/=",
	RemAssign: "%=",
	AndAssign: "&=",
	OrAssign:  "|=",
	XorAssign: "^=",
	ShlAssign: "<<=",
	ShrAssign: ">>=",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	Comma:     ",",
	Semicolon: ";",
	Question:  "?",
	Colon:     ":",
	Period:    ".",
	If:        "if",
	Else:      "else",
	While:     "while",
	For:       "for",
	Return:    "return",
	TFloat:    "float",
	TInt:      "int",
	TBool:     "bool",
	TVec2:     "vec2",
	TVec3:     "vec3",
	TVec4:     "vec4",
	TVoid:     "void",
}

func (tok Token) String() string {
	s := ""
	if 0 <= tok && tok < Token(len(tokens)) {
		s = tokens[tok]
	}
	if s == "" {
		s = "token(" + strconv.Itoa(int(tok)) + ")"
	}
	return s
}

// LowestPrec represents lowest operator precedence.
const LowestPrec = 0

// Precedence returns the operator precedence of the binary operator op. If op
// is not a binary operator, the result is LowestPrec.
func (tok Token) Precedence() int {
	switch tok {
	case LOr:
		return 1
	case LAnd:
		return 2
	case Equal, NotEqual:
		return 3
	case Less, Greater, LessEq, GreaterEq:
		return 4
	case Or:
		return 5
	case Xor:
		return 6
	case And:
		return 7
	case Shl, Shr:
		return 8
	case Add, Sub:
		return 9
	case Mul, Quo, Rem:
		return 10
	}
	return LowestPrec
}

var keywords map[string]Token

func init() {
	keywords = make(map[string]Token)
	for i := keywordBeg + 1; i < keywordEnd; i++ {
		keywords[tokens[i]] = i
	}
}

// Lookup returns corresponding keyword if ident is a keyword.
func Lookup(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return Ident
}

// IsLiteral returns true if token is a literal.
func (tok Token) IsLiteral() bool {
	return literalBeg < tok && tok < literalEnd
}

// IsOperator returns true if token is an operator.
func (tok Token) IsOperator() bool {
	return operatorBeg < tok && tok < operatorEnd
}

// IsKeyword returns true if token is a keyword.
func (tok Token) IsKeyword() bool {
	return keywordBeg < tok && tok < keywordEnd
}

// IsTypeKeyword returns true if token names a declared type.
func (tok Token) IsTypeKeyword() bool {
	switch tok {
	case TFloat, TInt, TBool, TVec2, TVec3, TVec4, TVoid:
		return true
	}
	return false
}

// IsAssignOp returns true if token is an assignment operator, compound or
// plain.
func (tok Token) IsAssignOp() bool {
	return Assign <= tok && tok <= ShrAssign
}

// CompoundOp returns the underlying binary operator of a compound assignment
// token, e.g. AddAssign yields Add. It returns Illegal for plain Assign and
// non-assignment tokens.
func (tok Token) CompoundOp() Token {
	switch tok {
	case AddAssign:
		return Add
	case SubAssign:
		return Sub
	case MulAssign:
		return Mul
	case QuoAssign:
		return Quo
	case RemAssign:
		return Rem
	case AndAssign:
		return And
	case OrAssign:
		return Or
	case XorAssign:
		return Xor
	case ShlAssign:
		return Shl
	case ShrAssign:
		return Shr
	}
	return Illegal
}
