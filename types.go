// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

import "github.com/lightplayer/lpscript/token"

// Type is the closed set of script value types. The VM stack is untyped; a
// value of type T occupies T.SizeInCells() consecutive 32-bit cells.
type Type uint8

// List of types.
const (
	Void Type = iota
	Bool
	Int32
	Fixed
	Vec2
	Vec3
	Vec4
	Mat3 // reserved, no operations are generated for it
)

var typeNames = [...]string{
	Void:  "void",
	Bool:  "bool",
	Int32: "int",
	Fixed: "float",
	Vec2:  "vec2",
	Vec3:  "vec3",
	Vec4:  "vec4",
	Mat3:  "mat3",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "type(?)"
}

var typeSizes = [...]int{
	Void:  0,
	Bool:  1,
	Int32: 1,
	Fixed: 1,
	Vec2:  2,
	Vec3:  3,
	Vec4:  4,
	Mat3:  9,
}

// SizeInCells returns the number of 32-bit stack cells a value occupies.
func (t Type) SizeInCells() int {
	return typeSizes[t]
}

// IsScalar returns true for single-cell numeric and boolean types.
func (t Type) IsScalar() bool {
	return t == Bool || t == Int32 || t == Fixed
}

// IsNumeric returns true for int and float.
func (t Type) IsNumeric() bool {
	return t == Int32 || t == Fixed
}

// IsVector returns true for vec2, vec3 and vec4.
func (t Type) IsVector() bool {
	return t == Vec2 || t == Vec3 || t == Vec4
}

// ComponentCount returns the number of components of a vector type, 1 for
// scalars and 0 for void.
func (t Type) ComponentCount() int {
	switch t {
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	case Void:
		return 0
	}
	return 1
}

// VecType returns the vector type with n components, or Void when n is not
// in 2..4.
func VecType(n int) Type {
	switch n {
	case 2:
		return Vec2
	case 3:
		return Vec3
	case 4:
		return Vec4
	}
	return Void
}

// TypeFromToken maps a type keyword token to a Type. Returns Void, false for
// non-type tokens.
func TypeFromToken(tok token.Token) (Type, bool) {
	switch tok {
	case token.TFloat:
		return Fixed, true
	case token.TInt:
		return Int32, true
	case token.TBool:
		return Bool, true
	case token.TVec2:
		return Vec2, true
	case token.TVec3:
		return Vec3, true
	case token.TVec4:
		return Vec4, true
	case token.TVoid:
		return Void, true
	}
	return Void, false
}
