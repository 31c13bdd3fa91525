// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package lpscript

// Symbol represents a declared variable. The slot is the first local cell
// the variable occupies; it is assigned during code generation.
type Symbol struct {
	Name string
	Type Type
	Slot int
}

// SymbolTable represents a lexically scoped symbol table. Inner scopes are
// forks of their parent; a name defined in a fork shadows the parent's.
type SymbolTable struct {
	parent *SymbolTable
	store  map[string]*Symbol
}

// NewSymbolTable creates a new symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{store: make(map[string]*Symbol)}
}

// Fork creates a child symbol table for a nested block.
func (st *SymbolTable) Fork() *SymbolTable {
	return &SymbolTable{
		parent: st,
		store:  make(map[string]*Symbol),
	}
}

// Parent returns the enclosing scope, or nil at the outermost scope.
func (st *SymbolTable) Parent() *SymbolTable {
	return st.parent
}

// Define adds a new symbol in the current scope. It returns false if the
// name is already defined in this scope; shadowing an outer scope's name is
// allowed.
func (st *SymbolTable) Define(name string, typ Type) (*Symbol, bool) {
	if _, exists := st.store[name]; exists {
		return nil, false
	}
	sym := &Symbol{Name: name, Type: typ, Slot: -1}
	st.store[name] = sym
	return sym, true
}

// Resolve resolves a symbol in this scope or any enclosing scope.
func (st *SymbolTable) Resolve(name string) (*Symbol, bool) {
	for s := st; s != nil; s = s.parent {
		if sym, ok := s.store[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// BuiltinInput describes a read-only input variable provided by the host.
// Multi-cell inputs list one source per cell, component order first to last.
type BuiltinInput struct {
	Name    string
	Type    Type
	Sources []InputSource
}

// builtinInputs is the read-only built-in variable table. Scripts may
// declare variables with these names; user symbols shadow built-ins.
var builtinInputs = map[string]BuiltinInput{
	"uv": {"uv", Vec2, []InputSource{InputXNorm, InputYNorm}},
	// coord is the pixel position as fixed point, unlike the normalized uv
	"coord":       {"coord", Vec2, []InputSource{InputXCoord, InputYCoord}},
	"x":           {"x", Fixed, []InputSource{InputXNorm}},
	"xNorm":       {"xNorm", Fixed, []InputSource{InputXNorm}},
	"y":           {"y", Fixed, []InputSource{InputYNorm}},
	"yNorm":       {"yNorm", Fixed, []InputSource{InputYNorm}},
	"xPix":        {"xPix", Int32, []InputSource{InputXPix}},
	"xInt":        {"xInt", Int32, []InputSource{InputXPix}},
	"yPix":        {"yPix", Int32, []InputSource{InputYPix}},
	"yInt":        {"yInt", Int32, []InputSource{InputYPix}},
	"time":        {"time", Fixed, []InputSource{InputTime}},
	"t":           {"t", Fixed, []InputSource{InputTime}},
	"timeNorm":    {"timeNorm", Fixed, []InputSource{InputTimeNorm}},
	"centerAngle": {"centerAngle", Fixed, []InputSource{InputCenterAngle}},
	"angle":       {"angle", Fixed, []InputSource{InputCenterAngle}},
	"centerDist":  {"centerDist", Fixed, []InputSource{InputCenterDist}},
	"dist":        {"dist", Fixed, []InputSource{InputCenterDist}},
}

// LookupBuiltinInput returns the built-in input for name, if any.
func LookupBuiltinInput(name string) (BuiltinInput, bool) {
	b, ok := builtinInputs[name]
	return b, ok
}
