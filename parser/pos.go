// Copyright (c) 2025 LightPlayer Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.golang file.

package parser

import (
	"fmt"
	"sort"
)

// Pos represents a byte offset into the source, starting at 1.
type Pos int

// NoPos represents an invalid position.
const NoPos Pos = 0

// IsValid returns true if the position is valid.
func (p Pos) IsValid() bool {
	return p != NoPos
}

// SourceFilePos represents a position information in the file.
type SourceFilePos struct {
	Filename string // filename, if any
	Offset   int    // offset, starting at 0
	Line     int    // line number, starting at 1
	Column   int    // column number, starting at 1 (byte count)
}

// IsValid returns true if the position is valid.
func (p SourceFilePos) IsValid() bool {
	return p.Line > 0
}

// String returns a string in one of several forms:
//
//	file:line:column    valid position with file name
//	line:column         valid position without file name
//	file                invalid position with file name
//	-                   invalid position without file name
func (p SourceFilePos) String() string {
	s := p.Filename
	if p.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// SourceFile represents a source file.
type SourceFile struct {
	Name  string // file name
	Size  int    // file size in bytes
	Lines []int  // offsets of the first character of each line
}

// NewSourceFile creates a new source file with the given name and size.
func NewSourceFile(name string, size int) *SourceFile {
	return &SourceFile{
		Name:  name,
		Size:  size,
		Lines: []int{0},
	}
}

// LineCount returns the current number of lines.
func (f *SourceFile) LineCount() int {
	return len(f.Lines)
}

// AddLine adds a new line.
func (f *SourceFile) AddLine(offset int) {
	i := len(f.Lines)
	if (i == 0 || f.Lines[i-1] < offset) && offset < f.Size {
		f.Lines = append(f.Lines, offset)
	}
}

// FileSetPos returns the position in the file for the given offset.
func (f *SourceFile) FileSetPos(offset int) Pos {
	if offset > f.Size {
		panic("illegal file offset")
	}
	return Pos(offset + 1)
}

// Offset translates the file set position into the file offset.
func (f *SourceFile) Offset(p Pos) int {
	if int(p) < 1 || int(p) > f.Size+1 {
		panic("illegal pos value")
	}
	return int(p) - 1
}

// Position translates the file set position into the file position.
func (f *SourceFile) Position(p Pos) (pos SourceFilePos) {
	if p.IsValid() {
		pos = f.position(int(p) - 1)
	}
	return pos
}

func (f *SourceFile) position(offset int) SourceFilePos {
	line := sort.Search(len(f.Lines),
		func(i int) bool { return f.Lines[i] > offset }) - 1
	return SourceFilePos{
		Filename: f.Name,
		Offset:   offset,
		Line:     line + 1,
		Column:   offset - f.Lines[line] + 1,
	}
}
