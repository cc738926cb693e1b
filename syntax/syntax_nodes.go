// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package syntax

import (
	"strings"
)

type Span struct {
	start uint32
	len   uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s Span) Start() uint32 {
	return s.start
}

func (s Span) Len() uint32 {
	return s.len
}

type Node interface {
	Span() Span
}

// File is one parsed schema source file.
type File struct {
	span        Span
	includes    []*Include
	definitions []*Definition

	// True if the source contained anything besides whitespace,
	// including comments.
	hasContent bool
}

func (f *File) Span() Span { return f.span }
func (f *File) Includes() []*Include { return f.includes }
func (f *File) Definitions() []*Definition { return f.definitions }
func (f *File) HasContent() bool { return f.hasContent }

// Include is one "include"/"with" clause naming one or more files.
type Include struct {
	span  Span
	paths []*TextLit
}

func (n *Include) Span() Span { return n.span }
func (n *Include) Paths() []*TextLit { return n.paths }

// Definition is one user-type declaration.
type Definition struct {
	span        Span
	description *Description
	name        *Ident
	super       *Ident
	fields      []*Field
}

func (n *Definition) Span() Span { return n.span }
func (n *Definition) Description() *Description { return n.description }
func (n *Definition) Name() *Ident { return n.name }

// Super returns the supertype name, or nil for root types.
func (n *Definition) Super() *Ident { return n.super }

func (n *Definition) Fields() []*Field { return n.fields }

// Description carries the doc comment, restrictions and hints preceding a
// definition or field.
type Description struct {
	span         Span
	doc          string
	restrictions []*Restriction
	hints        []*Hint
}

func (n *Description) Span() Span { return n.span }
func (n *Description) Doc() string { return n.doc }
func (n *Description) Restrictions() []*Restriction { return n.restrictions }
func (n *Description) Hints() []*Hint { return n.hints }

// Restriction is "@" name, optionally with literal arguments.
type Restriction struct {
	span Span
	name *Ident
	args []Node
}

func (n *Restriction) Span() Span { return n.span }
func (n *Restriction) Name() *Ident { return n.name }

// Args holds *IntLit and *TextLit nodes.
func (n *Restriction) Args() []Node { return n.args }

// Hint is "!" name.
type Hint struct {
	span Span
	name *Ident
}

func (n *Hint) Span() Span { return n.span }
func (n *Hint) Name() *Ident { return n.name }

// Field is one field declaration inside a definition body.
type Field struct {
	span        Span
	description *Description
	isConstant  bool
	isAuto      bool
	fieldType   TypeExpr
	name        *Ident
	value       *IntLit
}

func (n *Field) Span() Span { return n.span }
func (n *Field) Description() *Description { return n.description }
func (n *Field) IsConstant() bool { return n.isConstant }
func (n *Field) IsAuto() bool { return n.isAuto }
func (n *Field) Type() TypeExpr { return n.fieldType }
func (n *Field) Name() *Ident { return n.name }

// Value is the literal of a constant field, nil for data fields.
func (n *Field) Value() *IntLit { return n.value }

type TypeExpr interface {
	Node
	typeExpr()
}

// BaseType is a bare type name: a ground type or a user type.
type BaseType struct {
	span Span
	name *Ident
}

func (n *BaseType) Span() Span { return n.span }
func (n *BaseType) Name() *Ident { return n.name }
func (n *BaseType) typeExpr() {}

// FixedArrayType is "T[n]".
type FixedArrayType struct {
	span   Span
	base   *BaseType
	length *IntLit
}

func (n *FixedArrayType) Span() Span { return n.span }
func (n *FixedArrayType) Base() *BaseType { return n.base }
func (n *FixedArrayType) Length() *IntLit { return n.length }
func (n *FixedArrayType) typeExpr() {}

// VarArrayType is "T[]".
type VarArrayType struct {
	span Span
	base *BaseType
}

func (n *VarArrayType) Span() Span { return n.span }
func (n *VarArrayType) Base() *BaseType { return n.base }
func (n *VarArrayType) typeExpr() {}

// ListType is "list<T>".
type ListType struct {
	span Span
	base *BaseType
}

func (n *ListType) Span() Span { return n.span }
func (n *ListType) Base() *BaseType { return n.base }
func (n *ListType) typeExpr() {}

// SetType is "set<T>".
type SetType struct {
	span Span
	base *BaseType
}

func (n *SetType) Span() Span { return n.span }
func (n *SetType) Base() *BaseType { return n.base }
func (n *SetType) typeExpr() {}

// MapType is "map<T1, T2, ...>", at least two base types.
type MapType struct {
	span  Span
	bases []*BaseType
}

func (n *MapType) Span() Span { return n.span }
func (n *MapType) Bases() []*BaseType { return n.bases }
func (n *MapType) typeExpr() {}

type Ident struct {
	raw   string
	start uint32
}

func (n *Ident) Span() Span {
	return Span{n.start, uint32(len(n.raw))}
}

func (n *Ident) Get() string { return n.raw }

type IntLit struct {
	raw   string
	value int64
	start uint32
}

func (n *IntLit) Span() Span {
	return Span{n.start, uint32(len(n.raw))}
}

func (n *IntLit) Get() int64 { return n.value }
func (n *IntLit) Raw() string { return n.raw }

type TextLit struct {
	raw   string
	start uint32
}

func (n *TextLit) Span() Span {
	return Span{n.start, uint32(len(n.raw))}
}

// Get returns the literal's text with the surrounding quotes removed.
// There are no escape sequences.
func (n *TextLit) Get() string {
	return n.raw[1 : len(n.raw)-1]
}

// stripDoc removes the comment markers and per-line "*" gutters from a block
// comment, yielding the doc text.
func stripDoc(raw string) string {
	raw = strings.TrimPrefix(raw, "/*")
	raw = strings.TrimSuffix(raw, "*/")
	lines := strings.Split(raw, "\n")
	for ii, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		lines[ii] = strings.TrimSpace(line)
	}
	var out []string
	for _, line := range lines {
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
