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

// Package ir is the type-checked schema model.
//
// A TypeContext is an arena of declarations held in type order: every
// declaration precedes all of its subtypes, with ties between siblings
// broken by first appearance in the source. Declarations reference each
// other through arena indices, so cyclic field references are
// representable without reference cycles in the model itself.
//
// The model is read-only once the compiler has returned it and may be
// shared freely across goroutines.
package ir

import (
	"iter"
	"strings"
)

type TypeContext struct {
	decls  []*Declaration
	byName map[string]*Declaration
}

// NewTypeContext builds an arena from declarations already in type order.
// Indices must have been assigned consecutively from zero.
func NewTypeContext(decls []*Declaration) *TypeContext {
	ctx := &TypeContext{
		decls:  decls,
		byName: make(map[string]*Declaration, len(decls)),
	}
	for _, decl := range decls {
		decl.ctx = ctx
		ctx.byName[decl.SkillName] = decl
	}
	return ctx
}

// Declarations returns all declarations in type order.
func (ctx *TypeContext) Declarations() []*Declaration {
	return ctx.decls
}

func (ctx *TypeContext) Len() int {
	return len(ctx.decls)
}

// Lookup finds a declaration by name, ignoring case. It returns nil if no
// such type exists.
func (ctx *TypeContext) Lookup(name string) *Declaration {
	return ctx.byName[strings.ToLower(name)]
}

// Decl returns the declaration at the given arena index.
func (ctx *TypeContext) Decl(index int) *Declaration {
	return ctx.decls[index]
}

type Declaration struct {
	ctx *TypeContext

	// Index is the declaration's position in type order.
	Index int

	// SkillName is the lower-cased identifier used on the wire.
	SkillName string

	// CapitalName is the identifier as written in the schema.
	CapitalName string

	// Doc is the documentation comment attached to the declaration,
	// empty if there was none.
	Doc string

	// SuperIndex is the arena index of the direct supertype, or -1 for
	// root types.
	SuperIndex int

	// BaseIndex is the arena index of the root of the super chain. A
	// root type is its own base.
	BaseIndex int

	// SubIndexes lists all transitive subtypes, in type order.
	SubIndexes []int

	// Fields declared by this type, in declaration order. Inherited
	// fields are reachable through AllFields.
	Fields []*Field

	Restrictions []Restriction
	Hints        []Hint
}

// SuperType returns the direct supertype, or nil for root types.
func (d *Declaration) SuperType() *Declaration {
	if d.SuperIndex < 0 {
		return nil
	}
	return d.ctx.decls[d.SuperIndex]
}

// BaseType returns the root of the super chain; a root type returns itself.
func (d *Declaration) BaseType() *Declaration {
	return d.ctx.decls[d.BaseIndex]
}

// SubTypes yields all transitive subtypes in type order.
func (d *Declaration) SubTypes() iter.Seq[*Declaration] {
	return func(yield func(*Declaration) bool) {
		for _, index := range d.SubIndexes {
			if !yield(d.ctx.decls[index]) {
				return
			}
		}
	}
}

// AllFields yields inherited fields first (outermost supertype leading),
// then the declared fields.
func (d *Declaration) AllFields() iter.Seq[*Field] {
	return func(yield func(*Field) bool) {
		var chain []*Declaration
		for t := d; t != nil; t = t.SuperType() {
			chain = append(chain, t)
		}
		for ii := len(chain) - 1; ii >= 0; ii-- {
			for _, field := range chain[ii].Fields {
				if !yield(field) {
					return
				}
			}
		}
	}
}

func (d *Declaration) HasHint(h Hint) bool {
	for _, hint := range d.Hints {
		if hint == h {
			return true
		}
	}
	return false
}

type Field struct {
	// SkillName is the lower-cased field name used on the wire.
	SkillName string

	// CapitalName is the field name as written in the schema.
	CapitalName string

	Doc string

	Type *Type

	// Index is the field's position among the enclosing declaration's
	// fields, in declaration order.
	Index int

	// IsConstant marks compile-time constants; they consume no
	// per-instance bytes.
	IsConstant    bool
	ConstantValue int64

	// IsAuto marks in-memory-only fields; they are never serialized.
	IsAuto bool

	// IsIgnored is set by the ignore hint.
	IsIgnored bool

	Restrictions []Restriction
	Hints        []Hint
}

func (f *Field) HasHint(h Hint) bool {
	for _, hint := range f.Hints {
		if hint == h {
			return true
		}
	}
	return false
}
