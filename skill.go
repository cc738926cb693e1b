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

// Package skill is the runtime model backing generated bindings: storage
// pools linked along the inheritance relation, a file-wide string pool, and
// the read / write / append session lifecycle over the binary file format.
//
// A State is single-threaded: one writer at a time, and reads through its
// pools must not race with Write or Append. The state owns its pools and
// string pool exclusively; no pool outlives its state.
package skill

import (
	"fmt"

	"go.skill-lang.org/skill/encoding/skillbin"
	"go.skill-lang.org/skill/ir"
)

// State is one serialization session over a set of storage pools.
type State struct {
	ctx     *ir.TypeContext
	strings *StringPool

	pools       []*StoragePool
	poolsByName map[string]*StoragePool

	// Pools in order of appearance in the backing file's type blocks.
	fileTypes []*StoragePool

	fromPath string
}

// Create builds an empty state for the given type context. A subsequent
// Write serializes a complete file; Append fails until the state has a
// backing file.
func Create(ctx *ir.TypeContext) *State {
	s := &State{
		ctx:         ctx,
		strings:     newStringPool(),
		poolsByName: make(map[string]*StoragePool),
	}
	if ctx != nil {
		for _, decl := range ctx.Declarations() {
			s.addPool(decl.SkillName, decl)
		}
		for _, pool := range s.pools {
			s.bindFields(pool)
		}
	}
	return s
}

func (s *State) addPool(name string, decl *ir.Declaration) *StoragePool {
	pool := &StoragePool{
		state:     s,
		name:      name,
		decl:      decl,
		typeIndex: -1,
	}
	if decl != nil && decl.SuperType() != nil {
		pool.super = s.poolsByName[decl.SuperType().SkillName]
	}
	if pool.super != nil {
		pool.super.subs = append(pool.super.subs, pool)
		pool.base = pool.super.base
	} else {
		pool.base = pool
		pool.byID = []*Object{nil}
	}
	s.pools = append(s.pools, pool)
	s.poolsByName[name] = pool
	return pool
}

// bindFields populates the pool's serialized fields from its declaration.
// Auto fields exist in memory only and are never serialized.
func (s *State) bindFields(pool *StoragePool) {
	for _, field := range pool.decl.Fields {
		if field.IsAuto {
			continue
		}
		pool.fields = append(pool.fields, &poolField{
			field:         field,
			name:          field.SkillName,
			wire:          s.wireTypeOf(field.Type),
			isConstant:    field.IsConstant,
			constantValue: field.ConstantValue,
		})
	}
}

func (s *State) wireTypeOf(t *ir.Type) *wireType {
	switch t.Kind {
	case ir.K_GROUND:
		return &wireType{id: groundWireID(t.Ground)}
	case ir.K_USER:
		decl := s.ctx.Decl(t.User)
		return &wireType{
			id:   skillbin.UserBase,
			pool: s.poolsByName[decl.SkillName],
		}
	case ir.K_FIXED_ARRAY:
		return &wireType{
			id:     skillbin.FixedArray,
			elem:   s.wireTypeOf(t.Elem),
			length: uint64(t.Length),
		}
	case ir.K_VAR_ARRAY:
		return &wireType{id: skillbin.VarArray, elem: s.wireTypeOf(t.Elem)}
	case ir.K_LIST:
		return &wireType{id: skillbin.List, elem: s.wireTypeOf(t.Elem)}
	case ir.K_SET:
		return &wireType{id: skillbin.Set, elem: s.wireTypeOf(t.Elem)}
	case ir.K_MAP:
		bases := make([]*wireType, len(t.Bases))
		for ii, base := range t.Bases {
			bases[ii] = s.wireTypeOf(base)
		}
		return &wireType{id: skillbin.Map, bases: bases}
	default:
		panic("unreachable")
	}
}

func groundWireID(g ir.Ground) skillbin.TypeID {
	switch g {
	case ir.G_BOOL:
		return skillbin.Bool
	case ir.G_I8:
		return skillbin.I8
	case ir.G_I16:
		return skillbin.I16
	case ir.G_I32:
		return skillbin.I32
	case ir.G_I64:
		return skillbin.I64
	case ir.G_V64:
		return skillbin.V64
	case ir.G_F32:
		return skillbin.F32
	case ir.G_F64:
		return skillbin.F64
	case ir.G_STRING:
		return skillbin.String
	case ir.G_ANNOTATION:
		return skillbin.Annotation
	default:
		panic("unreachable")
	}
}

// Strings returns the state's string pool.
func (s *State) Strings() *StringPool {
	return s.strings
}

// Pools returns the storage pools in type order; pools read from a file
// without a binding declaration follow in file order.
func (s *State) Pools() []*StoragePool {
	return s.pools
}

// Pool finds a storage pool by type name (case-sensitive, wire names are
// lower case). It returns nil if no such pool exists.
func (s *State) Pool(name string) *StoragePool {
	return s.poolsByName[name]
}

// FromPath returns the path of the state's backing file, empty for a state
// built by Create that has not been written yet.
func (s *State) FromPath() string {
	return s.fromPath
}

// Delete marks an instance for deletion. Its SkillID becomes 0 and it is
// skipped by the next Write.
func (s *State) Delete(obj *Object) {
	obj.deleted = true
	obj.id = 0
}

// Object is one runtime instance. Its SkillID is assigned at serialization
// time; 0 denotes an instance that is deleted or not yet serialized.
type Object struct {
	pool    *StoragePool
	id      int64
	deleted bool

	// Values of binding fields, keyed by wire name.
	fields map[string]any

	// Values of fields read from a file for which the binding has no
	// typed accessor.
	unknown map[string]any
}

func (o *Object) Pool() *StoragePool {
	return o.pool
}

// Type returns the instance's declaration, nil inside opaque pools.
func (o *Object) Type() *ir.Declaration {
	return o.pool.decl
}

func (o *Object) SkillID() int64 {
	if o.deleted {
		return 0
	}
	return o.id
}

func (o *Object) Deleted() bool {
	return o.deleted
}

// Get reads a field value by wire name. Fields unknown to the binding are
// served from the instance's unknown field data.
func (o *Object) Get(name string) any {
	if o.pool.knownFieldName(name) {
		return o.fields[name]
	}
	return o.unknown[name]
}

// Set writes a field value by wire name, routing names unknown to the
// binding into the instance's unknown field data.
func (o *Object) Set(name string, value any) {
	if o.pool.knownFieldName(name) {
		o.fields[name] = value
		return
	}
	if o.unknown == nil {
		o.unknown = make(map[string]any)
	}
	o.unknown[name] = value
}

// Unknown exposes the instance's unknown field data.
func (o *Object) Unknown() map[string]any {
	return o.unknown
}

func (o *Object) valueOf(pf *poolField) any {
	if pf.field != nil {
		return o.fields[pf.name]
	}
	return o.unknown[pf.name]
}

func (o *Object) setValueOf(pf *poolField, value any) {
	if pf.field != nil {
		o.fields[pf.name] = value
		return
	}
	if o.unknown == nil {
		o.unknown = make(map[string]any)
	}
	o.unknown[pf.name] = value
}

func errNoBaseFile() error {
	return fmt.Errorf("skill: append requires a state with a backing file")
}
