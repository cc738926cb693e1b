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

package skill

import (
	"iter"

	"go.skill-lang.org/skill/encoding/skillbin"
	"go.skill-lang.org/skill/ir"
)

// BlockInfo records one file block's contribution to a pool: the 1-based
// base pool index at which the block's instances of this type begin, and
// how many there are.
type BlockInfo struct {
	BPSI  uint64
	Count uint64
}

// StoragePool holds the instances of one user type. Pools are linked along
// the inheritance relation; all instances of one inheritance tree share the
// base pool's SkillID space.
type StoragePool struct {
	state *State
	name  string

	// decl is nil for pools carried through from a file without a
	// matching declaration in the binding.
	decl *ir.Declaration

	super *StoragePool
	base  *StoragePool
	subs  []*StoragePool

	// Instances read from (or already written to) the backing file,
	// then instances created in the current session.
	data       []*Object
	newObjects []*Object

	blocks []BlockInfo

	// Serialized fields in binding order; fields read from a file with
	// no binding counterpart are appended.
	fields []*poolField

	// Fields in order of appearance in the backing file.
	fileFields []*poolField

	// Base pools only: all instances of the tree in SkillID order,
	// 1-based (entry 0 is unused).
	byID []*Object

	inFile    bool
	typeIndex int

	// Scratch for the block being written.
	writeBPSI  uint64
	writeCount uint64
}

type poolField struct {
	// field is nil for fields with no binding counterpart; their values
	// live in each instance's unknown field data.
	field *ir.Field

	name string
	wire *wireType

	isConstant    bool
	constantValue int64

	inFile bool
}

// wireType describes a field type as it appears on the wire. User
// references carry the target pool; the type-block index is resolved at
// encode time.
type wireType struct {
	id     skillbin.TypeID
	pool   *StoragePool
	elem   *wireType
	length uint64
	bases  []*wireType
}

func (p *StoragePool) Name() string {
	return p.name
}

// Decl returns the pool's declaration, nil for opaque pools.
func (p *StoragePool) Decl() *ir.Declaration {
	return p.decl
}

func (p *StoragePool) Super() *StoragePool {
	return p.super
}

func (p *StoragePool) Base() *StoragePool {
	return p.base
}

func (p *StoragePool) SubPools() []*StoragePool {
	return p.subs
}

func (p *StoragePool) Blocks() []BlockInfo {
	return p.blocks
}

// New creates an instance of this pool's type. The instance has no SkillID
// until the state is next written or appended.
func (p *StoragePool) New() *Object {
	obj := &Object{
		pool:   p,
		fields: make(map[string]any),
	}
	p.newObjects = append(p.newObjects, obj)
	return obj
}

// AllInTypeOrder yields the pool's instances (persisted first, then new),
// then recurses into sub-pools. Deleted instances are included; callers
// writing field data skip them.
func (p *StoragePool) AllInTypeOrder() iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		p.allInTypeOrder(yield)
	}
}

func (p *StoragePool) allInTypeOrder(yield func(*Object) bool) bool {
	for _, obj := range p.data {
		if !yield(obj) {
			return false
		}
	}
	for _, obj := range p.newObjects {
		if !yield(obj) {
			return false
		}
	}
	for _, sub := range p.subs {
		if !sub.allInTypeOrder(yield) {
			return false
		}
	}
	return true
}

// NewInTypeOrder yields only instances created since the last session, in
// the same traversal order as AllInTypeOrder.
func (p *StoragePool) NewInTypeOrder() iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		p.newInTypeOrder(yield)
	}
}

func (p *StoragePool) newInTypeOrder(yield func(*Object) bool) bool {
	for _, obj := range p.newObjects {
		if !yield(obj) {
			return false
		}
	}
	for _, sub := range p.subs {
		if !sub.newInTypeOrder(yield) {
			return false
		}
	}
	return true
}

// Size counts the pool's instances including sub-pools, excluding deleted
// instances.
func (p *StoragePool) Size() int {
	n := 0
	for obj := range p.AllInTypeOrder() {
		if !obj.deleted {
			n++
		}
	}
	return n
}

// ObjectByID resolves a SkillID within this pool's tree. The ID space
// belongs to the base pool.
func (p *StoragePool) ObjectByID(id int64) *Object {
	base := p.base
	if id <= 0 || id >= int64(len(base.byID)) {
		return nil
	}
	return base.byID[id]
}

func (p *StoragePool) fieldByName(name string) *poolField {
	for _, pf := range p.fields {
		if pf.name == name {
			return pf
		}
	}
	return nil
}

// knownFieldName reports whether name is a field the binding was generated
// for, on this pool or an ancestor.
func (p *StoragePool) knownFieldName(name string) bool {
	for t := p; t != nil; t = t.super {
		if pf := t.fieldByName(name); pf != nil && pf.field != nil {
			return true
		}
	}
	return false
}
