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
	"fmt"
	"os"

	"go.skill-lang.org/skill/encoding/skillbin"
	"go.skill-lang.org/skill/ir"
)

// Read populates a state from an existing file. Types present in the file
// but absent from ctx are carried through as opaque pools; ctx may be nil
// to read everything opaquely.
func Read(path string, ctx *ir.TypeContext) (*State, error) {
	s := Create(ctx)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	in := skillbin.NewIn(buf)
	for in.Remaining() > 0 {
		if err := s.readBlock(in); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	s.fromPath = path
	return s, nil
}

type blockType struct {
	pool    *StoragePool
	bpsi    uint64
	count   uint64
	fields  []*blockField
	objects []*Object
}

type blockField struct {
	pf        *poolField
	newInFile bool
	start     uint64
	end       uint64
}

func (s *State) readBlock(in *skillbin.In) error {
	strs, err := skillbin.ReadStringBlock(in)
	if err != nil {
		return err
	}
	for _, str := range strs {
		s.strings.appendString(str)
	}
	s.strings.written = s.strings.Len()

	typeCount, err := in.V64()
	if err != nil {
		return err
	}

	block := make([]*blockType, 0, typeCount)
	var pending []*wireType
	dataOffset := uint64(0)
	for ii := uint64(0); ii < typeCount; ii++ {
		bt, err := s.readTypeRecord(in, &pending, &dataOffset)
		if err != nil {
			return err
		}
		block = append(block, bt)
	}

	// User references in field types index the file's type block, which
	// may include records later in this block.
	for _, w := range pending {
		index := int(w.id - skillbin.UserBase)
		if index >= len(s.fileTypes) {
			return fmt.Errorf("skill: field type references type %d of %d",
				index, len(s.fileTypes))
		}
		w.pool = s.fileTypes[index]
	}

	// All of the block's instances exist before any field data is
	// decoded, so references inside the block resolve.
	for _, bt := range block {
		pool := bt.pool
		base := pool.base
		need := int(bt.bpsi + bt.count)
		for len(base.byID) < need {
			base.byID = append(base.byID, nil)
		}
		bt.objects = make([]*Object, bt.count)
		for jj := range bt.objects {
			obj := &Object{
				pool:   pool,
				id:     int64(bt.bpsi) + int64(jj),
				fields: make(map[string]any),
			}
			bt.objects[jj] = obj
			base.byID[int(bt.bpsi)+jj] = obj
		}
		pool.data = append(pool.data, bt.objects...)
		pool.blocks = append(pool.blocks, BlockInfo{BPSI: bt.bpsi, Count: bt.count})
	}

	data, err := in.Take(int(dataOffset), "field data")
	if err != nil {
		return err
	}

	blockObjects := make(map[*StoragePool][]*Object, len(block))
	for _, bt := range block {
		blockObjects[bt.pool] = bt.objects
	}

	for _, bt := range block {
		for _, bf := range bt.fields {
			sub := skillbin.NewIn(data[bf.start:bf.end])
			var objects []*Object
			if bf.newInFile {
				// A field first seen in this block carries data
				// for every instance, not only the block's.
				objects = collectAll(bt.pool)
			} else {
				objects = collectBlock(bt.pool, blockObjects)
			}
			for _, obj := range objects {
				value, err := s.readValue(sub, bf.pf.wire)
				if err != nil {
					return err
				}
				obj.setValueOf(bf.pf, value)
			}
			if sub.Remaining() != 0 {
				return fmt.Errorf(
					"skill: field %q of type %q has %d bytes of trailing data",
					bf.pf.name, bt.pool.name, sub.Remaining(),
				)
			}
		}
	}

	for _, bt := range block {
		bt.pool.inFile = true
	}
	return nil
}

func collectAll(pool *StoragePool) []*Object {
	var objects []*Object
	for obj := range pool.AllInTypeOrder() {
		objects = append(objects, obj)
	}
	return objects
}

func collectBlock(
	pool *StoragePool,
	blockObjects map[*StoragePool][]*Object,
) []*Object {
	objects := append([]*Object(nil), blockObjects[pool]...)
	for _, sub := range pool.subs {
		objects = append(objects, collectBlock(sub, blockObjects)...)
	}
	return objects
}

func (s *State) readTypeRecord(
	in *skillbin.In,
	pending *[]*wireType,
	dataOffset *uint64,
) (*blockType, error) {
	nameID, err := in.V64()
	if err != nil {
		return nil, err
	}
	name, err := s.strings.Get(nameID)
	if err != nil {
		return nil, err
	}

	pool := s.poolsByName[name]
	first := pool == nil || !pool.inFile

	var superName string
	if first {
		superID, err := in.V64()
		if err != nil {
			return nil, err
		}
		if superName, err = s.strings.Get(superID); err != nil {
			return nil, err
		}
	}

	bpsi, err := in.V64()
	if err != nil {
		return nil, err
	}
	count, err := in.V64()
	if err != nil {
		return nil, err
	}

	if first {
		restrictionCount, err := in.V64()
		if err != nil {
			return nil, err
		}
		if restrictionCount != 0 {
			return nil, fmt.Errorf(
				"skill: type %q carries %d serialized restrictions (unsupported)",
				name, restrictionCount,
			)
		}
	}

	if pool == nil {
		var super *StoragePool
		if superName != "" {
			super = s.poolsByName[superName]
			if super == nil {
				return nil, fmt.Errorf(
					"skill: type %q names unknown super type %q",
					name, superName,
				)
			}
		}
		pool = s.addOpaquePool(name, super)
	}
	if pool.typeIndex < 0 {
		pool.typeIndex = len(s.fileTypes)
		s.fileTypes = append(s.fileTypes, pool)
	}

	fieldCount, err := in.V64()
	if err != nil {
		return nil, err
	}

	bt := &blockType{pool: pool, bpsi: bpsi, count: count}
	knownFields := uint64(len(pool.fileFields))
	for ii := uint64(0); ii < fieldCount; ii++ {
		if ii < knownFields {
			bf, err := s.readKnownField(in, pool, ii, dataOffset)
			if err != nil {
				return nil, err
			}
			if bf != nil {
				bt.fields = append(bt.fields, bf)
			}
			continue
		}
		bf, err := s.readNewField(in, pool, pending, dataOffset)
		if err != nil {
			return nil, err
		}
		if bf != nil {
			bt.fields = append(bt.fields, bf)
		}
	}
	return bt, nil
}

func (s *State) readKnownField(
	in *skillbin.In,
	pool *StoragePool,
	index uint64,
	dataOffset *uint64,
) (*blockField, error) {
	nameID, err := in.V64()
	if err != nil {
		return nil, err
	}
	name, err := s.strings.Get(nameID)
	if err != nil {
		return nil, err
	}
	pf := pool.fileFields[index]
	if pf.name != name {
		return nil, fmt.Errorf(
			"skill: field %d of type %q is named %q, expected %q",
			index, pool.name, name, pf.name,
		)
	}
	end, err := in.V64()
	if err != nil {
		return nil, err
	}
	if pf.isConstant {
		*dataOffset = end
		return nil, nil
	}
	bf := &blockField{pf: pf, start: *dataOffset, end: end}
	*dataOffset = end
	return bf, nil
}

func (s *State) readNewField(
	in *skillbin.In,
	pool *StoragePool,
	pending *[]*wireType,
	dataOffset *uint64,
) (*blockField, error) {
	restrictionCount, err := in.V64()
	if err != nil {
		return nil, err
	}
	if restrictionCount != 0 {
		return nil, fmt.Errorf(
			"skill: field of type %q carries %d serialized restrictions (unsupported)",
			pool.name, restrictionCount,
		)
	}

	wire, isConstant, constantValue, err := s.readFieldType(in, pending)
	if err != nil {
		return nil, err
	}

	nameID, err := in.V64()
	if err != nil {
		return nil, err
	}
	name, err := s.strings.Get(nameID)
	if err != nil {
		return nil, err
	}
	end, err := in.V64()
	if err != nil {
		return nil, err
	}

	pf := pool.fieldByName(name)
	if pf == nil {
		pf = &poolField{
			name:          name,
			wire:          wire,
			isConstant:    isConstant,
			constantValue: constantValue,
		}
		pool.fields = append(pool.fields, pf)
	}
	pf.inFile = true
	pool.fileFields = append(pool.fileFields, pf)

	if pf.isConstant {
		*dataOffset = end
		return nil, nil
	}
	bf := &blockField{pf: pf, newInFile: true, start: *dataOffset, end: end}
	*dataOffset = end
	return bf, nil
}

func (s *State) readFieldType(
	in *skillbin.In,
	pending *[]*wireType,
) (*wireType, bool, int64, error) {
	id, err := in.TypeID()
	if err != nil {
		return nil, false, 0, err
	}
	switch id {
	case skillbin.ConstI8:
		v, err := in.I8()
		return &wireType{id: skillbin.I8}, true, int64(v), err
	case skillbin.ConstI16:
		v, err := in.I16()
		return &wireType{id: skillbin.I16}, true, int64(v), err
	case skillbin.ConstI32:
		v, err := in.I32()
		return &wireType{id: skillbin.I32}, true, int64(v), err
	case skillbin.ConstI64:
		v, err := in.I64()
		return &wireType{id: skillbin.I64}, true, v, err
	case skillbin.ConstV64:
		v, err := in.V64()
		return &wireType{id: skillbin.V64}, true, int64(v), err
	case skillbin.FixedArray:
		length, err := in.V64()
		if err != nil {
			return nil, false, 0, err
		}
		elem, err := s.readBaseType(in, pending)
		if err != nil {
			return nil, false, 0, err
		}
		return &wireType{id: id, elem: elem, length: length}, false, 0, nil
	case skillbin.VarArray, skillbin.List, skillbin.Set:
		elem, err := s.readBaseType(in, pending)
		if err != nil {
			return nil, false, 0, err
		}
		return &wireType{id: id, elem: elem}, false, 0, nil
	case skillbin.Map:
		baseCount, err := in.V64()
		if err != nil {
			return nil, false, 0, err
		}
		if baseCount < 2 {
			return nil, false, 0, fmt.Errorf(
				"skill: map field type has %d base types", baseCount,
			)
		}
		bases := make([]*wireType, baseCount)
		for ii := range bases {
			if bases[ii], err = s.readBaseType(in, pending); err != nil {
				return nil, false, 0, err
			}
		}
		return &wireType{id: id, bases: bases}, false, 0, nil
	default:
		w, err := s.newBaseType(id, pending)
		return w, false, 0, err
	}
}

func (s *State) readBaseType(
	in *skillbin.In,
	pending *[]*wireType,
) (*wireType, error) {
	id, err := in.TypeID()
	if err != nil {
		return nil, err
	}
	return s.newBaseType(id, pending)
}

func (s *State) newBaseType(
	id skillbin.TypeID,
	pending *[]*wireType,
) (*wireType, error) {
	if id >= skillbin.UserBase {
		w := &wireType{id: id}
		*pending = append(*pending, w)
		return w, nil
	}
	switch id {
	case skillbin.Annotation, skillbin.Bool,
		skillbin.I8, skillbin.I16, skillbin.I32, skillbin.I64, skillbin.V64,
		skillbin.F32, skillbin.F64, skillbin.String:
		return &wireType{id: id}, nil
	}
	return nil, fmt.Errorf("skill: invalid field type ID %d", uint64(id))
}

func (s *State) addOpaquePool(name string, super *StoragePool) *StoragePool {
	pool := &StoragePool{
		state:     s,
		name:      name,
		super:     super,
		typeIndex: -1,
	}
	if super != nil {
		super.subs = append(super.subs, pool)
		pool.base = super.base
	} else {
		pool.base = pool
		pool.byID = []*Object{nil}
	}
	s.pools = append(s.pools, pool)
	s.poolsByName[name] = pool
	return pool
}
