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
	"io"
	"os"
	"slices"

	"go.skill-lang.org/skill/encoding/skillbin"
)

// Write rewrites the entire state to target. The string pool is rebuilt and
// every type and field is emitted as a first appearance. The output is
// assembled next to the target and swapped in by rename.
func (s *State) Write(target string) error {
	s.strings.reset()
	// IDs are assigned before string preparation: object-keyed maps are
	// ordered by SkillID.
	s.assignFreshIDs()
	s.prepareStrings(false)

	s.fileTypes = s.fileTypes[:0]
	for ii, pool := range s.pools {
		pool.typeIndex = ii
		s.fileTypes = append(s.fileTypes, pool)
	}

	header := &skillbin.Out{}
	skillbin.WriteStringBlock(header, s.strings.All())

	side, err := newSideBuffer(target)
	if err != nil {
		return err
	}
	defer side.discard()

	types := &skillbin.Out{}
	types.V64(uint64(len(s.pools)))
	bw := &blockWriter{
		s:     s,
		types: types,
		side:  side,
		fresh: true,
	}
	for _, pool := range s.pools {
		if err := bw.typeRecord(pool); err != nil {
			return err
		}
	}

	tmpPath := target + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	ok := false
	defer func() {
		if !ok {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := header.WriteTo(file); err != nil {
		return err
	}
	if _, err := types.WriteTo(file); err != nil {
		return err
	}
	if err := side.copyTo(file); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return err
	}
	ok = true

	s.strings.written = s.strings.Len()
	for _, pool := range s.pools {
		merged := make([]*Object, 0, len(pool.data)+len(pool.newObjects))
		for _, obj := range pool.data {
			if !obj.deleted {
				merged = append(merged, obj)
			}
		}
		for _, obj := range pool.newObjects {
			if !obj.deleted {
				merged = append(merged, obj)
			}
		}
		pool.data = merged
		pool.newObjects = nil
		pool.blocks = []BlockInfo{{BPSI: pool.writeBPSI, Count: pool.writeCount}}
		pool.inFile = true
		pool.fileFields = slices.Clone(pool.fields)
		for _, pf := range pool.fields {
			pf.inFile = true
		}
	}
	s.fromPath = target
	return nil
}

// Append emits one block of new-object deltas onto the state's backing
// file.
func (s *State) Append() error {
	if s.fromPath == "" {
		return errNoBaseFile()
	}
	return s.appendBlock(s.fromPath)
}

// AppendTo appends onto target. If target differs from the backing file,
// the backing file is copied to target first and target becomes the new
// backing file.
func (s *State) AppendTo(target string) error {
	if s.fromPath == "" {
		return errNoBaseFile()
	}
	if target != s.fromPath {
		if err := copyFile(s.fromPath, target); err != nil {
			return err
		}
	}
	return s.appendBlock(target)
}

func (s *State) appendBlock(target string) error {
	prevByID := make(map[*StoragePool]int)
	s.assignAppendIDs(prevByID)
	s.prepareStrings(true)
	ok := false
	defer func() {
		if ok {
			return
		}
		for base, prevLen := range prevByID {
			for _, obj := range base.byID[prevLen:] {
				obj.id = 0
			}
			base.byID = base.byID[:prevLen]
		}
	}()

	for _, pool := range s.pools {
		if pool.typeIndex < 0 {
			pool.typeIndex = len(s.fileTypes)
			s.fileTypes = append(s.fileTypes, pool)
		}
	}

	header := &skillbin.Out{}
	skillbin.WriteStringBlock(header, s.strings.All()[s.strings.written:])

	side, err := newSideBuffer(target)
	if err != nil {
		return err
	}
	defer side.discard()

	types := &skillbin.Out{}
	types.V64(uint64(len(s.pools)))
	bw := &blockWriter{
		s:     s,
		types: types,
		side:  side,
	}
	for _, pool := range s.pools {
		if err := bw.typeRecord(pool); err != nil {
			return err
		}
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := header.WriteTo(file); err != nil {
		return err
	}
	if _, err := types.WriteTo(file); err != nil {
		return err
	}
	if err := side.copyTo(file); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	ok = true

	s.strings.written = s.strings.Len()
	for _, pool := range s.pools {
		for _, obj := range pool.newObjects {
			if !obj.deleted {
				pool.data = append(pool.data, obj)
			}
		}
		pool.newObjects = nil
		pool.blocks = append(pool.blocks, BlockInfo{
			BPSI:  pool.writeBPSI,
			Count: pool.writeCount,
		})
		pool.inFile = true
		for _, pf := range pool.fields {
			if !pf.inFile {
				pf.inFile = true
				pool.fileFields = append(pool.fileFields, pf)
			}
		}
	}
	s.fromPath = target
	return nil
}

// prepareStrings interns every string the next block will reference: type
// and field names, and all string cells reachable from the instances being
// written.
func (s *State) prepareStrings(newOnly bool) {
	for _, pool := range s.pools {
		s.strings.Intern(pool.name)
		for _, pf := range pool.fields {
			s.strings.Intern(pf.name)
		}
	}
	for _, pool := range s.pools {
		for _, pf := range pool.fields {
			if pf.isConstant {
				continue
			}
			objects := pool.AllInTypeOrder()
			if newOnly && pf.inFile {
				objects = pool.NewInTypeOrder()
			}
			for obj := range objects {
				if obj.deleted {
					continue
				}
				s.prepareValue(pf.wire, obj.valueOf(pf))
			}
		}
	}
}

// assignFreshIDs renumbers every live instance. IDs are consecutive within
// each base pool, assigned by walking the inheritance tree in type order,
// so each type's instances form one contiguous run.
func (s *State) assignFreshIDs() {
	for _, base := range s.pools {
		if base.base != base {
			continue
		}
		byID := []*Object{nil}
		var walk func(p *StoragePool)
		walk = func(p *StoragePool) {
			p.writeBPSI = uint64(len(byID))
			count := uint64(0)
			for _, obj := range p.data {
				if obj.deleted {
					continue
				}
				obj.id = int64(len(byID))
				byID = append(byID, obj)
				count++
			}
			for _, obj := range p.newObjects {
				if obj.deleted {
					continue
				}
				obj.id = int64(len(byID))
				byID = append(byID, obj)
				count++
			}
			p.writeCount = count
			for _, sub := range p.subs {
				walk(sub)
			}
		}
		walk(base)
		base.byID = byID
	}
}

// assignAppendIDs numbers only new instances, continuing each base pool's
// existing ID space.
func (s *State) assignAppendIDs(prevByID map[*StoragePool]int) {
	for _, base := range s.pools {
		if base.base != base {
			continue
		}
		prevByID[base] = len(base.byID)
		var walk func(p *StoragePool)
		walk = func(p *StoragePool) {
			p.writeBPSI = uint64(len(base.byID))
			count := uint64(0)
			for _, obj := range p.newObjects {
				if obj.deleted {
					continue
				}
				obj.id = int64(len(base.byID))
				base.byID = append(base.byID, obj)
				count++
			}
			p.writeCount = count
			for _, sub := range p.subs {
				walk(sub)
			}
		}
		walk(base)
	}
}

type blockWriter struct {
	s     *State
	types *skillbin.Out
	side  *sideBuffer

	// fresh forces first-appearance records for every type and field,
	// used by Write to rebuild the file from scratch.
	fresh bool

	dataLen uint64
}

func (bw *blockWriter) stringID(str string) (uint64, error) {
	id, ok := bw.s.strings.ID(str)
	if !ok {
		return 0, fmt.Errorf("skill: string %q was not interned before writing", str)
	}
	return id, nil
}

func (bw *blockWriter) typeRecord(pool *StoragePool) error {
	o := bw.types
	nameID, err := bw.stringID(pool.name)
	if err != nil {
		return err
	}
	o.V64(nameID)

	first := bw.fresh || !pool.inFile
	if first {
		superID := uint64(0)
		if pool.super != nil {
			if superID, err = bw.stringID(pool.super.name); err != nil {
				return err
			}
		}
		o.V64(superID)
	}
	o.V64(pool.writeBPSI)
	o.V64(pool.writeCount)
	if first {
		o.V64(0)
	}

	o.V64(uint64(len(pool.fields)))
	for _, pf := range pool.fields {
		if first || !pf.inFile {
			o.V64(0)
			bw.fieldType(pf)
		}
		fieldNameID, err := bw.stringID(pf.name)
		if err != nil {
			return err
		}
		o.V64(fieldNameID)
		if !pf.isConstant {
			if err := bw.fieldData(pool, pf); err != nil {
				return err
			}
		}
		o.V64(bw.dataLen)
	}
	return nil
}

// fieldType emits the field's wire type. Constant fields carry their value
// in place of per-instance data.
func (bw *blockWriter) fieldType(pf *poolField) {
	o := bw.types
	if pf.isConstant {
		switch pf.wire.id {
		case skillbin.I8:
			o.TypeID(skillbin.ConstI8)
			o.I8(int8(pf.constantValue))
		case skillbin.I16:
			o.TypeID(skillbin.ConstI16)
			o.I16(int16(pf.constantValue))
		case skillbin.I32:
			o.TypeID(skillbin.ConstI32)
			o.I32(int32(pf.constantValue))
		case skillbin.I64:
			o.TypeID(skillbin.ConstI64)
			o.I64(pf.constantValue)
		case skillbin.V64:
			o.TypeID(skillbin.ConstV64)
			o.V64(uint64(pf.constantValue))
		default:
			panic("unreachable")
		}
		return
	}

	w := pf.wire
	switch w.id {
	case skillbin.FixedArray:
		o.TypeID(skillbin.FixedArray)
		o.V64(w.length)
		o.V64(uint64(baseTypeID(w.elem)))
	case skillbin.VarArray, skillbin.List, skillbin.Set:
		o.TypeID(w.id)
		o.V64(uint64(baseTypeID(w.elem)))
	case skillbin.Map:
		o.TypeID(skillbin.Map)
		o.V64(uint64(len(w.bases)))
		for _, base := range w.bases {
			o.V64(uint64(baseTypeID(base)))
		}
	default:
		o.V64(uint64(baseTypeID(w)))
	}
}

func baseTypeID(w *wireType) skillbin.TypeID {
	if w.pool != nil {
		return skillbin.UserBase + skillbin.TypeID(w.pool.typeIndex)
	}
	return w.id
}

func (bw *blockWriter) fieldData(pool *StoragePool, pf *poolField) error {
	out := &skillbin.Out{}
	objects := pool.AllInTypeOrder()
	if !bw.fresh && pf.inFile {
		objects = pool.NewInTypeOrder()
	}
	for obj := range objects {
		if obj.deleted {
			continue
		}
		if err := bw.s.writeValue(out, pf.wire, obj.valueOf(pf)); err != nil {
			return err
		}
	}
	if err := bw.side.write(out.Bytes()); err != nil {
		return err
	}
	bw.dataLen += uint64(out.Len())
	return nil
}

// sideBuffer is the transaction's side data file. Field data is streamed
// here while the type block is assembled, then copied into the main output
// once all sizes are known. The file is removed on every exit path.
type sideBuffer struct {
	file      *os.File
	path      string
	discarded bool
}

func newSideBuffer(target string) (*sideBuffer, error) {
	path := target + ".fields"
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &sideBuffer{file: file, path: path}, nil
}

func (b *sideBuffer) write(data []byte) error {
	_, err := b.file.Write(data)
	return err
}

func (b *sideBuffer) copyTo(w io.Writer) error {
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := io.Copy(w, b.file)
	return err
}

func (b *sideBuffer) discard() {
	if b.discarded {
		return
	}
	b.file.Close()
	os.Remove(b.path)
	b.discarded = true
}

func copyFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
