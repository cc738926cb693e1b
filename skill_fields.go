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
	"cmp"
	"fmt"
	"sort"

	"go.skill-lang.org/skill/encoding/skillbin"
)

// Field cell values use a fixed Go representation per wire type:
//
//	bool                  bool
//	i8 i16 i32 i64 v64    int64
//	f32                   float32
//	f64                   float64
//	string                string
//	annotation, user ref  *Object (nil for null)
//	arrays, lists, sets   []any
//	maps                  map[any]any (nested for deeper maps)
//
// A nil cell is the type's zero value.

// prepareValue interns every string reachable from one field cell,
// including strings nested inside compound values at any depth.
func (s *State) prepareValue(w *wireType, value any) {
	if value == nil {
		return
	}
	switch w.id {
	case skillbin.String:
		s.strings.Intern(value.(string))
	case skillbin.FixedArray, skillbin.VarArray, skillbin.List, skillbin.Set:
		for _, elem := range value.([]any) {
			s.prepareValue(w.elem, elem)
		}
	case skillbin.Map:
		s.prepareMap(w.bases, value)
	}
}

// prepareMap visits keys in the same order writeMap emits them, so that
// repeated writes intern strings in identical order.
func (s *State) prepareMap(bases []*wireType, value any) {
	if value == nil {
		return
	}
	m := value.(map[any]any)
	for _, key := range sortedKeys(m) {
		s.prepareValue(bases[0], key)
		if len(bases) == 2 {
			s.prepareValue(bases[1], m[key])
		} else {
			s.prepareMap(bases[1:], m[key])
		}
	}
}

func (s *State) writeValue(o *skillbin.Out, w *wireType, value any) error {
	switch w.id {
	case skillbin.Bool:
		v := false
		if value != nil {
			v = value.(bool)
		}
		o.Bool(v)
	case skillbin.I8:
		o.I8(int8(intCell(value)))
	case skillbin.I16:
		o.I16(int16(intCell(value)))
	case skillbin.I32:
		o.I32(int32(intCell(value)))
	case skillbin.I64:
		o.I64(intCell(value))
	case skillbin.V64:
		o.V64(uint64(intCell(value)))
	case skillbin.F32:
		v := float32(0)
		if value != nil {
			v = value.(float32)
		}
		o.F32(v)
	case skillbin.F64:
		v := float64(0)
		if value != nil {
			v = value.(float64)
		}
		o.F64(v)
	case skillbin.String:
		v := ""
		if value != nil {
			v = value.(string)
		}
		id, ok := s.strings.ID(v)
		if !ok {
			return fmt.Errorf("skill: string %q was not interned before writing", v)
		}
		o.V64(id)
	case skillbin.Annotation:
		obj := objectCell(value)
		if obj == nil {
			o.V64(0)
			o.V64(0)
			return nil
		}
		id, ok := s.strings.ID(obj.pool.base.name)
		if !ok {
			return fmt.Errorf(
				"skill: type name %q was not interned before writing",
				obj.pool.base.name,
			)
		}
		o.V64(id)
		o.V64(uint64(obj.id))
	case skillbin.FixedArray:
		elems, _ := value.([]any)
		if uint64(len(elems)) != w.length && value != nil {
			return fmt.Errorf(
				"skill: fixed array cell has %d elements, want %d",
				len(elems), w.length,
			)
		}
		for ii := uint64(0); ii < w.length; ii++ {
			var elem any
			if ii < uint64(len(elems)) {
				elem = elems[ii]
			}
			if err := s.writeValue(o, w.elem, elem); err != nil {
				return err
			}
		}
	case skillbin.VarArray, skillbin.List, skillbin.Set:
		elems, _ := value.([]any)
		o.V64(uint64(len(elems)))
		for _, elem := range elems {
			if err := s.writeValue(o, w.elem, elem); err != nil {
				return err
			}
		}
	case skillbin.Map:
		return s.writeMap(o, w.bases, value)
	default:
		if w.pool != nil {
			obj := objectCell(value)
			if obj == nil {
				o.V64(0)
				return nil
			}
			o.V64(uint64(obj.id))
			return nil
		}
		panic("unreachable")
	}
	return nil
}

// writeMap emits nested maps with keys in a deterministic order, so that
// repeated writes of unchanged state are bit-identical.
func (s *State) writeMap(o *skillbin.Out, bases []*wireType, value any) error {
	m, _ := value.(map[any]any)
	o.V64(uint64(len(m)))
	for _, key := range sortedKeys(m) {
		if err := s.writeValue(o, bases[0], key); err != nil {
			return err
		}
		if len(bases) == 2 {
			if err := s.writeValue(o, bases[1], m[key]); err != nil {
				return err
			}
		} else if err := s.writeMap(o, bases[1:], m[key]); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) readValue(in *skillbin.In, w *wireType) (any, error) {
	switch w.id {
	case skillbin.Bool:
		return in.Bool()
	case skillbin.I8:
		v, err := in.I8()
		return int64(v), err
	case skillbin.I16:
		v, err := in.I16()
		return int64(v), err
	case skillbin.I32:
		v, err := in.I32()
		return int64(v), err
	case skillbin.I64:
		return in.I64()
	case skillbin.V64:
		v, err := in.V64()
		return int64(v), err
	case skillbin.F32:
		return in.F32()
	case skillbin.F64:
		return in.F64()
	case skillbin.String:
		id, err := in.V64()
		if err != nil {
			return nil, err
		}
		return s.strings.Get(id)
	case skillbin.Annotation:
		nameID, err := in.V64()
		if err != nil {
			return nil, err
		}
		id, err := in.V64()
		if err != nil {
			return nil, err
		}
		if nameID == 0 && id == 0 {
			return nil, nil
		}
		name, err := s.strings.Get(nameID)
		if err != nil {
			return nil, err
		}
		pool := s.poolsByName[name]
		if pool == nil {
			return nil, fmt.Errorf("skill: annotation references unknown type %q", name)
		}
		return s.resolveRef(pool, id)
	case skillbin.FixedArray:
		elems := make([]any, w.length)
		for ii := range elems {
			elem, err := s.readValue(in, w.elem)
			if err != nil {
				return nil, err
			}
			elems[ii] = elem
		}
		return elems, nil
	case skillbin.VarArray, skillbin.List, skillbin.Set:
		count, err := in.V64()
		if err != nil {
			return nil, err
		}
		elems := make([]any, 0, count)
		for ii := uint64(0); ii < count; ii++ {
			elem, err := s.readValue(in, w.elem)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		return elems, nil
	case skillbin.Map:
		return s.readMap(in, w.bases)
	default:
		if w.pool != nil {
			id, err := in.V64()
			if err != nil {
				return nil, err
			}
			if id == 0 {
				return nil, nil
			}
			return s.resolveRef(w.pool, id)
		}
		panic("unreachable")
	}
}

func (s *State) readMap(in *skillbin.In, bases []*wireType) (any, error) {
	count, err := in.V64()
	if err != nil {
		return nil, err
	}
	m := make(map[any]any, count)
	for ii := uint64(0); ii < count; ii++ {
		key, err := s.readValue(in, bases[0])
		if err != nil {
			return nil, err
		}
		var value any
		if len(bases) == 2 {
			value, err = s.readValue(in, bases[1])
		} else {
			value, err = s.readMap(in, bases[1:])
		}
		if err != nil {
			return nil, err
		}
		m[key] = value
	}
	return m, nil
}

func (s *State) resolveRef(pool *StoragePool, id uint64) (*Object, error) {
	obj := pool.ObjectByID(int64(id))
	if obj == nil {
		return nil, fmt.Errorf(
			"skill: reference to instance %d of type %q out of range",
			id, pool.name,
		)
	}
	return obj, nil
}

func intCell(value any) int64 {
	if value == nil {
		return 0
	}
	return value.(int64)
}

func objectCell(value any) *Object {
	if value == nil {
		return nil
	}
	obj := value.(*Object)
	if obj == nil || obj.deleted {
		return nil
	}
	return obj
}

// sortedKeys orders map keys by kind, then value. Object keys sort by base
// pool name and SkillID; IDs are assigned before field data is encoded.
func sortedKeys(m map[any]any) []any {
	keys := make([]any, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareKeys(keys[i], keys[j]) < 0
	})
	return keys
}

func compareKeys(a, b any) int {
	if x := cmp.Compare(keyRank(a), keyRank(b)); x != 0 {
		return x
	}
	switch a := a.(type) {
	case bool:
		bv := b.(bool)
		if a == bv {
			return 0
		}
		if !a {
			return -1
		}
		return 1
	case int64:
		return cmp.Compare(a, b.(int64))
	case float32:
		return cmp.Compare(a, b.(float32))
	case float64:
		return cmp.Compare(a, b.(float64))
	case string:
		return cmp.Compare(a, b.(string))
	case *Object:
		bo := b.(*Object)
		if x := cmp.Compare(a.pool.base.name, bo.pool.base.name); x != 0 {
			return x
		}
		return cmp.Compare(a.id, bo.id)
	default:
		panic(fmt.Sprintf("skill: unsupported map key %T", a))
	}
}

func keyRank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case int64:
		return 1
	case float32:
		return 2
	case float64:
		return 3
	case string:
		return 4
	case *Object:
		return 5
	default:
		panic(fmt.Sprintf("skill: unsupported map key %T", v))
	}
}
