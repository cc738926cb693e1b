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

// Package skillbin implements the wire primitives of the binary file
// format: little-endian fixed-width values, the v64 variable-length
// integer, string blocks, and the type-ID table.
package skillbin

import (
	"fmt"
)

// TypeID values as they appear in type blocks. User types are encoded as
// UserBase plus the type's position in the file's type block. ID 16 is
// reserved and unused.
type TypeID uint64

const (
	ConstI8    TypeID = 0
	ConstI16   TypeID = 1
	ConstI32   TypeID = 2
	ConstI64   TypeID = 3
	ConstV64   TypeID = 4
	Annotation TypeID = 5
	Bool       TypeID = 6
	I8         TypeID = 7
	I16        TypeID = 8
	I32        TypeID = 9
	I64        TypeID = 10
	V64        TypeID = 11
	F32        TypeID = 12
	F64        TypeID = 13
	String     TypeID = 14
	FixedArray TypeID = 15
	VarArray   TypeID = 17
	List       TypeID = 18
	Set        TypeID = 19
	Map        TypeID = 20

	UserBase TypeID = 32
)

func (id TypeID) String() string {
	switch id {
	case ConstI8:
		return "const i8"
	case ConstI16:
		return "const i16"
	case ConstI32:
		return "const i32"
	case ConstI64:
		return "const i64"
	case ConstV64:
		return "const v64"
	case Annotation:
		return "annotation"
	case Bool:
		return "bool"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case V64:
		return "v64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case String:
		return "string"
	case FixedArray:
		return "array"
	case VarArray:
		return "array[]"
	case List:
		return "list"
	case Set:
		return "set"
	case Map:
		return "map"
	}
	if id >= UserBase {
		return fmt.Sprintf("user(%d)", uint64(id-UserBase))
	}
	return fmt.Sprintf("TypeID(%d)", uint64(id))
}

// AppendV64 appends the minimal v64 encoding of v. The first eight bytes
// carry seven payload bits each with the high bit as a continuation flag;
// a ninth byte carries a full eight payload bits and no flag.
func AppendV64(buf []byte, v uint64) []byte {
	for ii := 0; ii < 8; ii++ {
		if v < 0x80 {
			return append(buf, uint8(v))
		}
		buf = append(buf, uint8(v)|0x80)
		v >>= 7
	}
	return append(buf, uint8(v))
}

// V64Len returns the encoded size of v, in [1, 9].
func V64Len(v uint64) int {
	size := 1
	for ii := 0; ii < 8; ii++ {
		if v < 0x80 {
			return size
		}
		size++
		v >>= 7
	}
	return 9
}

// DecodeV64 decodes one v64 from the front of buf, returning the value and
// the number of bytes consumed (zero if buf is truncated).
func DecodeV64(buf []byte) (uint64, int) {
	var v uint64
	for ii := 0; ii < 9; ii++ {
		if ii >= len(buf) {
			return 0, 0
		}
		b := buf[ii]
		if ii == 8 {
			v |= uint64(b) << 56
			return v, 9
		}
		v |= uint64(b&0x7F) << (7 * ii)
		if b&0x80 == 0 {
			return v, ii + 1
		}
	}
	return 0, 0
}
