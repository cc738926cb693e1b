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

package skillbin

import (
	"encoding/binary"
	"io"
	"math"
)

// Out is an append-only encode buffer. All fixed-width values are
// little-endian.
type Out struct {
	buf []byte
}

func (o *Out) Len() int {
	return len(o.buf)
}

func (o *Out) Bytes() []byte {
	return o.buf
}

func (o *Out) Reset() {
	o.buf = o.buf[:0]
}

func (o *Out) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(o.buf)
	return int64(n), err
}

func (o *Out) Bool(v bool) {
	if v {
		o.buf = append(o.buf, 0x01)
		return
	}
	o.buf = append(o.buf, 0x00)
}

func (o *Out) I8(v int8) {
	o.buf = append(o.buf, uint8(v))
}

func (o *Out) I16(v int16) {
	o.buf = binary.LittleEndian.AppendUint16(o.buf, uint16(v))
}

func (o *Out) I32(v int32) {
	o.buf = binary.LittleEndian.AppendUint32(o.buf, uint32(v))
}

func (o *Out) I64(v int64) {
	o.buf = binary.LittleEndian.AppendUint64(o.buf, uint64(v))
}

func (o *Out) F32(v float32) {
	o.buf = binary.LittleEndian.AppendUint32(o.buf, math.Float32bits(v))
}

func (o *Out) F64(v float64) {
	o.buf = binary.LittleEndian.AppendUint64(o.buf, math.Float64bits(v))
}

func (o *Out) V64(v uint64) {
	o.buf = AppendV64(o.buf, v)
}

func (o *Out) TypeID(id TypeID) {
	o.buf = AppendV64(o.buf, uint64(id))
}

func (o *Out) Raw(v []byte) {
	o.buf = append(o.buf, v...)
}

// In is a bounds-checked decode buffer over a byte slice of input.
type In struct {
	buf []byte
	off int
}

func NewIn(buf []byte) *In {
	return &In{buf: buf}
}

func (in *In) Offset() int {
	return in.off
}

func (in *In) Remaining() int {
	return len(in.buf) - in.off
}

func (in *In) take(n int, what string) ([]byte, error) {
	if in.Remaining() < n {
		return nil, errTruncated(what, in.off)
	}
	chunk := in.buf[in.off : in.off+n]
	in.off += n
	return chunk, nil
}

func (in *In) Bool() (bool, error) {
	chunk, err := in.take(1, "bool")
	if err != nil {
		return false, err
	}
	return chunk[0] != 0x00, nil
}

func (in *In) I8() (int8, error) {
	chunk, err := in.take(1, "i8")
	if err != nil {
		return 0, err
	}
	return int8(chunk[0]), nil
}

func (in *In) I16() (int16, error) {
	chunk, err := in.take(2, "i16")
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(chunk)), nil
}

func (in *In) I32() (int32, error) {
	chunk, err := in.take(4, "i32")
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(chunk)), nil
}

func (in *In) I64() (int64, error) {
	chunk, err := in.take(8, "i64")
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(chunk)), nil
}

func (in *In) F32() (float32, error) {
	chunk, err := in.take(4, "f32")
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(chunk)), nil
}

func (in *In) F64() (float64, error) {
	chunk, err := in.take(8, "f64")
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(chunk)), nil
}

func (in *In) V64() (uint64, error) {
	v, size := DecodeV64(in.buf[in.off:])
	if size == 0 {
		return 0, errTruncated("v64", in.off)
	}
	in.off += size
	return v, nil
}

func (in *In) TypeID() (TypeID, error) {
	v, err := in.V64()
	return TypeID(v), err
}

func (in *In) Take(n int, what string) ([]byte, error) {
	return in.take(n, what)
}
