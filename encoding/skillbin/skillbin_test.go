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

package skillbin_test

import (
	"math"
	"testing"

	"go.skill-lang.org/skill/encoding/skillbin"
	"go.skill-lang.org/skill/internal/testutil"
)

func TestV64EncodedLengths(t *testing.T) {
	t.Parallel()

	lengths := []struct {
		value uint64
		size  int
	}{
		{0, 1},
		{1, 1},
		{0x7F, 1},
		{0x80, 2},
		{0x3FFF, 2},
		{0x4000, 3},
		{0x1F_FFFF, 3},
		{0x20_0000, 4},
		{0xFFF_FFFF, 4},
		{0x1000_0000, 5},
		{1 << 56, 9},
		{math.MaxUint64, 9},
	}
	for _, tc := range lengths {
		encoded := skillbin.AppendV64(nil, tc.value)
		testutil.ExpectEq(t, tc.size, len(encoded))
		testutil.ExpectEq(t, tc.size, skillbin.V64Len(tc.value))
	}
}

func TestV64RoundTrip(t *testing.T) {
	t.Parallel()

	values := []uint64{
		0, 1, 2, 0x7F, 0x80, 0xFF, 300, 0x3FFF, 0x4000,
		1<<21 - 1, 1 << 21, 1<<28 - 1, 1 << 28, 1<<35 + 17,
		1<<42 + 5, 1<<49 + 3, 1<<56 - 1, 1 << 56, 1<<63 + 9,
		math.MaxUint64, math.MaxInt64,
	}
	for _, value := range values {
		encoded := skillbin.AppendV64(nil, value)
		decoded, size := skillbin.DecodeV64(encoded)
		testutil.ExpectEq(t, value, decoded)
		testutil.ExpectEq(t, len(encoded), size)
	}
}

func TestV64Truncated(t *testing.T) {
	t.Parallel()

	encoded := skillbin.AppendV64(nil, math.MaxUint64)
	for ii := 0; ii < len(encoded); ii++ {
		_, size := skillbin.DecodeV64(encoded[:ii])
		testutil.ExpectEq(t, 0, size)
	}
}

func TestOutIn(t *testing.T) {
	t.Parallel()

	o := &skillbin.Out{}
	o.Bool(true)
	o.I8(-5)
	o.I16(-300)
	o.I32(1 << 20)
	o.I64(-1 << 40)
	o.F32(1.5)
	o.F64(-2.25)
	o.V64(300)

	in := skillbin.NewIn(o.Bytes())

	b, err := in.Bool()
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, b)
	i8, err := in.I8()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, int8(-5), i8)
	i16, err := in.I16()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, int16(-300), i16)
	i32, err := in.I32()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, int32(1<<20), i32)
	i64, err := in.I64()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, int64(-1<<40), i64)
	f32, err := in.F32()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, float32(1.5), f32)
	f64, err := in.F64()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, -2.25, f64)
	v64, err := in.V64()
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint64(300), v64)

	testutil.ExpectEq(t, 0, in.Remaining())
	_, err = in.I8()
	testutil.AssertError(t, err)
}

func TestLittleEndian(t *testing.T) {
	t.Parallel()

	o := &skillbin.Out{}
	o.I32(0x0A0B0C0D)
	testutil.ExpectBytesEq(t, []byte{0x0D, 0x0C, 0x0B, 0x0A}, o.Bytes())
}

func TestStringBlockRoundTrip(t *testing.T) {
	t.Parallel()

	for _, strs := range [][]string{
		nil,
		{"message"},
		{"message", "text", "grüße", "日本語"},
	} {
		o := &skillbin.Out{}
		skillbin.WriteStringBlock(o, strs)
		in := skillbin.NewIn(o.Bytes())
		decoded, err := skillbin.ReadStringBlock(in)
		testutil.AssertNoError(t, err)
		testutil.ExpectSliceEq(t, strs, decoded)
		testutil.ExpectEq(t, 0, in.Remaining())
	}
}

func TestStringBlockTruncated(t *testing.T) {
	t.Parallel()

	o := &skillbin.Out{}
	skillbin.WriteStringBlock(o, []string{"message", "text"})
	full := o.Bytes()
	for _, cut := range []int{1, 5, len(full) - 1} {
		_, err := skillbin.ReadStringBlock(skillbin.NewIn(full[:cut]))
		testutil.AssertError(t, err)
	}
}
