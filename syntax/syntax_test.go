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

package syntax_test

import (
	"testing"

	"go.skill-lang.org/skill/internal/testutil"
	"go.skill-lang.org/skill/syntax"
)

const sampleSchema = `
include "base.skill" "common.skill"
with "extra.skill"

/* A chat message. */
@singleton
!unique
Message : Base {
	/* The payload. */
	@nonnull
	string text;

	const v64 version = 0x2A;
	auto i32 cachedHash;

	i64[3] triple;
	f64[] samples;
	list<string> tags;
	set<i64> ids;
	map<string, string, i64> scores;
}
`

func TestParseSchema(t *testing.T) {
	t.Parallel()

	file, err := syntax.Parse([]byte(sampleSchema))
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, file.HasContent())

	includes := file.Includes()
	testutil.ExpectEq(t, 2, len(includes))
	testutil.ExpectEq(t, 2, len(includes[0].Paths()))
	testutil.ExpectEq(t, "base.skill", includes[0].Paths()[0].Get())
	testutil.ExpectEq(t, "common.skill", includes[0].Paths()[1].Get())
	testutil.ExpectEq(t, "extra.skill", includes[1].Paths()[0].Get())

	defs := file.Definitions()
	testutil.ExpectEq(t, 1, len(defs))
	def := defs[0]
	testutil.ExpectEq(t, "Message", def.Name().Get())
	testutil.ExpectEq(t, "Base", def.Super().Get())

	desc := def.Description()
	testutil.ExpectEq(t, "A chat message.", desc.Doc())
	testutil.ExpectEq(t, 1, len(desc.Restrictions()))
	testutil.ExpectEq(t, "singleton", desc.Restrictions()[0].Name().Get())
	testutil.ExpectEq(t, 1, len(desc.Hints()))
	testutil.ExpectEq(t, "unique", desc.Hints()[0].Name().Get())

	fields := def.Fields()
	testutil.ExpectEq(t, 8, len(fields))

	text := fields[0]
	testutil.ExpectEq(t, "text", text.Name().Get())
	testutil.ExpectEq(t, "The payload.", text.Description().Doc())
	testutil.ExpectEq(t, 1, len(text.Description().Restrictions()))
	testutil.ExpectEq(t, "nonnull", text.Description().Restrictions()[0].Name().Get())
	if _, ok := text.Type().(*syntax.BaseType); !ok {
		t.Errorf("expected *BaseType, got %T", text.Type())
	}

	version := fields[1]
	testutil.ExpectTrue(t, version.IsConstant())
	testutil.ExpectEq(t, int64(42), version.Value().Get())

	cached := fields[2]
	testutil.ExpectTrue(t, cached.IsAuto())

	if fixed, ok := fields[3].Type().(*syntax.FixedArrayType); !ok {
		t.Errorf("expected *FixedArrayType, got %T", fields[3].Type())
	} else {
		testutil.ExpectEq(t, int64(3), fixed.Length().Get())
		testutil.ExpectEq(t, "i64", fixed.Base().Name().Get())
	}
	if _, ok := fields[4].Type().(*syntax.VarArrayType); !ok {
		t.Errorf("expected *VarArrayType, got %T", fields[4].Type())
	}
	if list, ok := fields[5].Type().(*syntax.ListType); !ok {
		t.Errorf("expected *ListType, got %T", fields[5].Type())
	} else {
		testutil.ExpectEq(t, "string", list.Base().Name().Get())
	}
	if _, ok := fields[6].Type().(*syntax.SetType); !ok {
		t.Errorf("expected *SetType, got %T", fields[6].Type())
	}
	if m, ok := fields[7].Type().(*syntax.MapType); !ok {
		t.Errorf("expected *MapType, got %T", fields[7].Type())
	} else {
		testutil.ExpectEq(t, 3, len(m.Bases()))
	}
}

func TestParseSuperKeywords(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"B : A {}",
		"B with A {}",
		"B extends A {}",
	} {
		file, err := syntax.Parse([]byte(src))
		testutil.AssertNoError(t, err)
		testutil.ExpectEq(t, "A", file.Definitions()[0].Super().Get())
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	file, err := syntax.Parse(nil)
	testutil.AssertNoError(t, err)
	testutil.ExpectFalse(t, file.HasContent())
	testutil.ExpectEq(t, 0, len(file.Definitions()))
}

func TestParseCommentOnly(t *testing.T) {
	t.Parallel()

	file, err := syntax.Parse([]byte("/* nothing here */\n"))
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, file.HasContent())
	testutil.ExpectEq(t, 0, len(file.Definitions()))
}

func expectParseError(t *testing.T, src string) *syntax.Error {
	t.Helper()
	_, err := syntax.Parse([]byte(src))
	testutil.AssertError(t, err)
	return err.(*syntax.Error)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	// Missing semicolon.
	expectParseError(t, "T { i32 x }")
	// set and list take exactly one base type.
	testutil.ExpectEq(t, 2021, expectParseError(t, "T { set<i32, i64> x; }").Code())
	testutil.ExpectEq(t, 2021, expectParseError(t, "T { list<i32, i64> x; }").Code())
	// map takes at least two base types.
	testutil.ExpectEq(t, 2022, expectParseError(t, "T { map<i32> x; }").Code())
	// Reserved words may not name declarations or fields.
	testutil.ExpectEq(t, 2023, expectParseError(t, "set { i32 x; }").Code())
	testutil.ExpectEq(t, 2023, expectParseError(t, "T { i32 const; }").Code())
	// auto const is contradictory.
	testutil.ExpectEq(t, 2024, expectParseError(t, "T { auto const i32 x = 1; }").Code())
	testutil.ExpectEq(t, 2024, expectParseError(t, "T { const auto i32 x = 1; }").Code())
	// Missing include path.
	testutil.ExpectEq(t, 2017, expectParseError(t, "include ;").Code())
	// Constant fields need a value.
	expectParseError(t, "T { const i32 x; }")
}
