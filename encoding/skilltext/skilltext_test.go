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

package skilltext_test

import (
	"testing"

	"go.skill-lang.org/skill/compiler"
	"go.skill-lang.org/skill/encoding/skilltext"
	"go.skill-lang.org/skill/internal/testutil"
	"go.skill-lang.org/skill/syntax"
)

const sampleSchema = `
@singleton
!pure
Registry {
	@nonnull
	string name;
	const v64 version = 3;
	auto i32 scratch;
	map<string, i64> counts;
}

Extended : Registry {
	i64[] values;
}

Empty {}
`

const sampleDump = `@singleton
!pure
registry {
	@nonnull
	string name;
	const v64 version = 3;
	auto i32 scratch;
	map<string, i64> counts;
}

extended : registry {
	i64[] values;
}

empty {}
`

func TestEncode(t *testing.T) {
	t.Parallel()

	file, err := syntax.Parse([]byte(sampleSchema))
	testutil.AssertNoError(t, err)
	result := compiler.Compile(compiler.NewInput(file))
	if len(result.Errors) > 0 {
		for _, err := range result.Errors {
			testutil.ExpectNoError(t, err)
		}
		t.FailNow()
	}

	testutil.ExpectNoDiff(t, sampleDump, skilltext.Encode(result.TypeContext))
}
