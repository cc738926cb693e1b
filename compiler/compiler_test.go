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

package compiler_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.skill-lang.org/skill/compiler"
	"go.skill-lang.org/skill/encoding/skilltext"
	"go.skill-lang.org/skill/internal/testutil"
	"go.skill-lang.org/skill/syntax"
)

func loadTestdata(t *testing.T, name string) (*compiler.Input, error) {
	t.Helper()
	path, err := testutil.TestdataPath(name)
	testutil.AssertNoError(t, err)
	return compiler.Load(path)
}

func compileTestdata(
	t *testing.T,
	name string,
	opts ...compiler.CompileOption,
) compiler.CompileResult {
	t.Helper()
	input, err := loadTestdata(t, name)
	testutil.AssertNoError(t, err)
	return compiler.Compile(input, opts...)
}

func compileSource(
	t *testing.T,
	src string,
	opts ...compiler.CompileOption,
) compiler.CompileResult {
	t.Helper()
	file, err := syntax.Parse([]byte(src))
	testutil.AssertNoError(t, err)
	return compiler.Compile(compiler.NewInput(file), opts...)
}

func irNames(result compiler.CompileResult) []string {
	var names []string
	for _, decl := range result.TypeContext.Declarations() {
		names = append(names, decl.SkillName)
	}
	return names
}

func TestHints(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "hints.skill")
	testutil.ExpectEq(t, 0, len(result.Errors))
	testutil.ExpectTrue(t, result.TypeContext.Len() > 0)
}

func TestBadHintsLenient(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "badHints.skill")
	testutil.ExpectEq(t, 0, len(result.Errors))
	testutil.ExpectEq(t, 1, len(result.Warnings))
	testutil.ExpectMatch(t, "Unknown hint", result.Warnings[0].Message())
}

func TestBadHintsStrict(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "badHints.skill", compiler.WithStrictHints())
	if len(result.Errors) == 0 {
		t.Fatal("expected a schema error for an unknown hint in strict mode")
	}
}

func TestRestrictions(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "restrictions.skill")
	if len(result.Errors) == 0 {
		t.Fatal("expected a schema error")
	}
	testutil.ExpectEq(
		t,
		"notahint() is either not supported or an invalid restriction name",
		result.Errors[0].Message(),
	)
}

func TestEmptySchema(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "empty.skill")
	testutil.ExpectEq(t, 0, len(result.Errors))
	testutil.ExpectEq(t, 0, result.TypeContext.Len())
}

func TestTypeOrder(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "typeOrderIR.skill")
	testutil.ExpectEq(t, 0, len(result.Errors))

	concat := strings.Join(irNames(result), "")
	if concat != "abdc" && concat != "acbd" {
		t.Errorf("expected type order \"abdc\" or \"acbd\", got %q", concat)
	}

	for _, decl := range result.TypeContext.Declarations() {
		if super := decl.SuperType(); super != nil {
			testutil.ExpectTrue(t, super.Index < decl.Index)
		}
	}
}

func TestRegressionCasing(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "regressionCasing.skill")
	testutil.ExpectEq(t, 0, len(result.Errors))
	testutil.ExpectEq(t, 2, result.TypeContext.Len())

	decls := result.TypeContext.Declarations()
	testutil.ExpectEq(t, "message", decls[0].SkillName)
	testutil.ExpectEq(t, "datedmessage", decls[1].SkillName)
	testutil.ExpectEq(t, "Message", decls[0].CapitalName)
	testutil.ExpectEq(t, "DatedMessage", decls[1].CapitalName)
}

func TestMissingTypeCausedBySpelling(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "failures/missingTypeCausedBySpelling.skill")
	if len(result.Errors) == 0 {
		t.Fatal("expected a schema error")
	}
	testutil.ExpectEq(
		t,
		"The type \"MessSage\" is unknown!\nKnown types are: message, datedmessage",
		result.Errors[0].Message(),
	)
}

func TestFailures(t *testing.T) {
	t.Parallel()

	failures := []string{
		"failures/anyType.skill",
		"failures/duplicateDefinition.skill",
		"failures/duplicateField.skill",
		"failures/empty.skill",
		"failures/floatConstant.skill",
		"failures/halfFloat.skill",
		"failures/selfConst.skill",
		"failures/unknownFile.skill",
		"failures/unknownType.skill",
	}
	for _, name := range failures {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			input, err := loadTestdata(t, name)
			if err != nil {
				return
			}
			result := compiler.Compile(input)
			if len(result.Errors) == 0 {
				t.Errorf("expected a schema error for %s", name)
			}
		})
	}
}

func TestIncludes(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "includeRoot.skill")
	testutil.ExpectEq(t, 0, len(result.Errors))
	if diff := cmp.Diff([]string{"message", "datedmessage"}, irNames(result)); diff != "" {
		t.Error(diff)
	}
}

func TestIncludeCycle(t *testing.T) {
	t.Parallel()

	result := compileTestdata(t, "includeCycleA.skill")
	testutil.ExpectEq(t, 0, len(result.Errors))
	if diff := cmp.Diff([]string{"a", "b"}, irNames(result)); diff != "" {
		t.Error(diff)
	}
}

func TestUnknownFileNamesOffender(t *testing.T) {
	t.Parallel()

	_, err := loadTestdata(t, "failures/unknownFile.skill")
	testutil.AssertError(t, err)
	testutil.ExpectMatch(t, `missing include file "doesNotExist.skill"`, err.Error())
}

func TestDeterministicCompile(t *testing.T) {
	t.Parallel()

	first := compileTestdata(t, "hints.skill")
	second := compileTestdata(t, "hints.skill")
	testutil.ExpectEq(t, 0, len(first.Errors))
	testutil.ExpectEq(t, 0, len(second.Errors))
	testutil.ExpectNoDiff(
		t,
		skilltext.Encode(first.TypeContext),
		skilltext.Encode(second.TypeContext),
	)
}

func TestEmptyIntRange(t *testing.T) {
	t.Parallel()

	result := compileSource(t, "T {\n\t@range(5, 5)\n\ti32 x;\n}\n")
	if len(result.Errors) == 0 {
		t.Fatal("expected a schema error")
	}
	testutil.ExpectEq(
		t,
		"Integer range restriction has no legal values: 5 -> 5",
		result.Errors[0].Message(),
	)
}

func TestEmptyFloatRange(t *testing.T) {
	t.Parallel()

	result := compileSource(t, "T {\n\t@range(3, 1)\n\tf64 x;\n}\n")
	if len(result.Errors) == 0 {
		t.Fatal("expected a schema error")
	}
	testutil.ExpectEq(
		t,
		"Integer range restriction has no legal values: 3 -> 1",
		result.Errors[0].Message(),
	)
}

func TestFloatRangeArgs(t *testing.T) {
	t.Parallel()

	result := compileSource(
		t,
		"T {\n\t@range(0, 1, \"inclusive\", \"exclusive\")\n\tf32 x;\n}\n",
	)
	testutil.ExpectEq(t, 0, len(result.Errors))

	field := result.TypeContext.Lookup("t").Fields[0]
	testutil.ExpectEq(t, 1, len(field.Restrictions))
	r := field.Restrictions[0]
	testutil.ExpectTrue(t, r.InclusiveLow)
	testutil.ExpectFalse(t, r.InclusiveHigh)
}

func TestRangeOnStringRejected(t *testing.T) {
	t.Parallel()

	result := compileSource(t, "T {\n\t@range(0, 1)\n\tstring x;\n}\n")
	if len(result.Errors) == 0 {
		t.Fatal("expected a schema error")
	}
}

func TestConstantValueRange(t *testing.T) {
	t.Parallel()

	result := compileSource(t, "T {\n\tconst i8 x = 300;\n}\n")
	if len(result.Errors) == 0 {
		t.Fatal("expected a schema error")
	}
}

func TestCyclicInheritance(t *testing.T) {
	t.Parallel()

	result := compileSource(t, "A : B {}\nB : A {}\n")
	if len(result.Errors) == 0 {
		t.Fatal("expected a schema error")
	}
}

func TestIgnoreHintMarksField(t *testing.T) {
	t.Parallel()

	result := compileSource(t, "T {\n\t!ignore\n\ti32 x;\n}\n")
	testutil.ExpectEq(t, 0, len(result.Errors))
	testutil.ExpectTrue(t, result.TypeContext.Lookup("T").Fields[0].IsIgnored)
}
