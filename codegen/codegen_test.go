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

package codegen_test

import (
	"testing"

	json "github.com/goccy/go-json"

	"go.skill-lang.org/skill/codegen"
	"go.skill-lang.org/skill/compiler"
	"go.skill-lang.org/skill/encoding/skilltext"
	"go.skill-lang.org/skill/internal/testutil"
	"go.skill-lang.org/skill/ir"
	"go.skill-lang.org/skill/syntax"
)

const sampleSchema = `
/* A tree node. */
Node {
	string label;
	Node parent;
	const v64 kind = 2;
	auto i32 scratch;
}

Leaf : Node {
	i64 weight;
}
`

func compileSample(t *testing.T) *ir.TypeContext {
	t.Helper()
	file, err := syntax.Parse([]byte(sampleSchema))
	testutil.AssertNoError(t, err)
	result := compiler.Compile(compiler.NewInput(file))
	if len(result.Errors) > 0 {
		for _, err := range result.Errors {
			testutil.ExpectNoError(t, err)
		}
		t.FailNow()
	}
	return result.TypeContext
}

func TestEncodeRequest(t *testing.T) {
	t.Parallel()

	ctx := compileSample(t)
	genCtx := &codegen.Context{
		OutDir:   "/tmp/out",
		Package:  "tree",
		Language: "go",
	}
	buf, err := codegen.EncodeRequest(ctx, genCtx)
	testutil.AssertNoError(t, err)

	var request codegen.Request
	testutil.AssertNoError(t, json.Unmarshal(buf, &request))
	testutil.ExpectEq(t, "tree", request.Package)
	testutil.ExpectEq(t, "go", request.Language)
	testutil.ExpectEq(t, 2, len(request.Types))

	node := request.Types[0]
	testutil.ExpectEq(t, "node", node.Name)
	testutil.ExpectEq(t, "", node.Super)
	testutil.ExpectEq(t, "A tree node.", node.Comment)
	testutil.ExpectEq(t, 4, len(node.Fields))
	testutil.ExpectEq(t, "label", node.Fields[0].Name)
	testutil.ExpectEq(t, "string", node.Fields[0].Type)
	testutil.ExpectEq(t, "node", node.Fields[1].Type)
	testutil.ExpectTrue(t, node.Fields[2].Constant)
	testutil.ExpectEq(t, int64(2), node.Fields[2].ConstantValue)
	testutil.ExpectTrue(t, node.Fields[3].Auto)

	leaf := request.Types[1]
	testutil.ExpectEq(t, "leaf", leaf.Name)
	testutil.ExpectEq(t, "node", leaf.Super)
}

func TestDecodeResponse(t *testing.T) {
	t.Parallel()

	buf := []byte(`{"files": [{"path": ["tree", "node.go"], "content": "cGtn"}]}`)
	response, err := codegen.DecodeResponse(buf)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "", response.Error)
	testutil.ExpectEq(t, 1, len(response.Files))
	testutil.ExpectSliceEq(t, []string{"tree", "node.go"}, response.Files[0].Path)
	testutil.ExpectBytesEq(t, []byte("pkg"), response.Files[0].Content)

	_, err = codegen.DecodeResponse([]byte("{"))
	testutil.AssertError(t, err)
}

func TestTextBackend(t *testing.T) {
	t.Parallel()

	ctx := compileSample(t)
	backend := codegen.TextBackend()
	testutil.ExpectEq(t, "text", backend.Name())

	files, err := backend.Generate(ctx, &codegen.Context{Package: "tree"})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, len(files))
	testutil.ExpectSliceEq(t, []string{"tree.skill.txt"}, files[0].Path)
	testutil.ExpectEq(t, skilltext.Encode(ctx), string(files[0].Content))

	files, err = backend.Generate(ctx, &codegen.Context{})
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"schema.skill.txt"}, files[0].Path)
}
