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

// Package codegen defines the protocol between the compiler core and
// language backends. A backend receives the checked type graph and a
// generator context and returns the files to write; out-of-process
// backends speak the same shapes as JSON.
package codegen

import (
	"fmt"

	json "github.com/goccy/go-json"

	"go.skill-lang.org/skill/encoding/skilltext"
	"go.skill-lang.org/skill/ir"
)

// Context carries the CLI's generator settings into a backend. There is no
// process-wide configuration.
type Context struct {
	OutDir   string
	Package  string
	Language string
}

type OutputFile struct {
	// Path components below the output directory. Components may not be
	// empty, absolute, or contain separators.
	Path []string `json:"path"`

	Content []byte `json:"content"`
}

type Backend interface {
	Name() string
	Generate(ctx *ir.TypeContext, genCtx *Context) ([]OutputFile, error)
}

// Request is the JSON message handed to an out-of-process backend.
type Request struct {
	Package  string      `json:"package,omitempty"`
	Language string      `json:"language"`
	Types    []*TypeDecl `json:"types"`
}

type TypeDecl struct {
	Name         string       `json:"name"`
	Super        string       `json:"super,omitempty"`
	Comment      string       `json:"comment,omitempty"`
	Restrictions []string     `json:"restrictions,omitempty"`
	Hints        []string     `json:"hints,omitempty"`
	Fields       []*FieldDecl `json:"fields,omitempty"`
}

type FieldDecl struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Comment       string   `json:"comment,omitempty"`
	Constant      bool     `json:"constant,omitempty"`
	ConstantValue int64    `json:"constant_value,omitempty"`
	Auto          bool     `json:"auto,omitempty"`
	Ignored       bool     `json:"ignored,omitempty"`
	Restrictions  []string `json:"restrictions,omitempty"`
	Hints         []string `json:"hints,omitempty"`
}

// Response is the JSON message an out-of-process backend returns.
type Response struct {
	Error string       `json:"error,omitempty"`
	Files []OutputFile `json:"files"`
}

// EncodeRequest flattens the type graph into the plugin request message.
func EncodeRequest(ctx *ir.TypeContext, genCtx *Context) ([]byte, error) {
	request := &Request{
		Package:  genCtx.Package,
		Language: genCtx.Language,
	}
	for _, decl := range ctx.Declarations() {
		typeDecl := &TypeDecl{
			Name:    decl.SkillName,
			Comment: decl.Doc,
		}
		if super := decl.SuperType(); super != nil {
			typeDecl.Super = super.SkillName
		}
		for _, r := range decl.Restrictions {
			typeDecl.Restrictions = append(typeDecl.Restrictions, r.String())
		}
		for _, h := range decl.Hints {
			typeDecl.Hints = append(typeDecl.Hints, h.String())
		}
		for _, field := range decl.Fields {
			fieldDecl := &FieldDecl{
				Name:          field.SkillName,
				Type:          field.Type.Name(ctx),
				Comment:       field.Doc,
				Constant:      field.IsConstant,
				ConstantValue: field.ConstantValue,
				Auto:          field.IsAuto,
				Ignored:       field.IsIgnored,
			}
			for _, r := range field.Restrictions {
				fieldDecl.Restrictions = append(fieldDecl.Restrictions, r.String())
			}
			for _, h := range field.Hints {
				fieldDecl.Hints = append(fieldDecl.Hints, h.String())
			}
			typeDecl.Fields = append(typeDecl.Fields, fieldDecl)
		}
		request.Types = append(request.Types, typeDecl)
	}
	return json.Marshal(request)
}

func DecodeResponse(buf []byte) (*Response, error) {
	response := &Response{}
	if err := json.Unmarshal(buf, response); err != nil {
		return nil, fmt.Errorf("codegen: invalid backend response: %w", err)
	}
	return response, nil
}

// TextBackend returns the built-in backend emitting the type graph's text
// rendering. Host-language backends ship separately as plugins.
func TextBackend() Backend {
	return textBackend{}
}

type textBackend struct{}

func (textBackend) Name() string {
	return "text"
}

func (textBackend) Generate(
	ctx *ir.TypeContext,
	genCtx *Context,
) ([]OutputFile, error) {
	name := genCtx.Package
	if name == "" {
		name = "schema"
	}
	return []OutputFile{{
		Path:    []string{name + ".skill.txt"},
		Content: []byte(skilltext.Encode(ctx)),
	}}, nil
}
