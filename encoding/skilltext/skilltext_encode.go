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

// Package skilltext renders a compiled type graph as deterministic text.
// The output lists declarations in type order with their restrictions,
// hints and fields; it is meant for golden tests and human inspection, not
// for round-tripping schema source.
package skilltext

import (
	"fmt"
	"io"
	"strings"

	"go.skill-lang.org/skill/ir"
)

func Encode(ctx *ir.TypeContext) string {
	var buf strings.Builder
	EncodeTo(ctx, &buf)
	return buf.String()
}

func EncodeTo(ctx *ir.TypeContext, w io.Writer) error {
	e := encoder{ctx: ctx, w: w}
	for ii, decl := range ctx.Declarations() {
		if ii != 0 {
			e.line("")
		}
		e.visitDeclaration(decl)
	}
	return e.err
}

type encoder struct {
	ctx    *ir.TypeContext
	w      io.Writer
	indent int
	err    error
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if indent := strings.Repeat("\t", e.indent); indent != "" && s != "" {
		if _, err := io.WriteString(e.w, indent); err != nil {
			e.err = err
			return
		}
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
		return
	}
	if _, err := io.WriteString(e.w, "\n"); err != nil {
		e.err = err
		return
	}
}

func (e *encoder) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

func (e *encoder) visitDeclaration(decl *ir.Declaration) {
	for _, r := range decl.Restrictions {
		e.linef("@%s", r)
	}
	for _, h := range decl.Hints {
		e.linef("!%s", h)
	}
	head := decl.SkillName
	if super := decl.SuperType(); super != nil {
		head += " : " + super.SkillName
	}
	if len(decl.Fields) == 0 {
		e.line(head + " {}")
		return
	}
	e.line(head + " {")
	e.indent += 1
	for _, field := range decl.Fields {
		e.visitField(field)
	}
	e.indent -= 1
	e.line("}")
}

func (e *encoder) visitField(field *ir.Field) {
	for _, r := range field.Restrictions {
		e.linef("@%s", r)
	}
	for _, h := range field.Hints {
		e.linef("!%s", h)
	}
	if field.IsConstant {
		e.linef(
			"const %s %s = %d;",
			field.Type.Name(e.ctx),
			field.SkillName,
			field.ConstantValue,
		)
		return
	}
	if field.IsAuto {
		e.linef("auto %s %s;", field.Type.Name(e.ctx), field.SkillName)
		return
	}
	e.linef("%s %s;", field.Type.Name(e.ctx), field.SkillName)
}
