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

package ir

import (
	"fmt"
	"strings"
)

type TypeKind uint8

const (
	K_GROUND TypeKind = iota
	K_USER
	K_FIXED_ARRAY
	K_VAR_ARRAY
	K_LIST
	K_SET
	K_MAP
)

type Ground uint8

const (
	G_BOOL Ground = iota
	G_I8
	G_I16
	G_I32
	G_I64
	G_V64
	G_F32
	G_F64
	G_STRING
	G_ANNOTATION
)

func (g Ground) String() string {
	switch g {
	case G_BOOL:
		return "bool"
	case G_I8:
		return "i8"
	case G_I16:
		return "i16"
	case G_I32:
		return "i32"
	case G_I64:
		return "i64"
	case G_V64:
		return "v64"
	case G_F32:
		return "f32"
	case G_F64:
		return "f64"
	case G_STRING:
		return "string"
	case G_ANNOTATION:
		return "annotation"
	default:
		return fmt.Sprintf("Ground(%d)", uint8(g))
	}
}

func (g Ground) IsInteger() bool {
	switch g {
	case G_I8, G_I16, G_I32, G_I64, G_V64:
		return true
	}
	return false
}

func (g Ground) IsFloat() bool {
	return g == G_F32 || g == G_F64
}

// Type is the tagged variant describing a field's value type. Which of the
// payload fields are meaningful depends on Kind:
//
//	K_GROUND       Ground
//	K_USER         User (arena index of the referenced declaration)
//	K_FIXED_ARRAY  Elem, Length
//	K_VAR_ARRAY    Elem
//	K_LIST         Elem
//	K_SET          Elem
//	K_MAP          Bases (at least two)
type Type struct {
	Kind   TypeKind
	Ground Ground
	User   int
	Elem   *Type
	Length int64
	Bases  []*Type
}

func GroundType(g Ground) *Type {
	return &Type{Kind: K_GROUND, Ground: g}
}

func UserType(index int) *Type {
	return &Type{Kind: K_USER, User: index}
}

// Name renders the type the way it is written in a schema, resolving user
// references through the given context.
func (t *Type) Name(ctx *TypeContext) string {
	switch t.Kind {
	case K_GROUND:
		return t.Ground.String()
	case K_USER:
		return ctx.Decl(t.User).SkillName
	case K_FIXED_ARRAY:
		return fmt.Sprintf("%s[%d]", t.Elem.Name(ctx), t.Length)
	case K_VAR_ARRAY:
		return t.Elem.Name(ctx) + "[]"
	case K_LIST:
		return fmt.Sprintf("list<%s>", t.Elem.Name(ctx))
	case K_SET:
		return fmt.Sprintf("set<%s>", t.Elem.Name(ctx))
	case K_MAP:
		names := make([]string, len(t.Bases))
		for ii, base := range t.Bases {
			names[ii] = base.Name(ctx)
		}
		return fmt.Sprintf("map<%s>", strings.Join(names, ", "))
	default:
		panic("unreachable")
	}
}
