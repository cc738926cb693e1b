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
	"strconv"
)

type RestrictionKind uint8

const (
	R_INT_RANGE RestrictionKind = iota
	R_FLOAT_RANGE
	R_NONNULL
	R_UNIQUE
	R_SINGLETON
	R_MONOTONE
	R_DEFAULT
	R_CODING
	R_CONSTANT_LENGTH_POINTER
)

// Restriction is the tagged variant for checked restrictions. Payload fields
// by Kind:
//
//	R_INT_RANGE    IntLow, IntHigh (both inclusive)
//	R_FLOAT_RANGE  FloatLow, FloatHigh, InclusiveLow, InclusiveHigh
//	R_DEFAULT      Default (int64 or string)
//	R_CODING       Coding
type Restriction struct {
	Kind RestrictionKind

	IntLow  int64
	IntHigh int64

	FloatLow      float64
	FloatHigh     float64
	InclusiveLow  bool
	InclusiveHigh bool

	Default any
	Coding  string
}

func (r Restriction) String() string {
	switch r.Kind {
	case R_INT_RANGE:
		return fmt.Sprintf("range(%d, %d)", r.IntLow, r.IntHigh)
	case R_FLOAT_RANGE:
		low := "exclusive"
		if r.InclusiveLow {
			low = "inclusive"
		}
		high := "exclusive"
		if r.InclusiveHigh {
			high = "inclusive"
		}
		return fmt.Sprintf(
			"range(%s, %s, %q, %q)",
			strconv.FormatFloat(r.FloatLow, 'g', -1, 64),
			strconv.FormatFloat(r.FloatHigh, 'g', -1, 64),
			low, high,
		)
	case R_NONNULL:
		return "nonnull"
	case R_UNIQUE:
		return "unique"
	case R_SINGLETON:
		return "singleton"
	case R_MONOTONE:
		return "monotone"
	case R_DEFAULT:
		if s, ok := r.Default.(string); ok {
			return fmt.Sprintf("default(%q)", s)
		}
		return fmt.Sprintf("default(%v)", r.Default)
	case R_CODING:
		return fmt.Sprintf("coding(%q)", r.Coding)
	case R_CONSTANT_LENGTH_POINTER:
		return "constantlengthpointer"
	default:
		panic("unreachable")
	}
}

type Hint uint8

const (
	H_ACCESS Hint = iota
	H_DELETE
	H_DISTRIBUTED
	H_HIDE
	H_IGNORE
	H_MONOTONE
	H_ONDEMAND
	H_PURE
	H_READONLY
	H_UNIQUE
)

func (h Hint) String() string {
	switch h {
	case H_ACCESS:
		return "access"
	case H_DELETE:
		return "delete"
	case H_DISTRIBUTED:
		return "distributed"
	case H_HIDE:
		return "hide"
	case H_IGNORE:
		return "ignore"
	case H_MONOTONE:
		return "monotone"
	case H_ONDEMAND:
		return "ondemand"
	case H_PURE:
		return "pure"
	case H_READONLY:
		return "readonly"
	case H_UNIQUE:
		return "unique"
	default:
		panic("unreachable")
	}
}

// HintByName maps a lower-cased hint name to its value.
func HintByName(name string) (Hint, bool) {
	switch name {
	case "access":
		return H_ACCESS, true
	case "delete":
		return H_DELETE, true
	case "distributed":
		return H_DISTRIBUTED, true
	case "hide":
		return H_HIDE, true
	case "ignore":
		return H_IGNORE, true
	case "monotone":
		return H_MONOTONE, true
	case "ondemand":
		return H_ONDEMAND, true
	case "pure":
		return H_PURE, true
	case "readonly":
		return H_READONLY, true
	case "unique":
		return H_UNIQUE, true
	}
	return 0, false
}
