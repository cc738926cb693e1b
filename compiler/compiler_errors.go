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

package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"go.skill-lang.org/skill/syntax"
)

type Error struct {
	code    uint32
	message string
	span    syntax.Span
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() syntax.Span {
	return err.span
}

func errDuplicateDefinition(name string, span syntax.Span) error {
	return &Error{
		code:    3000,
		message: fmt.Sprintf("Duplicate definition of type %q", name),
		span:    span,
	}
}

// The message format of errTypeUnknown is part of the tool's interface.
func errTypeUnknown(name string, known []string, span syntax.Span) error {
	return &Error{
		code: 3001,
		message: fmt.Sprintf(
			"The type %q is unknown!\nKnown types are: %s",
			name, strings.Join(known, ", "),
		),
		span: span,
	}
}

func errDuplicateField(typeName, fieldName string, span syntax.Span) error {
	return &Error{
		code: 3002,
		message: fmt.Sprintf(
			"Duplicate field %q in type %q",
			fieldName, typeName,
		),
		span: span,
	}
}

func errConstantType(fieldName, typeName string, span syntax.Span) error {
	return &Error{
		code: 3003,
		message: fmt.Sprintf(
			"Constant field %q requires an integer type (i8, i16, i32, i64"+
				" or v64), got %s",
			fieldName, typeName,
		),
		span: span,
	}
}

func errSelfConstant(fieldName, typeName string, span syntax.Span) error {
	return &Error{
		code: 3004,
		message: fmt.Sprintf(
			"Constant field %q may not have its enclosing type %q as value type",
			fieldName, typeName,
		),
		span: span,
	}
}

// The message format of errUnknownRestriction is part of the tool's
// interface.
func errUnknownRestriction(name string, span syntax.Span) error {
	return &Error{
		code: 3005,
		message: fmt.Sprintf(
			"%s() is either not supported or an invalid restriction name",
			name,
		),
		span: span,
	}
}

// The message format of errEmptyIntRange is part of the tool's interface.
func errEmptyIntRange(low, high int64, span syntax.Span) error {
	return &Error{
		code: 3006,
		message: fmt.Sprintf(
			"Integer range restriction has no legal values: %d -> %d",
			low, high,
		),
		span: span,
	}
}

// Float ranges reuse the integer wording.
func errEmptyFloatRange(low, high float64, span syntax.Span) error {
	return &Error{
		code: 3006,
		message: fmt.Sprintf(
			"Integer range restriction has no legal values: %s -> %s",
			strconv.FormatFloat(low, 'g', -1, 64),
			strconv.FormatFloat(high, 'g', -1, 64),
		),
		span: span,
	}
}

func errRestrictionArity(name string, want string, got int, span syntax.Span) error {
	return &Error{
		code: 3007,
		message: fmt.Sprintf(
			"Restriction %s() takes %s arguments, got %d",
			name, want, got,
		),
		span: span,
	}
}

func errRestrictionArgType(name string, want string, span syntax.Span) error {
	return &Error{
		code: 3008,
		message: fmt.Sprintf(
			"Restriction %s() requires %s arguments",
			name, want,
		),
		span: span,
	}
}

func errRestrictionNotApplicable(name string, target string, span syntax.Span) error {
	return &Error{
		code: 3009,
		message: fmt.Sprintf(
			"Restriction %s() is not applicable to %s",
			name, target,
		),
		span: span,
	}
}

func errUnknownHint(name string, span syntax.Span) error {
	return &Error{
		code:    3010,
		message: fmt.Sprintf("Unknown hint %q", name),
		span:    span,
	}
}

func errCyclicInheritance(name string, span syntax.Span) error {
	return &Error{
		code: 3011,
		message: fmt.Sprintf(
			"The super type chain of %q contains a cycle",
			name,
		),
		span: span,
	}
}

func errAnyType(span syntax.Span) error {
	return &Error{
		code:    3012,
		message: "The name \"any\" is reserved for the synthetic root type",
		span:    span,
	}
}

func errArrayLength(length int64, span syntax.Span) error {
	return &Error{
		code:    3014,
		message: fmt.Sprintf("Fixed array length %d is negative", length),
		span:    span,
	}
}

func errConstantOutOfRange(
	fieldName string,
	typeName string,
	value int64,
	span syntax.Span,
) error {
	return &Error{
		code: 3015,
		message: fmt.Sprintf(
			"Constant value %d of field %q does not fit type %s",
			value, fieldName, typeName,
		),
		span: span,
	}
}

func errNoDeclarations() error {
	return &Error{
		code:    3013,
		message: "Source contained no type declarations",
		span:    syntax.NewSpan(0, 0),
	}
}
