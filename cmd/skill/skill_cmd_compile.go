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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"go.skill-lang.org/skill/compiler"
	"go.skill-lang.org/skill/encoding/skilltext"
	"go.skill-lang.org/skill/ir"
)

type cmdCompile struct {
	strict bool
	print  bool
}

func (*cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile SCHEMA",
		summary: "Check a schema and report diagnostics",
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	flags.BoolVar(&cmd.strict, "strict", false, "treat unknown hints as errors")
	flags.BoolVar(&cmd.print, "print", false, "print the compiled type graph")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	if len(argv) != 1 {
		fmt.Fprintln(os.Stderr, "usage: skill compile SCHEMA")
		return 1
	}
	typeCtx := compileSchema(argv[0], cmd.strict)
	if typeCtx == nil {
		return 1
	}
	if cmd.print {
		fmt.Print(skilltext.Encode(typeCtx))
	}
	return 0
}

// compileSchema loads, parses and checks a schema, printing diagnostics to
// stderr. It returns nil if any schema error was reported.
func compileSchema(path string, strict bool) *ir.TypeContext {
	input, err := compiler.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil
	}

	var opts []compiler.CompileOption
	if strict {
		opts = append(opts, compiler.WithStrictHints())
	}
	result := compiler.Compile(input, opts...)
	for _, warning := range result.Warnings {
		fmt.Fprintln(os.Stderr, warning)
	}
	if len(result.Errors) > 0 {
		for _, err := range result.Errors {
			fmt.Fprintln(os.Stderr, err.Message())
		}
		return nil
	}
	return result.TypeContext
}
