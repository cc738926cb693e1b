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
	"os"
	"path/filepath"

	"go.skill-lang.org/skill/syntax"
)

// Input is the flattened declaration stream handed to Compile.
type Input struct {
	definitions []*syntax.Definition
	hasContent  bool
}

func (in *Input) Definitions() []*syntax.Definition {
	return in.definitions
}

// NewInput flattens already-parsed files, for callers that resolve includes
// themselves.
func NewInput(files ...*syntax.File) *Input {
	input := &Input{}
	for _, file := range files {
		input.definitions = append(input.definitions, file.Definitions()...)
		if file.HasContent() {
			input.hasContent = true
		}
	}
	return input
}

// Load reads the entry file and every transitively included file, parsing
// each exactly once. Include paths are resolved relative to the entry file's
// directory. A file naming itself (directly or through a cycle) is read only
// once; the done-set breaks the cycle.
func Load(entryPath string) (*Input, error) {
	baseDir := filepath.Dir(entryPath)

	worklist := []string{filepath.Base(entryPath)}
	done := make(map[string]struct{})
	input := &Input{}

	for len(worklist) > 0 {
		name := worklist[0]
		worklist = worklist[1:]

		cleaned := filepath.Clean(name)
		if _, seen := done[cleaned]; seen {
			continue
		}
		done[cleaned] = struct{}{}

		src, err := os.ReadFile(filepath.Join(baseDir, cleaned))
		if err != nil {
			return nil, fmt.Errorf(
				"missing include file %q (working directory %q): %w",
				name, baseDir, err,
			)
		}

		file, err := syntax.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(baseDir, cleaned), err)
		}

		input.definitions = append(input.definitions, file.Definitions()...)
		if file.HasContent() {
			input.hasContent = true
		}
		for _, include := range file.Includes() {
			for _, path := range include.Paths() {
				worklist = append(worklist, path.Get())
			}
		}
	}

	return input, nil
}
