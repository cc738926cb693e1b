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

package testutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// TestdataFS returns the repository's shared testdata directory as an FS,
// located relative to this source file so that tests in any package see the
// same tree.
func TestdataFS() (fs.FS, error) {
	_, selfPath, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("testutil: unable to locate testdata")
	}
	root := filepath.Join(filepath.Dir(selfPath), "..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	return os.DirFS(root), nil
}

// TestdataPath resolves a file inside the shared testdata directory to an
// on-disk path, for tests that exercise file-based APIs.
func TestdataPath(name string) (string, error) {
	_, selfPath, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("testutil: unable to locate testdata")
	}
	root := filepath.Join(filepath.Dir(selfPath), "..", "..", "testdata")
	path := filepath.Join(root, filepath.FromSlash(name))
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
