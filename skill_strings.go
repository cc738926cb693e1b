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

package skill

import (
	"fmt"
)

// StringPool interns every string reachable from a state. Indices are
// 1-based and stable for the lifetime of the backing file; index 0 denotes
// the absent string. Empty strings are never stored.
type StringPool struct {
	byID []string
	ids  map[string]uint64

	// Number of entries already persisted to the backing file. Entries
	// past this point form the delta block of the next append.
	written int
}

func newStringPool() *StringPool {
	return &StringPool{
		byID: []string{""},
		ids:  make(map[string]uint64),
	}
}

// Intern returns the string's index, adding it to the pool on first use.
// The empty string is index 0.
func (p *StringPool) Intern(s string) uint64 {
	if s == "" {
		return 0
	}
	if id, ok := p.ids[s]; ok {
		return id
	}
	id := uint64(len(p.byID))
	p.byID = append(p.byID, s)
	p.ids[s] = id
	return id
}

// ID returns the index of an already-interned string.
func (p *StringPool) ID(s string) (uint64, bool) {
	if s == "" {
		return 0, true
	}
	id, ok := p.ids[s]
	return id, ok
}

// Get resolves an index read from a file.
func (p *StringPool) Get(id uint64) (string, error) {
	if id >= uint64(len(p.byID)) {
		return "", fmt.Errorf(
			"skill: string index %d out of range (pool holds %d)",
			id, len(p.byID)-1,
		)
	}
	return p.byID[id], nil
}

// Len is the number of interned strings, excluding the null entry.
func (p *StringPool) Len() int {
	return len(p.byID) - 1
}

// All returns the interned strings in insertion order.
func (p *StringPool) All() []string {
	return p.byID[1:]
}

// appendString adds one entry read from a file, preserving the file's
// index assignment even if it holds duplicates.
func (p *StringPool) appendString(s string) {
	id := uint64(len(p.byID))
	p.byID = append(p.byID, s)
	if _, ok := p.ids[s]; !ok {
		p.ids[s] = id
	}
}

func (p *StringPool) reset() {
	p.byID = p.byID[:1]
	clear(p.ids)
	p.written = 0
}
