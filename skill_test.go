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

package skill_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.skill-lang.org/skill"
	"go.skill-lang.org/skill/compiler"
	"go.skill-lang.org/skill/internal/testutil"
	"go.skill-lang.org/skill/ir"
	"go.skill-lang.org/skill/syntax"
)

const personSchema = `
Person {
	string name;
	i32 age;
	bool active;
	f64 weight;
	v64 score;
	list<string> tags;
	set<i64> ids;
	i64[2] pair;
	map<string, i64> ranks;
	Person friend;
	annotation anything;
	const v64 version = 7;
	auto i32 scratch;
}

Employee : Person {
	string company;
}
`

func compileIR(t *testing.T, src string) *ir.TypeContext {
	t.Helper()
	file, err := syntax.Parse([]byte(src))
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

// populate creates two persons and one employee with every field kind in
// use, including strings nested inside compound values.
func populate(t *testing.T, state *skill.State) {
	t.Helper()
	persons := state.Pool("person")
	employees := state.Pool("employee")

	alice := persons.New()
	alice.Set("name", "alice")
	alice.Set("age", int64(31))
	alice.Set("active", true)
	alice.Set("weight", 62.5)
	alice.Set("score", int64(1<<40))
	alice.Set("tags", []any{"admin", "grüße"})
	alice.Set("ids", []any{int64(3), int64(5)})
	alice.Set("pair", []any{int64(1), int64(2)})
	alice.Set("ranks", map[any]any{"chess": int64(7), "go": int64(9)})

	bob := persons.New()
	bob.Set("name", "bob")
	bob.Set("age", int64(27))
	bob.Set("friend", alice)
	bob.Set("anything", alice)

	carol := employees.New()
	carol.Set("name", "carol")
	carol.Set("age", int64(40))
	carol.Set("company", "skillcorp")
	carol.Set("friend", bob)
	alice.Set("friend", carol)
}

func TestWriteReadWriteBitIdentical(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.sf")
	second := filepath.Join(dir, "second.sf")

	state := skill.Create(ctx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(first))

	read, err := skill.Read(first, ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, read.Write(second))

	firstBytes, err := os.ReadFile(first)
	testutil.AssertNoError(t, err)
	secondBytes, err := os.ReadFile(second)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, firstBytes, secondBytes)
}

func TestReadValues(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	path := filepath.Join(t.TempDir(), "people.sf")

	state := skill.Create(ctx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(path))

	read, err := skill.Read(path, ctx)
	testutil.AssertNoError(t, err)

	persons := read.Pool("person")
	testutil.ExpectEq(t, 3, persons.Size())

	var all []*skill.Object
	for obj := range persons.AllInTypeOrder() {
		all = append(all, obj)
	}
	testutil.ExpectEq(t, 3, len(all))

	alice := all[0]
	testutil.ExpectEq(t, "alice", alice.Get("name").(string))
	testutil.ExpectEq(t, int64(31), alice.Get("age").(int64))
	testutil.ExpectEq(t, true, alice.Get("active").(bool))
	testutil.ExpectEq(t, 62.5, alice.Get("weight").(float64))
	testutil.ExpectEq(t, int64(1<<40), alice.Get("score").(int64))

	tags := alice.Get("tags").([]any)
	testutil.ExpectEq(t, 2, len(tags))
	testutil.ExpectEq(t, "admin", tags[0].(string))
	testutil.ExpectEq(t, "grüße", tags[1].(string))

	pair := alice.Get("pair").([]any)
	testutil.ExpectEq(t, 2, len(pair))
	testutil.ExpectEq(t, int64(1), pair[0].(int64))
	testutil.ExpectEq(t, int64(2), pair[1].(int64))

	ranks := alice.Get("ranks").(map[any]any)
	testutil.ExpectEq(t, 2, len(ranks))
	testutil.ExpectEq(t, int64(7), ranks["chess"].(int64))
	testutil.ExpectEq(t, int64(9), ranks["go"].(int64))

	bob := all[1]
	testutil.ExpectEq(t, alice, bob.Get("friend").(*skill.Object))
	testutil.ExpectEq(t, alice, bob.Get("anything").(*skill.Object))
	if bob.Get("tags") != nil {
		tags := bob.Get("tags").([]any)
		testutil.ExpectEq(t, 0, len(tags))
	}

	carol := all[2]
	testutil.ExpectEq(t, "employee", carol.Pool().Name())
	testutil.ExpectEq(t, "skillcorp", carol.Get("company").(string))
	testutil.ExpectEq(t, bob, carol.Get("friend").(*skill.Object))
	testutil.ExpectEq(t, carol, alice.Get("friend").(*skill.Object))
}

func TestSkillIDsAndBlocks(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	path := filepath.Join(t.TempDir(), "people.sf")

	state := skill.Create(ctx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(path))

	// Base pool IDs are contiguous per type in type order: the two
	// persons take 1..2, the employee takes 3.
	persons := state.Pool("person")
	employees := state.Pool("employee")

	var ids []int64
	for obj := range persons.AllInTypeOrder() {
		ids = append(ids, obj.SkillID())
	}
	testutil.ExpectSliceEq(t, []int64{1, 2, 3}, ids)

	testutil.ExpectEq(t, 1, len(persons.Blocks()))
	testutil.ExpectEq(t, skill.BlockInfo{BPSI: 1, Count: 2}, persons.Blocks()[0])
	testutil.ExpectEq(t, skill.BlockInfo{BPSI: 3, Count: 1}, employees.Blocks()[0])

	testutil.ExpectEq(t, persons.ObjectByID(3), employees.ObjectByID(3))
}

func TestAppendPreservesPrefix(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	path := filepath.Join(t.TempDir(), "people.sf")

	state := skill.Create(ctx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(path))

	before, err := os.ReadFile(path)
	testutil.AssertNoError(t, err)

	read, err := skill.Read(path, ctx)
	testutil.AssertNoError(t, err)

	persons := read.Pool("person")
	dave := persons.New()
	dave.Set("name", "dave")
	dave.Set("age", int64(52))
	dave.Set("friend", persons.ObjectByID(1))
	testutil.AssertNoError(t, read.Append())

	after, err := os.ReadFile(path)
	testutil.AssertNoError(t, err)
	if !bytes.HasPrefix(after, before) {
		t.Fatal("append did not preserve the base file's bytes")
	}
	testutil.ExpectTrue(t, len(after) > len(before))

	reread, err := skill.Read(path, ctx)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 4, reread.Pool("person").Size())
	testutil.ExpectEq(t, 2, len(reread.Pool("person").Blocks()))
	testutil.ExpectEq(
		t,
		skill.BlockInfo{BPSI: 4, Count: 1},
		reread.Pool("person").Blocks()[1],
	)

	var daveRead *skill.Object
	for obj := range reread.Pool("person").AllInTypeOrder() {
		if obj.SkillID() == 4 {
			daveRead = obj
		}
	}
	if daveRead == nil {
		t.Fatal("appended instance not found")
	}
	testutil.ExpectEq(t, "dave", daveRead.Get("name").(string))
	testutil.ExpectEq(t, int64(1), daveRead.Get("friend").(*skill.Object).SkillID())
}

func TestAppendToCopiesBase(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	dir := t.TempDir()
	base := filepath.Join(dir, "base.sf")
	target := filepath.Join(dir, "target.sf")

	state := skill.Create(ctx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(base))

	baseBytes, err := os.ReadFile(base)
	testutil.AssertNoError(t, err)

	read, err := skill.Read(base, ctx)
	testutil.AssertNoError(t, err)
	eve := read.Pool("person").New()
	eve.Set("name", "eve")
	testutil.AssertNoError(t, read.AppendTo(target))

	// The base file is untouched; the target starts with its bytes.
	baseAfter, err := os.ReadFile(base)
	testutil.AssertNoError(t, err)
	testutil.ExpectBytesEq(t, baseBytes, baseAfter)

	targetBytes, err := os.ReadFile(target)
	testutil.AssertNoError(t, err)
	if !bytes.HasPrefix(targetBytes, baseBytes) {
		t.Fatal("append target does not start with the base file")
	}
	testutil.ExpectEq(t, target, read.FromPath())
}

func TestAppendWithoutBaseFails(t *testing.T) {
	t.Parallel()

	state := skill.Create(compileIR(t, personSchema))
	testutil.AssertError(t, state.Append())
	testutil.AssertError(t, state.AppendTo(filepath.Join(t.TempDir(), "x.sf")))
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	path := filepath.Join(t.TempDir(), "people.sf")

	state := skill.Create(ctx)
	persons := state.Pool("person")
	keep := persons.New()
	keep.Set("name", "keep")
	drop := persons.New()
	drop.Set("name", "drop")
	state.Delete(drop)
	testutil.ExpectEq(t, int64(0), drop.SkillID())
	testutil.ExpectTrue(t, drop.Deleted())

	testutil.AssertNoError(t, state.Write(path))

	read, err := skill.Read(path, ctx)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, read.Pool("person").Size())
	var names []string
	for obj := range read.Pool("person").AllInTypeOrder() {
		names = append(names, obj.Get("name").(string))
	}
	testutil.ExpectSliceEq(t, []string{"keep"}, names)
}

func TestStringPoolIndexing(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	path := filepath.Join(t.TempDir(), "people.sf")

	state := skill.Create(ctx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(path))

	strings := state.Strings()
	poolLen := uint64(strings.Len())
	for _, str := range []string{
		"person", "employee", "name", "alice", "bob", "carol",
		"admin", "grüße", "chess", "go", "skillcorp",
	} {
		id, ok := strings.ID(str)
		testutil.ExpectTrue(t, ok)
		testutil.ExpectTrue(t, id >= 1 && id <= poolLen)
	}

	// The empty string is never stored.
	id, ok := strings.ID("")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint64(0), id)
}

func TestNewInTypeOrder(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	path := filepath.Join(t.TempDir(), "people.sf")

	state := skill.Create(ctx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(path))

	read, err := skill.Read(path, ctx)
	testutil.AssertNoError(t, err)
	newPerson := read.Pool("person").New()
	newEmployee := read.Pool("employee").New()

	var created []*skill.Object
	for obj := range read.Pool("person").NewInTypeOrder() {
		created = append(created, obj)
	}
	testutil.ExpectSliceEq(t, []*skill.Object{newPerson, newEmployee}, created)
}

func TestUnknownTypeCarriedThrough(t *testing.T) {
	t.Parallel()

	const reducedSchema = `
Person {
	string name;
	i32 age;
	bool active;
	f64 weight;
	v64 score;
	list<string> tags;
	set<i64> ids;
	i64[2] pair;
	map<string, i64> ranks;
	Person friend;
	annotation anything;
	const v64 version = 7;
	auto i32 scratch;
}
`
	fullCtx := compileIR(t, personSchema)
	reducedCtx := compileIR(t, reducedSchema)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.sf")
	second := filepath.Join(dir, "second.sf")

	state := skill.Create(fullCtx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(first))

	// The reduced binding has no employee declaration; the pool is
	// carried through opaquely.
	reduced, err := skill.Read(first, reducedCtx)
	testutil.AssertNoError(t, err)
	employees := reduced.Pool("employee")
	if employees == nil {
		t.Fatal("employee pool was not carried through")
	}
	if employees.Decl() != nil {
		t.Fatal("opaque pool should have no declaration")
	}
	testutil.ExpectEq(t, reduced.Pool("person"), employees.Super())
	testutil.ExpectEq(t, 3, reduced.Pool("person").Size())

	var carol *skill.Object
	for obj := range employees.AllInTypeOrder() {
		carol = obj
	}
	if carol == nil {
		t.Fatal("opaque instance missing")
	}
	testutil.ExpectEq(t, "skillcorp", carol.Get("company").(string))
	if carol.Unknown() == nil {
		t.Fatal("expected unknown field data on the opaque instance")
	}

	testutil.AssertNoError(t, reduced.Write(second))

	// Reading the rewrite with the full binding restores typed access.
	full, err := skill.Read(second, fullCtx)
	testutil.AssertNoError(t, err)
	var restored *skill.Object
	for obj := range full.Pool("employee").AllInTypeOrder() {
		restored = obj
	}
	if restored == nil {
		t.Fatal("employee instance lost in rewrite")
	}
	testutil.ExpectEq(t, "skillcorp", restored.Get("company").(string))
	testutil.ExpectEq(t, "carol", restored.Get("name").(string))
}

func TestReadWithoutBinding(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	path := filepath.Join(t.TempDir(), "people.sf")

	state := skill.Create(ctx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(path))

	opaque, err := skill.Read(path, nil)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 3, opaque.Pool("person").Size())
	var names []string
	for obj := range opaque.Pool("person").AllInTypeOrder() {
		names = append(names, obj.Get("name").(string))
	}
	testutil.ExpectSliceEq(t, []string{"alice", "bob", "carol"}, names)
}

func TestSideFileRemoved(t *testing.T) {
	t.Parallel()

	ctx := compileIR(t, personSchema)
	dir := t.TempDir()
	path := filepath.Join(dir, "people.sf")

	state := skill.Create(ctx)
	populate(t, state)
	testutil.AssertNoError(t, state.Write(path))

	entries, err := os.ReadDir(dir)
	testutil.AssertNoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	testutil.ExpectSliceEq(t, []string{"people.sf"}, names)
}
