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

// Package compiler lifts parsed schema declarations into the checked IR.
package compiler

import (
	"fmt"
	"math"
	"strings"

	"go.skill-lang.org/skill/ir"
	"go.skill-lang.org/skill/syntax"
)

var groundTypes = map[string]ir.Ground{
	"bool":       ir.G_BOOL,
	"i8":         ir.G_I8,
	"i16":        ir.G_I16,
	"i32":        ir.G_I32,
	"i64":        ir.G_I64,
	"v64":        ir.G_V64,
	"f32":        ir.G_F32,
	"f64":        ir.G_F64,
	"string":     ir.G_STRING,
	"annotation": ir.G_ANNOTATION,
}

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	strictHints bool
}

// WithStrictHints promotes unknown-hint warnings to errors.
func WithStrictHints() CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.strictHints = true
	})
}

type CompileResult struct {
	// TypeContext is nil when Errors is non-empty.
	TypeContext *ir.TypeContext

	Errors   []*Error
	Warnings []*Warning
}

func Compile(input *Input, opts ...CompileOption) CompileResult {
	return NewCompileOptions(opts...).Compile(input)
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions
}

func (opts *CompileOptions) Compile(input *Input) CompileResult {
	c := compiler{
		opts: opts,
		defs: input.Definitions(),
	}
	c.compileSchema(input.hasContent)
	if len(c.errors) > 0 {
		return CompileResult{
			Errors:   c.errors,
			Warnings: c.warnings,
		}
	}
	return CompileResult{
		TypeContext: c.ctx,
		Warnings:    c.warnings,
	}
}

type compiler struct {
	opts     *CompileOptions
	defs     []*syntax.Definition
	ctx      *ir.TypeContext
	errors   []*Error
	warnings []*Warning

	// Set by registerDecls()
	decls       []*declInfo
	declsByName map[string]*declInfo

	// Set by sortDecls()
	ordered []*declInfo
}

type declInfo struct {
	node      *syntax.Definition
	skillName string
	super     *declInfo
	children  []*declInfo

	// Position in type order; -1 until assigned by sortDecls().
	index int

	decl *ir.Declaration
}

func (c *compiler) err(err error) {
	c.errors = append(c.errors, err.(*Error))
}

func (c *compiler) warn(warning *Warning) {
	c.warnings = append(c.warnings, warning)
}

func (c *compiler) compileSchema(hasContent bool) {
	c.registerDecls()
	if len(c.decls) == 0 {
		if len(c.errors) > 0 {
			return
		}
		if hasContent {
			c.err(errNoDeclarations())
			return
		}
		c.ctx = ir.NewTypeContext(nil)
		return
	}

	c.resolveSupers()
	c.sortDecls()
	c.buildDecls()
	for _, di := range c.ordered {
		c.compileFields(di)
	}
	if len(c.errors) > 0 {
		return
	}

	decls := make([]*ir.Declaration, len(c.ordered))
	for ii, di := range c.ordered {
		decls[ii] = di.decl
	}
	c.ctx = ir.NewTypeContext(decls)
}

func (c *compiler) registerDecls() {
	c.declsByName = make(map[string]*declInfo)
	for _, node := range c.defs {
		name := node.Name().Get()
		skillName := strings.ToLower(name)
		if skillName == "any" {
			c.err(errAnyType(node.Name().Span()))
			continue
		}
		if _, conflict := c.declsByName[skillName]; conflict {
			c.err(errDuplicateDefinition(name, node.Name().Span()))
			continue
		}
		di := &declInfo{
			node:      node,
			skillName: skillName,
			index:     -1,
		}
		c.decls = append(c.decls, di)
		c.declsByName[skillName] = di
	}
}

func (c *compiler) knownNames() []string {
	names := make([]string, len(c.decls))
	for ii, di := range c.decls {
		names[ii] = di.skillName
	}
	return names
}

func (c *compiler) resolveSupers() {
	for _, di := range c.decls {
		superNode := di.node.Super()
		if superNode == nil {
			continue
		}
		parent, ok := c.declsByName[strings.ToLower(superNode.Get())]
		if !ok {
			c.err(errTypeUnknown(
				superNode.Get(),
				c.knownNames(),
				superNode.Span(),
			))
			continue
		}
		di.super = parent
		parent.children = append(parent.children, di)
	}

	for _, di := range c.decls {
		steps := 0
		for p := di.super; p != nil; p = p.super {
			steps++
			if steps > len(c.decls) {
				c.err(errCyclicInheritance(
					di.node.Name().Get(),
					di.node.Name().Span(),
				))
				break
			}
		}
	}
}

// sortDecls produces type order: a pre-order walk of each inheritance tree,
// roots and siblings in source order. Declarations on an inheritance cycle
// are unreachable from any root and keep index -1; a cycle error has already
// been recorded for them.
func (c *compiler) sortDecls() {
	var visit func(di *declInfo)
	visit = func(di *declInfo) {
		di.index = len(c.ordered)
		c.ordered = append(c.ordered, di)
		for _, child := range di.children {
			visit(child)
		}
	}
	for _, di := range c.decls {
		if di.super == nil {
			visit(di)
		}
	}
}

func (c *compiler) buildDecls() {
	for _, di := range c.ordered {
		superIndex := -1
		if di.super != nil {
			superIndex = di.super.index
		}
		base := di
		for base.super != nil {
			base = base.super
		}

		var subs []int
		var collect func(di *declInfo)
		collect = func(di *declInfo) {
			for _, child := range di.children {
				subs = append(subs, child.index)
				collect(child)
			}
		}
		collect(di)

		desc := di.node.Description()
		decl := &ir.Declaration{
			Index:       di.index,
			SkillName:   di.skillName,
			CapitalName: di.node.Name().Get(),
			SuperIndex:  superIndex,
			BaseIndex:   base.index,
			SubIndexes:  subs,
		}
		if desc != nil {
			decl.Doc = desc.Doc()
			decl.Restrictions = c.compileRestrictions(desc, nil)
			decl.Hints = c.compileHints(desc)
		}
		di.decl = decl
	}
}

func (c *compiler) compileFields(di *declInfo) {
	seen := make(map[string]struct{})
	for fieldIndex, fnode := range di.node.Fields() {
		name := fnode.Name().Get()
		skillName := strings.ToLower(name)
		if _, conflict := seen[skillName]; conflict {
			c.err(errDuplicateField(
				di.node.Name().Get(),
				name,
				fnode.Name().Span(),
			))
			continue
		}
		seen[skillName] = struct{}{}

		fieldType := c.resolveTypeExpr(fnode.Type())
		if fieldType == nil {
			continue
		}

		field := &ir.Field{
			SkillName:   skillName,
			CapitalName: name,
			Type:        fieldType,
			Index:       fieldIndex,
			IsAuto:      fnode.IsAuto(),
		}
		if desc := fnode.Description(); desc != nil {
			field.Doc = desc.Doc()
			field.Restrictions = c.compileRestrictions(desc, fieldType)
			field.Hints = c.compileHints(desc)
		}
		field.IsIgnored = field.HasHint(ir.H_IGNORE)

		if fnode.IsConstant() {
			if fieldType.Kind == ir.K_USER && fieldType.User == di.index {
				c.err(errSelfConstant(
					name,
					di.node.Name().Get(),
					fnode.Span(),
				))
				continue
			}
			if fieldType.Kind != ir.K_GROUND || !fieldType.Ground.IsInteger() {
				c.err(errConstantType(
					name,
					c.typeName(fieldType),
					fnode.Span(),
				))
				continue
			}
			value := fnode.Value().Get()
			if !constantFits(fieldType.Ground, value) {
				c.err(errConstantOutOfRange(
					name,
					fieldType.Ground.String(),
					value,
					fnode.Value().Span(),
				))
				continue
			}
			field.IsConstant = true
			field.ConstantValue = value
		}

		di.decl.Fields = append(di.decl.Fields, field)
	}
}

func constantFits(g ir.Ground, value int64) bool {
	switch g {
	case ir.G_I8:
		return value >= math.MinInt8 && value <= math.MaxInt8
	case ir.G_I16:
		return value >= math.MinInt16 && value <= math.MaxInt16
	case ir.G_I32:
		return value >= math.MinInt32 && value <= math.MaxInt32
	default:
		return true
	}
}

func (c *compiler) resolveTypeExpr(node syntax.TypeExpr) *ir.Type {
	switch node := node.(type) {
	case *syntax.BaseType:
		return c.resolveBaseType(node)
	case *syntax.FixedArrayType:
		elem := c.resolveBaseType(node.Base())
		if elem == nil {
			return nil
		}
		length := node.Length().Get()
		if length < 0 {
			c.err(errArrayLength(length, node.Length().Span()))
			return nil
		}
		return &ir.Type{
			Kind:   ir.K_FIXED_ARRAY,
			Elem:   elem,
			Length: length,
		}
	case *syntax.VarArrayType:
		elem := c.resolveBaseType(node.Base())
		if elem == nil {
			return nil
		}
		return &ir.Type{Kind: ir.K_VAR_ARRAY, Elem: elem}
	case *syntax.ListType:
		elem := c.resolveBaseType(node.Base())
		if elem == nil {
			return nil
		}
		return &ir.Type{Kind: ir.K_LIST, Elem: elem}
	case *syntax.SetType:
		elem := c.resolveBaseType(node.Base())
		if elem == nil {
			return nil
		}
		return &ir.Type{Kind: ir.K_SET, Elem: elem}
	case *syntax.MapType:
		bases := make([]*ir.Type, 0, len(node.Bases()))
		for _, baseNode := range node.Bases() {
			base := c.resolveBaseType(baseNode)
			if base == nil {
				return nil
			}
			bases = append(bases, base)
		}
		return &ir.Type{Kind: ir.K_MAP, Bases: bases}
	default:
		panic("unreachable")
	}
}

func (c *compiler) resolveBaseType(node *syntax.BaseType) *ir.Type {
	name := node.Name().Get()
	lower := strings.ToLower(name)
	if ground, ok := groundTypes[lower]; ok {
		return ir.GroundType(ground)
	}
	if di, ok := c.declsByName[lower]; ok && di.index >= 0 {
		return ir.UserType(di.index)
	}
	c.err(errTypeUnknown(name, c.knownNames(), node.Name().Span()))
	return nil
}

func (c *compiler) typeName(t *ir.Type) string {
	switch t.Kind {
	case ir.K_GROUND:
		return t.Ground.String()
	case ir.K_USER:
		return c.ordered[t.User].skillName
	case ir.K_FIXED_ARRAY:
		return fmt.Sprintf("%s[%d]", c.typeName(t.Elem), t.Length)
	case ir.K_VAR_ARRAY:
		return c.typeName(t.Elem) + "[]"
	case ir.K_LIST:
		return fmt.Sprintf("list<%s>", c.typeName(t.Elem))
	case ir.K_SET:
		return fmt.Sprintf("set<%s>", c.typeName(t.Elem))
	case ir.K_MAP:
		names := make([]string, len(t.Bases))
		for ii, base := range t.Bases {
			names[ii] = c.typeName(base)
		}
		return fmt.Sprintf("map<%s>", strings.Join(names, ", "))
	default:
		panic("unreachable")
	}
}

// compileRestrictions checks one description's restrictions. fieldType is
// nil when the description belongs to a type declaration.
func (c *compiler) compileRestrictions(
	desc *syntax.Description,
	fieldType *ir.Type,
) []ir.Restriction {
	var out []ir.Restriction
	for _, node := range desc.Restrictions() {
		if r, ok := c.compileRestriction(node, fieldType); ok {
			out = append(out, r)
		}
	}
	return out
}

func (c *compiler) compileRestriction(
	node *syntax.Restriction,
	fieldType *ir.Type,
) (ir.Restriction, bool) {
	name := node.Name().Get()
	args := node.Args()
	switch strings.ToLower(name) {
	case "range":
		return c.compileRange(node, fieldType)
	case "min":
		return c.compileMinMax(node, fieldType, false)
	case "max":
		return c.compileMinMax(node, fieldType, true)
	case "nonnull":
		if len(args) != 0 {
			c.err(errRestrictionArity(name, "no", len(args), node.Span()))
			return ir.Restriction{}, false
		}
		if !nullableType(fieldType) {
			c.err(errRestrictionNotApplicable(
				name,
				c.restrictionTarget(fieldType),
				node.Span(),
			))
			return ir.Restriction{}, false
		}
		return ir.Restriction{Kind: ir.R_NONNULL}, true
	case "unique":
		return c.compileTypeRestriction(node, fieldType, ir.R_UNIQUE)
	case "singleton":
		return c.compileTypeRestriction(node, fieldType, ir.R_SINGLETON)
	case "monotone":
		return c.compileTypeRestriction(node, fieldType, ir.R_MONOTONE)
	case "constantlengthpointer":
		return c.compileTypeRestriction(node, fieldType, ir.R_CONSTANT_LENGTH_POINTER)
	case "default":
		if fieldType == nil {
			c.err(errRestrictionNotApplicable(name, "type declarations", node.Span()))
			return ir.Restriction{}, false
		}
		if len(args) != 1 {
			c.err(errRestrictionArity(name, "exactly one", len(args), node.Span()))
			return ir.Restriction{}, false
		}
		switch arg := args[0].(type) {
		case *syntax.IntLit:
			return ir.Restriction{Kind: ir.R_DEFAULT, Default: arg.Get()}, true
		case *syntax.TextLit:
			return ir.Restriction{Kind: ir.R_DEFAULT, Default: arg.Get()}, true
		default:
			panic("unreachable")
		}
	case "coding":
		if fieldType == nil {
			c.err(errRestrictionNotApplicable(name, "type declarations", node.Span()))
			return ir.Restriction{}, false
		}
		if len(args) != 1 {
			c.err(errRestrictionArity(name, "exactly one", len(args), node.Span()))
			return ir.Restriction{}, false
		}
		arg, ok := args[0].(*syntax.TextLit)
		if !ok {
			c.err(errRestrictionArgType(name, "string", node.Span()))
			return ir.Restriction{}, false
		}
		return ir.Restriction{Kind: ir.R_CODING, Coding: arg.Get()}, true
	default:
		c.err(errUnknownRestriction(name, node.Span()))
		return ir.Restriction{}, false
	}
}

func (c *compiler) compileTypeRestriction(
	node *syntax.Restriction,
	fieldType *ir.Type,
	kind ir.RestrictionKind,
) (ir.Restriction, bool) {
	name := node.Name().Get()
	if len(node.Args()) != 0 {
		c.err(errRestrictionArity(name, "no", len(node.Args()), node.Span()))
		return ir.Restriction{}, false
	}
	if fieldType != nil {
		c.err(errRestrictionNotApplicable(name, "fields", node.Span()))
		return ir.Restriction{}, false
	}
	return ir.Restriction{Kind: kind}, true
}

func (c *compiler) compileRange(
	node *syntax.Restriction,
	fieldType *ir.Type,
) (ir.Restriction, bool) {
	name := node.Name().Get()
	if fieldType == nil || fieldType.Kind != ir.K_GROUND ||
		(!fieldType.Ground.IsInteger() && !fieldType.Ground.IsFloat()) {
		c.err(errRestrictionNotApplicable(
			name,
			c.restrictionTarget(fieldType),
			node.Span(),
		))
		return ir.Restriction{}, false
	}

	args := node.Args()
	if fieldType.Ground.IsInteger() {
		if len(args) != 2 {
			c.err(errRestrictionArity(name, "exactly two", len(args), node.Span()))
			return ir.Restriction{}, false
		}
		low, ok := intArg(args[0])
		if !ok {
			c.err(errRestrictionArgType(name, "integer", node.Span()))
			return ir.Restriction{}, false
		}
		high, ok := intArg(args[1])
		if !ok {
			c.err(errRestrictionArgType(name, "integer", node.Span()))
			return ir.Restriction{}, false
		}
		if low >= high {
			c.err(errEmptyIntRange(low, high, node.Span()))
			return ir.Restriction{}, false
		}
		return ir.Restriction{
			Kind:    ir.R_INT_RANGE,
			IntLow:  low,
			IntHigh: high,
		}, true
	}

	if len(args) != 2 && len(args) != 4 {
		c.err(errRestrictionArity(name, "two or four", len(args), node.Span()))
		return ir.Restriction{}, false
	}
	low, ok := intArg(args[0])
	if !ok {
		c.err(errRestrictionArgType(name, "integer", node.Span()))
		return ir.Restriction{}, false
	}
	high, ok := intArg(args[1])
	if !ok {
		c.err(errRestrictionArgType(name, "integer", node.Span()))
		return ir.Restriction{}, false
	}
	inclusiveLow, inclusiveHigh := true, true
	if len(args) == 4 {
		if inclusiveLow, ok = inclusionArg(args[2]); !ok {
			c.err(errRestrictionArgType(name, `"inclusive" or "exclusive"`, node.Span()))
			return ir.Restriction{}, false
		}
		if inclusiveHigh, ok = inclusionArg(args[3]); !ok {
			c.err(errRestrictionArgType(name, `"inclusive" or "exclusive"`, node.Span()))
			return ir.Restriction{}, false
		}
	}
	if float64(low) >= float64(high) {
		c.err(errEmptyFloatRange(float64(low), float64(high), node.Span()))
		return ir.Restriction{}, false
	}
	return ir.Restriction{
		Kind:          ir.R_FLOAT_RANGE,
		FloatLow:      float64(low),
		FloatHigh:     float64(high),
		InclusiveLow:  inclusiveLow,
		InclusiveHigh: inclusiveHigh,
	}, true
}

func (c *compiler) compileMinMax(
	node *syntax.Restriction,
	fieldType *ir.Type,
	isMax bool,
) (ir.Restriction, bool) {
	name := node.Name().Get()
	if fieldType == nil || fieldType.Kind != ir.K_GROUND ||
		(!fieldType.Ground.IsInteger() && !fieldType.Ground.IsFloat()) {
		c.err(errRestrictionNotApplicable(
			name,
			c.restrictionTarget(fieldType),
			node.Span(),
		))
		return ir.Restriction{}, false
	}

	args := node.Args()
	if len(args) != 1 {
		c.err(errRestrictionArity(name, "exactly one", len(args), node.Span()))
		return ir.Restriction{}, false
	}
	bound, ok := intArg(args[0])
	if !ok {
		c.err(errRestrictionArgType(name, "integer", node.Span()))
		return ir.Restriction{}, false
	}

	if fieldType.Ground.IsInteger() {
		r := ir.Restriction{
			Kind:    ir.R_INT_RANGE,
			IntLow:  math.MinInt64,
			IntHigh: bound,
		}
		if !isMax {
			r.IntLow = bound
			r.IntHigh = math.MaxInt64
		}
		return r, true
	}

	r := ir.Restriction{
		Kind:          ir.R_FLOAT_RANGE,
		FloatLow:      math.Inf(-1),
		FloatHigh:     float64(bound),
		InclusiveLow:  true,
		InclusiveHigh: true,
	}
	if !isMax {
		r.FloatLow = float64(bound)
		r.FloatHigh = math.Inf(1)
	}
	return r, true
}

func (c *compiler) restrictionTarget(fieldType *ir.Type) string {
	if fieldType == nil {
		return "type declarations"
	}
	return fmt.Sprintf("fields of type %s", c.typeName(fieldType))
}

func nullableType(fieldType *ir.Type) bool {
	if fieldType == nil {
		return false
	}
	if fieldType.Kind == ir.K_USER {
		return true
	}
	if fieldType.Kind != ir.K_GROUND {
		return false
	}
	return fieldType.Ground == ir.G_STRING || fieldType.Ground == ir.G_ANNOTATION
}

func intArg(node syntax.Node) (int64, bool) {
	intLit, ok := node.(*syntax.IntLit)
	if !ok {
		return 0, false
	}
	return intLit.Get(), true
}

func inclusionArg(node syntax.Node) (bool, bool) {
	textLit, ok := node.(*syntax.TextLit)
	if !ok {
		return false, false
	}
	switch textLit.Get() {
	case "inclusive":
		return true, true
	case "exclusive":
		return false, true
	}
	return false, false
}

func (c *compiler) compileHints(desc *syntax.Description) []ir.Hint {
	var out []ir.Hint
	for _, node := range desc.Hints() {
		name := node.Name().Get()
		hint, ok := ir.HintByName(strings.ToLower(name))
		if !ok {
			if c.opts.strictHints {
				c.err(errUnknownHint(name, node.Span()))
			} else {
				c.warn(warnUnknownHint(name, node.Span()))
			}
			continue
		}
		out = append(out, hint)
	}
	return out
}
