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

// Package syntax tokenizes and parses SKilL schema source text.
package syntax

import (
	"strconv"
)

var reservedWords = map[string]struct{}{
	"include": {},
	"with":    {},
	"extends": {},
	"auto":    {},
	"const":   {},
	"map":     {},
	"set":     {},
	"list":    {},
}

// Parse parses one schema source file into its AST.
func Parse(src []byte) (*File, error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		src:    src,
		tokens: tokens,
	}
	file := p.parseFile()
	if p.err != nil {
		return nil, p.err
	}
	return file, nil
}

type parser struct {
	src       []byte
	tokens    *Tokens
	haveToken bool
	token     Token
	offset    uint32
	err       error

	pendingDoc string
	sawContent bool
}

func (p *parser) ensureToken() error {
	if p.err != nil {
		return p.err
	}
	if p.haveToken {
		return nil
	}
	if err := p.tokens.Next(&p.token); err != nil {
		p.err = err
		return p.err
	}
	p.haveToken = true
	switch p.token.Kind {
	case T_EOF, T_SPACE, T_NEWLINE:
	default:
		p.sawContent = true
	}
	return nil
}

func (p *parser) readToken() string {
	return string(p.src[:p.token.Len])
}

func (p *parser) consumeToken() {
	p.src = p.src[p.token.Len:]
	p.offset += uint32(p.token.Len)
	p.haveToken = false
}

func (p *parser) tokenSpan() Span {
	return Span{
		start: p.offset,
		len:   uint32(p.token.Len),
	}
}

// skipTrivia consumes whitespace and comments. The most recent block comment
// is retained as the pending doc comment.
func (p *parser) skipTrivia() {
	for {
		if err := p.ensureToken(); err != nil {
			return
		}
		switch p.token.Kind {
		case T_SPACE, T_NEWLINE, T_COMMENT:
			p.consumeToken()
		case T_DOC_COMMENT:
			p.pendingDoc = stripDoc(p.readToken())
			p.consumeToken()
		default:
			return
		}
	}
}

func (p *parser) takeDoc() string {
	doc := p.pendingDoc
	p.pendingDoc = ""
	return doc
}

func (p *parser) sigil(kind TokenKind) {
	if err := p.ensureToken(); err != nil {
		return
	}
	if p.token.Kind != kind {
		p.err = errExpectedSigil(
			kind,
			p.token.Kind,
			p.readToken(),
			p.tokenSpan(),
		)
		return
	}
	p.consumeToken()
}

func (p *parser) trySigil(kind TokenKind) bool {
	if err := p.ensureToken(); err != nil {
		return false
	}
	if p.token.Kind != kind {
		return false
	}
	p.consumeToken()
	return true
}

func (p *parser) tryKeyword(keyword string) bool {
	if err := p.ensureToken(); err != nil {
		return false
	}
	if p.token.Kind != T_IDENT {
		return false
	}
	if p.readToken() != keyword {
		return false
	}
	p.consumeToken()
	return true
}

func (p *parser) ident() *Ident {
	if err := p.ensureToken(); err != nil {
		return nil
	}
	token := p.readToken()
	if p.token.Kind != T_IDENT {
		p.err = errExpectedIdent(p.token.Kind, token, p.tokenSpan())
		return nil
	}
	ident := &Ident{
		raw:   token,
		start: p.offset,
	}
	p.consumeToken()
	return ident
}

func (p *parser) boundIdent() *Ident {
	ident := p.ident()
	if ident == nil {
		return nil
	}
	if _, reserved := reservedWords[ident.raw]; reserved {
		p.err = errReservedWord(ident.raw, ident.Span())
		return nil
	}
	return ident
}

func (p *parser) intLit() *IntLit {
	if err := p.ensureToken(); err != nil {
		return nil
	}
	token := p.readToken()

	switch p.token.Kind {
	case T_INT_LIT, T_HEX_INT_LIT:
	default:
		p.err = errExpectedIntLit(p.token.Kind, token, p.tokenSpan())
		return nil
	}

	value, err := strconv.ParseInt(token, 0, 64)
	if err != nil {
		p.err = errIntLitOutOfRange(token, p.tokenSpan())
		return nil
	}
	intNode := &IntLit{
		raw:   token,
		value: value,
		start: p.offset,
	}
	p.consumeToken()
	return intNode
}

func (p *parser) textLit() *TextLit {
	if err := p.ensureToken(); err != nil {
		return nil
	}
	token := p.readToken()

	if p.token.Kind != T_TEXT_LIT {
		p.err = errExpectedIncludePath(p.token.Kind, token, p.tokenSpan())
		return nil
	}
	textNode := &TextLit{
		raw:   token,
		start: p.offset,
	}
	p.consumeToken()
	return textNode
}

func (p *parser) parseFile() *File {
	file := &File{}

	p.skipTrivia()
	for p.err == nil {
		start := p.offset
		if !p.tryKeyword("include") && !p.tryKeyword("with") {
			break
		}
		file.includes = append(file.includes, p.parseIncludeTail(start))
		p.skipTrivia()
	}

	for p.err == nil {
		p.skipTrivia()
		if err := p.ensureToken(); err != nil {
			break
		}
		if p.token.Kind == T_EOF {
			break
		}
		switch p.token.Kind {
		case T_IDENT, T_AT, T_BANG:
		default:
			p.err = errExpectedDeclaration(
				p.token.Kind,
				p.readToken(),
				p.tokenSpan(),
			)
		}
		if def := p.parseDefinition(); def != nil {
			file.definitions = append(file.definitions, def)
		}
	}

	if p.err != nil {
		return nil
	}
	file.span = Span{0, p.offset}
	file.hasContent = p.sawContent
	return file
}

func (p *parser) parseIncludeTail(start uint32) *Include {
	include := &Include{}
	p.skipTrivia()
	include.paths = append(include.paths, p.textLit())
	for p.err == nil {
		p.skipTrivia()
		if err := p.ensureToken(); err != nil {
			break
		}
		if p.token.Kind != T_TEXT_LIT {
			break
		}
		include.paths = append(include.paths, p.textLit())
	}
	include.span = Span{start, p.offset - start}
	return include
}

func (p *parser) parseDefinition() *Definition {
	start := p.offset
	desc := p.parseDescription()
	name := p.boundIdent()
	p.skipTrivia()

	var super *Ident
	if p.trySigil(T_COLON) || p.tryKeyword("with") || p.tryKeyword("extends") {
		p.skipTrivia()
		super = p.boundIdent()
		p.skipTrivia()
	}

	p.sigil(T_OPEN_CURL)
	var fields []*Field
	for p.err == nil {
		p.skipTrivia()
		if p.trySigil(T_CLOSE_CURL) {
			break
		}
		if field := p.parseField(); field != nil {
			fields = append(fields, field)
		}
	}

	if p.err != nil {
		return nil
	}
	return &Definition{
		span:        Span{start, p.offset - start},
		description: desc,
		name:        name,
		super:       super,
		fields:      fields,
	}
}

func (p *parser) parseDescription() *Description {
	start := p.offset
	doc := p.takeDoc()
	var restrictions []*Restriction
	var hints []*Hint
	for p.err == nil {
		itemStart := p.offset
		if p.trySigil(T_AT) {
			restrictions = append(restrictions, p.parseRestrictionTail(itemStart))
		} else if p.trySigil(T_BANG) {
			hints = append(hints, p.parseHintTail(itemStart))
		} else {
			break
		}
		p.skipTrivia()
		if doc == "" {
			doc = p.takeDoc()
		} else {
			p.takeDoc()
		}
	}
	if p.err != nil {
		return nil
	}
	return &Description{
		span:         Span{start, p.offset - start},
		doc:          doc,
		restrictions: restrictions,
		hints:        hints,
	}
}

func (p *parser) parseRestrictionTail(start uint32) *Restriction {
	p.skipTrivia()
	name := p.ident()
	var args []Node
	if p.trySigil(T_OPEN_PAREN) {
		for p.err == nil {
			p.skipTrivia()
			if err := p.ensureToken(); err != nil {
				break
			}
			switch p.token.Kind {
			case T_INT_LIT, T_HEX_INT_LIT:
				if arg := p.intLit(); arg != nil {
					args = append(args, arg)
				}
			case T_TEXT_LIT:
				if arg := p.textLit(); arg != nil {
					args = append(args, arg)
				}
			default:
				p.err = errExpectedRestrictionArg(
					p.token.Kind,
					p.readToken(),
					p.tokenSpan(),
				)
			}
			p.skipTrivia()
			if p.trySigil(T_COMMA) {
				continue
			}
			p.sigil(T_CLOSE_PAREN)
			break
		}
	}
	if p.err != nil {
		return nil
	}
	return &Restriction{
		span: Span{start, p.offset - start},
		name: name,
		args: args,
	}
}

func (p *parser) parseHintTail(start uint32) *Hint {
	p.skipTrivia()
	name := p.ident()
	if p.err != nil {
		return nil
	}
	return &Hint{
		span: Span{start, p.offset - start},
		name: name,
	}
}

func (p *parser) parseField() *Field {
	start := p.offset
	desc := p.parseDescription()

	if p.tryKeyword("const") {
		p.skipTrivia()
		if p.tryKeyword("auto") {
			p.err = errAutoConstant(Span{start, p.offset - start})
			return nil
		}
		fieldType := p.parseTypeExpr()
		p.skipTrivia()
		name := p.boundIdent()
		p.skipTrivia()
		p.sigil(T_EQ)
		p.skipTrivia()
		value := p.intLit()
		p.skipTrivia()
		p.sigil(T_SEMICOLON)
		if p.err != nil {
			return nil
		}
		return &Field{
			span:        Span{start, p.offset - start},
			description: desc,
			isConstant:  true,
			fieldType:   fieldType,
			name:        name,
			value:       value,
		}
	}

	isAuto := p.tryKeyword("auto")
	if isAuto {
		p.skipTrivia()
		if p.tryKeyword("const") {
			p.err = errAutoConstant(Span{start, p.offset - start})
			return nil
		}
	}
	fieldType := p.parseTypeExpr()
	p.skipTrivia()
	name := p.boundIdent()
	p.skipTrivia()
	p.sigil(T_SEMICOLON)
	if p.err != nil {
		return nil
	}
	return &Field{
		span:        Span{start, p.offset - start},
		description: desc,
		isAuto:      isAuto,
		fieldType:   fieldType,
		name:        name,
	}
}

func (p *parser) parseTypeExpr() TypeExpr {
	if err := p.ensureToken(); err != nil {
		return nil
	}
	if p.token.Kind != T_IDENT {
		p.err = errExpectedTypeName(p.token.Kind, p.readToken(), p.tokenSpan())
		return nil
	}

	start := p.offset
	switch p.readToken() {
	case "map", "set", "list":
		keyword := p.readToken()
		p.consumeToken()
		p.skipTrivia()
		p.sigil(T_OPEN_ANGLE)

		var bases []*BaseType
		for p.err == nil {
			p.skipTrivia()
			if base := p.parseBaseType(); base != nil {
				bases = append(bases, base)
			}
			p.skipTrivia()
			if p.trySigil(T_COMMA) {
				continue
			}
			p.sigil(T_CLOSE_ANGLE)
			break
		}
		if p.err != nil {
			return nil
		}

		span := Span{start, p.offset - start}
		switch keyword {
		case "set":
			if len(bases) != 1 {
				p.err = errSetListArity("set", len(bases), span)
				return nil
			}
			return &SetType{span: span, base: bases[0]}
		case "list":
			if len(bases) != 1 {
				p.err = errSetListArity("list", len(bases), span)
				return nil
			}
			return &ListType{span: span, base: bases[0]}
		default:
			if len(bases) < 2 {
				p.err = errMapArity(len(bases), span)
				return nil
			}
			return &MapType{span: span, bases: bases}
		}
	}

	base := p.parseBaseType()
	if p.err != nil {
		return nil
	}
	if p.trySigil(T_OPEN_SQUARE) {
		p.skipTrivia()
		if p.trySigil(T_CLOSE_SQUARE) {
			return &VarArrayType{
				span: Span{start, p.offset - start},
				base: base,
			}
		}
		length := p.intLit()
		p.skipTrivia()
		p.sigil(T_CLOSE_SQUARE)
		if p.err != nil {
			return nil
		}
		return &FixedArrayType{
			span:   Span{start, p.offset - start},
			base:   base,
			length: length,
		}
	}
	return base
}

func (p *parser) parseBaseType() *BaseType {
	if err := p.ensureToken(); err != nil {
		return nil
	}
	if p.token.Kind != T_IDENT {
		p.err = errExpectedTypeName(p.token.Kind, p.readToken(), p.tokenSpan())
		return nil
	}
	start := p.offset
	name := p.boundIdent()
	if p.err != nil {
		return nil
	}
	return &BaseType{
		span: Span{start, p.offset - start},
		name: name,
	}
}
