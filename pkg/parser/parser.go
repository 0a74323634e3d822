// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

// Package parser turns Mustache template source into the node tree
// compiled by pkg/template. It handles escaped and unescaped variables,
// sections, inverted sections, partials, comments and delimiter changes,
// and strips standalone tag lines the way the Mustache spec prescribes.
package parser

import (
	"fmt"
	"strings"

	"github.com/stachehq/stache/pkg/filepos"
	"github.com/stachehq/stache/pkg/template"
)

type Parser struct {
	delims         template.DelimiterPair
	associatedName string
}

func NewParser() *Parser {
	return NewParserWithDelimiters(template.DelimiterPair{
		Open:  template.OTagDefault,
		Close: template.CTagDefault,
	})
}

// NewParserWithDelimiters starts parsing with a non-default delimiter
// pair. Lambda-returned section text is parsed with the section's own
// pair, which may differ from the default.
func NewParserWithDelimiters(delims template.DelimiterPair) *Parser {
	return &Parser{delims: delims}
}

func (p *Parser) Parse(data []byte, associatedName string) (*template.NodeRoot, error) {
	p.associatedName = associatedName

	src := string(data)

	toks, err := p.tokenize(src)
	if err != nil {
		return nil, err
	}

	p.markStandalone(src, toks)

	return p.buildTree(src, toks)
}

type tokenKind int

const (
	kindText tokenKind = iota
	kindVar
	kindSectionOpen
	kindInvertedOpen
	kindClose
	kindPartial
	kindComment
	kindSetDelim
)

type token struct {
	kind   tokenKind
	name   string
	escape bool
	indent string

	// start and end delimit the source consumed by the token; standalone
	// handling widens tag spans over surrounding whitespace and newlines
	start int
	end   int

	// delimiter pair in effect at a section's open tag
	delims template.DelimiterPair

	line int
}

func (p *Parser) tokenize(src string) ([]token, error) {
	delims := p.delims

	var toks []token
	pos := 0
	line := 1

	for pos < len(src) {
		open := strings.Index(src[pos:], delims.Open)
		if open < 0 {
			toks = append(toks, token{kind: kindText, start: pos, end: len(src), line: line})
			break
		}
		open += pos

		if open > pos {
			toks = append(toks, token{kind: kindText, start: pos, end: open, line: line})
			line += strings.Count(src[pos:open], "\n")
		}

		tok, err := p.parseTag(src, open, &delims, line)
		if err != nil {
			return nil, err
		}

		line += strings.Count(src[tok.start:tok.end], "\n")
		toks = append(toks, tok)
		pos = tok.end
	}

	return toks, nil
}

func (p *Parser) parseTag(src string, tagStart int, delims *template.DelimiterPair, line int) (token, error) {
	pos := p.position(line)
	inner := tagStart + len(delims.Open)

	// triple mustache is only recognized with the default pair
	if delims.IsDefault() && strings.HasPrefix(src[inner:], "{") {
		closeIdx := strings.Index(src[inner+1:], "}"+delims.Close)
		if closeIdx < 0 {
			return token{}, fmt.Errorf("Expected to find tag closing '}%s' (%s)", delims.Close, pos.AsString())
		}
		name := strings.TrimSpace(src[inner+1 : inner+1+closeIdx])
		if len(name) == 0 {
			return token{}, fmt.Errorf("Expected non-empty tag name (%s)", pos.AsString())
		}
		return token{
			kind:  kindVar,
			name:  name,
			start: tagStart,
			end:   inner + 1 + closeIdx + 1 + len(delims.Close),
			line:  line,
		}, nil
	}

	closeIdx := strings.Index(src[inner:], delims.Close)
	if closeIdx < 0 {
		return token{}, fmt.Errorf("Expected to find tag closing '%s' (%s)", delims.Close, pos.AsString())
	}

	content := strings.TrimSpace(src[inner : inner+closeIdx])
	tagEnd := inner + closeIdx + len(delims.Close)

	tok := token{start: tagStart, end: tagEnd, line: line, escape: true}

	switch {
	case strings.HasPrefix(content, "#"):
		tok.kind = kindSectionOpen
		tok.name = strings.TrimSpace(content[1:])
		tok.delims = *delims

	case strings.HasPrefix(content, "^"):
		tok.kind = kindInvertedOpen
		tok.name = strings.TrimSpace(content[1:])

	case strings.HasPrefix(content, "/"):
		tok.kind = kindClose
		tok.name = strings.TrimSpace(content[1:])

	case strings.HasPrefix(content, ">"):
		tok.kind = kindPartial
		tok.name = strings.TrimSpace(content[1:])

	case strings.HasPrefix(content, "!"):
		tok.kind = kindComment
		tok.name = strings.TrimSpace(content[1:])

	case strings.HasPrefix(content, "&"):
		tok.kind = kindVar
		tok.name = strings.TrimSpace(content[1:])
		tok.escape = false

	case strings.HasPrefix(content, "="):
		pair := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(content, "="), "="))
		if len(pair) != 2 {
			return token{}, fmt.Errorf("Expected delimiter change to name exactly two delimiters (%s)", pos.AsString())
		}
		tok.kind = kindSetDelim
		delims.Open, delims.Close = pair[0], pair[1]

	default:
		tok.kind = kindVar
		tok.name = content
	}

	if tok.kind != kindSetDelim && len(tok.name) == 0 {
		return token{}, fmt.Errorf("Expected non-empty tag name (%s)", pos.AsString())
	}

	return tok, nil
}

// markStandalone widens the spans of tags that stand alone on their line
// over the line's leading whitespace and trailing newline, so the line
// itself leaves no trace in the output. A standalone partial keeps the
// leading whitespace as its indent.
func (p *Parser) markStandalone(src string, toks []token) {
	for i := range toks {
		t := &toks[i]

		switch t.kind {
		case kindSectionOpen, kindInvertedOpen, kindClose, kindPartial, kindComment, kindSetDelim:
		default:
			continue
		}

		indent, ok := standaloneIndentBefore(src, toks, i)
		if !ok {
			continue
		}

		consume, ok := standaloneConsumeAfter(src, toks, i)
		if !ok {
			continue
		}

		if len(indent) > 0 {
			toks[i-1].end -= len(indent)
			t.start -= len(indent)
		}
		if t.kind == kindPartial {
			t.indent = indent
		}
		if consume > 0 {
			t.end += consume
			if i+1 < len(toks) {
				toks[i+1].start += consume
			}
		}
	}
}

func standaloneIndentBefore(src string, toks []token, i int) (string, bool) {
	t := toks[i]

	if i == 0 {
		return "", t.start == 0
	}

	prev := toks[i-1]
	if prev.kind != kindText {
		// a preceding tag shares the line unless its span already
		// consumed a line ending
		return "", strings.HasSuffix(src[prev.start:prev.end], "\n")
	}

	seg := src[prev.start:prev.end]
	newlineIdx := strings.LastIndexByte(seg, '\n')
	tail := seg[newlineIdx+1:]

	atLineStart := newlineIdx >= 0 || prev.start == 0 || src[prev.start-1] == '\n'
	if !atLineStart || len(strings.TrimRight(tail, " \t")) > 0 {
		return "", false
	}

	return tail, true
}

func standaloneConsumeAfter(src string, toks []token, i int) (int, bool) {
	t := toks[i]

	seg := src[t.end:]
	segEnd := len(src)

	if i+1 < len(toks) {
		next := toks[i+1]
		if next.kind != kindText {
			return 0, false
		}
		seg = src[next.start:next.end]
		segEnd = next.end
	}

	ws := len(seg) - len(strings.TrimLeft(seg, " \t"))
	tail := seg[ws:]

	switch {
	case strings.HasPrefix(tail, "\n"):
		return ws + 1, true
	case strings.HasPrefix(tail, "\r\n"):
		return ws + 2, true
	case len(tail) == 0 && t.end+ws == segEnd && segEnd == len(src):
		// end of template counts as a line ending
		return ws, true
	default:
		return 0, false
	}
}

type openFrame struct {
	tok      token
	children []template.Node
}

func (p *Parser) buildTree(src string, toks []token) (*template.NodeRoot, error) {
	stack := []*openFrame{{}}

	for _, t := range toks {
		top := stack[len(stack)-1]

		switch t.kind {
		case kindText:
			if t.end > t.start {
				top.children = append(top.children, &template.NodeText{Content: src[t.start:t.end]})
			}

		case kindVar:
			top.children = append(top.children, &template.NodeVar{Name: t.name, Escape: t.escape})

		case kindSectionOpen, kindInvertedOpen:
			stack = append(stack, &openFrame{tok: t})

		case kindClose:
			if len(stack) == 1 {
				return nil, fmt.Errorf("Unexpected closing tag '%s' (%s)",
					t.name, p.position(t.line).AsString())
			}

			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if frame.tok.name != t.name {
				return nil, fmt.Errorf("Expected closing tag for section '%s' but found '%s' (%s)",
					frame.tok.name, t.name, p.position(t.line).AsString())
			}

			parent := stack[len(stack)-1]
			parent.children = append(parent.children, p.newSectionNode(frame, t))

		case kindPartial:
			top.children = append(top.children, &template.NodePartial{Name: t.name, Indent: t.indent})

		case kindComment:
			top.children = append(top.children, &template.NodeComment{Content: t.name})

		case kindSetDelim:
			// consumed during tokenization

		default:
			panic(fmt.Sprintf("unknown token kind %d", t.kind))
		}
	}

	if len(stack) > 1 {
		frame := stack[len(stack)-1]
		return nil, fmt.Errorf("Expected section '%s' to be closed (%s)",
			frame.tok.name, p.position(frame.tok.line).AsString())
	}

	return &template.NodeRoot{Items: stack[0].children}, nil
}

func (p *Parser) newSectionNode(frame *openFrame, closeTok token) template.Node {
	if frame.tok.kind == kindInvertedOpen {
		return &template.NodeInvertedSection{
			Name:     frame.tok.name,
			Children: frame.children,
		}
	}

	return &template.NodeSection{
		Name:     frame.tok.name,
		Children: frame.children,
		Start:    frame.tok.end,
		End:      closeTok.start,
		Delims:   frame.tok.delims,
	}
}

func (p *Parser) position(line int) *filepos.Position {
	if len(p.associatedName) > 0 {
		return filepos.NewPositionInFile(line, p.associatedName)
	}
	return filepos.NewPosition(line)
}
