// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"fmt"
)

// ErrUnknownNodeKind is returned when compilation encounters a node kind
// outside the ones this package defines. A well-formed parser never
// produces one; the check is a defensive invariant.
var ErrUnknownNodeKind = errors.New("unknown template node kind")

// TemplateOpts carries the collaborators a compiled Program consults at
// render time. Loader may be nil for templates without partials or
// lambdas; Escaper may be nil to fall back to plain HTML entities.
type TemplateOpts struct {
	Loader  Loader
	Escaper Escaper
}

// Template compiles node trees under one template name.
type Template struct {
	name string
	opts TemplateOpts
}

func NewTemplate(name string, opts TemplateOpts) *Template {
	return &Template{name: name, opts: opts}
}

// Compile walks the node tree and produces an immutable Program. source
// must be the exact text the tree was parsed from since section bodies are
// sliced out of it for deduplication and lambda invocation.
func (t *Template) Compile(source string, rootNode *NodeRoot) (*Program, error) {
	c := compilation{
		source:   source,
		name:     t.name,
		registry: newSectionRegistry(),
	}

	code, err := c.compileNodes(rootNode.Items)
	if err != nil {
		return nil, err
	}

	return &Program{
		name:    t.name,
		code:    code,
		loader:  t.opts.Loader,
		escaper: t.opts.Escaper,
	}, nil
}

// compilation is the per-Compile walker state. It is used for exactly one
// call and must not be shared across concurrent compilations.
type compilation struct {
	source   string
	name     string
	registry *sectionRegistry
}

func (c *compilation) compileNodes(nodes []Node) ([]instruction, error) {
	var code []instruction

	for _, node := range nodes {
		switch typedNode := node.(type) {
		case *NodeText:
			if len(typedNode.Content) > 0 {
				code = append(code, emitLiteral{text: typedNode.Content})
			}

		case *NodeVar:
			code = append(code, emitVariable{
				strategy: SelectStrategy(typedNode.Name),
				name:     typedNode.Name,
				escape:   typedNode.Escape,
			})

		case *NodeSection:
			ins, err := c.compileSection(typedNode)
			if err != nil {
				return nil, err
			}
			code = append(code, ins)

		case *NodeInvertedSection:
			childCode, err := c.compileNodes(typedNode.Children)
			if err != nil {
				return nil, err
			}
			code = append(code, emitInvertedSection{
				strategy: SelectStrategy(typedNode.Name),
				name:     typedNode.Name,
				code:     childCode,
			})

		case *NodePartial:
			code = append(code, emitPartial{
				name:   typedNode.Name,
				indent: typedNode.Indent,
			})

		case *NodeComment:
			// visited, contributes nothing

		default:
			return nil, fmt.Errorf("Compiling template '%s': %w (%T)",
				c.name, ErrUnknownNodeKind, node)
		}
	}

	return code, nil
}

// compileSection reuses an already compiled routine when another section
// with the same raw body and delimiter pair was seen earlier in this
// compilation; section names do not participate in routine identity.
func (c *compilation) compileSection(node *NodeSection) (instruction, error) {
	rawBody := c.source[node.Start:node.End]
	key := sectionKey(node.Delims, rawBody)

	routine, found := c.registry.Find(key)
	if !found {
		childCode, err := c.compileNodes(node.Children)
		if err != nil {
			return nil, err
		}
		routine = &SectionRoutine{key: key, code: childCode}
		c.registry.Add(routine)
	}

	return emitSection{
		routine:  routine,
		strategy: SelectStrategy(node.Name),
		name:     node.Name,
		rawBody:  rawBody,
		delims:   node.Delims,
	}, nil
}
