// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template

// Default delimiter pair for tags.
const (
	OTagDefault = "{{"
	CTagDefault = "}}"
)

// DelimiterPair holds the opening and closing markers bounding a tag.
// Sections record the pair in effect at their open tag since `{{=...=}}`
// may change delimiters mid-template.
type DelimiterPair struct {
	Open  string
	Close string
}

// IsDefault reports whether the pair is the stock double-brace pair.
func (d DelimiterPair) IsDefault() bool {
	return d.Open == OTagDefault && d.Close == CTagDefault
}

// Node is one piece of a parsed template. Nodes are produced by a parser
// (see pkg/parser), are read-only inputs to Compile and carry no compiled
// state.
type Node interface {
	node()
}

var _ = []Node{&NodeText{}, &NodeVar{}, &NodeSection{},
	&NodeInvertedSection{}, &NodePartial{}, &NodeComment{}}

// NodeRoot is the top of a parsed template.
type NodeRoot struct {
	Items []Node
}

// NodeText is a run of literal template text.
type NodeText struct {
	Content string
}

// NodeVar is a variable tag. Escape records whether the tag requested
// entity-encoded output (`{{name}}`) or raw output (`{{{name}}}`,
// `{{& name}}`).
type NodeVar struct {
	Name   string
	Escape bool
}

// NodeSection is a block tag rendering its children based on the bound
// value. Start and End delimit the raw body within the template source,
// excluding the open and close tags; Delims is the delimiter pair in
// effect at the open tag.
type NodeSection struct {
	Name     string
	Children []Node

	Start  int
	End    int
	Delims DelimiterPair
}

// NodeInvertedSection renders its children only when the bound value is
// falsy or empty.
type NodeInvertedSection struct {
	Name     string
	Children []Node
}

// NodePartial references a named sub-template inserted at render time.
// Indent is the leading whitespace of a standalone partial line, applied
// to every line of the partial's output.
type NodePartial struct {
	Name   string
	Indent string
}

// NodeComment contributes nothing to the compiled program.
type NodeComment struct {
	Content string
}

func (*NodeText) node()            {}
func (*NodeVar) node()             {}
func (*NodeSection) node()         {}
func (*NodeInvertedSection) node() {}
func (*NodePartial) node()         {}
func (*NodeComment) node()         {}
