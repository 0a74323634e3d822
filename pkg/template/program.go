// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strings"
)

// maxRenderDepth bounds nesting across partial and lambda sub-renders.
// Nothing else stops a partial that references itself.
const maxRenderDepth = 256

// Program is the compiled artifact. It is immutable after compilation and
// safe to render concurrently; only the caller-supplied Context mutates
// during a render.
type Program struct {
	name    string
	code    []instruction
	loader  Loader
	escaper Escaper
}

func (p *Program) Name() string { return p.name }

// Render executes the program against ctx. Every output line is prefixed
// with indent exactly once, including lines produced inside nested
// partials and sections. escape is the render-call master switch: escaped
// variables entity-encode their output only when it is on.
func (p *Program) Render(ctx Context, indent string, escape bool) (string, error) {
	return p.render(ctx, indent, escape, 0)
}

func (p *Program) render(ctx Context, indent string, escape bool, depth int) (string, error) {
	if depth > maxRenderDepth {
		return "", fmt.Errorf("Rendering template '%s': exceeded max render depth %d "+
			"(partial or lambda references itself?)", p.name, maxRenderDepth)
	}

	st := &renderState{
		prog:    p,
		ctx:     ctx,
		indent:  indent,
		escape:  escape,
		depth:   depth,
		pending: true,
	}

	err := execAll(p.code, st)
	if err != nil {
		return "", err
	}

	return st.out.String(), nil
}

// renderState is per-render mutable state: the output buffer, the
// line-indent state machine and the sub-render depth. One state per render
// call; never shared.
type renderState struct {
	prog    *Program
	ctx     Context
	indent  string
	escape  bool
	depth   int
	pending bool
	out     strings.Builder
}

// write emits s through the indent state machine: the first emission after
// the start of a line (pending) is prefixed with the indent, later
// emissions on the same line are not, and every newline arms the machine
// again. A trailing newline leaves the machine armed without emitting a
// dangling indent.
func (st *renderState) write(s string) {
	for {
		if st.pending {
			st.out.WriteString(st.indent)
			st.pending = false
		}

		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			st.out.WriteString(s)
			return
		}

		st.out.WriteString(s[:idx+1])
		st.pending = true
		s = s[idx+1:]

		if len(s) == 0 {
			return
		}
	}
}

// writeRaw emits already rendered sub-output verbatim (its lines carry
// their own indents), only updating the line state machine.
func (st *renderState) writeRaw(s string) {
	if len(s) == 0 {
		return
	}
	st.out.WriteString(s)
	st.pending = strings.HasSuffix(s, "\n")
}

func (st *renderState) requireLoader(what string) (Loader, error) {
	if st.prog.loader == nil {
		return nil, fmt.Errorf("Rendering template '%s': no loader configured for %s",
			st.prog.name, what)
	}
	return st.prog.loader, nil
}

func (st *renderState) escapeValue(s string) string {
	if st.prog.escaper != nil {
		return st.prog.escaper.Escape(s)
	}
	return defaultEntityReplacer.Replace(s)
}

// Fallback when no Escaper collaborator was configured.
var defaultEntityReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func execAll(code []instruction, st *renderState) error {
	for _, ins := range code {
		err := ins.exec(st)
		if err != nil {
			return err
		}
	}
	return nil
}

type instruction interface {
	exec(st *renderState) error
	describe() string
}

var _ = []instruction{emitLiteral{}, emitVariable{}, emitSection{},
	emitInvertedSection{}, emitPartial{}}

type emitLiteral struct {
	text string
}

func (i emitLiteral) exec(st *renderState) error {
	st.write(i.text)
	return nil
}

type emitVariable struct {
	strategy Strategy
	name     string
	escape   bool
}

func (i emitVariable) exec(st *renderState) error {
	val, found := i.strategy.resolve(st.ctx, i.name)
	if !found || val == nil {
		return nil
	}

	str, err := variableText(st, val)
	if err != nil {
		return err
	}

	if i.escape && st.escape {
		str = st.escapeValue(str)
	}

	st.write(str)
	return nil
}

// variableText stringifies a resolved variable value. A callable is
// invoked with no arguments and its result re-rendered as a template with
// default delimiters against the current context; the indent is not
// applied there since this is an inline value, not a line-structured
// block.
func variableText(st *renderState, val interface{}) (string, error) {
	if !isCallable(val) {
		return valueText(val), nil
	}

	src, err := callLambda(val, nil)
	if err != nil {
		return "", err
	}

	loader, err := st.requireLoader("lambda")
	if err != nil {
		return "", err
	}

	sub, err := loader.LoadLambdaTemplate(src, nil)
	if err != nil {
		return "", err
	}

	return sub.render(st.ctx, "", st.escape, st.depth+1)
}

type emitSection struct {
	routine  *SectionRoutine
	strategy Strategy
	name     string
	rawBody  string
	delims   DelimiterPair
}

func (i emitSection) exec(st *renderState) error {
	val, found := i.strategy.resolve(st.ctx, i.name)
	if !found {
		return nil
	}

	if isCallable(val) {
		return i.execLambda(st, val)
	}

	if isEmptyValue(val) {
		return nil
	}

	if items, iterable := sequenceOf(val); iterable {
		for _, item := range items {
			err := renderWithScope(st, item, i.routine.code)
			if err != nil {
				return err
			}
		}
		return nil
	}

	return renderWithScope(st, val, i.routine.code)
}

// execLambda invokes a section lambda with the raw body text, compiles the
// returned source with the section's own delimiter pair and emits the
// rendered result verbatim.
func (i emitSection) execLambda(st *renderState, val interface{}) error {
	body := i.rawBody
	src, err := callLambda(val, &body)
	if err != nil {
		return err
	}

	loader, err := st.requireLoader(fmt.Sprintf("section '%s' lambda", i.name))
	if err != nil {
		return err
	}

	delims := i.delims
	sub, err := loader.LoadLambdaTemplate(src, &delims)
	if err != nil {
		return err
	}

	out, err := sub.render(st.ctx, st.indent, st.escape, st.depth+1)
	if err != nil {
		return err
	}

	st.writeRaw(out)
	return nil
}

// renderWithScope pushes val, renders the routine body and pops. The pop
// is deferred so the stack unwinds even when a child instruction fails.
func renderWithScope(st *renderState, val interface{}, code []instruction) error {
	st.ctx.Push(val)
	defer st.ctx.Pop()

	return execAll(code, st)
}

type emitInvertedSection struct {
	strategy Strategy
	name     string
	code     []instruction
}

func (i emitInvertedSection) exec(st *renderState) error {
	val, found := i.strategy.resolve(st.ctx, i.name)
	if found && !isEmptyValue(val) {
		return nil
	}

	// children see the unchanged context; no push/pop
	return execAll(i.code, st)
}

type emitPartial struct {
	name   string
	indent string
}

func (i emitPartial) exec(st *renderState) error {
	loader, err := st.requireLoader(fmt.Sprintf("partial '%s'", i.name))
	if err != nil {
		return err
	}

	sub, err := loader.LoadPartial(i.name)
	if err != nil {
		return err
	}

	// indents are cumulative: the sub-render applies its own indent on
	// top of whatever this render was given
	out, err := sub.render(st.ctx, st.indent+i.indent, st.escape, st.depth+1)
	if err != nil {
		return err
	}

	st.writeRaw(out)
	return nil
}
