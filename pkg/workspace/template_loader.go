// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/stachehq/stache/pkg/parser"
	"github.com/stachehq/stache/pkg/template"
)

// TemplateLoader is the template.Loader used by Programs compiled through
// this workspace. Compiled partials and lambda templates are cached for
// the life of the loader; the cache is guarded so one loader can serve
// concurrent renders.
type TemplateLoader struct {
	library *Library
	escaper template.Escaper

	lock            sync.Mutex
	compiledByName  map[string]*template.Program
	compiledLambdas map[uint64]*template.Program
}

var _ template.Loader = &TemplateLoader{}

func NewTemplateLoader(library *Library, escaper template.Escaper) *TemplateLoader {
	if library == nil {
		library = NewLibrary()
	}
	return &TemplateLoader{
		library:         library,
		escaper:         escaper,
		compiledByName:  map[string]*template.Program{},
		compiledLambdas: map[uint64]*template.Program{},
	}
}

// Compile compiles source under name through this loader, so partials and
// lambdas inside it resolve against the same library.
func (l *TemplateLoader) Compile(name, source string) (*template.Program, error) {
	return l.compile(name, source, nil)
}

func (l *TemplateLoader) LoadPartial(name string) (*template.Program, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if compiled, found := l.compiledByName[name]; found {
		return compiled, nil
	}

	source, found := l.library.Source(name)
	if !found {
		return nil, fmt.Errorf("Expected to find partial '%s' within library", name)
	}

	compiled, err := l.compile(name, source, nil)
	if err != nil {
		return nil, fmt.Errorf("Compiling partial '%s': %w", name, err)
	}

	l.compiledByName[name] = compiled
	return compiled, nil
}

func (l *TemplateLoader) LoadLambdaTemplate(source string, delims *template.DelimiterPair) (*template.Program, error) {
	key := lambdaKey(source, delims)

	l.lock.Lock()
	defer l.lock.Unlock()

	if compiled, found := l.compiledLambdas[key]; found {
		return compiled, nil
	}

	compiled, err := l.compile("lambda", source, delims)
	if err != nil {
		return nil, fmt.Errorf("Compiling lambda template: %w", err)
	}

	l.compiledLambdas[key] = compiled
	return compiled, nil
}

func (l *TemplateLoader) compile(name, source string, delims *template.DelimiterPair) (*template.Program, error) {
	p := parser.NewParser()
	if delims != nil {
		p = parser.NewParserWithDelimiters(*delims)
	}

	rootNode, err := p.Parse([]byte(source), name)
	if err != nil {
		return nil, err
	}

	opts := template.TemplateOpts{Loader: l, Escaper: l.escaper}
	return template.NewTemplate(name, opts).Compile(source, rootNode)
}

func lambdaKey(source string, delims *template.DelimiterPair) uint64 {
	h := fnv.New64a()
	if delims != nil {
		h.Write([]byte(delims.Open))
		h.Write([]byte{0})
		h.Write([]byte(delims.Close))
		h.Write([]byte{0})
	}
	h.Write([]byte(source))
	return h.Sum64()
}
