// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template

// Context is the variable-resolution stack a Program renders against. It
// is assumed to be exclusively owned by one render call; rendering never
// shares it across goroutines.
type Context interface {
	Push(val interface{})
	Pop()

	// ResolveDirect looks a plain name up across scopes, most recently
	// pushed first.
	ResolveDirect(name string) (interface{}, bool)

	// ResolveDotted resolves a dotted path, always starting from the
	// root scope regardless of intervening pushed scopes.
	ResolveDotted(path string) (interface{}, bool)

	// ResolveLast returns the current top of the stack.
	ResolveLast() interface{}
}

// Loader resolves partial names and lambda-produced template source into
// compiled Programs at render time. Implementations must be safe for use
// from concurrent renders of the same Program.
type Loader interface {
	LoadPartial(name string) (*Program, error)

	// LoadLambdaTemplate compiles template source returned by a lambda.
	// A nil delims means the default delimiter pair.
	LoadLambdaTemplate(source string, delims *DelimiterPair) (*Program, error)
}

// Escaper entity-encodes the output format's reserved characters for the
// configured charset. It is applied only to escaped-variable output.
type Escaper interface {
	Escape(s string) string
}
