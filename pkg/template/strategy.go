// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"strings"
)

// Strategy is the variable-resolution strategy attached to a name at
// compile time. Deciding it once per node keeps string scanning off the
// render path.
type Strategy int

const (
	// StrategyLast resolves to the current top of the context stack
	// (name is exactly ".").
	StrategyLast Strategy = iota

	// StrategyDirect resolves a plain name against the context scopes,
	// most recently pushed first.
	StrategyDirect

	// StrategyDotted resolves a dotted path from the root scope,
	// ignoring intermediate pushed scopes.
	StrategyDotted
)

// SelectStrategy classifies a variable or section name.
func SelectStrategy(name string) Strategy {
	switch {
	case name == ".":
		return StrategyLast
	case strings.Contains(name, "."):
		return StrategyDotted
	default:
		return StrategyDirect
	}
}

func (s Strategy) String() string {
	switch s {
	case StrategyLast:
		return "last"
	case StrategyDirect:
		return "direct"
	case StrategyDotted:
		return "dotted"
	default:
		return "unknown"
	}
}

func (s Strategy) resolve(ctx Context, name string) (interface{}, bool) {
	switch s {
	case StrategyLast:
		return ctx.ResolveLast(), true
	case StrategyDotted:
		return ctx.ResolveDotted(name)
	default:
		return ctx.ResolveDirect(name)
	}
}
