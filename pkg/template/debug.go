// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"sort"
	"strings"
)

// DebugCodeAsString lists the compiled instructions, followed by each
// section routine exactly once. Shared routines show up as repeated
// references to the same key, which makes section-body aliasing visible.
func (p *Program) DebugCodeAsString() string {
	var result []string
	result = append(result, fmt.Sprintf("template: %s", p.name))
	result = append(result, describeCode(p.code, "  ")...)

	routines := map[uint64]*SectionRoutine{}
	collectRoutines(p.code, routines)

	keys := make([]uint64, 0, len(routines))
	for key := range routines {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		result = append(result, fmt.Sprintf("routine %016x:", key))
		result = append(result, describeCode(routines[key].code, "  ")...)
	}

	return strings.Join(result, "\n")
}

func describeCode(code []instruction, prefix string) []string {
	var result []string
	for i, ins := range code {
		result = append(result, fmt.Sprintf("%s%4d: %s", prefix, i, ins.describe()))
		if typedIns, ok := ins.(emitInvertedSection); ok {
			result = append(result, describeCode(typedIns.code, prefix+"  ")...)
		}
	}
	return result
}

func collectRoutines(code []instruction, acc map[uint64]*SectionRoutine) {
	for _, ins := range code {
		switch typedIns := ins.(type) {
		case emitSection:
			if _, seen := acc[typedIns.routine.key]; seen {
				continue
			}
			acc[typedIns.routine.key] = typedIns.routine
			collectRoutines(typedIns.routine.code, acc)
		case emitInvertedSection:
			collectRoutines(typedIns.code, acc)
		}
	}
}

func (i emitLiteral) describe() string {
	return fmt.Sprintf("emit_literal %q", i.text)
}

func (i emitVariable) describe() string {
	return fmt.Sprintf("emit_var %s strategy=%s escape=%t", i.name, i.strategy, i.escape)
}

func (i emitSection) describe() string {
	return fmt.Sprintf("emit_section %s strategy=%s routine=%016x", i.name, i.strategy, i.routine.key)
}

func (i emitInvertedSection) describe() string {
	return fmt.Sprintf("emit_inverted_section %s strategy=%s", i.name, i.strategy)
}

func (i emitPartial) describe() string {
	return fmt.Sprintf("emit_partial %s indent=%q", i.name, i.indent)
}
