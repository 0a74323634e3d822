// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"hash/fnv"
)

// SectionRoutine is one independently compiled section body. Multiple call
// sites within the same compilation may reference the same routine when
// their raw bodies and delimiter pairs are identical; the bound-value name
// stays per call site.
type SectionRoutine struct {
	key  uint64
	code []instruction
}

// Key is the content-addressed identity of the routine's body.
func (r *SectionRoutine) Key() uint64 { return r.key }

// sectionRegistry deduplicates section bodies within a single compilation.
// It must not be shared across concurrent compilations.
type sectionRegistry struct {
	routines map[uint64]*SectionRoutine
}

func newSectionRegistry() *sectionRegistry {
	return &sectionRegistry{routines: map[uint64]*SectionRoutine{}}
}

func (r *sectionRegistry) Find(key uint64) (*SectionRoutine, bool) {
	routine, ok := r.routines[key]
	return routine, ok
}

func (r *sectionRegistry) Add(routine *SectionRoutine) {
	r.routines[routine.key] = routine
}

// sectionKey hashes the delimiter pair (only when non-default) and the raw
// body slice. The hash is an identity for deduplication, not a security
// boundary, so a fast non-cryptographic hash is enough.
func sectionKey(delims DelimiterPair, rawBody string) uint64 {
	h := fnv.New64a()
	if !delims.IsDefault() {
		h.Write([]byte(delims.Open))
		h.Write([]byte{0})
		h.Write([]byte(delims.Close))
		h.Write([]byte{0})
	}
	h.Write([]byte(rawBody))
	return h.Sum64()
}
