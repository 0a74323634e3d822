// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package template compiles a parsed Mustache node tree into a Program: an
immutable list of instructions that renders output text against a
caller-supplied Context.

Compilation decides variable-resolution strategies up front, deduplicates
identical section bodies through a content-addressed registry, and wires in
the collaborators (Loader, Escaper) the Program consults at render time.
A Program is safe for concurrent and repeated renders; compilation state is
scoped to a single Compile call.
*/
package template
