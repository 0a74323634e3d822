// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

// Package scope implements the context stack templates resolve names
// against: ordered scopes, most recently pushed first, with dotted paths
// always resolved from the root scope.
package scope

import (
	"reflect"
	"strings"

	"github.com/stachehq/stache/pkg/template"
)

// Stack is a template.Context. It is owned by exactly one render call at
// a time; push/pop follow strict stack discipline.
type Stack struct {
	scopes []interface{} // most recently pushed last
}

var _ template.Context = &Stack{}

func NewStack(scopes ...interface{}) *Stack {
	return &Stack{scopes: scopes}
}

func (s *Stack) Push(val interface{}) {
	s.scopes = append(s.scopes, val)
}

func (s *Stack) Pop() {
	if len(s.scopes) == 0 {
		panic("scope: pop of empty stack")
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// Len reports the current stack depth.
func (s *Stack) Len() int { return len(s.scopes) }

func (s *Stack) ResolveLast() interface{} {
	if len(s.scopes) == 0 {
		return nil
	}
	return s.scopes[len(s.scopes)-1]
}

func (s *Stack) ResolveDirect(name string) (interface{}, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if val, found := lookup(s.scopes[i], name); found {
			return val, true
		}
	}
	return nil, false
}

// ResolveDotted walks a dotted path from the root scope; pushed scopes do
// not participate.
func (s *Stack) ResolveDotted(path string) (interface{}, bool) {
	if len(s.scopes) == 0 {
		return nil, false
	}

	curr := s.scopes[0]
	for _, piece := range strings.Split(path, ".") {
		val, found := lookup(curr, piece)
		if !found {
			return nil, false
		}
		curr = val
	}
	return curr, true
}

func lookup(val interface{}, name string) (interface{}, bool) {
	switch typedVal := val.(type) {
	case nil:
		return nil, false
	case map[string]interface{}:
		result, found := typedVal[name]
		return result, found
	case map[string]string:
		result, found := typedVal[name]
		return result, found
	}

	return lookupReflect(reflect.ValueOf(val), name)
}

func lookupReflect(rv reflect.Value, name string) (interface{}, bool) {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		item := rv.MapIndex(reflect.ValueOf(name))
		if !item.IsValid() {
			return nil, false
		}
		return item.Interface(), true

	case reflect.Struct:
		field := rv.FieldByName(name)
		if field.IsValid() && field.CanInterface() {
			return field.Interface(), true
		}
		return lookupMethod(rv, name)

	default:
		return nil, false
	}
}

// lookupMethod resolves an exported method as a bound func value; the
// render engine decides whether to treat it as a lambda.
func lookupMethod(rv reflect.Value, name string) (interface{}, bool) {
	method := rv.MethodByName(name)
	if !method.IsValid() && rv.CanAddr() {
		method = rv.Addr().MethodByName(name)
	}
	if !method.IsValid() {
		return nil, false
	}
	return method.Interface(), true
}
