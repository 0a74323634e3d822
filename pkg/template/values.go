// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"reflect"
)

// valueText stringifies a resolved non-callable value for emission.
func valueText(val interface{}) string {
	switch typedVal := val.(type) {
	case string:
		return typedVal
	case []byte:
		return string(typedVal)
	case fmt.Stringer:
		return typedVal.String()
	default:
		return fmt.Sprintf("%v", typedVal)
	}
}

// isCallable reports whether val is a lambda: any non-nil func value.
func isCallable(val interface{}) bool {
	if val == nil {
		return false
	}
	rv := reflect.ValueOf(val)
	return rv.Kind() == reflect.Func && !rv.IsNil()
}

// callLambda invokes a lambda value. body is non-nil for section lambdas,
// which receive the section's raw source text; variable lambdas take no
// argument. A second error result, when present, propagates unmodified.
func callLambda(val interface{}, body *string) (string, error) {
	switch fn := val.(type) {
	case func() string:
		return fn(), nil
	case func() (string, error):
		return fn()
	case func(string) string:
		if body == nil {
			return fn(""), nil
		}
		return fn(*body), nil
	case func(string) (string, error):
		if body == nil {
			return fn("")
		}
		return fn(*body)
	}

	return callLambdaReflect(reflect.ValueOf(val), body)
}

func callLambdaReflect(fn reflect.Value, body *string) (string, error) {
	fnType := fn.Type()

	var args []reflect.Value
	switch {
	case fnType.NumIn() == 0:
	case fnType.NumIn() == 1 && fnType.In(0).Kind() == reflect.String:
		var arg string
		if body != nil {
			arg = *body
		}
		args = append(args, reflect.ValueOf(arg))
	default:
		return "", fmt.Errorf("Unsupported lambda signature %s", fnType)
	}

	if fnType.NumOut() < 1 || fnType.NumOut() > 2 || fnType.Out(0).Kind() != reflect.String {
		return "", fmt.Errorf("Unsupported lambda signature %s", fnType)
	}
	if fnType.NumOut() == 2 && !fnType.Out(1).Implements(errorType) {
		return "", fmt.Errorf("Unsupported lambda signature %s", fnType)
	}

	outs := fn.Call(args)
	result := outs[0].String()

	if len(outs) == 2 && !outs[1].IsNil() {
		return "", outs[1].Interface().(error)
	}

	return result, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// isEmptyValue reports whether a bound value is falsy/empty: false, nil,
// the empty string, or an empty collection.
func isEmptyValue(val interface{}) bool {
	switch typedVal := val.(type) {
	case nil:
		return true
	case bool:
		return !typedVal
	case string:
		return len(typedVal) == 0
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// sequenceOf returns the elements of an iterable collection in order.
// Slices and arrays iterate; maps and structs are scalars pushed once by
// the caller. Strings never iterate.
func sequenceOf(val interface{}) ([]interface{}, bool) {
	if typedVal, ok := val.([]interface{}); ok {
		return typedVal, true
	}

	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, isBytes := val.([]byte); isBytes {
		return nil, false
	}

	items := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
