// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template_test

import (
	"errors"
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/stachehq/stache/pkg/scope"
	"github.com/stachehq/stache/pkg/template"
	"github.com/stachehq/stache/pkg/workspace"
)

func compileTemplate(t *testing.T, source string, library *workspace.Library) *template.Program {
	loader := workspace.NewTemplateLoader(library, nil)

	compiled, err := loader.Compile("test", source)
	require.NoError(t, err)

	return compiled
}

func renderTemplate(t *testing.T, source string, values interface{}) string {
	compiled := compileTemplate(t, source, nil)

	result, err := compiled.Render(scope.NewStack(values), "", true)
	require.NoError(t, err)

	return result
}

func TestRenderPlainText(t *testing.T) {
	source := "no tags here,\njust text\t(really)."
	require.Equal(t, source, renderTemplate(t, source, map[string]interface{}{}))
}

func TestRenderPlainTextFuzz(t *testing.T) {
	f := fuzz.New().NumElements(0, 256)

	for i := 0; i < 100; i++ {
		var source string
		f.Fuzz(&source)
		source = strings.ReplaceAll(source, "{", "")

		require.Equal(t, source, renderTemplate(t, source, map[string]interface{}{}))
	}
}

func TestRenderVariables(t *testing.T) {
	values := map[string]interface{}{"html": `<b>"x" & 'y'</b>`}

	result := renderTemplate(t, "{{html}}", values)
	require.Equal(t, "&lt;b&gt;&quot;x&quot; &amp; &#39;y&#39;&lt;/b&gt;", result)

	result = renderTemplate(t, "{{{html}}}", values)
	require.Equal(t, `<b>"x" & 'y'</b>`, result)

	result = renderTemplate(t, "{{& html}}", values)
	require.Equal(t, `<b>"x" & 'y'</b>`, result)
}

func TestRenderEscapeSwitchOff(t *testing.T) {
	compiled := compileTemplate(t, "{{html}}", nil)

	result, err := compiled.Render(scope.NewStack(map[string]interface{}{"html": "<b>"}), "", false)
	require.NoError(t, err)
	require.Equal(t, "<b>", result)
}

func TestRenderMissingVariable(t *testing.T) {
	require.Equal(t, "()", renderTemplate(t, "({{absent}})", map[string]interface{}{}))
}

func TestRenderSectionList(t *testing.T) {
	values := map[string]interface{}{"items": []interface{}{"a", "b", "c"}}

	result := renderTemplate(t, "{{#items}}{{.}},{{/items}}", values)
	require.Equal(t, "a,b,c,", result)
}

func TestRenderSectionFalsy(t *testing.T) {
	for _, val := range []interface{}{false, nil, "", []interface{}{}, map[string]interface{}{}} {
		values := map[string]interface{}{"v": val}
		require.Equal(t, "", renderTemplate(t, "{{#v}}never{{/v}}", values), "value %#v", val)
	}

	require.Equal(t, "", renderTemplate(t, "{{#absent}}never{{/absent}}", map[string]interface{}{}))
}

func TestRenderSectionScalar(t *testing.T) {
	values := map[string]interface{}{
		"user": map[string]interface{}{"name": "Ada"},
		"n":    1,
	}

	result := renderTemplate(t, "{{#user}}{{name}}{{/user}}", values)
	require.Equal(t, "Ada", result)

	// truthy non-iterable scalar renders children exactly once
	result = renderTemplate(t, "{{#n}}x{{/n}}", values)
	require.Equal(t, "x", result)
}

func TestRenderInvertedSection(t *testing.T) {
	result := renderTemplate(t, "{{^items}}none{{/items}}",
		map[string]interface{}{"items": []interface{}{}})
	require.Equal(t, "none", result)

	result = renderTemplate(t, "{{^items}}none{{/items}}",
		map[string]interface{}{"items": []interface{}{"a"}})
	require.Equal(t, "", result)
}

func TestRenderInvertedSectionKeepsContext(t *testing.T) {
	compiled := compileTemplate(t, "{{^absent}}{{name}}{{/absent}}", nil)

	stack := scope.NewStack(map[string]interface{}{"name": "Ada"})
	result, err := compiled.Render(stack, "", false)
	require.NoError(t, err)
	require.Equal(t, "Ada", result)
	require.Equal(t, 1, stack.Len())
}

func TestRenderDottedResolvesFromRoot(t *testing.T) {
	values := map[string]interface{}{
		"a":     map[string]interface{}{"b": map[string]interface{}{"c": "deep"}},
		"other": map[string]interface{}{"a": "shadow"},
	}

	// pushing an unrelated scope does not change dotted resolution
	require.Equal(t, "deep", renderTemplate(t, "{{a.b.c}}", values))
	require.Equal(t, "deep", renderTemplate(t, "{{#other}}{{a.b.c}}{{/other}}", values))
}

func TestRenderIndent(t *testing.T) {
	compiled := compileTemplate(t, "a\nb\n", nil)

	result, err := compiled.Render(scope.NewStack(map[string]interface{}{}), "  ", false)
	require.NoError(t, err)
	require.Equal(t, "  a\n  b\n", result)
}

func TestRenderIndentMultilineValue(t *testing.T) {
	compiled := compileTemplate(t, "{{v}}", nil)

	values := map[string]interface{}{"v": "x\ny"}
	result, err := compiled.Render(scope.NewStack(values), "  ", false)
	require.NoError(t, err)
	require.Equal(t, "  x\n  y", result)
}

func TestRenderPartialIndent(t *testing.T) {
	library := workspace.NewLibrary()
	library.AddTemplate("greeting", "line1\nline2\n")

	compiled := compileTemplate(t, "  {{>greeting}}\n", library)

	result, err := compiled.Render(scope.NewStack(map[string]interface{}{}), "", false)
	require.NoError(t, err)
	require.Equal(t, "  line1\n  line2\n", result)
}

func TestRenderNestedPartialIndentsAccumulate(t *testing.T) {
	library := workspace.NewLibrary()
	library.AddTemplate("outer", "a\n  {{>inner}}\n")
	library.AddTemplate("inner", "x\ny\n")

	compiled := compileTemplate(t, "\t{{>outer}}\n", library)

	result, err := compiled.Render(scope.NewStack(map[string]interface{}{}), "", false)
	require.NoError(t, err)
	require.Equal(t, "\ta\n\t  x\n\t  y\n", result)
}

func TestRenderPartialSeesCurrentContext(t *testing.T) {
	library := workspace.NewLibrary()
	library.AddTemplate("row", "[{{name}}]")

	values := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "a"},
			map[string]interface{}{"name": "b"},
		},
	}

	compiled := compileTemplate(t, "{{#items}}{{>row}}{{/items}}", library)

	result, err := compiled.Render(scope.NewStack(values), "", false)
	require.NoError(t, err)
	require.Equal(t, "[a][b]", result)
}

func TestRenderMissingPartial(t *testing.T) {
	compiled := compileTemplate(t, "{{>absent}}", nil)

	_, err := compiled.Render(scope.NewStack(map[string]interface{}{}), "", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "partial 'absent'")
}

func TestRenderVariableLambda(t *testing.T) {
	values := map[string]interface{}{
		"x":   "World",
		"lam": func() string { return "{{x}}" },
	}

	// the lambda result is re-rendered as a template, not emitted literally
	require.Equal(t, "World", renderTemplate(t, "{{lam}}", values))
}

func TestRenderSectionLambda(t *testing.T) {
	values := map[string]interface{}{
		"x": "World",
		"wrap": func(body string) string {
			return "<" + body + ">"
		},
	}

	// lambda receives the raw body and its rendered result is emitted
	// verbatim, untouched by escaping
	result := renderTemplate(t, "{{#wrap}}raw {{x}} body{{/wrap}}", values)
	require.Equal(t, "<raw World body>", result)
}

func TestRenderSectionLambdaCustomDelimiters(t *testing.T) {
	values := map[string]interface{}{
		"x":    "World",
		"wrap": func(body string) string { return body },
	}

	result := renderTemplate(t, "{{=<% %>=}}<%#wrap%>-<%x%>-<%/wrap%>", values)
	require.Equal(t, "-World-", result)
}

func TestRenderSelfReferentialPartial(t *testing.T) {
	library := workspace.NewLibrary()
	library.AddTemplate("loop", "{{>loop}}")

	compiled := compileTemplate(t, "{{>loop}}", library)

	_, err := compiled.Render(scope.NewStack(map[string]interface{}{}), "", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "max render depth")
}

func TestRenderSectionUnwindsOnError(t *testing.T) {
	values := map[string]interface{}{
		"items": []interface{}{map[string]interface{}{}},
		"boom":  func() (string, error) { return "", errors.New("kaboom") },
	}

	compiled := compileTemplate(t, "{{#items}}{{boom}}{{/items}}", nil)

	stack := scope.NewStack(values)
	_, err := compiled.Render(stack, "", false)
	require.EqualError(t, err, "kaboom")
	require.Equal(t, 1, stack.Len())
}

func TestRenderConcurrent(t *testing.T) {
	compiled := compileTemplate(t, "Hello {{name}}!", nil)

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			result, err := compiled.Render(
				scope.NewStack(map[string]interface{}{"name": "World"}), "", false)
			if err == nil && result != "Hello World!" {
				err = errors.New("unexpected result: " + result)
			}
			done <- err
		}()
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}
}

func TestDebugCodeListsSharedRoutineOnce(t *testing.T) {
	compiled := compileTemplate(t, "{{#a}}X{{/a}}{{#b}}X{{/b}}", nil)

	listing := compiled.DebugCodeAsString()
	require.Equal(t, 2, strings.Count(listing, "emit_section"))
	require.Equal(t, 1, strings.Count(listing, "routine "))
}
