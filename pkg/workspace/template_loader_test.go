// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stachehq/stache/pkg/scope"
	"github.com/stachehq/stache/pkg/template"
	"github.com/stachehq/stache/pkg/workspace"
)

func TestLoadPartialCaches(t *testing.T) {
	library := workspace.NewLibrary()
	library.AddTemplate("p", "hello")

	loader := workspace.NewTemplateLoader(library, nil)

	first, err := loader.LoadPartial("p")
	require.NoError(t, err)

	second, err := loader.LoadPartial("p")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestLoadPartialMissing(t *testing.T) {
	loader := workspace.NewTemplateLoader(workspace.NewLibrary(), nil)

	_, err := loader.LoadPartial("absent")
	require.EqualError(t, err, "Expected to find partial 'absent' within library")
}

func TestLoadLambdaTemplateCaches(t *testing.T) {
	loader := workspace.NewTemplateLoader(nil, nil)

	first, err := loader.LoadLambdaTemplate("{{x}}", nil)
	require.NoError(t, err)

	second, err := loader.LoadLambdaTemplate("{{x}}", nil)
	require.NoError(t, err)
	require.Same(t, first, second)

	delims := &template.DelimiterPair{Open: "<%", Close: "%>"}
	third, err := loader.LoadLambdaTemplate("{{x}}", delims)
	require.NoError(t, err)
	require.NotSame(t, first, third)
}

func TestLoadLambdaTemplateCustomDelimiters(t *testing.T) {
	loader := workspace.NewTemplateLoader(nil, nil)

	delims := &template.DelimiterPair{Open: "<%", Close: "%>"}
	compiled, err := loader.LoadLambdaTemplate("-<%x%>-", delims)
	require.NoError(t, err)

	result, err := compiled.Render(scope.NewStack(map[string]interface{}{"x": "y"}), "", false)
	require.NoError(t, err)
	require.Equal(t, "-y-", result)
}

func TestNewLibraryFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "shared"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "row.mustache"), []byte("[{{.}}]"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared", "footer.mustache"), []byte("--"), 0600))

	library, err := workspace.NewLibraryFromDir(dir)
	require.NoError(t, err)

	source, found := library.Source("row")
	require.True(t, found)
	require.Equal(t, "[{{.}}]", source)

	_, found = library.Source("shared/footer")
	require.True(t, found)
}

func TestCompileWiresLoaderForPartials(t *testing.T) {
	library := workspace.NewLibrary()
	library.AddTemplate("inner", "{{name}}")

	loader := workspace.NewTemplateLoader(library, nil)

	compiled, err := loader.Compile("outer", "<{{>inner}}>")
	require.NoError(t, err)

	result, err := compiled.Render(scope.NewStack(map[string]interface{}{"name": "Ada"}), "", false)
	require.NoError(t, err)
	require.Equal(t, "<Ada>", result)
}
