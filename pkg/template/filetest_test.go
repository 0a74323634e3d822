// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package template_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/k14s/difflib"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stachehq/stache/pkg/scope"
	"github.com/stachehq/stache/pkg/workspace"
)

// Filetests hold template, data values and expected output separated by
// `+++` lines. The template piece carries no trailing newline; expected
// output is compared byte for byte.
func TestFiletests(t *testing.T) {
	fileInfos, err := os.ReadDir("filetests")
	require.NoError(t, err)
	require.NotEmpty(t, fileInfos)

	for _, fileInfo := range fileInfos {
		fileInfo := fileInfo
		t.Run(fileInfo.Name(), func(t *testing.T) {
			contents, err := os.ReadFile(filepath.Join("filetests", fileInfo.Name()))
			require.NoError(t, err)

			pieces := strings.SplitN(string(contents), "\n+++\n", 3)
			require.Len(t, pieces, 3, "expected template, data values and output pieces")

			var values map[string]interface{}
			require.NoError(t, yaml.Unmarshal([]byte(pieces[1]), &values))

			loader := workspace.NewTemplateLoader(nil, nil)

			compiled, err := loader.Compile(fileInfo.Name(), pieces[0])
			require.NoError(t, err)

			result, err := compiled.Render(scope.NewStack(values), "", true)
			require.NoError(t, err)

			if result != pieces[2] {
				t.Fatalf("Not equal; diff expected...actual:\n%v\n",
					difflib.PPDiff(strings.Split(pieces[2], "\n"), strings.Split(result, "\n")))
			}
		})
	}
}
