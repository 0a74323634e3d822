// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cmdcore "github.com/stachehq/stache/pkg/cmd/core"
	"github.com/stachehq/stache/pkg/escape"
	"github.com/stachehq/stache/pkg/files"
	"github.com/stachehq/stache/pkg/scope"
	"github.com/stachehq/stache/pkg/version"
	"github.com/stachehq/stache/pkg/workspace"
)

type RenderOptions struct {
	Debug bool

	TemplateFile    string
	DataValuesFiles []string
	PartialsDir     string
	Indent          string
	Escape          bool
	Charset         string
	OutputFile      string
	RequiredVersion string
}

func NewRenderOptions() *RenderOptions {
	return &RenderOptions{Charset: "utf-8"}
}

func NewRenderCmd(o *RenderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "render",
		Aliases: []string{"r"},
		Short:   "Render a Mustache template against data values",
		RunE:    func(_ *cobra.Command, _ []string) error { return o.Run() },
	}
	cmd.Flags().StringVarP(&o.TemplateFile, "file", "f", "-",
		"Template file to render ('-' reads standard input)")
	cmd.Flags().StringArrayVar(&o.DataValuesFiles, "data-values-file", nil,
		"Data values file (.yml/.yaml or .toml; top-level keys of later files win)")
	cmd.Flags().StringVar(&o.PartialsDir, "partials-dir", "",
		"Directory of partial templates, named by extension-less relative path")
	cmd.Flags().StringVar(&o.Indent, "indent", "",
		"String prefixed to every output line")
	cmd.Flags().BoolVar(&o.Escape, "escape", false,
		"Entity-encode reserved characters in escaped-variable output")
	cmd.Flags().StringVar(&o.Charset, "charset", o.Charset,
		"Output charset used when escaping (characters it cannot represent become numeric references)")
	cmd.Flags().StringVarP(&o.OutputFile, "output", "o", "",
		"Write rendered output to file instead of standard output")
	cmd.Flags().BoolVar(&o.Debug, "debug", false,
		"Print the compiled instruction listing to stderr")
	cmd.Flags().StringVar(&o.RequiredVersion, "required-version", "",
		"Fail if the stache version is less than the required version")
	return cmd
}

func (o *RenderOptions) Run() error {
	ui := cmdcore.NewPlainUI(o.Debug)

	err := o.checkRequiredVersion()
	if err != nil {
		return err
	}

	src := files.NewSource(o.TemplateFile)
	templateBs, err := src.Bytes()
	if err != nil {
		return fmt.Errorf("Reading %s: %w", src.Description(), err)
	}

	escaper, err := escape.NewHTMLForCharset(o.Charset)
	if err != nil {
		return err
	}

	library := workspace.NewLibrary()
	if len(o.PartialsDir) > 0 {
		library, err = workspace.NewLibraryFromDir(o.PartialsDir)
		if err != nil {
			return fmt.Errorf("Loading partials from '%s': %w", o.PartialsDir, err)
		}
	}

	loader := workspace.NewTemplateLoader(library, escaper)

	compiled, err := loader.Compile(src.RelativePath(), string(templateBs))
	if err != nil {
		return err
	}

	ui.Debugf("%s\n", compiled.DebugCodeAsString())

	values, err := o.dataValues()
	if err != nil {
		return err
	}

	output, err := compiled.Render(scope.NewStack(values), o.Indent, o.Escape)
	if err != nil {
		return err
	}

	if len(o.OutputFile) > 0 {
		return os.WriteFile(o.OutputFile, []byte(output), 0600)
	}

	ui.Printf("%s", output)
	return nil
}

func (o *RenderOptions) checkRequiredVersion() error {
	if len(o.RequiredVersion) == 0 {
		return nil
	}

	required, err := goversion.NewVersion(o.RequiredVersion)
	if err != nil {
		return fmt.Errorf("Parsing required version: %w", err)
	}

	current, err := goversion.NewVersion(version.Version)
	if err != nil {
		return fmt.Errorf("Parsing binary version: %w", err)
	}

	if current.LessThan(required) {
		return fmt.Errorf("stache version '%s' does not meet the minimum required version '%s'",
			version.Version, o.RequiredVersion)
	}
	return nil
}

// dataValues merges data-values files in argument order; later files win
// per top-level key.
func (o *RenderOptions) dataValues() (map[string]interface{}, error) {
	values := map[string]interface{}{}

	for _, path := range o.DataValuesFiles {
		src := files.NewSource(path)
		bs, err := src.Bytes()
		if err != nil {
			return nil, fmt.Errorf("Reading %s: %w", src.Description(), err)
		}

		fileValues := map[string]interface{}{}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = toml.Unmarshal(bs, &fileValues)
		default:
			err = yaml.Unmarshal(bs, &fileValues)
		}
		if err != nil {
			return nil, fmt.Errorf("Parsing %s: %w", src.Description(), err)
		}

		for key, val := range fileValues {
			values[key] = val
		}
	}

	return values, nil
}
