// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"

	"github.com/stachehq/stache/pkg/version"
)

func NewDefaultStacheCmd() *cobra.Command {
	return NewStacheCmd(NewRenderOptions())
}

func NewStacheCmd(o *RenderOptions) *cobra.Command {
	cmd := NewRenderCmd(o)

	cmd.Use = "stache"
	cmd.Aliases = nil
	cmd.Version = version.Version
	cmd.Short = "stache renders Mustache templates"
	cmd.Long = `stache renders Mustache templates.

Templates are compiled once and rendered against data values supplied as
YAML or TOML files; partials resolve within a partials directory.`

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	cmd.DisableAutoGenTag = true

	cmd.AddCommand(NewVersionCmd(NewVersionOptions()))
	cmd.AddCommand(NewRenderCmd(NewRenderOptions())) // explicit form of the top-level command

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.DisallowExtraArgs, cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd))

	return cmd
}
