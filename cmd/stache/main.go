// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	uierrs "github.com/cppforlife/go-cli-ui/errors"

	"github.com/stachehq/stache/pkg/cmd"
)

func main() {
	command := cmd.NewDefaultStacheCmd()

	err := command.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stache: Error: %s\n", uierrs.NewMultiLineError(err))
		os.Exit(1)
	}
}
