// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

package version

// Version is the build version of the stache binary.
var Version = "0.4.0"
