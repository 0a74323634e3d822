// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

// Package files provides the input sources the CLI reads templates and
// data values from.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Source interface {
	Description() string
	RelativePath() string
	Bytes() ([]byte, error)
}

var _ = []Source{BytesSource{}, StdinSource{}, LocalSource{}}

type BytesSource struct {
	path string
	data []byte
}

func NewBytesSource(path string, data []byte) BytesSource { return BytesSource{path, data} }

func (s BytesSource) Description() string    { return s.path }
func (s BytesSource) RelativePath() string   { return s.path }
func (s BytesSource) Bytes() ([]byte, error) { return s.data, nil }

type StdinSource struct {
	bytes []byte
	err   error
}

func NewStdinSource() StdinSource {
	// only read stdin once
	bs, err := io.ReadAll(os.Stdin)
	return StdinSource{bs, err}
}

func (s StdinSource) Description() string    { return "stdin" }
func (s StdinSource) RelativePath() string   { return "stdin" }
func (s StdinSource) Bytes() ([]byte, error) { return s.bytes, s.err }

type LocalSource struct {
	path string
}

func NewLocalSource(path string) LocalSource { return LocalSource{path} }

func (s LocalSource) Description() string    { return fmt.Sprintf("file '%s'", s.path) }
func (s LocalSource) RelativePath() string   { return filepath.Base(s.path) }
func (s LocalSource) Bytes() ([]byte, error) { return os.ReadFile(s.path) }

// NewSource picks stdin for "-" and a local file otherwise.
func NewSource(path string) Source {
	if path == "-" {
		return NewStdinSource()
	}
	return NewLocalSource(path)
}
