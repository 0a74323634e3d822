// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

// Package workspace resolves partial names and lambda-produced template
// source into compiled Programs, caching compiled artifacts for the life
// of the process.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Library maps partial names to template source. Names carry no extension;
// a directory-backed library strips the file extension when registering.
type Library struct {
	sources map[string]string
}

func NewLibrary() *Library {
	return &Library{sources: map[string]string{}}
}

// NewLibraryFromDir registers every regular file under path (recursively)
// as a partial named by its extension-less path relative to the root,
// slash-separated.
func NewLibraryFromDir(path string) (*Library, error) {
	library := NewLibrary()

	err := filepath.Walk(path, func(walkedPath string, fi os.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return err
		}

		relPath, err := filepath.Rel(path, walkedPath)
		if err != nil {
			return err
		}

		bs, err := os.ReadFile(walkedPath)
		if err != nil {
			return fmt.Errorf("Reading partial '%s': %w", walkedPath, err)
		}

		name := filepath.ToSlash(relPath)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		library.AddTemplate(name, string(bs))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return library, nil
}

func (l *Library) AddTemplate(name, source string) {
	l.sources[name] = source
}

func (l *Library) Source(name string) (string, bool) {
	source, found := l.sources[name]
	return source, found
}
