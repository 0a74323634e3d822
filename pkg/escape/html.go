// Copyright 2024 The Stache Authors.
// SPDX-License-Identifier: Apache-2.0

// Package escape provides the charset-aware reserved-character encoder
// applied to escaped-variable output.
package escape

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/stachehq/stache/pkg/template"
)

// HTML entity-encodes the reserved characters `&`, `<`, `>`, `"` and `'`.
// When configured with an output charset, characters the charset cannot
// represent become numeric character references.
type HTML struct {
	charset string
	enc     encoding.Encoding
}

var _ template.Escaper = &HTML{}

// NewHTML returns an escaper for UTF-8 output; every character is
// representable, so only the reserved set is encoded.
func NewHTML() *HTML {
	return &HTML{charset: "utf-8"}
}

// NewHTMLForCharset returns an escaper for a named output charset
// (e.g. "iso-8859-1"). The name is resolved the way browsers resolve it.
func NewHTMLForCharset(name string) (*HTML, error) {
	if strings.EqualFold(name, "utf-8") || len(name) == 0 {
		return NewHTML(), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("Resolving charset '%s': %w", name, err)
	}

	return &HTML{charset: name, enc: enc}, nil
}

func (e *HTML) Charset() string { return e.charset }

func (e *HTML) Escape(s string) string {
	var encoder *encoding.Encoder
	if e.enc != nil {
		encoder = e.enc.NewEncoder()
	}

	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		default:
			if encoder == nil || canEncode(encoder, r) {
				b.WriteRune(r)
			} else {
				fmt.Fprintf(&b, "&#x%X;", r)
			}
		}
	}

	return b.String()
}

func canEncode(encoder *encoding.Encoder, r rune) bool {
	_, err := encoder.Bytes([]byte(string(r)))
	return err == nil
}
