// Package extract turns uploaded contract files into plain text.
// Real parsing of binary formats is delegated to external tooling;
// this package models the extraction contract and its error surface.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"letrado/internal/types"
)

// Extractor produces plain text from an uploaded file.
type Extractor interface {
	// Extract returns the text content of the named file. Unsupported
	// or undecodable formats yield a format error.
	Extract(filename string, data []byte) (string, error)
}

// PlainText handles text-native formats (.txt, .md). Anything else is
// rejected with a format error so the caller can map it to an
// unsupported-media response.
type PlainText struct{}

func NewPlainText() *PlainText { return &PlainText{} }

func (e *PlainText) Extract(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md", ".text":
	default:
		return "", types.NewFormatError(fmt.Sprintf("unsupported file format %q", ext))
	}

	if !utf8.Valid(data) {
		return "", types.NewFormatError(fmt.Sprintf("file %s is not valid UTF-8 text", filename))
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", types.NewFormatError(fmt.Sprintf("file %s contains no text", filename))
	}
	return text, nil
}
