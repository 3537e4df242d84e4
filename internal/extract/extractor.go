// Package extract turns uploaded files into plain text, one extractor per
// file kind.
package extract

import (
	"context"
	"errors"
	"strings"
)

// Kind identifies a family of file formats handled by one extractor.
type Kind string

const (
	KindImage        Kind = "image"
	KindPDF          Kind = "pdf"
	KindText         Kind = "text"
	KindDocument     Kind = "document"
	KindSpreadsheet  Kind = "spreadsheet"
	KindPresentation Kind = "presentation"
	KindCSV          Kind = "csv"
)

// ErrEmptyFile is returned by extractors that cannot make sense of zero bytes.
var ErrEmptyFile = errors.New("file is empty")

// File is an uploaded file handed to an extractor.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Result is the outcome of an extraction. Notice, when set, names a fixed
// message explaining why no text came out of the file.
type Result struct {
	Text   string
	Notice string
}

// Found reports whether the extraction produced non-blank text.
func (r Result) Found() bool {
	return strings.TrimSpace(r.Text) != ""
}

// Extractor reads the textual content of one kind of file. Extractors keep
// no state between files.
type Extractor interface {
	Kind() Kind
	Extract(ctx context.Context, f File) (Result, error)
}
