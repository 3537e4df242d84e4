package extract

import (
	"bytes"
	"context"
	"errors"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextExtractor decodes plain UTF-8 text.
type TextExtractor struct{}

func (TextExtractor) Kind() Kind { return KindText }

func (TextExtractor) Extract(_ context.Context, f File) (Result, error) {
	data := bytes.TrimPrefix(f.Data, utf8BOM)
	if !utf8.Valid(data) {
		return Result{}, errors.New("text file is not valid UTF-8")
	}
	return Result{Text: string(data)}, nil
}
