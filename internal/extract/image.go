package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rag-file-chatbot/backend/internal/ocr"
)

// ImageExtractor runs OCR over PNG and JPEG images.
type ImageExtractor struct {
	reader ocr.Reader
}

func NewImageExtractor(reader ocr.Reader) *ImageExtractor {
	return &ImageExtractor{reader: reader}
}

func (e *ImageExtractor) Kind() Kind { return KindImage }

func (e *ImageExtractor) Extract(ctx context.Context, f File) (Result, error) {
	if len(f.Data) == 0 {
		return Result{}, ErrEmptyFile
	}
	lines, err := e.reader.ReadText(ctx, f.Data, NormalizeMIME(f.MIMEType))
	if err != nil {
		return Result{}, fmt.Errorf("ocr %s: %w", f.Name, err)
	}
	return Result{Text: strings.Join(lines, "\n")}, nil
}
