package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/rag-file-chatbot/backend/internal/prompts"
)

// PDFExtractor reads the text layer of PDF pages in order. Unlike the other
// extractors it reports why nothing was found through Result.Notice.
type PDFExtractor struct{}

func (PDFExtractor) Kind() Kind { return KindPDF }

func (PDFExtractor) Extract(_ context.Context, f File) (res Result, err error) {
	if len(f.Data) == 0 {
		return Result{Notice: prompts.NoticePDFEmpty}, nil
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{Notice: prompts.NoticePDFCorrupted}, nil
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return Result{Notice: prompts.NoticePDFCorrupted}, nil
	}

	pages := make([]string, 0, rdr.NumPage())
	for i := 1; i <= rdr.NumPage(); i++ {
		pg := rdr.Page(i)
		if pg.V.IsNull() {
			continue
		}
		txt, err := pg.GetPlainText(nil)
		if err != nil {
			return Result{}, fmt.Errorf("reading page %d: %w", i, err)
		}
		pages = append(pages, txt)
	}

	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return Result{Notice: prompts.NoticePDFNoText}, nil
	}
	return Result{Text: text}, nil
}
