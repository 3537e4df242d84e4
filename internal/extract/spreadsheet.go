package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetExtractor renders the first worksheet of an xlsx workbook as a
// table, using the first row as the header.
type SpreadsheetExtractor struct{}

func (SpreadsheetExtractor) Kind() Kind { return KindSpreadsheet }

func (SpreadsheetExtractor) Extract(_ context.Context, f File) (Result, error) {
	if len(f.Data) == 0 {
		return Result{}, ErrEmptyFile
	}
	wb, err := excelize.OpenReader(bytes.NewReader(f.Data))
	if err != nil {
		return Result{}, fmt.Errorf("opening workbook %s: %w", f.Name, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, errors.New("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	var nonBlank [][]string
	for _, r := range rows {
		if !blankRow(r) {
			nonBlank = append(nonBlank, r)
		}
	}
	if len(nonBlank) == 0 {
		return Result{}, nil
	}
	return Result{Text: RenderTable(nonBlank[0], nonBlank[1:])}, nil
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
