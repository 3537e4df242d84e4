package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MissingCell is rendered for cells a row does not have.
const MissingCell = "NaN"

// RenderTable lays out a header and rows as a right-aligned text table with
// a leading row index, columns separated by two spaces. A table without rows
// renders as a short "Empty DataFrame" description.
func RenderTable(header []string, rows [][]string) string {
	width := len(header)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	cols := make([]string, width)
	for i := range cols {
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			cols[i] = header[i]
		} else {
			cols[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}

	if len(rows) == 0 {
		return fmt.Sprintf("Empty DataFrame\nColumns: [%s]\nIndex: []", strings.Join(cols, ", "))
	}

	cells := make([][]string, len(rows))
	colWidth := make([]int, width)
	for i, c := range cols {
		colWidth[i] = utf8.RuneCountInString(c)
	}
	for r, row := range rows {
		cells[r] = make([]string, width)
		for c := 0; c < width; c++ {
			v := MissingCell
			if c < len(row) && row[c] != "" {
				v = row[c]
			}
			cells[r][c] = v
			if n := utf8.RuneCountInString(v); n > colWidth[c] {
				colWidth[c] = n
			}
		}
	}
	indexWidth := len(strconv.Itoa(len(rows) - 1))

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	for c, name := range cols {
		b.WriteString("  ")
		b.WriteString(padLeft(name, colWidth[c]))
	}
	for r, row := range cells {
		b.WriteString("\n")
		b.WriteString(padRight(strconv.Itoa(r), indexWidth))
		for c, v := range row {
			b.WriteString("  ")
			b.WriteString(padLeft(v, colWidth[c]))
		}
	}
	return b.String()
}

func padLeft(s string, w int) string {
	if n := utf8.RuneCountInString(s); n < w {
		return strings.Repeat(" ", w-n) + s
	}
	return s
}

func padRight(s string, w int) string {
	if n := utf8.RuneCountInString(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}
