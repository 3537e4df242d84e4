package extract

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"strings"

	"github.com/marcboeker/go-duckdb"
)

// CSVOptions tunes the embedded DuckDB engine used to read CSV files.
type CSVOptions struct {
	TempDir     string
	Threads     int
	MemoryLimit string
}

// CSVExtractor reads CSV uploads through an in-memory DuckDB database,
// letting DuckDB sniff delimiters and quoting.
type CSVExtractor struct {
	db      *sql.DB
	tempDir string
}

// NewCSVExtractor opens the in-memory database. Close releases it.
func NewCSVExtractor(opts CSVOptions) (*CSVExtractor, error) {
	connector, err := duckdb.NewConnector("", func(execer driver.ExecerContext) error {
		var pragmas []string
		if opts.MemoryLimit != "" {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit=%s", quoteLiteral(opts.MemoryLimit)))
		}
		if opts.Threads > 0 {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}
	return &CSVExtractor{db: sql.OpenDB(connector), tempDir: opts.TempDir}, nil
}

// Close closes the database.
func (e *CSVExtractor) Close() error {
	return e.db.Close()
}

func (e *CSVExtractor) Kind() Kind { return KindCSV }

func (e *CSVExtractor) Extract(ctx context.Context, f File) (Result, error) {
	if len(bytes.TrimSpace(f.Data)) == 0 {
		return Result{}, ErrEmptyFile
	}

	tmp, err := os.CreateTemp(e.tempDir, "upload-*.csv")
	if err != nil {
		return Result{}, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(f.Data); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, err
	}

	query := fmt.Sprintf("SELECT * FROM read_csv_auto(%s, header=true, all_varchar=true)", quoteLiteral(tmp.Name()))
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("reading csv %s: %w", f.Name, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	var data [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(header))
		ptrs := make([]any, len(header))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, fmt.Errorf("scanning csv row: %w", err)
		}
		row := make([]string, len(header))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return Result{Text: RenderTable(header, data)}, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
