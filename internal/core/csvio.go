package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// ReadRaw reads a CSV file with a header row into a Table.
// Header names are cleaned according to style and every rename is logged.
// Cells are converted with ToPgText, so blanks and null markers become null.
func ReadRaw(path string, style HeaderStyle) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Code: CodeReadOpen, Path: path, Err: err}
	}
	defer f.Close()

	t, err := readTable(f, style)
	if err != nil {
		return nil, &ReadError{Code: CodeReadParse, Path: path, Err: err}
	}

	slog.Info("loaded raw data", "path", path, "rows", t.Len(), "columns", len(t.Columns))
	return t, nil
}

// ReadEntity reads an entity's CSV and checks its header against the
// definition's required columns.
func ReadEntity(path string, def TableDefinition) (*Table, error) {
	t, err := ReadRaw(path, def.Info.HeaderStyle)
	if err != nil {
		return nil, err
	}
	if _, err := ValidateHeaders(t.Columns, def.FieldSpecs); err != nil {
		return nil, &ReadError{Code: CodeReadColumns, Path: path, Err: err}
	}
	return t, nil
}

func readTable(r io.Reader, style HeaderStyle) (*Table, error) {
	cr := NewCSVReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	columns := make([]string, len(header))
	var renames []string
	for i, h := range header {
		columns[i] = CleanHeader(h, style)
		if columns[i] != h {
			renames = append(renames, fmt.Sprintf("%s -> %s", h, columns[i]))
		}
	}
	if len(renames) > 0 {
		slog.Info("cleaned column names", "renames", strings.Join(renames, ", "))
	}

	t := NewTable(columns)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]pgtype.Text, len(record))
		for i, v := range record {
			row[i] = ToPgText(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WritePrepared writes t as CSV with a header row and no index column.
// Null cells are written as empty fields. The parent directory is created
// and an existing file is overwritten in place.
func WritePrepared(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := writeTable(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	slog.Info("saved prepared data", "path", path, "rows", t.Len())
	return nil
}

func writeTable(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Strings()); err != nil {
		return err
	}
	return cw.Error()
}
