package frame

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a headered CSV stream into a Table, inferring each cell's kind.
// Repeated header names are disambiguated with a ".N" suffix.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := dedupeHeader(header)

	var rows [][]Value
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		row := make([]Value, len(record))
		for i, field := range record {
			row[i] = ParseCell(field)
		}
		rows = append(rows, row)
	}

	return &Table{Name: name, Columns: columns, Rows: rows}, nil
}

func dedupeHeader(header []string) []string {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			columns[i] = h + "." + strconv.Itoa(n+1)
			continue
		}
		seen[h] = 0
		columns[i] = h
	}
	return columns
}

// ReadCSVFile reads a CSV file; the table is named after the file without its extension.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, err := ReadCSV(f, name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}

// WriteCSV writes the header and every row, formatting cells with Value.String.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = v.String()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// MarshalCSV renders the table as CSV bytes.
func MarshalCSV(t *Table) ([]byte, error) {
	var buffer bytes.Buffer
	if err := WriteCSV(&buffer, t); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
