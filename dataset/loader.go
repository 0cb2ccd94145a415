package dataset

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"
	_ "modernc.org/sqlite"

	"reviewsentiment/config"
)

// Table is a loaded tabular source. Missing cells have Valid == false.
type Table struct {
	Columns []string
	Rows    [][]sql.NullString
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// LoadOptions selects how a source is read.
type LoadOptions struct {
	// Format is "csv", "sqlite" or "auto" (by file extension).
	Format string
	// Table names the SQLite table to read.
	Table string
	// Encoding is an IANA charset name. Empty means UTF-8.
	Encoding string
}

// missingTokens are CSV cell values treated as missing.
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "#NA": {}, "<NA>": {},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads a CSV file or SQLite table into a Table.
func Load(path string, opts LoadOptions) (*Table, error) {
	switch format := resolveFormat(path, opts.Format); format {
	case "csv":
		return LoadCSV(path, opts.Encoding)
	case "sqlite":
		return LoadSQLite(path, opts.Table)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", config.ErrConfiguration, format)
	}
}

func resolveFormat(path, format string) string {
	if format != "" && format != "auto" {
		return format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	}
	return "csv"
}

// LoadCSV reads a CSV file whose first row is the header. Bytes are decoded
// from encoding first; invalid UTF-8 is a load error naming the line.
func LoadCSV(path, encoding string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoad, path, err)
	}
	data, err = decode(data, encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	return parseCSV(bytes.NewReader(data))
}

func decode(data []byte, encoding string) ([]byte, error) {
	if config.IsUTF8(encoding) {
		data = bytes.TrimPrefix(data, utf8BOM)
		if line := invalidUTF8Line(data); line > 0 {
			return nil, fmt.Errorf("invalid utf-8 on line %d (set a different encoding)", line)
		}
		return data, nil
	}
	enc, err := ianaindex.IANA.Encoding(encoding)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: unsupported encoding %q", config.ErrConfiguration, encoding)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", encoding, err)
	}
	return bytes.TrimPrefix(out, utf8BOM), nil
}

// invalidUTF8Line returns the 1-based line of the first invalid UTF-8
// sequence, or 0.
func invalidUTF8Line(data []byte) int {
	if utf8.Valid(data) {
		return 0
	}
	line := 1
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		data = data[size:]
	}
	return 0
}

func parseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrLoad)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrLoad, err)
	}
	t := &Table{Columns: append([]string(nil), header...)}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: expected %d fields, saw %d",
				ErrLoad, line, len(header), len(record))
		}
		row := make([]sql.NullString, len(header))
		for i, v := range record {
			if _, missing := missingTokens[v]; !missing {
				row[i] = sql.NullString{String: v, Valid: true}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// LoadSQLite reads every row of table from the SQLite database at path.
// SQL NULL cells are missing.
func LoadSQLite(path, table string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", ErrLoad, path, err)
	}
	if table == "" {
		return nil, fmt.Errorf("%w: sqlite source %s needs a table name", config.ErrConfiguration, path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrLoad, path, err)
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf(`SELECT * FROM %q`, table))
	if err != nil {
		return nil, fmt.Errorf("%w: query %s table %q: %w", ErrLoad, path, table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %w", ErrLoad, err)
	}
	t := &Table{Columns: cols}
	for rows.Next() {
		row := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan row %d: %w", ErrLoad, len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return t, nil
}
