package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is one decoded sheet.
type Table struct {
	Path    string
	Sheet   string
	Headers []string
	Rows    []map[string]string
	// Skipped counts rows that could not be parsed.
	Skipped int
}

// Name returns the base file name of the table.
func (t Table) Name() string { return filepath.Base(t.Path) }

var tabularExtensions = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".xlsx": true,
	".xls":  true,
}

// IsTabular reports whether path names a spreadsheet or CSV export.
func IsTabular(path string) bool {
	return tabularExtensions[strings.ToLower(filepath.Ext(path))]
}

// Readable reports whether ReadFile can decode path.
func Readable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return true
	}
	return false
}

// Discover returns every tabular file under root in lexical order.
func Discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsTabular(path) && !strings.HasPrefix(d.Name(), "~$") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover tabular files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile decodes a CSV or TSV export. Rows with a parse error are skipped
// and counted; short rows are padded and long rows truncated to the header
// width.
func ReadFile(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	decoded, err := decode(raw)
	if err != nil {
		return Table{}, fmt.Errorf("decode %s: %w", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	} else if sniffSemicolon(decoded) {
		reader.Comma = ';'
	}

	table := Table{Path: path, Sheet: SheetName(path)}
	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return table, nil
		}
		return Table{}, fmt.Errorf("read header row of %s: %w", path, err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}
	table.Headers = headers

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			table.Skipped++
			continue
		}
		if blankRow(row) {
			continue
		}
		if len(row) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, row)
			row = padded
		}
		record := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			record[h] = strings.TrimSpace(row[i])
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// SheetName extracts the sheet from "<workbook> - <sheet>.csv". Files without
// the separator use their base name.
func SheetName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.LastIndex(base, " - "); idx >= 0 {
		return strings.TrimSpace(base[idx+3:])
	}
	return strings.TrimSpace(base)
}

func decode(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	if bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
		return out, err
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return raw, nil
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), raw)
	return out, err
}

func sniffSemicolon(data []byte) bool {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	return bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','})
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
