// Package sheet decodes uploaded spreadsheets (CSV or XLSX) into a
// domain.Table.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/heartmarshall/modelboard-ingest/internal/domain"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeText = "text/plain"
	mimeZip  = "application/zip"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read decodes data by sniffing its content. The filename is only used for
// the table and to break ties for generic zip containers.
func Read(filename string, data []byte) (*domain.Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.UserInputError("file %q is empty", filename)
	}

	mtype := mimetype.Detect(data)
	var (
		records [][]string
		err     error
	)
	switch {
	case mtype.Is(mimeXLSX),
		mtype.Is(mimeZip) && strings.EqualFold(filepath.Ext(filename), ".xlsx"):
		records, err = readXLSX(data)
	case isText(mtype):
		records, err = readCSV(data)
	default:
		return nil, domain.UserInputError("unsupported file type %s; upload a CSV or XLSX file", mtype.String())
	}
	if err != nil {
		return nil, err
	}
	return buildTable(filename, records)
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(mimeText) {
			return true
		}
	}
	return false
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.UserInputError("malformed CSV: %v", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.UserInputError("malformed XLSX: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.UserInputError("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// buildTable turns raw records into a table. The first non-blank record is
// the header row. Blank rows are dropped but still count toward line numbers.
func buildTable(filename string, records [][]string) (*domain.Table, error) {
	headerAt := -1
	for i, rec := range records {
		if !blank(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, domain.UserInputError("file %q has no header row", filename)
	}

	headers := uniqueHeaders(records[headerAt])
	table := &domain.Table{Filename: filename, Headers: headers}

	for i := headerAt + 1; i < len(records); i++ {
		rec := records[i]
		if blank(rec) {
			continue
		}
		values := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(rec) {
				values[h] = strings.TrimSpace(rec[j])
			} else {
				values[h] = ""
			}
		}
		table.Rows = append(table.Rows, domain.SourceRow{Line: i + 1, Values: values})
	}

	if len(table.Rows) == 0 {
		return nil, domain.UserInputError("file %q has no data rows", filename)
	}
	return table, nil
}

// uniqueHeaders trims headers, names empty ones by position and suffixes
// duplicates with _2, _3 and so on.
func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		name := h
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = h + "_" + strconv.Itoa(n)
		}
		used[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
