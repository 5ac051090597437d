package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/econgate/internal/domain"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	dateLayouts = []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"01/02/2006",
		"02/01/2006",
		"01-02-06",
		"Jan 2, 2006",
		"2 Jan 2006",
	}
)

// Column synonyms accepted in source headers, keyed by canonical name.
// Mirrors what upstream data providers actually ship.
var headerSynonyms = map[string]string{
	"date": "date", "period": "date", "time": "date",
	"series": "series", "indicator": "series", "variable": "series", "ticker": "series",
	"value": "value", "observation": "value", "val": "value",
	"frequency": "frequency", "freq": "frequency",
	"units": "units", "unit": "units",
	"country": "country", "region": "country",
}

var requiredColumns = []string{"date", "series", "value"}

// Parsed is the outcome of normalizing one uploaded file. Rows carry their
// 1-based source file position as RowIndex; ID and ImportID are left for the
// caller to assign.
type Parsed struct {
	Columns  []string
	Rows     []domain.Observation
	Warnings []domain.ParseWarning
}

// sourceRow keeps a data row together with its 1-based position in the file
// so warnings and row indexes survive blank-row filtering.
type sourceRow struct {
	number int
	cells  []string
}

// ParseFile normalizes an uploaded spreadsheet into observations. Rows
// missing a series or date are recorded as warnings and skipped; rows with
// no usable value are kept with a warning. A file that cannot be read at all
// (bad extension, unreadable workbook, missing required columns) fails
// outright.
func ParseFile(fileName string, payload []byte) (Parsed, error) {
	records, err := readTable(fileName, payload)
	if err != nil {
		return Parsed{}, err
	}

	headers, dataRows, err := splitHeader(records)
	if err != nil {
		return Parsed{}, err
	}

	index := make(map[string]int, len(headers))
	for i, name := range headers {
		if _, exists := index[name]; !exists {
			index[name] = i
		}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Parsed{}, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	parsed := Parsed{
		Columns:  headers,
		Rows:     []domain.Observation{},
		Warnings: []domain.ParseWarning{},
	}

	for _, row := range dataRows {
		series := cell(row.cells, index, "series")
		if series == "" {
			parsed.Warnings = append(parsed.Warnings, domain.ParseWarning{Row: row.number, Error: "Missing series"})
			continue
		}

		rawDate := cell(row.cells, index, "date")
		if rawDate == "" {
			parsed.Warnings = append(parsed.Warnings, domain.ParseWarning{Row: row.number, Error: "Missing date"})
			continue
		}

		obs := domain.Observation{
			RowIndex:  row.number,
			Date:      canonicalDate(rawDate),
			Series:    series,
			Frequency: cell(row.cells, index, "frequency"),
			Units:     cell(row.cells, index, "units"),
			Country:   cell(row.cells, index, "country"),
		}

		rawValue := cell(row.cells, index, "value")
		if rawValue == "" {
			parsed.Warnings = append(parsed.Warnings, domain.ParseWarning{Row: row.number, Error: "Missing value"})
		} else if num, err := strconv.ParseFloat(rawValue, 64); err == nil {
			obs.ValueNum = &num
		} else {
			text := rawValue
			obs.ValueText = &text
		}

		parsed.Rows = append(parsed.Rows, obs)
	}

	return parsed, nil
}

func readTable(fileName string, payload []byte) ([][]string, error) {
	if len(payload) == 0 {
		return nil, errors.New("file is empty")
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return readCSV(payload)
	case ".xlsx":
		return readExcel(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func readCSV(payload []byte) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

func readExcel(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return rows, nil
}

// splitHeader finds the first non-empty row, normalizes it into canonical
// column names, and returns the remaining non-empty rows with their original
// file positions intact.
func splitHeader(records [][]string) ([]string, []sourceRow, error) {
	var headers []string
	var dataRows []sourceRow

	for idx, record := range records {
		if emptyRow(record) {
			continue
		}
		if headers == nil {
			headers = normalizeHeaders(record)
			continue
		}
		dataRows = append(dataRows, sourceRow{number: idx + 1, cells: record})
	}

	if headers == nil {
		return nil, nil, errors.New("no header row detected")
	}
	return headers, dataRows, nil
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, value := range raw {
		name := strings.ToLower(strings.TrimSpace(value))
		name = strings.ReplaceAll(name, " ", "_")
		if canonical, ok := headerSynonyms[name]; ok {
			name = canonical
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = name
	}
	return headers
}

func emptyRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, index map[string]int, name string) string {
	col, ok := index[name]
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// canonicalDate renders recognized date formats as YYYY-MM-DD and leaves
// anything else as typed, matching how the source systems label periods like
// "2024-Q1".
func canonicalDate(raw string) string {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	return raw
}
