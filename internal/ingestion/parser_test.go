package ingestion

import (
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseFileNormalizesHeaderSynonyms(t *testing.T) {
	data := `Period,Indicator,Observation,Freq,Unit,Region
2024-01-01,GDP,100.5,Q,USD bn,US
2024-04-01,GDP,101.25,Q,USD bn,US
`
	parsed, err := ParseFile("gdp.csv", []byte(data))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	wantColumns := []string{"date", "series", "value", "frequency", "units", "country"}
	if len(parsed.Columns) != len(wantColumns) {
		t.Fatalf("unexpected columns: %v", parsed.Columns)
	}
	for i, want := range wantColumns {
		if parsed.Columns[i] != want {
			t.Fatalf("column %d: expected %q, got %q", i, want, parsed.Columns[i])
		}
	}

	if len(parsed.Rows) != 2 || len(parsed.Warnings) != 0 {
		t.Fatalf("unexpected parse result: %d rows, %d warnings", len(parsed.Rows), len(parsed.Warnings))
	}

	first := parsed.Rows[0]
	if first.RowIndex != 2 {
		t.Fatalf("expected first data row at file position 2, got %d", first.RowIndex)
	}
	if first.Date != "2024-01-01" || first.Series != "GDP" || first.Country != "US" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.ValueNum == nil || *first.ValueNum != 100.5 {
		t.Fatalf("expected numeric value 100.5, got %+v", first.ValueNum)
	}
	if first.ValueText != nil {
		t.Fatalf("did not expect text value, got %q", *first.ValueText)
	}
}

func TestParseFileRecordsWarningsAndSkipsBadRows(t *testing.T) {
	data := `date,series,value
2024-01-01,CPI,3.1
2024-02-01,,3.2
,CPI,3.3
2024-03-01,CPI,
2024-04-01,CPI,n/a
`
	parsed, err := ParseFile("cpi.csv", []byte(data))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	// Rows 3 and 4 are skipped; row 5 is kept with a warning and no value.
	if len(parsed.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(parsed.Rows), parsed.Rows)
	}
	if len(parsed.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %+v", parsed.Warnings)
	}

	wantWarnings := map[int]string{3: "Missing series", 4: "Missing date", 5: "Missing value"}
	for _, warning := range parsed.Warnings {
		if wantWarnings[warning.Row] != warning.Error {
			t.Fatalf("unexpected warning %+v", warning)
		}
	}

	noValue := parsed.Rows[1]
	if noValue.RowIndex != 5 || noValue.ValueNum != nil || noValue.ValueText != nil {
		t.Fatalf("expected value-less row at position 5, got %+v", noValue)
	}

	textValue := parsed.Rows[2]
	if textValue.ValueText == nil || *textValue.ValueText != "n/a" {
		t.Fatalf("expected text value n/a, got %+v", textValue)
	}
}

func TestParseFileCanonicalizesDates(t *testing.T) {
	data := `date,series,value
2024/01/15,GDP,1
2024-Q1,GDP,2
`
	parsed, err := ParseFile("dates.csv", []byte(data))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if parsed.Rows[0].Date != "2024-01-15" {
		t.Fatalf("expected canonical date, got %q", parsed.Rows[0].Date)
	}
	// Unrecognized period labels pass through as typed.
	if parsed.Rows[1].Date != "2024-Q1" {
		t.Fatalf("expected raw period label, got %q", parsed.Rows[1].Date)
	}
}

func TestParseFileRejectsUnsupportedExtension(t *testing.T) {
	_, err := ParseFile("data.pdf", []byte("whatever"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseFileRejectsMissingRequiredColumns(t *testing.T) {
	data := `date,value
2024-01-01,3.1
`
	_, err := ParseFile("partial.csv", []byte(data))
	if err == nil {
		t.Fatalf("expected error for missing series column")
	}
}

func TestParseFileSkipsBlankRowsKeepingPositions(t *testing.T) {
	data := `date,series,value

2024-01-01,GDP,1

2024-02-01,GDP,2
`
	parsed, err := ParseFile("gaps.csv", []byte(data))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(parsed.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(parsed.Rows))
	}
	if parsed.Rows[0].RowIndex != 3 || parsed.Rows[1].RowIndex != 5 {
		t.Fatalf("expected file positions 3 and 5, got %d and %d", parsed.Rows[0].RowIndex, parsed.Rows[1].RowIndex)
	}
}

func TestParseFileReadsXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := [][]any{
		{"date", "series", "value", "units"},
		{"2024-01-01", "GDP", 100.5, "USD bn"},
		{"2024-04-01", "GDP", "revised", "USD bn"},
	}
	for rowIdx, row := range cells {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	parsed, err := ParseFile("gdp.xlsx", buffer.Bytes())
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(parsed.Rows) != 2 || len(parsed.Warnings) != 0 {
		t.Fatalf("unexpected parse result: %d rows, %d warnings", len(parsed.Rows), len(parsed.Warnings))
	}
	if parsed.Rows[0].ValueNum == nil || *parsed.Rows[0].ValueNum != 100.5 {
		t.Fatalf("expected numeric value from workbook, got %+v", parsed.Rows[0])
	}
	if parsed.Rows[1].ValueText == nil || *parsed.Rows[1].ValueText != "revised" {
		t.Fatalf("expected text value from workbook, got %+v", parsed.Rows[1])
	}
}
