// Package spreadsheet reads the first worksheet of an uploaded workbook into
// header and data rows.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("only .xlsx and .xls files are allowed")
	ErrNoSheets          = errors.New("Excel file is empty or has no sheets")
	ErrNoDataRows        = errors.New("Excel file has no data rows")
	ErrUnreadable        = errors.New("could not read Excel file")
)

// Row is one data row. Number is the row's position in the sheet, where the
// header is row 1.
type Row struct {
	Number int
	Cells  []string
}

// Sheet is the parsed first worksheet
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// IsSupported reports whether the file name carries a workbook extension
func IsSupported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}

// Read parses a workbook. The format is chosen by file extension.
// Rows with no non-blank cell are skipped.
func Read(data []byte, filename string) (*Sheet, error) {
	var (
		name  string
		table [][]string
		err   error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		name, table, err = readXLSX(data)
	case ".xls":
		name, table, err = readXLS(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return buildSheet(name, table)
}

func buildSheet(name string, table [][]string) (*Sheet, error) {
	if len(table) == 0 || isBlank(table[0]) {
		return nil, ErrNoSheets
	}

	sheet := &Sheet{Name: name}
	for _, h := range table[0] {
		sheet.Headers = append(sheet.Headers, strings.TrimSpace(h))
	}

	for i, cells := range table[1:] {
		if isBlank(cells) {
			continue
		}
		sheet.Rows = append(sheet.Rows, Row{Number: i + 2, Cells: cells})
	}

	if len(sheet.Rows) == 0 {
		return nil, ErrNoDataRows
	}
	return sheet, nil
}

func readXLSX(data []byte) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return sheets[0], rows, nil
}

func readXLS(data []byte) (name string, rows [][]string, err error) {
	// the BIFF decoder panics on some malformed input
	defer func() {
		if p := recover(); p != nil {
			name, rows, err = "", nil, fmt.Errorf("%w: %v", ErrUnreadable, p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return "", nil, ErrNoSheets
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return "", nil, ErrNoSheets
	}
	// MaxRow is the last row index, so zero means at most a header row
	if ws.MaxRow == 0 {
		return "", nil, ErrNoDataRows
	}

	// ReadAllCells fills the sheets in order; capping it at the first
	// sheet's row count keeps the result to that sheet. Rows missing from
	// the file come back nil so numbering is preserved.
	rows = wb.ReadAllCells(int(ws.MaxRow) + 1)
	return ws.Name, rows, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
