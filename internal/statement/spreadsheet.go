package statement

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ParseSpreadsheet maps the first worksheet of an .xlsx workbook to raw rows.
// Row numbers in the result are 1-based worksheet rows.
func ParseSpreadsheet(data []byte, syn Synonyms) (Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("ParseSpreadsheet: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, fmt.Errorf("ParseSpreadsheet: workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Result{}, fmt.Errorf("ParseSpreadsheet: read sheet %q: %w", sheets[0], err)
	}

	headerAt := -1
	for i, rec := range records {
		if !blankRecord(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return Result{}, &FormatUnrecognizedError{
			Missing: []domain.ColumnRole{domain.RoleDate, domain.RoleAmount},
		}
	}

	cols, err := MapColumns(records[headerAt], syn)
	if err != nil {
		return Result{}, err
	}

	res := Result{Headers: cols.Headers, Columns: cols}
	dateIdx, hasDate := cols.Index(domain.RoleDate)

	for i := headerAt + 1; i < len(records); i++ {
		rec := make([]string, len(records[i]))
		for j, v := range records[i] {
			rec[j] = strings.TrimSpace(v)
		}
		if countNonEmpty(rec) < 2 {
			continue
		}
		if hasDate && dateIdx < len(rec) {
			rec[dateIdx] = serialToDate(rec[dateIdx], f.GetWorkbookProps)
		}
		res.Rows = append(res.Rows, cols.Row(i+1, rec))
	}
	return res, nil
}

// serialToDate turns an Excel date serial into YYYY-MM-DD. Values that are
// not serials are returned unchanged.
func serialToDate(v string, props func() (excelize.WorkbookPropsOptions, error)) string {
	if v == "" || len(v) == 8 {
		return v
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial < 1 || serial > 2958465 {
		return v
	}
	date1904 := false
	if p, err := props(); err == nil && p.Date1904 != nil {
		date1904 = *p.Date1904
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return v
	}
	return t.Format("2006-01-02")
}

func blankRecord(rec []string) bool {
	return countNonEmpty(rec) == 0
}

func countNonEmpty(rec []string) int {
	n := 0
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}
