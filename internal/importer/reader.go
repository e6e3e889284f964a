package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInputFormat marks a workbook that cannot be read at all, as opposed to
// one whose rows fail validation.
var ErrInputFormat = errors.New("unreadable workbook")

// RawRow is one data row of the sheet, keyed by logical field. Number is the
// 1-based sheet row number, so the first data row is 2.
type RawRow struct {
	Number int
	Cells  map[Field]string
}

// Get returns the raw cell for a field, or the empty string.
func (r RawRow) Get(f Field) string {
	return r.Cells[f]
}

// ReadWorkbook reads the first sheet of an xlsx workbook. The first row is
// the header; labels are matched against the known columns after trimming
// and unknown labels are ignored. Rows whose cells are all blank are
// skipped. Cell values are read raw, so date cells arrive as serial numbers
// for NormalizeDate to handle.
func ReadWorkbook(r io.Reader) ([]RawRow, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputFormat, err)
	}
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInputFormat)
	}

	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputFormat, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrInputFormat, sheet)
	}

	fieldByCol := map[int]Field{}
	for i, label := range rows[0] {
		if col, ok := ColumnByLabel(strings.TrimSpace(label)); ok {
			fieldByCol[i] = col.Field
		}
	}

	var out []RawRow
	for i, cells := range rows[1:] {
		// Emptiness is judged over every cell. A row holding data only in
		// unrecognized columns still surfaces, so its missing required
		// fields get reported instead of the row silently vanishing.
		empty := true
		for _, cell := range cells {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		row := RawRow{Number: i + 2, Cells: map[Field]string{}}
		for col, field := range fieldByCol {
			if col >= len(cells) {
				continue
			}
			row.Cells[field] = cells[col]
		}
		out = append(out, row)
	}
	return out, nil
}
