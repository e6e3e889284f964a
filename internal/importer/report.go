package importer

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook styling shared by the template and the run reports.
const (
	fillRequired    = "E65100"
	fillOptional    = "CFD8DC"
	fillOutcome     = "1F4E79"
	fillError       = "C00000"
	fontOnDark      = "FFFFFF"
	fontOptional    = "1A237E"
	templateSheet   = "Employees"
	colWidthDefault = 22.0
	colWidthWide    = 28.0
	dateStyleRows   = 1000
)

func headerStyle(f *excelize.File, fill, font string, bold bool) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: bold, Color: font},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})
}

// BuildTemplate produces the blank import workbook: one header row with
// required columns highlighted, date columns pre-formatted day-first, and
// the header frozen.
func BuildTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	requiredStyle, err := headerStyle(f, fillRequired, fontOnDark, true)
	if err != nil {
		return nil, fmt.Errorf("required style: %w", err)
	}
	optionalStyle, err := headerStyle(f, fillOptional, fontOptional, false)
	if err != nil {
		return nil, fmt.Errorf("optional style: %w", err)
	}

	dateFmt := "dd/mm/yyyy"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return nil, fmt.Errorf("date style: %w", err)
	}

	for i, col := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(templateSheet, cell, col.Label); err != nil {
			return nil, err
		}
		style := optionalStyle
		if col.Required {
			style = requiredStyle
		}
		if err := f.SetCellStyle(templateSheet, cell, cell, style); err != nil {
			return nil, err
		}

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		width := colWidthDefault
		if col.Field == FieldPermanentAddress || col.Field == FieldPresentAddress {
			width = colWidthWide
		}
		if err := f.SetColWidth(templateSheet, name, name, width); err != nil {
			return nil, err
		}

		if col.Date {
			first, err := excelize.CoordinatesToCellName(i+1, 2)
			if err != nil {
				return nil, err
			}
			last, err := excelize.CoordinatesToCellName(i+1, dateStyleRows)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(templateSheet, first, last, dateStyle); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetPanes(templateSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	return f.WriteToBuffer()
}

// BuildOutcomeReport produces the credentials workbook for imported rows.
// It returns nil when there were no successes; the report is omitted rather
// than emitted empty.
func BuildOutcomeReport(successes []Success) (*bytes.Buffer, error) {
	if len(successes) == 0 {
		return nil, nil
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	style, err := headerStyle(f, fillOutcome, fontOnDark, true)
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	headers := []string{"Employee Name", "Login Email", "Password", "Business Unit", "Department", "Designation"}
	if err := writeHeader(f, sheet, headers, style); err != nil {
		return nil, err
	}

	for i, s := range successes {
		row := []any{s.Name, s.LoginEmail, s.Password, s.Company, s.Department, s.Job}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheet, "A", "F", colWidthDefault); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}

// BuildErrorReport produces the failures workbook, one row per failed sheet
// row. It returns nil when there were no failures.
func BuildErrorReport(failures []Failure) (*bytes.Buffer, error) {
	if len(failures) == 0 {
		return nil, nil
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	style, err := headerStyle(f, fillError, fontOnDark, true)
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	headers := []string{"Row", "Employee Name", "Error"}
	if err := writeHeader(f, sheet, headers, style); err != nil {
		return nil, err
	}

	for i, fr := range failures {
		row := []any{fr.RowNumber, fr.Name, fr.Error}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 8); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "B", "B", colWidthDefault); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "C", "C", 60); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
