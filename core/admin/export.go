package admin

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/NercinoN21/dlpl-frontend/core"
)

const exportSheet = "enrollments"

var exportHeader = []string{"name", "cpf", "course", "choice", "turma", "semester", "created_at"}

// ExportEnrollments renders the filtered enrollment rows as a spreadsheet
// with a header row and columns sized to their widest cell. The workbook is
// generated on demand and never persisted.
func ExportEnrollments(rows []core.EnrollmentRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, errors.Wrap(err, "naming sheet")
	}

	widths := make([]int, len(exportHeader))
	writeRow := func(rowIdx int, cells []string) error {
		for col, value := range cells {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(exportSheet, cell, value); err != nil {
				return err
			}
			if len(value) > widths[col] {
				widths[col] = len(value)
			}
		}
		return nil
	}

	if err := writeRow(1, exportHeader); err != nil {
		return nil, errors.Wrap(err, "writing header")
	}
	for i, row := range rows {
		cells := []string{row.Name, row.CPF, row.Course, row.Choice, row.Turma, row.Semester, row.CreatedAt}
		if err := writeRow(i+2, cells); err != nil {
			return nil, errors.Wrapf(err, "writing row %d", i)
		}
	}

	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, errors.Wrap(err, "resolving column name")
		}
		if err := f.SetColWidth(exportSheet, name, name, float64(width)+2); err != nil {
			return nil, errors.Wrap(err, "sizing column")
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}

// ExportFilename carries the applied filters, mirroring the console's
// download naming.
func ExportFilename(filter core.EnrollmentFilter) string {
	return "inscricoes_" + filter.StudentName + "_" + filter.Semester + ".xlsx"
}
