package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"student-manager-go/models"
)

const exportSheet = "Students"

// exportHeader matches the column order of the student table on the page.
var exportHeader = []interface{}{"ID", "Name", "Phone", "Address", "Note"}

// ImportStudentsFromExcel reads the first sheet of an xlsx stream and inserts
// one student per row. Row 1 is a header. Columns are Name, Phone, Address,
// Note; a leading "ID" header column is accepted and ignored so that exported
// files can be re-imported. Rows without a name are skipped.
func ImportStudentsFromExcel(ctx context.Context, store DataStore, file io.Reader, logger *zap.Logger) (int, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return 0, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing excel file", zap.Error(err))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	offset := 0
	if len(rows[0]) > 0 && strings.EqualFold(strings.TrimSpace(rows[0][0]), "id") {
		offset = 1
	}

	imported := 0
	for i, row := range rows[1:] {
		cell := func(col int) string {
			if col+offset < len(row) {
				return strings.TrimSpace(row[col+offset])
			}
			return ""
		}
		draft := models.Draft{Name: cell(0), Phone: cell(1), Address: cell(2), Note: cell(3)}
		if draft.Name == "" {
			logger.Info("Skipping row without name", zap.Int("row", i+2))
			continue
		}
		if _, err := store.Insert(ctx, draft); err != nil {
			return imported, fmt.Errorf("failed to import row %d: %w", i+2, err)
		}
		imported++
	}

	logger.Info("Imported students", zap.Int("count", imported), zap.String("sheet", sheetName))
	return imported, nil
}

// ExportStudentsToExcel writes every student, ordered by id, as an xlsx
// workbook to w.
func ExportStudentsToExcel(ctx context.Context, store DataStore, w io.Writer, logger *zap.Logger) (int, error) {
	students, err := store.List(ctx)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing excel file", zap.Error(err))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	for i, s := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := []interface{}{s.ID, s.Name, s.Phone, s.Address, s.Note}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write student %d: %w", s.ID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return len(students), nil
}
