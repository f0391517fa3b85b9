package httpapi

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"homehub-data/internal/domain"
)

const exportSheetName = "LED Events"

// writeLedEventsXLSX 把事件列表写成 xlsx 工作簿
func writeLedEventsXLSX(w io.Writer, events []domain.LedEvent) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}

	headers := []string{"ID", "LED Number", "State", "Created At"}
	for col, header := range headers {
		if err := setCellValue(f, exportSheetName, col+1, 1, header); err != nil {
			return err
		}
	}

	for i, event := range events {
		row := i + 2
		state := "OFF"
		if event.StateOn {
			state = "ON"
		}
		values := []interface{}{
			event.ID,
			event.Channel,
			state,
			event.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			if err := setCellValue(f, exportSheetName, col+1, row, value); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCellValue(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
