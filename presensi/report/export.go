package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Attendance"

var exportHeaders = []interface{}{
	"No", "Name", "Date", "Check In", "Check In Location", "Check Out", "Check Out Location", "Duration (min)", "Status",
}

// WriteXLSX writes rows as a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &exportHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		checkOut, checkOutLoc, duration := "", "", ""
		if r.CheckOutAt != nil {
			checkOut = r.CheckOutAt.Format(time.DateTime)
		}
		if r.CheckOutLocation != nil {
			checkOutLoc = r.CheckOutLocation.String()
		}
		if r.DurationSeconds != nil {
			duration = fmt.Sprintf("%d", *r.DurationSeconds/60)
		}

		values := []interface{}{
			i + 1,
			r.UserName,
			r.WorkDate,
			r.CheckInAt.Format(time.DateTime),
			r.CheckInLocation.String(),
			checkOut,
			checkOutLoc,
			duration,
			string(r.Status),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "G", 20); err != nil {
		return err
	}
	return f.Write(w)
}
