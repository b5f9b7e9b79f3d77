package wind

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var csvHeader = []string{"height_m", "pressure_N_per_m2"}

// WriteCSV writes one row per profile point, in profile order.
func WriteCSV(w io.Writer, p Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, pt := range p {
		if err := cw.Write([]string{num(pt.HeightM), num(pt.PressureNM2)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the profile to a "Profile" sheet and the summary line to a
// "Summary" sheet.
func WriteXLSX(w io.Writer, r Result) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Profile"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for col, h := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, pt := range r.Profile {
		row := i + 2
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), pt.HeightM); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), pt.PressureNM2); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return err
	}
	if err := f.SetCellValue("Summary", "A1", r.Summary()); err != nil {
		return err
	}
	return f.Write(w)
}

func FileName(code Code, ext string) string {
	return fmt.Sprintf("%s_profile.%s", code, ext)
}
