package wind

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type ImportedRow struct {
	Row    int               `json:"row"`
	Inputs map[string]string `json:"inputs"`
	Result Result            `json:"result"`
}

type ImportResult struct {
	Count   int           `json:"count"`
	Results []ImportedRow `json:"results"`
}

// ImportXLSX calculates every row of the first sheet. Row 1 names the raw
// input keys; optional "code" and "mode" columns select the method per row.
func (c *Calculator) ImportXLSX(r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return ImportResult{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return ImportResult{}, fmt.Errorf("empty sheet")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	out := ImportResult{Results: []ImportedRow{}}
	for i := 1; i < len(rows); i++ {
		raw := parseRow(header, rows[i])
		if len(raw) == 0 {
			continue
		}
		code, mode := Code(raw["code"]), Mode(raw["mode"])
		delete(raw, "code")
		delete(raw, "mode")
		out.Results = append(out.Results, ImportedRow{
			Row:    i + 1,
			Inputs: raw,
			Result: c.Calculate(c.ParseInputs(code, mode, raw)),
		})
	}
	out.Count = len(out.Results)
	return out, nil
}

func parseRow(header, row []string) map[string]string {
	raw := make(map[string]string)
	for col, v := range row {
		if col >= len(header) || header[col] == "" {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			raw[header[col]] = v
		}
	}
	return raw
}
