package wind

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, Profile{{0, 1500}, {1.7, 1512.34}, {10, 1590.44}})
	require.NoError(t, err)

	want := "height_m,pressure_N_per_m2\n" +
		"0,1500\n" +
		"1.7,1512.34\n" +
		"10,1590.44\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_EmptyProfileWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "height_m,pressure_N_per_m2\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	res := newTestCalculator().Calculate(Input{Code: CodeIS, OverrideSpeed: 50, HeightM: 10})

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, res))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Profile")
	require.NoError(t, err)
	require.Len(t, rows, len(res.Profile)+1)
	assert.Equal(t, []string{"height_m", "pressure_N_per_m2"}, rows[0])
	assert.Equal(t, []string{"0", "1500"}, rows[1])
	assert.Equal(t, "10", rows[len(rows)-1][0])

	summary, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, res.Summary(), summary)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "is_profile.csv", FileName(CodeIS, "csv"))
	assert.Equal(t, "asce_profile.xlsx", FileName(CodeASCE, "xlsx"))
}

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestImportXLSX(t *testing.T) {
	wb := buildWorkbook(t, [][]any{
		{"code", "mode", "city", "height", "asce_V", "is_k1"},
		{"is", "auto", "Mumbai", "20", "", "important"},
		{},
		{"asce", "auto", "", "15", "110", ""},
	})

	out, err := newTestCalculator().ImportXLSX(wb)
	require.NoError(t, err)
	require.Equal(t, 2, out.Count)

	first := out.Results[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, CodeIS, first.Result.Code)
	assert.Equal(t, 69.0, first.Result.DesignSpeed)
	assert.Equal(t, map[string]string{"city": "Mumbai", "height": "20", "is_k1": "important"}, first.Inputs)

	second := out.Results[1]
	assert.Equal(t, 4, second.Row)
	assert.Equal(t, CodeASCE, second.Result.Code)
	assert.Equal(t, 110.0, second.Result.BaseSpeed)
	assert.Equal(t, 15.0, second.Result.Profile.Last().HeightM)
}

func TestImportXLSX_Rejects(t *testing.T) {
	c := newTestCalculator()

	_, err := c.ImportXLSX(bytes.NewBufferString("not a workbook"))
	assert.Error(t, err)

	_, err = c.ImportXLSX(buildWorkbook(t, [][]any{{"height"}}))
	assert.Error(t, err)
}
