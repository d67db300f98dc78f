package simpleexcel

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type logRow struct {
	EmployeeID string
	Emotion    int
	Note       *string
	CreatedAt  time.Time
}

const reportYAML = `
sheets:
  - name: Logs
    sections:
      - id: logs
        title: Emotion Logs
        show_header: true
        locked: true
        title_style:
          font: {bold: true, color: "#FFFFFF"}
          fill: {color: "#4F81BD"}
        columns:
          - {field_name: EmployeeID, header: Employee, width: 14}
          - {field_name: Emotion, header: Emotion}
          - {field_name: Note, header: Note, width: 30}
          - {field_name: CreatedAt, header: Created, time_format: "2006-01-02 15:04"}
  - name: Summary
    sections:
      - id: summary
        show_header: true
        columns:
          - {field_name: type, header: Type}
          - {field_name: count, header: Count}
`

func openXLSX(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestYAMLExport(t *testing.T) {
	exporter, err := NewDataExporterFromYAML(strings.NewReader(reportYAML))
	require.NoError(t, err)

	note := "tired"
	exporter.
		BindSectionData("logs", []logRow{
			{EmployeeID: "E1", Emotion: 4, CreatedAt: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)},
			{EmployeeID: "E1", Emotion: 2, Note: &note, CreatedAt: time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)},
		}).
		BindSectionData("summary", []map[string]interface{}{
			{"type": "in", "count": 1},
			{"type": "out", "count": 1},
		})

	data, err := exporter.ToBytes()
	require.NoError(t, err)
	f := openXLSX(t, data)

	assert.Equal(t, []string{"Logs", "Summary"}, f.GetSheetList())

	cell := func(sheet, name string) string {
		v, err := f.GetCellValue(sheet, name)
		require.NoError(t, err)
		return v
	}

	// Row 1 title, row 2 header, rows 3-4 data.
	assert.Equal(t, "Emotion Logs", cell("Logs", "A1"))
	assert.Equal(t, "Employee", cell("Logs", "A2"))
	assert.Equal(t, "Created", cell("Logs", "D2"))
	assert.Equal(t, "E1", cell("Logs", "A3"))
	assert.Equal(t, "4", cell("Logs", "B3"))
	assert.Equal(t, "", cell("Logs", "C3"))
	assert.Equal(t, "2024-01-01 09:30", cell("Logs", "D3"))
	assert.Equal(t, "tired", cell("Logs", "C4"))

	assert.Equal(t, "Type", cell("Summary", "A1"))
	assert.Equal(t, "in", cell("Summary", "A2"))
	assert.Equal(t, "1", cell("Summary", "B3"))

	width, err := f.GetColWidth("Logs", "C")
	require.NoError(t, err)
	assert.Equal(t, 30.0, width)
}

func TestFluentExportStacksSections(t *testing.T) {
	exporter := NewDataExporter()
	exporter.AddSheet("Report").
		AddSection(&SectionConfig{
			Title:      "First",
			ShowHeader: true,
			Data:       []logRow{{EmployeeID: "E1", Emotion: 3}},
			Columns:    []ColumnConfig{{FieldName: "EmployeeID", Header: "Employee"}},
		}).
		AddSection(&SectionConfig{
			Title:   "Second",
			Data:    []logRow{{EmployeeID: "E2", Emotion: 5}},
			Columns: []ColumnConfig{{FieldName: "Emotion"}, {FieldName: "Missing"}},
		})

	data, err := exporter.ToBytes()
	require.NoError(t, err)
	f := openXLSX(t, data)

	// First: rows 1-3, blank row 4, Second: title row 5, data row 6.
	v, _ := f.GetCellValue("Report", "A5")
	assert.Equal(t, "Second", v)
	v, _ = f.GetCellValue("Report", "A6")
	assert.Equal(t, "5", v)
	v, _ = f.GetCellValue("Report", "B6")
	assert.Equal(t, "", v)
}

func TestToResponse(t *testing.T) {
	exporter := NewDataExporter()
	exporter.AddSheet("Logs")

	rec := httptest.NewRecorder()
	require.NoError(t, exporter.ToResponse(rec, "logs.xlsx"))
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="logs.xlsx"`)
	openXLSX(t, rec.Body.Bytes())
}

func TestInvalidYAML(t *testing.T) {
	_, err := NewDataExporterFromYAML(strings.NewReader("sheets: [unclosed"))
	assert.Error(t, err)
}
