package simpleexcel

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Constants & Types
// =============================================================================

const (
	SectionDirectionHorizontal = "horizontal"
	SectionDirectionVertical   = "vertical"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DataExporter is the main entry point for exporting data.
type DataExporter struct {
	template *ReportTemplate
	// data holds data bound to specific section IDs (for YAML flow)
	data map[string]interface{}
	// sheets holds manually added sheets (for programmatic flow)
	sheets []*SheetBuilder
}

// ReportTemplate represents the YAML structure.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate represents a sheet in the YAML.
type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig defines a section of data in a sheet.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Data        interface{}    `yaml:"-"` // Data is bound at runtime
	Locked      bool           `yaml:"locked"`
	ShowHeader  bool           `yaml:"show_header"`
	Direction   string         `yaml:"direction"` // "horizontal" or "vertical"
	Position    string         `yaml:"position"`  // e.g., "A1"
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig defines a column in a section.
type ColumnConfig struct {
	FieldName string  `yaml:"field_name"` // Struct field name or map key
	Header    string  `yaml:"header"`
	Width     float64 `yaml:"width"`
	// TimeFormat renders time.Time values with a Go layout. Default is RFC 3339.
	TimeFormat string `yaml:"time_format"`
}

// StyleTemplate defines basic styling.
type StyleTemplate struct {
	Font   *FontTemplate `yaml:"font"`
	Fill   *FillTemplate `yaml:"fill"`
	Locked *bool         `yaml:"locked"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"` // Hex color
}

type FillTemplate struct {
	Color string `yaml:"color"` // Hex color
}

// =============================================================================
// Constructors
// =============================================================================

func NewDataExporter() *DataExporter {
	return &DataExporter{
		data:   make(map[string]interface{}),
		sheets: []*SheetBuilder{},
	}
}

// NewDataExporterFromYAML decodes a report template.
func NewDataExporterFromYAML(r io.Reader) (*DataExporter, error) {
	var tmpl ReportTemplate
	if err := yaml.NewDecoder(r).Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	return &DataExporter{
		template: &tmpl,
		data:     make(map[string]interface{}),
	}, nil
}

// =============================================================================
// Fluent API
// =============================================================================

// AddSheet starts a new sheet builder.
func (e *DataExporter) AddSheet(name string) *SheetBuilder {
	sb := &SheetBuilder{
		exporter: e,
		name:     name,
		sections: []*SectionConfig{},
	}
	e.sheets = append(e.sheets, sb)
	return sb
}

// BindSectionData binds data to a section ID (for YAML-based export).
func (e *DataExporter) BindSectionData(id string, data interface{}) *DataExporter {
	e.data[id] = data
	return e
}

// buildExcel creates an Excel file in memory and returns it
func (e *DataExporter) buildExcel() (*excelize.File, error) {
	f := excelize.NewFile()
	first := true

	addSheet := func(name string) error {
		if first {
			first = false
			return f.SetSheetName("Sheet1", name)
		}
		idx, err := f.GetSheetIndex(name)
		if err != nil {
			return err
		}
		if idx == -1 {
			_, err = f.NewSheet(name)
		}
		return err
	}

	// 1. Process Programmatic Sheets
	for _, sb := range e.sheets {
		if err := addSheet(sb.name); err != nil {
			return nil, err
		}
		if err := e.renderSections(f, sb.name, sb.sections); err != nil {
			return nil, err
		}
	}

	// 2. Process YAML Template Sheets
	if e.template != nil {
		for _, sheetTmpl := range e.template.Sheets {
			if err := addSheet(sheetTmpl.Name); err != nil {
				return nil, err
			}

			sections := make([]*SectionConfig, len(sheetTmpl.Sections))
			for j := range sheetTmpl.Sections {
				sec := sheetTmpl.Sections[j]
				if data, ok := e.data[sec.ID]; ok {
					sec.Data = data
				}
				sections[j] = &sec
			}

			if err := e.renderSections(f, sheetTmpl.Name, sections); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

// ToBytes exports the Excel file to an in-memory byte slice.
func (e *DataExporter) ToBytes() ([]byte, error) {
	f, err := e.buildExcel()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToResponse writes the Excel file to an HTTP response writer as an attachment.
func (e *DataExporter) ToResponse(w http.ResponseWriter, filename string) error {
	data, err := e.ToBytes()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Transfer-Encoding", "binary")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	return err
}

// =============================================================================
// SheetBuilder
// =============================================================================

type SheetBuilder struct {
	exporter *DataExporter
	name     string
	sections []*SectionConfig
}

func (sb *SheetBuilder) AddSection(config *SectionConfig) *SheetBuilder {
	sb.sections = append(sb.sections, config)
	return sb
}

func (sb *SheetBuilder) Build() *DataExporter {
	return sb.exporter
}

// =============================================================================
// Rendering Logic
// =============================================================================

func (e *DataExporter) renderSections(f *excelize.File, sheet string, sections []*SectionConfig) error {
	// Trackers for layout
	maxRow := 1            // Next available row for Vertical sections (1-based)
	nextColHorizontal := 1 // Next available col for Horizontal sections (1-based)

	hasLockedSections := false

	for _, sec := range sections {
		if sec.Locked {
			hasLockedSections = true
		}

		isHorizontal := sec.Direction == SectionDirectionHorizontal

		startCol, startRow := 1, maxRow
		if isHorizontal {
			startCol, startRow = nextColHorizontal, 1
		}
		if sec.Position != "" {
			if c, r, err := excelize.CellNameToCoordinates(sec.Position); err == nil {
				startCol, startRow = c, r
			}
		}

		currentRow := startRow

		// Locked=false cells stay editable once the sheet is protected.
		effectiveStyle := func(base *StyleTemplate) (int, error) {
			s := &StyleTemplate{}
			if base != nil {
				*s = *base
			}
			locked := sec.Locked
			s.Locked = &locked
			return createStyle(f, s)
		}

		dataStyle, err := effectiveStyle(nil)
		if err != nil {
			return err
		}

		// Render Title
		if sec.Title != "" {
			cell, _ := excelize.CoordinatesToCellName(startCol, currentRow)
			if err := f.SetCellValue(sheet, cell, sec.Title); err != nil {
				return err
			}
			styleID, err := effectiveStyle(sec.TitleStyle)
			if err != nil {
				return err
			}

			endCell := cell
			if len(sec.Columns) > 1 {
				endCell, _ = excelize.CoordinatesToCellName(startCol+len(sec.Columns)-1, currentRow)
				if err := f.MergeCell(sheet, cell, endCell); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(sheet, cell, endCell, styleID); err != nil {
				return err
			}
			currentRow++
		}

		// Render Header
		if sec.ShowHeader {
			styleID, err := effectiveStyle(sec.HeaderStyle)
			if err != nil {
				return err
			}
			for i, col := range sec.Columns {
				cell, _ := excelize.CoordinatesToCellName(startCol+i, currentRow)
				if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
					return err
				}
				if col.Width > 0 {
					colName, _ := excelize.ColumnNumberToName(startCol + i)
					if err := f.SetColWidth(sheet, colName, colName, col.Width); err != nil {
						return err
					}
				}
			}
			currentRow++
		}

		// Render Data
		dataVal := reflect.ValueOf(sec.Data)
		if dataVal.Kind() == reflect.Slice {
			for i := 0; i < dataVal.Len(); i++ {
				item := dataVal.Index(i)
				for j, col := range sec.Columns {
					cell, _ := excelize.CoordinatesToCellName(startCol+j, currentRow)
					if err := f.SetCellValue(sheet, cell, extractValue(item, col)); err != nil {
						return err
					}
					if err := f.SetCellStyle(sheet, cell, cell, dataStyle); err != nil {
						return err
					}
				}
				currentRow++
			}
		}

		// Leave one blank row between vertical sections.
		if currentRow+1 > maxRow {
			maxRow = currentRow + 1
		}
		nextColHorizontal = startCol + len(sec.Columns)
	}

	// Locked=true only takes effect on a protected sheet.
	if hasLockedSections {
		return f.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
			SelectLockedCells:   true,
			SelectUnlockedCells: true,
		})
	}

	return nil
}

// extractValue reads a struct field or map key, dereferencing pointers. Nil renders empty.
func extractValue(item reflect.Value, col ColumnConfig) interface{} {
	for item.Kind() == reflect.Ptr || item.Kind() == reflect.Interface {
		if item.IsNil() {
			return ""
		}
		item = item.Elem()
	}

	var v reflect.Value
	switch item.Kind() {
	case reflect.Struct:
		v = item.FieldByName(col.FieldName)
	case reflect.Map:
		v = item.MapIndex(reflect.ValueOf(col.FieldName))
	}
	if !v.IsValid() {
		return ""
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	val := v.Interface()
	if t, ok := val.(time.Time); ok {
		layout := col.TimeFormat
		if layout == "" {
			layout = time.RFC3339
		}
		return t.Format(layout)
	}
	if v.Kind() == reflect.String {
		return v.String()
	}
	return val
}

func createStyle(f *excelize.File, tmpl *StyleTemplate) (int, error) {
	style := &excelize.Style{}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	if tmpl.Locked != nil {
		style.Protection = &excelize.Protection{
			Locked: *tmpl.Locked,
		}
	}
	return f.NewStyle(style)
}
