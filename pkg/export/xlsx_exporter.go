package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet is one named worksheet of a workbook.
type Sheet struct {
	Name string
	Data Dataset
}

// XLSXExporter renders datasets into spreadsheet workbooks.
type XLSXExporter struct{}

// NewXLSXExporter constructs a spreadsheet exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes each sheet in order; the first one becomes the active sheet.
func (e *XLSXExporter) Render(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one sheet")
	}
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	for i, sheet := range sheets {
		if i == 0 {
			if err := file.SetSheetName(file.GetSheetName(0), sheet.Name); err != nil {
				return nil, fmt.Errorf("name sheet %s: %w", sheet.Name, err)
			}
		} else if _, err := file.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet.Name, err)
		}
		for r, record := range sheet.Data.Records() {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, err
			}
			values := make([]interface{}, len(record))
			for c, v := range record {
				values[c] = v
			}
			if err := file.SetSheetRow(sheet.Name, cell, &values); err != nil {
				return nil, fmt.Errorf("write sheet %s row %d: %w", sheet.Name, r+1, err)
			}
		}
	}
	file.SetActiveSheet(0)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadXLSX returns the rows of the first worksheet.
func ReadXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	return rows, nil
}

// ReadXLSXSheet returns the rows of a named worksheet.
func ReadXLSXSheet(data []byte, name string) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()
	rows, err := file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", name, err)
	}
	return rows, nil
}
