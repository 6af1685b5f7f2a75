// =============================================================================
// SAP Partner Import - XLSX Parser Module
// =============================================================================
//
// Some SAP systems deliver the partner extract as an Excel workbook instead of
// a delimited file. This module reads one sheet of such a workbook into the
// same Extract structure the CSV parser produces, so the rest of the pipeline
// does not care about the source format.
//
// EXPECTED LAYOUT:
//
//	| PartnerCode | Section | Name1     | ... |   <- header row (HeaderRow)
//	|-------------|---------|-----------|-----|
//	| 100047      | 01      | Acme GmbH | ... |   <- data rows
//
// Rows above the header row are ignored. Empty rows are skipped.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sap-partner-import/internal/config"
	"github.com/ginjaninja78/sap-partner-import/internal/types"
)

// Parse reads the configured sheet of an XLSX extract.
func Parse(filePath string, settings config.XLSXSettings) (*types.Extract, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	extract, err := parseWorkbook(f, settings)
	if err != nil {
		return nil, err
	}
	extract.SourceFile = filePath
	return extract, nil
}

// ParseReader reads the configured sheet of an XLSX extract from r.
func ParseReader(r io.Reader, settings config.XLSXSettings) (*types.Extract, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f, settings)
}

// SheetNames lists the sheets of a workbook, skipping sheets prefixed with "_".
func SheetNames(filePath string) ([]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var names []string
	for _, name := range f.GetSheetList() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func parseWorkbook(f *excelize.File, settings config.XLSXSettings) (*types.Extract, error) {
	sheetName := settings.SheetName
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheetName)
	}

	headerRow := settings.HeaderRow
	if headerRow <= 0 {
		headerRow = 1
	}

	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	defer rows.Close()

	extract := &types.Extract{}
	rowNumber := 0

	for rows.Next() {
		rowNumber++

		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNumber, err)
		}

		switch {
		case rowNumber < headerRow:
			continue
		case rowNumber == headerRow:
			extract.Headers = cleanHeaders(cells)
			continue
		}

		if isRowEmpty(cells) {
			continue
		}

		fields := make(map[string]string, len(extract.Headers))
		for i, header := range extract.Headers {
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			fields[header] = value
		}

		extract.Records = append(extract.Records, types.Record{Line: rowNumber, Fields: fields})
	}

	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	if extract.Headers == nil {
		return nil, fmt.Errorf("sheet %q has no header row %d", sheetName, headerRow)
	}

	return extract, nil
}

func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
