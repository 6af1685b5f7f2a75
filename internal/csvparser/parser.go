// =============================================================================
// SAP Partner Import - CSV Parser Module
// =============================================================================
//
// This module reads the delimited partner extracts written by SAP. It handles:
//   - Different delimiters (semicolon, comma, pipe, tab)
//   - Multi-line headers
//   - Custom data start rows
//   - UTF-8 (with or without BOM), ISO-8859-1, ISO-8859-15 and Windows-1252
//
// Every record keeps the line number it was read from so that validation
// errors can point back into the source file.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/sap-partner-import/internal/config"
	"github.com/ginjaninja78/sap-partner-import/internal/types"
)

// ErrNoHeader is returned when the file ends before its header rows.
var ErrNoHeader = errors.New("unexpected end of file while reading headers")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV extract from disk.
func Parse(filePath string, settings config.CSVSettings) (*types.Extract, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	extract, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}
	extract.SourceFile = filePath
	return extract, nil
}

// ParseReader reads a CSV extract from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*types.Extract, error) {
	parser, err := NewStreamingParser(r, settings)
	if err != nil {
		return nil, err
	}

	extract := &types.Extract{Headers: parser.Headers()}
	for parser.Next() {
		extract.Records = append(extract.Records, parser.Record())
	}
	if err := parser.Err(); err != nil {
		return nil, err
	}

	return extract, nil
}

// decodingReader wraps r so that it yields UTF-8.
func decodingReader(r io.Reader, name string) (io.Reader, error) {
	var enc encoding.Encoding

	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "UTF-8", "UTF8":
		return stripBOM(r)
	case "UTF-8-BOM":
		enc = unicode.UTF8BOM
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		enc = charmap.ISO8859_1
	case "ISO-8859-15", "LATIN9", "LATIN-9":
		enc = charmap.ISO8859_15
	case "WINDOWS-1252", "CP1252":
		enc = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}

	return transform.NewReader(r, enc.NewDecoder()), nil
}

func stripBOM(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	case ",", "comma":
		reader.Comma = ','
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ';'
		}
	}

	// SAP extracts do not pad short lines.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// mergeHeaders merges multi-line headers into one header per column.
//
//	Row 1: "Partner", "",        "Payment"
//	Row 2: "Code",    "Section", "Terms"
//	Result: "Partner Code", "Section", "Payment Terms"
func mergeHeaders(headerRows [][]string) []string {
	if len(headerRows) == 1 {
		return cleanHeaders(headerRows[0])
	}

	maxCols := 0
	for _, row := range headerRows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for _, row := range headerRows {
			if col < len(row) {
				if value := strings.TrimSpace(row[col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers)
}

// cleanHeaders trims headers and names empty ones after their position.
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

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads an extract one record at a time.
//
// USAGE:
//
//	parser, err := NewStreamingParser(file, settings)
//	if err != nil {
//	    return err
//	}
//	for parser.Next() {
//	    record := parser.Record()
//	}
//	if err := parser.Err(); err != nil {
//	    return err
//	}
type StreamingParser struct {
	reader   *csv.Reader
	headers  []string
	current  types.Record
	err      error
	settings config.CSVSettings
}

// NewStreamingParser reads the header rows of r and positions the parser on
// the first data row.
func NewStreamingParser(r io.Reader, settings config.CSVSettings) (*StreamingParser, error) {
	if settings.HeaderRows <= 0 {
		return nil, fmt.Errorf("header_rows must be at least 1")
	}

	decoded, err := decodingReader(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	configureReader(reader, settings)

	parser := &StreamingParser{
		reader:   reader,
		settings: settings,
	}

	if err := parser.readHeaders(); err != nil {
		return nil, err
	}
	if err := parser.skipToDataStart(); err != nil {
		return nil, err
	}

	return parser, nil
}

func (p *StreamingParser) readHeaders() error {
	headerRows := make([][]string, 0, p.settings.HeaderRows)

	for i := 0; i < p.settings.HeaderRows; i++ {
		row, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return ErrNoHeader
		}
		if err != nil {
			return fmt.Errorf("error reading header row %d: %w", i+1, err)
		}
		headerRows = append(headerRows, row)
	}

	p.headers = mergeHeaders(headerRows)
	return nil
}

func (p *StreamingParser) skipToDataStart() error {
	target := p.settings.DataStartRow
	if target <= 0 {
		target = p.settings.HeaderRows + 1
	}

	for line := p.settings.HeaderRows + 1; line < target; line++ {
		_, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error skipping to data start: %w", err)
		}
	}

	return nil
}

// Next advances to the next non-empty record.
func (p *StreamingParser) Next() bool {
	for p.err == nil {
		row, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading record: %w", err)
			return false
		}

		if isRowEmpty(row) {
			continue
		}

		line, _ := p.reader.FieldPos(0)
		fields := make(map[string]string, len(p.headers))
		for i, header := range p.headers {
			if i < len(row) {
				fields[header] = strings.TrimSpace(row[i])
			} else {
				fields[header] = ""
			}
		}

		p.current = types.Record{Line: line, Fields: fields}
		return true
	}
	return false
}

// Record returns the current record.
func (p *StreamingParser) Record() types.Record {
	return p.current
}

// Headers returns the parsed headers.
func (p *StreamingParser) Headers() []string {
	return p.headers
}

// Err returns the first error met while reading.
func (p *StreamingParser) Err() error {
	return p.err
}
