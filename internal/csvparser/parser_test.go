package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sap-partner-import/internal/config"
)

func settings() config.CSVSettings {
	return config.CSVSettings{Delimiter: ";", HeaderRows: 1, DataStartRow: 2, Encoding: "UTF-8"}
}

func TestParseReader(t *testing.T) {
	input := "\xEF\xBB\xBFPartnerCode;Section;Name1\n" +
		"100047;01;Acme GmbH\n" +
		";;\n" +
		"100048;02\n"

	extract, err := ParseReader(strings.NewReader(input), settings())
	require.NoError(t, err)

	assert.Equal(t, []string{"PartnerCode", "Section", "Name1"}, extract.Headers)
	require.Len(t, extract.Records, 2)

	assert.Equal(t, 2, extract.Records[0].Line)
	assert.Equal(t, "Acme GmbH", extract.Records[0].Get("Name1"))

	assert.Equal(t, 4, extract.Records[1].Line)
	assert.Equal(t, "", extract.Records[1].Get("Name1"))
	assert.Equal(t, "02", extract.Records[1].Get("Section"))
}

func TestParseReader_MultiLineHeader(t *testing.T) {
	s := settings()
	s.HeaderRows = 2
	s.DataStartRow = 4
	s.Delimiter = "tab"

	input := "Partner\t\n" +
		"Code\tSection\n" +
		"skipped\tline\n" +
		"42\t10\n"

	extract, err := ParseReader(strings.NewReader(input), s)
	require.NoError(t, err)

	assert.Equal(t, []string{"Partner Code", "Section"}, extract.Headers)
	require.Len(t, extract.Records, 1)
	assert.Equal(t, "42", extract.Records[0].Get("Partner Code"))
	assert.Equal(t, 4, extract.Records[0].Line)
}

func TestParseReader_Latin1(t *testing.T) {
	s := settings()
	s.Encoding = "ISO-8859-1"

	input := "Name1\nM\xfcller\n"

	extract, err := ParseReader(strings.NewReader(input), s)
	require.NoError(t, err)
	require.Len(t, extract.Records, 1)
	assert.Equal(t, "Müller", extract.Records[0].Get("Name1"))
}

func TestParseReader_Errors(t *testing.T) {
	_, err := ParseReader(strings.NewReader(""), settings())
	assert.ErrorIs(t, err, ErrNoHeader)

	s := settings()
	s.Encoding = "EBCDIC"
	_, err = ParseReader(strings.NewReader("a\n"), s)
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestCleanHeaders(t *testing.T) {
	assert.Equal(t, []string{"A", "Column_2"}, cleanHeaders([]string{" A ", ""}))
}

func TestParse_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "BP_1.csv")
	require.NoError(t, os.WriteFile(path, []byte("PartnerCode;Section\n1;01\n"), 0o644))

	extract, err := Parse(path, settings())
	require.NoError(t, err)
	assert.Equal(t, path, extract.SourceFile)
	assert.Len(t, extract.Records, 1)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.csv"), settings())
	assert.Error(t, err)
}
