package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sap-partner-import/internal/config"
	"github.com/ginjaninja78/sap-partner-import/internal/types"
)

func action(typ, value string) config.TransformationAction {
	return config.TransformationAction{Type: typ, Value: value}
}

func TestApplyActions(t *testing.T) {
	tests := []struct {
		name   string
		action config.TransformationAction
		in     string
		want   string
	}{
		{"prepend", action("prepend_string", "SAP-"), "1", "SAP-1"},
		{"append", action("append_string", "-X"), "1", "1-X"},
		{"trim", action("trim", ""), "  a ", "a"},
		{"uppercase", action("uppercase", ""), "de", "DE"},
		{"lowercase", action("lowercase", ""), "DE", "de"},
		{"replace", config.TransformationAction{Type: "replace", Find: "-", Value: ""}, "12-34", "1234"},
		{"regex", config.TransformationAction{Type: "regex_replace", Find: `^0+`, Value: ""}, "000470", "470"},
		{"pad", action("pad_zeros_to_length", "6"), "47", "000047"},
		{"ensure length truncates", action("ensure_length", "3"), "Müller", "Mül"},
		{"ensure length keeps short", action("ensure_length", "3"), "ab", "ab"},
		{"strip zeros", action("strip_leading_zeros", ""), "0000100047", "100047"},
		{"strip zeros keeps one", action("strip_leading_zeros", ""), "000", "0"},
		{"strip zeros empty", action("strip_leading_zeros", ""), "", ""},
		{"lookup hit", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"LAG": "STORAGE_LOCATION"}}, "LAG", "STORAGE_LOCATION"},
		{"lookup miss", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"LAG": "X"}}, "KUN", "KUN"},
		{"lookup default", config.TransformationAction{Type: "lookup_with_default", Value: "Z000", LookupTable: map[string]string{}}, "K1", "Z000"},
		{"default if empty", action("default_if_empty", "DE"), " ", "DE"},
		{"normalize whitespace", action("normalize_whitespace", ""), " a   b\tc ", "a b c"},
		{"extract digits", action("extract_digits", ""), "DE 123-456", "123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransformer([]config.TransformationRule{{Field: "F", Actions: []config.TransformationAction{tt.action}}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Transform("F", tt.in, nil))
		})
	}
}

func TestNewTransformer_Errors(t *testing.T) {
	_, err := NewTransformer([]config.TransformationRule{{Field: "F", Actions: []config.TransformationAction{action("explode", "")}}})
	assert.ErrorContains(t, err, "unknown transformation type")

	_, err = NewTransformer([]config.TransformationRule{{Field: "F", Actions: []config.TransformationAction{{Type: "regex_replace", Find: "("}}}})
	assert.ErrorContains(t, err, "invalid regex")

	_, err = NewTransformer([]config.TransformationRule{{Field: "F", Actions: []config.TransformationAction{action("pad_zeros_to_length", "x")}}})
	assert.ErrorContains(t, err, "positive length")
}

func TestTransformRecord(t *testing.T) {
	tr, err := NewTransformer([]config.TransformationRule{
		{Field: "PartnerCode", Actions: []config.TransformationAction{action("strip_leading_zeros", "")}},
		{Field: "Name2", Actions: []config.TransformationAction{action("if_empty_use_field", "Name1")}},
		{Field: "CountryKey", Actions: []config.TransformationAction{action("trim", ""), action("uppercase", "")}},
	})
	require.NoError(t, err)

	in := types.Record{Line: 3, Fields: map[string]string{
		"PartnerCode": "000100047",
		"Name1":       "Acme",
		"Name2":       "",
		"CountryKey":  " de",
	}}

	out := tr.TransformRecord(in)

	assert.Equal(t, 3, out.Line)
	assert.Equal(t, "100047", out.Get("PartnerCode"))
	assert.Equal(t, "Acme", out.Get("Name2"))
	assert.Equal(t, "DE", out.Get("CountryKey"))
	assert.Equal(t, "000100047", in.Get("PartnerCode"), "input record is not modified")
}

func TestPadLeft(t *testing.T) {
	assert.Equal(t, "0ä", PadLeft("ä", 2, '0'))
	assert.Equal(t, "abc", PadLeft("abc", 2, '0'))
}
