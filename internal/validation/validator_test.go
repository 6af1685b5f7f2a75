package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sap-partner-import/internal/bpartner"
)

func validRow(line int) bpartner.Row {
	return bpartner.Row{
		PartnerCode:       bpartner.NewPartnerCode("10004711", 6),
		Section:           "01",
		Name1:             "Acme GmbH",
		Street:            "Hauptstr. 1",
		City:              "Bonn",
		PostalCode:        "53111",
		CountryKey:        "DE",
		VATRegNo:          "DE123456789",
		SalesPaymentTerms: "Z030",
		LineNumber:        line,
	}
}

func fields(errs []*ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Field)
	}
	return out
}

func TestValidateRow_Valid(t *testing.T) {
	assert.Empty(t, NewValidator().ValidateRow(validRow(2)))
}

func bySeverity(errs []*ValidationError) map[string][]string {
	out := map[string][]string{}
	for _, err := range errs {
		out[err.Severity] = append(out[err.Severity], err.Field)
	}
	return out
}

func TestValidateRow_Required(t *testing.T) {
	row := bpartner.Row{LineNumber: 7, PostalCode: "1"}

	errs := NewValidator().ValidateRow(row)
	assert.ElementsMatch(t, []string{FieldPartnerCode, FieldSection, FieldName1, FieldCountryKey}, fields(errs))
	for _, err := range errs {
		assert.Equal(t, 7, err.LineNumber)
	}

	severities := bySeverity(errs)
	assert.ElementsMatch(t, []string{FieldPartnerCode, FieldSection}, severities[SeverityError],
		"only the grouping keys invalidate a row")
	assert.ElementsMatch(t, []string{FieldName1, FieldCountryKey}, severities[SeverityWarning])
}

func TestValidateRow_Formats(t *testing.T) {
	row := validRow(3)
	row.CountryKey = "deu"
	row.PurchasePaymentTerms = "30 days"
	row.VATRegNo = "123"
	row.PostalCode = ""
	row.Name1 = strings.Repeat("x", 61)

	errs := NewValidator().ValidateRow(row)
	require.Len(t, errs, 5)

	severities := bySeverity(errs)
	assert.Empty(t, severities[SeverityError])
	assert.ElementsMatch(t, []string{FieldName1, FieldCountryKey, FieldPurchasePaymentTerms, FieldVATRegNo, FieldPostalCode},
		severities[SeverityWarning])
}

func TestValidateAll_WarningsKeepRows(t *testing.T) {
	noCountry := validRow(3)
	noCountry.CountryKey = ""
	noCountry.SalesPaymentTerms = "Z0030"

	noName := validRow(4)
	noName.Name1 = ""
	noName.CountryKey = "de"

	rows := []bpartner.Row{validRow(2), noCountry, noName}

	result := Validate(rows)
	assert.True(t, result.IsValid)
	assert.Zero(t, result.ErrorCount)
	assert.Equal(t, 4, result.WarningCount)
	assert.Len(t, result.ValidRows(rows), 3)

	strict := NewValidatorWithOptions(ValidationOptions{TreatWarningsAsErrors: true}).ValidateAll(rows)
	assert.False(t, strict.IsValid)
	assert.Equal(t, 4, strict.ErrorCount)
	for _, err := range strict.Errors {
		assert.True(t, err.IsFatal())
	}
	valid := strict.ValidRows(rows)
	require.Len(t, valid, 1)
	assert.Equal(t, 2, valid[0].LineNumber)
}

func TestValidateAll_ValidRows(t *testing.T) {
	bad := validRow(3)
	bad.Section = ""

	rows := []bpartner.Row{validRow(2), bad, validRow(4)}
	result := Validate(rows)

	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 3, result.RowsValidated)
	assert.False(t, result.IsLineValid(3))

	valid := result.ValidRows(rows)
	require.Len(t, valid, 2)
	assert.Equal(t, 2, valid[0].LineNumber)
	assert.Equal(t, 4, valid[1].LineNumber)
}

func TestValidateAll_ConflictingCategory(t *testing.T) {
	second := validRow(3)
	second.Category = bpartner.CategoryStorageLocation

	result := Validate([]bpartner.Row{validRow(2), second})

	assert.True(t, result.IsValid)
	assert.Equal(t, 1, result.WarningCount)
	assert.Equal(t, FieldCategory, result.Errors[0].Field)

	strict := NewValidatorWithOptions(ValidationOptions{TreatWarningsAsErrors: true}).
		ValidateAll([]bpartner.Row{validRow(2), second})
	assert.False(t, strict.IsValid)
	assert.False(t, strict.IsLineValid(3))
}

func TestValidateAll_StopOnFirstError(t *testing.T) {
	rows := []bpartner.Row{{LineNumber: 2}, {LineNumber: 3}}

	result := NewValidatorWithOptions(ValidationOptions{StopOnFirstError: true}).ValidateAll(rows)
	assert.Len(t, result.Errors, 1)
}

func TestCustomValidator(t *testing.T) {
	noPOBox := func(row bpartner.Row) *ValidationError {
		if strings.HasPrefix(row.Street, "Postfach") {
			return &ValidationError{Severity: SeverityError, Field: FieldStreet, Value: row.Street, Message: "PO boxes cannot receive deliveries"}
		}
		return nil
	}

	row := validRow(9)
	row.Street = "Postfach 12"

	errs := NewValidatorWithOptions(ValidationOptions{CustomValidators: []RowValidatorFunc{noPOBox}}).ValidateRow(row)
	require.Len(t, errs, 1)
	assert.Equal(t, 9, errs[0].LineNumber)
	assert.Equal(t, "10004711", errs[0].PartnerCode)
	assert.Contains(t, errs[0].Error(), "Line 9")
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	out := FormatErrors(NewValidator().ValidateRow(bpartner.Row{LineNumber: 5, PostalCode: "1"}))
	assert.Contains(t, out, "4 finding(s)")
	assert.Contains(t, out, "[ERROR] Line 5")
}
