// =============================================================================
// SAP Partner Import - Validation Engine
// =============================================================================
//
// This module validates partner rows after they were mapped from an extract
// and before they reach the request builder. It checks:
//   - Grouping keys (partner code, section): a row without them cannot be
//     grouped and is invalid
//   - Recommended fields (name, country, postal code)
//   - Character length limits of the partner API
//   - Country key, payment term and VAT number format
//
// Every row with grouping keys is mapped by the request builder, so all
// checks except the grouping keys are warnings. A profile with
// strict_validation turns warnings into row errors.
//
// VALIDATION STRATEGY:
//   1. Row-level: each row is validated on its own
//   2. File-level: cross-row checks (conflicting categories within a group)
//
// ERROR HANDLING:
//   - Errors are collected, not returned on the first hit
//   - Each error carries the source line, field and value
//   - Severity "error" makes a row invalid, "warning" is reported only
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/sap-partner-import/internal/bpartner"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Field names used in validation errors.
const (
	FieldPartnerCode          = "PartnerCode"
	FieldSection              = "Section"
	FieldCategory             = "PartnerCategory"
	FieldName1                = "Name1"
	FieldName2                = "Name2"
	FieldStreet               = "Street"
	FieldCity                 = "City"
	FieldPostalCode           = "PostalCode"
	FieldCountryKey           = "CountryKey"
	FieldVATRegNo             = "VatRegNo"
	FieldSalesPaymentTerms    = "SalesPaymentTerms"
	FieldPurchasePaymentTerms = "PurchasePaymentTerms"
)

var (
	countryKeyPattern  = regexp.MustCompile(`^[A-Z]{2}$`)
	paymentTermPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,4}$`)
	vatRegNoPattern    = regexp.MustCompile(`^[A-Z]{2}[A-Za-z0-9+*.]{2,13}$`)
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// PartnerCode is the raw partner code of the row.
	PartnerCode string

	// LineNumber is the line of the row in the source file.
	LineNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Line %d, Partner '%s', Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.LineNumber,
		e.PartnerCode,
		e.Field,
		e.Message,
		e.Value,
	)
}

// IsFatal reports whether the finding invalidates its row.
func (e *ValidationError) IsFatal() bool {
	return e.Severity == SeverityError
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RowsValidated is the number of rows checked.
	RowsValidated int

	// invalidLines holds the source lines of rows with fatal errors.
	invalidLines map[int]bool
}

// IsLineValid reports whether the row read from line passed validation.
func (r *ValidationResult) IsLineValid(line int) bool {
	return !r.invalidLines[line]
}

// ValidRows returns the rows without fatal errors, keeping their order.
func (r *ValidationResult) ValidRows(rows []bpartner.Row) []bpartner.Row {
	valid := make([]bpartner.Row, 0, len(rows))
	for _, row := range rows {
		if r.IsLineValid(row.LineNumber) {
			valid = append(valid, row)
		}
	}
	return valid
}

// =============================================================================
// VALIDATOR
// =============================================================================

// RowValidatorFunc is a custom check. It returns nil when the row passes.
type RowValidatorFunc func(row bpartner.Row) *ValidationError

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// StopOnFirstError stops validation after the first fatal error.
	StopOnFirstError bool

	// TreatWarningsAsErrors reports warnings as errors, invalidating their row.
	TreatWarningsAsErrors bool

	// MaxLengths limits field lengths in characters.
	MaxLengths map[string]int

	// CustomValidators run after the built-in checks.
	CustomValidators []RowValidatorFunc
}

// DefaultMaxLengths are the column sizes of the partner and location tables.
func DefaultMaxLengths() map[string]int {
	return map[string]int{
		FieldPartnerCode: 40,
		FieldSection:     10,
		FieldName1:       60,
		FieldName2:       60,
		FieldStreet:      100,
		FieldCity:        60,
		FieldPostalCode:  10,
		FieldVATRegNo:    60,
	}
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxLengths: DefaultMaxLengths(),
	}
}

// Validator performs validation on partner rows.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a new Validator with the default options.
func NewValidator() *Validator {
	return NewValidatorWithOptions(DefaultValidationOptions())
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	if options.MaxLengths == nil {
		options.MaxLengths = DefaultMaxLengths()
	}
	return &Validator{options: options}
}

// Validate validates rows with the default options.
func Validate(rows []bpartner.Row) *ValidationResult {
	return NewValidator().ValidateAll(rows)
}

// ValidateAll validates all rows and returns a detailed result.
func (v *Validator) ValidateAll(rows []bpartner.Row) *ValidationResult {
	result := &ValidationResult{
		IsValid:       true,
		RowsValidated: len(rows),
		invalidLines:  make(map[int]bool),
	}

	record := func(err *ValidationError) bool {
		if v.options.TreatWarningsAsErrors {
			err.Severity = SeverityError
		}
		result.Errors = append(result.Errors, err)

		fatal := err.IsFatal()
		if fatal {
			result.ErrorCount++
			result.IsValid = false
			result.invalidLines[err.LineNumber] = true
		} else {
			result.WarningCount++
		}
		return fatal && v.options.StopOnFirstError
	}

	for _, row := range rows {
		for _, err := range v.ValidateRow(row) {
			if record(err) {
				return result
			}
		}
	}

	for _, err := range validateGroups(rows) {
		if record(err) {
			return result
		}
	}

	return result
}

// ValidateRow validates a single row.
func (v *Validator) ValidateRow(row bpartner.Row) []*ValidationError {
	c := rowChecker{row: row}

	c.required(FieldPartnerCode, row.PartnerCode.Raw())
	c.required(FieldSection, row.Section)
	c.recommended(FieldName1, row.Name1)
	c.recommended(FieldCountryKey, row.CountryKey)

	c.maxLength(v.options.MaxLengths, FieldPartnerCode, row.PartnerCode.Raw())
	c.maxLength(v.options.MaxLengths, FieldSection, row.Section)
	c.maxLength(v.options.MaxLengths, FieldName1, row.Name1)
	c.maxLength(v.options.MaxLengths, FieldName2, row.Name2)
	c.maxLength(v.options.MaxLengths, FieldStreet, row.Street)
	c.maxLength(v.options.MaxLengths, FieldCity, row.City)
	c.maxLength(v.options.MaxLengths, FieldPostalCode, row.PostalCode)
	c.maxLength(v.options.MaxLengths, FieldVATRegNo, row.VATRegNo)

	if row.CountryKey != "" && !countryKeyPattern.MatchString(row.CountryKey) {
		c.add(SeverityWarning, FieldCountryKey, row.CountryKey, "format", "country key should be two uppercase letters")
	}

	c.paymentTerm(FieldSalesPaymentTerms, row.SalesPaymentTerms)
	c.paymentTerm(FieldPurchasePaymentTerms, row.PurchasePaymentTerms)

	if row.VATRegNo != "" && !vatRegNoPattern.MatchString(row.VATRegNo) {
		c.add(SeverityWarning, FieldVATRegNo, row.VATRegNo, "format", "VAT registration number does not start with a country prefix")
	}
	c.recommended(FieldPostalCode, row.PostalCode)

	for _, custom := range v.options.CustomValidators {
		if err := custom(row); err != nil {
			if err.LineNumber == 0 {
				err.LineNumber = row.LineNumber
			}
			if err.PartnerCode == "" {
				err.PartnerCode = row.PartnerCode.Raw()
			}
			c.errs = append(c.errs, err)
		}
	}

	return c.errs
}

// validateGroups reports a raw partner code appearing with different
// categories within the same section, which would flip the partner's flags
// depending on row order.
func validateGroups(rows []bpartner.Row) []*ValidationError {
	type key struct{ code, section string }

	seen := make(map[key]bpartner.Category)
	var errs []*ValidationError

	for _, row := range rows {
		k := key{row.PartnerCode.Raw(), row.Section}
		category, ok := seen[k]
		if !ok {
			seen[k] = row.Category
			continue
		}
		if category != row.Category {
			errs = append(errs, &ValidationError{
				Severity:    SeverityWarning,
				Field:       FieldCategory,
				Value:       string(row.Category),
				Rule:        "consistent",
				Message:     fmt.Sprintf("partner category differs from earlier row (%q)", category),
				PartnerCode: row.PartnerCode.Raw(),
				LineNumber:  row.LineNumber,
			})
		}
	}

	return errs
}

type rowChecker struct {
	row  bpartner.Row
	errs []*ValidationError
}

func (c *rowChecker) add(severity, field, value, rule, message string) {
	c.errs = append(c.errs, &ValidationError{
		Severity:    severity,
		Field:       field,
		Value:       value,
		Rule:        rule,
		Message:     message,
		PartnerCode: c.row.PartnerCode.Raw(),
		LineNumber:  c.row.LineNumber,
	})
}

func (c *rowChecker) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.add(SeverityError, field, value, "required", "field is required")
	}
}

func (c *rowChecker) recommended(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.add(SeverityWarning, field, value, "recommended", "field is empty")
	}
}

func (c *rowChecker) paymentTerm(field, value string) {
	if strings.TrimSpace(value) != "" && !paymentTermPattern.MatchString(value) {
		c.add(SeverityWarning, field, value, "format", "payment term key should be 1 to 4 alphanumeric characters")
	}
}

func (c *rowChecker) maxLength(limits map[string]int, field, value string) {
	limit, ok := limits[field]
	if !ok || limit <= 0 {
		return
	}
	if n := utf8.RuneCountInString(value); n > limit {
		c.add(SeverityWarning, field, value, "max_length", fmt.Sprintf("length %d exceeds %d characters", n, limit))
	}
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation completed with %d finding(s):\n\n", len(errors))
	for i, err := range errors {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}
	return builder.String()
}
