// =============================================================================
// SAP Partner Import - Data Transformer
// =============================================================================
//
// This module applies the profile's transformation rules to extract records
// before they are mapped to partner rows. SAP extracts frequently need small
// corrections, for example:
//   - Partner codes exported with ALPHA leading zeros ("0000100047")
//   - Country keys in lowercase
//   - Internal payment term codes that differ from the ERP keys
//
// Rules are applied in configuration order, and the actions of a rule in
// their listed order. Regular expressions are compiled once when the
// transformer is created, so an invalid pattern fails the profile up front
// rather than on the first matching row.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/sap-partner-import/internal/config"
	"github.com/ginjaninja78/sap-partner-import/internal/types"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	nonDigitPattern   = regexp.MustCompile(`\D+`)
)

// Transformer applies transformation rules to extract records.
type Transformer struct {
	rules []compiledRule
}

type compiledRule struct {
	field   string
	actions []compiledAction
}

type compiledAction struct {
	config.TransformationAction
	pattern *regexp.Regexp
	length  int
}

// NewTransformer validates and compiles the rules.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{rules: make([]compiledRule, 0, len(rules))}

	for _, rule := range rules {
		compiled := compiledRule{field: rule.Field}
		for _, action := range rule.Actions {
			ca, err := compileAction(action)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", rule.Field, err)
			}
			compiled.actions = append(compiled.actions, ca)
		}
		t.rules = append(t.rules, compiled)
	}

	return t, nil
}

func compileAction(action config.TransformationAction) (compiledAction, error) {
	ca := compiledAction{TransformationAction: action}

	switch action.Type {
	case "prepend_string", "append_string", "trim", "uppercase", "lowercase",
		"replace", "strip_leading_zeros", "lookup", "lookup_with_default",
		"default_if_empty", "if_empty_use_field", "normalize_whitespace", "extract_digits":

	case "regex_replace":
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return ca, fmt.Errorf("invalid regex pattern %q: %w", action.Find, err)
		}
		ca.pattern = re

	case "pad_zeros_to_length", "ensure_length":
		n, err := strconv.Atoi(strings.TrimSpace(action.Value))
		if err != nil || n <= 0 {
			return ca, fmt.Errorf("%s needs a positive length, got %q", action.Type, action.Value)
		}
		ca.length = n

	default:
		return ca, fmt.Errorf("unknown transformation type: %s", action.Type)
	}

	return ca, nil
}

// Transform applies the rules of one field to value. fields gives access to
// the other columns of the record.
func (t *Transformer) Transform(fieldName, value string, fields map[string]string) string {
	for _, rule := range t.rules {
		if rule.field != fieldName {
			continue
		}
		for _, action := range rule.actions {
			value = action.apply(value, fields)
		}
	}
	return value
}

// TransformRecord returns a copy of the record with all rules applied.
func (t *Transformer) TransformRecord(record types.Record) types.Record {
	fields := make(map[string]string, len(record.Fields))
	for k, v := range record.Fields {
		fields[k] = v
	}

	for _, rule := range t.rules {
		value := fields[rule.field]
		for _, action := range rule.actions {
			value = action.apply(value, fields)
		}
		fields[rule.field] = value
	}

	return types.Record{Line: record.Line, Fields: fields}
}

func (a compiledAction) apply(value string, fields map[string]string) string {
	switch a.Type {
	case "prepend_string":
		return a.Value + value

	case "append_string":
		return value + a.Value

	case "trim":
		return strings.TrimSpace(value)

	case "uppercase":
		return strings.ToUpper(value)

	case "lowercase":
		return strings.ToLower(value)

	case "replace":
		if a.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, a.Find, a.Value)

	case "regex_replace":
		return a.pattern.ReplaceAllString(value, a.Value)

	case "pad_zeros_to_length":
		return PadLeft(value, a.length, '0')

	case "ensure_length":
		// Truncates only; SAP codes are never padded on export.
		runes := []rune(value)
		if len(runes) > a.length {
			return string(runes[:a.length])
		}
		return value

	case "strip_leading_zeros":
		stripped := strings.TrimLeft(value, "0")
		if stripped == "" && value != "" {
			return "0"
		}
		return stripped

	case "lookup":
		if replacement, ok := a.LookupTable[value]; ok {
			return replacement
		}
		return value

	case "lookup_with_default":
		if replacement, ok := a.LookupTable[value]; ok {
			return replacement
		}
		return a.Value

	case "default_if_empty":
		if strings.TrimSpace(value) == "" {
			return a.Value
		}
		return value

	case "if_empty_use_field":
		if strings.TrimSpace(value) == "" {
			return fields[a.Value]
		}
		return value

	case "normalize_whitespace":
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(value, " "))

	case "extract_digits":
		return nonDigitPattern.ReplaceAllString(value, "")
	}

	return value
}

// PadLeft pads s on the left with padChar up to length runes.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
