// =============================================================================
// SAP Partner Import - Import Settings
// =============================================================================
//
// Import settings decide how a SAP partner code is represented in the partner
// API. Each rule pairs a regular expression over the raw partner code with a
// flag telling whether matching partners are imported as individual business
// partners or aggregated with the other rows of their section.
//
// The rules arrive as a JSON array string stored under a named parameter of
// the external system configuration:
//
//   [
//     {"seqNo": 10, "partnerCodePattern": "^MC", "isSingleBPartner": true,
//      "bpGroupName": "Intercompany"},
//     {"seqNo": 20, "partnerCodePattern": "ASL", "isSingleBPartner": false}
//   ]
//
// EVALUATION:
//   Rules are evaluated in list order and the first rule whose pattern is
//   found anywhere in the raw partner code wins. Patterns are NOT anchored;
//   use ^ and $ to match the whole code.
//
// =============================================================================

package importsettings

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ParamBPartnerImportSettings is the parameter name holding the JSON rules.
const ParamBPartnerImportSettings = "SAPBPartnerImportSettings"

var (
	// ErrMissingParameter is returned when the settings parameter is absent.
	ErrMissingParameter = errors.New("import settings parameter is missing")

	// ErrMalformedSettings is returned when the parameter is not a JSON array of rules.
	ErrMalformedSettings = errors.New("import settings are malformed")

	// ErrInvalidPattern is returned when a rule's pattern does not compile.
	ErrInvalidPattern = errors.New("import settings pattern is invalid")
)

// =============================================================================
// RULE
// =============================================================================

// Rule is a single import settings entry.
type Rule struct {
	// SeqNo is the configured sequence number. It is informational only;
	// evaluation order is the order of the list.
	SeqNo int

	// PartnerCodePattern is the regular expression searched in raw partner codes.
	PartnerCodePattern string

	// IsSingleBPartner marks matching partners to be imported one by one.
	IsSingleBPartner bool

	// BPGroupName is the partner group assigned to matching partners.
	// Empty when no group is configured.
	BPGroupName string

	pattern *regexp.Regexp
}

// NewRule compiles the pattern and returns the rule.
func NewRule(seqNo int, pattern string, single bool, groupName string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: seqNo %d %q: %v", ErrInvalidPattern, seqNo, pattern, err)
	}

	return Rule{
		SeqNo:              seqNo,
		PartnerCodePattern: pattern,
		IsSingleBPartner:   single,
		BPGroupName:        groupName,
		pattern:            re,
	}, nil
}

// Matches reports whether the pattern is found in the raw partner code.
func (r Rule) Matches(rawPartnerCode string) bool {
	if r.pattern == nil {
		return false
	}
	return r.pattern.MatchString(rawPartnerCode)
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the ordered rule list of one import run.
type Settings struct {
	rules []Rule
}

// New builds Settings from already compiled rules, keeping their order.
func New(rules ...Rule) Settings {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return Settings{rules: copied}
}

// Rules returns a copy of the rules in evaluation order.
func (s Settings) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len returns the number of rules.
func (s Settings) Len() int {
	return len(s.rules)
}

// ForPartnerCode returns the first rule matching the raw partner code.
func (s Settings) ForPartnerCode(rawPartnerCode string) (Rule, bool) {
	for _, rule := range s.rules {
		if rule.Matches(rawPartnerCode) {
			return rule, true
		}
	}
	return Rule{}, false
}

// IsSingle reports whether the partner code is matched by a rule flagged single.
func (s Settings) IsSingle(rawPartnerCode string) bool {
	rule, ok := s.ForPartnerCode(rawPartnerCode)
	return ok && rule.IsSingleBPartner
}

// =============================================================================
// PARSING
// =============================================================================

// jsonRule mirrors the JSON representation. Unknown properties are ignored.
type jsonRule struct {
	SeqNo              int     `json:"seqNo"`
	PartnerCodePattern string  `json:"partnerCodePattern"`
	IsSingleBPartner   bool    `json:"isSingleBPartner"`
	BPGroupName        *string `json:"bpGroupName"`
}

// Parse decodes a JSON array of rules and compiles every pattern.
func Parse(data []byte) (Settings, error) {
	var raw []jsonRule
	if err := json.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrMalformedSettings, err)
	}
	if raw == nil {
		return Settings{}, fmt.Errorf("%w: null instead of an array", ErrMalformedSettings)
	}

	rules := make([]Rule, 0, len(raw))
	for _, jr := range raw {
		if jr.PartnerCodePattern == "" {
			return Settings{}, fmt.Errorf("%w: seqNo %d has no partnerCodePattern", ErrMalformedSettings, jr.SeqNo)
		}

		groupName := ""
		if jr.BPGroupName != nil {
			groupName = *jr.BPGroupName
		}

		rule, err := NewRule(jr.SeqNo, jr.PartnerCodePattern, jr.IsSingleBPartner, groupName)
		if err != nil {
			return Settings{}, err
		}
		rules = append(rules, rule)
	}

	return Settings{rules: rules}, nil
}

// FromParameters reads the rules stored under ParamBPartnerImportSettings.
func FromParameters(params map[string]string) (Settings, error) {
	value, ok := params[ParamBPartnerImportSettings]
	if !ok {
		return Settings{}, fmt.Errorf("%w: %s", ErrMissingParameter, ParamBPartnerImportSettings)
	}
	return Parse([]byte(value))
}
