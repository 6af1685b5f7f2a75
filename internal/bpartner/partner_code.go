package bpartner

import "strings"

// PartnerCode is a SAP partner number decomposed into its raw form and the
// grouped form shared by all sections of the same legal entity.
type PartnerCode struct {
	raw     string
	grouped string
}

// NewPartnerCode parses a raw partner code. The grouped form is the raw code
// cut to groupLength characters; groupLength <= 0 keeps the whole code.
func NewPartnerCode(raw string, groupLength int) PartnerCode {
	raw = strings.TrimSpace(raw)

	grouped := raw
	if groupLength > 0 && len(raw) > groupLength {
		grouped = raw[:groupLength]
	}

	return PartnerCode{raw: raw, grouped: grouped}
}

// Raw returns the untruncated partner code.
func (c PartnerCode) Raw() string { return c.raw }

// Grouped returns the partner code shared by the whole group.
func (c PartnerCode) Grouped() string { return c.grouped }

// SectionSuffix returns the characters of the raw code after the grouped form.
func (c PartnerCode) SectionSuffix() string {
	return strings.TrimPrefix(c.raw, c.grouped)
}

// MatchesGroup reports whether both codes belong to the same partner group.
func (c PartnerCode) MatchesGroup(other PartnerCode) bool {
	return c.grouped == other.grouped
}

// IsZero reports whether the code is empty.
func (c PartnerCode) IsZero() bool {
	return c.raw == ""
}

func (c PartnerCode) String() string { return c.raw }
