package bpartner

import "strings"

// Category classifies a SAP partner.
type Category string

const (
	// CategoryStorageLocation marks partners that are warehouses of our own.
	CategoryStorageLocation Category = "STORAGE_LOCATION"
)

// CategoryOf normalises the category code found in the extract.
// It returns the empty category for blank input.
func CategoryOf(code string) Category {
	return Category(strings.ToUpper(strings.TrimSpace(code)))
}

// Row is one line of a SAP partner extract.
type Row struct {
	PartnerCode PartnerCode
	Section     string
	Category    Category

	Name1 string
	Name2 string

	Street  string
	Street2 string
	Street3 string
	Street4 string
	Street5 string

	City       string
	PostalCode string
	CountryKey string

	VATRegNo             string
	PaymentMethod        string
	SalesPaymentTerms    string
	PurchasePaymentTerms string

	// LineNumber is the position of the row in the source file, 1-based.
	LineNumber int
}

// IsStorageLocation reports whether the row describes one of our warehouses.
func (r Row) IsStorageLocation() bool {
	return r.Category == CategoryStorageLocation
}
