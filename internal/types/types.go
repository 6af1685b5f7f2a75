// =============================================================================
// SAP Partner Import - Shared Types
// =============================================================================
//
// This package contains the request types sent to the partner API. They are
// shared by:
//   - bpartner   (builds them)
//   - jsonwriter (serialises them)
//   - converter  (collects them per input file)
//
// It also holds Extract, the format independent result of the csv and xlsx
// parsers.
//
// Optional values are pointers tagged omitempty so that a field left unset
// is absent from the JSON rather than sent as a zero value.
//
// =============================================================================

package types

// =============================================================================
// ENUMERATIONS
// =============================================================================

// DeliveryRule controls when goods are delivered to a partner.
type DeliveryRule string

const (
	DeliveryRuleAvailability DeliveryRule = "Availability"
)

// DeliveryViaRule controls how goods reach a partner.
type DeliveryViaRule string

const (
	DeliveryViaRuleShipper DeliveryViaRule = "Shipper"
)

// PaymentRule is the payment method used for a partner.
type PaymentRule string

const (
	PaymentRuleOnCredit PaymentRule = "OnCredit"
)

// IfNotExists is the sync directive for records missing in the target system.
type IfNotExists string

const (
	IfNotExistsCreate IfNotExists = "CREATE"
	IfNotExistsFail   IfNotExists = "FAIL"
)

// IfExists is the sync directive for records already present in the target system.
type IfExists string

const (
	IfExistsUpdateMerge  IfExists = "UPDATE_MERGE"
	IfExistsUpdateRemove IfExists = "UPDATE_REMOVE"
	IfExistsDontUpdate   IfExists = "DONT_UPDATE"
)

// SyncAdvise tells the partner API how to reconcile a request with existing data.
type SyncAdvise struct {
	IfNotExists IfNotExists `json:"ifNotExists"`
	IfExists    IfExists    `json:"ifExists"`
}

// CreateOrMerge creates missing records and merges into existing ones.
var CreateOrMerge = SyncAdvise{
	IfNotExists: IfNotExistsCreate,
	IfExists:    IfExistsUpdateMerge,
}

// =============================================================================
// BUSINESS PARTNER
// =============================================================================

// BPartner is the business partner part of an upsert item.
type BPartner struct {
	Code        string  `json:"code,omitempty"`
	CompanyName string  `json:"companyName,omitempty"`
	Name        string  `json:"name,omitempty"`
	Name2       string  `json:"name2,omitempty"`
	Group       *string `json:"group,omitempty"`
	Language    string  `json:"language,omitempty"`

	CustomerPaymentTermIdentifier *string `json:"customerPaymentTermIdentifier,omitempty"`
	VendorPaymentTermIdentifier   *string `json:"vendorPaymentTermIdentifier,omitempty"`

	SectionCodeValue              string `json:"sectionCodeValue,omitempty"`
	SectionGroupPartnerIdentifier string `json:"sectionGroupPartnerIdentifier,omitempty"`
	SAPBPartnerCode               string `json:"sapBPartnerCode,omitempty"`

	DeliveryRule    DeliveryRule    `json:"deliveryRule,omitempty"`
	DeliveryViaRule DeliveryViaRule `json:"deliveryViaRule,omitempty"`
	PaymentRule     PaymentRule     `json:"paymentRule,omitempty"`
	PaymentRulePO   PaymentRule     `json:"paymentRulePO,omitempty"`

	Vendor              *bool `json:"vendor,omitempty"`
	Customer            *bool `json:"customer,omitempty"`
	StorageWarehouse    *bool `json:"storageWarehouse,omitempty"`
	Prospect            *bool `json:"prospect,omitempty"`
	SectionPartner      *bool `json:"sectionPartner,omitempty"`
	SectionGroupPartner *bool `json:"sectionGroupPartner,omitempty"`
}

// =============================================================================
// LOCATION
// =============================================================================

// Location is one address of a business partner.
type Location struct {
	CountryCode string `json:"countryCode,omitempty"`
	City        string `json:"city,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	Address3    string `json:"address3,omitempty"`
	Address4    string `json:"address4,omitempty"`
	Postal      string `json:"postal,omitempty"`

	VatID            string `json:"vatId,omitempty"`
	SAPPaymentMethod string `json:"sapPaymentMethod,omitempty"`
	SAPBPartnerCode  string `json:"sapBPartnerCode,omitempty"`

	VisitorsAddress          *bool `json:"visitorsAddress,omitempty"`
	ShipTo                   *bool `json:"shipTo,omitempty"`
	ShipToDefault            *bool `json:"shipToDefault,omitempty"`
	BillTo                   *bool `json:"billTo,omitempty"`
	BillToDefault            *bool `json:"billToDefault,omitempty"`
	HandoverLocation         *bool `json:"handoverLocation,omitempty"`
	RemitTo                  *bool `json:"remitTo,omitempty"`
	ReplicationLookupDefault *bool `json:"replicationLookupDefault,omitempty"`
}

// LocationUpsertItem pairs a location with its external identifier.
type LocationUpsertItem struct {
	LocationIdentifier     string   `json:"locationIdentifier"`
	Location               Location `json:"location"`
	ExternalSystemConfigID int64    `json:"externalSystemConfigId"`
}

// LocationUpsert is the list of locations of one composite.
type LocationUpsert struct {
	RequestItems []LocationUpsertItem `json:"requestItems"`
}

// =============================================================================
// COMPOSITE AND REQUEST
// =============================================================================

// Composite groups a business partner with its locations.
type Composite struct {
	OrgCode   string          `json:"orgCode"`
	BPartner  BPartner        `json:"bpartner"`
	Locations *LocationUpsert `json:"locations,omitempty"`
}

// BPartnerUpsertItem is one unit of the upsert request.
type BPartnerUpsertItem struct {
	BPartnerIdentifier     string    `json:"bpartnerIdentifier"`
	BPartnerComposite      Composite `json:"bpartnerComposite"`
	ExternalSystemConfigID int64     `json:"externalSystemConfigId"`
}

// BPartnerUpsert is the body posted to the partner API.
type BPartnerUpsert struct {
	RequestItems []BPartnerUpsertItem `json:"requestItems"`
	SyncAdvise   SyncAdvise           `json:"syncAdvise"`
}

// BPUpsertRequest is one upsert request together with its organisation.
type BPUpsertRequest struct {
	OrgCode                   string         `json:"orgCode"`
	JSONRequestBPartnerUpsert BPartnerUpsert `json:"jsonRequestBPartnerUpsert"`
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// =============================================================================
// EXTRACT DATA
// =============================================================================

// Record is one data line of an extract file, keyed by column header.
type Record struct {
	// Line is the 1-based line (CSV) or row (XLSX) number in the source file.
	Line   int
	Fields map[string]string
}

// Get returns the value of a column, or "" when the column is absent.
func (r Record) Get(header string) string {
	return r.Fields[header]
}

// Extract is a parsed extract file, independent of its source format.
type Extract struct {
	Headers    []string
	Records    []Record
	SourceFile string
}

// HasHeader reports whether the extract contains the column.
func (e *Extract) HasHeader(header string) bool {
	for _, h := range e.Headers {
		if h == header {
			return true
		}
	}
	return false
}
