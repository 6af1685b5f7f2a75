// =============================================================================
// SAP Partner Import - Upsert Request Builder
// =============================================================================
//
// This file turns the rows of one SAP partner group into an upsert request
// for the partner API.
//
// TWO PHASES:
//   1. Accumulate: an Accumulator is started with the first row of a group
//      and collects every following row whose partner code belongs to the
//      same group. The accumulator is owned by its caller.
//   2. Build: Build is a pure function of the collected rows. Calling it
//      twice on the same rows yields identical requests.
//
// ITEM LAYOUT (per request):
//   - the section group partner, when the first row matches no import rule
//   - for each section, in order of first appearance:
//       - one aggregated item for all rows not imported individually
//       - one item per row matched by a "single" import rule
//
// =============================================================================

package bpartner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/sap-partner-import/internal/importsettings"
	"github.com/ginjaninja78/sap-partner-import/internal/types"
)

const (
	// DefaultLanguage is used when the profile does not configure one.
	DefaultLanguage = "de_DE"

	externalIdentifierPrefix = "ext-SAP-"
	valueIdentifierPrefix    = "val-"
)

// ErrEmptyAggregate is returned when an aggregated item is requested for no rows.
var ErrEmptyAggregate = errors.New("at least one partner row is required to build an aggregated item")

// Options carries the per-run values stamped onto every request item.
type Options struct {
	OrgCode                string
	ExternalSystemConfigID int64
	Settings               importsettings.Settings
	Language               string
}

func (o Options) language() string {
	if o.Language == "" {
		return DefaultLanguage
	}
	return o.Language
}

// FormatExternalID prefixes an identifier with the SAP external system marker.
func FormatExternalID(id string) string {
	return externalIdentifierPrefix + id
}

// BuildExternalIdentifier returns the identifier of a partner in one section.
func BuildExternalIdentifier(partnerCode, sectionCode string) string {
	return FormatExternalID(partnerCode + "_" + sectionCode)
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator collects the rows of one partner group.
type Accumulator struct {
	parent PartnerCode
	rows   []Row
	opts   Options
}

// NewAccumulator starts a group with its first row.
func NewAccumulator(first Row, opts Options) *Accumulator {
	return &Accumulator{
		parent: first.PartnerCode,
		rows:   []Row{first},
		opts:   opts,
	}
}

// Add appends the row if it belongs to the group and reports whether it did.
func (a *Accumulator) Add(row Row) bool {
	if !row.PartnerCode.MatchesGroup(a.parent) {
		return false
	}
	a.rows = append(a.rows, row)
	return true
}

// Parent returns the partner code the group was started with.
func (a *Accumulator) Parent() PartnerCode {
	return a.parent
}

// Len returns the number of collected rows.
func (a *Accumulator) Len() int {
	return len(a.rows)
}

// Build produces the upsert request for the collected rows.
func (a *Accumulator) Build() (types.BPUpsertRequest, error) {
	rows := make([]Row, len(a.rows))
	copy(rows, a.rows)
	return Build(a.parent, rows, a.opts)
}

// Group distributes rows over accumulators, one per partner group, in order
// of first appearance.
func Group(rows []Row, opts Options) []*Accumulator {
	var groups []*Accumulator
	index := make(map[string]*Accumulator)

	for _, row := range rows {
		if acc, ok := index[row.PartnerCode.Grouped()]; ok {
			acc.Add(row)
			continue
		}
		acc := NewAccumulator(row, opts)
		index[row.PartnerCode.Grouped()] = acc
		groups = append(groups, acc)
	}

	return groups
}

// =============================================================================
// BUILD
// =============================================================================

// Build produces the upsert request for rows sharing the parent partner group.
// rows must not be empty; rows[0] decides whether a section group partner is emitted.
func Build(parent PartnerCode, rows []Row, opts Options) (types.BPUpsertRequest, error) {
	if len(rows) == 0 {
		return types.BPUpsertRequest{}, fmt.Errorf("partner group %s: %w", parent.Grouped(), ErrEmptyAggregate)
	}

	b := requestBuilder{parent: parent, opts: opts}

	var items []types.BPartnerUpsertItem
	if _, matched := opts.Settings.ForPartnerCode(rows[0].PartnerCode.Raw()); !matched {
		items = append(items, b.sectionGroupItem(rows[0]))
	}

	sections, bySection := groupBySection(rows)
	for _, section := range sections {
		sectionItems, err := b.aggregateSection(section, bySection[section])
		if err != nil {
			return types.BPUpsertRequest{}, err
		}
		items = append(items, sectionItems...)
	}

	return types.BPUpsertRequest{
		OrgCode: opts.OrgCode,
		JSONRequestBPartnerUpsert: types.BPartnerUpsert{
			RequestItems: items,
			SyncAdvise:   types.CreateOrMerge,
		},
	}, nil
}

// groupBySection keeps the arrival order of sections and of rows within them.
func groupBySection(rows []Row) ([]string, map[string][]Row) {
	var order []string
	bySection := make(map[string][]Row)
	for _, row := range rows {
		if _, seen := bySection[row.Section]; !seen {
			order = append(order, row.Section)
		}
		bySection[row.Section] = append(bySection[row.Section], row)
	}
	return order, bySection
}

type requestBuilder struct {
	parent PartnerCode
	opts   Options
}

func (b requestBuilder) aggregateSection(section string, rows []Row) ([]types.BPartnerUpsertItem, error) {
	var singles, remainder []Row
	for _, row := range rows {
		if b.opts.Settings.IsSingle(row.PartnerCode.Raw()) {
			singles = append(singles, row)
		} else {
			remainder = append(remainder, row)
		}
	}

	var items []types.BPartnerUpsertItem
	if len(remainder) > 0 {
		item, err := b.aggregatedItem(section, remainder)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	for _, row := range singles {
		items = append(items, b.individualItem(row))
	}

	return items, nil
}

// aggregatedItem takes the partner fields from the last row; every row contributes a location.
func (b requestBuilder) aggregatedItem(section string, rows []Row) (types.BPartnerUpsertItem, error) {
	if len(rows) == 0 {
		return types.BPartnerUpsertItem{}, fmt.Errorf("section %q: %w", section, ErrEmptyAggregate)
	}

	locations := make([]types.LocationUpsertItem, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, b.locationItem(row))
	}

	last := rows[len(rows)-1]

	identifier := BuildExternalIdentifier(last.PartnerCode.Grouped(), last.Section)
	if _, matched := b.opts.Settings.ForPartnerCode(last.PartnerCode.Raw()); matched {
		identifier = BuildExternalIdentifier(last.PartnerCode.Raw(), last.Section)
	}

	return b.upsertItem(b.bpartner(last), locations, identifier), nil
}

func (b requestBuilder) individualItem(row Row) types.BPartnerUpsertItem {
	locations := []types.LocationUpsertItem{b.locationItem(row)}
	identifier := BuildExternalIdentifier(row.PartnerCode.Raw(), row.Section)
	return b.upsertItem(b.bpartner(row), locations, identifier)
}

func (b requestBuilder) upsertItem(bp types.BPartner, locations []types.LocationUpsertItem, identifier string) types.BPartnerUpsertItem {
	return types.BPartnerUpsertItem{
		BPartnerIdentifier: identifier,
		BPartnerComposite: types.Composite{
			OrgCode:   b.opts.OrgCode,
			BPartner:  bp,
			Locations: &types.LocationUpsert{RequestItems: locations},
		},
		ExternalSystemConfigID: b.opts.ExternalSystemConfigID,
	}
}

func (b requestBuilder) bpartner(row Row) types.BPartner {
	bp := types.BPartner{}

	if !isBlank(row.SalesPaymentTerms) {
		bp.CustomerPaymentTermIdentifier = types.String(valueIdentifierPrefix + row.SalesPaymentTerms)
	}
	if !isBlank(row.PurchasePaymentTerms) {
		bp.VendorPaymentTermIdentifier = types.String(valueIdentifierPrefix + row.PurchasePaymentTerms)
	}

	code := row.PartnerCode.Grouped()
	if rule, matched := b.opts.Settings.ForPartnerCode(row.PartnerCode.Raw()); matched {
		code = row.PartnerCode.Raw()
		if rule.BPGroupName != "" {
			bp.Group = types.String(rule.BPGroupName)
		}
	}

	bp.Code = code + " (" + row.Section + ")"
	bp.CompanyName = row.Name1
	bp.Name = row.Name1
	bp.Name2 = row.Name2

	bp.SectionCodeValue = row.Section
	bp.DeliveryRule = types.DeliveryRuleAvailability
	bp.DeliveryViaRule = types.DeliveryViaRuleShipper
	bp.PaymentRule = types.PaymentRuleOnCredit
	bp.PaymentRulePO = types.PaymentRuleOnCredit

	if row.IsStorageLocation() {
		bp.Vendor = types.Bool(true)
		bp.Customer = types.Bool(false)
		bp.StorageWarehouse = types.Bool(true)
	} else {
		bp.Vendor = types.Bool(true)
		bp.Customer = types.Bool(true)
		bp.StorageWarehouse = types.Bool(false)
	}

	bp.Language = b.opts.language()
	bp.SectionGroupPartnerIdentifier = FormatExternalID(b.parent.Grouped())
	bp.Prospect = types.Bool(false)
	bp.SAPBPartnerCode = code
	bp.SectionPartner = types.Bool(true)

	return bp
}

func (b requestBuilder) locationItem(row Row) types.LocationUpsertItem {
	location := types.Location{
		CountryCode: row.CountryKey,
		City:        row.City,
		Address1:    row.Street,
		Address2:    row.Street2,
		Address3:    row.Street3,
		Address4:    joinNonBlank(",", row.Street4, row.Street5),
		Postal:      row.PostalCode,

		VisitorsAddress:          types.Bool(false),
		ShipTo:                   types.Bool(true),
		ShipToDefault:            types.Bool(false),
		BillTo:                   types.Bool(true),
		BillToDefault:            types.Bool(false),
		HandoverLocation:         types.Bool(true),
		RemitTo:                  types.Bool(false),
		ReplicationLookupDefault: types.Bool(false),

		VatID:            row.VATRegNo,
		SAPPaymentMethod: row.PaymentMethod,
		SAPBPartnerCode:  row.PartnerCode.Raw(),
	}

	return types.LocationUpsertItem{
		LocationIdentifier:     BuildExternalIdentifier(row.PartnerCode.Raw(), row.Section),
		Location:               location,
		ExternalSystemConfigID: b.opts.ExternalSystemConfigID,
	}
}

// sectionGroupItem is the parent partner all section partners point to. It has no locations.
func (b requestBuilder) sectionGroupItem(row Row) types.BPartnerUpsertItem {
	code := row.PartnerCode.Grouped()

	bp := types.BPartner{
		Code:                code,
		CompanyName:         row.Name1,
		Name:                row.Name1,
		Name2:               row.Name2,
		Language:            b.opts.language(),
		Prospect:            types.Bool(false),
		SAPBPartnerCode:     code,
		SectionGroupPartner: types.Bool(true),
	}

	return types.BPartnerUpsertItem{
		BPartnerIdentifier: FormatExternalID(code),
		BPartnerComposite: types.Composite{
			OrgCode:  b.opts.OrgCode,
			BPartner: bp,
		},
		ExternalSystemConfigID: b.opts.ExternalSystemConfigID,
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func joinNonBlank(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if !isBlank(v) {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
