// Package contracts reads and writes the contract module log.
//
// Every quantity or amount booked against a contract (a flatrate term) by a
// contract module leaves one ModCntr_Log row. The importer uses the log to
// report what was booked for a term and to mark rows as processed.
package contracts

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// TableName is the name of the log table.
const TableName = "ModCntr_Log"

// Column names.
const (
	ColumnModCntrLogID              = "ModCntr_Log_ID"
	ColumnADClientID                = "AD_Client_ID"
	ColumnADOrgID                   = "AD_Org_ID"
	ColumnADTableID                 = "AD_Table_ID"
	ColumnRecordID                  = "Record_ID"
	ColumnAmount                    = "Amount"
	ColumnBillBPartnerID            = "Bill_BPartner_ID"
	ColumnCCurrencyID               = "C_Currency_ID"
	ColumnCFlatrateTermID           = "C_Flatrate_Term_ID"
	ColumnCInvoiceCandidateID       = "C_Invoice_Candidate_ID"
	ColumnCUOMID                    = "C_UOM_ID"
	ColumnCollectionPointBPartnerID = "CollectionPoint_BPartner_ID"
	ColumnCreated                   = "Created"
	ColumnCreatedBy                 = "CreatedBy"
	ColumnDateTrx                   = "DateTrx"
	ColumnDescription               = "Description"
	ColumnHarvestingYearID          = "Harvesting_Year_ID"
	ColumnIsActive                  = "IsActive"
	ColumnIsSOTrx                   = "IsSOTrx"
	ColumnMProductID                = "M_Product_ID"
	ColumnMWarehouseID              = "M_Warehouse_ID"
	ColumnModCntrLogDocumentType    = "ModCntr_Log_DocumentType"
	ColumnModCntrTypeID             = "ModCntr_Type_ID"
	ColumnProcessed                 = "Processed"
	ColumnProducerBPartnerID        = "Producer_BPartner_ID"
	ColumnQty                       = "Qty"
	ColumnUpdated                   = "Updated"
	ColumnUpdatedBy                 = "UpdatedBy"
)

// Columns lists every column in table order.
var Columns = []string{
	ColumnModCntrLogID,
	ColumnADClientID,
	ColumnADOrgID,
	ColumnADTableID,
	ColumnRecordID,
	ColumnAmount,
	ColumnBillBPartnerID,
	ColumnCCurrencyID,
	ColumnCFlatrateTermID,
	ColumnCInvoiceCandidateID,
	ColumnCUOMID,
	ColumnCollectionPointBPartnerID,
	ColumnCreated,
	ColumnCreatedBy,
	ColumnDateTrx,
	ColumnDescription,
	ColumnHarvestingYearID,
	ColumnIsActive,
	ColumnIsSOTrx,
	ColumnMProductID,
	ColumnMWarehouseID,
	ColumnModCntrLogDocumentType,
	ColumnModCntrTypeID,
	ColumnProcessed,
	ColumnProducerBPartnerID,
	ColumnQty,
	ColumnUpdated,
	ColumnUpdatedBy,
}

// ModCntrLog is one row of the contract module log. Optional references are
// sql.NullInt64; optional amounts are decimal.NullDecimal.
type ModCntrLog struct {
	ID         int64 `db:"ModCntr_Log_ID"`
	ADClientID int64 `db:"AD_Client_ID"`
	ADOrgID    int64 `db:"AD_Org_ID"`

	// ADTableID and RecordID point at the document that caused the booking.
	ADTableID int64 `db:"AD_Table_ID"`
	RecordID  int64 `db:"Record_ID"`

	Amount decimal.NullDecimal `db:"Amount"`
	Qty    decimal.NullDecimal `db:"Qty"`

	BillBPartnerID            sql.NullInt64 `db:"Bill_BPartner_ID"`
	CurrencyID                sql.NullInt64 `db:"C_Currency_ID"`
	FlatrateTermID            sql.NullInt64 `db:"C_Flatrate_Term_ID"`
	InvoiceCandidateID        sql.NullInt64 `db:"C_Invoice_Candidate_ID"`
	UOMID                     sql.NullInt64 `db:"C_UOM_ID"`
	CollectionPointBPartnerID sql.NullInt64 `db:"CollectionPoint_BPartner_ID"`
	HarvestingYearID          sql.NullInt64 `db:"Harvesting_Year_ID"`
	ProductID                 sql.NullInt64 `db:"M_Product_ID"`
	WarehouseID               sql.NullInt64 `db:"M_Warehouse_ID"`
	ModCntrTypeID             sql.NullInt64 `db:"ModCntr_Type_ID"`
	ProducerBPartnerID        sql.NullInt64 `db:"Producer_BPartner_ID"`

	DateTrx      time.Time      `db:"DateTrx"`
	Description  sql.NullString `db:"Description"`
	DocumentType string         `db:"ModCntr_Log_DocumentType"`

	IsActive  bool `db:"IsActive"`
	IsSOTrx   bool `db:"IsSOTrx"`
	Processed bool `db:"Processed"`

	Created   time.Time `db:"Created"`
	CreatedBy int64     `db:"CreatedBy"`
	Updated   time.Time `db:"Updated"`
	UpdatedBy int64     `db:"UpdatedBy"`
}

// Summary totals the logs of one term.
type Summary struct {
	Count     int
	Processed int
	Amount    decimal.Decimal
	Qty       decimal.Decimal
}

// Summarize adds up amounts and quantities. Null values count as zero.
func Summarize(logs []ModCntrLog) Summary {
	s := Summary{Amount: decimal.Zero, Qty: decimal.Zero}
	for _, log := range logs {
		s.Count++
		if log.Processed {
			s.Processed++
		}
		if log.Amount.Valid {
			s.Amount = s.Amount.Add(log.Amount.Decimal)
		}
		if log.Qty.Valid {
			s.Qty = s.Qty.Add(log.Qty.Decimal)
		}
	}
	return s
}
