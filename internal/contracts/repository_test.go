package contracts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE ModCntr_Log (
	ModCntr_Log_ID INTEGER PRIMARY KEY AUTOINCREMENT,
	AD_Client_ID INTEGER NOT NULL,
	AD_Org_ID INTEGER NOT NULL,
	AD_Table_ID INTEGER NOT NULL,
	Record_ID INTEGER NOT NULL,
	Amount DECIMAL(20,6),
	Bill_BPartner_ID INTEGER,
	C_Currency_ID INTEGER,
	C_Flatrate_Term_ID INTEGER,
	C_Invoice_Candidate_ID INTEGER,
	C_UOM_ID INTEGER,
	CollectionPoint_BPartner_ID INTEGER,
	Created DATETIME NOT NULL,
	CreatedBy INTEGER NOT NULL,
	DateTrx DATETIME NOT NULL,
	Description TEXT,
	Harvesting_Year_ID INTEGER,
	IsActive BOOLEAN NOT NULL,
	IsSOTrx BOOLEAN NOT NULL,
	M_Product_ID INTEGER,
	M_Warehouse_ID INTEGER,
	ModCntr_Log_DocumentType TEXT NOT NULL,
	ModCntr_Type_ID INTEGER,
	Processed BOOLEAN NOT NULL,
	Producer_BPartner_ID INTEGER,
	Qty DECIMAL(20,6),
	Updated DATETIME NOT NULL,
	UpdatedBy INTEGER NOT NULL
)`

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)

	repo := NewRepository(db)
	repo.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return repo
}

func newLog(term int64, date time.Time, amount string) *ModCntrLog {
	log := &ModCntrLog{
		ADClientID:     1000000,
		ADOrgID:        1000000,
		ADTableID:      540320,
		RecordID:       42,
		FlatrateTermID: sql.NullInt64{Int64: term, Valid: true},
		ProductID:      sql.NullInt64{Int64: 2005, Valid: true},
		DateTrx:        date,
		DocumentType:   "PurchaseOrder",
		IsActive:       true,
		CreatedBy:      100,
		UpdatedBy:      100,
		Qty:            decimal.NewNullDecimal(decimal.RequireFromString("10")),
	}
	if amount != "" {
		log.Amount = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
	return log
}

func TestRepository_InsertAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	log := newLog(7, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "12.50")
	log.Description = sql.NullString{String: "first delivery", Valid: true}
	require.NoError(t, repo.Insert(ctx, log))
	assert.NotZero(t, log.ID)
	assert.Equal(t, repo.now(), log.Created)

	got, err := repo.GetByID(ctx, log.ID)
	require.NoError(t, err)

	assert.Equal(t, log.ID, got.ID)
	assert.Equal(t, int64(7), got.FlatrateTermID.Int64)
	assert.False(t, got.BillBPartnerID.Valid)
	assert.True(t, got.Amount.Valid)
	assert.True(t, got.Amount.Decimal.Equal(decimal.RequireFromString("12.5")), got.Amount.Decimal.String())
	assert.Equal(t, "first delivery", got.Description.String)
	assert.Equal(t, "PurchaseOrder", got.DocumentType)
	assert.True(t, got.IsActive)
	assert.False(t, got.Processed)
	assert.True(t, got.DateTrx.Equal(log.DateTrx))
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ListByFlatrateTermAndMarkProcessed(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	later := newLog(7, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), "5")
	earlier := newLog(7, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), "")
	otherTerm := newLog(8, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "1")
	inactive := newLog(7, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "1")
	inactive.IsActive = false

	for _, log := range []*ModCntrLog{later, earlier, otherTerm, inactive} {
		require.NoError(t, repo.Insert(ctx, log))
	}

	logs, err := repo.ListByFlatrateTerm(ctx, 7)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, earlier.ID, logs[0].ID)
	assert.Equal(t, later.ID, logs[1].ID)

	summary := Summarize(logs)
	assert.Equal(t, 2, summary.Count)
	assert.True(t, summary.Amount.Equal(decimal.NewFromInt(5)))
	assert.True(t, summary.Qty.Equal(decimal.NewFromInt(20)))

	changed, err := repo.MarkProcessed(ctx, 200, earlier.ID, later.ID, otherTerm.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)

	changed, err = repo.MarkProcessed(ctx, 200, earlier.ID)
	require.NoError(t, err)
	assert.Zero(t, changed, "already processed rows are left alone")

	got, err := repo.GetByID(ctx, earlier.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Equal(t, int64(200), got.UpdatedBy)

	changed, err = repo.MarkProcessed(ctx, 200)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Count)
	assert.True(t, s.Amount.IsZero())
}
