package contracts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no log row has the requested ID.
var ErrNotFound = errors.New("contract module log not found")

// Repository accesses ModCntr_Log.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepository creates a Repository on db.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

var selectColumns = strings.Join(Columns, ", ")

// GetByID returns one log row.
func (r *Repository) GetByID(ctx context.Context, id int64) (*ModCntrLog, error) {
	var log ModCntrLog
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", selectColumns, TableName, ColumnModCntrLogID))
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load %s %d: %w", TableName, id, err)
	}
	return &log, nil
}

// Insert stores a log row. Created and Updated default to now; a zero ID is
// assigned by the database and written back to log.
func (r *Repository) Insert(ctx context.Context, log *ModCntrLog) error {
	now := r.now()
	if log.Created.IsZero() {
		log.Created = now
	}
	if log.Updated.IsZero() {
		log.Updated = log.Created
	}

	columns := Columns
	if log.ID == 0 {
		columns = Columns[1:]
	}

	placeholders := make([]string, len(columns))
	for i, column := range columns {
		placeholders[i] = ":" + column
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		TableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	result, err := r.db.NamedExecContext(ctx, query, log)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", TableName, err)
	}

	if log.ID == 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read %s id: %w", TableName, err)
		}
		log.ID = id
	}
	return nil
}

// ListByFlatrateTerm returns the active logs of a term ordered by transaction date.
func (r *Repository) ListByFlatrateTerm(ctx context.Context, flatrateTermID int64) ([]ModCntrLog, error) {
	query := r.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ? AND %s = ? ORDER BY %s, %s",
		selectColumns, TableName,
		ColumnCFlatrateTermID, ColumnIsActive,
		ColumnDateTrx, ColumnModCntrLogID))

	var logs []ModCntrLog
	if err := r.db.SelectContext(ctx, &logs, query, flatrateTermID, true); err != nil {
		return nil, fmt.Errorf("failed to list %s for term %d: %w", TableName, flatrateTermID, err)
	}
	return logs, nil
}

// MarkProcessed sets Processed on the given rows and returns how many changed.
func (r *Repository) MarkProcessed(ctx context.Context, updatedBy int64, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(
		"UPDATE %s SET %s = ?, %s = ?, %s = ? WHERE %s = ? AND %s IN (?)",
		TableName, ColumnProcessed, ColumnUpdated, ColumnUpdatedBy,
		ColumnProcessed, ColumnModCntrLogID),
		true, r.now(), updatedBy, false, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark %s processed: %w", TableName, err)
	}
	return result.RowsAffected()
}
