package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	apperrors "github.com/harshparashar-me/leadpilot-sub000/pkg/errors"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/query"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/utils"
)

// Executor interface for db/tx flexibility
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// MySQLRecordStore implements ports.RecordStore on MySQL.
// It abstracts the SQL generation and execution so services work with SObjects.
type MySQLRecordStore struct {
	db  Executor
	now func() time.Time
}

// NewMySQLRecordStore creates a store on db.
func NewMySQLRecordStore(db Executor) *MySQLRecordStore {
	return &MySQLRecordStore{db: db, now: storeNow}
}

func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Select returns rows of collection matching q.
func (r *MySQLRecordStore) Select(ctx context.Context, collection string, q models.RecordQuery) ([]models.SObject, error) {
	built, err := query.From(collection).
		WhereCriteria(q.Criteria).
		OrderBy(q.SortField, q.SortDirection).
		Limit(q.Limit).
		Build()
	if err != nil {
		return nil, apperrors.NewValidationError("query", err.Error())
	}

	rows, err := r.db.QueryContext(ctx, built.SQL, built.Params...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", collection, err)
	}
	defer rows.Close()

	return query.ScanRowsToSObjects(rows)
}

// Insert executes an INSERT statement and returns the stored row.
func (r *MySQLRecordStore) Insert(ctx context.Context, collection string, row models.SObject) (models.SObject, error) {
	record := row.Clone()
	if record == nil {
		record = models.SObject{}
	}
	if id, _ := record[constants.FieldID].(string); id == "" {
		record[constants.FieldID] = utils.GenerateID()
	}
	now := r.now()
	if _, ok := record[constants.FieldCreatedDate]; !ok {
		record[constants.FieldCreatedDate] = now
	}
	record[constants.FieldLastModifiedDate] = now

	values, err := encodeValues(record)
	if err != nil {
		return nil, err
	}
	built, err := query.Insert(collection, values).Build()
	if err != nil {
		return nil, apperrors.NewValidationError("record", err.Error())
	}

	if _, err := r.db.ExecContext(ctx, built.SQL, built.Params...); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	return record, nil
}

// Update executes an UPDATE statement and re-reads the first matching row.
func (r *MySQLRecordStore) Update(ctx context.Context, collection string, patch models.SObject, criteria []models.QueryCriterion) (models.SObject, error) {
	if len(criteria) == 0 {
		return nil, apperrors.NewValidationError("criteria", "update requires at least one filter")
	}

	values := patch.Clone()
	if values == nil {
		values = models.SObject{}
	}
	delete(values, constants.FieldID)
	delete(values, constants.FieldCreatedDate)
	values[constants.FieldLastModifiedDate] = r.now()

	encoded, err := encodeValues(values)
	if err != nil {
		return nil, err
	}
	built, err := query.Update(collection).
		Set(encoded).
		WhereCriteria(criteria).
		Build()
	if err != nil {
		return nil, apperrors.NewValidationError("record", err.Error())
	}

	if _, err := r.db.ExecContext(ctx, built.SQL, built.Params...); err != nil {
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}

	rows, err := r.Select(ctx, collection, models.RecordQuery{Criteria: criteria, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError(collection, criteriaID(criteria))
	}
	return rows[0], nil
}

// Delete executes a DELETE statement
func (r *MySQLRecordStore) Delete(ctx context.Context, collection string, criteria []models.QueryCriterion) error {
	if len(criteria) == 0 {
		return apperrors.NewValidationError("criteria", "delete requires at least one filter")
	}

	built, err := query.Delete(collection).WhereCriteria(criteria).Build()
	if err != nil {
		return apperrors.NewValidationError("query", err.Error())
	}

	if _, err := r.db.ExecContext(ctx, built.SQL, built.Params...); err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	return nil
}

// encodeValues turns nested maps and slices into JSON text for the driver.
func encodeValues(row models.SObject) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		switch v.(type) {
		case map[string]interface{}, models.SObject, []interface{}, []string, []models.SObject:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", k, err)
			}
			out[k] = string(b)
		default:
			out[k] = v
		}
	}
	return out, nil
}

// criteriaID names the target in not-found errors when filtering by id.
func criteriaID(criteria []models.QueryCriterion) string {
	for _, c := range criteria {
		if c.Field == constants.FieldID && c.Op == models.OpEq {
			return utils.ToString(c.Val)
		}
	}
	return ""
}
