package persistence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	apperrors "github.com/harshparashar-me/leadpilot-sub000/pkg/errors"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/query"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/utils"
)

// MemoryRecordStore implements ports.RecordStore in process memory.
// Rows are copied on the way in and out so callers never share maps.
type MemoryRecordStore struct {
	mu          sync.RWMutex
	collections map[string][]models.SObject
	now         func() time.Time
}

// NewMemoryRecordStore creates an empty store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		collections: make(map[string][]models.SObject),
		now:         storeNow,
	}
}

func validateCollection(collection string) error {
	if !query.ValidIdentifier(collection) {
		return apperrors.NewValidationError("collection", "invalid collection name "+collection)
	}
	return nil
}

// Select returns rows of collection matching q.
func (m *MemoryRecordStore) Select(ctx context.Context, collection string, q models.RecordQuery) ([]models.SObject, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if err := validateCriteria(q.Criteria); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []models.SObject
	for _, row := range m.collections[collection] {
		if matchesAll(row, q.Criteria) {
			out = append(out, row.Clone())
		}
	}
	m.mu.RUnlock()

	if q.SortField != "" {
		desc := strings.EqualFold(q.SortDirection, constants.SortDESC)
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValues(out[i][q.SortField], out[j][q.SortField])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if out == nil {
		out = []models.SObject{}
	}
	return out, nil
}

// Insert stores a copy of row with id and timestamps filled in.
func (m *MemoryRecordStore) Insert(ctx context.Context, collection string, row models.SObject) (models.SObject, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := row.Clone()
	if record == nil {
		record = models.SObject{}
	}
	if id, _ := record[constants.FieldID].(string); id == "" {
		record[constants.FieldID] = utils.GenerateID()
	}
	now := m.now()
	if _, ok := record[constants.FieldCreatedDate]; !ok {
		record[constants.FieldCreatedDate] = now
	}
	record[constants.FieldLastModifiedDate] = now

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.collections[collection] {
		if existing[constants.FieldID] == record[constants.FieldID] {
			return nil, apperrors.NewConflictError(collection, constants.FieldID, utils.ToString(record[constants.FieldID]))
		}
	}
	m.collections[collection] = append(m.collections[collection], record)
	return record.Clone(), nil
}

// Update applies patch to every matching row and returns the first one.
func (m *MemoryRecordStore) Update(ctx context.Context, collection string, patch models.SObject, criteria []models.QueryCriterion) (models.SObject, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if len(criteria) == 0 {
		return nil, apperrors.NewValidationError("criteria", "update requires at least one filter")
	}
	if err := validateCriteria(criteria); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	var first models.SObject
	for _, row := range m.collections[collection] {
		if !matchesAll(row, criteria) {
			continue
		}
		for k, v := range patch {
			if k == constants.FieldID || k == constants.FieldCreatedDate {
				continue
			}
			row[k] = v
		}
		row[constants.FieldLastModifiedDate] = now
		if first == nil {
			first = row.Clone()
		}
	}
	if first == nil {
		return nil, apperrors.NewNotFoundError(collection, criteriaID(criteria))
	}
	return first, nil
}

// Delete removes every matching row.
func (m *MemoryRecordStore) Delete(ctx context.Context, collection string, criteria []models.QueryCriterion) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if len(criteria) == 0 {
		return apperrors.NewValidationError("criteria", "delete requires at least one filter")
	}
	if err := validateCriteria(criteria); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.collections[collection]
	kept := rows[:0]
	for _, row := range rows {
		if !matchesAll(row, criteria) {
			kept = append(kept, row)
		}
	}
	m.collections[collection] = kept
	return nil
}

// Count returns the number of rows in collection.
func (m *MemoryRecordStore) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func validateCriteria(criteria []models.QueryCriterion) error {
	for _, c := range criteria {
		if !query.ValidIdentifier(c.Field) {
			return apperrors.NewValidationError("criteria", "invalid column name "+c.Field)
		}
		if !models.IsValidOp(c.Op) {
			return apperrors.NewValidationError("criteria", "unsupported operator "+c.Op)
		}
	}
	return nil
}

func matchesAll(row models.SObject, criteria []models.QueryCriterion) bool {
	for _, c := range criteria {
		if !matches(row[c.Field], c) {
			return false
		}
	}
	return true
}

// matches mirrors SQL semantics closely enough for the engine: nil only
// equals nil and never satisfies a range comparison.
func matches(val interface{}, c models.QueryCriterion) bool {
	switch c.Op {
	case models.OpEq:
		if val == nil || c.Val == nil {
			return val == nil && c.Val == nil
		}
		return utils.StrictEqual(val, c.Val)
	case models.OpNeq:
		if val == nil || c.Val == nil {
			return (val == nil) != (c.Val == nil)
		}
		return !utils.StrictEqual(val, c.Val)
	}

	if val == nil || c.Val == nil {
		return false
	}
	cmp := compareValues(val, c.Val)
	switch c.Op {
	case models.OpGt:
		return cmp > 0
	case models.OpGte:
		return cmp >= 0
	case models.OpLt:
		return cmp < 0
	case models.OpLte:
		return cmp <= 0
	}
	return false
}

// compareValues orders numbers numerically, times chronologically and
// everything else by string form. nil sorts first.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := utils.ToFloat(a); ok {
		if fb, ok := utils.ToFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(utils.ToString(a), utils.ToString(b))
}
