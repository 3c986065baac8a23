package models

import (
	"time"
)

// SObject represents a generic record row keyed by column name.
type SObject map[string]interface{}

// GetString returns the value at key when it is a string (or raw bytes).
func (s SObject) GetString(key string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// GetTime returns the value at key as time, parsing RFC3339 strings.
func (s SObject) GetTime(key string) time.Time {
	switch v := s[key].(type) {
	case time.Time:
		return v
	case string:
		parsed, _ := time.Parse(time.RFC3339, v)
		return parsed
	}
	return time.Time{}
}

// Clone returns a shallow copy so callers can mutate without aliasing.
func (s SObject) Clone() SObject {
	if s == nil {
		return nil
	}
	out := make(SObject, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Filter operators supported by every record store.
const (
	OpEq  = "eq"
	OpNeq = "neq"
	OpGt  = "gt"
	OpGte = "gte"
	OpLt  = "lt"
	OpLte = "lte"
)

// QueryCriterion represents a single query filter criterion
type QueryCriterion struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Val   interface{} `json:"val"`
}

// Eq builds an equality criterion.
func Eq(field string, val interface{}) QueryCriterion {
	return QueryCriterion{Field: field, Op: OpEq, Val: val}
}

// IsValidOp reports whether op is a supported filter operator.
func IsValidOp(op string) bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// RecordQuery is the select request understood by record stores.
type RecordQuery struct {
	Criteria      []QueryCriterion `json:"criteria,omitempty"`
	SortField     string           `json:"sort_field,omitempty"`
	SortDirection string           `json:"sort_direction,omitempty"` // ASC or DESC
	Limit         int              `json:"limit,omitempty"`
}
