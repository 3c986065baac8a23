package services

import (
	"context"
	"fmt"
	"log"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/events"
	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	apperrors "github.com/harshparashar-me/leadpilot-sub000/pkg/errors"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// systemFields are managed by the record store and ignored in client input.
var systemFields = []string{
	constants.FieldID,
	constants.FieldCreatedDate,
	constants.FieldLastModifiedDate,
}

// RecordService handles CRUD on entity records and publishes the record
// events that drive workflows.
type RecordService struct {
	store ports.RecordStore
	bus   ports.EventPublisher
}

// NewRecordService creates a record service. bus may be nil.
func NewRecordService(store ports.RecordStore, bus ports.EventPublisher) *RecordService {
	return &RecordService{store: store, bus: bus}
}

func tableFor(entityType string) (string, error) {
	table, ok := constants.EntityTable(entityType)
	if !ok {
		return "", apperrors.NewValidationError("entity_type", fmt.Sprintf("unknown entity type '%s'", entityType))
	}
	return table, nil
}

func stripSystemFields(data models.SObject) models.SObject {
	out := data.Clone()
	for _, f := range systemFields {
		delete(out, f)
	}
	return out
}

// Create inserts a record and publishes record.after_create.
func (s *RecordService) Create(ctx context.Context, entityType string, data models.SObject, user *models.UserSession) (models.SObject, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}
	row := stripSystemFields(data)
	if len(row) == 0 {
		return nil, apperrors.NewValidationError("", "record has no fields")
	}
	if _, ok := row[constants.FieldCreatedBy]; !ok && user.UserID() != "" {
		row[constants.FieldCreatedBy] = user.UserID()
	}

	saved, err := s.store.Insert(ctx, table, row)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", entityType, err)
	}

	id := saved.GetString(constants.FieldID)
	log.Printf("✅ Created %s %s", entityType, id)
	s.publish(events.RecordAfterCreate, events.RecordEvent{
		EntityType: entityType,
		EntityID:   id,
		NewValues:  saved.Clone(),
		User:       user,
	})
	return saved, nil
}

// Get returns one record.
func (s *RecordService) Get(ctx context.Context, entityType, id string) (models.SObject, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Select(ctx, table, models.RecordQuery{
		Criteria: []models.QueryCriterion{models.Eq(constants.FieldID, id)},
		Limit:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", entityType, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError(entityType, id)
	}
	return rows[0], nil
}

// List returns records of entityType. Criteria operators are checked and the
// limit is clamped to the configured maximum.
func (s *RecordService) List(ctx context.Context, entityType string, q models.RecordQuery) ([]models.SObject, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}
	for _, c := range q.Criteria {
		if !models.IsValidOp(c.Op) {
			return nil, apperrors.NewValidationError(c.Field, fmt.Sprintf("unsupported operator '%s'", c.Op))
		}
	}
	if q.SortField == "" {
		q.SortField = constants.FieldCreatedDate
		q.SortDirection = constants.SortDESC
	}
	q.Limit = clampLimit(q.Limit, constants.DefaultQueryLimit)

	rows, err := s.store.Select(ctx, table, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entityType, err)
	}
	return rows, nil
}

// Update patches a record and publishes record.after_update carrying the
// snapshot from before the write.
func (s *RecordService) Update(ctx context.Context, entityType, id string, patch models.SObject, user *models.UserSession) (models.SObject, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}
	changes := stripSystemFields(patch)
	delete(changes, constants.FieldCreatedBy)
	if len(changes) == 0 {
		return nil, apperrors.NewValidationError("", "no fields to update")
	}

	old, err := s.Get(ctx, entityType, id)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.Update(ctx, table, changes, []models.QueryCriterion{models.Eq(constants.FieldID, id)})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", entityType, err)
	}

	log.Printf("✅ Updated %s %s", entityType, id)
	s.publish(events.RecordAfterUpdate, events.RecordEvent{
		EntityType: entityType,
		EntityID:   id,
		OldValues:  old,
		NewValues:  saved.Clone(),
		User:       user,
	})
	return saved, nil
}

// Delete removes a record and publishes record.after_delete.
func (s *RecordService) Delete(ctx context.Context, entityType, id string, user *models.UserSession) error {
	table, err := tableFor(entityType)
	if err != nil {
		return err
	}
	old, err := s.Get(ctx, entityType, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, table, []models.QueryCriterion{models.Eq(constants.FieldID, id)}); err != nil {
		return fmt.Errorf("delete %s: %w", entityType, err)
	}

	log.Printf("✅ Deleted %s %s", entityType, id)
	s.publish(events.RecordAfterDelete, events.RecordEvent{
		EntityType: entityType,
		EntityID:   id,
		OldValues:  old,
		User:       user,
	})
	return nil
}

func (s *RecordService) publish(eventType events.EventType, evt events.RecordEvent) {
	if s.bus == nil {
		return
	}
	if !s.bus.PublishAsync(eventType, evt) {
		log.Printf("⚠️ Dropped %s for %s %s: event queue full", eventType, evt.EntityType, evt.EntityID)
	}
}
