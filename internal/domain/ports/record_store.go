package ports

import (
	"context"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// RecordStore is the collection-oriented row store every component shares.
type RecordStore interface {
	// Select returns rows of collection matching q.
	Select(ctx context.Context, collection string, q models.RecordQuery) ([]models.SObject, error)

	// Insert stores row and returns it with server-assigned id and timestamps.
	Insert(ctx context.Context, collection string, row models.SObject) (models.SObject, error)

	// Update applies patch to rows matching criteria and returns the first
	// updated row. No matching row is a not-found error.
	Update(ctx context.Context, collection string, patch models.SObject, criteria []models.QueryCriterion) (models.SObject, error)

	// Delete removes rows matching criteria.
	Delete(ctx context.Context, collection string, criteria []models.QueryCriterion) error
}
