package rest

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harshparashar-me/leadpilot-sub000/internal/application/services"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// DataHandler serves CRUD on entity records. Writes go through the record
// service, which publishes the events that drive workflows.
type DataHandler struct {
	svc *services.ServiceManager
}

func NewDataHandler(svc *services.ServiceManager) *DataHandler {
	return &DataHandler{svc: svc}
}

// parseRecordQuery reads ?limit=, ?sort=field|-field and field filters.
// A filter key may carry an operator suffix: amount.gte=1000.
func parseRecordQuery(c *gin.Context) (models.RecordQuery, bool) {
	limit, ok := QueryLimit(c)
	if !ok {
		return models.RecordQuery{}, false
	}
	q := models.RecordQuery{Limit: limit}

	if s := c.Query("sort"); s != "" {
		q.SortField = s
		q.SortDirection = constants.SortASC
		if strings.HasPrefix(s, "-") {
			q.SortField = s[1:]
			q.SortDirection = constants.SortDESC
		}
	}

	params := c.Request.URL.Query()
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "limit" && k != "sort" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		field, op := k, models.OpEq
		if i := strings.LastIndex(k, "."); i > 0 {
			field, op = k[:i], k[i+1:]
		}
		q.Criteria = append(q.Criteria, models.QueryCriterion{Field: field, Op: op, Val: params.Get(k)})
	}
	return q, true
}

// ListRecords handles GET /api/data/:entityType
func (h *DataHandler) ListRecords(c *gin.Context) {
	entityType := strings.ToLower(c.Param("entityType"))
	q, ok := parseRecordQuery(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "records", func() (interface{}, error) {
		return h.svc.Records.List(c.Request.Context(), entityType, q)
	})
}

// GetRecord handles GET /api/data/:entityType/:id
func (h *DataHandler) GetRecord(c *gin.Context) {
	entityType := strings.ToLower(c.Param("entityType"))
	HandleGetEnvelope(c, "record", func() (interface{}, error) {
		return h.svc.Records.Get(c.Request.Context(), entityType, c.Param("id"))
	})
}

// CreateRecord handles POST /api/data/:entityType
func (h *DataHandler) CreateRecord(c *gin.Context) {
	user := GetUserFromContext(c)
	entityType := strings.ToLower(c.Param("entityType"))
	var data models.SObject
	HandleCreateEnvelope(c, "record", "Record created successfully", &data, func() (interface{}, error) {
		return h.svc.Records.Create(c.Request.Context(), entityType, data, user)
	})
}

// UpdateRecord handles PATCH /api/data/:entityType/:id
func (h *DataHandler) UpdateRecord(c *gin.Context) {
	user := GetUserFromContext(c)
	entityType := strings.ToLower(c.Param("entityType"))
	var updates models.SObject
	HandleUpdateEnvelope(c, "record", "Record updated successfully", &updates, func() (interface{}, error) {
		return h.svc.Records.Update(c.Request.Context(), entityType, c.Param("id"), updates, user)
	})
}

// DeleteRecord handles DELETE /api/data/:entityType/:id
func (h *DataHandler) DeleteRecord(c *gin.Context) {
	user := GetUserFromContext(c)
	entityType := strings.ToLower(c.Param("entityType"))
	HandleDeleteEnvelope(c, "Record deleted successfully", func() error {
		return h.svc.Records.Delete(c.Request.Context(), entityType, c.Param("id"), user)
	})
}
