package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harshparashar-me/leadpilot-sub000/internal/application/services"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/errors"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// WorkflowHandler serves workflow definitions, their execution history and
// manual triggering.
type WorkflowHandler struct {
	svc *services.ServiceManager
}

func NewWorkflowHandler(svc *services.ServiceManager) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// ListWorkflows handles GET /api/workflows
func (h *WorkflowHandler) ListWorkflows(c *gin.Context) {
	entityType := strings.ToLower(c.Query("entity_type"))
	HandleGetEnvelope(c, "workflows", func() (interface{}, error) {
		return h.svc.Workflows.List(c.Request.Context(), entityType)
	})
}

// CreateWorkflow handles POST /api/workflows
func (h *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	user := GetUserFromContext(c)
	var wf models.Workflow
	HandleCreateEnvelope(c, "workflow", "Workflow created successfully", &wf, func() (interface{}, error) {
		return h.svc.Workflows.Create(c.Request.Context(), &wf, user)
	})
}

// GetWorkflow handles GET /api/workflows/:id
func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	HandleGetEnvelope(c, "workflow", func() (interface{}, error) {
		return h.svc.Workflows.Get(c.Request.Context(), c.Param("id"))
	})
}

// UpdateWorkflow handles PATCH /api/workflows/:id
func (h *WorkflowHandler) UpdateWorkflow(c *gin.Context) {
	var patch services.WorkflowPatch
	HandleUpdateEnvelope(c, "workflow", "Workflow updated successfully", &patch, func() (interface{}, error) {
		return h.svc.Workflows.Update(c.Request.Context(), c.Param("id"), patch)
	})
}

// DeleteWorkflow handles DELETE /api/workflows/:id
func (h *WorkflowHandler) DeleteWorkflow(c *gin.Context) {
	HandleDeleteEnvelope(c, "Workflow deleted successfully", func() error {
		return h.svc.Workflows.Delete(c.Request.Context(), c.Param("id"))
	})
}

// ToggleWorkflow handles POST /api/workflows/:id/toggle
func (h *WorkflowHandler) ToggleWorkflow(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	HandleUpdateEnvelope(c, "workflow", "Workflow updated successfully", &req, func() (interface{}, error) {
		return h.svc.Workflows.Toggle(c.Request.Context(), c.Param("id"), *req.Enabled)
	})
}

// GetExecutions handles GET /api/workflows/:id/executions
func (h *WorkflowHandler) GetExecutions(c *gin.Context) {
	limit, ok := QueryLimit(c)
	if !ok {
		return
	}
	id := c.Param("id")
	HandleGetEnvelope(c, "executions", func() (interface{}, error) {
		if _, err := h.svc.Workflows.Get(c.Request.Context(), id); err != nil {
			return nil, err
		}
		return h.svc.Workflows.ListExecutions(c.Request.Context(), id, limit)
	})
}

// GetEntityExecutions handles GET /api/workflow-executions?entity_type=&entity_id=
func (h *WorkflowHandler) GetEntityExecutions(c *gin.Context) {
	entityType := strings.ToLower(c.Query("entity_type"))
	entityID := c.Query("entity_id")
	if entityType == "" || entityID == "" {
		RespondAppError(c, errors.NewValidationError("entity_id", "entity_type and entity_id are required"))
		return
	}
	limit, ok := QueryLimit(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "executions", func() (interface{}, error) {
		return h.svc.Workflows.ListExecutionsForEntity(c.Request.Context(), entityType, entityID, limit)
	})
}

// TriggerRequest is the body of a manual trigger.
type TriggerRequest struct {
	EntityType  string             `json:"entity_type" binding:"required"`
	EntityID    string             `json:"entity_id" binding:"required"`
	TriggerType models.TriggerType `json:"trigger_type" binding:"required"`
	OldValues   models.SObject     `json:"old_values"`
	NewValues   models.SObject     `json:"new_values"`
}

// TriggerWorkflows handles POST /api/workflows/trigger. It runs the matching
// workflows synchronously and returns one outcome per candidate.
func (h *WorkflowHandler) TriggerWorkflows(c *gin.Context) {
	var req TriggerRequest
	if !BindJSON(c, &req) {
		return
	}
	if !req.TriggerType.IsValid() {
		RespondAppError(c, errors.NewValidationError("trigger_type", "unknown trigger type '"+string(req.TriggerType)+"'"))
		return
	}

	outcomes := h.svc.Engine.TriggerWorkflows(c.Request.Context(), services.TriggerRequest{
		EntityType:  strings.ToLower(req.EntityType),
		EntityID:    req.EntityID,
		TriggerType: req.TriggerType,
		OldValues:   req.OldValues,
		NewValues:   req.NewValues,
		ActingUser:  GetUserFromContext(c),
	})
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}
