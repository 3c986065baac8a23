package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harshparashar-me/leadpilot-sub000/internal/application/services"
	"github.com/harshparashar-me/leadpilot-sub000/internal/interfaces/middleware"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/auth"
)

// NewRouter builds the HTTP API. Everything under /api requires a bearer
// token and changing workflow definitions requires a system administrator;
// /health and /metrics are public. A nil gatherer leaves /metrics
// unregistered.
func NewRouter(svc *services.ServiceManager, tokens *auth.TokenManager, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.Cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	workflowHandler := NewWorkflowHandler(svc)
	dataHandler := NewDataHandler(svc)

	requireSystemAdmin := middleware.RequireSystemAdmin()

	api := router.Group("/api", middleware.RequireAuth(tokens))
	{
		api.GET("/workflows", workflowHandler.ListWorkflows)
		api.POST("/workflows", requireSystemAdmin, workflowHandler.CreateWorkflow)
		api.POST("/workflows/trigger", workflowHandler.TriggerWorkflows)
		api.GET("/workflows/:id", workflowHandler.GetWorkflow)
		api.PATCH("/workflows/:id", requireSystemAdmin, workflowHandler.UpdateWorkflow)
		api.DELETE("/workflows/:id", requireSystemAdmin, workflowHandler.DeleteWorkflow)
		api.POST("/workflows/:id/toggle", requireSystemAdmin, workflowHandler.ToggleWorkflow)
		api.GET("/workflows/:id/executions", workflowHandler.GetExecutions)
		api.GET("/workflow-executions", workflowHandler.GetEntityExecutions)

		api.GET("/data/:entityType", dataHandler.ListRecords)
		api.POST("/data/:entityType", dataHandler.CreateRecord)
		api.GET("/data/:entityType/:id", dataHandler.GetRecord)
		api.PATCH("/data/:entityType/:id", dataHandler.UpdateRecord)
		api.DELETE("/data/:entityType/:id", dataHandler.DeleteRecord)
	}

	return router
}
