package rest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
)

func followUpWorkflow() map[string]interface{} {
	return map[string]interface{}{
		"name":           "New lead follow-up",
		"entity_type":    "lead",
		"trigger_type":   "on_create",
		"trigger_config": map[string]interface{}{},
		"enabled":        true,
		"actions": []map[string]interface{}{
			{"type": "create_task", "config": map[string]interface{}{"subject": "Follow up with {{name}}"}},
		},
	}
}

func createWorkflow(t *testing.T, s *testServer) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/workflows", followUpWorkflow())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	wf := decode(t, w)["workflow"].(map[string]interface{})
	return wf["id"].(string)
}

func TestWorkflowHandler_CRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/workflows", followUpWorkflow())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Workflow created successfully", body[constants.FieldMessage])
	created := body["workflow"].(map[string]interface{})
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "user-1", created["created_by"])

	w = s.do(t, http.MethodGet, "/api/workflows?entity_type=lead", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["workflows"], 1)

	w = s.do(t, http.MethodGet, "/api/workflows?entity_type=deal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["workflows"], 0)

	w = s.do(t, http.MethodPatch, "/api/workflows/"+id, map[string]interface{}{"name": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Renamed", decode(t, w)["workflow"].(map[string]interface{})["name"])

	w = s.do(t, http.MethodPost, "/api/workflows/"+id+"/toggle", map[string]interface{}{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["workflow"].(map[string]interface{})["enabled"])

	w = s.do(t, http.MethodGet, "/api/workflows/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)["workflow"].(map[string]interface{})
	assert.Equal(t, "Renamed", got["name"])
	assert.Equal(t, false, got["enabled"])

	w = s.do(t, http.MethodDelete, "/api/workflows/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Workflow deleted successfully", decode(t, w)[constants.FieldMessage])

	w = s.do(t, http.MethodGet, "/api/workflows/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["code"])
}

func TestWorkflowHandler_Errors(t *testing.T) {
	s := newTestServer(t)
	id := createWorkflow(t, s)

	noActions := followUpWorkflow()
	noActions["actions"] = []interface{}{}

	unknownEntity := followUpWorkflow()
	unknownEntity["entity_type"] = "spaceship"

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"create without actions", http.MethodPost, "/api/workflows", noActions, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"create for unknown entity", http.MethodPost, "/api/workflows", unknownEntity, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"toggle without enabled", http.MethodPost, "/api/workflows/" + id + "/toggle", map[string]interface{}{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"toggle missing workflow", http.MethodPost, "/api/workflows/missing/toggle", map[string]interface{}{"enabled": true}, http.StatusNotFound, "NOT_FOUND"},
		{"update missing workflow", http.MethodPatch, "/api/workflows/missing", map[string]interface{}{"name": "x"}, http.StatusNotFound, "NOT_FOUND"},
		{"delete missing workflow", http.MethodDelete, "/api/workflows/missing", nil, http.StatusNotFound, "NOT_FOUND"},
		{"executions of missing workflow", http.MethodGet, "/api/workflows/missing/executions", nil, http.StatusNotFound, "NOT_FOUND"},
		{"executions with bad limit", http.MethodGet, "/api/workflows/" + id + "/executions?limit=abc", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"entity executions without id", http.MethodGet, "/api/workflow-executions?entity_type=lead", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"trigger without entity id", http.MethodPost, "/api/workflows/trigger", map[string]interface{}{"entity_type": "lead", "trigger_type": "on_create"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"trigger with unknown type", http.MethodPost, "/api/workflows/trigger", map[string]interface{}{"entity_type": "lead", "entity_id": "lead-1", "trigger_type": "on_birthday"}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
}

func TestWorkflowHandler_ChangesRequireSystemAdmin(t *testing.T) {
	s := newTestServer(t)
	id := createWorkflow(t, s)

	forbidden := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPost, "/api/workflows", followUpWorkflow()},
		{http.MethodPatch, "/api/workflows/" + id, map[string]interface{}{"name": "Hijacked"}},
		{http.MethodPost, "/api/workflows/" + id + "/toggle", map[string]interface{}{"enabled": false}},
		{http.MethodDelete, "/api/workflows/" + id, nil},
	}
	for _, tt := range forbidden {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := s.doAs(t, s.userToken, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
			assert.Equal(t, "FORBIDDEN", decode(t, w)["code"])
		})
	}

	w := s.doAs(t, s.userToken, http.MethodGet, "/api/workflows/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)["workflow"].(map[string]interface{})
	assert.Equal(t, "New lead follow-up", got["name"])
	assert.Equal(t, true, got["enabled"])

	w = s.doAs(t, s.userToken, http.MethodPost, "/api/workflows/trigger", map[string]interface{}{
		"entity_type":  "lead",
		"entity_id":    "lead-1",
		"trigger_type": "on_create",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkflowHandler_TriggerRunsSynchronously(t *testing.T) {
	s := newTestServer(t)
	id := createWorkflow(t, s)

	w := s.do(t, http.MethodPost, "/api/workflows/trigger", map[string]interface{}{
		"entity_type":  "lead",
		"entity_id":    "lead-123",
		"trigger_type": "on_create",
		"new_values":   map[string]interface{}{"id": "lead-123", "name": "Meera"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	outcomes := decode(t, w)["outcomes"].([]interface{})
	require.Len(t, outcomes, 1)
	outcome := outcomes[0].(map[string]interface{})
	assert.Equal(t, id, outcome["workflow_id"])
	assert.Equal(t, true, outcome["executed"])
	execution := outcome["execution"].(map[string]interface{})
	assert.Equal(t, constants.ExecutionStatusCompleted, execution["status"])

	assert.Equal(t, 1, s.store.Count(constants.TableTask))

	w = s.do(t, http.MethodGet, "/api/workflows/"+id+"/executions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["executions"], 1)

	w = s.do(t, http.MethodGet, "/api/workflow-executions?entity_type=lead&entity_id=lead-123", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["executions"], 1)

	w = s.do(t, http.MethodGet, "/api/workflow-executions?entity_type=lead&entity_id=lead-999", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["executions"], 0)
}

func TestWorkflowHandler_TriggerWithoutCandidates(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/workflows/trigger", map[string]interface{}{
		"entity_type":  "deal",
		"entity_id":    "deal-1",
		"trigger_type": "on_update",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["outcomes"], 0)
	assert.Equal(t, 0, s.store.Count(constants.TableWorkflowExecution))
}
