package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

func leadData(t *testing.T, store ports.RecordStore, values models.SObject) models.TriggerData {
	t.Helper()
	saved, err := store.Insert(context.Background(), constants.TableLead, values)
	require.NoError(t, err)
	return models.TriggerData{
		EntityType: constants.EntityLead,
		EntityID:   saved.GetString(constants.FieldID),
		NewValues:  saved,
		UserID:     "user-1",
	}
}

func TestCreateTaskHandler(t *testing.T) {
	store := newMemoryStore()
	h := &createTaskHandler{store: store, now: func() time.Time {
		return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	}}
	days := 3

	data := models.TriggerData{
		EntityType: constants.EntityLead,
		EntityID:   "lead-123",
		NewValues:  models.SObject{"name": "Asha", "assigned_to": "agent-7"},
		UserID:     "user-1",
	}
	out, err := h.Execute(context.Background(), models.CreateTaskConfig{
		Subject:   "Call {{name}}",
		DueInDays: &days,
	}, data)
	require.NoError(t, err)

	tasks := selectAll(t, store, constants.TableTask)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, tasks[0][constants.FieldID], out["task_id"])
	assert.Equal(t, "Call Asha", task[constants.FieldTaskSubject])
	assert.Equal(t, constants.TaskPriorityMedium, task[constants.FieldTaskPriority])
	assert.Equal(t, constants.TaskStatusPending, task[constants.FieldStatus])
	assert.Equal(t, "lead", task[constants.FieldRelatedToType])
	assert.Equal(t, "lead-123", task[constants.FieldRelatedToID])
	assert.Equal(t, "agent-7", task[constants.FieldAssignedTo])
	assert.Equal(t, "user-1", task[constants.FieldCreatedBy])
	assert.Equal(t, "2026-03-04", task[constants.FieldTaskDueDate])
}

func TestCreateTaskHandler_RequiresSubject(t *testing.T) {
	store := newMemoryStore()
	h := &createTaskHandler{store: store, now: time.Now}

	_, err := h.Execute(context.Background(), models.CreateTaskConfig{}, models.TriggerData{EntityType: "lead", EntityID: "lead-1"})

	assert.EqualError(t, err, "create_task requires a subject")
	assert.Equal(t, 0, store.Count(constants.TableTask))
}

func TestCreateTaskHandler_AssigneeFallsBackToActingUser(t *testing.T) {
	store := newMemoryStore()
	h := &createTaskHandler{store: store, now: time.Now}

	_, err := h.Execute(context.Background(), models.CreateTaskConfig{Subject: "Follow up", Priority: "high"},
		models.TriggerData{EntityType: "lead", EntityID: "lead-1", UserID: "user-9"})
	require.NoError(t, err)

	task := selectAll(t, store, constants.TableTask)[0]
	assert.Equal(t, "user-9", task[constants.FieldAssignedTo])
	assert.Equal(t, "high", task[constants.FieldTaskPriority])
}

func TestSendEmailHandler_Recipient(t *testing.T) {
	tests := []struct {
		name   string
		cfg    models.SendEmailConfig
		values models.SObject
		want   string
	}{
		{"explicit to", models.SendEmailConfig{To: "ops@example.com"}, models.SObject{"email": "lead@example.com"}, "ops@example.com"},
		{"to_field", models.SendEmailConfig{ToField: "owner_email"}, models.SObject{"owner_email": "owner@example.com"}, "owner@example.com"},
		{"record email", models.SendEmailConfig{}, models.SObject{"email": "lead@example.com"}, "lead@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingEmailSender{}
			h := &sendEmailHandler{sender: sender}

			out, err := h.Execute(context.Background(), tt.cfg, models.TriggerData{NewValues: tt.values})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out["to"])
			require.Len(t, sender.messages(), 1)
			assert.Equal(t, tt.want, sender.messages()[0].To)
		})
	}
}

func TestSendEmailHandler_Failures(t *testing.T) {
	h := &sendEmailHandler{sender: &recordingEmailSender{}}
	_, err := h.Execute(context.Background(), models.SendEmailConfig{}, models.TriggerData{NewValues: models.SObject{}})
	assert.EqualError(t, err, "send_email has no recipient")

	failing := &sendEmailHandler{sender: &recordingEmailSender{err: errors.New("smtp down")}}
	_, err = failing.Execute(context.Background(), models.SendEmailConfig{To: "a@example.com"}, models.TriggerData{})
	assert.EqualError(t, err, "send email: smtp down")
}

func TestUpdateFieldHandler(t *testing.T) {
	store := newMemoryStore()
	data := leadData(t, store, models.SObject{"status": "new"})
	h := &updateFieldHandler{store: store}

	out, err := h.Execute(context.Background(), models.UpdateFieldConfig{Field: "status", Value: "contacted"}, data)
	require.NoError(t, err)
	assert.Equal(t, "contacted", out["value"])

	lead := selectAll(t, store, constants.TableLead, models.Eq(constants.FieldID, data.EntityID))[0]
	assert.Equal(t, "contacted", lead["status"])

	_, err = h.Execute(context.Background(), models.UpdateFieldConfig{Field: "id", Value: "x"}, data)
	assert.Error(t, err)

	_, err = h.Execute(context.Background(), models.UpdateFieldConfig{Field: "status", Value: "x"},
		models.TriggerData{EntityType: "lead", EntityID: "missing"})
	assert.Error(t, err)
}

func TestCreateNoteAndAssignToHandlers(t *testing.T) {
	store := newMemoryStore()
	data := leadData(t, store, models.SObject{"name": "Ravi"})

	note := &createNoteHandler{store: store}
	out, err := note.Execute(context.Background(), models.CreateNoteConfig{NoteText: "Lead {{name}} came in"}, data)
	require.NoError(t, err)
	notes := selectAll(t, store, constants.TableNote)
	require.Len(t, notes, 1)
	assert.Equal(t, notes[0][constants.FieldID], out["note_id"])
	assert.Equal(t, "Lead Ravi came in", notes[0][constants.FieldNoteContent])
	assert.Equal(t, data.EntityID, notes[0][constants.FieldRelatedToID])

	assign := &assignToHandler{store: store}
	_, err = assign.Execute(context.Background(), models.AssignToConfig{UserID: "agent-2"}, data)
	require.NoError(t, err)
	lead := selectAll(t, store, constants.TableLead, models.Eq(constants.FieldID, data.EntityID))[0]
	assert.Equal(t, "agent-2", lead[constants.FieldAssignedTo])

	_, err = assign.Execute(context.Background(), models.AssignToConfig{}, data)
	assert.EqualError(t, err, "assign_to requires user_id")
}

func TestWebhookHandler(t *testing.T) {
	var gotBody map[string]interface{}
	var gotHeader, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Token")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	h := &webhookHandler{caller: NewHTTPWebhookCaller(time.Second)}
	out, err := h.Execute(context.Background(), models.WebhookConfig{
		URL:     server.URL,
		Headers: map[string]string{"X-Token": "secret"},
	}, models.TriggerData{EntityType: "lead", EntityID: "lead-5", NewValues: models.SObject{"status": "new"}})

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, out["status_code"])
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "secret", gotHeader)
	assert.Equal(t, "lead-5", gotBody["entity_id"])
	assert.Equal(t, map[string]interface{}{"status": "new"}, gotBody["new_values"])
}

func TestWebhookHandler_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	h := &webhookHandler{caller: NewHTTPWebhookCaller(time.Second)}
	_, err := h.Execute(context.Background(), models.WebhookConfig{URL: server.URL, Method: "put"}, models.TriggerData{})
	assert.EqualError(t, err, "webhook returned error status: 502")

	_, err = h.Execute(context.Background(), models.WebhookConfig{URL: server.URL, Method: "TRACE"}, models.TriggerData{})
	assert.EqualError(t, err, "invalid HTTP method: TRACE")

	_, err = h.Execute(context.Background(), models.WebhookConfig{}, models.TriggerData{})
	assert.EqualError(t, err, "webhook requires a url")
}

func TestRenderTemplate(t *testing.T) {
	record := models.SObject{"name": "Asha", "budget": 2500000}

	assert.Equal(t, "Hi Asha", renderTemplate("Hi {{name}}", record))
	assert.Equal(t, "Budget 2500000", renderTemplate("Budget {{ budget }}", record))
	assert.Equal(t, "Hi ", renderTemplate("Hi {{missing}}", record))
	assert.Equal(t, "plain", renderTemplate("plain", nil))
}

func TestRegisterDefaultActions(t *testing.T) {
	registry := NewActionHandlerRegistry()
	RegisterDefaultActions(registry, newMemoryStore(), LogEmailSender{}, nil)

	assert.Equal(t, []models.ActionType{
		models.ActionAssignTo,
		models.ActionCreateNote,
		models.ActionCreateTask,
		models.ActionSendEmail,
		models.ActionUpdateField,
		models.ActionWebhook,
	}, registry.Types())
}
