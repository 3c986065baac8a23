package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/utils"
)

// RegisterDefaultActions registers the built-in handlers on registry.
func RegisterDefaultActions(registry *ActionHandlerRegistry, store ports.RecordStore, email ports.EmailSender, webhooks ports.WebhookCaller) {
	registry.Register(&createTaskHandler{store: store, now: time.Now})
	registry.Register(&sendEmailHandler{sender: email})
	registry.Register(&updateFieldHandler{store: store})
	registry.Register(&createNoteHandler{store: store})
	registry.Register(&assignToHandler{store: store})
	registry.Register(&webhookHandler{caller: webhooks})
}

func configAs[T models.ActionConfig](cfg models.ActionConfig) (T, error) {
	c, ok := cfg.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected config %T for %s", cfg, zero.ActionType())
	}
	return c, nil
}

func entityTable(data models.TriggerData) (string, error) {
	table, ok := constants.EntityTable(data.EntityType)
	if !ok {
		return "", fmt.Errorf("unknown entity type %q", data.EntityType)
	}
	if data.EntityID == "" {
		return "", fmt.Errorf("trigger data has no entity id")
	}
	return table, nil
}

// optionalUser converts "" to nil so system runs store NULL.
func optionalUser(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

type createTaskHandler struct {
	store ports.RecordStore
	now   func() time.Time
}

func (h *createTaskHandler) Type() models.ActionType { return models.ActionCreateTask }

func (h *createTaskHandler) Execute(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
	c, err := configAs[models.CreateTaskConfig](cfg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Subject) == "" {
		return nil, fmt.Errorf("create_task requires a subject")
	}

	priority := c.Priority
	if priority == "" {
		priority = constants.TaskPriorityMedium
	}
	assignee := c.AssignedTo
	if assignee == "" {
		assignee = data.NewValues.GetString(constants.FieldAssignedTo)
	}
	if assignee == "" {
		assignee = data.UserID
	}

	task := models.SObject{
		constants.FieldTaskSubject:   renderTemplate(c.Subject, data.NewValues),
		constants.FieldTaskPriority:  priority,
		constants.FieldStatus:        constants.TaskStatusPending,
		constants.FieldRelatedToType: data.EntityType,
		constants.FieldRelatedToID:   data.EntityID,
		constants.FieldAssignedTo:    optionalUser(assignee),
		constants.FieldCreatedBy:     optionalUser(data.UserID),
	}
	if c.Description != "" {
		task[constants.FieldTaskDescription] = renderTemplate(c.Description, data.NewValues)
	}
	switch {
	case c.DueDate != "":
		task[constants.FieldTaskDueDate] = c.DueDate
	case c.DueInDays != nil:
		task[constants.FieldTaskDueDate] = h.now().AddDate(0, 0, *c.DueInDays).Format(constants.DateLayout)
	}

	row, err := h.store.Insert(ctx, constants.TableTask, task)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return map[string]interface{}{"task_id": row[constants.FieldID]}, nil
}

type sendEmailHandler struct {
	sender ports.EmailSender
}

func (h *sendEmailHandler) Type() models.ActionType { return models.ActionSendEmail }

func (h *sendEmailHandler) Execute(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
	c, err := configAs[models.SendEmailConfig](cfg)
	if err != nil {
		return nil, err
	}
	if h.sender == nil {
		return nil, fmt.Errorf("no email sender configured")
	}

	to := c.To
	if to == "" && c.ToField != "" {
		to = data.NewValues.GetString(c.ToField)
	}
	if to == "" {
		to = data.NewValues.GetString(constants.FieldEmail)
	}
	if to == "" {
		return nil, fmt.Errorf("send_email has no recipient")
	}

	msg := ports.EmailMessage{
		To:       to,
		Subject:  renderTemplate(c.Subject, data.NewValues),
		Body:     renderTemplate(c.Body, data.NewValues),
		Template: c.Template,
		Data:     data.NewValues,
	}
	if err := h.sender.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}
	return map[string]interface{}{"to": to}, nil
}

type updateFieldHandler struct {
	store ports.RecordStore
}

func (h *updateFieldHandler) Type() models.ActionType { return models.ActionUpdateField }

func (h *updateFieldHandler) Execute(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
	c, err := configAs[models.UpdateFieldConfig](cfg)
	if err != nil {
		return nil, err
	}
	if c.Field == "" {
		return nil, fmt.Errorf("update_field requires a field")
	}
	if c.Field == constants.FieldID {
		return nil, fmt.Errorf("update_field cannot change %s", constants.FieldID)
	}
	table, err := entityTable(data)
	if err != nil {
		return nil, err
	}

	if _, err := h.store.Update(ctx, table, models.SObject{c.Field: c.Value}, []models.QueryCriterion{models.Eq(constants.FieldID, data.EntityID)}); err != nil {
		return nil, fmt.Errorf("update %s.%s: %w", table, c.Field, err)
	}
	return map[string]interface{}{"field": c.Field, "value": c.Value}, nil
}

type createNoteHandler struct {
	store ports.RecordStore
}

func (h *createNoteHandler) Type() models.ActionType { return models.ActionCreateNote }

func (h *createNoteHandler) Execute(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
	c, err := configAs[models.CreateNoteConfig](cfg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.NoteText) == "" {
		return nil, fmt.Errorf("create_note requires note_text")
	}

	row, err := h.store.Insert(ctx, constants.TableNote, models.SObject{
		constants.FieldNoteContent:   renderTemplate(c.NoteText, data.NewValues),
		constants.FieldRelatedToType: data.EntityType,
		constants.FieldRelatedToID:   data.EntityID,
		constants.FieldCreatedBy:     optionalUser(data.UserID),
	})
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return map[string]interface{}{"note_id": row[constants.FieldID]}, nil
}

type assignToHandler struct {
	store ports.RecordStore
}

func (h *assignToHandler) Type() models.ActionType { return models.ActionAssignTo }

func (h *assignToHandler) Execute(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
	c, err := configAs[models.AssignToConfig](cfg)
	if err != nil {
		return nil, err
	}
	if c.UserID == "" {
		return nil, fmt.Errorf("assign_to requires user_id")
	}
	table, err := entityTable(data)
	if err != nil {
		return nil, err
	}

	if _, err := h.store.Update(ctx, table, models.SObject{constants.FieldAssignedTo: c.UserID}, []models.QueryCriterion{models.Eq(constants.FieldID, data.EntityID)}); err != nil {
		return nil, fmt.Errorf("assign %s %s: %w", data.EntityType, data.EntityID, err)
	}
	return map[string]interface{}{"assigned_to": c.UserID}, nil
}

type webhookHandler struct {
	caller ports.WebhookCaller
}

func (h *webhookHandler) Type() models.ActionType { return models.ActionWebhook }

func (h *webhookHandler) Execute(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
	c, err := configAs[models.WebhookConfig](cfg)
	if err != nil {
		return nil, err
	}
	if c.URL == "" {
		return nil, fmt.Errorf("webhook requires a url")
	}
	if h.caller == nil {
		return nil, fmt.Errorf("no webhook client configured")
	}

	resp, err := h.caller.Call(ctx, ports.WebhookRequest{
		URL:     c.URL,
		Method:  c.Method,
		Headers: c.Headers,
		Payload: data,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Webhook %s answered %d", c.URL, resp.StatusCode)
	return map[string]interface{}{"status_code": resp.StatusCode}, nil
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// renderTemplate replaces {{field}} with the value of field in record.
// Unknown fields render as empty strings.
func renderTemplate(tmpl string, record models.SObject) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		return utils.ToString(record[name])
	})
}
