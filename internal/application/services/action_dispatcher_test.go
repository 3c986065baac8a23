package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

func actionOf(t models.ActionType) models.WorkflowAction {
	return models.WorkflowAction{Type: t, Config: models.UnknownActionConfig{Type: t}}
}

func TestActionDispatcher_ContinuesAfterFailure(t *testing.T) {
	var order []string
	registry := NewActionHandlerRegistry()
	registry.Register(&stubAction{actionType: "first", fn: func(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
		order = append(order, "first")
		return nil, errors.New("smtp down")
	}})
	registry.Register(&stubAction{actionType: "second", fn: func(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
		order = append(order, "second")
		return map[string]interface{}{"task_id": "task-1"}, nil
	}})

	d := NewActionDispatcher(registry, time.Second, nil)
	results, err := d.Dispatch(context.Background(), []models.WorkflowAction{actionOf("first"), actionOf("second")}, models.TriggerData{})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"first", "second"}, order)

	assert.Equal(t, models.ActionType("first"), results[0].Action)
	assert.False(t, results[0].Success)
	assert.Equal(t, "smtp down", results[0].Error)

	assert.True(t, results[1].Success)
	assert.Equal(t, "task-1", results[1].Output["task_id"])
}

func TestActionDispatcher_UnknownAction(t *testing.T) {
	d := NewActionDispatcher(NewActionHandlerRegistry(), time.Second, nil)

	results, err := d.Dispatch(context.Background(), []models.WorkflowAction{actionOf("teleport")}, models.TriggerData{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "Unknown action type: teleport", results[0].Error)
}

func TestActionDispatcher_EmptyActions(t *testing.T) {
	d := NewActionDispatcher(NewActionHandlerRegistry(), 0, nil)

	results, err := d.Dispatch(context.Background(), nil, models.TriggerData{})

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, DefaultActionTimeout, d.timeout)
}

func TestActionDispatcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	registry := NewActionHandlerRegistry()
	registry.Register(&stubAction{actionType: "slow", fn: func(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
		<-release
		return nil, nil
	}})
	ran := false
	registry.Register(&stubAction{actionType: "after", fn: func(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
		ran = true
		return nil, nil
	}})

	d := NewActionDispatcher(registry, 20*time.Millisecond, nil)
	results, err := d.Dispatch(context.Background(), []models.WorkflowAction{actionOf("slow"), actionOf("after")}, models.TriggerData{})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "timed out")
	assert.True(t, results[1].Success)
	assert.True(t, ran)
}

func TestActionDispatcher_PanicIsRecordedAndDispatchContinues(t *testing.T) {
	registry := NewActionHandlerRegistry()
	registry.Register(&stubAction{actionType: "explode", fn: func(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
		var m map[string]int
		m["boom"] = 1
		return nil, nil
	}})
	ran := false
	registry.Register(&stubAction{actionType: "after", fn: func(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
		ran = true
		return map[string]interface{}{"ok": true}, nil
	}})

	d := NewActionDispatcher(registry, time.Second, nil)
	results, err := d.Dispatch(context.Background(), []models.WorkflowAction{actionOf("explode"), actionOf("after")}, models.TriggerData{})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, models.ActionType("explode"), results[0].Action)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "panicked")
	assert.True(t, results[1].Success)
	assert.True(t, ran)
}

func TestActionDispatcher_CancelledContext(t *testing.T) {
	registry := NewActionHandlerRegistry()
	ran := false
	registry.Register(&stubAction{actionType: "noop", fn: func(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
		ran = true
		return nil, nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewActionDispatcher(registry, time.Second, nil)
	results, err := d.Dispatch(ctx, []models.WorkflowAction{actionOf("noop")}, models.TriggerData{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.False(t, ran)
}

func TestActionDispatcher_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWorkflowMetrics(reg)
	registry := NewActionHandlerRegistry()
	registry.Register(&stubAction{actionType: "ok", fn: func(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error) {
		return nil, nil
	}})

	d := NewActionDispatcher(registry, time.Second, metrics)
	_, err := d.Dispatch(context.Background(), []models.WorkflowAction{actionOf("ok"), actionOf("ok"), actionOf("missing")}, models.TriggerData{})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.actionsTotal.WithLabelValues("ok", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.actionsTotal.WithLabelValues("missing", "false")))
}
