package services

import (
	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
	"github.com/harshparashar-me/leadpilot-sub000/pkg/utils"
)

// TriggerEvaluator decides whether a workflow's actions should run for one
// occurrence. It never fails: incomplete configuration means "does not fire".
type TriggerEvaluator struct {
	conditions ports.ConditionEvaluator
}

// NewTriggerEvaluator creates an evaluator. conditions may be nil, in which
// case any workflow that carries a condition expression never fires.
func NewTriggerEvaluator(conditions ports.ConditionEvaluator) *TriggerEvaluator {
	return &TriggerEvaluator{conditions: conditions}
}

// ShouldFire applies the trigger-type rule and then the optional condition gate.
func (te *TriggerEvaluator) ShouldFire(wf *models.Workflow, data models.TriggerData) bool {
	if wf == nil || !MatchesTrigger(wf.TriggerType, wf.TriggerConfig, data) {
		return false
	}

	cond := ""
	if wf.TriggerConfig != nil {
		cond = wf.TriggerConfig.ConditionExpr()
	}
	if cond == "" {
		return true
	}
	if te.conditions == nil {
		return false
	}
	ok, err := te.conditions.EvaluateCondition(cond, ConditionEnv(data))
	return err == nil && ok
}

// MatchesTrigger is the pure trigger-type rule.
func MatchesTrigger(triggerType models.TriggerType, cfg models.TriggerConfig, data models.TriggerData) bool {
	switch triggerType {
	case models.TriggerOnCreate:
		return true

	case models.TriggerOnUpdate:
		return data.OldValues != nil && data.NewValues != nil

	case models.TriggerOnStatusChange:
		c, ok := cfg.(models.StatusChangeConfig)
		if !ok || c.Field == "" || data.OldValues == nil || data.NewValues == nil {
			return false
		}
		return fieldChanged(data.OldValues, data.NewValues, c.Field)

	case models.TriggerOnFieldChange:
		c, ok := cfg.(models.FieldChangeConfig)
		if !ok || c.Field == "" || data.OldValues == nil || data.NewValues == nil {
			return false
		}
		if c.HasTransition() {
			return utils.StrictEqual(data.OldValues[c.Field], c.OldValue) &&
				utils.StrictEqual(data.NewValues[c.Field], c.NewValue)
		}
		return fieldChanged(data.OldValues, data.NewValues, c.Field)

	case models.TriggerScheduled:
		// fired by SchedulerService, never by record events
		return false
	}
	return false
}

// fieldChanged reports whether field differs between the snapshots. A key
// present in one snapshot and absent from the other is a change even when
// the present value is null.
func fieldChanged(before, after models.SObject, field string) bool {
	oldVal, inOld := before[field]
	newVal, inNew := after[field]
	if inOld != inNew {
		return true
	}
	return !utils.StrictEqual(oldVal, newVal)
}

// ConditionEnv builds the expression environment for a condition gate: the
// new snapshot's fields at top level plus old, new, entity_type, entity_id
// and user_id.
func ConditionEnv(data models.TriggerData) map[string]interface{} {
	env := make(map[string]interface{}, len(data.NewValues)+5)
	for k, v := range data.NewValues {
		env[k] = v
	}
	env["old"] = map[string]interface{}(data.OldValues)
	env["new"] = map[string]interface{}(data.NewValues)
	env["entity_type"] = data.EntityType
	env["entity_id"] = data.EntityID
	env["user_id"] = data.UserID
	return env
}
