package services

import (
	"context"
	"sort"
	"sync"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// ActionHandler is the interface for pluggable workflow action handlers.
type ActionHandler interface {
	// Type returns the action type this handler supports.
	Type() models.ActionType

	// Execute performs the side effect. The returned map is flattened into
	// the action's result.
	Execute(ctx context.Context, cfg models.ActionConfig, data models.TriggerData) (map[string]interface{}, error)
}

// ActionHandlerRegistry manages registered action handlers.
type ActionHandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[models.ActionType]ActionHandler
}

// NewActionHandlerRegistry creates a new empty registry
func NewActionHandlerRegistry() *ActionHandlerRegistry {
	return &ActionHandlerRegistry{
		handlers: make(map[models.ActionType]ActionHandler),
	}
}

// Register adds an action handler to the registry.
// If a handler for the same type already exists, it will be replaced.
func (r *ActionHandlerRegistry) Register(handler ActionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handler.Type()] = handler
}

// Get retrieves a handler for the given action type.
// Returns nil if no handler is registered.
func (r *ActionHandlerRegistry) Get(actionType models.ActionType) ActionHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[actionType]
}

// Types returns all registered action types, sorted.
func (r *ActionHandlerRegistry) Types() []models.ActionType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]models.ActionType, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
