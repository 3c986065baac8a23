package constants

// Collection (table) names
const (
	TableWorkflow          = "workflows"
	TableWorkflowExecution = "workflow_executions"
	TableLead              = "leads"
	TableContact           = "contacts"
	TableDeal              = "deals"
	TableTask              = "tasks"
	TableProperty          = "properties"
	TableSiteVisit         = "site_visits"
	TableAccount           = "accounts"
	TableNote              = "notes"
)

// Entity types a workflow can target
const (
	EntityLead      = "lead"
	EntityContact   = "contact"
	EntityDeal      = "deal"
	EntityTask      = "task"
	EntityProperty  = "property"
	EntitySiteVisit = "site_visit"
	EntityAccount   = "account"
)

var entityTables = map[string]string{
	EntityLead:      TableLead,
	EntityContact:   TableContact,
	EntityDeal:      TableDeal,
	EntityTask:      TableTask,
	EntityProperty:  TableProperty,
	EntitySiteVisit: TableSiteVisit,
	EntityAccount:   TableAccount,
}

// EntityTable returns the collection backing an entity type.
func EntityTable(entityType string) (string, bool) {
	table, ok := entityTables[entityType]
	return table, ok
}

// IsEntityType reports whether entityType is one of the known record kinds.
func IsEntityType(entityType string) bool {
	_, ok := entityTables[entityType]
	return ok
}

// EntityTypes returns all known entity types in a stable order.
func EntityTypes() []string {
	return []string{
		EntityLead,
		EntityContact,
		EntityDeal,
		EntityTask,
		EntityProperty,
		EntitySiteVisit,
		EntityAccount,
	}
}

// AllTables lists every collection the service creates at startup.
func AllTables() []string {
	return []string{
		TableWorkflow,
		TableWorkflowExecution,
		TableLead,
		TableContact,
		TableDeal,
		TableTask,
		TableProperty,
		TableSiteVisit,
		TableAccount,
		TableNote,
	}
}
