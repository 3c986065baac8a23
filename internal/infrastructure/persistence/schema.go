package persistence

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/constants"
)

// ColumnDefinition represents a single column in a table
type ColumnDefinition struct {
	Name       string
	Type       string
	PrimaryKey bool
	Nullable   bool
	Default    string
}

// IndexDefinition represents an index on a table
type IndexDefinition struct {
	Name    string
	Columns []string
}

// TableDefinition represents a complete table schema
type TableDefinition struct {
	TableName string
	Columns   []ColumnDefinition
	Indices   []IndexDefinition
}

func systemColumns() []ColumnDefinition {
	return []ColumnDefinition{
		{Name: constants.FieldID, Type: "VARCHAR(36)", PrimaryKey: true},
		{Name: constants.FieldCreatedBy, Type: "VARCHAR(36)", Nullable: true},
		{Name: constants.FieldCreatedDate, Type: "DATETIME(3)", Default: "CURRENT_TIMESTAMP(3)"},
		{Name: constants.FieldLastModifiedDate, Type: "DATETIME(3)", Default: "CURRENT_TIMESTAMP(3)"},
	}
}

func crmTable(name string, cols ...ColumnDefinition) TableDefinition {
	cols = append(cols,
		ColumnDefinition{Name: constants.FieldAssignedTo, Type: "VARCHAR(36)", Nullable: true},
		ColumnDefinition{Name: constants.FieldStatus, Type: "VARCHAR(64)", Nullable: true},
	)
	return TableDefinition{
		TableName: name,
		Columns:   append(systemColumns(), cols...),
		Indices: []IndexDefinition{
			{Name: "idx_" + name + "_assigned_to", Columns: []string{constants.FieldAssignedTo}},
		},
	}
}

func text(name string) ColumnDefinition {
	return ColumnDefinition{Name: name, Type: "TEXT", Nullable: true}
}

func varchar(name string, n int) ColumnDefinition {
	return ColumnDefinition{Name: name, Type: fmt.Sprintf("VARCHAR(%d)", n), Nullable: true}
}

func decimal(name string) ColumnDefinition {
	return ColumnDefinition{Name: name, Type: "DECIMAL(18,2)", Nullable: true}
}

// TableDefinitions returns the schema of every collection.
func TableDefinitions() []TableDefinition {
	return []TableDefinition{
		{
			TableName: constants.TableWorkflow,
			Columns: append(systemColumns(),
				ColumnDefinition{Name: constants.FieldWorkflowName, Type: "VARCHAR(255)"},
				text(constants.FieldWorkflowDescription),
				ColumnDefinition{Name: constants.FieldWorkflowEntityType, Type: "VARCHAR(32)"},
				ColumnDefinition{Name: constants.FieldWorkflowTriggerType, Type: "VARCHAR(32)"},
				ColumnDefinition{Name: constants.FieldWorkflowTriggerConfig, Type: "JSON"},
				ColumnDefinition{Name: constants.FieldWorkflowActions, Type: "JSON"},
				ColumnDefinition{Name: constants.FieldWorkflowEnabled, Type: "TINYINT(1)", Default: "1"},
			),
			Indices: []IndexDefinition{
				{Name: "idx_workflows_entity_type", Columns: []string{constants.FieldWorkflowEntityType}},
			},
		},
		{
			TableName: constants.TableWorkflowExecution,
			Columns: append(systemColumns(),
				ColumnDefinition{Name: constants.FieldExecutionWorkflowID, Type: "VARCHAR(36)"},
				ColumnDefinition{Name: constants.FieldExecutionEntityType, Type: "VARCHAR(32)"},
				ColumnDefinition{Name: constants.FieldExecutionEntityID, Type: "VARCHAR(64)"},
				ColumnDefinition{Name: constants.FieldExecutionTrigger, Type: "JSON"},
				ColumnDefinition{Name: constants.FieldExecutionResults, Type: "JSON"},
				ColumnDefinition{Name: constants.FieldExecutionStatus, Type: "VARCHAR(16)"},
				text(constants.FieldExecutionError),
				ColumnDefinition{Name: constants.FieldExecutionTimeMS, Type: "BIGINT", Default: "0"},
			),
			Indices: []IndexDefinition{
				{Name: "idx_workflow_executions_workflow", Columns: []string{constants.FieldExecutionWorkflowID, constants.FieldCreatedDate}},
				{Name: "idx_workflow_executions_entity", Columns: []string{constants.FieldExecutionEntityType, constants.FieldExecutionEntityID}},
			},
		},
		crmTable(constants.TableLead, varchar(constants.FieldName, 255), varchar(constants.FieldEmail, 255), varchar("phone", 64), varchar("source", 64), varchar("stage", 64), decimal("budget")),
		crmTable(constants.TableContact, varchar(constants.FieldName, 255), varchar(constants.FieldEmail, 255), varchar("phone", 64), varchar("account_id", 36)),
		crmTable(constants.TableDeal, varchar(constants.FieldName, 255), varchar("stage", 64), decimal("amount"), varchar("account_id", 36), varchar("contact_id", 36)),
		crmTable(constants.TableTask,
			varchar(constants.FieldTaskSubject, 255), text(constants.FieldTaskDescription),
			ColumnDefinition{Name: constants.FieldTaskDueDate, Type: "DATE", Nullable: true},
			varchar(constants.FieldTaskPriority, 16),
			varchar(constants.FieldRelatedToType, 32), varchar(constants.FieldRelatedToID, 64)),
		crmTable(constants.TableProperty, varchar(constants.FieldName, 255), text("address"), varchar("property_type", 64), decimal("price")),
		crmTable(constants.TableSiteVisit, varchar("lead_id", 36), varchar("property_id", 36), ColumnDefinition{Name: "scheduled_at", Type: "DATETIME", Nullable: true}, text("feedback")),
		crmTable(constants.TableAccount, varchar(constants.FieldName, 255), varchar("industry", 64), varchar("website", 255)),
		{
			TableName: constants.TableNote,
			Columns: append(systemColumns(),
				text(constants.FieldNoteContent),
				varchar(constants.FieldRelatedToType, 32),
				varchar(constants.FieldRelatedToID, 64),
			),
			Indices: []IndexDefinition{
				{Name: "idx_notes_related", Columns: []string{constants.FieldRelatedToType, constants.FieldRelatedToID}},
			},
		},
	}
}

// BuildCreateTableDDL renders def as CREATE TABLE IF NOT EXISTS.
func BuildCreateTableDDL(def TableDefinition) string {
	var ddl strings.Builder
	ddl.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n", def.TableName))

	var lines []string
	var pk []string
	for _, col := range def.Columns {
		line := fmt.Sprintf("  `%s` %s", col.Name, col.Type)
		if !col.Nullable {
			line += " NOT NULL"
		}
		if col.Default != "" {
			line += " DEFAULT " + col.Default
		}
		if col.PrimaryKey {
			pk = append(pk, fmt.Sprintf("`%s`", col.Name))
		}
		lines = append(lines, line)
	}
	if len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}
	for _, idx := range def.Indices {
		cols := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			cols[i] = fmt.Sprintf("`%s`", c)
		}
		lines = append(lines, fmt.Sprintf("  KEY `%s` (%s)", idx.Name, strings.Join(cols, ", ")))
	}

	ddl.WriteString(strings.Join(lines, ",\n"))
	ddl.WriteString("\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")
	return ddl.String()
}

// EnsureSchema creates every missing table.
func EnsureSchema(ctx context.Context, db Executor) error {
	for _, def := range TableDefinitions() {
		if _, err := db.ExecContext(ctx, BuildCreateTableDDL(def)); err != nil {
			return fmt.Errorf("create table %s: %w", def.TableName, err)
		}
	}
	log.Printf("📐 Schema ready (%d tables)", len(TableDefinitions()))
	return nil
}
